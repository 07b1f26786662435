package rule

import (
	"reflect"
	"sync"
	"testing"

	"github.com/nibzard/schedulr-go/internal/todo"
)

func TestNewRegistryBuiltins(t *testing.T) {
	reg := NewRegistry(fixedClock)

	want := []string{CompletedName, TodayName, WeekName}
	if got := reg.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	for _, name := range want {
		if !reg.IsBuiltin(name) {
			t.Errorf("IsBuiltin(%q) = false", name)
		}
		r, ok := reg.Lookup(name)
		if !ok || r.Name() != name {
			t.Errorf("Lookup(%q) = %v, %v", name, r, ok)
		}
	}
	if reg.IsBuiltin("homework") {
		t.Error("IsBuiltin(homework) = true")
	}
	if len(reg.Tags()) != 0 {
		t.Errorf("Tags() = %v, want none", reg.Tags())
	}
}

func TestNewRegistryNilClock(t *testing.T) {
	reg := NewRegistry(nil)
	task := todo.Task{ID: "T1", Title: "x"}
	if reg.Resolve(TodayName).Test(&task) {
		t.Error("dateless task matched today")
	}
}

func TestRegistryResolveFallsBackToTag(t *testing.T) {
	reg := NewRegistry(fixedClock)

	if _, ok := reg.Lookup("school"); ok {
		t.Fatal("Lookup(school) should not find a rule")
	}
	school := reg.Resolve("school")
	if school.Name() != "school" {
		t.Errorf("Name() = %q", school.Name())
	}
	if reg.Resolve("school") != school {
		t.Error("Resolve returned a new tag instance")
	}
	if !reflect.DeepEqual(reg.Tags(), []string{"school"}) {
		t.Errorf("Tags() = %v", reg.Tags())
	}

	tagged := todo.Task{ID: "T1", Title: "x", Tags: []string{"school"}}
	plain := todo.Task{ID: "T2", Title: "y", Tags: []string{"home"}}
	if !school.Test(&tagged) || school.Test(&plain) {
		t.Error("tag rule matched the wrong tasks")
	}
}

func TestRegistryRegisterAndUnregister(t *testing.T) {
	reg := NewRegistry(fixedClock)
	tag := reg.Resolve("urgent")

	first := Named("urgent", reg.Resolve(TodayName))
	reg.Register(first)
	if reg.Resolve("urgent") != first {
		t.Fatal("registered rule does not shadow the tag")
	}

	second := Named("urgent", reg.Resolve(WeekName))
	reg.Register(second)
	if got, _ := reg.Lookup("urgent"); got != second {
		t.Error("Register did not replace the previous rule")
	}
	if want := []string{CompletedName, TodayName, "urgent", WeekName}; !reflect.DeepEqual(reg.Names(), want) {
		t.Errorf("Names() = %v, want %v", reg.Names(), want)
	}

	if !reg.Unregister("urgent") {
		t.Error("Unregister(urgent) = false")
	}
	if reg.Unregister("urgent") {
		t.Error("second Unregister(urgent) = true")
	}
	if reg.Resolve("urgent") != tag {
		t.Error("unregistered name did not fall back to the cached tag")
	}

	reg.Register(nil)
	if len(reg.Names()) != 3 {
		t.Errorf("Register(nil) changed names: %v", reg.Names())
	}
}

func TestRegistryConcurrentTagCreation(t *testing.T) {
	reg := NewRegistry(fixedClock)

	const workers = 32
	results := make([]*Rule, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = reg.Resolve("shared")
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r != results[0] {
			t.Fatalf("worker %d got a different tag instance", i)
		}
	}
	if len(reg.Tags()) != 1 {
		t.Errorf("Tags() = %v, want one", reg.Tags())
	}
}

func TestRegistryConcurrentParse(t *testing.T) {
	reg := NewRegistry(fixedClock)
	p := NewParser(reg, nil)
	task := todo.Task{ID: "T1", Title: "x", Due: dueIn(0), Tags: []string{"homework"}}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if !p.Compile("today & homework").Test(&task) {
				t.Error("concurrent compile did not match")
			}
		}()
	}
	wg.Wait()
}
