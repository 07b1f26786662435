package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"sort"
	"strings"

	"github.com/nibzard/schedulr-go/internal/rule"
	"github.com/nibzard/schedulr-go/internal/userrules"
)

var builtinDescriptions = map[string]string{
	rule.TodayName:     "due today or earlier",
	rule.WeekName:      "due within the next seven days, or overdue",
	rule.CompletedName: "marked completed",
}

// rulesCommand lists built-in rules, user rules, and the tags in use.
func rulesCommand(ctx context.Context, s *session, args []string) error {
	fs := flag.NewFlagSet("schedulr rules", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg := s.parser.Registry()
	fmt.Println("Built-in rules:")
	for _, name := range reg.Names() {
		if reg.IsBuiltin(name) {
			fmt.Printf("  %-12s %s\n", name, builtinDescriptions[name])
		}
	}
	fmt.Println()

	fmt.Println("User rules:")
	if len(s.rules) == 0 {
		fmt.Println("  (none)")
	}
	defs := append([]userrules.Definition(nil), s.rules...)
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	for _, def := range defs {
		fmt.Printf("  %-12s %s  (%s)\n", def.Name, def.Expr, def.Origin)
	}
	if s.ruleErr != nil {
		fmt.Println()
		fmt.Println("Rules that failed to load:")
		for _, line := range strings.Split(s.ruleErr.Error(), "\n") {
			fmt.Printf("  %s\n", line)
		}
	}
	fmt.Println()

	f, err := s.load(ctx)
	if err != nil {
		return err
	}
	counts := make(map[string]int)
	for _, t := range f.Tasks {
		for _, tag := range t.Tags {
			counts[tag]++
		}
	}
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	fmt.Println("Tags:")
	if len(tags) == 0 {
		fmt.Println("  (none)")
	}
	for _, tag := range tags {
		note := ""
		if _, ok := reg.Lookup(tag); ok {
			note = "  (shadowed by rule)"
		}
		fmt.Printf("  %-12s %d%s\n", tag, counts[tag], note)
	}
	return nil
}

// ruleCommand manages user rules in the rules file.
func ruleCommand(ctx context.Context, s *session, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: schedulr rule <add|rm|ls> ...")
	}
	sub, rest := args[0], args[1:]
	switch sub {
	case "add":
		return ruleAddCommand(s, rest)
	case "rm", "remove":
		return ruleRemoveCommand(s, rest)
	case "ls", "list":
		return rulesCommand(ctx, s, rest)
	default:
		return fmt.Errorf("unknown rule command: %s", sub)
	}
}

func ruleAddCommand(s *session, args []string) error {
	fs := flag.NewFlagSet("schedulr rule add", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireArgs(fs, 2, "rule add <name> <expr>"); err != nil {
		return err
	}
	def := userrules.Definition{Name: fs.Arg(0), Expr: strings.Join(fs.Args()[1:], " ")}
	if err := userrules.Add(s.parser, s.cfg.RulesFile, def); err != nil {
		return err
	}
	s.logger.Debug("rule saved", "rule", def.Name, "path", s.cfg.RulesFile)
	fmt.Printf("Saved rule %s = %s\n", def.Name, def.Expr)
	if expr, ok := s.cfg.Rules[def.Name]; ok {
		fmt.Printf("  overrides config rule %s = %s\n", def.Name, expr)
	}
	fmt.Printf("  compiles to %s\n", explainDefinition(s.parser, def))
	return nil
}

// explainDefinition shows the structure of a definition's expression.
func explainDefinition(p *rule.Parser, def userrules.Definition) string {
	r, err := p.Parse(def.Expr)
	if err != nil || r == nil {
		return def.Expr
	}
	return r.Name()
}

func ruleRemoveCommand(s *session, args []string) error {
	fs := flag.NewFlagSet("schedulr rule rm", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("usage: schedulr rule rm <name>")
	}
	name := fs.Arg(0)

	removed, err := userrules.Remove(s.parser.Registry(), s.cfg.RulesFile, name)
	if err != nil {
		return err
	}
	if !removed {
		if _, ok := s.cfg.Rules[name]; ok {
			return fmt.Errorf("rule %q is defined in the config file; edit it there", name)
		}
		return fmt.Errorf("rule %q not found in %s", name, s.cfg.RulesFile)
	}
	fmt.Printf("Removed rule %s\n", name)
	return nil
}
