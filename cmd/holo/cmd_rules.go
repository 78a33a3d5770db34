package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"holograph/internal/holo"
)

var (
	ruleName       string
	ruleConclusion string
	rulePremises   string
	ruleSource     string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage inference rules",
}

var rulesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an inference rule",
	Long: `Adds a rule. The source is Mangle notation and is handed to the
symbolic engine verbatim; conclusion and premises feed the query classifier.

Example:
  holo rules add --name grandparent \
    --conclusion grandparentOf --premises parentOf,parentOf \
    --source 'grandparentOf(X, Z) :- parentOf(X, Y), parentOf(Y, Z).'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ruleName == "" || ruleConclusion == "" {
			return fmt.Errorf("--name and --conclusion are required")
		}
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		var premises []string
		for _, p := range strings.Split(rulePremises, ",") {
			if p = strings.TrimSpace(p); p != "" {
				premises = append(premises, p)
			}
		}
		a.rules.Add(holo.Rule{Name: ruleName, Conclusion: ruleConclusion, Premises: premises, Source: ruleSource})
		if err := a.save(ctx); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("added rule ") + ruleName)
		return nil
	},
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inference rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		rules := a.rules.Rules()
		if len(rules) == 0 {
			fmt.Println(mutedStyle.Render("no rules"))
			return nil
		}
		for _, r := range rules {
			fmt.Printf("%s: %s :- %s\n", keyStyle.Render(r.Name), r.Conclusion, strings.Join(r.Premises, ", "))
			if r.Source != "" {
				fmt.Println(mutedStyle.Render("    " + r.Source))
			}
		}
		return nil
	},
}

// markCmd records operator metadata that steers the query classifier.
var markCmd = &cobra.Command{
	Use:   "mark [kind] [operator]",
	Short: "Mark operator metadata (transitive, graph, inheritable, meta)",
	Long: `Marks an operator so the classifier routes its queries correctly:

  transitive   truth is the closure over explicit edges; symbolic only
  graph        records are graph-wrapped; flat unbind is unsound
  inheritable  answers may be inherited through isA; fast path is unsound
  meta         inherently non-factual; symbolic only`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		kind, op := args[0], args[1]
		switch kind {
		case "transitive":
			a.ops.MarkTransitive(op)
		case "graph":
			a.ops.MarkGraph(op)
		case "inheritable":
			a.ops.MarkInheritable(op)
		case "meta":
			a.ops.MarkMeta(op)
		default:
			return fmt.Errorf("unknown mark kind %q", kind)
		}
		if err := a.save(ctx); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("marked ") + op + mutedStyle.Render(" ["+kind+"]"))
		return nil
	},
}

func init() {
	rulesAddCmd.Flags().StringVar(&ruleName, "name", "", "rule name")
	rulesAddCmd.Flags().StringVar(&ruleConclusion, "conclusion", "", "conclusion operator")
	rulesAddCmd.Flags().StringVar(&rulePremises, "premises", "", "comma-separated premise operators")
	rulesAddCmd.Flags().StringVar(&ruleSource, "source", "", "rule in Mangle notation")
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesListCmd)
}
