package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"holograph/internal/holo"
)

var (
	queryMaxResults int
	queryExplain    bool
)

// assertCmd adds a fact to the session KB.
var assertCmd = &cobra.Command{
	Use:   "assert [operator] [args...]",
	Short: "Assert a fact into the knowledge base",
	Long: `Asserts one fact and persists the session.

Example:
  holo assert capitalOf Paris France`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		fact := a.kb.Assert(args[0], args[1:]...)
		if err := a.save(ctx); err != nil {
			return err
		}
		fmt.Println(successStyle.Render("asserted ") + fact.String())
		return nil
	},
}

// queryCmd runs one statement through the holographic pipeline.
var queryCmd = &cobra.Command{
	Use:   "query [operator] [args...]",
	Short: "Query the knowledge base",
	Long: `Runs one query statement. Arguments starting with '?' are holes.

Examples:
  holo query capitalOf ?X France
  holo query capitalOf Paris France
  holo query livesIn ?Who ?Where --explain`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		st := parseStatement(args)
		result := a.engine.Execute(ctx, st, holo.Options{MaxResults: queryMaxResults})
		fmt.Print(renderResult(st, result, queryExplain))
		return nil
	},
}

// statsCmd prints KB and session statistics.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge-base statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		fmt.Println(titleStyle.Render("session " + sessionName))
		fmt.Printf("  strategy:   %s (%d dims)\n", a.strategy.ID(), a.geometry.Dimensions)
		fmt.Printf("  facts:      %d\n", a.kb.Size())
		fmt.Printf("  rules:      %d\n", len(a.rules.Rules()))
		fmt.Printf("  vocabulary: %d terms\n", len(a.kb.Vocabulary()))

		counts := a.kb.OperatorCounts()
		ops := make([]string, 0, len(counts))
		for op := range counts {
			ops = append(ops, op)
		}
		sort.Strings(ops)
		for _, op := range ops {
			marks := operatorMarks(a, op)
			fmt.Printf("    %-24s %4d%s\n", op, counts[op], marks)
		}
		return nil
	},
}

func operatorMarks(a *app, op string) string {
	var marks []string
	if a.ops.IsTransitive(op) {
		marks = append(marks, "transitive")
	}
	if a.ops.GraphOperators()[op] {
		marks = append(marks, "graph")
	}
	if a.ops.IsInheritable(op) {
		marks = append(marks, "inheritable")
	}
	if len(marks) == 0 {
		return ""
	}
	return mutedStyle.Render("  [" + strings.Join(marks, ", ") + "]")
}

// parseStatement turns CLI tokens into a statement; '?'-prefixed tokens are
// holes.
func parseStatement(args []string) holo.Statement {
	st := holo.Statement{Operator: args[0]}
	for i, raw := range args[1:] {
		if strings.HasPrefix(raw, "?") {
			name := strings.TrimPrefix(raw, "?")
			if name == "" {
				name = fmt.Sprintf("X%d", i)
			}
			st.Args = append(st.Args, holo.Hole(name))
		} else {
			st.Args = append(st.Args, holo.Known(raw))
		}
	}
	return st
}

func init() {
	queryCmd.Flags().IntVar(&queryMaxResults, "max-results", 0, "maximum results (0 = config default)")
	queryCmd.Flags().BoolVar(&queryExplain, "explain", false, "print proof trails")
}
