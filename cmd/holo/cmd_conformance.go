package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"holograph/internal/hdc"
)

var conformanceStrategy string

// conformanceCmd checks registered strategies against the algebraic
// contract: bind laws, unbind recovery, naming determinism, serialization
// round-trips and the random-similarity baseline.
var conformanceCmd = &cobra.Command{
	Use:   "conformance",
	Short: "Run the strategy conformance suite",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := hdc.DefaultRegistry(seedFromString(cfg.HDC.Seed))

		ids := registry.IDs()
		if conformanceStrategy != "" {
			id := hdc.StrategyID(conformanceStrategy)
			if _, err := registry.Strategy(id); err != nil {
				return err
			}
			ids = []hdc.StrategyID{id}
		}

		geometries := make(map[hdc.StrategyID]hdc.Geometry, len(ids))
		for _, id := range ids {
			geometries[id] = conformanceGeometry(id)
		}

		failed := false
		for _, report := range hdc.CheckRegistry(registry, geometries) {
			if report.Passed() {
				fmt.Println(successStyle.Render("PASS ") + report.String())
				continue
			}
			failed = true
			fmt.Println(errorStyle.Render("FAIL ") + report.String())
			for _, v := range report.Violations {
				fmt.Println(errorStyle.Render("  - " + v))
			}
		}
		if failed {
			return fmt.Errorf("conformance violations found")
		}
		return nil
	},
}

// conformanceGeometry adapts the configured geometry per strategy. Dense and
// bipolar configs carry no density, so checking the sparse strategy alongside
// them borrows the default density rather than handing it an unusable
// geometry.
func conformanceGeometry(id hdc.StrategyID) hdc.Geometry {
	g := hdc.Geometry{Dimensions: cfg.HDC.Dimensions, Density: cfg.HDC.Density}
	if id == hdc.StrategySparse && g.Density <= 0 {
		g.Density = 64
		if g.Density > g.Dimensions {
			g.Density = g.Dimensions
		}
	}
	return g
}

func init() {
	conformanceCmd.Flags().StringVar(&conformanceStrategy, "strategy", "", "check a single strategy (dense, sparse, bipolar)")
}
