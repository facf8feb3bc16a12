package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/megastock/rollplan/internal/engine"
	"github.com/megastock/rollplan/internal/project"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare planning outcomes for alternative settings",
	Long: `Plans copies of the order book under the current settings, the other
roll strategy, one more cavity multiplier and each roll width on its own.
The order book is not modified.`,
	RunE: runCompare,
}

func init() {
	addSettingFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	widths, err := cat.SelectRollWidths(planFlags.rolls)
	if err != nil {
		return err
	}
	book, err := project.LoadOrderBook(ordersPath())
	if err != nil {
		return err
	}

	scenarios := engine.BuildDefaultScenarios(planSettings(cmd), widths)
	results, err := engine.CompareScenarios(scenarios, book.Orders, widths)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCENARIO\tGROUPS\tEFFICIENCY\tLEFTOVER\tPENDING\tPLANNED\tMETERS\tTERMINATION")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\t%.1f%%\t%.0f\t%d\t%d\t%.1f\t%s\n",
			r.Scenario.Name, r.Result.GroupsCreated, r.Result.AverageEfficiency, r.Result.TotalLeftover,
			r.Result.PendingOrders, r.PlannedOrders, r.PlannedMeters, r.Result.Termination)
	}
	return w.Flush()
}
