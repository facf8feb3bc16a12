package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/megastock/rollplan/internal/engine"
	"github.com/megastock/rollplan/internal/export"
	"github.com/megastock/rollplan/internal/model"
	"github.com/megastock/rollplan/internal/project"
)

var planFlags struct {
	rolls         []float64
	singleRoll    bool
	cavityCeiling int
	margin        float64
	report        string
	xlsx          string
	dxf           string
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan the order book onto roll runs",
	RunE:  runPlan,
}

func init() {
	addSettingFlags(planCmd)
	f := planCmd.Flags()
	f.StringVar(&planFlags.report, "report", "", "write the PDF planning report to this file")
	f.StringVar(&planFlags.xlsx, "xlsx", "", "write the Excel workbook to this file")
	f.StringVar(&planFlags.dxf, "dxf", "", "write the DXF knife layout to this file")
	rootCmd.AddCommand(planCmd)
}

// addSettingFlags registers the planner setting overrides on cmd.
func addSettingFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Float64SliceVar(&planFlags.rolls, "rolls", nil, "roll widths to use in mm (default: every active roll)")
	f.BoolVar(&planFlags.singleRoll, "single-roll", false, "use one roll width for the whole run")
	f.IntVar(&planFlags.cavityCeiling, "cavity-ceiling", 0, "highest cavity multiplier to try")
	f.Float64Var(&planFlags.margin, "margin", 0, "safety margin in mm")
}

// planSettings merges config defaults with the flags that were set.
func planSettings(cmd *cobra.Command) model.PlanSettings {
	s := model.DefaultSettings()
	cfg.ApplyToSettings(&s)
	flags := cmd.Flags()
	if flags.Changed("single-roll") {
		s.SingleRoll = planFlags.singleRoll
	}
	if flags.Changed("cavity-ceiling") {
		s.CavityMultiplierCeiling = planFlags.cavityCeiling
	}
	if flags.Changed("margin") {
		s.SafetyMargin = planFlags.margin
	}
	return s
}

func runPlan(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	widths, err := cat.SelectRollWidths(planFlags.rolls)
	if err != nil {
		return err
	}

	path := ordersPath()
	book, err := project.LoadOrderBook(path)
	if err != nil {
		return err
	}

	before := project.MakeSnapshot(book, "plan")
	settings := planSettings(cmd)
	open, locked := book.Plannable()
	if len(locked) > 0 {
		log.WithField("orders", len(locked)).Info("orders with live work orders kept out of the run")
	}
	planner := engine.New(settings)
	planner.Log = log
	planner.GroupOffset = engine.HighestGroup(locked)
	result, err := planner.Plan(open, widths)
	if err != nil {
		return err
	}
	book.LastRun = &result
	if err := project.SaveOrderBook(path, book); err != nil {
		return err
	}
	remember(before)

	printPlan(cmd.OutOrStdout(), book.Orders, result)

	rep := export.Report{Orders: book.Orders, Result: result, Settings: settings}
	if planFlags.report != "" {
		if err := export.ExportPDF(planFlags.report, rep); err != nil {
			return err
		}
		log.WithField("file", planFlags.report).Info("planning report written")
	}
	if planFlags.xlsx != "" {
		if err := export.ExportExcel(planFlags.xlsx, rep); err != nil {
			return err
		}
		log.WithField("file", planFlags.xlsx).Info("workbook written")
	}
	if planFlags.dxf != "" && result.GroupsCreated > 0 {
		if err := export.ExportDXF(planFlags.dxf, book.Orders, settings.SafetyMargin); err != nil {
			return err
		}
		log.WithField("file", planFlags.dxf).Info("knife layout written")
	}
	return nil
}

func printPlan(out io.Writer, orders []*model.Order, result model.PlanningResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tTYPE\tROLL\tORDERS\tUSED\tLEFTOVER\tEFFICIENCY\tMETERS")
	for _, g := range export.CollectGroups(orders) {
		ids := ""
		for i, o := range g.Orders {
			if i > 0 {
				ids += ","
			}
			ids += fmt.Sprintf("%s(x%d)", o.ID, o.Planning.CavityMultiplierUsed)
		}
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\t%.0f\t%.0f\t%.0f%%\t%.1f\n",
			g.Name, g.Type, g.RollWidth, ids, g.WidthUsed, g.LeftoverWidth, g.Efficiency, g.LinearMeters)
	}
	w.Flush()

	for _, o := range export.PendingOrders(orders) {
		fmt.Fprintf(out, "pending: %s (blank %.0f mm)\n", o.Label(), o.CalculatedWidth())
	}
	fmt.Fprintf(out, "\n%d groups, %.1f%% average efficiency, %.0f mm leftover, %d pending (%s after %d iterations)\n",
		result.GroupsCreated, result.AverageEfficiency, result.TotalLeftover, result.PendingOrders,
		result.Termination, result.IterationsUsed)
}
