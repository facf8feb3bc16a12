package export

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/megastock/rollplan/internal/workorder"
)

// Sheet names in the planning workbook.
const (
	SheetPlan       = "Plan"
	SheetWorkOrders = "Work Orders"
	SheetSummary    = "Summary"
)

var planHeaders = []string{
	"Order", "Customer", "Flute", "Board g/m²", "Requested", "Cavity", "Blank Width", "Blank Length",
	"Group", "Type", "Roll Width", "Width Used", "Leftover", "Efficiency %",
	"Multiplier", "Linear Meters", "Cuts", "Planned", "Leftover Covered", "Work Order",
}

var workOrderHeaders = []string{
	"Number", "Group", "Type", "Roll Width", "Linear Meters", "Cuts", "Orders",
	"Hours", "Inner kg", "Medium kg", "Outer kg", "Cost", "Status",
}

// ExportExcel writes the plan, the work orders and the run summary to an
// xlsx workbook.
func ExportExcel(path string, rep Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPlan); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	for _, name := range []string{SheetWorkOrders, SheetSummary} {
		if _, err := f.NewSheet(name); err != nil {
			return errors.Wrapf(err, "create sheet %s", name)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6E6E6"}, Pattern: 1},
	})
	if err != nil {
		return errors.Wrap(err, "header style")
	}

	var planRows [][]interface{}
	for _, o := range rep.Orders {
		if o == nil || o.IsTemporary {
			continue
		}
		p := o.Planning
		planRows = append(planRows, []interface{}{
			o.ID, o.Customer, o.FluteCode, workorder.BoardGrammage(o).StringFixed(1), o.RequestedQuantity, o.Cavity,
			o.CalculatedWidth(), o.CalculatedLength(),
			p.Group, string(p.CombinationType), p.RollWidthUsed, p.WidthUsed, p.LeftoverWidth, p.EfficiencyPercent,
			p.CavityMultiplierUsed, p.PlannedLinearMeters, p.PlannedCuts, p.PlannedQuantity,
			p.LeftoverCoveredQuantity, p.WorkOrder,
		})
	}
	if err := writeTable(f, SheetPlan, header, planHeaders, planRows); err != nil {
		return err
	}

	var woRows [][]interface{}
	for _, wo := range rep.WorkOrders {
		woRows = append(woRows, []interface{}{
			wo.Number, wo.Group, string(wo.Type), wo.RollWidth, wo.LinearMeters, wo.Cuts,
			strings.Join(wo.OrderIDs, ", "), wo.EstimatedHours,
			wo.Material.InnerLinerKg.InexactFloat64(),
			wo.Material.MediumKg.InexactFloat64(),
			wo.Material.OuterLinerKg.InexactFloat64(),
			wo.EstimatedCost.StringFixed(2), string(wo.Status),
		})
	}
	if err := writeTable(f, SheetWorkOrders, header, workOrderHeaders, woRows); err != nil {
		return err
	}

	res := rep.Result
	summary := [][]interface{}{
		{"Run", res.RunID},
		{"Strategy", string(res.Strategy)},
		{"Termination", string(res.Termination)},
		{"Iterations", res.IterationsUsed},
		{"Groups Created", res.GroupsCreated},
		{"Average Efficiency %", res.AverageEfficiency},
		{"Total Leftover mm", res.TotalLeftover},
		{"Pending Orders", res.PendingOrders},
		{"Temporary Orders", res.TemporariesCreated},
	}
	if err := writeTable(f, SheetSummary, header, []string{"Metric", "Value"}, summary); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "write workbook %s", path)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, style int, headers []string, rows [][]interface{}) error {
	for c, h := range headers {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return errors.Wrap(err, "header cell")
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.Wrapf(err, "%s!%s", sheet, cell)
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return errors.Wrap(err, "header range")
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return errors.Wrapf(err, "style %s header", sheet)
	}

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return errors.Wrap(err, "data cell")
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return errors.Wrapf(err, "%s!%s", sheet, cell)
			}
		}
	}
	return nil
}
