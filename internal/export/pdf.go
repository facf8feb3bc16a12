package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/megastock/rollplan/internal/model"
)

// stripColor represents an RGB color for an order strip.
type stripColor struct {
	R, G, B int
}

// stripColors is the palette cycled through the orders of a group.
var stripColors = []stripColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	drawAreaTop  = marginTop + headerHeight + 10.0
	rollBandH    = 60.0 // height of the roll diagram
)

// ExportPDF writes the planning report. Each group gets a page with a roll
// diagram and its order table, followed by a summary page.
func ExportPDF(path string, rep Report) error {
	groups := CollectGroups(rep.Orders)
	if len(groups) == 0 && len(PendingOrders(rep.Orders)) == 0 {
		return errors.New("no orders to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)

	for _, g := range groups {
		pdf.AddPage()
		renderGroupPage(pdf, g, rep.Settings)
	}

	pdf.AddPage()
	renderSummaryPage(pdf, rep, groups)

	if err := pdf.OutputFileAndClose(path); err != nil {
		return errors.Wrapf(err, "write report %s", path)
	}
	return nil
}

// renderGroupPage draws one planning group on the current page.
func renderGroupPage(pdf *fpdf.Fpdf, g Group, settings model.PlanSettings) {
	contentW := pageWidth - marginLeft - marginRight

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("%s: %s on %.0f mm roll", g.Name, g.Type, g.RollWidth)
	if g.WorkOrder != "" {
		title += " (" + g.WorkOrder + ")"
	}
	pdf.CellFormat(contentW, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Width used: %.0f mm | Leftover: %.0f mm | Efficiency: %.0f%% | Linear meters: %.1f m",
		g.WidthUsed, g.LeftoverWidth, g.Efficiency, g.LinearMeters)
	pdf.CellFormat(contentW, 5, stats, "", 0, "L", false, 0, "")

	if g.RollWidth <= 0 {
		renderGroupTable(pdf, g, drawAreaTop)
		return
	}
	scale := contentW / g.RollWidth
	x0 := marginLeft
	y0 := drawAreaTop

	// Roll outline
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.SetFillColor(250, 250, 250)
	pdf.Rect(x0, y0, g.RollWidth*scale, rollBandH, "FD")

	// Safety margin split across both edges
	half := settings.SafetyMargin / 2
	if half > 0 {
		pdf.SetFillColor(220, 220, 220)
		pdf.Rect(x0, y0, half*scale, rollBandH, "F")
		pdf.Rect(x0+(g.RollWidth-half)*scale, y0, half*scale, rollBandH, "F")
	}

	strips, end := layoutStrips(g, settings.SafetyMargin)
	for i, s := range strips {
		col := stripColors[i%len(stripColors)]
		sx := x0 + s.Offset*scale
		sw := math.Min(s.Width, g.RollWidth-s.Offset) * scale
		if sw <= 0 {
			continue
		}
		pdf.SetFillColor(col.R, col.G, col.B)
		pdf.SetDrawColor(40, 40, 40)
		pdf.SetLineWidth(0.3)
		pdf.Rect(sx, y0, sw, rollBandH, "FD")

		// Blank boundaries inside a multiplied strip
		pdf.SetLineWidth(0.1)
		pdf.SetDashPattern([]float64{1, 1}, 0)
		blankW := s.Width / float64(s.Multiplier) * scale
		for k := 1; k < s.Multiplier; k++ {
			bx := sx + float64(k)*blankW
			pdf.Line(bx, y0, bx, y0+rollBandH)
		}
		pdf.SetDashPattern([]float64{}, 0)

		fontSize := labelFontSize(sw)
		pdf.SetFont("Helvetica", "B", fontSize)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetXY(sx, y0+rollBandH/2-6)
		pdf.CellFormat(sw, 5, s.Order.ID, "", 0, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", fontSize-1)
		pdf.SetXY(sx, y0+rollBandH/2)
		pdf.CellFormat(sw, 5, fmt.Sprintf("%.0f mm x%d", s.Width, s.Multiplier), "", 0, "C", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}

	// Unused width
	usable := g.RollWidth - half
	if end < usable {
		drawHatch(pdf, x0+end*scale, y0, (usable-end)*scale, rollBandH)
	}

	drawWidthAnnotation(pdf, x0, y0+rollBandH+3, g.RollWidth*scale, fmt.Sprintf("%.0f mm", g.RollWidth))

	renderGroupTable(pdf, g, y0+rollBandH+15)
}

// drawHatch fills a rectangle with diagonal lines marking trim waste.
func drawHatch(pdf *fpdf.Fpdf, x, y, w, h float64) {
	pdf.SetDrawColor(200, 80, 80)
	pdf.SetLineWidth(0.15)
	pdf.Rect(x, y, w, h, "D")
	pdf.ClipRect(x, y, w, h, false)
	step := 3.0
	for d := -h; d < w; d += step {
		pdf.Line(x+d, y+h, x+d+h, y)
	}
	pdf.ClipEnd()
}

// drawWidthAnnotation draws a dimension line with end ticks and a label.
func drawWidthAnnotation(pdf *fpdf.Fpdf, x, y, w float64, label string) {
	pdf.SetDrawColor(80, 80, 80)
	pdf.SetLineWidth(0.2)
	pdf.Line(x, y, x+w, y)
	pdf.Line(x, y-1.5, x, y+1.5)
	pdf.Line(x+w, y-1.5, x+w, y+1.5)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(x, y+1)
	pdf.CellFormat(w, 4, label, "", 0, "C", false, 0, "")
}

func renderGroupTable(pdf *fpdf.Fpdf, g Group, y float64) {
	colWidths := []float64{35, 50, 25, 30, 20, 25, 25, 27, 30}
	headers := []string{"Order", "Customer", "Flute", "Blank W x L", "Mult.", "Requested", "Planned", "Cuts", "Leftover"}
	renderTableHeader(pdf, colWidths, headers, y)
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, o := range g.Orders {
		p := o.Planning
		row := []string{
			o.ID,
			o.Customer,
			o.FluteCode,
			fmt.Sprintf("%.0f x %.0f", o.CalculatedWidth(), o.CalculatedLength()),
			fmt.Sprintf("%d", p.CavityMultiplierUsed),
			fmt.Sprintf("%d", o.RequestedQuantity),
			fmt.Sprintf("%d", p.PlannedQuantity+p.LeftoverCoveredQuantity),
			fmt.Sprintf("%d", p.PlannedCuts),
			fmt.Sprintf("%.0f mm", p.LeftoverWidth),
		}
		renderTableRow(pdf, colWidths, row, y, i)
		y += 6
	}
}

func renderTableHeader(pdf *fpdf.Fpdf, colWidths []float64, headers []string, y float64) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	xPos := marginLeft
	for i, header := range headers {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[i], 6, header, "1", 0, "C", true, 0, "")
		xPos += colWidths[i]
	}
}

func renderTableRow(pdf *fpdf.Fpdf, colWidths []float64, row []string, y float64, i int) {
	// Alternate row background
	if i%2 == 0 {
		pdf.SetFillColor(245, 245, 245)
	} else {
		pdf.SetFillColor(255, 255, 255)
	}
	xPos := marginLeft
	for j, cell := range row {
		pdf.SetXY(xPos, y)
		pdf.CellFormat(colWidths[j], 6, cell, "1", 0, "C", true, 0, "")
		xPos += colWidths[j]
	}
}

// renderSummaryPage draws the run statistics, the group table and the
// pending orders.
func renderSummaryPage(pdf *fpdf.Fpdf, rep Report, groups []Group) {
	res := rep.Result
	settings := rep.Settings

	pdf.SetFont("Helvetica", "B", 16)
	pdf.SetXY(marginLeft, marginTop)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 10, "Roll Planning Summary", "", 0, "L", false, 0, "")

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.5)
	pdf.Line(marginLeft, marginTop+12, pageWidth-marginRight, marginTop+12)

	y := marginTop + 18

	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Overall Statistics", "", 0, "L", false, 0, "")
	y += 9

	summaryItems := []struct {
		label string
		value string
	}{
		{"Groups Created", fmt.Sprintf("%d", res.GroupsCreated)},
		{"Average Efficiency", fmt.Sprintf("%.1f%%", res.AverageEfficiency)},
		{"Total Leftover", fmt.Sprintf("%.0f mm", res.TotalLeftover)},
		{"Pending Orders", fmt.Sprintf("%d", res.PendingOrders)},
		{"Termination", fmt.Sprintf("%s after %d iterations", res.Termination, res.IterationsUsed)},
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range summaryItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(60, 6, item.label+":", "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(80, 6, item.value, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		y += 7
	}

	y += 5
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Group Breakdown", "", 0, "L", false, 0, "")
	y += 9

	colWidths := []float64{30, 30, 30, 60, 30, 30, 30}
	headers := []string{"Group", "Type", "Roll", "Orders", "Used", "Leftover", "Efficiency"}
	renderTableHeader(pdf, colWidths, headers, y)
	y += 6

	pdf.SetFont("Helvetica", "", 9)
	for i, g := range groups {
		if y > pageHeight-marginBottom-30 {
			pdf.AddPage()
			y = marginTop
			renderTableHeader(pdf, colWidths, headers, y)
			y += 6
			pdf.SetFont("Helvetica", "", 9)
		}
		ids := make([]string, len(g.Orders))
		for k, o := range g.Orders {
			ids[k] = o.ID
		}
		row := []string{
			g.Name,
			g.Type.String(),
			fmt.Sprintf("%.0f mm", g.RollWidth),
			strings.Join(ids, ", "),
			fmt.Sprintf("%.0f mm", g.WidthUsed),
			fmt.Sprintf("%.0f mm", g.LeftoverWidth),
			fmt.Sprintf("%.0f%%", g.Efficiency),
		}
		renderTableRow(pdf, colWidths, row, y, i)
		y += 6
	}

	if pending := PendingOrders(rep.Orders); len(pending) > 0 {
		y += 8
		pdf.SetFont("Helvetica", "B", 11)
		pdf.SetTextColor(200, 0, 0)
		pdf.SetXY(marginLeft, y)
		pdf.CellFormat(200, 7, "WARNING: Pending Orders", "", 0, "L", false, 0, "")
		y += 8

		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
		for _, o := range pending {
			if y > pageHeight-marginBottom-10 {
				pdf.AddPage()
				y = marginTop
			}
			pdf.SetXY(marginLeft+5, y)
			text := fmt.Sprintf("- %s: blank %.0f x %.0f mm (qty: %d)", o.Label(), o.CalculatedWidth(), o.CalculatedLength(), o.RequestedQuantity)
			pdf.CellFormat(200, 5, text, "", 0, "L", false, 0, "")
			y += 5
		}
	}

	if y > pageHeight-marginBottom-50 {
		pdf.AddPage()
		y = marginTop
	} else {
		y += 8
	}
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(marginLeft, y)
	pdf.CellFormat(100, 7, "Planner Settings", "", 0, "L", false, 0, "")
	y += 9

	settingsItems := []struct {
		label string
		value string
	}{
		{"Strategy", string(settings.Strategy())},
		{"Cavity Ceiling", fmt.Sprintf("%d", settings.CavityMultiplierCeiling)},
		{"Safety Margin", fmt.Sprintf("%.1f mm", settings.SafetyMargin)},
		{"Large Shortfall", fmt.Sprintf("%d pcs", settings.LargeShortfall)},
		{"Max Iterations", fmt.Sprintf("%d", settings.MaxIterations)},
	}

	pdf.SetFont("Helvetica", "", 9)
	for _, item := range settingsItems {
		pdf.SetXY(marginLeft+5, y)
		pdf.CellFormat(50, 5, item.label+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 5, item.value, "", 0, "L", false, 0, "")
		y += 5
	}

	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.SetXY(marginLeft, pageHeight-marginBottom)
	footer := "Generated by rollplan"
	if res.RunID != "" {
		footer += " - run " + res.RunID
	}
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 4, footer, "", 0, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
}

// labelFontSize picks a font size that fits a strip of the given drawn width.
func labelFontSize(w float64) float64 {
	switch {
	case w > 40:
		return 9
	case w > 20:
		return 8
	default:
		return 7
	}
}
