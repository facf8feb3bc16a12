package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/megastock/rollplan/internal/workorder"
)

// LabelInfo holds the data encoded into each work order label's QR code.
type LabelInfo struct {
	WorkOrder    string   `json:"work_order"`
	Group        string   `json:"group"`
	Type         string   `json:"type"`
	RollWidth    float64  `json:"roll_width_mm"`
	LinearMeters float64  `json:"linear_meters"`
	Cuts         int      `json:"cuts"`
	Orders       []string `json:"orders"`
}

// Label layout constants for Avery 5160-compatible labels (3 columns, 10 rows per page).
// Each label cell is approximately 66.7mm x 25.4mm on US Letter paper.
const (
	labelMarginTop  = 12.7 // mm
	labelMarginLeft = 4.8  // mm
	labelWidth      = 66.7 // mm per label
	labelHeight     = 25.4 // mm per label
	labelCols       = 3
	labelRows       = 10
	labelsPerPage   = labelCols * labelRows
	qrSize          = 20.0 // QR code size in mm
	labelPadding    = 2.0  // mm internal padding
)

// ExportLabels generates a PDF of QR-coded labels, one per work order, for
// tagging the finished stacks at the corrugator exit.
func ExportLabels(path string, orders []workorder.WorkOrder) error {
	labels := CollectLabelInfos(orders)
	if len(labels) == 0 {
		return errors.New("no work orders to generate labels for")
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)

	for i, label := range labels {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		posOnPage := i % labelsPerPage
		col := posOnPage % labelCols
		row := posOnPage / labelCols

		x := labelMarginLeft + float64(col)*labelWidth
		y := labelMarginTop + float64(row)*labelHeight

		if err := renderLabel(pdf, x, y, label); err != nil {
			return errors.Wrapf(err, "render label for %s", label.WorkOrder)
		}
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return errors.Wrapf(err, "write labels %s", path)
	}
	return nil
}

// renderLabel draws a single label at the given position.
func renderLabel(pdf *fpdf.Fpdf, x, y float64, info LabelInfo) error {
	// Light border for cutting guide
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.1)
	pdf.Rect(x, y, labelWidth, labelHeight, "D")

	qrData, err := json.Marshal(info)
	if err != nil {
		return errors.Wrap(err, "marshal label info")
	}

	qrPNG, err := qrcode.Encode(string(qrData), qrcode.Medium, 256)
	if err != nil {
		return errors.Wrap(err, "generate QR code")
	}

	imgName := "qr_" + info.WorkOrder
	pdf.RegisterImageOptionsReader(imgName, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(qrPNG))

	qrX := x + labelWidth - qrSize - labelPadding
	qrY := y + (labelHeight-qrSize)/2
	pdf.ImageOptions(imgName, qrX, qrY, qrSize, qrSize, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

	textX := x + labelPadding
	textW := labelWidth - qrSize - 3*labelPadding

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetXY(textX, y+labelPadding)
	pdf.CellFormat(textW, 4.5, info.WorkOrder, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.SetXY(textX, y+labelPadding+5)
	pdf.CellFormat(textW, 3.5, fmt.Sprintf("%s - %.0f mm roll", info.Group, info.RollWidth), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 6)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(textX, y+labelPadding+9)
	pdf.CellFormat(textW, 3, fmt.Sprintf("%.1f m | %d cuts", info.LinearMeters, info.Cuts), "", 1, "L", false, 0, "")

	pdf.SetXY(textX, y+labelPadding+12.5)
	pdf.SetFont("Helvetica", "I", 6)
	pdf.CellFormat(textW, 3, truncate(pdf, strings.Join(info.Orders, ", "), textW), "", 0, "L", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	return nil
}

// truncate shortens s with an ellipsis until it fits w.
func truncate(pdf *fpdf.Fpdf, s string, w float64) string {
	if pdf.GetStringWidth(s) <= w {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > w {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// CollectLabelInfos extracts label information from work orders, skipping
// cancelled ones.
func CollectLabelInfos(orders []workorder.WorkOrder) []LabelInfo {
	var labels []LabelInfo
	for _, wo := range orders {
		if wo.Status == workorder.StatusCancelled {
			continue
		}
		labels = append(labels, LabelInfo{
			WorkOrder:    wo.Number,
			Group:        wo.Group,
			Type:         string(wo.Type),
			RollWidth:    wo.RollWidth,
			LinearMeters: wo.LinearMeters,
			Cuts:         wo.Cuts,
			Orders:       wo.OrderIDs,
		})
	}
	return labels
}
