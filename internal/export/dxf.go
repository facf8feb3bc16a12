package export

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/table"

	"github.com/megastock/rollplan/internal/model"
)

// DXF layer names used by the knife layout.
const (
	LayerRoll  = "ROLL"
	LayerKnife = "KNIFE"
	LayerScore = "BLANK"
	LayerText  = "TEXT"
)

// groupGap is the vertical space between two group layouts, in mm.
const groupGap = 200.0

// ExportDXF writes the slitter knife layout of every group. Groups are
// stacked along Y. Each one shows the roll outline, a knife line at every
// strip edge, dashed blank boundaries inside multiplied strips and labels.
func ExportDXF(path string, orders []*model.Order, margin float64) error {
	groups := CollectGroups(orders)
	if len(groups) == 0 {
		return errors.New("no planning groups to export")
	}

	d := dxf.NewDrawing()
	layers := []struct {
		name string
		col  color.ColorNumber
		lt   *table.LineType
	}{
		{LayerRoll, color.White, table.LT_CONTINUOUS},
		{LayerKnife, color.Red, table.LT_CONTINUOUS},
		{LayerScore, color.Cyan, table.LT_HIDDEN},
		{LayerText, color.Yellow, table.LT_CONTINUOUS},
	}
	for _, l := range layers {
		if _, err := d.AddLayer(l.name, l.col, l.lt, false); err != nil {
			return errors.Wrapf(err, "add layer %s", l.name)
		}
	}

	y := 0.0
	for _, g := range groups {
		h := runLength(g)
		if err := drawGroup(d, g, margin, y, h); err != nil {
			return errors.Wrapf(err, "draw %s", g.Name)
		}
		y += h + groupGap
	}

	if err := d.SaveAs(path); err != nil {
		return errors.Wrapf(err, "write dxf %s", path)
	}
	return nil
}

// runLength is the drawn length of a group: its longest blank.
func runLength(g Group) float64 {
	h := 0.0
	for _, o := range g.Orders {
		if l := o.CalculatedLength(); l > h {
			h = l
		}
	}
	if h <= 0 {
		h = 100
	}
	return h
}

func drawGroup(d *drawing.Drawing, g Group, margin, y, h float64) error {
	if err := d.ChangeLayer(LayerRoll); err != nil {
		return err
	}
	if err := rect(d, 0, y, g.RollWidth, h); err != nil {
		return err
	}

	strips, _ := layoutStrips(g, margin)

	if err := d.ChangeLayer(LayerKnife); err != nil {
		return err
	}
	for _, s := range strips {
		for _, x := range []float64{s.Offset, s.Offset + s.Width} {
			if _, err := d.Line(x, y, 0, x, y+h, 0); err != nil {
				return err
			}
		}
	}

	if err := d.ChangeLayer(LayerScore); err != nil {
		return err
	}
	for _, s := range strips {
		blank := s.Width / float64(s.Multiplier)
		for k := 1; k < s.Multiplier; k++ {
			x := s.Offset + float64(k)*blank
			if _, err := d.Line(x, y, 0, x, y+h, 0); err != nil {
				return err
			}
		}
	}

	if err := d.ChangeLayer(LayerText); err != nil {
		return err
	}
	title := fmt.Sprintf("%s %s %.0fmm", g.Name, g.Type, g.RollWidth)
	if g.WorkOrder != "" {
		title += " " + g.WorkOrder
	}
	if _, err := d.Text(title, 0, y+h+20, 0, 25); err != nil {
		return err
	}
	for _, s := range strips {
		if _, err := d.Text(s.Order.ID, s.Offset+10, y+h/2, 0, 20); err != nil {
			return err
		}
	}
	return nil
}

func rect(d *drawing.Drawing, x, y, w, h float64) error {
	corners := [][2]float64{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
	for i := range corners {
		a, b := corners[i], corners[(i+1)%len(corners)]
		if _, err := d.Line(a[0], a[1], 0, b[0], b[1], 0); err != nil {
			return err
		}
	}
	return nil
}
