package debug

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Plot 关节轨迹图(PNG)
type Plot struct {
	Record
	Title  string
	Width  vg.Length // 为零时 6 inch
	Height vg.Length // 为零时 6 inch
	DPI    int       // 为零时 150
}

// Render 绘制首帧连杆与全部非固定关节的轨迹
func (p *Plot) Render(w io.Writer) error {
	if p.Len() == 0 {
		return fmt.Errorf("no frames recorded")
	}
	pl := plot.New()
	pl.Title.Text = p.Title
	pl.X.Label.Text = "x"
	pl.Y.Label.Text = "y"
	pl.Add(plotter.NewGrid())

	// 首帧连杆
	for _, r := range p.Rods {
		pts := plotter.XYs{
			{X: p.X[0][r[0]], Y: p.Y[0][r[0]]},
			{X: p.X[0][r[1]], Y: p.Y[0][r[1]]},
		}
		rod, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		rod.LineStyle.Width = vg.Points(2)
		pl.Add(rod)
	}
	// 轨迹
	for j, name := range p.Joints {
		if p.Kinds[j] == "pinned" {
			continue
		}
		pts := make(plotter.XYs, p.Len())
		for i := range pts {
			pts[i].X, pts[i].Y = p.X[i][j], p.Y[i][j]
		}
		path, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		path.LineStyle.Color = plotutil.Color(j)
		path.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		pl.Add(path)
		pl.Legend.Add(name, path)
	}
	// 关节
	joints := make(plotter.XYs, len(p.Joints))
	for j := range joints {
		joints[j].X, joints[j].Y = p.X[0][j], p.Y[0][j]
	}
	marks, err := plotter.NewScatter(joints)
	if err != nil {
		return err
	}
	marks.GlyphStyle.Radius = vg.Points(3)
	pl.Add(marks)

	width, height, dpi := p.Width, p.Height, p.DPI
	if width == 0 {
		width = 6 * vg.Inch
	}
	if height == 0 {
		height = 6 * vg.Inch
	}
	if dpi == 0 {
		dpi = 150
	}
	c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))
	pl.Draw(draw.New(c))
	_, err = vgimg.PngCanvas{Canvas: c}.WriteTo(w)
	return err
}
