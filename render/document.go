package render

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"kinetic/model"
)

// 断电转速曲线颜色
var failColor = color.RGBA{R: 220, A: 255}

const titleHeight = 14 * vg.Millimeter

// Document KIB 多面板图表: 回馈功率, 轴功率, 损耗功率, 缓冲时间, 汇总
type Document struct {
	curve  *model.Curve
	Width  vg.Length
	Height vg.Length
	DPI    int // 仅用于 png
}

// NewDocument A3 横向, 200 dpi
func NewDocument(c *model.Curve) *Document {
	return &Document{curve: c, Width: 16.5 * vg.Inch, Height: 11.7 * vg.Inch, DPI: 200}
}

// Title 图表标题
func (d *Document) Title() string {
	return fmt.Sprintf("KIB: %s (%s)", d.curve.MotorName, d.curve.Type.Short())
}

// Draw 在画布上绘制全部面板
func (d *Document) Draw(dc draw.Canvas) error {
	title := textStyle(20)
	title.XAlign, title.YAlign = text.XCenter, text.YTop
	dc.FillText(title, vg.Point{X: (dc.Min.X + dc.Max.X) / 2, Y: dc.Max.Y - 4*vg.Millimeter}, d.Title())

	body := draw.Crop(dc, 0, 0, 0, -titleHeight)
	tiles := draw.Tiles{
		Rows: 2, Cols: 3,
		PadTop: 2 * vg.Millimeter, PadBottom: 6 * vg.Millimeter,
		PadLeft: 6 * vg.Millimeter, PadRight: 6 * vg.Millimeter,
		PadX: 12 * vg.Millimeter, PadY: 12 * vg.Millimeter,
	}
	panels := []func(*model.Curve) (*plot.Plot, error){regenPlot, shaftPlot, lossPlot, durationPlot}
	for i, build := range panels {
		p, err := build(d.curve)
		if err != nil {
			return err
		}
		p.Draw(tiles.At(body, i%tiles.Cols, i/tiles.Cols))
	}
	drawSummary(tiles.At(body, 1, 1), d.curve)
	return nil
}

// WriteTo 按格式(pdf, svg, png ...)输出
func (d *Document) WriteTo(w io.Writer, format string) (int64, error) {
	c, err := d.canvas(format)
	if err != nil {
		return 0, err
	}
	if err := d.Draw(draw.New(c)); err != nil {
		return 0, err
	}
	return c.WriteTo(w)
}

// Save 保存到目录, 文件名由电机名与工况描述生成
func (d *Document) Save(dir, format string) (string, error) {
	format = normalizeFormat(format)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := filepath.Join(dir, FileName(d.curve.MotorName, d.curve.Scenario.Description, format))
	file, err := os.Create(name)
	if err != nil {
		return "", err
	}
	if _, err := d.WriteTo(file, format); err != nil {
		file.Close()
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return name, file.Close()
}

func (d *Document) canvas(format string) (vg.CanvasWriterTo, error) {
	format = normalizeFormat(format)
	if format == "png" {
		c := vgimg.NewWith(vgimg.UseWH(d.Width, d.Height), vgimg.UseDPI(d.DPI))
		return vgimg.PngCanvas{Canvas: c}, nil
	}
	return draw.NewFormattedCanvas(d.Width, d.Height, format)
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	if format == "" {
		return "pdf"
	}
	return format
}

// newPlot 带网格的空白图
func newPlot(title, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "quadrature current [A]"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	return p
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X, pts[i].Y = x[i], y[i]
	}
	return pts
}

// speedLines 每个转速一条虚线, 断电转速一条红色实线
func speedLines(p *plot.Plot, c *model.Curve, rows [][]float64, failRow []float64) error {
	for i, row := range rows {
		l, err := plotter.NewLine(xys(c.Current, row))
		if err != nil {
			return err
		}
		l.Color = plotutil.Color(i)
		l.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(l)
		p.Legend.Add(fmt.Sprintf("n = %.2f", c.Speed[i]), l)
	}
	l, err := plotter.NewLine(xys(c.Current, failRow))
	if err != nil {
		return err
	}
	l.Color, l.Width = failColor, vg.Points(2)
	p.Add(l)
	p.Legend.Add(fmt.Sprintf("n0 = %.2f", c.Derived.MotorFailSpeed), l)
	p.Legend.Top, p.Legend.Left = true, true
	return nil
}

func regenPlot(c *model.Curve) (*plot.Plot, error) {
	p := newPlot("Regenerative power", "regenerative power [W]")
	return p, speedLines(p, c, c.Pregen, c.Pregen0)
}

func shaftPlot(c *model.Curve) (*plot.Plot, error) {
	p := newPlot("Shaft power", "shaft power [W]")
	return p, speedLines(p, c, c.Pshaft, c.Pshaft0)
}

func lossPlot(c *model.Curve) (*plot.Plot, error) {
	p := newPlot("Loss power", "loss power [W]")
	l, err := plotter.NewLine(xys(c.Current, c.Ploss))
	if err != nil {
		return nil, err
	}
	l.Color = failColor
	p.Add(l)
	return p, nil
}

// durationPlot 缓冲时间曲线, 标出摩擦平衡点
func durationPlot(c *model.Curve) (*plot.Plot, error) {
	p := newPlot("Buffer duration", "buffer duration [s]")
	l, err := plotter.NewLine(xys(c.Current, c.Duration))
	if err != nil {
		return nil, err
	}
	l.Color = plotutil.Color(0)
	l.Width = vg.Points(1.5)
	p.Add(l)
	p.Y.Min, p.Y.Max = 0, model.DurationCeiling*1.05

	iqMax := c.Current[len(c.Current)-1]
	if c.IqBuffer <= iqMax && !math.IsInf(c.IqBuffer, 0) {
		s, err := plotter.NewScatter(plotter.XYs{{X: c.IqBuffer, Y: math.Min(c.TBuffer, model.DurationCeiling)}})
		if err != nil {
			return nil, err
		}
		s.GlyphStyle.Color = failColor
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		s.GlyphStyle.Radius = vg.Points(4)
		p.Add(s)
		p.Legend.Add("iq buffer", s)
		p.Legend.Top = true
	}
	return p, nil
}

func textStyle(size float64) text.Style {
	return text.Style{
		Color:   color.Black,
		Font:    font.From(plot.DefaultFont, vg.Points(size)),
		XAlign:  text.XLeft,
		YAlign:  text.YTop,
		Handler: plot.DefaultTextHandler,
	}
}

// drawSummary 汇总面板
func drawSummary(dc draw.Canvas, c *model.Curve) {
	sty := textStyle(13)
	pt := vg.Point{X: dc.Min.X, Y: dc.Max.Y}
	for _, line := range Summary(c) {
		dc.FillText(sty, pt, line)
		pt.Y -= sty.Font.Size * 1.6
	}
}

// Summary 汇总数据文本
func Summary(c *model.Curve) []string {
	d, s := c.Derived, c.Scenario
	lines := []string{
		fmt.Sprintf("motor: %s (%s)", c.MotorName, c.Type),
		fmt.Sprintf("Kt = %.3f Nm/A", c.Kt),
		fmt.Sprintf("gear ratio = %g, load inertia = %g kgm²", s.GearRatio, s.LoadInertia),
		fmt.Sprintf("Erot = %.1f J", d.Erot),
		fmt.Sprintf("Ecap = %.1f J (%g V, %g µF)", d.Ecap, s.BusVoltage, s.BusCapacitance),
		fmt.Sprintf("fail speed n0 = %.2f 1/s (load %.2f 1/s)", d.MotorFailSpeed, s.FailSpeed),
		fmt.Sprintf("friction = %.3f Nm (%.1f W)", s.FrictionTorque, d.FrictionPower),
		fmt.Sprintf("iq buffer = %s", formatCurrent(c.IqBuffer)),
		fmt.Sprintf("t buffer = %s", FormatDuration(c.TBuffer)),
	}
	if s.LineResistance > 0 {
		lines = append(lines, fmt.Sprintf("line resistance = %g Ω", s.LineResistance))
	}
	if s.Description != "" {
		lines = append(lines, s.Description)
	}
	return lines
}

// FormatDuration 缓冲时间文本, +Inf 表示不受限
func FormatDuration(t float64) string {
	if math.IsInf(t, 1) {
		return "unlimited"
	}
	return fmt.Sprintf("%.2f s", t)
}

func formatCurrent(iq float64) string {
	if math.IsInf(iq, 1) {
		return "not reachable"
	}
	return fmt.Sprintf("%.2f A", iq)
}
