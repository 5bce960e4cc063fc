package render

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"kinetic/model"
)

// Charts 网页曲线, 每个电机四个图表
type Charts struct {
	Curves []*model.Curve
}

// Render 格式化
func (c *Charts) Render(w io.Writer) error {
	page := components.NewPage()
	for _, curve := range c.Curves {
		page.AddCharts(
			speedChart(curve, "Regenerative power", "W", curve.Pregen, curve.Pregen0),
			speedChart(curve, "Shaft power", "W", curve.Pshaft, curve.Pshaft0),
			singleChart(curve, "Loss power", "W", "Ploss", curve.Ploss),
			singleChart(curve, "Buffer duration", "s", "t", curve.Duration),
		)
	}
	return page.Render(w)
}

// Handler 发布到网页面
func (c *Charts) Handler(w http.ResponseWriter, _ *http.Request) {
	if err := c.Render(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// newLine 初始化折线图
func newLine(curve *model.Curve, title, unit string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s: %s (%s)", title, curve.MotorName, curve.Type.Short()),
			Subtitle: strings.Join(Summary(curve)[3:], "  "),
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: "iq [A]",
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  unit,
			Scale: opts.Bool(true),
		}),
	)
	labels := make([]string, len(curve.Current))
	for i, iq := range curve.Current {
		labels[i] = fmt.Sprintf("%.2f", iq)
	}
	line.SetXAxis(labels)
	return line
}

func lineData(values []float64) []opts.LineData {
	items := make([]opts.LineData, len(values))
	for i, v := range values {
		items[i].Value = v
	}
	return items
}

// speedChart 每个转速一条曲线, 加上断电转速曲线
func speedChart(curve *model.Curve, title, unit string, rows [][]float64, failRow []float64) *charts.Line {
	line := newLine(curve, title, unit)
	for i, row := range rows {
		line.AddSeries(fmt.Sprintf("n = %.2f", curve.Speed[i]), lineData(row))
	}
	line.AddSeries(fmt.Sprintf("n0 = %.2f", curve.Derived.MotorFailSpeed), lineData(failRow),
		charts.WithLineStyleOpts(opts.LineStyle{Width: 3, Color: "#dc0000"}))
	return line
}

func singleChart(curve *model.Curve, title, unit, name string, values []float64) *charts.Line {
	line := newLine(curve, title, unit)
	line.AddSeries(name, lineData(values))
	return line
}
