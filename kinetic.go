package kinetic

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"kinetic/internal/logging"
	"kinetic/load"
	"kinetic/metrics"
	"kinetic/model"
	"kinetic/motor"
	"kinetic/render"
)

// Axis 用于动能缓冲的 ACOPOS 主轴
type Axis struct {
	motor.Parameters
	Source string // 参数表文件

	log     logging.Logger
	metrics *metrics.Collector
}

// Option 主轴配置
type Option func(*Axis)

// WithLogger 设置日志
func WithLogger(l logging.Logger) Option { return func(a *Axis) { a.log = l } }

// WithMetrics 设置指标收集
func WithMetrics(c *metrics.Collector) Option { return func(a *Axis) { a.metrics = c } }

// NewAxis 加载参数表文件
func NewAxis(filename string, options ...Option) (*Axis, error) {
	p, err := load.LoadFile(filename)
	if err != nil {
		return nil, err
	}
	return newAxis(p, filename, options...), nil
}

// NewAxisFromParameters 使用已加载的参数
func NewAxisFromParameters(p motor.Parameters, options ...Option) *Axis {
	return newAxis(p, "", options...)
}

func newAxis(p motor.Parameters, source string, options ...Option) *Axis {
	a := &Axis{Parameters: p, Source: source, log: logging.Noop()}
	for _, opt := range options {
		opt(a)
	}
	a.log = a.log.With(logging.String("motor", p.Name), logging.String("type", p.Type.String()))
	return a
}

// Evaluate 计算工况下的功率曲线
func (a *Axis) Evaluate(ctx context.Context, s model.Scenario) (*model.Curve, error) {
	start := time.Now()
	c, err := model.Evaluate(a.Parameters, s)
	a.metrics.ObserveDuration(a.Type, time.Since(start))
	if err != nil {
		a.metrics.ObserveError(a.Type)
		a.log.Error(ctx, "evaluation failed", logging.String("source", a.Source), logging.Err(err))
		return nil, err
	}
	a.metrics.Observe(c)
	a.log.Info(ctx, "evaluated",
		logging.Float("kt", c.Kt),
		logging.Float("e_rot", c.Derived.Erot),
		logging.Float("e_cap", c.Derived.Ecap),
		logging.Float("iq_buffer", c.IqBuffer),
		logging.String("t_buffer", render.FormatDuration(c.TBuffer)),
		logging.Any("elapsed", time.Since(start)),
	)
	return c, nil
}

// PlotPower 计算并保存图表, 返回文件名
func (a *Axis) PlotPower(ctx context.Context, s model.Scenario, dir, format string) (string, error) {
	c, err := a.Evaluate(ctx, s)
	if err != nil {
		return "", err
	}
	name, err := render.NewDocument(c).Save(dir, format)
	if err != nil {
		return "", err
	}
	a.log.Info(ctx, "saved", logging.String("file", name))
	return name, nil
}

// EvaluateAll 并行计算多个主轴, 结果顺序与输入一致
func EvaluateAll(ctx context.Context, axes []*Axis, s model.Scenario) ([]*model.Curve, error) {
	curves := make([]*model.Curve, len(axes))
	g, ctx := errgroup.WithContext(ctx)
	for i, a := range axes {
		g.Go(func() (err error) {
			curves[i], err = a.Evaluate(ctx, s)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return curves, nil
}
