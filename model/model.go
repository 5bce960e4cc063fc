package model

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"kinetic/motor"
)

const (
	CurrentSamples  = 101  // 电流扫描点数
	SpeedSamples    = 11   // 转速扫描点数
	DurationCeiling = 60.0 // 缓冲时间曲线上限(s)
)

// Curve 一次工况计算的结果, 计算完成后不再修改
type Curve struct {
	MotorName string
	Type      motor.Type
	Params    motor.Parameters
	Scenario  Scenario
	Derived   Derived

	Kt      float64     // 有效值转矩常数(Nm/A)
	Current []float64   // 电流扫描 0..√2·Imax (A)
	Speed   []float64   // 转速扫描 0..参考转速 (rev/s)
	Pshaft  [][]float64 // 轴功率 [转速][电流] (W)
	Ploss   []float64   // 损耗功率 [电流] (W)
	Pregen  [][]float64 // 回馈功率 Pshaft-Ploss [转速][电流] (W)
	Pshaft0 []float64   // 断电转速下的轴功率 (W)
	Pregen0 []float64   // 断电转速下的回馈功率 (W)

	Duration []float64 // 缓冲时间曲线 [电流] (s), 上限 DurationCeiling
	IqBuffer float64   // 轴转矩与摩擦平衡时的电流 (A)
	TBuffer  float64   // 最大缓冲时间 (s), 无损耗时为 +Inf
}

// Evaluate 计算电机在工况下的功率曲线与缓冲时间
// 顺序: 检查工况 → 检查参数 → 推导标量 → 计算曲线
func Evaluate(p motor.Parameters, s Scenario) (*Curve, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	f := newFormulas(p, s.LineResistance)
	if f == nil {
		return nil, fmt.Errorf("no power model for %s motor", p.Type)
	}
	d := Derive(p, s)

	c := &Curve{
		MotorName: p.Name,
		Type:      p.Type,
		Params:    p,
		Scenario:  s,
		Derived:   d,
		Kt:        f.kt(),
	}
	iqMax := math.Sqrt2 * p.Value(motor.MaxCurrent)
	c.Current = floats.Span(make([]float64, CurrentSamples), 0, iqMax)
	c.Speed = floats.Span(make([]float64, SpeedSamples), 0, f.referenceSpeed())

	c.Ploss = make([]float64, CurrentSamples)
	for i, iq := range c.Current {
		c.Ploss[i] = f.loss(iq)
	}

	// 轴功率 = kt/√2·iq · 2π·n
	k := c.Kt / math.Sqrt2 * 2 * math.Pi
	var shaft, regen mat.Dense
	shaft.Outer(k, mat.NewVecDense(SpeedSamples, c.Speed), mat.NewVecDense(CurrentSamples, c.Current))
	regen.Apply(func(_, j int, v float64) float64 { return v - c.Ploss[j] }, &shaft)
	c.Pshaft = rows(&shaft)
	c.Pregen = rows(&regen)

	c.Pshaft0 = floats.ScaleTo(make([]float64, CurrentSamples), k*d.MotorFailSpeed, c.Current)
	c.Pregen0 = floats.SubTo(make([]float64, CurrentSamples), c.Pshaft0, c.Ploss)

	c.IqBuffer = bufferCurrent(s.FrictionTorque, c.Kt)
	if math.IsInf(c.IqBuffer, 1) {
		// 有限电流无法平衡摩擦
		c.TBuffer = 0
	} else {
		c.TBuffer = bufferTime(d.Energy(), f.loss(c.IqBuffer), d.FrictionPower)
	}
	c.Duration = make([]float64, CurrentSamples)
	for i, loss := range c.Ploss {
		c.Duration[i] = durationPoint(d.Energy(), loss+d.FrictionPower)
	}
	return c, nil
}

// rows 复制矩阵各行
func rows(m *mat.Dense) [][]float64 {
	r, _ := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = append([]float64(nil), m.RawRowView(i)...)
	}
	return out
}

// bufferCurrent 摩擦转矩 = kt·iq/√2 时的电流
// 无摩擦时为 0; 转矩常数为 0 时无法平衡摩擦, 返回 +Inf
func bufferCurrent(frictionTorque, kt float64) float64 {
	if frictionTorque == 0 {
		return 0
	}
	if kt <= 0 {
		return math.Inf(1)
	}
	return frictionTorque * math.Sqrt2 / kt
}

// bufferTime 可回收能量 / (电阻损耗 + 摩擦功率), 无损耗时为 +Inf
func bufferTime(energy, loss, frictionPower float64) float64 {
	total := loss + frictionPower
	if energy == 0 {
		return 0
	}
	if total == 0 {
		return math.Inf(1)
	}
	return energy / total
}

// durationPoint 缓冲时间曲线上的一点, 限制在 DurationCeiling 以内
func durationPoint(energy, total float64) float64 {
	if total == 0 {
		if energy == 0 {
			return 0
		}
		return DurationCeiling
	}
	return math.Min(energy/total, DurationCeiling)
}

// Job 一组独立的计算输入
type Job struct {
	Params   motor.Parameters
	Scenario Scenario
}

// EvaluateAll 并行计算多组工况, 结果顺序与输入一致
// 任一计算失败时返回第一个错误
func EvaluateAll(ctx context.Context, jobs []Job) ([]*Curve, error) {
	curves := make([]*Curve, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := Evaluate(job.Params, job.Scenario)
			if err != nil {
				return fmt.Errorf("%s: %w", job.Params.Name, err)
			}
			curves[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return curves, nil
}
