package model

import (
	"math"

	"kinetic/motor"
)

// synchronousRefSpeed 同步电机未给出额定转速时的参考转速(rev/s)
const synchronousRefSpeed = 100.0 / 60

// formulas 电机类型相关的转矩与损耗模型
type formulas interface {
	kt() float64             // 有效值转矩常数(Nm/A), 转矩 = kt·iq/√2
	referenceSpeed() float64 // 转速扫描上限(rev/s)
	loss(iq float64) float64 // 电流 iq(峰值) 下的损耗功率(W)
}

// newFormulas 根据电机类型选择模型, 参数必须已通过 Validate
func newFormulas(p motor.Parameters, lineResistance float64) formulas {
	switch p.Type {
	case motor.Synchronous:
		return newSynchronous(p, lineResistance)
	case motor.Induction:
		return newInduction(p, lineResistance)
	}
	return nil
}

// synchronous 同步电机
type synchronous struct {
	torqueConst float64 // 转矩常数
	rs          float64 // 定子电阻(相间)
	rline       float64 // 电缆电阻
	refSpeed    float64
}

func newSynchronous(p motor.Parameters, lineResistance float64) *synchronous {
	m := &synchronous{
		torqueConst: p.Value(motor.TorqueConstant),
		rs:          p.Value(motor.StatorResistance),
		rline:       lineResistance,
		refSpeed:    synchronousRefSpeed,
	}
	if rated, ok := p.Get(motor.RatedSpeed); ok && rated > 0 {
		m.refSpeed = rated / 60
	}
	return m
}

func (m *synchronous) kt() float64             { return m.torqueConst }
func (m *synchronous) referenceSpeed() float64 { return m.refSpeed }

// loss 定子铜耗 3/2·iq²·(Rs/2+Rline)
func (m *synchronous) loss(iq float64) float64 {
	return 1.5 * iq * iq * (m.rs/2 + m.rline)
}

// induction 异步电机
type induction struct {
	ktPeak   float64 // 峰值电流转矩常数
	i0       float64 // 励磁电流峰值
	coupling float64 // Lh/(Lh+Lσr)
	rs       float64 // 定子电阻
	rr       float64 // 转子电阻, 未给出时为 0
	rline    float64
	refSpeed float64
}

func newInduction(p motor.Parameters, lineResistance float64) *induction {
	lh := p.Value(motor.MutualInductance)
	lr := lh + p.Value(motor.RotorInductance)
	m := &induction{
		i0:       math.Sqrt2 * p.Value(motor.MagnetizingCurrent),
		rs:       p.Value(motor.StatorResistance),
		rr:       p.Value(motor.RotorResistance),
		rline:    lineResistance,
		refSpeed: p.Value(motor.RatedSpeed) / 60,
	}
	if lr > 0 {
		m.coupling = lh / lr
		// 3/2·p·Lh²/(Lh+Lσr)·i0 = (3/2)·√2·p·Lh²/(Lh+Lσr)·Im
		m.ktPeak = 1.5 * float64(p.PolePairCount()) * lh * m.coupling * m.i0
	}
	return m
}

func (m *induction) kt() float64             { return math.Sqrt2 * m.ktPeak }
func (m *induction) referenceSpeed() float64 { return m.refSpeed }

// loss 定子铜耗(含励磁电流) + 转子铜耗
func (m *induction) loss(iq float64) float64 {
	stator := 1.5 * (iq*iq + m.i0*m.i0) * (m.rs + m.rline)
	ir := m.coupling * iq
	return stator + 1.5*ir*ir*m.rr
}
