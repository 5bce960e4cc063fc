package model

import (
	"math"

	"kinetic/motor"
)

// Derived 由工况一次性推导出的标量
type Derived struct {
	ReflectedInertia float64 // 负载折算到电机轴的惯量(kgm²)
	TotalInertia     float64 // 电机轴总惯量(kgm²)
	MotorFailSpeed   float64 // 电机轴断电转速(rev/s)
	Erot             float64 // 旋转动能(J)
	Ecap             float64 // 母线电容储能(J)
	FrictionPower    float64 // 断电转速下的摩擦功率(W)
}

// Energy 可回收总能量(J)
func (d Derived) Energy() float64 { return d.Erot + d.Ecap }

// Derive 推导工况标量, 电机惯量缺省按 0 处理
// 旋转动能按电机轴断电转速 FailSpeed·GearRatio 与电机轴总惯量计算, 减速比不为 1 时不同于按负载转速计算
func Derive(p motor.Parameters, s Scenario) Derived {
	var d Derived
	d.ReflectedInertia = s.LoadInertia / (s.GearRatio * s.GearRatio)
	d.TotalInertia = p.Value(motor.Inertia) + d.ReflectedInertia
	d.MotorFailSpeed = s.MotorFailSpeed()
	omega := 2 * math.Pi * d.MotorFailSpeed
	d.Erot = 0.5 * d.TotalInertia * omega * omega
	c := s.BusCapacitance * 1e-6
	d.Ecap = 0.5 * c * s.BusVoltage * s.BusVoltage
	d.FrictionPower = s.FrictionTorque * omega
	return d
}
