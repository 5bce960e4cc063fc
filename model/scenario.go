package model

import (
	"fmt"
	"math"
)

// Scenario 断电工况
// 摩擦统一以电机轴转矩表示, 摩擦功率在配置层换算 (见 ScenarioFile)
type Scenario struct {
	GearRatio      float64 `yaml:"gear_ratio" json:"gear_ratio"`           // 减速比 n_motor/n_load, > 0
	LoadInertia    float64 `yaml:"load_inertia" json:"load_inertia"`       // 负载侧转动惯量(kgm²)
	FailSpeed      float64 `yaml:"fail_speed" json:"fail_speed"`           // 断电时负载侧转速(rev/s)
	FrictionTorque float64 `yaml:"friction_torque" json:"friction_torque"` // 电机轴摩擦转矩(Nm)
	BusVoltage     float64 `yaml:"bus_voltage" json:"bus_voltage"`         // 直流母线电压(V)
	BusCapacitance float64 `yaml:"bus_capacitance" json:"bus_capacitance"` // 直流母线电容(µF)
	LineResistance float64 `yaml:"line_resistance" json:"line_resistance"` // 电机电缆电阻(Ω)
	Description    string  `yaml:"description,omitempty" json:"description,omitempty"`
}

// DefaultScenario 默认工况
func DefaultScenario() Scenario {
	return Scenario{
		GearRatio:      1.0,
		FailSpeed:      10.0,
		BusVoltage:     750,
		BusCapacitance: 1650,
	}
}

// ScenarioError 工况参数无效
type ScenarioError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *ScenarioError) Error() string {
	return fmt.Sprintf("scenario %s = %v: %s", e.Field, e.Value, e.Reason)
}

// Validate 检查工况参数
func (s Scenario) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"gear_ratio", s.GearRatio},
		{"load_inertia", s.LoadInertia},
		{"fail_speed", s.FailSpeed},
		{"friction_torque", s.FrictionTorque},
		{"bus_voltage", s.BusVoltage},
		{"bus_capacitance", s.BusCapacitance},
		{"line_resistance", s.LineResistance},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ScenarioError{Field: f.name, Value: f.value, Reason: "not a finite number"}
		}
		if f.value < 0 {
			return &ScenarioError{Field: f.name, Value: f.value, Reason: "must not be negative"}
		}
	}
	if s.GearRatio == 0 {
		return &ScenarioError{Field: "gear_ratio", Value: s.GearRatio, Reason: "must be greater than zero"}
	}
	return nil
}

// MotorFailSpeed 电机轴断电转速(rev/s)
func (s Scenario) MotorFailSpeed() float64 { return s.FailSpeed * s.GearRatio }

// FrictionTorqueFromPower 将断电转速下的摩擦功率换算为电机轴摩擦转矩
func (s Scenario) FrictionTorqueFromPower(power float64) (float64, error) {
	if power == 0 {
		return 0, nil
	}
	n := s.MotorFailSpeed()
	if n <= 0 {
		return 0, &ScenarioError{Field: "friction_power", Value: power, Reason: "needs a non-zero fail speed"}
	}
	return power / (2 * math.Pi * n), nil
}
