package model

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ScenarioFile 工况配置文件, 未出现的项保持原值
//
//	gear_ratio: 5
//	load_inertia: 0.8
//	fail_speed: 2.5
//	friction_power: 120
//	description: winder, full reel
type ScenarioFile struct {
	GearRatio      *float64 `yaml:"gear_ratio"`
	LoadInertia    *float64 `yaml:"load_inertia"`
	FailSpeed      *float64 `yaml:"fail_speed"`
	FrictionTorque *float64 `yaml:"friction_torque"`
	FrictionPower  *float64 `yaml:"friction_power"` // 断电转速下的摩擦功率(W)
	BusVoltage     *float64 `yaml:"bus_voltage"`
	BusCapacitance *float64 `yaml:"bus_capacitance"`
	LineResistance *float64 `yaml:"line_resistance"`
	Description    *string  `yaml:"description"`
}

// ReadScenarioFile 读取工况配置文件
func ReadScenarioFile(filename string) (ScenarioFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return ScenarioFile{}, err
	}
	defer file.Close()
	f, err := ParseScenario(file)
	if err != nil {
		return ScenarioFile{}, fmt.Errorf("%s: %w", filename, err)
	}
	return f, nil
}

// ParseScenario 解析 YAML 工况配置, 未知项报错
func ParseScenario(r io.Reader) (ScenarioFile, error) {
	var f ScenarioFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return ScenarioFile{}, err
	}
	return f, nil
}

// Merge 用 other 中出现的项覆盖当前配置
func (f ScenarioFile) Merge(other ScenarioFile) ScenarioFile {
	pick := func(dst **float64, src *float64) {
		if src != nil {
			*dst = src
		}
	}
	pick(&f.GearRatio, other.GearRatio)
	pick(&f.LoadInertia, other.LoadInertia)
	pick(&f.FailSpeed, other.FailSpeed)
	pick(&f.FrictionTorque, other.FrictionTorque)
	pick(&f.FrictionPower, other.FrictionPower)
	pick(&f.BusVoltage, other.BusVoltage)
	pick(&f.BusCapacitance, other.BusCapacitance)
	pick(&f.LineResistance, other.LineResistance)
	if other.Description != nil {
		f.Description = other.Description
	}
	// 后出现的摩擦表示方式优先
	if other.FrictionTorque != nil && other.FrictionPower == nil {
		f.FrictionPower = nil
	}
	if other.FrictionPower != nil && other.FrictionTorque == nil {
		f.FrictionTorque = nil
	}
	return f
}

// Apply 将配置写入基础工况并换算摩擦功率
func (f ScenarioFile) Apply(base Scenario) (Scenario, error) {
	if f.FrictionTorque != nil && f.FrictionPower != nil {
		return Scenario{}, fmt.Errorf("friction_torque and friction_power are mutually exclusive")
	}
	s := base
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.GearRatio, f.GearRatio)
	set(&s.LoadInertia, f.LoadInertia)
	set(&s.FailSpeed, f.FailSpeed)
	set(&s.FrictionTorque, f.FrictionTorque)
	set(&s.BusVoltage, f.BusVoltage)
	set(&s.BusCapacitance, f.BusCapacitance)
	set(&s.LineResistance, f.LineResistance)
	if f.Description != nil {
		s.Description = *f.Description
	}
	if err := s.Validate(); err != nil {
		return Scenario{}, err
	}
	if f.FrictionPower != nil {
		if *f.FrictionPower < 0 {
			return Scenario{}, &ScenarioError{Field: "friction_power", Value: *f.FrictionPower, Reason: "must not be negative"}
		}
		torque, err := s.FrictionTorqueFromPower(*f.FrictionPower)
		if err != nil {
			return Scenario{}, err
		}
		s.FrictionTorque = torque
	}
	return s, nil
}
