package render

import (
	"encoding/json"
	"io"
	"math"

	"github.com/google/uuid"

	"kinetic/model"
)

// Record 计算结果导出
type Record struct {
	RunID      string             `json:"run_id"`
	Motor      string             `json:"motor"`
	Type       string             `json:"type"`
	Parameters map[string]float64 `json:"parameters"`
	Scenario   model.Scenario     `json:"scenario"`

	ReflectedInertia float64  `json:"reflected_inertia"`
	MotorFailSpeed   float64  `json:"motor_fail_speed"`
	Erot             float64  `json:"e_rot"`
	Ecap             float64  `json:"e_cap"`
	FrictionPower    float64  `json:"friction_power"`
	Kt               float64  `json:"kt"`
	IqBuffer         *float64 `json:"iq_buffer"` // null: 无法平衡摩擦
	TBuffer          *float64 `json:"t_buffer"`  // null: 不受限

	Current  []float64   `json:"current"`
	Speed    []float64   `json:"speed"`
	Ploss    []float64   `json:"p_loss"`
	Pshaft   [][]float64 `json:"p_shaft"`
	Pregen   [][]float64 `json:"p_regen"`
	Pshaft0  []float64   `json:"p_shaft0"`
	Pregen0  []float64   `json:"p_regen0"`
	Duration []float64   `json:"duration"`
}

// NewRecord 从计算结果生成记录, 每条记录分配新的运行 ID
func NewRecord(c *model.Curve) Record {
	d := c.Derived
	return Record{
		RunID:            uuid.NewString(),
		Motor:            c.MotorName,
		Type:             c.Type.String(),
		Parameters:       c.Params.Map(),
		Scenario:         c.Scenario,
		ReflectedInertia: d.ReflectedInertia,
		MotorFailSpeed:   d.MotorFailSpeed,
		Erot:             d.Erot,
		Ecap:             d.Ecap,
		FrictionPower:    d.FrictionPower,
		Kt:               c.Kt,
		IqBuffer:         finite(c.IqBuffer),
		TBuffer:          finite(c.TBuffer),
		Current:          c.Current,
		Speed:            c.Speed,
		Ploss:            c.Ploss,
		Pshaft:           c.Pshaft,
		Pregen:           c.Pregen,
		Pshaft0:          c.Pshaft0,
		Pregen0:          c.Pregen0,
		Duration:         c.Duration,
	}
}

// Render 格式和输出内容
func (r Record) Render(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
