package model

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinetic/motor"
)

// params 按参数表编码构造电机参数
func params(t *testing.T, name string, values map[motor.Field]float64) motor.Parameters {
	t.Helper()
	p := motor.Parameters{Name: name}
	// MOTOR_TYPE 先写入, 与参数表顺序无关
	if code, ok := values[motor.FieldType]; ok {
		require.NoError(t, p.Set(motor.FieldType, code))
	}
	for f, v := range values {
		if f == motor.FieldType {
			continue
		}
		require.NoError(t, p.Set(f, v))
	}
	return p
}

func synchronousMotor(t *testing.T) motor.Parameters {
	return params(t, "8LSA35", map[motor.Field]float64{
		motor.FieldType:        2,
		motor.TorqueConstant:   1.2,
		motor.StatorResistance: 0.5,
		motor.MaxCurrent:       10,
	})
}

func inductionMotor(t *testing.T) motor.Parameters {
	return params(t, "8KS45", map[motor.Field]float64{
		motor.FieldType:          1,
		motor.PolePairs:          2,
		motor.MagnetizingCurrent: 4,
		motor.MutualInductance:   0.1,
		motor.RotorInductance:    0.01,
		motor.StatorResistance:   0.9,
		motor.RatedSpeed:         1450,
		motor.MaxCurrent:         20,
		motor.Inertia:            0.007,
	})
}

func scenario() Scenario {
	s := DefaultScenario()
	s.LoadInertia = 0.4
	s.GearRatio = 2
	s.FailSpeed = 5
	return s
}

func TestSynchronousZeroFriction(t *testing.T) {
	s := DefaultScenario()
	c, err := Evaluate(synchronousMotor(t), s)
	require.NoError(t, err)

	assert.Equal(t, 0.0, c.IqBuffer)
	assert.Equal(t, 0.0, c.Ploss[0])
	assert.True(t, math.IsInf(c.TBuffer, 1), "tBuffer = %v", c.TBuffer)
	assert.Equal(t, DurationCeiling, c.Duration[0])
	assert.Equal(t, 1.2, c.Kt)
}

func TestSweeps(t *testing.T) {
	c, err := Evaluate(synchronousMotor(t), DefaultScenario())
	require.NoError(t, err)
	require.Len(t, c.Current, CurrentSamples)
	require.Len(t, c.Speed, SpeedSamples)
	assert.Equal(t, 0.0, c.Current[0])
	assert.InDelta(t, math.Sqrt2*10, c.Current[CurrentSamples-1], 1e-12)
	assert.InDelta(t, 100.0/60, c.Speed[SpeedSamples-1], 1e-12)
	for i := 1; i < CurrentSamples; i++ {
		assert.Greater(t, c.Current[i], c.Current[i-1])
	}

	// 给出额定转速时按额定转速扫描
	p := synchronousMotor(t)
	require.NoError(t, p.Set(motor.RatedSpeed, 3000))
	c, err = Evaluate(p, DefaultScenario())
	require.NoError(t, err)
	assert.InDelta(t, 50.0, c.Speed[SpeedSamples-1], 1e-12)

	c, err = Evaluate(inductionMotor(t), DefaultScenario())
	require.NoError(t, err)
	assert.InDelta(t, 1450.0/60, c.Speed[SpeedSamples-1], 1e-12)
	assert.InDelta(t, math.Sqrt2*20, c.Current[CurrentSamples-1], 1e-12)
}

func TestRegenIsShaftMinusLoss(t *testing.T) {
	s := scenario()
	s.FrictionTorque = 0.8
	s.LineResistance = 0.2
	for _, p := range []motor.Parameters{synchronousMotor(t), inductionMotor(t)} {
		c, err := Evaluate(p, s)
		require.NoError(t, err)
		require.Len(t, c.Pshaft, SpeedSamples)
		require.Len(t, c.Pregen, SpeedSamples)
		for i := range c.Speed {
			require.Len(t, c.Pshaft[i], CurrentSamples)
			for j := range c.Current {
				if c.Pregen[i][j] != c.Pshaft[i][j]-c.Ploss[j] {
					t.Fatalf("%s: Pregen[%d][%d] = %v, expected %v", p.Type, i, j, c.Pregen[i][j], c.Pshaft[i][j]-c.Ploss[j])
				}
			}
		}
		for j := range c.Current {
			assert.Equal(t, c.Pshaft0[j]-c.Ploss[j], c.Pregen0[j])
		}
		// 零转速时没有轴功率
		assert.Equal(t, 0.0, floatsMax(c.Pshaft[0]))
	}
}

func TestShaftPower(t *testing.T) {
	s := scenario()
	c, err := Evaluate(synchronousMotor(t), s)
	require.NoError(t, err)
	i, j := SpeedSamples-1, CurrentSamples-1
	want := 1.2 / math.Sqrt2 * c.Current[j] * 2 * math.Pi * c.Speed[i]
	assert.InDelta(t, want, c.Pshaft[i][j], 1e-9)
	want0 := 1.2 / math.Sqrt2 * c.Current[j] * 2 * math.Pi * 10 // 5 rev/s × 2
	assert.InDelta(t, want0, c.Pshaft0[j], 1e-9)
}

func TestSynchronousLoss(t *testing.T) {
	s := DefaultScenario()
	s.LineResistance = 0.3
	c, err := Evaluate(synchronousMotor(t), s)
	require.NoError(t, err)
	iq := c.Current[50]
	assert.InDelta(t, 1.5*iq*iq*(0.5/2+0.3), c.Ploss[50], 1e-9)
	assert.Equal(t, 0.0, c.Ploss[0])
}

func TestInductionLoss(t *testing.T) {
	s := DefaultScenario()
	s.LineResistance = 0.1
	c, err := Evaluate(inductionMotor(t), s)
	require.NoError(t, err)

	i0 := math.Sqrt2 * 4
	assert.Greater(t, c.Ploss[0], 0.0)
	assert.InDelta(t, 1.5*i0*i0*(0.9+0.1), c.Ploss[0], 1e-9)

	// 转子电阻只影响转矩电流的损耗
	p := inductionMotor(t)
	require.NoError(t, p.Set(motor.RotorResistance, 0.6))
	cr, err := Evaluate(p, s)
	require.NoError(t, err)
	assert.Equal(t, c.Ploss[0], cr.Ploss[0])
	iq := c.Current[100]
	ir := 0.1 / 0.11 * iq
	assert.InDelta(t, c.Ploss[100]+1.5*ir*ir*0.6, cr.Ploss[100], 1e-9)
}

func TestInductionTorqueConstant(t *testing.T) {
	c, err := Evaluate(inductionMotor(t), DefaultScenario())
	require.NoError(t, err)
	// 3·p·Lh²/(Lh+Lσr)·Im
	assert.InDelta(t, 3*2*0.01/0.11*4, c.Kt, 1e-12)
}

func TestBufferCurrent(t *testing.T) {
	s := DefaultScenario()
	s.FrictionTorque = 2
	c, err := Evaluate(synchronousMotor(t), s)
	require.NoError(t, err)
	assert.InDelta(t, 2*math.Sqrt2/1.2, c.IqBuffer, 1e-12)

	// 平衡点的轴转矩等于摩擦转矩
	assert.InDelta(t, 2.0, c.Kt*c.IqBuffer/math.Sqrt2, 1e-12)

	d := c.Derived
	loss := 1.5 * c.IqBuffer * c.IqBuffer * 0.25
	assert.InDelta(t, d.Energy()/(loss+d.FrictionPower), c.TBuffer, 1e-9)
}

func TestBufferTimeDecreasesWithFriction(t *testing.T) {
	for _, p := range []motor.Parameters{synchronousMotor(t), inductionMotor(t)} {
		prev := math.Inf(1)
		for _, friction := range []float64{0, 0.1, 0.5, 1, 2, 5, 10} {
			s := scenario()
			s.FrictionTorque = friction
			c, err := Evaluate(p, s)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, c.IqBuffer, 0.0)
			if friction > 0 {
				assert.Less(t, c.TBuffer, prev, "%s friction %v", p.Type, friction)
			}
			prev = c.TBuffer
		}
	}
}

func TestDurationCurve(t *testing.T) {
	s := scenario()
	s.FrictionTorque = 0.05
	c, err := Evaluate(synchronousMotor(t), s)
	require.NoError(t, err)
	require.Len(t, c.Duration, CurrentSamples)
	for i, v := range c.Duration {
		assert.LessOrEqual(t, v, DurationCeiling, "i=%d", i)
		assert.Greater(t, v, 0.0, "i=%d", i)
		if i > 0 {
			assert.LessOrEqual(t, v, c.Duration[i-1])
		}
	}
	assert.Equal(t, DurationCeiling, c.Duration[0])
}

func TestDerive(t *testing.T) {
	p := params(t, "m", map[motor.Field]float64{motor.Inertia: 0.01})
	s := Scenario{GearRatio: 2, LoadInertia: 0.4, FailSpeed: 10, FrictionTorque: 1.5, BusVoltage: 750, BusCapacitance: 1650}
	d := Derive(p, s)
	assert.InDelta(t, 0.1, d.ReflectedInertia, 1e-12)
	assert.InDelta(t, 0.11, d.TotalInertia, 1e-12)
	assert.Equal(t, 20.0, d.MotorFailSpeed)
	omega := 2 * math.Pi * 20
	assert.InDelta(t, 0.5*0.11*omega*omega, d.Erot, 1e-9)
	assert.InDelta(t, 464.0625, d.Ecap, 1e-9)
	assert.InDelta(t, 1.5*omega, d.FrictionPower, 1e-9)
}

func TestEvaluateErrors(t *testing.T) {
	p := synchronousMotor(t)
	s := DefaultScenario()
	s.GearRatio = 0
	_, err := Evaluate(p, s)
	var se *ScenarioError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "gear_ratio", se.Field)

	s = DefaultScenario()
	s.FrictionTorque = -1
	_, err = Evaluate(p, s)
	assert.ErrorAs(t, err, &se)

	s.FrictionTorque = math.NaN()
	_, err = Evaluate(p, s)
	assert.ErrorAs(t, err, &se)

	missing := params(t, "m", map[motor.Field]float64{motor.FieldType: 2, motor.TorqueConstant: 1})
	_, err = Evaluate(missing, DefaultScenario())
	var mfe *motor.MissingFieldError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, motor.StatorResistance, mfe.Field)

	_, err = Evaluate(motor.Parameters{Name: "untyped"}, DefaultScenario())
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, motor.FieldType, mfe.Field)
}

func TestDegenerateResults(t *testing.T) {
	assert.Equal(t, 0.0, bufferCurrent(0, 0))
	assert.True(t, math.IsInf(bufferCurrent(1, 0), 1))
	assert.True(t, math.IsInf(bufferTime(10, 0, 0), 1))
	assert.Equal(t, 0.0, bufferTime(0, 0, 0))
	assert.Equal(t, DurationCeiling, durationPoint(10, 0))
	assert.Equal(t, 0.0, durationPoint(0, 0))
	assert.Equal(t, 2.0, durationPoint(10, 5))
}

func TestZeroTorqueConstantWithFriction(t *testing.T) {
	s := DefaultScenario()
	s.FrictionTorque = 1
	motors := []motor.Parameters{
		params(t, "no magnetizing current", map[motor.Field]float64{
			motor.FieldType:          1,
			motor.PolePairs:          2,
			motor.MagnetizingCurrent: 0,
			motor.MutualInductance:   0.1,
			motor.RotorInductance:    0.01,
			motor.StatorResistance:   0.9,
			motor.RatedSpeed:         1450,
			motor.MaxCurrent:         20,
		}),
		params(t, "no torque constant", map[motor.Field]float64{
			motor.FieldType:        2,
			motor.TorqueConstant:   0,
			motor.StatorResistance: 0,
			motor.MaxCurrent:       10,
		}),
	}
	for _, p := range motors {
		c, err := Evaluate(p, s)
		require.NoError(t, err, p.Name)
		assert.Equal(t, 0.0, c.Kt, p.Name)
		assert.True(t, math.IsInf(c.IqBuffer, 1), p.Name)
		if c.TBuffer != 0 {
			t.Errorf("%s: Expected tBuffer 0, got %v", p.Name, c.TBuffer)
		}
		for i, v := range c.Duration {
			if math.IsNaN(v) {
				t.Fatalf("%s: Duration[%d] is NaN", p.Name, i)
			}
		}
	}
}

func TestEvaluateAll(t *testing.T) {
	jobs := []Job{
		{Params: synchronousMotor(t), Scenario: DefaultScenario()},
		{Params: inductionMotor(t), Scenario: scenario()},
	}
	curves, err := EvaluateAll(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, curves, 2)
	assert.Equal(t, "8LSA35", curves[0].MotorName)
	assert.Equal(t, motor.Induction, curves[1].Type)

	jobs = append(jobs, Job{Params: motor.Parameters{Name: "broken"}, Scenario: DefaultScenario()})
	_, err = EvaluateAll(context.Background(), jobs)
	var mfe *motor.MissingFieldError
	require.ErrorAs(t, err, &mfe)
	assert.Contains(t, err.Error(), "broken")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = EvaluateAll(ctx, jobs[:1])
	assert.True(t, errors.Is(err, context.Canceled))
}

func floatsMax(s []float64) float64 {
	m := math.Inf(-1)
	for _, v := range s {
		m = math.Max(m, v)
	}
	return m
}
