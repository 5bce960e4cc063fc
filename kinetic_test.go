package kinetic

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kinetic/internal/logging"
	"kinetic/load"
	"kinetic/metrics"
	"kinetic/model"
	"kinetic/motor"
)

var (
	synchronousFile = filepath.Join("load", "testdata", "8LSA35.apt")
	inductionFile   = filepath.Join("load", "testdata", "8KS.apt")
)

func TestAxisEvaluate(t *testing.T) {
	var logs bytes.Buffer
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	a, err := NewAxis(synchronousFile,
		WithLogger(logging.New(logging.Config{Format: "json", Output: &logs})),
		WithMetrics(collector))
	require.NoError(t, err)
	assert.Equal(t, "8LSA35.DA030S000-3", a.Name)
	assert.Equal(t, motor.Synchronous, a.Type)

	s := model.DefaultScenario()
	s.FrictionTorque = 0.5
	c, err := a.Evaluate(context.Background(), s)
	require.NoError(t, err)
	assert.Greater(t, c.TBuffer, 0.0)
	assert.Contains(t, logs.String(), `"motor":"8LSA35.DA030S000-3"`)
	assert.Contains(t, logs.String(), `"msg":"evaluated"`)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Evaluations.WithLabelValues("synchronous", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(collector.EvaluationSeconds))
}

func TestAxisEvaluateError(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	require.NoError(t, err)

	p, err := load.LoadString(`<AcoposParameterTable><Root Name="Parameters"><Motor Name="partial">
		<Group Name="Motor"><Parameter Name="MOTOR_TYPE" Value="3"/></Group></Motor></Root></AcoposParameterTable>`)
	require.NoError(t, err)
	a := NewAxisFromParameters(p, WithMetrics(collector))
	_, err = a.Evaluate(context.Background(), model.DefaultScenario())
	var mfe *motor.MissingFieldError
	require.ErrorAs(t, err, &mfe)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Evaluations.WithLabelValues("induction", "error")))
}

func TestNewAxisErrors(t *testing.T) {
	_, err := NewAxis(filepath.Join(t.TempDir(), "missing.apt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(t.TempDir(), "bad.apt")
	require.NoError(t, os.WriteFile(bad, []byte(`<ParameterTable/>`), 0o644))
	_, err = NewAxis(bad)
	var fe *load.FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestPlotPower(t *testing.T) {
	a, err := NewAxis(inductionFile)
	require.NoError(t, err)
	s := model.DefaultScenario()
	s.Description = "spindle"
	name, err := a.PlotPower(context.Background(), s, t.TempDir(), "svg")
	require.NoError(t, err)
	assert.Equal(t, "KIB-8KS45.R1150.000-0 _ Kühlung spindle.svg", filepath.Base(name))
	_, err = os.Stat(name)
	assert.NoError(t, err)
}

func TestEvaluateAll(t *testing.T) {
	var axes []*Axis
	for _, f := range []string{synchronousFile, inductionFile} {
		a, err := NewAxis(f)
		require.NoError(t, err)
		axes = append(axes, a)
	}
	curves, err := EvaluateAll(context.Background(), axes, model.DefaultScenario())
	require.NoError(t, err)
	require.Len(t, curves, 2)
	assert.Equal(t, motor.Synchronous, curves[0].Type)
	assert.Equal(t, motor.Induction, curves[1].Type)

	axes = append(axes, NewAxisFromParameters(motor.Parameters{Name: "empty"}))
	_, err = EvaluateAll(context.Background(), axes, model.DefaultScenario())
	assert.Error(t, err)
}
