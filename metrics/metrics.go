package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kinetic/model"
	"kinetic/motor"
)

// Collector 主轴计算的 Prometheus 指标
type Collector struct {
	gatherer prometheus.Gatherer

	Evaluations       *prometheus.CounterVec
	EvaluationSeconds *prometheus.HistogramVec
	BufferDuration    *prometheus.GaugeVec
	BufferCurrent     *prometheus.GaugeVec
}

// NewCollector 注册指标, reg 为 nil 时使用全局注册表, 重复注册时复用已有指标
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	evaluations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kib_evaluations_total",
		Help: "Kinetic buffering evaluations, labeled by motor type and result.",
	}, []string{"motor_type", "result"}), "kib_evaluations_total")
	if err != nil {
		return nil, err
	}
	seconds, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kib_evaluation_seconds",
		Help:    "Time spent evaluating the power model, labeled by motor type.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"motor_type"}), "kib_evaluation_seconds")
	if err != nil {
		return nil, err
	}
	duration, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kib_buffer_duration_seconds",
		Help: "Maximum buffer duration of the last evaluation per motor, +Inf when unlimited.",
	}, []string{"motor"}), "kib_buffer_duration_seconds")
	if err != nil {
		return nil, err
	}
	current, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "kib_buffer_current_amperes",
		Help: "Quadrature current balancing friction at fail speed per motor.",
	}, []string{"motor"}), "kib_buffer_current_amperes")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		Evaluations:       evaluations,
		EvaluationSeconds: seconds,
		BufferDuration:    duration,
		BufferCurrent:     current,
	}, nil
}

// Observe 记录一次成功计算
func (c *Collector) Observe(curve *model.Curve) {
	if c == nil || curve == nil {
		return
	}
	c.Evaluations.WithLabelValues(curve.Type.String(), "ok").Inc()
	c.BufferDuration.WithLabelValues(curve.MotorName).Set(curve.TBuffer)
	c.BufferCurrent.WithLabelValues(curve.MotorName).Set(curve.IqBuffer)
}

// ObserveDuration 记录计算耗时
func (c *Collector) ObserveDuration(t motor.Type, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.EvaluationSeconds.WithLabelValues(t.String()).Observe(elapsed.Seconds())
}

// ObserveError 记录一次失败计算
func (c *Collector) ObserveError(t motor.Type) {
	if c == nil {
		return
	}
	c.Evaluations.WithLabelValues(t.String(), "error").Inc()
}

// Handler /metrics 页面
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
