// kib 动能缓冲功率计算, 每个参数表输出一份以电机命名的图表
//
//	kib -gear 5 -fail-speed 2 -friction 30 530d12f.apt 2kj3507p.apt
//	kib -scenario winder.yaml -html -json -out results 8LSA35.apt
//	kib -serve :8080 8LSA35.apt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"kinetic"
	"kinetic/internal/logging"
	"kinetic/metrics"
	"kinetic/model"
	"kinetic/render"
)

const usage = `kib - kinetic buffering power calculator

Usage:
  kib [flags] <file.apt>...

Scenario flags override values read with -scenario. Friction is given either
as torque at the motor shaft (-friction) or as power at fail speed
(-friction-power).

Flags:
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "kib:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("kib", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	def := model.DefaultScenario()
	gear := fs.Float64("gear", def.GearRatio, "gear ratio n_motor/n_load")
	loadInertia := fs.Float64("load-inertia", def.LoadInertia, "load inertia at the load side [kgm²]")
	failSpeed := fs.Float64("fail-speed", def.FailSpeed, "load speed at power failure [rev/s]")
	friction := fs.Float64("friction", def.FrictionTorque, "friction torque at the motor shaft [Nm]")
	frictionPower := fs.Float64("friction-power", 0, "friction power at fail speed [W]")
	busVoltage := fs.Float64("bus-voltage", def.BusVoltage, "nominal DC bus voltage [V]")
	busCapacitance := fs.Float64("bus-capacitance", def.BusCapacitance, "DC bus capacitance [µF]")
	lineResistance := fs.Float64("line-resistance", def.LineResistance, "motor cable resistance [Ω]")
	desc := fs.String("desc", "", "scenario description, appended to the file name")
	scenarioFile := fs.String("scenario", "", "YAML scenario file")
	outDir := fs.String("out", ".", "output directory")
	format := fs.String("format", "pdf", "chart format: pdf, svg, png, eps")
	html := fs.Bool("html", false, "also write an HTML chart page per motor")
	jsonOut := fs.Bool("json", false, "also write a JSON record per motor")
	serve := fs.String("serve", "", "serve charts and /metrics on this address after evaluation")
	logLevel := fs.String("log-level", "info", "log level: debug, info, warn, error")
	logFormat := fs.String("log-format", "text", "log format: text or json")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("no parameter table given")
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	pick := func(name string, v *float64) *float64 {
		if set[name] {
			return v
		}
		return nil
	}
	overrides := model.ScenarioFile{
		GearRatio:      pick("gear", gear),
		LoadInertia:    pick("load-inertia", loadInertia),
		FailSpeed:      pick("fail-speed", failSpeed),
		FrictionTorque: pick("friction", friction),
		FrictionPower:  pick("friction-power", frictionPower),
		BusVoltage:     pick("bus-voltage", busVoltage),
		BusCapacitance: pick("bus-capacitance", busCapacitance),
		LineResistance: pick("line-resistance", lineResistance),
	}
	if set["desc"] {
		overrides.Description = desc
	}

	var file model.ScenarioFile
	if *scenarioFile != "" {
		var err error
		if file, err = model.ReadScenarioFile(*scenarioFile); err != nil {
			return err
		}
	}
	scenario, err := file.Merge(overrides).Apply(model.DefaultScenario())
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{Level: *logLevel, Format: *logFormat, Output: stderr})
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}

	axes := make([]*kinetic.Axis, 0, fs.NArg())
	for _, name := range fs.Args() {
		a, err := kinetic.NewAxis(name, kinetic.WithLogger(log), kinetic.WithMetrics(collector))
		if err != nil {
			return err
		}
		axes = append(axes, a)
	}
	curves, err := kinetic.EvaluateAll(ctx, axes, scenario)
	if err != nil {
		return err
	}

	for _, c := range curves {
		name, err := render.NewDocument(c).Save(*outDir, *format)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "%s (%s): iq buffer %.2f A, t buffer %s -> %s\n",
			c.MotorName, c.Type.Short(), c.IqBuffer, render.FormatDuration(c.TBuffer), name)
		if *html {
			charts := &render.Charts{Curves: []*model.Curve{c}}
			if err := writeFile(*outDir, render.FileName(c.MotorName, c.Scenario.Description, "html"), charts.Render); err != nil {
				return err
			}
		}
		if *jsonOut {
			if err := writeFile(*outDir, render.FileName(c.MotorName, c.Scenario.Description, "json"), render.NewRecord(c).Render); err != nil {
				return err
			}
		}
	}

	if *serve != "" {
		return serveCharts(ctx, *serve, &render.Charts{Curves: curves}, collector, log)
	}
	return nil
}

// writeFile 写入输出目录
func writeFile(dir, name string, render func(io.Writer) error) error {
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	if err := render(file); err != nil {
		file.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return file.Close()
}

// serveCharts 发布图表与指标, ctx 结束时关闭
func serveCharts(ctx context.Context, addr string, charts *render.Charts, collector *metrics.Collector, log logging.Logger) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", charts.Handler)
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdown)
	}()
	log.Info(ctx, "serving charts", logging.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
