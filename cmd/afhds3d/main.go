package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/dbehnke/afhds3d/pkg/config"
	"github.com/dbehnke/afhds3d/pkg/driver"
	"github.com/dbehnke/afhds3d/pkg/logger"
	"github.com/dbehnke/afhds3d/pkg/metrics"
	"github.com/dbehnke/afhds3d/pkg/statusweb"
	"github.com/dbehnke/afhds3d/pkg/telemetry"
	"github.com/dbehnke/afhds3d/pkg/telemetrystore"
	"github.com/dbehnke/afhds3d/pkg/transport"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

// tickPeriod is the scheduler period driving Registry.TickAll, matching
// the cooperative single-threaded scheduling model: one goroutine, one
// Tick per period, for every bound module.
const tickPeriod = 20 * time.Millisecond

func main() {
	configFile := pflag.String("config", "config.yaml", "path to configuration file")
	showVersion := pflag.Bool("version", false, "show version information")
	validateOnly := pflag.Bool("validate", false, "validate configuration and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("afhds3d %s\n", version)
		fmt.Printf("Git Commit: %s\n", gitCommit)
		fmt.Printf("Built: %s\n", buildTime)
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info", Format: "text"})
	log.Info("starting afhds3d",
		logger.String("version", version),
		logger.String("commit", gitCommit),
		logger.String("build_time", buildTime))

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	if *validateOnly {
		log.Info("configuration is valid")
		os.Exit(0)
	}

	log.Info("configuration loaded", logger.String("config_file", *configFile))
	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	mtr := metrics.NewCollector()

	if cfg.Metrics.Enabled && cfg.Metrics.Prometheus.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			srv := metrics.NewPrometheusServer(
				metrics.PrometheusConfig{
					Enabled: cfg.Metrics.Prometheus.Enabled,
					Port:    cfg.Metrics.Prometheus.Port,
					Path:    cfg.Metrics.Prometheus.Path,
				},
				mtr,
				log.WithComponent("metrics"),
			)
			if err := srv.Start(ctx); err != nil && err != context.Canceled {
				log.Error("prometheus server error", logger.Error(err))
			}
		}()
		log.Info("prometheus metrics server started",
			logger.Int("port", cfg.Metrics.Prometheus.Port),
			logger.String("path", cfg.Metrics.Prometheus.Path))
	}

	var telemStore *telemetrystore.Store
	if cfg.Telemetry.Enabled {
		telemStore, err = telemetrystore.NewStore(
			telemetrystore.Config{DSN: cfg.Telemetry.DSN},
			log.WithComponent("telemetrystore"),
		)
		if err != nil {
			log.Error("failed to initialize telemetry store", logger.Error(err))
			os.Exit(1)
		}
		defer telemStore.Close()
	}

	registry := driver.NewRegistry()

	var statusServer *statusweb.Server
	if cfg.Status.Enabled {
		statusServer = statusweb.NewServer(
			statusweb.Config{Enabled: true, Host: cfg.Status.Host, Port: cfg.Status.Port},
			registry,
			log.WithComponent("statusweb"),
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := statusServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("status server error", logger.Error(err))
			}
		}()
		log.Info("status server started",
			logger.String("host", cfg.Status.Host), logger.Int("port", cfg.Status.Port))
	}

	for name, modCfg := range cfg.Modules {
		if !modCfg.Enabled {
			log.Info("module disabled, skipping", logger.String("module", name))
			continue
		}

		model, err := config.NewModuleModel(modCfg)
		if err != nil {
			log.Error("invalid module configuration", logger.String("module", name), logger.Error(err))
			os.Exit(1)
		}

		var sink transport.Sink
		var src transport.Source
		if modCfg.Device != "" {
			serialSink, err := transport.OpenSerialSink(modCfg.Device)
			if err != nil {
				log.Error("failed to open serial transport", logger.String("module", name), logger.Error(err))
				os.Exit(1)
			}
			defer serialSink.Close()
			sink, src = serialSink, serialSink
		} else {
			loop := transport.NewLoopbackSink()
			sink, src = loop, loop
		}

		var sinks []telemetry.Sink
		if telemStore != nil {
			sinks = append(sinks, telemStore.Sink(modCfg.Slot))
		}
		if statusServer != nil {
			sinks = append(sinks, statusTelemetrySink(statusServer, modCfg.Slot))
		}

		d := driver.New(modCfg.Slot, model, sink, src, fanOutSink(sinks), log.WithComponent(fmt.Sprintf("driver.%s", name)), mtr)
		if err := registry.Bind(modCfg.Slot, d); err != nil {
			log.Error("failed to bind module", logger.String("module", name), logger.Error(err))
			os.Exit(1)
		}
		log.Info("module bound", logger.String("module", name), logger.Int("slot", modCfg.Slot))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		runScheduler(ctx, registry, mtr, statusServer)
	}()

	log.Info("afhds3d initialized")

	sig := <-sigChan
	log.Info("received shutdown signal", logger.String("signal", sig.String()))
	cancel()

	wg.Wait()
	log.Info("afhds3d stopped")
}

// runScheduler drives the periodic Tick/Flush cycle on a single
// dedicated goroutine via time.Ticker, preserving the single-threaded
// cooperative scheduling model even though goroutines exist elsewhere in
// the process.
func runScheduler(ctx context.Context, registry *driver.Registry, mtr *metrics.Collector, status *statusweb.Server) {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()

	lastState := make(map[int]string)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			registry.TickAll()
			registry.FlushAll()
			if status != nil {
				for _, slot := range []int{driver.SlotInternal, driver.SlotExternal} {
					if d := registry.Get(slot); d != nil {
						snap := d.Snapshot()
						state := snap.ModuleState.String()
						if lastState[snap.Slot] != state {
							lastState[snap.Slot] = state
							status.Hub().BroadcastModuleState(snap.Slot, state)
						}
					}
				}
			}
		}
	}
}

// statusTelemetrySink adapts the status hub's broadcast into a telemetry
// sink so the status server gets a live feed without the driver knowing
// anything about websockets.
func statusTelemetrySink(s *statusweb.Server, slot int) telemetry.Sink {
	return telemetry.SinkFunc(func(rec telemetry.Record) {
		s.Hub().BroadcastTelemetry(slot, rec.Type, rec.ID, rec.Data)
	})
}

// fanOutSink combines zero or more sinks into one, dispatching each record
// to every sink in turn. A nil slice yields a sink that discards records,
// so callers never need to special-case "no telemetry consumers".
func fanOutSink(sinks []telemetry.Sink) telemetry.Sink {
	return telemetry.SinkFunc(func(rec telemetry.Record) {
		for _, sink := range sinks {
			sink.Dispatch(rec)
		}
	})
}
