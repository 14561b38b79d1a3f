package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/kardianos/service"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"netwatch/internal/config"
	"netwatch/internal/history"
	"netwatch/internal/metrics"
	"netwatch/internal/models"
	"netwatch/internal/monitor"
	"netwatch/internal/netpath"
	"netwatch/internal/notify"
	"netwatch/internal/probe"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to configuration file (YAML)")
		quiet      = flag.Bool("quiet", false, "suppress desktop notifications")
		install    = flag.Bool("install", false, "register netwatch as a background service and exit")
		uninstall  = flag.Bool("uninstall", false, "remove the background service registration and exit")
	)
	flag.Parse()

	svcConfig := &service.Config{
		Name:        "netwatch",
		DisplayName: "netwatch connectivity watcher",
		Description: "Watches internet connectivity and alerts on state changes.",
		Arguments:   []string{"-config", *configPath},
	}

	prg := &program{configPath: *configPath, quiet: *quiet}
	svc, err := service.New(prg, svcConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "service setup: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *install:
		if err := svc.Install(); err != nil {
			fmt.Fprintf(os.Stderr, "install service: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("netwatch service installed")
		return
	case *uninstall:
		if err := svc.Uninstall(); err != nil {
			fmt.Fprintf(os.Stderr, "uninstall service: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("netwatch service removed")
		return
	}

	// Run blocks until a signal (interactive) or a stop request from the
	// service manager, then calls program.Stop.
	if err := svc.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "netwatch: %v\n", err)
		os.Exit(1)
	}
}

// program wires the watcher pipeline and implements service.Interface.
type program struct {
	configPath string
	quiet      bool

	log      *zap.Logger
	watcher  *monitor.Watcher
	observer *netpath.Poller
	timeline *history.Timeline
}

func (p *program) Start(_ service.Service) error {
	cfg, err := config.Load(p.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	p.log = logger

	httpProbes, tcpTargets := cfg.Catalog()
	exec := probe.NewExecutor(logger.Named("probe"))
	eval := monitor.NewEvaluator(httpProbes, tcpTargets, cfg.TCPTimeout(), exec, logger.Named("evaluator"))

	p.timeline = history.NewTimeline(0)

	var sink notify.Notifier = notify.Desktop{}
	if p.quiet || !cfg.Notifications {
		sink = notify.Muted{}
	}

	p.observer = netpath.NewPoller(cfg.PathPoll(), logger.Named("netpath"))

	onChange := func(state models.InternetState) {
		now := time.Now()
		p.timeline.Record(state, now)

		title, body, sound := notify.ForState(state)
		if err := sink.Notify(title, body, sound); err != nil {
			logger.Warn("notification delivery failed", zap.Error(err))
		}

		b := metrics.StateBreakdown(p.timeline.Snapshot(), now)
		logger.Info("state transition",
			zap.Stringer("state", state),
			zap.Int("transitions", b.Transitions),
			zap.Float64("online_percent", b.OnlinePercent))
	}

	p.watcher = monitor.NewWatcher(monitor.WatcherConfig{
		Debounce:        cfg.Debounce(),
		HeartbeatBase:   cfg.Heartbeat(),
		HeartbeatJitter: cfg.HeartbeatJitter(),
		HeartbeatFloor:  cfg.HeartbeatFloor(),
	}, eval, p.observer.Events(), onChange, clock.New(), logger.Named("watcher"))
	p.watcher.Start()

	logger.Info("netwatch started",
		zap.Int("http_probes", len(httpProbes)),
		zap.Int("tcp_targets", len(tcpTargets)),
		zap.Duration("heartbeat", cfg.Heartbeat()),
		zap.Duration("debounce", cfg.Debounce()))
	return nil
}

func (p *program) Stop(_ service.Service) error {
	if p.watcher != nil {
		p.watcher.Stop()
	}
	if p.observer != nil {
		_ = p.observer.Close()
	}
	if p.log != nil {
		if snap := p.timeline.Snapshot(); len(snap) > 0 {
			b := metrics.StateBreakdown(snap, time.Now())
			p.log.Info("shutting down",
				zap.Duration("observed", b.Total),
				zap.Int("transitions", b.Transitions),
				zap.Float64("online_percent", b.OnlinePercent))
		} else {
			p.log.Info("shutting down")
		}
		_ = p.log.Sync()
	}
	return nil
}

func buildLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return cfg.Build()
}
