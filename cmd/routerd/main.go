// routerd is a minimal IPv4 software router operating on raw Ethernet
// frames: it classifies and forwards Ethernet/ARP/IPv4/ICMP traffic
// between a fixed set of configured interfaces using a longest-prefix
// match routing table and an ARP cache with background resolution.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/trace"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dantte-lp/routerd/internal/config"
	"github.com/dantte-lp/routerd/internal/mgmt"
	routermetrics "github.com/dantte-lp/routerd/internal/metrics"
	"github.com/dantte-lp/routerd/internal/netio"
	"github.com/dantte-lp/routerd/internal/router"
	appversion "github.com/dantte-lp/routerd/internal/version"
)

// shutdownTimeout is the maximum time to wait for HTTP servers to drain
// active connections during graceful shutdown.
const shutdownTimeout = 10 * time.Second

// flightRecorderMinAge is the minimum window age for the flight
// recorder, used for post-mortem debugging of forwarding failures.
const flightRecorderMinAge = 500 * time.Millisecond

// flightRecorderMaxBytes is the upper bound on flight recorder window size.
const flightRecorderMaxBytes = 2 * 1024 * 1024 // 2 MiB

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("routerd starting",
		slog.String("version", appversion.Version),
		slog.String("mgmt_addr", cfg.Mgmt.Addr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
		slog.Int("interfaces", len(cfg.Interfaces)),
		slog.Int("routes", len(cfg.Routes)),
	)

	fr := startFlightRecorder(logger)

	ifaces, routes, arp, rt, conns, reg, err := buildRouter(cfg, logger)
	if err != nil {
		logger.Error("failed to build router", slog.String("error", err.Error()))
		return 1
	}
	defer closeConns(conns, logger)

	if err := runServers(cfg, ifaces, routes, arp, rt, conns, reg, logger, *configPath, logLevel, fr); err != nil {
		logger.Error("routerd exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("routerd stopped")
	return 0
}

// buildRouter constructs the router's immutable static state (interface
// table, routing table, ARP table) and opens one raw frame conn per
// configured interface, wiring a Prometheus-backed observer into the
// returned Router.
func buildRouter(cfg *config.Config, logger *slog.Logger) (
	[]router.Interface, []router.Route, *router.ARPTable, *router.Router, []netio.FrameConn, *prometheus.Registry, error,
) {
	ifaces, err := buildInterfaces(cfg.Interfaces)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("build interfaces: %w", err)
	}

	routes, err := buildRoutes(cfg.Routes)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("build routes: %w", err)
	}

	ifaceTable, err := router.NewInterfaceTable(ifaces)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("build interface table: %w", err)
	}

	routingTable, err := router.NewRoutingTable(routes)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("build routing table: %w", err)
	}

	arp := router.NewARPTable(
		router.WithARPCacheTTL(cfg.ARP.CacheTTL),
		router.WithARPRetransmitInterval(cfg.ARP.RetransmitInterval),
		router.WithARPMaxAttempts(cfg.ARP.MaxAttempts),
	)

	openCfgs := make([]netio.OpenConfig, 0, len(cfg.Interfaces))
	for _, ic := range cfg.Interfaces {
		openCfgs = append(openCfgs, netio.OpenConfig{Name: ic.Name})
	}
	conns, err := netio.OpenAll(openCfgs)
	if err != nil {
		return nil, nil, nil, nil, nil, nil, fmt.Errorf("open interfaces: %w", err)
	}

	mux := netio.NewMultiplexer(conns)

	reg := prometheus.NewRegistry()
	collector := routermetrics.NewCollector(reg)

	rt := router.NewRouter(ifaceTable, routingTable, mux,
		router.WithObserver(collector),
		router.WithLogger(logger),
		router.WithARPTable(arp),
	)

	return ifaces, routes, arp, rt, conns, reg, nil
}

func buildInterfaces(cfgs []config.InterfaceConfig) ([]router.Interface, error) {
	out := make([]router.Interface, 0, len(cfgs))
	for _, ic := range cfgs {
		mac, err := ic.ParseMAC()
		if err != nil {
			return nil, err
		}
		addr, err := ic.ParseIPv4()
		if err != nil {
			return nil, err
		}
		out = append(out, router.Interface{
			Name: ic.Name,
			MAC:  router.MACAddr(mac),
			IPv4: router.IPv4Addr(addr.As4()),
		})
	}
	return out, nil
}

func buildRoutes(cfgs []config.RouteConfig) ([]router.Route, error) {
	out := make([]router.Route, 0, len(cfgs))
	for _, rc := range cfgs {
		dest, err := rc.ParseDest()
		if err != nil {
			return nil, err
		}
		mask, err := rc.ParseMask()
		if err != nil {
			return nil, err
		}
		gw, err := rc.ParseGateway()
		if err != nil {
			return nil, err
		}
		out = append(out, router.Route{
			Dest:     router.IPv4Addr(dest.As4()),
			Mask:     router.IPv4Addr(mask.As4()),
			Gateway:  router.IPv4Addr(gw.As4()),
			OutIface: rc.OutIface,
		})
	}
	return out, nil
}

func closeConns(conns []netio.FrameConn, logger *slog.Logger) {
	for _, c := range conns {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close interface socket",
				slog.String("interface", c.IfaceName()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// runServers runs the frame receiver, ARP sweeper, and HTTP servers
// using an errgroup with a signal-aware context for graceful shutdown.
func runServers(
	cfg *config.Config,
	ifaces []router.Interface,
	routes []router.Route,
	arp *router.ARPTable,
	rt *router.Router,
	conns []netio.FrameConn,
	reg *prometheus.Registry,
	logger *slog.Logger,
	configPath string,
	logLevel *slog.LevelVar,
	fr *trace.FlightRecorder,
) error {
	mgmtSrv := newMgmtServer(cfg.Mgmt, ifaces, routes, arp, logger)
	metricsSrv := newMetricsServer(cfg.Metrics, reg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	recv := netio.NewReceiver(rt, logger)
	g.Go(func() error {
		return recv.Run(gCtx, conns...)
	})

	g.Go(func() error {
		rt.RunSweeper(gCtx)
		return nil
	})

	startHTTPServers(gCtx, g, cfg, mgmtSrv, metricsSrv, logger)
	startDaemonGoroutines(gCtx, g, configPath, logLevel, logger)

	notifyReady(logger)

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, logger, fr, mgmtSrv, metricsSrv)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

func startHTTPServers(
	ctx context.Context,
	g *errgroup.Group,
	cfg *config.Config,
	mgmtSrv *http.Server,
	metricsSrv *http.Server,
	logger *slog.Logger,
) {
	lc := net.ListenConfig{}

	g.Go(func() error {
		logger.Info("mgmt server listening", slog.String("addr", cfg.Mgmt.Addr))
		return listenAndServe(ctx, &lc, mgmtSrv, cfg.Mgmt.Addr)
	})

	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(ctx, &lc, metricsSrv, cfg.Metrics.Addr)
	})
}

func startDaemonGoroutines(
	ctx context.Context,
	g *errgroup.Group,
	configPath string,
	logLevel *slog.LevelVar,
	logger *slog.Logger,
) {
	g.Go(func() error {
		return runWatchdog(ctx, logger)
	})

	sigHUP := make(chan os.Signal, 1)
	signal.Notify(sigHUP, syscall.SIGHUP)
	g.Go(func() error {
		defer signal.Stop(sigHUP)
		handleSIGHUP(ctx, sigHUP, configPath, logLevel, logger)
		return nil
	})
}

// -------------------------------------------------------------------------
// Systemd Integration — sd_notify + watchdog
// -------------------------------------------------------------------------

func notifyReady(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyReady)
	if err != nil {
		logger.Warn("failed to notify systemd readiness", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: READY")
	}
}

func notifyStopping(logger *slog.Logger) {
	sent, err := daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil {
		logger.Warn("failed to notify systemd stopping", slog.String("error", err.Error()))
		return
	}
	if sent {
		logger.Info("notified systemd: STOPPING")
	}
}

// runWatchdog sends periodic watchdog keepalives to systemd at half the
// configured interval. Exits immediately if no watchdog is configured.
func runWatchdog(ctx context.Context, logger *slog.Logger) error {
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("failed to check systemd watchdog", slog.String("error", err.Error()))
		return nil
	}
	if interval == 0 {
		logger.Debug("systemd watchdog not configured, skipping keepalive")
		return nil
	}

	tickInterval := interval / 2
	logger.Info("systemd watchdog enabled",
		slog.Duration("watchdog_sec", interval),
		slog.Duration("keepalive_interval", tickInterval),
	)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, wdErr := daemon.SdNotify(false, daemon.SdNotifyWatchdog); wdErr != nil {
				logger.Warn("failed to send watchdog keepalive", slog.String("error", wdErr.Error()))
			}
		}
	}
}

// -------------------------------------------------------------------------
// SIGHUP Reload — log level only
// -------------------------------------------------------------------------

// handleSIGHUP reloads the dynamic log level from a fresh read of the
// configuration file on each SIGHUP. The static router state (interfaces,
// routes, ARP tunables) is loaded once at startup and is not
// reconcilable at runtime, since the frame receiver and forwarding
// pipeline are already built against it.
func handleSIGHUP(
	ctx context.Context,
	sigHUP <-chan os.Signal,
	configPath string,
	logLevel *slog.LevelVar,
	logger *slog.Logger,
) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigHUP:
			logger.Info("received SIGHUP, reloading log level")
			reloadLogLevel(configPath, logLevel, logger)
		}
	}
}

func reloadLogLevel(configPath string, logLevel *slog.LevelVar, logger *slog.Logger) {
	newCfg, err := loadConfig(configPath)
	if err != nil {
		logger.Error("failed to reload configuration, keeping current settings",
			slog.String("error", err.Error()),
		)
		return
	}

	oldLevel := logLevel.Level()
	newLevel := config.ParseLogLevel(newCfg.Log.Level)
	logLevel.Set(newLevel)

	logger.Info("log level reloaded",
		slog.String("old_level", oldLevel.String()),
		slog.String("new_level", newLevel.String()),
	)
}

// -------------------------------------------------------------------------
// Graceful Shutdown
// -------------------------------------------------------------------------

func gracefulShutdown(
	ctx context.Context,
	logger *slog.Logger,
	fr *trace.FlightRecorder,
	servers ...*http.Server,
) error {
	logger.Info("initiating graceful shutdown")
	notifyStopping(logger)

	if fr != nil {
		fr.Stop()
		logger.Debug("flight recorder stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

// -------------------------------------------------------------------------
// Flight Recorder
// -------------------------------------------------------------------------

// startFlightRecorder starts a rolling execution trace recorder for
// post-mortem debugging of forwarding failures (panics, stuck sweeps).
func startFlightRecorder(logger *slog.Logger) *trace.FlightRecorder {
	fr := trace.NewFlightRecorder(trace.FlightRecorderConfig{
		MinAge:   flightRecorderMinAge,
		MaxBytes: flightRecorderMaxBytes,
	})

	if err := fr.Start(); err != nil {
		logger.Warn("failed to start flight recorder", slog.String("error", err.Error()))
		return nil
	}

	logger.Info("flight recorder started",
		slog.Duration("min_age", flightRecorderMinAge),
		slog.Uint64("max_bytes", flightRecorderMaxBytes),
	)

	return fr
}

// -------------------------------------------------------------------------
// Server Setup
// -------------------------------------------------------------------------

func listenAndServe(ctx context.Context, lc *net.ListenConfig, srv *http.Server, addr string) error {
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", addr, err)
	}
	return nil
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func newMgmtServer(cfg config.MgmtConfig, ifaces []router.Interface, routes []router.Route, arp *router.ARPTable, logger *slog.Logger) *http.Server {
	srv := mgmt.New(ifaces, routes, arp, logger)
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
