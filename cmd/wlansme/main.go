//go:build linux
// +build linux

// Command wlansme connects a Linux station interface to a WiFi network, or
// lists the networks in range.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	wifi "github.com/tomiamao/wlansme"
	"github.com/tomiamao/wlansme/internal/config"
	"github.com/tomiamao/wlansme/sme"
	"github.com/tomiamao/wlansme/telemetry"
	"github.com/tomiamao/wlansme/timer"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded", zap.String("source", f))
	} else {
		logger.Warn("no configuration file found, using defaults")
	}

	if err := run(v, logger); err != nil {
		logger.Error("wlansme failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(v *viper.Viper, logger *zap.Logger) error {
	scanType, err := config.ScanType(v)
	if err != nil {
		return err
	}

	ifname := v.GetString("interface.name")
	drv, err := wifi.Open(ifname, logger.Named("driver"))
	if err != nil {
		return fmt.Errorf("opening %s: %w", ifname, err)
	}
	defer drv.Close()

	channels, err := drv.Channels()
	if err != nil {
		return fmt.Errorf("reading channels of %s: %w", ifname, err)
	}
	logger.Info("interface ready",
		zap.String("interface", ifname),
		zap.Stringer("addr", drv.Addr()),
		zap.Int("channels", len(channels)),
	)

	reg := prometheus.NewRegistry()
	collector, err := telemetry.New(reg, logger.Named("telemetry"))
	if err != nil {
		return err
	}
	if addr := v.GetString("metrics.listen"); addr != "" {
		srv := serveMetrics(addr, reg, logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("metrics server shutdown error", zap.Error(err))
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	t := timer.New[sme.TimeoutEvent](16)
	defer t.Stop()

	s := sme.New(&sme.DeviceInfo{Addr: drv.Addr(), Channels: channels}, t, config.SMEOptions(v), logger.Named("sme"))
	r := &runner{sme: s, drv: drv, collector: collector, logger: logger}

	var (
		connectC   <-chan sme.ConnectResult
		discoveryC <-chan sme.DiscoveryResult
	)
	if ssid := v.GetString("connect.ssid"); ssid != "" {
		connectC = s.Connect(sme.ConnectRequest{
			SSID:     ssid,
			Password: []byte(v.GetString("connect.password")),
			ScanType: scanType,
		})
	} else {
		discoveryC = s.Scan(scanType)
	}

	var pollC <-chan time.Time
	if d := v.GetDuration("driver.signal_poll_interval"); d > 0 {
		poll := time.NewTicker(d)
		defer poll.Stop()
		pollC = poll.C
	}

	events := drv.Events(ctx)
	r.flush()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			s.Disconnect()
			r.flush()
			return nil
		case e, ok := <-events:
			if !ok {
				return nil
			}
			s.OnDriverEvent(e)
		case ev := <-t.C():
			s.OnTimeout(ev)
		case <-pollC:
			r.pollSignal()
		case res := <-connectC:
			connectC = nil
			if res != sme.Success {
				r.flush()
				return fmt.Errorf("connect to %q: %s", v.GetString("connect.ssid"), res)
			}
			if st := s.Status(); st.ConnectedTo != nil {
				logger.Info("connected",
					zap.String("ssid", st.ConnectedTo.SSID),
					zap.Stringer("bssid", st.ConnectedTo.BSSID),
				)
			}
		case res := <-discoveryC:
			r.flush()
			r.logDiscovery(res)
			return nil
		}
		r.flush()
	}
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
