package main

import (
	"go.uber.org/zap"

	"github.com/tomiamao/wlansme/mlme"
	"github.com/tomiamao/wlansme/sme"
	"github.com/tomiamao/wlansme/telemetry"
)

// A driver executes SME requests.
type driver interface {
	Do(req mlme.Request) []mlme.Event
	PollSignal() []mlme.Event
}

// A runner moves requests, events and telemetry between the SME, the driver
// and the collector. It is owned by a single goroutine.
type runner struct {
	sme       *sme.ClientSME
	drv       driver
	collector *telemetry.Collector
	logger    *zap.Logger
}

// flush executes pending requests until the SME stops issuing new ones and
// then records telemetry.
func (r *runner) flush() {
	for {
		reqs := r.sme.DrainRequests()
		if len(reqs) == 0 {
			break
		}
		for _, req := range reqs {
			for _, e := range r.drv.Do(req) {
				r.sme.OnDriverEvent(e)
			}
		}
	}

	for _, e := range r.sme.DrainInfoEvents() {
		r.collector.Record(e)
	}
}

func (r *runner) pollSignal() {
	for _, e := range r.drv.PollSignal() {
		r.sme.OnDriverEvent(e)
	}
}

func (r *runner) logDiscovery(res sme.DiscoveryResult) {
	if res.Err != nil {
		r.logger.Error("discovery scan failed", zap.Error(res.Err))
		return
	}
	r.logger.Info("discovery scan finished", zap.Int("networks", len(res.ESS)))
	for _, ess := range res.ESS {
		b := ess.BestBss
		r.logger.Info("network",
			zap.String("ssid", b.SSID),
			zap.Stringer("bssid", b.BSSID),
			zap.Int8("rssi_dbm", b.RxDBm),
			zap.Uint8("channel", b.Channel),
			zap.Bool("protected", b.Protected),
			zap.Bool("compatible", b.Compatible),
		)
	}
}
