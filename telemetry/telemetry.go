// Package telemetry exports the info events of a client SME as Prometheus
// metrics.
package telemetry

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tomiamao/wlansme/sme"
)

const namespace = "wlansme"

// A Collector turns sme.InfoEvent values into metrics. It is safe for
// concurrent use.
type Collector struct {
	connectStarted  prometheus.Counter
	connectFinished *prometheus.CounterVec
	scans           prometheus.Counter
	attempts        prometheus.Counter
	associations    prometheus.Counter
	rsnaStarted     prometheus.Counter
	rsnaEstablished prometheus.Counter
	discoveredBSS   prometheus.Gauge
	discoveredESS   prometheus.Gauge
	bssByStandard   *prometheus.GaugeVec
	bssByChannel    *prometheus.GaugeVec
	lastAttemptID   prometheus.Gauge

	logger *zap.Logger
}

// New creates a Collector and registers its metrics with reg.
func New(reg prometheus.Registerer, logger *zap.Logger) (*Collector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Collector{
		connectStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connect_requests_total",
			Help:      "Total number of connect requests.",
		}),
		connectFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "connect_results_total",
				Help:      "Total number of resolved connect requests by result and failure.",
			},
			[]string{"result", "failure"},
		),
		scans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Total number of scan transactions started.",
		}),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "association_attempts_total",
			Help:      "Total number of association attempts.",
		}),
		associations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "associations_total",
			Help:      "Total number of successful associations.",
		}),
		rsnaStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rsna_started_total",
			Help:      "Total number of key exchanges started.",
		}),
		rsnaEstablished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rsna_established_total",
			Help:      "Total number of key exchanges completed.",
		}),
		discoveredBSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discovered_bss",
			Help:      "Number of BSSes seen by the last discovery scan.",
		}),
		discoveredESS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "discovered_ess",
			Help:      "Number of networks seen by the last discovery scan.",
		}),
		bssByStandard: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "discovered_bss_by_standard",
				Help:      "Number of BSSes seen by the last discovery scan per radio standard.",
			},
			[]string{"standard"},
		),
		bssByChannel: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "discovered_bss_by_channel",
				Help:      "Number of BSSes seen by the last discovery scan per primary channel.",
			},
			[]string{"channel"},
		),
		lastAttemptID: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_attempt_id",
			Help:      "Identifier of the most recent association attempt.",
		}),
		logger: logger,
	}

	for _, m := range []prometheus.Collector{
		c.connectStarted,
		c.connectFinished,
		c.scans,
		c.attempts,
		c.associations,
		c.rsnaStarted,
		c.rsnaEstablished,
		c.discoveredBSS,
		c.discoveredESS,
		c.bssByStandard,
		c.bssByChannel,
		c.lastAttemptID,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Record updates the metrics for e and logs it at debug level.
func (c *Collector) Record(e sme.InfoEvent) {
	switch e := e.(type) {
	case sme.ConnectStarted:
		c.connectStarted.Inc()
	case sme.ConnectFinished:
		c.connectFinished.WithLabelValues(e.Result.String(), failureLabel(e.Failure)).Inc()
		if e.Failure != nil {
			c.logger.Info("connect finished", zap.Stringer("result", e.Result), zap.Stringer("failure", e.Failure))
		} else {
			c.logger.Info("connect finished", zap.Stringer("result", e.Result))
		}
		return
	case sme.ScanStart:
		c.scans.Inc()
	case sme.ScanEnd:
	case sme.DiscoveryFinished:
		c.discoveredBSS.Set(float64(e.BSSCount))
		c.discoveredESS.Set(float64(e.ESSCount))
		c.bssByStandard.Reset()
		for std, n := range e.NumByStandard {
			c.bssByStandard.WithLabelValues(std.String()).Set(float64(n))
		}
		c.bssByChannel.Reset()
		for ch, n := range e.NumByChannel {
			c.bssByChannel.WithLabelValues(strconv.Itoa(int(ch))).Set(float64(n))
		}
	case sme.AssociationStarted:
		c.attempts.Inc()
		c.lastAttemptID.Set(float64(e.AttemptID))
	case sme.AssociationSuccess:
		c.associations.Inc()
	case sme.RsnaStarted:
		c.rsnaStarted.Inc()
	case sme.RsnaEstablished:
		c.rsnaEstablished.Inc()
	default:
		c.logger.Warn("unknown info event", zap.String("event", eventName(e)))
		return
	}
	c.logger.Debug("sme event", zap.String("event", eventName(e)), zap.Any("data", e))
}

// failureLabel names the kind of f. Result codes are dropped.
func failureLabel(f sme.ConnectFailure) string {
	switch f.(type) {
	case nil:
		return "none"
	case sme.NoMatchingBssFound:
		return "no_matching_bss"
	case sme.ScanFailure:
		return "scan"
	case sme.JoinFailure:
		return "join"
	case sme.AuthenticationFailure:
		return "authentication"
	case sme.AssociationFailure:
		return "association"
	case sme.RsnaTimeout:
		return "rsna_timeout"
	default:
		return "other"
	}
}

func eventName(e sme.InfoEvent) string { return fmt.Sprintf("%T", e) }
