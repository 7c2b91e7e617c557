// Package scan multiplexes join and discovery scan intents onto driver scan
// transactions. At most one transaction is in flight at a time.
package scan

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tomiamao/wlansme/mlme"
)

// Default dwell times in time units.
const (
	DefaultMinChannelTime = 100
	DefaultMaxChannelTime = 300
)

// A JoinScan looks for the BSSes of one network in order to connect to it.
type JoinScan[J any] struct {
	SSID     string
	Token    J
	ScanType mlme.ScanType
}

// A DiscoveryScan lists all nearby networks.
type DiscoveryScan[D any] struct {
	Token    D
	ScanType mlme.ScanType
}

// A ScanError reports a join scan that ended with a non-success code.
type ScanError struct {
	Code mlme.ScanResultCode
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan failed: %s", e.Code)
}

// DiscoveryError is the failure reported to discovery scan requesters.
type DiscoveryError uint8

// Possible DiscoveryError values.
const (
	DiscoveryNotSupported DiscoveryError = iota + 1
	DiscoveryInternalError
)

func (e DiscoveryError) Error() string {
	switch e {
	case DiscoveryNotSupported:
		return "discovery scan not supported"
	case DiscoveryInternalError:
		return "discovery scan internal error"
	default:
		return fmt.Sprintf("DiscoveryError(%d)", uint8(e))
	}
}

// JoinFinished carries the result of a join scan. BSSList only holds BSSes
// of the requested network. Err is a *ScanError when the scan failed.
type JoinFinished[J any] struct {
	Token   J
	SSID    string
	BSSList []mlme.BSSDescription
	Err     error
}

// DiscoveryFinished carries the result shared by all discovery scans served
// by one transaction. Err is a DiscoveryError when the scan failed.
type DiscoveryFinished[D any] struct {
	Tokens  []D
	BSSList []mlme.BSSDescription
	Err     error
}

// An Outcome is what closing a transaction produced. Both fields are nil
// when the scan end did not match the transaction in flight.
type Outcome[D, J any] struct {
	Join      *JoinFinished[J]
	Discovery *DiscoveryFinished[D]
}

// Config holds the parameters of driver scan requests.
type Config struct {
	// Channels scanned by every request.
	Channels []uint8

	// Timings in time units. Zero selects the default.
	MinChannelTime uint32
	MaxChannelTime uint32
	ProbeDelay     uint32
}

type txn[D, J any] struct {
	id        uint64
	join      *JoinScan[J]
	discovery []DiscoveryScan[D]
	results   []mlme.BSSDescription
}

// A Scheduler owns the pending scan intents and the transaction in flight.
// It is not safe for concurrent use.
type Scheduler[D, J any] struct {
	cfg    Config
	logger *zap.Logger

	current          *txn[D, J]
	pendingJoin      *JoinScan[J]
	pendingDiscovery []DiscoveryScan[D]
	lastTxnID        uint64
}

// NewScheduler returns a Scheduler issuing requests built from cfg.
func NewScheduler[D, J any](cfg Config, logger *zap.Logger) *Scheduler[D, J] {
	if cfg.MinChannelTime == 0 {
		cfg.MinChannelTime = DefaultMinChannelTime
	}
	if cfg.MaxChannelTime == 0 {
		cfg.MaxChannelTime = DefaultMaxChannelTime
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler[D, J]{cfg: cfg, logger: logger}
}

// EnqueueJoin queues s, replacing and returning a join scan that was queued
// but not yet dispatched. A driver request is returned if no transaction was
// in flight.
func (sc *Scheduler[D, J]) EnqueueJoin(s JoinScan[J]) (*JoinScan[J], *mlme.ScanRequest) {
	superseded := sc.pendingJoin
	sc.pendingJoin = &s
	return superseded, sc.startNext()
}

// EnqueueDiscovery queues s. A driver request is returned if no transaction
// was in flight.
func (sc *Scheduler[D, J]) EnqueueDiscovery(s DiscoveryScan[D]) *mlme.ScanRequest {
	sc.pendingDiscovery = append(sc.pendingDiscovery, s)
	return sc.startNext()
}

// OnResult buffers a scan result under the transaction in flight.
func (sc *Scheduler[D, J]) OnResult(r *mlme.ScanResult) {
	if sc.current == nil || sc.current.id != r.TxnID {
		sc.logger.Warn("dropping scan result for unknown transaction",
			zap.Uint64("txn_id", r.TxnID),
			zap.Stringer("bssid", r.BSS.BSSID),
		)
		return
	}
	sc.current.results = append(sc.current.results, r.BSS)
}

// OnEnd closes the transaction in flight and returns the outcome for the
// intents it served, along with the next driver request if intents remain.
func (sc *Scheduler[D, J]) OnEnd(end *mlme.ScanEnd) (Outcome[D, J], *mlme.ScanRequest) {
	if sc.current == nil || sc.current.id != end.TxnID {
		sc.logger.Warn("dropping scan end for unknown transaction", zap.Uint64("txn_id", end.TxnID))
		return Outcome[D, J]{}, nil
	}

	t := sc.current
	sc.current = nil

	var out Outcome[D, J]
	if t.join != nil {
		jf := &JoinFinished[J]{Token: t.join.Token, SSID: t.join.SSID}
		if end.Code == mlme.ScanSuccess {
			for _, b := range t.results {
				if b.SSID == t.join.SSID {
					jf.BSSList = append(jf.BSSList, b)
				}
			}
		} else {
			jf.Err = &ScanError{Code: end.Code}
		}
		out.Join = jf
	}
	if len(t.discovery) > 0 {
		df := &DiscoveryFinished[D]{Tokens: make([]D, 0, len(t.discovery))}
		for _, d := range t.discovery {
			df.Tokens = append(df.Tokens, d.Token)
		}
		switch end.Code {
		case mlme.ScanSuccess:
			df.BSSList = t.results
		case mlme.ScanNotSupported:
			df.Err = DiscoveryNotSupported
		default:
			df.Err = DiscoveryInternalError
		}
		out.Discovery = df
	}

	return out, sc.startNext()
}

// JoinScan returns the join scan that is queued or in flight, preferring
// the queued one since it is the most recent request.
func (sc *Scheduler[D, J]) JoinScan() (*JoinScan[J], bool) {
	if sc.pendingJoin != nil {
		return sc.pendingJoin, true
	}
	if sc.current != nil && sc.current.join != nil {
		return sc.current.join, true
	}
	return nil, false
}

// startNext dispatches queued intents if no transaction is in flight. A
// queued join takes priority; discovery intents with the same scan type
// ride along as a wildcard scan.
func (sc *Scheduler[D, J]) startNext() *mlme.ScanRequest {
	if sc.current != nil {
		return nil
	}

	var t txn[D, J]
	ssid := ""
	var scanType mlme.ScanType
	switch {
	case sc.pendingJoin != nil:
		t.join = sc.pendingJoin
		sc.pendingJoin = nil
		scanType = t.join.ScanType
		t.discovery = sc.takeDiscovery(scanType)
		if len(t.discovery) == 0 {
			ssid = t.join.SSID
		}
	case len(sc.pendingDiscovery) > 0:
		scanType = sc.pendingDiscovery[0].ScanType
		t.discovery = sc.takeDiscovery(scanType)
	default:
		return nil
	}

	sc.lastTxnID++
	t.id = sc.lastTxnID
	sc.current = &t

	return &mlme.ScanRequest{
		TxnID:          t.id,
		BSSID:          mlme.BroadcastAddr,
		SSID:           ssid,
		ScanType:       scanType,
		ChannelList:    append([]uint8(nil), sc.cfg.Channels...),
		ProbeDelay:     sc.cfg.ProbeDelay,
		MinChannelTime: sc.cfg.MinChannelTime,
		MaxChannelTime: sc.cfg.MaxChannelTime,
	}
}

// takeDiscovery removes and returns the pending discovery intents of the
// given scan type, keeping the others queued in order.
func (sc *Scheduler[D, J]) takeDiscovery(scanType mlme.ScanType) []DiscoveryScan[D] {
	var taken, kept []DiscoveryScan[D]
	for _, d := range sc.pendingDiscovery {
		if d.ScanType == scanType {
			taken = append(taken, d)
		} else {
			kept = append(kept, d)
		}
	}
	sc.pendingDiscovery = kept
	return taken
}
