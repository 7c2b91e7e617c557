package sme

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tomiamao/wlansme/bss"
	"github.com/tomiamao/wlansme/mlme"
	"github.com/tomiamao/wlansme/rsna"
	"github.com/tomiamao/wlansme/scan"
	"github.com/tomiamao/wlansme/timer"
)

// connectConfig is the join scan token of a connect request.
type connectConfig struct {
	responder *Responder[ConnectResult]
	password  []byte
	radio     RadioConfig
}

type discoveryToken = *Responder[DiscoveryResult]

// A ClientSME coordinates scans and the connection state machine of one
// client interface. It is not safe for concurrent use.
type ClientSME struct {
	state state
	scans *scan.Scheduler[discoveryToken, connectConfig]
	c     *stationContext

	logger *zap.Logger
}

// New returns an idle ClientSME for the device described by info. Timeouts
// are scheduled on t and must be handed back to OnTimeout.
func New(info *DeviceInfo, t Timer, opts Options, logger *zap.Logger) *ClientSME {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts = opts.withDefaults()

	return &ClientSME{
		state: idle{},
		scans: scan.NewScheduler[discoveryToken, connectConfig](scan.Config{
			Channels:       info.Channels,
			MinChannelTime: opts.MinChannelTime,
			MaxChannelTime: opts.MaxChannelTime,
		}, logger.Named("scan")),
		c: &stationContext{
			device: info,
			opts:   opts,
			timer:  t,
			logger: logger.Named("state"),
		},
		logger: logger,
	}
}

// Connect starts connecting to the network of req. The result is delivered
// exactly once on the returned channel. A connect request still waiting for
// its scan is canceled.
func (s *ClientSME) Connect(req ConnectRequest) <-chan ConnectResult {
	responder, c := NewResponder[ConnectResult]()
	s.c.emit(ConnectStarted{})

	canceled, scanReq := s.scans.EnqueueJoin(scan.JoinScan[connectConfig]{
		SSID: req.SSID,
		Token: connectConfig{
			responder: responder,
			password:  req.Password,
			radio:     req.Radio,
		},
		ScanType: req.ScanType,
	})
	if canceled != nil {
		s.c.reportConnectFinished(canceled.Token.responder, Canceled, nil)
	}
	s.sendScanRequest(scanReq)
	return c
}

// Disconnect cancels the connection attempt in progress and leaves the
// network.
func (s *ClientSME) Disconnect() {
	s.state = disconnect(s.state, s.c)
}

// Scan starts a discovery scan. The result is delivered exactly once on the
// returned channel.
func (s *ClientSME) Scan(scanType mlme.ScanType) <-chan DiscoveryResult {
	responder, c := NewResponder[DiscoveryResult]()
	req := s.scans.EnqueueDiscovery(scan.DiscoveryScan[discoveryToken]{
		Token:    responder,
		ScanType: scanType,
	})
	s.sendScanRequest(req)
	return c
}

// Status returns a snapshot of the connection. A network waiting for its
// join scan is reported as being connected to.
func (s *ClientSME) Status() Status {
	st := s.state.status()
	if st.ConnectingTo != "" {
		return st
	}
	if js, ok := s.scans.JoinScan(); ok {
		st.ConnectingTo = js.SSID
	}
	return st
}

// OnDriverEvent processes an event delivered by the driver.
func (s *ClientSME) OnDriverEvent(e mlme.Event) {
	switch e := e.(type) {
	case *mlme.ScanResult:
		s.scans.OnResult(e)
	case *mlme.ScanEnd:
		s.c.emit(ScanEnd{TxnID: e.TxnID})
		out, next := s.scans.OnEnd(e)
		s.sendScanRequest(next)
		if out.Join != nil {
			s.onJoinScanFinished(out.Join)
		}
		if out.Discovery != nil {
			s.onDiscoveryFinished(out.Discovery)
		}
	default:
		s.state = s.state.onDriverEvent(e, s.c)
	}
}

// OnTimeout processes a timeout event scheduled by the SME.
func (s *ClientSME) OnTimeout(ev timer.TimedEvent[TimeoutEvent]) {
	switch ev.Event.(type) {
	case EstablishingRsnaTimeout, KeyFrameExchangeTimeout:
		s.state = s.state.onTimeout(ev.ID, ev.Event, s.c)
	default:
		panic(fmt.Sprintf("sme: unknown timeout event %T", ev.Event))
	}
}

// DrainRequests returns the driver requests issued since the last call.
func (s *ClientSME) DrainRequests() []mlme.Request { return s.c.requests.Drain() }

// DrainInfoEvents returns the telemetry events emitted since the last call.
func (s *ClientSME) DrainInfoEvents() []InfoEvent { return s.c.info.Drain() }

func (s *ClientSME) sendScanRequest(req *mlme.ScanRequest) {
	if req == nil {
		return
	}
	s.c.emit(ScanStart{TxnID: req.TxnID})
	s.c.send(req)
}

func (s *ClientSME) onJoinScanFinished(jf *scan.JoinFinished[connectConfig]) {
	cfg := jf.Token
	if jf.Err != nil {
		s.logger.Error("cannot join network because scan failed", zap.String("ssid", jf.SSID), zap.Error(jf.Err))
		var failure ConnectFailure
		var serr *scan.ScanError
		if errors.As(jf.Err, &serr) {
			failure = ScanFailure{Code: serr.Code}
		}
		s.c.reportConnectFinished(cfg.responder, Failed, failure)
		return
	}

	if len(jf.BSSList) == 0 {
		s.logger.Error("no matching BSS found", zap.String("ssid", jf.SSID))
		s.c.reportConnectFinished(cfg.responder, Failed, NoMatchingBssFound{})
		return
	}

	var candidates []mlme.BSSDescription
	for i := range jf.BSSList {
		if bss.CredentialMatches(&jf.BSSList[i], cfg.password) {
			candidates = append(candidates, jf.BSSList[i])
		}
	}
	best, ok := s.c.opts.Selector.Best(candidates)
	if !ok {
		s.logger.Error("credential does not match the protection of any BSS",
			zap.String("ssid", jf.SSID),
			zap.Int("bss_count", len(jf.BSSList)),
			zap.Bool("password", len(cfg.password) > 0),
		)
		s.c.reportConnectFinished(cfg.responder, Failed, nil)
		return
	}

	r, err := s.newRSNA(best, cfg.password)
	if err != nil {
		s.logger.Error("cannot join BSS", zap.Stringer("bssid", best.BSSID), zap.Error(err))
		s.c.reportConnectFinished(cfg.responder, Failed, nil)
		return
	}

	s.state = connect(s.state, &connectCommand{
		bss:       best.Clone(),
		responder: cfg.responder,
		rsna:      r,
		radio:     cfg.radio,
	}, s.c)
}

// newRSNA builds the security association for b. It returns nil for an
// unprotected BSS.
func (s *ClientSME) newRSNA(b *mlme.BSSDescription, password []byte) (*rsna.RSNA, error) {
	if !b.Protected() {
		return nil, nil
	}
	d, err := rsna.ParseDescriptor(b.RSNE)
	if err != nil {
		return nil, fmt.Errorf("invalid RSNE: %w", err)
	}
	sup, err := s.c.opts.NewSupplicant(rsna.Config{
		Descriptor: d,
		SSID:       b.SSID,
		Credential: password,
		StaAddr:    s.c.device.Addr,
		PeerAddr:   b.BSSID,
		BeaconRSNE: b.RSNE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create supplicant: %w", err)
	}
	return rsna.New(d, sup, s.logger.Named("rsna")), nil
}

func (s *ClientSME) onDiscoveryFinished(df *scan.DiscoveryFinished[discoveryToken]) {
	var res DiscoveryResult
	if df.Err != nil {
		s.logger.Warn("discovery scan failed", zap.Error(df.Err))
		res.Err = df.Err
	} else {
		ess := bss.GroupNetworks(df.BSSList, s.c.opts.Selector)
		s.c.emit(DiscoveryFinished{
			BSSCount:      len(df.BSSList),
			ESSCount:      len(ess),
			NumByStandard: bss.StandardMap(df.BSSList),
			NumByChannel:  bss.ChannelMap(df.BSSList),
		})
		res.ESS = ess
	}

	for _, r := range df.Tokens {
		r.Respond(res)
	}
}
