package sme

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tomiamao/wlansme/bss"
	"github.com/tomiamao/wlansme/eapol"
	"github.com/tomiamao/wlansme/mlme"
	"github.com/tomiamao/wlansme/rsna"
	"github.com/tomiamao/wlansme/timer"
)

// stationContext is shared by all states. It owns the outbound queues and
// the attempt counter.
type stationContext struct {
	device *DeviceInfo
	opts   Options
	timer  Timer
	logger *zap.Logger

	requests mlme.Queue[mlme.Request]
	info     mlme.Queue[InfoEvent]

	attID AttemptID
}

func (c *stationContext) send(r mlme.Request) { c.requests.Send(r) }
func (c *stationContext) emit(e InfoEvent)    { c.info.Send(e) }

// reportConnectFinished resolves responder, if any, and always emits
// ConnectFinished.
func (c *stationContext) reportConnectFinished(responder *Responder[ConnectResult], result ConnectResult, failure ConnectFailure) {
	if responder != nil {
		responder.Respond(result)
	}
	c.emit(ConnectFinished{Result: result, Failure: failure})
}

func (c *stationContext) sendDeauthenticate(b *mlme.BSSDescription) {
	c.send(&mlme.DeauthenticateRequest{
		PeerStaAddress: b.BSSID,
		ReasonCode:     mlme.ReasonStaLeaving,
	})
}

// sendEapolFrame transmits f and schedules the timeout waiting for the
// authenticator's answer.
func (c *stationContext) sendEapolFrame(bssid, sta mlme.MacAddr, f *eapol.KeyFrame, attempt int) timer.EventID {
	id := c.timer.Schedule(c.opts.KeyFrameTimeout, KeyFrameExchangeTimeout{
		AttemptID: c.attID,
		BSSID:     bssid,
		StaAddr:   sta,
		Frame:     f.Clone(),
		Attempt:   attempt,
	})
	c.send(&mlme.EapolRequest{
		SrcAddr: sta,
		DstAddr: bssid,
		Data:    f.Bytes(),
	})
	return id
}

func (c *stationContext) installKey(bssid mlme.MacAddr, k rsna.Key) {
	d := mlme.SetKeyDescriptor{
		Key:             k.Key,
		CipherSuiteOUI:  k.Cipher.OUI(),
		CipherSuiteType: k.Cipher.Type(),
	}
	switch k.Kind {
	case rsna.KeyPTK:
		d.KeyType = mlme.KeyTypePairwise
		d.Address = bssid
	case rsna.KeyGTK:
		d.KeyType = mlme.KeyTypeGroup
		d.KeyID = uint16(k.KeyID)
		d.Address = mlme.BroadcastAddr
	default:
		c.logger.Error("derived unexpected key", zap.Stringer("kind", k.Kind))
		return
	}
	c.send(&mlme.SetKeysRequest{Keys: []mlme.SetKeyDescriptor{d}})
}

// eapolEffects applies the updates of one EAPOL indication. Frames are sent
// back to the indication's source.
type eapolEffects struct {
	c     *stationContext
	bssid mlme.MacAddr
	sta   mlme.MacAddr

	// Timeout of the last transmitted frame, if any.
	respTimeout *timer.EventID
}

func (fx *eapolEffects) SendEapol(f *eapol.KeyFrame) {
	id := fx.c.sendEapolFrame(fx.bssid, fx.sta, f, 1)
	fx.respTimeout = &id
}

func (fx *eapolEffects) InstallKey(k rsna.Key) { fx.c.installKey(fx.bssid, k) }

func (c *stationContext) processEapol(r *rsna.RSNA, ind *mlme.EapolIndication) (rsna.Result, *timer.EventID) {
	fx := &eapolEffects{c: c, bssid: ind.SrcAddr, sta: ind.DstAddr}
	return r.ProcessFrame(ind.Data, fx), fx.respTimeout
}

// A connectCommand carries everything needed to connect to a selected BSS.
// rsna is nil for unprotected networks.
type connectCommand struct {
	bss       *mlme.BSSDescription
	responder *Responder[ConnectResult]
	rsna      *rsna.RSNA
	radio     RadioConfig
}

// A state of the connection state machine. Transitions return the next
// state; the receiver must not be used afterwards.
type state interface {
	onDriverEvent(e mlme.Event, c *stationContext) state
	onTimeout(id timer.EventID, e TimeoutEvent, c *stationContext) state

	// disconnectInternal cancels the attempt in progress and tears down
	// the link if the driver holds one.
	disconnectInternal(c *stationContext)
	status() Status
}

type (
	idle struct{}

	joining struct {
		cmd *connectCommand
	}

	authenticating struct {
		cmd *connectCommand
	}

	associating struct {
		cmd *connectCommand
	}

	associated struct {
		bss      *mlme.BSSDescription
		lastRSSI *int8
		link     linkState
		radio    RadioConfig
	}
)

// linkState is either establishingRsna or linkUp.
type linkState interface {
	isLinkState()
}

type establishingRsna struct {
	responder *Responder[ConnectResult]
	rsna      *rsna.RSNA

	// Bounds the whole exchange.
	rsnaTimeout *timer.EventID
	// Bounds the wait for the next key frame. Nil before the first frame
	// is sent and after the last one.
	respTimeout *timer.EventID
}

type linkUp struct {
	rsna *rsna.RSNA
}

func (establishingRsna) isLinkState() {}
func (linkUp) isLinkState()           {}

// connect cancels whatever s is doing and starts joining cmd's BSS.
func connect(s state, cmd *connectCommand, c *stationContext) state {
	s.disconnectInternal(c)

	selected := cmd.bss.Clone()
	if cmd.radio.OverrideCBW {
		selected.Channel.CBW = cmd.radio.CBW
	}
	c.send(&mlme.JoinRequest{
		SelectedBSS:        *selected,
		JoinFailureTimeout: joinFailureTimeout,
	})

	c.attID++
	c.emit(AssociationStarted{AttemptID: c.attID})
	return joining{cmd: cmd}
}

func disconnect(s state, c *stationContext) state {
	s.disconnectInternal(c)
	return idle{}
}

func toAssociating(cmd *connectCommand, c *stationContext) state {
	var ie []byte
	if cmd.rsna != nil {
		ie = cmd.rsna.Descriptor.Element().Bytes()
	}
	c.send(&mlme.AssociateRequest{
		PeerStaAddress: cmd.bss.BSSID,
		RSNE:           ie,
	})
	return associating{cmd: cmd}
}

func triggered(id *timer.EventID, received timer.EventID) bool {
	return id != nil && *id == received
}

func deauthReasonToResult(r mlme.ReasonCode) ConnectResult {
	switch r {
	case mlme.ReasonInvalidAuthentication, mlme.ReasonIeee8021XAuthFailed:
		return BadCredentials
	default:
		return Failed
	}
}

func eventName(e mlme.Event) string { return fmt.Sprintf("%T", e) }

// Idle

func (s idle) onDriverEvent(e mlme.Event, c *stationContext) state {
	c.logger.Warn("unexpected driver event while idle", zap.String("event", eventName(e)))
	return s
}

func (s idle) onTimeout(timer.EventID, TimeoutEvent, *stationContext) state { return s }
func (idle) disconnectInternal(*stationContext)                             {}
func (idle) status() Status                                                 { return Status{} }

// Joining

func (s joining) onDriverEvent(e mlme.Event, c *stationContext) state {
	conf, ok := e.(*mlme.JoinConfirm)
	if !ok {
		return s
	}
	if conf.Code != mlme.JoinSuccess {
		c.logger.Error("join request failed", zap.Stringer("code", conf.Code))
		c.reportConnectFinished(s.cmd.responder, Failed, JoinFailure{Code: conf.Code})
		return idle{}
	}

	c.send(&mlme.AuthenticateRequest{
		PeerStaAddress:     s.cmd.bss.BSSID,
		AuthType:           mlme.AuthTypeOpenSystem,
		AuthFailureTimeout: authFailureTimeout,
	})
	return authenticating{cmd: s.cmd}
}

func (s joining) onTimeout(timer.EventID, TimeoutEvent, *stationContext) state { return s }

func (s joining) disconnectInternal(c *stationContext) {
	c.reportConnectFinished(s.cmd.responder, Canceled, nil)
}

func (s joining) status() Status { return Status{ConnectingTo: s.cmd.bss.SSID} }

// Authenticating

func (s authenticating) onDriverEvent(e mlme.Event, c *stationContext) state {
	conf, ok := e.(*mlme.AuthenticateConfirm)
	if !ok {
		return s
	}
	if conf.Code != mlme.AuthenticateSuccess {
		c.logger.Error("authenticate request failed", zap.Stringer("code", conf.Code))
		c.reportConnectFinished(s.cmd.responder, Failed, AuthenticationFailure{Code: conf.Code})
		return idle{}
	}
	return toAssociating(s.cmd, c)
}

func (s authenticating) onTimeout(timer.EventID, TimeoutEvent, *stationContext) state { return s }

func (s authenticating) disconnectInternal(c *stationContext) {
	c.reportConnectFinished(s.cmd.responder, Canceled, nil)
}

func (s authenticating) status() Status { return Status{ConnectingTo: s.cmd.bss.SSID} }

// Associating

func (s associating) onDriverEvent(e mlme.Event, c *stationContext) state {
	conf, ok := e.(*mlme.AssociateConfirm)
	if !ok {
		return s
	}
	cmd := s.cmd
	if conf.Code != mlme.AssociateSuccess {
		c.logger.Error("associate request failed", zap.Stringer("code", conf.Code))
		c.reportConnectFinished(cmd.responder, Failed, AssociationFailure{Code: conf.Code})
		return idle{}
	}

	c.emit(AssociationSuccess{AttemptID: c.attID})
	if cmd.rsna == nil {
		c.reportConnectFinished(cmd.responder, Success, nil)
		return associated{bss: cmd.bss, link: linkUp{}, radio: cmd.radio}
	}

	if err := cmd.rsna.Start(); err != nil {
		c.logger.Error("deauthenticating; could not start supplicant", zap.Error(err))
		c.sendDeauthenticate(cmd.bss)
		c.reportConnectFinished(cmd.responder, Failed,
			AssociationFailure{Code: mlme.AssociateRefusedReasonUnspecified})
		return idle{}
	}
	c.emit(RsnaStarted{AttemptID: c.attID})

	id := c.timer.Schedule(c.opts.RsnaTimeout, EstablishingRsnaTimeout{AttemptID: c.attID})
	return associated{
		bss: cmd.bss,
		link: establishingRsna{
			responder:   cmd.responder,
			rsna:        cmd.rsna,
			rsnaTimeout: &id,
		},
		radio: cmd.radio,
	}
}

func (s associating) onTimeout(timer.EventID, TimeoutEvent, *stationContext) state { return s }

func (s associating) disconnectInternal(c *stationContext) {
	c.reportConnectFinished(s.cmd.responder, Canceled, nil)
	c.sendDeauthenticate(s.cmd.bss)
}

func (s associating) status() Status { return Status{ConnectingTo: s.cmd.bss.SSID} }

// Associated

func (s associated) onDriverEvent(e mlme.Event, c *stationContext) state {
	switch e := e.(type) {
	case *mlme.DisassociateIndication:
		var responder *Responder[ConnectResult]
		var r *rsna.RSNA
		switch l := s.link.(type) {
		case establishingRsna:
			responder, r = l.responder, l.rsna
		case linkUp:
			r = l.rsna
		}
		// The security association survives the disassociation but its
		// handshake starts over.
		if r != nil {
			r.Reset()
		}
		c.attID++
		return toAssociating(&connectCommand{
			bss:       s.bss,
			responder: responder,
			rsna:      r,
			radio:     s.radio,
		}, c)

	case *mlme.DeauthenticateIndication:
		if l, ok := s.link.(establishingRsna); ok {
			c.reportConnectFinished(l.responder, deauthReasonToResult(e.ReasonCode), nil)
		}
		return idle{}

	case *mlme.SignalReport:
		rssi := e.RSSIDBm
		s.lastRSSI = &rssi
		return s

	case *mlme.EapolIndication:
		if !s.bss.Protected() {
			return s
		}
		return s.onEapol(e, c)
	}
	return s
}

func (s associated) onEapol(ind *mlme.EapolIndication, c *stationContext) state {
	switch l := s.link.(type) {
	case establishingRsna:
		result, newRespTimeout := c.processEapol(l.rsna, ind)
		switch result {
		case rsna.Established:
			c.send(&mlme.SetControlledPortRequest{
				PeerStaAddress: s.bss.BSSID,
				State:          mlme.ControlledPortOpen,
			})
			c.emit(RsnaEstablished{AttemptID: c.attID})
			c.reportConnectFinished(l.responder, Success, nil)
			s.link = linkUp{rsna: l.rsna}
			return s
		case rsna.BadCredentials:
			c.reportConnectFinished(l.responder, BadCredentials, nil)
			c.sendDeauthenticate(s.bss)
			return idle{}
		case rsna.Progressed:
			l.respTimeout = newRespTimeout
			s.link = l
			return s
		default:
			return s
		}

	case linkUp:
		if l.rsna == nil {
			panic("sme: link to protected BSS carries no RSNA")
		}
		// Rekeying is not supported.
		if result, _ := c.processEapol(l.rsna, ind); result != rsna.Unchanged {
			c.logger.Error("unexpected RSNA result while link is up", zap.Stringer("result", result))
		}
		return s
	}
	return s
}

func (s associated) onTimeout(id timer.EventID, e TimeoutEvent, c *stationContext) state {
	l, ok := s.link.(establishingRsna)
	if !ok {
		return s
	}

	switch e := e.(type) {
	case EstablishingRsnaTimeout:
		if !triggered(l.rsnaTimeout, id) || e.AttemptID != c.attID {
			return s
		}
		c.logger.Error("timeout establishing RSNA; deauthenticating", zap.Stringer("bssid", s.bss.BSSID))
		c.reportConnectFinished(l.responder, Failed, RsnaTimeout{})
		c.sendDeauthenticate(s.bss)
		return idle{}

	case KeyFrameExchangeTimeout:
		if !triggered(l.respTimeout, id) || e.AttemptID != c.attID {
			return s
		}
		if e.Attempt < c.opts.KeyFrameMaxAttempts {
			c.logger.Warn("timeout waiting for key frame; retrying", zap.Int("attempt", e.Attempt))
			next := c.sendEapolFrame(e.BSSID, e.StaAddr, e.Frame, e.Attempt+1)
			l.respTimeout = &next
			s.link = l
			return s
		}
		c.logger.Error("timeout waiting for key frame for last attempt; deauthenticating",
			zap.Int("attempt", e.Attempt),
		)
		c.reportConnectFinished(l.responder, Failed, RsnaTimeout{})
		c.sendDeauthenticate(s.bss)
		return idle{}
	}
	return s
}

func (s associated) disconnectInternal(c *stationContext) {
	if l, ok := s.link.(establishingRsna); ok {
		c.reportConnectFinished(l.responder, Canceled, nil)
	}
	c.sendDeauthenticate(s.bss)
}

func (s associated) status() Status {
	if _, ok := s.link.(establishingRsna); ok {
		return Status{ConnectingTo: s.bss.SSID}
	}
	info := bss.Info(s.bss)
	if s.lastRSSI != nil {
		info.RxDBm = *s.lastRSSI
	}
	return Status{ConnectedTo: &info}
}
