package sme

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tomiamao/wlansme/eapol"
	"github.com/tomiamao/wlansme/internal/testutil"
	"github.com/tomiamao/wlansme/mlme"
	"github.com/tomiamao/wlansme/rsna"
	"github.com/tomiamao/wlansme/rsne"
	"github.com/tomiamao/wlansme/timer"
)

var clientAddr = mlme.MacAddr{0x7a, 0xe7, 0x76, 0xd9, 0xf2, 0x67}

// fakeTimer records scheduled events. Tests fire them by hand.
type fakeTimer struct {
	lastID    timer.EventID
	scheduled []timer.TimedEvent[TimeoutEvent]
	delays    []time.Duration
}

func (t *fakeTimer) Schedule(d time.Duration, e TimeoutEvent) timer.EventID {
	t.lastID++
	t.scheduled = append(t.scheduled, timer.TimedEvent[TimeoutEvent]{ID: t.lastID, Event: e})
	t.delays = append(t.delays, d)
	return t.lastID
}

func (t *fakeTimer) last() timer.TimedEvent[TimeoutEvent] {
	return t.scheduled[len(t.scheduled)-1]
}

// fakeSupplicant returns scripted updates for the next frame.
type fakeSupplicant struct {
	startErr error
	updates  []rsna.Update
	err      error

	starts int
	resets int
	frames int
}

func (s *fakeSupplicant) Start() error {
	s.starts++
	return s.startErr
}

func (s *fakeSupplicant) Reset() { s.resets++ }

func (s *fakeSupplicant) OnEapolFrame(*eapol.KeyFrame) ([]rsna.Update, error) {
	s.frames++
	u, err := s.updates, s.err
	s.updates, s.err = nil, nil
	return u, err
}

type harness struct {
	t     *testing.T
	sme   *ClientSME
	timer *fakeTimer
	sup   *fakeSupplicant
	cfgs  []rsna.Config
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	h := &harness{t: t, timer: &fakeTimer{}, sup: &fakeSupplicant{}}
	opts.NewSupplicant = func(cfg rsna.Config) (rsna.Supplicant, error) {
		h.cfgs = append(h.cfgs, cfg)
		return h.sup, nil
	}
	info := &DeviceInfo{Addr: clientAddr, Channels: []uint8{1, 6, 11}}
	h.sme = New(info, h.timer, opts, testutil.Logger(t))
	return h
}

func (h *harness) requests() []mlme.Request { return h.sme.DrainRequests() }
func (h *harness) info() []InfoEvent        { return h.sme.DrainInfoEvents() }

// expectScan drains the queued requests, which must be a single scan.
func (h *harness) expectScan() *mlme.ScanRequest {
	h.t.Helper()
	reqs := h.requests()
	require.Len(h.t, reqs, 1)
	req, ok := reqs[0].(*mlme.ScanRequest)
	require.True(h.t, ok, "expected scan request, got %T", reqs[0])
	return req
}

func (h *harness) endScan(txn uint64, bsses ...mlme.BSSDescription) {
	for _, b := range bsses {
		h.sme.OnDriverEvent(&mlme.ScanResult{TxnID: txn, BSS: b})
	}
	h.sme.OnDriverEvent(&mlme.ScanEnd{TxnID: txn, Code: mlme.ScanSuccess})
}

// connectTo requests a connection to b's network and completes the join
// scan with b.
func (h *harness) connectTo(b mlme.BSSDescription, password string) <-chan ConnectResult {
	h.t.Helper()
	c := h.sme.Connect(ConnectRequest{SSID: b.SSID, Password: []byte(password)})
	req := h.expectScan()
	h.endScan(req.TxnID, b)
	return c
}

// associate confirms join, authentication and association.
func (h *harness) associate(b mlme.BSSDescription) {
	h.sme.OnDriverEvent(&mlme.JoinConfirm{Code: mlme.JoinSuccess})
	h.sme.OnDriverEvent(&mlme.AuthenticateConfirm{
		PeerStaAddress: b.BSSID,
		AuthType:       mlme.AuthTypeOpenSystem,
		Code:           mlme.AuthenticateSuccess,
	})
	h.sme.OnDriverEvent(&mlme.AssociateConfirm{Code: mlme.AssociateSuccess, AssociationID: 1})
}

// establishing connects to the protected BSS b and leaves the SME waiting for
// the first key frame. Requests and info events are drained.
func (h *harness) establishing(b mlme.BSSDescription) <-chan ConnectResult {
	h.t.Helper()
	c := h.connectTo(b, "password")
	h.associate(b)
	h.requests()
	h.info()
	return c
}

func (h *harness) eapol(b mlme.BSSDescription, updates ...rsna.Update) {
	h.sup.updates = updates
	h.sme.OnDriverEvent(&mlme.EapolIndication{
		SrcAddr: b.BSSID,
		DstAddr: clientAddr,
		Data:    eapol.NewKeyFrame(16).Bytes(),
	})
}

func (h *harness) fire(ev timer.TimedEvent[TimeoutEvent]) {
	h.sme.OnTimeout(ev)
}

// requireResult asserts that c delivered want and was then closed.
func requireResult[T comparable](t *testing.T, c <-chan T, want T) {
	t.Helper()
	select {
	case got, ok := <-c:
		require.True(t, ok, "channel closed without a result")
		require.Equal(t, want, got)
	default:
		t.Fatal("result not delivered")
	}
	_, ok := <-c
	require.False(t, ok, "more than one result delivered")
}

func requirePending[T any](t *testing.T, c <-chan T) {
	t.Helper()
	select {
	case got := <-c:
		t.Fatalf("unexpected result %v", got)
	default:
	}
}

func requestTypes(reqs []mlme.Request) []string {
	types := make([]string, 0, len(reqs))
	for _, r := range reqs {
		types = append(types, fmt.Sprintf("%T", r))
	}
	return types
}

func ptkUpdate() rsna.Key {
	return rsna.Key{Kind: rsna.KeyPTK, Key: []byte{0x11, 0x22}, Cipher: rsne.CipherSuiteCCMP128}
}

func gtkUpdate() rsna.Key {
	return rsna.Key{Kind: rsna.KeyGTK, Key: []byte{0x33, 0x44}, KeyID: 2, Cipher: rsne.CipherSuiteCCMP128}
}
