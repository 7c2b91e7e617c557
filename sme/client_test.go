package sme

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomiamao/wlansme/bss"
	"github.com/tomiamao/wlansme/internal/testutil"
	"github.com/tomiamao/wlansme/mlme"
	"github.com/tomiamao/wlansme/scan"
	"github.com/tomiamao/wlansme/timer"
)

func TestStatusConnectingTo(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Equal(t, Status{}, h.sme.Status())

	// The status comes from the scheduler until the join scan completes.
	foo := h.sme.Connect(ConnectRequest{SSID: "foo"})
	assert.Equal(t, Status{}, h.sme.state.status())
	assert.Equal(t, Status{ConnectingTo: "foo"}, h.sme.Status())

	req := h.expectScan()
	h.endScan(req.TxnID, testutil.UnprotectedBSS("foo"))
	assert.Equal(t, Status{ConnectingTo: "foo"}, h.sme.state.status())
	assert.Equal(t, Status{ConnectingTo: "foo"}, h.sme.Status())

	// A join scan for "bar" does not hide the attempt in progress.
	bar := h.sme.Connect(ConnectRequest{SSID: "bar"})
	assert.Equal(t, Status{ConnectingTo: "foo"}, h.sme.Status())

	h.sme.OnDriverEvent(&mlme.JoinConfirm{Code: mlme.JoinFailureTimeout})
	requireResult(t, foo, Failed)
	assert.Equal(t, Status{ConnectingTo: "bar"}, h.sme.Status())
	requirePending(t, bar)
}

func TestConnectUnprotected(t *testing.T) {
	h := newHarness(t, Options{})
	b := testutil.UnprotectedBSS("foo")

	c := h.sme.Connect(ConnectRequest{SSID: "foo"})
	want := []mlme.Request{&mlme.ScanRequest{
		TxnID:          1,
		BSSID:          mlme.BroadcastAddr,
		SSID:           "foo",
		ScanType:       mlme.ScanTypeActive,
		ChannelList:    []uint8{1, 6, 11},
		MinChannelTime: scan.DefaultMinChannelTime,
		MaxChannelTime: scan.DefaultMaxChannelTime,
	}}
	if diff := cmp.Diff(want, h.requests()); diff != "" {
		t.Fatalf("unexpected scan request (-want +got):\n%s", diff)
	}

	h.endScan(1, b)
	want = []mlme.Request{&mlme.JoinRequest{SelectedBSS: b, JoinFailureTimeout: 20}}
	if diff := cmp.Diff(want, h.requests()); diff != "" {
		t.Fatalf("unexpected join request (-want +got):\n%s", diff)
	}

	h.sme.OnDriverEvent(&mlme.JoinConfirm{Code: mlme.JoinSuccess})
	want = []mlme.Request{&mlme.AuthenticateRequest{
		PeerStaAddress:     b.BSSID,
		AuthType:           mlme.AuthTypeOpenSystem,
		AuthFailureTimeout: 20,
	}}
	if diff := cmp.Diff(want, h.requests()); diff != "" {
		t.Fatalf("unexpected authenticate request (-want +got):\n%s", diff)
	}

	h.sme.OnDriverEvent(&mlme.AuthenticateConfirm{PeerStaAddress: b.BSSID, Code: mlme.AuthenticateSuccess})
	want = []mlme.Request{&mlme.AssociateRequest{PeerStaAddress: b.BSSID}}
	if diff := cmp.Diff(want, h.requests()); diff != "" {
		t.Fatalf("unexpected associate request (-want +got):\n%s", diff)
	}

	h.sme.OnDriverEvent(&mlme.AssociateConfirm{Code: mlme.AssociateSuccess, AssociationID: 1})
	requireResult(t, c, Success)
	assert.Empty(t, h.requests(), "no EAPOL traffic expected")
	assert.Empty(t, h.timer.scheduled)

	info := bss.Info(&b)
	assert.Equal(t, Status{ConnectedTo: &info}, h.sme.Status())

	wantInfo := []InfoEvent{
		ConnectStarted{},
		ScanStart{TxnID: 1},
		ScanEnd{TxnID: 1},
		AssociationStarted{AttemptID: 1},
		AssociationSuccess{AttemptID: 1},
		ConnectFinished{Result: Success},
	}
	if diff := cmp.Diff(wantInfo, h.info()); diff != "" {
		t.Fatalf("unexpected info events (-want +got):\n%s", diff)
	}
}

func TestConnectRadioConfig(t *testing.T) {
	h := newHarness(t, Options{})
	b := testutil.UnprotectedBSS("foo")

	h.sme.Connect(ConnectRequest{
		SSID:     "foo",
		ScanType: mlme.ScanTypePassive,
		Radio:    RadioConfig{OverrideCBW: true, CBW: mlme.CBW40},
	})
	req := h.expectScan()
	assert.Equal(t, mlme.ScanTypePassive, req.ScanType)

	h.endScan(req.TxnID, b)
	reqs := h.requests()
	require.Len(t, reqs, 1)
	join, ok := reqs[0].(*mlme.JoinRequest)
	require.True(t, ok)
	assert.Equal(t, mlme.CBW40, join.SelectedBSS.Channel.CBW)
}

func TestConnectCredentialMismatch(t *testing.T) {
	tests := []struct {
		name     string
		bss      mlme.BSSDescription
		password string
	}{
		{
			name:     "password for open network",
			bss:      testutil.UnprotectedBSS("foo"),
			password: "somepass",
		},
		{
			name: "no password for protected network",
			bss:  testutil.ProtectedBSS("foo"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, Options{})
			c := h.connectTo(tt.bss, tt.password)

			requireResult(t, c, Failed)
			assert.Empty(t, h.requests(), "no driver request expected")
			assert.Equal(t, Status{}, h.sme.Status())
			assert.Empty(t, h.cfgs, "no supplicant expected")

			events := h.info()
			require.NotEmpty(t, events)
			assert.Equal(t, ConnectFinished{Result: Failed}, events[len(events)-1])
		})
	}
}

func TestConnectUnsupportedSecurity(t *testing.T) {
	b := testutil.ProtectedBSS("foo")
	b.RSNE[19] = 0x01 // 802.1X AKM

	// The bundled supplicant only supports PSK.
	sme := New(&DeviceInfo{Addr: clientAddr}, &fakeTimer{}, Options{}, testutil.Logger(t))
	c := sme.Connect(ConnectRequest{SSID: "foo", Password: []byte("password")})
	sme.OnDriverEvent(&mlme.ScanResult{TxnID: 1, BSS: b})
	sme.OnDriverEvent(&mlme.ScanEnd{TxnID: 1, Code: mlme.ScanSuccess})

	requireResult(t, c, Failed)
	assert.Equal(t, []string{"*mlme.ScanRequest"}, requestTypes(sme.DrainRequests()))
	assert.Equal(t, Status{}, sme.Status())
}

func TestConnectNoMatchingBss(t *testing.T) {
	h := newHarness(t, Options{})

	c := h.sme.Connect(ConnectRequest{SSID: "foo"})
	req := h.expectScan()
	h.endScan(req.TxnID, testutil.UnprotectedBSS("bar"))

	requireResult(t, c, Failed)
	assert.Empty(t, h.requests())

	events := h.info()
	assert.Equal(t, ConnectFinished{Result: Failed, Failure: NoMatchingBssFound{}}, events[len(events)-1])
}

func TestConnectScanFailure(t *testing.T) {
	h := newHarness(t, Options{})

	c := h.sme.Connect(ConnectRequest{SSID: "foo"})
	req := h.expectScan()
	h.sme.OnDriverEvent(&mlme.ScanEnd{TxnID: req.TxnID, Code: mlme.ScanInternalError})

	requireResult(t, c, Failed)
	events := h.info()
	want := ConnectFinished{Result: Failed, Failure: ScanFailure{Code: mlme.ScanInternalError}}
	assert.Equal(t, want, events[len(events)-1])
}

func TestConnectSupersedesQueuedJoin(t *testing.T) {
	h := newHarness(t, Options{})

	// Keep a scan in flight so join scans stay queued.
	d := h.sme.Scan(mlme.ScanTypeActive)
	first := h.expectScan()

	foo := h.sme.Connect(ConnectRequest{SSID: "foo"})
	assert.Empty(t, h.requests())
	requirePending(t, foo)

	bar := h.sme.Connect(ConnectRequest{SSID: "bar"})
	requireResult(t, foo, Canceled)
	requirePending(t, bar)
	assert.Equal(t, Status{ConnectingTo: "bar"}, h.sme.Status())

	wantInfo := []InfoEvent{
		ScanStart{TxnID: 1},
		ConnectStarted{},
		ConnectStarted{},
		ConnectFinished{Result: Canceled},
	}
	if diff := cmp.Diff(wantInfo, h.info()); diff != "" {
		t.Fatalf("unexpected info events (-want +got):\n%s", diff)
	}

	h.endScan(first.TxnID)
	res := <-d
	require.NoError(t, res.Err)

	next := h.expectScan()
	assert.Equal(t, "bar", next.SSID)
	assert.Equal(t, uint64(2), next.TxnID)
}

func TestConnectWhileJoining(t *testing.T) {
	h := newHarness(t, Options{})
	foo := h.connectTo(testutil.UnprotectedBSS("foo"), "")
	h.requests()

	b := testutil.UnprotectedBSS("bar")
	b.BSSID = mlme.MacAddr{8, 8, 8, 8, 8, 8}
	bar := h.connectTo(b, "")

	requireResult(t, foo, Canceled)
	requirePending(t, bar)
	assert.Equal(t, []string{"*mlme.JoinRequest"}, requestTypes(h.requests()))
	assert.Equal(t, Status{ConnectingTo: "bar"}, h.sme.Status())

	h.associate(b)
	requireResult(t, bar, Success)
}

func TestConnectInfoEvents(t *testing.T) {
	h := newHarness(t, Options{})
	h.connectTo(testutil.UnprotectedBSS("foo"), "")

	want := []InfoEvent{
		ConnectStarted{},
		ScanStart{TxnID: 1},
		ScanEnd{TxnID: 1},
		AssociationStarted{AttemptID: 1},
	}
	if diff := cmp.Diff(want, h.info()); diff != "" {
		t.Fatalf("unexpected info events (-want +got):\n%s", diff)
	}
}

func TestDiscoveryFanOut(t *testing.T) {
	h := newHarness(t, Options{})

	foo := h.sme.Connect(ConnectRequest{SSID: "foo"})
	join := h.expectScan()

	d1 := h.sme.Scan(mlme.ScanTypeActive)
	d2 := h.sme.Scan(mlme.ScanTypeActive)
	assert.Empty(t, h.requests())

	h.endScan(join.TxnID)
	requireResult(t, foo, Failed)

	discovery := h.expectScan()
	assert.Empty(t, discovery.SSID)
	h.info()

	a := testutil.UnprotectedBSS("foo")
	b := testutil.ProtectedBSS("bar")
	b.BSSID = mlme.MacAddr{8, 8, 8, 8, 8, 8}
	b.Channel.Primary = 6
	h.endScan(discovery.TxnID, a, b)

	r1, r2 := <-d1, <-d2
	require.NoError(t, r1.Err)
	assert.Equal(t, r1, r2)
	want := []bss.EssInfo{
		{BestBss: bss.Info(&a)},
		{BestBss: bss.Info(&b)},
	}
	if diff := cmp.Diff(want, r1.ESS); diff != "" {
		t.Fatalf("unexpected ESS list (-want +got):\n%s", diff)
	}

	wantInfo := []InfoEvent{
		ScanEnd{TxnID: discovery.TxnID},
		DiscoveryFinished{
			BSSCount:      2,
			ESSCount:      2,
			NumByStandard: map[bss.Standard]int{bss.StandardB: 2},
			NumByChannel:  map[uint8]int{1: 1, 6: 1},
		},
	}
	if diff := cmp.Diff(wantInfo, h.info()); diff != "" {
		t.Fatalf("unexpected info events (-want +got):\n%s", diff)
	}
}

func TestDiscoveryError(t *testing.T) {
	h := newHarness(t, Options{})

	d1 := h.sme.Scan(mlme.ScanTypePassive)
	req := h.expectScan()
	h.sme.OnDriverEvent(&mlme.ScanEnd{TxnID: req.TxnID, Code: mlme.ScanNotSupported})

	res := <-d1
	assert.Equal(t, DiscoveryResult{Err: scan.DiscoveryNotSupported}, res)
	for _, e := range h.info() {
		_, ok := e.(DiscoveryFinished)
		assert.False(t, ok, "failed discovery must not be summarized")
	}
}

func TestScanResultForUnknownTransaction(t *testing.T) {
	h := newHarness(t, Options{})
	c := h.sme.Connect(ConnectRequest{SSID: "foo"})
	req := h.expectScan()

	h.sme.OnDriverEvent(&mlme.ScanResult{TxnID: req.TxnID + 1, BSS: testutil.UnprotectedBSS("foo")})
	h.sme.OnDriverEvent(&mlme.ScanEnd{TxnID: req.TxnID + 1})
	requirePending(t, c)

	h.endScan(req.TxnID)
	requireResult(t, c, Failed)
}

func TestUnknownTimeoutPanics(t *testing.T) {
	h := newHarness(t, Options{})
	assert.Panics(t, func() {
		h.sme.OnTimeout(timer.TimedEvent[TimeoutEvent]{ID: 1})
	})
}
