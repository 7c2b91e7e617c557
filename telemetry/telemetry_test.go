package telemetry

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomiamao/wlansme/bss"
	itestutil "github.com/tomiamao/wlansme/internal/testutil"
	"github.com/tomiamao/wlansme/mlme"
	"github.com/tomiamao/wlansme/sme"
)

func newCollector(t *testing.T) *Collector {
	t.Helper()
	c, err := New(prometheus.NewRegistry(), itestutil.Logger(t))
	require.NoError(t, err)
	return c
}

func TestConnectMetrics(t *testing.T) {
	c := newCollector(t)

	for _, e := range []sme.InfoEvent{
		sme.ConnectStarted{},
		sme.ScanStart{TxnID: 1},
		sme.ScanEnd{TxnID: 1},
		sme.AssociationStarted{AttemptID: 1},
		sme.ConnectFinished{Result: sme.Failed, Failure: sme.JoinFailure{Code: mlme.JoinFailureTimeout}},
		sme.ConnectStarted{},
		sme.AssociationStarted{AttemptID: 2},
		sme.AssociationSuccess{AttemptID: 2},
		sme.RsnaStarted{AttemptID: 2},
		sme.RsnaEstablished{AttemptID: 2},
		sme.ConnectFinished{Result: sme.Success},
	} {
		c.Record(e)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(c.connectStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.scans))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.attempts))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.associations))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rsnaStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rsnaEstablished))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.lastAttemptID))

	want := `
# HELP wlansme_connect_results_total Total number of resolved connect requests by result and failure.
# TYPE wlansme_connect_results_total counter
wlansme_connect_results_total{failure="join",result="Failed"} 1
wlansme_connect_results_total{failure="none",result="Success"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c.connectFinished, strings.NewReader(want)))
}

func TestDiscoveryMetrics(t *testing.T) {
	c := newCollector(t)

	c.Record(sme.DiscoveryFinished{
		BSSCount:      3,
		ESSCount:      2,
		NumByStandard: map[bss.Standard]int{bss.StandardN: 2, bss.StandardAC: 1},
		NumByChannel:  map[uint8]int{1: 2, 36: 1},
	})
	c.Record(sme.DiscoveryFinished{
		BSSCount:      1,
		ESSCount:      1,
		NumByStandard: map[bss.Standard]int{bss.StandardG: 1},
		NumByChannel:  map[uint8]int{6: 1},
	})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.discoveredBSS))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.discoveredESS))

	// Histograms reflect only the last scan.
	assert.Equal(t, 1, testutil.CollectAndCount(c.bssByStandard))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.bssByStandard.WithLabelValues(bss.StandardG.String())))
	assert.Equal(t, 1, testutil.CollectAndCount(c.bssByChannel))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.bssByChannel.WithLabelValues("6")))
}

func TestFailureLabel(t *testing.T) {
	tests := []struct {
		failure sme.ConnectFailure
		want    string
	}{
		{failure: nil, want: "none"},
		{failure: sme.NoMatchingBssFound{}, want: "no_matching_bss"},
		{failure: sme.ScanFailure{Code: mlme.ScanInternalError}, want: "scan"},
		{failure: sme.AuthenticationFailure{Code: mlme.AuthenticateRejected}, want: "authentication"},
		{failure: sme.AssociationFailure{Code: mlme.AssociateRefusedTemporarily}, want: "association"},
		{failure: sme.RsnaTimeout{}, want: "rsna_timeout"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, failureLabel(tt.failure))
	}
}

func TestDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg, nil)
	require.NoError(t, err)

	_, err = New(reg, nil)
	assert.Error(t, err)
}
