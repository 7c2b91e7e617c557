// Package testutil provides helpers shared by tests.
package testutil

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/tomiamao/wlansme/mlme"
)

// WPA2PSKRSNE is an RSNE advertising CCMP-128 group and pairwise ciphers
// with the PSK AKM.
var WPA2PSKRSNE = []byte{
	0x30, 0x14,
	0x01, 0x00,
	0x00, 0x0f, 0xac, 0x04,
	0x01, 0x00, 0x00, 0x0f, 0xac, 0x04,
	0x01, 0x00, 0x00, 0x0f, 0xac, 0x02,
	0x0c, 0x00,
}

// Logger returns a logger writing to t.
func Logger(t testing.TB) *zap.Logger {
	return zaptest.NewLogger(t)
}

// UnprotectedBSS returns an open BSS description for ssid.
func UnprotectedBSS(ssid string) mlme.BSSDescription {
	return mlme.BSSDescription{
		BSSID:        mlme.MacAddr{7, 7, 7, 7, 7, 7},
		SSID:         ssid,
		BeaconPeriod: 100,
		Capability:   mlme.CapabilityESS,
		BasicRates:   []uint8{2, 4, 11, 22},
		Channel:      mlme.Channel{Primary: 1, CBW: mlme.CBW20},
		RSSIDBm:      -40,
	}
}

// ProtectedBSS returns a WPA2-PSK BSS description for ssid.
func ProtectedBSS(ssid string) mlme.BSSDescription {
	b := UnprotectedBSS(ssid)
	b.Capability |= mlme.CapabilityPrivacy
	b.RSNE = append([]byte(nil), WPA2PSKRSNE...)
	return b
}
