// Package bss summarizes scan results: best BSS selection, grouping of BSSes
// into networks and radio statistics.
package bss

import (
	"github.com/tomiamao/wlansme/mlme"
	"github.com/tomiamao/wlansme/rsna"
)

// BssInfo is the caller facing summary of a BSS.
type BssInfo struct {
	BSSID     mlme.MacAddr
	SSID      string
	RxDBm     int8
	Channel   uint8
	Protected bool

	// Compatible reports whether the bundled supplicant can establish a
	// security association with the BSS.
	Compatible bool
}

// EssInfo summarizes a network by its best BSS.
type EssInfo struct {
	BestBss BssInfo
}

// Standard is the newest IEEE 802.11 amendment a BSS supports.
type Standard uint8

// Possible Standard values.
const (
	StandardB Standard = iota
	StandardG
	StandardA
	StandardN
	StandardAC
)

func (s Standard) String() string {
	switch s {
	case StandardB:
		return "802.11b"
	case StandardG:
		return "802.11g"
	case StandardA:
		return "802.11a"
	case StandardN:
		return "802.11n"
	case StandardAC:
		return "802.11ac"
	default:
		return "unknown"
	}
}

// Info converts a BSS description to its summary.
func Info(b *mlme.BSSDescription) BssInfo {
	return BssInfo{
		BSSID:      b.BSSID,
		SSID:       b.SSID,
		RxDBm:      b.RSSIDBm,
		Channel:    b.Channel.Primary,
		Protected:  b.Protected(),
		Compatible: IsCompatible(b),
	}
}

// IsCompatible reports whether a connection to b can be attempted: b is
// either unprotected or advertises a security configuration the PSK
// supplicant supports.
func IsCompatible(b *mlme.BSSDescription) bool {
	if !b.Protected() {
		return true
	}
	d, err := rsna.ParseDescriptor(b.RSNE)
	if err != nil {
		return false
	}
	return rsna.CheckFourWaySupport(d) == nil
}

// CredentialMatches reports whether the presence of a credential matches
// the protection of b: protected networks need one, open networks must not
// be given one.
func CredentialMatches(b *mlme.BSSDescription, credential []byte) bool {
	return b.Protected() == (len(credential) > 0)
}

// StandardOf classifies the radio standard of b.
func StandardOf(b *mlme.BSSDescription) Standard {
	switch {
	case b.VHTCap != nil:
		return StandardAC
	case b.HTCap != nil:
		return StandardN
	case b.Channel.Primary > 14:
		return StandardA
	}

	// 802.11b rates are 1, 2, 5.5 and 11 Mbps.
	for _, r := range b.BasicRates {
		if r > 22 {
			return StandardG
		}
	}
	return StandardB
}

// StandardMap counts BSSes per radio standard.
func StandardMap(list []mlme.BSSDescription) map[Standard]int {
	m := make(map[Standard]int)
	for i := range list {
		m[StandardOf(&list[i])]++
	}
	return m
}

// ChannelMap counts BSSes per primary channel.
func ChannelMap(list []mlme.BSSDescription) map[uint8]int {
	m := make(map[uint8]int)
	for i := range list {
		m[list[i].Channel.Primary]++
	}
	return m
}
