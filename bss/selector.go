package bss

import (
	"github.com/tomiamao/wlansme/mlme"
)

// A Selector picks the BSS to connect to among candidates of one network.
type Selector interface {
	// Best returns the preferred BSS, or false if candidates is empty.
	Best(candidates []mlme.BSSDescription) (*mlme.BSSDescription, bool)
}

// SignalSelector prefers compatible BSSes, then the strongest signal. Ties
// keep the earliest candidate.
type SignalSelector struct{}

var _ Selector = SignalSelector{}

// Best implements Selector.
func (SignalSelector) Best(candidates []mlme.BSSDescription) (*mlme.BSSDescription, bool) {
	var best *mlme.BSSDescription
	var bestCompatible bool
	for i := range candidates {
		c := &candidates[i]
		compatible := IsCompatible(c)
		if best == nil || better(compatible, c.RSSIDBm, bestCompatible, best.RSSIDBm) {
			best, bestCompatible = c, compatible
		}
	}
	return best, best != nil
}

func better(compatible bool, rssi int8, bestCompatible bool, bestRSSI int8) bool {
	if compatible != bestCompatible {
		return compatible
	}
	return rssi > bestRSSI
}

// GroupNetworks groups BSSes by SSID and represents each network by the BSS
// sel prefers. Networks are returned in order of first appearance.
func GroupNetworks(list []mlme.BSSDescription, sel Selector) []EssInfo {
	var order []string
	groups := make(map[string][]mlme.BSSDescription)
	for _, b := range list {
		if _, ok := groups[b.SSID]; !ok {
			order = append(order, b.SSID)
		}
		groups[b.SSID] = append(groups[b.SSID], b)
	}

	ess := make([]EssInfo, 0, len(order))
	for _, ssid := range order {
		best, ok := sel.Best(groups[ssid])
		if !ok {
			continue
		}
		ess = append(ess, EssInfo{BestBss: Info(best)})
	}
	return ess
}
