// Package wifi drives a Linux WiFi interface over nl80211 on behalf of a
// station management entity. It executes mlme requests and translates
// nl80211 notifications into mlme events.
package wifi

import (
	"errors"
	"net"

	"github.com/google/gopacket/layers"
	"github.com/josharian/native"

	"github.com/tomiamao/wlansme/mlme"
)

// Errors returned by the driver.
var (
	ErrNotStation          = errors.New("interface is not in station mode")
	ErrInterfaceNotFound   = errors.New("interface not found")
	ErrControlPortNotFound = errors.New("device cannot carry EAPOL frames over nl80211")
	ErrNoChannels          = errors.New("device reports no usable channels")
	ErrNotJoined           = errors.New("no BSS joined")

	errInvalidIE = errors.New("invalid information element")
)

// An InterfaceType is the operating mode of an Interface.
type InterfaceType int

// Possible InterfaceType values. The ordering follows nl80211.
const (
	InterfaceTypeUnspecified InterfaceType = iota
	InterfaceTypeAdHoc
	InterfaceTypeStation
	InterfaceTypeAP
	InterfaceTypeAPVLAN
	InterfaceTypeWDS
	InterfaceTypeMonitor
	InterfaceTypeMeshPoint
	InterfaceTypeP2PClient
	InterfaceTypeP2PGroupOwner
	InterfaceTypeP2PDevice
	InterfaceTypeOCB
	InterfaceTypeNAN
)

// An Interface is a WiFi network interface.
type Interface struct {
	Index        int
	Name         string
	HardwareAddr net.HardwareAddr
	PHY          int
	Device       int
	Type         InterfaceType
	Frequency    int
}

// FreqToChannel returns the channel of the specified
// frequency (in MHz) for the 2.4GHz and 5GHz ranges.
func FreqToChannel(freq int) int {
	if freq == 2484 {
		return 14
	}
	if freq < 2484 {
		return (freq - 2407) / 5
	}
	return freq/5 - 1000
}

// ChannelToFreq returns the center frequency (in MHz) of a 2.4GHz or 5GHz
// channel.
func ChannelToFreq(channel int) int {
	switch {
	case channel == 14:
		return 2484
	case channel < 14:
		return channel*5 + 2407
	default:
		return (channel + 1000) * 5
	}
}

// An ie is a raw information element.
type ie struct {
	ID   layers.Dot11InformationElementID
	Data []byte

	// Raw includes the ID and length octets.
	Raw []byte
}

// parseIEs parses the information elements of a beacon or probe response
// body.
func parseIEs(b []byte) ([]ie, error) {
	var ies []ie
	for len(b) > 0 {
		if len(b) < 2 {
			return nil, errInvalidIE
		}
		l := int(b[1])
		if len(b) < 2+l {
			return nil, errInvalidIE
		}
		ies = append(ies, ie{
			ID:   layers.Dot11InformationElementID(b[0]),
			Data: b[2 : 2+l],
			Raw:  b[:2+l],
		})
		b = b[2+l:]
	}
	return ies, nil
}

// applyIEs fills the element derived fields of d.
func applyIEs(d *mlme.BSSDescription, ies []ie) {
	for _, e := range ies {
		switch e.ID {
		case layers.Dot11InformationElementIDSSID:
			d.SSID = decodeSSID(e.Data)
		case layers.Dot11InformationElementIDRates, layers.Dot11InformationElementIDESRates:
			for _, r := range e.Data {
				if r&0x80 != 0 {
					d.BasicRates = append(d.BasicRates, r&0x7f)
				}
			}
		case layers.Dot11InformationElementIDRSNInfo:
			d.RSNE = clone(e.Raw)
		case layers.Dot11InformationElementIDHTCapabilities:
			d.HTCap = clone(e.Raw)
		case layers.Dot11InformationElementIDVHTCapabilities:
			d.VHTCap = clone(e.Raw)
		case layers.Dot11InformationElementIDDSSet:
			if len(e.Data) == 1 && d.Channel.Primary == 0 {
				d.Channel.Primary = e.Data[0]
			}
		case layers.Dot11InformationElementIDHTInfo:
			// IEEE Std 802.11-2016, 9.4.2.57: secondary channel offset.
			if len(e.Data) >= 2 && d.Channel.CBW == mlme.CBW20 {
				switch e.Data[1] & 0x03 {
				case 1:
					d.Channel.CBW = mlme.CBW40
				case 3:
					d.Channel.CBW = mlme.CBW40Below
				}
			}
		case layers.Dot11InformationElementIDVHTOperation:
			if len(e.Data) >= 1 {
				switch e.Data[0] {
				case 1:
					d.Channel.CBW = mlme.CBW80
				case 2:
					d.Channel.CBW = mlme.CBW160
				case 3:
					d.Channel.CBW = mlme.CBW80P80
				}
			}
		}
	}
}

func clone(b []byte) []byte { return append([]byte(nil), b...) }

// decodeSSID replaces invalid UTF-8 sequences in b with utf8.RuneError.
func decodeSSID(b []byte) string {
	buf := make([]rune, 0, len(b))
	for _, r := range string(b) {
		buf = append(buf, r)
	}
	return string(buf)
}

// staFlagUpdate encodes struct nl80211_sta_flag_update in host byte order.
func staFlagUpdate(mask, set uint32) []byte {
	b := make([]byte, 8)
	native.Endian.PutUint32(b[0:4], mask)
	native.Endian.PutUint32(b[4:8], set)
	return b
}

// rssiFromMBM converts a signal strength in mBm to dBm, clamped to int8.
func rssiFromMBM(mbm int32) int8 {
	dbm := mbm / 100
	switch {
	case dbm < -128:
		return -128
	case dbm > 127:
		return 127
	default:
		return int8(dbm)
	}
}
