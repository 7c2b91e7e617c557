// Package mlme defines the boundary between the station management entity and
// the driver: the commands the SME issues and the events it consumes.
package mlme

import (
	"net"
	"strconv"
)

// A MacAddr is an IEEE 802 MAC-48 address.
type MacAddr [6]byte

// BroadcastAddr is the address group keys are installed for.
var BroadcastAddr = MacAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// String returns the colon separated hex form of m.
func (m MacAddr) String() string { return net.HardwareAddr(m[:]).String() }

// ParseMacAddr converts a hardware address of length 6 into a MacAddr.
func ParseMacAddr(hw net.HardwareAddr) (MacAddr, bool) {
	var m MacAddr
	if len(hw) != len(m) {
		return m, false
	}
	copy(m[:], hw)
	return m, true
}

// ChannelBandwidth is the channel width a BSS operates on.
type ChannelBandwidth uint8

// Possible ChannelBandwidth values.
const (
	CBW20 ChannelBandwidth = iota
	CBW40
	CBW40Below
	CBW80
	CBW160
	CBW80P80
)

// A Channel is the primary channel number and width of a BSS.
type Channel struct {
	Primary uint8
	CBW     ChannelBandwidth
}

// IEEE Std 802.11-2016, 9.4.1.4
const (
	CapabilityESS     uint16 = 1 << 0
	CapabilityPrivacy uint16 = 1 << 4
)

// A BSSDescription describes a single BSS as reported by a scan.
type BSSDescription struct {
	BSSID MacAddr
	SSID  string

	// Beacon period in time units (1024 microseconds).
	BeaconPeriod uint16
	Capability   uint16

	// Raw information elements, including ID and length octets.
	// RSNE is nil for an unprotected BSS.
	RSNE   []byte
	HTCap  []byte
	VHTCap []byte

	// Basic rates in units of 500 kbit/s with the basic rate bit masked off.
	BasicRates []uint8

	Channel Channel
	RSSIDBm int8
}

// Protected reports whether the BSS advertises an RSN element.
func (b *BSSDescription) Protected() bool { return b.RSNE != nil }

// Clone returns a deep copy of b.
func (b *BSSDescription) Clone() *BSSDescription {
	c := *b
	c.RSNE = cloneBytes(b.RSNE)
	c.HTCap = cloneBytes(b.HTCap)
	c.VHTCap = cloneBytes(b.VHTCap)
	c.BasicRates = cloneBytes(b.BasicRates)
	return &c
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// ScanType selects between active probing and passive listening.
type ScanType uint8

// Possible ScanType values.
const (
	ScanTypeActive ScanType = iota
	ScanTypePassive
)

func (t ScanType) String() string {
	switch t {
	case ScanTypeActive:
		return "active"
	case ScanTypePassive:
		return "passive"
	default:
		return "ScanType(" + strconv.Itoa(int(t)) + ")"
	}
}

// KeyType is the kind of key installed by SetKeys.
type KeyType uint8

// Possible KeyType values.
const (
	KeyTypeGroup KeyType = iota
	KeyTypePairwise
	KeyTypePeerKey
	KeyTypeIGTK
)

// AuthType is an 802.11 authentication algorithm.
type AuthType uint8

// Possible AuthType values.
const (
	AuthTypeOpenSystem AuthType = iota
	AuthTypeSharedKey
	AuthTypeFastBSSTransition
	AuthTypeSAE
)

// ControlledPortState is the state of the 802.1X controlled port.
type ControlledPortState uint8

// Possible ControlledPortState values.
const (
	ControlledPortClosed ControlledPortState = iota
	ControlledPortOpen
)
