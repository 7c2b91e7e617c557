// Package sme implements the client station management entity. It turns
// connect, scan and disconnect requests into driver requests and folds the
// driver's asynchronous events back into per-request results and a status
// snapshot.
//
// A ClientSME is driven by a single goroutine: driver events, timer events
// and caller requests must be serialized by the owner. Requests for the
// driver and telemetry events are queued and drained by the owner after
// each step.
package sme

import (
	"fmt"
	"time"

	"github.com/tomiamao/wlansme/bss"
	"github.com/tomiamao/wlansme/mlme"
	"github.com/tomiamao/wlansme/rsna"
)

// An AttemptID identifies one logical connection attempt. A new attempt
// starts on every connect and on every re-association after a
// disassociation.
type AttemptID uint64

// ConnectResult is the terminal result of a connect request.
type ConnectResult uint8

// Possible ConnectResult values.
const (
	Success ConnectResult = iota
	Canceled
	Failed
	BadCredentials
)

func (r ConnectResult) String() string {
	switch r {
	case Success:
		return "Success"
	case Canceled:
		return "Canceled"
	case Failed:
		return "Failed"
	case BadCredentials:
		return "BadCredentials"
	default:
		return fmt.Sprintf("ConnectResult(%d)", uint8(r))
	}
}

// A ConnectFailure details why a connect request did not succeed. It is only
// reported in telemetry.
type ConnectFailure interface {
	fmt.Stringer
	isConnectFailure()
}

// NoMatchingBssFound means the join scan found no BSS of the network.
type NoMatchingBssFound struct{}

// ScanFailure means the join scan failed.
type ScanFailure struct{ Code mlme.ScanResultCode }

// JoinFailure means the driver could not join the selected BSS.
type JoinFailure struct{ Code mlme.JoinResultCode }

// AuthenticationFailure means 802.11 authentication failed.
type AuthenticationFailure struct{ Code mlme.AuthenticateResultCode }

// AssociationFailure means association failed or the supplicant could not
// be started.
type AssociationFailure struct{ Code mlme.AssociateResultCode }

// RsnaTimeout means the key exchange did not complete in time.
type RsnaTimeout struct{}

func (NoMatchingBssFound) String() string      { return "NoMatchingBssFound" }
func (f ScanFailure) String() string           { return "ScanFailure(" + f.Code.String() + ")" }
func (f JoinFailure) String() string           { return "JoinFailure(" + f.Code.String() + ")" }
func (f AuthenticationFailure) String() string { return "AuthenticationFailure(" + f.Code.String() + ")" }
func (f AssociationFailure) String() string    { return "AssociationFailure(" + f.Code.String() + ")" }
func (RsnaTimeout) String() string             { return "RsnaTimeout" }

func (NoMatchingBssFound) isConnectFailure()    {}
func (ScanFailure) isConnectFailure()           {}
func (JoinFailure) isConnectFailure()           {}
func (AuthenticationFailure) isConnectFailure() {}
func (AssociationFailure) isConnectFailure()    {}
func (RsnaTimeout) isConnectFailure()           {}

// Status is a snapshot of the connection. ConnectingTo is empty when no
// connection is being set up.
type Status struct {
	ConnectedTo  *bss.BssInfo
	ConnectingTo string
}

// A DiscoveryResult is delivered to every discovery scan requester served by
// one scan. Err is a scan.DiscoveryError when the scan failed.
type DiscoveryResult struct {
	ESS []bss.EssInfo
	Err error
}

// DeviceInfo describes the local device. It is never modified after
// construction.
type DeviceInfo struct {
	Addr     mlme.MacAddr
	Channels []uint8
}

// RadioConfig optionally overrides the channel width of the selected BSS.
type RadioConfig struct {
	OverrideCBW bool
	CBW         mlme.ChannelBandwidth
}

// A ConnectRequest asks to connect to the network named SSID. Password is
// empty for open networks.
type ConnectRequest struct {
	SSID     string
	Password []byte
	Radio    RadioConfig
	ScanType mlme.ScanType
}

// Default Options values.
const (
	DefaultRsnaTimeout         = 3 * time.Second
	DefaultKeyFrameTimeout     = 200 * time.Millisecond
	DefaultKeyFrameMaxAttempts = 1
)

// Driver request parameters, in beacon intervals.
const (
	joinFailureTimeout = 20
	authFailureTimeout = 20
)

// Options tune a ClientSME. The zero value selects the defaults.
type Options struct {
	// RsnaTimeout bounds the whole key exchange.
	RsnaTimeout time.Duration

	// KeyFrameTimeout bounds the wait for the authenticator's answer to a
	// transmitted key frame. A frame is sent at most KeyFrameMaxAttempts
	// times.
	KeyFrameTimeout     time.Duration
	KeyFrameMaxAttempts int

	// Scan request dwell times in time units. Zero selects the scan
	// package defaults.
	MinChannelTime uint32
	MaxChannelTime uint32

	// Selector picks the BSS to join. Defaults to bss.SignalSelector.
	Selector bss.Selector

	// NewSupplicant builds the supplicant for protected networks.
	// Defaults to rsna.NewFourWaySupplicant.
	NewSupplicant rsna.Factory
}

func (o Options) withDefaults() Options {
	if o.RsnaTimeout <= 0 {
		o.RsnaTimeout = DefaultRsnaTimeout
	}
	if o.KeyFrameTimeout <= 0 {
		o.KeyFrameTimeout = DefaultKeyFrameTimeout
	}
	if o.KeyFrameMaxAttempts <= 0 {
		o.KeyFrameMaxAttempts = DefaultKeyFrameMaxAttempts
	}
	if o.Selector == nil {
		o.Selector = bss.SignalSelector{}
	}
	if o.NewSupplicant == nil {
		o.NewSupplicant = rsna.NewFourWaySupplicant
	}
	return o
}
