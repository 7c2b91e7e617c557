package sme

import (
	"time"

	"github.com/tomiamao/wlansme/bss"
	"github.com/tomiamao/wlansme/eapol"
	"github.com/tomiamao/wlansme/mlme"
	"github.com/tomiamao/wlansme/timer"
)

// An InfoEvent is a telemetry event. Info events are queued and never block
// the SME.
type InfoEvent interface {
	isInfoEvent()
}

// ConnectStarted is emitted when a connect request is accepted.
type ConnectStarted struct{}

// ConnectFinished is emitted whenever a connect request is resolved.
// Failure is nil when no detail is available.
type ConnectFinished struct {
	Result  ConnectResult
	Failure ConnectFailure
}

// ScanStart is emitted when a scan request is issued to the driver.
type ScanStart struct {
	TxnID uint64
}

// ScanEnd is emitted when the driver closes a scan transaction.
type ScanEnd struct {
	TxnID uint64
}

// DiscoveryFinished summarizes a successful discovery scan.
type DiscoveryFinished struct {
	BSSCount      int
	ESSCount      int
	NumByStandard map[bss.Standard]int
	NumByChannel  map[uint8]int
}

// AssociationStarted is emitted when an attempt starts joining a BSS.
type AssociationStarted struct {
	AttemptID AttemptID
}

// AssociationSuccess is emitted when the driver confirms association.
type AssociationSuccess struct {
	AttemptID AttemptID
}

// RsnaStarted is emitted when the supplicant starts.
type RsnaStarted struct {
	AttemptID AttemptID
}

// RsnaEstablished is emitted when the key exchange completes.
type RsnaEstablished struct {
	AttemptID AttemptID
}

func (ConnectStarted) isInfoEvent()     {}
func (ConnectFinished) isInfoEvent()    {}
func (ScanStart) isInfoEvent()          {}
func (ScanEnd) isInfoEvent()            {}
func (DiscoveryFinished) isInfoEvent()  {}
func (AssociationStarted) isInfoEvent() {}
func (AssociationSuccess) isInfoEvent() {}
func (RsnaStarted) isInfoEvent()        {}
func (RsnaEstablished) isInfoEvent()    {}

// A TimeoutEvent is scheduled by the SME and handed back to OnTimeout once
// its deadline passed.
type TimeoutEvent interface {
	isTimeoutEvent()
}

// EstablishingRsnaTimeout bounds the whole key exchange of an attempt.
type EstablishingRsnaTimeout struct {
	AttemptID AttemptID
}

// KeyFrameExchangeTimeout fires when the authenticator did not answer the
// transmitted Frame. Attempt counts transmissions of Frame, starting at 1.
type KeyFrameExchangeTimeout struct {
	AttemptID AttemptID
	BSSID     mlme.MacAddr
	StaAddr   mlme.MacAddr
	Frame     *eapol.KeyFrame
	Attempt   int
}

func (EstablishingRsnaTimeout) isTimeoutEvent() {}
func (KeyFrameExchangeTimeout) isTimeoutEvent() {}

// A Timer schedules timeout events. *timer.Timer[TimeoutEvent] implements
// it.
type Timer interface {
	Schedule(d time.Duration, e TimeoutEvent) timer.EventID
}
