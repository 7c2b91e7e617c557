package mlme

// An Event is a notification delivered by the driver to the SME.
type Event interface {
	isEvent()
}

// ScanResult carries one BSS discovered by scan transaction TxnID.
type ScanResult struct {
	TxnID uint64
	BSS   BSSDescription
}

// ScanEnd closes scan transaction TxnID.
type ScanEnd struct {
	TxnID uint64
	Code  ScanResultCode
}

// JoinConfirm completes a JoinRequest.
type JoinConfirm struct {
	Code JoinResultCode
}

// AuthenticateConfirm completes an AuthenticateRequest.
type AuthenticateConfirm struct {
	PeerStaAddress MacAddr
	AuthType       AuthType
	Code           AuthenticateResultCode
}

// AssociateConfirm completes an AssociateRequest.
type AssociateConfirm struct {
	Code          AssociateResultCode
	AssociationID uint16
}

// DisassociateIndication reports that the peer disassociated us.
type DisassociateIndication struct {
	PeerStaAddress MacAddr
	ReasonCode     ReasonCode
}

// DeauthenticateIndication reports that the peer deauthenticated us.
type DeauthenticateIndication struct {
	PeerStaAddress MacAddr
	ReasonCode     ReasonCode
}

// SignalReport carries the latest received signal strength.
type SignalReport struct {
	RSSIDBm int8
}

// EapolIndication carries a received EAPOL frame.
type EapolIndication struct {
	SrcAddr MacAddr
	DstAddr MacAddr
	Data    []byte
}

func (*ScanResult) isEvent()               {}
func (*ScanEnd) isEvent()                  {}
func (*JoinConfirm) isEvent()              {}
func (*AuthenticateConfirm) isEvent()      {}
func (*AssociateConfirm) isEvent()         {}
func (*DisassociateIndication) isEvent()   {}
func (*DeauthenticateIndication) isEvent() {}
func (*SignalReport) isEvent()             {}
func (*EapolIndication) isEvent()          {}
