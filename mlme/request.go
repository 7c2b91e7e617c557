package mlme

// A Request is a command issued by the SME to the driver. Requests are fire
// and forget: completion is reported later as an Event.
type Request interface {
	isRequest()
}

// ScanRequest starts a scan transaction.
type ScanRequest struct {
	TxnID    uint64
	BSSID    MacAddr
	SSID     string
	ScanType ScanType

	ChannelList []uint8

	// Timings in time units.
	ProbeDelay     uint32
	MinChannelTime uint32
	MaxChannelTime uint32
}

// JoinRequest synchronizes with the selected BSS.
type JoinRequest struct {
	SelectedBSS        BSSDescription
	JoinFailureTimeout uint32 // beacon intervals
}

// AuthenticateRequest starts 802.11 authentication with a peer.
type AuthenticateRequest struct {
	PeerStaAddress     MacAddr
	AuthType           AuthType
	AuthFailureTimeout uint32 // beacon intervals
}

// AssociateRequest associates with an authenticated peer. RSNE is nil when
// associating with an unprotected BSS.
type AssociateRequest struct {
	PeerStaAddress MacAddr
	RSNE           []byte
}

// DeauthenticateRequest tears down the link with a peer.
type DeauthenticateRequest struct {
	PeerStaAddress MacAddr
	ReasonCode     ReasonCode
}

// A SetKeyDescriptor describes one key to install.
type SetKeyDescriptor struct {
	Key             []byte
	KeyID           uint16
	KeyType         KeyType
	Address         MacAddr
	RSC             [8]byte
	CipherSuiteOUI  [3]byte
	CipherSuiteType uint8
}

// SetKeysRequest installs keys in the driver.
type SetKeysRequest struct {
	Keys []SetKeyDescriptor
}

// EapolRequest transmits an EAPOL frame.
type EapolRequest struct {
	SrcAddr MacAddr
	DstAddr MacAddr
	Data    []byte
}

// SetControlledPortRequest opens or closes the 802.1X controlled port.
type SetControlledPortRequest struct {
	PeerStaAddress MacAddr
	State          ControlledPortState
}

func (*ScanRequest) isRequest()              {}
func (*JoinRequest) isRequest()              {}
func (*AuthenticateRequest) isRequest()      {}
func (*AssociateRequest) isRequest()         {}
func (*DeauthenticateRequest) isRequest()    {}
func (*SetKeysRequest) isRequest()           {}
func (*EapolRequest) isRequest()             {}
func (*SetControlledPortRequest) isRequest() {}
