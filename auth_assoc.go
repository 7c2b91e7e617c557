package wifi

import (
	"encoding/binary"
	"errors"

	"github.com/tomiamao/wlansme/mlme"
)

// Management frame layout, IEEE Std 802.11-2016, 9.3.3.
const (
	mgmtHeaderLen = 24

	authFrameLen  = mgmtHeaderLen + 6
	assocRespLen  = mgmtHeaderLen + 6
	deauthBodyLen = 2
)

var errShortFrame = errors.New("management frame too short")

// MgmtHeader is the MAC header of a management frame.
type MgmtHeader struct {
	FC       uint16 // Frame Control
	Duration uint16
	DA       mlme.MacAddr
	SA       mlme.MacAddr
	BSSID    mlme.MacAddr
	SeqCtlr  uint16 // fragment number (4 bits) + sequence number (12 bits)
}

func (h MgmtHeader) append(data []byte) []byte {
	data = binary.LittleEndian.AppendUint16(data, h.FC)
	data = binary.LittleEndian.AppendUint16(data, h.Duration)
	data = append(data, h.DA[:]...)
	data = append(data, h.SA[:]...)
	data = append(data, h.BSSID[:]...)
	return binary.LittleEndian.AppendUint16(data, h.SeqCtlr)
}

func parseMgmtHeader(b []byte) (MgmtHeader, error) {
	var h MgmtHeader
	if len(b) < mgmtHeaderLen {
		return h, errShortFrame
	}
	h.FC = binary.LittleEndian.Uint16(b[0:2])
	h.Duration = binary.LittleEndian.Uint16(b[2:4])
	copy(h.DA[:], b[4:10])
	copy(h.SA[:], b[10:16])
	copy(h.BSSID[:], b[16:22])
	h.SeqCtlr = binary.LittleEndian.Uint16(b[22:24])
	return h, nil
}

// AuthFrame is an Authentication frame without challenge text.
type AuthFrame struct {
	MgmtHeader

	Algorithm uint16
	Sequence  uint16
	Status    uint16
}

// Serialize encodes the frame as sent over the air.
func (b AuthFrame) Serialize() []byte {
	data := b.MgmtHeader.append(make([]byte, 0, authFrameLen))
	data = binary.LittleEndian.AppendUint16(data, b.Algorithm)
	data = binary.LittleEndian.AppendUint16(data, b.Sequence)
	return binary.LittleEndian.AppendUint16(data, b.Status)
}

func parseAuthFrame(b []byte) (*AuthFrame, error) {
	if len(b) < authFrameLen {
		return nil, errShortFrame
	}
	h, err := parseMgmtHeader(b)
	if err != nil {
		return nil, err
	}
	return &AuthFrame{
		MgmtHeader: h,
		Algorithm:  binary.LittleEndian.Uint16(b[24:26]),
		Sequence:   binary.LittleEndian.Uint16(b[26:28]),
		Status:     binary.LittleEndian.Uint16(b[28:30]),
	}, nil
}

// AssocResp is an (Re)Association Response frame without elements.
type AssocResp struct {
	MgmtHeader

	CapabilityInfo uint16
	Status         uint16
	AID            uint16
}

// Serialize encodes the frame as sent over the air.
func (b AssocResp) Serialize() []byte {
	data := b.MgmtHeader.append(make([]byte, 0, assocRespLen))
	data = binary.LittleEndian.AppendUint16(data, b.CapabilityInfo)
	data = binary.LittleEndian.AppendUint16(data, b.Status)
	return binary.LittleEndian.AppendUint16(data, b.AID)
}

func parseAssocResp(b []byte) (*AssocResp, error) {
	if len(b) < assocRespLen {
		return nil, errShortFrame
	}
	h, err := parseMgmtHeader(b)
	if err != nil {
		return nil, err
	}
	// The two most significant bits of the AID are always set.
	aid := binary.LittleEndian.Uint16(b[28:30]) & 0x3fff
	return &AssocResp{
		MgmtHeader:     h,
		CapabilityInfo: binary.LittleEndian.Uint16(b[24:26]),
		Status:         binary.LittleEndian.Uint16(b[26:28]),
		AID:            aid,
	}, nil
}

// DeauthFrame is a Deauthentication or Disassociation frame.
type DeauthFrame struct {
	MgmtHeader

	Reason uint16
}

// Serialize encodes the frame as sent over the air.
func (b DeauthFrame) Serialize() []byte {
	data := b.MgmtHeader.append(make([]byte, 0, mgmtHeaderLen+deauthBodyLen))
	return binary.LittleEndian.AppendUint16(data, b.Reason)
}

func parseDeauthFrame(b []byte) (*DeauthFrame, error) {
	if len(b) < mgmtHeaderLen+deauthBodyLen {
		return nil, errShortFrame
	}
	h, err := parseMgmtHeader(b)
	if err != nil {
		return nil, err
	}
	return &DeauthFrame{
		MgmtHeader: h,
		Reason:     binary.LittleEndian.Uint16(b[24:26]),
	}, nil
}

// IEEE Std 802.11-2016, 9.4.1.9 status codes the SME distinguishes.
const (
	statusSuccess                  = 0
	statusRefused                  = 1
	statusNotAuthenticated         = 9
	statusCapabilitiesMismatch     = 10
	statusReassocDenied            = 11
	statusAPOutOfMemory            = 17
	statusBasicRatesMismatch       = 18
	statusRefusedTemporarily       = 30
	statusAntiCloggingTokenNeeded  = 76
	statusFiniteCyclicGroupUnknown = 77
	statusEmergencyNotSupported    = 94
)

func authResultCode(status uint16) mlme.AuthenticateResultCode {
	switch status {
	case statusSuccess:
		return mlme.AuthenticateSuccess
	case statusAntiCloggingTokenNeeded:
		return mlme.AuthenticateAntiCloggingTokenRequired
	case statusFiniteCyclicGroupUnknown:
		return mlme.AuthenticateFiniteCyclicGroupNotSupported
	case statusRefused:
		return mlme.AuthenticateRefused
	default:
		return mlme.AuthenticateRejected
	}
}

func assocResultCode(status uint16) mlme.AssociateResultCode {
	switch status {
	case statusSuccess:
		return mlme.AssociateSuccess
	case statusNotAuthenticated:
		return mlme.AssociateRefusedNotAuthenticated
	case statusCapabilitiesMismatch:
		return mlme.AssociateRefusedCapabilitiesMismatch
	case statusReassocDenied:
		return mlme.AssociateRefusedExternalReason
	case statusAPOutOfMemory:
		return mlme.AssociateRefusedAPOutOfMemory
	case statusBasicRatesMismatch:
		return mlme.AssociateRefusedBasicRatesMismatch
	case statusRefusedTemporarily:
		return mlme.AssociateRefusedTemporarily
	case statusEmergencyNotSupported:
		return mlme.AssociateRejectedEmergencyServicesNotSupported
	default:
		return mlme.AssociateRefusedReasonUnspecified
	}
}
