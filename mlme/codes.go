package mlme

import "fmt"

// ScanResultCode is the outcome of a driver scan transaction.
type ScanResultCode uint8

// Possible ScanResultCode values.
const (
	ScanSuccess ScanResultCode = iota
	ScanNotSupported
	ScanInvalidArgs
	ScanInternalError
	ScanCanceled
)

func (c ScanResultCode) String() string {
	switch c {
	case ScanSuccess:
		return "Success"
	case ScanNotSupported:
		return "NotSupported"
	case ScanInvalidArgs:
		return "InvalidArgs"
	case ScanInternalError:
		return "InternalError"
	case ScanCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ScanResultCode(%d)", uint8(c))
	}
}

// JoinResultCode is the outcome of a Join request.
type JoinResultCode uint8

// Possible JoinResultCode values.
const (
	JoinSuccess JoinResultCode = iota
	JoinFailureTimeout
)

func (c JoinResultCode) String() string {
	switch c {
	case JoinSuccess:
		return "Success"
	case JoinFailureTimeout:
		return "JoinFailureTimeout"
	default:
		return fmt.Sprintf("JoinResultCode(%d)", uint8(c))
	}
}

// AuthenticateResultCode is the outcome of an Authenticate request.
type AuthenticateResultCode uint8

// Possible AuthenticateResultCode values.
const (
	AuthenticateSuccess AuthenticateResultCode = iota
	AuthenticateRefused
	AuthenticateAntiCloggingTokenRequired
	AuthenticateFiniteCyclicGroupNotSupported
	AuthenticateRejected
	AuthenticateFailureTimeout
)

func (c AuthenticateResultCode) String() string {
	switch c {
	case AuthenticateSuccess:
		return "Success"
	case AuthenticateRefused:
		return "Refused"
	case AuthenticateAntiCloggingTokenRequired:
		return "AntiCloggingTokenRequired"
	case AuthenticateFiniteCyclicGroupNotSupported:
		return "FiniteCyclicGroupNotSupported"
	case AuthenticateRejected:
		return "AuthenticationRejected"
	case AuthenticateFailureTimeout:
		return "AuthFailureTimeout"
	default:
		return fmt.Sprintf("AuthenticateResultCode(%d)", uint8(c))
	}
}

// AssociateResultCode is the outcome of an Associate request.
type AssociateResultCode uint8

// Possible AssociateResultCode values.
const (
	AssociateSuccess AssociateResultCode = iota
	AssociateRefusedReasonUnspecified
	AssociateRefusedNotAuthenticated
	AssociateRefusedCapabilitiesMismatch
	AssociateRefusedExternalReason
	AssociateRefusedAPOutOfMemory
	AssociateRefusedBasicRatesMismatch
	AssociateRejectedEmergencyServicesNotSupported
	AssociateRefusedTemporarily
)

func (c AssociateResultCode) String() string {
	switch c {
	case AssociateSuccess:
		return "Success"
	case AssociateRefusedReasonUnspecified:
		return "RefusedReasonUnspecified"
	case AssociateRefusedNotAuthenticated:
		return "RefusedNotAuthenticated"
	case AssociateRefusedCapabilitiesMismatch:
		return "RefusedCapabilitiesMismatch"
	case AssociateRefusedExternalReason:
		return "RefusedExternalReason"
	case AssociateRefusedAPOutOfMemory:
		return "RefusedApOutOfMemory"
	case AssociateRefusedBasicRatesMismatch:
		return "RefusedBasicRatesMismatch"
	case AssociateRejectedEmergencyServicesNotSupported:
		return "RejectedEmergencyServicesNotSupported"
	case AssociateRefusedTemporarily:
		return "RefusedTemporarily"
	default:
		return fmt.Sprintf("AssociateResultCode(%d)", uint8(c))
	}
}

// ReasonCode is an IEEE 802.11 reason code, IEEE Std 802.11-2016, 9.4.1.7.
type ReasonCode uint16

// Reason codes used by the SME.
const (
	ReasonUnspecified              ReasonCode = 1
	ReasonInvalidAuthentication    ReasonCode = 2
	ReasonStaLeaving               ReasonCode = 3
	ReasonInactivity               ReasonCode = 4
	ReasonNoMoreStas               ReasonCode = 5
	ReasonInvalidClass2Frame       ReasonCode = 6
	ReasonInvalidClass3Frame       ReasonCode = 7
	ReasonLeavingNetworkDisassoc   ReasonCode = 8
	ReasonNotAuthenticated         ReasonCode = 9
	ReasonInvalidIE                ReasonCode = 13
	ReasonMICFailure               ReasonCode = 14
	ReasonFourWayHandshakeTimeout  ReasonCode = 15
	ReasonGroupKeyHandshakeTimeout ReasonCode = 16
	ReasonIEMismatch               ReasonCode = 17
	ReasonInvalidGroupCipher       ReasonCode = 18
	ReasonInvalidPairwiseCipher    ReasonCode = 19
	ReasonInvalidAKMP              ReasonCode = 20
	ReasonIeee8021XAuthFailed      ReasonCode = 23
	ReasonCipherSuiteRejected      ReasonCode = 24
)

func (c ReasonCode) String() string {
	switch c {
	case ReasonUnspecified:
		return "Unspecified"
	case ReasonInvalidAuthentication:
		return "InvalidAuthentication"
	case ReasonStaLeaving:
		return "StaLeaving"
	case ReasonInactivity:
		return "Inactivity"
	case ReasonNoMoreStas:
		return "NoMoreStas"
	case ReasonInvalidClass2Frame:
		return "InvalidClass2Frame"
	case ReasonInvalidClass3Frame:
		return "InvalidClass3Frame"
	case ReasonLeavingNetworkDisassoc:
		return "LeavingNetworkDisassoc"
	case ReasonNotAuthenticated:
		return "NotAuthenticated"
	case ReasonInvalidIE:
		return "InvalidIE"
	case ReasonMICFailure:
		return "MICFailure"
	case ReasonFourWayHandshakeTimeout:
		return "FourWayHandshakeTimeout"
	case ReasonGroupKeyHandshakeTimeout:
		return "GroupKeyHandshakeTimeout"
	case ReasonIEMismatch:
		return "IEMismatch"
	case ReasonInvalidGroupCipher:
		return "InvalidGroupCipher"
	case ReasonInvalidPairwiseCipher:
		return "InvalidPairwiseCipher"
	case ReasonInvalidAKMP:
		return "InvalidAKMP"
	case ReasonIeee8021XAuthFailed:
		return "Ieee8021XAuthFailed"
	case ReasonCipherSuiteRejected:
		return "CipherSuiteRejected"
	default:
		return fmt.Sprintf("ReasonCode(%d)", uint16(c))
	}
}
