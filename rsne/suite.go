package rsne

import "fmt"

// OUIIEEE is the IEEE 802.11 organizationally unique identifier used by the
// standard cipher and AKM suites.
var OUIIEEE = [3]byte{0x00, 0x0f, 0xac}

// A CipherSuite is a cipher suite selector: a three octet OUI followed by a
// one octet suite type. IEEE Std 802.11-2016, 9.4.2.25.2, Table 9-131.
type CipherSuite uint32

// Cipher suites with the IEEE OUI.
const (
	CipherSuiteUseGroup        CipherSuite = 0x000fac00
	CipherSuiteWEP40           CipherSuite = 0x000fac01
	CipherSuiteTKIP            CipherSuite = 0x000fac02
	CipherSuiteCCMP128         CipherSuite = 0x000fac04
	CipherSuiteWEP104          CipherSuite = 0x000fac05
	CipherSuiteBIPCMAC128      CipherSuite = 0x000fac06
	CipherSuiteGroupNotAllowed CipherSuite = 0x000fac07
	CipherSuiteGCMP128         CipherSuite = 0x000fac08
	CipherSuiteGCMP256         CipherSuite = 0x000fac09
	CipherSuiteCCMP256         CipherSuite = 0x000fac0a
	CipherSuiteBIPGMAC128      CipherSuite = 0x000fac0b
	CipherSuiteBIPGMAC256      CipherSuite = 0x000fac0c
	CipherSuiteBIPCMAC256      CipherSuite = 0x000fac0d
)

// OUI returns the organizationally unique identifier of c.
func (c CipherSuite) OUI() [3]byte { return oui(uint32(c)) }

// Type returns the suite type of c.
func (c CipherSuite) Type() uint8 { return uint8(c) }

// TKLen returns the temporal key length in bytes for c, or false if the
// suite does not define one.
func (c CipherSuite) TKLen() (int, bool) {
	switch c {
	case CipherSuiteWEP40:
		return 5, true
	case CipherSuiteWEP104:
		return 13, true
	case CipherSuiteTKIP, CipherSuiteGCMP256, CipherSuiteCCMP256, CipherSuiteBIPGMAC256, CipherSuiteBIPCMAC256:
		return 32, true
	case CipherSuiteCCMP128, CipherSuiteBIPCMAC128, CipherSuiteGCMP128, CipherSuiteBIPGMAC128:
		return 16, true
	default:
		return 0, false
	}
}

func (c CipherSuite) String() string {
	switch c {
	case CipherSuiteUseGroup:
		return "UseGroup"
	case CipherSuiteWEP40:
		return "WEP-40"
	case CipherSuiteTKIP:
		return "TKIP"
	case CipherSuiteCCMP128:
		return "CCMP-128"
	case CipherSuiteWEP104:
		return "WEP-104"
	case CipherSuiteBIPCMAC128:
		return "BIP-CMAC-128"
	case CipherSuiteGroupNotAllowed:
		return "GroupNotAllowed"
	case CipherSuiteGCMP128:
		return "GCMP-128"
	case CipherSuiteGCMP256:
		return "GCMP-256"
	case CipherSuiteCCMP256:
		return "CCMP-256"
	case CipherSuiteBIPGMAC128:
		return "BIP-GMAC-128"
	case CipherSuiteBIPGMAC256:
		return "BIP-GMAC-256"
	case CipherSuiteBIPCMAC256:
		return "BIP-CMAC-256"
	default:
		return fmt.Sprintf("CipherSuite(%#08x)", uint32(c))
	}
}

// An AKMSuite is an authentication and key management suite selector.
// IEEE Std 802.11-2016, 9.4.2.25.3, Table 9-133.
type AKMSuite uint32

// AKM suites with the IEEE OUI.
const (
	AKMSuite8021X          AKMSuite = 0x000fac01
	AKMSuitePSK            AKMSuite = 0x000fac02
	AKMSuiteFT8021X        AKMSuite = 0x000fac03
	AKMSuiteFTPSK          AKMSuite = 0x000fac04
	AKMSuite8021XSHA256    AKMSuite = 0x000fac05
	AKMSuitePSKSHA256      AKMSuite = 0x000fac06
	AKMSuiteTDLS           AKMSuite = 0x000fac07
	AKMSuiteSAE            AKMSuite = 0x000fac08
	AKMSuiteFTSAE          AKMSuite = 0x000fac09
	AKMSuiteAPPeerKey      AKMSuite = 0x000fac0a
	AKMSuite8021XSuiteB    AKMSuite = 0x000fac0b
	AKMSuite8021XSuiteB192 AKMSuite = 0x000fac0c
	AKMSuiteFT8021XSHA384  AKMSuite = 0x000fac0d
)

// OUI returns the organizationally unique identifier of a.
func (a AKMSuite) OUI() [3]byte { return oui(uint32(a)) }

// Type returns the suite type of a.
func (a AKMSuite) Type() uint8 { return uint8(a) }

// MICBytes returns the size of the EAPOL-Key MIC for a, or false if the
// size is unknown. IEEE Std 802.11-2016, 12.7.3, Table 12-8.
func (a AKMSuite) MICBytes() (int, bool) {
	if a.OUI() != OUIIEEE {
		return 0, false
	}
	switch a.Type() {
	case 1, 2, 3, 4, 5, 6, 8, 9, 11:
		return 16, true
	case 12, 13:
		return 24, true
	default:
		return 0, false
	}
}

func (a AKMSuite) String() string {
	switch a {
	case AKMSuite8021X:
		return "802.1X"
	case AKMSuitePSK:
		return "PSK"
	case AKMSuiteFT8021X:
		return "FT-802.1X"
	case AKMSuiteFTPSK:
		return "FT-PSK"
	case AKMSuite8021XSHA256:
		return "802.1X-SHA256"
	case AKMSuitePSKSHA256:
		return "PSK-SHA256"
	case AKMSuiteTDLS:
		return "TDLS"
	case AKMSuiteSAE:
		return "SAE"
	case AKMSuiteFTSAE:
		return "FT-SAE"
	case AKMSuiteAPPeerKey:
		return "APPeerKey"
	case AKMSuite8021XSuiteB:
		return "802.1X-SuiteB"
	case AKMSuite8021XSuiteB192:
		return "802.1X-SuiteB-192"
	case AKMSuiteFT8021XSHA384:
		return "FT-802.1X-SHA384"
	default:
		return fmt.Sprintf("AKMSuite(%#08x)", uint32(a))
	}
}

func oui(sel uint32) [3]byte {
	return [3]byte{byte(sel >> 24), byte(sel >> 16), byte(sel >> 8)}
}
