package rsna

import (
	"github.com/tomiamao/wlansme/eapol"
	"github.com/tomiamao/wlansme/mlme"
	"github.com/tomiamao/wlansme/rsne"
)

// A Supplicant runs the supplicant side of a key exchange.
type Supplicant interface {
	// Start prepares the supplicant for the first frame of the exchange.
	Start() error

	// Reset drops all handshake progress. The negotiated configuration
	// and credentials are kept.
	Reset()

	// OnEapolFrame processes a received key frame and returns the
	// resulting updates in the order they must be applied.
	OnEapolFrame(f *eapol.KeyFrame) ([]Update, error)
}

// Config is the configuration a Supplicant is built from.
type Config struct {
	Descriptor *Descriptor

	SSID       string
	Credential []byte

	StaAddr  mlme.MacAddr
	PeerAddr mlme.MacAddr

	// BeaconRSNE is the raw RSNE advertised by the BSS.
	BeaconRSNE []byte
}

// A Factory builds a Supplicant for a selected BSS.
type Factory func(cfg Config) (Supplicant, error)

// An Update is produced by a Supplicant while processing a frame.
type Update interface {
	isUpdate()
}

// TxEapol requests transmission of a key frame to the authenticator.
type TxEapol struct {
	Frame *eapol.KeyFrame
}

// KeyKind distinguishes derived keys.
type KeyKind uint8

// Possible KeyKind values.
const (
	KeyPTK KeyKind = iota
	KeyGTK
)

func (k KeyKind) String() string {
	switch k {
	case KeyPTK:
		return "PTK"
	case KeyGTK:
		return "GTK"
	default:
		return "unknown"
	}
}

// Key carries a derived key to install in the driver.
type Key struct {
	Kind KeyKind

	// Key is the temporal key.
	Key    []byte
	KeyID  uint8
	Cipher rsne.CipherSuite
}

// StatusCode is the terminal outcome of a key exchange.
type StatusCode uint8

// Possible StatusCode values.
const (
	EstablishedSA StatusCode = iota
	WrongPassword
)

func (c StatusCode) String() string {
	switch c {
	case EstablishedSA:
		return "EstablishedSA"
	case WrongPassword:
		return "WrongPassword"
	default:
		return "unknown"
	}
}

// Status reports the outcome of the exchange.
type Status struct {
	Code StatusCode
}

func (TxEapol) isUpdate() {}
func (Key) isUpdate()     {}
func (Status) isUpdate()  {}
