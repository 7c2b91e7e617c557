package rsna

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tomiamao/wlansme/eapol"
	"github.com/tomiamao/wlansme/eapol/crypto"
	"github.com/tomiamao/wlansme/rsne"
)

// Key descriptor version 2: HMAC-SHA1-128 MIC and AES key wrap.
const keyDescriptorVersion = 2

var (
	ErrUnsupported = errors.New("rsna: unsupported security configuration")
	ErrNotStarted  = errors.New("rsna: supplicant not started")
)

// A FourWay is a PSK supplicant running the 4-way handshake of IEEE Std
// 802.11-2016, 12.7.6.
type FourWay struct {
	cfg    Config
	pmk    []byte
	tkLen  int
	nonces *crypto.NonceReader

	started bool
	done    bool

	// Only frames with a valid MIC advance the replay counter.
	replayCounter *uint64

	aNonce [32]byte
	sNonce [32]byte
	ptk    *crypto.PTK
}

var _ Supplicant = &FourWay{}

// NewFourWay builds a supplicant for WPA2-PSK with CCMP-128 pairwise and a
// CCMP-128 or TKIP group cipher.
func NewFourWay(cfg Config) (*FourWay, error) {
	d := cfg.Descriptor
	if err := CheckFourWaySupport(d); err != nil {
		return nil, err
	}

	pmk, err := crypto.PSK(string(cfg.Credential), cfg.SSID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive PSK: %w", err)
	}
	tkLen, _ := d.Pairwise.TKLen()

	nonces, err := crypto.NewNonceReader(cfg.StaAddr)
	if err != nil {
		return nil, err
	}

	return &FourWay{
		cfg:    cfg,
		pmk:    pmk,
		tkLen:  tkLen,
		nonces: nonces,
	}, nil
}

// CheckFourWaySupport reports whether a FourWay supplicant can run under d.
func CheckFourWaySupport(d *Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: missing descriptor", ErrUnsupported)
	}
	if d.AKM != rsne.AKMSuitePSK {
		return fmt.Errorf("%w: AKM %s", ErrUnsupported, d.AKM)
	}
	if d.Pairwise != rsne.CipherSuiteCCMP128 {
		return fmt.Errorf("%w: pairwise cipher %s", ErrUnsupported, d.Pairwise)
	}
	if d.GroupData != rsne.CipherSuiteCCMP128 && d.GroupData != rsne.CipherSuiteTKIP {
		return fmt.Errorf("%w: group cipher %s", ErrUnsupported, d.GroupData)
	}
	return nil
}

// NewFourWaySupplicant is a Factory for FourWay supplicants.
func NewFourWaySupplicant(cfg Config) (Supplicant, error) {
	hs, err := NewFourWay(cfg)
	if err != nil {
		return nil, err
	}
	return hs, nil
}

// Start implements Supplicant. The authenticator sends the first message so
// there is nothing to transmit.
func (hs *FourWay) Start() error {
	if hs.pmk == nil {
		return errors.New("rsna: no PMK available")
	}
	hs.started = true
	return nil
}

// Reset implements Supplicant.
func (hs *FourWay) Reset() {
	hs.started = false
	hs.done = false
	hs.replayCounter = nil
	hs.aNonce = [32]byte{}
	hs.sNonce = [32]byte{}
	hs.ptk = nil
}

// OnEapolFrame implements Supplicant.
func (hs *FourWay) OnEapolFrame(f *eapol.KeyFrame) ([]Update, error) {
	if !hs.started {
		return nil, ErrNotStarted
	}
	// Rekeying is not supported; frames after establishment are dropped.
	if hs.done {
		return nil, nil
	}
	if err := hs.checkIntegrity(f); err != nil {
		return nil, err
	}

	if isThirdMessage(f) {
		return hs.onMessage3(f)
	}
	return hs.onMessage1(f)
}

func (hs *FourWay) onMessage1(f *eapol.KeyFrame) ([]Update, error) {
	hs.aNonce = f.Nonce
	hs.sNonce = hs.nonces.Next()
	ptk := crypto.DeriveKeys(hs.pmk, hs.cfg.StaAddr[:], hs.cfg.PeerAddr[:], hs.aNonce[:], hs.sNonce[:], hs.tkLen)
	hs.ptk = &ptk

	msg2 := eapol.NewKeyFrame(hs.cfg.Descriptor.MICSize)
	msg2.Version = f.Version
	msg2.Info = eapol.KeyInfo(keyDescriptorVersion) | eapol.KeyInfoType | eapol.KeyInfoMIC
	msg2.ReplayCounter = f.ReplayCounter
	msg2.Nonce = hs.sNonce
	msg2.Data = hs.cfg.Descriptor.Element().Bytes()
	if err := eapol.UpdateMIC(ptk.KCK, msg2); err != nil {
		return nil, err
	}

	return []Update{TxEapol{Frame: msg2}}, nil
}

func (hs *FourWay) onMessage3(f *eapol.KeyFrame) ([]Update, error) {
	if hs.ptk == nil {
		return nil, errors.New("rsna: received message 3 before message 1")
	}

	// A MIC failure on message 3 means the PTK derived from our PMK does not
	// match the authenticator's.
	if !eapol.HasValidMIC(hs.ptk.KCK, f) {
		return []Update{Status{Code: WrongPassword}}, nil
	}
	if f.Nonce != hs.aNonce {
		return nil, errors.New("rsna: ANonce of message 3 differs from message 1")
	}

	plain, err := crypto.AESUnwrap(hs.ptk.KEK, f.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt key data: %w", err)
	}
	kd, err := parseKeyData(plain)
	if err != nil {
		return nil, err
	}
	if kd.GTK == nil {
		return nil, errNoGTK
	}
	if kd.RSNE != nil && hs.cfg.BeaconRSNE != nil && !bytes.Equal(kd.RSNE, hs.cfg.BeaconRSNE) {
		return nil, errors.New("rsna: RSNE of message 3 differs from beacon")
	}

	rc := f.ReplayCounter
	hs.replayCounter = &rc

	msg4 := eapol.NewKeyFrame(hs.cfg.Descriptor.MICSize)
	msg4.Version = f.Version
	msg4.Info = eapol.KeyInfo(keyDescriptorVersion) | eapol.KeyInfoType | eapol.KeyInfoMIC | eapol.KeyInfoSecure
	msg4.ReplayCounter = f.ReplayCounter
	if err := eapol.UpdateMIC(hs.ptk.KCK, msg4); err != nil {
		return nil, err
	}

	hs.done = true
	return []Update{
		TxEapol{Frame: msg4},
		Key{Kind: KeyPTK, Key: hs.ptk.TK, Cipher: hs.cfg.Descriptor.Pairwise},
		Key{Kind: KeyGTK, Key: kd.GTK.Key, KeyID: kd.GTK.KeyID, Cipher: hs.cfg.Descriptor.GroupData},
		Status{Code: EstablishedSA},
	}, nil
}

// checkIntegrity verifies the bits of a frame sent by the authenticator
// against what message 1 or message 3 must carry. IEEE Std 802.11-2016,
// 12.7.2.
func (hs *FourWay) checkIntegrity(f *eapol.KeyFrame) error {
	if f.DescriptorType != eapol.DescriptorTypeIEEE80211 {
		return fmt.Errorf("rsna: unsupported descriptor type %d", f.DescriptorType)
	}
	if v := f.Info.Extract(eapol.KeyInfoDescriptorVersion); v != keyDescriptorVersion {
		return fmt.Errorf("rsna: unsupported key descriptor version %d", v)
	}
	if !f.Info.IsSet(eapol.KeyInfoType) {
		return errors.New("rsna: group key handshake is not supported")
	}

	third := isThirdMessage(f)
	if third != f.Info.IsSet(eapol.KeyInfoInstall) {
		return errors.New("rsna: unexpected Install bit")
	}
	if !f.Info.IsSet(eapol.KeyInfoACK) {
		return errors.New("rsna: ACK bit must be set by authenticator")
	}
	if third != f.Info.IsSet(eapol.KeyInfoMIC) {
		return errors.New("rsna: unexpected MIC bit")
	}
	if f.Info.IsSet(eapol.KeyInfoError) || f.Info.IsSet(eapol.KeyInfoRequest) {
		return errors.New("rsna: Error and Request bits cannot be set by authenticator")
	}
	if third != f.Info.IsSet(eapol.KeyInfoEncryptedKeyData) {
		return errors.New("rsna: unexpected encryption state of key data")
	}
	if f.Info.IsSet(eapol.KeyInfoSMKMessage) {
		return errors.New("rsna: SMK message bit set in 4-way handshake")
	}
	if int(f.KeyLength) != hs.tkLen {
		return fmt.Errorf("rsna: invalid key length %d, expected %d", f.KeyLength, hs.tkLen)
	}
	if hs.replayCounter != nil && f.ReplayCounter <= *hs.replayCounter {
		return fmt.Errorf("rsna: replayed key frame with counter %d", f.ReplayCounter)
	}
	if f.Nonce == ([32]byte{}) {
		return errors.New("rsna: nonce must not be zero")
	}
	if !third && f.RSC != 0 {
		return errors.New("rsna: RSC of message 1 must be zero")
	}
	if third && len(f.Data) == 0 {
		return errors.New("rsna: message 3 carries no key data")
	}
	return nil
}

// The authenticator sets the Secure bit only in the frame carrying the last
// key needed by the supplicant, which in the 4-way handshake is message 3.
func isThirdMessage(f *eapol.KeyFrame) bool {
	return f.Info.IsSet(eapol.KeyInfoSecure)
}
