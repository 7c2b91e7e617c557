// Package eapol implements the EAPOL-Key frame format used by the 802.11
// 4-way handshake. The EAPOL header is handled by gopacket; the key
// descriptor is decoded here because its MIC field has a size that depends
// on the negotiated AKM.
package eapol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// IEEE Std 802.1X-2010, 11.3
const (
	ProtocolVersion2001 uint8 = 1
	ProtocolVersion2004 uint8 = 2
)

// HeaderLen is the length of the EAPOL header.
const HeaderLen = 4

// KeyFrameBodyMinLenExclusiveMIC is the minimum length of an EAPOL-Key
// packet body excluding the MIC. IEEE Std 802.11-2016, 12.7.2, Figure 12-32.
const KeyFrameBodyMinLenExclusiveMIC = 79

// Descriptor type of an IEEE 802.11 key descriptor.
const DescriptorTypeIEEE80211 uint8 = 2

var (
	ErrNotKeyFrame = errors.New("eapol: not an EAPOL-Key frame")
	ErrShortFrame  = errors.New("eapol: short EAPOL-Key frame")
	ErrCorrupted   = errors.New("eapol: corrupted EAPOL-Key frame")
)

// KeyInfo is the key information bitmask, IEEE Std 802.11-2016, 12.7.2,
// Figure 12-33.
type KeyInfo uint16

// IsSet reports whether any bit of test is set in k.
func (k KeyInfo) IsSet(test KeyInfo) bool { return k&test != 0 }

// Extract returns the bits of k selected by mask.
func (k KeyInfo) Extract(mask KeyInfo) uint16 { return uint16(k & mask) }

// Update clears the bits in clear, then sets the bits in set.
func (k KeyInfo) Update(clear, set KeyInfo) KeyInfo { return k&^clear | set }

const (
	KeyInfoDescriptorVersion KeyInfo = 7 // Bit 0-2
	KeyInfoType              KeyInfo = 1 << 3
	// Bit 4-5 reserved
	KeyInfoInstall           KeyInfo = 1 << 6
	KeyInfoACK               KeyInfo = 1 << 7
	KeyInfoMIC               KeyInfo = 1 << 8
	KeyInfoSecure            KeyInfo = 1 << 9
	KeyInfoError             KeyInfo = 1 << 10
	KeyInfoRequest           KeyInfo = 1 << 11
	KeyInfoEncryptedKeyData  KeyInfo = 1 << 12
	KeyInfoSMKMessage        KeyInfo = 1 << 13
	// Bit 14-15 reserved
)

// A KeyFrame is an EAPOL-Key frame with an IEEE 802.11 key descriptor.
type KeyFrame struct {
	Version uint8

	DescriptorType uint8
	Info           KeyInfo
	KeyLength      uint16
	ReplayCounter  uint64
	Nonce          [32]byte
	IV             [16]byte
	RSC            uint64

	// MIC has the size dictated by the AKM.
	MIC  []byte
	Data []byte
}

// NewKeyFrame returns an empty key frame with a zeroed MIC of micSize bytes.
func NewKeyFrame(micSize int) *KeyFrame {
	return &KeyFrame{
		Version:        ProtocolVersion2001,
		DescriptorType: DescriptorTypeIEEE80211,
		MIC:            make([]byte, micSize),
	}
}

// ParseKeyFrame decodes an EAPOL PDU into a key frame.
func ParseKeyFrame(raw []byte, micSize int) (*KeyFrame, error) {
	var hdr layers.EAPOL
	if err := hdr.DecodeFromBytes(raw, gopacket.NilDecodeFeedback); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortFrame, err)
	}
	if hdr.Type != layers.EAPOLTypeKey {
		return nil, fmt.Errorf("%w: type %d", ErrNotKeyFrame, hdr.Type)
	}

	body := hdr.LayerPayload()
	if int(hdr.Length) < KeyFrameBodyMinLenExclusiveMIC+micSize {
		return nil, fmt.Errorf("%w: length %d", ErrShortFrame, hdr.Length)
	}
	if len(body) < int(hdr.Length) {
		return nil, fmt.Errorf("%w: header announces %d bytes but %d remain", ErrShortFrame, hdr.Length, len(body))
	}
	// Trailing padding beyond the announced body length is ignored.
	body = body[:hdr.Length]

	f := &KeyFrame{Version: hdr.Version}
	f.DescriptorType = body[0]
	f.Info = KeyInfo(binary.BigEndian.Uint16(body[1:3]))
	f.KeyLength = binary.BigEndian.Uint16(body[3:5])
	f.ReplayCounter = binary.BigEndian.Uint64(body[5:13])
	copy(f.Nonce[:], body[13:45])
	copy(f.IV[:], body[45:61])
	f.RSC = binary.BigEndian.Uint64(body[61:69])
	// 8 bytes reserved.
	pos := 77
	f.MIC = append([]byte(nil), body[pos:pos+micSize]...)
	pos += micSize
	dataLen := int(binary.BigEndian.Uint16(body[pos : pos+2]))
	pos += 2

	if len(body[pos:]) != dataLen {
		return nil, fmt.Errorf("%w: expected %d bytes of key data but had %d remaining", ErrCorrupted, dataLen, len(body[pos:]))
	}
	f.Data = append([]byte(nil), body[pos:]...)

	return f, nil
}

// BodyLen returns the length of the packet body following the EAPOL header.
func (f *KeyFrame) BodyLen() int {
	return KeyFrameBodyMinLenExclusiveMIC + len(f.MIC) + len(f.Data)
}

// Bytes encodes f. The packet body length and key data length are always
// derived from the frame's contents.
func (f *KeyFrame) Bytes() []byte {
	body := make([]byte, 0, f.BodyLen())
	body = append(body, f.DescriptorType)
	body = binary.BigEndian.AppendUint16(body, uint16(f.Info))
	body = binary.BigEndian.AppendUint16(body, f.KeyLength)
	body = binary.BigEndian.AppendUint64(body, f.ReplayCounter)
	body = append(body, f.Nonce[:]...)
	body = append(body, f.IV[:]...)
	body = binary.BigEndian.AppendUint64(body, f.RSC)
	body = append(body, make([]byte, 8)...)
	body = append(body, f.MIC...)
	body = binary.BigEndian.AppendUint16(body, uint16(len(f.Data)))
	body = append(body, f.Data...)

	hdr := &layers.EAPOL{
		Version: f.Version,
		Type:    layers.EAPOLTypeKey,
		Length:  uint16(len(body)),
	}
	buf := gopacket.NewSerializeBuffer()
	// Neither layer can fail to serialize.
	_ = gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, hdr, gopacket.Payload(body))
	return buf.Bytes()
}

// Clone returns a deep copy of f.
func (f *KeyFrame) Clone() *KeyFrame {
	c := *f
	c.MIC = append([]byte(nil), f.MIC...)
	c.Data = append([]byte(nil), f.Data...)
	return &c
}
