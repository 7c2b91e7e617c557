package eapol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testFrame() *KeyFrame {
	f := NewKeyFrame(16)
	f.Info = KeyInfo(2) | KeyInfoType | KeyInfoACK
	f.KeyLength = 16
	f.ReplayCounter = 1
	for i := range f.Nonce {
		f.Nonce[i] = byte(i + 1)
	}
	f.Data = []byte{0xdd, 0x02, 0x00, 0x0f}
	return f
}

func TestKeyFrameBytes(t *testing.T) {
	f := testFrame()
	b := f.Bytes()

	if want := HeaderLen + KeyFrameBodyMinLenExclusiveMIC + 16 + 4; len(b) != want {
		t.Fatalf("unexpected frame length: %d, want: %d", len(b), want)
	}

	// Header: version, type, body length.
	if b[0] != ProtocolVersion2001 || b[1] != 3 {
		t.Fatalf("unexpected header: % x", b[:4])
	}
	if got := binary.BigEndian.Uint16(b[2:4]); int(got) != f.BodyLen() {
		t.Fatalf("unexpected body length: %d, want: %d", got, f.BodyLen())
	}
	if b[4] != DescriptorTypeIEEE80211 {
		t.Fatalf("unexpected descriptor type: %d", b[4])
	}
	if got := binary.BigEndian.Uint16(b[5:7]); got != 0x008a {
		t.Fatalf("unexpected key info: %#04x", got)
	}
	if got := binary.BigEndian.Uint16(b[len(b)-6 : len(b)-4]); got != 4 {
		t.Fatalf("unexpected key data length: %d", got)
	}
}

func TestParseKeyFrameRoundTrip(t *testing.T) {
	for _, micSize := range []int{16, 24} {
		f := testFrame()
		f.MIC = bytes.Repeat([]byte{0xab}, micSize)
		f.RSC = 0x0102030405060708
		f.IV[15] = 1

		got, err := ParseKeyFrame(f.Bytes(), micSize)
		if err != nil {
			t.Fatalf("failed to parse frame with %d byte MIC: %v", micSize, err)
		}
		if diff := cmp.Diff(f, got); diff != "" {
			t.Fatalf("unexpected frame (-want +got):\n%s", diff)
		}
	}
}

func TestParseKeyFrameIgnoresPadding(t *testing.T) {
	f := testFrame()
	b := append(f.Bytes(), 0, 0, 0)

	got, err := ParseKeyFrame(b, 16)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if !bytes.Equal(got.Data, f.Data) {
		t.Fatalf("unexpected key data: % x", got.Data)
	}
}

func TestParseKeyFrameErrors(t *testing.T) {
	valid := testFrame().Bytes()

	notKey := append([]byte(nil), valid...)
	notKey[1] = 0 // EAP packet

	badDataLen := append([]byte(nil), valid...)
	binary.BigEndian.PutUint16(badDataLen[HeaderLen+KeyFrameBodyMinLenExclusiveMIC+16-2:], 9)

	tests := []struct {
		name string
		b    []byte
		mic  int
		err  error
	}{
		{name: "empty", b: nil, mic: 16, err: ErrShortFrame},
		{name: "header only", b: valid[:HeaderLen], mic: 16, err: ErrShortFrame},
		{name: "not a key frame", b: notKey, mic: 16, err: ErrNotKeyFrame},
		{name: "truncated body", b: valid[:len(valid)-10], mic: 16, err: ErrShortFrame},
		{name: "MIC larger than frame", b: valid, mic: 32, err: ErrShortFrame},
		{name: "key data length mismatch", b: badDataLen, mic: 16, err: ErrCorrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseKeyFrame(tt.b, tt.mic)
			if !errors.Is(err, tt.err) {
				t.Fatalf("unexpected error: %v, want: %v", err, tt.err)
			}
		})
	}
}

func TestKeyInfo(t *testing.T) {
	k := KeyInfo(2) | KeyInfoType | KeyInfoACK | KeyInfoMIC
	if got := k.Extract(KeyInfoDescriptorVersion); got != 2 {
		t.Fatalf("unexpected descriptor version: %d", got)
	}
	if !k.IsSet(KeyInfoACK) || k.IsSet(KeyInfoSecure) {
		t.Fatalf("unexpected bits in %#04x", uint16(k))
	}

	k = k.Update(KeyInfoACK, KeyInfoSecure)
	if k.IsSet(KeyInfoACK) || !k.IsSet(KeyInfoSecure) {
		t.Fatalf("unexpected bits after update: %#04x", uint16(k))
	}
}

func TestMIC(t *testing.T) {
	kck := bytes.Repeat([]byte{0x42}, 16)
	f := testFrame()
	f.Info |= KeyInfoMIC

	if HasValidMIC(kck, f) {
		t.Fatal("zero MIC must not validate")
	}
	if err := UpdateMIC(kck, f); err != nil {
		t.Fatalf("failed to update MIC: %v", err)
	}
	if !HasValidMIC(kck, f) {
		t.Fatal("expected MIC to validate")
	}

	// Validation must survive a parse.
	parsed, err := ParseKeyFrame(f.Bytes(), 16)
	if err != nil {
		t.Fatalf("failed to parse: %v", err)
	}
	if !HasValidMIC(kck, parsed) {
		t.Fatal("expected parsed MIC to validate")
	}

	if HasValidMIC(bytes.Repeat([]byte{0x43}, 16), parsed) {
		t.Fatal("MIC validated with the wrong key")
	}
	parsed.Data[0] ^= 0xff
	if HasValidMIC(kck, parsed) {
		t.Fatal("MIC validated tampered frame")
	}
}

func TestMICUnsupportedSize(t *testing.T) {
	f := testFrame()
	f.MIC = make([]byte, 24)
	if _, err := ComputeMIC([]byte{1}, f); !errors.Is(err, ErrUnsupportedMIC) {
		t.Fatalf("unexpected error: %v", err)
	}
}
