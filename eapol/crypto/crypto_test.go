package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("failed to decode hex: %v", err)
	}
	return b
}

// IEEE Std 802.11-2016, J.4.2
func TestPSK(t *testing.T) {
	tests := []struct {
		pass, ssid string
		want       string
	}{
		{
			pass: "password",
			ssid: "IEEE",
			want: "f42c6fc52df0ebef9ebb4b90b38a5f902e83fe1b135a70e23aed762e9710a12e",
		},
		{
			pass: "ThisIsAPassword",
			ssid: "ThisIsASSID",
			want: "0dc0d6eb90555ed6419756b9a15ec3e3209b63df707dd508d14581f8982721af",
		},
		{
			pass: strings.Repeat("a", 32),
			ssid: strings.Repeat("Z", 32),
			want: "becb93866bb8c3832cb777c2f559807c8c59afcb6eae734885001300a981cc62",
		},
	}

	for _, tt := range tests {
		t.Run(tt.ssid, func(t *testing.T) {
			got, err := PSK(tt.pass, tt.ssid)
			if err != nil {
				t.Fatalf("failed to derive PSK: %v", err)
			}
			if want := mustHex(t, tt.want); !bytes.Equal(got, want) {
				t.Fatalf("unexpected PSK:\n got: %x\nwant: %x", got, want)
			}
		})
	}
}

func TestPSKInvalid(t *testing.T) {
	tests := []struct {
		name, pass, ssid string
	}{
		{name: "short pass-phrase", pass: "short", ssid: "An SSID"},
		{name: "long pass-phrase", pass: strings.Repeat("1", 64), ssid: "SSID"},
		{name: "control character", pass: "Invalid Char \x1F", ssid: "SSID"},
		{name: "unicode", pass: "Lorem ipsum ß dolor", ssid: "SSID"},
		{name: "empty SSID", pass: "password", ssid: ""},
		{name: "long SSID", pass: "password", ssid: strings.Repeat("s", 33)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PSK(tt.pass, tt.ssid); err == nil {
				t.Fatal("expected an error")
			}
		})
	}

	if _, err := PSK("\x20ASCII Bound Test \x7E", "SSID"); err != nil {
		t.Fatalf("unexpected error for ASCII bounds: %v", err)
	}
}

// IEEE Std 802.11-2016, J.3.2 and J.6.5
func TestPRF(t *testing.T) {
	tests := []struct {
		name   string
		key    []byte
		prefix string
		data   []byte
		bits   int
		want   string
	}{
		{
			name:   "J.3.2 case 1",
			key:    bytes.Repeat([]byte{0x0b}, 20),
			prefix: "prefix",
			data:   []byte("Hi There"),
			bits:   512,
			want:   "bcd4c650b30b9684951829e0d75f9d54b862175ed9f00606e17d8da35402ffee75df78c3d31e0f889f012120c0862beb67753e7439ae242edb8373698356cf5a",
		},
		{
			name:   "J.3.2 case 2",
			key:    []byte("Jefe"),
			prefix: "prefix",
			data:   []byte("what do ya want for nothing?"),
			bits:   512,
			want:   "51f4de5b33f249adf81aeb713a3c20f4fe631446fabdfa58244759ae58ef9009a99abf4eac2ca5fa87e692c440eb40023e7babb206d61de7b92f41529092b8fc",
		},
		{
			name:   "J.3.2 case 3",
			key:    bytes.Repeat([]byte{0xaa}, 20),
			prefix: "prefix",
			data:   bytes.Repeat([]byte{0xdd}, 50),
			bits:   512,
			want:   "e1ac546ec4cb636f9976487be5c86be17a0252ca5d8d8df12cfb0473525249ce9dd8d177ead710bc9b590547239107aef7b4abd43d87f0a68f1cbd9e2b6f7607",
		},
		{
			name:   "J.6.5 case 2",
			key:    []byte("Jefe"),
			prefix: "prefix-2",
			data:   []byte("what do ya want for nothing?"),
			bits:   256,
			want:   "47c4908e30c947521ad20be9053450ecbea23d3aa604b77326d8b3825ff7475c",
		},
		{
			name:   "no bits",
			key:    bytes.Repeat([]byte{0xaa}, 20),
			prefix: "prefix",
			data:   bytes.Repeat([]byte{0xdd}, 50),
			bits:   0,
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PRF(tt.key, tt.prefix, tt.data, tt.bits)
			if want := mustHex(t, tt.want); !bytes.Equal(got, want) {
				t.Fatalf("unexpected output:\n got: %x\nwant: %x", got, want)
			}
		})
	}
}

// IEEE Std 802.11-2016, J.7.1, Table J-13 & Table J-15
func TestDeriveKeys(t *testing.T) {
	pmk := mustHex(t, "0dc0d6eb90555ed6419756b9a15ec3e3209b63df707dd508d14581f8982721af")
	aNonce := mustHex(t, "e0e1e2e3e4e5e6e7e8e9f0f1f2f3f4f5f6f7f8f9fafbfcfdfeff000102030405")
	sNonce := mustHex(t, "c0c1c2c3c4c5c6c7c8c9d0d1d2d3d4d5d6d7d8d9dadbdcdddedfe0e1e2e3e4e5")
	aa := mustHex(t, "a0a1a1a3a4a5")
	spa := mustHex(t, "b0b1b2b3b4b5")

	ptk := DeriveKeys(pmk, spa, aa, aNonce, sNonce, 16)

	for _, k := range []struct {
		name      string
		got, want []byte
	}{
		{name: "KCK", got: ptk.KCK, want: mustHex(t, "379f9852d0199236b94e407ce4c00ec8")},
		{name: "KEK", got: ptk.KEK, want: mustHex(t, "47c9edc01c2c6e5b4910caddfb3e51a7")},
		{name: "TK", got: ptk.TK, want: mustHex(t, "b2360c79e9710fdd58bea93deaf06599")},
	} {
		if !bytes.Equal(k.got, k.want) {
			t.Fatalf("unexpected %s: %x, want: %x", k.name, k.got, k.want)
		}
	}
}

func TestMinMax(t *testing.T) {
	tests := []struct {
		name         string
		small, large []byte
	}{
		{
			name:  "same length",
			small: []byte{1, 2, 3, 4, 5, 6, 7, 8, 9},
			large: []byte{1, 2, 3, 4, 6, 6, 7, 8, 9},
		},
		{
			name:  "different length",
			small: []byte{2, 3, 4, 5, 6, 7, 8, 9},
			large: []byte{1, 2, 3, 4, 6, 6, 7, 8, 9},
		},
		{
			name:  "leading zeros",
			small: []byte{0, 0, 0, 9},
			large: []byte{1, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Max(tt.small, tt.large); !bytes.Equal(got, tt.large) {
				t.Fatalf("Max = %x", got)
			}
			if got := Max(tt.large, tt.small); !bytes.Equal(got, tt.large) {
				t.Fatalf("Max = %x", got)
			}
			if got := Min(tt.small, tt.large); !bytes.Equal(got, tt.small) {
				t.Fatalf("Min = %x", got)
			}
			if got := Min(tt.large, tt.small); !bytes.Equal(got, tt.small) {
				t.Fatalf("Min = %x", got)
			}
		})
	}
}

func TestNonceReader(t *testing.T) {
	r, err := NewNonceReader([6]byte{1, 2, 3, 4, 5, 6})
	if err != nil {
		t.Fatalf("failed to create nonce reader: %v", err)
	}

	a, b := r.Next(), r.Next()
	if a == b {
		t.Fatal("nonces must differ")
	}
	if a == ([32]byte{}) || b == ([32]byte{}) {
		t.Fatal("nonce must not be zero")
	}
}

// RFC 3394, 4.1
func TestAESKeyWrap(t *testing.T) {
	kek := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	plain := mustHex(t, "00112233445566778899aabbccddeeff")
	wrapped := mustHex(t, "1fa68b0a8112b447aef34bd8fb5a7b829d3e862371d2cfe5")

	got, err := AESWrap(kek, plain)
	if err != nil {
		t.Fatalf("failed to wrap: %v", err)
	}
	if !bytes.Equal(got, wrapped) {
		t.Fatalf("unexpected wrapped key:\n got: %x\nwant: %x", got, wrapped)
	}

	got, err = AESUnwrap(kek, wrapped)
	if err != nil {
		t.Fatalf("failed to unwrap: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Fatalf("unexpected unwrapped key:\n got: %x\nwant: %x", got, plain)
	}
}

func TestAESUnwrapErrors(t *testing.T) {
	kek := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	wrapped := mustHex(t, "1fa68b0a8112b447aef34bd8fb5a7b829d3e862371d2cfe5")

	wrapped[3] ^= 0x01
	if _, err := AESUnwrap(kek, wrapped); !errors.Is(err, ErrUnwrapIntegrity) {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := AESUnwrap(kek, wrapped[:16]); err == nil {
		t.Fatal("expected an error for short input")
	}
	if _, err := AESUnwrap(kek[:5], mustHex(t, "1fa68b0a8112b447aef34bd8fb5a7b829d3e862371d2cfe5")); err == nil {
		t.Fatal("expected an error for an invalid KEK")
	}
}
