// Package crypto implements the key derivation used by the IEEE 802.11
// 4-way handshake with SHA-1 based AKMs.
package crypto

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// A PTK is a pairwise transient key split into its components.
type PTK struct {
	KCK []byte
	KEK []byte
	TK  []byte
}

// PSK derives the pre-shared key from a pass-phrase. IEEE Std 802.11-2016,
// J.4.1.
func PSK(passPhrase, ssid string) ([]byte, error) {
	// len(s) can be used because PSK always operates on ASCII characters.
	if len(passPhrase) < 8 || len(passPhrase) > 63 {
		return nil, fmt.Errorf("expected pass-phrase with 8-63 characters but got %d characters", len(passPhrase))
	}
	for _, c := range passPhrase {
		if c < 32 || c > 126 {
			return nil, fmt.Errorf("pass-phrase contains invalid character %q (%#x)", c, c)
		}
	}
	if len(ssid) == 0 || len(ssid) > 32 {
		return nil, fmt.Errorf("expected SSID with 1-32 octets but got %d", len(ssid))
	}
	return pbkdf2.Key([]byte(passPhrase), []byte(ssid), 4096, 256/8, sha1.New), nil
}

// PRF is the SHA-1 based pseudo random function, IEEE Std 802.11-2016,
// 12.7.1.2. bits must be a multiple of 8.
func PRF(k []byte, a string, b []byte, bits int) []byte {
	if bits%8 != 0 {
		panic("crypto: bits must be a multiple of 8")
	}
	h := hmac.New(sha1.New, k)
	var r bytes.Buffer
	limit := (bits + 159) / 160
	for i := 0; i <= limit; i++ {
		h.Write([]byte(a))
		h.Write([]byte{0})
		h.Write(b)
		h.Write([]byte{byte(i)})
		r.Write(h.Sum(nil))
		h.Reset()
	}
	return r.Bytes()[:bits/8]
}

// DeriveKeys computes the PTK for a PSK handshake. tkLen is the temporal key
// length of the pairwise cipher. IEEE Std 802.11-2016, 12.7.1.3.
func DeriveKeys(pmk, sAddr, aAddr, aNonce, sNonce []byte, tkLen int) PTK {
	var data bytes.Buffer
	data.Write(Min(aAddr, sAddr))
	data.Write(Max(aAddr, sAddr))
	data.Write(Min(aNonce, sNonce))
	data.Write(Max(aNonce, sNonce))

	const (
		kckLen = 16
		kekLen = 16
	)
	ptk := PRF(pmk, "Pairwise key expansion", data.Bytes(), (kckLen+kekLen+tkLen)*8)
	return PTK{
		KCK: ptk[:kckLen],
		KEK: ptk[kckLen : kckLen+kekLen],
		TK:  ptk[kckLen+kekLen:],
	}
}

// Max returns the larger of a and b interpreted as unsigned integers.
func Max(a, b []byte) []byte {
	if cmpBytes(a, b) > 0 {
		return a
	}
	return b
}

// Min returns the smaller of a and b interpreted as unsigned integers.
func Min(a, b []byte) []byte {
	if cmpBytes(a, b) < 0 {
		return a
	}
	return b
}

func cmpBytes(a, b []byte) int {
	a = bytes.TrimLeft(a, "\x00")
	b = bytes.TrimLeft(b, "\x00")

	if d := len(a) - len(b); d != 0 {
		return d
	}
	return bytes.Compare(a, b)
}
