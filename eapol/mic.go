package eapol

import (
	"crypto/hmac"
	"crypto/sha1"
	"errors"
)

// ErrUnsupportedMIC is returned when the frame's MIC cannot be computed with
// HMAC-SHA1-128.
var ErrUnsupportedMIC = errors.New("eapol: unsupported MIC size")

// ComputeMIC returns the HMAC-SHA1 MIC of f keyed with kck. The MIC is
// computed over the encoded frame with the MIC field zeroed, truncated to the
// frame's MIC size. IEEE Std 802.11-2016, 12.7.2, h).
func ComputeMIC(kck []byte, f *KeyFrame) ([]byte, error) {
	if len(f.MIC) == 0 || len(f.MIC) > sha1.Size {
		return nil, ErrUnsupportedMIC
	}

	zeroed := f.Clone()
	for i := range zeroed.MIC {
		zeroed.MIC[i] = 0
	}

	h := hmac.New(sha1.New, kck)
	h.Write(zeroed.Bytes())
	return h.Sum(nil)[:len(f.MIC)], nil
}

// UpdateMIC computes the MIC of f and stores it in the frame.
func UpdateMIC(kck []byte, f *KeyFrame) error {
	mic, err := ComputeMIC(kck, f)
	if err != nil {
		return err
	}
	copy(f.MIC, mic)
	return nil
}

// HasValidMIC reports whether the MIC carried by f matches the one computed
// with kck.
func HasValidMIC(kck []byte, f *KeyFrame) bool {
	mic, err := ComputeMIC(kck, f)
	if err != nil {
		return false
	}
	return hmac.Equal(mic, f.MIC)
}
