package rsna

import (
	"errors"
	"fmt"

	"github.com/tomiamao/wlansme/rsne"
)

var (
	ErrNoGroupCipher  = errors.New("rsna: RSNE carries no group data cipher suite")
	ErrPairwiseCount  = errors.New("rsna: RSNE must carry exactly one pairwise cipher suite")
	ErrAKMCount       = errors.New("rsna: RSNE must carry exactly one AKM suite")
	ErrUnknownMICSize = errors.New("rsna: AKM suite has an unknown MIC size")
)

// A Descriptor is the security configuration negotiated with a BSS.
type Descriptor struct {
	GroupData rsne.CipherSuite
	Pairwise  rsne.CipherSuite
	AKM       rsne.AKMSuite

	// MICSize is the EAPOL-Key MIC length in bytes dictated by AKM.
	MICSize int
}

// NewDescriptor builds a Descriptor from the RSNE advertised by a BSS. The
// element must carry a group data cipher suite and exactly one pairwise and
// one AKM suite.
func NewDescriptor(e *rsne.Element) (*Descriptor, error) {
	if e.GroupData == nil {
		return nil, ErrNoGroupCipher
	}
	if len(e.Pairwise) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrPairwiseCount, len(e.Pairwise))
	}
	if len(e.AKM) != 1 {
		return nil, fmt.Errorf("%w: got %d", ErrAKMCount, len(e.AKM))
	}

	akm := e.AKM[0]
	mic, ok := akm.MICBytes()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMICSize, akm)
	}

	return &Descriptor{
		GroupData: *e.GroupData,
		Pairwise:  e.Pairwise[0],
		AKM:       akm,
		MICSize:   mic,
	}, nil
}

// ParseDescriptor parses a raw RSNE and builds a Descriptor from it.
func ParseDescriptor(b []byte) (*Descriptor, error) {
	e, err := rsne.Parse(b)
	if err != nil {
		return nil, err
	}
	return NewDescriptor(e)
}

// Element returns the RSNE the supplicant sends in its association request
// and in message 2 of the 4-way handshake.
func (d *Descriptor) Element() *rsne.Element {
	group := d.GroupData
	var caps uint16
	return &rsne.Element{
		Version:      1,
		GroupData:    &group,
		Pairwise:     []rsne.CipherSuite{d.Pairwise},
		AKM:          []rsne.AKMSuite{d.AKM},
		Capabilities: &caps,
	}
}
