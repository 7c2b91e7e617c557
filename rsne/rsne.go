// Package rsne parses and encodes the RSN information element, IEEE Std
// 802.11-2016, 9.4.2.25.
package rsne

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ElementID is the information element ID of the RSNE.
const ElementID = 48

// IEEE 802.11 information elements carry at most 255 octets of data.
const maxBodyLen = 255

var (
	ErrTooShort        = errors.New("rsne: element too short")
	ErrNotRSNE         = errors.New("rsne: not an RSN element")
	ErrInvalidVersion  = errors.New("rsne: invalid version")
	ErrTruncated       = errors.New("rsne: truncated suite list")
	ErrBodyTooLarge    = errors.New("rsne: element body too large")
	ErrCountTooLarge   = errors.New("rsne: suite count too large")
	ErrTruncatedPMKIDs = errors.New("rsne: truncated PMKID list")
)

// An Element is a parsed RSN element. Optional trailing fields that were
// absent on the wire are left at their zero value.
type Element struct {
	Version uint16

	// GroupData is nil if the element ended after the version field.
	GroupData *CipherSuite

	Pairwise []CipherSuite
	AKM      []AKMSuite

	// Capabilities is nil if the element ended before the capabilities field.
	Capabilities *uint16

	PMKIDs [][16]byte
}

// Parse parses a complete RSN element including its ID and length octets.
func Parse(b []byte) (*Element, error) {
	if len(b) < 2 {
		return nil, ErrTooShort
	}
	if b[0] != ElementID {
		return nil, fmt.Errorf("%w: element ID %d", ErrNotRSNE, b[0])
	}
	if len(b[2:]) < int(b[1]) {
		return nil, ErrTooShort
	}
	return ParseBody(b[2 : 2+int(b[1])])
}

// ParseBody parses the data portion of an RSN element. Counts are little
// endian while suite selectors are read big endian so that the OUI occupies
// the three most significant octets.
func ParseBody(b []byte) (*Element, error) {
	if len(b) > maxBodyLen {
		return nil, ErrBodyTooLarge
	}
	if len(b) < 2 {
		return nil, ErrTooShort
	}

	var e Element
	e.Version = binary.LittleEndian.Uint16(b[:2])
	if e.Version == 0 {
		return nil, ErrInvalidVersion
	}
	pos := 2

	if len(b) < pos+4 {
		return &e, nil
	}
	g := CipherSuite(binary.BigEndian.Uint32(b[pos : pos+4]))
	e.GroupData = &g
	pos += 4

	sels, pos, err := parseSelectors(b, pos)
	if err != nil {
		return nil, err
	}
	for _, s := range sels {
		e.Pairwise = append(e.Pairwise, CipherSuite(s))
	}

	sels, pos, err = parseSelectors(b, pos)
	if err != nil {
		return nil, err
	}
	for _, s := range sels {
		e.AKM = append(e.AKM, AKMSuite(s))
	}

	if len(b) < pos+2 {
		return &e, nil
	}
	caps := binary.LittleEndian.Uint16(b[pos : pos+2])
	e.Capabilities = &caps
	pos += 2

	if len(b) < pos+2 {
		return &e, nil
	}
	n := int(binary.LittleEndian.Uint16(b[pos : pos+2]))
	pos += 2
	if len(b) < pos+16*n {
		return nil, ErrTruncatedPMKIDs
	}
	for i := 0; i < n; i++ {
		var id [16]byte
		copy(id[:], b[pos:pos+16])
		e.PMKIDs = append(e.PMKIDs, id)
		pos += 16
	}

	return &e, nil
}

// parseSelectors reads a suite count followed by that many suite selectors.
// A missing count is not an error: the list is optional at the end of the
// element.
func parseSelectors(b []byte, pos int) ([]uint32, int, error) {
	if len(b) < pos+2 {
		return nil, pos, nil
	}
	n := int(binary.LittleEndian.Uint16(b[pos : pos+2]))
	pos += 2

	// (255-10)/4, the theoretical maximum with minimal overhead.
	if n > 61 {
		return nil, pos, ErrCountTooLarge
	}
	if len(b) < pos+4*n {
		return nil, pos, ErrTruncated
	}

	sels := make([]uint32, 0, n)
	for i := 0; i < n; i++ {
		sels = append(sels, binary.BigEndian.Uint32(b[pos:pos+4]))
		pos += 4
	}
	return sels, pos, nil
}

// Bytes encodes e as a complete information element. Optional fields are
// written up to the last one present.
func (e *Element) Bytes() []byte {
	body := binary.LittleEndian.AppendUint16(nil, e.Version)

	writeCaps := e.Capabilities != nil || len(e.PMKIDs) > 0
	writeAKM := writeCaps || len(e.AKM) > 0
	writePairwise := writeAKM || len(e.Pairwise) > 0

	if e.GroupData != nil || writePairwise {
		g := CipherSuiteCCMP128
		if e.GroupData != nil {
			g = *e.GroupData
		}
		body = binary.BigEndian.AppendUint32(body, uint32(g))
	}
	if writePairwise {
		body = binary.LittleEndian.AppendUint16(body, uint16(len(e.Pairwise)))
		for _, s := range e.Pairwise {
			body = binary.BigEndian.AppendUint32(body, uint32(s))
		}
	}
	if writeAKM {
		body = binary.LittleEndian.AppendUint16(body, uint16(len(e.AKM)))
		for _, s := range e.AKM {
			body = binary.BigEndian.AppendUint32(body, uint32(s))
		}
	}
	if writeCaps {
		var caps uint16
		if e.Capabilities != nil {
			caps = *e.Capabilities
		}
		body = binary.LittleEndian.AppendUint16(body, caps)
	}
	if len(e.PMKIDs) > 0 {
		body = binary.LittleEndian.AppendUint16(body, uint16(len(e.PMKIDs)))
		for _, id := range e.PMKIDs {
			body = append(body, id[:]...)
		}
	}

	return append([]byte{ElementID, byte(len(body))}, body...)
}
