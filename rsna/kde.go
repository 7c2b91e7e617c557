package rsna

import (
	"bytes"
	"errors"

	"github.com/tomiamao/wlansme/rsne"
)

// IEEE Std 802.11-2016, 12.7.2, Table 12-6
const (
	kdeElementID   = 0xdd
	kdeTypeGTK     = 1
	kdeMinDataSize = 4 // OUI and data type
)

var errNoGTK = errors.New("rsna: key data carries no GTK KDE")

type gtkKDE struct {
	KeyID uint8
	Tx    bool
	Key   []byte
}

type keyData struct {
	GTK  *gtkKDE
	RSNE []byte
}

// parseKeyData extracts the GTK KDE and the RSNE from decrypted key data.
// A 0xdd octet followed by a zero length marks the start of padding.
func parseKeyData(b []byte) (*keyData, error) {
	var kd keyData
	for len(b) >= 2 {
		id, n := b[0], int(b[1])
		if id == kdeElementID && n == 0 {
			break
		}
		if len(b) < 2+n {
			return nil, errors.New("rsna: truncated element in key data")
		}
		body := b[2 : 2+n]
		b = b[2+n:]

		switch id {
		case rsne.ElementID:
			kd.RSNE = append([]byte{id, byte(n)}, body...)
		case kdeElementID:
			if n < kdeMinDataSize || !bytes.Equal(body[:3], rsne.OUIIEEE[:]) || body[3] != kdeTypeGTK {
				continue
			}
			data := body[kdeMinDataSize:]
			if len(data) < 3 {
				return nil, errors.New("rsna: GTK KDE too short")
			}
			kd.GTK = &gtkKDE{
				KeyID: data[0] & 0x03,
				Tx:    data[0]&0x04 != 0,
				Key:   append([]byte(nil), data[2:]...),
			}
		}
	}
	return &kd, nil
}
