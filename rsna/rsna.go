// Package rsna implements the security association engine used by the SME
// once associated with a protected BSS. It decodes inbound EAPOL-Key frames,
// drives a Supplicant and turns the supplicant's updates into frames to
// send and keys to install.
package rsna

import (
	"go.uber.org/zap"

	"github.com/tomiamao/wlansme/eapol"
)

// Result is the outcome of processing one EAPOL frame.
type Result uint8

// Possible Result values.
const (
	// Unchanged means the frame was dropped or produced no updates.
	Unchanged Result = iota
	// Progressed means the supplicant produced updates but no status.
	Progressed
	Established
	// BadCredentials means the supplicant reported a wrong password.
	BadCredentials
)

func (r Result) String() string {
	switch r {
	case Unchanged:
		return "Unchanged"
	case Progressed:
		return "Progressed"
	case Established:
		return "Established"
	case BadCredentials:
		return "BadCredentials"
	default:
		return "unknown"
	}
}

// Effects receives the side effects of processing a frame, in update order.
type Effects interface {
	SendEapol(f *eapol.KeyFrame)
	InstallKey(k Key)
}

// An RSNA is the security association with one BSS.
type RSNA struct {
	Descriptor *Descriptor
	Supplicant Supplicant

	logger *zap.Logger
}

// New returns an RSNA driving s under descriptor d.
func New(d *Descriptor, s Supplicant, logger *zap.Logger) *RSNA {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RSNA{Descriptor: d, Supplicant: s, logger: logger}
}

// Start starts the supplicant.
func (r *RSNA) Start() error { return r.Supplicant.Start() }

// Reset returns the supplicant to its pre-handshake state.
func (r *RSNA) Reset() { r.Supplicant.Reset() }

// ProcessFrame decodes data as an EAPOL-Key frame and hands it to the
// supplicant. Invalid frames and supplicant errors are logged and reported
// as Unchanged.
//
// All updates of a batch are applied. The first status update decides the
// result; a status that is not the last update, or a second status, is
// logged.
func (r *RSNA) ProcessFrame(data []byte, fx Effects) Result {
	f, err := eapol.ParseKeyFrame(data, r.Descriptor.MICSize)
	if err != nil {
		r.logger.Error("received invalid EAPOL key frame", zap.Error(err))
		return Unchanged
	}

	updates, err := r.Supplicant.OnEapolFrame(f)
	if err != nil {
		r.logger.Error("error processing EAPOL key frame", zap.Error(err))
		return Unchanged
	}
	if len(updates) == 0 {
		return Unchanged
	}

	result := Progressed
	decided := false
	for i, u := range updates {
		switch u := u.(type) {
		case TxEapol:
			fx.SendEapol(u.Frame)
		case Key:
			fx.InstallKey(u)
		case Status:
			if decided {
				r.logger.Warn("ignoring additional status update", zap.Stringer("status", u.Code))
				continue
			}
			decided = true
			if i != len(updates)-1 {
				r.logger.Warn("status update is not the last update of the batch",
					zap.Stringer("status", u.Code),
					zap.Int("remaining", len(updates)-1-i),
				)
			}
			switch u.Code {
			case EstablishedSA:
				result = Established
			case WrongPassword:
				result = BadCredentials
			}
		}
	}
	return result
}
