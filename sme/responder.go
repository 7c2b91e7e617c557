package sme

// A Responder delivers exactly one value to the requester holding the
// channel returned by NewResponder.
type Responder[T any] struct {
	c    chan T
	done bool
}

// NewResponder returns a Responder and the channel its value is delivered
// on. The channel is closed after the value.
func NewResponder[T any]() (*Responder[T], <-chan T) {
	c := make(chan T, 1)
	return &Responder[T]{c: c}, c
}

// Respond delivers v. It never blocks and panics if called twice.
func (r *Responder[T]) Respond(v T) {
	if r.done {
		panic("sme: responder resolved twice")
	}
	r.done = true
	r.c <- v
	close(r.c)
}
