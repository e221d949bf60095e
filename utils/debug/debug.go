// Package debug turns panics in the decode path into errors carrying the
// offending message and a stack trace.
package debug

import (
	"fmt"
	"net/netip"
)

var (
	PanicError = fmt.Errorf("panic")
)

type PanicErrorMessage struct {
	Msg        interface{}
	Inner      string
	Stacktrace []byte

	// Set when the panic happened while decoding a received datagram.
	Src     netip.AddrPort
	Payload []byte
}

func (e *PanicErrorMessage) Error() string {
	return fmt.Sprintf("panic: %s", e.Inner)
}

func (e *PanicErrorMessage) Unwrap() []error {
	return []error{PanicError}
}

func recovered(msg interface{}, pErr interface{}, stack []byte) *PanicErrorMessage {
	return &PanicErrorMessage{Msg: msg, Inner: fmt.Sprint(pErr), Stacktrace: stack}
}
