package nats

import (
	"fmt"

	"github.com/netsampler/sflowparser/transport"
)

type NatsTransportError struct {
	Err error
}

func (e *NatsTransportError) Error() string {
	return fmt.Sprintf("nats transport: %s", e.Err.Error())
}

func (e *NatsTransportError) Unwrap() []error {
	return []error{transport.ErrTransport, e.Err}
}
