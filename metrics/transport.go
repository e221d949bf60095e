package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netsampler/sflowparser/transport"
)

// PromTransportWrapper counts the messages and bytes sent through a
// transport and its errors by kind.
type PromTransportWrapper struct {
	wrapped transport.TransportInterface
	name    string
}

var _ transport.TransportInterface = (*PromTransportWrapper)(nil)

func WrapPromTransport(wrapped transport.TransportInterface, name string) *PromTransportWrapper {
	return &PromTransportWrapper{
		wrapped: wrapped,
		name:    name,
	}
}

func (w *PromTransportWrapper) Send(key, data []byte) error {
	err := w.wrapped.Send(key, data)
	if err != nil {
		kind := "unknown"
		var driverErr *transport.DriverTransportError
		if errors.As(err, &driverErr) {
			kind = driverErr.Kind()
		}
		TransportErrors.With(
			prometheus.Labels{
				"transport": w.name,
				"kind":      kind,
			}).
			Inc()
		return err
	}
	labels := prometheus.Labels{"transport": w.name}
	TransportMessages.With(labels).Inc()
	TransportBytes.With(labels).Add(float64(len(data)))
	return nil
}
