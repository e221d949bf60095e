package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netsampler/sflowparser/decoders/sflow"
	"github.com/netsampler/sflowparser/format"
	"github.com/netsampler/sflowparser/producer"
	"github.com/netsampler/sflowparser/transport"
	"github.com/netsampler/sflowparser/utils"
)

// ErrorLabel names the stage of the pipeline that failed. Decoding errors
// are labelled with sflow.ErrorLabel.
func ErrorLabel(err error) string {
	var transportErr *transport.DriverTransportError
	var formatErr *format.DriverFormatError
	var headerErr *producer.HeaderError
	switch {
	case errors.As(err, &transportErr):
		return "transport_" + transportErr.Kind()
	case errors.As(err, &formatErr):
		return "format_" + formatErr.Driver
	case errors.As(err, &headerErr):
		return "sampled_header"
	}
	return sflow.ErrorLabel(err)
}

// PromDecoderWrapper counts the traffic given to a decoder, its decoding
// time and its errors, labelled with ErrorLabel.
func PromDecoderWrapper(wrapped utils.DecoderFunc, name string) utils.DecoderFunc {
	return func(msg interface{}) error {
		pkt, ok := msg.(*utils.Message)
		if !ok {
			return fmt.Errorf("flow is not *Message")
		}
		remote := pkt.Src.Addr().Unmap().String()
		localIP := pkt.Dst.Addr().Unmap().String()
		port := strconv.FormatUint(uint64(pkt.Dst.Port()), 10)
		size := len(pkt.Payload)

		labels := prometheus.Labels{
			"remote_ip":  remote,
			"local_ip":   localIP,
			"local_port": port,
			"type":       name,
		}
		MetricTrafficBytes.With(labels).Add(float64(size))
		MetricTrafficPackets.With(labels).Inc()
		MetricPacketSizeSum.With(labels).Observe(float64(size))

		timeTrackStart := time.Now().UTC()

		err := wrapped(msg)

		timeTrackStop := time.Now().UTC()

		DecoderTime.With(
			prometheus.Labels{
				"name": name,
			}).
			Observe(float64((timeTrackStop.Sub(timeTrackStart)).Nanoseconds()) / 1000)

		if err != nil {
			SFlowErrors.With(
				prometheus.Labels{
					"router": remote,
					"error":  ErrorLabel(err),
				}).
				Inc()
		}
		return err
	}
}
