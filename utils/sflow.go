package utils

import (
	"fmt"

	"github.com/netsampler/sflowparser/decoders/sflow"
	"github.com/netsampler/sflowparser/format"
	"github.com/netsampler/sflowparser/producer"
	"github.com/netsampler/sflowparser/transport"
)

type PipeConfig struct {
	Format    format.FormatInterface
	Transport transport.TransportInterface
	Producer  producer.ProducerInterface

	SFlow  *sflow.Config
	Logger Logger
}

// PipeMessageError ties a decode, produce or send error to the datagram
// that caused it.
type PipeMessageError struct {
	Message *Message
	Err     error
}

func (e *PipeMessageError) Error() string {
	return fmt.Sprintf("message from %s %s", e.Message.Src.String(), e.Err.Error())
}

func (e *PipeMessageError) Unwrap() error {
	return e.Err
}

// StateSFlow decodes the payloads given by a receiver, then passes every
// datagram through the producer, the format and the transport.
type StateSFlow struct {
	Format    format.FormatInterface
	Transport transport.TransportInterface
	Producer  producer.ProducerInterface

	Logger Logger

	parser *sflow.Parser
}

var _ FlowPipe = (*StateSFlow)(nil)

func NewStateSFlow(cfg *PipeConfig) *StateSFlow {
	s := &StateSFlow{}
	if cfg == nil {
		s.parser = sflow.NewParser(nil)
		return s
	}
	s.Format = cfg.Format
	s.Transport = cfg.Transport
	s.Producer = cfg.Producer
	s.Logger = cfg.Logger
	s.parser = sflow.NewParser(cfg.SFlow)
	return s
}

func (s *StateSFlow) formatSend(flowMessageSet []producer.ProducerMessage) error {
	if s.Format == nil {
		return nil
	}
	for _, msg := range flowMessageSet {
		key, data, err := s.Format.Format(msg)
		if err != nil {
			return err
		}
		if s.Transport != nil {
			if err = s.Transport.Send(key, data); err != nil {
				return err
			}
		}
	}
	return nil
}

// DecodeFlow handles a *Message. The datagrams decoded before a parse
// error are still produced; the parse error is returned afterwards. The
// messages of a datagram are sent even when producing it partly failed.
func (s *StateSFlow) DecodeFlow(msg interface{}) error {
	pkt, ok := msg.(*Message)
	if !ok {
		return fmt.Errorf("flow is not *Message")
	}

	res := s.parser.Parse(pkt.Payload)
	if s.Logger != nil && res.Err == nil {
		s.Logger.Debugf("decoded %d datagram(s) from %s", len(res.Datagrams), pkt.Src)
	}
	if s.Producer != nil {
		args := producer.ProduceArgs{
			Src:          pkt.Src,
			Dst:          pkt.Dst,
			TimeReceived: pkt.Received,
		}
		var produceErr error
		for _, dg := range res.Datagrams {
			flowMessageSet, err := s.Producer.Produce(dg, &args)
			if err != nil && produceErr == nil {
				produceErr = err
			}
			if err := s.formatSend(flowMessageSet); err != nil {
				return &PipeMessageError{pkt, err}
			}
		}
		if produceErr != nil {
			return &PipeMessageError{pkt, produceErr}
		}
	}
	if res.Err != nil {
		return &PipeMessageError{pkt, res.Err}
	}
	return nil
}

// Close leaves the producer open: it is shared between listeners.
func (s *StateSFlow) Close() {
}
