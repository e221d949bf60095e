package rawproducer

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"time"

	"github.com/netsampler/sflowparser/decoders/sflow"
	"github.com/netsampler/sflowparser/producer"
)

// Producer that keeps the decoded datagram as is.
// This can be used for debugging (eg: looking at counter samples)
// or for relaying the datagram with the binary format.
type RawProducer struct {
}

// Raw message
type RawMessage struct {
	Message      *sflow.Datagram `json:"message"`
	Src          netip.AddrPort  `json:"src"`
	TimeReceived time.Time       `json:"time_received"`
}

func (m RawMessage) MarshalJSON() ([]byte, error) {
	tmpStruct := struct {
		Type         string          `json:"type"`
		Message      *sflow.Datagram `json:"message"`
		Src          *netip.AddrPort `json:"src"`
		TimeReceived *time.Time      `json:"time_received"`
	}{
		Type:         "sflow",
		Message:      m.Message,
		Src:          &m.Src,
		TimeReceived: &m.TimeReceived,
	}
	return json.Marshal(tmpStruct)
}

func (m RawMessage) MarshalText() ([]byte, error) {
	msgContents, err := m.Message.MarshalText()
	return []byte(fmt.Sprintf("%s %s: %s", m.TimeReceived.String(), m.Src.String(), string(msgContents))), err
}

// MarshalBinary gives back the datagram in its wire form.
func (m RawMessage) MarshalBinary() ([]byte, error) {
	return m.Message.MarshalBinary()
}

func (p *RawProducer) Produce(msg interface{}, args *producer.ProduceArgs) ([]producer.ProducerMessage, error) {
	dg, ok := msg.(*sflow.Datagram)
	if !ok {
		return nil, producer.ErrUnknownMessage
	}
	rawMsg := RawMessage{Message: dg}
	if args != nil {
		rawMsg.Src = args.Src
		rawMsg.TimeReceived = args.TimeReceived
	}
	return []producer.ProducerMessage{rawMsg}, nil
}

func (p *RawProducer) Close() {}
