// Package binary writes sFlow datagrams back in their wire form so that a
// collector or an agent can relay them. The key is the agent address, which
// keeps an agent on a single partition of a keyed transport.
package binary

import (
	"github.com/netsampler/sflowparser/decoders/sflow"
	"github.com/netsampler/sflowparser/format"
	rawproducer "github.com/netsampler/sflowparser/producer/raw"
)

type BinaryDriver struct{}

func (d *BinaryDriver) Prepare() error {
	return nil
}

func (d *BinaryDriver) Init() error {
	return nil
}

// ProducerMethods restricts the driver to whole datagrams.
func (d *BinaryDriver) ProducerMethods() []string {
	return []string{"raw"}
}

func datagramOf(data interface{}) *sflow.Datagram {
	switch msg := data.(type) {
	case *sflow.Datagram:
		return msg
	case rawproducer.RawMessage:
		return msg.Message
	case *rawproducer.RawMessage:
		if msg != nil {
			return msg.Message
		}
	}
	return nil
}

func (d *BinaryDriver) Format(data interface{}) ([]byte, []byte, error) {
	dg := datagramOf(data)
	if dg == nil {
		return nil, nil, format.ErrNoSerializer
	}
	var key []byte
	if dg.AgentAddress.IsValid() {
		key = dg.AgentAddress.AsSlice()
	}
	text, err := sflow.EncodeMessage(dg)
	return key, text, err
}

func init() {
	d := &BinaryDriver{}
	format.RegisterFormatDriver("bin", d)
}
