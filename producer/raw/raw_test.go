package rawproducer

import (
	"encoding/json"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsampler/sflowparser/decoders/sflow"
	"github.com/netsampler/sflowparser/producer"
)

func TestRawProducer(t *testing.T) {
	dg := &sflow.Datagram{
		Version:        5,
		AgentAddress:   netip.MustParseAddr("192.0.2.1"),
		SequenceNumber: 7,
		SamplesCount:   1,
		Samples:        []interface{}{sflow.CounterSample{}},
	}
	received := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	p := &RawProducer{}
	defer p.Close()

	msgs, err := p.Produce(dg, &producer.ProduceArgs{
		Src:          netip.MustParseAddrPort("192.0.2.1:50000"),
		TimeReceived: received,
	})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	msg := msgs[0].(RawMessage)

	text, err := msg.MarshalText()
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(text), "192.0.2.1:50000: sFlow5 agent:192.0.2.1 seq:7 count:1"))

	out, err := json.Marshal(msg)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "sflow", decoded["type"])
	assert.Equal(t, "192.0.2.1:50000", decoded["src"])

	bin, err := msg.MarshalBinary()
	require.NoError(t, err)
	res := sflow.Parse(bin, nil)
	require.NoError(t, res.Err)
	assert.Equal(t, uint32(7), res.Datagrams[0].SequenceNumber)

	_, err = p.Produce("payload", nil)
	assert.ErrorIs(t, err, producer.ErrUnknownMessage)
}
