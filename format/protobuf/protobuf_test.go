package protobuf

import (
	"net/netip"
	"testing"

	"github.com/golang/protobuf/proto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/netsampler/sflowparser/format"
	"github.com/netsampler/sflowparser/producer"
)

// decodeFields collects the raw value of every field, repeated fields
// appended in order.
func decodeFields(t *testing.T, b []byte) map[protowire.Number][][]byte {
	fields := make(map[protowire.Number][][]byte)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		require.GreaterOrEqual(t, n, 0)
		b = b[n:]
		m := protowire.ConsumeFieldValue(num, typ, b)
		require.GreaterOrEqual(t, m, 0)
		fields[num] = append(fields[num], b[:m])
		b = b[m:]
	}
	return fields
}

func varint(t *testing.T, raw []byte) uint64 {
	v, n := protowire.ConsumeVarint(raw)
	require.GreaterOrEqual(t, n, 0)
	return v
}

func bytesValue(t *testing.T, raw []byte) []byte {
	v, n := protowire.ConsumeBytes(raw)
	require.GreaterOrEqual(t, n, 0)
	return v
}

func testMessage() *producer.FlowMessage {
	return &producer.FlowMessage{
		Type:           producer.FLOW_TYPE_SFLOW_5,
		SequenceNum:    12,
		SamplingRate:   1024,
		SamplerAddress: netip.MustParseAddr("192.0.2.1"),
		Bytes:          1500,
		Packets:        1,
		SrcAddr:        netip.MustParseAddr("198.51.100.1"),
		DstAddr:        netip.MustParseAddr("2001:db8::1"),
		Proto:          6,
		SrcPort:        443,
		AsPath:         []uint32{65000, 65001},
		SrcCountry:     "FR",
	}
}

func TestMarshalFlowMessage(t *testing.T) {
	fields := decodeFields(t, MarshalFlowMessage(testMessage(), false))

	assert.Equal(t, uint64(SFLOW_5), varint(t, fields[1][0]))
	assert.Equal(t, uint64(1024), varint(t, fields[3][0]))
	assert.Equal(t, uint64(12), varint(t, fields[4][0]))
	assert.Equal(t, []byte{198, 51, 100, 1}, bytesValue(t, fields[6][0]))
	assert.Len(t, bytesValue(t, fields[7][0]), 16)
	assert.Equal(t, []byte{192, 0, 2, 1}, bytesValue(t, fields[11][0]))
	assert.Equal(t, uint64(443), varint(t, fields[21][0]))
	assert.Equal(t, "FR", string(bytesValue(t, fields[202][0])))

	packed := bytesValue(t, fields[102][0])
	first, n := protowire.ConsumeVarint(packed)
	second, _ := protowire.ConsumeVarint(packed[n:])
	assert.Equal(t, []uint64{65000, 65001}, []uint64{first, second})

	// zero values are not written
	assert.NotContains(t, fields, protowire.Number(22))
	assert.NotContains(t, fields, protowire.Number(12))
	assert.NotContains(t, fields, protowire.Number(203))
}

func TestMarshalFlowMessageIPv6(t *testing.T) {
	fields := decodeFields(t, MarshalFlowMessage(testMessage(), true))
	addr, ok := netip.AddrFromSlice(bytesValue(t, fields[6][0]))
	require.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("::ffff:198.51.100.1"), addr)
}

func TestProtobufDriverFixedLen(t *testing.T) {
	d := &ProtobufDriver{fixedLen: true}
	require.NoError(t, d.Init())
	_, data, err := d.Format(testMessage())
	require.NoError(t, err)

	length, n := proto.DecodeVarint(data)
	require.NotZero(t, n)
	assert.Equal(t, uint64(len(data)-n), length)
	assert.Equal(t, MarshalFlowMessage(testMessage(), false), data[n:])
}

func TestProtobufRegistry(t *testing.T) {
	f, err := format.FindFormat("pb")
	require.NoError(t, err)
	key, _, err := f.Format(testMessage())
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.1-", string(key))

	_, _, err = f.Format("not a flow")
	assert.ErrorIs(t, err, format.ErrFormat)

	assert.True(t, f.Supports("sample"))
	assert.False(t, f.Supports("raw"))
}
