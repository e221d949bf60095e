package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netsampler/sflowparser/decoders/sflow"
	"github.com/netsampler/sflowparser/producer"
	"github.com/netsampler/sflowparser/utils"
)

func TestParseListener(t *testing.T) {
	l, err := parseListener("sflow://127.0.0.1:6343?count=2&blocking=true")
	require.NoError(t, err)
	assert.Equal(t, "sflow", l.scheme)
	assert.Equal(t, "127.0.0.1", l.hostname)
	assert.Equal(t, 6343, l.port)
	assert.Equal(t, 2, l.sockets)
	assert.Equal(t, 4, l.workers)
	assert.True(t, l.blocking)
	assert.Equal(t, 0, l.queueSize)

	l, err = parseListener("sflow://:6343")
	require.NoError(t, err)
	assert.Equal(t, 1, l.sockets)
	assert.Equal(t, 1000000, l.queueSize)

	l, err = parseListener("pcap:///tmp/capture.pcap?port=6343")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/capture.pcap", l.path)
	assert.Equal(t, 6343, l.port)

	for _, addr := range []string{
		"netflow://:2055",
		"sflow://:http",
		"sflow://:6343?count=two",
		"pcap://?port=6343",
	} {
		_, err := parseListener(addr)
		assert.Error(t, err, addr)
	}
}

func TestApplyConfig(t *testing.T) {
	applyConfig(&utils.Config{
		Listen:     []string{"sflow://:6343", "sflow://:6344"},
		MaxSamples: sflow.SampleLimit(0),
		Transport:  "kafka",
		ProducerConfig: producer.ProducerConfig{
			SamplingRate: 100,
			GeoIP:        producer.GeoIPConfig{ASN: "asn.mmdb"},
		},
	})
	assert.Equal(t, "sflow://:6343,sflow://:6344", *ListenAddresses)
	require.NotNil(t, MaxSamples.Limit)
	assert.Equal(t, uint32(0), *MaxSamples.Limit)
	assert.Equal(t, "json", *Format)
	assert.Equal(t, "kafka", *Transport)
	assert.Equal(t, uint64(100), *SamplingRate)
	assert.Equal(t, "asn.mmdb", *GeoIPASN)
	assert.Equal(t, "", *GeoIPCountry)
}

func TestApplyConfigKeepsSampleLimitFlag(t *testing.T) {
	require.NoError(t, flag.Set("max-samples", "8"))
	defer func() { MaxSamples.Limit = nil }()

	applyConfig(&utils.Config{MaxSamples: sflow.SampleLimit(0)})
	require.NotNil(t, MaxSamples.Limit)
	assert.Equal(t, uint32(8), *MaxSamples.Limit)

	assert.Error(t, flag.Set("max-samples", "4294967296"))
}
