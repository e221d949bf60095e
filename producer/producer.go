package producer

import (
	"errors"
	"net/netip"
	"time"

	"github.com/netsampler/sflowparser/decoders/sflow"
)

var (
	ErrUnknownMessage = errors.New("flow not recognized")
)

// ProducerMessage is anything a format driver can serialize.
type ProducerMessage interface{}

type ProducerInterface interface {
	Produce(msg interface{}, args *ProduceArgs) ([]ProducerMessage, error)
	Close()
}

type ProduceArgs struct {
	Src netip.AddrPort
	Dst netip.AddrPort

	TimeReceived time.Time
}

type GeoIPConfig struct {
	ASN     string `json:"asn" yaml:"asn"`
	Country string `json:"country" yaml:"country"`
}

type ProducerConfig struct {
	// SamplingRate replaces a sampling rate of 0 reported by an agent.
	SamplingRate uint64      `json:"sampling-rate" yaml:"sampling_rate"`
	GeoIP        GeoIPConfig `json:"geoip" yaml:"geoip"`
}

// SFlowProducer converts decoded sFlow datagrams into flow messages.
type SFlowProducer struct {
	samplingRate uint64
	geo          *GeoIP
}

func CreateProducerWithConfig(cfg *ProducerConfig) (*SFlowProducer, error) {
	p := &SFlowProducer{}
	if cfg == nil {
		return p, nil
	}
	p.samplingRate = cfg.SamplingRate
	geo, err := OpenGeoIP(cfg.GeoIP.ASN, cfg.GeoIP.Country)
	if err != nil {
		return nil, err
	}
	p.geo = geo
	return p, nil
}

func (p *SFlowProducer) Produce(msg interface{}, args *ProduceArgs) ([]ProducerMessage, error) {
	dg, ok := msg.(*sflow.Datagram)
	if !ok {
		return nil, ErrUnknownMessage
	}
	flowMessages, err := ProcessMessageSFlow(dg)

	out := make([]ProducerMessage, 0, len(flowMessages))
	for _, fmsg := range flowMessages {
		if args != nil && !args.TimeReceived.IsZero() {
			fmsg.TimeReceivedNs = uint64(args.TimeReceived.UnixNano())
		}
		if fmsg.SamplingRate == 0 {
			fmsg.SamplingRate = p.samplingRate
		}
		p.geo.Enrich(fmsg)
		out = append(out, fmsg)
	}
	return out, err
}

func (p *SFlowProducer) Close() {
	p.geo.Close()
}
