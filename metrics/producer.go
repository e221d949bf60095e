package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/netsampler/sflowparser/decoders/sflow"
	"github.com/netsampler/sflowparser/producer"
	"github.com/netsampler/sflowparser/utils"
)

// A backwards jump of this many datagrams or samples is an agent restart.
const maxNegativeSequenceDifference = 1000

// PromProducerWrapper counts the datagrams and samples going through a
// producer and tracks the sequence numbers of every agent and data source.
type PromProducerWrapper struct {
	wrapped producer.ProducerInterface

	datagrams *utils.MissingSequenceTracker
	samples   *utils.MissingSequenceTracker
}

var _ producer.ProducerInterface = (*PromProducerWrapper)(nil)

func WrapPromProducer(wrapped producer.ProducerInterface) *PromProducerWrapper {
	return &PromProducerWrapper{
		wrapped:   wrapped,
		datagrams: utils.NewMissingSequenceTracker(maxNegativeSequenceDifference),
		samples:   utils.NewMissingSequenceTracker(maxNegativeSequenceDifference),
	}
}

func sampleType(sample interface{}) (typeStr string, sourceID string, seq uint32, countRec int) {
	switch s := sample.(type) {
	case sflow.FlowSample:
		return "FlowSample", sourceKey(s.Header), s.Header.SampleSequenceNumber, len(s.Records)
	case sflow.CounterSample:
		return "CounterSample", sourceKey(s.Header), s.Header.SampleSequenceNumber, len(s.Records)
	case sflow.ExpandedFlowSample:
		return "ExpandedFlowSample", sourceKey(s.Header), s.Header.SampleSequenceNumber, len(s.Records)
	case sflow.ExpandedCounterSample:
		return "ExpandedCounterSample", sourceKey(s.Header), s.Header.SampleSequenceNumber, len(s.Records)
	}
	return "unknown", "", 0, 0
}

func sourceKey(h sflow.SampleHeader) string {
	return fmt.Sprintf("%d:%d", h.SourceIDType, h.SourceIDIndex)
}

func (p *PromProducerWrapper) record(key string, dg *sflow.Datagram) {
	agentStr := dg.AgentAddress.String()
	versionStr := strconv.FormatUint(uint64(dg.Version), 10)
	subAgent := strconv.FormatUint(uint64(dg.SubAgentID), 10)

	SFlowStats.With(
		prometheus.Labels{
			"router":  key,
			"agent":   agentStr,
			"version": versionStr,
		}).
		Inc()

	agentKey := key + "|" + agentStr + "|" + subAgent
	agentLabels := prometheus.Labels{
		"router":       key,
		"agent":        agentStr,
		"sub_agent_id": subAgent,
	}
	missing, reset := p.datagrams.CountMissing(agentKey, dg.SequenceNumber, 1)
	if reset {
		SFlowSequenceResets.With(agentLabels).Inc()
	}
	SFlowMissingDatagrams.With(agentLabels).Set(float64(missing))

	for _, sample := range dg.Samples {
		typeStr, sourceID, seq, countRec := sampleType(sample)
		labels := prometheus.Labels{
			"router":  key,
			"agent":   agentStr,
			"version": versionStr,
			"type":    typeStr,
		}
		SFlowSampleStatsSum.With(labels).Inc()
		SFlowSampleRecordsStatsSum.With(labels).Add(float64(countRec))

		if sourceID == "" {
			continue
		}
		missing, _ := p.samples.CountMissing(agentKey+"|"+typeStr+"|"+sourceID, seq, 1)
		SFlowMissingSamples.With(
			prometheus.Labels{
				"router":       key,
				"agent":        agentStr,
				"sub_agent_id": subAgent,
				"source_id":    sourceID,
				"type":         typeStr,
			}).
			Set(float64(missing))
	}
}

func (p *PromProducerWrapper) Produce(msg interface{}, args *producer.ProduceArgs) ([]producer.ProducerMessage, error) {
	flowMessageSet, err := p.wrapped.Produce(msg, args)
	if dg, ok := msg.(*sflow.Datagram); ok {
		key := "unk"
		if args != nil {
			key = args.Src.Addr().Unmap().String()
		}
		p.record(key, dg)
	}
	return flowMessageSet, err
}

func (p *PromProducerWrapper) Close() {
	p.wrapped.Close()
}
