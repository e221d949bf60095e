package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	NAMESPACE = "sflowparser"
)

var (
	MetricTrafficBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flow_traffic_bytes",
			Help:      "Bytes received by the application.",
			Namespace: NAMESPACE,
		},
		[]string{"remote_ip", "local_ip", "local_port", "type"},
	)
	MetricTrafficPackets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flow_traffic_packets",
			Help:      "Packets received by the application.",
			Namespace: NAMESPACE},
		[]string{"remote_ip", "local_ip", "local_port", "type"},
	)
	MetricPacketSizeSum = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:      "flow_traffic_summary_size_bytes",
			Help:      "Summary of packet size.",
			Namespace: NAMESPACE, Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"remote_ip", "local_ip", "local_port", "type"},
	)
	MetricReceivedDroppedPackets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flow_dropped_packets",
			Help:      "Packets dropped before processing.",
			Namespace: NAMESPACE},
		[]string{"remote_ip", "local_ip", "local_port"},
	)
	MetricReceivedDroppedBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flow_dropped_bytes",
			Help:      "Bytes dropped before processing.",
			Namespace: NAMESPACE},
		[]string{"remote_ip", "local_ip", "local_port"},
	)
	DecoderTime = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:      "flow_summary_decoding_time_us",
			Help:      "Decoding time summary.",
			Namespace: NAMESPACE, Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"name"},
	)
	SFlowStats = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flow_process_sf_count",
			Help:      "sFlows processed.",
			Namespace: NAMESPACE},
		[]string{"router", "agent", "version"},
	)
	SFlowErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flow_process_sf_errors_count",
			Help:      "sFlows processed errors.",
			Namespace: NAMESPACE},
		[]string{"router", "error"},
	)
	SFlowSampleStatsSum = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flow_process_sf_samples_sum",
			Help:      "SFlows samples sum.",
			Namespace: NAMESPACE},
		[]string{"router", "agent", "version", "type"}, // counter, flow, expanded...
	)
	SFlowSampleRecordsStatsSum = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flow_process_sf_samples_records_sum",
			Help:      "SFlows samples sum of records.",
			Namespace: NAMESPACE},
		[]string{"router", "agent", "version", "type"},
	)
	SFlowMissingDatagrams = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:      "flow_process_sf_missing_datagrams",
			Help:      "sFlow datagrams missing from the sequence of an agent.",
			Namespace: NAMESPACE},
		[]string{"router", "agent", "sub_agent_id"},
	)
	SFlowMissingSamples = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:      "flow_process_sf_missing_samples",
			Help:      "sFlow samples missing from the sequence of a data source.",
			Namespace: NAMESPACE},
		[]string{"router", "agent", "sub_agent_id", "source_id", "type"},
	)
	SFlowSequenceResets = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "flow_process_sf_sequence_resets_count",
			Help:      "Sequence restarts of an sFlow agent.",
			Namespace: NAMESPACE},
		[]string{"router", "agent", "sub_agent_id"},
	)
	TransportMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "transport_messages_count",
			Help:      "Messages sent by a transport.",
			Namespace: NAMESPACE},
		[]string{"transport"},
	)
	TransportBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "transport_bytes_count",
			Help:      "Bytes sent by a transport.",
			Namespace: NAMESPACE},
		[]string{"transport"},
	)
	TransportErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "transport_errors_count",
			Help:      "Transport errors by kind.",
			Namespace: NAMESPACE},
		[]string{"transport", "kind"},
	)
)

func init() {
	prometheus.MustRegister(MetricTrafficBytes)
	prometheus.MustRegister(MetricTrafficPackets)
	prometheus.MustRegister(MetricPacketSizeSum)
	prometheus.MustRegister(MetricReceivedDroppedPackets)
	prometheus.MustRegister(MetricReceivedDroppedBytes)

	prometheus.MustRegister(DecoderTime)

	prometheus.MustRegister(SFlowStats)
	prometheus.MustRegister(SFlowErrors)
	prometheus.MustRegister(SFlowSampleStatsSum)
	prometheus.MustRegister(SFlowSampleRecordsStatsSum)
	prometheus.MustRegister(SFlowMissingDatagrams)
	prometheus.MustRegister(SFlowMissingSamples)
	prometheus.MustRegister(SFlowSequenceResets)

	prometheus.MustRegister(TransportMessages)
	prometheus.MustRegister(TransportBytes)
	prometheus.MustRegister(TransportErrors)
}
