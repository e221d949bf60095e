package main

import (
	"context"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/gopacket"
	log "github.com/sirupsen/logrus"

	"github.com/netsampler/sflowparser/decoders/sflow"
	"github.com/netsampler/sflowparser/format"
	_ "github.com/netsampler/sflowparser/format/binary"
	_ "github.com/netsampler/sflowparser/format/json"
	"github.com/netsampler/sflowparser/transport"
	_ "github.com/netsampler/sflowparser/transport/file"
	_ "github.com/netsampler/sflowparser/transport/udp"
	"github.com/netsampler/sflowparser/utils"
)

var (
	version    = ""
	buildinfos = ""
	AppVersion = "sflowagent " + version + " " + buildinfos

	PcapFile = flag.String("pcap", "", "Capture file to replay")
	Iface    = flag.String("iface", "", "Interface to capture from (requires the pcap build tag)")
	Snaplen  = flag.Int("snaplen", 1600, "Snapshot length")
	Promisc  = flag.Bool("promisc", true, "Enable promiscuous mode")
	Filter   = flag.String("filter", "", "BPF filter")

	SampleRate = flag.Uint("sample-rate", 1, "Sample 1/N packets (1 = keep all)")
	SampleMode = flag.String("sample-mode", "count", "Sampling mode: count or random")
	SampleSeed = flag.Int64("sample-seed", 0, "Random sampler seed (0 uses current time)")

	AgentAddress = flag.String("agent", "127.0.0.1", "Agent address written in the datagrams")
	SubAgentID   = flag.Uint("sub-agent", 0, "Sub-agent id")
	IfIndex      = flag.Uint("ifindex", 1, "Interface index of the data source")
	HeaderSize   = flag.Int("header-size", 128, "Bytes of each sampled packet kept in the header record")
	Batch        = flag.Int("batch", 8, "Flow samples per datagram")
	FlushInt     = flag.Duration("flush", time.Second, "Send pending samples after this interval")

	Format    = flag.String("format", "bin", fmt.Sprintf("Choose the format (available: %s)", strings.Join(format.GetFormats(), ", ")))
	Transport = flag.String("transport", "udp", fmt.Sprintf("Choose the transport (available: %s)", strings.Join(transport.GetTransports(), ", ")))

	LogLevel = flag.String("loglevel", "info", "Log level")
	LogFmt   = flag.String("logfmt", "normal", "Log formatter")

	Version = flag.Bool("v", false, "Print version")
)

func openSource() (utils.PacketDataSource, func(), error) {
	if *PcapFile != "" {
		f, err := os.Open(*PcapFile)
		if err != nil {
			return nil, nil, err
		}
		source, err := utils.OpenCaptureFile(f)
		if err != nil {
			f.Close()
			return nil, nil, err
		}
		return source, func() { f.Close() }, nil
	}
	if *Iface == "" {
		return nil, nil, fmt.Errorf("-pcap or -iface is required")
	}
	return utils.OpenLiveCapture(*Iface, int32(*Snaplen), *Promisc, *Filter)
}

func main() {
	flag.Parse()

	if *Version {
		fmt.Println(AppVersion)
		os.Exit(0)
	}

	lvl, err := log.ParseLevel(*LogLevel)
	if err != nil {
		log.Fatal("error parsing log level")
	}
	log.SetLevel(lvl)

	switch *LogFmt {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	}

	agentAddr, err := netip.ParseAddr(*AgentAddress)
	if err != nil {
		log.WithError(err).Fatal("error parsing agent address")
	}

	formatter, err := format.FindFormat(*Format)
	if err != nil {
		log.Fatal(err)
	}
	transporter, err := transport.FindTransport(*Transport)
	if err != nil {
		log.Fatal(err)
	}
	defer transporter.Close()

	source, closeSource, err := openSource()
	if err != nil {
		log.WithError(err).Fatal("error opening capture")
	}
	defer closeSource()

	protocol, err := headerProtocol(source.LinkType())
	if err != nil {
		log.Fatal(err)
	}

	a := &agent{
		address:    agentAddr,
		subAgentID: uint32(*SubAgentID),
		ifIndex:    uint32(*IfIndex),
		protocol:   protocol,
		rate:       uint32(*SampleRate),
		headerSize: *HeaderSize,
		batch:      *Batch,
	}
	if a.rate < 1 {
		a.rate = 1
	}
	if a.batch < 1 {
		a.batch = 1
	}
	sampler := newSampler(*SampleRate, *SampleMode, *SampleSeed)

	var sent int
	send := func(dg *sflow.Datagram) {
		if dg == nil {
			return
		}
		key, data, err := formatter.Format(dg)
		if err != nil {
			log.WithError(err).Error("error formatting datagram")
			return
		}
		if err := transporter.Send(key, data); err != nil {
			log.WithError(err).Error("error sending datagram")
			return
		}
		sent++
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	packetSource := gopacket.NewPacketSource(source, source.LinkType())
	packets := packetSource.Packets()

	ticker := time.NewTicker(*FlushInt)
	defer ticker.Stop()

	l := log.WithFields(log.Fields{
		"agent":       agentAddr.String(),
		"sample_rate": a.rate,
	})
	l.Info("starting sflowagent")
	for {
		select {
		case <-ctx.Done():
			send(a.flush(time.Now()))
			l.WithField("datagrams", sent).Info("stopping sflowagent")
			return
		case <-ticker.C:
			send(a.flush(time.Now()))
		case packet, ok := <-packets:
			if !ok {
				send(a.flush(time.Now()))
				l.WithField("datagrams", sent).Info("capture done")
				return
			}
			ts := packet.Metadata().Timestamp
			a.observe(ts)
			if sampler.allow() {
				send(a.sample(packet.Data(), packet.Metadata().Length, ts))
			}
		}
	}
}
