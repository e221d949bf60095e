package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/netsampler/sflowparser/decoders/sflow"
	"github.com/netsampler/sflowparser/utils"
)

var (
	version    = ""
	buildinfos = ""
	AppVersion = "sflowdump " + version + " " + buildinfos

	PcapFile   = flag.Bool("pcap", false, "Input is a pcap or pcapng capture")
	Port       = flag.Uint("port", 6343, "UDP destination port kept from the capture (0 for all)")
	Hex        = flag.Bool("hex", false, "Input is hexadecimal text")
	MaxSamples = utils.SampleLimitFlag("max-samples", "Reject datagrams declaring more samples (unset for no limit)")
	Indent     = flag.Bool("indent", false, "Indent the JSON output")

	LogLevel = flag.String("loglevel", "info", "Log level")

	Version = flag.Bool("v", false, "Print version")
)

type dumper struct {
	parser *sflow.Parser
	enc    *json.Encoder
	failed int
}

func newDumper(w io.Writer, cfg *sflow.Config, indent bool) *dumper {
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	return &dumper{
		parser: sflow.NewParser(cfg),
		enc:    enc,
	}
}

// dump writes the parse result of one buffer as a JSON document.
func (d *dumper) dump(payload []byte) error {
	res := d.parser.Parse(payload)
	if res.Err != nil {
		d.failed++
	}
	return d.enc.Encode(res)
}

func (d *dumper) DecodeFlow(msg interface{}) error {
	pkt, ok := msg.(*utils.Message)
	if !ok {
		return fmt.Errorf("flow is not *Message")
	}
	log.WithFields(log.Fields{
		"src":  pkt.Src.String(),
		"time": pkt.Received,
	}).Debug("datagram")
	return d.dump(pkt.Payload)
}

func readPayload(r io.Reader, isHex bool) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if !isHex {
		return data, nil
	}
	return hex.DecodeString(string(bytes.Join(bytes.Fields(data), nil)))
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

	var in io.Reader = os.Stdin
	if flag.NArg() > 0 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		in = f
	}

	d := newDumper(os.Stdout, &sflow.Config{MaxSamples: MaxSamples.Limit}, *Indent)

	if *PcapFile {
		source, err := utils.OpenCaptureFile(in)
		if err != nil {
			log.WithError(err).Fatal("error reading capture")
		}
		recv := utils.NewPcapReceiver(uint16(*Port))
		count, err := recv.Replay(source, d.DecodeFlow)
		if err != nil {
			log.WithError(err).Error("error replaying capture")
		}
		log.WithFields(log.Fields{
			"datagrams": count,
			"failed":    d.failed,
		}).Info("capture decoded")
	} else {
		payload, err := readPayload(in, *Hex)
		if err != nil {
			log.WithError(err).Fatal("error reading input")
		}
		if err := d.dump(payload); err != nil {
			log.WithError(err).Fatal("error writing output")
		}
	}

	if d.failed > 0 {
		os.Exit(1)
	}
}
