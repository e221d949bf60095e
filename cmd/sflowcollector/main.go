package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/netsampler/sflowparser/decoders/sflow"

	// various formatters
	"github.com/netsampler/sflowparser/format"
	_ "github.com/netsampler/sflowparser/format/binary"
	_ "github.com/netsampler/sflowparser/format/json"
	_ "github.com/netsampler/sflowparser/format/protobuf"
	_ "github.com/netsampler/sflowparser/format/text"

	// various transports
	"github.com/netsampler/sflowparser/transport"
	_ "github.com/netsampler/sflowparser/transport/bigquery"
	_ "github.com/netsampler/sflowparser/transport/file"
	_ "github.com/netsampler/sflowparser/transport/kafka"
	_ "github.com/netsampler/sflowparser/transport/nats"
	_ "github.com/netsampler/sflowparser/transport/udp"

	// various producers
	"github.com/netsampler/sflowparser/producer"
	rawproducer "github.com/netsampler/sflowparser/producer/raw"

	// core libraries
	"github.com/netsampler/sflowparser/metrics"
	"github.com/netsampler/sflowparser/utils"
	"github.com/netsampler/sflowparser/utils/debug"
)

var (
	version    = ""
	buildinfos = ""
	AppVersion = "sflowcollector " + version + " " + buildinfos

	ConfigFile      = flag.String("config", "", "YAML configuration file (flags set on the command line take precedence)")
	ListenAddresses = flag.String("listen", "sflow://:6343", "listen addresses (sflow://host:port, pcap:///path/to/file?port=6343)")

	LogLevel = flag.String("loglevel", "info", "Log level")
	LogFmt   = flag.String("logfmt", "normal", "Log formatter")

	Produce    = flag.String("produce", "sample", "Producer method (sample or raw)")
	Format     = flag.String("format", "json", fmt.Sprintf("Choose the format (available: %s)", strings.Join(format.GetFormats(), ", ")))
	Transport  = flag.String("transport", "file", fmt.Sprintf("Choose the transport (available: %s)", strings.Join(transport.GetTransports(), ", ")))
	MaxSamples = utils.SampleLimitFlag("max-samples", "Reject datagrams declaring more samples (unset for no limit)")

	SamplingRate = flag.Uint64("sampling-rate", 0, "Sampling rate used when an agent reports 0")
	GeoIPASN     = flag.String("geoip.asn", "", "MaxMind ASN database")
	GeoIPCountry = flag.String("geoip.country", "", "MaxMind country database")

	ErrCnt = flag.Int("err.cnt", 10, "Maximum errors per batch for muting")
	ErrInt = flag.Duration("err.int", time.Second*10, "Maximum errors interval for muting")

	Addr = flag.String("addr", ":8080", "HTTP server address")

	ShutdownTimeout = flag.Duration("shutdown.timeout", time.Second*10, "Time given to the transport to flush on exit")

	MetricsPush         = flag.String("metrics.push", "", "Pushgateway address (empty to disable)")
	MetricsPushInterval = flag.Duration("metrics.push.interval", time.Minute, "Interval between pushes to the Pushgateway")

	Version = flag.Bool("v", false, "Print version")
)

// applyConfig fills the flags not given on the command line from the
// configuration file.
func applyConfig(cfg *utils.Config) {
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if !set["listen"] && len(cfg.Listen) > 0 {
		*ListenAddresses = strings.Join(cfg.Listen, ",")
	}
	if !set["max-samples"] && cfg.MaxSamples != nil {
		MaxSamples.Limit = cfg.MaxSamples
	}
	if !set["format"] && cfg.Format != "" {
		*Format = cfg.Format
	}
	if !set["transport"] && cfg.Transport != "" {
		*Transport = cfg.Transport
	}
	if !set["sampling-rate"] && cfg.SamplingRate > 0 {
		*SamplingRate = cfg.SamplingRate
	}
	if !set["geoip.asn"] && cfg.GeoIP.ASN != "" {
		*GeoIPASN = cfg.GeoIP.ASN
	}
	if !set["geoip.country"] && cfg.GeoIP.Country != "" {
		*GeoIPCountry = cfg.GeoIP.Country
	}
}

type listener struct {
	scheme   string
	hostname string
	port     int
	path     string

	sockets   int
	workers   int
	blocking  bool
	queueSize int
}

func queryUint(q url.Values, key string) (int, error) {
	if !q.Has(key) {
		return 0, nil
	}
	v, err := strconv.ParseUint(q.Get(key), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing %s in URL: %w", key, err)
	}
	return int(v), nil
}

func parseListener(listenAddress string) (*listener, error) {
	listenAddrUrl, err := url.Parse(listenAddress)
	if err != nil {
		return nil, err
	}
	q := listenAddrUrl.Query()
	l := &listener{
		scheme:   listenAddrUrl.Scheme,
		hostname: listenAddrUrl.Hostname(),
	}

	switch l.scheme {
	case "pcap":
		l.path = listenAddrUrl.Path
		if l.path == "" {
			return nil, fmt.Errorf("missing capture file in %s", listenAddress)
		}
		l.port, err = queryUint(q, "port")
		return l, err
	case "sflow":
	default:
		return nil, fmt.Errorf("scheme %s does not exist", l.scheme)
	}

	port, err := strconv.ParseUint(listenAddrUrl.Port(), 10, 16)
	if err != nil {
		return nil, fmt.Errorf("port %s could not be converted to integer", listenAddrUrl.Port())
	}
	l.port = int(port)

	if l.sockets, err = queryUint(q, "count"); err != nil {
		return nil, err
	}
	if l.sockets == 0 {
		l.sockets = 1
	}
	if l.workers, err = queryUint(q, "workers"); err != nil {
		return nil, err
	}
	if l.workers == 0 {
		l.workers = l.sockets * 2
	}
	if q.Has("blocking") {
		if l.blocking, err = strconv.ParseBool(q.Get("blocking")); err != nil {
			return nil, fmt.Errorf("error parsing blocking in URL: %w", err)
		}
	}
	if q.Has("queue_size") {
		if l.queueSize, err = queryUint(q, "queue_size"); err != nil {
			return nil, err
		}
	} else if !l.blocking {
		l.queueSize = 1000000
	}
	return l, nil
}

func logReceiverErrors(wg *sync.WaitGroup, q chan bool, recv utils.Receiver, logger *log.Entry) {
	bm := utils.NewBatchMute(*ErrInt, *ErrCnt)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-q:
				return
			case err := <-recv.Errors():
				if errors.Is(err, net.ErrClosed) {
					logger.Info("closed receiver")
					continue
				}
				entry := logger.WithError(err)
				var pErrMsg *debug.PanicErrorMessage
				if errors.As(err, &pErrMsg) {
					fields := log.Fields{
						"stacktrace": string(pErrMsg.Stacktrace),
					}
					if pErrMsg.Src.IsValid() {
						fields["src"] = pErrMsg.Src.String()
						fields["payload"] = hex.EncodeToString(pErrMsg.Payload)
					} else {
						fields["message"] = pErrMsg.Msg
					}
					entry = entry.WithFields(fields)
					bm.Log(entry, log.ErrorLevel, "intercepted panic")
					continue
				}
				bm.Log(entry.WithField("kind", metrics.ErrorLabel(err)), log.WarnLevel, "error decoding")
			}
		}
	}()
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

	if *ConfigFile != "" {
		f, err := os.Open(*ConfigFile)
		if err != nil {
			log.Fatal(err)
		}
		cfg, err := utils.LoadConfig(f)
		f.Close()
		if err != nil {
			log.WithError(err).Fatal("error loading configuration")
		}
		applyConfig(cfg)
	}

	formatter, err := format.FindFormat(*Format)
	if err != nil {
		log.Fatal(err)
	}

	transporter, err := transport.FindTransport(*Transport)
	if err != nil {
		log.Fatal(err)
	}

	if !formatter.Supports(*Produce) {
		log.WithFields(log.Fields{
			"format":   formatter.Name(),
			"producer": *Produce,
		}).Fatal("format does not serialize the messages of this producer")
	}

	var flowProducer producer.ProducerInterface
	if *Produce == "sample" {
		flowProducer, err = producer.CreateProducerWithConfig(&producer.ProducerConfig{
			SamplingRate: *SamplingRate,
			GeoIP: producer.GeoIPConfig{
				ASN:     *GeoIPASN,
				Country: *GeoIPCountry,
			},
		})
		if err != nil {
			log.WithError(err).Fatal("error producer")
		}
	} else if *Produce == "raw" {
		flowProducer = &rawproducer.RawProducer{}
	} else {
		log.WithField("producer", *Produce).Fatal("producer does not exist")
	}

	// intercept panic and generate an error
	flowProducer = debug.WrapPanicProducer(flowProducer)
	// wrap producer with Prometheus metrics
	flowProducer = metrics.WrapPromProducer(flowProducer)

	wg := &sync.WaitGroup{}

	var collecting int32
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/__health", func(wr http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&collecting) == 0 {
			wr.WriteHeader(http.StatusServiceUnavailable)
			if _, err := wr.Write([]byte("Not OK\n")); err != nil {
				log.WithError(err).Error("error writing HTTP")
			}
		} else {
			wr.WriteHeader(http.StatusOK)
			if _, err := wr.Write([]byte("OK\n")); err != nil {
				log.WithError(err).Error("error writing HTTP")
			}
		}
	})
	srv := http.Server{
		Addr:              *Addr,
		ReadHeaderTimeout: time.Second * 5,
	}
	if *Addr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := log.WithField("http", *Addr)
			err := srv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				l.WithError(err).Fatal("HTTP server error")
			}
			l.Info("closed HTTP server")
		}()
	}

	collectorMetric, err := metrics.GetOrCreate("collector")
	if err != nil {
		log.WithError(err).Fatal("error registering metrics")
	}

	log.Info("starting sflowcollector")

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	var receivers []utils.Receiver
	var pipes []utils.FlowPipe
	var replays []func()

	q := make(chan bool)
	for _, listenAddress := range strings.Split(*ListenAddresses, ",") {
		l, err := parseListener(listenAddress)
		if err != nil {
			log.WithError(err).Fatal("error parsing address")
		}

		logger := log.WithFields(log.Fields{
			"scheme":     l.scheme,
			"hostname":   l.hostname,
			"port":       l.port,
			"path":       l.path,
			"count":      l.sockets,
			"workers":    l.workers,
			"blocking":   l.blocking,
			"queue_size": l.queueSize,
		})

		p := utils.NewStateSFlow(&utils.PipeConfig{
			Format:    formatter,
			Transport: metrics.WrapPromTransport(transporter, transporter.Name()),
			Producer:  flowProducer,
			SFlow:     &sflow.Config{MaxSamples: MaxSamples.Limit},
			Logger:    logger,
		})
		pipes = append(pipes, p)

		var decodeFunc utils.DecoderFunc = p.DecodeFlow
		// intercept panic and generate error
		decodeFunc = debug.PanicDecoderWrapper(decodeFunc)
		// wrap decoder with Prometheus metrics
		decodeFunc = metrics.PromDecoderWrapper(decodeFunc, l.scheme)

		if l.scheme == "pcap" {
			recv := utils.NewPcapReceiver(uint16(l.port))
			logReceiverErrors(wg, q, recv, logger)
			receivers = append(receivers, recv)
			replays = append(replays, func() {
				f, err := os.Open(l.path)
				if err != nil {
					logger.WithError(err).Error("error opening capture")
					return
				}
				defer f.Close()
				source, err := utils.OpenCaptureFile(f)
				if err != nil {
					logger.WithError(err).Error("error reading capture")
					return
				}
				count, err := recv.Replay(source, decodeFunc)
				if err != nil {
					logger.WithError(err).Error("error replaying capture")
				}
				logger.WithField("datagrams", count).Info("capture replayed")
			})
			continue
		}

		recv, err := utils.NewUDPReceiver(&utils.UDPReceiverConfig{
			Sockets:          l.sockets,
			Workers:          l.workers,
			QueueSize:        l.queueSize,
			Blocking:         l.blocking,
			ReceiverCallback: metrics.NewReceiverMetric(),
		})
		if err != nil {
			logger.WithError(err).Fatal("error creating UDP receiver")
		}

		logger.Info("starting collection")
		if err := recv.Start(l.hostname, l.port, decodeFunc); err != nil {
			logger.WithError(err).Fatal("error starting")
		}
		logReceiverErrors(wg, q, recv, logger)
		receivers = append(receivers, recv)
	}
	collectorMetric.Metric("listeners").Set(float64(len(receivers)))

	// transport errors transmitted as a stream
	wg.Add(1)
	go func() {
		defer wg.Done()

		var transportErr <-chan error
		if transportErrorFct, ok := transporter.TransportDriver.(interface {
			Errors() <-chan error
		}); ok {
			transportErr = transportErrorFct.Errors()
		}

		bm := utils.NewBatchMute(*ErrInt, *ErrCnt)

		for {
			select {
			case <-q:
				return
			case err := <-transportErr:
				if err == nil {
					return
				}
				bm.Log(log.WithError(err), log.ErrorLevel, "transport error")
			}
		}
	}()

	if *MetricsPush != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(*MetricsPushInterval)
			defer ticker.Stop()
			for {
				select {
				case <-q:
					return
				case <-ticker.C:
					if err := metrics.Push(*MetricsPush, "sflowcollector"); err != nil {
						log.WithError(err).Warn("error pushing metrics")
					}
				}
			}
		}()
	}

	atomic.StoreInt32(&collecting, 1)
	collectorMetric.Status("collecting", metrics.StatusOK)

	if len(replays) > 0 && len(replays) == len(receivers) {
		// capture files only: stop once they are replayed
		for _, replay := range replays {
			replay()
		}
	} else {
		for _, replay := range replays {
			go replay()
		}
		<-c
	}

	atomic.StoreInt32(&collecting, 0)
	collectorMetric.Status("collecting", metrics.StatusWarn)

	// stops receivers first, udp sockets will be down
	for _, recv := range receivers {
		if err := recv.Stop(); err != nil {
			log.WithError(err).Error("error stopping receiver")
		}
	}
	// then stop pipe
	for _, pipe := range pipes {
		pipe.Close()
	}
	// close producer
	flowProducer.Close()
	// close transporter (eg: flushes message to Kafka)
	ctx, cancel := context.WithTimeout(context.Background(), *ShutdownTimeout)
	if err := transporter.Shutdown(ctx); err != nil {
		log.WithError(err).WithField("kind", metrics.ErrorLabel(err)).Error("error closing transporter")
	} else {
		log.Info("transporter closed")
	}
	cancel()
	if *MetricsPush != "" {
		if err := metrics.Push(*MetricsPush, "sflowcollector"); err != nil {
			log.WithError(err).Warn("error pushing metrics")
		}
	}
	// close http server (prometheus + health check)
	ctx, cancel = context.WithTimeout(context.Background(), time.Second*5)
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("error shutting-down HTTP server")
	}
	cancel()
	close(q) // close errors
	wg.Wait()
}
