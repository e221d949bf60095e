package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	sarama "github.com/Shopify/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/netsampler/sflowparser/transport"
)

type KafkaDriver struct {
	kafkaTLS            bool
	kafkaSASL           string
	kafkaTopic          string
	kafkaSrv            string
	kafkaBrk            string
	kafkaMaxMsgBytes    int
	kafkaFlushBytes     int
	kafkaFlushFrequency time.Duration

	kafkaLogErrors bool

	kafkaHashing          bool
	kafkaVersion          string
	kafkaCompressionCodec string

	producer sarama.AsyncProducer

	q chan bool
}

type KafkaSASLAlgorithm string

const (
	KAFKA_SASL_NONE         KafkaSASLAlgorithm = "none"
	KAFKA_SASL_PLAIN        KafkaSASLAlgorithm = "plain"
	KAFKA_SASL_SCRAM_SHA256 KafkaSASLAlgorithm = "scram-sha256"
	KAFKA_SASL_SCRAM_SHA512 KafkaSASLAlgorithm = "scram-sha512"
)

var (
	compressionCodecs = map[string]sarama.CompressionCodec{
		strings.ToLower(sarama.CompressionNone.String()):   sarama.CompressionNone,
		strings.ToLower(sarama.CompressionGZIP.String()):   sarama.CompressionGZIP,
		strings.ToLower(sarama.CompressionSnappy.String()): sarama.CompressionSnappy,
		strings.ToLower(sarama.CompressionLZ4.String()):    sarama.CompressionLZ4,
		strings.ToLower(sarama.CompressionZSTD.String()):   sarama.CompressionZSTD,
	}

	saslAlgorithmsList = []string{
		string(KAFKA_SASL_NONE),
		string(KAFKA_SASL_PLAIN),
		string(KAFKA_SASL_SCRAM_SHA256),
		string(KAFKA_SASL_SCRAM_SHA512),
	}

	ErrCompressionCodec = errors.New("compression codec does not exist")
	ErrSASLAlgorithm    = errors.New("SASL algorithm does not exist")
	ErrSASLCredentials  = errors.New("KAFKA_SASL_USER and KAFKA_SASL_PASS need to be set")
)

func (d *KafkaDriver) Prepare() error {
	flag.BoolVar(&d.kafkaTLS, "transport.kafka.tls", false, "Use TLS to connect to Kafka")
	flag.StringVar(&d.kafkaSASL, "transport.kafka.sasl", "none",
		fmt.Sprintf(
			"Use SASL to connect to Kafka, available settings: %s (TLS is recommended and the environment variables KAFKA_SASL_USER and KAFKA_SASL_PASS need to be set)",
			strings.Join(saslAlgorithmsList, ", ")))

	flag.StringVar(&d.kafkaTopic, "transport.kafka.topic", "sflow-messages", "Kafka topic to produce to")
	flag.StringVar(&d.kafkaSrv, "transport.kafka.srv", "", "SRV record containing a list of Kafka brokers (or use brokers)")
	flag.StringVar(&d.kafkaBrk, "transport.kafka.brokers", "127.0.0.1:9092,[::1]:9092", "Kafka brokers list separated by commas")
	flag.IntVar(&d.kafkaMaxMsgBytes, "transport.kafka.maxmsgbytes", 1000000, "Kafka max message bytes")
	flag.IntVar(&d.kafkaFlushBytes, "transport.kafka.flushbytes", int(sarama.MaxRequestSize), "Kafka flush bytes")
	flag.DurationVar(&d.kafkaFlushFrequency, "transport.kafka.flushfreq", time.Second*5, "Kafka flush frequency")

	flag.BoolVar(&d.kafkaLogErrors, "transport.kafka.log.err", false, "Log Kafka errors")
	flag.BoolVar(&d.kafkaHashing, "transport.kafka.hashing", false, "Enable partition hashing on the message key (see -format.hash)")

	flag.StringVar(&d.kafkaVersion, "transport.kafka.version", "2.8.0", "Kafka version")
	flag.StringVar(&d.kafkaCompressionCodec, "transport.kafka.compression", "", "Kafka default compression")

	return nil
}

// configureSASL reads the credentials from the environment.
func configureSASL(kafkaConfig *sarama.Config, algorithm string) error {
	kafkaSASL := KafkaSASLAlgorithm(strings.ToLower(algorithm))
	switch kafkaSASL {
	case "", KAFKA_SASL_NONE:
		return nil
	case KAFKA_SASL_PLAIN, KAFKA_SASL_SCRAM_SHA256, KAFKA_SASL_SCRAM_SHA512:
	default:
		return fmt.Errorf("%w: %s", ErrSASLAlgorithm, algorithm)
	}

	kafkaConfig.Net.SASL.Enable = true
	kafkaConfig.Net.SASL.User = os.Getenv("KAFKA_SASL_USER")
	kafkaConfig.Net.SASL.Password = os.Getenv("KAFKA_SASL_PASS")
	if kafkaConfig.Net.SASL.User == "" && kafkaConfig.Net.SASL.Password == "" {
		return ErrSASLCredentials
	}

	switch kafkaSASL {
	case KAFKA_SASL_SCRAM_SHA512:
		kafkaConfig.Net.SASL.Handshake = true
		kafkaConfig.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &XDGSCRAMClient{HashGeneratorFcn: SHA512}
		}
		kafkaConfig.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
	case KAFKA_SASL_SCRAM_SHA256:
		kafkaConfig.Net.SASL.Handshake = true
		kafkaConfig.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &XDGSCRAMClient{HashGeneratorFcn: SHA256}
		}
		kafkaConfig.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
	}
	return nil
}

func (d *KafkaDriver) config() (*sarama.Config, error) {
	kafkaConfigVersion, err := sarama.ParseKafkaVersion(d.kafkaVersion)
	if err != nil {
		return nil, err
	}

	kafkaConfig := sarama.NewConfig()
	kafkaConfig.Version = kafkaConfigVersion
	kafkaConfig.Producer.Return.Successes = false
	kafkaConfig.Producer.Return.Errors = d.kafkaLogErrors
	kafkaConfig.Producer.MaxMessageBytes = d.kafkaMaxMsgBytes
	kafkaConfig.Producer.Flush.Bytes = d.kafkaFlushBytes
	kafkaConfig.Producer.Flush.Frequency = d.kafkaFlushFrequency

	if d.kafkaCompressionCodec != "" {
		cc, ok := compressionCodecs[strings.ToLower(d.kafkaCompressionCodec)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrCompressionCodec, d.kafkaCompressionCodec)
		}
		kafkaConfig.Producer.Compression = cc
	}

	if d.kafkaTLS {
		rootCAs, err := x509.SystemCertPool()
		if err != nil {
			return nil, fmt.Errorf("error initializing TLS: %w", err)
		}
		kafkaConfig.Net.TLS.Enable = true
		kafkaConfig.Net.TLS.Config = &tls.Config{RootCAs: rootCAs}
	}

	if d.kafkaHashing {
		kafkaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	}

	if err := configureSASL(kafkaConfig, d.kafkaSASL); err != nil {
		return nil, err
	}
	return kafkaConfig, nil
}

func (d *KafkaDriver) Init() error {
	kafkaConfig, err := d.config()
	if err != nil {
		return err
	}

	var addrs []string
	if d.kafkaSrv != "" {
		if addrs, err = GetServiceAddresses(d.kafkaSrv); err != nil {
			return err
		}
	} else {
		addrs = strings.Split(d.kafkaBrk, ",")
	}

	kafkaProducer, err := sarama.NewAsyncProducer(addrs, kafkaConfig)
	if err != nil {
		return err
	}
	d.start(kafkaProducer)
	return nil
}

func (d *KafkaDriver) start(kafkaProducer sarama.AsyncProducer) {
	d.producer = kafkaProducer
	d.q = make(chan bool)

	if d.kafkaLogErrors {
		go func() {
			for {
				select {
				case msg := <-kafkaProducer.Errors():
					if msg != nil {
						log.WithError(msg.Err).WithField("topic", msg.Msg.Topic).Error("error producing to kafka")
					}
				case <-d.q:
					return
				}
			}
		}()
	}
}

func (d *KafkaDriver) Send(key, data []byte) error {
	msg := &sarama.ProducerMessage{
		Topic: d.kafkaTopic,
		Value: sarama.ByteEncoder(data),
	}
	if len(key) > 0 {
		msg.Key = sarama.ByteEncoder(key)
	}
	d.producer.Input() <- msg
	return nil
}

func (d *KafkaDriver) Close() error {
	err := d.producer.Close()
	close(d.q)
	return err
}

func GetServiceAddresses(srv string) (addrs []string, err error) {
	_, srvs, err := net.LookupSRV("", "", srv)
	if err != nil {
		return nil, fmt.Errorf("service discovery: %w", err)
	}
	for _, srv := range srvs {
		addrs = append(addrs, net.JoinHostPort(srv.Target, strconv.Itoa(int(srv.Port))))
	}
	return addrs, nil
}

func init() {
	d := &KafkaDriver{}
	transport.RegisterTransportDriver("kafka", d)
}
