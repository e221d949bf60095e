// Package nats publishes messages on a NATS subject. When a stream name is
// set, messages go through JetStream and the stream is created (or extended
// with the subject) at startup.
package nats

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	log "github.com/sirupsen/logrus"

	"github.com/netsampler/sflowparser/transport"
)

var ErrNotInitialized = errors.New("driver not initialized")

// publisher is the subset of a NATS connection or JetStream context used to
// send a message.
type publisher interface {
	publish(subject string, data []byte) error
}

type corePublisher struct {
	nc *nats.Conn
}

func (p corePublisher) publish(subject string, data []byte) error {
	return p.nc.Publish(subject, data)
}

type jetStreamPublisher struct {
	js      jetstream.JetStream
	timeout time.Duration
}

func (p jetStreamPublisher) publish(subject string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	_, err := p.js.Publish(ctx, subject, data)
	return err
}

type NatsDriver struct {
	natsURL     string
	subject     string
	stream      string
	timeout     time.Duration
	tlsCertFile string
	tlsKeyFile  string
	tlsCAFile   string

	nc  *nats.Conn
	pub publisher
}

func (d *NatsDriver) Prepare() error {
	flag.StringVar(&d.natsURL, "transport.nats.url", nats.DefaultURL, "NATS server URL")
	flag.StringVar(&d.subject, "transport.nats.subject", "sflow.messages", "NATS subject to publish to")
	flag.StringVar(&d.stream, "transport.nats.stream", "", "JetStream stream name (empty to publish without JetStream)")
	flag.DurationVar(&d.timeout, "transport.nats.timeout", 5*time.Second, "JetStream publish and setup timeout")
	flag.StringVar(&d.tlsCertFile, "transport.nats.tls.cert", "", "NATS client certificate file")
	flag.StringVar(&d.tlsKeyFile, "transport.nats.tls.key", "", "NATS client key file")
	flag.StringVar(&d.tlsCAFile, "transport.nats.tls.ca", "", "NATS CA certificate file")
	return nil
}

func (d *NatsDriver) options() ([]nats.Option, error) {
	if (d.tlsCertFile == "") != (d.tlsKeyFile == "") {
		return nil, fmt.Errorf("tls.cert and tls.key must be set together")
	}
	opts := []nats.Option{
		nats.Name("sflowcollector"),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.WithError(err).Error("nats error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Warn("disconnected from nats")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("reconnected to nats")
		}),
	}
	if d.tlsCertFile != "" {
		opts = append(opts, nats.ClientCert(d.tlsCertFile, d.tlsKeyFile))
	}
	if d.tlsCAFile != "" {
		opts = append(opts, nats.RootCAs(d.tlsCAFile))
	}
	return opts, nil
}

func containsSubject(subjects []string, subject string) bool {
	for _, s := range subjects {
		if s == subject {
			return true
		}
	}
	return false
}

// ensureStream creates the stream, or adds the subject to an existing one.
func (d *NatsDriver) ensureStream(js jetstream.JetStream) error {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	stream, err := js.Stream(ctx, d.stream)
	if errors.Is(err, jetstream.ErrStreamNotFound) {
		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     d.stream,
			Subjects: []string{d.subject},
		})
		if err == nil {
			log.WithFields(log.Fields{
				"stream":  d.stream,
				"subject": d.subject,
			}).Info("created jetstream stream")
		}
		return err
	} else if err != nil {
		return err
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return err
	}
	if containsSubject(info.Config.Subjects, d.subject) {
		return nil
	}
	info.Config.Subjects = append(info.Config.Subjects, d.subject)
	_, err = js.UpdateStream(ctx, info.Config)
	return err
}

func (d *NatsDriver) Init() error {
	opts, err := d.options()
	if err != nil {
		return &NatsTransportError{Err: err}
	}
	nc, err := nats.Connect(d.natsURL, opts...)
	if err != nil {
		return &NatsTransportError{Err: fmt.Errorf("connect: %w", err)}
	}
	log.WithField("url", nc.ConnectedUrl()).Info("connected to nats")

	if d.stream == "" {
		d.nc = nc
		d.pub = corePublisher{nc: nc}
		return nil
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return &NatsTransportError{Err: fmt.Errorf("jetstream: %w", err)}
	}
	if err := d.ensureStream(js); err != nil {
		nc.Close()
		return &NatsTransportError{Err: fmt.Errorf("stream %s: %w", d.stream, err)}
	}
	d.nc = nc
	d.pub = jetStreamPublisher{js: js, timeout: d.timeout}
	return nil
}

func (d *NatsDriver) Send(key, data []byte) error {
	if d.pub == nil {
		return &NatsTransportError{Err: ErrNotInitialized}
	}
	if err := d.pub.publish(d.subject, data); err != nil {
		return &NatsTransportError{Err: err}
	}
	return nil
}

func (d *NatsDriver) Close() error {
	if d.nc == nil {
		return nil
	}
	err := d.nc.Drain()
	d.nc = nil
	d.pub = nil
	return err
}

func init() {
	d := &NatsDriver{}
	transport.RegisterTransportDriver("nats", d)
}
