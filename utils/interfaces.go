package utils

import (
	"net/netip"
	"time"
)

type DecoderFunc func(msg interface{}) error

// Message is one received datagram. Payload is only valid for the duration
// of the decode call.
type Message struct {
	Src      netip.AddrPort
	Dst      netip.AddrPort
	Payload  []byte
	Received time.Time
}

// ReceiverCallback is notified of datagrams dropped because the dispatch
// queue was full.
type ReceiverCallback interface {
	Dropped(msg Message)
}

type Receiver interface {
	Stop() error
	Errors() <-chan error
}

type FlowPipe interface {
	DecodeFlow(msg interface{}) error
	Close()
}

// Logger is satisfied by *logrus.Logger and *logrus.Entry.
type Logger interface {
	Printf(string, ...interface{})
	Errorf(string, ...interface{})
	Warnf(string, ...interface{})
	Warn(...interface{})
	Error(...interface{})
	Debug(...interface{})
	Debugf(string, ...interface{})
	Infof(string, ...interface{})
	Fatalf(string, ...interface{})
}
