// Package transport holds the registry of output transports. Every
// formatted flow message leaves the collector through one of them.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	transportDrivers = make(map[string]TransportDriver)
	lock             = &sync.RWMutex{}

	ErrTransport = fmt.Errorf("transport error")
)

// Driver operations reported in a DriverTransportError.
const (
	OpInit  = "init"
	OpSend  = "send"
	OpClose = "close"
)

// DriverTransportError is a driver failure during one of its operations.
type DriverTransportError struct {
	Driver string
	Op     string
	Err    error
}

func (e *DriverTransportError) Error() string {
	return fmt.Sprintf("%s transport %s: %s", e.Driver, e.Op, e.Err.Error())
}

func (e *DriverTransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// Kind labels the failure as driver_op, with a _timeout suffix when the
// operation ran out of time.
func (e *DriverTransportError) Kind() string {
	kind := e.Driver + "_" + e.Op
	if errors.Is(e.Err, context.DeadlineExceeded) {
		kind += "_timeout"
	}
	return kind
}

type TransportDriver interface {
	Prepare() error              // Prepare driver (eg: flag registration)
	Init() error                 // Initialize driver (eg: start connections, open files...)
	Close() error                // Close driver (eg: flush and close connections and files...)
	Send(key, data []byte) error // Send a formatted message
}

type TransportInterface interface {
	Send(key, data []byte) error
}

type Transport struct {
	TransportDriver
	name string
}

func (t *Transport) Name() string {
	return t.name
}

func (t *Transport) Close() error {
	if err := t.TransportDriver.Close(); err != nil {
		return &DriverTransportError{t.name, OpClose, err}
	}
	return nil
}

// Shutdown closes the driver and stops waiting once ctx is done. Drivers
// flushing a batch (kafka, bigquery) may still be closing in the background.
func (t *Transport) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() {
		done <- t.Close()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return &DriverTransportError{t.name, OpClose, ctx.Err()}
	}
}

func (t *Transport) Send(key, data []byte) error {
	if err := t.TransportDriver.Send(key, data); err != nil {
		return &DriverTransportError{t.name, OpSend, err}
	}
	return nil
}

func RegisterTransportDriver(name string, t TransportDriver) {
	lock.Lock()
	transportDrivers[name] = t
	lock.Unlock()

	if err := t.Prepare(); err != nil {
		panic(err)
	}
}

// FindTransport initializes the driver registered under name. The
// transport is returned along with an Init error.
func FindTransport(name string) (*Transport, error) {
	lock.RLock()
	t, ok := transportDrivers[name]
	lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %s not found", ErrTransport, name)
	}

	err := t.Init()
	if err != nil {
		err = &DriverTransportError{name, OpInit, err}
	}
	return &Transport{t, name}, err
}

// GetTransports lists the registered names in order.
func GetTransports() []string {
	lock.RLock()
	defer lock.RUnlock()
	t := make([]string, 0, len(transportDrivers))
	for k := range transportDrivers {
		t = append(t, k)
	}
	sort.Strings(t)
	return t
}
