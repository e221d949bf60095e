// Package format holds the registry of output formats. A driver turns a
// producer message into an optional key and a payload for the transport.
package format

import (
	"fmt"
	"sort"
	"sync"
)

var (
	formatDrivers = make(map[string]FormatDriver)
	lock          = &sync.RWMutex{}

	ErrFormat       = fmt.Errorf("format error")
	ErrNoSerializer = fmt.Errorf("message is not serializable")
)

type DriverFormatError struct {
	Driver string
	Err    error
}

func (e *DriverFormatError) Error() string {
	return fmt.Sprintf("%s format: %s", e.Driver, e.Err.Error())
}

func (e *DriverFormatError) Unwrap() []error {
	return []error{ErrFormat, e.Err}
}

type FormatDriver interface {
	Prepare() error                                  // Prepare driver (eg: flag registration)
	Init() error                                     // Initialize driver (eg: parse keying)
	Format(data interface{}) ([]byte, []byte, error) // Render a message as (key, payload)
}

// ProducerRestricted is implemented by drivers that only serialize the
// messages of some producer methods (sample, raw).
type ProducerRestricted interface {
	ProducerMethods() []string
}

type FormatInterface interface {
	Format(data interface{}) ([]byte, []byte, error)
}

type Format struct {
	FormatDriver
	name string
}

func (t *Format) Name() string {
	return t.name
}

// Supports tells if the messages of a producer method can be formatted.
func (t *Format) Supports(method string) bool {
	restricted, ok := t.FormatDriver.(ProducerRestricted)
	if !ok {
		return true
	}
	for _, m := range restricted.ProducerMethods() {
		if m == method {
			return true
		}
	}
	return false
}

func (t *Format) Format(data interface{}) ([]byte, []byte, error) {
	key, text, err := t.FormatDriver.Format(data)
	if err != nil {
		err = &DriverFormatError{t.name, err}
	}
	return key, text, err
}

func RegisterFormatDriver(name string, t FormatDriver) {
	lock.Lock()
	formatDrivers[name] = t
	lock.Unlock()

	if err := t.Prepare(); err != nil {
		panic(err)
	}
}

func FindFormat(name string) (*Format, error) {
	lock.RLock()
	t, ok := formatDrivers[name]
	lock.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %s not found", ErrFormat, name)
	}

	err := t.Init()
	if err != nil {
		err = &DriverFormatError{name, err}
	}
	return &Format{t, name}, err
}

// GetFormats lists the registered names in order.
func GetFormats() []string {
	lock.RLock()
	defer lock.RUnlock()
	t := make([]string, 0, len(formatDrivers))
	for k := range formatDrivers {
		t = append(t, k)
	}
	sort.Strings(t)
	return t
}
