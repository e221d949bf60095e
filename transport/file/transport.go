// Package file writes messages to stdout or to a file, one per line.
// A SIGHUP reopens the file, for use with logrotate.
package file

import (
	"flag"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/netsampler/sflowparser/transport"
)

type FileDriver struct {
	fileDestination string
	lineSeparator   string
	w               io.Writer
	file            *os.File
	lock            *sync.RWMutex
	q               chan bool
}

func (d *FileDriver) Prepare() error {
	flag.StringVar(&d.fileDestination, "transport.file", "", "File/console output (empty for stdout)")
	flag.StringVar(&d.lineSeparator, "transport.file.sep", "\n", "Line separator")
	return nil
}

func (d *FileDriver) openFile() error {
	file, err := os.OpenFile(d.fileDestination, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	d.file = file
	d.w = d.file
	return nil
}

// reopen swaps the file on SIGHUP. The old file stays in use if the new one
// cannot be opened.
func (d *FileDriver) reopen() {
	d.lock.Lock()
	defer d.lock.Unlock()

	old := d.file
	if err := d.openFile(); err != nil {
		log.WithError(err).WithField("file", d.fileDestination).Error("error reopening output file")
		return
	}
	if err := old.Close(); err != nil {
		log.WithError(err).Warn("error closing previous output file")
	}
	log.WithField("file", d.fileDestination).Info("reopened output file")
}

func (d *FileDriver) Init() error {
	d.q = make(chan bool, 1)

	if d.fileDestination == "" {
		d.w = os.Stdout
		return nil
	}

	d.lock.Lock()
	err := d.openFile()
	d.lock.Unlock()
	if err != nil {
		return err
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGHUP)
	go func() {
		defer signal.Stop(c)
		for {
			select {
			case <-c:
				d.reopen()
			case <-d.q:
				return
			}
		}
	}()
	return nil
}

func (d *FileDriver) Send(key, data []byte) error {
	d.lock.RLock()
	defer d.lock.RUnlock()
	buf := make([]byte, 0, len(data)+len(d.lineSeparator))
	buf = append(buf, data...)
	buf = append(buf, d.lineSeparator...)
	if len(buf) == 0 {
		return nil
	}
	_, err := d.w.Write(buf)
	return err
}

func (d *FileDriver) Close() error {
	var closeErr error
	if d.fileDestination != "" {
		d.lock.Lock()
		closeErr = d.file.Close()
		d.lock.Unlock()
	}
	close(d.q)
	return closeErr
}

func init() {
	d := &FileDriver{
		lock: &sync.RWMutex{},
	}
	transport.RegisterTransportDriver("file", d)
}
