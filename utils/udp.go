package utils

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"time"

	reuseport "github.com/libp2p/go-reuseport"
)

var (
	ErrAlreadyStarted = errors.New("receiver is already started")
	ErrNotStarted     = errors.New("receiver is not started")
)

type udpPacket struct {
	src      *net.UDPAddr
	dst      netip.AddrPort
	size     int
	payload  []byte
	received time.Time
}

var packetPool = sync.Pool{
	New: func() any {
		return &udpPacket{
			payload: make([]byte, 9000),
		}
	},
}

func (pkt *udpPacket) message() Message {
	return Message{
		Src:      pkt.src.AddrPort(),
		Dst:      pkt.dst,
		Payload:  pkt.payload[0:pkt.size],
		Received: pkt.received,
	}
}

// UDPReceiver reads datagrams on one or more SO_REUSEPORT sockets and hands
// them to a pool of workers through a queue.
type UDPReceiver struct {
	ready    chan bool
	q        chan bool
	wg       *sync.WaitGroup
	dispatch chan *udpPacket
	errCh    chan error

	decodersCnt int
	blocking    bool

	workers int
	sockets int

	cb ReceiverCallback
}

type UDPReceiverConfig struct {
	Workers   int
	Sockets   int
	Blocking  bool
	QueueSize int

	ReceiverCallback ReceiverCallback
}

var _ Receiver = (*UDPReceiver)(nil)

func NewUDPReceiver(cfg *UDPReceiverConfig) (*UDPReceiver, error) {
	r := &UDPReceiver{
		wg:      &sync.WaitGroup{},
		sockets: 2,
		workers: 2,
		ready:   make(chan bool),
		errCh:   make(chan error, 64),
	}

	dispatchSize := 1000000
	if cfg != nil {
		if cfg.Sockets <= 0 {
			cfg.Sockets = 1
		}
		if cfg.Workers <= 0 {
			cfg.Workers = cfg.Sockets
		}
		r.sockets = cfg.Sockets
		r.workers = cfg.Workers
		dispatchSize = cfg.QueueSize
		r.blocking = cfg.Blocking
		r.cb = cfg.ReceiverCallback
	}

	if dispatchSize == 0 && !r.blocking {
		return r, fmt.Errorf("cannot have a non-blocking receiver with no queue")
	}
	r.dispatch = make(chan *udpPacket, dispatchSize)

	err := r.init()
	return r, err
}

// init marks the receiver as stopped.
func (r *UDPReceiver) init() error {
	select {
	case <-r.ready:
		return ErrAlreadyStarted
	default:
		close(r.ready)
	}
	return nil
}

func (r *UDPReceiver) logError(err error) {
	select {
	case r.errCh <- err:
	default:
	}
}

// Errors returns the errors of the receiving sockets and of the decode
// function. Errors are dropped when nobody reads them.
func (r *UDPReceiver) Errors() <-chan error {
	return r.errCh
}

func (r *UDPReceiver) receive(udpconn *net.UDPConn, q chan bool) error {
	go func() {
		<-q
		udpconn.Close()
	}()

	var dst netip.AddrPort
	if localAddr, ok := udpconn.LocalAddr().(*net.UDPAddr); ok {
		dst = localAddr.AddrPort()
	}

	for {
		pkt := packetPool.Get().(*udpPacket)
		var err error
		pkt.size, pkt.src, err = udpconn.ReadFromUDP(pkt.payload)
		if err != nil {
			packetPool.Put(pkt)
			return err
		}
		if pkt.size == 0 {
			packetPool.Put(pkt)
			continue
		}
		pkt.dst = dst
		pkt.received = time.Now().UTC()

		if r.blocking {
			select {
			case r.dispatch <- pkt:
			case <-q:
				packetPool.Put(pkt)
				return nil
			}
		} else {
			select {
			case r.dispatch <- pkt:
			case <-q:
				packetPool.Put(pkt)
				return nil
			default:
				if r.cb != nil {
					r.cb.Dropped(pkt.message())
				}
				packetPool.Put(pkt)
			}
		}
	}
}

func (r *UDPReceiver) decoders(workers int, decodeFunc DecoderFunc) error {
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		r.decodersCnt += 1
		go func() {
			defer r.wg.Done()
			for pkt := range r.dispatch {
				if pkt == nil {
					return
				}
				if decodeFunc != nil {
					msg := pkt.message()
					if err := decodeFunc(&msg); err != nil {
						r.logError(err)
					}
				}
				packetPool.Put(pkt)
			}
		}()
	}
	return nil
}

// receivers opens every socket before starting to read, so a bind error is
// returned to the caller.
func (r *UDPReceiver) receivers(sockets int, addr string, port int) error {
	conns := make([]*net.UDPConn, 0, sockets)
	for i := 0; i < sockets; i++ {
		pconn, err := reuseport.ListenPacket("udp", net.JoinHostPort(addr, fmt.Sprint(port)))
		if err != nil {
			for _, c := range conns {
				c.Close()
			}
			return err
		}
		udpconn, ok := pconn.(*net.UDPConn)
		if !ok {
			pconn.Close()
			for _, c := range conns {
				c.Close()
			}
			return fmt.Errorf("not a UDP socket: %T", pconn)
		}
		conns = append(conns, udpconn)
	}

	q := r.q
	for _, udpconn := range conns {
		r.wg.Add(1)
		go func(udpconn *net.UDPConn) {
			defer r.wg.Done()
			if err := r.receive(udpconn, q); err != nil {
				select {
				case <-q:
					// closed by Stop
				default:
					r.logError(err)
				}
			}
		}(udpconn)
	}
	return nil
}

// Start opens the sockets and the workers. decodeFunc is called from the
// workers concurrently.
func (r *UDPReceiver) Start(addr string, port int, decodeFunc DecoderFunc) error {
	select {
	case <-r.ready:
		r.ready = make(chan bool)
	default:
		return ErrAlreadyStarted
	}
	r.q = make(chan bool)

	if err := r.decoders(r.workers, decodeFunc); err != nil {
		r.stopDecoders()
		return err
	}
	if err := r.receivers(r.sockets, addr, port); err != nil {
		r.stopDecoders()
		return err
	}
	return nil
}

func (r *UDPReceiver) stopDecoders() {
	close(r.q)
	for i := 0; i < r.decodersCnt; i++ {
		r.dispatch <- nil
	}
	r.wg.Wait()
	r.decodersCnt = 0
	close(r.ready)
}

// Stop closes the sockets and waits for the workers to finish the queued
// datagrams.
func (r *UDPReceiver) Stop() error {
	select {
	case <-r.ready:
		return ErrNotStarted
	default:
	}
	r.stopDecoders()
	return nil
}
