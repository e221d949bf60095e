// Package udp sends each message as one datagram. Combined with the raw
// producer and the bin format, it relays the sFlow datagrams a collector
// receives to another collector.
package udp

import (
	"errors"
	"flag"
	"net"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/netsampler/sflowparser/transport"
)

var (
	ErrNoDestination = errors.New("no destination")
	ErrTooLarge      = errors.New("message larger than mtu")
)

type UdpDriver struct {
	udpDestination string
	udpSource      string
	mtu            int
	nbrSocks       int

	udpStreamers []*net.UDPConn
	currentSock  int
	lock         *sync.Mutex
}

func (d *UdpDriver) Prepare() error {
	flag.StringVar(&d.udpDestination, "transport.udp.dst", "", "Destination host:port (eg: 127.0.0.1:6343)")
	flag.StringVar(&d.udpSource, "transport.udp.src", "", "Local source IP address")
	flag.IntVar(&d.mtu, "transport.udp.mtu", 9000, "Maximum message size; larger messages are rejected")
	flag.IntVar(&d.nbrSocks, "transport.udp.sockets", 1, "Number of sockets (one source port each) to spread the messages on")
	return nil
}

func (d *UdpDriver) Init() error {
	if d.udpDestination == "" {
		return ErrNoDestination
	}
	if d.nbrSocks < 1 {
		d.nbrSocks = 1
	}
	remoteAddr, err := net.ResolveUDPAddr("udp", d.udpDestination)
	if err != nil {
		return err
	}
	var localAddr *net.UDPAddr
	if d.udpSource != "" {
		localAddr = &net.UDPAddr{IP: net.ParseIP(d.udpSource)}
	}

	d.udpStreamers = make([]*net.UDPConn, 0, d.nbrSocks)
	for i := 0; i < d.nbrSocks; i++ {
		conn, err := net.DialUDP("udp", localAddr, remoteAddr)
		if err != nil {
			d.closeSockets()
			return err
		}
		d.udpStreamers = append(d.udpStreamers, conn)
	}
	log.WithFields(log.Fields{
		"destination": remoteAddr.String(),
		"sockets":     d.nbrSocks,
	}).Debug("udp transport ready")
	return nil
}

func (d *UdpDriver) Send(key, data []byte) error {
	if d.mtu > 0 && len(data) > d.mtu {
		return ErrTooLarge
	}
	d.lock.Lock()
	conn := d.udpStreamers[d.currentSock]
	d.currentSock = (d.currentSock + 1) % len(d.udpStreamers)
	d.lock.Unlock()

	_, err := conn.Write(data)
	return err
}

func (d *UdpDriver) closeSockets() error {
	var err error
	for _, conn := range d.udpStreamers {
		if cerr := conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	d.udpStreamers = nil
	return err
}

func (d *UdpDriver) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.closeSockets()
}

func init() {
	d := &UdpDriver{
		lock: &sync.Mutex{},
	}
	transport.RegisterTransportDriver("udp", d)
}
