package udp

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUdpDriverSend(t *testing.T) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	defer conn.Close()

	d := &UdpDriver{
		udpDestination: conn.LocalAddr().String(),
		mtu:            1500,
		nbrSocks:       2,
		lock:           &sync.Mutex{},
	}
	require.NoError(t, d.Init())
	defer d.Close()

	require.NoError(t, d.Send(nil, []byte("first")))
	require.NoError(t, d.Send(nil, []byte("second")))

	buf := make([]byte, 1500)
	ports := make(map[int]bool)
	var payloads []string
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, src, err := conn.ReadFromUDP(buf)
		require.NoError(t, err)
		payloads = append(payloads, string(buf[:n]))
		ports[src.Port] = true
	}
	assert.ElementsMatch(t, []string{"first", "second"}, payloads)
	assert.Len(t, ports, 2)

	assert.True(t, errors.Is(d.Send(nil, make([]byte, 1501)), ErrTooLarge))
}

func TestUdpDriverNoDestination(t *testing.T) {
	d := &UdpDriver{lock: &sync.Mutex{}}
	assert.True(t, errors.Is(d.Init(), ErrNoDestination))
}
