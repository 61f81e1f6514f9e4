package transport

import (
	"context"
	"fmt"
	"net"
	"syscall"
)

// listen binds a UDP socket to an ephemeral port on all interfaces with
// SO_BROADCAST set, so destinations may be broadcast addresses.
func listen() (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var serr error
			if err := c.Control(func(fd uintptr) {
				serr = setBroadcast(fd)
			}); err != nil {
				return err
			}
			if serr != nil {
				return fmt.Errorf("set broadcast: %w", serr)
			}
			return nil
		},
	}
	pc, err := lc.ListenPacket(context.Background(), network, "0.0.0.0:0")
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}
