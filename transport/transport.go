// Package transport sends simulator payloads over two independent UDP
// channels. Delivery is best effort: one datagram per send, no retries, no
// shared framing between channels.
//
// Destinations are changed with mutations, so a rebind requested while a
// tick is in progress takes effect at the next tick boundary and both
// channels of one Connect call switch together.
package transport

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"

	"golang.org/x/net/ipv4"

	"github.com/pipelined/subsim/metric"
	"github.com/pipelined/subsim/mutable"
)

const (
	// DefaultHost is the destination host used when none is configured.
	DefaultHost = "127.0.0.1"
	// DefaultInputPort is the destination port of input channel.
	DefaultInputPort = 4600
	// DefaultSignalPort is the destination port of signal channel.
	DefaultSignalPort = 4300

	network = "udp4"
)

// Channel identifies one of the transport channels.
type Channel int

const (
	// Input relays the 2-D control input.
	Input Channel = iota
	// Signal carries the projected signal bytes.
	Signal
)

func (c Channel) String() string {
	switch c {
	case Input:
		return "input"
	case Signal:
		return "signal"
	}
	return "unknown"
}

// ErrUnknownChannel is returned for channels other than Input and Signal.
var ErrUnknownChannel = errors.New("unknown channel")

// ConnectError is returned when destination cannot be resolved. Previous
// destination stays active.
type ConnectError struct {
	Channel Channel
	Address string
	Err     error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect %v channel to %s: %v", e.Channel, e.Address, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// SendError is returned when a datagram cannot be sent.
type SendError struct {
	Channel     Channel
	Destination string
	Err         error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %v channel to %s: %v", e.Channel, e.Destination, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// Config defines destinations and socket options.
type Config struct {
	Host       string
	InputPort  int
	SignalPort int
	// TOS sets IPv4 type-of-service byte on both sockets if not zero.
	TOS int
}

// Transport owns two UDP sockets, one per channel.
type Transport struct {
	mutable.Context
	ports  [2]int
	conns  [2]*net.UDPConn
	dests  [2]atomic.Pointer[net.UDPAddr]
	meters [2]metric.MeasureFunc
}

// Open binds both sockets to ephemeral local ports with broadcast enabled
// and resolves initial destinations.
func Open(cfg Config) (*Transport, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.InputPort == 0 {
		cfg.InputPort = DefaultInputPort
	}
	if cfg.SignalPort == 0 {
		cfg.SignalPort = DefaultSignalPort
	}
	t := &Transport{
		Context: mutable.Mutable(),
		ports:   [2]int{cfg.InputPort, cfg.SignalPort},
	}
	for _, ch := range []Channel{Input, Signal} {
		dest, err := Resolve(ch, cfg.Host, t.ports[ch])
		if err != nil {
			t.Close()
			return nil, err
		}
		conn, err := listen()
		if err != nil {
			t.Close()
			return nil, fmt.Errorf("bind %v channel: %w", ch, err)
		}
		t.conns[ch] = conn
		if cfg.TOS != 0 {
			if err := ipv4.NewPacketConn(conn).SetTOS(cfg.TOS); err != nil {
				t.Close()
				return nil, fmt.Errorf("set tos on %v channel: %w", ch, err)
			}
		}
		t.dests[ch].Store(dest)
		t.meters[ch] = metric.Meter(t, ch.String())()
	}
	return t, nil
}

// Resolve returns UDP address of host and port.
func Resolve(ch Channel, host string, port int) (*net.UDPAddr, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	addr, err := net.ResolveUDPAddr(network, address)
	if err != nil {
		return nil, &ConnectError{Channel: ch, Address: address, Err: err}
	}
	return addr, nil
}

// Rebind resolves new destination for the channel and returns mutation
// that switches to it. The channel keeps its current destination until
// the mutation is applied.
func (t *Transport) Rebind(ch Channel, host string, port int) (mutable.Mutation, error) {
	if ch != Input && ch != Signal {
		return mutable.Mutation{}, fmt.Errorf("rebind %v: %w", ch, ErrUnknownChannel)
	}
	addr, err := Resolve(ch, host, port)
	if err != nil {
		return mutable.Mutation{}, err
	}
	return t.Mutate(func() error {
		t.dests[ch].Store(addr)
		return nil
	}), nil
}

// Connect resolves new host for both channels keeping configured ports.
// Returned mutation switches both destinations at once.
func (t *Transport) Connect(host string) (mutable.Mutation, error) {
	var addrs [2]*net.UDPAddr
	for _, ch := range []Channel{Input, Signal} {
		addr, err := Resolve(ch, host, t.ports[ch])
		if err != nil {
			return mutable.Mutation{}, err
		}
		addrs[ch] = addr
	}
	return t.Mutate(func() error {
		t.dests[Input].Store(addrs[Input])
		t.dests[Signal].Store(addrs[Signal])
		return nil
	}), nil
}

// SendInput sends the input payload as a single datagram.
func (t *Transport) SendInput(p []byte) error {
	return t.send(Input, p)
}

// SendSignal sends the signal payload as a single datagram.
func (t *Transport) SendSignal(p []byte) error {
	return t.send(Signal, p)
}

func (t *Transport) send(ch Channel, p []byte) error {
	dest := t.dests[ch].Load()
	conn := t.conns[ch]
	if conn == nil {
		return &SendError{Channel: ch, Destination: dest.String(), Err: net.ErrClosed}
	}
	_, err := conn.WriteToUDP(p, dest)
	t.meters[ch](int64(len(p)), err)
	if err != nil {
		return &SendError{Channel: ch, Destination: dest.String(), Err: err}
	}
	return nil
}

// Destination returns current destination of the channel.
func (t *Transport) Destination(ch Channel) *net.UDPAddr {
	if ch != Input && ch != Signal {
		return nil
	}
	return t.dests[ch].Load()
}

// LocalAddr returns local address of the channel socket.
func (t *Transport) LocalAddr(ch Channel) net.Addr {
	if ch != Input && ch != Signal || t.conns[ch] == nil {
		return nil
	}
	return t.conns[ch].LocalAddr()
}

// Close releases both sockets.
func (t *Transport) Close() error {
	var errs []error
	for i := range t.conns {
		if t.conns[i] == nil {
			continue
		}
		if err := t.conns[i].Close(); err != nil {
			errs = append(errs, err)
		}
		t.conns[i] = nil
	}
	return errors.Join(errs...)
}
