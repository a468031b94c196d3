// Owns the single TCP connection to the waveform collector.
package collector

import (
	"errors"
	"fmt"
	"net"
	"time"

	"trace-relay/pkg/packet"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidTag       = errors.New("tag limited to 10 characters")
	ErrConnectionFailed = errors.New("could not connect to collector")
	ErrSendFailed       = errors.New("send to collector failed")
)

const (
	connectAttempts = 3
	connectBackoff  = time.Second
)

type state int

const (
	stateUnopened state = iota
	stateOpen
	stateClosed
)

// Client wraps one TCP connection to the collector. A client carries a
// single session: opened once, closed for good, never reused. It is not safe
// for concurrent use.
type Client struct {
	host string
	port int

	dial  func(network, address string) (net.Conn, error)
	sleep func(time.Duration)

	conn  net.Conn
	state state
}

func NewClient(host string, port int) *Client {
	return NewClientWithTransport(host, port, net.Dial, time.Sleep)
}

// NewClientWithTransport builds a client with its dialer and backoff delay
// injected, so tests can stub the network and skip the real sleeps.
func NewClientWithTransport(host string, port int, dial func(network, address string) (net.Conn, error), sleep func(time.Duration)) *Client {
	return &Client{
		host:  host,
		port:  port,
		dial:  dial,
		sleep: sleep,
	}
}

// Open connects to the collector and transmits the session tag packet before
// returning. Connecting is attempted 3 times with a one second pause in
// between; anything failing after that point is fatal for this client.
func (c *Client) Open(tag string) error {
	if len(tag) > packet.MaxTagSize {
		return fmt.Errorf("%w: %q", ErrInvalidTag, tag)
	}
	if c.state != stateUnopened {
		return fmt.Errorf("%w: client already used", ErrConnectionFailed)
	}

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	var conn net.Conn
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		conn, err = c.dial("tcp", addr)
		if err == nil {
			break
		}
		logrus.Warnf("Could not connect to collector %s (attempt %d/%d): %v",
			addr, attempt, connectAttempts, err)
		if attempt < connectAttempts {
			c.sleep(connectBackoff)
		}
	}
	if err != nil {
		c.state = stateClosed
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	buf, err := packet.EncodeTag(tag)
	if err != nil {
		conn.Close()
		c.state = stateClosed
		return fmt.Errorf("%w: encoding tag: %v", ErrSendFailed, err)
	}
	if _, err := conn.Write(buf); err != nil {
		conn.Close()
		c.state = stateClosed
		return fmt.Errorf("%w: sending tag: %v", ErrSendFailed, err)
	}

	c.conn = conn
	c.state = stateOpen
	return nil
}

// Send writes the whole buffer to the collector, blocking until the kernel
// took it. A write error closes the connection; there is no automatic
// reconnect, the caller must open a new client to resume.
func (c *Client) Send(buf []byte) error {
	if c.state != stateOpen {
		return fmt.Errorf("%w: connection not open", ErrSendFailed)
	}
	if _, err := c.conn.Write(buf); err != nil {
		c.Close()
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Close releases the socket. Safe to call any number of times.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.state = stateClosed
}
