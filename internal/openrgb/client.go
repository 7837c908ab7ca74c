package openrgb

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/logger"
)

const (
	// DefaultHost is where the SDK server listens unless configured otherwise.
	DefaultHost = "127.0.0.1"

	// versionTimeout bounds the wait for a protocol version reply. Servers
	// predating protocol 1 never answer the request.
	versionTimeout = time.Second
)

// Client talks to an OpenRGB SDK server. Requests are serialized.
type Client struct {
	conn    net.Conn
	version uint32
	mu      sync.Mutex
}

// Connect dials the SDK server at host:port, negotiates the protocol
// version and registers name as the client name.
func Connect(ctx context.Context, host string, port int, name string) (*Client, error) {
	errFactory := errors.New()
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errFactory.Wrap(ErrConnectFailed, err).WithMessage("failed to connect to OpenRGB SDK server at " + addr)
	}

	c, err := NewClient(conn, name)
	if err != nil {
		conn.Close()
		return nil, err
	}

	logger.Debug().
		Str("addr", addr).
		Uint32("protocol_version", c.version).
		Msg("Connected to OpenRGB SDK server")

	return c, nil
}

// NewClient performs the handshake over an established connection.
func NewClient(conn net.Conn, name string) (*Client, error) {
	errFactory := errors.New()
	c := &Client{conn: conn}

	version, err := c.negotiateVersion()
	if err != nil {
		return nil, errFactory.Wrap(ErrHandshakeFailed, err)
	}
	c.version = version

	if name != "" {
		e := &encoder{}
		e.buf.WriteString(name)
		e.buf.WriteByte(0)
		if err := writePacket(c.conn, 0, PacketSetClientName, e.bytes()); err != nil {
			return nil, errFactory.Wrap(ErrHandshakeFailed, err)
		}
	}

	return c, nil
}

func (c *Client) negotiateVersion() (uint32, error) {
	e := &encoder{}
	e.u32(MaxProtocolVersion)
	if err := writePacket(c.conn, 0, PacketRequestProtocolVersion, e.bytes()); err != nil {
		return 0, err
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(versionTimeout)); err != nil {
		return 0, err
	}
	defer c.conn.SetReadDeadline(time.Time{})

	body, err := c.awaitReply(PacketRequestProtocolVersion)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			logger.Debug().Msg("SDK server did not answer protocol version request, assuming version 0")
			return 0, nil
		}
		return 0, err
	}

	d := &decoder{buf: body}
	server := d.u32()
	if d.err != nil {
		return 0, d.err
	}

	return min(server, MaxProtocolVersion), nil
}

// ProtocolVersion returns the negotiated protocol version.
func (c *Client) ProtocolVersion() uint32 {
	return c.version
}

// awaitReply reads packets until one with the given id arrives. Unsolicited
// packets such as device list updates are dropped.
func (c *Client) awaitReply(id uint32) ([]byte, error) {
	for {
		h, body, err := readPacket(c.conn)
		if err != nil {
			return nil, err
		}
		if h.ID == id {
			return body, nil
		}
		if h.ID == PacketDeviceListUpdated {
			logger.Debug().Msg("SDK server reported a device list update")
		}
	}
}

func (c *Client) request(device, id uint32, body []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writePacket(c.conn, device, id, body); err != nil {
		return nil, err
	}

	return c.awaitReply(id)
}

func (c *Client) send(device, id uint32, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return writePacket(c.conn, device, id, body)
}

// ControllerCount returns the number of devices known to the server.
func (c *Client) ControllerCount() (int, error) {
	errFactory := errors.New()

	body, err := c.request(0, PacketRequestControllerCount, nil)
	if err != nil {
		return 0, errFactory.Wrap(ErrRequestFailed, err)
	}

	d := &decoder{buf: body}
	count := d.u32()
	if d.err != nil {
		return 0, errFactory.Wrap(ErrDecodeFailed, d.err)
	}

	return int(count), nil
}

// Controller fetches the controller data of one device.
func (c *Client) Controller(index int) (Device, error) {
	errFactory := errors.New()
	if index < 0 {
		return Device{}, errFactory.WithData(ErrInvalidIndex, index)
	}

	var req []byte
	if c.version > 0 {
		e := &encoder{}
		e.u32(c.version)
		req = e.bytes()
	}

	body, err := c.request(uint32(index), PacketRequestControllerData, req)
	if err != nil {
		return Device{}, errFactory.Wrap(ErrRequestFailed, err)
	}

	dev, err := decodeController(body, c.version)
	if err != nil {
		return Device{}, errFactory.Wrap(ErrDecodeFailed, err)
	}
	dev.Index = index

	return dev, nil
}

// Devices fetches the controller data of every device, ordered by index.
func (c *Client) Devices() ([]Device, error) {
	count, err := c.ControllerCount()
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, count)
	for i := 0; i < count; i++ {
		dev, err := c.Controller(i)
		if err != nil {
			return nil, err
		}
		devices = append(devices, dev)
	}

	return devices, nil
}

// ResizeZone changes the LED count of a resizable zone.
func (c *Client) ResizeZone(device, zone, size int) error {
	e := &encoder{}
	e.i32(int32(zone))
	e.i32(int32(size))

	if err := c.send(uint32(device), PacketResizeZone, e.bytes()); err != nil {
		return errors.New().Wrap(ErrRequestFailed, err)
	}

	return nil
}

// UpdateZoneLEDs pushes a full color buffer to one zone.
func (c *Client) UpdateZoneLEDs(device, zone int, colors []Color) error {
	e := &encoder{}
	e.u32(uint32(4 + 4 + 2 + 4*len(colors)))
	e.u32(uint32(zone))
	e.colors(colors)

	if err := c.send(uint32(device), PacketUpdateZoneLEDs, e.bytes()); err != nil {
		return errors.New().Wrap(ErrRequestFailed, err)
	}

	return nil
}

// UpdateLEDs pushes a color for every LED of a device.
func (c *Client) UpdateLEDs(device int, colors []Color) error {
	e := &encoder{}
	e.u32(uint32(4 + 2 + 4*len(colors)))
	e.colors(colors)

	if err := c.send(uint32(device), PacketUpdateLEDs, e.bytes()); err != nil {
		return errors.New().Wrap(ErrRequestFailed, err)
	}

	return nil
}

// SetCustomMode switches a device to direct mode.
func (c *Client) SetCustomMode(device int) error {
	if err := c.send(uint32(device), PacketSetCustomMode, nil); err != nil {
		return errors.New().Wrap(ErrRequestFailed, err)
	}

	return nil
}

// Clear turns every LED of every device off.
func (c *Client) Clear() error {
	devices, err := c.Devices()
	if err != nil {
		return err
	}

	for _, dev := range devices {
		if err := c.UpdateLEDs(dev.Index, make([]Color, len(dev.LEDs))); err != nil {
			return err
		}
	}

	return nil
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.Close(); err != nil {
		return errors.New().Wrap(ErrCloseFailed, err)
	}

	return nil
}
