package openrgb

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Wire constants of the OpenRGB SDK protocol.
const (
	HeaderSize = 16

	// DefaultPort is the SDK server's default TCP port.
	DefaultPort = 6742

	// MaxProtocolVersion is the newest protocol revision this client decodes.
	MaxProtocolVersion uint32 = 3

	// maxPacketSize bounds a single packet body read from the server.
	maxPacketSize = 16 << 20
)

var magic = [4]byte{'O', 'R', 'G', 'B'}

// Packet identifiers.
const (
	PacketRequestControllerCount uint32 = 0
	PacketRequestControllerData  uint32 = 1
	PacketRequestProtocolVersion uint32 = 40
	PacketSetClientName          uint32 = 50
	PacketDeviceListUpdated      uint32 = 100
	PacketResizeZone             uint32 = 1000
	PacketUpdateLEDs             uint32 = 1050
	PacketUpdateZoneLEDs         uint32 = 1051
	PacketSetCustomMode          uint32 = 1100
)

// Wire errors.
var (
	ErrBadMagic       = errors.New("bad packet magic")
	ErrPacketTooLarge = errors.New("packet too large")
	ErrShortPacket    = errors.New("packet truncated")
)

// Header precedes every packet in both directions.
type Header struct {
	Device uint32
	ID     uint32
	Size   uint32
}

func (h Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[:4], magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Device)
	binary.LittleEndian.PutUint32(buf[8:12], h.ID)
	binary.LittleEndian.PutUint32(buf[12:16], h.Size)

	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrShortPacket
	}
	if !bytes.Equal(buf[:4], magic[:]) {
		return Header{}, fmt.Errorf("%w: %q", ErrBadMagic, buf[:4])
	}

	return Header{
		Device: binary.LittleEndian.Uint32(buf[4:8]),
		ID:     binary.LittleEndian.Uint32(buf[8:12]),
		Size:   binary.LittleEndian.Uint32(buf[12:16]),
	}, nil
}

// writePacket writes header and body as a single write.
func writePacket(w io.Writer, device, id uint32, body []byte) error {
	h := Header{Device: device, ID: id, Size: uint32(len(body))}
	packet := append(h.encode(), body...)
	if _, err := w.Write(packet); err != nil {
		return fmt.Errorf("failed to write packet %d: %w", id, err)
	}

	return nil
}

// readPacket reads one full packet from r.
func readPacket(r io.Reader) (Header, []byte, error) {
	var hbuf [HeaderSize]byte
	if _, err := io.ReadFull(r, hbuf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, nil, ErrShortPacket
		}
		return Header{}, nil, err
	}

	h, err := decodeHeader(hbuf[:])
	if err != nil {
		return Header{}, nil, err
	}
	if h.Size > maxPacketSize {
		return Header{}, nil, fmt.Errorf("%w: %d > %d", ErrPacketTooLarge, h.Size, maxPacketSize)
	}

	body := make([]byte, h.Size)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return Header{}, nil, ErrShortPacket
		}
		return Header{}, nil, fmt.Errorf("failed to read packet body: %w", err)
	}

	return h, body, nil
}

// encoder builds little-endian packet bodies.
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) u16(v uint16) {
	_ = binary.Write(&e.buf, binary.LittleEndian, v)
}

func (e *encoder) u32(v uint32) {
	_ = binary.Write(&e.buf, binary.LittleEndian, v)
}

func (e *encoder) i32(v int32) {
	_ = binary.Write(&e.buf, binary.LittleEndian, v)
}

func (e *encoder) str(s string) {
	e.u16(uint16(len(s) + 1))
	e.buf.WriteString(s)
	e.buf.WriteByte(0)
}

func (e *encoder) colors(colors []Color) {
	e.u16(uint16(len(colors)))
	for _, c := range colors {
		e.buf.Write([]byte{c.R, c.G, c.B, 0})
	}
}

func (e *encoder) bytes() []byte {
	return e.buf.Bytes()
}

// decoder reads little-endian packet bodies. The first short read is sticky in err.
type decoder struct {
	buf []byte
	off int
	err error
}

func (d *decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.buf) {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d of %d", ErrShortPacket, n, d.off, len(d.buf))
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n

	return b
}

func (d *decoder) u16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint16(b)
}

func (d *decoder) u32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}

	return binary.LittleEndian.Uint32(b)
}

func (d *decoder) i32() int32 {
	return int32(d.u32())
}

func (d *decoder) str() string {
	n := int(d.u16())
	b := d.take(n)
	if len(b) == 0 {
		return ""
	}

	return string(bytes.TrimRight(b, "\x00"))
}

func (d *decoder) colors() []Color {
	n := int(d.u16())
	if n == 0 {
		return nil
	}
	colors := make([]Color, 0, n)
	for i := 0; i < n; i++ {
		b := d.take(4)
		if b == nil {
			return nil
		}
		colors = append(colors, Color{R: b[0], G: b[1], B: b[2]})
	}

	return colors
}

// decodeController parses a controller data reply for the given protocol version.
func decodeController(body []byte, version uint32) (Device, error) {
	d := &decoder{buf: body}
	var dev Device

	d.u32() // data size, equal to len(body)
	dev.Type = d.i32()
	dev.Name = d.str()
	if version >= 1 {
		dev.Vendor = d.str()
	}
	dev.Description = d.str()
	dev.Version = d.str()
	dev.Serial = d.str()
	dev.Location = d.str()

	numModes := int(d.u16())
	dev.ActiveMode = d.i32()
	for i := 0; i < numModes && d.err == nil; i++ {
		dev.Modes = append(dev.Modes, decodeMode(d, version))
	}

	numZones := int(d.u16())
	for i := 0; i < numZones && d.err == nil; i++ {
		z := Zone{Index: i}
		z.Name = d.str()
		z.Type = d.i32()
		z.LEDsMin = d.u32()
		z.LEDsMax = d.u32()
		z.LEDCount = d.u32()
		d.take(int(d.u16())) // matrix map
		dev.Zones = append(dev.Zones, z)
	}

	numLEDs := int(d.u16())
	for i := 0; i < numLEDs && d.err == nil; i++ {
		dev.LEDs = append(dev.LEDs, LED{Name: d.str(), Value: d.u32()})
	}

	dev.Colors = d.colors()

	if d.err != nil {
		return Device{}, d.err
	}

	return dev, nil
}

func decodeMode(d *decoder, version uint32) Mode {
	var m Mode
	m.Name = d.str()
	m.Value = d.i32()
	m.Flags = d.u32()
	m.SpeedMin = d.u32()
	m.SpeedMax = d.u32()
	if version >= 3 {
		m.BrightnessMin = d.u32()
		m.BrightnessMax = d.u32()
	}
	m.ColorsMin = d.u32()
	m.ColorsMax = d.u32()
	m.Speed = d.u32()
	if version >= 3 {
		m.Brightness = d.u32()
	}
	m.Direction = d.u32()
	m.ColorMode = d.u32()
	m.Colors = d.colors()

	return m
}
