// Package packstream implements the tagged binary encoding used to embed
// write plans inside compiled plans. Values are self-contained: nothing in
// an encoded stream references the compilation that produced it, so blobs
// survive prepared-statement reuse and can be copied freely.
//
// Supported values: nil, bool, int64, float64, string, []any and
// map[string]any. Maps are encoded with sorted keys so equal values always
// produce identical bytes.
package packstream

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
)

// Marker bytes and size limits.
const (
	TINY_STRING_MARKER_BASE = 0x80
	STRING_8_MARKER         = 0xD0
	STRING_16_MARKER        = 0xD1
	STRING_32_MARKER        = 0xD2

	TINY_LIST_MARKER_BASE = 0x90
	LIST_8_MARKER         = 0xD4
	LIST_16_MARKER        = 0xD5

	TINY_MAP_MARKER_BASE = 0xA0
	MAP_8_MARKER         = 0xD8
	MAP_16_MARKER        = 0xD9

	INT_8  = 0xC8
	INT_16 = 0xC9
	INT_32 = 0xCA
	INT_64 = 0xCB

	NULL    = 0xC0
	FLOAT64 = 0xC1
	FALSE   = 0xC2
	TRUE    = 0xC3

	TINY_INT_MIN = -16
	TINY_INT_MAX = 127
	INT_8_MIN    = -128
	INT_8_MAX    = 127
	INT_16_MIN   = -32768
	INT_16_MAX   = 32767
	INT_32_MIN   = -2147483648
	INT_32_MAX   = 2147483647

	MARKER_HIGH_NIBBLE_MASK = 0xF0
	MARKER_LOW_NIBBLE_MASK  = 0x0F
)

// ProtocolError reports a value or stream the codec cannot handle.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return e.Message
}

// Marshal encodes a single value to bytes.
func Marshal(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := NewPacker(&buf).Pack(value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a single value from bytes.
func Unmarshal(data []byte) (any, error) {
	return NewUnpacker(bytes.NewReader(data)).Unpack()
}

// Packer serializes values into a writer.
type Packer struct {
	writer io.Writer
}

// NewPacker creates a packer over w.
func NewPacker(w io.Writer) *Packer {
	return &Packer{writer: w}
}

// Pack serializes one value.
func (p *Packer) Pack(value any) error {
	switch v := value.(type) {
	case nil:
		return p.writeByte(NULL)
	case bool:
		if v {
			return p.writeByte(TRUE)
		}
		return p.writeByte(FALSE)
	case int:
		return p.packInteger(int64(v))
	case int32:
		return p.packInteger(int64(v))
	case int64:
		return p.packInteger(v)
	case uint64:
		if v > math.MaxInt64 {
			return &ProtocolError{Message: fmt.Sprintf("integer overflow: %d", v)}
		}
		return p.packInteger(int64(v))
	case float64:
		return p.packFloat(v)
	case string:
		return p.packString(v)
	case []any:
		return p.packList(v)
	case map[string]any:
		return p.packMap(v)
	default:
		return &ProtocolError{Message: fmt.Sprintf("cannot pack type: %T", v)}
	}
}

func (p *Packer) packInteger(i int64) error {
	switch {
	case i >= TINY_INT_MIN && i <= TINY_INT_MAX:
		return p.writeByte(byte(i))
	case i >= INT_8_MIN && i <= INT_8_MAX:
		return p.write([]byte{INT_8, byte(i)})
	case i >= INT_16_MIN && i <= INT_16_MAX:
		out := []byte{INT_16, 0, 0}
		binary.BigEndian.PutUint16(out[1:], uint16(i))
		return p.write(out)
	case i >= INT_32_MIN && i <= INT_32_MAX:
		out := []byte{INT_32, 0, 0, 0, 0}
		binary.BigEndian.PutUint32(out[1:], uint32(i))
		return p.write(out)
	default:
		out := []byte{INT_64, 0, 0, 0, 0, 0, 0, 0, 0}
		binary.BigEndian.PutUint64(out[1:], uint64(i))
		return p.write(out)
	}
}

func (p *Packer) packFloat(f float64) error {
	out := []byte{FLOAT64, 0, 0, 0, 0, 0, 0, 0, 0}
	binary.BigEndian.PutUint64(out[1:], math.Float64bits(f))
	return p.write(out)
}

func (p *Packer) packString(s string) error {
	data := []byte(s)
	size := len(data)

	switch {
	case size < 16:
		if err := p.writeByte(TINY_STRING_MARKER_BASE | byte(size)); err != nil {
			return err
		}
	case size < 256:
		if err := p.write([]byte{STRING_8_MARKER, byte(size)}); err != nil {
			return err
		}
	case size < 65536:
		out := []byte{STRING_16_MARKER, 0, 0}
		binary.BigEndian.PutUint16(out[1:], uint16(size))
		if err := p.write(out); err != nil {
			return err
		}
	default:
		out := []byte{STRING_32_MARKER, 0, 0, 0, 0}
		binary.BigEndian.PutUint32(out[1:], uint32(size))
		if err := p.write(out); err != nil {
			return err
		}
	}
	return p.write(data)
}

func (p *Packer) packList(list []any) error {
	size := len(list)
	switch {
	case size < 16:
		if err := p.writeByte(TINY_LIST_MARKER_BASE | byte(size)); err != nil {
			return err
		}
	case size < 256:
		if err := p.write([]byte{LIST_8_MARKER, byte(size)}); err != nil {
			return err
		}
	case size < 65536:
		out := []byte{LIST_16_MARKER, 0, 0}
		binary.BigEndian.PutUint16(out[1:], uint16(size))
		if err := p.write(out); err != nil {
			return err
		}
	default:
		return &ProtocolError{Message: fmt.Sprintf("list too large to pack (size: %d)", size)}
	}

	for _, item := range list {
		if err := p.Pack(item); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packer) packMap(m map[string]any) error {
	size := len(m)
	switch {
	case size < 16:
		if err := p.writeByte(TINY_MAP_MARKER_BASE | byte(size)); err != nil {
			return err
		}
	case size < 256:
		if err := p.write([]byte{MAP_8_MARKER, byte(size)}); err != nil {
			return err
		}
	case size < 65536:
		out := []byte{MAP_16_MARKER, 0, 0}
		binary.BigEndian.PutUint16(out[1:], uint16(size))
		if err := p.write(out); err != nil {
			return err
		}
	default:
		return &ProtocolError{Message: fmt.Sprintf("map too large to pack (size: %d)", size)}
	}

	// sorted keys keep encoded bytes deterministic
	keys := make([]string, 0, size)
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := p.packString(k); err != nil {
			return err
		}
		if err := p.Pack(m[k]); err != nil {
			return err
		}
	}
	return nil
}

func (p *Packer) writeByte(b byte) error {
	return p.write([]byte{b})
}

func (p *Packer) write(data []byte) error {
	_, err := p.writer.Write(data)
	return err
}

// Unpacker deserializes values from a reader.
type Unpacker struct {
	reader io.Reader
}

// NewUnpacker creates an unpacker over r.
func NewUnpacker(r io.Reader) *Unpacker {
	return &Unpacker{reader: r}
}

// Unpack deserializes the next value from the stream.
func (u *Unpacker) Unpack() (any, error) {
	marker, err := u.readByte()
	if err != nil {
		return nil, err
	}
	return u.unpackValue(marker)
}

func (u *Unpacker) unpackValue(marker byte) (any, error) {
	if marker < TINY_STRING_MARKER_BASE { // tiny positive int
		return int64(marker), nil
	}
	if marker >= 0xF0 { // tiny negative int, -16..-1
		return int64(int8(marker)), nil
	}

	highNibble := marker & MARKER_HIGH_NIBBLE_MASK
	lowNibble := int(marker & MARKER_LOW_NIBBLE_MASK)

	switch highNibble {
	case TINY_STRING_MARKER_BASE:
		return u.unpackString(lowNibble)
	case TINY_LIST_MARKER_BASE:
		return u.unpackList(lowNibble)
	case TINY_MAP_MARKER_BASE:
		return u.unpackMap(lowNibble)
	}

	switch marker {
	case NULL:
		return nil, nil
	case FALSE:
		return false, nil
	case TRUE:
		return true, nil
	case FLOAT64:
		bits, err := u.readUint(8)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(bits), nil
	case INT_8:
		return u.readInt(1)
	case INT_16:
		return u.readInt(2)
	case INT_32:
		return u.readInt(4)
	case INT_64:
		return u.readInt(8)
	case STRING_8_MARKER:
		return u.unpackSized(1, u.unpackString)
	case STRING_16_MARKER:
		return u.unpackSized(2, u.unpackString)
	case STRING_32_MARKER:
		return u.unpackSized(4, u.unpackString)
	case LIST_8_MARKER:
		return u.unpackSized(1, u.unpackList)
	case LIST_16_MARKER:
		return u.unpackSized(2, u.unpackList)
	case MAP_8_MARKER:
		return u.unpackSized(1, u.unpackMap)
	case MAP_16_MARKER:
		return u.unpackSized(2, u.unpackMap)
	default:
		return nil, &ProtocolError{Message: fmt.Sprintf("unknown marker byte: 0x%02X", marker)}
	}
}

func (u *Unpacker) unpackSized(sizeBytes int, unpack func(int) (any, error)) (any, error) {
	size, err := u.readUint(sizeBytes)
	if err != nil {
		return nil, err
	}
	return unpack(int(size))
}

func (u *Unpacker) unpackString(size int) (any, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(u.reader, data); err != nil {
		return nil, err
	}
	return string(data), nil
}

func (u *Unpacker) unpackList(size int) (any, error) {
	list := make([]any, 0, size)
	for i := 0; i < size; i++ {
		v, err := u.Unpack()
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

func (u *Unpacker) unpackMap(size int) (any, error) {
	m := make(map[string]any, size)
	for i := 0; i < size; i++ {
		key, err := u.Unpack()
		if err != nil {
			return nil, err
		}
		ks, ok := key.(string)
		if !ok {
			return nil, &ProtocolError{Message: fmt.Sprintf("map key must be a string, got %T", key)}
		}
		value, err := u.Unpack()
		if err != nil {
			return nil, err
		}
		m[ks] = value
	}
	return m, nil
}

func (u *Unpacker) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(u.reader, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (u *Unpacker) readUint(n int) (uint64, error) {
	data := make([]byte, n)
	if _, err := io.ReadFull(u.reader, data); err != nil {
		return 0, err
	}
	var v uint64
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	return v, nil
}

func (u *Unpacker) readInt(n int) (any, error) {
	v, err := u.readUint(n)
	if err != nil {
		return nil, err
	}
	switch n {
	case 1:
		return int64(int8(v)), nil
	case 2:
		return int64(int16(v)), nil
	case 4:
		return int64(int32(v)), nil
	default:
		return int64(v), nil
	}
}
