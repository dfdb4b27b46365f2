package live

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/recera/netgraph/pkg/scene"
)

// Encoder handles encoding of live protocol messages
type Encoder struct {
	w   io.Writer
	err error
}

// NewEncoder creates a new encoder
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Err returns the first write error.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) write(b []byte) error {
	if e.err != nil {
		return e.err
	}
	_, e.err = e.w.Write(b)
	return e.err
}

// WriteUvarint writes an unsigned varint
func (e *Encoder) WriteUvarint(v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	return e.write(buf[:n])
}

// WriteString writes a length-prefixed string
func (e *Encoder) WriteString(s string) error {
	if err := e.WriteUvarint(uint64(len(s))); err != nil {
		return err
	}
	return e.write([]byte(s))
}

// WriteBytes writes raw bytes
func (e *Encoder) WriteBytes(b []byte) error {
	return e.write(b)
}

// WriteFloat32 writes a little-endian IEEE 754 float
func (e *Encoder) WriteFloat32(f float32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(f))
	return e.write(buf[:])
}

// Decoder handles decoding of live protocol messages
type Decoder struct {
	r   io.Reader
	buf []byte
}

// NewDecoder creates a new decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{
		r:   r,
		buf: make([]byte, 1024),
	}
}

// ReadUvarint reads an unsigned varint
func (d *Decoder) ReadUvarint() (uint64, error) {
	return binary.ReadUvarint(d)
}

// ReadByte implements io.ByteReader
func (d *Decoder) ReadByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(d.r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// maxString bounds length prefixes so a corrupt frame cannot force a huge allocation.
const maxString = 1 << 20

// ReadString reads a length-prefixed string
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > maxString {
		return "", fmt.Errorf("string length %d exceeds limit", length)
	}
	if length > uint64(len(d.buf)) {
		d.buf = make([]byte, length)
	}
	n, err := io.ReadFull(d.r, d.buf[:length])
	if err != nil {
		return "", err
	}
	return string(d.buf[:n]), nil
}

// ReadFloat32 reads a little-endian IEEE 754 float
func (d *Decoder) ReadFloat32() (float32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[:])), nil
}

// EncodeEvent encodes an event to binary format
func EncodeEvent(evt Event) []byte {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.WriteBytes([]byte{byte(FrameEvent), byte(evt.Type)})
	enc.WriteUvarint(uint64(evt.Pointer))
	enc.WriteUvarint(uint64(evt.NodeID))
	enc.WriteFloat32(evt.X)
	enc.WriteFloat32(evt.Y)
	enc.WriteFloat32(evt.Delta)
	return buf.Bytes()
}

// DecodeEvent decodes an event from binary format
func DecodeEvent(data []byte) (*Event, error) {
	if len(data) < 2 {
		return nil, errors.New("event data too short")
	}
	if data[0] != byte(FrameEvent) {
		return nil, errors.New("not an event frame")
	}

	evt := &Event{Type: EventType(data[1])}
	dec := NewDecoder(bytes.NewReader(data[2:]))
	pointer, err := dec.ReadUvarint()
	if err != nil {
		return nil, fmt.Errorf("failed to decode pointer: %w", err)
	}
	nodeID, err := dec.ReadUvarint()
	if err != nil {
		return nil, fmt.Errorf("failed to decode node ID: %w", err)
	}
	evt.Pointer, evt.NodeID = uint32(pointer), uint32(nodeID)
	for _, f := range []*float32{&evt.X, &evt.Y, &evt.Delta} {
		if *f, err = dec.ReadFloat32(); err != nil {
			return nil, fmt.Errorf("failed to decode coordinates: %w", err)
		}
	}
	return evt, nil
}

// EncodeControl encodes a control message with optional string arguments.
func EncodeControl(msg string, args ...string) []byte {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.WriteBytes([]byte{byte(FrameControl)})
	enc.WriteString(msg)
	for _, a := range args {
		enc.WriteString(a)
	}
	return buf.Bytes()
}

// EncodePatches encodes scene patches to binary format
func EncodePatches(patches []scene.Patch) ([]byte, error) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	enc.WriteBytes([]byte{byte(FramePatches)})
	enc.WriteUvarint(uint64(len(patches)))

	for _, patch := range patches {
		enc.WriteBytes([]byte{byte(patch.Op)})

		switch patch.Op {
		case scene.OpReplaceText:
			enc.WriteUvarint(uint64(patch.NodeID))
			enc.WriteString(patch.Value)

		case scene.OpSetAttribute:
			enc.WriteUvarint(uint64(patch.NodeID))
			enc.WriteString(patch.Key)
			enc.WriteString(patch.Value)

		case scene.OpRemoveNode:
			enc.WriteUvarint(uint64(patch.NodeID))

		case scene.OpInsertNode:
			if patch.Node == nil {
				return nil, fmt.Errorf("insert patch for node %d has no element", patch.NodeID)
			}
			enc.WriteUvarint(uint64(patch.ParentID))
			encodeElement(enc, patch.Node)

		default:
			return nil, fmt.Errorf("unknown patch op 0x%02x", patch.Op)
		}
	}

	if err := enc.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodeElement writes a subtree: id, tag, attributes, text and children.
func encodeElement(enc *Encoder, e *scene.Element) {
	enc.WriteUvarint(uint64(e.ID))
	enc.WriteString(e.Tag)
	enc.WriteUvarint(uint64(len(e.Attrs)))
	for _, a := range e.Attrs {
		enc.WriteString(a.Name)
		enc.WriteString(a.Value)
	}
	enc.WriteString(e.Text)
	enc.WriteUvarint(uint64(len(e.Kids)))
	for _, k := range e.Kids {
		encodeElement(enc, k)
	}
}

// DecodePatches decodes a patch frame. Inserted subtrees are rebuilt as elements.
func DecodePatches(data []byte) ([]scene.Patch, error) {
	if len(data) == 0 || data[0] != byte(FramePatches) {
		return nil, errors.New("not a patch frame")
	}
	dec := NewDecoder(bytes.NewReader(data[1:]))
	count, err := dec.ReadUvarint()
	if err != nil {
		return nil, err
	}
	var patches []scene.Patch
	for i := uint64(0); i < count; i++ {
		op, err := dec.ReadByte()
		if err != nil {
			return nil, err
		}
		p := scene.Patch{Op: scene.Op(op)}
		var id uint64
		switch p.Op {
		case scene.OpReplaceText:
			if id, err = dec.ReadUvarint(); err == nil {
				p.Value, err = dec.ReadString()
			}
		case scene.OpSetAttribute:
			if id, err = dec.ReadUvarint(); err == nil {
				if p.Key, err = dec.ReadString(); err == nil {
					p.Value, err = dec.ReadString()
				}
			}
		case scene.OpRemoveNode:
			id, err = dec.ReadUvarint()
		case scene.OpInsertNode:
			var parent uint64
			if parent, err = dec.ReadUvarint(); err == nil {
				p.ParentID = uint32(parent)
				if p.Node, err = decodeElement(dec, 0); err == nil {
					id = uint64(p.Node.ID)
				}
			}
		default:
			return nil, fmt.Errorf("unknown patch op 0x%02x", op)
		}
		if err != nil {
			return nil, err
		}
		p.NodeID = uint32(id)
		patches = append(patches, p)
	}
	return patches, nil
}

const maxDepth = 64

func decodeElement(dec *Decoder, depth int) (*scene.Element, error) {
	if depth > maxDepth {
		return nil, errors.New("element tree too deep")
	}
	id, err := dec.ReadUvarint()
	if err != nil {
		return nil, err
	}
	e := &scene.Element{ID: uint32(id)}
	if e.Tag, err = dec.ReadString(); err != nil {
		return nil, err
	}
	n, err := dec.ReadUvarint()
	if err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		var a scene.Attr
		if a.Name, err = dec.ReadString(); err != nil {
			return nil, err
		}
		if a.Value, err = dec.ReadString(); err != nil {
			return nil, err
		}
		e.Attrs = append(e.Attrs, a)
	}
	if e.Text, err = dec.ReadString(); err != nil {
		return nil, err
	}
	if n, err = dec.ReadUvarint(); err != nil {
		return nil, err
	}
	for i := uint64(0); i < n; i++ {
		k, err := decodeElement(dec, depth+1)
		if err != nil {
			return nil, err
		}
		e.Kids = append(e.Kids, k)
	}
	return e, nil
}
