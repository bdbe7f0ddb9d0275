package live

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/recera/solarview/pkg/renderer/html"
	"github.com/recera/solarview/pkg/vdom"
)

// maxStringLen bounds a single decoded string so a corrupt length cannot allocate unbounded
const maxStringLen = 1 << 20

// Encoder handles encoding of live protocol messages
type Encoder struct {
	w   io.Writer
	err error
}

// NewEncoder creates a new encoder
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Err returns the first write error
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
	return e.write(binary.AppendUvarint(nil, v))
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

// Decoder handles decoding of live protocol messages
type Decoder struct {
	r io.Reader
}

// NewDecoder creates a new decoder
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
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

// ReadString reads a length-prefixed string
func (d *Decoder) ReadString() (string, error) {
	length, err := d.ReadUvarint()
	if err != nil {
		return "", err
	}
	if length > maxStringLen {
		return "", fmt.Errorf("live: string length %d exceeds limit", length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// EncodeControl builds a control frame: the message name followed by uvarint arguments
func EncodeControl(msg string, args ...uint64) []byte {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	enc.WriteBytes([]byte{byte(FrameControl)})
	enc.WriteString(msg)
	for _, a := range args {
		enc.WriteUvarint(a)
	}
	return buf.Bytes()
}

// EncodeHello builds the server greeting: sequence number and assigned session id
func EncodeHello(seq uint64, sessionID string) []byte {
	var buf bytes.Buffer
	buf.Write(EncodeControl(ControlHello, seq))
	NewEncoder(&buf).WriteString(sessionID)
	return buf.Bytes()
}

// DecodeControl reads the message name of a control frame and returns a decoder
// positioned at its arguments
func DecodeControl(data []byte) (string, *Decoder, error) {
	if len(data) == 0 || MessageType(data[0]) != FrameControl {
		return "", nil, errors.New("not a control frame")
	}
	dec := NewDecoder(bytes.NewReader(data[1:]))
	msg, err := dec.ReadString()
	if err != nil {
		return "", nil, fmt.Errorf("control message type: %w", err)
	}
	return msg, dec, nil
}

// EncodePatches encodes patches to binary format. Inserted and replaced nodes travel as
// rendered HTML.
func EncodePatches(patches []vdom.Patch) ([]byte, error) {
	var buf bytes.Buffer
	encoder := NewEncoder(&buf)

	encoder.WriteBytes([]byte{byte(FramePatches)})
	encoder.WriteUvarint(uint64(len(patches)))

	for _, patch := range patches {
		encoder.WriteBytes([]byte{byte(patch.Op)})
		encoder.WriteString(patch.Path)

		switch patch.Op {
		case vdom.OpReplaceText:
			encoder.WriteString(patch.Value)

		case vdom.OpSetAttribute:
			encoder.WriteString(patch.Key)
			encoder.WriteString(patch.Value)

		case vdom.OpRemoveAttribute:
			encoder.WriteString(patch.Key)

		case vdom.OpRemoveNode:

		case vdom.OpInsertNode, vdom.OpReplaceNode:
			markup, err := html.RenderToString(patch.Node)
			if err != nil {
				return nil, fmt.Errorf("render %s: %w", patch, err)
			}
			encoder.WriteString(markup)

		default:
			return nil, fmt.Errorf("unknown patch op %d", patch.Op)
		}
	}

	if err := encoder.Err(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WirePatch is a decoded patch as the client sees it. Markup holds the HTML for inserted
// and replaced nodes.
type WirePatch struct {
	Op     vdom.PatchOp
	Path   string
	Key    string
	Value  string
	Markup string
}

// DecodePatches reverses EncodePatches
func DecodePatches(data []byte) ([]WirePatch, error) {
	if len(data) == 0 || MessageType(data[0]) != FramePatches {
		return nil, errors.New("not a patch frame")
	}
	dec := NewDecoder(bytes.NewReader(data[1:]))

	count, err := dec.ReadUvarint()
	if err != nil {
		return nil, fmt.Errorf("patch count: %w", err)
	}

	var out []WirePatch
	for i := uint64(0); i < count; i++ {
		op, err := dec.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("patch %d: %w", i, err)
		}
		p := WirePatch{Op: vdom.PatchOp(op)}
		if p.Path, err = dec.ReadString(); err != nil {
			return nil, fmt.Errorf("patch %d path: %w", i, err)
		}

		switch p.Op {
		case vdom.OpReplaceText:
			p.Value, err = dec.ReadString()
		case vdom.OpSetAttribute:
			if p.Key, err = dec.ReadString(); err == nil {
				p.Value, err = dec.ReadString()
			}
		case vdom.OpRemoveAttribute:
			p.Key, err = dec.ReadString()
		case vdom.OpRemoveNode:
		case vdom.OpInsertNode, vdom.OpReplaceNode:
			p.Markup, err = dec.ReadString()
		default:
			return nil, fmt.Errorf("patch %d: unknown op %d", i, op)
		}
		if err != nil {
			return nil, fmt.Errorf("patch %d body: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}
