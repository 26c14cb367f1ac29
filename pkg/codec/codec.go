// Package codec implements the compact little-endian wire form used for
// contract parameters and permit messages. It is a boundary collaborator:
// the state machines only ever see typed structs, never raw JSON or bytes.
package codec

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/ovl-network/ido-engine/common/errs"
)

// Marshaler serializes a parameter struct into its canonical wire form.
type Marshaler interface {
	MarshalParam() ([]byte, error)
}

// Unmarshaler decodes a parameter struct from its canonical wire form.
type Unmarshaler interface {
	UnmarshalParam(data []byte) error
}

// Writer accumulates the canonical byte form. Write errors cannot occur on
// the underlying buffer, so the API stays fluent.
type Writer struct {
	buf bytes.Buffer
}

func NewWriter() *Writer {
	return &Writer{}
}

func (w *Writer) WriteU8(v uint8) {
	w.buf.WriteByte(v)
}

func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.buf.WriteByte(1)
	} else {
		w.buf.WriteByte(0)
	}
}

// WriteBytes emits a u32 length prefix followed by the raw bytes.
func (w *Writer) WriteBytes(v []byte) {
	w.WriteU32(uint32(len(v)))
	w.buf.Write(v)
}

// WriteFixedBytes emits raw bytes with no prefix; the schema fixes the length.
func (w *Writer) WriteFixedBytes(v []byte) {
	w.buf.Write(v)
}

func (w *Writer) WriteString(v string) {
	w.WriteBytes([]byte(v))
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Reader consumes the canonical byte form. All methods fail with
// errs.ParseError on truncated input.
type Reader struct {
	r *bytes.Reader
}

func NewReader(data []byte) *Reader {
	return &Reader{r: bytes.NewReader(data)}
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, errors.Wrap(errs.ParseError, "read u8")
	}
	return b, nil
}

func (r *Reader) ReadU16() (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, errors.Wrap(errs.ParseError, "read u16")
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, errors.Wrap(errs.ParseError, "read u32")
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		return 0, errors.Wrap(errs.ParseError, "read u64")
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadU8()
	if err != nil {
		return false, err
	}
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errors.Wrapf(errs.ParseError, "invalid bool byte %d", b)
	}
}

const maxCollectionLen = 1 << 20

func (r *Reader) ReadBytes() ([]byte, error) {
	n, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	if n > maxCollectionLen {
		return nil, errors.Wrapf(errs.ParseError, "byte length %d exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, errors.Wrap(errs.ParseError, "read bytes body")
	}
	return buf, nil
}

func (r *Reader) ReadFixedBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r.r, buf); err != nil {
		return nil, errors.Wrapf(errs.ParseError, "read fixed %d bytes", n)
	}
	return buf, nil
}

func (r *Reader) ReadString() (string, error) {
	b, err := r.ReadBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ExpectEOF rejects trailing garbage after a complete parameter.
func (r *Reader) ExpectEOF() error {
	if r.r.Len() != 0 {
		return errors.Wrapf(errs.ParseError, "%d trailing bytes after parameter", r.r.Len())
	}
	return nil
}
