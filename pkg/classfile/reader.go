package classfile

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

// maxAllocation bounds any single length-prefixed allocation driven by a
// u32 count read from the input, guarding against OversizedAllocation
// denial-of-service from a hostile length field.
const maxAllocation = 64 << 20 // 64 MiB

// reader wraps an io.Reader with the big-endian primitive reads the class
// file format needs, plus a running byte count used to validate attribute
// lengths (see readAttribute).
type reader struct {
	r    io.Reader
	read int64
}

func newReader(r io.Reader) *reader {
	return &reader{r: r}
}

func (r *reader) pos() int64 {
	return r.read
}

func (r *reader) readFull(buf []byte) error {
	n, err := io.ReadFull(r.r, buf)
	r.read += int64(n)
	if err != nil {
		return corrupt(UnexpectedEof, errors.Wrap(err, "short read").Error())
	}
	return nil
}

func (r *reader) u8() (uint8, error) {
	var buf [1]byte
	if err := r.readFull(buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

func (r *reader) u16() (uint16, error) {
	var buf [2]byte
	if err := r.readFull(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func (r *reader) u32() (uint32, error) {
	var buf [4]byte
	if err := r.readFull(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func (r *reader) u64() (uint64, error) {
	var buf [8]byte
	if err := r.readFull(buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func (r *reader) i8() (int8, error) {
	v, err := r.u8()
	return int8(v), err
}

func (r *reader) i16() (int16, error) {
	v, err := r.u16()
	return int16(v), err
}

func (r *reader) i32() (int32, error) {
	v, err := r.u32()
	return int32(v), err
}

func (r *reader) i64() (int64, error) {
	v, err := r.u64()
	return int64(v), err
}

// f32 reinterprets the next 4 bytes as an IEEE-754 binary32, preserving
// NaN bit patterns (it never goes through strconv or math.Nan()).
func (r *reader) f32() (float32, error) {
	v, err := r.u32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *reader) f64() (float64, error) {
	v, err := r.u64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// bytes reads exactly n bytes, failing with Corrupt(UnexpectedEof) on a
// short read, and with Corrupt(OversizedAllocation) if n exceeds the
// allocation ceiling.
func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 || n > maxAllocation {
		return nil, corruptf(OversizedAllocation, "requested %d bytes", n)
	}
	buf := make([]byte, n)
	if err := r.readFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// skip discards exactly n bytes.
func (r *reader) skip(n int) error {
	if n == 0 {
		return nil
	}
	_, err := r.bytes(n)
	return err
}
