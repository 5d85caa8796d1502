package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTableSwitchAlignment covers scenario S5: a tableswitch at an odd
// offset (1) forces 2 bytes of padding before the aligned payload.
func TestTableSwitchAlignment(t *testing.T) {
	code := make([]byte, 28)
	code[0] = byte(OpNop) // push tableswitch to offset 1
	code[1] = byte(OpTableswitch)
	// padding bytes code[2:4] are ignored
	putI32(code[4:8], 20)  // default -> absolute 1+20=21, irrelevant to this test
	putI32(code[8:12], 0)  // low
	putI32(code[12:16], 2) // high
	putI32(code[16:20], 0) // case 0 target delta
	putI32(code[20:24], 0) // case 1 target delta
	putI32(code[24:28], 0) // case 2 target delta

	it := newCodeIterator(code)
	i0, err := it.Next()
	require.NoError(t, err)
	assert.EqualValues(t, 0, i0)

	i1, err := it.Next()
	require.NoError(t, err)
	assert.EqualValues(t, 1, i1)
	assert.True(t, it.Eof())
	assert.EqualValues(t, 28, it.Peek())
}

func putI32(b []byte, v int32) {
	b[0] = byte(uint32(v) >> 24)
	b[1] = byte(uint32(v) >> 16)
	b[2] = byte(uint32(v) >> 8)
	b[3] = byte(uint32(v))
}

// TestCodeIteratorPartitionsCodeArray covers property 3: iterating from 0
// to eof visits a strictly increasing, gap-free, overlap-free sequence.
func TestCodeIteratorPartitionsCodeArray(t *testing.T) {
	code := []byte{
		byte(OpIconst0),
		byte(OpBipush), 10,
		byte(OpIreturn),
	}
	it := newCodeIterator(code)
	var offsets []uint32
	for !it.Eof() {
		idx, err := it.Next()
		require.NoError(t, err)
		offsets = append(offsets, idx)
	}
	assert.Equal(t, []uint32{0, 1, 3}, offsets)
}

func TestCodeIteratorGotoRendersAbsoluteTarget(t *testing.T) {
	code := []byte{byte(OpGoto), 0xFF, 0xFD} // -3 from offset 0, rendered as-is
	it := newCodeIterator(code)
	assert.Equal(t, "goto @-3", it.String(0))
}

func TestCodeIteratorGotoWAndJsrWUseOriginalLabelForms(t *testing.T) {
	gotow := []byte{byte(OpGotoW), 0xFF, 0xFF, 0xFF, 0xFD} // -3
	it := newCodeIterator(gotow)
	assert.Equal(t, "gotow @-3", it.String(0))

	jsw := []byte{byte(OpJsrW), 0x00, 0x00, 0x00, 0x05}
	it = newCodeIterator(jsw)
	assert.Equal(t, "jsw @5", it.String(0))
}

func TestCodeIteratorNewarrayRendersElementType(t *testing.T) {
	code := []byte{byte(OpNewarray), byte(NewArrayInt)}
	it := newCodeIterator(code)
	assert.Equal(t, "newarray int[]", it.String(0))
}

func TestCodeIteratorUnknownOpcodeIsCorrupt(t *testing.T) {
	code := []byte{0xcb} // unused opcode with width 0
	it := newCodeIterator(code)
	_, err := it.Next()
	require.Error(t, err)
	assert.True(t, IsCorrupt(err, UnknownOpcode))
}

func TestCodeIteratorWideIsUnimplemented(t *testing.T) {
	code := []byte{byte(OpWide), byte(OpIload), 0x00, 0x01}
	it := newCodeIterator(code)
	_, err := it.Next()
	require.Error(t, err)
	assert.IsType(t, &UnimplementedError{}, err)
}
