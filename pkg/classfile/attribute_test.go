package classfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAttributeList(t *testing.T, cp *cpBuilder, name string, payload []byte) ([]byte, *ConstantPool) {
	t.Helper()
	nameIdx := cp.addUtf8(name)
	pool := parsePoolBytes(t, cp)

	var out bytes.Buffer
	out.WriteByte(byte(nameIdx >> 8))
	out.WriteByte(byte(nameIdx))
	out.WriteByte(byte(len(payload) >> 24))
	out.WriteByte(byte(len(payload) >> 16))
	out.WriteByte(byte(len(payload) >> 8))
	out.WriteByte(byte(len(payload)))
	out.Write(payload)
	return out.Bytes(), pool
}

func TestReadAttributeUnknownRetainsRawBytes(t *testing.T) {
	cp := newCPBuilder()
	attrBytes, pool := buildAttributeList(t, cp, "CustomThing", []byte{0xDE, 0xAD, 0xBE, 0xEF})

	var list bytes.Buffer
	list.WriteByte(0)
	list.WriteByte(1) // attributes_count = 1
	list.Write(attrBytes)

	attrs, err := readAttributeList(newReader(&list), pool)
	require.NoError(t, err)
	require.Len(t, attrs, 1)

	unknown, ok := attrs[0].(*UnknownAttributeInfo)
	require.True(t, ok)
	assert.Equal(t, "CustomThing", unknown.Name)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, unknown.Data)
}

func TestReadAttributeLengthMismatchIsCorrupt(t *testing.T) {
	cp := newCPBuilder()
	nameIdx := cp.addUtf8("CustomThing")
	pool := parsePoolBytes(t, cp)

	var list bytes.Buffer
	list.WriteByte(0)
	list.WriteByte(1)
	list.WriteByte(byte(nameIdx >> 8))
	list.WriteByte(byte(nameIdx))
	// declare a length of 4 but only supply 2 bytes total available
	list.WriteByte(0)
	list.WriteByte(0)
	list.WriteByte(0)
	list.WriteByte(4)
	list.Write([]byte{0x01, 0x02})

	_, err := readAttributeList(newReader(&list), pool)
	require.Error(t, err)
}

func TestReadAttributeCodeLengthMismatchIsCorrupt(t *testing.T) {
	cp := newCPBuilder()
	nameIdx := cp.addUtf8("Code")
	pool := parsePoolBytes(t, cp)

	var codeAttrPayload bytes.Buffer
	codeAttrPayload.Write([]byte{0x00, 0x00}) // maxStack
	codeAttrPayload.Write([]byte{0x00, 0x00}) // maxLocals
	codeAttrPayload.Write([]byte{0x00, 0x00, 0x00, 0x01})
	codeAttrPayload.WriteByte(byte(OpReturn))
	codeAttrPayload.Write([]byte{0x00, 0x00}) // exception_table_length
	codeAttrPayload.Write([]byte{0x00, 0x00}) // attributes_count

	var list bytes.Buffer
	list.WriteByte(0)
	list.WriteByte(1)
	list.WriteByte(byte(nameIdx >> 8))
	list.WriteByte(byte(nameIdx))
	declaredLength := uint32(codeAttrPayload.Len() + 1) // one byte too many
	list.WriteByte(byte(declaredLength >> 24))
	list.WriteByte(byte(declaredLength >> 16))
	list.WriteByte(byte(declaredLength >> 8))
	list.WriteByte(byte(declaredLength))
	list.Write(codeAttrPayload.Bytes())
	list.WriteByte(0x00) // pad so the reader doesn't hit EOF past the mismatch

	_, err := readAttributeList(newReader(&list), pool)
	require.Error(t, err)
	assert.True(t, IsCorrupt(err, AttributeLengthMismatch))
}
