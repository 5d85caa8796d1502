package classfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldInfoAccessFlagHelpers(t *testing.T) {
	cb := newClassBuilder()
	cb.thisClassIdx = cb.cp.addClass("com/example/Widget")
	cb.superClassIdx = cb.cp.addClass("java/lang/Object")

	nameIdx := cb.cp.addUtf8("count")
	descIdx := cb.cp.addUtf8("I")

	var f bytes.Buffer
	f.WriteByte(byte(accPrivate >> 8))
	f.WriteByte(byte(accPrivate))
	f.WriteByte(byte(nameIdx >> 8))
	f.WriteByte(byte(nameIdx))
	f.WriteByte(byte(descIdx >> 8))
	f.WriteByte(byte(descIdx))
	f.WriteByte(0) // attributes_count hi
	f.WriteByte(0) // attributes_count lo
	cb.fields = f.Bytes()
	cb.numFields = 1

	cf, err := Parse(bytes.NewReader(cb.build()))
	require.NoError(t, err)
	require.Len(t, cf.Fields, 1)

	field := cf.Fields[0]
	assert.Equal(t, "count", field.Name)
	assert.True(t, field.IsPrivate())
	assert.False(t, field.IsStatic())
	assert.Equal(t, TypeInt, field.Descriptor.Type)

	found := cf.FindField("count", "I")
	require.NotNil(t, found)
	assert.Same(t, field, found)
}

func TestMethodInfoNoCodeForAbstractMethod(t *testing.T) {
	cb := newClassBuilder()
	cb.thisClassIdx = cb.cp.addClass("com/example/Widget")
	cb.superClassIdx = cb.cp.addClass("java/lang/Object")
	cb.accessFlags = accInterface | accAbstract
	cb.addMethod(accPublic|accAbstract, "frob", "()V", nil, 0, 0, nil)

	cf, err := Parse(bytes.NewReader(cb.build()))
	require.NoError(t, err)
	require.Len(t, cf.Methods, 1)
	assert.Nil(t, cf.Methods[0].Code)
	assert.True(t, cf.Methods[0].IsAbstract())
}
