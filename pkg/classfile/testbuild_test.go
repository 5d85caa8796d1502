package classfile

import (
	"bytes"
	"encoding/binary"
)

// cpBuilder assembles a constant pool's raw byte payload (everything after
// the u16 count) one entry at a time, tracking the next free 1-based index
// the way parseConstantPool itself walks the pool (Long/Double consume two
// slots).
type cpBuilder struct {
	buf  bytes.Buffer
	next uint16 // next index to be assigned
}

func newCPBuilder() *cpBuilder {
	return &cpBuilder{next: 1}
}

func (b *cpBuilder) u16(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.buf.Write(tmp[:])
}

func (b *cpBuilder) u32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
}

func (b *cpBuilder) addUtf8(s string) uint16 {
	idx := b.next
	b.buf.WriteByte(byte(TagUtf8))
	b.u16(uint16(len(s)))
	b.buf.WriteString(s)
	b.next++
	return idx
}

func (b *cpBuilder) addInteger(v int32) uint16 {
	idx := b.next
	b.buf.WriteByte(byte(TagInteger))
	b.u32(uint32(v))
	b.next++
	return idx
}

func (b *cpBuilder) addLong(v int64) uint16 {
	idx := b.next
	b.buf.WriteByte(byte(TagLong))
	b.u32(uint32(v >> 32))
	b.u32(uint32(v))
	b.next += 2
	return idx
}

func (b *cpBuilder) addClass(dottedOrSlashName string) uint16 {
	nameIdx := b.addUtf8(dottedOrSlashName)
	idx := b.next
	b.buf.WriteByte(byte(TagClass))
	b.u16(nameIdx)
	b.next++
	return idx
}

func (b *cpBuilder) addNameAndType(name, desc string) uint16 {
	nameIdx := b.addUtf8(name)
	descIdx := b.addUtf8(desc)
	idx := b.next
	b.buf.WriteByte(byte(TagNameAndType))
	b.u16(nameIdx)
	b.u16(descIdx)
	b.next++
	return idx
}

func (b *cpBuilder) addMethodRef(className, name, desc string) uint16 {
	classIdx := b.addClass(className)
	natIdx := b.addNameAndType(name, desc)
	idx := b.next
	b.buf.WriteByte(byte(TagMethodRef))
	b.u16(classIdx)
	b.u16(natIdx)
	b.next++
	return idx
}

func (b *cpBuilder) addFieldRef(className, name, desc string) uint16 {
	classIdx := b.addClass(className)
	natIdx := b.addNameAndType(name, desc)
	idx := b.next
	b.buf.WriteByte(byte(TagFieldRef))
	b.u16(classIdx)
	b.u16(natIdx)
	b.next++
	return idx
}

// bytes returns the full constant_pool_count-prefixed payload.
func (b *cpBuilder) bytes() []byte {
	var out bytes.Buffer
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], b.next)
	out.Write(tmp[:])
	out.Write(b.buf.Bytes())
	return out.Bytes()
}

// classBuilder assembles a complete .class file byte stream around a
// cpBuilder, filling in the header fields common to every test fixture.
type classBuilder struct {
	cp              *cpBuilder
	minor, major    uint16
	accessFlags     uint16
	thisClassIdx    uint16
	superClassIdx   uint16
	interfaces      []uint16
	fields          []byte
	methods         []byte
	numFields       uint16
	numMethods      uint16
	attributes      []byte
	numAttributes   uint16
}

func newClassBuilder() *classBuilder {
	return &classBuilder{cp: newCPBuilder(), major: 52}
}

func (c *classBuilder) build() []byte {
	var out bytes.Buffer
	write16 := func(v uint16) {
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], v)
		out.Write(tmp[:])
	}
	write32 := func(v uint32) {
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], v)
		out.Write(tmp[:])
	}

	write32(0xCAFEBABE)
	write16(c.minor)
	write16(c.major)
	out.Write(c.cp.bytes())
	write16(c.accessFlags)
	write16(c.thisClassIdx)
	write16(c.superClassIdx)
	write16(uint16(len(c.interfaces)))
	for _, i := range c.interfaces {
		write16(i)
	}
	write16(c.numFields)
	out.Write(c.fields)
	write16(c.numMethods)
	out.Write(c.methods)
	write16(c.numAttributes)
	out.Write(c.attributes)
	return out.Bytes()
}

// addMethod appends one method_info to the methods section. If code is
// non-nil, a single Code attribute is emitted wrapping it.
func (c *classBuilder) addMethod(accessFlags uint16, name, desc string, code []byte, maxStack, maxLocals uint16, stackMapTable []byte) {
	nameIdx := c.cp.addUtf8(name)
	descIdx := c.cp.addUtf8(desc)

	var m bytes.Buffer
	write16 := func(v uint16) {
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], v)
		m.Write(tmp[:])
	}
	write32 := func(v uint32) {
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], v)
		m.Write(tmp[:])
	}

	write16(accessFlags)
	write16(nameIdx)
	write16(descIdx)

	if code == nil {
		write16(0) // attributes_count
		c.methods = append(c.methods, m.Bytes()...)
		c.numMethods++
		return
	}

	codeAttrName := c.cp.addUtf8("Code")

	var codeBody bytes.Buffer
	cwrite16 := func(v uint16) {
		var tmp [2]byte
		binary.BigEndian.PutUint16(tmp[:], v)
		codeBody.Write(tmp[:])
	}
	cwrite32 := func(v uint32) {
		var tmp [4]byte
		binary.BigEndian.PutUint32(tmp[:], v)
		codeBody.Write(tmp[:])
	}
	cwrite16(maxStack)
	cwrite16(maxLocals)
	cwrite32(uint32(len(code)))
	codeBody.Write(code)
	cwrite16(0) // exception_table_length

	if stackMapTable == nil {
		cwrite16(0) // attributes_count (of Code)
	} else {
		cwrite16(1)
		smtName := c.cp.addUtf8("StackMapTable")
		cwrite16(smtName)
		cwrite32(uint32(len(stackMapTable)))
		codeBody.Write(stackMapTable)
	}

	write16(1) // attributes_count (of method) = 1 (Code)
	write16(codeAttrName)
	write32(uint32(codeBody.Len()))
	m.Write(codeBody.Bytes())

	c.methods = append(c.methods, m.Bytes()...)
	c.numMethods++
}
