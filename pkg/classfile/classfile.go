package classfile

import (
	"io"
	"os"
	"strconv"
	"strings"
)

const classFileMagic uint32 = 0xCAFEBABE

// ClassFile is the fully parsed representation of a single .class file,
// per §4.1.
type ClassFile struct {
	MinorVersion uint16
	MajorVersion uint16
	ConstantPool *ConstantPool
	AccessFlags  uint16
	ThisName     string
	SuperName    *string // nil only for java.lang.Object
	Interfaces   []string
	Fields       []*FieldInfo
	Methods      []*MethodInfo
	Attributes   []AttributeInfo
}

// Parse reads a complete class file from r, per §4.1's field order.
func Parse(src io.Reader) (*ClassFile, error) {
	r := newReader(src)

	magic, err := r.u32()
	if err != nil {
		return nil, err
	}
	if magic != classFileMagic {
		return nil, corruptf(BadMagic, "got 0x%08x, want 0x%08x", magic, classFileMagic)
	}

	minorVersion, err := r.u16()
	if err != nil {
		return nil, err
	}
	majorVersion, err := r.u16()
	if err != nil {
		return nil, err
	}

	pool, err := parseConstantPool(r)
	if err != nil {
		return nil, err
	}

	accessFlags, err := r.u16()
	if err != nil {
		return nil, err
	}

	thisClassIndex, err := r.u16()
	if err != nil {
		return nil, err
	}
	thisName, err := pool.Class(thisClassIndex)
	if err != nil {
		return nil, err
	}

	superClassIndex, err := r.u16()
	if err != nil {
		return nil, err
	}
	var superName *string
	if superClassIndex != 0 {
		name, err := pool.Class(superClassIndex)
		if err != nil {
			return nil, err
		}
		superName = &name
	} else if thisName != "java.lang.Object" {
		return nil, corruptf(InvalidSuperclass, "class %q has no superclass and is not java.lang.Object", thisName)
	}

	interfacesCount, err := r.u16()
	if err != nil {
		return nil, err
	}
	interfaces := make([]string, 0, interfacesCount)
	for i := uint16(0); i < interfacesCount; i++ {
		index, err := r.u16()
		if err != nil {
			return nil, err
		}
		name, err := pool.Class(index)
		if err != nil {
			return nil, err
		}
		interfaces = append(interfaces, name)
	}

	fieldsCount, err := r.u16()
	if err != nil {
		return nil, err
	}
	fields := make([]*FieldInfo, 0, fieldsCount)
	for i := uint16(0); i < fieldsCount; i++ {
		field, err := readFieldInfo(r, pool)
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}

	methodsCount, err := r.u16()
	if err != nil {
		return nil, err
	}
	methods := make([]*MethodInfo, 0, methodsCount)
	for i := uint16(0); i < methodsCount; i++ {
		method, err := readMethodInfo(r, pool)
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}

	attributes, err := readAttributeList(r, pool)
	if err != nil {
		return nil, err
	}

	return &ClassFile{
		MinorVersion: minorVersion,
		MajorVersion: majorVersion,
		ConstantPool: pool,
		AccessFlags:  accessFlags,
		ThisName:     thisName,
		SuperName:    superName,
		Interfaces:   interfaces,
		Fields:       fields,
		Methods:      methods,
		Attributes:   attributes,
	}, nil
}

// ParseFile opens and parses the class file at path.
func ParseFile(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// FindField returns the field named name with the given raw descriptor,
// or nil if no such field is declared directly on this class.
func (c *ClassFile) FindField(name, rawDescriptor string) *FieldInfo {
	for _, f := range c.Fields {
		if f.Name == name && f.RawDescriptor == rawDescriptor {
			return f
		}
	}
	return nil
}

// FindMethod returns the method named name with the given raw
// descriptor, or nil if no such method is declared directly on this
// class.
func (c *ClassFile) FindMethod(name, rawDescriptor string) *MethodInfo {
	for _, m := range c.Methods {
		if m.Name == name && m.RawDescriptor == rawDescriptor {
			return m
		}
	}
	return nil
}

// String renders the class file header, constant pool, fields, methods,
// and attributes, top to bottom, in declaration order.
func (c *ClassFile) String() string {
	var b strings.Builder
	b.WriteString("Minor version: ")
	b.WriteString(strconv.Itoa(int(c.MinorVersion)))
	b.WriteString("\nMajor version: ")
	b.WriteString(strconv.Itoa(int(c.MajorVersion)))
	b.WriteByte('\n')
	b.WriteString(c.ConstantPool.String_())
	b.WriteString("\nAccess flags: ")
	b.WriteString(strconv.Itoa(int(c.AccessFlags)))
	b.WriteString("\nName: ")
	b.WriteString(c.ThisName)
	b.WriteByte('\n')
	if c.SuperName != nil {
		b.WriteString("Super name: ")
		b.WriteString(*c.SuperName)
		b.WriteByte('\n')
	}

	b.WriteString("Interfaces: ")
	b.WriteString(strings.Join(c.Interfaces, ", "))
	b.WriteByte('\n')

	b.WriteString("Fields:")
	for _, f := range c.Fields {
		b.WriteByte('\n')
		b.WriteString(indent(f.String(c.ConstantPool), 1))
	}
	b.WriteByte('\n')

	b.WriteString("Methods:")
	for _, m := range c.Methods {
		b.WriteByte('\n')
		b.WriteString(indent(m.String(c.ConstantPool), 1))
	}
	b.WriteByte('\n')

	b.WriteString("Attributes:")
	for _, a := range c.Attributes {
		b.WriteByte('\n')
		b.WriteString(indent(a.attrString(c.ConstantPool), 1))
	}

	return b.String()
}
