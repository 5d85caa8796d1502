package classfile

import "fmt"

// field/method access_flags bits, per JVMS §4.5/§4.6.
const (
	accPublic       uint16 = 0x0001
	accPrivate      uint16 = 0x0002
	accProtected    uint16 = 0x0004
	accStatic       uint16 = 0x0008
	accFinal        uint16 = 0x0010
	accSynchronized uint16 = 0x0020 // method
	accVolatile     uint16 = 0x0040 // field
	accBridge       uint16 = 0x0040 // method
	accTransient    uint16 = 0x0080 // field
	accVarargs      uint16 = 0x0080 // method
	accNative       uint16 = 0x0100
	accInterface    uint16 = 0x0200
	accAbstract     uint16 = 0x0400
	accStrict       uint16 = 0x0800
	accSynthetic    uint16 = 0x1000
	accAnnotation   uint16 = 0x2000
	accEnum         uint16 = 0x4000
)

// FieldInfo describes one field declared by a class, per §4.5.
type FieldInfo struct {
	AccessFlags   uint16
	Name          string
	RawDescriptor string
	Descriptor    Descriptor
	Attributes    []AttributeInfo
}

func (f *FieldInfo) IsPublic() bool    { return f.AccessFlags&accPublic != 0 }
func (f *FieldInfo) IsPrivate() bool   { return f.AccessFlags&accPrivate != 0 }
func (f *FieldInfo) IsProtected() bool { return f.AccessFlags&accProtected != 0 }
func (f *FieldInfo) IsStatic() bool    { return f.AccessFlags&accStatic != 0 }
func (f *FieldInfo) IsFinal() bool     { return f.AccessFlags&accFinal != 0 }
func (f *FieldInfo) IsVolatile() bool  { return f.AccessFlags&accVolatile != 0 }
func (f *FieldInfo) IsTransient() bool { return f.AccessFlags&accTransient != 0 }
func (f *FieldInfo) IsSynthetic() bool { return f.AccessFlags&accSynthetic != 0 }
func (f *FieldInfo) IsEnum() bool      { return f.AccessFlags&accEnum != 0 }

func (f *FieldInfo) String(pool *ConstantPool) string {
	var attrs string
	for _, a := range f.Attributes {
		attrs += a.attrString(pool)
	}
	return fmt.Sprintf("Field: %s %s\n%s", f.Name, f.RawDescriptor, indent(attrs, 1))
}

func readFieldInfo(r *reader, pool *ConstantPool) (*FieldInfo, error) {
	accessFlags, err := r.u16()
	if err != nil {
		return nil, err
	}
	nameIndex, err := r.u16()
	if err != nil {
		return nil, err
	}
	name, err := pool.Utf8(nameIndex)
	if err != nil {
		return nil, err
	}
	descIndex, err := r.u16()
	if err != nil {
		return nil, err
	}
	rawDescriptor, err := pool.Utf8(descIndex)
	if err != nil {
		return nil, err
	}
	descriptor, err := ParseDescriptor(rawDescriptor)
	if err != nil {
		return nil, err
	}
	attributes, err := readAttributeList(r, pool)
	if err != nil {
		return nil, err
	}
	return &FieldInfo{
		AccessFlags:   accessFlags,
		Name:          name,
		RawDescriptor: rawDescriptor,
		Descriptor:    descriptor,
		Attributes:    attributes,
	}, nil
}

// MethodInfo describes one method (or constructor) declared by a class,
// per §4.6.
type MethodInfo struct {
	AccessFlags   uint16
	Name          string
	RawDescriptor string
	Descriptor    MethodDescriptor
	Code          *CodeAttribute // nil for abstract/native methods
	Attributes    []AttributeInfo
}

func (m *MethodInfo) IsPublic() bool       { return m.AccessFlags&accPublic != 0 }
func (m *MethodInfo) IsPrivate() bool      { return m.AccessFlags&accPrivate != 0 }
func (m *MethodInfo) IsProtected() bool    { return m.AccessFlags&accProtected != 0 }
func (m *MethodInfo) IsStatic() bool       { return m.AccessFlags&accStatic != 0 }
func (m *MethodInfo) IsFinal() bool        { return m.AccessFlags&accFinal != 0 }
func (m *MethodInfo) IsSynchronized() bool { return m.AccessFlags&accSynchronized != 0 }
func (m *MethodInfo) IsBridge() bool       { return m.AccessFlags&accBridge != 0 }
func (m *MethodInfo) IsVarargs() bool      { return m.AccessFlags&accVarargs != 0 }
func (m *MethodInfo) IsNative() bool       { return m.AccessFlags&accNative != 0 }
func (m *MethodInfo) IsAbstract() bool     { return m.AccessFlags&accAbstract != 0 }
func (m *MethodInfo) IsStrict() bool       { return m.AccessFlags&accStrict != 0 }
func (m *MethodInfo) IsSynthetic() bool    { return m.AccessFlags&accSynthetic != 0 }

func (m *MethodInfo) String(pool *ConstantPool) string {
	var attrs string
	for _, a := range m.Attributes {
		attrs += a.attrString(pool)
	}
	return fmt.Sprintf("Method: %s %s\n%s", m.Name, m.RawDescriptor, indent(attrs, 1))
}

func readMethodInfo(r *reader, pool *ConstantPool) (*MethodInfo, error) {
	accessFlags, err := r.u16()
	if err != nil {
		return nil, err
	}
	nameIndex, err := r.u16()
	if err != nil {
		return nil, err
	}
	name, err := pool.Utf8(nameIndex)
	if err != nil {
		return nil, err
	}
	descIndex, err := r.u16()
	if err != nil {
		return nil, err
	}
	rawDescriptor, err := pool.Utf8(descIndex)
	if err != nil {
		return nil, err
	}
	descriptor, err := ParseMethodDescriptor(rawDescriptor)
	if err != nil {
		return nil, err
	}
	attributes, err := readAttributeList(r, pool)
	if err != nil {
		return nil, err
	}

	var code *CodeAttribute
	for _, a := range attributes {
		if c, ok := a.(*CodeAttribute); ok {
			code = c
			break
		}
	}

	return &MethodInfo{
		AccessFlags:   accessFlags,
		Name:          name,
		RawDescriptor: rawDescriptor,
		Descriptor:    descriptor,
		Code:          code,
		Attributes:    attributes,
	}, nil
}
