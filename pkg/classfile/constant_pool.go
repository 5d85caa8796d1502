package classfile

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag identifies the kind of a constant pool entry.
type Tag uint8

const (
	TagUtf8               Tag = 1
	TagInteger            Tag = 3
	TagFloat              Tag = 4
	TagLong               Tag = 5
	TagDouble             Tag = 6
	TagClass              Tag = 7
	TagString             Tag = 8
	TagFieldRef           Tag = 9
	TagMethodRef          Tag = 10
	TagInterfaceMethodRef Tag = 11
	TagNameAndType        Tag = 12
	TagMethodHandle       Tag = 15
	TagMethodType         Tag = 16
	TagInvokeDynamic      Tag = 18
)

func (t Tag) String() string {
	switch t {
	case TagUtf8:
		return "Utf8"
	case TagInteger:
		return "Integer"
	case TagFloat:
		return "Float"
	case TagLong:
		return "Long"
	case TagDouble:
		return "Double"
	case TagClass:
		return "Class"
	case TagString:
		return "String"
	case TagFieldRef:
		return "FieldRef"
	case TagMethodRef:
		return "MethodRef"
	case TagInterfaceMethodRef:
		return "InterfaceMethodRef"
	case TagNameAndType:
		return "NameAndType"
	case TagMethodHandle:
		return "MethodHandle"
	case TagMethodType:
		return "MethodType"
	case TagInvokeDynamic:
		return "InvokeDynamic"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// ConstantPoolEntry is the sum type over every constant pool tag. Each
// concrete type below implements it; the entry at a Long/Double's second
// slot is represented as a nil interface value ("sentinel hole").
type ConstantPoolEntry interface {
	Tag() Tag
	poolString(pool *ConstantPool) string
}

type Utf8Entry struct{ Value string }

func (e *Utf8Entry) Tag() Tag { return TagUtf8 }
func (e *Utf8Entry) poolString(*ConstantPool) string {
	return fmt.Sprintf("Utf8: %q", e.Value)
}

type IntegerEntry struct{ Value int32 }

func (e *IntegerEntry) Tag() Tag { return TagInteger }
func (e *IntegerEntry) poolString(*ConstantPool) string {
	return "Integer: " + strconv.FormatInt(int64(e.Value), 10)
}

type FloatEntry struct{ Value float32 }

func (e *FloatEntry) Tag() Tag { return TagFloat }
func (e *FloatEntry) poolString(*ConstantPool) string {
	return "Float: " + strconv.FormatFloat(float64(e.Value), 'g', -1, 32)
}

type LongEntry struct{ Value int64 }

func (e *LongEntry) Tag() Tag { return TagLong }
func (e *LongEntry) poolString(*ConstantPool) string {
	return "Long: " + strconv.FormatInt(e.Value, 10)
}

type DoubleEntry struct{ Value float64 }

func (e *DoubleEntry) Tag() Tag { return TagDouble }
func (e *DoubleEntry) poolString(*ConstantPool) string {
	return "Double: " + strconv.FormatFloat(e.Value, 'g', -1, 64)
}

// ClassEntry names a class/interface by index into the Utf8 pool. FQNName
// is resolved during post-parse with '/' rewritten to '.'.
type ClassEntry struct {
	NameIndex uint16
	FQNName   string
}

func (e *ClassEntry) Tag() Tag { return TagClass }
func (e *ClassEntry) poolString(*ConstantPool) string {
	return "Class: " + e.FQNName
}

type StringEntry struct{ StringIndex uint16 }

func (e *StringEntry) Tag() Tag { return TagString }
func (e *StringEntry) poolString(pool *ConstantPool) string {
	return fmt.Sprintf("String: %q", pool.mustUtf8(e.StringIndex))
}

type FieldRefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
	Descriptor       Descriptor
}

func (e *FieldRefEntry) Tag() Tag { return TagFieldRef }
func (e *FieldRefEntry) poolString(pool *ConstantPool) string {
	return "FieldRef: " + pool.mustClass(e.ClassIndex) + " " + pool.mustName(e.NameAndTypeIndex) + " " + pool.mustType(e.NameAndTypeIndex)
}

type MethodRefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
	Descriptor       MethodDescriptor
}

func (e *MethodRefEntry) Tag() Tag { return TagMethodRef }
func (e *MethodRefEntry) poolString(pool *ConstantPool) string {
	return "MethodRef: " + pool.mustClass(e.ClassIndex) + " " + pool.mustName(e.NameAndTypeIndex) + " " + pool.mustType(e.NameAndTypeIndex)
}

type InterfaceMethodRefEntry struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
	Descriptor       MethodDescriptor
}

func (e *InterfaceMethodRefEntry) Tag() Tag { return TagInterfaceMethodRef }
func (e *InterfaceMethodRefEntry) poolString(pool *ConstantPool) string {
	return "InterfaceMethodRef: " + pool.mustClass(e.ClassIndex) + " " + pool.mustName(e.NameAndTypeIndex) + " " + pool.mustType(e.NameAndTypeIndex)
}

type NameAndTypeEntry struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (e *NameAndTypeEntry) Tag() Tag { return TagNameAndType }
func (e *NameAndTypeEntry) poolString(pool *ConstantPool) string {
	return "NameAndType: " + pool.mustUtf8(e.NameIndex) + " " + pool.mustUtf8(e.DescriptorIndex)
}

// MethodHandleEntry models a method handle constant: a reference kind
// (1..9, see JVMS 4.4.8 Table 5.1) plus an index into a FieldRef,
// MethodRef, or InterfaceMethodRef entry.
type MethodHandleEntry struct {
	ReferenceKind  uint8
	ReferenceIndex uint16
}

func (e *MethodHandleEntry) Tag() Tag { return TagMethodHandle }
func (e *MethodHandleEntry) poolString(*ConstantPool) string {
	return "MethodHandle: " + strconv.Itoa(int(e.ReferenceKind)) + " " + strconv.Itoa(int(e.ReferenceIndex))
}

type MethodTypeEntry struct{ DescriptorIndex uint16 }

func (e *MethodTypeEntry) Tag() Tag { return TagMethodType }
func (e *MethodTypeEntry) poolString(pool *ConstantPool) string {
	return "MethodType: " + pool.mustUtf8(e.DescriptorIndex)
}

// InvokeDynamicEntry models an invokedynamic call site constant: an index
// into the class's BootstrapMethods attribute plus a NameAndType index.
type InvokeDynamicEntry struct {
	BootstrapMethodAttrIndex uint16
	NameAndTypeIndex         uint16
}

func (e *InvokeDynamicEntry) Tag() Tag { return TagInvokeDynamic }
func (e *InvokeDynamicEntry) poolString(pool *ConstantPool) string {
	return "InvokeDynamic: " + strconv.Itoa(int(e.BootstrapMethodAttrIndex)) + " " + pool.mustName(e.NameAndTypeIndex) + " " + pool.mustType(e.NameAndTypeIndex)
}

// ConstantPool is the 1-indexed table of typed constants referenced
// throughout a class file. Index 0 is never valid; Long/Double entries
// occupy two consecutive indices, leaving a nil "sentinel hole" at the
// second.
type ConstantPool struct {
	entries []ConstantPoolEntry // entries[i-1] is the entry at index i
}

// Count returns one past the highest valid index, matching the class
// file's own constant_pool_count field.
func (p *ConstantPool) Count() int {
	return len(p.entries) + 1
}

func (p *ConstantPool) isValidEntry(index uint16, tag Tag) bool {
	if index == 0 || int(index) >= p.Count() {
		return false
	}
	entry := p.entries[index-1]
	return entry != nil && entry.Tag() == tag
}

func (p *ConstantPool) entryAt(index uint16) ConstantPoolEntry {
	if index == 0 || int(index) >= p.Count() {
		return nil
	}
	return p.entries[index-1]
}

// TagAt returns the tag stored at index, or an InvalidIndexError if index
// names a hole or is out of range.
func (p *ConstantPool) TagAt(index uint16) (Tag, error) {
	entry := p.entryAt(index)
	if entry == nil {
		return 0, invalidIndex(int(index), "any", "hole or out of range")
	}
	return entry.Tag(), nil
}

func (p *ConstantPool) Utf8(index uint16) (string, error) {
	if !p.isValidEntry(index, TagUtf8) {
		return "", invalidIndex(int(index), "Utf8", p.describe(index))
	}
	return p.entries[index-1].(*Utf8Entry).Value, nil
}

func (p *ConstantPool) mustUtf8(index uint16) string {
	s, _ := p.Utf8(index)
	return s
}

func (p *ConstantPool) Integer(index uint16) (int32, error) {
	if !p.isValidEntry(index, TagInteger) {
		return 0, invalidIndex(int(index), "Integer", p.describe(index))
	}
	return p.entries[index-1].(*IntegerEntry).Value, nil
}

func (p *ConstantPool) Float(index uint16) (float32, error) {
	if !p.isValidEntry(index, TagFloat) {
		return 0, invalidIndex(int(index), "Float", p.describe(index))
	}
	return p.entries[index-1].(*FloatEntry).Value, nil
}

func (p *ConstantPool) Long(index uint16) (int64, error) {
	if !p.isValidEntry(index, TagLong) {
		return 0, invalidIndex(int(index), "Long", p.describe(index))
	}
	return p.entries[index-1].(*LongEntry).Value, nil
}

func (p *ConstantPool) Double(index uint16) (float64, error) {
	if !p.isValidEntry(index, TagDouble) {
		return 0, invalidIndex(int(index), "Double", p.describe(index))
	}
	return p.entries[index-1].(*DoubleEntry).Value, nil
}

// Class returns the dotted ('.'-separated) name of the Class entry at
// index.
func (p *ConstantPool) Class(index uint16) (string, error) {
	if !p.isValidEntry(index, TagClass) {
		return "", invalidIndex(int(index), "Class", p.describe(index))
	}
	return p.entries[index-1].(*ClassEntry).FQNName, nil
}

func (p *ConstantPool) mustClass(index uint16) string {
	s, _ := p.Class(index)
	return s
}

func (p *ConstantPool) String(index uint16) (string, error) {
	if !p.isValidEntry(index, TagString) {
		return "", invalidIndex(int(index), "String", p.describe(index))
	}
	return p.Utf8(p.entries[index-1].(*StringEntry).StringIndex)
}

func (p *ConstantPool) FieldRefClass(index uint16) (string, error) {
	e, err := p.fieldRef(index)
	if err != nil {
		return "", err
	}
	return p.Class(e.ClassIndex)
}

func (p *ConstantPool) FieldRefName(index uint16) (string, error) {
	e, err := p.fieldRef(index)
	if err != nil {
		return "", err
	}
	return p.Name(e.NameAndTypeIndex)
}

func (p *ConstantPool) FieldRefType(index uint16) (string, error) {
	e, err := p.fieldRef(index)
	if err != nil {
		return "", err
	}
	return p.TypeOf(e.NameAndTypeIndex)
}

func (p *ConstantPool) FieldRefDesc(index uint16) (Descriptor, error) {
	e, err := p.fieldRef(index)
	if err != nil {
		return Descriptor{}, err
	}
	return e.Descriptor, nil
}

func (p *ConstantPool) fieldRef(index uint16) (*FieldRefEntry, error) {
	if !p.isValidEntry(index, TagFieldRef) {
		return nil, invalidIndex(int(index), "FieldRef", p.describe(index))
	}
	return p.entries[index-1].(*FieldRefEntry), nil
}

func (p *ConstantPool) MethodRefClass(index uint16) (string, error) {
	e, err := p.methodRef(index)
	if err != nil {
		return "", err
	}
	return p.Class(e.ClassIndex)
}

func (p *ConstantPool) MethodRefName(index uint16) (string, error) {
	e, err := p.methodRef(index)
	if err != nil {
		return "", err
	}
	return p.Name(e.NameAndTypeIndex)
}

func (p *ConstantPool) MethodRefType(index uint16) (string, error) {
	e, err := p.methodRef(index)
	if err != nil {
		return "", err
	}
	return p.TypeOf(e.NameAndTypeIndex)
}

func (p *ConstantPool) MethodRefDesc(index uint16) (MethodDescriptor, error) {
	e, err := p.methodRef(index)
	if err != nil {
		return MethodDescriptor{}, err
	}
	return e.Descriptor, nil
}

func (p *ConstantPool) methodRef(index uint16) (*MethodRefEntry, error) {
	if !p.isValidEntry(index, TagMethodRef) {
		return nil, invalidIndex(int(index), "MethodRef", p.describe(index))
	}
	return p.entries[index-1].(*MethodRefEntry), nil
}

func (p *ConstantPool) InterfaceMethodRefClass(index uint16) (string, error) {
	e, err := p.interfaceMethodRef(index)
	if err != nil {
		return "", err
	}
	return p.Class(e.ClassIndex)
}

func (p *ConstantPool) InterfaceMethodRefName(index uint16) (string, error) {
	e, err := p.interfaceMethodRef(index)
	if err != nil {
		return "", err
	}
	return p.Name(e.NameAndTypeIndex)
}

func (p *ConstantPool) InterfaceMethodRefType(index uint16) (string, error) {
	e, err := p.interfaceMethodRef(index)
	if err != nil {
		return "", err
	}
	return p.TypeOf(e.NameAndTypeIndex)
}

func (p *ConstantPool) InterfaceMethodRefDesc(index uint16) (MethodDescriptor, error) {
	e, err := p.interfaceMethodRef(index)
	if err != nil {
		return MethodDescriptor{}, err
	}
	return e.Descriptor, nil
}

func (p *ConstantPool) interfaceMethodRef(index uint16) (*InterfaceMethodRefEntry, error) {
	if !p.isValidEntry(index, TagInterfaceMethodRef) {
		return nil, invalidIndex(int(index), "InterfaceMethodRef", p.describe(index))
	}
	return p.entries[index-1].(*InterfaceMethodRefEntry), nil
}

func (p *ConstantPool) Name(index uint16) (string, error) {
	if !p.isValidEntry(index, TagNameAndType) {
		return "", invalidIndex(int(index), "NameAndType", p.describe(index))
	}
	return p.Utf8(p.entries[index-1].(*NameAndTypeEntry).NameIndex)
}

func (p *ConstantPool) mustName(index uint16) string {
	s, _ := p.Name(index)
	return s
}

func (p *ConstantPool) TypeOf(index uint16) (string, error) {
	if !p.isValidEntry(index, TagNameAndType) {
		return "", invalidIndex(int(index), "NameAndType", p.describe(index))
	}
	return p.Utf8(p.entries[index-1].(*NameAndTypeEntry).DescriptorIndex)
}

func (p *ConstantPool) mustType(index uint16) string {
	s, _ := p.TypeOf(index)
	return s
}

func (p *ConstantPool) MethodHandle(index uint16) (*MethodHandleEntry, error) {
	if !p.isValidEntry(index, TagMethodHandle) {
		return nil, invalidIndex(int(index), "MethodHandle", p.describe(index))
	}
	return p.entries[index-1].(*MethodHandleEntry), nil
}

func (p *ConstantPool) MethodType(index uint16) (string, error) {
	if !p.isValidEntry(index, TagMethodType) {
		return "", invalidIndex(int(index), "MethodType", p.describe(index))
	}
	return p.Utf8(p.entries[index-1].(*MethodTypeEntry).DescriptorIndex)
}

func (p *ConstantPool) InvokeDynamic(index uint16) (*InvokeDynamicEntry, error) {
	if !p.isValidEntry(index, TagInvokeDynamic) {
		return nil, invalidIndex(int(index), "InvokeDynamic", p.describe(index))
	}
	return p.entries[index-1].(*InvokeDynamicEntry), nil
}

func (p *ConstantPool) describe(index uint16) string {
	entry := p.entryAt(index)
	if entry == nil {
		return "hole or out of range"
	}
	return entry.Tag().String()
}

func (p *ConstantPool) String_() string {
	var b strings.Builder
	b.WriteString("Constant pool:\n")
	for i, entry := range p.entries {
		if entry == nil {
			continue
		}
		b.WriteString(fmt.Sprintf("\t%d %s\n", i+1, entry.poolString(p)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// parseConstantPool implements §4.3's two-phase parse-then-post-parse
// algorithm.
func parseConstantPool(r *reader) (*ConstantPool, error) {
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, corrupt(BadIndex, "constant pool count must be at least 1")
	}

	entries := make([]ConstantPoolEntry, count-1)
	for i := uint16(1); i < count; {
		entry, err := readConstantPoolEntry(r)
		if err != nil {
			return nil, err
		}
		entries[i-1] = entry
		if entry.Tag() == TagLong || entry.Tag() == TagDouble {
			i += 2
		} else {
			i++
		}
	}

	pool := &ConstantPool{entries: entries}
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		if err := postParseEntry(pool, entry); err != nil {
			return nil, err
		}
	}
	return pool, nil
}

func readConstantPoolEntry(r *reader) (ConstantPoolEntry, error) {
	tagByte, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch Tag(tagByte) {
	case TagUtf8:
		length, err := r.u16()
		if err != nil {
			return nil, err
		}
		raw, err := r.bytes(int(length))
		if err != nil {
			return nil, err
		}
		return &Utf8Entry{Value: string(raw)}, nil
	case TagInteger:
		v, err := r.i32()
		if err != nil {
			return nil, err
		}
		return &IntegerEntry{Value: v}, nil
	case TagFloat:
		v, err := r.f32()
		if err != nil {
			return nil, err
		}
		return &FloatEntry{Value: v}, nil
	case TagLong:
		v, err := r.i64()
		if err != nil {
			return nil, err
		}
		return &LongEntry{Value: v}, nil
	case TagDouble:
		v, err := r.f64()
		if err != nil {
			return nil, err
		}
		return &DoubleEntry{Value: v}, nil
	case TagClass:
		nameIndex, err := r.u16()
		if err != nil {
			return nil, err
		}
		return &ClassEntry{NameIndex: nameIndex}, nil
	case TagString:
		stringIndex, err := r.u16()
		if err != nil {
			return nil, err
		}
		return &StringEntry{StringIndex: stringIndex}, nil
	case TagFieldRef:
		classIndex, nameAndTypeIndex, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return &FieldRefEntry{ClassIndex: classIndex, NameAndTypeIndex: nameAndTypeIndex}, nil
	case TagMethodRef:
		classIndex, nameAndTypeIndex, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return &MethodRefEntry{ClassIndex: classIndex, NameAndTypeIndex: nameAndTypeIndex}, nil
	case TagInterfaceMethodRef:
		classIndex, nameAndTypeIndex, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return &InterfaceMethodRefEntry{ClassIndex: classIndex, NameAndTypeIndex: nameAndTypeIndex}, nil
	case TagNameAndType:
		nameIndex, descriptorIndex, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return &NameAndTypeEntry{NameIndex: nameIndex, DescriptorIndex: descriptorIndex}, nil
	case TagMethodHandle:
		kind, err := r.u8()
		if err != nil {
			return nil, err
		}
		refIndex, err := r.u16()
		if err != nil {
			return nil, err
		}
		return &MethodHandleEntry{ReferenceKind: kind, ReferenceIndex: refIndex}, nil
	case TagMethodType:
		descriptorIndex, err := r.u16()
		if err != nil {
			return nil, err
		}
		return &MethodTypeEntry{DescriptorIndex: descriptorIndex}, nil
	case TagInvokeDynamic:
		bootstrapIndex, nameAndTypeIndex, err := readRefPair(r)
		if err != nil {
			return nil, err
		}
		return &InvokeDynamicEntry{BootstrapMethodAttrIndex: bootstrapIndex, NameAndTypeIndex: nameAndTypeIndex}, nil
	default:
		return nil, corruptf(BadTag, "unknown constant pool tag %d", tagByte)
	}
}

func readRefPair(r *reader) (uint16, uint16, error) {
	a, err := r.u16()
	if err != nil {
		return 0, 0, err
	}
	b, err := r.u16()
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func postParseEntry(pool *ConstantPool, entry ConstantPoolEntry) error {
	switch e := entry.(type) {
	case *ClassEntry:
		if !pool.isValidEntry(e.NameIndex, TagUtf8) {
			return corrupt(BadIndex, "invalid class name index")
		}
		e.FQNName = strings.ReplaceAll(pool.mustUtf8(e.NameIndex), "/", ".")
	case *StringEntry:
		if !pool.isValidEntry(e.StringIndex, TagUtf8) {
			return corrupt(BadIndex, "invalid string index")
		}
	case *FieldRefEntry:
		if !pool.isValidEntry(e.ClassIndex, TagClass) {
			return corrupt(BadIndex, "invalid field ref class index")
		}
		if !pool.isValidEntry(e.NameAndTypeIndex, TagNameAndType) {
			return corrupt(BadIndex, "invalid field ref name and type index")
		}
		desc, err := ParseDescriptor(pool.mustType(e.NameAndTypeIndex))
		if err != nil {
			return err
		}
		e.Descriptor = desc
	case *MethodRefEntry:
		if !pool.isValidEntry(e.ClassIndex, TagClass) {
			return corrupt(BadIndex, "invalid method ref class index")
		}
		if !pool.isValidEntry(e.NameAndTypeIndex, TagNameAndType) {
			return corrupt(BadIndex, "invalid method ref name and type index")
		}
		desc, err := ParseMethodDescriptor(pool.mustType(e.NameAndTypeIndex))
		if err != nil {
			return err
		}
		e.Descriptor = desc
	case *InterfaceMethodRefEntry:
		if !pool.isValidEntry(e.ClassIndex, TagClass) {
			return corrupt(BadIndex, "invalid interface method ref class index")
		}
		if !pool.isValidEntry(e.NameAndTypeIndex, TagNameAndType) {
			return corrupt(BadIndex, "invalid interface method ref name and type index")
		}
		desc, err := ParseMethodDescriptor(pool.mustType(e.NameAndTypeIndex))
		if err != nil {
			return err
		}
		e.Descriptor = desc
	case *NameAndTypeEntry:
		if !pool.isValidEntry(e.NameIndex, TagUtf8) {
			return corrupt(BadIndex, "invalid name and type name index")
		}
		if !pool.isValidEntry(e.DescriptorIndex, TagUtf8) {
			return corrupt(BadIndex, "invalid name and type descriptor index")
		}
	case *MethodHandleEntry:
		if e.ReferenceKind < 1 || e.ReferenceKind > 9 {
			return corruptf(MethodHandleKindOutOfRange, "reference kind %d out of range 1..9", e.ReferenceKind)
		}
		if !pool.isValidEntry(e.ReferenceIndex, TagFieldRef) &&
			!pool.isValidEntry(e.ReferenceIndex, TagMethodRef) &&
			!pool.isValidEntry(e.ReferenceIndex, TagInterfaceMethodRef) {
			return corrupt(BadIndex, "invalid method handle reference index")
		}
	case *MethodTypeEntry:
		if !pool.isValidEntry(e.DescriptorIndex, TagUtf8) {
			return corrupt(BadIndex, "invalid method type descriptor index")
		}
	case *InvokeDynamicEntry:
		if !pool.isValidEntry(e.NameAndTypeIndex, TagNameAndType) {
			return corrupt(BadIndex, "invalid invoke dynamic name and type index")
		}
	}
	return nil
}
