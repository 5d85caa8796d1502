package classfile

import "strings"

// DescriptorType is the primitive or reference kind a Descriptor encodes.
type DescriptorType uint8

const (
	TypeByte DescriptorType = iota
	TypeChar
	TypeDouble
	TypeFloat
	TypeInt
	TypeLong
	TypeObject
	TypeShort
	TypeBoolean
	TypeVoid
)

// NewArrayType is the operand of the newarray instruction (0xbc).
type NewArrayType uint8

const (
	NewArrayBoolean NewArrayType = 4
	NewArrayChar    NewArrayType = 5
	NewArrayFloat   NewArrayType = 6
	NewArrayDouble  NewArrayType = 7
	NewArrayByte    NewArrayType = 8
	NewArrayShort   NewArrayType = 9
	NewArrayInt     NewArrayType = 10
	NewArrayLong    NewArrayType = 11
)

// DescriptorFromNewArray maps a newarray operand to the Descriptor type it
// denotes, per JVMS 4.10.1.9. The zero value's caller must check ok.
func DescriptorFromNewArray(t NewArrayType) (DescriptorType, bool) {
	switch t {
	case NewArrayBoolean:
		return TypeBoolean, true
	case NewArrayChar:
		return TypeChar, true
	case NewArrayFloat:
		return TypeFloat, true
	case NewArrayDouble:
		return TypeDouble, true
	case NewArrayByte:
		return TypeByte, true
	case NewArrayShort:
		return TypeShort, true
	case NewArrayInt:
		return TypeInt, true
	case NewArrayLong:
		return TypeLong, true
	default:
		return 0, false
	}
}

// Descriptor is a parsed field descriptor: a primitive type, or an Object
// type carrying a dotted class name, optionally wrapped in array
// dimensions.
type Descriptor struct {
	Type            DescriptorType
	ArrayDimensions uint8
	ClassName       string // only meaningful when Type == TypeObject
}

// FormalSize returns the JVMS formal size of the descriptor: 2 for a
// standalone Long/Double, 0 for a standalone Void, 1 otherwise. Arrays of
// any element type have formal size 1 (a reference).
func (d Descriptor) FormalSize() uint32 {
	if d.ArrayDimensions > 0 {
		return 1
	}
	switch d.Type {
	case TypeVoid:
		return 0
	case TypeLong, TypeDouble:
		return 2
	default:
		return 1
	}
}

func (d Descriptor) String() string {
	var base string
	switch d.Type {
	case TypeByte:
		base = "byte"
	case TypeChar:
		base = "char"
	case TypeDouble:
		base = "double"
	case TypeFloat:
		base = "float"
	case TypeInt:
		base = "int"
	case TypeLong:
		base = "long"
	case TypeShort:
		base = "short"
	case TypeBoolean:
		base = "boolean"
	case TypeVoid:
		base = "void"
	case TypeObject:
		base = d.ClassName
	}
	return base + strings.Repeat("[]", int(d.ArrayDimensions))
}

// MethodDescriptor is a parsed method descriptor: an ordered parameter
// list plus a return type and the precomputed formal parameter size.
type MethodDescriptor struct {
	Params           []Descriptor
	Return           Descriptor
	FormalParamSize  uint32
}

func (m MethodDescriptor) String() string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + m.Return.String()
}

// descriptorScanner walks a descriptor string one rune at a time, the Go
// analogue of reading from a std::istream a byte at a time.
type descriptorScanner struct {
	s   string
	pos int
}

func (s *descriptorScanner) peek() (byte, bool) {
	if s.pos >= len(s.s) {
		return 0, false
	}
	return s.s[s.pos], true
}

func (s *descriptorScanner) get() (byte, bool) {
	b, ok := s.peek()
	if ok {
		s.pos++
	}
	return b, ok
}

// ParseDescriptor parses a single field descriptor from s, per JVMS 4.3.2.
func ParseDescriptor(s string) (Descriptor, error) {
	sc := &descriptorScanner{s: s}
	d, err := readDescriptor(sc)
	if err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

func readDescriptor(sc *descriptorScanner) (Descriptor, error) {
	var arrayDimensions uint8
	for {
		c, ok := sc.peek()
		if !ok || c != '[' {
			break
		}
		arrayDimensions++
		sc.get()
	}

	c, ok := sc.get()
	if !ok {
		return Descriptor{}, corrupt(BadDescriptor, "unexpected end of descriptor")
	}

	switch c {
	case 'B':
		return Descriptor{Type: TypeByte, ArrayDimensions: arrayDimensions}, nil
	case 'C':
		return Descriptor{Type: TypeChar, ArrayDimensions: arrayDimensions}, nil
	case 'D':
		return Descriptor{Type: TypeDouble, ArrayDimensions: arrayDimensions}, nil
	case 'F':
		return Descriptor{Type: TypeFloat, ArrayDimensions: arrayDimensions}, nil
	case 'I':
		return Descriptor{Type: TypeInt, ArrayDimensions: arrayDimensions}, nil
	case 'J':
		return Descriptor{Type: TypeLong, ArrayDimensions: arrayDimensions}, nil
	case 'S':
		return Descriptor{Type: TypeShort, ArrayDimensions: arrayDimensions}, nil
	case 'Z':
		return Descriptor{Type: TypeBoolean, ArrayDimensions: arrayDimensions}, nil
	case 'V':
		if arrayDimensions > 0 {
			return Descriptor{}, corrupt(BadDescriptor, "void type cannot be an array")
		}
		return Descriptor{Type: TypeVoid}, nil
	case 'L':
		var className strings.Builder
		for {
			c2, ok := sc.peek()
			if !ok {
				return Descriptor{}, corrupt(BadDescriptor, "unterminated class name in descriptor")
			}
			if c2 == ';' {
				break
			}
			sc.get()
			if c2 == '/' {
				c2 = '.'
			}
			className.WriteByte(c2)
		}
		sc.get() // consume ';'
		return Descriptor{Type: TypeObject, ArrayDimensions: arrayDimensions, ClassName: className.String()}, nil
	default:
		return Descriptor{}, corruptf(BadDescriptor, "unknown descriptor tag %q", c)
	}
}

// ParseMethodDescriptor parses a method descriptor, per JVMS 4.3.3.
func ParseMethodDescriptor(s string) (MethodDescriptor, error) {
	sc := &descriptorScanner{s: s}

	open, ok := sc.get()
	if !ok || open != '(' {
		return MethodDescriptor{}, corrupt(BadDescriptor, "method descriptor must start with '('")
	}

	var params []Descriptor
	var formalParamSize uint32
	for {
		c, ok := sc.peek()
		if !ok {
			return MethodDescriptor{}, corrupt(BadDescriptor, "unterminated method descriptor parameter list")
		}
		if c == ')' {
			break
		}
		p, err := readDescriptor(sc)
		if err != nil {
			return MethodDescriptor{}, err
		}
		params = append(params, p)
		formalParamSize += p.FormalSize()
	}
	sc.get() // consume ')'

	ret, err := readDescriptor(sc)
	if err != nil {
		return MethodDescriptor{}, err
	}

	return MethodDescriptor{Params: params, Return: ret, FormalParamSize: formalParamSize}, nil
}
