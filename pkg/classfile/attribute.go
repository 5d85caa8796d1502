package classfile

import (
	"fmt"
	"strings"
)

// AttributeInfo is the sum type over the attribute kinds this module
// understands by name: Code, StackMapTable, and everything else
// (Unknown). Name-driven dispatch happens in readAttribute.
type AttributeInfo interface {
	AttributeName() string
	attrString(pool *ConstantPool) string
}

// UnknownAttributeInfo retains the raw bytes of any attribute this module
// does not specifically model.
type UnknownAttributeInfo struct {
	Name string
	Data []byte
}

func (a *UnknownAttributeInfo) AttributeName() string { return a.Name }

func (a *UnknownAttributeInfo) attrString(*ConstantPool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Unknown Attribute: %s\n", a.Name)
	b.WriteString(hexDump(a.Data))
	return strings.TrimRight(b.String(), "\n")
}

// indent prefixes s, and every line following a newline within s, with
// level tab characters.
func indent(s string, level int) string {
	prefix := strings.Repeat("\t", level)
	var b strings.Builder
	b.WriteString(prefix)
	for _, c := range s {
		b.WriteRune(c)
		if c == '\n' {
			b.WriteString(prefix)
		}
	}
	return b.String()
}

func hexDump(data []byte) string {
	var b strings.Builder
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(&b, "\t%04x  ", i)
		for j := i; j < end; j++ {
			fmt.Fprintf(&b, "%02x ", data[j])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// readAttributeList reads a u16 count followed by that many attributes,
// per §4.4.
func readAttributeList(r *reader, pool *ConstantPool) ([]AttributeInfo, error) {
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	result := make([]AttributeInfo, 0, count)
	for i := uint16(0); i < count; i++ {
		attr, err := readAttribute(r, pool)
		if err != nil {
			return nil, err
		}
		result = append(result, attr)
	}
	return result, nil
}

// readAttribute reads one name-indexed, length-prefixed attribute and
// validates that exactly `length` bytes were consumed for its payload,
// per §4.4's AttributeLengthMismatch check.
func readAttribute(r *reader, pool *ConstantPool) (AttributeInfo, error) {
	nameIndex, err := r.u16()
	if err != nil {
		return nil, err
	}
	name, err := pool.Utf8(nameIndex)
	if err != nil {
		return nil, err
	}
	length, err := r.u32()
	if err != nil {
		return nil, err
	}
	start := r.pos()

	var attr AttributeInfo
	switch name {
	case "Code":
		attr, err = readCodeAttribute(r, pool)
	case "StackMapTable":
		attr, err = readStackMapTableAttribute(r)
	default:
		data, dataErr := r.bytes(int(length))
		if dataErr != nil {
			return nil, dataErr
		}
		attr, err = &UnknownAttributeInfo{Name: name, Data: data}, nil
	}
	if err != nil {
		return nil, err
	}

	if r.pos() != start+int64(length) {
		return nil, corruptf(AttributeLengthMismatch, "attribute %q declared length %d but consumed %d bytes", name, length, r.pos()-start)
	}
	return attr, nil
}
