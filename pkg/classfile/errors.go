package classfile

import (
	"fmt"

	"github.com/pkg/errors"
)

// CorruptKind identifies the specific way a class file failed to parse.
type CorruptKind int

const (
	UnexpectedEof CorruptKind = iota
	BadMagic
	BadTag
	BadIndex
	BadDescriptor
	BadNewArrayType
	AttributeLengthMismatch
	InvalidSuperclass
	InvalidVerificationTag
	ReservedStackMapTag
	ChopUnderflow
	MethodHandleKindOutOfRange
	OversizedAllocation
	UnknownOpcode
)

func (k CorruptKind) String() string {
	switch k {
	case UnexpectedEof:
		return "UnexpectedEof"
	case BadMagic:
		return "BadMagic"
	case BadTag:
		return "BadTag"
	case BadIndex:
		return "BadIndex"
	case BadDescriptor:
		return "BadDescriptor"
	case BadNewArrayType:
		return "BadNewArrayType"
	case AttributeLengthMismatch:
		return "AttributeLengthMismatch"
	case InvalidSuperclass:
		return "InvalidSuperclass"
	case InvalidVerificationTag:
		return "InvalidVerificationTag"
	case ReservedStackMapTag:
		return "ReservedStackMapTag"
	case ChopUnderflow:
		return "ChopUnderflow"
	case MethodHandleKindOutOfRange:
		return "MethodHandleKindOutOfRange"
	case OversizedAllocation:
		return "OversizedAllocation"
	case UnknownOpcode:
		return "UnknownOpcode"
	default:
		return "Unknown"
	}
}

// CorruptClassFileError reports that the input bytes are not a well-formed
// class file. It is never raised for caller misuse; see InvalidIndexError
// for that case.
type CorruptClassFileError struct {
	Kind   CorruptKind
	Detail string
}

func (e *CorruptClassFileError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("corrupt class file: %s", e.Kind)
	}
	return fmt.Sprintf("corrupt class file: %s: %s", e.Kind, e.Detail)
}

// corrupt constructs a CorruptClassFileError wrapped with a stack trace so
// that verbose callers (see cmd/classdump) can print where parsing gave up.
func corrupt(kind CorruptKind, detail string) error {
	return errors.WithStack(&CorruptClassFileError{Kind: kind, Detail: detail})
}

func corruptf(kind CorruptKind, format string, args ...interface{}) error {
	return corrupt(kind, fmt.Sprintf(format, args...))
}

// InvalidIndexError reports that an accessor was invoked against a constant
// pool index that does not hold the tag the accessor requires. This is a
// caller bug, never a property of the input file.
type InvalidIndexError struct {
	Index    int
	Expected string
	Got      string
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid constant pool index %d: expected %s, got %s", e.Index, e.Expected, e.Got)
}

func invalidIndex(index int, expected, got string) error {
	return &InvalidIndexError{Index: index, Expected: expected, Got: got}
}

// IsCorrupt reports whether err (or its cause) is a CorruptClassFileError
// of the given kind.
func IsCorrupt(err error, kind CorruptKind) bool {
	var c *CorruptClassFileError
	if !errors.As(err, &c) {
		return false
	}
	return c.Kind == kind
}

// UnimplementedError reports a well-formed construct this package
// deliberately does not decode further, rather than a malformed file or
// caller bug. The source this package is grounded on raises the C++
// equivalent (a runtime_error) for the same two cases: the wide opcode
// prefix and tableswitch/lookupswitch successor enumeration in a
// ControlFlowGraph.
type UnimplementedError struct {
	Feature string
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("classfile: unimplemented: %s", e.Feature)
}
