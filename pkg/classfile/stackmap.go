package classfile

import "fmt"

// VerificationTag is the kind of a VerificationTypeInfo slot.
type VerificationTag uint8

const (
	VerifyTop               VerificationTag = 0
	VerifyInteger           VerificationTag = 1
	VerifyFloat             VerificationTag = 2
	VerifyDouble            VerificationTag = 3
	VerifyLong              VerificationTag = 4
	VerifyNull              VerificationTag = 5
	VerifyUninitializedThis VerificationTag = 6
	VerifyObject            VerificationTag = 7
	VerifyUninitialized     VerificationTag = 8
)

// VerificationTypeInfo is a single locals/stack slot shape as recorded by
// a StackMapTable frame. Object carries a constant pool index (the class
// being verified); Uninitialized carries the code offset of the `new`
// instruction that produced it. All other tags are nullary.
type VerificationTypeInfo struct {
	Tag             VerificationTag
	PoolIndex       uint16 // VerifyObject only
	NewInstrOffset  uint16 // VerifyUninitialized only
}

func (v VerificationTypeInfo) String() string {
	switch v.Tag {
	case VerifyTop:
		return "top"
	case VerifyInteger:
		return "int"
	case VerifyFloat:
		return "float"
	case VerifyDouble:
		return "double"
	case VerifyLong:
		return "long"
	case VerifyNull:
		return "null"
	case VerifyUninitializedThis:
		return "uninitializedThis"
	case VerifyObject:
		return fmt.Sprintf("object[%d]", v.PoolIndex)
	case VerifyUninitialized:
		return fmt.Sprintf("uninitialized(@%d)", v.NewInstrOffset)
	default:
		return fmt.Sprintf("verify(%d)", v.Tag)
	}
}

func readVerificationTypeInfo(r *reader) (VerificationTypeInfo, error) {
	tag, err := r.u8()
	if err != nil {
		return VerificationTypeInfo{}, err
	}
	v := VerificationTypeInfo{Tag: VerificationTag(tag)}
	switch v.Tag {
	case VerifyObject:
		idx, err := r.u16()
		if err != nil {
			return VerificationTypeInfo{}, err
		}
		v.PoolIndex = idx
	case VerifyUninitialized:
		off, err := r.u16()
		if err != nil {
			return VerificationTypeInfo{}, err
		}
		v.NewInstrOffset = off
	case VerifyTop, VerifyInteger, VerifyFloat, VerifyDouble, VerifyLong, VerifyNull, VerifyUninitializedThis:
		// nullary
	default:
		return VerificationTypeInfo{}, corruptf(InvalidVerificationTag, "unknown verification type tag %d", tag)
	}
	return v, nil
}

// StackMapFrameKind is the shape of a delta-encoded StackMapTable entry.
type StackMapFrameKind int

const (
	FrameSame StackMapFrameKind = iota
	FrameChop
	FrameAppend
	FrameFull
)

// StackMapFrame is one delta-encoded entry of a StackMapTable attribute,
// per §4.7. Same additionally carries a single stack item when rawType
// was in the SameLocals1StackItem{,Extended} range.
type StackMapFrame struct {
	Kind        StackMapFrameKind
	OffsetDelta uint16

	StackItem *VerificationTypeInfo // FrameSame, optional

	ChopNum uint8 // FrameChop

	NewLocals []VerificationTypeInfo // FrameAppend

	Locals []VerificationTypeInfo // FrameFull
	Stack  []VerificationTypeInfo // FrameFull
}

// readStackMapFrame decodes one frame per the rawType dispatch table in
// §4.7.
func readStackMapFrame(r *reader) (StackMapFrame, error) {
	rawType, err := r.u8()
	if err != nil {
		return StackMapFrame{}, err
	}

	switch {
	case rawType <= 63:
		return StackMapFrame{Kind: FrameSame, OffsetDelta: uint16(rawType)}, nil
	case rawType <= 127:
		item, err := readVerificationTypeInfo(r)
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{Kind: FrameSame, OffsetDelta: uint16(rawType) - 64, StackItem: &item}, nil
	case rawType <= 246:
		return StackMapFrame{}, corruptf(ReservedStackMapTag, "reserved stack map frame tag %d", rawType)
	case rawType == 247:
		delta, err := r.u16()
		if err != nil {
			return StackMapFrame{}, err
		}
		item, err := readVerificationTypeInfo(r)
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{Kind: FrameSame, OffsetDelta: delta, StackItem: &item}, nil
	case rawType <= 250:
		delta, err := r.u16()
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{Kind: FrameChop, OffsetDelta: delta, ChopNum: 251 - rawType}, nil
	case rawType == 251:
		delta, err := r.u16()
		if err != nil {
			return StackMapFrame{}, err
		}
		return StackMapFrame{Kind: FrameSame, OffsetDelta: delta}, nil
	case rawType <= 254:
		delta, err := r.u16()
		if err != nil {
			return StackMapFrame{}, err
		}
		numNew := rawType - 251
		newLocals := make([]VerificationTypeInfo, 0, numNew)
		for i := uint8(0); i < numNew; i++ {
			item, err := readVerificationTypeInfo(r)
			if err != nil {
				return StackMapFrame{}, err
			}
			newLocals = append(newLocals, item)
		}
		return StackMapFrame{Kind: FrameAppend, OffsetDelta: delta, NewLocals: newLocals}, nil
	default: // 255
		delta, err := r.u16()
		if err != nil {
			return StackMapFrame{}, err
		}
		localsCount, err := r.u16()
		if err != nil {
			return StackMapFrame{}, err
		}
		locals := make([]VerificationTypeInfo, 0, localsCount)
		for i := uint16(0); i < localsCount; i++ {
			item, err := readVerificationTypeInfo(r)
			if err != nil {
				return StackMapFrame{}, err
			}
			locals = append(locals, item)
		}
		stackCount, err := r.u16()
		if err != nil {
			return StackMapFrame{}, err
		}
		stack := make([]VerificationTypeInfo, 0, stackCount)
		for i := uint16(0); i < stackCount; i++ {
			item, err := readVerificationTypeInfo(r)
			if err != nil {
				return StackMapFrame{}, err
			}
			stack = append(stack, item)
		}
		return StackMapFrame{Kind: FrameFull, OffsetDelta: delta, Locals: locals, Stack: stack}, nil
	}
}

// StackMapTableAttribute is an ordered list of delta-encoded frames.
type StackMapTableAttribute struct {
	Entries []StackMapFrame
}

func (a *StackMapTableAttribute) AttributeName() string { return "StackMapTable" }

func (a *StackMapTableAttribute) attrString(*ConstantPool) string {
	return fmt.Sprintf("StackMapTable: %d entries", len(a.Entries))
}

func readStackMapTableAttribute(r *reader) (*StackMapTableAttribute, error) {
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	entries := make([]StackMapFrame, 0, count)
	for i := uint16(0); i < count; i++ {
		frame, err := readStackMapFrame(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, frame)
	}
	return &StackMapTableAttribute{Entries: entries}, nil
}

// AbsoluteStackMapFrame is a StackMapFrame resolved to a concrete code
// offset with a full (locals, stack) snapshot. Locals are shared across
// frames that reuse the previous frame's locals unchanged.
type AbsoluteStackMapFrame struct {
	Start  uint32
	Locals []VerificationTypeInfo
	Stack  []VerificationTypeInfo
}

// implicitStackMapFrame is the seed frame used both when a method has no
// StackMapTable at all (§4.8 Case A) and as the predecessor of a
// method's first explicit frame.
func implicitStackMapFrame() AbsoluteStackMapFrame {
	return AbsoluteStackMapFrame{Start: 0}
}

// apply resolves a delta-encoded frame against the previous absolute
// frame, per §4.7's frame-application rules. Chop/Same/Append always
// clear the operand stack inherited from prev; only the locals carry
// over, matching how a JVM verifier treats a fresh basic block entry.
func (f StackMapFrame) apply(prev AbsoluteStackMapFrame) (AbsoluteStackMapFrame, error) {
	extra := uint32(0)
	if prev.Start != 0 {
		extra = 1
	}
	newStart := prev.Start + uint32(f.OffsetDelta) + extra

	switch f.Kind {
	case FrameSame:
		stack := []VerificationTypeInfo(nil)
		if f.StackItem != nil {
			stack = []VerificationTypeInfo{*f.StackItem}
		}
		return AbsoluteStackMapFrame{Start: newStart, Locals: prev.Locals, Stack: stack}, nil
	case FrameChop:
		if int(f.ChopNum) > len(prev.Locals) {
			return AbsoluteStackMapFrame{}, corruptf(ChopUnderflow, "chop %d exceeds %d locals", f.ChopNum, len(prev.Locals))
		}
		locals := prev.Locals[:len(prev.Locals)-int(f.ChopNum)]
		return AbsoluteStackMapFrame{Start: newStart, Locals: locals, Stack: nil}, nil
	case FrameAppend:
		locals := make([]VerificationTypeInfo, 0, len(prev.Locals)+len(f.NewLocals))
		locals = append(locals, prev.Locals...)
		locals = append(locals, f.NewLocals...)
		return AbsoluteStackMapFrame{Start: newStart, Locals: locals, Stack: nil}, nil
	case FrameFull:
		return AbsoluteStackMapFrame{Start: newStart, Locals: f.Locals, Stack: f.Stack}, nil
	default:
		return AbsoluteStackMapFrame{}, fmt.Errorf("unknown stack map frame kind %d", f.Kind)
	}
}
