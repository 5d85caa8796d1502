package classfile

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// CodeIterator walks the instructions of a Code attribute's raw byte
// array, one variable-width instruction at a time (§4.6). It holds a
// borrowed reference to the code bytes; it does not copy them.
type CodeIterator struct {
	code     []byte
	position uint32
}

func newCodeIterator(code []byte) *CodeIterator {
	return &CodeIterator{code: code}
}

// Next returns the offset of the current instruction and advances past
// it. Callers must check Eof before calling Next.
func (it *CodeIterator) Next() (uint32, error) {
	if it.Eof() {
		return 0, fmt.Errorf("classfile: CodeIterator.Next called at eof")
	}
	result := it.position
	opcode := it.code[result]
	width := opcodeWidth[opcode]
	if width == 0 {
		switch Opcode(opcode) {
		case OpTableswitch:
			end, err := tableSwitchEnd(it, result)
			if err != nil {
				return 0, err
			}
			it.position = end
		case OpLookupswitch:
			end, err := lookupSwitchEnd(it, result)
			if err != nil {
				return 0, err
			}
			it.position = end
		case OpWide:
			return 0, &UnimplementedError{Feature: fmt.Sprintf("wide opcode at offset %d", result)}
		default:
			return 0, corruptf(UnknownOpcode, "unimplemented opcode 0x%02x at offset %d", opcode, result)
		}
	} else {
		if Opcode(opcode) == OpNewarray && int(result)+1 < len(it.code) {
			if _, ok := DescriptorFromNewArray(NewArrayType(it.code[result+1])); !ok {
				return 0, corruptf(BadNewArrayType, "newarray type %d at offset %d", it.code[result+1], result)
			}
		}
		it.position = result + uint32(width)
	}
	return result, nil
}

// Peek returns the current position without advancing.
func (it *CodeIterator) Peek() uint32 { return it.position }

// MoveTo sets the iterator's position without validation.
func (it *CodeIterator) MoveTo(pos uint32) { it.position = pos }

// Eof reports whether the iterator has consumed the entire code array.
func (it *CodeIterator) Eof() bool { return it.position >= uint32(len(it.code)) }

// ByteAt returns the raw byte at the given offset within the code array.
func (it *CodeIterator) ByteAt(i uint32) uint8 { return it.code[i] }

// U16At reads a big-endian uint16 starting at offset i within the code
// array.
func (it *CodeIterator) U16At(i uint32) uint16 { return binary.BigEndian.Uint16(it.code[i:]) }

// I16At reads a big-endian int16 starting at offset i within the code
// array.
func (it *CodeIterator) I16At(i uint32) int16 { return int16(it.U16At(i)) }

// U32At reads a big-endian uint32 starting at offset i within the code
// array.
func (it *CodeIterator) U32At(i uint32) uint32 { return binary.BigEndian.Uint32(it.code[i:]) }

// I32At reads a big-endian int32 starting at offset i within the code
// array.
func (it *CodeIterator) I32At(i uint32) int32 { return int32(it.U32At(i)) }

// alignedPad returns the first 4-byte-aligned offset strictly after the
// opcode at p, per §4.6's tableswitch/lookupswitch padding rule.
func alignedPad(p uint32) uint32 { return (p + 4) &^ 3 }

func tableSwitchEnd(it *CodeIterator, p uint32) (uint32, error) {
	aligned := alignedPad(p)
	if int(aligned)+12 > len(it.code) {
		return 0, corrupt(UnexpectedEof, "truncated tableswitch payload")
	}
	low := it.I32At(aligned + 4)
	high := it.I32At(aligned + 8)
	if high < low {
		return 0, corruptf(UnknownOpcode, "tableswitch high %d < low %d", high, low)
	}
	n := uint32(high-low) + 1
	return aligned + 12 + 4*n, nil
}

func lookupSwitchEnd(it *CodeIterator, p uint32) (uint32, error) {
	aligned := alignedPad(p)
	if int(aligned)+8 > len(it.code) {
		return 0, corrupt(UnexpectedEof, "truncated lookupswitch payload")
	}
	npairs := it.U32At(aligned + 4)
	return aligned + 8 + 8*npairs, nil
}

// String renders the instruction at index in canonical textual form,
// per §4.6.
func (it *CodeIterator) String(index uint32) string {
	opcode := it.code[index]
	switch Opcode(opcode) {
	case OpNop:
		return "nop"
	case OpAconstNull:
		return "aconst_null"
	case OpIconstM1:
		return "iconst_m1"
	case OpIconst0:
		return "iconst_0"
	case OpIconst1:
		return "iconst_1"
	case OpIconst2:
		return "iconst_2"
	case OpIconst3:
		return "iconst_3"
	case OpIconst4:
		return "iconst_4"
	case OpIconst5:
		return "iconst_5"
	case OpLconst0:
		return "lconst_0"
	case OpLconst1:
		return "lconst_1"
	case OpFconst0:
		return "fconst_0"
	case OpFconst1:
		return "fconst_1"
	case OpFconst2:
		return "fconst_2"
	case OpDconst0:
		return "dconst_0"
	case OpDconst1:
		return "dconst_1"
	case OpBipush:
		return "bipush " + strconv.Itoa(int(int8(it.ByteAt(index+1))))
	case OpSipush:
		return "sipush " + strconv.Itoa(int(it.I16At(index+1)))
	case OpLdc:
		return "ldc [" + strconv.Itoa(int(it.ByteAt(index+1))) + "]"
	case OpLdcW:
		return "ldc_w [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpLdc2W:
		return "ldc2_w [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpIload:
		return "iload " + strconv.Itoa(int(it.ByteAt(index+1)))
	case OpLload:
		return "lload " + strconv.Itoa(int(it.ByteAt(index+1)))
	case OpFload:
		return "fload " + strconv.Itoa(int(it.ByteAt(index+1)))
	case OpDload:
		return "dload " + strconv.Itoa(int(it.ByteAt(index+1)))
	case OpAload:
		return "aload " + strconv.Itoa(int(it.ByteAt(index+1)))
	case OpIload0:
		return "iload_0"
	case OpIload1:
		return "iload_1"
	case OpIload2:
		return "iload_2"
	case OpIload3:
		return "iload_3"
	case OpLload0:
		return "lload_0"
	case OpLload1:
		return "lload_1"
	case OpLload2:
		return "lload_2"
	case OpLload3:
		return "lload_3"
	case OpFload0:
		return "fload_0"
	case OpFload1:
		return "fload_1"
	case OpFload2:
		return "fload_2"
	case OpFload3:
		return "fload_3"
	case OpDload0:
		return "dload_0"
	case OpDload1:
		return "dload_1"
	case OpDload2:
		return "dload_2"
	case OpDload3:
		return "dload_3"
	case OpAload0:
		return "aload_0"
	case OpAload1:
		return "aload_1"
	case OpAload2:
		return "aload_2"
	case OpAload3:
		return "aload_3"
	case OpIaload:
		return "iaload"
	case OpLaload:
		return "laload"
	case OpFaload:
		return "faload"
	case OpDaload:
		return "daload"
	case OpAaload:
		return "aaload"
	case OpBaload:
		return "baload"
	case OpCaload:
		return "caload"
	case OpSaload:
		return "saload"
	case OpIstore:
		return "istore " + strconv.Itoa(int(it.ByteAt(index+1)))
	case OpLstore:
		return "lstore " + strconv.Itoa(int(it.ByteAt(index+1)))
	case OpFstore:
		return "fstore " + strconv.Itoa(int(it.ByteAt(index+1)))
	case OpDstore:
		return "dstore " + strconv.Itoa(int(it.ByteAt(index+1)))
	case OpAstore:
		return "astore " + strconv.Itoa(int(it.ByteAt(index+1)))
	case OpIstore0:
		return "istore_0"
	case OpIstore1:
		return "istore_1"
	case OpIstore2:
		return "istore_2"
	case OpIstore3:
		return "istore_3"
	case OpLstore0:
		return "lstore_0"
	case OpLstore1:
		return "lstore_1"
	case OpLstore2:
		return "lstore_2"
	case OpLstore3:
		return "lstore_3"
	case OpFstore0:
		return "fstore_0"
	case OpFstore1:
		return "fstore_1"
	case OpFstore2:
		return "fstore_2"
	case OpFstore3:
		return "fstore_3"
	case OpDstore0:
		return "dstore_0"
	case OpDstore1:
		return "dstore_1"
	case OpDstore2:
		return "dstore_2"
	case OpDstore3:
		return "dstore_3"
	case OpAstore0:
		return "astore_0"
	case OpAstore1:
		return "astore_1"
	case OpAstore2:
		return "astore_2"
	case OpAstore3:
		return "astore_3"
	case OpIastore:
		return "iastore"
	case OpLastore:
		return "lastore"
	case OpFastore:
		return "fastore"
	case OpDastore:
		return "dastore"
	case OpAastore:
		return "aastore"
	case OpBastore:
		return "bastore"
	case OpCastore:
		return "castore"
	case OpSastore:
		return "sastore"
	case OpPop:
		return "pop"
	case OpPop2:
		return "pop2"
	case OpDup:
		return "dup"
	case OpDupX1:
		return "dup_x1"
	case OpDupX2:
		return "dup_x2"
	case OpDup2:
		return "dup2"
	case OpDup2X1:
		return "dup2_x1"
	case OpDup2X2:
		return "dup2_x2"
	case OpSwap:
		return "swap"
	case OpIadd:
		return "iadd"
	case OpLadd:
		return "ladd"
	case OpFadd:
		return "fadd"
	case OpDadd:
		return "dadd"
	case OpIsub:
		return "isub"
	case OpLsub:
		return "lsub"
	case OpFsub:
		return "fsub"
	case OpDsub:
		return "dsub"
	case OpImul:
		return "imul"
	case OpLmul:
		return "lmul"
	case OpFmul:
		return "fmul"
	case OpDmul:
		return "dmul"
	case OpIdiv:
		return "idiv"
	case OpLdiv:
		return "ldiv"
	case OpFdiv:
		return "fdiv"
	case OpDdiv:
		return "ddiv"
	case OpIrem:
		return "irem"
	case OpLrem:
		return "lrem"
	case OpFrem:
		return "frem"
	case OpDrem:
		return "drem"
	case OpIneg:
		return "ineg"
	case OpLneg:
		return "lneg"
	case OpFneg:
		return "fneg"
	case OpDneg:
		return "dneg"
	case OpIshl:
		return "ishl"
	case OpLshl:
		return "lshl"
	case OpIshr:
		return "ishr"
	case OpLshr:
		return "lshr"
	case OpIushr:
		return "iushr"
	case OpLushr:
		return "lushr"
	case OpIand:
		return "iand"
	case OpLand:
		return "land"
	case OpIor:
		return "ior"
	case OpLor:
		return "lor"
	case OpIxor:
		return "ixor"
	case OpLxor:
		return "lxor"
	case OpIinc:
		return "iinc " + strconv.Itoa(int(it.ByteAt(index+1))) + " " + strconv.Itoa(int(int8(it.ByteAt(index+2))))
	case OpI2l:
		return "i2l"
	case OpI2f:
		return "i2f"
	case OpI2d:
		return "i2d"
	case OpL2i:
		return "l2i"
	case OpL2f:
		return "l2f"
	case OpL2d:
		return "l2d"
	case OpF2i:
		return "f2i"
	case OpF2l:
		return "f2l"
	case OpF2d:
		return "f2d"
	case OpD2i:
		return "d2i"
	case OpD2l:
		return "d2l"
	case OpD2f:
		return "d2f"
	case OpI2b:
		return "i2b"
	case OpI2c:
		return "i2c"
	case OpI2s:
		return "i2s"
	case OpLcmp:
		return "lcmp"
	case OpFcmpl:
		return "fcmpl"
	case OpFcmpg:
		return "fcmpg"
	case OpDcmpl:
		return "dcmpl"
	case OpDcmpg:
		return "dcmpg"
	case OpIfeq:
		return "ifeq @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfne:
		return "ifne @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIflt:
		return "iflt @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfge:
		return "ifge @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfgt:
		return "ifgt @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfle:
		return "ifle @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfIcmpeq:
		return "if_icmpeq @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfIcmpne:
		return "if_icmpne @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfIcmplt:
		return "if_icmplt @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfIcmpge:
		return "if_icmpge @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfIcmpgt:
		return "if_icmpgt @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfIcmple:
		return "if_icmple @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfAcmpeq:
		return "if_acmpeq @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfAcmpne:
		return "if_acmpne @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpGoto:
		return "goto @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpJsr:
		return "jsr @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpRet:
		return "ret " + strconv.Itoa(int(it.ByteAt(index+1)))
	case OpTableswitch:
		return it.tableSwitchString(index)
	case OpLookupswitch:
		return it.lookupSwitchString(index)
	case OpIreturn:
		return "ireturn"
	case OpLreturn:
		return "lreturn"
	case OpFreturn:
		return "freturn"
	case OpDreturn:
		return "dreturn"
	case OpAreturn:
		return "areturn"
	case OpReturn:
		return "return"
	case OpGetstatic:
		return "getstatic [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpPutstatic:
		return "putstatic [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpGetfield:
		return "getfield [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpPutfield:
		return "putfield [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpInvokevirtual:
		return "invokevirtual [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpInvokespecial:
		return "invokespecial [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpInvokestatic:
		return "invokestatic [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpInvokeinterface:
		return "invokeinterface [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpInvokedynamic:
		return "invokedynamic [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpNew:
		return "new [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpNewarray:
		t, ok := DescriptorFromNewArray(NewArrayType(it.ByteAt(index + 1)))
		if !ok {
			return fmt.Sprintf("newarray <bad type %d>", it.ByteAt(index+1))
		}
		return "newarray " + Descriptor{Type: t}.String() + "[]"
	case OpAnewarray:
		return "anewarray [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpArraylength:
		return "arraylength"
	case OpAthrow:
		return "athrow"
	case OpCheckcast:
		return "checkcast [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpInstanceof:
		return "instanceof [" + strconv.Itoa(int(it.U16At(index+1))) + "]"
	case OpMonitorenter:
		return "monitorenter"
	case OpMonitorexit:
		return "monitorexit"
	case OpWide:
		return "wide"
	case OpMultianewarray:
		return "multianewarray [" + strconv.Itoa(int(it.U16At(index+1))) + "] " + strconv.Itoa(int(it.ByteAt(index+3)))
	case OpIfnull:
		return "ifnull @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpIfnonnull:
		return "ifnonnull @" + strconv.Itoa(int(index)+int(it.I16At(index+1)))
	case OpGotoW:
		return "gotow @" + strconv.Itoa(int(index)+int(it.I32At(index+1)))
	case OpJsrW:
		return "jsw @" + strconv.Itoa(int(index)+int(it.I32At(index+1)))
	case OpBreakpoint:
		return "breakpoint"
	case OpImpdep1:
		return "impdep1"
	case OpImpdep2:
		return "impdep2"
	default:
		return fmt.Sprintf("unknown opcode 0x%02x", opcode)
	}
}

func (it *CodeIterator) tableSwitchString(index uint32) string {
	aligned := alignedPad(index)
	defaultAddr := int(index) + int(it.I32At(aligned))
	low := it.I32At(aligned + 4)
	high := it.I32At(aligned + 8)
	var b strings.Builder
	fmt.Fprintf(&b, "tableswitch %d to %d default @%d", low, high, defaultAddr)
	for i := int32(0); i < high-low+1; i++ {
		addr := int(index) + int(it.I32At(aligned+12+uint32(i)*4))
		fmt.Fprintf(&b, "\n\t%d: @%d", low+i, addr)
	}
	return b.String()
}

func (it *CodeIterator) lookupSwitchString(index uint32) string {
	aligned := alignedPad(index)
	defaultAddr := int(index) + int(it.I32At(aligned))
	npairs := it.U32At(aligned + 4)
	var b strings.Builder
	fmt.Fprintf(&b, "lookupswitch default @%d", defaultAddr)
	for i := uint32(0); i < npairs; i++ {
		match := it.I32At(aligned + 8 + i*8)
		addr := int(index) + int(it.I32At(aligned+12+i*8))
		fmt.Fprintf(&b, "\n\t%d: @%d", match, addr)
	}
	return b.String()
}

// isBranchInstruction reports whether opcode is a "branch instruction"
// per §4.8: the inclusive range [ifeq, ret] plus ifnull/ifnonnull.
func isBranchInstruction(opcode uint8) bool {
	return (opcode >= uint8(OpIfeq) && opcode <= uint8(OpRet)) || opcode == uint8(OpIfnull) || opcode == uint8(OpIfnonnull)
}
