package classfile

import (
	"fmt"
	"sync"
)

// ExceptionTableEntry is one entry of a Code attribute's exception table.
type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16 // 0 means catch-all
}

// CodeAttribute is a method's "Code" attribute: its bytecode, stack/local
// sizing, exception table, and nested attributes. Its control-flow graph
// is computed lazily and cached (§4.5, §4.8, §9's "lazy CFG cache" note).
type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []AttributeInfo

	// stackMap memoizes the first StackMapTable child attribute, or nil
	// if the method has none.
	stackMap *StackMapTableAttribute

	cfgOnce sync.Once
	cfg     *ControlFlowGraph
	cfgErr  error
}

func (a *CodeAttribute) AttributeName() string { return "Code" }

func (a *CodeAttribute) attrString(pool *ConstantPool) string {
	return fmt.Sprintf("Code: maxStack=%d maxLocals=%d codeLength=%d", a.MaxStack, a.MaxLocals, len(a.Code))
}

// StackMap returns the method's memoized StackMapTable attribute, or nil
// if it has none.
func (a *CodeAttribute) StackMap() *StackMapTableAttribute {
	return a.stackMap
}

// Iterator returns a CodeIterator positioned at the start of the code
// array (§4.6).
func (a *CodeAttribute) Iterator() *CodeIterator {
	return newCodeIterator(a.Code)
}

// CFG lazily builds and caches this method's control-flow graph (§4.8).
func (a *CodeAttribute) CFG() (*ControlFlowGraph, error) {
	a.cfgOnce.Do(func() {
		a.cfg, a.cfgErr = buildControlFlowGraph(a)
	})
	return a.cfg, a.cfgErr
}

func readCodeAttribute(r *reader, pool *ConstantPool) (*CodeAttribute, error) {
	maxStack, err := r.u16()
	if err != nil {
		return nil, err
	}
	maxLocals, err := r.u16()
	if err != nil {
		return nil, err
	}
	codeLength, err := r.u32()
	if err != nil {
		return nil, err
	}
	code, err := r.bytes(int(codeLength))
	if err != nil {
		return nil, err
	}

	exceptionTableLength, err := r.u16()
	if err != nil {
		return nil, err
	}
	exceptionTable := make([]ExceptionTableEntry, 0, exceptionTableLength)
	for i := uint16(0); i < exceptionTableLength; i++ {
		startPC, err := r.u16()
		if err != nil {
			return nil, err
		}
		endPC, err := r.u16()
		if err != nil {
			return nil, err
		}
		handlerPC, err := r.u16()
		if err != nil {
			return nil, err
		}
		catchType, err := r.u16()
		if err != nil {
			return nil, err
		}
		exceptionTable = append(exceptionTable, ExceptionTableEntry{
			StartPC: startPC, EndPC: endPC, HandlerPC: handlerPC, CatchType: catchType,
		})
	}

	attributes, err := readAttributeList(r, pool)
	if err != nil {
		return nil, err
	}

	attr := &CodeAttribute{
		MaxStack:       maxStack,
		MaxLocals:      maxLocals,
		Code:           code,
		ExceptionTable: exceptionTable,
		Attributes:     attributes,
	}
	for _, a := range attributes {
		if sm, ok := a.(*StackMapTableAttribute); ok {
			attr.stackMap = sm
			break
		}
	}
	return attr, nil
}
