package classfile

import (
	"fmt"
	"sort"
	"strings"
)

// BasicBlock is a maximal straight-line run of bytecode with a single
// entry and a single exit, per §4.8. Its Frame.Start is the block's
// start offset; End is exclusive.
type BasicBlock struct {
	Frame        AbsoluteStackMapFrame
	End          uint32
	Successors   []uint32
	Predecessors []uint32
}

// Start returns the block's entry offset.
func (b *BasicBlock) Start() uint32 { return b.Frame.Start }

// ControlFlowGraph maps block-start offsets to the BasicBlock beginning
// there.
type ControlFlowGraph struct {
	blocks map[uint32]*BasicBlock
}

// Block returns the block starting at the given offset, or nil if no
// block starts there.
func (g *ControlFlowGraph) Block(start uint32) *BasicBlock { return g.blocks[start] }

// Starts returns every block-start offset in ascending order.
func (g *ControlFlowGraph) Starts() []uint32 {
	starts := make([]uint32, 0, len(g.blocks))
	for start := range g.blocks {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	return starts
}

// String renders the graph as one "Block N:" section per basic block,
// each listing its instructions via CodeIterator.String.
func (g *ControlFlowGraph) String(code *CodeAttribute) string {
	it := newCodeIterator(code.Code)
	var b strings.Builder
	b.WriteString("Control Flow Graph:")
	for _, start := range g.Starts() {
		block := g.blocks[start]
		fmt.Fprintf(&b, "\n\tBlock %d:", start)
		it.MoveTo(start)
		for !it.Eof() && it.Peek() < block.End {
			index, err := it.Next()
			if err != nil {
				break
			}
			fmt.Fprintf(&b, "\n\t\t%d: %s", index, indentContinuation(it.String(index)))
		}
	}
	return b.String()
}

// indentContinuation re-indents any continuation lines (as produced by
// tableswitch/lookupswitch rendering) so they nest under the CFG's own
// indentation.
func indentContinuation(s string) string {
	return strings.ReplaceAll(s, "\n\t", "\n\t\t\t")
}

// buildControlFlowGraph implements §4.8's block synthesis: seed one
// block per absolute stack-map frame (or a single implicit block when
// the method has no StackMapTable), then split blocks at branch
// instructions and wire successors/predecessors.
func buildControlFlowGraph(code *CodeAttribute) (*ControlFlowGraph, error) {
	codeLen := uint32(len(code.Code))
	blocks := make(map[uint32]*BasicBlock)

	if code.stackMap == nil {
		frame := implicitStackMapFrame()
		blocks[0] = &BasicBlock{Frame: frame, End: codeLen}
		return &ControlFlowGraph{blocks: blocks}, nil
	}

	frame := implicitStackMapFrame()
	for _, entry := range code.stackMap.Entries {
		next, err := entry.apply(frame)
		if err != nil {
			return nil, err
		}
		blocks[frame.Start] = &BasicBlock{Frame: frame, End: next.Start}
		frame = next
	}
	blocks[frame.Start] = &BasicBlock{Frame: frame, End: codeLen}

	queue := make([]uint32, 0, len(blocks))
	for start := range blocks {
		queue = append(queue, start)
	}

	it := newCodeIterator(code.Code)
	for len(queue) > 0 {
		start := queue[0]
		queue = queue[1:]
		block := blocks[start]

		it.MoveTo(start)
		var lastIndex uint32
		haveLast := false
		for !it.Eof() && it.Peek() < block.End {
			index, err := it.Next()
			if err != nil {
				return nil, err
			}
			lastIndex = index
			haveLast = true

			if !isBranchInstruction(it.ByteAt(index)) {
				continue
			}

			nextIndex := it.Peek()
			if nextIndex < block.End {
				newFrame := AbsoluteStackMapFrame{Start: nextIndex, Locals: block.Frame.Locals, Stack: block.Frame.Stack}
				blocks[nextIndex] = &BasicBlock{Frame: newFrame, End: block.End}
				block.End = nextIndex
				queue = append(queue, nextIndex)
				break
			}
		}

		if !haveLast {
			continue
		}
		successors, err := branchSuccessors(it, lastIndex)
		if err != nil {
			return nil, err
		}
		block.Successors = successors
	}

	for start, block := range blocks {
		for _, succ := range block.Successors {
			if target, ok := blocks[succ]; ok {
				target.Predecessors = append(target.Predecessors, start)
			}
		}
	}

	return &ControlFlowGraph{blocks: blocks}, nil
}

// branchSuccessors computes the successor-offset set of the instruction
// at index, per §4.8's successor table. it must have already decoded
// that instruction (its current position is the instruction's end).
func branchSuccessors(it *CodeIterator, index uint32) ([]uint32, error) {
	opcode := Opcode(it.ByteAt(index))
	switch opcode {
	case OpGoto:
		return []uint32{branchTarget(index, int32(it.I16At(index+1)))}, nil
	case OpGotoW:
		return []uint32{branchTarget(index, it.I32At(index+1))}, nil
	case OpJsr:
		return []uint32{branchTarget(index, int32(it.I16At(index+1))), index + 3}, nil
	case OpJsrW:
		return []uint32{branchTarget(index, it.I32At(index+1)), index + 5}, nil
	case OpIfeq, OpIfne, OpIflt, OpIfge, OpIfgt, OpIfle,
		OpIfIcmpeq, OpIfIcmpne, OpIfIcmplt, OpIfIcmpge, OpIfIcmpgt, OpIfIcmple,
		OpIfAcmpeq, OpIfAcmpne, OpIfnull, OpIfnonnull:
		return []uint32{branchTarget(index, int32(it.I16At(index+1))), index + 3}, nil
	case OpReturn, OpIreturn, OpLreturn, OpFreturn, OpDreturn, OpAreturn, OpAthrow:
		return nil, nil
	case OpTableswitch, OpLookupswitch:
		return nil, &UnimplementedError{Feature: "tableswitch/lookupswitch successor enumeration"}
	default:
		return []uint32{it.Peek()}, nil
	}
}

func branchTarget(index uint32, displacement int32) uint32 {
	return uint32(int64(index) + int64(displacement))
}
