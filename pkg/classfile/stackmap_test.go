package classfile

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStackMapFrameOffsetDelta covers property 8: the first frame's
// offset is relative to method start; every later frame adds 1.
func TestStackMapFrameOffsetDelta(t *testing.T) {
	prev := implicitStackMapFrame()

	f0 := StackMapFrame{Kind: FrameSame, OffsetDelta: 5}
	abs0, err := f0.apply(prev)
	require.NoError(t, err)
	assert.EqualValues(t, 5, abs0.Start)

	f1 := StackMapFrame{Kind: FrameSame, OffsetDelta: 10}
	abs1, err := f1.apply(abs0)
	require.NoError(t, err)
	assert.EqualValues(t, 16, abs1.Start) // 5 + 10 + 1
}

func TestStackMapFrameSameSharesLocals(t *testing.T) {
	prev := AbsoluteStackMapFrame{Start: 0, Locals: []VerificationTypeInfo{{Tag: VerifyInteger}}}
	f := StackMapFrame{Kind: FrameSame, OffsetDelta: 3}
	abs, err := f.apply(prev)
	require.NoError(t, err)
	assert.Same(t, &prev.Locals[0], &abs.Locals[0])
	assert.Empty(t, abs.Stack)
}

func TestStackMapFrameSameLocals1StackItem(t *testing.T) {
	prev := implicitStackMapFrame()
	f := StackMapFrame{Kind: FrameSame, OffsetDelta: 2, StackItem: &VerificationTypeInfo{Tag: VerifyInteger}}
	abs, err := f.apply(prev)
	require.NoError(t, err)
	require.Len(t, abs.Stack, 1)
	assert.Equal(t, VerifyInteger, abs.Stack[0].Tag)
}

// TestStackMapFrameChopEmptiesStack covers the spec-correct deviation from
// the source: Chop/Same/Append clear the inherited stack.
func TestStackMapFrameChopEmptiesStack(t *testing.T) {
	prev := AbsoluteStackMapFrame{
		Start:  0,
		Locals: []VerificationTypeInfo{{Tag: VerifyInteger}, {Tag: VerifyLong}},
		Stack:  []VerificationTypeInfo{{Tag: VerifyFloat}},
	}
	f := StackMapFrame{Kind: FrameChop, OffsetDelta: 1, ChopNum: 1}
	abs, err := f.apply(prev)
	require.NoError(t, err)
	assert.Len(t, abs.Locals, 1)
	assert.Empty(t, abs.Stack)
}

func TestStackMapFrameChopUnderflow(t *testing.T) {
	prev := AbsoluteStackMapFrame{Start: 0, Locals: []VerificationTypeInfo{{Tag: VerifyInteger}}}
	f := StackMapFrame{Kind: FrameChop, OffsetDelta: 1, ChopNum: 5}
	_, err := f.apply(prev)
	require.Error(t, err)
	assert.True(t, IsCorrupt(err, ChopUnderflow))
}

func TestStackMapFrameAppendConcatenatesLocals(t *testing.T) {
	prev := AbsoluteStackMapFrame{Start: 0, Locals: []VerificationTypeInfo{{Tag: VerifyInteger}}}
	f := StackMapFrame{
		Kind:        FrameAppend,
		OffsetDelta: 1,
		NewLocals:   []VerificationTypeInfo{{Tag: VerifyFloat}},
	}
	abs, err := f.apply(prev)
	require.NoError(t, err)
	require.Len(t, abs.Locals, 2)
	assert.Equal(t, VerifyInteger, abs.Locals[0].Tag)
	assert.Equal(t, VerifyFloat, abs.Locals[1].Tag)
	assert.Empty(t, abs.Stack)
}

func TestStackMapFrameFullReplacesLocalsAndStack(t *testing.T) {
	prev := AbsoluteStackMapFrame{Start: 0, Locals: []VerificationTypeInfo{{Tag: VerifyInteger}}}
	f := StackMapFrame{
		Kind:        FrameFull,
		OffsetDelta: 0,
		Locals:      []VerificationTypeInfo{{Tag: VerifyLong}},
		Stack:       []VerificationTypeInfo{{Tag: VerifyFloat}},
	}
	abs, err := f.apply(prev)
	require.NoError(t, err)
	assert.Equal(t, f.Locals, abs.Locals)
	assert.Equal(t, f.Stack, abs.Stack)
}

func TestReadStackMapFrameReservedTagIsCorrupt(t *testing.T) {
	_, err := readStackMapFrame(newReader(bytes.NewReader([]byte{150})))
	require.Error(t, err)
	assert.True(t, IsCorrupt(err, ReservedStackMapTag))
}
