package classfile

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// TestParseIsDeterministic re-parses the same bytes twice and compares the
// resulting ConstantPool and CFG structures with go-cmp, covering property
// 1 (stable tags) by checking the whole pool rather than index by index.
func TestParseIsDeterministic(t *testing.T) {
	cb := newClassBuilder()
	cb.thisClassIdx = cb.cp.addClass("com/example/Widget")
	cb.superClassIdx = cb.cp.addClass("java/lang/Object")
	cb.addMethod(accPublic|accStatic, "loop", "()V", []byte{byte(OpGoto), 0x00, 0x00}, 0, 0,
		buildStackMapTableBytes(t, StackMapFrame{Kind: FrameSame, OffsetDelta: 0}))

	raw := cb.build()

	cf1, err := Parse(bytes.NewReader(raw))
	require.NoError(t, err)
	cf2, err := Parse(bytes.NewReader(raw))
	require.NoError(t, err)

	opts := cmp.Options{cmp.AllowUnexported(ConstantPool{})}
	if diff := cmp.Diff(cf1.ConstantPool, cf2.ConstantPool, opts...); diff != "" {
		t.Errorf("constant pool differs across identical parses:\n%s", diff)
	}

	graph1, err := cf1.Methods[0].Code.CFG()
	require.NoError(t, err)
	graph2, err := cf2.Methods[0].Code.CFG()
	require.NoError(t, err)
	if diff := cmp.Diff(graph1.Starts(), graph2.Starts()); diff != "" {
		t.Errorf("CFG block starts differ across identical parses:\n%s", diff)
	}
}

func buildStackMapTableBytes(t *testing.T, frames ...StackMapFrame) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteByte(0)
	buf.WriteByte(byte(len(frames)))
	for _, f := range frames {
		require.LessOrEqual(t, int(f.OffsetDelta), 63, "test helper only supports Same frames with small deltas")
		buf.WriteByte(byte(f.OffsetDelta))
	}
	return buf.Bytes()
}
