package gen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apparentlymart/arm-meta/arm"
	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/dispatch"
)

func parseGenerated(t *testing.T, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "generated.go", src, parser.ParseComments)
	require.NoError(t, err, "%s", src)
	return f
}

func funcNames(f *ast.File) []string {
	var ret []string
	for _, decl := range f.Decls {
		if fn, ok := decl.(*ast.FuncDecl); ok {
			ret = append(ret, fn.Name.Name)
		}
	}
	return ret
}

func TestGenerateA32(t *testing.T) {
	t.Parallel()

	dec, err := arm.NewDecoder("a32")
	require.NoError(t, err)
	src, err := Generate(dec, Options{})
	require.NoError(t, err)

	f := parseGenerated(t, src)
	assert.Equal(t, "a32", f.Name.Name)
	assert.Equal(t, []string{"A32Word32"}, funcNames(f))
	assert.True(t, strings.HasPrefix(string(src), "// Code generated by armdis gen from the a32 table. DO NOT EDIT."))
	assert.Contains(t, string(src), "var a32Leaves = [...][]int{")

	// mov has two encodings, so its constants are numbered.
	mov, ok := dec.Table().OpcodeByName("mov")
	require.True(t, ok)
	require.Len(t, mov.Encodings, 2)
	assert.Regexp(t, `A32Mov1\s+= `+strconv.Itoa(mov.Encodings[1].Discriminant())+`\b`, string(src))
	assert.Regexp(t, `A32LslImm\s+= \d+`, string(src))
}

func TestGenerateThumb(t *testing.T) {
	t.Parallel()

	for _, strategy := range []dispatch.Strategy{dispatch.Adaptive, dispatch.Buckets} {
		dec, err := arm.NewDecoder("thumb", decode.WithDispatch(dispatch.Options{Strategy: strategy}))
		require.NoError(t, err)
		src, err := Generate(dec, Options{Package: "thumbdispatch"})
		require.NoError(t, err)

		f := parseGenerated(t, src)
		assert.Equal(t, "thumbdispatch", f.Name.Name)
		assert.Equal(t, []string{"ThumbHalf16", "ThumbHalfpair"}, funcNames(f))
	}
}

func TestGenerateDeterministic(t *testing.T) {
	t.Parallel()

	dec, err := arm.NewDecoder("thumb")
	require.NoError(t, err)
	first, err := Generate(dec, Options{})
	require.NoError(t, err)
	second, err := Generate(dec, Options{})
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a32_dispatch.go", FileName(arm.A32()))
	assert.Equal(t, "thumb_dispatch.go", FileName(arm.Thumb()))
}

func TestIdents(t *testing.T) {
	t.Parallel()

	for inp, want := range map[string][2]string{
		"lsl_imm":   {"lsl_imm", "LslImm"},
		"a32":       {"a32", "A32"},
		"halfpair":  {"halfpair", "Halfpair"},
		"ldrsb":     {"ldrsb", "Ldrsb"},
		"32bit":     {"_32bit", "_32Bit"},
		"adds-imm3": {"adds_imm3", "AddsImm3"},
	} {
		assert.Equal(t, want[0], fileStem(inp), "%q", inp)
		assert.Equal(t, want[1], exportedName(inp), "%q", inp)
	}
}
