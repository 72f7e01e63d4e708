package listing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apparentlymart/arm-meta/arm"
	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/internal/testutil"
	"github.com/apparentlymart/arm-meta/render"
)

func decodeA32(t *testing.T, word, pc uint32) decode.Instruction {
	t.Helper()
	dec, err := arm.NewDecoder("a32")
	require.NoError(t, err)
	inst, _ := dec.Decode(word, 0, false, pc, arm.DefaultConfig())
	return inst
}

func TestNewEntry(t *testing.T) {
	t.Parallel()

	got := NewEntry(decodeA32(t, 0xe0812003, 0x8000), render.Options{}, nil)
	testutil.AssertEqualWithDiff(t, Entry{
		Address:  0x8000,
		Raw:      0xe0812003,
		Size:     4,
		Opcode:   "add",
		Mnemonic: "add",
		Operands: "r2, r1, r3",
		Defs:     []string{"r2"},
		Uses:     []string{"r1", "r3"},
	}, got)
	assert.Equal(t, "add r2, r1, r3", got.Text())

	got = NewEntry(decodeA32(t, 0x01200070, 0x8004), render.Options{}, nil)
	assert.Equal(t, Entry{
		Address:  0x8004,
		Raw:      0x01200070,
		Size:     4,
		Mnemonic: render.IllegalText,
		Illegal:  "reserved",
	}, got)
	assert.Equal(t, render.IllegalText, got.Text())
}

func TestNewEntryZeroInstruction(t *testing.T) {
	t.Parallel()

	got := NewEntry(decode.Instruction{}, render.Options{}, nil)
	assert.Equal(t, render.IllegalText, got.Mnemonic)
	assert.Empty(t, got.Opcode)
	assert.Nil(t, got.Defs)
}

func TestTextListing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewWriter(&buf, Text, WithDefUse(true))
	require.NoError(t, w.Write(NewEntry(decodeA32(t, 0xe0812003, 0x8000), render.Options{}, nil)))
	require.NoError(t, w.Write(Entry{Address: 0x8004, Raw: 0x4008, Size: 2, Mnemonic: "ands", Operands: "r0, r1"}))
	require.NoError(t, w.Write(Entry{Address: 0x8006, Raw: 0xde00, Size: 2, Mnemonic: render.IllegalText, Illegal: "reserved"}))
	require.NoError(t, w.Flush())

	assert.Equal(t, ""+
		"    8000:  e0812003  add r2, r1, r3  ; defs {r2} uses {r1, r3}\n"+
		"    8004:  4008      ands r0, r1\n"+
		"    8006:  de00      <illegal>  ; reserved\n",
		buf.String())
}

func TestColoredListing(t *testing.T) {
	t.Parallel()

	var plain, colored bytes.Buffer
	e := Entry{Address: 0x10, Raw: 0xe1a00000, Size: 4, Mnemonic: "nop"}
	require.NoError(t, NewWriter(&plain, Text).Write(e))
	require.NoError(t, NewWriter(&colored, Text, WithColor(true)).Write(e))

	assert.NotContains(t, plain.String(), "\x1b[")
	assert.Contains(t, colored.String(), "\x1b[")
	assert.Contains(t, colored.String(), "nop")
}

func sampleEntries(t *testing.T) []Entry {
	return []Entry{
		NewEntry(decodeA32(t, 0xe0812003, 0x8000), render.Options{}, nil),
		NewEntry(decodeA32(t, 0xe52d0004, 0x8004), render.Options{}, nil),
		NewEntry(decodeA32(t, 0x01200070, 0x8008), render.Options{}, nil),
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	entries := sampleEntries(t)
	var buf bytes.Buffer
	w := NewWriter(&buf, YAML)
	for _, e := range entries {
		require.NoError(t, w.Write(e))
	}
	assert.Zero(t, buf.Len(), "yaml is written on flush")
	require.NoError(t, w.Flush())
	assert.Contains(t, buf.String(), "mnemonic: str")

	got, err := ReadYAML(buf.Bytes())
	require.NoError(t, err)
	testutil.AssertEqualWithDiff(t, entries, got)
}

func TestCBORRoundTrip(t *testing.T) {
	t.Parallel()

	entries := sampleEntries(t)
	var buf bytes.Buffer
	w := NewWriter(&buf, CBOR)
	for _, e := range entries {
		require.NoError(t, w.Write(e))
	}
	require.NoError(t, w.Flush())

	got, err := ReadCBOR(buf.Bytes())
	require.NoError(t, err)
	testutil.AssertEqualWithDiff(t, entries, got)

	_, err = ReadCBOR([]byte{0xff})
	assert.ErrorContains(t, err, "decoding cbor listing")
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"": Text, "txt": Text, "YAML": YAML, "yml": YAML, "cbor": CBOR} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.NotEmpty(t, got.String())
	}
	_, err := ParseFormat("json")
	assert.ErrorContains(t, err, `unknown listing format "json"`)
}
