// Package listing writes disassembly listings as text, YAML or CBOR.
package listing

import (
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/goccy/go-yaml"
	"github.com/logrusorgru/aurora/v4"

	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/defuse"
	"github.com/apparentlymart/arm-meta/render"
)

type Format uint8

const (
	Text Format = iota
	YAML
	CBOR
)

func (f Format) String() string {
	switch f {
	case Text:
		return "text"
	case YAML:
		return "yaml"
	case CBOR:
		return "cbor"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text", "txt":
		return Text, nil
	case "yaml", "yml":
		return YAML, nil
	case "cbor":
		return CBOR, nil
	}
	return 0, fmt.Errorf("unknown listing format %q", s)
}

// Entry is one listed instruction.
type Entry struct {
	Address  uint32   `yaml:"address" cbor:"1,keyasint"`
	Raw      uint32   `yaml:"raw" cbor:"2,keyasint"`
	Size     int      `yaml:"size" cbor:"3,keyasint"`
	Opcode   string   `yaml:"opcode,omitempty" cbor:"4,keyasint,omitempty"`
	Mnemonic string   `yaml:"mnemonic" cbor:"5,keyasint"`
	Operands string   `yaml:"operands,omitempty" cbor:"6,keyasint,omitempty"`
	Illegal  string   `yaml:"illegal,omitempty" cbor:"7,keyasint,omitempty"`
	Defs     []string `yaml:"defs,omitempty" cbor:"8,keyasint,omitempty"`
	Uses     []string `yaml:"uses,omitempty" cbor:"9,keyasint,omitempty"`
}

// NewEntry renders inst for a listing.
func NewEntry(inst decode.Instruction, opts render.Options, r render.Resolver) Entry {
	e := Entry{
		Address: inst.PC,
		Raw:     inst.Raw,
		Size:    inst.Size,
	}
	e.Mnemonic, e.Operands = render.Parts(inst, opts, r)
	if decode.IsIllegal(inst) {
		e.Illegal = inst.Illegal.String()
		return e
	}
	e.Opcode = inst.Opcode().Name
	e.Defs = regNames(defuse.Defs(inst), opts.Regs)
	e.Uses = regNames(defuse.Uses(inst), opts.Regs)
	return e
}

func regNames(s defuse.Set, names render.RegNames) []string {
	regs := s.Regs()
	if len(regs) == 0 {
		return nil
	}
	ret := make([]string, len(regs))
	for i, r := range regs {
		ret[i] = names.Name(r)
	}
	return ret
}

// Text is the entry's assembly text.
func (e Entry) Text() string {
	if e.Operands == "" {
		return e.Mnemonic
	}
	return e.Mnemonic + " " + e.Operands
}

type Option func(*Writer)

// WithColor colours text listings.
func WithColor(on bool) Option {
	return func(w *Writer) {
		w.color = on
	}
}

// WithDefUse adds the registers each instruction reads and writes to
// text listings.
func WithDefUse(on bool) Option {
	return func(w *Writer) {
		w.defUse = on
	}
}

// Writer writes a listing. Text is written as entries arrive; YAML and
// CBOR documents are written by Flush.
type Writer struct {
	out     io.Writer
	format  Format
	color   bool
	defUse  bool
	entries []Entry
}

func NewWriter(out io.Writer, format Format, opts ...Option) *Writer {
	w := &Writer{out: out, format: format}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Writer) Write(e Entry) error {
	if w.format != Text {
		w.entries = append(w.entries, e)
		return nil
	}
	_, err := io.WriteString(w.out, w.textLine(e))
	return err
}

func (w *Writer) textLine(e Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:  %s  ", w.paint(fmt.Sprintf("%8x", e.Address), aurora.CyanFg), rawHex(e))
	switch {
	case e.Illegal != "":
		b.WriteString(w.paint(e.Mnemonic, aurora.RedFg|aurora.BoldFm))
		fmt.Fprintf(&b, "  ; %s", e.Illegal)
	default:
		b.WriteString(w.paint(e.Mnemonic, aurora.YellowFg|aurora.BrightFg))
		if e.Operands != "" {
			b.WriteByte(' ')
			b.WriteString(e.Operands)
		}
		if w.defUse && (len(e.Defs) > 0 || len(e.Uses) > 0) {
			fmt.Fprintf(&b, "  ; defs {%s} uses {%s}", strings.Join(e.Defs, ", "), strings.Join(e.Uses, ", "))
		}
	}
	b.WriteByte('\n')
	return b.String()
}

func (w *Writer) paint(s string, c aurora.Color) string {
	if !w.color {
		return s
	}
	return aurora.Colorize(s, c).String()
}

// rawHex shows the raw bits, padded to the widest instruction.
func rawHex(e Entry) string {
	if e.Size == 2 {
		return fmt.Sprintf("%04x    ", e.Raw)
	}
	return fmt.Sprintf("%08x", e.Raw)
}

// Flush writes the buffered YAML or CBOR document.
func (w *Writer) Flush() error {
	var (
		out []byte
		err error
	)
	switch w.format {
	case YAML:
		out, err = yaml.Marshal(w.entries)
	case CBOR:
		out, err = encMode.Marshal(w.entries)
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("encoding %s listing: %w", w.format, err)
	}
	w.entries = w.entries[:0]
	_, err = w.out.Write(out)
	return err
}

var encMode = func() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// ReadCBOR decodes a listing written in the CBOR format.
func ReadCBOR(data []byte) ([]Entry, error) {
	var ret []Entry
	if err := cbor.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("decoding cbor listing: %w", err)
	}
	return ret, nil
}

// ReadYAML decodes a listing written in the YAML format.
func ReadYAML(data []byte) ([]Entry, error) {
	var ret []Entry
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, fmt.Errorf("decoding yaml listing: %w", err)
	}
	return ret, nil
}
