package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/apparentlymart/arm-meta/arm"
	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/defuse"
	"github.com/apparentlymart/arm-meta/render"
)

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	var c common
	c.register(fs)
	var pc hexUint
	fs.Var(&pc, "pc", "address of the first word")
	details := fs.Bool("details", false, "show the opcode, condition and registers of each word")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("no words to decode")
	}
	e, err := c.setup()
	if err != nil {
		return err
	}

	addr := uint32(pc)
	for _, arg := range fs.Args() {
		inst, err := e.decodeWord(arg, addr)
		if err != nil {
			return err
		}
		e.describe(os.Stdout, inst, *details)
		addr += uint32(max(inst.Size, e.dec.Table().Unit()))
	}
	return nil
}

// decodeWord decodes one word written in hex. For half-word tables a
// value wider than 16 bits is a pair, first half-word in the high bits.
func (e *env) decodeWord(text string, pc uint32) (decode.Instruction, error) {
	digits := strings.TrimPrefix(strings.ToLower(text), "0x")
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return decode.Instruction{}, fmt.Errorf("invalid word %q", text)
	}
	word, next, hasNext := uint32(v), uint32(0), false
	if e.dec.Table().Halfwords() && len(digits) > 4 {
		word, next, hasNext = uint32(v>>16), uint32(v&0xffff), true
	}
	inst, _ := e.dec.Decode(word, next, hasNext, pc, e.dcfg)
	return inst, nil
}

func (e *env) describe(w io.Writer, inst decode.Instruction, details bool) {
	text := render.Render(inst, e.render, e.resolver())
	fmt.Fprintf(w, "%08x:  %08x  %s\n", inst.PC, inst.Raw, text)
	if !details {
		return
	}
	if decode.IsIllegal(inst) {
		fmt.Fprintf(w, "    illegal: %s\n", inst.Illegal)
		return
	}
	fmt.Fprintf(w, "    opcode:  %s (encoding %d)\n", inst.Opcode().Name, inst.Discriminant)
	fmt.Fprintf(w, "    cond:    %s\n", arm.ConditionOf(inst))
	fmt.Fprintf(w, "    defs:    %s\n", defuse.Defs(inst))
	fmt.Fprintf(w, "    uses:    %s\n", defuse.Uses(inst))
}
