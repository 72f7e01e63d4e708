package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/dispatch"
	"github.com/apparentlymart/arm-meta/isa"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	var c common
	c.register(fs)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: armdis dump [flags] opcode NAME... | tree | stats | word HEX...")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return flag.ErrHelp
	}
	e, err := c.setup()
	if err != nil {
		return err
	}
	table := e.dec.Table()

	what, rest := fs.Arg(0), fs.Args()[1:]
	switch what {
	case "opcode":
		for _, name := range rest {
			op, ok := table.OpcodeByName(name)
			if !ok {
				return unknownOpcode(table, name)
			}
			dumper.Fdump(os.Stdout, op)
		}
	case "tree":
		for _, width := range table.Widths() {
			tree := e.dec.Tree(width)
			if tree == nil {
				continue
			}
			fmt.Printf("%s:\n", width)
			fmt.Print(tree.Dump(func(entry dispatch.Entry) string {
				enc, _ := table.Encoding(entry.Ref)
				return enc.Opcode().Name
			}))
		}
	case "stats":
		for _, width := range table.Widths() {
			if tree := e.dec.Tree(width); tree != nil {
				fmt.Printf("%s: ", width)
				dumper.Fdump(os.Stdout, tree.Stats())
			}
		}
	case "word":
		for _, arg := range rest {
			inst, err := e.decodeWord(arg, 0)
			if err != nil {
				return err
			}
			if decode.IsIllegal(inst) {
				fmt.Printf("%s: illegal (%s)\n", arg, inst.Illegal)
				continue
			}
			dumper.Fdump(os.Stdout, inst.Params[:len(inst.Opcode().Params)], inst.Arguments())
		}
	default:
		return fmt.Errorf("cannot dump %q", what)
	}
	return nil
}

func unknownOpcode(table *isa.Table, name string) error {
	names := make([]string, 0, len(table.Opcodes()))
	for _, op := range table.Opcodes() {
		names = append(names, op.Name)
	}
	if s, ok := closest(name, names); ok {
		return fmt.Errorf("no opcode %q in %s; did you mean %q?", name, table.Name(), s)
	}
	return fmt.Errorf("no opcode %q in %s", name, table.Name())
}
