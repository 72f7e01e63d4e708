package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
)

func runEncodings(args []string) error {
	fs := flag.NewFlagSet("encodings", flag.ContinueOnError)
	var c common
	c.register(fs)
	prefix := fs.String("prefix", "", "list only opcodes whose names start with `prefix`")
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := c.setup()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "DISC\tOPCODE\tWIDTH\tMASK\tPATTERN\tMODIFIERS\tREQUIRES")
	for _, enc := range e.dec.Table().Encodings() {
		op := enc.Opcode()
		if !strings.HasPrefix(op.Name, *prefix) {
			continue
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%08x\t%08x\t%s\t%s\n",
			enc.Discriminant(), op.Name, enc.Width, uint32(enc.Mask), uint32(enc.Pattern),
			strings.Join(enc.Modifiers, ","), enc.Requires)
	}
	return tw.Flush()
}

func runFind(args []string) error {
	fs := flag.NewFlagSet("find", flag.ContinueOnError)
	var c common
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := c.setup()
	if err != nil {
		return err
	}
	table := e.dec.Table()
	for _, name := range fs.Args() {
		op, ok := table.OpcodeByName(name)
		if !ok {
			return unknownOpcode(table, name)
		}
		fmt.Printf("%s: %s", op.Name, op.Mnemonic)
		if op.AltMnemonic != "" {
			fmt.Printf(" (divided: %s)", op.AltMnemonic)
		}
		fmt.Println()
		for _, p := range op.Params {
			fmt.Printf("    %-8s %s\n", p.Name, p.Type)
		}
		for _, enc := range op.Encodings {
			fmt.Printf("    %s requires %s\n", enc, enc.Requires)
		}
	}
	return nil
}
