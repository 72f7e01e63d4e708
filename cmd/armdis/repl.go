package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"

	"github.com/apparentlymart/arm-meta/arm"
	"github.com/apparentlymart/arm-meta/render"
)

const replHelpMessage = `
Enter instruction words in hex to decode them. A Thumb pair is written
as one eight-digit word. Commands are prefixed with a dot:

.isa NAME       Switch instruction set (a32 or thumb)
.syntax NAME    Switch syntax (ual or divided)
.pc ADDR        Set the address of the next word
.details        Toggle opcode, condition and register details
.exit           Exit

Press ^D to exit`

func runREPL(args []string) error {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	var c common
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	e, err := c.setup()
	if err != nil {
		return err
	}

	var (
		pc      hexUint
		details bool
	)
	executor := func(line string) {
		line = strings.TrimSpace(line)
		if line == "" {
			return
		}
		if strings.HasPrefix(line, ".") {
			cmd, arg, _ := strings.Cut(line, " ")
			arg = strings.TrimSpace(arg)
			switch cmd {
			case ".exit":
				os.Exit(0)
			case ".help":
				fmt.Println(replHelpMessage)
			case ".details":
				details = !details
			case ".pc":
				if err := pc.Set(arg); err != nil {
					fmt.Println(err)
				}
			case ".isa":
				dec, err := arm.NewDecoder(arg)
				if err != nil {
					fmt.Println(err)
					return
				}
				e.dec = dec
			case ".syntax":
				dialect, err := render.ParseDialect(arg)
				if err != nil {
					fmt.Println(err)
					return
				}
				e.render.Dialect = dialect
			default:
				fmt.Printf("unknown command %s; type .help for assistance\n", cmd)
			}
			return
		}
		for _, word := range strings.Fields(line) {
			inst, err := e.decodeWord(word, uint32(pc))
			if err != nil {
				fmt.Println(err)
				return
			}
			e.describe(os.Stdout, inst, details)
			pc += hexUint(max(inst.Size, e.dec.Table().Unit()))
		}
	}

	suggest := func(d prompt.Document) []prompt.Suggest {
		word := d.GetWordBeforeCursor()
		if !strings.HasPrefix(word, ".") {
			return nil
		}
		suggests := []prompt.Suggest{
			{Text: ".isa", Description: "switch instruction set"},
			{Text: ".syntax", Description: "switch syntax"},
			{Text: ".pc", Description: "set the address of the next word"},
			{Text: ".details", Description: "toggle details"},
			{Text: ".help", Description: "print help"},
			{Text: ".exit", Description: "exit"},
		}
		return prompt.FilterHasPrefix(suggests, word, false)
	}

	livePrefix := func() (string, bool) {
		return fmt.Sprintf("%s %08x> ", e.dec.Table().Name(), uint32(pc)), true
	}

	fmt.Println("armdis repl. Type .help for assistance.")
	prompt.New(executor, suggest, prompt.OptionLivePrefix(livePrefix)).Run()
	return nil
}
