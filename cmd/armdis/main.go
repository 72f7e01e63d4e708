// Command armdis disassembles ARM and Thumb code and inspects the
// instruction tables behind it.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/apparentlymart/arm-meta/arm"
	"github.com/apparentlymart/arm-meta/config"
	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/render"
)

type command struct {
	name     string
	synopsis string
	run      func(args []string) error
}

func commands() []command {
	return []command{
		{"disasm", "disassemble a binary file", runDisasm},
		{"decode", "decode instruction words given in hex", runDecode},
		{"dump", "dump opcodes, decision trees or decoded words", runDump},
		{"encodings", "list the encodings of the instruction set", runEncodings},
		{"find", "look up an opcode by name", runFind},
		{"gen", "generate Go dispatch code", runGen},
		{"repl", "decode words interactively", runREPL},
	}
}

func main() {
	cmds := commands()
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "help" {
		usage(cmds)
		os.Exit(2)
	}
	name := os.Args[1]
	for _, c := range cmds {
		if c.name != name {
			continue
		}
		err := c.run(os.Args[2:])
		switch {
		case err == nil:
			return
		case errors.Is(err, flag.ErrHelp):
			os.Exit(2)
		default:
			fmt.Fprintf(os.Stderr, "armdis %s: %s\n", name, err)
			os.Exit(1)
		}
	}

	names := make([]string, len(cmds))
	for i, c := range cmds {
		names[i] = c.name
	}
	fmt.Fprintf(os.Stderr, "armdis: unknown command %q", name)
	if s, ok := closest(name, names); ok {
		fmt.Fprintf(os.Stderr, "; did you mean %q?", s)
	}
	fmt.Fprintln(os.Stderr)
	os.Exit(2)
}

func usage(cmds []command) {
	fmt.Fprintln(os.Stderr, "usage: armdis <command> [flags] [args]")
	fmt.Fprintln(os.Stderr)
	for _, c := range cmds {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", c.name, c.synopsis)
	}
}

// closest returns the candidate nearest to name by edit distance, unless
// reaching it would mean replacing the whole candidate.
func closest(name string, candidates []string) (string, bool) {
	sorted := append([]string(nil), candidates...)
	sort.Strings(sorted)

	nameRunes := []rune(name)
	best, bestDistance := "", len(nameRunes)
	for _, c := range sorted {
		distance := levenshtein.DistanceForStrings(nameRunes, []rune(c), levenshtein.DefaultOptions)
		if distance < bestDistance && distance < len(c) {
			best, bestDistance = c, distance
		}
	}
	return best, best != ""
}

// common holds the flags every command shares.
type common struct {
	configPath string
	isa        string
	version    string
	extensions string
	syntax     string
	strategy   string
	verbose    bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML configuration `file`")
	fs.StringVar(&c.isa, "isa", "", "instruction set: a32 or thumb")
	fs.StringVar(&c.version, "arch", "", "architecture version, such as v5te")
	fs.StringVar(&c.extensions, "ext", "", "comma-separated extensions: dsp, jazelle, idiv")
	fs.StringVar(&c.syntax, "syntax", "", "assembler syntax: ual or divided")
	fs.StringVar(&c.strategy, "dispatch", "", "dispatch strategy: adaptive or buckets")
	fs.BoolVar(&c.verbose, "v", false, "log debug messages")
}

// env is everything a command needs once its flags are parsed.
type env struct {
	cfg     *config.Config
	log     zerolog.Logger
	dec     *decode.Decoder
	dcfg    decode.Config
	render  render.Options
	symbols render.SymbolMap
}

func (c *common) setup() (*env, error) {
	level := zerolog.InfoLevel
	if c.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg := config.Default()
	if c.configPath != "" {
		var err error
		if cfg, err = config.Load(c.configPath); err != nil {
			return nil, err
		}
	}
	if c.isa != "" {
		cfg.ISA = c.isa
	}
	if c.version != "" {
		cfg.Version = c.version
	}
	if c.extensions != "" {
		cfg.Extensions = strings.Split(c.extensions, ",")
	}
	if c.syntax != "" {
		cfg.Syntax = c.syntax
	}
	if c.strategy != "" {
		cfg.Dispatch.Strategy = c.strategy
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, log: log}
	// Validate has already checked everything these can fail on.
	e.dcfg, _ = cfg.DecodeConfig()
	e.render, _ = cfg.RenderOptions()
	e.symbols, _ = cfg.SymbolMap()
	dopts, _ := cfg.DispatchOptions()

	dec, err := arm.NewDecoder(cfg.ISA, decode.WithDispatch(dopts), decode.WithLogger(log))
	if err != nil {
		return nil, err
	}
	e.dec = dec
	log.Debug().
		Str("isa", dec.Table().Name()).
		Stringer("config", e.dcfg).
		Stringer("syntax", e.render.Dialect).
		Msg("ready")
	return e, nil
}

// resolver returns the configured symbols, or nil so that rendering skips
// lookups entirely.
func (e *env) resolver() render.Resolver {
	if len(e.symbols) == 0 {
		return nil
	}
	return e.symbols
}
