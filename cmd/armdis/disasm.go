package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/apparentlymart/arm-meta/batch"
	"github.com/apparentlymart/arm-meta/listing"
)

// hexUint is a flag holding an address or size in any base.
type hexUint uint32

func (h *hexUint) String() string {
	return fmt.Sprintf("%#x", uint32(*h))
}

func (h *hexUint) Set(s string) error {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return err
	}
	*h = hexUint(v)
	return nil
}

func runDisasm(args []string) error {
	fs := flag.NewFlagSet("disasm", flag.ContinueOnError)
	var c common
	c.register(fs)
	var (
		offset, length, base hexUint
		format               = fs.String("format", "text", "listing format: text, yaml or cbor")
		outPath              = fs.String("o", "", "write the listing to `file` instead of stdout")
		color                = fs.Bool("color", false, "colour text listings")
		defUse               = fs.Bool("defuse", false, "show the registers each instruction reads and writes")
		progress             = fs.Bool("progress", false, "show a progress bar")
		workers              = fs.Int("workers", 0, "number of decoding workers")
		chunk                = fs.Int("chunk", 0, "bytes per worker chunk")
	)
	fs.Var(&offset, "offset", "file offset of the code")
	fs.Var(&length, "length", "number of bytes to disassemble, zero for the rest of the file")
	fs.Var(&base, "base", "address of the first disassembled byte")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("need exactly one input file")
	}
	e, err := c.setup()
	if err != nil {
		return err
	}
	lf, err := listing.ParseFormat(*format)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if int(offset) > len(data) {
		return fmt.Errorf("offset %#x is past the end of the %d byte file", uint32(offset), len(data))
	}
	data = data[offset:]
	if length != 0 {
		if int(length) > len(data) {
			return fmt.Errorf("length %#x runs past the end of the file", uint32(length))
		}
		data = data[:length]
	}

	var out io.Writer = os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	order, _ := e.cfg.ByteOrder()
	opts := batch.Options{
		Workers:   e.cfg.Workers,
		ChunkSize: e.cfg.ChunkSize,
		Order:     order,
		Logger:    &e.log,
	}
	if *workers > 0 {
		opts.Workers = *workers
	}
	if *chunk > 0 {
		opts.ChunkSize = *chunk
	}
	if *progress {
		bar := progressbar.DefaultBytes(int64(len(data)), "disassembling")
		opts.Progress = reportProgress(bar, e.log)
		defer bar.Close()
	}

	res, err := batch.Disassemble(context.Background(), e.dec, e.dcfg, data, uint32(base), opts)
	if err != nil {
		return err
	}

	w := listing.NewWriter(out, lf, listing.WithColor(*color), listing.WithDefUse(*defUse))
	r := e.resolver()
	for _, inst := range res.Instructions {
		if err := w.Write(listing.NewEntry(inst, e.render, r)); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if res.Truncated {
		e.log.Warn().
			Str("at", fmt.Sprintf("%#x", res.TruncatedAt)).
			Msg("input ends inside an instruction")
	}
	return nil
}

type progressAdder interface {
	Add(n int) error
}

// reportProgress feeds decoded byte counts to a progress display. A
// failure to draw is logged and otherwise ignored.
func reportProgress(p progressAdder, log zerolog.Logger) func(int) {
	return func(n int) {
		if err := p.Add(n); err != nil {
			log.Debug().Err(err).Msg("updating progress bar")
		}
	}
}
