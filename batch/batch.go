// Package batch disassembles whole sections in parallel.
package batch

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/apparentlymart/arm-meta/decode"
)

const defaultChunkSize = 64 << 10

var tracer = otel.Tracer("github.com/apparentlymart/arm-meta/batch")

type Options struct {
	// Workers bounds the number of chunks decoded at once. Zero means
	// GOMAXPROCS.
	Workers int

	// ChunkSize is the number of bytes each worker walks. It is rounded
	// down to the table's unit.
	ChunkSize int

	// Order is the byte order of the section. Nil means little-endian.
	Order binary.ByteOrder

	// Logger receives debug events. Nil disables logging.
	Logger *zerolog.Logger

	// Progress, when set, is called with the byte count of each chunk as
	// it finishes. It may be called from several goroutines at once.
	Progress func(bytes int)
}

type Result struct {
	Instructions []decode.Instruction

	// Truncated is set when the section ends part way through an
	// instruction, which starts at TruncatedAt.
	Truncated   bool
	TruncatedAt uint32
}

// part is the walk of one chunk.
type part struct {
	start, end int
	insts      []decode.Instruction
	truncated  bool
}

// Disassemble decodes buf, whose first byte is at address base, and
// returns its instructions in address order. The only errors are those
// of ctx.
func Disassemble(ctx context.Context, dec *decode.Decoder, cfg decode.Config, buf []byte, base uint32, opts Options) (Result, error) {
	table := dec.Table()
	ctx, span := tracer.Start(ctx, "batch.Disassemble", trace.WithAttributes(
		attribute.String("table", table.Name()),
		attribute.Int("bytes", len(buf)),
		attribute.Stringer("config", cfg),
	))
	defer span.End()

	if opts.Order == nil {
		opts.Order = binary.LittleEndian
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	unit := table.Unit()
	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	chunk -= chunk % unit
	if chunk == 0 {
		chunk = unit
	}

	parts := make([]part, (len(buf)+chunk-1)/chunk)
	for i := range parts {
		parts[i].start = i * chunk
		parts[i].end = min(parts[i].start+chunk, len(buf))
	}
	span.SetAttributes(attribute.Int("chunks", len(parts)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range parts {
		p := &parts[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			walk(dec, cfg, buf, base, opts.Order, p, p.start)
			if opts.Progress != nil {
				opts.Progress(p.end - p.start)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Result{}, fmt.Errorf("disassembling %d bytes at %#x: %w", len(buf), base, err)
	}

	ret := merge(dec, cfg, buf, base, opts, parts)
	if ret.Truncated {
		opts.Logger.Debug().
			Str("table", table.Name()).
			Str("at", fmt.Sprintf("%#x", ret.TruncatedAt)).
			Msg("section ends inside an instruction")
	}
	span.SetAttributes(attribute.Int("instructions", len(ret.Instructions)))
	return ret, nil
}

// walk decodes the instructions of p that start at or after from.
func walk(dec *decode.Decoder, cfg decode.Config, buf []byte, base uint32, order binary.ByteOrder, p *part, from int) {
	cur := decode.NewCursor(buf, base, order)
	if err := cur.Seek(from); err != nil {
		return
	}
	stream := decode.NewStream(dec, cur, cfg).Until(p.end)
	for {
		inst, err := stream.Next()
		switch {
		case err == nil:
			p.insts = append(p.insts, inst)
			continue
		case errors.Is(err, decode.ErrTruncated):
			p.truncated = true
		case errors.Is(err, io.EOF):
		}
		return
	}
}

// merge joins the parts in address order. An instruction at the end of
// one chunk may run into the next, and then the next chunk's walk can be
// out of step with the real instruction boundaries; such a chunk is walked
// again from where the previous one really ended.
func merge(dec *decode.Decoder, cfg decode.Config, buf []byte, base uint32, opts Options, parts []part) Result {
	var ret Result
	next := 0
	for i := range parts {
		p := &parts[i]
		if next > p.start {
			skip := 0
			for skip < len(p.insts) && int(p.insts[skip].PC-base) < next {
				skip++
			}
			switch {
			case skip < len(p.insts) && int(p.insts[skip].PC-base) == next:
				p.insts = p.insts[skip:]
			case next >= p.end:
				p.insts, p.truncated = nil, false
			default:
				opts.Logger.Debug().
					Str("table", dec.Table().Name()).
					Str("at", fmt.Sprintf("%#x", base+uint32(next))).
					Msg("resynchronizing chunk")
				p.insts, p.truncated = nil, false
				walk(dec, cfg, buf, base, opts.Order, p, next)
			}
		}
		ret.Instructions = append(ret.Instructions, p.insts...)
		if n := len(p.insts); n > 0 {
			last := p.insts[n-1]
			next = int(last.PC-base) + last.Size
		}
		if p.truncated {
			ret.Truncated = true
			ret.TruncatedAt = base + uint32(next)
		}
	}
	return ret
}
