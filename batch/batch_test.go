package batch

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/apparentlymart/arm-meta/arm"
	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// sequential is the single-threaded walk every batch must reproduce.
func sequential(t testing.TB, dec *decode.Decoder, buf []byte, base uint32) Result {
	t.Helper()
	var ret Result
	cur := decode.NewCursor(buf, base, binary.LittleEndian)
	s := decode.NewStream(dec, cur, arm.DefaultConfig())
	for {
		inst, err := s.Next()
		switch {
		case err == nil:
			ret.Instructions = append(ret.Instructions, inst)
			continue
		case errors.Is(err, decode.ErrTruncated):
			ret.Truncated = true
			ret.TruncatedAt = cur.Addr()
		case !errors.Is(err, io.EOF):
			t.Fatal(err)
		}
		return ret
	}
}

// thumbCode returns half-words in which paired prefixes are common, so
// that pairs often straddle chunk boundaries.
func thumbCode(seed int64, halfwords int) []byte {
	rng := rand.New(rand.NewSource(seed))
	buf := make([]byte, 2*halfwords)
	for i := 0; i < halfwords; i++ {
		h := uint16(rng.Uint32())
		if rng.Intn(3) == 0 {
			h |= 0xf000
		}
		binary.LittleEndian.PutUint16(buf[2*i:], h)
	}
	return buf
}

func TestPairStraddlingChunk(t *testing.T) {
	t.Parallel()

	dec, err := arm.NewDecoder("thumb")
	require.NoError(t, err)

	buf := []byte{
		0x08, 0x1c, // adds r0, r1, #0
		0x00, 0xf0, // bl, first half
		0x00, 0xf8, // bl, second half; the next chunk starts here
		0x70, 0x47, // bx lr
	}
	// Walked on its own, the second chunk pairs the bl suffix with bx
	// and has to be walked again from the end of the bl.
	logger := zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.DebugLevel)
	got, err := Disassemble(context.Background(), dec, arm.DefaultConfig(), buf, 0x1000, Options{ChunkSize: 4, Workers: 2, Logger: &logger})
	require.NoError(t, err)
	testutil.AssertEqualWithDiff(t, sequential(t, dec, buf, 0x1000), got)

	require.Len(t, got.Instructions, 3)
	assert.Equal(t, "bl", got.Instructions[1].Opcode().Name)
	assert.Equal(t, uint32(0x1006), got.Instructions[2].PC)
}

func TestChunksInsideInstructions(t *testing.T) {
	t.Parallel()

	dec, err := arm.NewDecoder("thumb")
	require.NoError(t, err)

	// Every chunk is one half-word, so the chunks holding second halves
	// of pairs contribute nothing.
	buf := []byte{
		0x00, 0xf0,
		0x00, 0xf0,
		0x00, 0xf8,
		0x70, 0x47,
	}
	got, err := Disassemble(context.Background(), dec, arm.DefaultConfig(), buf, 0, Options{ChunkSize: 2})
	require.NoError(t, err)
	testutil.AssertEqualWithDiff(t, sequential(t, dec, buf, 0), got)
}

func TestTruncatedSection(t *testing.T) {
	t.Parallel()

	dec, err := arm.NewDecoder("a32")
	require.NoError(t, err)

	buf := []byte{0x1e, 0xff, 0x2f, 0xe1, 0x00, 0x00}
	got, err := Disassemble(context.Background(), dec, arm.DefaultConfig(), buf, 0x100, Options{ChunkSize: 4})
	require.NoError(t, err)
	require.Len(t, got.Instructions, 1)
	assert.True(t, got.Truncated)
	assert.Equal(t, uint32(0x104), got.TruncatedAt)
}

func TestMatchesSequential(t *testing.T) {
	dec, err := arm.NewDecoder("thumb")
	require.NoError(t, err)
	a32, err := arm.NewDecoder("a32")
	require.NoError(t, err)

	properties := gopter.NewProperties(nil)

	properties.Property("thumb batches equal the sequential walk", prop.ForAll(
		func(seed int64, size, chunk, workers int) bool {
			buf := thumbCode(seed, size)
			if seed%2 == 0 {
				buf = append(buf, 0x00)
			}
			got, err := Disassemble(context.Background(), dec, arm.DefaultConfig(), buf, 0x2000, Options{
				ChunkSize: chunk,
				Workers:   workers,
			})
			return err == nil && assert.ObjectsAreEqual(sequential(t, dec, buf, 0x2000), got)
		},
		gen.Int64(),
		gen.IntRange(0, 200),
		gen.IntRange(1, 40),
		gen.IntRange(1, 8),
	))

	properties.Property("a32 batches equal the sequential walk", prop.ForAll(
		func(seed int64, size, chunk int) bool {
			rng := rand.New(rand.NewSource(seed))
			buf := make([]byte, size)
			rng.Read(buf)
			got, err := Disassemble(context.Background(), a32, arm.DefaultConfig(), buf, 0, Options{ChunkSize: chunk})
			return err == nil && assert.ObjectsAreEqual(sequential(t, a32, buf, 0), got)
		},
		gen.Int64(),
		gen.IntRange(0, 400),
		gen.IntRange(1, 64),
	))

	properties.TestingRun(t)
}

func TestProgress(t *testing.T) {
	t.Parallel()

	dec, err := arm.NewDecoder("thumb")
	require.NoError(t, err)

	buf := thumbCode(7, 1000)
	var total atomic.Int64
	_, err = Disassemble(context.Background(), dec, arm.DefaultConfig(), buf, 0, Options{
		ChunkSize: 64,
		Progress:  func(n int) { total.Add(int64(n)) },
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(buf)), total.Load())
}

func TestCanceled(t *testing.T) {
	t.Parallel()

	dec, err := arm.NewDecoder("a32")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Disassemble(ctx, dec, arm.DefaultConfig(), make([]byte, 1<<12), 0, Options{ChunkSize: 16})
	assert.ErrorIs(t, err, context.Canceled)
}
