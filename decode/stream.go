package decode

import "io"

// Stream decodes consecutive instructions from a cursor.
type Stream struct {
	dec   *Decoder
	cur   *Cursor
	cfg   Config
	limit int
}

// NewStream returns a stream that decodes from the cursor's current offset
// to the end of its buffer.
func NewStream(dec *Decoder, cur *Cursor, cfg Config) *Stream {
	return &Stream{dec: dec, cur: cur, cfg: cfg, limit: -1}
}

// Until stops the stream before the first instruction that would start
// at or after the given cursor offset. An instruction starting before the
// limit may still read past it.
func (s *Stream) Until(off int) *Stream {
	s.limit = off
	return s
}

// Next decodes the next instruction and advances past it. It returns
// io.EOF at the end of the stream and ErrTruncated, without advancing,
// when the remaining bytes cannot hold the next instruction.
func (s *Stream) Next() (Instruction, error) {
	if s.cur.Remaining() == 0 || (s.limit >= 0 && s.cur.Offset() >= s.limit) {
		return Instruction{}, io.EOF
	}
	pc := s.cur.Addr()

	var word, next uint32
	hasNext := false
	if s.dec.table.Halfwords() {
		h, err := s.cur.PeekUint16(0)
		if err != nil {
			return Instruction{}, ErrTruncated
		}
		word = uint32(h)
		if h2, err := s.cur.PeekUint16(2); err == nil {
			next, hasNext = uint32(h2), true
		}
	} else {
		w, err := s.cur.PeekUint32(0)
		if err != nil {
			return Instruction{}, ErrTruncated
		}
		word = w
	}

	inst, n := s.dec.Decode(word, next, hasNext, pc, s.cfg)
	if n == 0 {
		return inst, ErrTruncated
	}
	if err := s.cur.Skip(n); err != nil {
		return inst, ErrTruncated
	}
	return inst, nil
}
