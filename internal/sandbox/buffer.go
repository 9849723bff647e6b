package sandbox

import "bytes"

// limitedBuffer caps captured output so a chatty or looping agent cannot
// exhaust memory. Writes past the cap are counted but dropped.
type limitedBuffer struct {
	buf       bytes.Buffer
	max       int
	truncated bool
}

func newLimitedBuffer(max int) *limitedBuffer {
	if max <= 0 {
		max = defaultMaxOutput
	}
	return &limitedBuffer{max: max}
}

// Write never returns an error: the process keeps running even after its
// output stops being recorded.
func (b *limitedBuffer) Write(p []byte) (int, error) {
	remaining := b.max - b.buf.Len()
	if remaining <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *limitedBuffer) String() string  { return b.buf.String() }
func (b *limitedBuffer) Truncated() bool { return b.truncated }
