package tabular

import (
	"context"
	"io"
	"math"
)

// chunkReader reads its source in fixed-size chunks and reports progress after each one.
// Consumers may read in any size; the source only ever sees chunk-sized reads.
type chunkReader struct {
	ctx        context.Context
	src        io.Reader
	buf        []byte
	pending    []byte
	consumed   int64
	size       int64
	onProgress func(float64)
	err        error
}

func newChunkReader(ctx context.Context, src io.Reader, chunkSize int, size int64, onProgress func(float64)) *chunkReader {
	return &chunkReader{
		ctx:        ctx,
		src:        src,
		buf:        make([]byte, chunkSize),
		size:       size,
		onProgress: onProgress,
	}
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		if err := c.ctx.Err(); err != nil {
			return 0, err
		}

		n, err := io.ReadFull(c.src, c.buf)
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		c.pending = c.buf[:n]
		c.err = err

		if n > 0 {
			c.consumed += int64(n)
			c.report()
		}
		if len(c.pending) == 0 {
			return 0, c.err
		}
	}

	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *chunkReader) report() {
	if c.onProgress == nil || c.size <= 0 {
		return
	}
	c.onProgress(math.Min(100, float64(c.consumed)/float64(c.size)*100))
}
