package worker

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/golang/snappy"

	herrors "github.com/filemark/filemark/internal/errors"
)

// DefaultChunkSize is the read buffer size used when a worker is configured
// with a non-positive chunk size.
const DefaultChunkSize = 256 * 1024

// LineCountWorker indexes a single file by counting newline-delimited
// records. Files with a .sz or .snappy suffix are decoded from the snappy
// framed stream format transparently.
type LineCountWorker struct {
	lifecycle

	path      string
	chunkSize int

	lines int64
}

// NewLineCountWorker creates a worker that will count lines in the file at
// path, reading chunkSize bytes at a time. The signal may be nil when no
// waiter is listening.
func NewLineCountWorker(path string, chunkSize int, sig *Signal) *LineCountWorker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	w := &LineCountWorker{
		path:      path,
		chunkSize: chunkSize,
	}
	w.signal = sig
	return w
}

// Start begins counting asynchronously. It must be called exactly once.
func (w *LineCountWorker) Start(ctx context.Context) {
	if !w.begin(herrors.New(herrors.ErrCategoryWorker, herrors.CodeDoubleStart, "line count worker started twice: "+w.path)) {
		return
	}
	go func() {
		lines, err := w.count(ctx)
		w.lines = lines
		w.finish(err)
	}()
}

// LineCount returns the number of lines counted. Only meaningful after
// Running() has become false with a nil Err().
func (w *LineCountWorker) LineCount() int64 {
	return w.lines
}

func (w *LineCountWorker) count(ctx context.Context) (int64, error) {
	f, err := os.Open(w.path)
	if err != nil {
		return 0, herrors.Wrap(herrors.ErrCategoryWorker, herrors.CodeReadFailed, w.path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(w.path, ".sz") || strings.HasSuffix(w.path, ".snappy") {
		r = snappy.NewReader(f)
	}

	buf := make([]byte, w.chunkSize)
	var lines int64
	for {
		if err := ctx.Err(); err != nil {
			return lines, err
		}
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			if b == '\n' {
				lines++
			}
		}
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return lines, herrors.Wrap(herrors.ErrCategoryWorker, herrors.CodeReadFailed, w.path, err)
		}
	}
}
