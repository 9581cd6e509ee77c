package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter tees log output. A failing writer does not stop the others.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{Writers: writers}
}

// Write reports the full length as soon as one writer took all of p, together
// with the errors of the writers that failed.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var errs error
	delivered := false
	for _, w := range cw.Writers {
		n, err := w.Write(p)
		switch {
		case err != nil:
			errs = multierr.Append(errs, err)
		case n < len(p):
			errs = multierr.Append(errs, io.ErrShortWrite)
		default:
			delivered = true
		}
	}

	if !delivered {
		return 0, errs
	}
	return len(p), errs
}
