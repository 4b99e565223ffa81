package py

import "io"

// limitWriter discards everything past its byte limit, appending a
// truncation marker once.
type limitWriter struct {
	w         io.Writer
	remaining int
	truncated bool
}

func newLimitWriter(w io.Writer, limit int) *limitWriter {
	return &limitWriter{w: w, remaining: limit}
}

func (lw *limitWriter) Write(p []byte) (int, error) {
	if lw.truncated {
		return len(p), nil
	}
	if len(p) > lw.remaining {
		lw.w.Write(p[:lw.remaining])
		lw.w.Write([]byte("\n... output truncated"))
		lw.remaining = 0
		lw.truncated = true
		return len(p), nil
	}
	n, err := lw.w.Write(p)
	lw.remaining -= n
	return len(p), err
}
