package runner

import (
	"io"
	"sync"
)

// syncWriter serializes Write calls so concurrent answer jobs never
// interleave partial log lines.
type syncWriter struct {
	mu   sync.Mutex
	dest io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dest.Write(p)
}

// wrapVerboseWriters guards both verbose destinations when more than one
// worker will write to them. Single-worker batches write directly.
func wrapVerboseWriters(workers int, console io.Writer, logFile io.Writer) (io.Writer, io.Writer) {
	if workers <= 1 {
		return console, logFile
	}
	if console != nil {
		console = &syncWriter{dest: console}
	}
	if logFile != nil {
		logFile = &syncWriter{dest: logFile}
	}
	return console, logFile
}
