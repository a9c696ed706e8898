/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ssgreg/logf"

	"github.com/acronis/go-docgate/log"
)

type writerEntryWriter struct {
	sync.Mutex
	encoder logf.Encoder
	output  io.Writer
}

//nolint:gocritic
func (ew *writerEntryWriter) WriteEntry(e logf.Entry) {
	var buf logf.Buffer
	if err := ew.encoder.Encode(&buf, e); err != nil {
		ew.write(err.Error() + "\n")
		return
	}
	ew.write(string(buf.Data))
}

func (ew *writerEntryWriter) write(s string) {
	ew.Lock()
	defer ew.Unlock()
	_, _ = fmt.Fprint(ew.output, s)
}

// NewLogger returns a synchronous JSON logger at debug level writing to stderr.
// It is slow and must not be used outside tests.
func NewLogger() log.FieldLogger {
	return NewLoggerWithOutput(os.Stderr)
}

// NewLoggerWithOutput is like NewLogger but writes to the given output.
func NewLoggerWithOutput(output io.Writer) log.FieldLogger {
	ew := &writerEntryWriter{
		encoder: logf.NewJSONEncoder(logf.JSONEncoderConfig{
			EncodeTime:   logf.RFC3339NanoTimeEncoder,
			FieldKeyTime: "time",
		}),
		output: output,
	}
	return &log.LogfAdapter{Logger: logf.NewLogger(logf.LevelDebug, ew)}
}
