package unittest

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var verbose = flag.Bool("vv", false, "print debugging logs")

// Logger returns a debug level logger that discards its output unless the tests
// run with -vv.
func Logger() zerolog.Logger {
	var writer io.Writer = io.Discard
	if *verbose {
		writer = os.Stderr
	}
	return LoggerWithWriterAndLevel(writer, zerolog.DebugLevel)
}

// LoggerWithWriterAndLevel returns a logger writing JSON lines to writer, for tests
// asserting on log output.
func LoggerWithWriterAndLevel(writer io.Writer, level zerolog.Level) zerolog.Logger {
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
