package dedupr

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// logger is the levelled sink a run reports through
type logger = logrus.FieldLogger

// NewLogger builds the command-line logger. Verbose mode enables debug events.
func NewLogger(verbose bool, w io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors: !isTerminal(w),
		FullTimestamp: true,
	})
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// discardLogger is used when no logger is injected
func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

// logError logs a classified failure. Verbose runs get the error as a field of
// its own, quiet runs a single line with the cause appended.
func logError(log logger, verbose bool, message string, err error) {
	entry := log.WithField("kind", KindOf(err))
	if e, ok := err.(*Error); ok && e.Path != "" {
		entry = entry.WithField("path", e.Path)
	}
	if verbose {
		entry.WithError(err).Error(message)
		return
	}
	entry.Errorf("%s: %v", message, err)
}
