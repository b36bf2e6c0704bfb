package runner

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
	"github.com/projectdiscovery/gologger/writer"
	errorutil "github.com/projectdiscovery/utils/errors"
)

// teeWriter appends every message to the log file and mirrors it to the
// console. Info, debug and verbose messages only reach the console in
// verbose mode.
type teeWriter struct {
	mu      sync.Mutex
	file    io.Writer
	console writer.Writer
	verbose bool
}

var _ writer.Writer = &teeWriter{}

// Write implements writer.Writer
func (t *teeWriter) Write(data []byte, level levels.Level) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file != nil {
		// a broken log file must not stop the scan
		_, _ = fmt.Fprintf(t.file, "%s %s\n", time.Now().Format(time.RFC3339), data)
	}
	if t.mirrors(level) {
		t.console.Write(data, level)
	}
}

func (t *teeWriter) mirrors(level levels.Level) bool {
	switch level {
	case levels.LevelFatal, levels.LevelError, levels.LevelWarning, levels.LevelSilent:
		return true
	default:
		return t.verbose
	}
}

// setupLogging routes gologger through a teeWriter on logFile, opened for
// append. The returned closer releases the log file.
func setupLogging(logFile string, verbose bool) (io.Closer, error) {
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("failed to open log file %v", logFile)
	}
	gologger.DefaultLogger.SetFormatter(formatter.NewCLI(true))
	// everything reaches the writer, the tee decides what the console sees
	gologger.DefaultLogger.SetMaxLevel(levels.LevelVerbose)
	gologger.DefaultLogger.SetWriter(&teeWriter{file: f, console: writer.NewCLI(), verbose: verbose})
	return f, nil
}
