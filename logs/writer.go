// Package logs owns the two log sinks a session writes to: a FIX-message
// log (every sent and received frame, SOH visualized as '|') and a
// session-event log (state transitions, errors, reconnect decisions).
// Adapted from the teacher's per-session file-map-and-mutex writer; the
// ANSI/console cleanup and redraw-dedup logic that writer carried has no
// FIX analogue and is not kept (see DESIGN.md).
package logs

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Writer owns the open file handles backing a session's two log
// streams and closes them together.
type Writer struct {
	mu    sync.Mutex
	files []*os.File
}

// NewSessionLoggers opens {path}/{senderCompID}-fixMessages.log and
// {path}/{senderCompID}-session.log, matching the external log-output
// paths the engine is specified to write to. The FIX-message logger uses
// a bare formatter (one visualized frame per line); the session-event
// logger uses logrus's TextFormatter with full timestamps, matching the
// teacher's main.go logging setup.
func NewSessionLoggers(path, senderCompID string) (fixLog, sessionLog *log.Logger, closer func() error, err error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, nil, nil, fmt.Errorf("logs: create %s: %w", path, err)
	}

	w := &Writer{}

	fixFile, err := w.open(filepath.Join(path, senderCompID+"-fixMessages.log"))
	if err != nil {
		return nil, nil, nil, err
	}
	sessionFile, err := w.open(filepath.Join(path, senderCompID+"-session.log"))
	if err != nil {
		fixFile.Close()
		return nil, nil, nil, err
	}

	fixLog = log.New()
	fixLog.SetOutput(fixFile)
	fixLog.SetFormatter(&bareFormatter{})

	sessionLog = log.New()
	sessionLog.SetOutput(sessionFile)
	sessionLog.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	return fixLog, sessionLog, w.Close, nil
}

func (w *Writer) open(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("logs: open %s: %w", path, err)
	}
	w.mu.Lock()
	w.files = append(w.files, f)
	w.mu.Unlock()
	return f, nil
}

// Close closes every file this Writer opened.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var firstErr error
	for _, f := range w.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	w.files = nil
	return firstErr
}

// bareFormatter writes only the log entry's message, one per line, with
// no level/timestamp prefix — the FIX-message log is a raw frame-by-frame
// record, not an application log.
type bareFormatter struct{}

func (f *bareFormatter) Format(entry *log.Entry) ([]byte, error) {
	return []byte(entry.Message + "\n"), nil
}
