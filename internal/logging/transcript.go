package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/medassist/internal/conversation"
	"github.com/medassist/internal/transport"
)

// TranscriptLogger writes one chat session to its own file. Every line is
// prefixed with the wall clock and the time since the session started.
// A nil *TranscriptLogger is valid and discards everything.
type TranscriptLogger struct {
	sessionID string
	path      string
	logFile   *os.File
	mutex     sync.Mutex
	startTime time.Time
}

// StartTranscript creates dir if needed and opens a new transcript file in it.
func StartTranscript(dir, sessionID string) (*TranscriptLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}

	start := time.Now()
	fileName := fmt.Sprintf("session_%s_%s.log", sessionID, start.Format("20060102_150405"))
	path := filepath.Join(dir, fileName)

	logFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript file: %w", err)
	}

	t := &TranscriptLogger{
		sessionID: sessionID,
		path:      path,
		logFile:   logFile,
		startTime: start,
	}
	t.writeHeader()
	return t, nil
}

// Path returns the transcript file location.
func (t *TranscriptLogger) Path() string {
	if t == nil {
		return ""
	}
	return t.path
}

// Log writes a formatted line.
func (t *TranscriptLogger) Log(format string, args ...interface{}) {
	if t == nil {
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.writeLocked(fmt.Sprintf(format, args...))
}

// RecordMessage logs a message appended to the conversation.
func (t *TranscriptLogger) RecordMessage(msg conversation.Message) {
	if t == nil {
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()
	t.writeLocked(fmt.Sprintf("%s %s:", strings.ToUpper(string(msg.Sender)), msg.ID))
	t.writeRawLocked(msg.Text)
}

// RecordFailure logs the raw detail behind a failed operation, which the
// conversation itself only shows in rendered form.
func (t *TranscriptLogger) RecordFailure(op string, f *transport.Failure) {
	if t == nil || f == nil {
		return
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()
	if f.Status != 0 {
		t.writeLocked(fmt.Sprintf("FAILURE %s kind=%s status=%d detail=%q", op, f.Kind, f.Status, f.Detail))
		return
	}
	t.writeLocked(fmt.Sprintf("FAILURE %s kind=%s detail=%q", op, f.Kind, f.Detail))
}

// Close finalizes the transcript file.
func (t *TranscriptLogger) Close() error {
	if t == nil {
		return nil
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.logFile == nil {
		return nil
	}
	t.writeLocked(fmt.Sprintf("Session ended. Total duration: %v", time.Since(t.startTime).Round(time.Millisecond)))
	err := t.logFile.Close()
	t.logFile = nil
	return err
}

func (t *TranscriptLogger) writeLocked(line string) {
	if t.logFile == nil {
		return
	}
	timestamp := time.Now().Format("15:04:05.000")
	elapsed := time.Since(t.startTime).Round(time.Millisecond)
	fmt.Fprintf(t.logFile, "[%s] [+%v] %s\n", timestamp, elapsed, line)
}

func (t *TranscriptLogger) writeRawLocked(text string) {
	if t.logFile == nil {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(t.logFile, "    %s\n", line)
	}
}

func (t *TranscriptLogger) writeHeader() {
	header := fmt.Sprintf(`MEDASSIST CHAT TRANSCRIPT
Session ID: %s
Start Time: %s
Log Format: [HH:MM:SS.mmm] [+duration] message

`, t.sessionID, t.startTime.Format("2006-01-02 15:04:05"))

	t.logFile.WriteString(header)
}
