package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypeRun     EventType = "run"
	EventTypeStep    EventType = "step"
	EventTypeEmit    EventType = "emit"
	EventTypePersist EventType = "persist"
	EventTypePolicy  EventType = "policy_check"
	EventTypeLLM     EventType = "llm"
	EventTypeNotify  EventType = "notify"
)

// Event represents a structured log entry.
type Event struct {
	Type       EventType `json:"type"`
	RunID      string    `json:"run_id,omitempty"`
	TestCaseID string    `json:"test_case_id,omitempty"`
	Data       any       `json:"data"`
	Timestamp  time.Time `json:"timestamp"`
}

// Logger writes structured events as JSON lines. LLM exchanges are also
// appended to a rotated file under the log directory.
type Logger struct {
	mu         sync.Mutex
	out        io.Writer
	llmLogPath string
	maxSize    int64
}

// NewLoggerTo sends events to out and keeps llm.jsonl under dir. An empty
// dir disables the file.
func NewLoggerTo(out io.Writer, dir string) *Logger {
	l := &Logger{
		out:     out,
		maxSize: 10 * 1024 * 1024, // 10MB
	}
	if dir != "" {
		l.llmLogPath = filepath.Join(dir, "llm.jsonl")
	}
	return l
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLoggerTo(io.Discard, "")
}

// Log emits a structured JSON event.
func (l *Logger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		data = []byte(fmt.Sprintf("{\"error\": %q}", "failed to marshal event: "+err.Error()))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, string(data))

	if evt.Type == EventTypeLLM && l.llmLogPath != "" {
		l.writeToFile(data)
	}
}

func (l *Logger) writeToFile(data []byte) {
	if err := os.MkdirAll(filepath.Dir(l.llmLogPath), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}

	info, err := os.Stat(l.llmLogPath)
	if err == nil && info.Size() > l.maxSize {
		l.rotateLogs()
	}

	f, err := os.OpenFile(l.llmLogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotateLogs() {
	// keep one .old file
	oldPath := l.llmLogPath + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(l.llmLogPath, oldPath)
}

func (l *Logger) LogRun(runID, testCaseID, phase string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["phase"] = phase
	l.Log(Event{Type: EventTypeRun, RunID: runID, TestCaseID: testCaseID, Data: data})
}

func (l *Logger) LogStep(runID string, index int, label, status, message string) {
	l.Log(Event{
		Type:  EventTypeStep,
		RunID: runID,
		Data: map[string]any{
			"index":   index,
			"step":    label,
			"status":  status,
			"message": message,
		},
	})
}

func (l *Logger) LogEmit(target string, steps, lines int) {
	l.Log(Event{
		Type: EventTypeEmit,
		Data: map[string]any{"target": target, "steps": steps, "lines": lines},
	})
}

func (l *Logger) LogPersist(runID, testCaseID string, err error) {
	data := map[string]any{"ok": err == nil}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypePersist, RunID: runID, TestCaseID: testCaseID, Data: data})
}

func (l *Logger) LogPolicy(runID, action, url string, allowed bool, reason string) {
	data := map[string]any{"action": action, "allowed": allowed, "reason": reason}
	if url != "" {
		data["url"] = url
	}
	l.Log(Event{Type: EventTypePolicy, RunID: runID, Data: data})
}

func (l *Logger) LogLLM(prompt any, response string, toolCalls any) {
	l.Log(Event{
		Type: EventTypeLLM,
		Data: map[string]any{
			"prompt":     prompt,
			"response":   response,
			"tool_calls": toolCalls,
		},
	})
}

func (l *Logger) LogNotify(channel string, err error) {
	data := map[string]any{"channel": channel, "ok": err == nil}
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(Event{Type: EventTypeNotify, Data: data})
}
