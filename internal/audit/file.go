package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"
	"sync"

	"github.com/valet-app/molegate/internal/redact"
)

// FileSink appends events to a JSONL audit log, one record per line.
// Secrets are redacted before anything touches disk.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
}

func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, err
	}
	return &FileSink{file: file}, nil
}

func (s *FileSink) Emit(event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event.Command = redact.Redact(event.Command)
	if event.Reason != "" {
		event.Reason = redact.Redact(event.Reason)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = s.file.Write(data)
	return err
}

func (s *FileSink) Close() error {
	if s.file != nil {
		return s.file.Close()
	}
	return nil
}

// ReadEvents returns the last limit events from the log, skipping lines
// that fail to parse. A limit of zero or less returns everything. A missing
// log file is an empty history, not an error.
func ReadEvents(path string, limit int) ([]Event, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		var event Event
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// ClearLog removes the audit log file. Clearing a log that does not exist
// is a no-op.
func ClearLog(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
