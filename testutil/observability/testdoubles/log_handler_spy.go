package testdoubles

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// LogHandlerSpy is a slog.Handler implementation that captures log records for testing.
type LogHandlerSpy struct {
	records     *[]slog.Record
	attrs       []slog.Attr
	mu          *sync.Mutex
	logToStdout bool
}

// NewLogHandlerSpy creates a new LogHandlerSpy.
// Switchable to log to stdout, which can be useful for debugging tests by seeing the actual log output.
func NewLogHandlerSpy(logToStdOut bool) *LogHandlerSpy {
	records := make([]slog.Record, 0)

	return &LogHandlerSpy{
		records:     &records,
		mu:          &sync.Mutex{},
		logToStdout: logToStdOut,
	}
}

// Handle implements slog.Handler interface. Attributes bound with WithAttrs are added to the record.
func (s *LogHandlerSpy) Handle(ctx context.Context, record slog.Record) error {
	record = record.Clone()
	record.AddAttrs(s.attrs...)

	s.mu.Lock()
	*s.records = append(*s.records, record)
	s.mu.Unlock()

	if s.logToStdout {
		_ = slog.NewJSONHandler(os.Stdout, nil).Handle(ctx, record)
	}

	return nil
}

func (s *LogHandlerSpy) Enabled(_ context.Context, _ slog.Level) bool {
	return true
}

// WithAttrs returns a handler sharing the record buffer.
func (s *LogHandlerSpy) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *s
	clone.attrs = append(append([]slog.Attr{}, s.attrs...), attrs...)

	return &clone
}

func (s *LogHandlerSpy) WithGroup(_ string) slog.Handler {
	return s
}

// GetRecords returns a copy of all captured log records.
func (s *LogHandlerSpy) GetRecords() []slog.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]slog.Record, len(*s.records))
	copy(records, *s.records)

	return records
}

// HasLog checks if there's a record at level whose message contains msgPart.
func (s *LogHandlerSpy) HasLog(level slog.Level, msgPart string) bool {
	for _, record := range s.GetRecords() {
		if record.Level == level && strings.Contains(record.Message, msgPart) {
			return true
		}
	}

	return false
}

// HasLogWithAttr checks if there's a record containing msgPart that carries the attribute key with value.
func (s *LogHandlerSpy) HasLogWithAttr(msgPart, key, value string) bool {
	for _, record := range s.GetRecords() {
		if !strings.Contains(record.Message, msgPart) {
			continue
		}

		found := false
		record.Attrs(func(attr slog.Attr) bool {
			if attr.Key == key && attr.Value.String() == value {
				found = true
				return false
			}

			return true
		})

		if found {
			return true
		}
	}

	return false
}
