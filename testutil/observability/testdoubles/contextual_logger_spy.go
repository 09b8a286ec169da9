package testdoubles

import (
	"context"
	"strings"
	"sync"
)

const (
	levelDebug = "debug"
	levelInfo  = "info"
	levelWarn  = "warn"
	levelError = "error"
)

// SpyContextualLogRecord represents a recorded contextual log call.
type SpyContextualLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// Arg returns the value logged for key, and whether it was logged.
func (r SpyContextualLogRecord) Arg(key string) (any, bool) {
	for i := 0; i+1 < len(r.Args); i += 2 {
		if k, ok := r.Args[i].(string); ok && k == key {
			return r.Args[i+1], true
		}
	}

	return nil, false
}

// ContextualLoggerSpy is a ledger.ContextualLogger that captures log calls for testing.
type ContextualLoggerSpy struct {
	records     []SpyContextualLogRecord
	mu          sync.Mutex
	recordCalls bool
}

// NewContextualLoggerSpy creates a new ContextualLoggerSpy.
func NewContextualLoggerSpy(recordCalls bool) *ContextualLoggerSpy {
	return &ContextualLoggerSpy{recordCalls: recordCalls}
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	if !s.recordCalls {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyContextualLogRecord{Level: level, Message: msg, Args: args, Context: ctx})
}

func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, levelDebug, msg, args)
}

func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, levelInfo, msg, args)
}

func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, levelWarn, msg, args)
}

func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, levelError, msg, args)
}

// Records returns a copy of all captured records.
func (s *ContextualLoggerSpy) Records() []SpyContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]SpyContextualLogRecord, len(s.records))
	copy(records, s.records)

	return records
}

func (s *ContextualLoggerSpy) has(level, msgPart string) bool {
	for _, record := range s.Records() {
		if record.Level == level && strings.Contains(record.Message, msgPart) {
			return true
		}
	}

	return false
}

// HasDebugLog reports whether a debug record contains msgPart.
func (s *ContextualLoggerSpy) HasDebugLog(msgPart string) bool {
	return s.has(levelDebug, msgPart)
}

// HasInfoLog reports whether an info record contains msgPart.
func (s *ContextualLoggerSpy) HasInfoLog(msgPart string) bool {
	return s.has(levelInfo, msgPart)
}

// HasWarnLog reports whether a warn record contains msgPart.
func (s *ContextualLoggerSpy) HasWarnLog(msgPart string) bool {
	return s.has(levelWarn, msgPart)
}

// HasErrorLog reports whether an error record contains msgPart.
func (s *ContextualLoggerSpy) HasErrorLog(msgPart string) bool {
	return s.has(levelError, msgPart)
}
