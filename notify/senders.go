package notify

import (
	"context"
	"errors"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const logMsgNotificationSent = "notification sent"

// ErrWritingMessageFailed is returned when a JSONLinesSender can't write to its writer.
var ErrWritingMessageFailed = errors.New("writing message failed")

// LogSender writes every message as an info log record.
type LogSender struct {
	logger lending.ContextualLogger
}

// NewLogSender creates a LogSender. *slog.Logger satisfies lending.ContextualLogger.
func NewLogSender(logger lending.ContextualLogger) *LogSender {
	return &LogSender{logger: logger}
}

// Send implements Sender.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.InfoContext(ctx, logMsgNotificationSent,
		"kind", msg.Kind,
		"member_id", msg.MemberID,
		"isbn", msg.ISBN,
		"days", msg.Days,
		"text", msg.Text)

	return nil
}

// JSONLinesSender writes every message as one JSON object per line.
// It is safe for concurrent use, lines are never interleaved.
type JSONLinesSender struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONLinesSender creates a JSONLinesSender that writes to w.
func NewJSONLinesSender(w io.Writer) *JSONLinesSender {
	return &JSONLinesSender{w: w}
}

// Send implements Sender.
func (s *JSONLinesSender) Send(_ context.Context, msg Message) error {
	line, err := jsoniter.ConfigFastest.Marshal(msg)
	if err != nil {
		return errors.Join(ErrWritingMessageFailed, err)
	}

	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err = s.w.Write(line); err != nil {
		return errors.Join(ErrWritingMessageFailed, err)
	}

	return nil
}

var (
	_ Sender = (*LogSender)(nil)
	_ Sender = (*JSONLinesSender)(nil)
)
