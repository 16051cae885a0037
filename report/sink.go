package report

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/slog"
)

type logSink struct {
	logger *slog.Logger
	closer io.Closer
}

// NewLogSink writes diagnostics through a text slog handler aimed at the
// provided writer.
func NewLogSink(w io.Writer) Sink {
	return &logSink{
		logger: slog.New(slog.NewTextHandler(w)),
	}
}

// NewFileSink opens path for appending and writes diagnostics to it. An
// empty path selects standard error.
func NewFileSink(path string) (Sink, error) {
	if path == "" {
		return NewLogSink(os.Stderr), nil
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open diagnostic log file %s", path)
	}
	return &logSink{
		logger: slog.New(slog.NewTextHandler(file)),
		closer: file,
	}, nil
}

func (s *logSink) Handle(msg Message) {
	attrs := []any{
		slog.String("layer", msg.LayerPrefix),
		slog.String("code", msg.Code.String()),
		slog.String("object", msg.ObjectKind.String()),
		slog.String("handle", fmt.Sprintf("%#x", msg.Handle)),
	}

	switch {
	case msg.Severity&SeverityError != 0:
		s.logger.Error(msg.Text, attrs...)
	case msg.Severity&(SeverityWarn|SeverityPerfWarn) != 0:
		s.logger.Warn(msg.Text, attrs...)
	case msg.Severity&SeverityDebug != 0:
		s.logger.Debug(msg.Text, attrs...)
	default:
		s.logger.Info(msg.Text, attrs...)
	}
}

func (s *logSink) Close() error {
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
