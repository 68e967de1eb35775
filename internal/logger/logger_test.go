package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/goldmine/exercise-archive/internal/logger"
)

func TestGetSupportsChainedEvents(t *testing.T) {
	var buf bytes.Buffer
	orig := zlog.Logger
	zlog.Logger = zerolog.New(&buf)
	defer func() { zlog.Logger = orig }()

	logger.Get().Error().Str("job_id", "j1").Msg("commit failed")

	out := buf.String()
	if !strings.Contains(out, `"job_id":"j1"`) {
		t.Fatalf("expected structured field in output, got %s", out)
	}
	if !strings.Contains(out, `"level":"error"`) {
		t.Fatalf("expected error level in output, got %s", out)
	}
}
