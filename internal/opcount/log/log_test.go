package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewHandlerLevels(t *testing.T) {
	var buf bytes.Buffer
	lg := slog.New(NewHandler(&buf, false))
	lg.Debug("hidden")
	lg.Info("shown", "dump", "foo.s")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Error("debug record written at info level")
	}
	if !strings.Contains(output, "dump=foo.s") {
		t.Errorf("missing attribute in %q", output)
	}

	buf.Reset()
	lg = slog.New(NewHandler(&buf, true))
	lg.Debug("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("debug record dropped at debug level")
	}
}

func TestRecoverPanic(t *testing.T) {
	cleaned := false
	func() {
		defer RecoverPanic("test", func() { cleaned = true })
		panic("boom")
	}()
	if !cleaned {
		t.Error("cleanup not called after panic")
	}
}
