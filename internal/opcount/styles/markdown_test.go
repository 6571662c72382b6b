package styles

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	out := Render("# opcount\n\n- **count**: 42\n", 80)
	if !strings.Contains(out, "opcount") || !strings.Contains(out, "42") {
		t.Errorf("rendered markdown lost content: %q", out)
	}
}
