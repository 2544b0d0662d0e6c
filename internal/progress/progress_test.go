package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestRun_FixedSteps(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, 0).Run()

	out := buf.String()
	for _, want := range []string{"  0%", " 25%", " 50%", " 75%", "100%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %q", want, out)
		}
	}
	if strings.Count(out, "\r") != 5 {
		t.Errorf("expected 5 redraws, got %q", out)
	}
	if !strings.HasSuffix(out, "[####################] 100%\n") {
		t.Errorf("bar not full at the end: %q", out)
	}
}

func TestRun_WaitsBetweenSteps(t *testing.T) {
	start := time.Now()
	New(nil, 5*time.Millisecond).Run()
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Run returned after %v, want at least 4 intervals", elapsed)
	}
}
