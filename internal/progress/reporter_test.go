package progress

import (
	"bytes"
	"testing"
)

func TestCIReporter(t *testing.T) {
	var buf bytes.Buffer
	r := &CIReporter{Task: "Ingesting policies", Out: &buf}
	r.Start(2)
	r.Update(1, "returns.md")
	r.Update(2, "shipping.md")
	r.Finish()

	want := "Ingesting policies: 2 item(s)\n[1/2] returns.md\n[2/2] shipping.md\nIngesting policies: done\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestNewReporterHonoursCI(t *testing.T) {
	t.Setenv("CI", "true")
	if _, ok := NewReporter("x").(*CIReporter); !ok {
		t.Error("expected a CIReporter when CI is set")
	}
}
