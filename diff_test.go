package pdkit

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestColoredDiff(t *testing.T) {
	color.NoColor = true
	src := "--- local\n+++ remote\n context\n-removed\n+added"
	got := ColoredDiff(src)
	for _, line := range strings.Split(src, "\n") {
		if !strings.Contains(got, line) {
			t.Errorf("line %q lost in colored output", line)
		}
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("output must end with a newline")
	}
}
