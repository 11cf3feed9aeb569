package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/waldirborbajr/versiongate/processor"
	"github.com/waldirborbajr/versiongate/updater"
)

func TestCompareCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"1.9.0", "1.10.0"}, "true"},
		{[]string{"1.10.0", "1.9.0"}, "false"},
		{[]string{"not-a-version", "1.0.1"}, "false"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		compareCmd.SetOut(&buf)
		if err := compareCmd.RunE(compareCmd, tt.args); err != nil {
			t.Fatalf("compare %v: %v", tt.args, err)
		}
		if got := strings.TrimSpace(buf.String()); got != tt.want {
			t.Errorf("compare %v = %q; want %q", tt.args, got, tt.want)
		}
	}
}

func TestPrintOutcome(t *testing.T) {
	tests := []struct {
		name string
		out  processor.Outcome
		want string
	}{
		{"needs update", processor.Outcome{Result: updater.Result{NeedsUpdate: true, Current: "1.0.0", Latest: "2.0.0"}}, "update required"},
		{"grace", processor.Outcome{Result: updater.Result{InGracePeriod: true, Latest: "2.0.0"}}, "grace period"},
		{"exhausted", processor.Outcome{Result: updater.Result{Exhausted: true, Attempts: 3}}, "after 3 attempts"},
		{"up to date", processor.Outcome{Result: updater.Result{Current: "2.0.0", Latest: "2.0.0"}}, "up to date"},
		{"error", processor.Outcome{Err: errors.New("boom")}, "boom"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		printOutcome(&buf, tt.out)
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("%s: output %q does not contain %q", tt.name, buf.String(), tt.want)
		}
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if got := firstNonEmpty("", "  ", " b ", "c"); got != "b" {
		t.Errorf("firstNonEmpty = %q; want b", got)
	}
	if got := firstNonEmpty("", ""); got != "" {
		t.Errorf("firstNonEmpty = %q; want empty", got)
	}
}

func TestCurrentVersionFallback(t *testing.T) {
	tests := []struct {
		flag, env, want string
	}{
		{"2.0.0", "1.0.0", "2.0.0"},
		{"", " 1.0.0 ", "1.0.0"},
		{"", "", version},
	}
	for _, tt := range tests {
		if got := currentVersion(tt.flag, tt.env); got != tt.want {
			t.Errorf("currentVersion(%q, %q) = %q; want %q", tt.flag, tt.env, got, tt.want)
		}
	}
}
