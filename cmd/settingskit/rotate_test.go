package main

import (
	"strings"
	"testing"
)

func TestRunRotationCommand(t *testing.T) {
	got, err := runRotationCommand("printf 'new-value\\n'")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "new-value" {
		t.Errorf("got %q, want %q", got, "new-value")
	}
}

func TestRunRotationCommandFailure(t *testing.T) {
	_, err := runRotationCommand("echo boom >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "exit code 3") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q missing exit code or stderr", err)
	}
}

func TestRunRotationCommandEmptyOutput(t *testing.T) {
	if _, err := runRotationCommand("true"); err == nil {
		t.Fatal("expected error for empty output")
	}
}

func TestParseScalar(t *testing.T) {
	if v, ok := parseScalar("10").(int); !ok || v != 10 {
		t.Errorf("parseScalar(10) = %#v", parseScalar("10"))
	}
	if v, ok := parseScalar("true").(bool); !ok || !v {
		t.Errorf("parseScalar(true) = %#v", parseScalar("true"))
	}
	if v := parseScalar("dark"); v != "dark" {
		t.Errorf("parseScalar(dark) = %#v", v)
	}
	if v := parseScalar(""); v != "" {
		t.Errorf("parseScalar(\"\") = %#v", v)
	}
}

func TestMaskValueHidesMiddle(t *testing.T) {
	got := maskValue("supersecretvalue")
	if got == "supersecretvalue" {
		t.Fatal("value was not masked")
	}
	if strings.Contains(got, "secret") {
		t.Errorf("masked value %q leaks the middle", got)
	}
}

func TestMaskValueEmpty(t *testing.T) {
	if got := maskValue(""); got != "" {
		t.Errorf("maskValue(\"\") = %q, want empty", got)
	}
}
