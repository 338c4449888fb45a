package errors

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"
)

func TestErrorCreation(t *testing.T) {
	err := E(Op("report.build"), KindValidation, "column count mismatch")

	if err.Op != "report.build" {
		t.Errorf("expected Op 'report.build', got %q", err.Op)
	}
	if err.Kind != KindValidation {
		t.Errorf("expected Kind KindValidation, got %v", err.Kind)
	}
	if err.Msg != "column count mismatch" {
		t.Errorf("expected Msg 'column count mismatch', got %q", err.Msg)
	}
}

func TestErrorWithWrappedError(t *testing.T) {
	underlying := fmt.Errorf("connection refused")
	err := E(Op("encode.fetch"), KindNetwork, underlying, "request failed")

	if err.Err != underlying {
		t.Error("expected underlying error to be set")
	}

	errStr := err.Error()
	for _, want := range []string{"encode.fetch", "request failed", "connection refused"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("error string should contain %q, got %q", want, errStr)
		}
	}
}

func TestErrorStringFormats(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{"op only", &Error{Op: "test"}, "test: "},
		{"msg only", &Error{Msg: "failed"}, "failed"},
		{"err only", &Error{Err: fmt.Errorf("root")}, "root"},
		{"op and msg", &Error{Op: "test", Msg: "failed"}, "test: failed"},
		{"all fields", &Error{Op: "test", Msg: "failed", Err: fmt.Errorf("root")}, "test: failed: root"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindUnknown, "unknown"},
		{KindConfig, "config"},
		{KindAuth, "auth"},
		{KindNetwork, "network"},
		{KindParse, "malformed response"},
		{KindValidation, "validation"},
		{KindIO, "io"},
		{KindStorage, "storage"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("Kind.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf("query.parse", KindValidation, "bad value %q", "x")
	if err.Msg != `bad value "x"` {
		t.Errorf("unexpected message %q", err.Msg)
	}
	if err.Kind != KindValidation {
		t.Errorf("expected KindValidation, got %v", err.Kind)
	}
}

func TestWrap(t *testing.T) {
	if Wrap("test", nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	wrapped := Wrap("report.run", E(KindParse, "bad json"))
	appErr, ok := wrapped.(*Error)
	if !ok {
		t.Fatal("Wrap should return *Error")
	}
	if appErr.Op != "report.run" {
		t.Errorf("expected Op 'report.run', got %q", appErr.Op)
	}
	if appErr.Kind != KindParse {
		t.Errorf("Wrap should keep the inner kind, got %v", appErr.Kind)
	}
}

func TestWrapMsg(t *testing.T) {
	if WrapMsg("test", "msg", nil) != nil {
		t.Error("WrapMsg(nil) should return nil")
	}

	wrapped := WrapMsg("history.open", "open failed", fmt.Errorf("disk full"))
	if !strings.Contains(wrapped.Error(), "open failed") {
		t.Errorf("error should contain message, got %q", wrapped.Error())
	}
}

func TestIsKind(t *testing.T) {
	err := E(KindNetwork, "test")
	if !IsKind(err, KindNetwork) {
		t.Error("expected IsKind to return true for matching kind")
	}
	if IsKind(err, KindParse) {
		t.Error("expected IsKind to return false for non-matching kind")
	}
	if IsKind(fmt.Errorf("standard error"), KindNetwork) {
		t.Error("expected IsKind to return false for non-Error type")
	}
}

func TestGetKindThroughWrapping(t *testing.T) {
	inner := E(Op("encode.decode"), KindParse, "unexpected token")
	outer := fmt.Errorf("building row: %w", inner)

	if kind := GetKind(outer); kind != KindParse {
		t.Errorf("expected KindParse through fmt wrapping, got %v", kind)
	}
	if kind := GetKind(fmt.Errorf("standard error")); kind != KindUnknown {
		t.Errorf("expected KindUnknown for non-Error, got %v", kind)
	}
	if kind := GetKind(nil); kind != KindUnknown {
		t.Errorf("expected KindUnknown for nil, got %v", kind)
	}
}

func TestIgnoreError(t *testing.T) {
	var buf bytes.Buffer
	SetIgnoreLogger(log.New(&buf, "", 0))
	defer SetIgnoreLogger(log.Default())

	IgnoreError(nil, "test")
	if buf.Len() != 0 {
		t.Errorf("nil error should not log, got %q", buf.String())
	}

	IgnoreError(fmt.Errorf("disk full"), "recording cell")
	if got := buf.String(); !strings.Contains(got, "recording cell") || !strings.Contains(got, "disk full") {
		t.Errorf("unexpected log output %q", got)
	}

	buf.Reset()
	SetIgnoreLogger(nil)
	IgnoreError(fmt.Errorf("disk full"), "recording cell")
	if buf.Len() != 0 {
		t.Errorf("nil logger should discard, got %q", buf.String())
	}
}
