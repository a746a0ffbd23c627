package errors

import (
	"errors"
	"io/fs"
	"testing"
	"time"
)

func TestAnalysisError(t *testing.T) {
	underlying := errors.New("context canceled")
	err := NewAnalysisError("classify", underlying).
		WithUnit("Demo.Calc.Add").
		WithRecoverable(true)

	if err.Type != ErrorTypeAnalysis {
		t.Errorf("Expected Type to be ErrorTypeAnalysis, got %v", err.Type)
	}

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}

	if !err.IsRecoverable() {
		t.Errorf("Expected error to be marked as recoverable")
	}

	expectedMsg := "analysis classify failed for Demo.Calc.Add: context canceled"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	bare := NewAnalysisError("run", underlying)
	if bare.Error() != "analysis run failed: context canceled" {
		t.Errorf("Unexpected message %q", bare.Error())
	}
}

func TestParseError(t *testing.T) {
	underlying := errors.New("unexpected token")
	err := NewParseError("src/Calc.cs", 10, 5, "}", underlying)

	if err.Line != 10 || err.Column != 5 {
		t.Errorf("Expected Line/Column to be 10:5, got %d:%d", err.Line, err.Column)
	}

	expectedMsg := `parse error at src/Calc.cs:10:5 (near "}"): unexpected token`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}

	noToken := NewParseError("src/Calc.cs", 1, 1, "", underlying)
	if noToken.Error() != "parse error at src/Calc.cs:1:1: unexpected token" {
		t.Errorf("Unexpected message %q", noToken.Error())
	}
}

func TestFileErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"missing", fs.ErrNotExist, ErrorTypeFileNotFound},
		{"wrapped missing", &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}, ErrorTypeFileNotFound},
		{"permission", fs.ErrPermission, ErrorTypePermission},
		{"other", errors.New("disk full"), ErrorTypeFile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewFileError("read", "lists/pure.txt", tt.err)
			if err.Type != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, err.Type)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("Expected error to unwrap to underlying error")
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("must be positive")
	err := NewConfigError("performance.workers", "-1", underlying)

	expectedMsg := "config error for field performance.workers (value -1): must be positive"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}
}

func TestKnownSymbolsError(t *testing.T) {
	err := NewKnownSymbolsError("pure-methods", "lists/pure.txt", fs.ErrNotExist)

	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Expected error to unwrap to fs.ErrNotExist")
	}
	expectedMsg := "known symbols pure-methods from lists/pure.txt ignored: file does not exist"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestTimestamp(t *testing.T) {
	err := NewAnalysisError("test", errors.New("test"))
	now := time.Now()
	if err.Timestamp.IsZero() || err.Timestamp.After(now) || now.Sub(err.Timestamp) > time.Second {
		t.Errorf("Expected a recent timestamp, got %v", err.Timestamp)
	}
}
