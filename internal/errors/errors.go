package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// ErrorType classifies failures of the purity tool. Purity findings are
// never errors; these cover everything that stops or degrades a run.
type ErrorType string

const (
	ErrorTypeAnalysis ErrorType = "analysis"
	ErrorTypeParse    ErrorType = "parse"

	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeFile         ErrorType = "file"

	ErrorTypeConfig ErrorType = "config"
	ErrorTypeKnown  ErrorType = "known_symbols"
)

// AnalysisError is a failure while analyzing one unit or the whole run
type AnalysisError struct {
	Type        ErrorType
	Unit        string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewAnalysisError creates an analysis error for an operation
func NewAnalysisError(op string, err error) *AnalysisError {
	return &AnalysisError{
		Type:       ErrorTypeAnalysis,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithUnit names the unit being analyzed
func (e *AnalysisError) WithUnit(unit string) *AnalysisError {
	e.Unit = unit
	return e
}

// WithRecoverable marks whether the run can continue past this error
func (e *AnalysisError) WithRecoverable(recoverable bool) *AnalysisError {
	e.Recoverable = recoverable
	return e
}

func (e *AnalysisError) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.Unit, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

func (e *AnalysisError) Unwrap() error {
	return e.Underlying
}

// IsRecoverable reports whether the run continued past the error
func (e *AnalysisError) IsRecoverable() bool {
	return e.Recoverable
}

// ParseError is a syntax error in an analyzed or reference file. Parsing
// recovers, so these surface as warnings.
type ParseError struct {
	Type       ErrorType
	FilePath   string
	Line       int
	Column     int
	Token      string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a parse error at a position
func NewParseError(path string, line, column int, token string, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		FilePath:   path,
		Line:       line,
		Column:     column,
		Token:      token,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parse error at %s:%d:%d: %v", e.FilePath, e.Line, e.Column, e.Underlying)
	}
	return fmt.Sprintf("parse error at %s:%d:%d (near %q): %v",
		e.FilePath, e.Line, e.Column, e.Token, e.Underlying)
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// FileError is a failure reading or writing a file
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a file error, classifying missing and forbidden files
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFile
	switch {
	case errors.Is(err, fs.ErrNotExist):
		errorType = ErrorTypeFileNotFound
	case errors.Is(err, fs.ErrPermission):
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError is an invalid configuration value
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a config error for a field
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// KnownSymbolsError is a list or bundle file that could not be used. The
// affected category degrades to empty and the run continues.
type KnownSymbolsError struct {
	Category   string
	Path       string
	Underlying error
	Timestamp  time.Time
}

// NewKnownSymbolsError creates a known-symbols loading error
func NewKnownSymbolsError(category, path string, err error) *KnownSymbolsError {
	return &KnownSymbolsError{
		Category:   category,
		Path:       path,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *KnownSymbolsError) Error() string {
	return fmt.Sprintf("known symbols %s from %s ignored: %v", e.Category, e.Path, e.Underlying)
}

func (e *KnownSymbolsError) Unwrap() error {
	return e.Underlying
}
