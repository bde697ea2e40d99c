package willow3d

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrInvalidReferenceType is returned when a field receives a node of the
	// wrong kind.
	ErrInvalidReferenceType = errors.New("willow3d: invalid reference type")
	// ErrInvalidFieldValue is wrapped by every FieldValueError.
	ErrInvalidFieldValue = errors.New("willow3d: invalid field value")
	// ErrUnsupportedCombination marks node combinations that render degraded,
	// such as a MultiTexture nested in a MultiTexture.
	ErrUnsupportedCombination = errors.New("willow3d: unsupported combination")
	// ErrResourceCreation marks failures to build render resources such as
	// texture uploads.
	ErrResourceCreation = errors.New("willow3d: resource creation failed")
)

// FieldValueError reports a field value outside its legal domain. The field
// keeps its previous value.
type FieldValueError struct {
	Node  string
	Field string
	Value any
	Want  string
}

func (e *FieldValueError) Error() string {
	return fmt.Sprintf("willow3d: %s.%s = %v: %s", e.Node, e.Field, e.Value, e.Want)
}

func (e *FieldValueError) Unwrap() error { return ErrInvalidFieldValue }

func checkUnit(node, field string, v float32) error {
	if !unit(v) {
		return &FieldValueError{Node: node, Field: field, Value: v, Want: "must be in [0, 1]"}
	}
	return nil
}

func checkColor(node, field string, c Color) error {
	if !c.valid() {
		return &FieldValueError{Node: node, Field: field, Value: c, Want: "components must be in [0, 1]"}
	}
	return nil
}

func checkNonNegative(node, field string, v float32) error {
	if v < 0 {
		return &FieldValueError{Node: node, Field: field, Value: v, Want: "must be >= 0"}
	}
	return nil
}

func referenceError(node, field string, got Node) error {
	return fmt.Errorf("%w: %s.%s cannot hold %T", ErrInvalidReferenceType, node, field, got)
}

// Severity grades a Report.
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Report is a non-fatal problem found while realizing nodes. Rendering
// continues with the affected part degraded.
type Report struct {
	Severity Severity
	Node     string
	Err      error
}

// ErrorReporter receives Reports. Implementations must be safe for concurrent
// use.
type ErrorReporter interface {
	Report(r Report)
}

type slogReporter struct {
	log *slog.Logger
}

// NewSlogReporter returns an ErrorReporter that logs to l. A nil l uses
// slog.Default().
func NewSlogReporter(l *slog.Logger) ErrorReporter {
	if l == nil {
		l = slog.Default()
	}
	return &slogReporter{log: l}
}

func (r *slogReporter) Report(rep Report) {
	level := slog.LevelWarn
	if rep.Severity == SeverityError {
		level = slog.LevelError
	}
	r.log.Log(context.Background(), level, "willow3d: "+rep.Severity.String(), "node", rep.Node, "err", rep.Err)
}

// isWarning reports whether err degrades rendering without losing a
// resource.
func isWarning(err error) bool {
	return errors.Is(err, ErrUnsupportedCombination)
}
