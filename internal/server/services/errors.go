package services

import (
	"strings"

	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/server/auth"
)

// FieldError is one failed input rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports rejected input. It matches common.ErrorValidation
// with errors.Is, and also common.ErrWeakPassword when the password broke the
// strength policy.
type ValidationError struct {
	Fields []FieldError

	weakPassword bool
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() []error {
	if e.weakPassword {
		return []error{common.ErrorValidation, common.ErrWeakPassword}
	}
	return []error{common.ErrorValidation}
}

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// checkPassword adds one field error per strength rule password breaks.
func (e *ValidationError) checkPassword(field, password string) {
	report := auth.CheckStrength(password)
	if report.OK {
		return
	}
	e.weakPassword = true
	for _, v := range report.Violations {
		e.add(field, v)
	}
}

// orNil returns e when it carries at least one field error.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}
