// Package programs keeps the registry of known on-chain programs and turns
// raw execution failures into typed program errors.
package programs

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-umi/internal/errors"
)

// ErrorDef describes one error a program can return.
type ErrorDef struct {
	Name    string
	Message string
}

// Program is a known on-chain program and its error table.
type Program struct {
	Name      string
	PublicKey solana.PublicKey
	Errors    map[uint32]ErrorDef
}

// ErrorFromCode returns the table entry for code.
func (p *Program) ErrorFromCode(code uint32) (ErrorDef, bool) {
	if p == nil || p.Errors == nil {
		return ErrorDef{}, false
	}
	def, ok := p.Errors[code]
	return def, ok
}

// ErrorFromName looks an error up by its symbolic name.
func (p *Program) ErrorFromName(name string) (uint32, ErrorDef, bool) {
	if p == nil {
		return 0, ErrorDef{}, false
	}
	for code, def := range p.Errors {
		if strings.EqualFold(def.Name, name) {
			return code, def, true
		}
	}
	return 0, ErrorDef{}, false
}

// ProgramError is a failure attributed to a specific program and code.
type ProgramError struct {
	// ProgramID is the failing program.
	ProgramID solana.PublicKey

	// ProgramName is empty when the program is not registered.
	ProgramName string

	// Code is the program's numeric error code.
	Code uint32

	// Name is the symbolic error name, when known.
	Name string

	// Message is a human-readable description.
	Message string

	// Logs are the raw execution logs the error was resolved from.
	Logs []string

	// Cause is the unresolved error.
	Cause error
}

// Error implements the error interface.
func (e *ProgramError) Error() string {
	program := e.ProgramName
	if program == "" {
		program = e.ProgramID.String()
	}
	if e.Name != "" {
		return fmt.Sprintf("%s: %s: %s (0x%x): %s", errors.ErrCodeProgramError, program, e.Name, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", errors.ErrCodeProgramError, program, e.Message)
}

// Unwrap returns the unresolved error.
func (e *ProgramError) Unwrap() error {
	return e.Cause
}

// Is matches errors.ErrProgramError.
func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*errors.Error)
	return ok && t.Code == errors.ErrCodeProgramError
}

// LogLines returns the raw execution logs.
func (e *ProgramError) LogLines() []string {
	return e.Logs
}
