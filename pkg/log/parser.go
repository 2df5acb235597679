// Package log parses the program log lines a node returns with failed
// transactions and simulations.
//
// Example usage:
//
//	parser := log.NewParser()
//	if failure := parser.FindFailure(logs); failure != nil {
//	    fmt.Println(failure.ProgramID, failure.Reason)
//	}
package log

import (
	"encoding/base64"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LogType represents the type of a log message.
type LogType int

const (
	// LogTypeUnknown represents an unrecognized log message.
	LogTypeUnknown LogType = iota
	// LogTypeInvoke represents a "Program X invoke [N]" message.
	LogTypeInvoke
	// LogTypeSuccess represents a "Program X success" message.
	LogTypeSuccess
	// LogTypeFailed represents a "Program X failed: REASON" message.
	LogTypeFailed
	// LogTypeData represents a "Program data: BASE64" message.
	LogTypeData
	// LogTypeLog represents a "Program log: MESSAGE" message.
	LogTypeLog
	// LogTypeComputeUnits represents a compute units consumed message.
	LogTypeComputeUnits
)

// String returns the string representation of LogType.
func (lt LogType) String() string {
	switch lt {
	case LogTypeInvoke:
		return "Invoke"
	case LogTypeSuccess:
		return "Success"
	case LogTypeFailed:
		return "Failed"
	case LogTypeData:
		return "Data"
	case LogTypeLog:
		return "Log"
	case LogTypeComputeUnits:
		return "ComputeUnits"
	default:
		return "Unknown"
	}
}

// ParsedLog represents a parsed log message with its type and extracted data.
type ParsedLog struct {
	Type LogType

	// StackHeight is the call depth (1-indexed) of Invoke logs.
	StackHeight int

	// ProgramID is the program named by "Program X ..." messages.
	ProgramID string

	// Reason is the failure text of Failed logs.
	Reason string

	// Data is the decoded payload of "Program data:" messages.
	Data []byte

	// Message is the text of "Program log:" messages.
	Message string

	// ComputeUnits is the number of compute units consumed.
	ComputeUnits *uint64

	RawLog string
}

// AnchorError is the structured error an Anchor program logs before failing.
type AnchorError struct {
	Name    string
	Number  uint32
	Message string
}

// Failure describes the innermost program invocation that failed.
type Failure struct {
	// ProgramID is the failing program.
	ProgramID string

	// Reason is the text after "failed: ".
	Reason string

	// CustomCode is set when Reason is a custom program error.
	CustomCode *uint32

	// Anchor is set when the program logged an Anchor error before failing.
	Anchor *AnchorError

	// Path locates the failing invocation; Path[0] is the top-level
	// instruction index.
	Path InstructionPath

	// Logs are the "Program log:" messages of the failing invocation.
	Logs []string
}

// Code returns the numeric error code, preferring the custom program
// error code over the Anchor error number.
func (f *Failure) Code() (uint32, bool) {
	switch {
	case f.CustomCode != nil:
		return *f.CustomCode, true
	case f.Anchor != nil:
		return f.Anchor.Number, true
	default:
		return 0, false
	}
}

// Instruction returns the top-level instruction index of the failure.
func (f *Failure) Instruction() (int, bool) {
	if len(f.Path) == 0 {
		return 0, false
	}
	return int(f.Path[0]), true
}

// LogParser parses transaction logs.
type LogParser struct {
	patterns *logPatterns
}

type logPatterns struct {
	invoke       *regexp.Regexp
	success      *regexp.Regexp
	failed       *regexp.Regexp
	data         *regexp.Regexp
	log          *regexp.Regexp
	computeUnits *regexp.Regexp
	customError  *regexp.Regexp
	anchorError  *regexp.Regexp
}

// NewParser creates a new LogParser.
func NewParser() *LogParser {
	return &LogParser{
		patterns: &logPatterns{
			invoke:       regexp.MustCompile(`^Program (\S+) invoke \[(\d+)\]`),
			success:      regexp.MustCompile(`^Program (\S+) success`),
			failed:       regexp.MustCompile(`^Program (\S+) failed(?:: (.+))?$`),
			data:         regexp.MustCompile(`^Program data: (.+)$`),
			log:          regexp.MustCompile(`^Program log: (.+)$`),
			computeUnits: regexp.MustCompile(`^Program (\S+) consumed (\d+) of \d+ compute units`),
			customError:  regexp.MustCompile(`(?i)custom program error: (0x[0-9a-f]+)`),
			anchorError:  regexp.MustCompile(`AnchorError (?:occurred|thrown in \S+)\. Error Code: (\w+)\. Error Number: (\d+)\. Error Message: (.*?)\.?$`),
		},
	}
}

// Parse parses a single log message.
func (p *LogParser) Parse(logMessage string) *ParsedLog {
	result := &ParsedLog{
		Type:   LogTypeUnknown,
		RawLog: logMessage,
	}

	if m := p.patterns.invoke.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeInvoke
		result.ProgramID = m[1]
		result.StackHeight, _ = strconv.Atoi(m[2])
		return result
	}
	if m := p.patterns.success.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeSuccess
		result.ProgramID = m[1]
		return result
	}
	if m := p.patterns.failed.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeFailed
		result.ProgramID = m[1]
		result.Reason = m[2]
		return result
	}
	if m := p.patterns.data.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeData
		if decoded, err := base64.StdEncoding.DecodeString(m[1]); err == nil {
			result.Data = decoded
		}
		return result
	}
	if m := p.patterns.log.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeLog
		result.Message = m[1]
		return result
	}
	if m := p.patterns.computeUnits.FindStringSubmatch(logMessage); m != nil {
		result.Type = LogTypeComputeUnits
		result.ProgramID = m[1]
		if cu, err := strconv.ParseUint(m[2], 10, 64); err == nil {
			result.ComputeUnits = &cu
		}
		return result
	}
	return result
}

// ParseAll parses all log messages.
func (p *LogParser) ParseAll(logMessages []string) []*ParsedLog {
	results := make([]*ParsedLog, 0, len(logMessages))
	for _, l := range logMessages {
		results = append(results, p.Parse(l))
	}
	return results
}

// ExtractProgramLogs extracts all "Program log:" messages.
func (p *LogParser) ExtractProgramLogs(logMessages []string) []string {
	var logs []string
	for _, l := range logMessages {
		if parsed := p.Parse(l); parsed.Type == LogTypeLog {
			logs = append(logs, parsed.Message)
		}
	}
	return logs
}

// CustomErrorCode extracts the code of a "custom program error: 0x.." text.
func (p *LogParser) CustomErrorCode(text string) (uint32, bool) {
	m := p.patterns.customError.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	code, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(m[1]), "0x"), 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(code), true
}

// ParseAnchorError extracts an Anchor error from a "Program log:" message.
func (p *LogParser) ParseAnchorError(message string) *AnchorError {
	m := p.patterns.anchorError.FindStringSubmatch(message)
	if m == nil {
		return nil
	}
	n, err := strconv.ParseUint(m[2], 10, 32)
	if err != nil {
		return nil
	}
	return &AnchorError{Name: m[1], Number: uint32(n), Message: m[3]}
}

type frame struct {
	programID string
	logs      []string
	anchor    *AnchorError
}

// FindFailure walks the invocation stack and returns the first invocation
// reported as failed, or nil when no failure line is present.
func (p *LogParser) FindFailure(logMessages []string) *Failure {
	var (
		stack    []frame
		path     InstructionPath
		counters = map[int]uint8{}
		depth    int
	)

	for _, l := range logMessages {
		parsed := p.Parse(l)
		switch parsed.Type {
		case LogTypeInvoke:
			h := parsed.StackHeight
			if h > depth {
				counters[h] = 0
			} else {
				counters[h]++
			}
			for level := range counters {
				if level > h {
					delete(counters, level)
				}
			}
			depth = h
			path = make(InstructionPath, 0, h)
			for level := 1; level <= h; level++ {
				path = append(path, counters[level])
			}
			stack = append(stack, frame{programID: parsed.ProgramID})

		case LogTypeLog:
			if len(stack) > 0 {
				top := &stack[len(stack)-1]
				top.logs = append(top.logs, parsed.Message)
				if ae := p.ParseAnchorError(parsed.Message); ae != nil {
					top.anchor = ae
				}
			}

		case LogTypeSuccess:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if len(path) > 0 {
				path = path[:len(path)-1]
			}

		case LogTypeFailed:
			f := &Failure{
				ProgramID: parsed.ProgramID,
				Reason:    parsed.Reason,
				Path:      append(InstructionPath(nil), path...),
			}
			if len(stack) > 0 {
				top := stack[len(stack)-1]
				f.Logs = top.logs
				f.Anchor = top.anchor
			}
			if code, ok := p.CustomErrorCode(parsed.Reason); ok {
				f.CustomCode = &code
			}
			return f
		}
	}
	return nil
}

// InstructionPath locates an invocation: [0] is the first top-level
// instruction, [0, 1] the second inner instruction it invoked.
type InstructionPath []uint8

// String returns a string representation of the path.
func (path InstructionPath) String() string {
	parts := make([]string, len(path))
	for i, idx := range path {
		parts[i] = fmt.Sprintf("%d", idx)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
