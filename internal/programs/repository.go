package programs

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"sync"

	"github.com/gagliardetto/solana-go"

	"github.com/lugondev/go-umi/internal/errors"
	"github.com/lugondev/go-umi/pkg/log"
)

// Resolver turns an error carrying execution logs into a ProgramError.
type Resolver interface {
	ResolveError(err error, tx *solana.Transaction) *ProgramError
}

// Repository is a concurrency-safe registry of programs.
type Repository struct {
	mu       sync.RWMutex
	programs map[solana.PublicKey]*Program
	parser   *log.LogParser
	logger   *slog.Logger
}

var _ Resolver = (*Repository)(nil)

var instructionPattern = regexp.MustCompile(`Error processing Instruction (\d+)`)

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		programs: make(map[solana.PublicKey]*Program),
		parser:   log.NewParser(),
		logger:   slog.Default(),
	}
}

// WithLogger sets a custom logger.
func (r *Repository) WithLogger(logger *slog.Logger) *Repository {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Add registers programs, replacing any registered under the same key.
func (r *Repository) Add(programs ...*Program) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range programs {
		if p != nil {
			r.programs[p.PublicKey] = p
		}
	}
}

// Get returns the program registered for pk.
func (r *Repository) Get(pk solana.PublicKey) (*Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.programs[pk]
	return p, ok
}

// GetByName returns the program registered under name.
func (r *Repository) GetByName(name string) (*Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.programs {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// All returns the registered programs sorted by name.
func (r *Repository) All() []*Program {
	r.mu.RLock()
	out := make([]*Program, 0, len(r.programs))
	for _, p := range r.programs {
		out = append(out, p)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResolveError attributes err to a program and error code using the logs
// it carries. It returns nil when err has no logs or no recognizable
// failure; the caller keeps the original error in that case.
func (r *Repository) ResolveError(err error, tx *solana.Transaction) (resolved *ProgramError) {
	logs, ok := errors.LogsOf(err)
	if !ok {
		return nil
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("error resolution panicked", "panic", rec)
			resolved = nil
		}
	}()

	failure := r.parser.FindFailure(logs)

	programID, ok := r.failingProgram(failure, err, tx)
	if !ok {
		return nil
	}

	var code uint32
	var hasCode bool
	if failure != nil {
		code, hasCode = failure.Code()
	}
	if !hasCode {
		code, hasCode = r.parser.CustomErrorCode(err.Error())
	}
	if !hasCode {
		return nil
	}

	pe := &ProgramError{
		ProgramID: programID,
		Code:      code,
		Message:   fmt.Sprintf("custom program error: 0x%x", code),
		Logs:      logs,
		Cause:     err,
	}
	if failure != nil && failure.Anchor != nil {
		pe.Name = failure.Anchor.Name
		pe.Message = failure.Anchor.Message
	}
	if program, found := r.Get(programID); found {
		pe.ProgramName = program.Name
		if def, ok := program.ErrorFromCode(code); ok {
			pe.Name = def.Name
			pe.Message = def.Message
		}
	}

	r.logger.Debug("resolved program error",
		"program", programID.String(),
		"code", code,
		"name", pe.Name,
	)
	return pe
}

func (r *Repository) failingProgram(failure *log.Failure, err error, tx *solana.Transaction) (solana.PublicKey, bool) {
	if failure != nil {
		if pk, perr := solana.PublicKeyFromBase58(failure.ProgramID); perr == nil {
			return pk, true
		}
	}
	if tx == nil {
		return solana.PublicKey{}, false
	}

	m := instructionPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return solana.PublicKey{}, false
	}
	idx, perr := strconv.Atoi(m[1])
	if perr != nil || idx < 0 || idx >= len(tx.Message.Instructions) {
		return solana.PublicKey{}, false
	}
	programIndex := int(tx.Message.Instructions[idx].ProgramIDIndex)
	if programIndex >= len(tx.Message.AccountKeys) {
		return solana.PublicKey{}, false
	}
	return tx.Message.AccountKeys[programIndex], true
}
