package programs

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-umi/internal/errors"
)

func execError(message string, logs ...string) *errors.ExecutionError {
	return &errors.ExecutionError{Message: message, Logs: logs}
}

func TestResolveKnownProgram(t *testing.T) {
	r := DefaultRepository()
	core := MplCoreProgramID.String()
	err := execError(
		"Transaction simulation failed: Error processing Instruction 0: custom program error: 0x9",
		"Program "+core+" invoke [1]",
		"Program log: Instruction: CreateV1",
		"Program "+core+" failed: custom program error: 0x9",
	)

	pe := r.ResolveError(err, nil)
	require.NotNil(t, pe)
	assert.Equal(t, MplCoreProgramID, pe.ProgramID)
	assert.Equal(t, "mplCore", pe.ProgramName)
	assert.Equal(t, uint32(9), pe.Code)
	assert.Equal(t, "InvalidAuthority", pe.Name)
	assert.Len(t, pe.Logs, 3)

	assert.True(t, errors.Is(pe, errors.ErrProgramError))
	assert.True(t, stderrors.Is(pe, errors.ErrSimulationFailure))
	assert.Contains(t, pe.Error(), "InvalidAuthority")
}

func TestResolveUnknownProgramStillExtractsCode(t *testing.T) {
	unknown := solana.NewWallet().PublicKey()
	err := execError("simulation failed",
		"Program "+unknown.String()+" invoke [1]",
		"Program "+unknown.String()+" failed: custom program error: 0x1771",
	)

	pe := NewRepository().ResolveError(err, nil)
	require.NotNil(t, pe)
	assert.Equal(t, unknown, pe.ProgramID)
	assert.Equal(t, uint32(0x1771), pe.Code)
	assert.Empty(t, pe.ProgramName)
	assert.Equal(t, "custom program error: 0x1771", pe.Message)
}

func TestResolveAnchorErrorName(t *testing.T) {
	unknown := solana.NewWallet().PublicKey().String()
	err := execError("simulation failed",
		"Program "+unknown+" invoke [1]",
		"Program log: AnchorError occurred. Error Code: Unauthorized. Error Number: 6000. Error Message: Signer is not the vault authority.",
		"Program "+unknown+" failed: custom program error: 0x1770",
	)

	pe := NewRepository().ResolveError(err, nil)
	require.NotNil(t, pe)
	assert.Equal(t, uint32(6000), pe.Code)
	assert.Equal(t, "Unauthorized", pe.Name)
	assert.Equal(t, "Signer is not the vault authority", pe.Message)
}

func TestResolveFallsBackToInstructionIndex(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	to := solana.NewWallet().PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, payer, to).Build()},
		solana.Hash{1},
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)

	execErr := execError(
		"Transaction simulation failed: Error processing Instruction 0: custom program error: 0x1",
		"Transfer: insufficient lamports 0, need 1",
	)

	pe := systemRepository().ResolveError(execErr, tx)
	require.NotNil(t, pe)
	assert.Equal(t, solana.SystemProgramID, pe.ProgramID)
	assert.Equal(t, "ResultWithNegativeLamports", pe.Name)

	assert.Nil(t, systemRepository().ResolveError(execErr, nil))
}

func systemRepository() *Repository {
	r := NewRepository()
	r.Add(SystemProgram())
	return r
}

func TestResolveReturnsNilWithoutRecognizablePattern(t *testing.T) {
	r := DefaultRepository()

	assert.Nil(t, r.ResolveError(stderrors.New("connection reset by peer"), nil))
	assert.Nil(t, r.ResolveError(execError("no logs"), nil))
	assert.Nil(t, r.ResolveError(execError("failed",
		"Program 11111111111111111111111111111111 invoke [1]",
		"Program 11111111111111111111111111111111 failed: invalid account data for instruction",
	), nil))
	assert.Nil(t, r.ResolveError(execError("failed", "garbage", "more garbage"), nil))
}

func TestResolveOutOfRangeInstructionIndex(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{system.NewTransferInstruction(1, payer, payer).Build()},
		solana.Hash{},
		solana.TransactionPayer(payer),
	)
	require.NoError(t, err)

	execErr := execError("Error processing Instruction 7: custom program error: 0x1", "log")
	assert.Nil(t, systemRepository().ResolveError(execErr, tx))
}

func TestRepositoryConcurrentAccess(t *testing.T) {
	r := DefaultRepository()
	core := MplCoreProgramID.String()
	err := execError("failed",
		"Program "+core+" invoke [1]",
		"Program "+core+" failed: custom program error: 0x4",
	)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Add(&Program{Name: "extra", PublicKey: solana.NewWallet().PublicKey()})
		}()
		go func() {
			defer wg.Done()
			pe := r.ResolveError(err, nil)
			assert.NotNil(t, pe)
		}()
	}
	wg.Wait()

	assert.Len(t, r.All(), 6+8)
}

func TestProgramLookup(t *testing.T) {
	r := DefaultRepository()

	p, ok := r.GetByName("splToken")
	require.True(t, ok)
	assert.Equal(t, solana.TokenProgramID, p.PublicKey)

	code, def, ok := p.ErrorFromName("insufficientfunds")
	require.True(t, ok)
	assert.Equal(t, uint32(1), code)
	assert.Equal(t, "InsufficientFunds", def.Name)

	_, ok = r.Get(solana.NewWallet().PublicKey())
	assert.False(t, ok)
}
