package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	systemProgram = "11111111111111111111111111111111"
	coreProgram   = "CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d"
	budgetProgram = "ComputeBudget111111111111111111111111111111"
)

func TestParse(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name string
		log  string
		want LogType
	}{
		{"invoke", "Program " + systemProgram + " invoke [1]", LogTypeInvoke},
		{"success", "Program " + systemProgram + " success", LogTypeSuccess},
		{"failed", "Program " + coreProgram + " failed: custom program error: 0x1", LogTypeFailed},
		{"data", "Program data: aGVsbG8=", LogTypeData},
		{"log", "Program log: Instruction: Create", LogTypeLog},
		{"compute", "Program " + coreProgram + " consumed 5000 of 200000 compute units", LogTypeComputeUnits},
		{"unknown", "something else", LogTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Parse(tt.log).Type)
		})
	}

	invoke := p.Parse("Program " + systemProgram + " invoke [3]")
	assert.Equal(t, 3, invoke.StackHeight)
	assert.Equal(t, systemProgram, invoke.ProgramID)

	failed := p.Parse("Program " + coreProgram + " failed: invalid account data for instruction")
	assert.Equal(t, "invalid account data for instruction", failed.Reason)

	cu := p.Parse("Program " + coreProgram + " consumed 5000 of 200000 compute units")
	require.NotNil(t, cu.ComputeUnits)
	assert.Equal(t, uint64(5000), *cu.ComputeUnits)

	assert.Equal(t, []byte("hello"), p.Parse("Program data: aGVsbG8=").Data)
}

func TestCustomErrorCode(t *testing.T) {
	p := NewParser()

	code, ok := p.CustomErrorCode("custom program error: 0x1771")
	require.True(t, ok)
	assert.Equal(t, uint32(6001), code)

	code, ok = p.CustomErrorCode("Transaction simulation failed: Error processing Instruction 1: custom program error: 0x1A")
	require.True(t, ok)
	assert.Equal(t, uint32(26), code)

	_, ok = p.CustomErrorCode("insufficient funds")
	assert.False(t, ok)

	_, ok = p.CustomErrorCode("custom program error: 0x1ffffffff")
	assert.False(t, ok)
}

func TestParseAnchorError(t *testing.T) {
	p := NewParser()

	ae := p.ParseAnchorError("AnchorError occurred. Error Code: ConstraintSeeds. Error Number: 2006. Error Message: A seeds constraint was violated.")
	require.NotNil(t, ae)
	assert.Equal(t, "ConstraintSeeds", ae.Name)
	assert.Equal(t, uint32(2006), ae.Number)
	assert.Equal(t, "A seeds constraint was violated", ae.Message)

	ae = p.ParseAnchorError("AnchorError thrown in programs/vault/src/lib.rs:42. Error Code: Unauthorized. Error Number: 6000. Error Message: Signer is not the vault authority.")
	require.NotNil(t, ae)
	assert.Equal(t, uint32(6000), ae.Number)

	assert.Nil(t, p.ParseAnchorError("Instruction: Deposit"))
}

func TestFindFailureTopLevel(t *testing.T) {
	logs := []string{
		"Program " + budgetProgram + " invoke [1]",
		"Program " + budgetProgram + " success",
		"Program " + coreProgram + " invoke [1]",
		"Program log: Instruction: CreateV2",
		"Program log: Error: Invalid authority",
		"Program " + coreProgram + " consumed 4211 of 199850 compute units",
		"Program " + coreProgram + " failed: custom program error: 0x1a",
	}

	f := NewParser().FindFailure(logs)
	require.NotNil(t, f)
	assert.Equal(t, coreProgram, f.ProgramID)
	code, ok := f.Code()
	require.True(t, ok)
	assert.Equal(t, uint32(26), code)
	idx, ok := f.Instruction()
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, InstructionPath{1}, f.Path)
	assert.Equal(t, []string{"Instruction: CreateV2", "Error: Invalid authority"}, f.Logs)
}

func TestFindFailureNested(t *testing.T) {
	logs := []string{
		"Program " + coreProgram + " invoke [1]",
		"Program " + systemProgram + " invoke [2]",
		"Program " + systemProgram + " success",
		"Program " + systemProgram + " invoke [2]",
		"Transfer: insufficient lamports 0, need 1461600",
		"Program " + systemProgram + " failed: custom program error: 0x1",
		"Program " + coreProgram + " failed: custom program error: 0x1",
	}

	f := NewParser().FindFailure(logs)
	require.NotNil(t, f)
	assert.Equal(t, systemProgram, f.ProgramID)
	assert.Equal(t, InstructionPath{0, 1}, f.Path)
	assert.Equal(t, "[0, 1]", f.Path.String())
}

func TestFindFailureAnchor(t *testing.T) {
	logs := []string{
		"Program " + coreProgram + " invoke [1]",
		"Program log: AnchorError occurred. Error Code: AccountNotInitialized. Error Number: 3012. Error Message: The program expected this account to be already initialized.",
		"Program " + coreProgram + " failed: custom program error: 0xbc4",
	}
	f := NewParser().FindFailure(logs)
	require.NotNil(t, f)
	require.NotNil(t, f.Anchor)
	assert.Equal(t, "AccountNotInitialized", f.Anchor.Name)
	code, _ := f.Code()
	assert.Equal(t, uint32(3012), code)
}

func TestFindFailureNone(t *testing.T) {
	p := NewParser()
	assert.Nil(t, p.FindFailure(nil))
	assert.Nil(t, p.FindFailure([]string{
		"Program " + systemProgram + " invoke [1]",
		"Program " + systemProgram + " success",
	}))
}

func TestExtractProgramLogs(t *testing.T) {
	logs := []string{
		"Program " + coreProgram + " invoke [1]",
		"Program log: one",
		"Program data: aGVsbG8=",
		"Program log: two",
	}
	assert.Equal(t, []string{"one", "two"}, NewParser().ExtractProgramLogs(logs))
}
