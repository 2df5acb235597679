package programs

import "github.com/gagliardetto/solana-go"

var (
	// MplCoreProgramID is the Metaplex Core asset program.
	MplCoreProgramID = solana.MustPublicKeyFromBase58("CoREENxT6tW1HoK8ypY1SxRMZTcVPm7R94rH4PZNhX7d")

	ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
	MemoProgramID          = solana.MustPublicKeyFromBase58("MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr")
)

// DefaultRepository returns a repository seeded with the programs most
// transactions touch.
func DefaultRepository() *Repository {
	r := NewRepository()
	r.Add(
		SystemProgram(),
		TokenProgram(),
		AssociatedTokenProgram(),
		&Program{Name: "splComputeBudget", PublicKey: ComputeBudgetProgramID},
		&Program{Name: "splMemo", PublicKey: MemoProgramID},
		MplCoreProgram(),
	)
	return r
}

// SystemProgram returns the system program and its error table.
func SystemProgram() *Program {
	return &Program{
		Name:      "splSystem",
		PublicKey: solana.SystemProgramID,
		Errors: map[uint32]ErrorDef{
			0: {"AccountAlreadyInUse", "an account with the same address already exists"},
			1: {"ResultWithNegativeLamports", "account does not have enough SOL to perform the operation"},
			2: {"InvalidProgramId", "cannot assign account to this program id"},
			3: {"InvalidAccountDataLength", "cannot allocate account data of this length"},
			4: {"MaxSeedLengthExceeded", "length of requested seed is too long"},
			5: {"AddressWithSeedMismatch", "provided address does not match addressed derived from seed"},
			6: {"NonceNoRecentBlockhashes", "advancing stored nonce requires a populated RecentBlockhashes sysvar"},
			7: {"NonceBlockhashNotExpired", "stored nonce is still in recent_blockhashes"},
			8: {"NonceUnexpectedBlockhashValue", "specified nonce does not match stored nonce"},
		},
	}
}

// TokenProgram returns the SPL token program and its error table.
func TokenProgram() *Program {
	return &Program{
		Name:      "splToken",
		PublicKey: solana.TokenProgramID,
		Errors: map[uint32]ErrorDef{
			0:  {"NotRentExempt", "lamport balance below rent-exempt threshold"},
			1:  {"InsufficientFunds", "insufficient funds"},
			2:  {"InvalidMint", "invalid mint"},
			3:  {"MintMismatch", "account not associated with this mint"},
			4:  {"OwnerMismatch", "owner does not match"},
			5:  {"FixedSupply", "fixed supply"},
			6:  {"AlreadyInUse", "already in use"},
			7:  {"InvalidNumberOfProvidedSigners", "invalid number of provided signers"},
			8:  {"InvalidNumberOfRequiredSigners", "invalid number of required signers"},
			9:  {"UninitializedState", "state is uninitialized"},
			10: {"NativeNotSupported", "instruction does not support native tokens"},
			11: {"NonNativeHasBalance", "non-native account can only be closed if its balance is zero"},
			12: {"InvalidInstruction", "invalid instruction"},
			13: {"InvalidState", "state is invalid for requested operation"},
			14: {"Overflow", "operation overflowed"},
			15: {"AuthorityTypeNotSupported", "account does not support specified authority type"},
			16: {"MintCannotFreeze", "this token mint cannot freeze accounts"},
			17: {"AccountFrozen", "account is frozen"},
			18: {"MintDecimalsMismatch", "the provided decimals value different from the mint decimals"},
			19: {"NonNativeNotSupported", "instruction does not support non-native tokens"},
		},
	}
}

// AssociatedTokenProgram returns the associated token account program.
func AssociatedTokenProgram() *Program {
	return &Program{
		Name:      "splAssociatedToken",
		PublicKey: solana.SPLAssociatedTokenAccountProgramID,
		Errors: map[uint32]ErrorDef{
			0: {"InvalidOwner", "associated token account owner does not match address derivation"},
		},
	}
}

// MplCoreProgram returns the Metaplex Core program and its error table.
func MplCoreProgram() *Program {
	return &Program{
		Name:      "mplCore",
		PublicKey: MplCoreProgramID,
		Errors: map[uint32]ErrorDef{
			0: {"InvalidSystemProgram", "invalid system program"},
			1: {"DeserializationError", "error deserializing account"},
			2: {"SerializationError", "error serializing account"},
			3: {"PluginsNotInitialized", "plugins not initialized"},
			4: {"PluginNotFound", "plugin not found"},
			5: {"NumericalOverflow", "numerical overflow"},
			6: {"IncorrectAccount", "incorrect account"},
			7: {"IncorrectAssetHash", "incorrect asset hash"},
			8: {"InvalidPlugin", "invalid plugin"},
			9: {"InvalidAuthority", "invalid authority"},
		},
	}
}
