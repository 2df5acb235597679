package types

import (
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolAmountString(t *testing.T) {
	tests := []struct {
		amount SolAmount
		want   string
	}{
		{0, "0.000000000"},
		{1, "0.000000001"},
		{24981836, "0.024981836"},
		{1_500_000_000, "1.500000000"},
		{SolAmount(math.MaxUint64), "18446744073.709551615"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.amount.String())
	}
}

func TestParseSOL(t *testing.T) {
	tests := []struct {
		in      string
		want    SolAmount
		wantErr bool
	}{
		{"1", 1_000_000_000, false},
		{"1.5", 1_500_000_000, false},
		{" 0.000000001 ", 1, false},
		{".25", 250_000_000, false},
		{"2.5000000000", 2_500_000_000, false},
		{"0.0000000001", 0, true},
		{"", 0, true},
		{"1.2.3", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"18446744074", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSOL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSolAmountArithmetic(t *testing.T) {
	sum, ok := SolAmount(1).Add(2)
	assert.True(t, ok)
	assert.Equal(t, SolAmount(3), sum)

	_, ok = SolAmount(math.MaxUint64).Add(1)
	assert.False(t, ok)

	_, ok = SolAmount(1).Sub(2)
	assert.False(t, ok)

	_, ok = SolAmount(math.MaxUint64 / 2).Mul(3)
	assert.False(t, ok)

	two, ok := SOL(2)
	assert.True(t, ok)
	assert.Equal(t, uint64(2_000_000_000), two.Lamports())
}

func TestCommitmentAtLeast(t *testing.T) {
	assert.True(t, CommitmentFinalized.AtLeast(CommitmentConfirmed))
	assert.True(t, CommitmentConfirmed.AtLeast(CommitmentConfirmed))
	assert.False(t, CommitmentProcessed.AtLeast(CommitmentConfirmed))
	assert.False(t, Commitment("").AtLeast(CommitmentProcessed))

	_, err := ParseCommitment("rooted")
	assert.Error(t, err)
}

func TestConfirmationStrategyValidate(t *testing.T) {
	bh := NewBlockhashStrategy(BlockhashWithExpiry{Blockhash: solana.Hash{1}, LastValidBlockHeight: 10})
	assert.NoError(t, bh.Validate())
	assert.Equal(t, StrategyBlockhash, bh.Kind())

	nonce := NewNonceStrategy(solana.NewWallet().PublicKey(), solana.Hash{2}, 0)
	assert.NoError(t, nonce.Validate())
	assert.Equal(t, StrategyNonce, nonce.Kind())

	assert.Error(t, ConfirmationStrategy{}.Validate())
	assert.Error(t, ConfirmationStrategy{Blockhash: bh.Blockhash, Nonce: nonce.Nonce}.Validate())
	assert.Error(t, NewNonceStrategy(solana.PublicKey{}, solana.Hash{}, 0).Validate())
}

func TestResolveCluster(t *testing.T) {
	tests := map[string]Cluster{
		"https://api.mainnet-beta.solana.com":          ClusterMainnet,
		"https://api.devnet.solana.com":                ClusterDevnet,
		"https://api.testnet.solana.com":               ClusterTestnet,
		"http://127.0.0.1:8899":                        ClusterLocalnet,
		"http://localhost:8899":                        ClusterLocalnet,
		"https://example.solana-mainnet.quiknode.pro/": ClusterMainnet,
		"https://my-devnet-node.example.com":           ClusterDevnet,
		"https://rpc.example.com":                      ClusterCustom,
	}
	for endpoint, want := range tests {
		assert.Equal(t, want, ResolveCluster(endpoint), endpoint)
	}
}

func TestMaybeAccountExists(t *testing.T) {
	assert.False(t, MaybeAccount{}.Exists())
	assert.True(t, MaybeAccount{Account: &Account{}}.Exists())
}
