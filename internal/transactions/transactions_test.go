package transactions

import (
	"bytes"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-umi/internal/eddsa"
	"github.com/lugondev/go-umi/internal/errors"
)

func keypair(t *testing.T, b byte) *eddsa.Keypair {
	t.Helper()
	kp, err := eddsa.New().KeypairFromSeed(bytes.Repeat([]byte{b}, eddsa.SeedSize))
	require.NoError(t, err)
	return kp
}

func transferTx(t *testing.T, f *Factory, payer, from *eddsa.Keypair) *solana.Transaction {
	t.Helper()
	tx, err := f.Build([]solana.Instruction{
		system.NewTransferInstruction(1000, from.PublicKey(), solana.NewWallet().PublicKey()).Build(),
	}, solana.Hash{9}, payer.PublicKey())
	require.NoError(t, err)
	return tx
}

func TestSignSerializeRoundTrip(t *testing.T) {
	f := NewFactory()
	payer := keypair(t, 1)
	tx := transferTx(t, f, payer, payer)

	require.NoError(t, f.Sign(tx, payer))
	require.NoError(t, f.VerifySignatures(tx))

	data, err := f.Serialize(tx)
	require.NoError(t, err)
	assert.Equal(t, byte(1), data[0], "compact-u16 signature count")

	decoded, err := f.Deserialize(data)
	require.NoError(t, err)
	assert.Equal(t, tx.Signatures, decoded.Signatures)

	m1, err := f.SerializeMessage(tx)
	require.NoError(t, err)
	m2, err := f.SerializeMessage(decoded)
	require.NoError(t, err)
	assert.Equal(t, m1, m2)
	assert.Equal(t, data[1+64:], m1)

	sig, ok := FirstSignature(decoded)
	require.True(t, ok)
	assert.Equal(t, tx.Signatures[0], sig)
}

func TestSignRequiresEverySigner(t *testing.T) {
	f := NewFactory()
	payer := keypair(t, 1)
	from := keypair(t, 2)
	tx := transferTx(t, f, payer, from)

	err := f.Sign(tx, payer)
	assert.True(t, errors.Is(err, errors.ErrMissingSigner))
	assert.Empty(t, tx.Signatures)

	require.NoError(t, f.Sign(tx, from, payer))
	require.NoError(t, f.VerifySignatures(tx))
	assert.Equal(t, payer.PublicKey(), RequiredSigners(tx)[0])
}

func TestPartialSign(t *testing.T) {
	f := NewFactory()
	payer := keypair(t, 1)
	from := keypair(t, 2)
	tx := transferTx(t, f, payer, from)

	require.NoError(t, f.PartialSign(tx, from))
	require.Len(t, tx.Signatures, 2)
	assert.Error(t, f.VerifySignatures(tx))
	_, ok := FirstSignature(tx)
	assert.False(t, ok)

	require.NoError(t, f.PartialSign(tx, payer))
	require.NoError(t, f.VerifySignatures(tx))
}

func TestTamperedSignatureFailsVerification(t *testing.T) {
	f := NewFactory()
	payer := keypair(t, 1)
	tx := transferTx(t, f, payer, payer)
	require.NoError(t, f.Sign(tx, payer))

	tx.Signatures[0][5] ^= 0xff
	assert.Error(t, f.VerifySignatures(tx))
}

func TestNoopSignerCannotSign(t *testing.T) {
	f := NewFactory()
	payer := keypair(t, 1)
	tx := transferTx(t, f, payer, payer)

	err := f.Sign(tx, eddsa.NewNoopSigner(payer.PublicKey()))
	assert.True(t, errors.Is(err, errors.ErrMissingSigner))
}

func TestSerializeRejectsOversizedTransaction(t *testing.T) {
	f := NewFactory()
	payer := keypair(t, 1)
	tx, err := f.Build([]solana.Instruction{
		solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{}, make([]byte, MaxTransactionSize)),
	}, solana.Hash{}, payer.PublicKey())
	require.NoError(t, err)
	require.NoError(t, f.Sign(tx, payer))

	_, err = f.Serialize(tx)
	assert.True(t, errors.Is(err, errors.ErrSerializationFailed))
}

func TestDeserializeRejectsGarbage(t *testing.T) {
	f := NewFactory()
	_, err := f.Deserialize([]byte{0xff})
	assert.True(t, errors.Is(err, errors.ErrSerializationFailed))

	payer := keypair(t, 1)
	tx := transferTx(t, f, payer, payer)
	require.NoError(t, f.Sign(tx, payer))
	data, err := f.Serialize(tx)
	require.NoError(t, err)

	_, err = f.Deserialize(append(data, 0x00))
	assert.True(t, errors.Is(err, errors.ErrSerializationFailed))
}

func TestBuildRejectsEmptyInstructions(t *testing.T) {
	_, err := NewFactory().Build(nil, solana.Hash{}, solana.NewWallet().PublicKey())
	assert.Error(t, err)
}

func TestSignatureEncoding(t *testing.T) {
	f := NewFactory()
	payer := keypair(t, 3)
	tx := transferTx(t, f, payer, payer)
	require.NoError(t, f.Sign(tx, payer))

	text := EncodeSignature(tx.Signatures[0])
	sig, err := DecodeSignature(text)
	require.NoError(t, err)
	assert.Equal(t, tx.Signatures[0], sig)

	_, err = DecodeSignature("not-base58!")
	assert.True(t, errors.Is(err, errors.ErrSerializationFailed))
}
