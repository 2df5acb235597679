package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-umi/internal/eddsa"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".umi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    dev")
}

func TestConfigShowHidesSecrets(t *testing.T) {
	path := writeConfig(t, `
identity:
  secret_key: not-a-real-secret
journal:
  postgres:
    password: hunter2
`)
	out, err := execute(t, "config", "show", "--config", path, "--network", "testnet")
	require.NoError(t, err)

	assert.Contains(t, out, "network: testnet")
	assert.NotContains(t, out, "not-a-real-secret")
	assert.NotContains(t, out, "hunter2")
}

func TestConfigShowRPCOverride(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	out, err := execute(t, "config", "show", "--config", path, "--rpc", "http://127.0.0.1:8899")
	require.NoError(t, err)
	assert.Contains(t, out, "rpc: http://127.0.0.1:8899")
}

func TestKeypairNewHidesSecret(t *testing.T) {
	seed := "0101010101010101010101010101010101010101010101010101010101010101"
	kp, err := eddsa.New().KeypairFromSeed(bytes.Repeat([]byte{1}, 32))
	require.NoError(t, err)

	out, err := execute(t, "keypair", "new", "--seed", seed)
	require.NoError(t, err)
	assert.Contains(t, out, kp.PublicKey().String())
	assert.NotContains(t, out, kp.ExportBase58())

	out, err = execute(t, "keypair", "new", "--seed", seed, "--reveal")
	require.NoError(t, err)
	assert.Contains(t, out, kp.ExportBase58())
}

func TestKeypairPda(t *testing.T) {
	program := solana.SystemProgramID
	want, err := eddsa.New().FindPda(program, [][]byte{[]byte("vault"), {0xde, 0xad}})
	require.NoError(t, err)

	out, err := execute(t, "keypair", "pda", program.String(), "7661756c74", "dead", "--encoding", "hex")
	require.NoError(t, err)
	assert.Contains(t, out, want.Address.String())
	assert.Contains(t, out, "Bump:")
}

func TestKeypairPdaRejectsBadProgram(t *testing.T) {
	_, err := execute(t, "keypair", "pda", "not-base58!")
	assert.Error(t, err)
}

func TestKeypairVerify(t *testing.T) {
	kp, err := eddsa.New().GenerateKeypair()
	require.NoError(t, err)
	sig, err := kp.SignMessage([]byte("hello"))
	require.NoError(t, err)

	out, err := execute(t, "keypair", "verify", kp.PublicKey().String(), "hello", sig.String())
	require.NoError(t, err)
	assert.Contains(t, out, "Signature is valid")

	_, err = execute(t, "keypair", "verify", kp.PublicKey().String(), "goodbye", sig.String())
	assert.Error(t, err)
}

func TestDecodeSeed(t *testing.T) {
	b, err := decodeSeed("abc", "utf8")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), b)

	b, err = decodeSeed("0aff", "hex")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0a, 0xff}, b)

	b, err = decodeSeed(base58.Encode([]byte{1, 2, 3}), "base58")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, b)

	_, err = decodeSeed("zz", "hex")
	assert.Error(t, err)
	_, err = decodeSeed("abc", "rot13")
	assert.Error(t, err)
}

func TestParseMemcmp(t *testing.T) {
	f, err := parseMemcmp("8:" + base58.Encode([]byte{9, 9}))
	require.NoError(t, err)
	require.NotNil(t, f.Memcmp)
	assert.Equal(t, uint64(8), f.Memcmp.Offset)
	assert.Equal(t, []byte{9, 9}, f.Memcmp.Bytes)

	for _, bad := range []string{"8", "x:abc", "8:0OIl"} {
		_, err := parseMemcmp(bad)
		assert.Error(t, err, bad)
	}
}

func TestArgumentValidation(t *testing.T) {
	cases := [][]string{
		{"account", "rent", "many"},
		{"account", "balance", "not-an-address"},
		{"ledger", "block-time", "-1"},
		{"tx", "status", "not-a-signature"},
		{"airdrop", solana.SystemProgramID.String(), "1.5.5"},
		{"journal", "list", "--offset", "-1"},
		{"journal", "list", "--pending", "--limit", "-3"},
	}
	for _, args := range cases {
		_, err := execute(t, args...)
		assert.Error(t, err, args)
	}
}
