package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testOwner    = "0x00000000000000000000000000000000000000aa"
	testRegistry = "0x00000000000000000000000000000000000000bb"
)

func setRequired(t *testing.T) {
	t.Setenv("DEV_MODE", "true")
	t.Setenv("REGISTRY_OWNER_ADDRESS", testOwner)
	t.Setenv("REGISTRY_ADDRESS", testRegistry)
}

func TestLoad_Defaults_Simulated(t *testing.T) {
	setRequired(t)

	require.NoError(t, load())
	assert.True(t, IsDevMode())
	assert.True(t, IsSimulated())
	assert.Equal(t, "9010", GetRegistryAPIPort())
	assert.Equal(t, common.HexToAddress(testOwner), GetOwnerAddress())
	assert.Equal(t, common.HexToAddress(testRegistry), GetRegistryAddress())
	assert.Equal(t, int64(31337), GetChainID().Int64())
	assert.Equal(t, "@every 2s", GetBlockInterval())
	assert.Equal(t, "registry:events", GetRedisEventStream())
	assert.Equal(t, []string{"*"}, GetCORSAllowedOrigins())
}

func TestLoad_Overrides_Applied(t *testing.T) {
	setRequired(t)
	t.Setenv("REGISTRY_API_PORT", "8088")
	t.Setenv("CHAIN_ID", "11155111")
	t.Setenv("ETH_RPC_URL", "https://rpc.example.org")
	t.Setenv("DATABASE_HOST_ADDRESS", "127.0.0.1")
	t.Setenv("DATABASE_KEYSPACE", "registry")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.org, https://b.example.org")

	require.NoError(t, load())
	assert.False(t, IsSimulated())
	assert.Equal(t, "8088", GetRegistryAPIPort())
	assert.Equal(t, int64(11155111), GetChainID().Int64())
	assert.Equal(t, "127.0.0.1", GetDatabaseHostAddress())
	assert.Equal(t, "9042", GetDatabaseHostPort())
	assert.Equal(t, "registry", GetDatabaseKeyspace())
	assert.Equal(t, "redis://localhost:6379", GetRedisURL())
	assert.Equal(t, []string{"https://a.example.org", "https://b.example.org"}, GetCORSAllowedOrigins())
}

func TestLoad_InvalidValues_ReturnsError(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "REGISTRY_API_PORT", "80"},
		{"bad owner", "REGISTRY_OWNER_ADDRESS", "owner"},
		{"bad registry", "REGISTRY_ADDRESS", "0x1234"},
		{"zero chain id", "CHAIN_ID", "0"},
		{"bad rpc url", "ETH_RPC_URL", "ftp://node"},
		{"bad block interval", "BLOCK_INTERVAL", "every now and then"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv(tt.key, tt.value)
			assert.Error(t, load())
		})
	}
}

const bootstrapYAML = `signers:
  - "0x0000000000000000000000000000000000000001"
  - "0x0000000000000000000000000000000000000002"
  - "0x0000000000000000000000000000000000000003"
  - "0x0000000000000000000000000000000000000004"
transmitters:
  - "0x0000000000000000000000000000000000000011"
  - "0x0000000000000000000000000000000000000012"
  - "0x0000000000000000000000000000000000000013"
  - "0x0000000000000000000000000000000000000014"
f: 1
payees:
  - "0x0000000000000000000000000000000000000021"
  - "0x0000000000000000000000000000000000000022"
  - "0x0000000000000000000000000000000000000023"
  - "0x0000000000000000000000000000000000000024"
onchain:
  payment_premium_ppb: 250000000
  flat_fee_micro_link: 0
  check_gas_limit: 6500000
  staleness_heights: 90000
  gas_ceiling_multiplier: 2
  min_spend: "100000000000000000"
  max_perform_gas: 5000000
  max_check_data_size: 5000
  max_perform_data_size: 5000
  fallback_gas_price: "200000000000"
  fallback_link_native: "5000000000000000"
  registrars:
    - "0x0000000000000000000000000000000000000031"
offchain:
  version: 1
  config: "0x0102"
grants:
  - account: "0x0000000000000000000000000000000000000041"
    amount: "5000000000000000000"
`

func writeBootstrap(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "bootstrap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadBootstrap_ValidFile_BuildsParams(t *testing.T) {
	b, err := LoadBootstrap(writeBootstrap(t, bootstrapYAML))
	require.NoError(t, err)

	params, err := b.Params()
	require.NoError(t, err)
	assert.Len(t, params.Signers, 4)
	assert.Equal(t, common.HexToAddress("0x14"), params.Transmitters[3])
	assert.Equal(t, uint8(1), params.F)
	assert.Equal(t, uint32(250000000), params.Onchain.PaymentPremiumPPB)
	assert.Equal(t, "100000000000000000", params.Onchain.MinSpend.String())
	assert.Equal(t, "200000000000", params.Onchain.FallbackGasPrice.String())
	assert.Equal(t, "5000000000000000", params.Onchain.FallbackLinkNative.String())
	assert.Equal(t, []common.Address{common.HexToAddress("0x31")}, params.Onchain.Registrars)
	assert.Equal(t, uint64(1), params.OffchainVersion)
	assert.Equal(t, []byte{1, 2}, params.OffchainConfig)

	payees, err := b.PayeeAddresses()
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x21"), payees[0])
}

func TestBootstrap_InvalidFields_ReturnsError(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(b *Bootstrap)
	}{
		{"bad signer", func(b *Bootstrap) { b.Signers[0] = "nope" }},
		{"bad registrar", func(b *Bootstrap) { b.Onchain.Registrars = []string{"0x12"} }},
		{"negative min spend", func(b *Bootstrap) { b.Onchain.MinSpend = "-1" }},
		{"non decimal fallback", func(b *Bootstrap) { b.Onchain.FallbackGasPrice = "0x10" }},
		{"bad offchain hex", func(b *Bootstrap) { b.Offchain.Config = "zz" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := LoadBootstrap(writeBootstrap(t, bootstrapYAML))
			require.NoError(t, err)
			tt.mutate(b)
			_, err = b.Params()
			assert.Error(t, err)
		})
	}
}

func TestBootstrap_PayeeCountMismatch_ReturnsError(t *testing.T) {
	b, err := LoadBootstrap(writeBootstrap(t, bootstrapYAML))
	require.NoError(t, err)
	b.Payees = b.Payees[:2]

	_, err = b.PayeeAddresses()
	assert.Error(t, err)

	b.Payees = nil
	payees, err := b.PayeeAddresses()
	require.NoError(t, err)
	assert.Nil(t, payees)
}

func TestLoadBootstrap_UnknownField_ReturnsError(t *testing.T) {
	_, err := LoadBootstrap(writeBootstrap(t, "signers: []\nquorum: 3\n"))
	assert.Error(t, err)
}

func TestBootstrap_GrantList(t *testing.T) {
	b, err := LoadBootstrap(writeBootstrap(t, bootstrapYAML))
	require.NoError(t, err)

	grants, err := b.GrantList()
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, common.HexToAddress("0x41"), grants[0].Account)
	assert.Equal(t, "5000000000000000000", grants[0].Amount.String())

	b.Grants[0].Amount = "lots"
	_, err = b.GrantList()
	assert.Error(t, err)

	b.Grants[0] = GrantBootstrap{Account: "0x41", Amount: "1"}
	_, err = b.GrantList()
	assert.Error(t, err)
}
