package cryptography

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPrivateKey = "1234567890abcdef1234567890abcdef1234567890abcdef1234567890abcdef"
	testMessage    = "Hello, Ethereum!"
)

func testAddress(t *testing.T) string {
	key, err := crypto.HexToECDSA(testPrivateKey)
	require.NoError(t, err)
	return crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestSignMessage_ValidInput_ReturnsSignature(t *testing.T) {
	signature, err := SignMessage(testMessage, testPrivateKey)

	require.NoError(t, err)
	assert.Len(t, signature, 132)

	ok, err := VerifySignature(testMessage, signature, testAddress(t))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignMessage_InvalidPrivateKey_ReturnsError(t *testing.T) {
	tests := []struct {
		name       string
		privateKey string
	}{
		{"empty private key", ""},
		{"invalid hex", "invalid-hex"},
		{"too short", "123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := SignMessage(testMessage, tt.privateKey)
			assert.ErrorContains(t, err, "invalid private key")
		})
	}
}

func TestVerifySignature_WrongSigner_ReturnsFalse(t *testing.T) {
	signature, err := SignMessage(testMessage, testPrivateKey)
	require.NoError(t, err)

	ok, err := VerifySignature(testMessage, signature, "0x0000000000000000000000000000000000000001")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = VerifySignature("tampered", signature, testAddress(t))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifySignature_MalformedSignature_ReturnsError(t *testing.T) {
	_, err := VerifySignature(testMessage, "0x1234", testAddress(t))
	assert.ErrorContains(t, err, "invalid signature length")

	_, err = VerifySignature(testMessage, "not-hex", testAddress(t))
	assert.ErrorContains(t, err, "invalid signature")
}

func TestSignJSONMessage_CaseInsensitiveStrings_Verifies(t *testing.T) {
	payload := map[string]interface{}{
		"caller": "0x742D35CC6634C0532925A3B844BC454E4438F44E",
		"nonce":  3,
		"ids":    []interface{}{"0xABC"},
	}
	signature, err := SignJSONMessage(payload, testPrivateKey)
	require.NoError(t, err)

	lowered := map[string]interface{}{
		"caller": "0x742d35cc6634c0532925a3b844bc454e4438f44e",
		"nonce":  3,
		"ids":    []interface{}{"0xabc"},
	}
	ok, err := VerifySignatureFromJSON(lowered, signature, testAddress(t))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignDigest_RecoverDigestSigner_RoundTrip(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	digest := crypto.Keccak256Hash([]byte("report"))

	sig, err := SignDigest(digest, key)
	require.NoError(t, err)
	assert.LessOrEqual(t, sig[64], byte(1))

	addr, err := RecoverDigestSigner(digest, sig[:])
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), addr)

	shifted := sig
	shifted[64] += 27
	addr, err = RecoverDigestSigner(digest, shifted[:])
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), addr)
}

func TestRecoverDigestSigner_BadRecoveryID_ReturnsError(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	digest := crypto.Keccak256Hash([]byte("report"))
	sig, err := SignDigest(digest, key)
	require.NoError(t, err)

	sig[64] = 5
	_, err = RecoverDigestSigner(digest, sig[:])
	assert.ErrorContains(t, err, "invalid recovery id")
}
