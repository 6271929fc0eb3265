package cryptography

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureLength is r || s || v.
const SignatureLength = 65

func SignMessage(message string, privateKey string) (string, error) {
	privateKeyECDSA, err := crypto.HexToECDSA(strings.TrimPrefix(privateKey, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}

	signature, err := crypto.Sign(personalMessageHash(message), privateKeyECDSA)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}

	signature[64] += 27

	return hexutil.Encode(signature), nil
}

func SignJSONMessage(jsonData interface{}, privateKey string) (string, error) {
	message, err := canonicalJSON(jsonData)
	if err != nil {
		return "", err
	}
	return SignMessage(message, privateKey)
}

func VerifySignature(message string, signature string, signerAddress string) (bool, error) {
	signatureBytes, err := hexutil.Decode(signature)
	if err != nil {
		return false, fmt.Errorf("invalid signature: %w", err)
	}

	recoveredAddr, err := recoverAddress(personalMessageHash(message), signatureBytes)
	if err != nil {
		return false, err
	}

	return common.HexToAddress(signerAddress) == recoveredAddr, nil
}

func VerifySignatureFromJSON(jsonData interface{}, signature string, signerAddress string) (bool, error) {
	message, err := canonicalJSON(jsonData)
	if err != nil {
		return false, err
	}
	return VerifySignature(message, signature, signerAddress)
}

// SignDigest signs a raw 32 byte digest without the personal message prefix.
// The recovery id in the result is 0 or 1.
func SignDigest(digest [32]byte, key *ecdsa.PrivateKey) ([SignatureLength]byte, error) {
	var out [SignatureLength]byte
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return out, fmt.Errorf("failed to sign digest: %w", err)
	}
	copy(out[:], sig)
	return out, nil
}

// RecoverDigestSigner returns the address that produced sig over digest.
// Recovery ids of 27/28 are accepted as well as 0/1.
func RecoverDigestSigner(digest [32]byte, sig []byte) (common.Address, error) {
	return recoverAddress(digest[:], sig)
}

func recoverAddress(hash []byte, signature []byte) (common.Address, error) {
	if len(signature) != SignatureLength {
		return common.Address{}, fmt.Errorf("invalid signature length")
	}

	sig := make([]byte, SignatureLength)
	copy(sig, signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	if sig[64] > 1 {
		return common.Address{}, fmt.Errorf("invalid recovery id %d", signature[64])
	}

	pubKeyRaw, err := crypto.Ecrecover(hash, sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}

	pubKey, err := crypto.UnmarshalPubkey(pubKeyRaw)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to unmarshal public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pubKey), nil
}

func personalMessageHash(message string) []byte {
	return crypto.Keccak256Hash([]byte(fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(message), message))).Bytes()
}

// canonicalJSON round trips through a map so that key order is sorted, and lowercases
// string values so hex addresses compare equal regardless of checksum casing.
func canonicalJSON(jsonData interface{}) (string, error) {
	jsonDataMap := make(map[string]interface{})

	jsonBytes, err := json.Marshal(jsonData)
	if err != nil {
		return "", fmt.Errorf("failed to marshal input data: %w", err)
	}

	if err := json.Unmarshal(jsonBytes, &jsonDataMap); err != nil {
		return "", fmt.Errorf("failed to unmarshal to map: %w", err)
	}

	convertToLower(jsonDataMap)

	jsonDataBytes, err := json.Marshal(jsonDataMap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal json data: %w", err)
	}

	return string(jsonDataBytes), nil
}

func convertToLower(data map[string]interface{}) {
	for k, v := range data {
		switch val := v.(type) {
		case string:
			data[k] = strings.ToLower(val)
		case map[string]interface{}:
			convertToLower(val)
		case []interface{}:
			for i, item := range val {
				if s, ok := item.(string); ok {
					val[i] = strings.ToLower(s)
				} else if m, ok := item.(map[string]interface{}); ok {
					convertToLower(m)
				}
			}
		}
	}
}
