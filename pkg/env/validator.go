package env

import (
	"regexp"
	"strings"
)

var (
	ethAddressPattern = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")
	privateKeyPattern = regexp.MustCompile("^(0x)?[0-9a-fA-F]{64}$")
	portPattern       = regexp.MustCompile("^(102[4-9]|10[3-9][0-9]|1[1-9][0-9]{2}|[2-9][0-9]{3}|[1-5][0-9]{4}|6[0-4][0-9]{3}|65[0-4][0-9]{2}|655[0-2][0-9]|6553[0-5])$")
	ipPattern         = regexp.MustCompile(`^((25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])\.){3}(25[0-5]|2[0-4][0-9]|1[0-9][0-9]|[1-9]?[0-9])$`)
	domainPattern     = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)
)

func IsEmpty(value string) bool {
	return value == ""
}

// Ethereum Address
func IsValidEthAddress(address string) bool {
	return ethAddressPattern.MatchString(address)
}

// ECDSA Private Key, with or without 0x prefix
func IsValidPrivateKey(privateKey string) bool {
	return privateKeyPattern.MatchString(privateKey)
}

func IsValidIPAddress(ipAddress string) bool {
	if ipAddress == "localhost" {
		return true
	}
	return ipPattern.MatchString(ipAddress)
}

// Port number
func IsValidPort(port string) bool {
	return portPattern.MatchString(port)
}

// IsValidRPCURL accepts http(s) and ws(s) endpoints with an optional port.
func IsValidRPCURL(url string) bool {
	rest := ""
	for _, scheme := range []string{"http://", "https://", "ws://", "wss://"} {
		if strings.HasPrefix(url, scheme) {
			rest = strings.TrimPrefix(url, scheme)
			break
		}
	}
	if rest == "" {
		return false
	}
	if idx := strings.Index(rest, "/"); idx >= 0 {
		rest = rest[:idx]
	}
	parts := strings.Split(rest, ":")
	if len(parts) > 2 {
		return false
	}
	if !IsValidIPAddress(parts[0]) && !domainPattern.MatchString(parts[0]) {
		return false
	}
	return len(parts) == 1 || IsValidPort(parts[1])
}
