// Package eth provides SIWE message handling and ERC-20 balance queries.
package eth

import (
	"crypto/ecdsa"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// SIWEMessage is the structured sign-in message (EIP-4361) the wallet
// host asks the user to sign.
type SIWEMessage struct {
	Domain    string
	Address   common.Address
	Statement string
	URI       string
	Version   string
	ChainID   int64
	Nonce     string
	IssuedAt  time.Time
}

// String renders the message in the canonical SIWE wire format.
func (m *SIWEMessage) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n%s\n", m.Domain, m.Address.Hex())
	if m.Statement != "" {
		fmt.Fprintf(&b, "\n%s\n", m.Statement)
	}
	fmt.Fprintf(&b, "\nURI: %s\n", m.URI)
	fmt.Fprintf(&b, "Version: %s\n", m.Version)
	fmt.Fprintf(&b, "Chain ID: %d\n", m.ChainID)
	fmt.Fprintf(&b, "Nonce: %s\n", m.Nonce)
	fmt.Fprintf(&b, "Issued At: %s", m.IssuedAt.UTC().Format(time.RFC3339))
	return b.String()
}

// ParseSIWEMessage extracts the address and nonce from a SIWE message.
// Only the fields needed for verification are parsed.
func ParseSIWEMessage(raw string) (*SIWEMessage, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("malformed SIWE message")
	}

	addrLine := strings.TrimSpace(lines[1])
	if !common.IsHexAddress(addrLine) {
		return nil, fmt.Errorf("malformed SIWE message: no address on line 2")
	}

	msg := &SIWEMessage{Address: common.HexToAddress(addrLine)}
	if idx := strings.Index(lines[0], " wants you to sign in"); idx > 0 {
		msg.Domain = lines[0][:idx]
	}

	for _, line := range lines[2:] {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Nonce: "):
			msg.Nonce = strings.TrimPrefix(line, "Nonce: ")
		case strings.HasPrefix(line, "URI: "):
			msg.URI = strings.TrimPrefix(line, "URI: ")
		case strings.HasPrefix(line, "Version: "):
			msg.Version = strings.TrimPrefix(line, "Version: ")
		}
	}

	if msg.Nonce == "" {
		return nil, fmt.Errorf("malformed SIWE message: missing nonce")
	}

	return msg, nil
}

// personalHash computes the EIP-191 personal-sign hash of a message.
func personalHash(msg []byte) common.Hash {
	prefix := fmt.Sprintf("\x19Ethereum Signed Message:\n%d", len(msg))
	return crypto.Keccak256Hash([]byte(prefix), msg)
}

// SignPersonal signs a message with the EIP-191 personal-sign scheme and
// returns the 65-byte signature as hex.
func SignPersonal(msg string, key *ecdsa.PrivateKey) (string, error) {
	sig, err := crypto.Sign(personalHash([]byte(msg)).Bytes(), key)
	if err != nil {
		return "", fmt.Errorf("failed to sign message: %w", err)
	}
	// Adjust V from 0/1 to 27/28
	if sig[64] < 27 {
		sig[64] += 27
	}
	return hexutil.Encode(sig), nil
}

// VerifyPersonal recovers the signer of an EIP-191 personal-sign
// signature and compares it against the expected address.
func VerifyPersonal(msg, sigHex string, expected common.Address) (bool, error) {
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return false, fmt.Errorf("failed to decode signature: %w", err)
	}
	if len(sig) != 65 {
		return false, fmt.Errorf("signature must be 65 bytes, got %d", len(sig))
	}

	// Ecrecover expects V in 0/1
	recSig := make([]byte, 65)
	copy(recSig, sig)
	if recSig[64] >= 27 {
		recSig[64] -= 27
	}

	pub, err := crypto.SigToPub(personalHash([]byte(msg)).Bytes(), recSig)
	if err != nil {
		return false, fmt.Errorf("failed to recover public key: %w", err)
	}

	return crypto.PubkeyToAddress(*pub) == expected, nil
}
