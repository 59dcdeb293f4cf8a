package aptos

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ed25519Scheme is the authentication-key scheme byte appended to the public
// key when deriving an account address.
const ed25519Scheme byte = 0x00

// Account holds the server-side ed25519 signing key used for admin and
// relayed transactions. The key material is loaded once at startup and must
// never be logged.
type Account struct {
	priv    ed25519.PrivateKey
	pub     ed25519.PublicKey
	address string
}

// NewAccount creates an Account from a hex-encoded 32-byte ed25519 seed,
// with or without a 0x prefix.
func NewAccount(privateKeyHex string) (*Account, error) {
	keyHex := strings.TrimPrefix(privateKeyHex, "0x")
	seed, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("aptos: decode private key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("aptos: private key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}

	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	// Address = sha3-256(pubkey || scheme byte).
	h := sha3.New256()
	h.Write(pub)
	h.Write([]byte{ed25519Scheme})
	address := "0x" + hex.EncodeToString(h.Sum(nil))

	return &Account{priv: priv, pub: pub, address: address}, nil
}

// Address returns the 0x-prefixed account address.
func (a *Account) Address() string {
	return a.address
}

// PublicKeyHex returns the 0x-prefixed hex encoding of the public key.
func (a *Account) PublicKeyHex() string {
	return "0x" + hex.EncodeToString(a.pub)
}

// Sign signs the raw signing message returned by the node's
// encode_submission endpoint and returns the 0x-prefixed signature.
func (a *Account) Sign(signingMessage []byte) string {
	sig := ed25519.Sign(a.priv, signingMessage)
	return "0x" + hex.EncodeToString(sig)
}
