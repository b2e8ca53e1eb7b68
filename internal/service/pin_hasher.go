package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"wallet-ledger/config"

	"golang.org/x/crypto/argon2"
)

const (
	pinKeyLen  = 32
	pinSaltLen = 16
)

// Argon2PinHasher implements ports.PinHasher using Argon2id.
type Argon2PinHasher struct {
	memory  uint32
	time    uint32
	threads uint8
}

// NewArgon2PinHasher creates a hasher with the configured cost parameters.
// Zero values fall back to m=64MB, t=1, p=4.
func NewArgon2PinHasher(cfg config.PinConfig) *Argon2PinHasher {
	h := &Argon2PinHasher{memory: cfg.Memory, time: cfg.Time, threads: cfg.Threads}
	if h.memory == 0 {
		h.memory = 64 * 1024
	}
	if h.time == 0 {
		h.time = 1
	}
	if h.threads == 0 {
		h.threads = 4
	}
	return h
}

// Hash generates an Argon2id hash of the PIN.
// Returns format: $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (h *Argon2PinHasher) Hash(pin string) (string, error) {
	salt := make([]byte, pinSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(pin), salt, h.time, h.memory, h.threads, pinKeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memory, h.time, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether pin matches the encoded hash. The parameters stored
// in the hash win over the hasher's own, so old hashes keep verifying after a
// cost change.
func (h *Argon2PinHasher) Verify(pin string, encoded string) (bool, error) {
	salt, key, params, err := decodePinHash(encoded)
	if err != nil {
		return false, err
	}

	other := argon2.IDKey([]byte(pin), salt, params.time, params.memory, params.threads, params.keyLen)

	return subtle.ConstantTimeCompare(key, other) == 1, nil
}

type pinHashParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

func decodePinHash(encoded string) (salt, key []byte, params pinHashParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return nil, nil, params, fmt.Errorf("invalid hash format: expected 6 parts, got %d", len(parts))
	}

	if parts[1] != "argon2id" {
		return nil, nil, params, fmt.Errorf("unsupported algorithm: %s", parts[1])
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, params, fmt.Errorf("parsing version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, params, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.threads); err != nil {
		return nil, nil, params, fmt.Errorf("parsing params: %w", err)
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding salt: %w", err)
	}

	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, params, fmt.Errorf("decoding hash: %w", err)
	}

	params.keyLen = uint32(len(key))

	return salt, key, params, nil
}
