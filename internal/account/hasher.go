// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Burrow Contributors

// Package account manages persisted user accounts: registration,
// credential verification and profile changes.
package account

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("ACCOUNT_EMPTY_PASSWORD").Errorf("password cannot be empty")

// argon2Params pins the cost parameters a hash is produced or verified
// with. Verification always uses the parameters recorded in the hash
// itself, so costs can be raised without invalidating old hashes.
type argon2Params struct {
	memory  uint32 // KiB
	time    uint32 // iterations
	threads uint8
	keyLen  uint32 // derived key length in bytes
}

// defaultParams follows the OWASP argon2id guidance.
var defaultParams = argon2Params{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
}

const saltLen = 16

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces an argon2id hash of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the hash.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on invalid hash.
	Verify(password, hash string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id in PHC string
// format.
type Argon2idHasher struct {
	params argon2Params
}

// NewArgon2idHasher creates a hasher with the default cost parameters.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: defaultParams}
}

// Hash produces an argon2id hash of the password.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("ACCOUNT_SALT_FAILED").Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.time, h.params.memory, h.params.threads, h.params.keyLen)
	return encodePHC(h.params, salt, key), nil
}

// Verify checks the password against an encoded hash, using the cost
// parameters the hash itself records.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	p, salt, want, err := decodePHC(encodedHash)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// encodePHC renders the PHC string form:
// $argon2id$v=19$m=<KiB>,t=<iters>,p=<threads>$<salt>$<key>
func encodePHC(p argon2Params, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

// decodePHC parses a PHC string back into its parameters, salt and key.
func decodePHC(encoded string) (argon2Params, []byte, []byte, error) {
	var p argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" {
		return p, nil, nil, errInvalidHash("invalid hash format")
	}
	algorithm, version, costs, rawSalt, rawKey := parts[1], parts[2], parts[3], parts[4], parts[5]

	if algorithm != "argon2id" {
		return p, nil, nil, errInvalidHash("unsupported hash algorithm: %s", algorithm)
	}

	var v int
	if _, err := fmt.Sscanf(version, "v=%d", &v); err != nil {
		return p, nil, nil, oops.Code("ACCOUNT_INVALID_HASH").Wrap(err)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(costs, "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return p, nil, nil, oops.Code("ACCOUNT_INVALID_HASH").Wrap(err)
	}
	if threads > 255 {
		return p, nil, nil, errInvalidHash("threads value %d exceeds uint8 max", threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(rawSalt)
	if err != nil {
		return p, nil, nil, oops.Code("ACCOUNT_INVALID_HASH").Wrap(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(rawKey)
	if err != nil {
		return p, nil, nil, oops.Code("ACCOUNT_INVALID_HASH").Wrap(err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return p, nil, nil, errInvalidHash("invalid hash key length: %d", len(key))
	}

	p = argon2Params{
		memory:  memory,
		time:    time,
		threads: uint8(threads),
		keyLen:  uint32(len(key)),
	}
	return p, salt, key, nil
}

func errInvalidHash(format string, args ...any) error {
	return oops.Code("ACCOUNT_INVALID_HASH").Errorf(format, args...)
}
