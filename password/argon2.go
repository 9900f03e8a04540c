// Package password hashes credentials with argon2id in PHC string format and
// enforces the password policy applied before any token is consumed.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	algorithmID = "argon2id"

	defaultMemoryKB    uint32 = 64 * 1024
	defaultTimeCost    uint32 = 3
	defaultParallelism uint8  = 2
	defaultSaltLength  uint32 = 16
	defaultKeyLength   uint32 = 32
)

var ErrMalformedHash = errors.New("malformed password hash")

type parsedPHC struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
	keyLength   uint32
}

// HashArgon2id hashes password with the default parameters and returns a PHC
// string ("$argon2id$v=19$m=...,t=...,p=...$salt$hash").
func HashArgon2id(password string) (string, error) {
	salt := make([]byte, defaultSaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, defaultTimeCost, defaultMemoryKB, defaultParallelism, defaultKeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID,
		argon2.Version,
		defaultMemoryKB,
		defaultTimeCost,
		defaultParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify reports whether password matches the PHC-encoded hash. The compare
// is constant time over the derived keys.
func Verify(password, encodedHash string) (bool, error) {
	parsed, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}
	computed := argon2.IDKey([]byte(password), parsed.salt, parsed.time, parsed.memory, parsed.parallelism, parsed.keyLength)
	return subtle.ConstantTimeCompare(computed, parsed.hash) == 1, nil
}

// Validate enforces the password policy: at least 8 bytes, at most 128, with
// at least one letter and one digit.
func Validate(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if len(password) > 128 {
		return errors.New("password must be at most 128 characters")
	}
	var hasLetter, hasDigit bool
	for i := 0; i < len(password); i++ {
		c := password[i]
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			hasLetter = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain a letter and a digit")
	}
	return nil
}

func parsePHC(encoded string) (*parsedPHC, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != algorithmID {
		return nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, ErrMalformedHash
	}
	if version != argon2.Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedHash, version)
	}

	params := strings.Split(parts[3], ",")
	if len(params) != 3 {
		return nil, ErrMalformedHash
	}
	mem, err := parseParam(params[0], "m")
	if err != nil {
		return nil, err
	}
	timeCost, err := parseParam(params[1], "t")
	if err != nil {
		return nil, err
	}
	par, err := parseParam(params[2], "p")
	if err != nil {
		return nil, err
	}
	if par > 255 {
		return nil, ErrMalformedHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, ErrMalformedHash
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, ErrMalformedHash
	}

	return &parsedPHC{
		memory:      uint32(mem),
		time:        uint32(timeCost),
		parallelism: uint8(par),
		salt:        salt,
		hash:        hash,
		keyLength:   uint32(len(hash)),
	}, nil
}

func parseParam(s, name string) (uint64, error) {
	prefix := name + "="
	if !strings.HasPrefix(s, prefix) {
		return 0, ErrMalformedHash
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(s, prefix), 10, 32)
	if err != nil {
		return 0, ErrMalformedHash
	}
	return v, nil
}
