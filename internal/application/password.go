package application

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

var (
	ErrInvalidKeyHash         = errors.New("invalid admin key hash format")
	ErrIncompatibleKeyVersion = errors.New("incompatible admin key hash version")
)

type Argon2idParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultArgon2idParams = Argon2idParams{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// HashAdminKey returns an encoded argon2id hash of key suitable for
// ADMIN_KEY_HASH.
func HashAdminKey(key string, params Argon2idParams) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: admin key must not be empty", ErrInvalidArgument)
	}
	salt := make([]byte, params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(key), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLength)

	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	// $argon2id$v=19$m=...,t=...,p=...$salt$hash
	format := "$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s"
	return fmt.Sprintf(format, argon2.Version, params.Memory, params.Iterations, params.Parallelism, b64Salt, b64Hash), nil
}

// decodedKeyHash is a parsed HashAdminKey encoding.
type decodedKeyHash struct {
	params Argon2idParams
	salt   []byte
	hash   []byte
}

// decodeKeyHash parses encoded and rejects parameters argon2 cannot run with.
func decodeKeyHash(encoded string) (decodedKeyHash, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return decodedKeyHash{}, ErrInvalidKeyHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return decodedKeyHash{}, ErrInvalidKeyHash
	}
	if version != argon2.Version {
		return decodedKeyHash{}, ErrIncompatibleKeyVersion
	}

	var d decodedKeyHash
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &d.params.Memory, &d.params.Iterations, &d.params.Parallelism); err != nil {
		return decodedKeyHash{}, ErrInvalidKeyHash
	}
	if d.params.Memory == 0 || d.params.Iterations == 0 || d.params.Parallelism == 0 {
		return decodedKeyHash{}, ErrInvalidKeyHash
	}

	var err error
	if d.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(d.salt) == 0 {
		return decodedKeyHash{}, ErrInvalidKeyHash
	}
	if d.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(d.hash) == 0 {
		return decodedKeyHash{}, ErrInvalidKeyHash
	}
	return d, nil
}

func (d decodedKeyHash) matches(key string) bool {
	p := d.params
	comparisonHash := argon2.IDKey([]byte(key), d.salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(d.hash)))
	return subtle.ConstantTimeCompare(d.hash, comparisonHash) == 1
}

// VerifyAdminKey checks key against an encoded hash produced by HashAdminKey.
func VerifyAdminKey(encoded, key string) error {
	decoded, err := decodeKeyHash(encoded)
	if err != nil {
		return err
	}
	if decoded.matches(key) {
		return nil
	}
	return ErrInvalidAdminKey
}

// AdminGuard verifies admin keys against a configured hash. A guard with an
// empty hash accepts every request.
type AdminGuard struct {
	hash *decodedKeyHash
}

// NewAdminGuard returns a guard for hash. The hash is parsed once here so a
// malformed value fails at startup rather than on each request.
func NewAdminGuard(hash string) (*AdminGuard, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return &AdminGuard{}, nil
	}
	decoded, err := decodeKeyHash(hash)
	if err != nil {
		return nil, err
	}
	return &AdminGuard{hash: &decoded}, nil
}

// Enabled reports whether a hash is configured.
func (g *AdminGuard) Enabled() bool {
	return g != nil && g.hash != nil
}

// Verify checks key. It always succeeds when the guard is disabled.
func (g *AdminGuard) Verify(key string) error {
	if !g.Enabled() {
		return nil
	}
	if key == "" || !g.hash.matches(key) {
		return ErrInvalidAdminKey
	}
	return nil
}
