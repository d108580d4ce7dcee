package local

import (
	"context"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strings"

	"github.com/goliatone/go-errors"
	"golang.org/x/crypto/pbkdf2"
)

// SaltAlphabet is the character set salts are drawn from
const SaltAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

const (
	DefaultSaltLength = 128
	DefaultIterations = 10000
	DefaultKeyLength  = 128
	DefaultDigest     = DigestSHA512
)

const (
	DigestSHA1   = "sha1"
	DigestSHA256 = "sha256"
	DigestSHA512 = "sha512"
)

var digests = map[string]func() hash.Hash{
	DigestSHA1:   sha1.New,
	DigestSHA256: sha256.New,
	DigestSHA512: sha512.New,
}

// Hasher derives password hashes with PBKDF2. The zero value is not usable,
// build one with NewHasher.
type Hasher struct {
	iterations int
	keyLength  int
	digest     string
}

// HasherOption configures a Hasher
type HasherOption func(*Hasher)

func WithIterations(n int) HasherOption {
	return func(h *Hasher) {
		h.iterations = n
	}
}

func WithKeyLength(n int) HasherOption {
	return func(h *Hasher) {
		h.keyLength = n
	}
}

func WithDigest(name string) HasherOption {
	return func(h *Hasher) {
		h.digest = strings.ToLower(strings.TrimSpace(name))
	}
}

// NewHasher returns a Hasher using 10000 iterations, 128 byte keys and
// SHA-512 unless overridden.
func NewHasher(opts ...HasherOption) *Hasher {
	h := &Hasher{
		iterations: DefaultIterations,
		keyLength:  DefaultKeyLength,
		digest:     DefaultDigest,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

func (h *Hasher) Iterations() int { return h.iterations }
func (h *Hasher) KeyLength() int  { return h.keyLength }
func (h *Hasher) Digest() string  { return h.digest }

// GenerateSalt returns length characters drawn uniformly from SaltAlphabet
// using crypto/rand. A length <= 0 yields DefaultSaltLength characters.
func GenerateSalt(length int) (string, error) {
	if length <= 0 {
		length = DefaultSaltLength
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read random salt")
	}

	// len(SaltAlphabet) is 64, masking a byte keeps the draw uniform
	for i, b := range buf {
		buf[i] = SaltAlphabet[b&63]
	}

	return string(buf), nil
}

// HashPassword derives the hex encoded key for password and salt
func (h *Hasher) HashPassword(ctx context.Context, password, salt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "context cancelled before hashing")
	}

	fn, err := h.validate()
	if err != nil {
		return "", err
	}

	key := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, h.keyLength, fn)
	return hex.EncodeToString(key), nil
}

// ComparePasswordAndHash hashes password with salt and compares the result
// with hash in constant time. It returns ErrBadPassword on mismatch.
func (h *Hasher) ComparePasswordAndHash(ctx context.Context, password, salt, hash string) error {
	derived, err := h.HashPassword(ctx, password, salt)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(derived), []byte(hash)) != 1 {
		return ErrBadPassword
	}

	return nil
}

func (h *Hasher) validate() (func() hash.Hash, error) {
	if h.iterations <= 0 || h.keyLength <= 0 {
		return nil, ErrInvalidHashParams.Clone().WithMetadata(map[string]any{
			"iterations": h.iterations,
			"key_length": h.keyLength,
		})
	}

	fn, ok := digests[h.digest]
	if !ok {
		return nil, ErrInvalidHashParams.Clone().WithMetadata(map[string]any{
			"digest": h.digest,
		})
	}

	return fn, nil
}
