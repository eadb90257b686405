// Package extcrypto provides hashing and identifier functions.
//
// Security note: MD5 and SHA-1 are provided for compatibility/fingerprinting only
// and should NOT be used for cryptographic security purposes.
package extcrypto

import (
	"context"
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // intentional: provided for non-security fingerprinting
	"crypto/sha1" //nolint:gosec // intentional
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"strings"

	"github.com/google/uuid"

	"github.com/sandrolain/gomathex/pkg/ext/extutil"
	"github.com/sandrolain/gomathex/pkg/functions"
	"github.com/sandrolain/gomathex/pkg/types"
)

// All returns all cryptographic function definitions.
func All() []functions.Definition {
	return []functions.Definition{
		UUID(),
		SHA256(),
		CRC32(),
		Hash(),
		HMAC(),
	}
}

// UUID returns the definition for uuid(), a random version 4 UUID.
func UUID() functions.Definition {
	return functions.Definition{
		Name:      "uuid",
		Signature: "<:s>",
		Impure:    true,
		Fn: func(_ context.Context, _ ...types.Value) (types.Value, error) {
			id, err := uuid.NewRandom()
			if err != nil {
				return types.Value{}, fmt.Errorf("uuid: %w", err)
			}
			return types.String(id.String()), nil
		},
	}
}

// SHA256 returns the definition for sha256(data), the digest as a byte
// array. Strings are hashed as UTF-8.
func SHA256() functions.Definition {
	return functions.Definition{
		Name:      "sha256",
		Signature: "<(sy):y>",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			sum := sha256.Sum256(raw(args[0]))
			return types.Bytes(sum[:]), nil
		},
	}
}

// CRC32 returns the definition for crc32(data), the IEEE checksum.
func CRC32() functions.Definition {
	return functions.Definition{
		Name:      "crc32",
		Signature: "<(sy):i>",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			return types.Int(int64(crc32.ChecksumIEEE(raw(args[0])))), nil
		},
	}
}

// Hash returns the definition for hash(str, algorithm).
// Supported algorithms: "md5", "sha1", "sha256", "sha384", "sha512".
// Returns a lowercase hex-encoded digest.
func Hash() functions.Definition {
	return functions.Definition{
		Name:      "hash",
		Signature: "<(sy)s:s>",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			newHash, err := hasher(args[1].Str)
			if err != nil {
				return types.Value{}, extutil.Invalid("hash", "%v", err)
			}
			h := newHash()
			h.Write(raw(args[0]))
			return types.String(hex.EncodeToString(h.Sum(nil))), nil
		},
	}
}

// HMAC returns the definition for hmac(str, key, algorithm).
// Returns a lowercase hex-encoded HMAC.
func HMAC() functions.Definition {
	return functions.Definition{
		Name:      "hmac",
		Signature: "<(sy)(sy)s:s>",
		Fn: func(_ context.Context, args ...types.Value) (types.Value, error) {
			newHash, err := hasher(args[2].Str)
			if err != nil {
				return types.Value{}, extutil.Invalid("hmac", "%v", err)
			}
			mac := hmac.New(newHash, raw(args[1]))
			mac.Write(raw(args[0]))
			return types.String(hex.EncodeToString(mac.Sum(nil))), nil
		},
	}
}

func raw(v types.Value) []byte {
	if v.Type == types.TypeByteArray {
		return v.Bytes
	}
	return []byte(v.Str)
}

func hasher(algorithm string) (func() hash.Hash, error) {
	switch strings.ToLower(algorithm) {
	case "md5":
		return md5.New, nil //nolint:gosec
	case "sha1":
		return sha1.New, nil //nolint:gosec
	case "sha256":
		return sha256.New, nil
	case "sha384":
		return sha512.New384, nil
	case "sha512":
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("unsupported algorithm %q; use md5, sha1, sha256, sha384, or sha512", algorithm)
	}
}
