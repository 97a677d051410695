// Package secure implements the password envelope and access-token minting.
//
// Passwords travel as base64 sealed boxes (curve25519 + xsalsa20-poly1305)
// encrypted to the server's public key. The key pair is provisioned once: it
// is generated on first server start and the public key is embedded in
// launcher configuration at build time.
package secure

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/box"
)

// Key file names under the server's secure directory.
const (
	PublicKeyFile  = "public.key"
	PrivateKeyFile = "private.key"
)

// KeyPair holds the server's asymmetric envelope keys.
type KeyPair struct {
	Public  *[32]byte
	Private *[32]byte
}

// GenerateKeyPair creates a fresh envelope key pair.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key pair: %w", err)
	}
	return &KeyPair{Public: pub, Private: priv}, nil
}

// LoadOrCreateKeys reads the key pair from dir, generating and persisting a
// new one on first run. The private key file is written 0600.
func LoadOrCreateKeys(dir string) (*KeyPair, error) {
	pubPath := filepath.Join(dir, PublicKeyFile)
	privPath := filepath.Join(dir, PrivateKeyFile)

	pubRaw, pubErr := os.ReadFile(pubPath)
	privRaw, privErr := os.ReadFile(privPath)
	if pubErr == nil && privErr == nil {
		pub, err := decodeKey(string(pubRaw))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", PublicKeyFile, err)
		}
		priv, err := decodeKey(string(privRaw))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", PrivateKeyFile, err)
		}
		return &KeyPair{Public: pub, Private: priv}, nil
	}
	if !os.IsNotExist(pubErr) && pubErr != nil {
		return nil, fmt.Errorf("read %s: %w", PublicKeyFile, pubErr)
	}
	if !os.IsNotExist(privErr) && privErr != nil {
		return nil, fmt.Errorf("read %s: %w", PrivateKeyFile, privErr)
	}

	pair, err := GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(pubPath, []byte(EncodeKey(pair.Public)), 0644); err != nil {
		return nil, fmt.Errorf("write %s: %w", PublicKeyFile, err)
	}
	if err := os.WriteFile(privPath, []byte(EncodeKey(pair.Private)), 0600); err != nil {
		return nil, fmt.Errorf("write %s: %w", PrivateKeyFile, err)
	}
	return pair, nil
}

// EncodeKey renders a key as standard base64.
func EncodeKey(key *[32]byte) string {
	return base64.StdEncoding.EncodeToString(key[:])
}

// decodeKey parses a base64 32-byte key.
func decodeKey(s string) (*[32]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("key must be 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

// ParsePublicKey parses the base64 public key embedded in launcher config.
func ParsePublicKey(s string) (*[32]byte, error) {
	return decodeKey(s)
}

// EncryptPassword seals a password to the server public key and returns the
// base64 wire form.
func EncryptPassword(publicKey *[32]byte, password string) (string, error) {
	sealed, err := box.SealAnonymous(nil, []byte(password), publicKey, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("seal password: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptPassword opens a base64 sealed password with the server key pair.
func DecryptPassword(pair *KeyPair, encrypted string) (string, error) {
	sealed, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("decode password envelope: %w", err)
	}
	plain, ok := box.OpenAnonymous(nil, sealed, pair.Public, pair.Private)
	if !ok {
		return "", fmt.Errorf("password envelope does not open with the server key")
	}
	return string(plain), nil
}

// NewAccessToken mints a session access token: the lowercase hex MD5 of
// three concatenated random decimal integers. The shape is kept for
// backward protocol compatibility; the value is opaque to both peers.
func NewAccessToken() string {
	var buf [24]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("read random for access token: %v", err))
	}
	seed := fmt.Sprintf("%d%d%d",
		binary.LittleEndian.Uint64(buf[0:8]),
		binary.LittleEndian.Uint64(buf[8:16]),
		binary.LittleEndian.Uint64(buf[16:24]),
	)
	sum := md5.Sum([]byte(seed))
	return hex.EncodeToString(sum[:])
}
