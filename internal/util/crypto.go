package util

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// HashPassword returns a bcrypt hash of a business login password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
func CheckPassword(password, stored string) bool {
	if password == "" || stored == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// RandomString returns n URL-safe random characters (secrets, tokens).
func RandomString(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:n], nil
}

// ----------------- AES-256-GCM (backups, audit log) -----------------

const (
	saltSize   = 16
	kdfRounds  = 100_000
	aesKeySize = 32
)

func deriveKey(keyStr string, salt []byte) []byte {
	return pbkdf2.Key([]byte(keyStr), salt, kdfRounds, aesKeySize, sha256.New)
}

func newGCM(keyStr string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(keyStr, salt))
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return aesgcm, nil
}

// EncryptAES encrypts with AES-256-GCM under a pbkdf2-derived key and
// returns salt+nonce+ciphertext.
func EncryptAES(keyStr string, plaintext []byte) ([]byte, error) {
	if keyStr == "" {
		return nil, fmt.Errorf("encryption key is empty")
	}
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("salt: %w", err)
	}
	aesgcm, err := newGCM(keyStr, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plaintext)+aesgcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	return aesgcm.Seal(out, nonce, plaintext, nil), nil
}

// DecryptAES reverses EncryptAES; data must be salt+nonce+ciphertext.
func DecryptAES(keyStr string, data []byte) ([]byte, error) {
	if len(data) < saltSize {
		return nil, fmt.Errorf("cipher too short")
	}
	aesgcm, err := newGCM(keyStr, data[:saltSize])
	if err != nil {
		return nil, err
	}

	data = data[saltSize:]
	ns := aesgcm.NonceSize()
	if len(data) < ns {
		return nil, fmt.Errorf("cipher too short")
	}
	nonce, ciphertext := data[:ns], data[ns:]

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

// EncryptString is EncryptAES with base64 output, for text columns.
func EncryptString(keyStr, plaintext string) (string, error) {
	enc, err := EncryptAES(keyStr, []byte(plaintext))
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(enc), nil
}

func DecryptString(keyStr, encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	plain, err := DecryptAES(keyStr, raw)
	if err != nil {
		return "", err
	}
	return string(plain), nil
}
