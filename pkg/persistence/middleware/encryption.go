package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/roteiro/pkg/ports"
)

// envelopePrefix marks encrypted values so a backend opened without the
// middleware fails loudly instead of handing ciphertext to the codec.
var envelopePrefix = []byte("enc1:")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.Storage
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts every stored
// value using AES-GCM. Keys stay in plaintext; only values are sealed.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.Storage) ports.Storage {
		return &encryptionMiddleware{next: next, config: config}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, key string, value []byte) error {
	ciphertext, err := encrypt(value, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt value: %w", err)
	}
	return m.next.Save(ctx, key, append(append([]byte{}, envelopePrefix...), ciphertext...))
}

func (m *encryptionMiddleware) Load(ctx context.Context, key string) ([]byte, error) {
	stored, err := m.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	if len(stored) < len(envelopePrefix) || string(stored[:len(envelopePrefix)]) != string(envelopePrefix) {
		// Fail secure: once encryption is configured, plaintext records
		// are treated as corrupt rather than silently passed through.
		return nil, errors.New("value is missing the encryption envelope")
	}

	plain, err := decryptWithRotation(stored[len(envelopePrefix):], m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt value: %w", err)
	}
	return plain, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, key string) error {
	return m.next.Delete(ctx, key)
}

func (m *encryptionMiddleware) Keys(ctx context.Context, prefix string) ([]string, error) {
	return m.next.Keys(ctx, prefix)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}

	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}

	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	ciphertextBytes := ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertextBytes, nil)
}
