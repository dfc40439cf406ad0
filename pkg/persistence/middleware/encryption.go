package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/stategraph/pkg/domain"
	"github.com/aretw0/stategraph/pkg/ports"
)

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte

	// Codec serializes the state before encryption. Defaults to domain.NewCodec().
	Codec *domain.Codec
}

type encryptionMiddleware struct {
	next   ports.CheckpointStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts checkpoints using AES-GCM.
// The inner store receives an envelope: the bookkeeping fields (thread, step,
// node, time) stay readable, the state and writes are sealed in a single
// domain.KeyEncrypted field.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	if config.Codec == nil {
		config.Codec = domain.NewCodec()
	}
	return func(next ports.CheckpointStore) ports.CheckpointStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, cp domain.Checkpoint) error {
	plainText, err := m.config.Codec.MarshalCheckpoint(cp)
	if err != nil {
		return fmt.Errorf("failed to marshal checkpoint: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt checkpoint: %w", err)
	}

	envelope := domain.Checkpoint{
		ID:        cp.ID,
		ThreadID:  cp.ThreadID,
		Step:      cp.Step,
		Node:      cp.Node,
		CreatedAt: cp.CreatedAt,
		State: domain.State{
			domain.KeyEncrypted: base64.StdEncoding.EncodeToString(ciphertext),
		},
	}
	return m.next.Save(ctx, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, threadID string) (*domain.Checkpoint, error) {
	envelope, err := m.next.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	cp, err := m.open(*envelope)
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

func (m *encryptionMiddleware) History(ctx context.Context, threadID string) ([]domain.Checkpoint, error) {
	envelopes, err := m.next.History(ctx, threadID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Checkpoint, 0, len(envelopes))
	for _, env := range envelopes {
		cp, err := m.open(env)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", env.Step, err)
		}
		out = append(out, cp)
	}
	return out, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, threadID string) error {
	return m.next.Delete(ctx, threadID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *encryptionMiddleware) open(envelope domain.Checkpoint) (domain.Checkpoint, error) {
	encryptedStr, ok := envelope.State[domain.KeyEncrypted].(string)
	if !ok {
		// Fail secure: with encryption configured, plain checkpoints are rejected.
		return domain.Checkpoint{}, errors.New("checkpoint is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return domain.Checkpoint{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.Checkpoint{}, fmt.Errorf("failed to decrypt checkpoint: %w", err)
	}

	cp, err := m.config.Codec.UnmarshalCheckpoint(plainText)
	if err != nil {
		return domain.Checkpoint{}, fmt.Errorf("failed to unmarshal decrypted checkpoint: %w", err)
	}
	return cp, nil
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
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
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
