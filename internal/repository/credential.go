// Package repository provides database access for cached broker data and
// encrypted credential storage.
package repository

import (
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"wealthlink/internal/broker"
	"wealthlink/internal/database"
)

// CredentialRepository stores broker credentials encrypted at rest. It
// implements broker.TokenStorage.
type CredentialRepository struct {
	db        *database.DB
	encryptor *broker.Encryptor
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db *database.DB, encryptor *broker.Encryptor) *CredentialRepository {
	return &CredentialRepository{db: db, encryptor: encryptor}
}

// Save encrypts and upserts a credential entry. Last write wins.
func (r *CredentialRepository) Save(key, value string) error {
	ciphertext, nonce, err := r.encryptor.Encrypt(value, key)
	if err != nil {
		return fmt.Errorf("encrypting credential %q: %w", key, err)
	}

	_, err = r.db.Exec(`
		INSERT INTO credentials (key, ciphertext, nonce, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			ciphertext = excluded.ciphertext,
			nonce = excluded.nonce,
			updated_at = excluded.updated_at
	`, key, base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(nonce), time.Now())
	return err
}

// Read decrypts and returns a credential entry. An absent key returns an
// empty string and a nil error.
func (r *CredentialRepository) Read(key string) (string, error) {
	var ciphertextB64, nonceB64 string
	err := r.db.QueryRow(`
		SELECT ciphertext, nonce FROM credentials WHERE key = ?
	`, key).Scan(&ciphertextB64, &nonceB64)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return "", fmt.Errorf("decoding credential %q: %w", key, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(nonceB64)
	if err != nil {
		return "", fmt.Errorf("decoding credential %q: %w", key, err)
	}

	value, err := r.encryptor.Decrypt(ciphertext, nonce, key)
	if err != nil {
		return "", fmt.Errorf("decrypting credential %q: %w", key, err)
	}
	return value, nil
}

// Delete removes a credential entry. Deleting an absent key is not an error.
func (r *CredentialRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM credentials WHERE key = ?`, key)
	return err
}
