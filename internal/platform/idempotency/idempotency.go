// Package idempotency records client-supplied Idempotency-Key values so provisioning
// retries replay the original result instead of creating a second resource.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Apurer/retail-ops/internal/shared/failure"
)

// Scopes partition keys per resource type.
const (
	ScopeStores = "stores"
	ScopeAgents = "agents"
)

// ErrConflict indicates the same key was used with a different payload or target.
var ErrConflict = fmt.Errorf("%w: idempotency key reused with a different request", failure.ErrConflict)

// Record ties a key to the resource it created.
type Record struct {
	Scope       string
	Key         string
	RequestHash string
	ResourceID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store persists idempotency records.
type Store interface {
	// Get returns the record for (scope, key), or nil when unknown.
	Get(ctx context.Context, scope, key string) (*Record, error)
	// Save persists the record. An existing record with the same hash and resource is
	// returned as is; a mismatch returns ErrConflict with the stored record.
	Save(ctx context.Context, record Record) (*Record, error)
}

// Fingerprint hashes a normalized request payload. Callers pass a struct with a
// stable field order; maps are encoded with sorted keys by encoding/json.
func Fingerprint(payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Lookup returns the resource id already created for key, or "" when the key is new.
// A known key with a different hash is a conflict.
func Lookup(ctx context.Context, store Store, scope, key, hash string) (string, error) {
	if store == nil || key == "" {
		return "", nil
	}
	existing, err := store.Get(ctx, scope, key)
	if err != nil {
		return "", err
	}
	if existing == nil {
		return "", nil
	}
	if existing.RequestHash != hash {
		return "", ErrConflict
	}
	return existing.ResourceID, nil
}

// Remember stores key → resourceID. It is a no-op without a key.
func Remember(ctx context.Context, store Store, scope, key, hash, resourceID string) error {
	if store == nil || key == "" {
		return nil
	}
	_, err := store.Save(ctx, Record{Scope: scope, Key: key, RequestHash: hash, ResourceID: resourceID})
	if err != nil && !errors.Is(err, ErrConflict) {
		return failure.External("idempotency", err)
	}
	return err
}
