// Package backend selects and constructs the configured store.
package backend

import (
	"fmt"

	"cashflow/internal/config"
	"cashflow/internal/store"
)

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result bundles a constructed store with its cleanup.
type Result struct {
	Store   store.Store
	Cleanup CleanupFunc
}

type Type string

const (
	Memory    Type = "memory"
	SQLite    Type = "sqlite"
	Firestore Type = "firestore"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Firestore:
		return true
	default:
		return false
	}
}

// Config holds what backend construction needs.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Firestore specific
	FirestoreProjectID   string
	FirestoreCredentials string
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	return Config{
		Type:                 t,
		SQLiteDBPath:         appConfig.SQLiteDBPath,
		FirestoreProjectID:   appConfig.FirestoreProjectID,
		FirestoreCredentials: appConfig.FirestoreCredentials,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case SQLite:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case Firestore:
		if c.FirestoreProjectID == "" {
			return fmt.Errorf("Firestore project id is required for firestore backend")
		}
	case Memory:
		// nothing to validate
	}
	return nil
}
