package persistence

import "github.com/ethereum/go-ethereum/common"

// ISignerPersistence defines the interface for state the signer keeps across
// sessions and restarts. All implementations must be thread-safe as the
// classifier and the orchestrator use them concurrently.
//
// The interface supports:
// - Account classification caching (one lookup per address)
// - Session records for finished or abandoned signing sessions
// - Lifecycle management (close, health check)
type ISignerPersistence interface {
	// Account Classification

	// SaveAccountClassification caches the account kind of an address.
	// Overwrites any existing entry for the same address.
	SaveAccountClassification(classification *AccountClassification) error

	// LoadAccountClassification retrieves a cached classification.
	// Returns nil if the address was never classified, error only on storage failure.
	LoadAccountClassification(address common.Address) (*AccountClassification, error)

	// Session Records

	// SaveSessionRecord persists the outcome of a signing session, keyed by session id.
	// Overwrites any existing record with the same id.
	SaveSessionRecord(record *SessionRecord) error

	// LoadSessionRecord retrieves a session record by id.
	// Returns nil if the record doesn't exist, error only on storage failure.
	LoadSessionRecord(sessionId string) (*SessionRecord, error)

	// ListSessionRecords returns all records sorted by FinishedAt (ascending).
	// Returns empty slice if no records exist, error only on storage failure.
	ListSessionRecords() ([]*SessionRecord, error)

	// DeleteSessionRecord removes a session record.
	// Idempotent - returns nil if the record doesn't exist.
	DeleteSessionRecord(sessionId string) error

	// Lifecycle Management

	// Close cleanly shuts down the persistence layer.
	// Idempotent - safe to call multiple times.
	// After Close(), all other operations should return errors.
	Close() error

	// HealthCheck verifies the persistence layer is operational.
	// Returns nil if healthy, error describing the problem if not.
	HealthCheck() error
}
