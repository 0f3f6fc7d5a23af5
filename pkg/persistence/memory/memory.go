package memory

import (
	"fmt"
	"sync"

	"github.com/Layr-Labs/eigenx-typed-signer/pkg/persistence"
	"github.com/ethereum/go-ethereum/common"
)

// MemoryPersistence is an in-memory implementation of ISignerPersistence.
//
// All data is stored in memory and will be lost when the process exits.
// Thread-safe using sync.RWMutex for concurrent access.
// Copies data to prevent external mutation.
type MemoryPersistence struct {
	mu sync.RWMutex

	// lowercase address -> classification
	classifications map[string]*persistence.AccountClassification

	// session id -> record
	records map[string]*persistence.SessionRecord

	closed bool
}

// NewMemoryPersistence creates a new in-memory persistence layer.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{
		classifications: make(map[string]*persistence.AccountClassification),
		records:         make(map[string]*persistence.SessionRecord),
	}
}

// SaveAccountClassification caches an account classification.
func (m *MemoryPersistence) SaveAccountClassification(classification *persistence.AccountClassification) error {
	if classification == nil {
		return fmt.Errorf("cannot save nil AccountClassification")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	c := *classification
	c.Address = persistence.AddressKey(common.HexToAddress(classification.Address))
	m.classifications[c.Address] = &c
	return nil
}

// LoadAccountClassification retrieves a cached classification.
func (m *MemoryPersistence) LoadAccountClassification(address common.Address) (*persistence.AccountClassification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	c, exists := m.classifications[persistence.AddressKey(address)]
	if !exists {
		return nil, nil // Not found is not an error
	}
	cp := *c
	return &cp, nil
}

// SaveSessionRecord persists a session record.
func (m *MemoryPersistence) SaveSessionRecord(record *persistence.SessionRecord) error {
	if record == nil {
		return fmt.Errorf("cannot save nil SessionRecord")
	}
	if record.SessionId == "" {
		return fmt.Errorf("cannot save SessionRecord without a session id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	r := *record
	m.records[r.SessionId] = &r
	return nil
}

// LoadSessionRecord retrieves a session record by id.
func (m *MemoryPersistence) LoadSessionRecord(sessionId string) (*persistence.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	r, exists := m.records[sessionId]
	if !exists {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

// ListSessionRecords returns all session records sorted by finish time.
func (m *MemoryPersistence) ListSessionRecords() ([]*persistence.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, fmt.Errorf("persistence layer is closed")
	}

	result := make([]*persistence.SessionRecord, 0, len(m.records))
	for _, r := range m.records {
		cp := *r
		result = append(result, &cp)
	}
	persistence.SortSessionRecords(result)
	return result, nil
}

// DeleteSessionRecord removes a session record.
func (m *MemoryPersistence) DeleteSessionRecord(sessionId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	delete(m.records, sessionId)
	return nil
}

// Close shuts down the persistence layer.
func (m *MemoryPersistence) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// HealthCheck verifies the persistence layer is operational.
func (m *MemoryPersistence) HealthCheck() error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return fmt.Errorf("persistence layer is closed")
	}

	return nil
}
