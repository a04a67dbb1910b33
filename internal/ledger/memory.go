package ledger

import (
	"context"
	"sync"
)

// Memory is an in-process TokenLedger used by tests and single-node
// deployments. Custody updates happen under one mutex, which satisfies the
// all-or-nothing contract trivially.
type Memory struct {
	mu      sync.RWMutex
	custody map[string]string
}

var _ TokenLedger = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{custody: make(map[string]string)}
}

func (m *Memory) Create(_ context.Context, assetID, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.custody[assetID]; ok {
		return ErrAssetExists
	}
	m.custody[assetID] = owner
	return nil
}

func (m *Memory) CustodyOf(_ context.Context, assetID string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	holder, ok := m.custody[assetID]
	if !ok {
		return "", ErrUnknownAsset
	}
	return holder, nil
}

func (m *Memory) TransferCustody(_ context.Context, assetID, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	holder, ok := m.custody[assetID]
	if !ok {
		return ErrUnknownAsset
	}
	if holder != from {
		return ErrNotCustodian
	}
	m.custody[assetID] = to
	return nil
}
