package accountstore

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/MrEthical07/sessionauth"
)

// Memory is an in-process AccountProvider for tests and local runs.
type Memory struct {
	mu      sync.RWMutex
	byID    map[string]sessionauth.Account
	byEmail map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		byID:    make(map[string]sessionauth.Account),
		byEmail: make(map[string]string),
	}
}

func (m *Memory) AccountByEmail(_ context.Context, email string) (sessionauth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byEmail[normalizeEmail(email)]
	if !ok {
		return sessionauth.Account{}, sessionauth.ErrAccountNotFound
	}
	return m.byID[id], nil
}

func (m *Memory) AccountByID(_ context.Context, id string) (sessionauth.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.byID[id]
	if !ok {
		return sessionauth.Account{}, sessionauth.ErrAccountNotFound
	}
	return a, nil
}

func (m *Memory) Create(_ context.Context, email, passwordHash string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = normalizeEmail(email)
	if _, ok := m.byEmail[email]; ok {
		return "", ErrDuplicateEmail
	}
	id := uuid.NewString()
	m.byID[id] = sessionauth.Account{ID: id, Email: email, PasswordHash: passwordHash, Active: true}
	m.byEmail[email] = id
	return id, nil
}

func (m *Memory) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return sessionauth.ErrAccountNotFound
	}
	a.Active = active
	m.byID[id] = a
	return nil
}
