package fund

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"FlipSentinel/internal/model"
)

// ErrInvalidBudget is returned when a non-positive bankroll is set.
var ErrInvalidBudget = errors.New("budget must be positive")

// Manager owns the trading bankroll with concurrency safety.
type Manager struct {
	mu       sync.Mutex
	state    *model.BankrollState
	filePath string
}

// NewManager creates a Manager, loading or initializing state from disk.
func NewManager(filePath string, defaultBudget int64) (*Manager, error) {
	state, err := LoadState(filePath)
	if err != nil {
		return nil, fmt.Errorf("load bankroll: %w", err)
	}

	if state.Budget <= 0 {
		if defaultBudget <= 0 {
			return nil, ErrInvalidBudget
		}
		state.Budget = defaultBudget
	}

	m := &Manager{state: state, filePath: filePath}
	if err := m.save(); err != nil {
		return nil, fmt.Errorf("save bankroll: %w", err)
	}
	return m, nil
}

// GetState returns a copy of the current bankroll state.
func (m *Manager) GetState() model.BankrollState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.state
}

// Budget returns the amount available for the next portfolio.
func (m *Manager) Budget() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Budget
}

// SetBudget replaces the bankroll.
func (m *Manager) SetBudget(budget int64) error {
	if budget <= 0 {
		return ErrInvalidBudget
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.Budget = budget
	if err := m.save(); err != nil {
		return fmt.Errorf("save bankroll: %w", err)
	}
	return nil
}

// RecordPortfolio remembers the latest recommended portfolio.
func (m *Manager) RecordPortfolio(runID string, p *model.Portfolio, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state.LastRunID = runID
	m.state.LastPortfolioCost = p.TotalCost
	m.state.LastProfitAfterTax = p.TotalProfitAfterTax
	m.state.LastRunAt = at

	if err := m.save(); err != nil {
		log.Printf("[ERROR] failed to save bankroll state: %v", err)
	}
}

func (m *Manager) save() error {
	return SaveState(m.filePath, m.state)
}
