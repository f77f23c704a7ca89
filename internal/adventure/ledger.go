package adventure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// TurnLedger persists how many continuation turns each interactive
// story has taken. The engine itself is stateless; callers load the
// count from here, continue, then record the new count.
type TurnLedger struct {
	mu    sync.Mutex
	path  string
	turns map[string]int
}

// OpenTurnLedger loads the ledger stored under dir, creating an empty
// one when none exists.
func OpenTurnLedger(dir string) (*TurnLedger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	ledger := &TurnLedger{
		path:  filepath.Join(dir, "turns.json"),
		turns: make(map[string]int),
	}

	data, err := os.ReadFile(ledger.path)
	if os.IsNotExist(err) {
		return ledger, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read turn ledger: %w", err)
	}
	if err := json.Unmarshal(data, &ledger.turns); err != nil {
		return nil, fmt.Errorf("parse turn ledger: %w", err)
	}
	return ledger, nil
}

// Turns returns the number of continuations already taken for id.
func (l *TurnLedger) Turns(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.turns[id]
}

// Record stores the turn count for id and persists the ledger.
func (l *TurnLedger) Record(id string, turns int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.turns[id] = turns
	return l.flushLocked()
}

// Forget removes id from the ledger, used when a story is deleted.
func (l *TurnLedger) Forget(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.turns[id]; !ok {
		return nil
	}
	delete(l.turns, id)
	return l.flushLocked()
}

func (l *TurnLedger) flushLocked() error {
	data, err := json.MarshalIndent(l.turns, "", "  ")
	if err != nil {
		return fmt.Errorf("encode turn ledger: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0644); err != nil {
		return fmt.Errorf("write turn ledger: %w", err)
	}
	return nil
}
