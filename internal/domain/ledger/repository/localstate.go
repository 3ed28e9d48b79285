package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
)

// LocalStateKey is the key the dashboard blob is stored under.
const LocalStateKey = "finance_dashboard_data"

// RecordedPayment is a payment confirmed by the user, with the obligation it settled.
type RecordedPayment struct {
	ledger.Payment
	Source     ledger.ObligationSource `json:"source"`
	DueDate    *time.Time              `json:"due_date,omitempty"`
	DocumentID string                  `json:"document_id,omitempty"`
	RecordedAt time.Time               `json:"recorded_at"`
}

// ObligationKey is the key of the obligation the payment settled, empty when
// the due date is unknown.
func (p RecordedPayment) ObligationKey() string {
	if p.DueDate == nil {
		return ""
	}
	return ledger.PendingObligation{Source: p.Source, DueDate: *p.DueDate}.Key()
}

// LocalData is the persisted blob.
type LocalData struct {
	Services []ledger.Service  `json:"services"`
	Payments []RecordedPayment `json:"payments"`
}

// LocalState persists user-confirmed payments and service overrides as a
// single JSON blob in SQLite.
type LocalState struct {
	mu  sync.Mutex
	db  *sql.DB
	now func() time.Time
	// last issued id, to keep PAY-<millis> unique within a process
	lastID int64
}

// OpenLocalState opens (or creates) the SQLite file at path.
func OpenLocalState(path string) (*LocalState, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}

	return &LocalState{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *LocalState) Close() error {
	return s.db.Close()
}

// Load returns the stored blob, empty when nothing was saved yet.
func (s *LocalState) Load(ctx context.Context) (LocalData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// SavePayment stores p, assigning an id of the form PAY-<unix millis>.
func (s *LocalState) SavePayment(ctx context.Context, p RecordedPayment) (RecordedPayment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return p, err
	}

	now := s.now()
	millis := now.UnixMilli()
	if millis <= s.lastID {
		millis = s.lastID + 1
	}
	s.lastID = millis

	p.ID = fmt.Sprintf("PAY-%d", millis)
	p.RecordedAt = now
	data.Payments = append(data.Payments, p)

	if err := s.store(ctx, data); err != nil {
		return p, err
	}
	return p, nil
}

// Payments returns every recorded payment in insertion order.
func (s *LocalState) Payments(ctx context.Context) ([]RecordedPayment, error) {
	data, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return data.Payments, nil
}

// UpsertService replaces the stored service with the same id, or appends it.
func (s *LocalState) UpsertService(ctx context.Context, svc ledger.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range data.Services {
		if data.Services[i].ID == svc.ID {
			data.Services[i] = svc
			replaced = true
			break
		}
	}
	if !replaced {
		data.Services = append(data.Services, svc)
	}
	return s.store(ctx, data)
}

// Clear removes the blob.
func (s *LocalState) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, LocalStateKey); err != nil {
		return fmt.Errorf("failed to clear local state: %w", err)
	}
	return nil
}

func (s *LocalState) load(ctx context.Context) (LocalData, error) {
	data := LocalData{Services: []ledger.Service{}, Payments: []RecordedPayment{}}

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, LocalStateKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return data, nil
	}
	if err != nil {
		return data, fmt.Errorf("failed to read local state: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return data, fmt.Errorf("failed to decode local state: %w", err)
	}
	return data, nil
}

func (s *LocalState) store(ctx context.Context, data LocalData) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode local state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		LocalStateKey, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to write local state: %w", err)
	}
	return nil
}
