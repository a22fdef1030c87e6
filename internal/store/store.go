// Package store persists captured signals and their decodes in SQLite.
package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/sweeney/rf-sniffer/internal/protocol"
	"github.com/sweeney/rf-sniffer/internal/pulse"
	"github.com/sweeney/rf-sniffer/internal/radio"
)

// ErrNotFound is returned when no capture matches.
var ErrNotFound = errors.New("store: capture not found")

// Metadata describes where and when a signal was captured.
type Metadata struct {
	CreatedAt time.Time
	Params    radio.Params
	// Code is nil for undecoded captures.
	Code *protocol.Code
}

// Capture is one stored signal.
type Capture struct {
	ID string
	Metadata
	Signal pulse.Signal
}

// Store is the captures database.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open creates dir if needed and opens the database inside it.
func Open(dir string) (*Store, error) {
	db, err := openDB(dir)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, entropy: ulid.Monotonic(rand.Reader, 0)}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// newID returns a ULID that sorts after every ID this store issued before.
func (s *Store) newID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), s.entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Save stores sig and returns its ID.
func (s *Store) Save(sig pulse.Signal, meta Metadata) (string, error) {
	if len(sig) == 0 {
		return "", errors.New("store: empty signal")
	}
	id, err := s.newID()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	if meta.CreatedAt.IsZero() {
		meta.CreatedAt = time.Now()
	}

	var proto, codeJSON sql.NullString
	if meta.Code != nil {
		b, err := json.Marshal(meta.Code)
		if err != nil {
			return "", fmt.Errorf("encode code: %w", err)
		}
		proto = sql.NullString{String: meta.Code.Protocol, Valid: true}
		codeJSON = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.Exec(`
		INSERT INTO captures (id, created_at, frequency_mhz, preset, protocol, pulse_count, pulses, code_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, meta.CreatedAt.UnixNano(), meta.Params.FrequencyMHz, meta.Params.Preset,
		proto, len(sig), sig.String(), codeJSON)
	if err != nil {
		return "", fmt.Errorf("insert capture: %w", err)
	}
	return id, nil
}

const selectCapture = `SELECT id, created_at, frequency_mhz, preset, pulses, code_json FROM captures`

type scanner interface {
	Scan(dest ...any) error
}

func scanCapture(row scanner) (*Capture, error) {
	var (
		c        Capture
		created  int64
		pulses   string
		codeJSON sql.NullString
	)
	if err := row.Scan(&c.ID, &created, &c.Params.FrequencyMHz, &c.Params.Preset, &pulses, &codeJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan capture: %w", err)
	}
	c.CreatedAt = time.Unix(0, created)

	sig, err := pulse.Parse(pulses)
	if err != nil {
		return nil, fmt.Errorf("capture %s: %w", c.ID, err)
	}
	c.Signal = sig

	if codeJSON.Valid {
		var code protocol.Code
		if err := json.Unmarshal([]byte(codeJSON.String), &code); err != nil {
			return nil, fmt.Errorf("capture %s: decode code: %w", c.ID, err)
		}
		c.Code = &code
	}
	return &c, nil
}

// Get returns the capture with id.
func (s *Store) Get(id string) (*Capture, error) {
	return scanCapture(s.db.QueryRow(selectCapture+` WHERE id = ?`, id))
}

// Latest returns the most recently saved capture.
func (s *Store) Latest() (*Capture, error) {
	return scanCapture(s.db.QueryRow(selectCapture + ` ORDER BY id DESC LIMIT 1`))
}

// List returns up to limit captures, newest first. A non-positive limit
// returns all of them.
func (s *Store) List(limit int) ([]Capture, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(selectCapture+` ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list captures: %w", err)
	}
	defer rows.Close()

	var out []Capture
	for rows.Next() {
		c, err := scanCapture(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
