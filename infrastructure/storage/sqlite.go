// Package storage implements the engine's store ports on SQLite.
// The (participant, station) uniqueness invariant lives here as a SQL
// constraint, enforced inside the insert transaction so a conflicting
// write can never race past the check.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/healthday/stationrank/internal/domain"
	"github.com/healthday/stationrank/internal/ports"
)

var (
	_ ports.ParticipantStore = (*Store)(nil)
	_ ports.ResultStore      = (*Store)(nil)
	_ ports.ProfileStore     = (*Store)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS participants (
	id            TEXT PRIMARY KEY,
	code          TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	gender        TEXT NOT NULL,
	birth_date    TEXT NOT NULL,
	organisation  TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS station_results (
	id              TEXT PRIMARY KEY,
	participant_id  TEXT NOT NULL REFERENCES participants(id),
	station         TEXT NOT NULL,
	measurements    TEXT NOT NULL,
	score           INTEGER,
	recorded_at     TEXT NOT NULL,
	recorded_by     TEXT NOT NULL,
	UNIQUE (participant_id, station)
);

CREATE TABLE IF NOT EXISTS profiles (
	id    TEXT PRIMARY KEY,
	name  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_results_participant ON station_results (participant_id);
`

// Store is the SQLite-backed implementation of the participant, result,
// and profile stores.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrStoreUnavailable, err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// ReadParticipants implements ports.ParticipantStore.
func (s *Store) ReadParticipants(ctx context.Context) ([]domain.Participant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, code, name, gender, birth_date, organisation
		FROM participants
		ORDER BY code`)
	if err != nil {
		return nil, ports.NewStoreError("read_participants", "", err)
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, ports.NewStoreError("read_participants", "", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// ReadParticipantByCode implements ports.ParticipantStore.
func (s *Store) ReadParticipantByCode(ctx context.Context, code string) (domain.Participant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, code, name, gender, birth_date, organisation
		FROM participants
		WHERE code = ?`, code)

	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Participant{}, fmt.Errorf("%w: code %q", domain.ErrParticipantNotFound, code)
	}
	if err != nil {
		return domain.Participant{}, ports.NewStoreError("read_participant", code, err)
	}
	return p, nil
}

// InsertParticipant records a registration. Registration itself happens
// outside the engine; this exists for seeding and admin tooling.
func (s *Store) InsertParticipant(ctx context.Context, p domain.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, code, name, gender, birth_date, organisation)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Code, p.Name, string(p.Gender), p.BirthDate.Format(time.RFC3339), p.Organisation)
	if err != nil {
		return ports.NewStoreError("insert_participant", p.Code, err)
	}
	return nil
}

// ReadStationResults implements ports.ResultStore.
func (s *Store) ReadStationResults(ctx context.Context, participantID string) ([]domain.StationResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, participant_id, station, measurements, score, recorded_at, recorded_by
		FROM station_results
		WHERE participant_id = ?
		ORDER BY recorded_at`, participantID)
	if err != nil {
		return nil, ports.NewStoreError("read_results", participantID, err)
	}
	defer rows.Close()

	var results []domain.StationResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, ports.NewStoreError("read_results", participantID, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// InsertStationResult implements ports.ResultStore. The result row and
// its canonical score are written in one statement inside a
// transaction, so readers observe them together or not at all. A
// violation of the (participant, station) uniqueness constraint is
// translated into a *domain.DuplicateResultError carrying the existing
// record's identity.
func (s *Store) InsertStationResult(ctx context.Context, result domain.StationResult) error {
	measurements, err := json.Marshal(result.Measurements)
	if err != nil {
		return ports.NewStoreError("insert_result", result.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ports.NewStoreError("insert_result", result.ID, err)
	}
	defer tx.Rollback()

	var score any
	if v, ok := result.Score.Int(); ok {
		score = v
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO station_results (id, participant_id, station, measurements, score, recorded_at, recorded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.ParticipantID, string(result.Station), string(measurements),
		score, result.RecordedAt.UTC().Format(time.RFC3339Nano), result.RecordedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return s.duplicateError(ctx, result.ParticipantID, result.Station)
		}
		return ports.NewStoreError("insert_result", result.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return ports.NewStoreError("insert_result", result.ID, err)
	}
	return nil
}

// DeleteStationResult implements ports.ResultStore.
func (s *Store) DeleteStationResult(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM station_results WHERE id = ?`, id)
	if err != nil {
		return ports.NewStoreError("delete_result", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return ports.NewStoreError("delete_result", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %q", domain.ErrResultNotFound, id)
	}
	return nil
}

// ReadProfiles implements ports.ProfileStore.
func (s *Store) ReadProfiles(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name FROM profiles WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, ports.NewStoreError("read_profiles", "", err)
	}
	defer rows.Close()

	names := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, ports.NewStoreError("read_profiles", "", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// duplicateError reads back the conflicting row so the caller gets the
// existing record's id and timestamp, per the recovery contract.
func (s *Store) duplicateError(ctx context.Context, participantID string, station domain.StationType) error {
	var existingID, recordedAt string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, recorded_at FROM station_results
		WHERE participant_id = ? AND station = ?`,
		participantID, string(station)).Scan(&existingID, &recordedAt)
	if err != nil {
		// The row vanished between the conflict and the read-back
		// (concurrent delete); report the conflict without details.
		return domain.NewDuplicateResultError(participantID, station, "", time.Time{})
	}
	ts, _ := time.Parse(time.RFC3339Nano, recordedAt)
	return domain.NewDuplicateResultError(participantID, station, existingID, ts)
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// violation.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanParticipant(row rowScanner) (domain.Participant, error) {
	var p domain.Participant
	var gender, birthDate string
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &gender, &birthDate, &p.Organisation); err != nil {
		return domain.Participant{}, err
	}
	p.Gender = domain.Gender(gender)
	ts, err := time.Parse(time.RFC3339, birthDate)
	if err != nil {
		return domain.Participant{}, fmt.Errorf("parse birth_date: %w", err)
	}
	p.BirthDate = ts
	return p, nil
}

func scanResult(row rowScanner) (domain.StationResult, error) {
	var r domain.StationResult
	var station, measurements, recordedAt string
	var score sql.NullInt64
	if err := row.Scan(&r.ID, &r.ParticipantID, &station, &measurements, &score, &recordedAt, &r.RecordedBy); err != nil {
		return domain.StationResult{}, err
	}
	r.Station = domain.StationType(station)
	if err := json.Unmarshal([]byte(measurements), &r.Measurements); err != nil {
		return domain.StationResult{}, fmt.Errorf("parse measurements: %w", err)
	}
	if score.Valid {
		r.Score = domain.ScoreOf(int(score.Int64))
	}
	ts, err := time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return domain.StationResult{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	r.RecordedAt = ts
	return r, nil
}
