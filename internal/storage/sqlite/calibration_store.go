package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/touchprobe/internal/calibration"
	"github.com/google/uuid"
)

// ErrCalibrationNotFound is returned when no calibration matches a lookup.
// It wraps sql.ErrNoRows.
var ErrCalibrationNotFound = fmt.Errorf("calibration not found: %w", sql.ErrNoRows)

// CalibrationRecord is one stored calibration run.
type CalibrationRecord struct {
	CalibrationID   string             `json:"calibration_id"`
	ProbeID         string             `json:"probe_id"`
	NominalDiameter float64            `json:"nominal_diameter"`
	TipDiameter     float64            `json:"tip_diameter"`
	Rings           int                `json:"rings"`
	SamplesPerRing  int                `json:"samples_per_ring"`
	Table           *calibration.Table `json:"table"`
	CreatedAt       int64              `json:"created_at"` // unix nanoseconds
	Notes           string             `json:"notes,omitempty"`
}

// Meta describes the artefact a table was built against.
type Meta struct {
	NominalDiameter float64
	TipDiameter     float64
	Notes           string
}

// CalibrationStore provides persistence for calibration tables.
type CalibrationStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewCalibrationStore creates a new CalibrationStore.
func NewCalibrationStore(db *sql.DB) *CalibrationStore {
	return &CalibrationStore{db: db, now: time.Now}
}

// Save stores t for probeID and returns the inserted record.
func (s *CalibrationStore) Save(probeID string, t *calibration.Table, meta Meta) (*CalibrationRecord, error) {
	rec := &CalibrationRecord{
		ProbeID:         probeID,
		NominalDiameter: meta.NominalDiameter,
		TipDiameter:     meta.TipDiameter,
		Table:           t,
		Notes:           meta.Notes,
	}
	if err := s.Insert(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Insert creates a new calibration record in the database.
// If rec.CalibrationID is empty, a new UUID is generated. Grid dimensions
// and CreatedAt are filled from the table and the clock when unset.
func (s *CalibrationStore) Insert(rec *CalibrationRecord) error {
	if rec.ProbeID == "" {
		return errors.New("insert calibration: probe id is required")
	}
	data, err := rec.Table.Marshal()
	if err != nil {
		return fmt.Errorf("insert calibration: %w", err)
	}
	if rec.CalibrationID == "" {
		rec.CalibrationID = uuid.New().String()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = s.now().UnixNano()
	}
	if rec.Rings == 0 {
		rec.Rings = len(rec.Table.Rings) - 1
	}
	if rec.SamplesPerRing == 0 && len(rec.Table.Rings) > 1 {
		rec.SamplesPerRing = len(rec.Table.Rings[1].Nodes) - 1
	}

	query := `
		INSERT INTO probe_calibrations (
			calibration_id, probe_id, nominal_diameter, tip_diameter,
			rings, samples_per_ring, table_json, created_at, notes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.Exec(query,
		rec.CalibrationID,
		rec.ProbeID,
		rec.NominalDiameter,
		rec.TipDiameter,
		rec.Rings,
		rec.SamplesPerRing,
		string(data),
		rec.CreatedAt,
		nullString(rec.Notes),
	)
	if err != nil {
		return fmt.Errorf("insert calibration: %w", err)
	}
	logger.Logf("saved calibration %s for probe %s", rec.CalibrationID, rec.ProbeID)
	return nil
}

const selectColumns = `
	SELECT calibration_id, probe_id, nominal_diameter, tip_diameter,
	       rings, samples_per_ring, table_json, created_at, notes
	FROM probe_calibrations
`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*CalibrationRecord, error) {
	rec := &CalibrationRecord{}
	var tableJSON string
	var notes sql.NullString
	err := row.Scan(
		&rec.CalibrationID, &rec.ProbeID, &rec.NominalDiameter, &rec.TipDiameter,
		&rec.Rings, &rec.SamplesPerRing, &tableJSON, &rec.CreatedAt, &notes,
	)
	if err != nil {
		return nil, err
	}
	if notes.Valid {
		rec.Notes = notes.String
	}
	rec.Table, err = calibration.Unmarshal([]byte(tableJSON))
	if err != nil {
		return nil, fmt.Errorf("decode calibration %s: %w", rec.CalibrationID, err)
	}
	return rec, nil
}

func (s *CalibrationStore) queryOne(op, query string, args ...any) (*CalibrationRecord, error) {
	rec, err := scanRecord(s.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCalibrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s calibration: %w", op, err)
	}
	return rec, nil
}

// Get returns the calibration with the given ID.
func (s *CalibrationStore) Get(calibrationID string) (*CalibrationRecord, error) {
	return s.queryOne("get", selectColumns+" WHERE calibration_id = ?", calibrationID)
}

// Latest returns the most recently created calibration for probeID.
func (s *CalibrationStore) Latest(probeID string) (*CalibrationRecord, error) {
	return s.queryOne("latest", selectColumns+`
		WHERE probe_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`, probeID)
}

// List returns every calibration for probeID, oldest first.
func (s *CalibrationStore) List(probeID string) ([]*CalibrationRecord, error) {
	rows, err := s.db.Query(selectColumns+`
		WHERE probe_id = ?
		ORDER BY created_at, rowid
	`, probeID)
	if err != nil {
		return nil, fmt.Errorf("list calibrations: %w", err)
	}
	defer rows.Close()

	var out []*CalibrationRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan calibration: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Delete removes a calibration by ID.
func (s *CalibrationStore) Delete(calibrationID string) error {
	result, err := s.db.Exec("DELETE FROM probe_calibrations WHERE calibration_id = ?", calibrationID)
	if err != nil {
		return fmt.Errorf("delete calibration: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete calibration rows affected: %w", err)
	}
	if rows == 0 {
		return ErrCalibrationNotFound
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
