package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Konabiii/GBPL/internal/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// DiagnosisRepository keeps a local history of generated diagnoses for
// offline review and export.
type DiagnosisRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDiagnosisRepository creates a new repository, creating the database
// directory if it does not exist yet.
func NewDiagnosisRepository(dbPath string, logger *zap.Logger) (*DiagnosisRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	repo := &DiagnosisRepository{
		db:     db,
		logger: logger,
	}

	if err := repo.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Diagnosis repository initialized", zap.String("db_path", dbPath))

	return repo, nil
}

// migrate creates tables
func (r *DiagnosisRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS diagnoses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crop TEXT,
		location TEXT,
		growth_stage TEXT,
		temp_c REAL,
		humidity REAL,
		candidates TEXT,
		diagnosis TEXT NOT NULL,
		model_version TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_diagnoses_crop ON diagnoses(crop);
	CREATE INDEX IF NOT EXISTS idx_diagnoses_created_at ON diagnoses(created_at);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveDiagnosis saves one generated diagnosis
func (r *DiagnosisRepository) SaveDiagnosis(rec *models.DiagnosisRecord) error {
	query := `
		INSERT INTO diagnoses (
			crop, location, growth_stage, temp_c, humidity,
			candidates, diagnosis, model_version, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		rec.Crop,
		rec.Location,
		rec.GrowthStage,
		rec.TempC,
		rec.Humidity,
		rec.Candidates,
		rec.Diagnosis,
		rec.ModelVersion,
		rec.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to save diagnosis: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	return nil
}

// ListDiagnoses retrieves the full history, newest first
func (r *DiagnosisRepository) ListDiagnoses() ([]*models.DiagnosisRecord, error) {
	query := `
		SELECT id, crop, location, growth_stage, temp_c, humidity,
		       candidates, diagnosis, model_version, created_at
		FROM diagnoses
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnoses: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

// ListDiagnosesByCrop retrieves the history for one crop, newest first
func (r *DiagnosisRepository) ListDiagnosesByCrop(crop string) ([]*models.DiagnosisRecord, error) {
	query := `
		SELECT id, crop, location, growth_stage, temp_c, humidity,
		       candidates, diagnosis, model_version, created_at
		FROM diagnoses
		WHERE crop = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(query, crop)
	if err != nil {
		return nil, fmt.Errorf("failed to query diagnoses by crop: %w", err)
	}
	defer rows.Close()

	return r.scanRecords(rows)
}

func (r *DiagnosisRepository) scanRecords(rows *sql.Rows) ([]*models.DiagnosisRecord, error) {
	var records []*models.DiagnosisRecord
	for rows.Next() {
		rec := &models.DiagnosisRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.Crop,
			&rec.Location,
			&rec.GrowthStage,
			&rec.TempC,
			&rec.Humidity,
			&rec.Candidates,
			&rec.Diagnosis,
			&rec.ModelVersion,
			&rec.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan diagnosis", zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// Stats returns aggregate statistics about the diagnosis history
func (r *DiagnosisRepository) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int
	err := r.db.QueryRow("SELECT COUNT(*) FROM diagnoses").Scan(&total)
	if err != nil {
		return nil, err
	}
	stats["total"] = total

	query := `
		SELECT crop, COUNT(*) as count
		FROM diagnoses
		WHERE crop != ''
		GROUP BY crop
		ORDER BY count DESC
	`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byCrop := make(map[string]int)
	for rows.Next() {
		var crop string
		var count int
		if err := rows.Scan(&crop, &count); err != nil {
			continue
		}
		byCrop[crop] = count
	}
	stats["by_crop"] = byCrop

	return stats, nil
}

// Close closes the database connection
func (r *DiagnosisRepository) Close() error {
	return r.db.Close()
}
