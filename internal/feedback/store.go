// Copyright 2024 AI SA Assistant Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package feedback stores user feedback about recommendations. It supports
// both file-based (JSON lines) and SQLite storage.
package feedback

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

const (
	StorageTypeFile   = "file"
	StorageTypeSQLite = "sqlite"
)

// Type classifies a piece of feedback
type Type string

const (
	TypeMissingUseCase      Type = "missing-use-case"
	TypeWrongRecommendation Type = "wrong-recommendation"
	TypeFeatureRequest      Type = "feature-request"
	TypeOther               Type = "other"
)

// Types lists the accepted feedback types
var Types = []Type{TypeMissingUseCase, TypeWrongRecommendation, TypeFeatureRequest, TypeOther}

// Valid reports whether t is one of Types
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// ErrUnsupportedStorage is returned for an unknown storage type
var ErrUnsupportedStorage = errors.New("unsupported storage type")

// ValidationError reports a rejected submission field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid feedback field '%s': %s", e.Field, e.Message)
}

// Submission is the user-supplied part of a feedback record. Name and email
// are optional.
type Submission struct {
	Name    string `json:"name" validate:"max=200"`
	Email   string `json:"email" validate:"omitempty,email,max=320"`
	Message string `json:"message" validate:"required,max=5000"`
	Type    Type   `json:"type" validate:"required"`
}

// Feedback is a stored feedback record
type Feedback struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Config holds configuration for feedback storage
type Config struct {
	StorageType string `json:"storage_type"` // StorageTypeFile or StorageTypeSQLite
	FilePath    string `json:"file_path"`    // Path for file storage
	DBPath      string `json:"db_path"`      // Path for SQLite database
}

// Store persists feedback to the configured backend
type Store struct {
	config   Config
	logger   *zap.Logger
	db       *sql.DB
	validate *validator.Validate
	mu       sync.RWMutex
}

// NewStore creates the storage backend named by config.StorageType
func NewStore(config Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		config:   config,
		logger:   logger,
		validate: validator.New(),
	}

	switch config.StorageType {
	case StorageTypeFile:
		if err := s.initFileStorage(); err != nil {
			return nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
	case StorageTypeSQLite:
		if err := s.initSQLiteStorage(); err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStorage, config.StorageType)
	}

	return s, nil
}

func (s *Store) initFileStorage() error {
	dir := filepath.Dir(s.config.FilePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create feedback directory: %w", err)
	}

	file, err := os.OpenFile(s.config.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to create feedback file: %w", err)
	}
	return file.Close()
}

func (s *Store) initSQLiteStorage() error {
	dir := filepath.Dir(s.config.DBPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create feedback database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", s.config.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite database: %w", err)
	}

	createTableSQL := `
		CREATE TABLE IF NOT EXISTS feedback (
			id TEXT PRIMARY KEY,
			name TEXT,
			email TEXT,
			message TEXT NOT NULL,
			type TEXT NOT NULL,
			timestamp DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_feedback_timestamp ON feedback(timestamp);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create feedback table: %w", err)
	}

	s.db = db
	return nil
}

// Validate checks a submission without storing it
func (s *Store) Validate(sub Submission) error {
	sub = normalize(sub)

	if err := s.validate.Struct(sub); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ValidationError{Field: strings.ToLower(fe.Field()), Message: validationMessage(fe)}
		}
		return err
	}

	if !sub.Type.Valid() {
		names := make([]string, len(Types))
		for i, t := range Types {
			names[i] = string(t)
		}
		return &ValidationError{Field: "type", Message: "must be one of: " + strings.Join(names, ", ")}
	}

	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func normalize(sub Submission) Submission {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Message = strings.TrimSpace(sub.Message)
	sub.Type = Type(strings.ToLower(strings.TrimSpace(string(sub.Type))))
	return sub
}

// Record validates and stores a submission
func (s *Store) Record(ctx context.Context, sub Submission) (Feedback, error) {
	if err := s.Validate(sub); err != nil {
		return Feedback{}, err
	}
	sub = normalize(sub)

	record := Feedback{
		ID:        uuid.NewString(),
		Name:      sub.Name,
		Email:     sub.Email,
		Message:   sub.Message,
		Type:      sub.Type,
		Timestamp: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	switch s.config.StorageType {
	case StorageTypeFile:
		err = s.appendToFile(record)
	case StorageTypeSQLite:
		err = s.insertSQLite(ctx, record)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedStorage, s.config.StorageType)
	}
	if err != nil {
		return Feedback{}, err
	}

	// Contact details stay out of the logs
	s.logger.Info("Feedback recorded",
		zap.String("id", record.ID),
		zap.String("type", string(record.Type)),
		zap.String("storage", s.config.StorageType),
		zap.Int("message_length", len(record.Message)))

	return record, nil
}

func (s *Store) appendToFile(record Feedback) error {
	file, err := os.OpenFile(s.config.FilePath, os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open feedback file: %w", err)
	}
	defer func() { _ = file.Close() }()

	jsonData, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}

	if _, err := file.Write(append(jsonData, '\n')); err != nil {
		return fmt.Errorf("failed to write feedback to file: %w", err)
	}
	return nil
}

func (s *Store) insertSQLite(ctx context.Context, record Feedback) error {
	if s.db == nil {
		return errors.New("SQLite database not initialized")
	}

	insertSQL := `
		INSERT INTO feedback (id, name, email, message, type, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, insertSQL,
		record.ID,
		record.Name,
		record.Email,
		record.Message,
		string(record.Type),
		record.Timestamp,
	); err != nil {
		return fmt.Errorf("failed to insert feedback into SQLite: %w", err)
	}
	return nil
}

// List returns up to limit records, newest first. A non-positive limit
// returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.config.StorageType {
	case StorageTypeFile:
		records, err := s.readFile()
		if err != nil {
			return nil, err
		}
		sort.SliceStable(records, func(i, j int) bool {
			return records[i].Timestamp.After(records[j].Timestamp)
		})
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}
		return records, nil
	case StorageTypeSQLite:
		return s.querySQLite(ctx, limit)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStorage, s.config.StorageType)
	}
}

func (s *Store) readFile() ([]Feedback, error) {
	file, err := os.Open(s.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open feedback file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var records []Feedback
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record Feedback
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			s.logger.Warn("Skipping malformed feedback line", zap.Error(err))
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feedback file: %w", err)
	}
	return records, nil
}

func (s *Store) querySQLite(ctx context.Context, limit int) ([]Feedback, error) {
	if s.db == nil {
		return nil, errors.New("SQLite database not initialized")
	}
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, name, email, message, type, timestamp
		FROM feedback
		ORDER BY timestamp DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []Feedback
	for rows.Next() {
		var (
			record      Feedback
			name, email sql.NullString
			kind        string
		)
		if err := rows.Scan(&record.ID, &name, &email, &record.Message, &kind, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		record.Name = name.String
		record.Email = email.String
		record.Type = Type(kind)
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback rows: %w", err)
	}
	return records, nil
}

// Stats counts stored records per feedback type
func (s *Store) Stats(ctx context.Context) (map[Type]int, error) {
	records, err := s.List(ctx, 0)
	if err != nil {
		return nil, err
	}

	stats := make(map[Type]int, len(Types))
	for _, r := range records {
		stats[r.Type]++
	}
	return stats, nil
}

// StorageType reports the active backend
func (s *Store) StorageType() string {
	return s.config.StorageType
}

// Ping checks that the backend is reachable
func (s *Store) Ping(ctx context.Context) error {
	switch s.config.StorageType {
	case StorageTypeSQLite:
		if s.db == nil {
			return errors.New("SQLite database not initialized")
		}
		return s.db.PingContext(ctx)
	default:
		info, err := os.Stat(s.config.FilePath)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("feedback path is a directory: %s", s.config.FilePath)
		}
		return nil
	}
}

// Close closes the store and any open resources
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
