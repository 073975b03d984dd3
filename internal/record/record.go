// Package record saves and restores a pet across process restarts.
//
// Mood and stage are never written; they are recomputed after a load.
// Restoring size is a grow through the governor, so a record saved on a
// roomier machine comes back clamped instead of overcommitting.
package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/renameio/v2"

	"github.com/rcliao/ram-pet/internal/model"
	"github.com/rcliao/ram-pet/internal/pet"
)

// FormatVersion is written into every record.
const FormatVersion = 1

var (
	ErrNotFound      = errors.New("no saved pet")
	ErrCorruptRecord = errors.New("corrupt save record")
	ErrWriteFailed   = errors.New("save record write failed")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Record is the durable state of a pet.
type Record struct {
	FormatVersion  int       `json:"format_version"`
	PersonalityID  string    `json:"personality_id"`
	Hunger         float64   `json:"hunger"`
	CommittedBytes uint64    `json:"committed_bytes"`
	SavedAt        time.Time `json:"saved_at"`
}

// wireRecord uses pointers so a missing field is told apart from a zero one.
type wireRecord struct {
	FormatVersion  *int       `json:"format_version" validate:"required,min=1"`
	PersonalityID  *string    `json:"personality_id" validate:"required,oneof=nibbler glutton gourmet gremlin"`
	Hunger         *float64   `json:"hunger" validate:"required,gte=0,lte=100"`
	CommittedBytes *uint64    `json:"committed_bytes" validate:"required"`
	SavedAt        *time.Time `json:"saved_at" validate:"required"`
}

// Capture reads the pet's state. It never touches the reservoir.
func Capture(p *pet.Pet, now time.Time) Record {
	return Record{
		FormatVersion:  FormatVersion,
		PersonalityID:  p.Personality().ID(),
		Hunger:         p.Hunger(),
		CommittedBytes: p.CommittedBytes(),
		SavedAt:        now.UTC(),
	}
}

// Decode parses and validates a record. Unknown fields are ignored.
func Decode(data []byte) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if err := validate.Struct(w); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return Record{
		FormatVersion:  *w.FormatVersion,
		PersonalityID:  *w.PersonalityID,
		Hunger:         *w.Hunger,
		CommittedBytes: *w.CommittedBytes,
		SavedAt:        *w.SavedAt,
	}, nil
}

// Read loads the record at path. The file is never modified, even when it
// turns out to be corrupt.
func Read(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("read record: %w", err)
	}
	return Decode(data)
}

// Write replaces the record at path atomically: the new record is written to
// a temp file, synced, then renamed over the old one.
func Write(path string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode: %w", ErrWriteFailed, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: create dir: %w", ErrWriteFailed, err)
	}
	if err := renameio.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// Personality resolves the record's personality id.
func (r Record) Personality() (model.Personality, error) {
	p, err := model.ParsePersonality(r.PersonalityID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	return p, nil
}
