package service

import (
	"errors"
	"strings"

	"soulfamily/sounds-api/internal/model"
	"soulfamily/sounds-api/internal/workflow"
	"soulfamily/sounds-api/pkg/validators"

	"gorm.io/gorm"
)

// FileInput is one audio file of a submission together with its
// classification. Taxonomy values are given by name.
type FileInput struct {
	Upload        Upload
	Name          string
	Genre         string
	SubGenre      string
	Instrument    string
	SubInstrument string
	Mood          string
	BPMType       string
	BPMStart      string
	BPMEnd        string
	Key           string
	KeyScale      string
	KeyType       string
	Type          string
	Source        string
}

// field prefixes a form field with the kind, "title" becomes "beat_title"
func field(k model.Kind, name string) string {
	return string(k) + "_" + name
}

// first loads one row matching query or returns missing
func first[T any](db *gorm.DB, missing *Error, query string, args ...any) (*T, error) {
	var row T

	err := db.
		Where(query, args...).
		First(&row).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, missing
	}
	if err != nil {
		return nil, err
	}

	return &row, nil
}

// classify validates in against the kind's taxonomy and returns an unsaved
// audio file carrying the resolved references
func classify(db *gorm.DB, kind model.Kind, in FileInput) (*model.AudioFile, error) {
	if in.Upload.Empty() {
		return nil, badRequest("file is required")
	}

	if strings.TrimSpace(in.Name) == "" {
		return nil, badRequest("file_name is required")
	}

	genre, err := first[model.Genre](db, badRequest("invalid genre"), "kind = ? AND name = ?", kind, in.Genre)
	if err != nil {
		return nil, err
	}

	subGenre, err := first[model.SubGenre](db, badRequest("invalid sub_genre under %s", genre.Name), "genre_id = ? AND name = ?", genre.ID, in.SubGenre)
	if err != nil {
		return nil, err
	}

	instrument, err := first[model.Instrument](db, badRequest("invalid instrument"), "kind = ? AND name = ?", kind, in.Instrument)
	if err != nil {
		return nil, err
	}

	subInstrument, err := first[model.SubInstrument](db, badRequest("invalid sub_instrument under %s", instrument.Name), "instrument_id = ? AND name = ?", instrument.ID, in.SubInstrument)
	if err != nil {
		return nil, err
	}

	mood, err := first[model.Mood](db, badRequest("invalid mood"), "kind = ? AND name = ?", kind, in.Mood)
	if err != nil {
		return nil, err
	}

	bpm, err := validators.BPM(in.BPMType, in.BPMStart, in.BPMEnd)
	if err != nil {
		return nil, badRequest("%s", err)
	}

	key, err := validators.Key(in.Key, in.KeyScale, in.KeyType)
	if err != nil {
		return nil, badRequest("%s", err)
	}

	ft, err := validators.FileType(in.Type)
	if err != nil {
		return nil, badRequest("%s", err)
	}

	src, err := validators.Source(in.Source)
	if err != nil {
		return nil, badRequest("%s", err)
	}

	return &model.AudioFile{
		GenreID:         &genre.ID,
		SubGenreID:      &subGenre.ID,
		InstrumentID:    &instrument.ID,
		SubInstrumentID: &subInstrument.ID,
		MoodID:          &mood.ID,
		BPM:             bpm,
		Key:             key,
		Type:            ft,
		Source:          src,
		Status:          workflow.FileUploaded,
	}, nil
}
