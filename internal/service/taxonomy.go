package service

import (
	"context"
	"strings"

	"soulfamily/sounds-api/internal/model"

	"gorm.io/gorm"
)

// TaxonomyService manages the reference data suppliers classify files
// with. Every table is partitioned by kind.
type TaxonomyService struct {
	db *gorm.DB
}

func NewTaxonomyService(db *gorm.DB) *TaxonomyService {
	return &TaxonomyService{db: db}
}

// Dropdowns is everything a supplier form needs in one response
type Dropdowns struct {
	ContentTypes []string           `json:"types"`
	Genres       []model.Genre      `json:"genres"`
	Instruments  []model.Instrument `json:"instruments"`
	Moods        []model.Mood       `json:"moods"`
	Plugins      []model.Plugin     `json:"plugins"`
	FileTypes    []model.FileType   `json:"file_types"`
	Sources      []model.Source     `json:"sources"`
	BPMTypes     []model.BPMType    `json:"bpm_types"`
	KeyScales    []model.KeyScale   `json:"key_scales"`
	KeyTypes     []model.KeyType    `json:"key_types"`
	FlatKeys     []string           `json:"flat_keys"`
	SharpKeys    []string           `json:"sharp_keys"`
}

type usage struct {
	table  string
	column string
}

func requireName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", badRequest("name is required.")
	}

	return name, nil
}

func listKind[T any](db *gorm.DB, kind model.Kind, preload ...string) ([]T, error) {
	var out []T

	q := db.Where("kind = ?", kind)
	for _, p := range preload {
		q = q.Preload(p)
	}

	err := q.
		Order("name ASC").
		Find(&out).
		Error

	return out, err
}

// createNamed inserts row unless scope already holds a row with the same
// name
func createNamed[T any](db *gorm.DB, row *T, label, scope string, args ...any) error {
	var n int64

	err := db.
		Model(new(T)).
		Where(scope, args...).
		Count(&n).
		Error
	if err != nil {
		return err
	}
	if n > 0 {
		return badRequest("%s already exists", label)
	}

	return db.Create(row).Error
}

func inUse(tx *gorm.DB, id uint, uses []usage) (bool, error) {
	for _, u := range uses {
		var n int64

		err := tx.
			Table(u.table).
			Where(u.column+" = ?", id).
			Count(&n).
			Error
		if err != nil {
			return false, err
		}
		if n > 0 {
			return true, nil
		}
	}

	return false, nil
}

// deleteScoped removes one row matched by scope, refusing when something
// still references it
func deleteScoped[T any](tx *gorm.DB, label string, id uint, uses []usage, scope string, args ...any) error {
	used, err := inUse(tx, id, uses)
	if err != nil {
		return err
	}
	if used {
		return badRequest("%s is in use and cannot be deleted", label)
	}

	res := tx.
		Where(scope, args...).
		Delete(new(T))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("%s not found", label)
	}

	return nil
}

func (s *TaxonomyService) Genres(ctx context.Context, kind model.Kind) ([]model.Genre, error) {
	return listKind[model.Genre](s.db.WithContext(ctx), kind, "SubGenres")
}

func (s *TaxonomyService) CreateGenre(ctx context.Context, kind model.Kind, name string, active bool) (*model.Genre, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	g := model.Genre{Kind: kind, Name: name, Active: active}
	if err := createNamed(s.db.WithContext(ctx), &g, "genre", "kind = ? AND name = ?", kind, name); err != nil {
		return nil, err
	}

	return &g, nil
}

// DeleteGenre removes a genre together with its sub genres
func (s *TaxonomyService) DeleteGenre(ctx context.Context, kind model.Kind, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := deleteScoped[model.Genre](tx, "genre", id, []usage{
			{"audio_files", "genre_id"},
			{"content_items", "genre_id"},
		}, "id = ? AND kind = ?", id, kind)
		if err != nil {
			return err
		}

		return tx.
			Where("genre_id = ?", id).
			Delete(&model.SubGenre{}).
			Error
	})
}

func (s *TaxonomyService) genre(db *gorm.DB, kind model.Kind, id uint) (*model.Genre, error) {
	return first[model.Genre](db, notFound("genre not found"), "id = ? AND kind = ?", id, kind)
}

func (s *TaxonomyService) SubGenres(ctx context.Context, kind model.Kind, genreID uint) ([]model.SubGenre, error) {
	db := s.db.WithContext(ctx)

	if _, err := s.genre(db, kind, genreID); err != nil {
		return nil, err
	}

	var out []model.SubGenre
	err := db.
		Where("genre_id = ?", genreID).
		Order("name ASC").
		Find(&out).
		Error

	return out, err
}

func (s *TaxonomyService) CreateSubGenre(ctx context.Context, kind model.Kind, genreID uint, name string) (*model.SubGenre, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	if _, err := s.genre(db, kind, genreID); err != nil {
		return nil, err
	}

	sg := model.SubGenre{GenreID: genreID, Name: name}
	if err := createNamed(db, &sg, "sub genre", "genre_id = ? AND name = ?", genreID, name); err != nil {
		return nil, err
	}

	return &sg, nil
}

func (s *TaxonomyService) DeleteSubGenre(ctx context.Context, kind model.Kind, genreID, id uint) error {
	db := s.db.WithContext(ctx)

	if _, err := s.genre(db, kind, genreID); err != nil {
		return err
	}

	return deleteScoped[model.SubGenre](db, "sub genre", id, []usage{
		{"audio_files", "sub_genre_id"},
		{"content_items", "sub_genre_id"},
	}, "id = ? AND genre_id = ?", id, genreID)
}

func (s *TaxonomyService) Instruments(ctx context.Context, kind model.Kind) ([]model.Instrument, error) {
	return listKind[model.Instrument](s.db.WithContext(ctx), kind, "SubInstruments")
}

func (s *TaxonomyService) CreateInstrument(ctx context.Context, kind model.Kind, name string, active bool) (*model.Instrument, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	in := model.Instrument{Kind: kind, Name: name, Active: active}
	if err := createNamed(s.db.WithContext(ctx), &in, "instrument", "kind = ? AND name = ?", kind, name); err != nil {
		return nil, err
	}

	return &in, nil
}

func (s *TaxonomyService) DeleteInstrument(ctx context.Context, kind model.Kind, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := deleteScoped[model.Instrument](tx, "instrument", id, []usage{
			{"audio_files", "instrument_id"},
		}, "id = ? AND kind = ?", id, kind)
		if err != nil {
			return err
		}

		return tx.
			Where("instrument_id = ?", id).
			Delete(&model.SubInstrument{}).
			Error
	})
}

func (s *TaxonomyService) instrument(db *gorm.DB, kind model.Kind, id uint) (*model.Instrument, error) {
	return first[model.Instrument](db, notFound("instrument not found"), "id = ? AND kind = ?", id, kind)
}

func (s *TaxonomyService) SubInstruments(ctx context.Context, kind model.Kind, instrumentID uint) ([]model.SubInstrument, error) {
	db := s.db.WithContext(ctx)

	if _, err := s.instrument(db, kind, instrumentID); err != nil {
		return nil, err
	}

	var out []model.SubInstrument
	err := db.
		Where("instrument_id = ?", instrumentID).
		Order("name ASC").
		Find(&out).
		Error

	return out, err
}

func (s *TaxonomyService) CreateSubInstrument(ctx context.Context, kind model.Kind, instrumentID uint, name string) (*model.SubInstrument, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)

	if _, err := s.instrument(db, kind, instrumentID); err != nil {
		return nil, err
	}

	si := model.SubInstrument{InstrumentID: instrumentID, Name: name}
	if err := createNamed(db, &si, "sub instrument", "instrument_id = ? AND name = ?", instrumentID, name); err != nil {
		return nil, err
	}

	return &si, nil
}

func (s *TaxonomyService) DeleteSubInstrument(ctx context.Context, kind model.Kind, instrumentID, id uint) error {
	db := s.db.WithContext(ctx)

	if _, err := s.instrument(db, kind, instrumentID); err != nil {
		return err
	}

	return deleteScoped[model.SubInstrument](db, "sub instrument", id, []usage{
		{"audio_files", "sub_instrument_id"},
	}, "id = ? AND instrument_id = ?", id, instrumentID)
}

func (s *TaxonomyService) Moods(ctx context.Context, kind model.Kind) ([]model.Mood, error) {
	return listKind[model.Mood](s.db.WithContext(ctx), kind)
}

func (s *TaxonomyService) CreateMood(ctx context.Context, kind model.Kind, name string, active bool) (*model.Mood, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	m := model.Mood{Kind: kind, Name: name, Active: active}
	if err := createNamed(s.db.WithContext(ctx), &m, "mood", "kind = ? AND name = ?", kind, name); err != nil {
		return nil, err
	}

	return &m, nil
}

func (s *TaxonomyService) DeleteMood(ctx context.Context, kind model.Kind, id uint) error {
	return deleteScoped[model.Mood](s.db.WithContext(ctx), "mood", id, []usage{
		{"audio_files", "mood_id"},
		{"content_moods", "mood_id"},
	}, "id = ? AND kind = ?", id, kind)
}

func (s *TaxonomyService) Plugins(ctx context.Context, kind model.Kind) ([]model.Plugin, error) {
	return listKind[model.Plugin](s.db.WithContext(ctx), kind)
}

func (s *TaxonomyService) CreatePlugin(ctx context.Context, kind model.Kind, name, extension string, active bool) (*model.Plugin, error) {
	name, err := requireName(name)
	if err != nil {
		return nil, err
	}

	extension = strings.TrimSpace(extension)
	if extension == "" {
		return nil, badRequest("extension is required.")
	}

	p := model.Plugin{Kind: kind, Name: name, Extension: extension, Active: active}
	if err := createNamed(s.db.WithContext(ctx), &p, "plugin", "kind = ? AND name = ?", kind, name); err != nil {
		return nil, err
	}

	return &p, nil
}

func (s *TaxonomyService) DeletePlugin(ctx context.Context, kind model.Kind, id uint) error {
	return deleteScoped[model.Plugin](s.db.WithContext(ctx), "plugin", id, nil, "id = ? AND kind = ?", id, kind)
}

// Dropdowns returns the active taxonomy of kind plus the fixed enums
func (s *TaxonomyService) Dropdowns(ctx context.Context, kind model.Kind) (*Dropdowns, error) {
	db := s.db.
		WithContext(ctx).
		Where("active = ?", true).
		Session(&gorm.Session{})

	out := &Dropdowns{
		ContentTypes: kind.ContentTypes(),
		FileTypes:    model.FileTypes,
		Sources:      model.Sources,
		BPMTypes:     model.BPMTypes,
		KeyScales:    model.KeyScales,
		KeyTypes:     model.KeyTypes,
		FlatKeys:     model.FlatKeys,
		SharpKeys:    model.SharpKeys,
	}

	var err error

	out.Genres, err = listKind[model.Genre](db, kind, "SubGenres")
	if err != nil {
		return nil, err
	}

	out.Instruments, err = listKind[model.Instrument](db, kind, "SubInstruments")
	if err != nil {
		return nil, err
	}

	out.Moods, err = listKind[model.Mood](db, kind)
	if err != nil {
		return nil, err
	}

	out.Plugins, err = listKind[model.Plugin](db, kind)
	if err != nil {
		return nil, err
	}

	return out, nil
}
