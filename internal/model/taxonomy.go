package model

import "time"

type Genre struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Kind      Kind       `gorm:"uniqueIndex:idx_genre_kind_name;not null" json:"-"`
	Name      string     `gorm:"uniqueIndex:idx_genre_kind_name;not null" json:"name"`
	Active    bool       `json:"is_active"`
	SubGenres []SubGenre `gorm:"constraint:OnDelete:CASCADE" json:"sub_genres,omitempty"`
	CreatedAt time.Time  `json:"-"`
}

type SubGenre struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	GenreID   uint      `gorm:"uniqueIndex:idx_sub_genre_parent_name;not null" json:"-"`
	Name      string    `gorm:"uniqueIndex:idx_sub_genre_parent_name;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

type Instrument struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Kind           Kind            `gorm:"uniqueIndex:idx_instrument_kind_name;not null" json:"-"`
	Name           string          `gorm:"uniqueIndex:idx_instrument_kind_name;not null" json:"name"`
	Active         bool            `json:"is_active"`
	SubInstruments []SubInstrument `gorm:"constraint:OnDelete:CASCADE" json:"sub_instruments,omitempty"`
	CreatedAt      time.Time       `json:"-"`
}

type SubInstrument struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	InstrumentID uint      `gorm:"uniqueIndex:idx_sub_instrument_parent_name;not null" json:"-"`
	Name         string    `gorm:"uniqueIndex:idx_sub_instrument_parent_name;not null" json:"name"`
	CreatedAt    time.Time `json:"-"`
}

type Mood struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Kind      Kind      `gorm:"uniqueIndex:idx_mood_kind_name;not null" json:"-"`
	Name      string    `gorm:"uniqueIndex:idx_mood_kind_name;not null" json:"name"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"-"`
}

type Plugin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Kind      Kind      `gorm:"uniqueIndex:idx_plugin_kind_name;not null" json:"-"`
	Name      string    `gorm:"uniqueIndex:idx_plugin_kind_name;not null" json:"name"`
	Extension string    `gorm:"not null" json:"extension"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"-"`
}

// MusicalKey is stored per audio file, it is not shared reference data
type MusicalKey struct {
	ID    uint     `gorm:"primaryKey" json:"id"`
	Name  string   `gorm:"not null" json:"key"`
	Scale KeyScale `gorm:"not null" json:"key_scale"`
	Type  KeyType  `gorm:"not null" json:"key_type"`
}

type BPM struct {
	ID    uint    `gorm:"primaryKey" json:"id"`
	Start int     `json:"start_value"`
	End   int     `json:"end_value"`
	Type  BPMType `gorm:"not null" json:"bpm_type"`
}
