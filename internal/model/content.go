package model

import (
	"time"

	"soulfamily/sounds-api/internal/workflow"
)

// ContentItem is a Pack or a Beat depending on Kind
type ContentItem struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	Kind           Kind        `gorm:"index;not null" json:"kind"`
	Title          string      `gorm:"not null" json:"title"`
	Description    string      `json:"description"`
	GenreID        *uint       `json:"-"`
	Genre          *Genre      `json:"genre,omitempty"`
	SubGenreID     *uint       `json:"-"`
	SubGenre       *SubGenre   `json:"sub_genre,omitempty"`
	Moods          []Mood      `gorm:"many2many:content_moods" json:"moods,omitempty"`
	DemoFileID     *uint       `json:"-"`
	DemoFile       *AudioFile  `gorm:"foreignKey:DemoFileID" json:"demo_file,omitempty"`
	ArtworkKey     string      `json:"artwork"`
	AudioFiles     []AudioFile `gorm:"many2many:content_audio_files" json:"audio_files,omitempty"`
	DownloadsCount int         `gorm:"default:0" json:"downloads_count"`
	ExclusivePrice float64     `json:"exclusive_price"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"-"`
}

type AudioFile struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	FileID          *uint               `json:"-"`
	File            *StoredFile         `json:"file,omitempty"`
	GenreID         *uint               `json:"-"`
	Genre           *Genre              `json:"genre,omitempty"`
	SubGenreID      *uint               `json:"-"`
	SubGenre        *SubGenre           `json:"sub_genre,omitempty"`
	InstrumentID    *uint               `json:"-"`
	Instrument      *Instrument         `json:"instrument,omitempty"`
	SubInstrumentID *uint               `json:"-"`
	SubInstrument   *SubInstrument      `json:"sub_instrument,omitempty"`
	MoodID          *uint               `json:"-"`
	Mood            *Mood               `json:"mood,omitempty"`
	BPMID           *uint               `json:"-"`
	BPM             *BPM                `json:"bpm,omitempty"`
	KeyID           *uint               `json:"-"`
	Key             *MusicalKey         `gorm:"foreignKey:KeyID" json:"key,omitempty"`
	Type            FileType            `gorm:"not null" json:"type"`
	Source          Source              `gorm:"not null" json:"source"`
	Message         string              `json:"message,omitempty"`
	Status          workflow.FileStatus `gorm:"index;not null" json:"status"`
	LikesCount      int                 `gorm:"default:0" json:"likes_count"`
	DownloadsCount  int                 `gorm:"default:0" json:"downloads_count"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"-"`
}

// StoredFile points at an object in the bucket
type StoredFile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ObjectKey string    `gorm:"uniqueIndex;not null" json:"key"`
	Name      string    `gorm:"not null" json:"file_name"`
	Size      int64     `json:"file_size"`
	Extension string    `json:"file_extension"`
	MimeType  string    `json:"mime_type"`
	CreatedAt time.Time `json:"-"`
}

type Submission struct {
	ID               uint                      `gorm:"primaryKey" json:"id"`
	Kind             Kind                      `gorm:"index;not null" json:"kind"`
	ContentType      string                    `gorm:"index;not null" json:"type"`
	ContentID        uint                      `gorm:"uniqueIndex;not null" json:"-"`
	Content          ContentItem               `json:"content"`
	SupplierID       string                    `gorm:"index;not null" json:"-"`
	Supplier         *User                     `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	ApprovalPersonID *string                   `gorm:"index" json:"-"`
	ApprovalPerson   *User                     `gorm:"foreignKey:ApprovalPersonID" json:"approval_person,omitempty"`
	Status           workflow.SubmissionStatus `gorm:"index;not null" json:"status"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
}
