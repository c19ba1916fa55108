package model

import "time"

type Like struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	MemberID    string      `gorm:"uniqueIndex:idx_like_member_file;not null" json:"-"`
	ContentID   uint        `gorm:"uniqueIndex:idx_like_member_file;not null" json:"content_id"`
	AudioFileID uint        `gorm:"uniqueIndex:idx_like_member_file;not null" json:"audio_file_id"`
	Content     ContentItem `json:"-"`
	AudioFile   AudioFile   `json:"-"`
	CreatedAt   time.Time   `json:"created_at"`
}

type Download struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	MemberID  string         `gorm:"uniqueIndex:idx_download_member_content;not null" json:"-"`
	ContentID uint           `gorm:"uniqueIndex:idx_download_member_content;not null" json:"content_id"`
	Content   ContentItem    `json:"-"`
	Files     []DownloadFile `gorm:"constraint:OnDelete:CASCADE" json:"files,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type DownloadFile struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DownloadID  uint      `gorm:"uniqueIndex:idx_download_file;not null" json:"download_id"`
	AudioFileID uint      `gorm:"uniqueIndex:idx_download_file;not null" json:"audio_file_id"`
	AudioFile   AudioFile `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

type Collection struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	MemberID    string           `gorm:"uniqueIndex:idx_collection_member_name;not null" json:"-"`
	Kind        Kind             `gorm:"uniqueIndex:idx_collection_member_name;not null" json:"-"`
	Name        string           `gorm:"uniqueIndex:idx_collection_member_name;not null" json:"name"`
	Description string           `json:"description"`
	Files       []CollectionFile `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time        `json:"created_at"`
}

type CollectionFile struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	CollectionID uint        `gorm:"uniqueIndex:idx_collection_file;not null" json:"collection_id"`
	ContentID    uint        `gorm:"uniqueIndex:idx_collection_file;not null" json:"content_id"`
	AudioFileID  uint        `gorm:"uniqueIndex:idx_collection_file;not null" json:"audio_file_id"`
	Content      ContentItem `json:"-"`
	AudioFile    AudioFile   `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
}
