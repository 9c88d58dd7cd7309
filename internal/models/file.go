package models

import (
	"strings"
	"time"
)

// FileType classifies an attachment by its mimetype.
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeDocument FileType = "document"
	FileTypeOther    FileType = "other"
)

// File is an attachment uploaded to object storage for an article.
type File struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	ArticleID  uint      `gorm:"not null;index" json:"article_id"`
	Path       string    `gorm:"uniqueIndex;size:512;not null" json:"path"`
	PreviewKey string    `gorm:"size:512" json:"-"`
	Filename   string    `gorm:"size:255;not null" json:"filename"`
	Mimetype   string    `gorm:"size:127;not null" json:"mimetype"`
	Size       int64     `gorm:"not null" json:"size"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Type classifies the file for clients.
func (f *File) Type() FileType {
	return ClassifyMimetype(f.Mimetype)
}

// ClassifyMimetype maps a mimetype onto a FileType.
func ClassifyMimetype(mimetype string) FileType {
	mt := strings.ToLower(mimetype)
	switch {
	case strings.HasPrefix(mt, "image/"):
		return FileTypeImage
	case mt == "application/pdf",
		mt == "application/msword",
		mt == "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		mt == "text/plain":
		return FileTypeDocument
	default:
		return FileTypeOther
	}
}
