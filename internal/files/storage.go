package files

import (
	"io"
	"time"
)

// File is a stored object's metadata row. Path is the key within the disk,
// never a public URL; URLs are always minted on demand by the Storage.
type File struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	MimeType  string    `json:"mime_type"`
	Size      int64     `json:"size"`
	Disk      string    `json:"disk"`
	CreatedAt time.Time `json:"created_at"`
}

// Upload is an incoming file before it has been written anywhere.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// Storage stores uploaded files and hands out short-lived URLs for them.
// Replace reuses the existing metadata row so references stay stable.
type Storage interface {
	Store(upload Upload, folder string) (*File, error)
	Replace(fileID int64, upload Upload) (*File, error)
	Delete(fileID int64) error
	GetURL(fileID int64) (string, error)
	Find(fileID int64) (*File, error)
}
