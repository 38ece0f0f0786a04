package files

import (
	"database/sql"
	"fmt"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Save(file *File) error {
	query := `
		INSERT INTO files (name, path, mime_type, size, disk)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(query, file.Name, file.Path, file.MimeType, file.Size, file.Disk).
		Scan(&file.ID, &file.CreatedAt)
	if err != nil {
		return fmt.Errorf("error saving file metadata: %w", err)
	}
	return nil
}

func (r *Repository) FindByID(fileID int64) (*File, error) {
	query := `
		SELECT id, name, path, mime_type, size, disk, created_at
		FROM files
		WHERE id = $1
	`
	var file File
	err := r.db.QueryRow(query, fileID).
		Scan(&file.ID, &file.Name, &file.Path, &file.MimeType, &file.Size, &file.Disk, &file.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding file: %w", err)
	}
	return &file, nil
}

func (r *Repository) Update(file *File) error {
	query := `
		UPDATE files
		SET name = $1, path = $2, mime_type = $3, size = $4, disk = $5
		WHERE id = $6
	`
	if _, err := r.db.Exec(query, file.Name, file.Path, file.MimeType, file.Size, file.Disk, file.ID); err != nil {
		return fmt.Errorf("error updating file metadata: %w", err)
	}
	return nil
}

func (r *Repository) Delete(fileID int64) error {
	if _, err := r.db.Exec(`DELETE FROM files WHERE id = $1`, fileID); err != nil {
		return fmt.Errorf("error deleting file metadata: %w", err)
	}
	return nil
}
