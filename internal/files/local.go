package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const localDiskName = "local"

// LocalStorage keeps files on the local filesystem under a base directory
// and serves them from a static base URL. Suitable for development and
// single-node deployments.
type LocalStorage struct {
	baseDir string
	baseURL string
	repo    *Repository
}

func NewLocalStorage(baseDir, baseURL string, repo *Repository) *LocalStorage {
	return &LocalStorage{baseDir: baseDir, baseURL: baseURL, repo: repo}
}

func (s *LocalStorage) Store(upload Upload, folder string) (*File, error) {
	path, err := s.writeObject(upload, folder)
	if err != nil {
		return nil, err
	}

	file := &File{
		Name:     upload.Name,
		Path:     path,
		MimeType: upload.ContentType,
		Size:     upload.Size,
		Disk:     localDiskName,
	}
	if err := s.repo.Save(file); err != nil {
		s.removeObject(path)
		return nil, err
	}
	return file, nil
}

func (s *LocalStorage) Replace(fileID int64, upload Upload) (*File, error) {
	file, err := s.repo.FindByID(fileID)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, fmt.Errorf("file %d not found", fileID)
	}

	path, err := s.writeObject(upload, filepath.Dir(file.Path))
	if err != nil {
		return nil, err
	}
	oldPath := file.Path
	file.Name = upload.Name
	file.Path = path
	file.MimeType = upload.ContentType
	file.Size = upload.Size
	if err := s.repo.Update(file); err != nil {
		s.removeObject(path)
		return nil, err
	}
	s.removeObject(oldPath)
	return file, nil
}

func (s *LocalStorage) Delete(fileID int64) error {
	file, err := s.repo.FindByID(fileID)
	if err != nil {
		return err
	}
	if file == nil {
		return nil
	}
	if err := s.repo.Delete(fileID); err != nil {
		return err
	}
	s.removeObject(file.Path)
	return nil
}

func (s *LocalStorage) GetURL(fileID int64) (string, error) {
	file, err := s.repo.FindByID(fileID)
	if err != nil {
		return "", err
	}
	if file == nil {
		return "", fmt.Errorf("file %d not found", fileID)
	}
	return s.baseURL + "/" + filepath.ToSlash(file.Path), nil
}

func (s *LocalStorage) Find(fileID int64) (*File, error) {
	return s.repo.FindByID(fileID)
}

func (s *LocalStorage) writeObject(upload Upload, folder string) (string, error) {
	key := filepath.Join(folder, uuid.New().String()+filepath.Ext(upload.Name))
	fullPath := filepath.Join(s.baseDir, key)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("error creating storage directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("error creating file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, upload.Content); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("error writing file: %w", err)
	}
	return key, nil
}

func (s *LocalStorage) removeObject(path string) {
	os.Remove(filepath.Join(s.baseDir, path))
}
