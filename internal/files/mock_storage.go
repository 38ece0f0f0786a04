package files

import "fmt"

// MockStorage is an in-memory Storage for tests.
type MockStorage struct {
	Files        map[int64]*File
	NextID       int64
	StoreCalls   int
	ReplaceCalls int
	DeleteCalls  int
}

func (m *MockStorage) Store(upload Upload, folder string) (*File, error) {
	m.StoreCalls++
	m.NextID++
	if m.Files == nil {
		m.Files = make(map[int64]*File)
	}
	file := &File{
		ID:       m.NextID,
		Name:     upload.Name,
		Path:     folder + "/" + upload.Name,
		MimeType: upload.ContentType,
		Size:     upload.Size,
		Disk:     "mock",
	}
	m.Files[file.ID] = file
	return file, nil
}

func (m *MockStorage) Replace(fileID int64, upload Upload) (*File, error) {
	m.ReplaceCalls++
	file, ok := m.Files[fileID]
	if !ok {
		return nil, fmt.Errorf("file %d not found", fileID)
	}
	file.Name = upload.Name
	file.Size = upload.Size
	return file, nil
}

func (m *MockStorage) Delete(fileID int64) error {
	m.DeleteCalls++
	delete(m.Files, fileID)
	return nil
}

func (m *MockStorage) GetURL(fileID int64) (string, error) {
	if _, ok := m.Files[fileID]; !ok {
		return "", fmt.Errorf("file %d not found", fileID)
	}
	return fmt.Sprintf("https://files.example.com/%d", fileID), nil
}

func (m *MockStorage) Find(fileID int64) (*File, error) {
	file, ok := m.Files[fileID]
	if !ok {
		return nil, nil
	}
	return file, nil
}
