// backend/src/services/attachment_service.go
package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// localAttachmentStore keeps attachment blobs on the local filesystem under a
// single base directory, addressed by a generated name so client-supplied
// filenames never reach the disk.
type localAttachmentStore struct {
	baseDir string
}

func NewAttachmentStore(baseDir string) (AttachmentStore, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory %s: %w", baseDir, err)
	}
	return &localAttachmentStore{baseDir: baseDir}, nil
}

func (s *localAttachmentStore) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.New().String() + ext

	f, err := os.Create(filepath.Join(s.baseDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create attachment file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}
	return name, nil
}

func (s *localAttachmentStore) Open(path string) (io.ReadCloser, error) {
	// Reject anything that tries to escape the base directory.
	clean := filepath.Base(path)
	if clean != path {
		return nil, fmt.Errorf("invalid attachment path %q", path)
	}
	return os.Open(filepath.Join(s.baseDir, clean))
}

func (s *localAttachmentStore) URL(path string) string {
	return "/api/attachments/" + path
}
