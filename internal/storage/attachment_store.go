package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// AttachmentStore keeps supporting documents for change requests on the
// local filesystem, one folder per request number.
type AttachmentStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewAttachmentStore creates a new attachment store
func NewAttachmentStore(baseDir string, logger *zap.Logger) *AttachmentStore {
	return &AttachmentStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes an attachment for a request and returns its path
func (s *AttachmentStore) Save(requestNumber, fileName string, content []byte) (string, error) {
	fullPath := filepath.Join(s.RequestDir(requestNumber), sanitizeFileName(fileName))

	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		s.logger.Error("Failed to create attachment directory",
			zap.String("path", filepath.Dir(fullPath)),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		s.logger.Error("Failed to write attachment",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}

	s.logger.Debug("Attachment saved",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return fullPath, nil
}

// RequestDir returns the attachment folder for a request
func (s *AttachmentStore) RequestDir(requestNumber string) string {
	return filepath.Join(s.baseDir, sanitizeFileName(requestNumber))
}

// List returns the attachment file names stored for a request. A request
// with no folder yet has no attachments.
func (s *AttachmentStore) List(requestNumber string) ([]string, error) {
	entries, err := os.ReadDir(s.RequestDir(requestNumber))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// validatePath checks that the path stays within the base directory
func (s *AttachmentStore) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}

var unsafeFileNameChars = regexp.MustCompile(`[^a-zA-Z0-9._\-]`)

// sanitizeFileName strips path separators and shell-unfriendly characters
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	name = unsafeFileNameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		name = "attachment"
	}
	return name
}
