// Package storage persists uploaded receipt files on the local filesystem.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReceiptStore writes uploaded receipts under a base directory, naming each
// file with a fresh UUID so uploads never collide or overwrite.
type ReceiptStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewReceiptStore creates the store and its base directory.
func NewReceiptStore(baseDir string, logger *zap.Logger) (*ReceiptStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create receipt directory: %w", err)
	}
	return &ReceiptStore{
		baseDir: baseDir,
		logger:  logger,
	}, nil
}

// Save stores the uploaded content, keeping the original extension, and
// returns the stored file's path.
func (s *ReceiptStore) Save(originalName string, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	name := uuid.NewString() + ext
	fullPath := filepath.Join(s.baseDir, name)

	file, err := os.Create(fullPath)
	if err != nil {
		s.logger.Error("Failed to create receipt file", zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to create receipt file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, content)
	if err != nil {
		os.Remove(fullPath)
		s.logger.Error("Failed to write receipt file", zap.String("path", fullPath), zap.Error(err))
		return "", fmt.Errorf("failed to write receipt file: %w", err)
	}

	s.logger.Debug("Receipt stored",
		zap.String("path", fullPath),
		zap.Int64("size", size))
	return fullPath, nil
}

// Remove deletes a stored receipt file.
func (s *ReceiptStore) Remove(path string) error {
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(s.baseDir)) {
		return fmt.Errorf("path %q is outside the receipt directory", path)
	}
	return os.Remove(path)
}
