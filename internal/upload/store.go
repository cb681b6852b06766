// Authgate - Request Authentication and Session Integrity Engine
// Copyright 2026 Authgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/govportal/authgate

package upload

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store persists validated uploads. Files land under dir/<category>/ with a
// random prefix so two uploads of the same name never collide.
type Store struct {
	dir string
}

// NewStore creates a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save writes validated content with non-executable permissions and returns
// the stored path. The caller must have validated both content and filename;
// Save still sanitizes the name as a second line of defense.
func (s *Store) Save(category Category, filename string, data []byte) (string, error) {
	targetDir := filepath.Join(s.dir, string(category))
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.NewString()[:8] + "_" + SanitizeFilename(filename)
	path := filepath.Join(targetDir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to persist upload: %w", err)
	}
	return path, nil
}
