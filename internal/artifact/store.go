// internal/artifact/store.go
package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	apperrors "mortgage-readiness/internal/common/errors"
)

// Save writes a to path as JSON, creating parent directories. The file is
// written to a temporary sibling and renamed into place.
func Save(path string, a *Artifact) error {
	if err := a.Validate(); err != nil {
		return apperrors.NewArtifactSaveFailedError(path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewArtifactSaveFailedError(path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.NewArtifactSaveFailedError(path, err)
	}
	defer os.Remove(tmp.Name())

	enc := json.NewEncoder(tmp)
	if err := enc.Encode(a); err != nil {
		tmp.Close()
		return apperrors.NewArtifactSaveFailedError(path, fmt.Errorf("encode: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.NewArtifactSaveFailedError(path, err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewArtifactSaveFailedError(path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.NewArtifactSaveFailedError(path, err)
	}
	return nil
}

// Load reads and validates the artifact at path.
func Load(path string) (*Artifact, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewArtifactNotFoundError(path)
		}
		return nil, apperrors.NewArtifactInvalidError(path, "open failed", err)
	}
	defer f.Close()

	var a Artifact
	if err := json.NewDecoder(f).Decode(&a); err != nil {
		return nil, apperrors.NewArtifactInvalidError(path, "decode failed", err)
	}
	if err := a.Validate(); err != nil {
		return nil, apperrors.NewArtifactInvalidError(path, err.Error(), err)
	}
	return &a, nil
}
