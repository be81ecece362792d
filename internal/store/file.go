package store

import (
	"encoding/json"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"pix-provider/internal/model"
)

// FileStore persists the whole payment collection as a single JSON file.
// There is no per-record API: every save rewrites the file wholesale and
// the collection is read once at process start.
type FileStore struct {
	path   string
	logger *slog.Logger
}

func NewFileStore(path string, logger *slog.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Load reads the full collection. A missing file is an empty collection,
// not an error, so a fresh deployment starts clean.
func (s *FileStore) Load() ([]model.Payment, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("Store file not found, starting with empty collection", "path", s.path)
			return []model.Payment{}, nil
		}
		return nil, errors.Wrapf(err, "reading store file %s", s.path)
	}

	var payments []model.Payment
	if err := json.Unmarshal(data, &payments); err != nil {
		return nil, errors.Wrapf(err, "decoding store file %s", s.path)
	}

	return payments, nil
}

// Save rewrites the file with the given collection.
func (s *FileStore) Save(payments []model.Payment) error {
	data, err := json.MarshalIndent(payments, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding payment collection")
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing store file %s", s.path)
	}

	return nil
}
