package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/megastock/rollplan/internal/model"
)

// DefaultCatalogPath returns ~/.rollplan/catalog.json.
func DefaultCatalogPath() string {
	return filepath.Join(DefaultConfigDir(), "catalog.json")
}

// SaveCatalog writes the catalog to the specified JSON file.
func SaveCatalog(path string, cat model.Catalog) error {
	return writeJSON(path, cat)
}

// LoadCatalog reads the catalog from the specified JSON file.
// If the file does not exist, the default catalog is saved there and returned.
func LoadCatalog(path string) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cat := model.DefaultCatalog()
			if saveErr := SaveCatalog(path, cat); saveErr != nil {
				return cat, saveErr
			}
			return cat, nil
		}
		return model.Catalog{}, errors.Wrapf(err, "read catalog %s", path)
	}
	var cat model.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return model.Catalog{}, errors.Wrapf(err, "parse catalog %s", path)
	}
	return cat, nil
}

// ImportCatalog merges the rolls and flutes of another catalog file into
// existing. Entries whose ID is already present are skipped.
func ImportCatalog(path string, existing model.Catalog) (model.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return existing, errors.Wrapf(err, "read catalog %s", path)
	}
	var imported model.Catalog
	if err := json.Unmarshal(data, &imported); err != nil {
		return existing, errors.Wrapf(err, "parse catalog %s", path)
	}

	rollIDs := make(map[string]bool, len(existing.Rolls))
	for _, r := range existing.Rolls {
		rollIDs[r.ID] = true
	}
	fluteIDs := make(map[string]bool, len(existing.Flutes))
	for _, f := range existing.Flutes {
		fluteIDs[f.ID] = true
	}

	for _, r := range imported.Rolls {
		if !rollIDs[r.ID] {
			existing.Rolls = append(existing.Rolls, r)
			rollIDs[r.ID] = true
		}
	}
	for _, f := range imported.Flutes {
		if !fluteIDs[f.ID] {
			existing.Flutes = append(existing.Flutes, f)
			fluteIDs[f.ID] = true
		}
	}
	return existing, nil
}
