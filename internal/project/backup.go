package project

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/megastock/rollplan/internal/model"
)

// BackupVersion is the backup format version.
const BackupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version   string          `json:"version"`
	CreatedAt string          `json:"created_at"`
	Config    model.AppConfig `json:"config"`
	Catalog   model.Catalog   `json:"catalog"`
	OrderBook OrderBook       `json:"order_book"`
}

// ExportAllData writes config, catalog and order book to a single JSON file.
func ExportAllData(exportPath string, config model.AppConfig, cat model.Catalog, book OrderBook) error {
	book.Orders = book.Originals()
	backup := BackupData{
		Version:   BackupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Catalog:   cat,
		OrderBook: book,
	}
	if err := writeJSON(exportPath, backup); err != nil {
		return errors.Wrap(err, "write backup")
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying it.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, errors.Wrap(err, "read backup file")
	}
	var backup BackupData
	if err := json.Unmarshal(data, &backup); err != nil {
		return BackupData{}, errors.Wrap(err, "parse backup file")
	}
	if backup.Version == "" {
		return BackupData{}, errors.New("invalid backup file: missing version field")
	}
	return backup, nil
}
