// Package services – Importer
//
// This file implements the catalog seeders behind the import-ingredients and
// import-tags commands. Both accept CSV or JSON:
//
//	ingredients.csv   name,measurement_unit       (header optional)
//	ingredients.json  [{"name": "...", "measurement_unit": "..."}]
//	tags.csv          name,slug                   (header optional)
//	tags.json         [{"name": "...", "slug": "..."}]
//
// Rows are get-or-create, so re-running an import is safe. Invalid rows are
// counted and logged, never fatal.
package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/foodgram-backend/internal/repo"
)

// ImportReport summarizes one import run.
type ImportReport struct {
	Created int `json:"created"`
	Existed int `json:"existed"`
	Invalid int `json:"invalid"`
}

// Importer seeds the tag and ingredient catalogs.
type Importer struct {
	DB *gorm.DB
	// Catalog, when set, gets its search index rebuilt after an ingredient import.
	Catalog *CatalogService
}

// FormatFromPath picks "csv" or "json" from a file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return "csv", nil
	case ".json":
		return "json", nil
	default:
		return "", fmt.Errorf("unsupported import file type %q (want .csv or .json)", ext)
	}
}

// Ingredients imports ingredient rows from r in format ("csv" or "json").
func (im *Importer) Ingredients(ctx context.Context, r io.Reader, format string) (ImportReport, error) {
	var seeds []IngredientSeed
	switch format {
	case "csv":
		rows, err := readCSV(r, "name")
		if err != nil {
			return ImportReport{}, err
		}
		for _, row := range rows {
			seeds = append(seeds, IngredientSeed{Name: row[0], MeasurementUnit: row[1]})
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&seeds); err != nil {
			return ImportReport{}, fmt.Errorf("decode ingredients: %w", err)
		}
	default:
		return ImportReport{}, fmt.Errorf("unsupported format %q", format)
	}

	var rep ImportReport
	err := im.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, sd := range seeds {
			sd.Name, sd.MeasurementUnit = trimmed(sd.Name), trimmed(sd.MeasurementUnit)
			if err := sd.Validate(); err != nil {
				rep.Invalid++
				log.Ctx(ctx).Warn().Int("row", i+1).Err(err).Msg("skip ingredient")
				continue
			}
			_, created, err := repo.GetOrCreateIngredient(ctx, tx, sd.Name, sd.MeasurementUnit)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			if created {
				rep.Created++
			} else {
				rep.Existed++
			}
		}
		return nil
	})
	if err != nil {
		return ImportReport{}, err
	}
	if im.Catalog != nil && rep.Created > 0 {
		if _, err := im.Catalog.RebuildIndex(ctx); err != nil {
			return rep, err
		}
	}
	log.Ctx(ctx).Info().
		Int("created", rep.Created).
		Int("existed", rep.Existed).
		Int("invalid", rep.Invalid).
		Msg("ingredients imported")
	return rep, nil
}

// Tags imports tag rows from r in format ("csv" or "json").
func (im *Importer) Tags(ctx context.Context, r io.Reader, format string) (ImportReport, error) {
	var seeds []TagSeed
	switch format {
	case "csv":
		rows, err := readCSV(r, "name")
		if err != nil {
			return ImportReport{}, err
		}
		for _, row := range rows {
			seeds = append(seeds, TagSeed{Name: row[0], Slug: row[1]})
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&seeds); err != nil {
			return ImportReport{}, fmt.Errorf("decode tags: %w", err)
		}
	default:
		return ImportReport{}, fmt.Errorf("unsupported format %q", format)
	}

	var rep ImportReport
	err := im.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, sd := range seeds {
			sd.Name, sd.Slug = trimmed(sd.Name), trimmed(sd.Slug)
			if err := sd.Validate(); err != nil {
				rep.Invalid++
				log.Ctx(ctx).Warn().Int("row", i+1).Err(err).Msg("skip tag")
				continue
			}
			created, err := repo.EnsureTag(ctx, tx, sd.Name, sd.Slug)
			if err != nil {
				return fmt.Errorf("row %d: %w", i+1, err)
			}
			if created {
				rep.Created++
			} else {
				rep.Existed++
			}
		}
		return nil
	})
	if err != nil {
		return ImportReport{}, err
	}
	log.Ctx(ctx).Info().
		Int("created", rep.Created).
		Int("existed", rep.Existed).
		Int("invalid", rep.Invalid).
		Msg("tags imported")
	return rep, nil
}

// readCSV reads two-column rows. A first row whose first cell equals
// header (case-insensitively) is skipped.
func readCSV(r io.Reader, header string) ([][2]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.TrimLeadingSpace = true

	var out [][2]string
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), header) {
			continue
		}
		out = append(out, [2]string{rec[0], rec[1]})
	}
}
