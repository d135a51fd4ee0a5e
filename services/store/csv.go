package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"sjsage522/listingworker/internal/models"
	"sjsage522/listingworker/logger"
)

// CSVStore keeps records in a single CSV file with a header row
type CSVStore struct {
	path   string
	schema models.Schema

	// headerChecked is set once the file header is known to match the schema
	headerChecked bool
}

// NewCSVStore creates a store for path; the file is created lazily
func NewCSVStore(path string, schema models.Schema) *CSVStore {
	return &CSVStore{path: path, schema: schema}
}

// Location returns the CSV path
func (s *CSVStore) Location() string {
	return s.path
}

// Load reads the file. A missing or empty file yields no records.
func (s *CSVStore) Load(ctx context.Context) ([]models.Record, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", s.path, err)
	}

	var records []models.Record
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.path, err)
		}
		records = append(records, s.schema.FromRow(header, row))
	}

	logger.ForStore().Debug().
		Str("path", s.path).
		Int("records", len(records)).
		Msg("Loaded existing records")

	return records, nil
}

// Append writes records at the end of the file, adding the header if the file is new or empty
func (s *CSVStore) Append(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	if !s.headerChecked {
		header, err := s.readHeader()
		if err != nil {
			return err
		}
		if header != nil && !slices.Equal(header, s.schema.Columns) {
			return s.realign(ctx, header, records)
		}
		s.headerChecked = true
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", s.path, err)
	}

	if err := s.write(ctx, f, records, info.Size() == 0); err != nil {
		return err
	}
	return f.Close()
}

// readHeader returns the first row of the file, or nil when there is none
func (s *CSVStore) readHeader() ([]string, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", s.path, err)
	}
	return header, nil
}

// realign rewrites a file whose header is not in schema order, adding records
func (s *CSVStore) realign(ctx context.Context, header []string, records []models.Record) error {
	existing, err := s.Load(ctx)
	if err != nil {
		return err
	}

	logger.ForStore().Warn().
		Str("path", s.path).
		Strs("header", header).
		Msg("Header differs from schema, rewriting in schema order")

	if err := s.Rewrite(ctx, append(existing, records...)); err != nil {
		return err
	}
	s.headerChecked = true
	return nil
}

// Rewrite replaces the file through a temp file and rename
func (s *CSVStore) Rewrite(ctx context.Context, records []models.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.write(ctx, tmp, records, true); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}

	logger.ForStore().Info().
		Str("path", s.path).
		Int("records", len(records)).
		Msg("Rewrote CSV")

	return nil
}

func (s *CSVStore) write(ctx context.Context, w io.Writer, records []models.Record, header bool) error {
	writer := csv.NewWriter(w)
	if header {
		if err := writer.Write(s.schema.Columns); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writer.Write(s.schema.Row(r)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", s.path, err)
	}
	return nil
}
