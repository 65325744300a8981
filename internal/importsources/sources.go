package importsources

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"uutisvahti/aggregator/internal/database"
	"uutisvahti/aggregator/internal/models"
)

// Store persists imported sources.
type Store interface {
	InsertSource(ctx context.Context, src *models.Source) error
}

// Report summarises an import. Row problems are collected, not fatal.
type Report struct {
	Rows     int
	Imported int
	Errors   []string
}

// Importer handles the source import process
type Importer struct {
	store    Store
	validate *validator.Validate
	http     *resty.Client
}

// NewImporter creates a new source importer
func NewImporter(store Store) *Importer {
	return &Importer{
		store:    store,
		validate: validator.New(),
		http:     resty.New(),
	}
}

// ImportFile imports sources from a local CSV file or an http(s) URL.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Report, error) {
	log.Info().Str("csv", path).Msg("Starting source import")

	r, err := i.open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to get CSV data: %w", err)
	}
	defer r.Close()

	report, err := i.Import(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to import sources: %w", err)
	}

	log.Info().Msg("Import completed successfully")
	return report, nil
}

func (i *Importer) open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		log.Info().Str("path", path).Msg("Using local CSV file")
		return os.Open(path)
	}

	log.Info().Str("url", path).Msg("Downloading CSV file")
	resp, err := i.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to download CSV file: %w", err)
	}
	if !resp.IsSuccess() {
		resp.RawBody().Close()
		return nil, fmt.Errorf("failed to download file: HTTP status %d", resp.StatusCode())
	}
	return resp.RawBody(), nil
}

// Import reads a CSV with the header name,rss_url,category[,weight][,is_active].
func (i *Importer) Import(ctx context.Context, csvData io.Reader) (*Report, error) {
	reader := csv.NewReader(csvData)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	log.Debug().Strs("header", header).Msg("CSV header read")

	nameIdx := findColumnIndex(header, "name")
	urlIdx := findColumnIndex(header, "rss_url")
	if urlIdx < 0 {
		urlIdx = findColumnIndex(header, "url")
	}
	categoryIdx := findColumnIndex(header, "category")
	weightIdx := findColumnIndex(header, "weight")
	activeIdx := findColumnIndex(header, "is_active")

	for column, idx := range map[string]int{"name": nameIdx, "rss_url": urlIdx, "category": categoryIdx} {
		if idx < 0 {
			return nil, fmt.Errorf("required column '%s' not found in CSV header", column)
		}
	}

	report := &Report{}
	line := 1 // Header was already read

	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("Error reading CSV line")
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		if len(record) == 0 || (len(record) == 1 && record[0] == "") {
			log.Debug().Int("line", line).Msg("Skipping empty row")
			continue
		}
		report.Rows++

		src, err := i.buildSource(record, nameIdx, urlIdx, categoryIdx, weightIdx, activeIdx)
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("Skipping invalid row")
			report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		logger := log.With().
			Int("line", line).
			Str("url", src.RSSURL).
			Str("category", string(src.Category)).
			Logger()

		if err := i.store.InsertSource(ctx, src); err != nil {
			if errors.Is(err, database.ErrDuplicate) {
				logger.Warn().Msg("Duplicate active feed URL")
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: duplicate URL: %s", line, src.RSSURL))
			} else {
				logger.Error().Err(err).Msg("Failed to insert source")
				report.Errors = append(report.Errors, fmt.Sprintf("line %d: %v", line, err))
			}
			continue
		}

		report.Imported++
		logger.Debug().Int64("source_id", src.ID).Msg("Source inserted successfully")
	}

	log.Info().
		Int("total", report.Rows).
		Int("success", report.Imported).
		Int("errors", len(report.Errors)).
		Msg("Import summary")

	return report, nil
}

func (i *Importer) buildSource(record []string, nameIdx, urlIdx, categoryIdx, weightIdx, activeIdx int) (*models.Source, error) {
	src := models.NewSource()
	src.Name = safeGetValue(record, nameIdx)
	src.RSSURL = safeGetValue(record, urlIdx)
	src.Category = models.Category(strings.ToLower(safeGetValue(record, categoryIdx)))

	if v := safeGetValue(record, weightIdx); v != "" {
		weight, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q", v)
		}
		src.Weight = weight
	}
	if v := safeGetValue(record, activeIdx); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid is_active %q", v)
		}
		src.IsActive = active
	}

	if err := i.validate.Struct(src); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+":"+fe.Tag())
			}
			return nil, fmt.Errorf("validation failed: %s", strings.Join(fields, ", "))
		}
		return nil, err
	}
	return src, nil
}

func findColumnIndex(header []string, columnName string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), columnName) {
			return i
		}
	}
	return -1
}

// safeGetValue returns the trimmed value at index, or "" when out of bounds.
func safeGetValue(record []string, index int) string {
	if index >= 0 && index < len(record) {
		return strings.TrimSpace(record[index])
	}
	return ""
}

// Export writes sources as CSV in the format Import reads.
func Export(w io.Writer, sources []models.Source) error {
	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write([]string{"name", "rss_url", "category", "weight", "is_active"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, src := range sources {
		record := []string{
			src.Name,
			src.RSSURL,
			string(src.Category),
			strconv.Itoa(src.Weight),
			strconv.FormatBool(src.IsActive),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
