package app

import (
	"bytes"
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/Alexvc23/ETL-vacantions-France-and-neighboors/internal/matrix"
)

var (
	// ErrNoInput is returned when no input file matches the given paths
	ErrNoInput = errors.New("no input files")

	// ErrMissingColumn is returned when a feed lacks a required column
	ErrMissingColumn = errors.New("missing required column")

	// ErrFormat wraps CSV syntax errors
	ErrFormat = errors.New("malformed CSV")
)

type field int

const (
	fieldDescription field = iota
	fieldPopulation
	fieldStart
	fieldEnd
	fieldAcademy
	fieldZone
	fieldSchoolYear
)

// headerAliases maps folded header names to record fields
var headerAliases = map[string]field{
	"description":    fieldDescription,
	"population":     fieldPopulation,
	"date de debut":  fieldStart,
	"date_debut":     fieldStart,
	"start date":     fieldStart,
	"start_date":     fieldStart,
	"date de fin":    fieldEnd,
	"date_fin":       fieldEnd,
	"end date":       fieldEnd,
	"end_date":       fieldEnd,
	"academies":      fieldAcademy,
	"academie":       fieldAcademy,
	"academy":        fieldAcademy,
	"zones":          fieldZone,
	"zone":           fieldZone,
	"location":       fieldZone,
	"annee_scolaire": fieldSchoolYear,
	"annee scolaire": fieldSchoolYear,
	"school year":    fieldSchoolYear,
	"school_year":    fieldSchoolYear,
}

var requiredFields = map[field]string{
	fieldStart:   "Date de début",
	fieldEnd:     "Date de fin",
	fieldAcademy: "Académies",
	fieldZone:    "Zones",
}

// Sources is the materialized input of one run
type Sources struct {
	Records []matrix.RawRecord
	Files   []string
	Skipped int

	// Digest is a BLAKE2b-256 fingerprint over every file path and its bytes
	Digest string
}

// ExpandInputs resolves glob patterns to a sorted, deduplicated file list.
// A pattern without matches is kept as-is so opening it reports the real error.
func ExpandInputs(patterns []string) ([]string, error) {
	var files []string
	for _, p := range patterns {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", p, err)
		}
		if len(matches) == 0 {
			matches = []string{p}
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, ErrNoInput
	}

	slices.Sort(files)
	return slices.Compact(files), nil
}

// ReadSources reads every file matched by patterns
func ReadSources(patterns []string) (*Sources, error) {
	files, err := ExpandInputs(patterns)
	if err != nil {
		return nil, err
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		return nil, err
	}

	src := &Sources{Files: files}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(h, "%s\x00%d\x00", filepath.Base(path), len(data))
		h.Write(data)

		records, skipped, err := ReadCSV(bytes.NewReader(data), path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		log.Printf("Read %d records from %s", len(records), path)
		src.Records = append(src.Records, records...)
		src.Skipped += skipped
	}

	src.Digest = hex.EncodeToString(h.Sum(nil))
	return src, nil
}

// ReadCSV parses one semicolon- or comma-delimited calendar feed.
// It returns the records and the number of rows skipped for being too short.
func ReadCSV(r io.Reader, name string) ([]matrix.RawRecord, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectDelimiter(data)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, fmt.Errorf("%w: empty file", ErrFormat)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: header: %v", ErrFormat, err)
	}

	index, err := mapHeader(header)
	if err != nil {
		return nil, 0, err
	}

	var records []matrix.RawRecord
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrFormat, err)
		}

		line, _ := cr.FieldPos(0)
		get := func(f field) (string, bool) {
			i, ok := index[f]
			if !ok {
				return "", true
			}
			if i >= len(row) {
				return "", false
			}
			return strings.TrimSpace(row[i]), true
		}

		rec := matrix.RawRecord{Origin: fmt.Sprintf("%s:%d", name, line)}
		complete := true
		for f, dst := range map[field]*string{
			fieldDescription: &rec.Description,
			fieldPopulation:  &rec.Population,
			fieldStart:       &rec.StartDate,
			fieldEnd:         &rec.EndDate,
			fieldAcademy:     &rec.AcademyLabel,
			fieldZone:        &rec.ZoneLabel,
			fieldSchoolYear:  &rec.SchoolYear,
		} {
			v, ok := get(f)
			if !ok {
				if _, required := requiredFields[f]; required {
					complete = false
				}
			}
			*dst = v
		}
		if !complete {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// detectDelimiter picks ';' or ',' from whichever occurs more in the header line
func detectDelimiter(data []byte) rune {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	if bytes.Count(line, []byte(",")) > bytes.Count(line, []byte(";")) {
		return ','
	}
	return ';'
}

func mapHeader(header []string) (map[field]int, error) {
	index := make(map[field]int)
	for i, h := range header {
		f, ok := headerAliases[matrix.Fold(h)]
		if !ok {
			continue
		}
		if _, dup := index[f]; !dup {
			index[f] = i
		}
	}

	var missing []string
	for f, name := range requiredFields {
		if _, ok := index[f]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("%w: %s (header: %s)", ErrMissingColumn, strings.Join(missing, ", "), strings.Join(header, "|"))
	}
	return index, nil
}
