package vocab

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

type Row struct {
	Category CategoryID
	Item     Item
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const maxDelimiterSampleRecords = 20

// ParseTableCSV reads category,native,translation rows. It tolerates a BOM,
// comma/tab/semicolon delimiters and an optional header row, and reports how
// many rows were skipped as incomplete or naming an unknown category.
func ParseTableCSV(data []byte) ([]Row, int, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	delimiter := detectCSVDelimiter(data)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	var rows []Row
	skipped := 0
	checkedHeader := false

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if isEmptyCSVRecord(record) {
			skipped++
			continue
		}
		if !checkedHeader {
			checkedHeader = true
			if isHeaderRecord(record) {
				continue
			}
		}
		if len(record) < 3 {
			skipped++
			continue
		}
		category := normalizeCategory(record[0])
		native := normalizeText(record[1])
		translation := normalizeText(record[2])
		if !category.Valid() || native == "" || translation == "" {
			skipped++
			continue
		}
		rows = append(rows, Row{
			Category: category,
			Item:     Item{Native: native, Translation: translation},
		})
	}

	return rows, skipped, nil
}

// normalizeText composes accents so "Náwe" typed with a combining mark
// compares equal to the precomposed form.
func normalizeText(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

func normalizeCategory(value string) CategoryID {
	return CategoryID(cases.Fold().String(strings.TrimSpace(value)))
}

func detectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', '\t', ';'}
	bestDelimiter := candidates[0]
	bestScore := -1

	for _, delimiter := range candidates {
		score, err := scoreDelimiter(data, delimiter, maxDelimiterSampleRecords)
		if err != nil {
			continue
		}
		if score > bestScore {
			bestScore = score
			bestDelimiter = delimiter
		}
	}

	if bestScore <= 0 {
		return ','
	}
	return bestDelimiter
}

func scoreDelimiter(data []byte, delimiter rune, maxRecords int) (int, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1

	counts := make(map[int]int)
	recordsSeen := 0

	for recordsSeen < maxRecords {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, err
		}
		if isEmptyCSVRecord(record) {
			continue
		}
		recordsSeen++
		if len(record) < 3 {
			continue
		}
		counts[len(record)]++
	}

	best := 0
	for _, score := range counts {
		if score > best {
			best = score
		}
	}
	return best, nil
}

func isEmptyCSVRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func isHeaderRecord(record []string) bool {
	if len(record) < 3 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(record[0]), "category") &&
		strings.EqualFold(strings.TrimSpace(record[1]), "native")
}
