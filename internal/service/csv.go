package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// parseCSV decodes raw file content with the chosen encoding and parses it as
// comma-delimited text, the first line being the header. It returns one
// header-keyed map per data line plus the header names exactly as they
// appeared. Decoding never fails (invalid bytes become U+FFFD); only a
// structurally broken CSV surfaces an error.
func parseCSV(content []byte, encodingName string) ([]map[string]string, []string, error) {
	text := decodeReplace(content, encodingName)

	// Strip a leading BOM character that survived decoding, then normalize
	// every line-ending style to LF.
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1 // municipal exports pad rows inconsistently
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("service: CSV file is empty")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("service: failed to read CSV header: %w", err)
	}

	columns := make([]string, len(header))
	copy(columns, header)

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("service: failed to read CSV record: %w", err)
		}

		row := make(map[string]string, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			} else {
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, columns, nil
}
