// Package excel loads channels-by-samples recordings from Excel workbooks and
// CSV files. A workbook stores one epoch per sheet; a CSV file holds a single
// unepoched recording. The first cell of each row is the channel label.
package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"hyperit/domain/core"
	"hyperit/domain/signal"
)

// DataReader handles reading Excel and CSV recordings.
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
}

// NewDataReader creates a reader that dispatches on the file extension.
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &DataReader{filePath: filePath, fileType: fileType}
}

// Read loads the recording into a Signal plus its channel labels. Workbooks
// with more than one sheet come back epoched; single-sheet workbooks and CSV
// files come back as one continuous recording.
func (r *DataReader) Read() (signal.Signal, []string, error) {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return signal.Signal{}, nil, core.NewValidationError("file",
			fmt.Sprintf("%s not found", r.filePath))
	}

	switch r.fileType {
	case "csv":
		return r.readCSV()
	default:
		return r.readWorkbook()
	}
}

func (r *DataReader) readWorkbook() (signal.Signal, []string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return signal.Signal{}, nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return signal.Signal{}, nil, core.NewValidationError("file", "workbook has no sheets")
	}

	var epochs [][][]float64
	var labels []string
	for si, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return signal.Signal{}, nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
		}
		channels, sheetLabels, err := parseRows(rows)
		if err != nil {
			return signal.Signal{}, nil, fmt.Errorf("sheet %q: %w", sheet, err)
		}
		if si == 0 {
			labels = sheetLabels
		} else if !sameLabels(labels, sheetLabels) {
			return signal.Signal{}, nil, core.NewValidationError("file",
				fmt.Sprintf("sheet %q channel labels differ from sheet %q", sheet, sheets[0]))
		}
		epochs = append(epochs, channels)
	}

	if len(epochs) == 1 {
		s, err := signal.FromMatrix(epochs[0])
		return s, labels, err
	}
	s, err := signal.FromEpochs(epochs)
	return s, labels, err
}

func (r *DataReader) readCSV() (signal.Signal, []string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return signal.Signal{}, nil, fmt.Errorf("opening CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return signal.Signal{}, nil, fmt.Errorf("reading CSV file: %w", err)
	}

	channels, labels, err := parseRows(rows)
	if err != nil {
		return signal.Signal{}, nil, err
	}
	s, err := signal.FromMatrix(channels)
	return s, labels, err
}

// parseRows turns label-prefixed rows into a (channels, samples) matrix.
// Unlabelled rows (a numeric first cell) get positional fallback labels.
func parseRows(rows [][]string) ([][]float64, []string, error) {
	if len(rows) == 0 {
		return nil, nil, core.NewValidationError("file", "no rows")
	}

	channels := make([][]float64, 0, len(rows))
	labels := make([]string, 0, len(rows))
	for ri, row := range rows {
		if len(row) == 0 {
			continue
		}

		label := strings.TrimSpace(row[0])
		values := row[1:]
		if _, err := strconv.ParseFloat(label, 64); err == nil {
			label = fmt.Sprintf("ch%d", len(labels)+1)
			values = row
		}

		samples := make([]float64, len(values))
		for ci, cell := range values {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, nil, core.NewValidationError("file",
					fmt.Sprintf("row %d column %d: %q is not numeric", ri+1, ci+2, cell))
			}
			samples[ci] = v
		}
		channels = append(channels, samples)
		labels = append(labels, label)
	}

	if len(channels) == 0 {
		return nil, nil, core.NewValidationError("file", "no channel rows")
	}
	return channels, labels, nil
}

func sameLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
