package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tturner/g5trace/internal/collection"
	"github.com/tturner/g5trace/internal/dissemination"
)

// WriteTimeSeriesCSV writes one row per time bucket.
func WriteTimeSeriesCSV(path string, buckets []collection.TimeBucket) error {
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{
			b.Start.UTC().Format("2006-01-02T15:04:05Z"),
			strconv.Itoa(b.CAM),
			strconv.Itoa(b.DENM),
			strconv.Itoa(b.Other),
		})
	}
	return writeCSV(path, []string{"Start", "CAM", "DENM", "Other"}, rows)
}

// WriteDistributionCSV writes one row per histogram bucket, empty buckets
// included.
func WriteDistributionCSV(path string, d dissemination.Distribution) error {
	rows := make([][]string, 0, len(d.Buckets))
	for _, b := range d.Buckets {
		rows = append(rows, []string{
			b.Label,
			strconv.FormatFloat(b.Lower, 'f', 0, 64),
			strconv.FormatFloat(b.Upper, 'f', 0, 64),
			strconv.Itoa(b.Count),
			strconv.FormatFloat(b.Percentage, 'f', 2, 64),
		})
	}
	return writeCSV(path, []string{"Range", "Lower_m", "Upper_m", "Count", "Percentage"}, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create csv directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
