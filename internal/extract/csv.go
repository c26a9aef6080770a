package extract

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// csvRowLimit caps how many data rows are converted to text. Beyond this,
// extra rows add index bulk without adding retrievable content.
const csvRowLimit = 1000

// extractCSV renders a CSV as one key=value line per row, prefixed with the
// column list, so questions about individual cells can match a chunk.
func extractCSV(content []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return "", fmt.Errorf("read CSV header: %w", err)
	}

	var b strings.Builder
	b.WriteString("Columns: " + strings.Join(header, ", "))

	rows, truncated := 0, 0
	for {
		record, err := r.Read()
		if err != nil {
			break
		}
		if rows >= csvRowLimit {
			truncated++
			continue
		}
		rows++
		pairs := make([]string, 0, len(record))
		for i, value := range record {
			key := fmt.Sprintf("col%d", i+1)
			if i < len(header) {
				key = header[i]
			}
			pairs = append(pairs, key+"="+value)
		}
		b.WriteByte('\n')
		b.WriteString(strings.Join(pairs, "; "))
	}
	if truncated > 0 {
		fmt.Fprintf(&b, "\n... %d more rows truncated", truncated)
	}
	return b.String(), nil
}
