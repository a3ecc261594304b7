// Package columnar converts observation rows into parquet artifacts for
// the processed zone.
package columnar

import (
	"bytes"
	"fmt"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/JakeFAU/realtime-odds-ingest/internal/market"
)

// record mirrors market.Row with the physical column types of the
// processed artifact. One column per row field.
type record struct {
	ScrapedAt time.Time `parquet:"scraped_at,timestamp(millisecond)"`
	Value1    float64   `parquet:"value1"`
	Value2    int64     `parquet:"value2"`
}

// ContentType is the media type recorded on processed-zone objects.
const ContentType = "application/vnd.apache.parquet"

// Transcode renders rows as a single-batch parquet table. Pure transform;
// the input is not modified and an empty input is an error rather than an
// empty artifact.
func Transcode(rows []market.Row) ([]byte, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows to transcode")
	}

	records := make([]record, len(rows))
	for i, row := range rows {
		records[i] = record{
			ScrapedAt: row.ScrapedAt.UTC(),
			Value1:    row.Value1,
			Value2:    row.Value2,
		}
	}

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[record](&buf)
	if _, err := w.Write(records); err != nil {
		return nil, fmt.Errorf("write parquet rows: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
