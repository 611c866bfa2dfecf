package merge

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/mkessy/genre-db/pkg/aggregate"
	"github.com/mkessy/genre-db/pkg/fileutil"
)

// parquetWriteChunk bounds the rows buffered per write call.
const parquetWriteChunk = 10_000

// AggregateRow is the columnar form of one merged artist aggregate.
type AggregateRow struct {
	SourceID     string   `parquet:"source_id"`
	Name         string   `parquet:"name"`
	Genres       []string `parquet:"genres,list"`
	Styles       []string `parquet:"styles,list"`
	ReleaseYears []int32  `parquet:"release_years,list"`
	ReleaseCount int64    `parquet:"release_count"`
}

// ExportParquet writes the merged aggregate table as a Parquet file for
// analytical tooling, using the same atomic write discipline as the JSON
// artifacts.
func ExportParquet(path string, aggs *aggregate.Aggregator) error {
	recs := aggs.Snapshot()

	return fileutil.WriteAtomic(path, func(w io.Writer) error {
		pw := parquet.NewGenericWriter[AggregateRow](w)

		rows := make([]AggregateRow, 0, parquetWriteChunk)
		flush := func() error {
			if len(rows) == 0 {
				return nil
			}
			if _, err := pw.Write(rows); err != nil {
				return fmt.Errorf("write parquet rows: %w", err)
			}
			rows = rows[:0]
			return nil
		}

		for _, rec := range recs {
			years := make([]int32, len(rec.ReleaseYears))
			for i, y := range rec.ReleaseYears {
				years[i] = int32(y)
			}
			rows = append(rows, AggregateRow{
				SourceID:     rec.SourceID,
				Name:         rec.Name,
				Genres:       rec.Genres,
				Styles:       rec.Styles,
				ReleaseYears: years,
				ReleaseCount: rec.ReleaseCount,
			})
			if len(rows) == parquetWriteChunk {
				if err := flush(); err != nil {
					return err
				}
			}
		}
		if err := flush(); err != nil {
			return err
		}
		if err := pw.Close(); err != nil {
			return fmt.Errorf("close parquet writer: %w", err)
		}
		return nil
	})
}
