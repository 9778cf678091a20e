// Package export renders the record history as delimited text and ships it
// to object storage.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/okian/platecheck/internal/domain/model"
	"gopkg.in/guregu/null.v4"
)

// ContentType of the CSV export.
const ContentType = "text/csv; charset=utf-8"

const (
	utf8BOM = "\ufeff"
	missing = "N/A"
)

// Header is the first CSV row. The image column repeats the file name;
// spreadsheet users swap it for a thumbnail.
var Header = []string{"이미지(파일명)", "파일명", "분석 A 결과", "분석 B 결과", "네이버 OCR", "일치 여부"}

// FileName is the default export name for the day of now.
func FileName(now time.Time) string {
	return fmt.Sprintf("차량번호_분석_히스토리_%s.csv", now.Format("20060102"))
}

// WriteCSV writes the header and one row per record, preceded by a UTF-8
// byte order mark so spreadsheet tools detect Hangul correctly.
func WriteCSV(w io.Writer, records []*model.ComparisonRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write bom: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(Row(rec.ExportRow())); err != nil {
			return fmt.Errorf("write row %s: %w", rec.ID(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row flattens one export row into CSV cells.
func Row(r model.ExportRow) []string {
	return []string{
		r.FileName,
		r.FileName,
		orMissing(r.PlateFocus),
		orMissing(r.DamageFocus),
		orMissing(r.PrecisionOCR),
		r.Consistency.String(),
	}
}

func orMissing(s null.String) string {
	if !s.Valid || s.String == "" {
		return missing
	}
	return s.String
}
