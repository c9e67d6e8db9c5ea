package export

import (
	"io"
	"strings"

	"github.com/utilityprofit/moveout-tracker/internal/models"
)

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func csvLine(fields []string) string {
	q := make([]string, len(fields))
	for i, f := range fields {
		q[i] = quote(f)
	}
	return strings.Join(q, ",")
}

// CSV renders the header and Rows with every value quoted, lines joined by "\n".
func CSV(data *models.CompanyData) string {
	rows := Rows(data)
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, csvLine(Header))
	for _, r := range rows {
		lines = append(lines, csvLine(r))
	}
	return strings.Join(lines, "\n")
}

// WriteCSV writes CSV(data) to w.
func WriteCSV(w io.Writer, data *models.CompanyData) error {
	_, err := io.WriteString(w, CSV(data))
	return err
}
