// Package export renders a company's dashboard as a CSV or XLSX file.
package export

import (
	"fmt"
	"time"

	"github.com/utilityprofit/moveout-tracker/internal/models"
)

// Format is an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return f == FormatCSV || f == FormatXLSX
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Header is the first row of every export.
var Header = []string{
	"Address", "City", "State", "Zip", "Move-Out Date",
	"Utility", "Provider", "Phone", "Website",
	"Transfer To", "Target Date", "Status", "Notes",
}

// Rows flattens data into one row per utility. A property without utilities
// still gets one row, with the utility columns blank.
func Rows(data *models.CompanyData) [][]string {
	var out [][]string
	for _, p := range data.Properties {
		prop := []string{p.Address, p.City, p.State, p.Zip, p.TenantMoveOut}
		if len(p.Utilities) == 0 {
			out = append(out, append(append([]string{}, prop...), make([]string, len(Header)-len(prop))...))
			continue
		}
		for _, u := range p.Utilities {
			row := append([]string{}, prop...)
			row = append(row,
				string(u.UtilityType), u.ProviderName, u.ProviderPhone, u.ProviderWebsite,
				string(u.TransferTo), u.TargetDate, string(u.Status), u.Notes,
			)
			out = append(out, row)
		}
	}
	return out
}

// Filename is {slug}-utilities-{YYYY-MM-DD}.{format}.
func Filename(slug string, f Format, now time.Time) string {
	return fmt.Sprintf("%s-utilities-%s.%s", slug, now.Format("2006-01-02"), f)
}
