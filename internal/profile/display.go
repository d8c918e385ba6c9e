package profile

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/mesh-intelligence/profilefields/internal/category"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

var displayTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// DisplayRow is one label and value pair on the profile page.
type DisplayRow struct {
	FieldID   int64         `json:"field_id"`
	ShortName string        `json:"short_name"`
	Label     string        `json:"label"`
	Value     template.HTML `json:"value"`
}

// DisplayFields returns a row for every field of userID that the caller
// may see and that has a value, in category then field order.
func DisplayFields(page *Page, userID int64) ([]DisplayRow, error) {
	categories, err := category.List(page.Cupboard, types.ObjectUser)
	if err != nil {
		return nil, err
	}
	var rows []DisplayRow
	for _, c := range categories {
		fields, err := fetchFields(page, types.Filter{"category_id": c.ID})
		if err != nil {
			return nil, err
		}
		for _, def := range fields {
			fl, err := New(page, def.Datatype, def.ID, userID)
			if err != nil {
				return nil, err
			}
			if fl.FieldBase().IsVisible() && !fl.IsEmpty() {
				rows = append(rows, DisplayRow{
					FieldID:   def.ID,
					ShortName: def.ShortName,
					Label:     def.Name + ":",
					// DisplayData output is escaped or sanitized.
					Value: template.HTML(fl.DisplayData()),
				})
			}
		}
	}
	return rows, nil
}

// RenderDisplay writes rows as an HTML table.
func RenderDisplay(w io.Writer, rows []DisplayRow) error {
	if err := displayTemplate.ExecuteTemplate(w, "display", rows); err != nil {
		return fmt.Errorf("rendering profile: %w", err)
	}
	return nil
}
