package form

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var formTemplate = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Date layouts produced by Bind for date_time elements.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

// Layouts for showing a date_time value to people.
const (
	DisplayDateLayout     = "2 January 2006"
	DisplayDateTimeLayout = "2 January 2006, 15:04"
)

// FormatDateValue formats a date_time value for display. Values that do
// not parse are returned unchanged.
func FormatDateValue(v string, withTime bool) string {
	t, ok := ParseDateValue(v)
	if !ok {
		return v
	}
	if withTime {
		return t.Format(DisplayDateTimeLayout)
	}
	return t.Format(DisplayDateLayout)
}

// ParseDateValue reads a date_time value. It accepts unix seconds as
// stored in the database, or the layouts Bind produces. Times are UTC.
func ParseDateValue(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(n, 0).UTC(), true
	}
	for _, layout := range []string{DateTimeLayout, DateLayout} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type optionView struct {
	Value    string
	Label    string
	Selected bool
}

type datePartView struct {
	Name    string
	Options []optionView
}

type elementView struct {
	Kind      string
	Name      string
	Label     string
	Value     string
	Error     string
	Required  bool
	Frozen    bool
	Size      string
	MaxLength string
	Rows      string
	Checked   bool
	Options   []optionView
	DateParts []datePartView
}

type formView struct {
	Action      string
	SubmitLabel string
	Elements    []elementView
}

// Render writes the form as HTML.
func (f *Form) Render(w io.Writer) error {
	view := formView{Action: f.Action, SubmitLabel: f.SubmitLabel}
	for _, e := range f.elements {
		value := f.Value(e.Name)
		ev := elementView{
			Kind:      string(e.Kind),
			Name:      e.Name,
			Label:     e.Label,
			Value:     value,
			Error:     f.errors[e.Name],
			Required:  f.Required(e.Name),
			Frozen:    e.frozen,
			Size:      e.Attrs["size"],
			MaxLength: e.Attrs["maxlength"],
			Rows:      e.Attrs["rows"],
			Checked:   value == "1",
		}
		if e.frozen {
			ev.Value = frozenValue(e, value)
		}
		switch e.Kind {
		case KindSelect:
			for _, o := range e.Options {
				ev.Options = append(ev.Options, optionView{Value: o.Value, Label: o.Label, Selected: o.Value == value})
			}
		case KindDateTime:
			ev.DateParts = dateParts(e, value)
		}
		view.Elements = append(view.Elements, ev)
	}
	if err := formTemplate.ExecuteTemplate(w, "form", view); err != nil {
		return fmt.Errorf("rendering form: %w", err)
	}
	return nil
}

// frozenValue is the text shown for a frozen element: the option label of
// a select, the formatted date of a date_time.
func frozenValue(e *Element, value string) string {
	switch e.Kind {
	case KindSelect:
		for _, o := range e.Options {
			if o.Value == value && value != "" {
				return o.Label
			}
		}
	case KindDateTime:
		return FormatDateValue(value, e.Dates.WithTime)
	}
	return value
}

func dateParts(e *Element, value string) []datePartView {
	t, ok := ParseDateValue(value)
	if !ok {
		t = time.Now().UTC()
	}
	start, end := e.Dates.StartYear, e.Dates.EndYear
	if start == 0 || end < start {
		start, end = t.Year(), t.Year()
	}
	parts := []datePartView{
		{Name: "day", Options: numberOptions(1, 31, t.Day())},
		{Name: "month", Options: numberOptions(1, 12, int(t.Month()))},
		{Name: "year", Options: numberOptions(start, end, t.Year())},
	}
	if e.Dates.WithTime {
		parts = append(parts,
			datePartView{Name: "hour", Options: numberOptions(0, 23, t.Hour())},
			datePartView{Name: "minute", Options: numberOptions(0, 59, t.Minute())},
		)
	}
	return parts
}

func numberOptions(from, to, selected int) []optionView {
	opts := make([]optionView, 0, to-from+1)
	for i := from; i <= to; i++ {
		s := strconv.Itoa(i)
		opts = append(opts, optionView{Value: s, Label: s, Selected: i == selected})
	}
	return opts
}
