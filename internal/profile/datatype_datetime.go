package profile

import (
	"html"
	"strconv"
	"time"

	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

func init() {
	Register("datetime", func(b *Base) Field { return &datetimeField{Base: b} })
}

// datetimeField stores unix seconds. Param1 and Param2 bound the year
// range and Param3 "1" adds hour and minute.
type datetimeField struct {
	*Base
}

func (d *datetimeField) withTime() bool { return d.Field.Param3 == "1" }

func (d *datetimeField) EditFieldAdd(f *form.Form) error {
	now := time.Now().UTC().Year()
	f.AddElement(form.KindDateTime, d.InputName, d.Field.Name,
		form.WithDateRange(form.DateRange{
			StartYear: paramInt(d.Field.Param1, 1900),
			EndYear:   paramInt(d.Field.Param2, now+50),
			WithTime:  d.withTime(),
		}))
	f.AddRule(d.InputName, d.page.str("invaliddate"), form.RuleDateRange, "")
	return nil
}

// EditSaveDataPreprocess converts a bound date to unix seconds. A value
// that is not a date keeps what is stored.
func (d *datetimeField) EditSaveDataPreprocess(value string, rec *types.FieldData) string {
	t, ok := form.ParseDateValue(value)
	if !ok {
		return d.Data
	}
	if !d.withTime() {
		t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	return strconv.FormatInt(t.Unix(), 10)
}

func (d *datetimeField) DisplayData() string {
	if _, ok := form.ParseDateValue(d.Data); !ok {
		return html.EscapeString(d.Data)
	}
	return form.FormatDateValue(d.Data, d.withTime())
}
