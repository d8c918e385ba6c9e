package profile

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/profilefields/internal/access"
	"github.com/mesh-intelligence/profilefields/internal/category"
	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// userFields returns every field defined for users.
func userFields(page *Page) ([]*types.Field, error) {
	return fetchFields(page, types.Filter{"object_name": types.ObjectUser})
}

func fetchFields(page *Page, filter types.Filter) ([]*types.Field, error) {
	fields, err := page.table(types.TableFields)
	if err != nil {
		return nil, err
	}
	rows, err := fields.Fetch(filter)
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}
	out := make([]*types.Field, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.(*types.Field))
	}
	return out, nil
}

// eachField instantiates every user field for objectID and calls fn.
func eachField(page *Page, objectID int64, fn func(*types.Field, Field) error) error {
	fields, err := userFields(page)
	if err != nil {
		return err
	}
	for _, def := range fields {
		fl, err := New(page, def.Datatype, def.ID, objectID)
		if err != nil {
			return err
		}
		if err := fn(def, fl); err != nil {
			return err
		}
	}
	return nil
}

// LoadData copies userID's stored values into values, keyed by input
// name, ready to be set on the edit form.
func LoadData(page *Page, values form.Submission, userID int64) error {
	return eachField(page, userID, func(_ *types.Field, fl Field) error {
		fl.EditLoadUserData(values)
		return nil
	})
}

// Definition adds a header per category followed by its fields. A
// category is shown when one of its fields is visible or the caller may
// update users; categories without fields are skipped.
func Definition(page *Page, f *form.Form, userID int64) error {
	update := page.can(access.CapUserUpdate, access.SystemScope())

	categories, err := category.List(page.Cupboard, types.ObjectUser)
	if err != nil {
		return err
	}
	for _, c := range categories {
		fields, err := fetchFields(page, types.Filter{"category_id": c.ID})
		if err != nil {
			return err
		}
		if len(fields) == 0 {
			continue
		}
		display := false
		for _, def := range fields {
			if def.Visible != types.VisibleNone {
				display = true
			}
		}
		if !display && !update {
			continue
		}

		f.AddHeader("category_"+strconv.FormatInt(c.ID, 10), c.Name)
		for _, def := range fields {
			fl, err := New(page, def.Datatype, def.ID, userID)
			if err != nil {
				return err
			}
			if _, err := EditField(fl, f); err != nil {
				return err
			}
		}
	}
	page.logger().Debug("profile definition built", zap.Int64("user_id", userID))
	return nil
}

// DefinitionAfterData locks fields once data is loaded into f. Negative
// ids are treated as zero.
func DefinitionAfterData(page *Page, f *form.Form, userID int64) error {
	if userID < 0 {
		userID = 0
	}
	return eachField(page, userID, func(_ *types.Field, fl Field) error {
		EditAfterData(fl, f)
		return nil
	})
}

// Validation collects uniqueness errors across all fields. When two
// fields report the same key the first message is kept.
func Validation(page *Page, sub form.Submission, userID int64) (map[string]string, error) {
	errs := make(map[string]string)
	err := eachField(page, userID, func(_ *types.Field, fl Field) error {
		fieldErrs, err := EditValidateField(fl, sub)
		if err != nil {
			return err
		}
		for k, v := range fieldErrs {
			if _, ok := errs[k]; !ok {
				errs[k] = v
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return errs, nil
}

// SaveData stores every submitted field value for userID. Saves are not
// atomic: the first failure stops the loop and earlier fields stay saved.
func SaveData(page *Page, sub form.Submission, userID int64) error {
	return eachField(page, userID, func(def *types.Field, fl Field) error {
		if err := EditSaveData(fl, sub); err != nil {
			page.logger().Warn("profile save stopped",
				zap.String("field", def.ShortName),
				zap.Int64("user_id", userID),
				zap.Error(err))
			return err
		}
		return nil
	})
}

// SignupFields adds the signup-eligible visible fields grouped under
// their category headers.
func SignupFields(page *Page, f *form.Form) error {
	rows, err := page.Cupboard.SignupFields(types.ObjectUser)
	if err != nil {
		return fmt.Errorf("listing signup fields: %w", err)
	}
	var current int64
	for i, row := range rows {
		if i == 0 || row.CategoryID != current {
			current = row.CategoryID
			f.AddHeader("category_"+strconv.FormatInt(row.CategoryID, 10), row.CategoryName)
		}
		fl, err := New(page, row.Datatype, row.FieldID, 0)
		if err != nil {
			return err
		}
		if _, err := EditField(fl, f); err != nil {
			return err
		}
	}
	return nil
}

// UserRecord maps field short names to userID's values for fields whose
// datatype keeps its value on the user object.
func UserRecord(page *Page, userID int64) (map[string]string, error) {
	record := make(map[string]string)
	err := eachField(page, userID, func(def *types.Field, fl Field) error {
		if fl.IsUserObjectData() {
			record[def.ShortName] = fl.FieldBase().Data
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// LoadCustomFields sets user.Profile from UserRecord.
func LoadCustomFields(page *Page, user *User) error {
	record, err := UserRecord(page, user.ID)
	if err != nil {
		return err
	}
	user.Profile = record
	return nil
}
