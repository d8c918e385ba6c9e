// Package category defines the form used to create and rename profile
// field categories, with a uniqueness check scoped to one object type.
package category

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/profilefields/internal/form"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// ActionEdit is the hidden action value posted by the category form.
const ActionEdit = "editcategory"

// Translator resolves localized strings by key.
type Translator interface {
	String(key string, args ...any) string
}

// Definition adds the category elements to f: hidden id and action, and
// a required name of at most 255 characters.
func Definition(f *form.Form, tr Translator) {
	f.AddHidden("id", "")
	f.SetType("id", form.ParamInt)
	f.AddHidden("action", ActionEdit)
	f.SetType("action", form.ParamAlphaNumExt)

	f.AddElement(form.KindText, "name", tr.String("profilecategoryname"),
		form.WithAttr("maxlength", "255"), form.WithAttr("size", "30"))
	f.SetType("name", form.ParamText)
	f.AddRule("name", tr.String("required"), form.RuleRequired, "")
	f.AddRule("name", tr.String("maximumchars", 255), form.RuleMaxLength, "255")
}

// Load fills the form with an existing category for editing.
func Load(f *form.Form, c *types.Category) {
	f.SetData(form.Submission{
		"id":   strconv.FormatInt(c.ID, 10),
		"name": c.Name,
	})
}

// Validate reports a name error when another category of objectName
// already uses the submitted name. A category keeping its own name is
// accepted. Editing an id that does not exist in objectName returns
// ErrNotFound.
func Validate(cupboard types.Cupboard, objectName string, values form.Submission, tr Translator) (map[string]string, error) {
	errs := make(map[string]string)
	id := submittedID(values)
	name := strings.TrimSpace(values["name"])

	if id != 0 {
		if _, err := get(cupboard, objectName, id); err != nil {
			return nil, err
		}
	}
	if name == "" {
		return errs, nil
	}

	categories, err := cupboard.GetTable(types.TableCategories)
	if err != nil {
		return nil, err
	}
	rows, err := categories.Fetch(types.Filter{"object_name": objectName, "name": name})
	if err != nil {
		return nil, fmt.Errorf("checking category name: %w", err)
	}
	for _, row := range rows {
		if row.(*types.Category).ID != id {
			errs["name"] = tr.String("profilecategorynamenotunique")
			break
		}
	}
	return errs, nil
}

// Save creates a category (id zero or absent) or renames an existing one
// and returns the stored record.
func Save(cupboard types.Cupboard, objectName string, values form.Submission) (*types.Category, error) {
	categories, err := cupboard.GetTable(types.TableCategories)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(values["name"])

	c := &types.Category{ObjectName: objectName, Name: name}
	if id := submittedID(values); id != 0 {
		c, err = get(cupboard, objectName, id)
		if err != nil {
			return nil, err
		}
		c.Name = name
	}
	if _, err := categories.Set(c.ID, c); err != nil {
		return nil, fmt.Errorf("saving category: %w", err)
	}
	return c, nil
}

// List returns the categories of objectName in display order.
func List(cupboard types.Cupboard, objectName string) ([]*types.Category, error) {
	categories, err := cupboard.GetTable(types.TableCategories)
	if err != nil {
		return nil, err
	}
	rows, err := categories.Fetch(types.Filter{"object_name": objectName})
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	out := make([]*types.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.(*types.Category))
	}
	return out, nil
}

func get(cupboard types.Cupboard, objectName string, id int64) (*types.Category, error) {
	categories, err := cupboard.GetTable(types.TableCategories)
	if err != nil {
		return nil, err
	}
	row, err := categories.Get(id)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("category %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	c := row.(*types.Category)
	if c.ObjectName != objectName {
		return nil, fmt.Errorf("category %d: %w", id, types.ErrNotFound)
	}
	return c, nil
}

func submittedID(values form.Submission) int64 {
	id, err := strconv.ParseInt(values["id"], 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}
