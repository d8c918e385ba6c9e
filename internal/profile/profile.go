// Package profile drives custom profile fields through their lifecycle on
// the edit, signup and display pages: form definition, adjustment once
// data is loaded, validation, saving, and display.
//
// Each stored field names a datatype. The datatype's constructor is looked
// up in a registry and wraps a Base, which holds the field definition and
// the object's stored value and implements the fixed behaviours.
package profile

import (
	"errors"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/profilefields/internal/access"
	"github.com/mesh-intelligence/profilefields/pkg/types"
)

// ErrMustBeOverridden is returned when a datatype does not provide its
// form widget.
var ErrMustBeOverridden = errors.New("edit_field_add must be overridden")

// InputPrefix prefixes the form element name of every profile field.
const InputPrefix = "profile_field_"

// Translator resolves localized strings by key.
type Translator interface {
	String(key string, args ...any) string
}

// Page holds the request-scoped collaborators every profile operation
// needs.
type Page struct {
	Cupboard   types.Cupboard
	Checker    access.Checker
	Caller     access.Caller
	Translator Translator
	Log        *zap.Logger
}

// User is the minimal user record custom fields attach to.
type User struct {
	ID      int64             `json:"id"`
	Profile map[string]string `json:"profile"`
}

func (p *Page) can(capability string, scope access.Scope) bool {
	if p.Checker == nil {
		return false
	}
	return p.Checker.HasCapability(p.Caller, capability, scope)
}

func (p *Page) str(key string, args ...any) string {
	if p.Translator == nil {
		return key
	}
	return p.Translator.String(key, args...)
}

func (p *Page) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

func (p *Page) table(name string) (types.Table, error) {
	return p.Cupboard.GetTable(name)
}
