// Package form builds, binds, validates and renders HTML forms made of
// named elements.
package form

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Kind identifies an element widget.
type Kind string

const (
	KindHeader   Kind = "header"
	KindHidden   Kind = "hidden"
	KindText     Kind = "text"
	KindTextarea Kind = "textarea"
	KindCheckbox Kind = "checkbox"
	KindSelect   Kind = "select"
	KindDateTime Kind = "date_time"
	KindStatic   Kind = "static"
)

// RuleKind names a server-side validation rule.
type RuleKind string

const (
	RuleRequired  RuleKind = "required"
	RuleMaxLength RuleKind = "maxlength"
	// RuleOption rejects a select value that is not one of its options.
	RuleOption RuleKind = "option"
	// RuleDateRange rejects a date outside the element's year range.
	RuleDateRange RuleKind = "daterange"
)

// Option is one choice of a select element.
type Option struct {
	Value string
	Label string
}

// DateRange configures a date_time element.
type DateRange struct {
	StartYear int
	EndYear   int
	WithTime  bool
}

// Element is one named widget of a form.
type Element struct {
	Kind    Kind
	Name    string
	Label   string
	Attrs   map[string]string
	Options []Option
	Dates   DateRange

	paramType   ParamType
	def         string
	constant    string
	hasConstant bool
	frozen      bool
}

// Frozen reports whether the element was hard-frozen.
func (e *Element) Frozen() bool { return e.frozen }

// Default returns the default value.
func (e *Element) Default() string { return e.def }

// Type returns the element's ParamType.
func (e *Element) Type() ParamType { return e.paramType }

// ElementOption customises an element as it is added.
type ElementOption func(*Element)

// WithAttr sets an HTML attribute such as size or maxlength.
func WithAttr(key, value string) ElementOption {
	return func(e *Element) {
		if e.Attrs == nil {
			e.Attrs = make(map[string]string)
		}
		e.Attrs[key] = value
	}
}

// WithOptions sets the choices of a select element.
func WithOptions(opts []Option) ElementOption {
	return func(e *Element) { e.Options = opts }
}

// WithDateRange sets the year range of a date_time element.
func WithDateRange(r DateRange) ElementOption {
	return func(e *Element) { e.Dates = r }
}

// Rule is a validation rule attached to an element.
type Rule struct {
	Kind    RuleKind
	Message string
	Arg     string
}

// Submission holds cleaned submitted values keyed by element name. Only
// elements present in the request appear.
type Submission map[string]string

// Lookup returns the submitted value for name and whether it was present.
func (s Submission) Lookup(name string) (string, bool) {
	v, ok := s[name]
	return v, ok
}

// Form is an ordered set of elements plus their rules and errors.
type Form struct {
	Action      string
	SubmitLabel string

	elements []*Element
	index    map[string]*Element
	rules    map[string][]Rule
	errors   map[string]string
	data     Submission
	validate *validator.Validate
}

// New creates an empty form posting to action.
func New(action string) *Form {
	return &Form{
		Action:      action,
		SubmitLabel: "Save changes",
		index:       make(map[string]*Element),
		rules:       make(map[string][]Rule),
		validate:    validator.New(),
	}
}

// AddElement appends an element. Adding a name twice replaces nothing and
// returns the existing element.
func (f *Form) AddElement(kind Kind, name, label string, opts ...ElementOption) *Element {
	if e, ok := f.index[name]; ok && name != "" {
		return e
	}
	e := &Element{Kind: kind, Name: name, Label: label}
	for _, opt := range opts {
		opt(e)
	}
	f.elements = append(f.elements, e)
	if name != "" {
		f.index[name] = e
	}
	return e
}

// AddHeader appends a section header.
func (f *Form) AddHeader(name, label string) *Element {
	return f.AddElement(KindHeader, name, label)
}

// AddHidden appends a hidden element with a default value.
func (f *Form) AddHidden(name, value string) *Element {
	e := f.AddElement(KindHidden, name, "")
	e.def = value
	return e
}

// ElementExists reports whether an element with name was added.
func (f *Form) ElementExists(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Element returns the named element or nil.
func (f *Form) Element(name string) *Element {
	return f.index[name]
}

// Elements returns the elements in the order they were added.
func (f *Form) Elements() []*Element {
	return f.elements
}

// SetType sets how the named element's submitted value is cleaned.
func (f *Form) SetType(name string, t ParamType) {
	if e, ok := f.index[name]; ok {
		e.paramType = t
	}
}

// SetDefault sets the value shown when nothing was submitted.
func (f *Form) SetDefault(name, value string) {
	if e, ok := f.index[name]; ok {
		e.def = value
	}
}

// SetConstant fixes the element value regardless of what is submitted.
func (f *Form) SetConstant(name, value string) {
	if e, ok := f.index[name]; ok {
		e.constant = value
		e.hasConstant = true
	}
}

// HardFreeze makes the element read-only. Submitted values for it are
// ignored by Bind.
func (f *Form) HardFreeze(name string) {
	if e, ok := f.index[name]; ok {
		e.frozen = true
	}
}

// AddRule attaches a validation rule to the named element. Arg is the
// rule argument, the maximum length for RuleMaxLength.
func (f *Form) AddRule(name, message string, kind RuleKind, arg string) {
	f.rules[name] = append(f.rules[name], Rule{Kind: kind, Message: message, Arg: arg})
}

// Rules returns the rules attached to name.
func (f *Form) Rules(name string) []Rule {
	return f.rules[name]
}

// Required reports whether name carries a required rule.
func (f *Form) Required(name string) bool {
	for _, r := range f.rules[name] {
		if r.Kind == RuleRequired {
			return true
		}
	}
	return false
}

// SetData loads values into the form, typically stored data before the
// form is shown or a submission being redisplayed.
func (f *Form) SetData(s Submission) {
	if f.data == nil {
		f.data = make(Submission, len(s))
	}
	for k, v := range s {
		f.data[k] = v
	}
}

// Value returns what the element currently shows: its constant, loaded
// data, or default, in that order.
func (f *Form) Value(name string) string {
	e, ok := f.index[name]
	if !ok {
		return ""
	}
	if e.hasConstant {
		return e.constant
	}
	if v, ok := f.data[name]; ok {
		return v
	}
	return e.def
}

// Bind extracts a submission from request values. Frozen elements with a
// constant contribute the constant; other elements contribute only when
// their key is present.
func (f *Form) Bind(values url.Values) Submission {
	sub := make(Submission)
	for _, e := range f.elements {
		if e.Name == "" || e.Kind == KindHeader || e.Kind == KindStatic {
			continue
		}
		if e.frozen {
			if e.hasConstant {
				sub[e.Name] = e.constant
			}
			continue
		}
		switch e.Kind {
		case KindCheckbox:
			vs, ok := values[e.Name]
			if !ok {
				continue
			}
			sub[e.Name] = "0"
			for _, v := range vs {
				if v == "1" {
					sub[e.Name] = "1"
				}
			}
		case KindDateTime:
			if v, ok := bindDate(values, e); ok {
				sub[e.Name] = v
			}
		default:
			if _, ok := values[e.Name]; !ok {
				continue
			}
			sub[e.Name] = Clean(values.Get(e.Name), e.paramType)
		}
	}
	f.SetData(sub)
	return sub
}

// bindDate combines the date parts into DateLayout or DateTimeLayout.
// Out of range parts roll over, so February 31 becomes March 2 or 3.
func bindDate(values url.Values, e *Element) (string, bool) {
	parts := []string{"year", "month", "day"}
	if e.Dates.WithTime {
		parts = append(parts, "hour", "minute")
	}
	nums := make([]int, 5)
	for i, p := range parts {
		raw := values.Get(fmt.Sprintf("%s[%s]", e.Name, p))
		if raw == "" {
			return "", false
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return "", false
		}
		nums[i] = n
	}
	t := time.Date(nums[0], time.Month(nums[1]), nums[2], nums[3], nums[4], 0, 0, time.UTC)
	if e.Dates.WithTime {
		return t.Format(DateTimeLayout), true
	}
	return t.Format(DateLayout), true
}

// Validate runs the attached rules against s and returns the first
// failure per element. Frozen and missing elements are skipped.
func (f *Form) Validate(s Submission) map[string]string {
	errs := make(map[string]string)
	for name, rules := range f.rules {
		e, ok := f.index[name]
		if !ok || e.frozen {
			continue
		}
		value := s[name]
		for _, r := range rules {
			if f.failed(r, e, value) {
				errs[name] = r.Message
				break
			}
		}
	}
	return errs
}

func (f *Form) failed(r Rule, e *Element, value string) bool {
	switch r.Kind {
	case RuleRequired:
		if e.Kind == KindCheckbox {
			return value != "1"
		}
		return f.validate.Var(strings.TrimSpace(value), "required") != nil
	case RuleMaxLength:
		if _, err := strconv.Atoi(r.Arg); err != nil {
			return false
		}
		return f.validate.Var(value, "max="+r.Arg) != nil
	case RuleOption:
		if value == "" {
			return false
		}
		for _, o := range e.Options {
			if o.Value == value {
				return false
			}
		}
		return true
	case RuleDateRange:
		t, ok := ParseDateValue(value)
		if !ok {
			return value != ""
		}
		if e.Dates.StartYear != 0 && t.Year() < e.Dates.StartYear {
			return true
		}
		return e.Dates.EndYear != 0 && t.Year() > e.Dates.EndYear
	}
	return false
}

// SetErrors records messages to show next to elements when rendering.
func (f *Form) SetErrors(errs map[string]string) {
	if f.errors == nil {
		f.errors = make(map[string]string, len(errs))
	}
	for k, v := range errs {
		f.errors[k] = v
	}
}

// Errors returns the recorded error messages.
func (f *Form) Errors() map[string]string {
	return f.errors
}
