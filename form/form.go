package form

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/PuerkitoBio/goquery"
)

// Form is a parsed form element: one FieldSet plus an action URL and HTTP
// method. The field index is built lazily on first access and memoized for
// the lifetime of the Form.
type Form struct {
	sel    *goquery.Selection
	fields *FieldSet
}

// New wraps a parsed form element.
func New(sel *goquery.Selection) *Form {
	return &Form{sel: sel}
}

// Action returns the form's action attribute.
func (f *Form) Action() string {
	return f.sel.AttrOr("action", "")
}

// Method returns the form's HTTP method, defaulting to GET.
func (f *Form) Method() string {
	return f.sel.AttrOr("method", "GET")
}

// Fields returns the memoized FieldSet, parsing the form element on first
// call. Only input, button, select, and textarea elements with a non-empty
// name become controls.
func (f *Form) Fields() *FieldSet {
	if f.fields != nil {
		return f.fields
	}
	fs := &FieldSet{}
	f.sel.Find("input, button, select, textarea").Each(func(_ int, s *goquery.Selection) {
		if s.AttrOr("name", "") == "" {
			return
		}
		if c := newControl(s); c != nil {
			fs.controls = append(fs.controls, c)
		}
	})
	f.fields = fs
	return fs
}

// FillIn sets the value of the Input or Textarea matching locator.
func (f *Form) FillIn(locator, value string) error {
	c, err := f.Fields().Get(locator, Input, Textarea)
	if err != nil {
		return err
	}
	c.SetValue(value)
	return nil
}

// Check marks checkboxes matching locator. For each requested value it
// checks the first checkbox whose value, label, or id equals it, or whose
// declared value is empty when the requested value is "on". It fails with
// ErrInvalidValue when no value checked anything.
func (f *Form) Check(locator string, values []string) error {
	checkboxes, err := f.Fields().FilterBy(locator, Checkbox)
	if err != nil {
		return err
	}
	checked := false
	for _, value := range values {
		for _, cb := range checkboxes {
			if stringIn(value, cb.CheckableValues()) || (value == "on" && cb.value == "") {
				cb.Check()
				checked = true
				break
			}
		}
	}
	if !checked {
		return fmt.Errorf("%w: no checkbox at %q accepts %v", ErrInvalidValue, locator, values)
	}
	return nil
}

// Choose checks the first radio button matching locator whose value,
// label, or id equals option.
func (f *Form) Choose(locator, option string) error {
	radios, err := f.Fields().FilterBy(locator, Radio)
	if err != nil {
		return err
	}
	for _, r := range radios {
		if stringIn(option, r.CheckableValues()) {
			r.Check()
			return nil
		}
	}
	return fmt.Errorf("%w: option %q not found on radio %q", ErrInvalidValue, option, locator)
}

// Select marks options on the Select matching locator. Options are resolved
// by display text or declared value; every requested name that resolves is
// selected, and all misses are reported together in a single
// ErrInvalidValue.
func (f *Form) Select(locator string, options []string) error {
	sel, err := f.Fields().Get(locator, Select)
	if err != nil {
		return err
	}
	if !sel.multiple && len(options) > 1 {
		return fmt.Errorf("%w: cannot select multiple options on %q", ErrInvalidArgument, locator)
	}

	available := make(map[string]*Option, 2*len(sel.options))
	for _, o := range sel.options {
		available[o.text] = o
		available[o.value] = o
	}

	var missing []string
	for _, name := range options {
		if o, ok := available[name]; ok {
			o.Select()
		} else {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: options %v not found on field %q", ErrInvalidValue, missing, locator)
	}
	return nil
}

// Upload attaches content to the File control matching locator. Each value
// is an Upload, an open io.Reader, or a local path resolved to an open
// file. A non-multiple control accepts at most one value.
func (f *Form) Upload(locator string, values ...interface{}) error {
	field, err := f.Fields().Get(locator, File)
	if err != nil {
		return err
	}
	if !field.multiple && len(values) > 1 {
		return fmt.Errorf("%w: cannot upload multiple files to %q", ErrInvalidArgument, locator)
	}

	uploads := make([]Upload, 0, len(values))
	for _, value := range values {
		switch v := value.(type) {
		case Upload:
			uploads = append(uploads, v)
		case *os.File:
			uploads = append(uploads, Upload{Name: filepath.Base(v.Name()), Content: v})
		case io.Reader:
			uploads = append(uploads, Upload{Name: field.name, Content: v})
		case string:
			file, err := os.Open(v)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidValue, err)
			}
			uploads = append(uploads, Upload{Name: filepath.Base(v), Content: file})
		default:
			return fmt.Errorf("%w: value must be a content handle or file path, got %T", ErrInvalidArgument, value)
		}
	}
	field.files = uploads
	return nil
}

// SetDefaultSubmit marks a Submit control for inclusion in the payload.
// The button is either a *Control belonging to this form or a locator
// resolved through the FieldSet.
func (f *Form) SetDefaultSubmit(button interface{}) error {
	switch b := button.(type) {
	case *Control:
		for _, c := range f.Fields().List() {
			if c == b {
				c.isDefault = true
				return nil
			}
		}
		return fmt.Errorf("%w: submit button %q not part of this form", ErrNotFound, b.name)
	case string:
		submit, err := f.Fields().Get(b, Submit)
		if err != nil {
			return err
		}
		submit.isDefault = true
		return nil
	default:
		return fmt.Errorf("%w: submit button must be a *Control or locator string, got %T", ErrInvalidArgument, button)
	}
}

func stringIn(s string, list []string) bool {
	for _, item := range list {
		if s == item {
			return true
		}
	}
	return false
}
