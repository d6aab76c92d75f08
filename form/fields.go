package form

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound indicates that no control matched a locator.
	ErrNotFound = errors.New("no matching control")
	// ErrAmbiguousMatch indicates that a locator matched more than one control.
	ErrAmbiguousMatch = errors.New("multiple controls matched")
	// ErrInvalidValue indicates a requested value or option that no control accepts.
	ErrInvalidValue = errors.New("invalid value")
	// ErrInvalidArgument indicates a structural precondition violation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotSupported indicates a control kind with no serialization rule.
	ErrNotSupported = errors.New("control kind not supported")
)

// FieldSet is an ordered collection of Controls indexed by locator. A
// locator matches a control when it equals its name, id, label text, or
// trimmed value.
type FieldSet struct {
	controls []*Control
}

// Add appends a control to the set.
func (fs *FieldSet) Add(c *Control) error {
	if c == nil {
		return fmt.Errorf("%w: control must not be nil", ErrInvalidArgument)
	}
	switch c.kind {
	case Input, Textarea, Select, Checkbox, Radio, File, Submit:
	default:
		return fmt.Errorf("%w: unrecognized control kind %d", ErrInvalidArgument, int(c.kind))
	}
	fs.controls = append(fs.controls, c)
	return nil
}

// List returns the controls in document order.
func (fs *FieldSet) List() []*Control { return fs.controls }

// Len returns the number of controls in the set.
func (fs *FieldSet) Len() int { return len(fs.controls) }

// Get returns the single control matching locator, optionally restricted to
// the given kinds. It fails with ErrNotFound on zero matches and
// ErrAmbiguousMatch on more than one.
func (fs *FieldSet) Get(locator string, kinds ...Kind) (*Control, error) {
	matches, err := fs.FilterBy(locator, kinds...)
	if err != nil {
		return nil, err
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("%w: locator %q matched %d controls", ErrAmbiguousMatch, locator, len(matches))
	}
	return matches[0], nil
}

// FilterBy returns every control matching locator, optionally restricted to
// the given kinds. It fails with ErrNotFound when nothing matches.
func (fs *FieldSet) FilterBy(locator string, kinds ...Kind) ([]*Control, error) {
	var matches []*Control
	for _, c := range fs.controls {
		if !matchesLocator(c, locator) {
			continue
		}
		if len(kinds) > 0 && !kindIn(c.kind, kinds) {
			continue
		}
		matches = append(matches, c)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: locator %q", ErrNotFound, locator)
	}
	return matches, nil
}

// Submits returns all Submit controls in the set.
func (fs *FieldSet) Submits() []*Control {
	var submits []*Control
	for _, c := range fs.controls {
		if c.kind == Submit {
			submits = append(submits, c)
		}
	}
	return submits
}

func matchesLocator(c *Control, locator string) bool {
	return locator == c.name ||
		locator == c.id ||
		locator == c.label ||
		locator == strings.TrimSpace(c.value)
}

func kindIn(k Kind, kinds []Kind) bool {
	for _, kk := range kinds {
		if k == kk {
			return true
		}
	}
	return false
}
