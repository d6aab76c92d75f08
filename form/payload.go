package form

import (
	"fmt"
	"sort"
	"strings"
)

// Payload is a form's serialized state, split across the buckets an HTTP
// transport consumes. Query holds parameters for GET submissions, Data
// holds body parameters for everything else, Files holds uploads. Bucket
// values are either a string or a lexicographically sorted []string.
type Payload struct {
	Query map[string]interface{}
	Data  map[string]interface{}
	Files map[string][]Upload
}

// Bucket returns the non-file bucket selected by the form's method.
func (p *Payload) Bucket(method string) map[string]interface{} {
	if strings.EqualFold(method, "get") {
		return p.Query
	}
	return p.Data
}

// Payload serializes the form's current state. A non-nil submit argument
// marks the default submit button first (see SetDefaultSubmit). A control
// is skipped only when it is both disabled and readonly.
func (f *Form) Payload(submit interface{}) (*Payload, error) {
	if submit != nil {
		if err := f.SetDefaultSubmit(submit); err != nil {
			return nil, err
		}
	}

	p := &Payload{
		Query: map[string]interface{}{},
		Data:  map[string]interface{}{},
		Files: map[string][]Upload{},
	}
	bucket := p.Bucket(f.Method())

	for _, c := range f.Fields().List() {
		if !c.disabled || !c.readonly {
			if err := serialize(c, bucket, p.Files); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

// serialize dispatches on the control kind. The switch is exhaustive over
// known kinds, so ErrNotSupported is reachable only for a kind added
// without a serialization rule.
func serialize(c *Control, bucket map[string]interface{}, files map[string][]Upload) error {
	switch c.kind {
	case Input, Textarea:
		bucket[c.name] = c.value
	case Radio:
		if c.checked {
			bucket[c.name] = c.value
		}
	case Checkbox:
		if c.checked {
			if c.value == "" {
				bucket[c.name] = "on"
			} else {
				appendSorted(bucket, c.name, c.value)
			}
		}
	case Select:
		values := c.SelectedValues()
		if !c.multiple {
			if len(values) > 0 {
				bucket[c.name] = values[0]
			}
		} else {
			for _, v := range values {
				appendSorted(bucket, c.name, v)
			}
		}
	case Submit:
		if c.isDefault {
			bucket[c.name] = c.value
		}
	case File:
		files[c.name] = append(files[c.name], c.files...)
	default:
		return fmt.Errorf("%w: %s", ErrNotSupported, c.kind)
	}
	return nil
}

// appendSorted appends value to the list at bucket[name], re-sorting after
// every append.
func appendSorted(bucket map[string]interface{}, name, value string) {
	list, _ := bucket[name].([]string)
	list = append(list, value)
	sort.Strings(list)
	bucket[name] = list
}
