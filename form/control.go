package form

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Kind identifies the behavior of a form control.
type Kind int

const (
	Input Kind = iota
	Textarea
	Select
	Checkbox
	Radio
	File
	Submit
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case Textarea:
		return "textarea"
	case Select:
		return "select"
	case Checkbox:
		return "checkbox"
	case Radio:
		return "radio"
	case File:
		return "file"
	case Submit:
		return "submit"
	default:
		return "unknown"
	}
}

// Option is a single option of a Select control.
type Option struct {
	text     string
	value    string
	selected bool
}

// Text returns the option's trimmed display text.
func (o *Option) Text() string { return o.text }

// Value returns the option's declared value.
func (o *Option) Value() string { return o.value }

// IsSelected reports whether the option is currently selected.
func (o *Option) IsSelected() bool { return o.selected }

// Select marks the option as selected.
func (o *Option) Select() { o.selected = true }

// Upload is an open content handle attached to a File control.
type Upload struct {
	Name    string
	Content io.Reader
}

// Control is a single form element. Its kind determines which mutators
// apply and how it serializes into a payload.
type Control struct {
	kind        Kind
	name        string
	id          string
	label       string
	placeholder string
	value       string
	disabled    bool
	readonly    bool
	multiple    bool
	checked     bool
	options     []*Option // Select only
	files       []Upload  // File only
	isDefault   bool      // Submit only
}

// Kind returns the control's kind.
func (c *Control) Kind() Kind { return c.kind }

// Name returns the control's name attribute.
func (c *Control) Name() string { return c.name }

// ID returns the control's id attribute.
func (c *Control) ID() string { return c.id }

// Label returns the trimmed text of the label element preceding the control.
func (c *Control) Label() string { return c.label }

// Placeholder returns the control's placeholder attribute.
func (c *Control) Placeholder() string { return c.placeholder }

// Value returns the control's current value.
func (c *Control) Value() string { return c.value }

// SetValue replaces the control's value.
func (c *Control) SetValue(v string) { c.value = v }

// Disabled reports whether the control carries the disabled attribute.
func (c *Control) Disabled() bool { return c.disabled }

// Readonly reports whether the control carries the readonly attribute.
func (c *Control) Readonly() bool { return c.readonly }

// Multiple reports whether the control accepts multiple values.
func (c *Control) Multiple() bool { return c.multiple }

// IsChecked reports the checked state of a Checkbox or Radio.
func (c *Control) IsChecked() bool { return c.checked }

// Check marks a Checkbox or Radio as checked.
func (c *Control) Check() { c.checked = true }

// CheckableValues returns the non-empty identifiers a requested value is
// matched against: declared value, label text, and id.
func (c *Control) CheckableValues() []string {
	vals := make([]string, 0, 3)
	for _, v := range []string{c.value, c.label, c.id} {
		if v != "" {
			vals = append(vals, v)
		}
	}
	return vals
}

// Options returns the options of a Select control.
func (c *Control) Options() []*Option { return c.options }

// SelectedValues returns the values of all currently selected options.
func (c *Control) SelectedValues() []string {
	var vals []string
	for _, o := range c.options {
		if o.selected {
			vals = append(vals, o.value)
		}
	}
	return vals
}

// Files returns the uploads attached to a File control.
func (c *Control) Files() []Upload { return c.files }

// IsDefault reports whether a Submit control was marked as the default
// submit button for serialization.
func (c *Control) IsDefault() bool { return c.isDefault }

// newControl builds a Control from an eligible element. Kind resolution:
// the select and textarea tags win outright; otherwise the type attribute
// picks checkbox, radio, file, or submit; anything else on an input or
// button element is a plain Input. Returns nil for unrecognized elements.
func newControl(s *goquery.Selection) *Control {
	tag := goquery.NodeName(s)
	typ := s.AttrOr("type", "")

	c := &Control{
		name:        s.AttrOr("name", ""),
		id:          s.AttrOr("id", ""),
		placeholder: s.AttrOr("placeholder", ""),
		value:       s.AttrOr("value", ""),
	}
	_, c.disabled = s.Attr("disabled")
	_, c.readonly = s.Attr("readonly")
	_, c.multiple = s.Attr("multiple")
	_, c.checked = s.Attr("checked")
	if len(s.Nodes) > 0 {
		c.label = precedingLabel(s.Nodes[0])
	}

	switch {
	case tag == "select":
		c.kind = Select
		s.Find("option").Each(func(_ int, os *goquery.Selection) {
			_, selected := os.Attr("selected")
			c.options = append(c.options, &Option{
				text:     strings.TrimSpace(os.Text()),
				value:    os.AttrOr("value", ""),
				selected: selected,
			})
		})
	case tag == "textarea":
		c.kind = Textarea
		c.value = strings.TrimRight(strings.TrimRight(s.Text(), "\r"), "\n")
	case typ == "checkbox":
		c.kind = Checkbox
	case typ == "radio":
		c.kind = Radio
	case typ == "file":
		c.kind = File
	case tag == "input" || tag == "button":
		if typ == "submit" {
			c.kind = Submit
		} else {
			c.kind = Input
		}
	default:
		return nil
	}
	return c
}

// precedingLabel walks backwards in document order from n and returns the
// trimmed text of the nearest label element, or "".
func precedingLabel(n *html.Node) string {
	for cur := previousNode(n); cur != nil; cur = previousNode(cur) {
		if cur.Type == html.ElementNode && cur.Data == "label" {
			return strings.TrimSpace(nodeText(cur))
		}
	}
	return ""
}

// previousNode returns the document-order predecessor of n: the deepest
// last descendant of its previous sibling, or its parent.
func previousNode(n *html.Node) *html.Node {
	if prev := n.PrevSibling; prev != nil {
		for prev.LastChild != nil {
			prev = prev.LastChild
		}
		return prev
	}
	return n.Parent
}

// nodeText collects the text content of n and its descendants.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}
