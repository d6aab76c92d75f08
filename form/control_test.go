package form

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseForm(t *testing.T, html string) *Form {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	sel := doc.Find("form").First()
	require.Equal(t, 1, sel.Length(), "fixture must contain a form")
	return New(sel)
}

func TestKindResolution(t *testing.T) {
	tests := []struct {
		name string
		html string
		kind Kind
	}{
		{"text input", `<input type="text" name="f">`, Input},
		{"typeless input", `<input name="f">`, Input},
		{"textarea", `<textarea name="f"></textarea>`, Textarea},
		{"select", `<select name="f"></select>`, Select},
		{"checkbox", `<input type="checkbox" name="f">`, Checkbox},
		{"radio", `<input type="radio" name="f">`, Radio},
		{"file", `<input type="file" name="f">`, File},
		{"submit input", `<input type="submit" name="f">`, Submit},
		{"submit button", `<button type="submit" name="f">Go</button>`, Submit},
		{"plain button", `<button name="f">Go</button>`, Input},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseForm(t, "<form>"+tt.html+"</form>")
			c, err := f.Fields().Get("f")
			require.NoError(t, err)
			assert.Equal(t, tt.kind, c.Kind())
		})
	}
}

func TestNamelessControlsAreSkipped(t *testing.T) {
	f := parseForm(t, `<form><input type="text"><input type="text" name="named"></form>`)
	assert.Equal(t, 1, f.Fields().Len())
}

func TestCheckableValues(t *testing.T) {
	f := parseForm(t, `
		<form>
			<label for="foo">Bar</label>
			<input type="checkbox" name="foo" id="foo" value="bar">
		</form>`)
	c, err := f.Fields().Get("foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"bar", "Bar", "foo"}, c.CheckableValues())
}

func TestCheckableValuesWithoutAttributes(t *testing.T) {
	f := parseForm(t, `<form><input type="checkbox" name="foo"></form>`)
	c, err := f.Fields().Get("foo")
	require.NoError(t, err)
	assert.Empty(t, c.CheckableValues())
}

func TestCheckboxState(t *testing.T) {
	f := parseForm(t, `
		<form>
			<input type="checkbox" name="plain">
			<input type="checkbox" name="pre" checked>
		</form>`)

	plain, err := f.Fields().Get("plain")
	require.NoError(t, err)
	assert.False(t, plain.IsChecked())

	pre, err := f.Fields().Get("pre")
	require.NoError(t, err)
	assert.True(t, pre.IsChecked())

	plain.Check()
	assert.True(t, plain.IsChecked())
}

func TestSelectOptions(t *testing.T) {
	f := parseForm(t, `
		<form>
			<select name="pets">
				<option value="cat" selected>Cat</option>
				<option value="dog">Dog</option>
			</select>
		</form>`)

	c, err := f.Fields().Get("pets")
	require.NoError(t, err)
	assert.False(t, c.Multiple())

	opts := c.Options()
	require.Len(t, opts, 2)
	assert.Equal(t, "Cat", opts[0].Text())
	assert.Equal(t, "cat", opts[0].Value())
	assert.True(t, opts[0].IsSelected())
	assert.False(t, opts[1].IsSelected())

	opts[1].Select()
	assert.Equal(t, []string{"cat", "dog"}, c.SelectedValues())
}

func TestSelectMultipleAttribute(t *testing.T) {
	f := parseForm(t, `<form><select name="pets" multiple></select></form>`)
	c, err := f.Fields().Get("pets")
	require.NoError(t, err)
	assert.True(t, c.Multiple())
}

func TestTextareaValue(t *testing.T) {
	f := parseForm(t, "<form><textarea name=\"story\">Once upon a time\n</textarea></form>")
	c, err := f.Fields().Get("story")
	require.NoError(t, err)
	assert.Equal(t, "Once upon a time", c.Value())
}

func TestPrecedingLabel(t *testing.T) {
	f := parseForm(t, `
		<form>
			<div><label for="name">Your name</label></div>
			<div><input type="text" name="name" id="name"></div>
		</form>`)
	c, err := f.Fields().Get("name")
	require.NoError(t, err)
	assert.Equal(t, "Your name", c.Label())
}

func TestFieldSetLookup(t *testing.T) {
	f := parseForm(t, `
		<form>
			<input type="text" name="a" id="first" value=" trimmed ">
			<input type="text" name="a">
		</form>`)
	fs := f.Fields()

	_, err := fs.Get("a")
	assert.ErrorIs(t, err, ErrAmbiguousMatch)

	c, err := fs.Get("first")
	require.NoError(t, err)
	assert.Equal(t, "first", c.ID())

	c, err = fs.Get("trimmed")
	require.NoError(t, err)
	assert.Equal(t, "first", c.ID())

	_, err = fs.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	matches, err := fs.FilterBy("a")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestFieldSetAdd(t *testing.T) {
	fs := &FieldSet{}
	assert.ErrorIs(t, fs.Add(nil), ErrInvalidArgument)
	assert.ErrorIs(t, fs.Add(&Control{kind: Kind(42), name: "x"}), ErrInvalidArgument)

	require.NoError(t, fs.Add(&Control{kind: Input, name: "x"}))
	assert.Equal(t, 1, fs.Len())
}
