//go:build !integration

package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPrinter(format Format, verbose bool) (*Printer, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Printer{Out: &out, Err: &errOut, Format: format, Verbose: verbose}, &out, &errOut
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.EqualError(t, err, "xml is not a valid output type. Allowed values are text|json")
}

func TestPrinter_VerboseAndDone(t *testing.T) {
	text.DisableColors()
	defer text.EnableColors()

	p, out, errOut := newTestPrinter(FormatText, false)
	p.Verbosef("Custom action with id %s not found", "x")
	p.Done()
	assert.Empty(t, out.String())
	assert.Empty(t, errOut.String())

	p, out, errOut = newTestPrinter(FormatText, true)
	p.Verbosef("Custom action with id %s not found", "x")
	p.Done()
	assert.Empty(t, out.String())
	assert.Equal(t, "Custom action with id x not found\nDONE\n", errOut.String())
}

func TestPrinter_List_Text(t *testing.T) {
	p, out, _ := newTestPrinter(FormatText, false)
	items := []map[string]any{
		{"Title": "spfx-app", "ID": "b2307a39-e878-458b-bc90-03bc578531d6", "Deployed": true, "AppCatalogVersion": "1.0.0.0", "Extra": "hidden"},
	}

	require.NoError(t, p.List(items, "Title", "ID", "Deployed", "AppCatalogVersion"))

	s := out.String()
	assert.Contains(t, s, "Title")
	assert.Contains(t, s, "│ Title    │ ID ")
	assert.Contains(t, s, "AppCatalogVersion")
	assert.NotContains(t, s, "APPCATALOGVERSION")
	assert.Contains(t, s, "spfx-app")
	assert.Contains(t, s, "true")
	assert.NotContains(t, s, "hidden")
}

func TestPrinter_List_JSONKeepsAllProperties(t *testing.T) {
	p, out, _ := newTestPrinter(FormatJSON, false)
	items := []map[string]any{{"Title": "a", "Extra": "kept"}}

	require.NoError(t, p.List(items, "Title"))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "kept", decoded[0]["Extra"])
}

func TestPrinter_List_Empty(t *testing.T) {
	p, out, _ := newTestPrinter(FormatText, false)
	require.NoError(t, p.List(nil, "Title"))
	assert.Empty(t, out.String())

	p, out, _ = newTestPrinter(FormatJSON, false)
	require.NoError(t, p.List(nil, "Title"))
	assert.Equal(t, "[]\n", out.String())
}

func TestPrinter_Object(t *testing.T) {
	p, out, _ := newTestPrinter(FormatText, false)
	require.NoError(t, p.Object(map[string]any{"b": 2, "a": "one"}))
	s := out.String()
	assert.Less(t, bytes.Index([]byte(s), []byte("a")), bytes.Index([]byte(s), []byte("b")))
	assert.Contains(t, s, "one")
}

func TestValue(t *testing.T) {
	assert.Equal(t, "", Value(nil))
	assert.Equal(t, "x", Value("x"))
	assert.Equal(t, "3", Value(float64(3)))
	assert.Equal(t, `{"k":"v"}`, Value(map[string]any{"k": "v"}))
	assert.Equal(t, `[1,2]`, Value([]any{1, 2}))
}
