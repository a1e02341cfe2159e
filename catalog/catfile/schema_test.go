package catfile_test

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitab-io/unitab/catalog/catfile"
)

func TestSchemaShape(t *testing.T) {
	t.Parallel()

	s := catfile.Schema()

	assert.Equal(t, "http://json-schema.org/draft-07/schema#", s.Schema)
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{"system", "sources"}, s.Required)
	require.NotNil(t, s.AdditionalProperties)
	assert.NotNil(t, s.AdditionalProperties.Not, "additional properties are forbidden")

	for _, key := range []string{"system", "canonical", "sources", "crossRefs", "mappings", "filters"} {
		assert.Contains(t, s.Properties, key)
	}

	source := s.Properties["sources"].Items
	require.NotNil(t, source)
	assert.Equal(t, []string{"name"}, source.Required)
	assert.Contains(t, source.Properties, "master")

	attrType := source.Properties["attributes"].Items.Properties["type"]
	require.NotNil(t, attrType)
	assert.Equal(t, []any{"string", "number", "date"}, attrType.Enum)

	operator := s.Properties["filters"].Items.Properties["operator"]
	require.NotNil(t, operator)
	assert.Equal(t, []any{"=", ">", "<"}, operator.Enum)
}

func TestSchemaRefPattern(t *testing.T) {
	t.Parallel()

	s := catfile.Schema()
	pattern := s.Properties["mappings"].Items.Properties["primary"].Pattern
	require.NotEmpty(t, pattern)

	re := regexp.MustCompile(pattern)

	for ref, want := range map[string]bool{
		"patients.pid":  true,
		"a.b":           true,
		"nodot":         false,
		"too.many.dots": false,
		".attr":         false,
		"source.":       false,
	} {
		assert.Equal(t, want, re.MatchString(ref), "ref %q", ref)
	}
}

// The schema must describe its own example: a valid catalog file marshals
// to a document the schema's structure accounts for.
func TestSchemaMarshals(t *testing.T) {
	t.Parallel()

	out, err := json.Marshal(catfile.Schema())
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))

	assert.Equal(t, "Unitab catalog file", doc["title"])
	assert.Contains(t, doc, "properties")
}
