package csvio_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitab-io/unitab/csvio"
)

func TestEncode(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		columns []string
		rows    []csvio.Row
		want    string
	}{
		"plain": {
			columns: []string{"pid", "name"},
			rows: []csvio.Row{
				{"pid": "1", "name": "Ada"},
				{"pid": "2", "name": "Grace"},
			},
			want: "pid,name\r\n1,Ada\r\n2,Grace\r\n",
		},
		"header only": {
			columns: []string{"pid", "name"},
			want:    "pid,name\r\n",
		},
		"missing keys become empty cells": {
			columns: []string{"pid", "name", "ward"},
			rows: []csvio.Row{
				{"pid": "1"},
			},
			want: "pid,name,ward\r\n1,,\r\n",
		},
		"extra keys are ignored": {
			columns: []string{"pid"},
			rows: []csvio.Row{
				{"pid": "1", "stray": "x"},
			},
			want: "pid\r\n1\r\n",
		},
		"escaping": {
			columns: []string{"note"},
			rows: []csvio.Row{
				{"note": "one, two"},
				{"note": `say "hi"`},
				{"note": "two\nlines"},
			},
			// Embedded newlines come out as CRLF inside the quotes.
			want: "note\r\n\"one, two\"\r\n\"say \"\"hi\"\"\"\r\n\"two\r\nlines\"\r\n",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := csvio.Encode(tc.columns, tc.rows)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	t.Parallel()

	columns := []string{"pid", "note"}
	rows := []csvio.Row{
		{"pid": "1", "note": "plain"},
		{"pid": "2", "note": "with, comma"},
		{"pid": "3", "note": `quoted "text"`},
	}

	encoded, err := csvio.Encode(columns, rows)
	require.NoError(t, err)

	table, err := csvio.Read(strings.NewReader(string(encoded)))
	require.NoError(t, err)

	assert.Equal(t, columns, table.Columns)
	assert.Equal(t, rows, table.Rows)
}
