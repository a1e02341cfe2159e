package format_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitab-io/unitab/catalog"
	"github.com/unitab-io/unitab/format"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input string
		want  time.Time
	}{
		"day-month-name-year":            {input: "15-Jan-2020", want: date(2020, time.January, 15)},
		"month name is case insensitive": {input: "15-JAN-2020", want: date(2020, time.January, 15)},
		"lowercase month name":           {input: "3-feb-1999", want: date(1999, time.February, 3)},
		"slashed month-day-year":         {input: "1/2/2020", want: date(2020, time.January, 2)},
		"padded slashed date":            {input: "11/22/2020", want: date(2020, time.November, 22)},
		"iso":                            {input: "2020-01-15", want: date(2020, time.January, 15)},
		"dashed month-day-year":          {input: "3-4-2020", want: date(2020, time.March, 4)},
		"padded dashed month-day-year":   {input: "01-02-2020", want: date(2020, time.January, 2)},
		"leap day":                       {input: "2/29/2020", want: date(2020, time.February, 29)},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := format.ParseDate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDateRejects(t *testing.T) {
	t.Parallel()

	for _, input := range []string{
		"",
		"tomorrow",
		"15-JANUARY-2020",
		"13-12-2020",
		"2020/01/15",
		"1/2/20",
		"2/30/2020",
		"Jan 15, 2020",
		"2020-01-15T00:00:00Z",
	} {
		t.Run(input, func(t *testing.T) {
			t.Parallel()

			_, err := format.ParseDate(input)
			assert.ErrorIs(t, err, format.ErrUnparsableDate)
		})
	}
}

func TestRenderDate(t *testing.T) {
	t.Parallel()

	on := date(2020, time.January, 15)

	tcs := map[string]struct {
		format string
		want   string
	}{
		"DD/MM/YYYY":           {format: "DD/MM/YYYY", want: "15/01/2020"},
		"MM/DD/YYYY":           {format: "MM/DD/YYYY", want: "01/15/2020"},
		"YYYY-MM-DD":           {format: "YYYY-MM-DD", want: "2020-01-15"},
		"MM-DD-YYYY":           {format: "MM-DD-YYYY", want: "01-15-2020"},
		"DD-MM-YYYY":           {format: "DD-MM-YYYY", want: "15-01-2020"},
		"M/D/YYYY":             {format: "M/D/YYYY", want: "1/15/2020"},
		"D/M/YYYY":             {format: "D/M/YYYY", want: "15/1/2020"},
		"tokens ignore case":   {format: "yyyy-mm-dd", want: "2020-01-15"},
		"unrecognized token":   {format: "QQQQ", want: "01/15/2020"},
		"empty token":          {format: "", want: "01/15/2020"},
		"near miss DD.MM.YYYY": {format: "DD.MM.YYYY", want: "01/15/2020"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, format.RenderDate(on, tc.format))
		})
	}
}

// Every accepted input grammar rendered through a format lands on that
// format's own representation of the same day.
func TestParseRenderRoundTrip(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input  string
		format string
		want   string
	}{
		"month name to iso":        {input: "15-JAN-2020", format: "YYYY-MM-DD", want: "2020-01-15"},
		"month name to dd/mm/yyyy": {input: "15-jan-2020", format: "DD/MM/YYYY", want: "15/01/2020"},
		"slashed to mm-dd-yyyy":    {input: "1/2/2020", format: "MM-DD-YYYY", want: "01-02-2020"},
		"iso to d/m/yyyy":          {input: "2020-01-15", format: "D/M/YYYY", want: "15/1/2020"},
		"dashed to m/d/yyyy":       {input: "3-4-2020", format: "M/D/YYYY", want: "3/4/2020"},
		"iso to dd-mm-yyyy":        {input: "2020-01-15", format: "DD-MM-YYYY", want: "15-01-2020"},
		"identity":                 {input: "09/08/2020", format: "MM/DD/YYYY", want: "09/08/2020"},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			parsed, err := format.ParseDate(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, format.RenderDate(parsed, tc.format))
		})
	}
}

func TestValue(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		raw  string
		attr catalog.Attribute
		want string
	}{
		"empty": {
			raw:  "",
			attr: catalog.Attribute{Name: "x"},
			want: "",
		},
		"whitespace only": {
			raw:  "   \t",
			attr: catalog.Attribute{Name: "x"},
			want: "",
		},
		"untyped passes through trimmed": {
			raw:  "  hello  ",
			attr: catalog.Attribute{Name: "x"},
			want: "hello",
		},
		"number passes through": {
			raw:  "0012.5",
			attr: catalog.Attribute{Name: "x", DataType: catalog.TypeNumber, Format: "###"},
			want: "0012.5",
		},
		"date without format passes through": {
			raw:  "15-JAN-2020",
			attr: catalog.Attribute{Name: "dob", DataType: catalog.TypeDate},
			want: "15-JAN-2020",
		},
		"date is reformatted": {
			raw:  " 15-JAN-2020 ",
			attr: catalog.Attribute{Name: "dob", DataType: catalog.TypeDate, Format: "YYYY-MM-DD"},
			want: "2020-01-15",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := format.Value(tc.raw, tc.attr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValueUnparsableDate(t *testing.T) {
	t.Parallel()

	attr := catalog.Attribute{Name: "dob", DataType: catalog.TypeDate, Format: "YYYY-MM-DD"}

	got, err := format.Value(" tomorrow ", attr)
	require.Error(t, err)
	assert.ErrorIs(t, err, format.ErrUnparsableDate)
	assert.ErrorContains(t, err, "dob")
	assert.Equal(t, "tomorrow", got, "raw value is kept on parse failure")
}
