package dateformat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_AllTemplates(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC)

	cases := map[string]string{
		"DD.MM.YYYY":   "05.03.2024",
		"DD/MM/YYYY":   "05/03/2024",
		"MM/DD/YYYY":   "03/05/2024",
		"YYYY-MM-DD":   "2024-03-05",
		"DD MMMM YYYY": "05 March 2024",
		"MMMM D, YYYY": "March 5, 2024",
		"D MMM":        "5 Mar",
		"HH:mm":        "14:07",
		"dddd, D MMMM": "Tuesday, 5 March",
	}
	require.Len(t, Templates(), len(cases))

	for tmpl, want := range cases {
		got, err := Format(ts, tmpl)
		require.NoError(t, err, tmpl)
		assert.Equal(t, want, got, tmpl)
	}
}

func TestFormat_UnknownTemplate(t *testing.T) {
	_, err := Format(time.Now(), "YY")
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}
