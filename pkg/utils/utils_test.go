package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripHTML(t *testing.T) {
	assert.Equal(t, "Hello world & friends", StripHTML("<p>Hello <b>world</b> &amp; friends</p>"))
	assert.Equal(t, "plain text", StripHTML("  plain\n\ttext "))
}

func TestFirstImageSrc(t *testing.T) {
	assert.Equal(t, "https://img.example.com/a.jpg", FirstImageSrc(`<div><img src="https://img.example.com/a.jpg"><img src="b.jpg"></div>`))
	assert.Empty(t, FirstImageSrc("no images here"))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "héll", TruncateRunes("héllo", 4))
	assert.Equal(t, "abc", TruncateRunes("abc", 10))
	assert.Empty(t, TruncateRunes("abc", 0))
}

func TestCapitalizeWords(t *testing.T) {
	assert.Equal(t, "Social Progress", CapitalizeWords("social_progress"))
	assert.Equal(t, "Arts", CapitalizeWords("arts"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	ts, err := ParseDate("2024-03-05T10:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, 10, ts.Hour())

	_, err = ParseDate("05/03/2024")
	assert.Error(t, err)
}
