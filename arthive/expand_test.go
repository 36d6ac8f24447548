package arthive

import (
	"testing"

	"github.com/pocgg/arthivescrape/download"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandSingleRecord(t *testing.T) {
	records := []Media{{ID: "42", Versions: []string{"42", "42b", "42o"}}}
	keys := Keys{Versions: []string{"o"}, Axes: []string{"x"}, Resolutions: []string{"100"}}

	urls, err := Expand(DefaultBaseURL, records, keys)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://arthive.com/res/media/img/ox100/work/42/42.jpg",
		"https://arthive.com/res/media/img/ox100/work/42b/42.jpg",
		"https://arthive.com/res/media/img/ox100/work/42o/42.jpg",
	}, urls)
}

func TestExpandOrder(t *testing.T) {
	records := []Media{
		{ID: "1", Versions: []string{"a", "b"}},
		{ID: "2", Versions: []string{"c"}},
	}
	keys := Keys{Versions: []string{"o", "h"}, Axes: []string{"x", "y"}, Resolutions: []string{"0", "10"}}

	urls, err := Expand("https://host/", records, keys)
	require.NoError(t, err)
	require.Len(t, urls, Count(records, keys))
	assert.Len(t, urls, 3*2*2*2)

	// Record versions vary fastest, then resolution, axis, version key and
	// finally the record.
	assert.Equal(t, []string{
		"https://host/res/media/img/ox0/work/a/1.jpg",
		"https://host/res/media/img/ox0/work/b/1.jpg",
		"https://host/res/media/img/ox10/work/a/1.jpg",
		"https://host/res/media/img/ox10/work/b/1.jpg",
		"https://host/res/media/img/oy0/work/a/1.jpg",
	}, urls[:5])
	assert.Equal(t, "https://host/res/media/img/hx0/work/a/1.jpg", urls[8])
	assert.Equal(t, "https://host/res/media/img/ox0/work/c/2.jpg", urls[16])
	assert.Equal(t, "https://host/res/media/img/hy10/work/c/2.jpg", urls[23])
}

func TestExpandDefaultKeysCount(t *testing.T) {
	records := []Media{
		{ID: "1", Versions: []string{"1", "1b", "1o"}},
		{ID: "2", Versions: []string{"2", "2b", "2o"}},
	}

	urls, err := Expand(DefaultBaseURL, records, DefaultKeys())
	require.NoError(t, err)
	assert.Len(t, urls, 6*4*2*17)
}

func TestExpandDeterministic(t *testing.T) {
	records := []Media{{ID: "7", Versions: []string{"7", "7b", "7o"}}}

	first, err := Expand(DefaultBaseURL, records, DefaultKeys())
	require.NoError(t, err)
	second, err := Expand(DefaultBaseURL, records, DefaultKeys())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestExpandEmpty(t *testing.T) {
	urls, err := Expand(DefaultBaseURL, nil, DefaultKeys())
	assert.ErrorIs(t, err, download.ErrEmptyInput)
	assert.Nil(t, urls)
}
