package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Match(t *testing.T) {
	metadata := map[string]string{
		"lang": "en",
		"year": "2021",
		"date": "2024-03-01",
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"eq match", Filter{"lang", FilterEq, "en"}, true},
		{"eq miss", Filter{"lang", FilterEq, "de"}, false},
		{"ne", Filter{"lang", FilterNe, "de"}, true},
		{"numeric gt", Filter{"year", FilterGt, "2020"}, true},
		{"numeric gte equal", Filter{"year", FilterGte, "2021"}, true},
		{"numeric lt", Filter{"year", FilterLt, "2021"}, false},
		{"numeric not lexical", Filter{"year", FilterLt, "10000"}, true},
		{"lexical date", Filter{"date", FilterLte, "2024-12-31"}, true},
		{"missing field eq", Filter{"author", FilterEq, "x"}, false},
		{"missing field ne", Filter{"author", FilterNe, "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(metadata))
		})
	}
}

func TestMatchAll(t *testing.T) {
	metadata := map[string]string{"lang": "en", "year": "2021"}

	assert.True(t, MatchAll(nil, metadata))
	assert.True(t, MatchAll([]Filter{{"lang", FilterEq, "en"}, {"year", FilterGte, "2000"}}, metadata))
	assert.False(t, MatchAll([]Filter{{"lang", FilterEq, "en"}, {"year", FilterGt, "2021"}}, metadata))
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		expr string
		want Filter
	}{
		{"lang=en", Filter{"lang", FilterEq, "en"}},
		{"year>=2020", Filter{"year", FilterGte, "2020"}},
		{"year<=2020", Filter{"year", FilterLte, "2020"}},
		{"year>2020", Filter{"year", FilterGt, "2020"}},
		{"year<2020", Filter{"year", FilterLt, "2020"}},
		{"lang!=en", Filter{"lang", FilterNe, "en"}},
		{" lang = en ", Filter{"lang", FilterEq, "en"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseFilter(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFilter_Invalid(t *testing.T) {
	for _, expr := range []string{"", "lang", "=en"} {
		_, err := ParseFilter(expr)
		assert.True(t, errors.Is(err, ErrInvalidInput), expr)
	}
}

func TestFilter_String(t *testing.T) {
	assert.Equal(t, "year>=2020", Filter{"year", FilterGte, "2020"}.String())
}

func TestFilter_Validate(t *testing.T) {
	assert.NoError(t, Filter{"a", FilterEq, "b"}.Validate())
	assert.ErrorIs(t, Filter{"", FilterEq, "b"}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, Filter{"a", "like", "b"}.Validate(), ErrInvalidInput)
}
