package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	obj := map[string]any{
		"movement": []any{
			map[string]any{"brokerage_status": "BOOKED"},
		},
		"empty": nil,
	}

	tests := map[string]struct {
		path []any

		want any
	}{
		"Nested map and slice": {path: []any{"movement", 0, "brokerage_status"}, want: "BOOKED"},
		"Missing key":          {path: []any{"nothing"}},
		"Nil value":            {path: []any{"empty"}},
		"Key below nil":        {path: []any{"empty", "deeper"}},
		"Index out of range":   {path: []any{"movement", 5}},
		"Negative index":       {path: []any{"movement", -1}},
		"Index into map":       {path: []any{0}},
		"Key into slice":       {path: []any{"movement", "key"}},
		"Unsupported step":     {path: []any{3.14}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, lookup(obj, tc.path...), "lookup result should match")
		})
	}
}

func TestCoercions(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "812", asString(812.0), "Whole floats should format without decimals")
	assert.Equal(t, "8.5", asString(8.5), "Fractional floats should keep their fraction")
	assert.Equal(t, "", asString(map[string]any{}), "Non scalars should yield empty")

	f, ok := asFloat("1200.50")
	assert.True(t, ok, "Numeric strings should coerce")
	assert.InEpsilon(t, 1200.5, f, 1e-9, "Coerced value should match")
	_, ok = asFloat("12 miles")
	assert.False(t, ok, "Non numeric strings should not coerce")

	n, ok := asInt(195.9)
	assert.True(t, ok, "Floats should coerce to int")
	assert.Equal(t, 195, n, "Fractions truncate")
	_, ok = asInt(nil)
	assert.False(t, ok, "Nil should not coerce")

	for raw, want := range map[string]bool{"Y": true, "y": true, "1": true, "true": true, "N": false, "n": false, "0": false, "": false} {
		b, ok := asBool(raw)
		assert.True(t, ok, "Flag spelling %q should coerce", raw)
		assert.Equal(t, want, b, "Flag spelling %q should match", raw)
	}
	_, ok = asBool("maybe")
	assert.False(t, ok, "Unknown spellings should not coerce")

	assert.Nil(t, optString(""), "Empty strings should become nil")
	assert.Nil(t, optString(nil), "Nil should stay nil")
	if got := optString("x"); assert.NotNil(t, got, "Non empty strings should be kept") {
		assert.Equal(t, "x", *got, "Kept value should match")
	}
}
