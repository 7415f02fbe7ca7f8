package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{name: "spanish mobile", raw: "600111222", want: "+34600111222", ok: true},
		{name: "spanish landline", raw: "912 345 678", want: "+34912345678", ok: true},
		{name: "country code without plus", raw: "34600111222", want: "+34600111222", ok: true},
		{name: "already e164", raw: "+34 600-111-222", want: "+34600111222", ok: true},
		{name: "foreign e164 kept", raw: "+44 20 7946 0958", want: "+442079460958", ok: true},
		{name: "plus only allowed leading", raw: "600+111+222", want: "+34600111222", ok: true},
		{name: "nine digits other prefix", raw: "123456789", want: "123456789", ok: true},
		{name: "too short", raw: "12345678", ok: false},
		{name: "too short with plus", raw: "+1234567", ok: false},
		{name: "short with country code", raw: "3412", ok: false},
		{name: "empty", raw: "   ", ok: false},
		{name: "letters only", raw: "n/a", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Normalize(tc.raw)
			require.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"600111222", "34600111222", "+34 600 111 222", "(+34) 912-345-678",
		"0034600111222", "123456789", "+442079460958", "7 0 0 1 2 3 4 5 6",
	}
	for _, raw := range inputs {
		once, ok := Normalize(raw)
		require.True(t, ok, raw)
		twice, ok := Normalize(once)
		require.True(t, ok, once)
		assert.Equal(t, once, twice, "input %q", raw)
	}
}

func TestNormalizePtr(t *testing.T) {
	assert.Nil(t, NormalizePtr(nil))

	bad := "123"
	assert.Nil(t, NormalizePtr(&bad))

	good := "600111222"
	got := NormalizePtr(&good)
	require.NotNil(t, got)
	assert.Equal(t, "+34600111222", *got)
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "ES", Region("+34600111222"))
	assert.Equal(t, "GB", Region("+442079460958"))
	assert.Equal(t, "ES", Region("not a number"))
}
