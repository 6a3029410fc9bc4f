package xapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{name: "hours minutes seconds", raw: "PT1H30M45S", want: 5445},
		{name: "minutes only", raw: "PT45M", want: 2700},
		{name: "seconds only", raw: "PT30S", want: 30},
		{name: "fractional hours", raw: "PT1.5H", want: 5400},
		{name: "fractional seconds", raw: "PT2.5S", want: 2.5},
		{name: "empty", raw: "", want: 0},
		{name: "missing prefix", raw: "1H30M", want: 0},
		{name: "prefix only", raw: "PT", want: 0},
		{name: "garbage component", raw: "PTxH", want: 0},
		{name: "trailing digits without unit", raw: "PT90", want: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseDuration(tc.raw))
		})
	}
}
