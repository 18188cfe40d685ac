package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseWhoisTime(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-03-15T10:30:00Z", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-03-15 10:30:00", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)},
		{"2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"15-Mar-2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"2024.03.15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"not a date", time.Time{}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseWhoisTime(tc.in), tc.in)
	}
}

func TestDomainInfoYoung(t *testing.T) {
	young := &DomainInfo{CreatedAt: time.Now().AddDate(0, 0, -10), AgeDays: 10}
	assert.True(t, young.Young())

	old := &DomainInfo{CreatedAt: time.Now().AddDate(-5, 0, 0), AgeDays: 5 * 365}
	assert.False(t, old.Young())

	// No creation date means no signal either way.
	unknown := &DomainInfo{AgeDays: 0}
	assert.False(t, unknown.Young())
}
