package threads

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveThreadKey(t *testing.T) {
	sentAt := time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC)

	key := DeriveThreadKey("Re: Budget", "alice@example.com", []string{"bob@example.com"}, sentAt)

	assert.Equal(t, "budget|alice@example.com,bob@example.com|2024-03-05", key)
}

func TestDeriveThreadKey_ParticipantOrderAndCase(t *testing.T) {
	sentAt := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	a := DeriveThreadKey("Update", "A@x.com", []string{"b@Y.com"}, sentAt)
	b := DeriveThreadKey("Update", "b@y.com", []string{"a@x.com"}, sentAt)

	assert.Equal(t, a, b)
}

func TestDeriveThreadKey_DuplicateParticipants(t *testing.T) {
	sentAt := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	a := DeriveThreadKey("Update", "a@x.com", []string{"a@x.com", "b@y.com", "B@Y.com"}, sentAt)
	b := DeriveThreadKey("Update", "a@x.com", []string{"b@y.com"}, sentAt)

	assert.Equal(t, a, b)
}

func TestDeriveThreadKey_DayBucketIsUTC(t *testing.T) {
	// 23:30 in UTC-5 is 04:30 the next day in UTC
	loc := time.FixedZone("UTC-5", -5*3600)
	local := time.Date(2024, 3, 5, 23, 30, 0, 0, loc)

	key := DeriveThreadKey("x", "a@x.com", nil, local)

	assert.Contains(t, key, "|2024-03-06")
}

func TestDeriveThreadKey_DifferentDaysDiffer(t *testing.T) {
	day1 := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 6, 10, 0, 0, 0, time.UTC)

	a := DeriveThreadKey("Update", "a@x.com", []string{"b@y.com"}, day1)
	b := DeriveThreadKey("Update", "a@x.com", []string{"b@y.com"}, day2)

	assert.NotEqual(t, a, b)
}

func TestDeriveThreadKey_TimeOfDayIgnored(t *testing.T) {
	morning := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 5, 22, 45, 0, 0, time.UTC)

	a := DeriveThreadKey("Update", "a@x.com", []string{"b@y.com"}, morning)
	b := DeriveThreadKey("Update", "a@x.com", []string{"b@y.com"}, evening)

	assert.Equal(t, a, b)
}
