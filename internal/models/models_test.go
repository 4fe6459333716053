package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAliases(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Reservation
	}{
		{
			name: "canonical fields",
			raw:  `{"id":"r-1","guestName":"Ann","phone":"+1 555 0100","partySize":4,"time":"2024-01-01T10:00","status":"pending","notes":"window seat"}`,
			want: Reservation{ID: "r-1", GuestName: "Ann", Phone: "+1 555 0100", PartySize: 4, Status: "pending", Notes: "window seat"},
		},
		{
			name: "snake case and when alias",
			raw:  `{"id":42,"guest_name":"Bo","party_size":"2","when":"2024-01-02T10:00","status":"confirmed"}`,
			want: Reservation{ID: "42", GuestName: "Bo", PartySize: 2, Status: "confirmed"},
		},
		{
			name: "legacy name and datetime alias",
			raw:  `{"id":7,"name":"Cyd","guests":3,"datetime":"2024-01-03 12:30","comment":"birthday"}`,
			want: Reservation{ID: "7", GuestName: "Cyd", PartySize: 3, Notes: "birthday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw RawReservation
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &raw))

			got := raw.Normalize()
			assert.Equal(t, tt.want.ID, got.ID)
			assert.Equal(t, tt.want.GuestName, got.GuestName)
			assert.Equal(t, tt.want.PartySize, got.PartySize)
			assert.Equal(t, tt.want.Status, got.Status)
			assert.Equal(t, tt.want.Notes, got.Notes)
			assert.True(t, got.HasWhen())
		})
	}
}

func TestNormalizeDefaults(t *testing.T) {
	var raw RawReservation
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x"}`), &raw))

	got := raw.Normalize()
	assert.Equal(t, PlaceholderGuestName, got.GuestName)
	assert.False(t, got.HasWhen())
	assert.Zero(t, got.PartySize)
}

func TestNormalizeBadInstant(t *testing.T) {
	var raw RawReservation
	require.NoError(t, json.Unmarshal([]byte(`{"id":"x","time":"not-a-date"}`), &raw))

	got := raw.Normalize()
	assert.False(t, got.HasWhen(), "unparseable instant must degrade to absent")
}

func TestParseInstant(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
	}{
		{"2024-01-01T10:00:00Z", true},
		{"2024-01-01T10:00:00+03:00", true},
		{"2024-01-01T10:00", true},
		{"2024-01-01 10:00:00", true},
		{"2024-01-01", true},
		{"", false},
		{"tomorrow", false},
		{"01/02/2024", false},
	}

	for _, tt := range tests {
		_, ok := ParseInstant(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
	}
}

func TestParseInstantLocalLayouts(t *testing.T) {
	got, ok := ParseInstant("2024-03-15T18:30")
	require.True(t, ok)

	want := time.Date(2024, 3, 15, 18, 30, 0, 0, time.Local)
	assert.True(t, got.Equal(want))
}

func TestKnownStatus(t *testing.T) {
	assert.True(t, Reservation{Status: "confirmed"}.KnownStatus())
	assert.True(t, Reservation{Status: "Confirmed"}.KnownStatus())
	assert.True(t, Reservation{Status: StatusSeated}.KnownStatus())
	assert.False(t, Reservation{Status: "walk-in"}.KnownStatus())
	assert.False(t, Reservation{}.KnownStatus())
}

func TestFilterSpecIsZero(t *testing.T) {
	assert.True(t, FilterSpec{}.IsZero())
	assert.True(t, FilterSpec{Search: "   "}.IsZero())
	assert.False(t, FilterSpec{Status: "pending"}.IsZero())
	assert.False(t, FilterSpec{From: time.Now()}.IsZero())
}

func TestSnapshotAge(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	snapshot := &Snapshot{FetchedAt: now.Add(-90 * time.Second)}
	assert.Equal(t, 90*time.Second, snapshot.Age(now))

	assert.Zero(t, (&Snapshot{}).Age(now))
	assert.Zero(t, (*Snapshot)(nil).Age(now))
}
