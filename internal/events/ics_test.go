package events

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buffcal/internal/model"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:weekly-triple\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250601T180000Z\r\n" +
	"DTEND:20250601T200000Z\r\n" +
	"SUMMARY:Triple XP\r\n" +
	"X-BUFF-TYPE:triple_xp\r\n" +
	"RRULE:FREQ=WEEKLY\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250602T100000Z\r\n" +
	"DTEND:20250602T110000Z\r\n" +
	"SUMMARY:Double Drops\r\n" +
	"CATEGORIES:Double Drop Chance,Weekend\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:yearly\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250603T100000Z\r\n" +
	"DTEND:20250603T110000Z\r\n" +
	"SUMMARY:Anniversary Buff\r\n" +
	"RRULE:FREQ=YEARLY\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:fortnight\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250604T100000Z\r\n" +
	"DTEND:20250604T110000Z\r\n" +
	"SUMMARY:Fortnightly\r\n" +
	"RRULE:FREQ=DAILY;INTERVAL=14\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseICS(t *testing.T) {
	evs, errs, err := ParseICS([]byte(sampleICS))
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, evs, 4)

	weekly := evs[0]
	assert.Equal(t, "weekly-triple", weekly.ID)
	assert.Equal(t, model.TypeTripleXP, weekly.Type)
	assert.Equal(t, time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC).Unix(), weekly.StartTime)
	assert.Equal(t, time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC).Unix(), weekly.EndTime)
	assert.True(t, weekly.Recurring)
	assert.Equal(t, model.RecurrenceWeekly, weekly.RecurrenceType)

	drops := evs[1]
	assert.Equal(t, model.TypeDoubleDropChance, drops.Type)
	assert.False(t, drops.Recurring)
	assert.NotEmpty(t, drops.ID)

	again, _, err := ParseICS([]byte(sampleICS))
	require.NoError(t, err)
	assert.Equal(t, drops.ID, again[1].ID, "generated IDs must be stable")

	assert.Equal(t, model.EventType("anniversary_buff"), evs[2].Type)
	assert.Equal(t, model.RecurrenceType("yearly"), evs[2].RecurrenceType)
	assert.False(t, evs[2].RecurrenceType.Known())

	assert.Equal(t, model.RecurrenceType("every_14_days"), evs[3].RecurrenceType)
}

func TestParseICS_Empty(t *testing.T) {
	_, _, err := ParseICS([]byte("  "))
	assert.Error(t, err)
}

func TestWriteICS(t *testing.T) {
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	occs := []model.Occurrence{
		{ID: "weekly", Type: model.TypeTripleXP, Start: start, End: start.Add(2 * time.Hour)},
		{ID: "weekly", Type: model.TypeTripleXP, Start: start.AddDate(0, 0, 7), End: start.AddDate(0, 0, 7).Add(2 * time.Hour)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteICS(&buf, occs, start))

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "SUMMARY:Triple XP")
	assert.Contains(t, out, "X-BUFF-TYPE:triple_xp")

	evs, errs, err := ParseICS(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, errs)
	require.Len(t, evs, 2)
	assert.NotEqual(t, evs[0].ID, evs[1].ID)
	assert.Equal(t, start.AddDate(0, 0, 7).Unix(), evs[1].StartTime)
}
