package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeeklyFrequencyMapping(t *testing.T) {
	f := WeeklyFrequency{
		Sunday: 1, Monday: 2, Tuesday: 3, Wednesday: 4,
		Thursday: 5, Friday: 6, Saturday: 7,
	}

	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		assert.Equal(t, int(wd)+1, f.On(wd), wd.String())
	}
}

func TestClientFullName(t *testing.T) {
	assert.Equal(t, "Mere Tane", Client{FirstName: "Mere", LastName: "Tane"}.FullName())
	assert.Equal(t, "Mere", Client{FirstName: "Mere"}.FullName())
}

func TestRequiredOn(t *testing.T) {
	ph := ProgrammeHabit{Current: true}
	ph.Wednesday = 2

	assert.Equal(t, 2, ph.RequiredOn(time.Wednesday))
	assert.Equal(t, 1, ph.RequiredOn(time.Thursday), "unscheduled days still need one repetition")

	override := 4
	ph.FrequencyPerDay = &override
	assert.Equal(t, 4, ph.RequiredOn(time.Wednesday))
	assert.Equal(t, 4, ph.RequiredOn(time.Thursday))

	assert.True(t, ph.ScheduledOn(time.Wednesday))
	assert.False(t, ph.ScheduledOn(time.Thursday))

	ph.Current = false
	assert.False(t, ph.ScheduledOn(time.Wednesday))
}

func TestProgrammeCovers(t *testing.T) {
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	p := Programme{
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
	}

	assert.False(t, p.Covers(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.True(t, p.Covers(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Covers(time.Date(2025, 1, 31, 22, 0, 0, 0, time.UTC)))
	assert.False(t, p.Covers(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))

	p.EndDate = nil
	assert.True(t, p.Covers(time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAdhocValidate(t *testing.T) {
	text := "vegetarian"
	n := 72.5
	date := "2025-01-08"
	bad := "08/01/2025"

	valid := AdhocData{Entries: []AdhocEntry{
		{Key: "diet", Kind: AdhocText, Text: &text},
		{Key: "weight", Kind: AdhocNumber, Number: &n},
		{Key: "assessed", Kind: AdhocDate, Date: &date},
	}}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		data AdhocData
	}{
		{"kind without value", AdhocData{Entries: []AdhocEntry{{Key: "x", Kind: AdhocFlag}}}},
		{"wrong value for kind", AdhocData{Entries: []AdhocEntry{{Key: "x", Kind: AdhocNumber, Text: &text}}}},
		{"two values", AdhocData{Entries: []AdhocEntry{{Key: "x", Kind: AdhocText, Text: &text, Number: &n}}}},
		{"bad date", AdhocData{Entries: []AdhocEntry{{Key: "x", Kind: AdhocDate, Date: &bad}}}},
		{"unknown kind", AdhocData{Entries: []AdhocEntry{{Key: "x", Kind: "colour", Text: &text}}}},
		{"duplicate key", AdhocData{Entries: []AdhocEntry{
			{Key: "x", Kind: AdhocText, Text: &text},
			{Key: "x", Kind: AdhocNumber, Number: &n},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.data.Validate())
		})
	}
}
