package training

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hm(h, m int) TimeOfDay { return TimeOfDay(h*60 + m) }

func TestScheduleOverlaps(t *testing.T) {
	monEvening := Schedule{Day: time.Monday, Start: hm(18, 0), End: hm(19, 30)}

	tests := []struct {
		name  string
		other Schedule
		want  bool
	}{
		{name: "same range", other: monEvening, want: true},
		{name: "starts inside", other: Schedule{Day: time.Monday, Start: hm(19, 0), End: hm(20, 0)}, want: true},
		{name: "ends inside", other: Schedule{Day: time.Monday, Start: hm(17, 0), End: hm(18, 1)}, want: true},
		{name: "contains", other: Schedule{Day: time.Monday, Start: hm(17, 0), End: hm(21, 0)}, want: true},
		{name: "contained", other: Schedule{Day: time.Monday, Start: hm(18, 15), End: hm(18, 45)}, want: true},
		{name: "touching after", other: Schedule{Day: time.Monday, Start: hm(19, 30), End: hm(20, 30)}},
		{name: "touching before", other: Schedule{Day: time.Monday, Start: hm(17, 0), End: hm(18, 0)}},
		{name: "other day", other: Schedule{Day: time.Tuesday, Start: hm(18, 0), End: hm(19, 30)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, monEvening.Overlaps(tt.other))
			assert.Equal(t, tt.want, tt.other.Overlaps(monEvening), "overlap must be symmetric")
		})
	}
}

func TestFindConflicts(t *testing.T) {
	kids := TrainingClass{
		ID:   "kids",
		Name: "Kids",
		Schedules: []Schedule{
			{Day: time.Monday, Start: hm(17, 0), End: hm(18, 0)},
			{Day: time.Wednesday, Start: hm(17, 0), End: hm(18, 0)},
		},
	}
	adults := TrainingClass{
		ID:        "adults",
		Name:      "Adults",
		Schedules: []Schedule{{Day: time.Monday, Start: hm(19, 0), End: hm(20, 30)}},
	}
	existing := []TrainingClass{kids, adults}

	tests := []struct {
		name      string
		candidate TrainingClass
		want      []Conflict
	}{
		{
			name: "no conflict",
			candidate: TrainingClass{Name: "Teens", Schedules: []Schedule{
				{Day: time.Monday, Start: hm(18, 0), End: hm(19, 0)},
			}},
		},
		{
			name: "conflicts with several classes",
			candidate: TrainingClass{Name: "Teens", Schedules: []Schedule{
				{Day: time.Monday, Start: hm(17, 30), End: hm(19, 30)},
			}},
			want: []Conflict{
				{
					ClassID:   "kids",
					ClassName: "Kids",
					Schedule:  Schedule{Day: time.Monday, Start: hm(17, 30), End: hm(19, 30)},
					With:      kids.Schedules[0],
				},
				{
					ClassID:   "adults",
					ClassName: "Adults",
					Schedule:  Schedule{Day: time.Monday, Start: hm(17, 30), End: hm(19, 30)},
					With:      adults.Schedules[0],
				},
			},
		},
		{
			name: "class does not conflict with itself",
			candidate: TrainingClass{ID: "kids", Name: "Kids", Schedules: []Schedule{
				{Day: time.Monday, Start: hm(17, 0), End: hm(18, 30)},
			}},
		},
		{
			name: "updated class conflicts with others",
			candidate: TrainingClass{ID: "kids", Name: "Kids", Schedules: []Schedule{
				{Day: time.Monday, Start: hm(17, 0), End: hm(19, 15)},
			}},
			want: []Conflict{{
				ClassID:   "adults",
				ClassName: "Adults",
				Schedule:  Schedule{Day: time.Monday, Start: hm(17, 0), End: hm(19, 15)},
				With:      adults.Schedules[0],
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindConflicts(tt.candidate, existing)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("FindConflicts() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCheckSchedules(t *testing.T) {
	tests := []struct {
		name      string
		schedules []Schedule
		wantErr   bool
	}{
		{name: "valid", schedules: []Schedule{
			{Day: time.Monday, Start: hm(17, 0), End: hm(18, 0)},
			{Day: time.Monday, Start: hm(18, 0), End: hm(19, 0)},
		}},
		{name: "ends before start", schedules: []Schedule{{Day: time.Friday, Start: hm(18, 0), End: hm(17, 0)}}, wantErr: true},
		{name: "empty range", schedules: []Schedule{{Day: time.Friday, Start: hm(18, 0), End: hm(18, 0)}}, wantErr: true},
		{name: "self overlap", schedules: []Schedule{
			{Day: time.Monday, Start: hm(17, 0), End: hm(18, 30)},
			{Day: time.Monday, Start: hm(18, 0), End: hm(19, 0)},
		}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := checkSchedules(tt.schedules); (err != nil) != tt.wantErr {
				t.Errorf("checkSchedules() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimeOfDayJSON(t *testing.T) {
	var sched Schedule
	require.NoError(t, json.Unmarshal([]byte(`{"day": 2, "start": "07:05", "end": "23:59"}`), &sched))
	assert.Equal(t, Schedule{Day: time.Tuesday, Start: hm(7, 5), End: hm(23, 59)}, sched)

	data, err := json.Marshal(sched)
	require.NoError(t, err)
	assert.JSONEq(t, `{"day": 2, "start": "07:05", "end": "23:59"}`, string(data))

	for _, invalid := range []string{`"24:00"`, `"7h05"`, `705`, `""`} {
		var tod TimeOfDay
		assert.Error(t, json.Unmarshal([]byte(invalid), &tod), invalid)
	}
}
