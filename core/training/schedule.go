package training

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const minutesPerDay = 24 * 60

var errInvalidTimeOfDay = errors.New(`time of day must be formatted as "HH:MM"`)

// TimeOfDay is a number of minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses a "HH:MM" (24h) time of day.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, errInvalidTimeOfDay
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) Valid() bool { return t >= 0 && t < minutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errInvalidTimeOfDay
	}
	tod, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = tod
	return nil
}

// Schedule is a weekly time range: [Start, End) on Day.
type Schedule struct {
	Day   time.Weekday `json:"day" validate:"weekday"`
	Start TimeOfDay    `json:"start" validate:"hhmm"`
	End   TimeOfDay    `json:"end" validate:"hhmm"`
}

func (s Schedule) String() string {
	return fmt.Sprintf("%s %s-%s", s.Day, s.Start, s.End)
}

// Overlaps reports whether both schedules share some time on the same day.
// touching ranges (one ends when the other starts) do not overlap.
func (s Schedule) Overlaps(other Schedule) bool {
	return s.Day == other.Day && s.Start < other.End && other.Start < s.End
}

// Conflict is a schedule of the candidate class overlapping one of another class of the same coach.
type Conflict struct {
	ClassID   string   `json:"class_id"`
	ClassName string   `json:"class_name"`
	Schedule  Schedule `json:"schedule"` // candidate's
	With      Schedule `json:"with"`     // other class'
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s overlaps %q (%s)", c.Schedule, c.ClassName, c.With)
}

// FindConflicts returns every overlap between the candidate's schedules and those of the existing classes.
// the candidate itself (same ID) is skipped so that updates do not conflict with their previous version.
func FindConflicts(candidate TrainingClass, existing []TrainingClass) []Conflict {
	var conflicts []Conflict
	for _, other := range existing {
		if candidate.ID != "" && other.ID == candidate.ID {
			continue
		}
		for _, sched := range candidate.Schedules {
			for _, with := range other.Schedules {
				if sched.Overlaps(with) {
					conflicts = append(conflicts, Conflict{
						ClassID:   other.ID,
						ClassName: other.Name,
						Schedule:  sched,
						With:      with,
					})
				}
			}
		}
	}
	return conflicts
}

// ConflictError lists the schedule conflicts preventing a class from being saved.
type ConflictError struct {
	Conflicts []Conflict
}

func (err *ConflictError) Error() string {
	msgs := make([]string, 0, len(err.Conflicts))
	for _, c := range err.Conflicts {
		msgs = append(msgs, c.String())
	}
	return "coach is already booked: " + strings.Join(msgs, "; ")
}

// checkSchedules checks that every schedule ends after it starts and that none overlap each other.
func checkSchedules(schedules []Schedule) error {
	for i, s := range schedules {
		if s.Start >= s.End {
			return errors.Errorf("schedule %s must end after it starts", s)
		}
		for _, other := range schedules[i+1:] {
			if s.Overlaps(other) {
				return errors.Errorf("schedules %s and %s overlap", s, other)
			}
		}
	}
	return nil
}
