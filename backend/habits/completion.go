package habits

import (
	"errors"

	"github.com/brentedwards-nz/Benefit-sub000/backend/models"
)

var ErrInvalidIntent = errors.New("exactly one of delta, completed or times_done is required")

// Intent describes a requested change to a completion record.
type Intent struct {
	Delta     *int
	Completed *bool
	TimesDone *int
}

func (i Intent) Validate() error {
	set := 0
	if i.Delta != nil {
		set++
	}
	if i.Completed != nil {
		set++
	}
	if i.TimesDone != nil {
		set++
	}
	if set != 1 {
		return ErrInvalidIntent
	}
	return nil
}

// Next applies the intent to the current count and clamps the result.
func (i Intent) Next(current int) int {
	switch {
	case i.TimesDone != nil:
		return Clamp(*i.TimesDone)
	case i.Completed != nil:
		if *i.Completed {
			return Clamp(current + 1)
		}
		return Clamp(current - 1)
	case i.Delta != nil:
		return Clamp(current + *i.Delta)
	}
	return Clamp(current)
}

func Clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > models.MaxTimesDone {
		return models.MaxTimesDone
	}
	return n
}

type Outcome struct {
	TimesDone      int  `json:"times_done"`
	Completed      bool `json:"completed"`
	RequiredPerDay int  `json:"required_per_day"`
}

// Apply computes the next stored state. Completed is always derived.
func Apply(current int, intent Intent, required int) Outcome {
	next := intent.Next(current)
	return Outcome{
		TimesDone:      next,
		Completed:      next >= required,
		RequiredPerDay: required,
	}
}
