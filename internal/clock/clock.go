package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock abstracts wall-clock time so calendar-sensitive rules
// (reading deadlines, automatic fallbacks) stay testable.
type Clock interface {
	Now() time.Time
}

var Module = fx.Module("clock",
	fx.Provide(NewSystemClock),
)

type systemClock struct{}

func NewSystemClock() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
