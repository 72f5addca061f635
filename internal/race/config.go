package race

import "time"

// Game clock: one real second is one in-game hour.
const HoursPerSecond = 1.0

// Tick and refresh cadence. Forecasts refresh on the weather frame
// interval.
const (
	TicksPerSecond         = 30
	forecastRefreshSeconds = 12.0
)

// DefaultTimeLimit is the real-time race duration.
const DefaultTimeLimit = 8 * time.Minute

// Movement integration.
const (
	pathSubSteps   = 8
	maxTrackLength = 1000
)

// scheduleGroups is how many turn groups bots are packed into; each tick
// runs one group.
const scheduleGroups = 3
