package memory

import "time"

// Clock supplies the backend's notion of now. Tests install a fake so
// window rollover and hold timeouts can be driven without sleeping.
type Clock interface {
	Now() time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }
