package types

import "time"

// Timestamp is milliseconds since the Unix epoch, the chain's slot-time unit.
type Timestamp uint64

func NewTimestampFromTime(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t))
}

func (t Timestamp) Before(other Timestamp) bool {
	return t < other
}

func (t Timestamp) After(other Timestamp) bool {
	return t > other
}

// AddDuration saturates at the maximum representable timestamp.
func (t Timestamp) AddDuration(d Duration) Timestamp {
	sum := uint64(t) + uint64(d)
	if sum < uint64(t) {
		return Timestamp(^uint64(0))
	}
	return Timestamp(sum)
}

// Duration is a relative span in milliseconds.
type Duration uint64

func NewDurationFromStd(d time.Duration) Duration {
	return Duration(d.Milliseconds())
}

func (d Duration) Std() time.Duration {
	return time.Duration(d) * time.Millisecond
}
