package memory

import "ragtune/pkg/ratelimiter"

// leaseRecord remembers what a reserve charged so Complete can settle
// against it and replays of the same lease can be recognized.
type leaseRecord struct {
	reservedAtUnixMs int64
	requirements     []ratelimiter.Requirement
	reserved         map[ratelimiter.LimitKey]uint64
}

func amountsByKey(reqs []ratelimiter.Requirement) map[ratelimiter.LimitKey]uint64 {
	amounts := make(map[ratelimiter.LimitKey]uint64, len(reqs))
	for _, r := range reqs {
		amounts[r.Key] = r.Amount
	}
	return amounts
}

// sameRequirements compares requirement sets by key and amount, ignoring
// order. A replayed lease must present the requirements it reserved with.
func sameRequirements(a, b []ratelimiter.Requirement) bool {
	if len(a) != len(b) {
		return false
	}
	want := amountsByKey(a)
	for _, r := range b {
		if amount, ok := want[r.Key]; !ok || amount != r.Amount {
			return false
		}
	}
	return true
}
