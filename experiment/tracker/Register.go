package tracker

// registeredTracker registers a policy with some Tracker so that the
// Tracker tracks data from the registered policy only. registeredTracker
// itself is a Tracker.
//
// This is useful when several policies are evaluated in the same
// experiment, but data is needed for only one of them.
type registeredTracker struct {
	Tracker
	policy string
}

// Register returns a Tracker which passes on to t only the Records of
// the policy with the given name.
//
// Note: the underlying concrete type of the registered Tracker is
// lost when registering a policy with a Tracker.
func Register(t Tracker, policy string) Tracker {
	return &registeredTracker{t, policy}
}

// Track calls Track() on the embedded Tracker if r was produced by the
// registered policy
func (r *registeredTracker) Track(record Record) {
	if record.Policy == r.policy {
		r.Tracker.Track(record)
	}
}
