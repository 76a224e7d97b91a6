package rtp

import "sync/atomic"

// CollisionDetector recognizes foreign traffic claiming the local SSRC,
// distinguishes loopback from a true collision, and tracks how many
// foreign collisions have been observed so the engine can declare a loop
// once the threshold is crossed (spec.md §2 CollisionDetector, §4.2 step 3).
type CollisionDetector struct {
	collisions atomic.Uint32
}

// Collisions returns the number of foreign-origin SSRC collisions observed
// so far.
func (d *CollisionDetector) Collisions() uint32 {
	return d.collisions.Load()
}

// RecordForeignCollision increments the collision counter and reports
// whether the new count exceeds max — the caller should then terminate the
// session with ErrCollisionLimitExceeded.
func (d *CollisionDetector) RecordForeignCollision(max int) bool {
	n := d.collisions.Add(1)
	return int(n) > max
}
