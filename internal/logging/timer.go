package logging

import "time"

// Timer measures the duration of an operation and logs it on Stop.
// Operations slower than the warn threshold are logged at warn level.
type Timer struct {
	cat   Category
	op    string
	start time.Time
}

// Threshold above which a timed operation is considered slow.
const slowOpThreshold = 2 * time.Second

// StartTimer begins timing an operation within a category.
func StartTimer(cat Category, op string) *Timer {
	return &Timer{cat: cat, op: op, start: time.Now()}
}

// Stop logs the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	log := Get(t.cat)
	if elapsed > slowOpThreshold {
		log.Warnw("slow operation", "op", t.op, "elapsed", elapsed)
	} else {
		log.Debugw("op complete", "op", t.op, "elapsed", elapsed)
	}
	return elapsed
}
