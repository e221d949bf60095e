package utils

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// BatchMute limits how many events are let through per interval.
type BatchMute struct {
	lock          sync.Mutex
	batchTime     time.Time
	resetInterval time.Duration
	ctr           int
	max           int
}

func (b *BatchMute) increment(val int, t time.Time) (muted bool, skipped int) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.max == 0 || b.resetInterval == 0 {
		return muted, skipped
	}

	if b.ctr >= b.max {
		skipped = b.ctr - b.max
	}

	if t.Sub(b.batchTime) > b.resetInterval {
		b.ctr = 0
		b.batchTime = t
	}
	b.ctr += val

	return b.max > 0 && b.ctr > b.max, skipped
}

// Increment records one event. muted is true once the batch is over its
// limit; skipped is the number of events muted in the previous batch and is
// reported on the first event of the next one.
func (b *BatchMute) Increment() (muted bool, skipped int) {
	return b.increment(1, time.Now().UTC())
}

func (b *BatchMute) log(entry *log.Entry, level log.Level, msg string, t time.Time) {
	muted, skipped := b.increment(1, t)
	if muted {
		if skipped == 0 {
			entry.Logger.Warn("too many messages, muting")
		}
		return
	}
	if skipped > 0 {
		entry.Logger.WithField("count", skipped).Warn("skipped messages")
	}
	entry.Log(level, msg)
}

// Log writes the entry unless the batch is muted.
func (b *BatchMute) Log(entry *log.Entry, level log.Level, msg string) {
	b.log(entry, level, msg, time.Now().UTC())
}

// A zero max or interval disables muting.
func NewBatchMute(resetInterval time.Duration, max int) *BatchMute {
	return &BatchMute{
		batchTime:     time.Now().UTC(),
		resetInterval: resetInterval,
		max:           max,
	}
}
