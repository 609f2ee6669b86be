// Package stats keeps per-minute and total counters of the statements and
// transactions executed against a database.
package stats

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Stat holds counters for one minute or for the whole lifetime.
type Stat struct {
	Minute    string `json:"minute,omitempty"`
	Reads     int64  `json:"reads"`
	Writes    int64  `json:"writes"`
	Failures  int64  `json:"failures"`
	Begins    int64  `json:"begins"`
	Commits   int64  `json:"commits"`
	Rollbacks int64  `json:"rollbacks"`
}

// Snapshot is a point in time copy of a DBStats.
type Snapshot struct {
	StartedAt          time.Time `json:"startedAt"`
	QueuedTransactions int64     `json:"queuedTransactions"`
	Totals             Stat      `json:"totals"`
	// Stats is sorted newest minute first.
	Stats []Stat `json:"stats"`
}

// DBStats manages per-minute and total stats, plus queued transactions.
// A background cleanup removes stats older than 24h at a fixed interval.
type DBStats struct {
	mu sync.Mutex

	startedAt  time.Time
	stats      map[string]Stat
	totalStats Stat

	queuedTransactions int64

	stopCleanupChan chan bool
	stopOnce        sync.Once
	now             func() time.Time
}

// NewDBStats creates a DBStats instance and starts a background cleanup.
// The cleanup runs every 10s to remove data older than 24 hours.
func NewDBStats() *DBStats {
	db := newDBStats(time.Now)
	go db.runCleanupWorker()
	return db
}

func newDBStats(now func() time.Time) *DBStats {
	return &DBStats{
		startedAt:       now(),
		stats:           make(map[string]Stat),
		stopCleanupChan: make(chan bool),
		now:             now,
	}
}

// Close stops the background cleanup worker. It is safe to call more than
// once.
func (db *DBStats) Close() {
	db.stopOnce.Do(func() {
		close(db.stopCleanupChan)
	})
}

// runCleanupWorker periodically removes stats older than 24 hours.
func (db *DBStats) runCleanupWorker() {
	ticker := time.NewTicker(time.Second * 10)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			db.mu.Lock()
			db.cleanupOldStats()
			db.mu.Unlock()
		case <-db.stopCleanupChan:
			return
		}
	}
}

// getTimeKey returns the current minute in RFC3339 (UTC).
func (db *DBStats) getTimeKey() string {
	return db.now().UTC().Truncate(time.Minute).Format(time.RFC3339)
}

// addToStats updates the stats for the current minute and totals.
func (db *DBStats) addToStats(updateFunc func(*Stat)) {
	db.mu.Lock()
	defer db.mu.Unlock()

	key := db.getTimeKey()
	current := db.stats[key]
	updateFunc(&current)
	db.stats[key] = current

	updateFunc(&db.totalStats)
}

// cleanupOldStats removes entries older than 24 hours.
func (db *DBStats) cleanupOldStats() {
	cutoff := db.now().UTC().Add(-24 * time.Hour)
	for minuteStr := range db.stats {
		parsed, err := time.Parse(time.RFC3339, minuteStr)
		if err != nil {
			continue
		}
		if parsed.Before(cutoff) {
			delete(db.stats, minuteStr)
		}
	}
}

// Snapshot returns a copy of the current counters.
func (db *DBStats) Snapshot() Snapshot {
	db.mu.Lock()
	defer db.mu.Unlock()

	statsArray := make([]Stat, 0, len(db.stats))
	for minuteStr, st := range db.stats {
		st.Minute = minuteStr
		statsArray = append(statsArray, st)
	}

	sort.Slice(statsArray, func(i, j int) bool {
		return statsArray[i].Minute > statsArray[j].Minute
	})

	return Snapshot{
		StartedAt:          db.startedAt,
		QueuedTransactions: db.queuedTransactions,
		Totals:             db.totalStats,
		Stats:              statsArray,
	}
}

// MarshalJSON encodes the current Snapshot.
func (db *DBStats) MarshalJSON() ([]byte, error) {
	return json.Marshal(db.Snapshot())
}

// IncReads increments the count for read statements.
func (db *DBStats) IncReads() {
	db.addToStats(func(s *Stat) { s.Reads++ })
}

// IncWrites increments the count for write statements.
func (db *DBStats) IncWrites() {
	db.addToStats(func(s *Stat) { s.Writes++ })
}

// IncFailures increments the count for failed statements.
func (db *DBStats) IncFailures() {
	db.addToStats(func(s *Stat) { s.Failures++ })
}

// IncBegins increments the count for started transactions.
func (db *DBStats) IncBegins() {
	db.addToStats(func(s *Stat) { s.Begins++ })
}

// IncCommits increments the count for committed transactions.
func (db *DBStats) IncCommits() {
	db.addToStats(func(s *Stat) { s.Commits++ })
}

// IncRollbacks increments the count for rolled back transactions.
func (db *DBStats) IncRollbacks() {
	db.addToStats(func(s *Stat) { s.Rollbacks++ })
}

// IncQueuedTransactions increments the number of queued transactions.
func (db *DBStats) IncQueuedTransactions() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.queuedTransactions++
}

// DecQueuedTransactions decrements the number of queued transactions.
func (db *DBStats) DecQueuedTransactions() {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.queuedTransactions > 0 {
		db.queuedTransactions--
	}
}
