package onboarding

import (
	"slices"
	"sync"
	"time"

	"intro-bot/models"
)

// DefaultCompletionTTL is how long in-progress form state is kept.
const DefaultCompletionTTL = 24 * time.Hour

// CompletionTracker remembers which forms each user has submitted.
type CompletionTracker struct {
	mutex   sync.Mutex
	records map[string]*models.CompletionRecord
	ttl     time.Duration
	now     func() time.Time
}

// NewCompletionTracker creates a tracker whose entries expire after ttl.
func NewCompletionTracker(ttl time.Duration) *CompletionTracker {
	if ttl <= 0 {
		ttl = DefaultCompletionTTL
	}
	return &CompletionTracker{
		records: make(map[string]*models.CompletionRecord),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Record adds form to the user's completions and refreshes the timestamp.
func (ct *CompletionTracker) Record(userID string, form models.FormType) {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	rec, ok := ct.records[userID]
	if !ok {
		rec = &models.CompletionRecord{Completions: make(map[models.FormType]struct{})}
		ct.records[userID] = rec
	}
	rec.Completions[form] = struct{}{}
	rec.Timestamp = ct.now()
}

// IsFullyComplete reports whether the user submitted an intro and at least
// one of the project forms.
func (ct *CompletionTracker) IsFullyComplete(userID string) bool {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	rec, ok := ct.records[userID]
	if !ok {
		return false
	}
	_, intro := rec.Completions[models.FormIntro]
	_, working := rec.Completions[models.FormWorking]
	_, showcase := rec.Completions[models.FormShowcase]
	return intro && (working || showcase)
}

// Completions returns the forms the user has submitted, in offer order.
func (ct *CompletionTracker) Completions(userID string) []models.FormType {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	rec, ok := ct.records[userID]
	if !ok {
		return nil
	}
	var out []models.FormType
	for _, f := range models.FormTypes {
		if _, done := rec.Completions[f]; done {
			out = append(out, f)
		}
	}
	return slices.Clip(out)
}

// Clear forgets the user.
func (ct *CompletionTracker) Clear(userID string) {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()
	delete(ct.records, userID)
}

// Sweep drops every record older than the TTL, complete or not, and returns
// how many were removed.
func (ct *CompletionTracker) Sweep() int {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	now := ct.now()
	removed := 0
	for userID, rec := range ct.records {
		if now.Sub(rec.Timestamp) > ct.ttl {
			delete(ct.records, userID)
			removed++
		}
	}
	return removed
}
