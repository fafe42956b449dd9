package invoicing

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"invoicing-backend/models"
)

// Draft is a form held between requests. Do serializes every access to it.
type Draft struct {
	ID string

	mu       sync.Mutex
	form     *Form
	lastUsed time.Time
}

// Do runs fn with exclusive access to the form.
func (d *Draft) Do(fn func(f *Form) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastUsed = time.Now()
	return fn(d.form)
}

// Registry keeps open drafts in memory. Drafts idle longer than maxIdle are
// dropped the next time one is opened.
type Registry struct {
	mu      sync.RWMutex
	drafts  map[string]*Draft
	maxIdle time.Duration
}

func NewRegistry(maxIdle time.Duration) *Registry {
	return &Registry{
		drafts:  make(map[string]*Draft),
		maxIdle: maxIdle,
	}
}

func (r *Registry) Open(f *Form) *Draft {
	d := &Draft{ID: uuid.NewString(), form: f, lastUsed: time.Now()}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(d.lastUsed)
	r.drafts[d.ID] = d
	return d
}

func (r *Registry) evictLocked(now time.Time) {
	if r.maxIdle <= 0 {
		return
	}
	for id, d := range r.drafts {
		if d.mu.TryLock() {
			idle := now.Sub(d.lastUsed)
			d.mu.Unlock()
			if idle > r.maxIdle {
				delete(r.drafts, id)
			}
		}
	}
}

func (r *Registry) Get(id string) (*Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.drafts[id]; ok {
		return d, nil
	}
	return nil, models.NewNotFound("draft", id)
}

func (r *Registry) Discard(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.drafts[id]; !ok {
		return models.NewNotFound("draft", id)
	}
	delete(r.drafts, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drafts)
}
