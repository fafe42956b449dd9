package invoicing

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing-backend/models"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(time.Hour)
	d := r.Open(NewCreateForm("DRAFT-1234", time.Now()))
	assert.NotEmpty(t, d.ID)

	got, err := r.Get(d.ID)
	require.NoError(t, err)
	assert.Same(t, d, got)

	require.NoError(t, r.Discard(d.ID))
	_, err = r.Get(d.ID)
	assert.True(t, models.IsNotFound(err))
	assert.True(t, models.IsNotFound(r.Discard(d.ID)))
}

func TestRegistryEvictsIdleDrafts(t *testing.T) {
	r := NewRegistry(time.Minute)
	stale := r.Open(NewCreateForm("DRAFT-1111", time.Now()))
	stale.lastUsed = time.Now().Add(-2 * time.Minute)

	fresh := r.Open(NewCreateForm("DRAFT-2222", time.Now()))
	assert.Equal(t, 1, r.Len())
	_, err := r.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestDraftSerializesAccess(t *testing.T) {
	r := NewRegistry(0)
	d := r.Open(NewCreateForm("DRAFT-3333", time.Now()))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Do(func(f *Form) error {
				f.AddLine()
				return nil
			})
		}()
	}
	wg.Wait()

	var n int
	require.NoError(t, d.Do(func(f *Form) error {
		n = f.Len()
		return nil
	}))
	assert.Equal(t, 21, n)
}
