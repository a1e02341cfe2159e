package uploads_test

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unitab-io/unitab/uploads"
)

func payload(sourceID int64, data string) uploads.Payload {
	return uploads.Payload{
		SourceID:   sourceID,
		Filename:   "file.csv",
		Data:       []byte(data),
		ReceivedAt: time.Now(),
	}
}

func TestRegistryBindGet(t *testing.T) {
	t.Parallel()

	r := uploads.NewRegistry()
	session := uuid.New()

	_, ok := r.Get(session, 1)
	assert.False(t, ok)

	r.Bind(session, payload(1, "pid\n7\n"))

	got, ok := r.Get(session, 1)
	require.True(t, ok)
	assert.Equal(t, "pid\n7\n", string(got.Data))
}

func TestRegistryBindReplaces(t *testing.T) {
	t.Parallel()

	r := uploads.NewRegistry()
	session := uuid.New()

	r.Bind(session, payload(1, "old"))
	r.Bind(session, payload(1, "new"))

	got, ok := r.Get(session, 1)
	require.True(t, ok)
	assert.Equal(t, "new", string(got.Data))
	assert.Equal(t, []int64{1}, r.Sources(session))
}

func TestRegistrySessionsAreIsolated(t *testing.T) {
	t.Parallel()

	r := uploads.NewRegistry()
	alice, bob := uuid.New(), uuid.New()

	r.Bind(alice, payload(1, "alice"))
	r.Bind(bob, payload(1, "bob"))

	got, ok := r.Get(alice, 1)
	require.True(t, ok)
	assert.Equal(t, "alice", string(got.Data))

	got, ok = r.Get(bob, 1)
	require.True(t, ok)
	assert.Equal(t, "bob", string(got.Data))

	r.Clear(alice)

	_, ok = r.Get(alice, 1)
	assert.False(t, ok)
	_, ok = r.Get(bob, 1)
	assert.True(t, ok, "clearing one session leaves others alone")
}

func TestRegistrySourcesSorted(t *testing.T) {
	t.Parallel()

	r := uploads.NewRegistry()
	session := uuid.New()

	for _, id := range []int64{9, 3, 7} {
		r.Bind(session, payload(id, "x"))
	}

	assert.Equal(t, []int64{3, 7, 9}, r.Sources(session))
	assert.Empty(t, r.Sources(uuid.New()))
}

func TestRegistrySessionView(t *testing.T) {
	t.Parallel()

	r := uploads.NewRegistry()
	session := uuid.New()
	r.Bind(session, payload(4, "pid\n1\n"))

	view := r.Session(session)

	got, ok := view.Payload(4)
	require.True(t, ok)
	assert.Equal(t, int64(4), got.SourceID)

	_, ok = view.Payload(5)
	assert.False(t, ok)

	// The view is live: later bindings show through.
	r.Bind(session, payload(5, "x"))
	_, ok = view.Payload(5)
	assert.True(t, ok)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := uploads.NewRegistry()
	sessions := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	var wg sync.WaitGroup

	for _, session := range sessions {
		for id := int64(1); id <= 10; id++ {
			wg.Add(1)

			go func() {
				defer wg.Done()
				r.Bind(session, payload(id, "x"))
				r.Get(session, id)
				r.Sources(session)
			}()
		}
	}

	wg.Wait()

	for _, session := range sessions {
		assert.Len(t, r.Sources(session), 10)
	}
}
