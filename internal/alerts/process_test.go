package alerts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	ok        bool
	timestamp string
	message   string
}

func (f *fakeNotifier) SendAlert(_ context.Context, _, timestamp, _, extra string) bool {
	f.timestamp = timestamp
	f.message = extra
	return f.ok
}

func TestProcessMarksTelegramSent(t *testing.T) {
	store := newStore(t)
	r := NewRecorder(store, nil, okUploader(), nil, nil)
	n := &fakeNotifier{ok: true}

	out := r.Process(context.Background(), n, "fox", "/img/fox.jpg", "near the barn")

	assert.True(t, out.Notified)
	assert.Equal(t, out.Timestamp, n.timestamp)
	assert.Equal(t, "near the barn", n.message)

	row, err := store.GetAlert(context.Background(), "/img/fox.jpg")
	require.NoError(t, err)
	assert.True(t, row.TelegramSent)
}

func TestProcessFailedNotificationLeavesFlag(t *testing.T) {
	store := newStore(t)
	r := NewRecorder(store, nil, nil, nil, nil)

	out := r.Process(context.Background(), &fakeNotifier{ok: false}, "fox", "/img/fox.jpg", "")
	assert.False(t, out.Notified)

	row, err := store.GetAlert(context.Background(), "/img/fox.jpg")
	require.NoError(t, err)
	assert.False(t, row.TelegramSent)
}

func TestProcessWithoutNotifier(t *testing.T) {
	repo := &fakeRepo{}
	r := NewRecorder(repo, nil, nil, nil, nil)

	out := r.Process(context.Background(), nil, "fox", "/img/fox.jpg", "")
	assert.False(t, out.Notified)
	assert.Zero(t, repo.updates)
	assert.Len(t, repo.rows, 1)
}

func TestProcessStatusUpdateFailureKeepsNotified(t *testing.T) {
	repo := &fakeRepo{updateErr: assert.AnError}
	r := NewRecorder(repo, nil, nil, nil, nil)

	out := r.Process(context.Background(), &fakeNotifier{ok: true}, "fox", "/img/fox.jpg", "")
	assert.True(t, out.Notified)
	assert.Equal(t, 1, repo.updates)
}
