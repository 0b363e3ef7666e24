package digest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixedCounter struct {
	n   int
	err error
}

func (c fixedCounter) Count(context.Context) (int, error) { return c.n, c.err }

type recorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *recorder) Send(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.texts...)
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New("", nil, fixedCounter{}, &recorder{})
	require.Error(t, err)

	_, err = New("0 9 * * *", nil, fixedCounter{}, &recorder{})
	require.Error(t, err, "five-field spec must fail with seconds enabled")
}

func TestTickSendsCount(t *testing.T) {
	rec := &recorder{}
	d, err := New("0 0 9 * * *", time.UTC, fixedCounter{n: 7}, rec)
	require.NoError(t, err)

	d.Tick(context.Background())
	assert.Equal(t, []string{"📊 Лидов в базе: 7"}, rec.all())
}

func TestTickSkipsSendOnCountError(t *testing.T) {
	rec := &recorder{}
	d, err := New("0 0 9 * * *", time.UTC, fixedCounter{err: errors.New("db down")}, rec)
	require.NoError(t, err)

	d.Tick(context.Background())
	assert.Empty(t, rec.all())
}

func TestRunFiresAndStops(t *testing.T) {
	rec := &recorder{}
	d, err := New("* * * * * *", time.UTC, fixedCounter{n: 1}, rec)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return len(rec.all()) > 0 }, 3*time.Second, 20*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}
