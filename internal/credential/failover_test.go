package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSleeper struct {
	waits []time.Duration
	err   error
}

func (r *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return r.err
}

func TestNewRequiresPrimary(t *testing.T) {
	_, err := New(Pair{Secondary: "b"})
	require.Error(t, err)
}

func TestFailoverCyclesBetweenKeys(t *testing.T) {
	sleeper := &recordingSleeper{}
	f, err := New(Pair{Primary: "a", Secondary: "b"}, WithSleeper(sleeper.sleep))
	require.NoError(t, err)

	assert.Equal(t, "a", f.Key())
	assert.Equal(t, UsingPrimary, f.State())

	sw, err := f.HandleQuota(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, Switch{From: 1, To: 2}, sw)
	assert.Equal(t, "b", f.Key())
	assert.Equal(t, UsingSecondary, f.State())

	f.MarkSuccess()

	sw, err = f.HandleQuota(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, Switch{From: 2, To: 1}, sw)
	assert.Equal(t, "a", f.Key())
	assert.Equal(t, 1, f.Slot())
	assert.Empty(t, sleeper.waits)
}

func TestFailoverCoolsDownWhenBothKeysFail(t *testing.T) {
	sleeper := &recordingSleeper{}
	f, err := New(Pair{Primary: "a", Secondary: "b"}, WithSleeper(sleeper.sleep), WithCooldown(time.Second))
	require.NoError(t, err)

	_, err = f.HandleQuota(context.Background(), 0, nil)
	require.NoError(t, err)
	sw, err := f.HandleQuota(context.Background(), 0, nil)
	require.NoError(t, err)

	assert.Equal(t, Switch{From: 2, To: 1, Waited: time.Second}, sw)
	assert.Equal(t, []time.Duration{time.Second}, sleeper.waits)
	assert.Equal(t, UsingPrimary, f.State())

	// failure tracking starts over after the cooldown
	sw, err = f.HandleQuota(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Zero(t, sw.Waited)
	assert.Equal(t, 2, f.Slot())
}

func TestFailoverWithoutSecondaryWaitsCooldown(t *testing.T) {
	sleeper := &recordingSleeper{}
	f, err := New(Pair{Primary: "a"}, WithSleeper(sleeper.sleep))
	require.NoError(t, err)

	sw, err := f.HandleQuota(context.Background(), 0, nil)
	require.NoError(t, err)
	assert.Equal(t, Switch{From: 1, To: 1, Waited: DefaultCooldown}, sw)
	assert.Equal(t, "a", f.Key())
	assert.Equal(t, UsingPrimary, f.State())

	_, err = f.HandleQuota(context.Background(), 90*time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{DefaultCooldown, 90 * time.Second}, sleeper.waits)
}

func TestFailoverCooldownInterrupted(t *testing.T) {
	sleeper := &recordingSleeper{err: context.Canceled}
	f, err := New(Pair{Primary: "a"}, WithSleeper(sleeper.sleep))
	require.NoError(t, err)

	_, err = f.HandleQuota(context.Background(), 0, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, UsingPrimary, f.State())
}

func TestFailoverNotifiesBeforeCooldown(t *testing.T) {
	var events []string
	f, err := New(Pair{Primary: "a"}, WithSleeper(func(context.Context, time.Duration) error {
		events = append(events, "sleep")
		return nil
	}))
	require.NoError(t, err)

	sw, err := f.HandleQuota(context.Background(), 0, func(planned Switch) {
		events = append(events, planned.Pending())
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"waiting 1m0s before retrying key 1", "sleep"}, events)
	assert.Equal(t, DefaultCooldown, sw.Waited)
}

func TestFailoverNotifiesImmediateSwitch(t *testing.T) {
	sleeper := &recordingSleeper{}
	f, err := New(Pair{Primary: "a", Secondary: "b"}, WithSleeper(sleeper.sleep))
	require.NoError(t, err)

	var notified []Switch
	_, err = f.HandleQuota(context.Background(), 0, func(planned Switch) { notified = append(notified, planned) })
	require.NoError(t, err)
	assert.Equal(t, []Switch{{From: 1, To: 2}}, notified)
	assert.Empty(t, sleeper.waits)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), 0))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Exhausted", Exhausted.String())
	assert.Equal(t, "switched from key 1 to key 2", Switch{From: 1, To: 2}.String())
	assert.Equal(t, "switching from key 1 to key 2", Switch{From: 1, To: 2}.Pending())
	assert.Equal(t, "waiting 1s before switching from key 2 to key 1", Switch{From: 2, To: 1, Waited: time.Second}.Pending())
}
