package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStepPipeline() *Pipeline {
	return &Pipeline{
		Name: "test",
		Jobs: []*Job{{
			Name: "main",
			Steps: []*Step{
				{Name: "first", Command: "echo 1"},
				{Name: "second", Command: "echo 2"},
			},
		}},
	}
}

func TestStore_ResetsPipelineShape(t *testing.T) {
	p := twoStepPipeline()
	p.Status = StatusSuccess
	p.Jobs[0].Steps[0].Status = StatusError
	p.Jobs[0].Steps[0].Output = "stale"

	store := NewStore(p)
	snap := store.Snapshot()

	assert.Equal(t, StatusPending, snap.Status)
	assert.Equal(t, StatusPending, snap.Jobs[0].Steps[0].Status)
	assert.Equal(t, "", snap.Jobs[0].Steps[0].Output)
}

func TestStore_SnapshotIsDeepCopy(t *testing.T) {
	store := NewStore(twoStepPipeline())

	snap := store.Snapshot()
	snap.Jobs[0].Steps[0].Status = StatusError
	snap.Jobs[0].Steps[0].Output = "mutated"

	fresh := store.Snapshot()
	assert.Equal(t, StatusPending, fresh.Jobs[0].Steps[0].Status)
	assert.Equal(t, "", fresh.Jobs[0].Steps[0].Output)
}

func TestStore_StepTransitionsForwardOnly(t *testing.T) {
	store := NewStore(twoStepPipeline())

	require.NoError(t, store.SetStepStatus(0, 0, StatusInProgress))
	require.NoError(t, store.SetStepStatus(0, 0, StatusSuccess))

	// Terminal states are final.
	assert.Error(t, store.SetStepStatus(0, 0, StatusInProgress))
	assert.Error(t, store.SetStepStatus(0, 0, StatusError))

	// pending cannot jump straight to success.
	assert.Error(t, store.SetStepStatus(0, 1, StatusSuccess))
}

func TestStore_CancelledPipelineForcesStepCancelled(t *testing.T) {
	store := NewStore(twoStepPipeline())
	store.SetPipelineStatus(StatusCancelled)

	require.NoError(t, store.SetStepStatus(0, 0, StatusInProgress))
	snap := store.Snapshot()
	assert.Equal(t, StatusCancelled, snap.Jobs[0].Steps[0].Status)
}

func TestStore_AppendStepOutput(t *testing.T) {
	store := NewStore(twoStepPipeline())

	store.AppendStepOutput(0, 0, "line one\n")
	store.AppendStepOutput(0, 0, "line two\n")
	store.AppendStepOutput(0, 0, "")

	snap := store.Snapshot()
	assert.Equal(t, "line one\nline two\n", snap.Jobs[0].Steps[0].Output)
	assert.Equal(t, "", snap.Jobs[0].Steps[1].Output)
}

func TestStore_IndexOutOfRange(t *testing.T) {
	store := NewStore(twoStepPipeline())

	assert.Error(t, store.SetStepStatus(5, 0, StatusInProgress))
	assert.Error(t, store.SetStepStatus(0, 9, StatusInProgress))
}

func TestStore_SubscribeReceivesEvents(t *testing.T) {
	store := NewStore(twoStepPipeline())
	events, cancel := store.Subscribe()
	defer cancel()

	store.SetPipelineStatus(StatusInProgress)
	require.NoError(t, store.SetStepStatus(0, 0, StatusInProgress))
	store.AppendStepOutput(0, 0, "hello\n")

	ev := <-events
	assert.Equal(t, EventPipelineStatus, ev.Kind)
	assert.Equal(t, StatusInProgress, ev.Status)

	ev = <-events
	assert.Equal(t, EventStepStatus, ev.Kind)
	assert.Equal(t, 0, ev.Job)
	assert.Equal(t, 0, ev.Step)

	ev = <-events
	assert.Equal(t, EventStepOutput, ev.Kind)
	assert.Equal(t, "hello\n", ev.Chunk)
}

func TestStore_CancelStopsDelivery(t *testing.T) {
	store := NewStore(twoStepPipeline())
	events, cancel := store.Subscribe()
	cancel()

	_, open := <-events
	assert.False(t, open)
}

func TestStore_CloseClosesSubscribers(t *testing.T) {
	store := NewStore(twoStepPipeline())
	events, cancel := store.Subscribe()
	defer cancel()

	store.Close()
	_, open := <-events
	assert.False(t, open)

	// Close is idempotent and late subscribers get a closed channel.
	store.Close()
	late, _ := store.Subscribe()
	_, open = <-late
	assert.False(t, open)
}
