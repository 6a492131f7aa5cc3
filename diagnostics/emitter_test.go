package diagnostics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bucketrun/bucketrun/common/logger"
	"github.com/bucketrun/bucketrun/engine"
)

func TestEmitterFansOutToSubscribers(t *testing.T) {
	registry, err := logger.NewLogRegistry("")
	require.NoError(t, err)
	emitter := NewEmitter(logger.MakeLogrusLogFactoryStdOut(registry))

	var got []engine.Event
	unsubscribe := emitter.Subscribe(SubscriberFunc(func(e engine.Event) {
		got = append(got, e)
	}))

	emitter.Emit(engine.Event{Kind: "step_failed", StepID: 3, Detail: "boom"})
	require.Len(t, got, 1)
	require.Equal(t, engine.StepID(3), got[0].StepID)

	unsubscribe()
	emitter.Emit(engine.Event{Kind: "step_failed", StepID: 4})
	require.Len(t, got, 1)
}
