package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/safealloc/model/process"
	"github.com/viant/safealloc/model/resource"
	"github.com/viant/safealloc/policy"
	"github.com/viant/safealloc/service/catalog"
	"github.com/viant/safealloc/service/dao"
	"github.com/viant/safealloc/service/event"
	"github.com/viant/safealloc/service/messaging/memory"
	"github.com/viant/safealloc/service/pool"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var cpuOnly = resource.NewSet(resource.CPU)

type fixture struct {
	pool      *pool.Service
	scheduler *Service
	queue     *memory.Queue[event.Event[event.Lifecycle]]
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T, variant Variant, options ...Option) *fixture {
	poolConfig := pool.DefaultConfig()
	config := Config{}
	variant.Apply(&poolConfig, &config)
	resources, err := pool.New(poolConfig)
	require.NoError(t, err)

	core, logs := observer.New(zap.InfoLevel)
	queue := memory.NewQueue[event.Event[event.Lifecycle]](memory.DefaultConfig())
	options = append([]Option{
		WithConfig(config),
		WithLogger(zap.New(core)),
		WithPublisher(event.NewPublisher[event.Lifecycle](queue)),
		WithMemoryEstimator(func(int) int { return 64 }),
	}, options...)
	srv, err := New(resources, options...)
	require.NoError(t, err)
	return &fixture{pool: resources, scheduler: srv, queue: queue, logs: logs}
}

func (f *fixture) events() []event.Type {
	var ret []event.Type
	for msg := f.queue.TryConsume(); msg != nil; msg = f.queue.TryConsume() {
		ret = append(ret, msg.T().Context.EventType)
	}
	return ret
}

func ids(records []*process.Record) []int {
	ret := []int{}
	for _, r := range records {
		ret = append(ret, r.ID)
	}
	return ret
}

func TestService_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, VariantA)

	admitted, err := f.scheduler.Admit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, admitted.ID)
	assert.Equal(t, "Text editor", admitted.Name)
	assert.Equal(t, 64, admitted.MemoryUsage)
	assert.Equal(t, process.StateNew, admitted.State)
	assert.Equal(t, resource.Vector{100, 100, 100}, f.pool.Available(), "admission does not allocate")

	running, err := f.scheduler.Dispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, running.ID)
	assert.Equal(t, process.StateRunning, running.State)
	assert.Equal(t, 1, f.scheduler.Running().ID)
	assert.Equal(t, resource.Vector{70, 70, 100}, f.pool.Available())

	closed, err := f.scheduler.Close(ctx)
	require.NoError(t, err)
	assert.Equal(t, process.StateTerminated, closed.State)
	assert.Nil(t, f.scheduler.Running())
	assert.Equal(t, resource.Vector{100, 100, 100}, f.pool.Available())

	_, err = f.scheduler.Lookup(ctx, 1)
	assert.ErrorIs(t, err, dao.ErrNotFound, "terminated records are discarded")

	assert.Equal(t, []event.Type{event.TypeAdmitted, event.TypeDispatched, event.TypeTerminated}, f.events())
	stats := f.scheduler.Stats()
	assert.Equal(t, 1, stats.Admitted)
	assert.Equal(t, 1, stats.Dispatched)
	assert.Equal(t, 1, stats.Terminated)
	assert.Equal(t, 0, stats.Running)
	assert.Equal(t, 0, stats.Pending)

	changes := f.logs.FilterMessage("process state change").All()
	require.Len(t, changes, 2)
	assert.Equal(t, "new", changes[0].ContextMap()["from"])
	assert.Equal(t, "running", changes[0].ContextMap()["to"])
	assert.Equal(t, "terminated", changes[1].ContextMap()["to"])
}

func TestService_Admit(t *testing.T) {
	testCases := []struct {
		name      string
		variant   Variant
		entries   []catalog.Entry
		catalogID int
		expectErr error
	}{
		{name: "unknown id", variant: VariantA, catalogID: 42, expectErr: catalog.ErrUnknownProcess},
		{name: "zero id", variant: VariantA, catalogID: 0, expectErr: catalog.ErrUnknownProcess},
		{
			name:      "ceiling rejected in B",
			variant:   VariantB,
			entries:   []catalog.Entry{{ID: 1, Name: "Render", Resources: cpuOnly, CPUUsage: 90}},
			catalogID: 1,
			expectErr: pool.ErrCeilingExceeded,
		},
		{
			name:      "ceiling ignored in A",
			variant:   VariantA,
			entries:   []catalog.Entry{{ID: 1, Name: "Render", Resources: cpuOnly, CPUUsage: 90}},
			catalogID: 1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var options []Option
			if tc.entries != nil {
				c, err := catalog.New(tc.entries...)
				require.NoError(t, err)
				options = append(options, WithCatalog(c))
			}
			f := newFixture(t, tc.variant, options...)
			record, err := f.scheduler.Admit(context.Background(), tc.catalogID)
			if tc.expectErr != nil {
				assert.ErrorIs(t, err, tc.expectErr)
				assert.Nil(t, record)
				assert.Empty(t, f.scheduler.Queue(process.StateNew))
				assert.Equal(t, 1, f.scheduler.Stats().Rejected)
				assert.Equal(t, []event.Type{event.TypeRejected}, f.events())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []int{record.ID}, ids(f.scheduler.Queue(process.StateNew)))
		})
	}
}

func TestService_Admit_ExhaustedPool(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, VariantA)
	for i := 0; i < 3; i++ {
		require.NoError(t, f.pool.TryAllocate(cpuOnly, 30))
	}
	_, err := f.scheduler.Admit(ctx, 2)
	assert.ErrorIs(t, err, pool.ErrResourceExhausted)
	assert.Equal(t, resource.Vector{10, 100, 100}, f.pool.Available())
}

func TestService_Dispatch_AlreadyRunning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, VariantA)
	_, err := f.scheduler.Admit(ctx, 1)
	require.NoError(t, err)
	_, err = f.scheduler.Admit(ctx, 2)
	require.NoError(t, err)
	_, err = f.scheduler.Dispatch(ctx)
	require.NoError(t, err)

	before := f.pool.Available()
	record, err := f.scheduler.Dispatch(ctx)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Nil(t, record)
	assert.Equal(t, before, f.pool.Available())
	assert.Equal(t, []int{2}, ids(f.scheduler.Queue(process.StateNew)))
	assert.Equal(t, 1, f.scheduler.Running().ID)
}

func TestService_Dispatch_Empty(t *testing.T) {
	f := newFixture(t, VariantA)
	_, err := f.scheduler.Dispatch(context.Background())
	assert.ErrorIs(t, err, ErrNoPendingProcess)
}

func TestService_Close_NoRunning(t *testing.T) {
	f := newFixture(t, VariantA)
	record, err := f.scheduler.Close(context.Background())
	assert.ErrorIs(t, err, ErrNoRunningProcess)
	assert.Nil(t, record)
	assert.Equal(t, resource.Vector{100, 100, 100}, f.pool.Available())
}

func TestService_Close_TerminatedIsFinal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, VariantA)
	_, err := f.scheduler.Admit(ctx, 3)
	require.NoError(t, err)
	_, err = f.scheduler.Dispatch(ctx)
	require.NoError(t, err)
	closed, err := f.scheduler.Close(ctx)
	require.NoError(t, err)

	_, err = closed.Transition(process.StateReady)
	assert.ErrorIs(t, err, process.ErrInvalidTransition)
	_, err = f.scheduler.Close(ctx)
	assert.ErrorIs(t, err, ErrNoRunningProcess)
}

func TestService_Dispatch_Exhausted(t *testing.T) {
	testCases := []struct {
		name          string
		variant       Variant
		expectNew     []int
		expectBlocked []int
		expectState   process.State
		expectEvent   event.Type
	}{
		{name: "variant A keeps record queued", variant: VariantA, expectNew: []int{1}, expectBlocked: []int{}, expectState: process.StateNew, expectEvent: event.TypeDispatchFailed},
		{name: "variant B blocks record", variant: VariantB, expectNew: []int{}, expectBlocked: []int{1}, expectState: process.StateBlocked, expectEvent: event.TypeBlocked},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t, tc.variant)
			_, err := f.scheduler.Admit(ctx, 1)
			require.NoError(t, err)
			f.events()

			for i := 0; i < 3; i++ {
				require.NoError(t, f.pool.TryAllocate(cpuOnly, 30))
			}
			record, err := f.scheduler.Dispatch(ctx)
			assert.ErrorIs(t, err, pool.ErrResourceExhausted)
			require.NotNil(t, record)
			assert.Equal(t, tc.expectState, record.State)
			assert.Nil(t, f.scheduler.Running())
			assert.Equal(t, tc.expectNew, ids(f.scheduler.Queue(process.StateNew)))
			assert.Equal(t, tc.expectBlocked, ids(f.scheduler.Queue(process.StateBlocked)))
			assert.Equal(t, resource.Vector{10, 100, 100}, f.pool.Available())
			assert.Equal(t, []event.Type{tc.expectEvent}, f.events())

			stored, err := f.scheduler.Lookup(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, tc.expectState, stored.State)
		})
	}
}

func TestService_BlockedRetriedAfterClose(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, VariantB)
	_, err := f.scheduler.Admit(ctx, 1)
	require.NoError(t, err)
	_, err = f.scheduler.Admit(ctx, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, f.pool.TryAllocate(cpuOnly, 30))
	}
	_, err = f.scheduler.Dispatch(ctx)
	assert.ErrorIs(t, err, pool.ErrResourceExhausted)
	assert.Equal(t, []int{1}, ids(f.scheduler.Queue(process.StateBlocked)))
	stats := f.scheduler.Stats()
	assert.Equal(t, 1, stats.Pending, "blocked records are not pending")
	assert.Equal(t, 1, stats.Waiting)

	require.NoError(t, f.pool.Release(cpuOnly))
	running, err := f.scheduler.Dispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, running.ID)

	_, err = f.scheduler.Close(ctx)
	require.NoError(t, err)
	assert.Empty(t, f.scheduler.Queue(process.StateBlocked))
	assert.Equal(t, []int{1}, ids(f.scheduler.Queue(process.StateReady)))

	running, err = f.scheduler.Dispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, running.ID)
	assert.Equal(t, process.StateRunning, running.State)
	assert.Equal(t, resource.Vector{10, 70, 100}, f.pool.Available())

	stats = f.scheduler.Stats()
	assert.Equal(t, 1, stats.Blocked)
	assert.Equal(t, 1, stats.Unblocked)
	assert.Equal(t, 2, stats.Dispatched)
	assert.Equal(t, 0, stats.Pending)
	assert.Equal(t, 0, stats.Waiting)
}

func TestService_ReadyBeforeNew(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, VariantB)
	for id := 1; id <= 3; id++ {
		_, err := f.scheduler.Admit(ctx, id)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, f.pool.TryAllocate(cpuOnly, 30))
	}
	_, err := f.scheduler.Dispatch(ctx)
	require.ErrorIs(t, err, pool.ErrResourceExhausted)
	require.NoError(t, f.pool.Release(cpuOnly))

	running, err := f.scheduler.Dispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, running.ID)
	_, err = f.scheduler.Close(ctx)
	require.NoError(t, err)

	running, err = f.scheduler.Dispatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, running.ID, "unblocked record goes before New")
	assert.Equal(t, []int{3}, ids(f.scheduler.Queue(process.StateNew)))
}

func TestService_Records(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, VariantA)
	for id := 1; id <= 3; id++ {
		_, err := f.scheduler.Admit(ctx, id)
		require.NoError(t, err)
	}
	_, err := f.scheduler.Dispatch(ctx)
	require.NoError(t, err)

	all, err := f.scheduler.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, ids(all))
	waiting, err := f.scheduler.Records(ctx, &dao.Parameter{Name: dao.StateParameter, Value: process.StateNew})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, ids(waiting))
	assert.Equal(t, []int{1}, ids(f.scheduler.Queue(process.StateRunning)))
	assert.Empty(t, f.scheduler.Queue(process.StateTerminated))
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant(" b ")
	require.NoError(t, err)
	assert.Equal(t, VariantB, v)
	_, err = ParseVariant("C")
	assert.Error(t, err)
}

func TestNew_NilPool(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestService_Admit_Policy(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, VariantA, WithPolicy(&policy.Policy{BlockList: []string{"Game"}}))

	_, err := f.scheduler.Admit(ctx, 5)
	assert.ErrorIs(t, err, policy.ErrDenied)
	_, err = f.scheduler.Admit(ctx, 4)
	require.NoError(t, err)

	denyAll := policy.WithPolicy(ctx, &policy.Policy{Mode: policy.ModeDeny})
	_, err = f.scheduler.Admit(denyAll, 1)
	assert.ErrorIs(t, err, policy.ErrDenied)

	assert.Len(t, f.scheduler.Queue(process.StateNew), 1)
	assert.Equal(t, 2, f.scheduler.Stats().Rejected)
	assert.Equal(t, []event.Type{event.TypeRejected, event.TypeAdmitted, event.TypeRejected}, f.events())
}

func TestService_RecordStoreFailures(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	records := newMockRecords(ctrl)
	f := newFixture(t, VariantA, WithRecordDAO(records))

	records.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	_, err := f.scheduler.Admit(ctx, 1)
	assert.Error(t, err)
	assert.Empty(t, f.scheduler.Queue(process.StateNew))

	records.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	records.EXPECT().Delete(gomock.Any(), 2).Return(errors.New("disk full"))
	_, err = f.scheduler.Admit(ctx, 1)
	require.NoError(t, err)
	_, err = f.scheduler.Dispatch(ctx)
	require.NoError(t, err)
	closed, err := f.scheduler.Close(ctx)
	require.NoError(t, err, "a failed delete does not fail close")
	assert.Equal(t, 2, closed.ID)
	assert.Equal(t, 1, f.logs.FilterMessage("failed to delete process record").Len())
}
