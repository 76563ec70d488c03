package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/laneboard/internal/domain"
	"github.com/phrazzld/laneboard/internal/store"
	"github.com/phrazzld/laneboard/internal/writequeue"
)

// passthroughTx replaces store.RunInTransaction in tests: the fake stores
// ignore the transaction handle, so fn runs against them directly.
func passthroughTx(ctx context.Context, _ *sql.DB, fn store.TxFn) error {
	return fn(ctx, nil)
}

// syncQueue runs every job inline, so test assertions see the final state
// immediately after the service call returns.
type syncQueue struct{}

func (syncQueue) Enqueue(job writequeue.Job) {
	_ = job.Run(context.Background())
}

// recordingBroker captures broadcasts for assertion.
type recordingBroker struct {
	mu     sync.Mutex
	events []recordedEvent
}

type recordedEvent struct {
	name string
	data any
}

func (b *recordingBroker) Broadcast(name string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{name: name, data: data})
}

func (b *recordingBroker) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, ev := range b.events {
		out[i] = ev.name
	}
	return out
}

// fakeTaskStore is an in-memory TaskStore.
type fakeTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newFakeTaskStore() *fakeTaskStore {
	return &fakeTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (f *fakeTaskStore) Create(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	cp := *task
	f.tasks[task.ID] = &cp
	return nil
}

func (f *fakeTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	cp := *task
	return &cp, nil
}

func (f *fakeTaskStore) ListBySwimLane(_ context.Context, laneID uuid.UUID) ([]*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Task
	for _, task := range f.tasks {
		if task.SwimLaneID == laneID {
			cp := *task
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (f *fakeTaskStore) Update(_ context.Context, task *domain.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	cp := *task
	f.tasks[task.ID] = &cp
	return nil
}

func (f *fakeTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(f.tasks, id)
	return nil
}

func (f *fakeTaskStore) UpdatePlacement(
	_ context.Context,
	id uuid.UUID,
	status domain.TaskStatus,
	laneID uuid.UUID,
	position int,
) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	task.Status = status
	task.SwimLaneID = laneID
	task.Position = position
	return nil
}

func (f *fakeTaskStore) ShiftPositions(
	_ context.Context,
	laneID uuid.UUID,
	status domain.TaskStatus,
	from int,
	excludeID uuid.UUID,
) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	shifted := 0
	for _, task := range f.tasks {
		if task.SwimLaneID == laneID && task.Status == status && task.Position >= from && task.ID != excludeID {
			task.Position++
			shifted++
		}
	}
	return shifted, nil
}

func (f *fakeTaskStore) NextPosition(_ context.Context, laneID uuid.UUID, status domain.TaskStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := 0
	for _, task := range f.tasks {
		if task.SwimLaneID == laneID && task.Status == status && task.Position >= next {
			next = task.Position + 1
		}
	}
	return next, nil
}

func (f *fakeTaskStore) WithTx(*sql.Tx) store.TaskStore { return f }

// fakeLaneStore is an in-memory SwimLaneStore.
type fakeLaneStore struct {
	mu    sync.Mutex
	lanes map[uuid.UUID]*domain.SwimLane
}

func newFakeLaneStore() *fakeLaneStore {
	return &fakeLaneStore{lanes: make(map[uuid.UUID]*domain.SwimLane)}
}

func (f *fakeLaneStore) Create(_ context.Context, lane *domain.SwimLane) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.lanes[lane.ID]; exists {
		return store.ErrDuplicate
	}
	cp := *lane
	f.lanes[lane.ID] = &cp
	return nil
}

func (f *fakeLaneStore) GetByID(_ context.Context, id uuid.UUID) (*domain.SwimLane, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lane, ok := f.lanes[id]
	if !ok {
		return nil, store.ErrLaneNotFound
	}
	cp := *lane
	return &cp, nil
}

func (f *fakeLaneStore) ListByOwner(
	_ context.Context,
	ownerID uuid.UUID,
	filter store.LaneFilter,
) ([]*domain.SwimLane, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.SwimLane
	for _, lane := range f.lanes {
		if lane.OwnerID != ownerID || lane.IsDeleted {
			continue
		}
		if filter == store.LaneFilterActive && lane.IsCompleted {
			continue
		}
		if filter == store.LaneFilterCompleted && !lane.IsCompleted {
			continue
		}
		cp := *lane
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeLaneStore) Update(_ context.Context, lane *domain.SwimLane) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lanes[lane.ID]; !ok {
		return store.ErrLaneNotFound
	}
	cp := *lane
	f.lanes[lane.ID] = &cp
	return nil
}

func (f *fakeLaneStore) UpdatePositions(_ context.Context, ownerID uuid.UUID, orderedIDs []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, id := range orderedIDs {
		lane, ok := f.lanes[id]
		if !ok || lane.OwnerID != ownerID {
			continue
		}
		lane.Position = i
	}
	return nil
}

func (f *fakeLaneStore) NextPosition(_ context.Context, ownerID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := 0
	for _, lane := range f.lanes {
		if lane.OwnerID == ownerID && !lane.IsDeleted && lane.Position >= next {
			next = lane.Position + 1
		}
	}
	return next, nil
}

func (f *fakeLaneStore) WithTx(*sql.Tx) store.SwimLaneStore { return f }

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]*domain.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]*domain.User),
	}
}

func (f *fakeUserStore) Create(_ context.Context, user *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.byEmail[user.Email]; exists {
		return store.ErrEmailExists
	}
	user.HashedPassword = "hashed:" + user.Password
	user.Password = ""
	cp := *user
	f.byID[user.ID] = &cp
	f.byEmail[user.Email] = &cp
	return nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.byEmail[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// fakeVerifier matches the fakeUserStore's "hashed:" scheme.
type fakeVerifier struct{}

func (fakeVerifier) Compare(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return ErrInvalidCredentials
	}
	return nil
}
