package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/core/internal/domain/entities"
	"github.com/taskdeck/core/internal/ports"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

// fakeTaskRepo keeps the feed ordered so sweep tests are deterministic.
type fakeTaskRepo struct {
	mu         sync.Mutex
	feed       []*entities.Task
	successors map[uuid.UUID]*entities.Task
	listErr    error
}

func newFakeTaskRepo(tasks ...*entities.Task) *fakeTaskRepo {
	return &fakeTaskRepo{
		feed:       tasks,
		successors: make(map[uuid.UUID]*entities.Task),
	}
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.feed {
		if t.ID == id {
			return t, nil
		}
	}
	for _, t := range r.successors {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, entities.ErrTaskNotFound
}

func (r *fakeTaskRepo) ListNotifiable(_ context.Context, filter ports.NotifiableTaskFilter) ([]*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*entities.Task
	for _, t := range r.feed {
		if t.DueDate == nil || t.IsCompleted() {
			continue
		}
		out = append(out, t)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTaskRepo) MarkCompleted(_ context.Context, id uuid.UUID, completedAt time.Time, column string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.feed {
		if t.ID == id {
			done := completedAt
			t.CompletedAt = &done
			t.Column = column
			return nil
		}
	}
	return entities.ErrTaskNotFound
}

func (r *fakeTaskRepo) CreateSuccessor(_ context.Context, task *entities.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if task.SpawnedFromCompletionID != nil {
		if _, exists := r.successors[*task.SpawnedFromCompletionID]; exists {
			return entities.ErrSuccessorExists
		}
		r.successors[*task.SpawnedFromCompletionID] = task
	}
	return nil
}

func (r *fakeTaskRepo) GetSuccessorByCompletion(_ context.Context, completionID uuid.UUID) (*entities.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.successors[completionID]; ok {
		return t, nil
	}
	return nil, entities.ErrTaskNotFound
}

type fakePrefRepo struct {
	mu    sync.Mutex
	prefs map[uuid.UUID]*entities.NotificationPreference
	err   error
}

func newFakePrefRepo(prefs ...*entities.NotificationPreference) *fakePrefRepo {
	r := &fakePrefRepo{prefs: make(map[uuid.UUID]*entities.NotificationPreference)}
	for _, p := range prefs {
		r.prefs[p.UserID] = p
	}
	return r
}

func (r *fakePrefRepo) GetByUser(_ context.Context, userID uuid.UUID) (*entities.NotificationPreference, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if p, ok := r.prefs[userID]; ok {
		return p, nil
	}
	return nil, entities.ErrPreferenceNotFound
}

func (r *fakePrefRepo) Upsert(_ context.Context, pref *entities.NotificationPreference) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs[pref.UserID] = pref
	return nil
}

// fakeNotifRepo enforces the same dedup uniqueness the real store does. Keys
// can be seeded without a visible row to simulate a racing writer.
type fakeNotifRepo struct {
	mu          sync.Mutex
	byTask      map[uuid.UUID][]*entities.Notification
	keys        map[string]bool
	listErrFor  map[uuid.UUID]error
	createErrOn int // fail the nth Create call (1-based), 0 disables
	createCalls int
	createErr   error
}

func newFakeNotifRepo() *fakeNotifRepo {
	return &fakeNotifRepo{
		byTask:     make(map[uuid.UUID][]*entities.Notification),
		keys:       make(map[string]bool),
		listErrFor: make(map[uuid.UUID]error),
	}
}

func dedupKey(taskID uuid.UUID, n *entities.Notification) string {
	return taskID.String() + "|" + n.DedupKey()
}

// seedKey marks a dedup key as taken without exposing a row through
// ListByTask, the way a concurrent sweep's insert would.
func (r *fakeNotifRepo) seedKey(taskID uuid.UUID, n *entities.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys[dedupKey(taskID, n)] = true
}

func (r *fakeNotifRepo) Create(_ context.Context, n *entities.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	if r.createErrOn > 0 && r.createCalls == r.createErrOn {
		return r.createErr
	}
	key := dedupKey(n.TaskID, n)
	if r.keys[key] {
		return entities.ErrDuplicateNotification
	}
	r.keys[key] = true
	r.byTask[n.TaskID] = append(r.byTask[n.TaskID], n)
	return nil
}

func (r *fakeNotifRepo) ListByTask(_ context.Context, taskID uuid.UUID) ([]*entities.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.listErrFor[taskID]; err != nil {
		return nil, err
	}
	return append([]*entities.Notification(nil), r.byTask[taskID]...), nil
}

func (r *fakeNotifRepo) all() []*entities.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entities.Notification
	for _, ns := range r.byTask {
		out = append(out, ns...)
	}
	return out
}

type fakePublisher struct {
	mu            sync.Mutex
	notifications int
	spawned       int
	err           error
}

func (p *fakePublisher) NotificationCreated(context.Context, *entities.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications++
	return p.err
}

func (p *fakePublisher) TaskSpawned(context.Context, *entities.Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.spawned++
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type fakeProjectRepo struct {
	projects map[uuid.UUID]*entities.Project
}

func newFakeProjectRepo(projects ...*entities.Project) *fakeProjectRepo {
	r := &fakeProjectRepo{projects: make(map[uuid.UUID]*entities.Project)}
	for _, p := range projects {
		r.projects[p.ID] = p
	}
	return r
}

func (r *fakeProjectRepo) GetByID(_ context.Context, id uuid.UUID) (*entities.Project, error) {
	if p, ok := r.projects[id]; ok {
		return p, nil
	}
	return nil, entities.ErrProjectNotFound
}
