package leave_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/core/events"
	"github.com/frahmantamala/leave-management/internal/leave"
)

// memoryRepository keeps balances and requests in maps. WithTx serializes
// callers and restores the previous state when fn fails.
type memoryRepository struct {
	txMu sync.Mutex
	mu   sync.Mutex

	balances map[int64]*leave.Balance
	requests map[int64]*leave.Request
	nextID   int64

	upsertError error
	listError   error
	listCalls   int
	// afterList runs once, after a list has been read and before it is returned.
	afterList func()
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		balances: make(map[int64]*leave.Balance),
		requests: make(map[int64]*leave.Request),
		nextID:   1,
	}
}

func (m *memoryRepository) WithTx(ctx context.Context, fn func(tx leave.Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	balances := make(map[int64]*leave.Balance, len(m.balances))
	for k, v := range m.balances {
		b := *v
		balances[k] = &b
	}
	requests := make(map[int64]*leave.Request, len(m.requests))
	for k, v := range m.requests {
		r := *v
		requests[k] = &r
	}
	nextID := m.nextID
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.balances, m.requests, m.nextID = balances, requests, nextID
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memoryRepository) GetBalanceForUpdate(ctx context.Context, accountID int64) (*leave.Balance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[accountID]
	if !ok {
		return nil, leave.ErrBalanceNotFound
	}
	out := *b
	return &out, nil
}

func (m *memoryRepository) UpsertBalance(ctx context.Context, balance *leave.Balance) error {
	if m.upsertError != nil {
		return m.upsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.balances[balance.AccountID]; ok {
		balance.ID = existing.ID
		balance.Version = existing.Version + 1
	} else {
		balance.ID = balance.AccountID
		balance.Version = 1
	}
	stored := *balance
	m.balances[balance.AccountID] = &stored
	return nil
}

func (m *memoryRepository) SumApprovedDays(ctx context.Context, accountID int64, leaveType leave.Type) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, r := range m.requests {
		if r.AccountID == accountID && r.LeaveType == leaveType && r.Status == leave.StatusApproved {
			total += r.TotalDays
		}
	}
	return total, nil
}

func (m *memoryRepository) CreateRequest(ctx context.Context, request *leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	request.ID = m.nextID
	m.nextID++
	stored := *request
	m.requests[request.ID] = &stored
	return nil
}

func (m *memoryRepository) GetRequestForUpdate(ctx context.Context, id int64) (*leave.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, leave.ErrRequestNotFound
	}
	out := *r
	return &out, nil
}

func (m *memoryRepository) TransitionRequest(ctx context.Context, id int64, status leave.Status, approverID int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return leave.ErrRequestNotFound
	}
	if !r.IsPending() {
		return leave.ErrAlreadyProcessed
	}
	approver := approverID
	r.Status = status
	r.ApprovedBy = &approver
	r.UpdatedAt = at
	return nil
}

func (m *memoryRepository) ListByAccount(ctx context.Context, accountID int64) ([]*leave.Request, error) {
	return m.list(func(r *leave.Request) bool { return r.AccountID == accountID })
}

func (m *memoryRepository) ListByStatus(ctx context.Context, status leave.Status) ([]*leave.Request, error) {
	return m.list(func(r *leave.Request) bool { return r.Status == status })
}

func (m *memoryRepository) list(match func(*leave.Request) bool) ([]*leave.Request, error) {
	out, err := m.snapshot(match)
	if hook := m.afterList; hook != nil {
		m.afterList = nil
		hook()
	}
	return out, err
}

func (m *memoryRepository) snapshot(match func(*leave.Request) bool) ([]*leave.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listError != nil {
		return nil, m.listError
	}
	out := []*leave.Request{}
	for _, r := range m.requests {
		if match(r) {
			c := *r
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// seedRequest stores r as is and returns its id.
func (m *memoryRepository) seedRequest(r leave.Request) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = m.nextID
	m.nextID++
	m.requests[r.ID] = &r
	return r.ID
}

func (m *memoryRepository) seedBalance(b leave.Balance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[b.AccountID] = &b
}

func (m *memoryRepository) request(id int64) leave.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.requests[id]
}

func (m *memoryRepository) balance(accountID int64) (leave.Balance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[accountID]
	if !ok {
		return leave.Balance{}, false
	}
	return *b, true
}

type memoryDirectory struct {
	createdAt map[int64]time.Time
	err       error
}

func (d *memoryDirectory) GetCreatedAt(ctx context.Context, accountID int64) (time.Time, error) {
	if d.err != nil {
		return time.Time{}, d.err
	}
	t, ok := d.createdAt[accountID]
	if !ok {
		return time.Time{}, fmt.Errorf("account %w", apperrors.ErrRecordNotFound)
	}
	return t, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type memoryCache struct {
	mu          sync.Mutex
	history     map[int64][]*leave.Request
	pending     []*leave.Request
	hasPending  bool
	invalidated []int64
	readError   error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{history: make(map[int64][]*leave.Request)}
}

func (c *memoryCache) GetHistory(ctx context.Context, accountID int64) ([]*leave.Request, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readError != nil {
		return nil, false, c.readError
	}
	list, ok := c.history[accountID]
	return list, ok, nil
}

func (c *memoryCache) SetHistory(ctx context.Context, accountID int64, requests []*leave.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history[accountID] = requests
	return nil
}

func (c *memoryCache) GetPending(ctx context.Context) ([]*leave.Request, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readError != nil {
		return nil, false, c.readError
	}
	return c.pending, c.hasPending, nil
}

func (c *memoryCache) SetPending(ctx context.Context, requests []*leave.Request) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending, c.hasPending = requests, true
	return nil
}

func (c *memoryCache) Invalidate(ctx context.Context, accountID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.history, accountID)
	c.pending, c.hasPending = nil, false
	c.invalidated = append(c.invalidated, accountID)
	return nil
}

var errBoom = errors.New("boom")
