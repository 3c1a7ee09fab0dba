package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/mbeoliero/datafactory/domain/entity"
	"github.com/mbeoliero/datafactory/internal/engine"
)

// MockRunner implements Runner for testing
type MockRunner struct {
	mu      sync.Mutex
	RunFunc func(ctx context.Context, jobId uint64) (*engine.RunResult, error)

	// Call tracking
	RunCalls []uint64
	fired    chan uint64
}

func NewMockRunner() *MockRunner {
	return &MockRunner{fired: make(chan uint64, 16)}
}

func (m *MockRunner) Run(ctx context.Context, jobId uint64) (*engine.RunResult, error) {
	m.mu.Lock()
	m.RunCalls = append(m.RunCalls, jobId)
	m.mu.Unlock()

	defer func() {
		select {
		case m.fired <- jobId:
		default:
		}
	}()

	if m.RunFunc != nil {
		return m.RunFunc(ctx, jobId)
	}
	return &engine.RunResult{Status: entity.RunStatusSuccess}, nil
}

func (m *MockRunner) Calls() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint64, len(m.RunCalls))
	copy(out, m.RunCalls)
	return out
}

// MockJobRepo implements repo.JobRepo for testing
type MockJobRepo struct {
	mu   sync.Mutex
	jobs map[uint64]*entity.Job
}

func NewMockJobRepo() *MockJobRepo {
	return &MockJobRepo{jobs: make(map[uint64]*entity.Job)}
}

func (m *MockJobRepo) Create(ctx context.Context, job *entity.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.Id] = job
	return nil
}

func (m *MockJobRepo) UpdateFields(ctx context.Context, id uint64, fields map[string]any) (bool, error) {
	return true, nil
}

func (m *MockJobRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[id]; !ok {
		return false, nil
	}
	delete(m.jobs, id)
	return true, nil
}

func (m *MockJobRepo) FindById(ctx context.Context, id uint64) (*entity.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.jobs[id], nil
}

func (m *MockJobRepo) FindByName(ctx context.Context, name string) (*entity.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, job := range m.jobs {
		if job.JobName == name {
			return job, nil
		}
	}
	return nil, nil
}

func (m *MockJobRepo) List(ctx context.Context) ([]*entity.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		out = append(out, job)
	}
	return out, nil
}

func (m *MockJobRepo) ListScheduled(ctx context.Context) ([]*entity.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Job
	for _, job := range m.jobs {
		if job.Enabled && job.Schedule != "" {
			out = append(out, job)
		}
	}
	return out, nil
}

// ErrMock is a generic error for testing
var ErrMock = errors.New("mock error")
