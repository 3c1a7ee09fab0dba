package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/mbeoliero/datafactory/domain/entity"
)

// MockJobRepo implements repo.JobRepo for testing
type MockJobRepo struct {
	mu           sync.Mutex
	jobs         map[uint64]*entity.Job
	FindByIdFunc func(ctx context.Context, id uint64) (*entity.Job, error)
	CreateFunc   func(ctx context.Context, job *entity.Job) error

	// Call tracking
	UpdateFieldsCalls []map[string]any
}

func NewMockJobRepo() *MockJobRepo {
	return &MockJobRepo{jobs: make(map[uint64]*entity.Job)}
}

func (m *MockJobRepo) Create(ctx context.Context, job *entity.Job) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.Id] = job
	return nil
}

func (m *MockJobRepo) UpdateFields(ctx context.Context, id uint64, fields map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateFieldsCalls = append(m.UpdateFieldsCalls, fields)

	job, ok := m.jobs[id]
	if !ok {
		return false, nil
	}
	for k, v := range fields {
		switch k {
		case entity.FieldJobName:
			job.JobName = v.(string)
		case entity.FieldSourceType:
			job.SourceType = v.(string)
		case entity.FieldSourceConf:
			job.SourceConfig = v.(entity.ConnectorConfig)
		case entity.FieldSinkType:
			job.SinkType = v.(string)
		case entity.FieldSinkConf:
			job.SinkConfig = v.(entity.ConnectorConfig)
		case entity.FieldQuery:
			job.Query = v.(string)
		case entity.FieldSchedule:
			job.Schedule = v.(string)
		case entity.FieldEnabled:
			job.Enabled = v.(bool)
		case entity.FieldUpdatedAt:
			job.UpdatedAt = v.(int64)
		}
	}
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
	if m.FindByIdFunc != nil {
		return m.FindByIdFunc(ctx, id)
	}
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
	sort.Slice(out, func(i, j int) bool { return out[i].JobName < out[j].JobName })
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

// MockHistoryRepo implements repo.JobHistoryRepo for testing
type MockHistoryRepo struct {
	mu      sync.Mutex
	records []*entity.JobHistory
}

func NewMockHistoryRepo() *MockHistoryRepo {
	return &MockHistoryRepo{}
}

func (m *MockHistoryRepo) Create(ctx context.Context, record *entity.JobHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, record)
	return nil
}

func (m *MockHistoryRepo) FindById(ctx context.Context, id uint64) (*entity.JobHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.Id == id {
			return record, nil
		}
	}
	return nil, nil
}

func (m *MockHistoryRepo) Complete(ctx context.Context, id uint64, status entity.RunStatus, records int64, errMsg string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, record := range m.records {
		if record.Id == id && record.Status == entity.RunStatusRunning {
			record.Status = status
			record.RecordsProcessed = records
			record.ErrorMessage = errMsg
			return true, nil
		}
	}
	return false, nil
}

func (m *MockHistoryRepo) ListByJob(ctx context.Context, jobId uint64, limit int) ([]*entity.JobHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.JobHistory
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].JobId != jobId {
			continue
		}
		out = append(out, m.records[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockHistoryRepo) ListAll(ctx context.Context, limit int) ([]*entity.JobHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.JobHistory
	for i := len(m.records) - 1; i >= 0; i-- {
		out = append(out, m.records[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockHistoryRepo) LastByJob(ctx context.Context, jobId uint64) (*entity.JobHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].JobId == jobId {
			return m.records[i], nil
		}
	}
	return nil, nil
}

// MockLogRepo implements repo.JobLogRepo for testing
type MockLogRepo struct {
	mu   sync.Mutex
	logs []*entity.JobLog
}

func NewMockLogRepo() *MockLogRepo {
	return &MockLogRepo{}
}

func (m *MockLogRepo) Create(ctx context.Context, l *entity.JobLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, l)
	return nil
}

func (m *MockLogRepo) ListByHistory(ctx context.Context, historyId uint64) ([]*entity.JobLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.JobLog
	for _, l := range m.logs {
		if l.HistoryId == historyId {
			out = append(out, l)
		}
	}
	return out, nil
}

// ErrMock is a generic error for testing
var ErrMock = errors.New("mock error")
