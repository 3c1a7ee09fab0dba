package engine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/mbeoliero/datafactory/domain/entity"
	"github.com/mbeoliero/datafactory/internal/connector"
)

// MockJobRepo implements repo.JobRepo for testing
type MockJobRepo struct {
	mu           sync.Mutex
	jobs         map[uint64]*entity.Job
	FindByIdFunc func(ctx context.Context, id uint64) (*entity.Job, error)
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
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return false, nil
	}
	applyJobFields(job, fields)
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

func applyJobFields(job *entity.Job, fields map[string]any) {
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
}

// MockHistoryRepo implements repo.JobHistoryRepo for testing
type MockHistoryRepo struct {
	mu         sync.Mutex
	records    map[uint64]*entity.JobHistory
	order      []uint64
	CreateFunc func(ctx context.Context, record *entity.JobHistory) error

	// Call tracking
	CompleteCalls []struct {
		Id      uint64
		Status  entity.RunStatus
		Records int64
		ErrMsg  string
	}
}

func NewMockHistoryRepo() *MockHistoryRepo {
	return &MockHistoryRepo{records: make(map[uint64]*entity.JobHistory)}
}

func (m *MockHistoryRepo) Create(ctx context.Context, record *entity.JobHistory) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, record)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[record.Id] = record
	m.order = append(m.order, record.Id)
	return nil
}

func (m *MockHistoryRepo) FindById(ctx context.Context, id uint64) (*entity.JobHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id], nil
}

func (m *MockHistoryRepo) Complete(ctx context.Context, id uint64, status entity.RunStatus, records int64, errMsg string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CompleteCalls = append(m.CompleteCalls, struct {
		Id      uint64
		Status  entity.RunStatus
		Records int64
		ErrMsg  string
	}{id, status, records, errMsg})

	record, ok := m.records[id]
	if !ok || record.Status != entity.RunStatusRunning {
		return false, nil
	}
	record.Status = status
	record.RecordsProcessed = records
	record.ErrorMessage = errMsg
	record.CompletedAt = record.StartedAt + 1
	return true, nil
}

func (m *MockHistoryRepo) ListByJob(ctx context.Context, jobId uint64, limit int) ([]*entity.JobHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.JobHistory
	for i := len(m.order) - 1; i >= 0; i-- {
		record := m.records[m.order[i]]
		if record.JobId != jobId {
			continue
		}
		out = append(out, record)
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
	for i := len(m.order) - 1; i >= 0; i-- {
		out = append(out, m.records[m.order[i]])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *MockHistoryRepo) LastByJob(ctx context.Context, jobId uint64) (*entity.JobHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		record := m.records[m.order[i]]
		if record.JobId == jobId {
			return record, nil
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

// closeTrackingSource records the query it was given and Close calls
type closeTrackingSource struct {
	rows       []connector.Row
	extractErr error
	gotQuery   string
	closed     bool
}

func (s *closeTrackingSource) Extract(ctx context.Context, query string) ([]connector.Row, error) {
	s.gotQuery = query
	if s.extractErr != nil {
		return nil, s.extractErr
	}
	return s.rows, nil
}

func (s *closeTrackingSource) ListTables(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *closeTrackingSource) Close() error {
	s.closed = true
	return nil
}

// failingSink always fails on Load
type failingSink struct {
	loadErr error
	closed  bool
}

func (s *failingSink) Load(ctx context.Context, rows []connector.Row, target string) (int64, error) {
	return 0, s.loadErr
}

func (s *failingSink) ListObjects(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (s *failingSink) Preview(ctx context.Context, object string, limit int) ([]connector.Row, error) {
	return nil, nil
}

func (s *failingSink) Close() error {
	s.closed = true
	return nil
}

// ErrMock is a generic error for testing
var ErrMock = errors.New("mock error")
