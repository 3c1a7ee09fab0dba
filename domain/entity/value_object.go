package entity

type RunStatus string

const (
	RunStatusRunning RunStatus = "running"
	RunStatusSuccess RunStatus = "success"
	RunStatusFailed  RunStatus = "failed"
)

// Terminal 是否为终态
func (s RunStatus) Terminal() bool {
	return s == RunStatusSuccess || s == RunStatusFailed
}

type LogLevel string

const (
	LogLevelInfo  LogLevel = "INFO"
	LogLevelError LogLevel = "ERROR"
)

// LastRun 任务最近一次执行的投影，挂在 Job 查询结果上返回
type LastRun struct {
	StartedAt        int64     `json:"started_at"`
	CompletedAt      int64     `json:"completed_at"`
	Status           RunStatus `json:"status"`
	RecordsProcessed int64     `json:"records_processed"`
}

// JobWithLastRun 任务定义加上最近一次执行信息
type JobWithLastRun struct {
	Job
	LastRun *LastRun `json:"last_run"`
}
