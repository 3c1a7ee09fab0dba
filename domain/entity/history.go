package entity

// JobHistory 一次执行对应一行，创建时处于 running，终态只迁移一次
type JobHistory struct {
	Id               uint64    `json:"id" gorm:"primaryKey"`
	JobId            uint64    `json:"job_id" gorm:"column:job_id"`
	JobName          string    `json:"job_name" gorm:"column:job_name"` // 启动时的名称快照，不做实时关联
	StartedAt        int64     `json:"started_at" gorm:"column:started_at"`     // time milli
	CompletedAt      int64     `json:"completed_at" gorm:"column:completed_at"` // time milli，终态前为 0
	Status           RunStatus `json:"status" gorm:"column:status"`
	RecordsProcessed int64     `json:"records_processed" gorm:"column:records_processed"`
	ErrorMessage     string    `json:"error_message" gorm:"column:error_message"`
}

func (h *JobHistory) TableName() string {
	return "job_history"
}

// JobLog 按 historyId 归属的执行日志，追加写入
type JobLog struct {
	Id        uint64   `json:"id" gorm:"primaryKey"`
	HistoryId uint64   `json:"history_id" gorm:"column:history_id"`
	JobId     uint64   `json:"job_id" gorm:"column:job_id"`
	Timestamp int64    `json:"timestamp" gorm:"column:timestamp"` // time milli
	Level     LogLevel `json:"level" gorm:"column:level"`
	Message   string   `json:"message" gorm:"column:message"`
}

func (l *JobLog) TableName() string {
	return "job_log"
}
