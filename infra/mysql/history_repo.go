package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mbeoliero/datafactory/domain/entity"
	"github.com/mbeoliero/datafactory/domain/repo"
	"github.com/mbeoliero/datafactory/pkg/generic"
)

type historyRepo struct {
	db *gorm.DB
}

var getJobHistoryRepo = generic.Once(func() repo.JobHistoryRepo {
	return &historyRepo{db: GetDB()}
})

func (h *historyRepo) Create(ctx context.Context, record *entity.JobHistory) error {
	return gorm.G[entity.JobHistory](h.db).Create(ctx, record)
}

func (h *historyRepo) FindById(ctx context.Context, id uint64) (*entity.JobHistory, error) {
	record, err := gorm.G[*entity.JobHistory](h.db).Where("id = ?", id).First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// Complete 结束一次运行记录, 仅允许 running 状态的记录被更新
func (h *historyRepo) Complete(ctx context.Context, id uint64, status entity.RunStatus, records int64, errMsg string) (bool, error) {
	res := h.db.WithContext(ctx).
		Model(&entity.JobHistory{}).
		Where("id = ? AND status = ?", id, entity.RunStatusRunning).
		Updates(map[string]any{
			"status":            status,
			"records_processed": records,
			"error_message":     errMsg,
			"completed_at":      time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (h *historyRepo) ListByJob(ctx context.Context, jobId uint64, limit int) ([]*entity.JobHistory, error) {
	return gorm.G[*entity.JobHistory](h.db).
		Where("job_id = ?", jobId).
		Order("started_at DESC").
		Limit(limit).
		Find(ctx)
}

func (h *historyRepo) ListAll(ctx context.Context, limit int) ([]*entity.JobHistory, error) {
	return gorm.G[*entity.JobHistory](h.db).
		Order("started_at DESC").
		Limit(limit).
		Find(ctx)
}

func (h *historyRepo) LastByJob(ctx context.Context, jobId uint64) (*entity.JobHistory, error) {
	record, err := gorm.G[*entity.JobHistory](h.db).
		Where("job_id = ?", jobId).
		Order("started_at DESC").
		First(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}
