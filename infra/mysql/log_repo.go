package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/mbeoliero/datafactory/domain/entity"
	"github.com/mbeoliero/datafactory/domain/repo"
	"github.com/mbeoliero/datafactory/pkg/generic"
)

type logRepo struct {
	db *gorm.DB
}

var getJobLogRepo = generic.Once(func() repo.JobLogRepo {
	return &logRepo{db: GetDB()}
})

func (l *logRepo) Create(ctx context.Context, record *entity.JobLog) error {
	return gorm.G[entity.JobLog](l.db).Create(ctx, record)
}

func (l *logRepo) ListByHistory(ctx context.Context, historyId uint64) ([]*entity.JobLog, error) {
	return gorm.G[*entity.JobLog](l.db).
		Where("history_id = ?", historyId).
		Order("timestamp, id").
		Find(ctx)
}
