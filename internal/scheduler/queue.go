package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// TaskMessage 一次到期触发产生的执行请求，任务定义由消费方执行时查库
type TaskMessage struct {
	JobId       int64     `json:"job_id"`
	JobName     string    `json:"job_name"`
	TriggerTime int64     `json:"trigger_time"`
	CreatedAt   time.Time `json:"created_at"`
}

// TaskQueue redis list 实现的执行请求队列，异步部署时解耦触发与执行
type TaskQueue struct {
	rdb       redis.UniversalClient
	keyPrefix string
}

func NewTaskQueue(rdb redis.UniversalClient, keyPrefix string) *TaskQueue {
	return &TaskQueue{
		rdb:       rdb,
		keyPrefix: keyPrefix,
	}
}

// PushTask 推送执行请求
func (r *TaskQueue) PushTask(ctx context.Context, msg *TaskMessage) error {
	key := r.keyPrefix + ":run_queue"
	data, _ := sonic.Marshal(msg)
	return r.rdb.LPush(ctx, key, data).Err()
}

// PopTask 取一个执行请求（阻塞），队列空时超时返回 nil
func (r *TaskQueue) PopTask(ctx context.Context, timeout time.Duration) (*TaskMessage, error) {
	key := r.keyPrefix + ":run_queue"
	result, err := r.rdb.BRPop(ctx, timeout, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}

	var msg TaskMessage
	if err = sonic.UnmarshalString(result[1], &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
