package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser 标准五段 cron，支持 @every/@daily 这类描述符
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule 校验 cron 表达式
func ValidateSchedule(expr string) error {
	if expr == "" {
		return fmt.Errorf("%w: empty expression", ErrInvalidSchedule)
	}
	if _, err := cronParser.Parse(expr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	return nil
}

// NextRunTime 计算表达式在 now 之后的下一次触发时间
func NextRunTime(expr string, now time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	return schedule.Next(now), nil
}

// TargetName 由任务名推导 sink 侧的目标标识：小写、空格转下划线。
// 同一任务每次执行得到相同的目标，重复执行即覆盖写。
func TargetName(jobName string) string {
	return strings.ToLower(strings.ReplaceAll(jobName, " ", "_"))
}
