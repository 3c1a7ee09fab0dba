package generic

import "sync"

// Once 返回 f 的懒加载单例包装, 并发安全
func Once[T any](f func() T) func() T {
	return sync.OnceValue(f)
}
