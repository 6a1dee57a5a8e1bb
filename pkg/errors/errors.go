package errors

import "errors"

var (
	// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
	ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

	// ErrConcurrentCatalogChange 排课期间基础数据（课程/教室/教师/学分上限）发生变更，
	// 本次排课结果作废，需基于最新快照重新生成
	ErrConcurrentCatalogChange = errors.New("排课期间基础数据已变更，请重新生成课表")
)
