package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
// 并发状态流转时，后提交的一方收到此错误并映射为 409 Conflict
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
