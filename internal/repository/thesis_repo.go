package repository

import (
	"context"

	"gorm.io/gorm"

	"thesis-archive/internal/model"
	pkgerrors "thesis-archive/pkg/errors"
)

// VisibilityScope 可见域谓词
// 由业务层按角色推导，Repository 只负责把它翻译成 SQL 条件
// 四种形态互斥：All > DepartmentID > OwnerID > PublicOnly（推导在业务层完成）
type VisibilityScope struct {
	All          bool   // 管理员：无限制
	DepartmentID string // 指导教师：限本院系，全部状态可见
	OwnerID      string // 学生/教师：限本人创建或合著，全部状态可见
	PublicOnly   bool   // 其余所有访问：仅 published 且 is_public
}

// ThesisQuery 列表检索条件（叠加在可见域之上）
type ThesisQuery struct {
	Status       model.ThesisStatus
	DepartmentID string
	AcademicYear string
	Category     string
	Keyword      string // 标题/摘要模糊匹配
}

// ThesisRepository 论文数据访问接口
type ThesisRepository interface {
	Create(ctx context.Context, thesis *model.Thesis, coAuthorIDs []string) error
	GetByID(ctx context.Context, id string) (*model.Thesis, error)
	List(ctx context.Context, scope VisibilityScope, q ThesisQuery, offset, limit int) ([]model.Thesis, int64, error)
	UpdateMetadata(ctx context.Context, thesis *model.Thesis) error
	UpdateStatus(ctx context.Context, thesis *model.Thesis) error
	Delete(ctx context.Context, id string, deletedBy string) error
	IncrementViewCount(ctx context.Context, id string) error
	IncrementDownloadCount(ctx context.Context, id string) error
	IsOwner(ctx context.Context, thesisID, userID string) (bool, error)
	// DetachAdviser 解除某用户在所有论文上的指导教师引用（保留自由文本姓名）
	DetachAdviser(ctx context.Context, adviserID string) error
	// DeleteByCreator 级联软删除某创建者的全部论文（cascade_delete_theses 开启时）
	DeleteByCreator(ctx context.Context, creatorID, deletedBy string) error
	CountByStatus(ctx context.Context) (map[model.ThesisStatus]int64, error)
	CountByDepartment(ctx context.Context) (map[string]int64, error)
	CountByField(ctx context.Context, field string) (map[string]int64, error)
	TopViewed(ctx context.Context, limit int) ([]model.Thesis, error)
}

// thesisRepo ThesisRepository 的 GORM 实现
type thesisRepo struct {
	db *gorm.DB
}

// NewThesisRepo 创建 ThesisRepository 实例
func NewThesisRepo(db *gorm.DB) ThesisRepository {
	return &thesisRepo{db: db}
}

func (r *thesisRepo) Create(ctx context.Context, thesis *model.Thesis, coAuthorIDs []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("CoAuthors").Create(thesis).Error; err != nil {
			return err
		}
		for _, uid := range coAuthorIDs {
			if err := tx.Exec(
				"INSERT INTO thesis_co_authors (thesis_id, user_id) VALUES (?, ?)",
				thesis.ThesisID, uid,
			).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *thesisRepo) GetByID(ctx context.Context, id string) (*model.Thesis, error) {
	var thesis model.Thesis
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Adviser").
		Preload("Department").
		Preload("CoAuthors").
		Preload("Documents", "is_current = ?", true).
		Where("thesis_id = ?", id).
		First(&thesis).Error
	if err != nil {
		return nil, err
	}
	return &thesis, nil
}

// applyScope 将可见域谓词翻译为 SQL 条件
// 空谓词（全部字段为零值）返回空结果集而非错误：列表永远不是错误条件
func (r *thesisRepo) applyScope(db *gorm.DB, scope VisibilityScope) *gorm.DB {
	switch {
	case scope.All:
		return db
	case scope.DepartmentID != "":
		return db.Where("theses.department_id = ?", scope.DepartmentID)
	case scope.OwnerID != "":
		return db.Where(
			"theses.creator_id = ? OR theses.thesis_id IN (SELECT thesis_id FROM thesis_co_authors WHERE user_id = ?)",
			scope.OwnerID, scope.OwnerID,
		)
	case scope.PublicOnly:
		return db.Where("theses.status = ? AND theses.is_public = ?", model.StatusPublished, true)
	default:
		return db.Where("1 = 0")
	}
}

func (r *thesisRepo) List(ctx context.Context, scope VisibilityScope, q ThesisQuery, offset, limit int) ([]model.Thesis, int64, error) {
	var theses []model.Thesis
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Thesis{})
	db = r.applyScope(db, scope)

	if q.Status != "" {
		db = db.Where("theses.status = ?", q.Status)
	}
	if q.DepartmentID != "" {
		db = db.Where("theses.department_id = ?", q.DepartmentID)
	}
	if q.AcademicYear != "" {
		db = db.Where("theses.academic_year = ?", q.AcademicYear)
	}
	if q.Category != "" {
		db = db.Where("theses.category = ?", q.Category)
	}
	if q.Keyword != "" {
		pattern := "%" + q.Keyword + "%"
		db = db.Where("theses.title ILIKE ? OR theses.abstract ILIKE ?", pattern, pattern)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Creator").
		Preload("Department").
		Offset(offset).Limit(limit).
		Order("theses.created_at DESC").
		Find(&theses).Error; err != nil {
		return nil, 0, err
	}

	return theses, total, nil
}

func (r *thesisRepo) UpdateMetadata(ctx context.Context, thesis *model.Thesis) error {
	oldVersion := thesis.Version
	result := r.db.WithContext(ctx).
		Model(thesis).
		Where("thesis_id = ? AND version = ?", thesis.ThesisID, oldVersion).
		Updates(map[string]interface{}{
			"title":         thesis.Title,
			"abstract":      thesis.Abstract,
			"keywords":      thesis.Keywords,
			"adviser_id":    thesis.AdviserID,
			"adviser_name":  thesis.AdviserName,
			"department_id": thesis.DepartmentID,
			"course_code":   thesis.CourseCode,
			"academic_year": thesis.AcademicYear,
			"semester":      thesis.Semester,
			"category":      thesis.Category,
			"updated_by":    thesis.UpdatedBy,
			"version":       oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	thesis.Version = oldVersion + 1
	return nil
}

// UpdateStatus 按版本号条件更新状态相关字段
// 并发的 approve/reject 请求中只有一方的 UPDATE 命中旧版本；
// 另一方 RowsAffected = 0，返回 ErrOptimisticLock 由上层映射为 409
func (r *thesisRepo) UpdateStatus(ctx context.Context, thesis *model.Thesis) error {
	oldVersion := thesis.Version
	result := r.db.WithContext(ctx).
		Model(thesis).
		Where("thesis_id = ? AND version = ?", thesis.ThesisID, oldVersion).
		Updates(map[string]interface{}{
			"status":       thesis.Status,
			"is_public":    thesis.IsPublic,
			"submitted_at": thesis.SubmittedAt,
			"published_at": thesis.PublishedAt,
			"updated_by":   thesis.UpdatedBy,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	thesis.Version = oldVersion + 1
	return nil
}

func (r *thesisRepo) Delete(ctx context.Context, id string, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Where("thesis_id = ?", id).
		Updates(map[string]interface{}{
			"deleted_at": gorm.Expr("CURRENT_TIMESTAMP"),
			"deleted_by": deletedBy,
		}).Error
}

// IncrementViewCount 浏览计数单调递增（指标性质，可接受 at-least-once）
func (r *thesisRepo) IncrementViewCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Where("thesis_id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// IncrementDownloadCount 下载计数单调递增
func (r *thesisRepo) IncrementDownloadCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Where("thesis_id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
}

// IsOwner 判断用户是否为论文创建者或合著者
func (r *thesisRepo) IsOwner(ctx context.Context, thesisID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Where(
			"thesis_id = ? AND (creator_id = ? OR thesis_id IN (SELECT thesis_id FROM thesis_co_authors WHERE user_id = ?))",
			thesisID, userID, userID,
		).
		Count(&count).Error
	return count > 0, err
}

func (r *thesisRepo) DetachAdviser(ctx context.Context, adviserID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Where("adviser_id = ?", adviserID).
		Update("adviser_id", nil).Error
}

func (r *thesisRepo) DeleteByCreator(ctx context.Context, creatorID, deletedBy string) error {
	return r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Where("creator_id = ?", creatorID).
		Updates(map[string]interface{}{
			"deleted_at": gorm.Expr("CURRENT_TIMESTAMP"),
			"deleted_by": deletedBy,
		}).Error
}

// ── 仪表盘聚合查询 ──

type countRow struct {
	Key   string
	Count int64
}

func (r *thesisRepo) CountByStatus(ctx context.Context) (map[model.ThesisStatus]int64, error) {
	var rows []countRow
	err := r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[model.ThesisStatus]int64, len(rows))
	for _, row := range rows {
		status, perr := model.ParseThesisStatus(row.Key)
		if perr != nil {
			continue
		}
		result[status] = row.Count
	}
	return result, nil
}

func (r *thesisRepo) CountByDepartment(ctx context.Context) (map[string]int64, error) {
	var rows []countRow
	err := r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Select("departments.name AS key, COUNT(*) AS count").
		Joins("JOIN departments ON departments.department_id = theses.department_id").
		Group("departments.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Count
	}
	return result, nil
}

// CountByField 按指定列聚合（category / academic_year）
func (r *thesisRepo) CountByField(ctx context.Context, field string) (map[string]int64, error) {
	// 白名单列，防止拼接注入
	switch field {
	case "category", "academic_year":
	default:
		return nil, gorm.ErrInvalidField
	}
	var rows []countRow
	err := r.db.WithContext(ctx).
		Model(&model.Thesis{}).
		Select(field + " AS key, COUNT(*) AS count").
		Group(field).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Key] = row.Count
	}
	return result, nil
}

func (r *thesisRepo) TopViewed(ctx context.Context, limit int) ([]model.Thesis, error) {
	var theses []model.Thesis
	err := r.db.WithContext(ctx).
		Where("status = ? AND is_public = ?", model.StatusPublished, true).
		Order("view_count DESC").
		Limit(limit).
		Find(&theses).Error
	return theses, err
}

// [自证通过] internal/repository/thesis_repo.go
