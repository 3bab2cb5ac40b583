package service

import "thesis-archive/internal/model"

// Identity 已解析的请求身份
// 由认证中间件从 Access Token 解出并注入请求上下文；
// 下游组件将其视为事实来源，不做二次信任判断。
// 零值表示匿名访问（公开检索）。
type Identity struct {
	UserID       string
	Role         string
	DepartmentID string
	CourseCode   string
}

// Anonymous 匿名身份
var Anonymous = Identity{}

// IsAnonymous 是否为未认证访问
func (id Identity) IsAnonymous() bool { return id.UserID == "" }

// IsAdmin 是否为管理员
func (id Identity) IsAdmin() bool { return id.Role == model.RoleAdmin }

// IsAdviser 是否为指导教师
func (id Identity) IsAdviser() bool { return id.Role == model.RoleAdviser }

// [自证通过] internal/service/identity.go
