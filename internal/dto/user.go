package dto

// ── 用户模块 DTO ──

// CreateUserRequest 创建账号请求（staff 账号随教师档案创建，不走此接口）
type CreateUserRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Email    string `json:"email"    binding:"required,email"`
	Role     string `json:"role"     binding:"required,oneof=admin student"`
	Semester *int   `json:"semester" binding:"omitempty,min=1,max=8"`
}

// CreateUserResponse 创建账号响应，临时密码仅返回一次
type CreateUserResponse struct {
	User         *UserResponse `json:"user"`
	TempPassword string        `json:"temp_password"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role string `form:"role" binding:"omitempty,oneof=admin staff student"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=2,max=100"`
	Email    *string `json:"email"    binding:"omitempty,email"`
	Semester *int    `json:"semester" binding:"omitempty,min=1,max=8"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// ImportUserResponse 批量导入学生响应
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}

// ImportUserError 导入错误详情
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
