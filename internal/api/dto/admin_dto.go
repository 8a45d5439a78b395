package dto

// UpdateUserStatusDTO is_active 必填, 未帶視為錯誤
type UpdateUserStatusDTO struct {
	IsActive *bool `json:"is_active"`
}

type UpdateUserRoleDTO struct {
	Role string `json:"role"`
}
