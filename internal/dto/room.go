package dto

// ── 教室模块 DTO ──

// CreateRoomRequest 创建教室请求
type CreateRoomRequest struct {
	RoomCode string `json:"room_code" binding:"required,min=1,max=20"`
	Building string `json:"building"  binding:"omitempty,max=100"`
	Capacity int    `json:"capacity"  binding:"required,min=1,max=10000"`
	RoomType string `json:"room_type" binding:"required,oneof=Lecture Lab"`
}

// UpdateRoomRequest 更新教室请求
type UpdateRoomRequest struct {
	RoomCode *string `json:"room_code" binding:"omitempty,min=1,max=20"`
	Building *string `json:"building"  binding:"omitempty,max=100"`
	Capacity *int    `json:"capacity"  binding:"omitempty,min=1,max=10000"`
	RoomType *string `json:"room_type" binding:"omitempty,oneof=Lecture Lab"`
}

// RoomResponse 教室信息响应
type RoomResponse struct {
	ID        string `json:"id"`
	RoomCode  string `json:"room_code"`
	Building  string `json:"building"`
	Capacity  int    `json:"capacity"`
	RoomType  string `json:"room_type"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}
