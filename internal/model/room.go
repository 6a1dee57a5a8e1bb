package model

// 教室类型
const (
	RoomTypeLecture = "Lecture"
	RoomTypeLab     = "Lab"
)

// Room 教室表 — 对应 rooms
type Room struct {
	RoomID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"room_id"`
	RoomCode string `gorm:"type:varchar(20);not null"                      json:"room_code"`
	Building string `gorm:"type:varchar(100);not null;default:''"          json:"building"`
	Capacity int    `gorm:"not null"                                       json:"capacity"`
	RoomType string `gorm:"type:varchar(20);not null"                      json:"room_type"` // Lecture | Lab
	SoftDeleteModel
}

func (Room) TableName() string { return "rooms" }
