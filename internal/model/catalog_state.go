package model

import "time"

// CatalogState 基础数据版本表 — 对应 catalog_state（单行）
// 教室、课程、教师、学分上限的每次写入都会使版本号加一
type CatalogState struct {
	Singleton bool      `gorm:"primaryKey;default:true"            json:"-"`
	Version   int64     `gorm:"not null;default:1"                 json:"version"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (CatalogState) TableName() string { return "catalog_state" }
