package role

import "time"

type SysRole struct {
	ID          int64     `gorm:"primaryKey"`
	RoleName    string    `gorm:"column:role_name;size:50;uniqueIndex;not null"`
	Description *string   `gorm:"column:description;type:text"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (SysRole) TableName() string {
	return "sys_role"
}
