package user

import (
	"time"

	roleDatamodel "github.com/frahmantamala/user-management/internal/core/datamodel/role"
)

const UserRoleTable = "user_role_association"

type SysUser struct {
	ID         int64                   `gorm:"primaryKey"`
	Username   string                  `gorm:"column:username;size:50;uniqueIndex;not null"`
	Password   string                  `gorm:"column:password;size:255;not null"`
	RealName   string                  `gorm:"column:real_name;size:50;not null"`
	IDCard     string                  `gorm:"column:id_card;size:18;uniqueIndex;not null"`
	Phone      string                  `gorm:"column:phone;size:20;not null"`
	Department string                  `gorm:"column:department;size:100"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime"`
	Roles      []roleDatamodel.SysRole `gorm:"many2many:user_role_association;joinForeignKey:UserID;joinReferences:RoleID"`
}

func (SysUser) TableName() string {
	return "sys_user"
}

// UserRoleAssociation is the link row; it carries no payload.
type UserRoleAssociation struct {
	UserID int64 `gorm:"column:user_id;primaryKey"`
	RoleID int64 `gorm:"column:role_id;primaryKey"`
}

func (UserRoleAssociation) TableName() string {
	return UserRoleTable
}
