// Package model 定义领域实体
package model

import "strings"

// Role 用户角色
type Role string

const (
	RoleUser  Role = "USER"  // 普通用户
	RoleAdmin Role = "ADMIN" // 管理员
)

// UserStatus 用户状态
type UserStatus int8

const (
	UserStatusActive   UserStatus = 1 // 活跃
	UserStatusDisabled UserStatus = 2 // 禁用
)

// User 用户
type User struct {
	ID           string     `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Email        string     `gorm:"column:email;size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string     `gorm:"column:password_hash;size:100" json:"-"`
	Nickname     string     `gorm:"column:nickname;size:50" json:"nickname"`
	Roles        string     `gorm:"column:roles;size:100;default:USER" json:"roles"` // 逗号分隔
	Status       UserStatus `gorm:"column:status;default:1" json:"status"`
	CreatedAt    int64      `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
	UpdatedAt    int64      `gorm:"column:updated_at;autoUpdateTime:milli" json:"updated_at"`
}

// TableName 表名
func (User) TableName() string {
	return "users"
}

// RoleList 解析角色列表
func (u *User) RoleList() []Role {
	parts := strings.Split(u.Roles, ",")
	roles := make([]Role, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			roles = append(roles, Role(p))
		}
	}
	return roles
}

// HasRole 判断是否持有角色
func (u *User) HasRole(role Role) bool {
	for _, r := range u.RoleList() {
		if r == role {
			return true
		}
	}
	return false
}

// Session 登录会话
// token 仅存哈希，过期会话由定时任务清理
type Session struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    string `gorm:"column:user_id;type:varchar(36);index;not null" json:"user_id"`
	TokenHash string `gorm:"column:token_hash;size:64;uniqueIndex;not null" json:"-"`
	ExpiresAt int64  `gorm:"column:expires_at;index;not null" json:"expires_at"`
	CreatedAt int64  `gorm:"column:created_at;autoCreateTime:milli" json:"created_at"`
}

// TableName 表名
func (Session) TableName() string {
	return "sessions"
}
