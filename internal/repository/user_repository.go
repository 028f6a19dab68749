package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SagarBarate/CleanNFT-sub001/internal/model"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
)

// UserRepository 用户与会话仓储接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)

	CreateSession(ctx context.Context, session *model.Session) error
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error)
	DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error
	// DeleteExpiredSessions 删除过期会话，返回删除行数
	DeleteExpiredSessions(ctx context.Context, beforeMilli int64) (int64, error)
	// CountExpiredSessions 统计尚未清理的过期会话
	CountExpiredSessions(ctx context.Context, beforeMilli int64) (int64, error)

	CreateAuditLog(ctx context.Context, entry *model.AuditLog) error
	ListAuditLogs(ctx context.Context, actorID string, page *Pagination) ([]*model.AuditLog, error)
}

type userRepository struct {
	*Repository
}

// NewUserRepository 创建用户仓储
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{Repository: NewRepository(db)}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.DB(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.DB(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) CreateSession(ctx context.Context, session *model.Session) error {
	return r.DB(ctx).Create(session).Error
}

func (r *userRepository) GetSessionByTokenHash(ctx context.Context, tokenHash string) (*model.Session, error) {
	var session model.Session
	err := r.DB(ctx).Where("token_hash = ?", tokenHash).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *userRepository) DeleteSessionByTokenHash(ctx context.Context, tokenHash string) error {
	return r.DB(ctx).Where("token_hash = ?", tokenHash).Delete(&model.Session{}).Error
}

func (r *userRepository) DeleteExpiredSessions(ctx context.Context, beforeMilli int64) (int64, error) {
	result := r.DB(ctx).Where("expires_at < ?", beforeMilli).Delete(&model.Session{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *userRepository) CountExpiredSessions(ctx context.Context, beforeMilli int64) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&model.Session{}).Where("expires_at < ?", beforeMilli).Count(&count).Error
	return count, err
}

func (r *userRepository) CreateAuditLog(ctx context.Context, entry *model.AuditLog) error {
	return r.DB(ctx).Create(entry).Error
}

func (r *userRepository) ListAuditLogs(ctx context.Context, actorID string, page *Pagination) ([]*model.AuditLog, error) {
	query := r.DB(ctx).Model(&model.AuditLog{})
	if actorID != "" {
		query = query.Where("actor_id = ?", actorID)
	}

	if page != nil {
		if err := query.Count(&page.Total).Error; err != nil {
			return nil, err
		}
		query = query.Offset(page.Offset()).Limit(page.Limit())
	}

	var logs []*model.AuditLog
	err := query.Order("id DESC").Find(&logs).Error
	return logs, err
}
