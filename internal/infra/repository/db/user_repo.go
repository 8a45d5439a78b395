package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/storefront/internal/domain/model"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserEmailExists = errors.New("user email already exists")
)

type UserFilter struct {
	Role   model.UserRole
	Search string // email, first_name, last_name 子字串, 不分大小寫
	Offset int
	Limit  int
}

type UserRepo struct {
	dbDao *DbDao
}

func NewUserRepo(dbDao *DbDao) *UserRepo {
	return &UserRepo{dbDao: dbDao}
}

// Create - 創建用戶, email 一律轉小寫
func (s *UserRepo) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	err := s.dbDao.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, ErrUserEmailExists
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Read - 根據ID查詢用戶
func (s *UserRepo) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	var user model.User
	err := s.dbDao.WithContext(ctx).Where("user_id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Read - 根據Email查詢用戶
func (s *UserRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.dbDao.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserRepo) UpdateLastLogin(ctx context.Context, id int, at time.Time) error {
	return s.dbDao.WithContext(ctx).Model(&model.User{}).
		Where("user_id = ?", id).
		Update("last_login_at", at).Error
}

func (s *UserRepo) CountUsersByRole(ctx context.Context, role model.UserRole) (int64, error) {
	var total int64
	err := s.dbDao.WithContext(ctx).Model(&model.User{}).Where("role = ?", role).Count(&total).Error
	return total, err
}

// ListUsers 新註冊的排前面
func (s *UserRepo) ListUsers(ctx context.Context, filter UserFilter) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	query := s.dbDao.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", pattern, pattern, pattern)
	}

	query = query.Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Order("created_at DESC").
		Order("user_id DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&users).Error
	return users, total, err
}

// UpdateUserFields 只允許改 is_active 與 role
func (s *UserRepo) UpdateUserFields(ctx context.Context, id int, fields map[string]any) error {
	for key := range fields {
		if key != "is_active" && key != "role" {
			delete(fields, key)
		}
	}
	if len(fields) == 0 {
		return nil
	}
	result := s.dbDao.WithContext(ctx).Model(&model.User{}).Where("user_id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
