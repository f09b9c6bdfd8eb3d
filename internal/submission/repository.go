package submission

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository 是提交记录的持久化接口。
type Repository interface {
	Insert(ctx context.Context, s *Submission) (uint, error)
	ListAll(ctx context.Context) ([]Submission, error)
}

// GormRepository 基于 gorm 实现 Repository。每条语句自动提交，不显式开启事务。
type GormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// Insert 写入一条记录并返回数据库分配的ID。
func (r *GormRepository) Insert(ctx context.Context, s *Submission) (uint, error) {
	if s == nil {
		return 0, fmt.Errorf("submission is nil")
	}
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return 0, err
	}
	return s.ID, nil
}

// ListAll 按创建时间倒序返回全部记录；时间相同时ID大的在前。
func (r *GormRepository) ListAll(ctx context.Context) ([]Submission, error) {
	var out []Submission
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
