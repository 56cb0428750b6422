package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"seed-eval/internal/model"
)

const defaultRunListLimit = 50

// RunStore 运行登记表：每次驱动层操作一行。明细仍以 JSONL 日志为准。
type RunStore struct {
	db *gorm.DB
}

func NewRunStore(db *gorm.DB) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Enabled() bool {
	return s != nil && s.db != nil
}

// Record 写入一条运行记录；未配置数据库时静默跳过
func (s *RunStore) Record(ctx context.Context, run *model.HarnessRun) error {
	if !s.Enabled() {
		return nil
	}
	if run.RunUID == "" {
		run.RunUID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("保存运行记录失败: %w", err)
	}
	return nil
}

// List 按创建时间倒序；kind 为空时不过滤
func (s *RunStore) List(ctx context.Context, kind string, limit int) ([]model.HarnessRun, error) {
	if !s.Enabled() {
		return []model.HarnessRun{}, nil
	}
	if limit <= 0 {
		limit = defaultRunListLimit
	}
	query := s.db.WithContext(ctx).Model(&model.HarnessRun{})
	if kind != "" {
		query = query.Where("kind = ?", kind)
	}
	var runs []model.HarnessRun
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("查询运行记录失败: %w", err)
	}
	return runs, nil
}
