package store

import (
	"context"
	"fmt"

	"friendchat/model"
)

// ListSettings 查询全部系统配置
func (s *Store) ListSettings(ctx context.Context) ([]model.SystemSettings, error) {
	var settings []model.SystemSettings
	if err := s.db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to load system settings: %w", err)
	}
	return settings, nil
}

// UpdateSetting 更新配置值，返回是否存在该配置
func (s *Store) UpdateSetting(ctx context.Context, key, value string) (bool, error) {
	result := s.db.WithContext(ctx).Model(&model.SystemSettings{}).
		Where("setting_key = ?", key).
		Update("setting_value", value)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update setting: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// CreateSetting 新增配置
func (s *Store) CreateSetting(ctx context.Context, setting *model.SystemSettings) error {
	if err := s.db.WithContext(ctx).Create(setting).Error; err != nil {
		return fmt.Errorf("failed to create setting: %w", err)
	}
	return nil
}
