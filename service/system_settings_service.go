package service

import (
	"context"
	"fmt"
	"sync"

	"friendchat/model"
	"friendchat/store"
)

const (
	FeatureOnlineStatus    = "enable_online_status"
	FeatureTypingIndicator = "enable_typing_indicator"
)

// defaultSettings 数据库中没有对应记录时使用的默认值
var defaultSettings = map[string]struct {
	value       string
	description string
}{
	FeatureOnlineStatus:    {"true", "Mirror online status into Redis with a heartbeat TTL"},
	FeatureTypingIndicator: {"true", "Forward typing and stop_typing events"},
}

// SystemSettingsService 系统配置服务
type SystemSettingsService struct {
	store           *store.Store
	settingsCache   map[string]string
	settingsCacheMu sync.RWMutex
}

func NewSystemSettingsService(st *store.Store) *SystemSettingsService {
	service := &SystemSettingsService{
		store:         st,
		settingsCache: make(map[string]string),
	}
	return service
}

// EnsureDefaults 为缺失的配置项写入默认值
func (s *SystemSettingsService) EnsureDefaults(ctx context.Context) error {
	existing, err := s.store.ListSettings(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, setting := range existing {
		seen[setting.SettingKey] = true
	}

	for key, def := range defaultSettings {
		if seen[key] {
			continue
		}
		setting := &model.SystemSettings{
			SettingKey:   key,
			SettingValue: def.value,
			Description:  def.description,
		}
		if err := s.store.CreateSetting(ctx, setting); err != nil {
			return err
		}
	}
	return nil
}

// LoadSettings 从数据库加载所有配置到内存缓存
func (s *SystemSettingsService) LoadSettings(ctx context.Context) error {
	settings, err := s.store.ListSettings(ctx)
	if err != nil {
		return err
	}

	cache := make(map[string]string, len(settings))
	for _, setting := range settings {
		cache[setting.SettingKey] = setting.SettingValue
	}

	s.settingsCacheMu.Lock()
	s.settingsCache = cache
	s.settingsCacheMu.Unlock()

	return nil
}

// GetSetting 获取配置值（从缓存）
func (s *SystemSettingsService) GetSetting(key string) (string, bool) {
	s.settingsCacheMu.RLock()
	defer s.settingsCacheMu.RUnlock()

	value, exists := s.settingsCache[key]
	return value, exists
}

// GetBoolSetting 获取布尔类型配置
func (s *SystemSettingsService) GetBoolSetting(key string, defaultValue bool) bool {
	value, exists := s.GetSetting(key)
	if !exists {
		return defaultValue
	}
	return value == "true"
}

// IsFeatureEnabled 检查功能是否启用，未配置时使用内置默认值
func (s *SystemSettingsService) IsFeatureEnabled(featureKey string) bool {
	def, ok := defaultSettings[featureKey]
	return s.GetBoolSetting(featureKey, ok && def.value == "true")
}

// UpdateSetting 更新配置（同时更新数据库和缓存）
func (s *SystemSettingsService) UpdateSetting(ctx context.Context, key, value string) error {
	found, err := s.store.UpdateSetting(ctx, key, value)
	if err != nil {
		return persistenceError("failed to update setting", err)
	}
	if !found {
		return &Error{Kind: KindNotFound, Code: "setting_not_found", Message: fmt.Sprintf("setting key not found: %s", key)}
	}

	s.settingsCacheMu.Lock()
	s.settingsCache[key] = value
	s.settingsCacheMu.Unlock()

	return nil
}

// GetAllSettings 获取所有配置
func (s *SystemSettingsService) GetAllSettings() map[string]string {
	s.settingsCacheMu.RLock()
	defer s.settingsCacheMu.RUnlock()

	// 返回缓存的副本
	result := make(map[string]string, len(s.settingsCache))
	for k, v := range s.settingsCache {
		result[k] = v
	}
	return result
}
