package repository

import (
	"errors"
	"strings"

	"github.com/tourdesk-next/internal/models"

	"gorm.io/gorm"
)

// ChannelRepository 渠道数据访问接口
type ChannelRepository interface {
	List(filter ChannelListFilter) ([]models.Channel, int64, error)
	ListByChannelIDs(channelIDs []string) ([]models.Channel, error)
	GetByID(id string) (*models.Channel, error)
	GetByChannelID(channelID string) (*models.Channel, error)
	CountByChannelID(channelID string, excludeID *uint) (int64, error)
	Create(channel *models.Channel) error
	Update(channel *models.Channel) error
}

// GormChannelRepository GORM 实现
type GormChannelRepository struct {
	db *gorm.DB
}

// NewChannelRepository 创建渠道仓库
func NewChannelRepository(db *gorm.DB) *GormChannelRepository {
	return &GormChannelRepository{db: db}
}

// List 渠道列表
func (r *GormChannelRepository) List(filter ChannelListFilter) ([]models.Channel, int64, error) {
	var channels []models.Channel
	query := r.db.Model(&models.Channel{})

	if channelType := strings.ToUpper(strings.TrimSpace(filter.Type)); channelType != "" {
		query = query.Where("type = ?", channelType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	query = newKeywordSearch(r.db, []string{"channel_id", "name"}, nil).apply(query, filter.Search)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = paginate(query, filter.Page, filter.PageSize)

	if err := query.Order("sort_order DESC, id ASC").Find(&channels).Error; err != nil {
		return nil, 0, err
	}
	return channels, total, nil
}

// ListByChannelIDs 按渠道标识批量获取
func (r *GormChannelRepository) ListByChannelIDs(channelIDs []string) ([]models.Channel, error) {
	if len(channelIDs) == 0 {
		return []models.Channel{}, nil
	}
	var channels []models.Channel
	if err := r.db.Where("channel_id IN ?", channelIDs).Find(&channels).Error; err != nil {
		return nil, err
	}
	return channels, nil
}

// GetByID 根据主键获取渠道
func (r *GormChannelRepository) GetByID(id string) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.First(&channel, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

// GetByChannelID 根据渠道标识获取渠道
func (r *GormChannelRepository) GetByChannelID(channelID string) (*models.Channel, error) {
	var channel models.Channel
	if err := r.db.Where("channel_id = ?", channelID).First(&channel).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

// CountByChannelID 统计渠道标识占用数量
func (r *GormChannelRepository) CountByChannelID(channelID string, excludeID *uint) (int64, error) {
	var count int64
	query := r.db.Model(&models.Channel{}).Where("channel_id = ?", channelID)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Create 创建渠道
func (r *GormChannelRepository) Create(channel *models.Channel) error {
	return r.db.Create(channel).Error
}

// Update 更新渠道
func (r *GormChannelRepository) Update(channel *models.Channel) error {
	return r.db.Save(channel).Error
}
