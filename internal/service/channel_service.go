package service

import (
	"context"
	"strings"

	"github.com/tourdesk-next/internal/cache"
	"github.com/tourdesk-next/internal/constants"
	"github.com/tourdesk-next/internal/logger"
	"github.com/tourdesk-next/internal/models"
	"github.com/tourdesk-next/internal/repository"

	"github.com/shopspring/decimal"
)

// ChannelService 渠道业务服务
type ChannelService struct {
	repo repository.ChannelRepository
}

// NewChannelService 创建渠道服务
func NewChannelService(repo repository.ChannelRepository) *ChannelService {
	return &ChannelService{repo: repo}
}

// ChannelInput 创建/更新渠道输入
type ChannelInput struct {
	ChannelID               string
	Name                    string
	Type                    string
	NotIncludedType         string
	NotIncludedPrice        decimal.Decimal
	CommissionBasePriceOnly bool
	CommissionPercent       decimal.Decimal
	IsActive                *bool
	SortOrder               int
}

// List 渠道列表
func (s *ChannelService) List(filter repository.ChannelListFilter) ([]models.Channel, int64, error) {
	return s.repo.List(filter)
}

// Get 获取渠道
func (s *ChannelService) Get(id string) (*models.Channel, error) {
	channel, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrChannelNotFound
	}
	return channel, nil
}

// Create 创建渠道
func (s *ChannelService) Create(input ChannelInput) (*models.Channel, error) {
	normalized, err := normalizeChannelInput(input)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountByChannelID(normalized.ChannelID, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrChannelIDExists
	}

	channel := models.Channel{IsActive: true}
	applyChannelInput(&channel, normalized)
	if err := s.repo.Create(&channel); err != nil {
		return nil, err
	}
	return &channel, nil
}

// Update 更新渠道；策略变化会影响所有商品的计算结果，清空日历缓存
func (s *ChannelService) Update(ctx context.Context, id string, input ChannelInput) (*models.Channel, error) {
	channel, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrChannelNotFound
	}
	normalized, err := normalizeChannelInput(input)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountByChannelID(normalized.ChannelID, &channel.ID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrChannelIDExists
	}

	applyChannelInput(channel, normalized)
	if err := s.repo.Update(channel); err != nil {
		return nil, err
	}
	if _, err := cache.DelByPattern(ctx, constants.CacheKeyCalendarPrefix+":*"); err != nil {
		logger.Warnw("pricing_calendar_flush_failed", "channel_id", channel.ChannelID, "error", err)
	}
	return channel, nil
}

func normalizeChannelInput(input ChannelInput) (ChannelInput, error) {
	input.ChannelID = strings.TrimSpace(input.ChannelID)
	input.Name = strings.TrimSpace(input.Name)
	if input.ChannelID == "" || strings.ContainsAny(input.ChannelID, " :") {
		return input, ErrChannelInvalid
	}
	if input.Name == "" {
		input.Name = input.ChannelID
	}

	input.Type = strings.ToUpper(strings.TrimSpace(input.Type))
	switch input.Type {
	case "":
		input.Type = constants.ChannelTypeOTA
	case constants.ChannelTypeOTA, constants.ChannelTypeSelf:
	default:
		return input, ErrChannelInvalid
	}

	input.NotIncludedType = strings.ToLower(strings.TrimSpace(input.NotIncludedType))
	switch input.NotIncludedType {
	case "":
		input.NotIncludedType = constants.NotIncludedTypeNone
	case constants.NotIncludedTypeNone, constants.NotIncludedTypeAmountOnly, constants.NotIncludedTypeAmountAndChoice:
	default:
		return input, ErrChannelInvalid
	}

	if input.NotIncludedPrice.IsNegative() {
		return input, ErrChannelInvalid
	}
	if input.CommissionPercent.IsNegative() || input.CommissionPercent.GreaterThan(hundred) {
		return input, ErrChannelInvalid
	}
	return input, nil
}

func applyChannelInput(channel *models.Channel, input ChannelInput) {
	channel.ChannelID = input.ChannelID
	channel.Name = input.Name
	channel.Type = input.Type
	channel.NotIncludedType = input.NotIncludedType
	channel.NotIncludedPrice = models.NewMoneyFromDecimal(input.NotIncludedPrice)
	channel.CommissionBasePriceOnly = input.CommissionBasePriceOnly
	channel.CommissionPercent = input.CommissionPercent
	channel.SortOrder = input.SortOrder
	if input.IsActive != nil {
		channel.IsActive = *input.IsActive
	}
}
