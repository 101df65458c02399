package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/tourdesk-next/internal/http/handlers/shared"
	"github.com/tourdesk-next/internal/http/response"
	"github.com/tourdesk-next/internal/models"
	"github.com/tourdesk-next/internal/repository"
	"github.com/tourdesk-next/internal/service"

	"github.com/gin-gonic/gin"
)

// ChannelRequest 创建/更新渠道请求
type ChannelRequest struct {
	ChannelID               string        `json:"channel_id" binding:"required"`
	Name                    string        `json:"name" binding:"required"`
	Type                    string        `json:"type"`
	NotIncludedType         string        `json:"not_included_type"`
	NotIncludedPrice        *models.Money `json:"not_included_price"`
	CommissionBasePriceOnly bool          `json:"commission_base_price_only"`
	CommissionPercent       *models.Money `json:"commission_percent"`
	IsActive                *bool         `json:"is_active"`
	SortOrder               int           `json:"sort_order"`
}

func (req ChannelRequest) toInput() service.ChannelInput {
	input := service.ChannelInput{
		ChannelID:               req.ChannelID,
		Name:                    req.Name,
		Type:                    req.Type,
		NotIncludedType:         req.NotIncludedType,
		CommissionBasePriceOnly: req.CommissionBasePriceOnly,
		IsActive:                req.IsActive,
		SortOrder:               req.SortOrder,
	}
	if req.NotIncludedPrice != nil {
		input.NotIncludedPrice = req.NotIncludedPrice.Decimal
	}
	if req.CommissionPercent != nil {
		input.CommissionPercent = req.CommissionPercent.Decimal
	}
	return input
}

// GetChannels 获取渠道列表
func (h *Handler) GetChannels(c *gin.Context) {
	page, pageSize := handlershared.PaginationFromQuery(c)
	filter := repository.ChannelListFilter{
		Page:     page,
		PageSize: pageSize,
		Type:     strings.ToUpper(strings.TrimSpace(c.Query("type"))),
		Search:   strings.TrimSpace(c.Query("search")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		filter.IsActive = &active
	}

	channels, total, err := h.ChannelService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.channel_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, channels, handlershared.BuildPagination(page, pageSize, total))
}

// GetChannel 获取渠道详情
func (h *Handler) GetChannel(c *gin.Context) {
	if _, ok := parseIDParam(c, "id"); !ok {
		return
	}
	channel, err := h.ChannelService.Get(c.Param("id"))
	if err != nil {
		respondWithMappedError(c, err, channelErrorRules, "error.channel_fetch_failed")
		return
	}
	response.Success(c, channel)
}

// CreateChannel 创建渠道
func (h *Handler) CreateChannel(c *gin.Context) {
	var req ChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	channel, err := h.ChannelService.Create(req.toInput())
	if err != nil {
		respondWithMappedError(c, err, channelErrorRules, "error.channel_save_failed")
		return
	}
	response.Success(c, channel)
}

// UpdateChannel 更新渠道
func (h *Handler) UpdateChannel(c *gin.Context) {
	if _, ok := parseIDParam(c, "id"); !ok {
		return
	}
	var req ChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	channel, err := h.ChannelService.Update(c.Request.Context(), c.Param("id"), req.toInput())
	if err != nil {
		respondWithMappedError(c, err, channelErrorRules, "error.channel_save_failed")
		return
	}
	response.Success(c, channel)
}
