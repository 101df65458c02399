package admin

import (
	"encoding/json"
	"strings"

	handlershared "github.com/tourdesk-next/internal/http/handlers/shared"
	"github.com/tourdesk-next/internal/http/response"
	"github.com/tourdesk-next/internal/i18n"
	"github.com/tourdesk-next/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// PricingRuleRequest 价格规则请求（保存、预览与批量模板共用）
type PricingRuleRequest struct {
	ChannelID         string          `json:"channel_id"`
	Date              string          `json:"date"`
	AdultPrice        decimal.Decimal `json:"adult_price"`
	ChildPrice        decimal.Decimal `json:"child_price"`
	InfantPrice       decimal.Decimal `json:"infant_price"`
	MarkupAmount      decimal.Decimal `json:"markup_amount"`
	MarkupPercent     decimal.Decimal `json:"markup_percent"`
	CouponPercent     decimal.Decimal `json:"coupon_percent"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	NotIncludedPrice  decimal.Decimal `json:"not_included_price"`
	ChoicesPricing    json.RawMessage `json:"choices_pricing"`
}

func (req PricingRuleRequest) toInput(productID uint, locale string) service.PricingRuleInput {
	return service.PricingRuleInput{
		ProductID:         productID,
		ChannelID:         req.ChannelID,
		Date:              req.Date,
		AdultPrice:        req.AdultPrice,
		ChildPrice:        req.ChildPrice,
		InfantPrice:       req.InfantPrice,
		MarkupAmount:      req.MarkupAmount,
		MarkupPercent:     req.MarkupPercent,
		CouponPercent:     req.CouponPercent,
		CommissionPercent: req.CommissionPercent,
		NotIncludedPrice:  req.NotIncludedPrice,
		ChoicesPricing:    req.ChoicesPricing,
		Locale:            locale,
	}
}

// BatchSavePricingRequest 批量保存请求
type BatchSavePricingRequest struct {
	ChannelIDs []string           `json:"channel_ids" binding:"required"`
	Dates      []string           `json:"dates"`
	From       string             `json:"from"`
	To         string             `json:"to"`
	Weekdays   []int              `json:"weekdays"`
	Rule       PricingRuleRequest `json:"rule"`
}

func pricingViewQuery(c *gin.Context, productID uint) service.PricingViewQuery {
	return service.PricingViewQuery{
		ProductID:   productID,
		ChannelID:   strings.TrimSpace(c.Query("channel_id")),
		ChannelType: strings.ToUpper(strings.TrimSpace(c.Query("channel_type"))),
		From:        strings.TrimSpace(c.Query("from")),
		To:          strings.TrimSpace(c.Query("to")),
		ChoiceID:    strings.TrimSpace(c.Query("choice_id")),
		Category:    strings.TrimSpace(c.Query("category")),
		Locale:      i18n.ResolveLocale(c),
	}
}

// GetPricingCalendar 获取价格日历
func (h *Handler) GetPricingCalendar(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	view, err := h.PricingViewService.CalendarCells(c.Request.Context(), pricingViewQuery(c, productID))
	if err != nil {
		respondWithMappedError(c, err, pricingErrorRules, "error.pricing_fetch_failed")
		return
	}
	response.Success(c, view)
}

// GetPricingList 获取价格列表
func (h *Handler) GetPricingList(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.PricingViewService.ListRows(pricingViewQuery(c, productID))
	if err != nil {
		respondWithMappedError(c, err, pricingErrorRules, "error.pricing_fetch_failed")
		return
	}
	response.Success(c, rows)
}

// PreviewPricingRule 预览未保存规则的计算结果
func (h *Handler) PreviewPricingRule(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req PricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	result, err := h.PricingViewService.PreviewSave(req.toInput(productID, i18n.ResolveLocale(c)))
	if err != nil {
		respondWithMappedError(c, err, pricingErrorRules, "error.pricing_fetch_failed")
		return
	}
	response.Success(c, result)
}

// SavePricingRule 保存单条价格规则
func (h *Handler) SavePricingRule(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req PricingRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rule, err := h.PricingRuleAdminService.Save(c.Request.Context(), req.toInput(productID, i18n.ResolveLocale(c)))
	if err != nil {
		respondWithMappedError(c, err, pricingErrorRules, "error.pricing_save_failed")
		return
	}
	response.Success(c, rule)
}

// BatchSavePricingRules 批量保存价格规则
func (h *Handler) BatchSavePricingRules(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req BatchSavePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	job, err := h.PricingRuleAdminService.BatchSave(c.Request.Context(), service.BatchSaveInput{
		ProductID:  productID,
		ChannelIDs: req.ChannelIDs,
		Dates:      req.Dates,
		From:       req.From,
		To:         req.To,
		Weekdays:   req.Weekdays,
		Rule:       req.Rule.toInput(productID, i18n.ResolveLocale(c)),
	})
	if err != nil {
		respondWithMappedError(c, err, pricingErrorRules, "error.pricing_save_failed")
		return
	}
	requestLog(c).Infow("admin_pricing_batch_submitted",
		"product_id", productID,
		"job_id", job.ID,
		"job_no", job.JobNo,
		"status", job.Status,
	)
	response.Success(c, job)
}

// GetPricingRuleHistory 获取原始规则历史
func (h *Handler) GetPricingRuleHistory(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, pageSize := handlershared.PaginationFromQuery(c)
	rules, total, err := h.PricingRuleAdminService.ListRuleHistory(service.RuleHistoryQuery{
		ProductID: productID,
		ChannelID: strings.TrimSpace(c.Query("channel_id")),
		Date:      strings.TrimSpace(c.Query("date")),
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		respondWithMappedError(c, err, pricingErrorRules, "error.pricing_fetch_failed")
		return
	}
	response.SuccessWithPage(c, rules, handlershared.BuildPagination(page, pageSize, total))
}

// GetPricingRule 查询单条原始规则
func (h *Handler) GetPricingRule(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ruleID, ok := parseIDParam(c, "rule_id")
	if !ok {
		return
	}
	rule, err := h.PricingRuleAdminService.GetRule(productID, ruleID)
	if err != nil {
		respondWithMappedError(c, err, pricingErrorRules, "error.pricing_fetch_failed")
		return
	}
	response.Success(c, rule)
}

// GetBatchSaveJob 查询批量保存进度
func (h *Handler) GetBatchSaveJob(c *gin.Context) {
	jobID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	job, err := h.PricingRuleAdminService.GetBatchJob(jobID)
	if err != nil {
		respondWithMappedError(c, err, pricingErrorRules, "error.batch_job_fetch_failed")
		return
	}
	response.Success(c, job)
}
