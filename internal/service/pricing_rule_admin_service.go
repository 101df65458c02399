package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tourdesk-next/internal/cache"
	"github.com/tourdesk-next/internal/config"
	"github.com/tourdesk-next/internal/constants"
	"github.com/tourdesk-next/internal/logger"
	"github.com/tourdesk-next/internal/metrics"
	"github.com/tourdesk-next/internal/models"
	"github.com/tourdesk-next/internal/pricing"
	"github.com/tourdesk-next/internal/queue"
	"github.com/tourdesk-next/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// 与 pricing_rules 列精度一致：金额 decimal(20,2)，比例 decimal(10,4)
const (
	ruleAmountScale  int32 = 2
	rulePercentScale int32 = 4
)

// PricingRuleAdminService 价格规则保存服务
type PricingRuleAdminService struct {
	productRepo repository.ProductRepository
	channelRepo repository.ChannelRepository
	ruleRepo    repository.PricingRuleRepository
	jobRepo     repository.BatchSaveJobRepository
	loader      *pricingLoader
	queueClient *queue.Client
	cfg         config.PricingConfig
	now         func() time.Time
}

// NewPricingRuleAdminService 创建价格规则保存服务
func NewPricingRuleAdminService(
	productRepo repository.ProductRepository,
	channelRepo repository.ChannelRepository,
	ruleRepo repository.PricingRuleRepository,
	jobRepo repository.BatchSaveJobRepository,
	indexCache *cache.IndexCache,
	queueClient *queue.Client,
	cfg config.PricingConfig,
) *PricingRuleAdminService {
	return &PricingRuleAdminService{
		productRepo: productRepo,
		channelRepo: channelRepo,
		ruleRepo:    ruleRepo,
		jobRepo:     jobRepo,
		loader:      newPricingLoader(ruleRepo, indexCache),
		queueClient: queueClient,
		cfg:         cfg,
		now:         time.Now,
	}
}

// PricingRuleInput 保存/预览单条规则的输入
type PricingRuleInput struct {
	ProductID         uint            `json:"product_id"`
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
	ChoicesPricing    json.RawMessage `json:"choices_pricing,omitempty"`
	Locale            string          `json:"locale,omitempty"`
}

// BatchSaveInput 批量保存输入：日期列表或区间（可按星期过滤）× 渠道
type BatchSaveInput struct {
	ProductID  uint
	ChannelIDs []string
	Dates      []string
	From       string
	To         string
	Weekdays   []int
	Rule       PricingRuleInput
}

// RuleHistoryQuery 规则历史查询
type RuleHistoryQuery struct {
	ProductID uint
	ChannelID string
	Date      string
	Page      int
	PageSize  int
}

// validatePriceFields 校验价格字段并转为引擎规则（不含渠道与日期）
func validatePriceFields(input PricingRuleInput) (pricing.Rule, error) {
	amounts := []decimal.Decimal{
		input.AdultPrice, input.ChildPrice, input.InfantPrice,
		input.MarkupAmount, input.NotIncludedPrice,
	}
	for _, amount := range amounts {
		if amount.IsNegative() {
			return pricing.Rule{}, ErrPricingRuleInvalid
		}
	}
	percents := []decimal.Decimal{input.MarkupPercent, input.CouponPercent, input.CommissionPercent}
	for _, percent := range percents {
		if percent.IsNegative() || percent.GreaterThan(hundred) {
			return pricing.Rule{}, ErrPricingRuleInvalid
		}
	}

	var raw interface{}
	if len(input.ChoicesPricing) > 0 {
		raw = input.ChoicesPricing
	}
	choices, err := pricing.ParseChoicesPricing(raw)
	if err != nil {
		return pricing.Rule{}, fmt.Errorf("%w: %v", ErrPricingRuleInvalid, err)
	}
	for _, override := range choices {
		fields := []decimal.Decimal{
			override.AdultPrice, override.ChildPrice, override.InfantPrice,
			override.OTASalePrice, override.NotIncludedPrice,
		}
		for _, field := range fields {
			if field.IsNegative() {
				return pricing.Rule{}, ErrPricingRuleInvalid
			}
		}
	}

	return pricing.Rule{
		ProductID:         strconv.FormatUint(uint64(input.ProductID), 10),
		AdultPrice:        input.AdultPrice.Round(ruleAmountScale),
		ChildPrice:        input.ChildPrice.Round(ruleAmountScale),
		InfantPrice:       input.InfantPrice.Round(ruleAmountScale),
		MarkupAmount:      input.MarkupAmount.Round(ruleAmountScale),
		MarkupPercent:     input.MarkupPercent.Round(rulePercentScale),
		CouponPercent:     input.CouponPercent.Round(rulePercentScale),
		CommissionPercent: input.CommissionPercent.Round(rulePercentScale),
		NotIncludedPrice:  input.NotIncludedPrice.Round(ruleAmountScale),
		ChoicesPricing:    choices,
	}, nil
}

// validateRuleInput 校验完整输入，日期返回规范格式
func validateRuleInput(input PricingRuleInput) (pricing.Rule, error) {
	channelID := strings.TrimSpace(input.ChannelID)
	if channelID == "" {
		return pricing.Rule{}, ErrChannelInvalid
	}
	dateKey := pricing.NormalizeDate(input.Date)
	if dateKey == "" {
		return pricing.Rule{}, ErrPricingDateInvalid
	}
	rule, err := validatePriceFields(input)
	if err != nil {
		return pricing.Rule{}, err
	}
	rule.ChannelID = channelID
	rule.Date = dateKey
	return rule, nil
}

// encodeChoices 子选项价格按规范 JSON 存储，没有子选项时存空串
func encodeChoices(choices map[string]pricing.ChoicePriceOverride) (string, error) {
	if len(choices) == 0 {
		return "", nil
	}
	payload, err := json.Marshal(choices)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// ruleModelFrom 引擎规则转为待插入记录
func ruleModelFrom(productID uint, draft pricing.Rule) (*models.PricingRule, error) {
	choices, err := encodeChoices(draft.ChoicesPricing)
	if err != nil {
		return nil, err
	}
	return &models.PricingRule{
		ProductID:         productID,
		ChannelID:         draft.ChannelID,
		Date:              draft.Date,
		AdultPrice:        models.NewMoneyFromDecimal(draft.AdultPrice),
		ChildPrice:        models.NewMoneyFromDecimal(draft.ChildPrice),
		InfantPrice:       models.NewMoneyFromDecimal(draft.InfantPrice),
		MarkupAmount:      models.NewMoneyFromDecimal(draft.MarkupAmount),
		MarkupPercent:     draft.MarkupPercent,
		CouponPercent:     draft.CouponPercent,
		CommissionPercent: draft.CommissionPercent,
		NotIncludedPrice:  models.NewMoneyFromDecimal(draft.NotIncludedPrice),
		ChoicesPricing:    choices,
	}, nil
}

// Save 插入一条新规则（不修改已有记录）
func (s *PricingRuleAdminService) Save(ctx context.Context, input PricingRuleInput) (*models.PricingRule, error) {
	if err := s.requireProduct(input.ProductID); err != nil {
		return nil, err
	}
	draft, err := validateRuleInput(input)
	if err != nil {
		return nil, err
	}
	channel, err := s.channelRepo.GetByChannelID(draft.ChannelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, ErrChannelNotFound
	}

	rule, err := ruleModelFrom(input.ProductID, draft)
	if err != nil {
		return nil, err
	}
	if err := s.ruleRepo.Create(rule); err != nil {
		return nil, err
	}
	logger.Infow("pricing_rule_saved",
		"product_id", rule.ProductID,
		"channel_id", rule.ChannelID,
		"date", rule.Date,
		"rule_id", rule.ID,
	)
	s.invalidate(ctx, input.ProductID)
	return rule, nil
}

// BatchSave 创建批量保存任务；队列不可用时同步处理
func (s *PricingRuleAdminService) BatchSave(ctx context.Context, input BatchSaveInput) (*models.BatchSaveJob, error) {
	if err := s.requireProduct(input.ProductID); err != nil {
		return nil, err
	}
	template := input.Rule
	template.ProductID = input.ProductID
	if _, err := validatePriceFields(template); err != nil {
		return nil, err
	}

	channelIDs, err := s.resolveBatchChannels(input.ChannelIDs)
	if err != nil {
		return nil, err
	}
	dates, err := s.resolveBatchDates(input)
	if err != nil {
		return nil, err
	}
	total := len(channelIDs) * len(dates)
	if s.cfg.MaxBatchItems > 0 && total > s.cfg.MaxBatchItems {
		return nil, ErrBatchSaveTooLarge
	}

	payload, err := encodeBatchTemplate(template)
	if err != nil {
		return nil, err
	}
	items := make([]models.BatchSaveItem, 0, total)
	for _, dateKey := range dates {
		for _, channelID := range channelIDs {
			items = append(items, models.BatchSaveItem{
				ChannelID: channelID,
				Date:      dateKey,
				Status:    constants.BatchItemStatusPending,
			})
		}
	}
	job := &models.BatchSaveJob{
		JobNo:       uuid.NewString(),
		ProductID:   input.ProductID,
		Status:      constants.BatchSaveStatusPending,
		PayloadJSON: payload,
		TotalCount:  total,
		Items:       items,
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, err
	}
	logger.Infow("pricing_batch_job_created",
		"job_id", job.ID,
		"job_no", job.JobNo,
		"product_id", job.ProductID,
		"total", total,
	)

	if s.queueClient != nil && s.queueClient.Enabled() {
		err := s.queueClient.EnqueuePricingBatchSave(ctx, queue.PricingBatchSavePayload{JobID: job.ID, JobNo: job.JobNo})
		if err == nil {
			return s.GetBatchJob(job.ID)
		}
		logger.Errorw("pricing_batch_enqueue_failed",
			"job_id", job.ID,
			"job_no", job.JobNo,
			"error", err,
		)
	}
	return s.ProcessBatch(ctx, job.ID)
}

func (s *PricingRuleAdminService) resolveBatchChannels(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	channelIDs := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		channelIDs = append(channelIDs, id)
	}
	if len(channelIDs) == 0 {
		return nil, ErrBatchSaveInvalid
	}
	channels, err := s.channelRepo.ListByChannelIDs(channelIDs)
	if err != nil {
		return nil, err
	}
	if len(channels) != len(channelIDs) {
		return nil, ErrChannelNotFound
	}
	return channelIDs, nil
}

func (s *PricingRuleAdminService) resolveBatchDates(input BatchSaveInput) ([]string, error) {
	var candidates []string
	if len(input.Dates) > 0 {
		for _, raw := range input.Dates {
			dateKey := pricing.NormalizeDate(raw)
			if dateKey == "" {
				return nil, ErrPricingDateInvalid
			}
			candidates = append(candidates, dateKey)
		}
	} else {
		if strings.TrimSpace(input.From) == "" || strings.TrimSpace(input.To) == "" {
			return nil, ErrBatchSaveInvalid
		}
		window, err := resolveDateRange(input.From, input.To, s.cfg.MaxRangeDays, s.now())
		if err != nil {
			return nil, err
		}
		candidates = window.Days()
	}

	weekdays := make(map[int]struct{}, len(input.Weekdays))
	for _, day := range input.Weekdays {
		if day < 0 || day > 6 {
			return nil, ErrBatchSaveInvalid
		}
		weekdays[day] = struct{}{}
	}

	seen := make(map[string]struct{}, len(candidates))
	dates := make([]string, 0, len(candidates))
	for _, dateKey := range candidates {
		if _, ok := seen[dateKey]; ok {
			continue
		}
		if len(weekdays) > 0 {
			if _, ok := weekdays[weekdayOf(dateKey)]; !ok {
				continue
			}
		}
		seen[dateKey] = struct{}{}
		dates = append(dates, dateKey)
	}
	if len(dates) == 0 {
		return nil, ErrBatchSaveInvalid
	}
	sort.Strings(dates)
	return dates, nil
}

func encodeBatchTemplate(template PricingRuleInput) (models.JSON, error) {
	template.ChannelID = ""
	template.Date = ""
	template.Locale = ""
	raw, err := json.Marshal(template)
	if err != nil {
		return nil, err
	}
	payload := models.JSON{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func decodeBatchTemplate(payload models.JSON) (PricingRuleInput, error) {
	var template PricingRuleInput
	raw, err := json.Marshal(payload)
	if err != nil {
		return template, err
	}
	if err := json.Unmarshal(raw, &template); err != nil {
		return template, err
	}
	return template, nil
}

// ProcessBatch 逐条处理任务中未完成的明细，可重复调用
func (s *PricingRuleAdminService) ProcessBatch(ctx context.Context, jobID uint) (*models.BatchSaveJob, error) {
	job, err := s.claimJob(jobID)
	if err != nil {
		return nil, err
	}
	if isBatchTerminal(job.Status) {
		return s.GetBatchJob(jobID)
	}

	template, err := decodeBatchTemplate(job.PayloadJSON)
	if err != nil {
		logger.Errorw("pricing_batch_payload_invalid", "job_id", jobID, "error", err)
		if updateErr := s.jobRepo.UpdateStatus(jobID, constants.BatchSaveStatusFailed, map[string]interface{}{
			"error_message": err.Error(),
			"finished_at":   s.now(),
		}); updateErr != nil {
			return nil, updateErr
		}
		return s.GetBatchJob(jobID)
	}
	template.ProductID = job.ProductID

	items, err := s.jobRepo.ListPendingItems(jobID)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			// 剩余明细保持 pending，由恢复任务继续
			logger.Warnw("pricing_batch_interrupted", "job_id", jobID, "error", err)
			return nil, err
		}
		s.processItem(jobID, template, item)
	}

	if err := s.finishJob(jobID); err != nil {
		return nil, err
	}
	s.invalidate(ctx, job.ProductID)
	return s.GetBatchJob(jobID)
}

// claimJob 加锁读取任务，pending 状态置为 processing
func (s *PricingRuleAdminService) claimJob(jobID uint) (*models.BatchSaveJob, error) {
	var claimed *models.BatchSaveJob
	err := s.jobRepo.Transaction(func(tx *gorm.DB) error {
		jobRepo := s.jobRepo.WithTx(tx)
		job, err := jobRepo.LockByID(jobID)
		if err != nil {
			return err
		}
		if job == nil {
			return ErrBatchJobNotFound
		}
		if job.Status == constants.BatchSaveStatusPending {
			fields := map[string]interface{}{}
			if job.StartedAt == nil {
				fields["started_at"] = s.now()
			}
			if err := jobRepo.UpdateStatus(jobID, constants.BatchSaveStatusProcessing, fields); err != nil {
				return err
			}
			job.Status = constants.BatchSaveStatusProcessing
		}
		claimed = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (s *PricingRuleAdminService) processItem(jobID uint, template PricingRuleInput, item models.BatchSaveItem) {
	input := template
	input.ChannelID = item.ChannelID
	input.Date = item.Date

	err := s.saveItem(jobID, input, item.ID)
	if err == nil {
		metrics.BatchItems.WithLabelValues(constants.BatchItemStatusSaved).Inc()
		return
	}

	logger.Warnw("pricing_batch_item_failed",
		"job_id", jobID,
		"item_id", item.ID,
		"channel_id", item.ChannelID,
		"date", item.Date,
		"error", err,
	)
	metrics.BatchItems.WithLabelValues(constants.BatchItemStatusFailed).Inc()
	if markErr := s.jobRepo.MarkItemFailed(item.ID, err.Error()); markErr != nil {
		logger.Errorw("pricing_batch_item_mark_failed", "job_id", jobID, "item_id", item.ID, "error", markErr)
		return
	}
	if countErr := s.jobRepo.IncrementCounters(jobID, 0, 1); countErr != nil {
		logger.Errorw("pricing_batch_counter_failed", "job_id", jobID, "error", countErr)
	}
}

// saveItem 插入规则与更新明细状态在同一事务内完成
func (s *PricingRuleAdminService) saveItem(jobID uint, input PricingRuleInput, itemID uint) error {
	draft, err := validateRuleInput(input)
	if err != nil {
		return err
	}
	rule, err := ruleModelFrom(input.ProductID, draft)
	if err != nil {
		return err
	}
	rule.BatchJobID = &jobID
	return s.jobRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.ruleRepo.WithTx(tx).Create(rule); err != nil {
			return err
		}
		jobRepo := s.jobRepo.WithTx(tx)
		if err := jobRepo.MarkItemSaved(itemID, rule.ID); err != nil {
			return err
		}
		return jobRepo.IncrementCounters(jobID, 1, 0)
	})
}

// finishJob 按计数确定最终状态
func (s *PricingRuleAdminService) finishJob(jobID uint) error {
	job, err := s.jobRepo.GetByID(jobID)
	if err != nil {
		return err
	}
	if job == nil {
		return ErrBatchJobNotFound
	}
	status := constants.BatchSaveStatusCompleted
	switch {
	case job.FailedCount > 0 && job.SavedCount == 0:
		status = constants.BatchSaveStatusFailed
	case job.FailedCount > 0:
		status = constants.BatchSaveStatusPartial
	}
	logger.Infow("pricing_batch_job_finished",
		"job_id", jobID,
		"status", status,
		"saved", job.SavedCount,
		"failed", job.FailedCount,
	)
	return s.jobRepo.UpdateStatus(jobID, status, map[string]interface{}{
		"finished_at": s.now(),
	})
}

func isBatchTerminal(status string) bool {
	switch status {
	case constants.BatchSaveStatusCompleted, constants.BatchSaveStatusPartial, constants.BatchSaveStatusFailed:
		return true
	}
	return false
}

// ResumeStalled 继续处理长时间未更新的任务，返回处理的任务数
func (s *PricingRuleAdminService) ResumeStalled(ctx context.Context, stalledFor time.Duration, limit int) (int, error) {
	jobs, err := s.jobRepo.ListStalled(s.now().Add(-stalledFor), limit)
	if err != nil {
		return 0, err
	}
	resumed := 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return resumed, err
		}
		if _, err := s.ProcessBatch(ctx, job.ID); err != nil {
			logger.Warnw("pricing_batch_resume_failed", "job_id", job.ID, "job_no", job.JobNo, "error", err)
			continue
		}
		resumed++
	}
	return resumed, nil
}

// GetBatchJob 查询任务进度（含明细）
func (s *PricingRuleAdminService) GetBatchJob(jobID uint) (*models.BatchSaveJob, error) {
	job, err := s.jobRepo.GetByIDWithItems(jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, ErrBatchJobNotFound
	}
	return job, nil
}

// GetRule 查询商品下的单条原始规则
func (s *PricingRuleAdminService) GetRule(productID, ruleID uint) (*models.PricingRule, error) {
	if err := s.requireProduct(productID); err != nil {
		return nil, err
	}
	rule, err := s.ruleRepo.GetByID(ruleID)
	if err != nil {
		return nil, err
	}
	if rule == nil || rule.ProductID != productID {
		return nil, ErrPricingRuleNotFound
	}
	return rule, nil
}

// ListRuleHistory 原始规则历史，最新在前
//
// 日期以多种文本格式存储，按规范化后的日期在内存中过滤。
func (s *PricingRuleAdminService) ListRuleHistory(query RuleHistoryQuery) ([]models.PricingRule, int64, error) {
	if err := s.requireProduct(query.ProductID); err != nil {
		return nil, 0, err
	}
	dateKey := ""
	if strings.TrimSpace(query.Date) != "" {
		dateKey = pricing.NormalizeDate(query.Date)
		if dateKey == "" {
			return nil, 0, ErrPricingDateInvalid
		}
	}
	repoQuery := repository.PricingRuleQuery{ProductID: query.ProductID}
	if channelID := strings.TrimSpace(query.ChannelID); channelID != "" {
		repoQuery.ChannelIDs = []string{channelID}
	}
	rows, err := s.ruleRepo.ListByProduct(repoQuery)
	if err != nil {
		return nil, 0, err
	}

	filtered := make([]models.PricingRule, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		if dateKey != "" && pricing.NormalizeDate(rows[i].Date) != dateKey {
			continue
		}
		filtered = append(filtered, rows[i])
	}
	total := int64(len(filtered))

	if query.PageSize <= 0 {
		return filtered, total, nil
	}
	page := query.Page
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * query.PageSize
	if start >= len(filtered) {
		return []models.PricingRule{}, total, nil
	}
	end := start + query.PageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

func (s *PricingRuleAdminService) requireProduct(productID uint) error {
	if productID == 0 {
		return ErrProductNotFound
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return nil
}

// invalidate 写入后清理索引与日历缓存，缓存失败不影响保存结果
func (s *PricingRuleAdminService) invalidate(ctx context.Context, productID uint) {
	s.loader.invalidate(productID)
	if _, err := cache.InvalidateCalendar(ctx, productID); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warnw("pricing_calendar_invalidate_failed", "product_id", productID, "error", err)
	}
}
