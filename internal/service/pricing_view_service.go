package service

import (
	"context"
	"strings"
	"time"

	"github.com/tourdesk-next/internal/cache"
	"github.com/tourdesk-next/internal/config"
	"github.com/tourdesk-next/internal/constants"
	"github.com/tourdesk-next/internal/logger"
	"github.com/tourdesk-next/internal/metrics"
	"github.com/tourdesk-next/internal/models"
	"github.com/tourdesk-next/internal/pricing"
	"github.com/tourdesk-next/internal/repository"
)

// PricingViewService 日历、列表与保存预览
//
// 三个视图都走同一条流程：日期规范化 → 索引查找 → 选出生效规则 → 合并子选项 → 计算。
type PricingViewService struct {
	productRepo repository.ProductRepository
	channelRepo repository.ChannelRepository
	choiceRepo  repository.ProductChoiceRepository
	loader      *pricingLoader
	engine      *pricing.Engine
	cfg         config.PricingConfig
	now         func() time.Time
}

// NewPricingViewService 创建定价视图服务
func NewPricingViewService(
	productRepo repository.ProductRepository,
	channelRepo repository.ChannelRepository,
	choiceRepo repository.ProductChoiceRepository,
	ruleRepo repository.PricingRuleRepository,
	indexCache *cache.IndexCache,
	engine *pricing.Engine,
	cfg config.PricingConfig,
) *PricingViewService {
	if engine == nil {
		engine = pricing.NewEngine(pricing.NewResolver(cfg.SelfChannelPrefix, nil))
	}
	return &PricingViewService{
		productRepo: productRepo,
		channelRepo: channelRepo,
		choiceRepo:  choiceRepo,
		loader:      newPricingLoader(ruleRepo, indexCache),
		engine:      engine,
		cfg:         cfg,
		now:         time.Now,
	}
}

// PricingViewQuery 日历/列表查询条件
type PricingViewQuery struct {
	ProductID   uint
	ChannelID   string
	ChannelType string
	From        string
	To          string
	ChoiceID    string
	Category    string
	Locale      string
}

// CalendarView 日历视图
type CalendarView struct {
	ProductID   uint           `json:"product_id"`
	ChannelID   string         `json:"channel_id"`
	ChannelType string         `json:"channel_type"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	Cells       []CalendarCell `json:"cells"`
}

// CalendarCell 日历单元格；没有规则的日期只有 has_rule=false，不输出价格
type CalendarCell struct {
	Date             string           `json:"date"`
	Weekday          int              `json:"weekday"`
	HasRule          bool             `json:"has_rule"`
	RuleID           string           `json:"rule_id,omitempty"`
	ChannelID        string           `json:"channel_id,omitempty"`
	ChoiceID         string           `json:"choice_id,omitempty"`
	MaxSalePrice     *models.Money    `json:"max_sale_price,omitempty"`
	DiscountPrice    *models.Money    `json:"discount_price,omitempty"`
	NetPrice         *models.Money    `json:"net_price,omitempty"`
	NotIncludedPrice *models.Money    `json:"not_included_price,omitempty"`
	Choices          []CalendarChoice `json:"choices,omitempty"`
}

// CalendarChoice 单元格内的子选项价格
type CalendarChoice struct {
	ChoiceID      string       `json:"choice_id"`
	Name          string       `json:"name"`
	SourceRuleID  string       `json:"source_rule_id"`
	MaxSalePrice  models.Money `json:"max_sale_price"`
	DiscountPrice models.Money `json:"discount_price"`
	NetPrice      models.Money `json:"net_price"`
}

// ListRow 列表视图行：每个日期一行基础价，加上每个子选项一行
type ListRow struct {
	Date              string       `json:"date"`
	ChannelID         string       `json:"channel_id"`
	RuleID            string       `json:"rule_id"`
	ChoiceID          string       `json:"choice_id,omitempty"`
	ChoiceName        string       `json:"choice_name,omitempty"`
	AdultPrice        models.Money `json:"adult_price"`
	ChildPrice        models.Money `json:"child_price"`
	InfantPrice       models.Money `json:"infant_price"`
	NotIncludedPrice  models.Money `json:"not_included_price"`
	CommissionPercent string       `json:"commission_percent"`
	CouponPercent     string       `json:"coupon_percent"`
	MaxSalePrice      models.Money `json:"max_sale_price"`
	DiscountPrice     models.Money `json:"discount_price"`
	NetPrice          models.Money `json:"net_price"`
	UpdatedAt         string       `json:"updated_at,omitempty"`
}

// PreviewResult 保存预览
type PreviewResult struct {
	Date             string           `json:"date"`
	ChannelID        string           `json:"channel_id"`
	ChannelType      string           `json:"channel_type"`
	NotIncludedPrice models.Money     `json:"not_included_price"`
	Adult            PriceTriple      `json:"adult"`
	Child            PriceTriple      `json:"child"`
	Infant           PriceTriple      `json:"infant"`
	Choices          []CalendarChoice `json:"choices"`
}

// PriceTriple 计算结果的三个价格
type PriceTriple struct {
	MaxSalePrice  models.Money `json:"max_sale_price"`
	DiscountPrice models.Money `json:"discount_price"`
	NetPrice      models.Money `json:"net_price"`
}

func tripleOf(result pricing.Result) PriceTriple {
	return PriceTriple{
		MaxSalePrice:  models.NewMoneyFromDecimal(result.MaxSalePrice),
		DiscountPrice: models.NewMoneyFromDecimal(result.DiscountPrice),
		NetPrice:      models.NewMoneyFromDecimal(result.NetPrice),
	}
}

func moneyPtr(m models.Money) *models.Money {
	return &m
}

// CalendarCells 生成日历视图
func (s *PricingViewService) CalendarCells(ctx context.Context, query PricingViewQuery) (*CalendarView, error) {
	product, err := s.requireProduct(query.ProductID)
	if err != nil {
		return nil, err
	}
	window, err := resolveDateRange(query.From, query.To, s.cfg.MaxRangeDays, s.now())
	if err != nil {
		return nil, err
	}
	channelType := strings.ToUpper(strings.TrimSpace(query.ChannelType))
	channelID := strings.TrimSpace(query.ChannelID)
	choiceID := strings.TrimSpace(query.ChoiceID)

	cacheKey := cache.CalendarKey(product.ID, channelID, channelType, window.From, window.To, choiceID+"|"+query.Category+"|"+query.Locale)
	var cached CalendarView
	if hit, err := cache.GetCalendar(ctx, cacheKey, &cached); err != nil {
		logger.Warnw("pricing_calendar_cache_get_failed", "product_id", product.ID, "error", err)
	} else if hit {
		return &cached, nil
	}

	idx, err := s.loader.loadIndex(product.ID)
	if err != nil {
		return nil, err
	}
	policies := newPolicyCache(s.channelRepo, s.engine.Resolver())
	if err := policies.preload(channelIDsInRange(idx, window, channelID)); err != nil {
		return nil, err
	}
	names, err := s.choiceNames(product.ID, query.Locale)
	if err != nil {
		return nil, err
	}

	view := &CalendarView{
		ProductID:   product.ID,
		ChannelID:   channelID,
		ChannelType: channelType,
		From:        window.From,
		To:          window.To,
	}
	for _, day := range window.Days() {
		cell := CalendarCell{Date: day, Weekday: weekdayOf(day)}
		rulesForDate := idx.RulesFor(day)
		quote, ok := s.engine.QuoteRules(day, rulesForDate, pricing.QuoteRequest{
			Date:        day,
			ChannelID:   channelID,
			ChannelType: channelType,
			ChoiceID:    choiceID,
			Category:    query.Category,
			PolicyFor:   policies.policyFor(channelType),
		})
		if !ok {
			view.Cells = append(view.Cells, cell)
			continue
		}
		metrics.ObserveCalculation("calendar", quote.Policy.Type)

		triple := tripleOf(quote.Result)
		cell.HasRule = true
		cell.RuleID = quote.Rule.ID
		cell.ChannelID = quote.Rule.ChannelID
		cell.MaxSalePrice = moneyPtr(triple.MaxSalePrice)
		cell.DiscountPrice = moneyPtr(triple.DiscountPrice)
		cell.NetPrice = moneyPtr(triple.NetPrice)
		cell.NotIncludedPrice = moneyPtr(models.NewMoneyFromDecimal(quote.NotIncludedPrice))
		if quote.Override != nil {
			cell.ChoiceID = quote.ChoiceID
		}
		cell.Choices = s.choiceQuotes(quote, rulesForDate, query.Category, names)
		view.Cells = append(view.Cells, cell)
	}

	ttl := time.Duration(s.cfg.CalendarCacheTTLSeconds) * time.Second
	if err := cache.SetCalendar(ctx, cacheKey, view, ttl); err != nil {
		logger.Warnw("pricing_calendar_cache_set_failed", "product_id", product.ID, "error", err)
	}
	return view, nil
}

// choiceQuotes 计算生效规则所在渠道的全部子选项价格
func (s *PricingViewService) choiceQuotes(quote pricing.Quote, rulesForDate []pricing.Rule, category string, names map[string]string) []CalendarChoice {
	merged := pricing.MergeChoiceOverrides(pricing.SameChannel(rulesForDate, quote.Rule.ChannelID))
	if len(merged.Choices) == 0 {
		return nil
	}
	choices := make([]CalendarChoice, 0, len(merged.Choices))
	for _, id := range merged.ChoiceIDs() {
		item := merged.Choices[id]
		override := item.Override
		triple := tripleOf(pricing.CalculateCategory(quote.Rule, quote.Policy, &override, category))
		choices = append(choices, CalendarChoice{
			ChoiceID:      id,
			Name:          choiceName(names, id),
			SourceRuleID:  item.SourceRule.ID,
			MaxSalePrice:  triple.MaxSalePrice,
			DiscountPrice: triple.DiscountPrice,
			NetPrice:      triple.NetPrice,
		})
	}
	return choices
}

// ListRows 生成列表视图，只输出有规则的日期
func (s *PricingViewService) ListRows(query PricingViewQuery) ([]ListRow, error) {
	product, err := s.requireProduct(query.ProductID)
	if err != nil {
		return nil, err
	}
	window, err := resolveDateRange(query.From, query.To, s.cfg.MaxRangeDays, s.now())
	if err != nil {
		return nil, err
	}
	channelType := strings.ToUpper(strings.TrimSpace(query.ChannelType))
	channelID := strings.TrimSpace(query.ChannelID)

	idx, err := s.loader.loadIndex(product.ID)
	if err != nil {
		return nil, err
	}
	policies := newPolicyCache(s.channelRepo, s.engine.Resolver())
	if err := policies.preload(channelIDsInRange(idx, window, channelID)); err != nil {
		return nil, err
	}
	names, err := s.choiceNames(product.ID, query.Locale)
	if err != nil {
		return nil, err
	}
	policyFor := policies.policyFor(channelType)

	rows := make([]ListRow, 0)
	for _, day := range idx.Dates() {
		if !window.Contains(day) {
			continue
		}
		rulesForDate := idx.RulesFor(day)
		rule, ok := s.engine.Resolver().Resolve(rulesForDate, channelID, channelType)
		if !ok {
			continue
		}
		policy := policyFor(rule)
		merged := pricing.MergeChoiceOverrides(pricing.SameChannel(rulesForDate, rule.ChannelID))

		base := rule
		if merged.Base != nil {
			base = *merged.Base
		}
		rows = append(rows, buildListRow(day, base, policy, nil, query.Category))
		metrics.ObserveCalculation("list", policy.Type)

		for _, id := range merged.ChoiceIDs() {
			override := merged.Choices[id].Override
			row := buildListRow(day, rule, policy, &override, query.Category)
			row.ChoiceID = id
			row.ChoiceName = choiceName(names, id)
			row.RuleID = merged.Choices[id].SourceRule.ID
			row.UpdatedAt = merged.Choices[id].SourceRule.UpdatedAt
			rows = append(rows, row)
			metrics.ObserveCalculation("list", policy.Type)
		}
	}
	return rows, nil
}

func buildListRow(day string, rule pricing.Rule, policy pricing.ChannelPolicy, override *pricing.ChoicePriceOverride, category string) ListRow {
	result := pricing.CalculateCategory(rule, policy, override, category)
	adult, child, infant := rule.AdultPrice, rule.ChildPrice, rule.InfantPrice
	if override != nil {
		adult, child, infant = override.AdultPrice, override.ChildPrice, override.InfantPrice
	}
	return ListRow{
		Date:              day,
		ChannelID:         rule.ChannelID,
		RuleID:            rule.ID,
		AdultPrice:        models.NewMoneyFromDecimal(adult),
		ChildPrice:        models.NewMoneyFromDecimal(child),
		InfantPrice:       models.NewMoneyFromDecimal(infant),
		NotIncludedPrice:  models.NewMoneyFromDecimal(pricing.ResolveNotIncludedPrice(rule, policy, override)),
		CommissionPercent: rule.CommissionPercent.String(),
		CouponPercent:     rule.CouponPercent.String(),
		MaxSalePrice:      models.NewMoneyFromDecimal(result.MaxSalePrice),
		DiscountPrice:     models.NewMoneyFromDecimal(result.DiscountPrice),
		NetPrice:          models.NewMoneyFromDecimal(result.NetPrice),
		UpdatedAt:         rule.UpdatedAt,
	}
}

// PreviewSave 预览未保存规则在目标渠道策略下的计算结果
func (s *PricingViewService) PreviewSave(input PricingRuleInput) (*PreviewResult, error) {
	if _, err := s.requireProduct(input.ProductID); err != nil {
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
	policy := pricing.PolicyFromRecord(channel.ToRecord())
	names, err := s.choiceNames(input.ProductID, input.Locale)
	if err != nil {
		return nil, err
	}

	preview := &PreviewResult{
		Date:             draft.Date,
		ChannelID:        draft.ChannelID,
		ChannelType:      policy.Type,
		NotIncludedPrice: models.NewMoneyFromDecimal(pricing.ResolveNotIncludedPrice(draft, policy, nil)),
		Adult:            tripleOf(pricing.CalculateCategory(draft, policy, nil, constants.PriceCategoryAdult)),
		Child:            tripleOf(pricing.CalculateCategory(draft, policy, nil, constants.PriceCategoryChild)),
		Infant:           tripleOf(pricing.CalculateCategory(draft, policy, nil, constants.PriceCategoryInfant)),
		Choices:          make([]CalendarChoice, 0, len(draft.ChoicesPricing)),
	}
	merged := pricing.MergeChoiceOverrides([]pricing.Rule{draft})
	for _, id := range merged.ChoiceIDs() {
		override := merged.Choices[id].Override
		triple := tripleOf(pricing.Calculate(draft, policy, &override))
		preview.Choices = append(preview.Choices, CalendarChoice{
			ChoiceID:      id,
			Name:          choiceName(names, id),
			MaxSalePrice:  triple.MaxSalePrice,
			DiscountPrice: triple.DiscountPrice,
			NetPrice:      triple.NetPrice,
		})
	}
	metrics.ObserveCalculation("preview", policy.Type)
	return preview, nil
}

func (s *PricingViewService) requireProduct(productID uint) (*models.Product, error) {
	if productID == 0 {
		return nil, ErrProductNotFound
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// choiceNames 子选项目录：choice_id → 名称
func (s *PricingViewService) choiceNames(productID uint, locale string) (map[string]string, error) {
	if s.choiceRepo == nil {
		return map[string]string{}, nil
	}
	choices, err := s.choiceRepo.ListByProduct(productID, false)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(locale) == "" {
		locale = s.cfg.DefaultLocale
	}
	names := make(map[string]string, len(choices))
	for _, choice := range choices {
		names[choice.ChoiceID] = choice.NameJSON.Text(locale)
	}
	return names, nil
}

// choiceName 目录中没有名称时直接显示 choice_id
func choiceName(names map[string]string, choiceID string) string {
	if name := strings.TrimSpace(names[choiceID]); name != "" {
		return name
	}
	return choiceID
}

// channelIDsInRange 收集区间内出现的渠道，供策略一次性加载
func channelIDsInRange(idx pricing.Index, window dateRange, requested string) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	if requested != "" {
		seen[requested] = struct{}{}
		ids = append(ids, requested)
	}
	for day, rules := range idx {
		if !window.Contains(day) {
			continue
		}
		for _, rule := range rules {
			if _, ok := seen[rule.ChannelID]; ok {
				continue
			}
			seen[rule.ChannelID] = struct{}{}
			ids = append(ids, rule.ChannelID)
		}
	}
	return ids
}
