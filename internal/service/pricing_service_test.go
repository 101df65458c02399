package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tourdesk-next/internal/cache"
	"github.com/tourdesk-next/internal/config"
	"github.com/tourdesk-next/internal/constants"
	"github.com/tourdesk-next/internal/models"
	"github.com/tourdesk-next/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type pricingTestEnv struct {
	db       *gorm.DB
	product  *models.Product
	views    *PricingViewService
	admin    *PricingRuleAdminService
	channels *ChannelService
	products *ProductService
}

func testPricingConfig() config.PricingConfig {
	return config.PricingConfig{
		SelfChannelPrefix:       constants.DefaultSelfChannelPrefix,
		IndexCacheTTLSeconds:    60,
		CalendarCacheTTLSeconds: 0,
		MaxBatchItems:           50,
		MaxRangeDays:            400,
		DefaultLocale:           "zh-CN",
	}
}

func setupPricingServiceTest(t *testing.T) *pricingTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateTables(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	cache.SetClientForTest(nil, "")

	cfg := testPricingConfig()
	productRepo := repository.NewProductRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	choiceRepo := repository.NewProductChoiceRepository(db)
	ruleRepo := repository.NewPricingRuleRepository(db)
	jobRepo := repository.NewBatchSaveJobRepository(db)
	indexCache := cache.NewIndexCache(time.Minute)

	env := &pricingTestEnv{
		db:       db,
		views:    NewPricingViewService(productRepo, channelRepo, choiceRepo, ruleRepo, indexCache, nil, cfg),
		admin:    NewPricingRuleAdminService(productRepo, channelRepo, ruleRepo, jobRepo, indexCache, nil, cfg),
		channels: NewChannelService(channelRepo),
		products: NewProductService(productRepo, choiceRepo),
	}

	product, err := env.products.Create(CreateProductInput{
		Slug:      "kyoto-day-tour",
		TitleJSON: map[string]interface{}{"zh-CN": "京都一日游", "en-US": "Kyoto Day Tour"},
	})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	env.product = product

	if _, err := env.channels.Create(ChannelInput{
		ChannelID:               "klook",
		Name:                    "Klook",
		Type:                    "ota",
		NotIncludedType:         constants.NotIncludedTypeAmountAndChoice,
		NotIncludedPrice:        decimal.NewFromInt(20),
		CommissionBasePriceOnly: true,
	}); err != nil {
		t.Fatalf("create klook channel failed: %v", err)
	}
	if _, err := env.channels.Create(ChannelInput{ChannelID: "self_web", Type: constants.ChannelTypeSelf}); err != nil {
		t.Fatalf("create self channel failed: %v", err)
	}
	if _, err := env.products.SaveChoice(context.Background(), product.ID, ChoiceInput{
		ChoiceID: "room_a",
		NameJSON: map[string]interface{}{"zh-CN": "海景房", "en-US": "Sea view"},
	}); err != nil {
		t.Fatalf("create choice failed: %v", err)
	}
	return env
}

func klookRuleInput(productID uint, date string) PricingRuleInput {
	return PricingRuleInput{
		ProductID:         productID,
		ChannelID:         "klook",
		Date:              date,
		AdultPrice:        decimal.NewFromInt(100),
		CouponPercent:     decimal.NewFromInt(10),
		CommissionPercent: decimal.NewFromInt(15),
		ChoicesPricing:    json.RawMessage(`{"room_a":{"adult_price":5,"ota_sale_price":"200"}}`),
	}
}

func assertMoney(t *testing.T, field string, got *models.Money, want string) {
	t.Helper()
	if got == nil {
		t.Fatalf("%s want %s got nil", field, want)
	}
	if !got.Decimal.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s want %s got %s", field, want, got.String())
	}
}

func TestPricingRuleSaveNormalizesAndAppends(t *testing.T) {
	env := setupPricingServiceTest(t)
	ctx := context.Background()

	first, err := env.admin.Save(ctx, klookRuleInput(env.product.ID, "2024/7/1"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if first.Date != "2024-07-01" {
		t.Fatalf("stored date want 2024-07-01 got %s", first.Date)
	}
	second, err := env.admin.Save(ctx, klookRuleInput(env.product.ID, "20240701"))
	if err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("save must insert a new rule")
	}

	var count int64
	if err := env.db.Model(&models.PricingRule{}).Count(&count).Error; err != nil {
		t.Fatalf("count rules failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("rules want 2 got %d", count)
	}
}

func TestPricingRuleSaveValidation(t *testing.T) {
	env := setupPricingServiceTest(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(input *PricingRuleInput)
		want   error
	}{
		{"missing product", func(in *PricingRuleInput) { in.ProductID = 999 }, ErrProductNotFound},
		{"unknown channel", func(in *PricingRuleInput) { in.ChannelID = "trip" }, ErrChannelNotFound},
		{"bad date", func(in *PricingRuleInput) { in.Date = "someday" }, ErrPricingDateInvalid},
		{"negative price", func(in *PricingRuleInput) { in.AdultPrice = decimal.NewFromInt(-1) }, ErrPricingRuleInvalid},
		{"percent over 100", func(in *PricingRuleInput) { in.CouponPercent = decimal.NewFromInt(101) }, ErrPricingRuleInvalid},
		{"broken choices", func(in *PricingRuleInput) { in.ChoicesPricing = json.RawMessage(`[1,2]`) }, ErrPricingRuleInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := klookRuleInput(env.product.ID, "2024-07-01")
			tc.mutate(&input)
			if _, err := env.admin.Save(ctx, input); !errors.Is(err, tc.want) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}
}

func TestCalendarCellsRendersRulesAndGaps(t *testing.T) {
	env := setupPricingServiceTest(t)
	ctx := context.Background()
	if _, err := env.admin.Save(ctx, klookRuleInput(env.product.ID, "2024-07-01")); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	view, err := env.views.CalendarCells(ctx, PricingViewQuery{
		ProductID: env.product.ID,
		ChannelID: "klook",
		From:      "2024-07-01",
		To:        "2024-07-02",
		ChoiceID:  "room_a",
		Locale:    "en-US",
	})
	if err != nil {
		t.Fatalf("calendar failed: %v", err)
	}
	if len(view.Cells) != 2 {
		t.Fatalf("cells want 2 got %d", len(view.Cells))
	}

	cell := view.Cells[0]
	if !cell.HasRule || cell.ChannelID != "klook" || cell.ChoiceID != "room_a" {
		t.Fatalf("unexpected first cell %+v", cell)
	}
	assertMoney(t, "max_sale_price", cell.MaxSalePrice, "200")
	assertMoney(t, "discount_price", cell.DiscountPrice, "180")
	assertMoney(t, "net_price", cell.NetPrice, "178")
	if len(cell.Choices) != 1 || cell.Choices[0].Name != "Sea view" {
		t.Fatalf("choice list want Sea view got %+v", cell.Choices)
	}

	gap := view.Cells[1]
	if gap.HasRule || gap.MaxSalePrice != nil || gap.NetPrice != nil {
		t.Fatalf("day without rule should carry no prices, got %+v", gap)
	}
	if gap.Weekday != int(time.Tuesday) {
		t.Fatalf("2024-07-02 weekday want tuesday got %d", gap.Weekday)
	}
}

func TestCalendarCellsPicksUpNewRules(t *testing.T) {
	env := setupPricingServiceTest(t)
	ctx := context.Background()
	query := PricingViewQuery{ProductID: env.product.ID, ChannelID: "klook", From: "2024-07-01", To: "2024-07-01"}

	view, err := env.views.CalendarCells(ctx, query)
	if err != nil {
		t.Fatalf("calendar failed: %v", err)
	}
	if view.Cells[0].HasRule {
		t.Fatalf("no rule saved yet")
	}

	if _, err := env.admin.Save(ctx, klookRuleInput(env.product.ID, "2024-07-01")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	view, err = env.views.CalendarCells(ctx, query)
	if err != nil {
		t.Fatalf("calendar failed: %v", err)
	}
	if !view.Cells[0].HasRule {
		t.Fatalf("saved rule should appear on next read")
	}
	// 100 → 90 → 76.5
	assertMoney(t, "net_price", view.Cells[0].NetPrice, "76.5")
}

func TestCalendarCellsRangeValidation(t *testing.T) {
	env := setupPricingServiceTest(t)
	ctx := context.Background()

	_, err := env.views.CalendarCells(ctx, PricingViewQuery{ProductID: env.product.ID, From: "2024-07-02", To: "2024-07-01"})
	if !errors.Is(err, ErrPricingRangeInvalid) {
		t.Fatalf("want ErrPricingRangeInvalid got %v", err)
	}
	_, err = env.views.CalendarCells(ctx, PricingViewQuery{ProductID: env.product.ID, From: "2024-01-01", To: "2026-01-01"})
	if !errors.Is(err, ErrPricingRangeTooLarge) {
		t.Fatalf("want ErrPricingRangeTooLarge got %v", err)
	}
	_, err = env.views.CalendarCells(ctx, PricingViewQuery{ProductID: 999})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
}

func TestListRowsBaseAndChoiceRows(t *testing.T) {
	env := setupPricingServiceTest(t)
	ctx := context.Background()
	if _, err := env.admin.Save(ctx, klookRuleInput(env.product.ID, "2024-07-01")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	self := PricingRuleInput{
		ProductID:  env.product.ID,
		ChannelID:  "self_web",
		Date:       "2024-07-03",
		AdultPrice: decimal.NewFromInt(90),
	}
	if _, err := env.admin.Save(ctx, self); err != nil {
		t.Fatalf("save self rule failed: %v", err)
	}

	rows, err := env.views.ListRows(PricingViewQuery{
		ProductID:   env.product.ID,
		ChannelID:   "klook",
		ChannelType: constants.ChannelTypeOTA,
		From:        "2024-07-01",
		To:          "2024-07-31",
	})
	if err != nil {
		t.Fatalf("list rows failed: %v", err)
	}
	// 07-01: klook 基础行 + room_a；07-03 只有自营规则，OTA 请求不回退到自营
	if len(rows) != 2 {
		t.Fatalf("rows want 2 got %d: %+v", len(rows), rows)
	}
	if rows[0].ChoiceID != "" || rows[0].ChannelID != "klook" {
		t.Fatalf("first row should be klook base row, got %+v", rows[0])
	}
	if rows[1].ChoiceID != "room_a" || rows[1].ChoiceName != "海景房" {
		t.Fatalf("choice row want room_a/海景房 got %+v", rows[1])
	}
	if !rows[1].NetPrice.Decimal.Equal(decimal.NewFromInt(178)) {
		t.Fatalf("choice row net want 178 got %s", rows[1].NetPrice.String())
	}
}

func TestPreviewSaveUsesChannelPolicy(t *testing.T) {
	env := setupPricingServiceTest(t)

	preview, err := env.views.PreviewSave(klookRuleInput(env.product.ID, "2024-07-01"))
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if preview.ChannelType != constants.ChannelTypeOTA {
		t.Fatalf("channel type want OTA got %s", preview.ChannelType)
	}
	if !preview.Adult.NetPrice.Decimal.Equal(decimal.RequireFromString("76.5")) {
		t.Fatalf("adult net want 76.5 got %s", preview.Adult.NetPrice.String())
	}
	if len(preview.Choices) != 1 || !preview.Choices[0].NetPrice.Decimal.Equal(decimal.NewFromInt(178)) {
		t.Fatalf("choice preview want net 178 got %+v", preview.Choices)
	}

	var count int64
	env.db.Model(&models.PricingRule{}).Count(&count)
	if count != 0 {
		t.Fatalf("preview must not persist rules, got %d", count)
	}
}

func TestPreviewSaveMatchesStoredPrecision(t *testing.T) {
	env := setupPricingServiceTest(t)
	ctx := context.Background()

	input := klookRuleInput(env.product.ID, "2024-07-03")
	input.ChoicesPricing = nil
	input.AdultPrice = decimal.RequireFromString("10.005")
	input.CommissionPercent = decimal.RequireFromString("15.12345")

	preview, err := env.views.PreviewSave(input)
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	saved, err := env.admin.Save(ctx, input)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !saved.AdultPrice.Decimal.Equal(decimal.RequireFromString("10.01")) {
		t.Fatalf("adult price want 10.01 got %s", saved.AdultPrice.String())
	}
	if !saved.CommissionPercent.Equal(decimal.RequireFromString("15.1235")) {
		t.Fatalf("commission percent want 15.1235 got %s", saved.CommissionPercent.String())
	}

	view, err := env.views.CalendarCells(ctx, PricingViewQuery{
		ProductID: env.product.ID,
		ChannelID: "klook",
		From:      "2024-07-03",
		To:        "2024-07-03",
	})
	if err != nil {
		t.Fatalf("calendar failed: %v", err)
	}
	cell := view.Cells[0]
	assertMoney(t, "max_sale_price", cell.MaxSalePrice, preview.Adult.MaxSalePrice.String())
	assertMoney(t, "discount_price", cell.DiscountPrice, preview.Adult.DiscountPrice.String())
	assertMoney(t, "net_price", cell.NetPrice, preview.Adult.NetPrice.String())
}

func TestBatchSaveInlineWithWeekdays(t *testing.T) {
	env := setupPricingServiceTest(t)
	ctx := context.Background()

	job, err := env.admin.BatchSave(ctx, BatchSaveInput{
		ProductID:  env.product.ID,
		ChannelIDs: []string{"klook", "self_web", "klook"},
		From:       "2024-07-01",
		To:         "2024-07-14",
		Weekdays:   []int{int(time.Saturday)},
		Rule:       klookRuleInput(env.product.ID, ""),
	})
	if err != nil {
		t.Fatalf("batch save failed: %v", err)
	}
	if job.Status != constants.BatchSaveStatusCompleted {
		t.Fatalf("status want completed got %s", job.Status)
	}
	if job.TotalCount != 4 || job.SavedCount != 4 || job.FailedCount != 0 {
		t.Fatalf("counters want 4/4/0 got %d/%d/%d", job.TotalCount, job.SavedCount, job.FailedCount)
	}
	for _, item := range job.Items {
		if item.Status != constants.BatchItemStatusSaved || item.RuleID == nil {
			t.Fatalf("item should be saved with rule id, got %+v", item)
		}
		if item.Date != "2024-07-06" && item.Date != "2024-07-13" {
			t.Fatalf("unexpected batch date %s", item.Date)
		}
	}

	again, err := env.admin.ProcessBatch(ctx, job.ID)
	if err != nil {
		t.Fatalf("reprocess failed: %v", err)
	}
	if again.SavedCount != 4 {
		t.Fatalf("reprocessing a finished job must be a no-op, saved=%d", again.SavedCount)
	}
	var count int64
	env.db.Model(&models.PricingRule{}).Where("batch_job_id = ?", job.ID).Count(&count)
	if count != 4 {
		t.Fatalf("rules want 4 got %d", count)
	}
}

func TestBatchSaveRejectsInvalidInput(t *testing.T) {
	env := setupPricingServiceTest(t)
	ctx := context.Background()
	base := BatchSaveInput{
		ProductID:  env.product.ID,
		ChannelIDs: []string{"klook"},
		Dates:      []string{"2024-07-01"},
		Rule:       klookRuleInput(env.product.ID, ""),
	}

	noChannels := base
	noChannels.ChannelIDs = []string{" "}
	if _, err := env.admin.BatchSave(ctx, noChannels); !errors.Is(err, ErrBatchSaveInvalid) {
		t.Fatalf("want ErrBatchSaveInvalid got %v", err)
	}

	unknown := base
	unknown.ChannelIDs = []string{"klook", "trip"}
	if _, err := env.admin.BatchSave(ctx, unknown); !errors.Is(err, ErrChannelNotFound) {
		t.Fatalf("want ErrChannelNotFound got %v", err)
	}

	badDate := base
	badDate.Dates = []string{"2024-02-30"}
	if _, err := env.admin.BatchSave(ctx, badDate); !errors.Is(err, ErrPricingDateInvalid) {
		t.Fatalf("want ErrPricingDateInvalid got %v", err)
	}

	tooMany := base
	tooMany.Dates = nil
	tooMany.From = "2024-07-01"
	tooMany.To = "2024-09-30"
	if _, err := env.admin.BatchSave(ctx, tooMany); !errors.Is(err, ErrBatchSaveTooLarge) {
		t.Fatalf("want ErrBatchSaveTooLarge got %v", err)
	}
}

func createPendingJob(t *testing.T, env *pricingTestEnv, dates ...string) *models.BatchSaveJob {
	t.Helper()
	payload, err := encodeBatchTemplate(klookRuleInput(env.product.ID, ""))
	if err != nil {
		t.Fatalf("encode template failed: %v", err)
	}
	job := &models.BatchSaveJob{
		JobNo:       fmt.Sprintf("%s-job", strings.ReplaceAll(t.Name(), "/", "_")),
		ProductID:   env.product.ID,
		Status:      constants.BatchSaveStatusPending,
		PayloadJSON: payload,
		TotalCount:  len(dates),
	}
	for _, date := range dates {
		job.Items = append(job.Items, models.BatchSaveItem{
			ChannelID: "klook",
			Date:      date,
			Status:    constants.BatchItemStatusPending,
		})
	}
	if err := repository.NewBatchSaveJobRepository(env.db).Create(job); err != nil {
		t.Fatalf("create job failed: %v", err)
	}
	return job
}

func TestProcessBatchPartialFailure(t *testing.T) {
	env := setupPricingServiceTest(t)
	job := createPendingJob(t, env, "2024-07-01", "not-a-date")

	done, err := env.admin.ProcessBatch(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if done.Status != constants.BatchSaveStatusPartial {
		t.Fatalf("status want partial got %s", done.Status)
	}
	if done.SavedCount != 1 || done.FailedCount != 1 {
		t.Fatalf("counters want 1/1 got %d/%d", done.SavedCount, done.FailedCount)
	}
	if done.StartedAt == nil || done.FinishedAt == nil {
		t.Fatalf("job timestamps should be set")
	}
	for _, item := range done.Items {
		if item.Date == "not-a-date" && (item.Status != constants.BatchItemStatusFailed || item.ErrorMessage == "") {
			t.Fatalf("invalid date item should fail with reason, got %+v", item)
		}
	}
}

func TestResumeStalledJobs(t *testing.T) {
	env := setupPricingServiceTest(t)
	job := createPendingJob(t, env, "2024-07-01", "2024-07-02")
	if err := env.db.Model(&models.BatchSaveJob{}).Where("id = ?", job.ID).
		UpdateColumn("updated_at", time.Now().Add(-time.Hour)).Error; err != nil {
		t.Fatalf("backdate job failed: %v", err)
	}

	resumed, err := env.admin.ResumeStalled(context.Background(), 10*time.Minute, 10)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resumed != 1 {
		t.Fatalf("resumed want 1 got %d", resumed)
	}
	loaded, err := env.admin.GetBatchJob(job.ID)
	if err != nil {
		t.Fatalf("get job failed: %v", err)
	}
	if loaded.Status != constants.BatchSaveStatusCompleted || loaded.SavedCount != 2 {
		t.Fatalf("job want completed 2 saved, got %s %d", loaded.Status, loaded.SavedCount)
	}

	if _, err := env.admin.GetBatchJob(9999); !errors.Is(err, ErrBatchJobNotFound) {
		t.Fatalf("want ErrBatchJobNotFound got %v", err)
	}
}

func TestListRuleHistoryMatchesNormalizedDates(t *testing.T) {
	env := setupPricingServiceTest(t)
	ruleRepo := repository.NewPricingRuleRepository(env.db)
	raw := []models.PricingRule{
		{ProductID: env.product.ID, ChannelID: "klook", Date: "2024/07/01"},
		{ProductID: env.product.ID, ChannelID: "klook", Date: "2024-07-02"},
		{ProductID: env.product.ID, ChannelID: "self_web", Date: "20240701"},
		{ProductID: env.product.ID, ChannelID: "klook", Date: "July 1, 2024"},
	}
	for i := range raw {
		if err := ruleRepo.Create(&raw[i]); err != nil {
			t.Fatalf("create rule failed: %v", err)
		}
	}

	rows, total, err := env.admin.ListRuleHistory(RuleHistoryQuery{ProductID: env.product.ID, Date: "2024-7-1"})
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if total != 3 || len(rows) != 3 {
		t.Fatalf("history want 3 got total=%d len=%d", total, len(rows))
	}
	if rows[0].ID != raw[3].ID {
		t.Fatalf("newest rule should come first, got %d", rows[0].ID)
	}

	rows, total, err = env.admin.ListRuleHistory(RuleHistoryQuery{
		ProductID: env.product.ID,
		ChannelID: "klook",
		Date:      "2024-07-01",
		Page:      2,
		PageSize:  1,
	})
	if err != nil {
		t.Fatalf("paged history failed: %v", err)
	}
	if total != 2 || len(rows) != 1 || rows[0].ID != raw[0].ID {
		t.Fatalf("second page want rule %d got total=%d rows=%+v", raw[0].ID, total, rows)
	}

	if _, _, err := env.admin.ListRuleHistory(RuleHistoryQuery{ProductID: env.product.ID, Date: "nope"}); !errors.Is(err, ErrPricingDateInvalid) {
		t.Fatalf("want ErrPricingDateInvalid got %v", err)
	}
}

func TestGetRuleScopedToProduct(t *testing.T) {
	env := setupPricingServiceTest(t)
	ctx := context.Background()
	saved, err := env.admin.Save(ctx, klookRuleInput(env.product.ID, "2024-07-01"))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	rule, err := env.admin.GetRule(env.product.ID, saved.ID)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if rule.Date != "2024-07-01" || rule.ChannelID != "klook" {
		t.Fatalf("unexpected rule %+v", rule)
	}

	other, err := env.products.Create(CreateProductInput{Slug: "nara-walk", TitleJSON: map[string]interface{}{"en-US": "Nara Walk"}})
	if err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if _, err := env.admin.GetRule(other.ID, saved.ID); !errors.Is(err, ErrPricingRuleNotFound) {
		t.Fatalf("rule of another product want ErrPricingRuleNotFound got %v", err)
	}
	if _, err := env.admin.GetRule(env.product.ID, saved.ID+1); !errors.Is(err, ErrPricingRuleNotFound) {
		t.Fatalf("missing rule want ErrPricingRuleNotFound got %v", err)
	}
	if _, err := env.admin.GetRule(9999, saved.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("unknown product want ErrProductNotFound got %v", err)
	}
}
