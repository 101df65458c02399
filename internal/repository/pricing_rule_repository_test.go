package repository

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tourdesk-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupPricingRepositoryTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.MigrateTables(db); err != nil {
		t.Fatalf("migrate pricing models failed: %v", err)
	}
	return db
}

func newTestRule(productID uint, channelID, date string, adult int64) models.PricingRule {
	return models.PricingRule{
		ProductID:  productID,
		ChannelID:  channelID,
		Date:       date,
		AdultPrice: models.NewMoneyFromDecimal(decimal.NewFromInt(adult)),
	}
}

func TestPricingRuleRepositoryAppendsHistory(t *testing.T) {
	db := setupPricingRepositoryTest(t)
	repo := NewPricingRuleRepository(db)

	first := newTestRule(1, "klook", "2024-07-01", 100)
	second := newTestRule(1, "klook", "2024-07-01", 120)
	if err := repo.Create(&first); err != nil {
		t.Fatalf("create first rule failed: %v", err)
	}
	if err := repo.Create(&second); err != nil {
		t.Fatalf("create second rule failed: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("each save should insert a new row")
	}

	rules, err := repo.ListByProduct(PricingRuleQuery{ProductID: 1})
	if err != nil {
		t.Fatalf("list rules failed: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("rule history want 2 got %d", len(rules))
	}
	if rules[0].ID != first.ID || rules[1].ID != second.ID {
		t.Fatalf("rules should come back in insertion order")
	}
	if !rules[1].AdultPrice.Equal(decimal.NewFromInt(120)) {
		t.Fatalf("second rule price want 120 got %s", rules[1].AdultPrice.String())
	}
}

func TestPricingRuleRepositoryFiltersByChannel(t *testing.T) {
	db := setupPricingRepositoryTest(t)
	repo := NewPricingRuleRepository(db)

	batch := []models.PricingRule{
		newTestRule(1, "klook", "2024-07-01", 100),
		newTestRule(1, "self_web", "2024-07-01", 90),
		newTestRule(2, "klook", "2024-07-01", 50),
	}
	if err := repo.CreateBatch(batch); err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	rules, err := repo.ListByProduct(PricingRuleQuery{ProductID: 1, ChannelIDs: []string{"self_web"}})
	if err != nil {
		t.Fatalf("list rules failed: %v", err)
	}
	if len(rules) != 1 || rules[0].ChannelID != "self_web" {
		t.Fatalf("unexpected rules %+v", rules)
	}
}

func TestPricingRuleRepositoryFingerprint(t *testing.T) {
	db := setupPricingRepositoryTest(t)
	repo := NewPricingRuleRepository(db)

	empty, err := repo.Fingerprint(1)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if empty.Count != 0 || empty.MaxID != 0 {
		t.Fatalf("empty fingerprint unexpected: %+v", empty)
	}

	rule := newTestRule(1, "klook", "2024-07-01", 100)
	if err := repo.Create(&rule); err != nil {
		t.Fatalf("create rule failed: %v", err)
	}
	after, err := repo.Fingerprint(1)
	if err != nil {
		t.Fatalf("fingerprint failed: %v", err)
	}
	if after.Count != 1 || after.MaxID != rule.ID || after.MaxUpdatedAt == "" {
		t.Fatalf("fingerprint should change after insert: %+v", after)
	}
}

func TestPricingRuleRepositoryGetByIDNotFound(t *testing.T) {
	db := setupPricingRepositoryTest(t)
	rule, err := NewPricingRuleRepository(db).GetByID(99)
	if err != nil {
		t.Fatalf("get rule failed: %v", err)
	}
	if rule != nil {
		t.Fatalf("missing rule should return nil")
	}
}
