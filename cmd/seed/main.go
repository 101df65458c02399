package main

import (
	"fmt"
	"time"

	"github.com/tourdesk-next/internal/config"
	"github.com/tourdesk-next/internal/constants"
	"github.com/tourdesk-next/internal/logger"
	"github.com/tourdesk-next/internal/models"
	"github.com/tourdesk-next/internal/repository"

	"github.com/shopspring/decimal"
)

func money(v float64) models.Money {
	return models.NewMoneyFromDecimal(decimal.NewFromFloat(v))
}

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.ToDBConfig()); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 渠道
	channels := []models.Channel{
		{
			ChannelID:               "klook",
			Name:                    "Klook",
			Type:                    constants.ChannelTypeOTA,
			NotIncludedType:         constants.NotIncludedTypeAmountAndChoice,
			NotIncludedPrice:        money(20),
			CommissionBasePriceOnly: true,
			CommissionPercent:       decimal.NewFromInt(15),
			IsActive:                true,
			SortOrder:               10,
		},
		{
			ChannelID:         "viator",
			Name:              "Viator",
			Type:              constants.ChannelTypeOTA,
			NotIncludedType:   constants.NotIncludedTypeAmountOnly,
			NotIncludedPrice:  money(15),
			CommissionPercent: decimal.NewFromInt(20),
			IsActive:          true,
			SortOrder:         20,
		},
		{
			ChannelID:       "self_web",
			Name:            "Official Website",
			Type:            constants.ChannelTypeSelf,
			NotIncludedType: constants.NotIncludedTypeNone,
			IsActive:        true,
			SortOrder:       30,
		},
	}
	for _, ch := range channels {
		var existing models.Channel
		if err := models.DB.Where("channel_id = ?", ch.ChannelID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&ch).Error; err != nil {
				stdLog.Printf("Failed to create channel %s: %v", ch.ChannelID, err)
			} else {
				stdLog.Printf("Created channel: %s", ch.ChannelID)
			}
		} else {
			stdLog.Printf("Channel already exists: %s", ch.ChannelID)
		}
	}

	// 商品
	products := []models.Product{
		{
			Slug: "kyoto-day-tour",
			TitleJSON: models.JSON(map[string]interface{}{
				"zh-CN": "京都一日游",
				"en-US": "Kyoto Day Tour",
			}),
			IsActive:  true,
			SortOrder: 10,
		},
		{
			Slug: "mt-fuji-express",
			TitleJSON: models.JSON(map[string]interface{}{
				"zh-CN": "富士山直通车",
				"en-US": "Mt. Fuji Express",
			}),
			IsActive:  true,
			SortOrder: 20,
		},
	}
	productIDs := map[string]uint{}
	for _, p := range products {
		var existing models.Product
		if err := models.DB.Where("slug = ?", p.Slug).First(&existing).Error; err != nil {
			if err := models.DB.Create(&p).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", p.Slug, err)
				continue
			}
			stdLog.Printf("Created product: %s", p.Slug)
			productIDs[p.Slug] = p.ID
		} else {
			stdLog.Printf("Product already exists: %s", p.Slug)
			productIDs[p.Slug] = existing.ID
		}
	}
	kyotoID := productIDs["kyoto-day-tour"]
	if kyotoID == 0 {
		stdLog.Fatalf("Seed product kyoto-day-tour missing")
	}

	// 子选项
	choices := []models.ProductChoice{
		{
			ProductID: kyotoID,
			ChoiceID:  "lunch_set",
			NameJSON: models.JSON(map[string]interface{}{
				"zh-CN": "含午餐",
				"en-US": "With lunch",
			}),
			IsActive:  true,
			SortOrder: 10,
		},
		{
			ProductID: kyotoID,
			ChoiceID:  "kimono",
			NameJSON: models.JSON(map[string]interface{}{
				"zh-CN": "和服体验",
				"en-US": "Kimono experience",
			}),
			IsActive:  true,
			SortOrder: 20,
		},
	}
	for _, choice := range choices {
		var existing models.ProductChoice
		if err := models.DB.Where("product_id = ? AND choice_id = ?", choice.ProductID, choice.ChoiceID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&choice).Error; err != nil {
				stdLog.Printf("Failed to create choice %s: %v", choice.ChoiceID, err)
			} else {
				stdLog.Printf("Created choice: %s", choice.ChoiceID)
			}
		}
	}

	// 价格规则：日期写法故意不统一，用于演示日期规范化
	start := time.Now().AddDate(0, 0, 1)
	rules := []models.PricingRule{
		{
			ProductID:         kyotoID,
			ChannelID:         "klook",
			Date:              start.Format("2006-01-02"),
			AdultPrice:        money(100),
			ChildPrice:        money(70),
			CouponPercent:     decimal.NewFromInt(10),
			CommissionPercent: decimal.NewFromInt(15),
			ChoicesPricing:    `{"lunch_set":{"adult_price":"25","ota_sale_price":"150"}}`,
		},
		{
			ProductID:         kyotoID,
			ChannelID:         "viator",
			Date:              start.Format("2006/1/2"),
			AdultPrice:        money(110),
			ChildPrice:        money(80),
			MarkupPercent:     decimal.NewFromInt(5),
			CommissionPercent: decimal.NewFromInt(20),
		},
		{
			ProductID:        kyotoID,
			ChannelID:        "self_web",
			Date:             start.AddDate(0, 0, 1).Format("20060102"),
			AdultPrice:       money(95),
			ChildPrice:       money(60),
			InfantPrice:      money(10),
			MarkupAmount:     money(5),
			NotIncludedPrice: money(8),
			ChoicesPricing:   `{"kimono":{"adult":"30","child":"20"}}`,
		},
		{
			ProductID:     kyotoID,
			ChannelID:     "klook",
			Date:          fmt.Sprintf("%d", start.AddDate(0, 0, 2).Unix()),
			AdultPrice:    money(120),
			CouponPercent: decimal.NewFromInt(5),
		},
	}
	var ruleCount int64
	if err := models.DB.Model(&models.PricingRule{}).Where("product_id = ?", kyotoID).Count(&ruleCount).Error; err != nil {
		stdLog.Printf("Failed to count pricing rules: %v", err)
	}
	if ruleCount == 0 {
		if err := repository.NewPricingRuleRepository(models.DB).CreateBatch(rules); err != nil {
			stdLog.Printf("Failed to create pricing rules: %v", err)
		} else {
			stdLog.Printf("Created %d pricing rules", len(rules))
		}
	} else {
		stdLog.Printf("Pricing rules already exist: %d", ruleCount)
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Channels (2 OTA + 1 SELF)")
	fmt.Println("- 2 Products")
	fmt.Println("- 2 Choices for kyoto-day-tour")
	fmt.Println("- 4 Pricing rules with mixed date formats")
}
