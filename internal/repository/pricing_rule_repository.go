package repository

import (
	"database/sql"
	"errors"

	"github.com/tourdesk-next/internal/models"

	"gorm.io/gorm"
)

// PricingRuleRepository 价格规则数据访问接口
//
// 规则只插入不更新，因此没有 Update / Delete。
type PricingRuleRepository interface {
	Create(rule *models.PricingRule) error
	CreateBatch(rules []models.PricingRule) error
	GetByID(id uint) (*models.PricingRule, error)
	ListByProduct(query PricingRuleQuery) ([]models.PricingRule, error)
	Fingerprint(productID uint) (RuleFingerprint, error)
	WithTx(tx *gorm.DB) PricingRuleRepository
}

// GormPricingRuleRepository GORM 实现
type GormPricingRuleRepository struct {
	db *gorm.DB
}

// NewPricingRuleRepository 创建价格规则仓库
func NewPricingRuleRepository(db *gorm.DB) *GormPricingRuleRepository {
	return &GormPricingRuleRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPricingRuleRepository) WithTx(tx *gorm.DB) PricingRuleRepository {
	if tx == nil {
		return r
	}
	return &GormPricingRuleRepository{db: tx}
}

// Create 追加一条规则
func (r *GormPricingRuleRepository) Create(rule *models.PricingRule) error {
	return r.db.Create(rule).Error
}

// CreateBatch 批量追加规则
func (r *GormPricingRuleRepository) CreateBatch(rules []models.PricingRule) error {
	if len(rules) == 0 {
		return nil
	}
	return r.db.CreateInBatches(&rules, 200).Error
}

// GetByID 根据 ID 获取规则
func (r *GormPricingRuleRepository) GetByID(id uint) (*models.PricingRule, error) {
	var rule models.PricingRule
	if err := r.db.First(&rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// ListByProduct 按插入顺序加载商品的全部规则
//
// 选择器取同日期第一条命中的规则，顺序必须稳定，这里固定按 id 升序。
func (r *GormPricingRuleRepository) ListByProduct(query PricingRuleQuery) ([]models.PricingRule, error) {
	var rules []models.PricingRule
	db := r.db.Model(&models.PricingRule{}).Where("product_id = ?", query.ProductID)
	if len(query.ChannelIDs) > 0 {
		db = db.Where("channel_id IN ?", query.ChannelIDs)
	}
	if err := db.Order("id ASC").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Fingerprint 统计商品规则数量、最大 ID 与最新更新时间
func (r *GormPricingRuleRepository) Fingerprint(productID uint) (RuleFingerprint, error) {
	var row struct {
		Count        int64
		MaxID        sql.NullInt64
		MaxUpdatedAt sql.NullString
	}
	err := r.db.Model(&models.PricingRule{}).
		Select("COUNT(*) AS count, MAX(id) AS max_id, MAX(updated_at) AS max_updated_at").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return RuleFingerprint{}, err
	}
	fingerprint := RuleFingerprint{Count: row.Count}
	if row.MaxID.Valid {
		fingerprint.MaxID = uint(row.MaxID.Int64)
	}
	if row.MaxUpdatedAt.Valid {
		fingerprint.MaxUpdatedAt = row.MaxUpdatedAt.String
	}
	return fingerprint, nil
}
