package repository

import (
	"errors"

	"github.com/tourdesk-next/internal/models"

	"gorm.io/gorm"
)

// ProductChoiceRepository 商品子选项数据访问接口
type ProductChoiceRepository interface {
	ListByProduct(productID uint, onlyActive bool) ([]models.ProductChoice, error)
	GetByChoiceID(productID uint, choiceID string) (*models.ProductChoice, error)
	Create(choice *models.ProductChoice) error
	Update(choice *models.ProductChoice) error
}

// GormProductChoiceRepository GORM 实现
type GormProductChoiceRepository struct {
	db *gorm.DB
}

// NewProductChoiceRepository 创建子选项仓库
func NewProductChoiceRepository(db *gorm.DB) *GormProductChoiceRepository {
	return &GormProductChoiceRepository{db: db}
}

// ListByProduct 获取商品的子选项目录
func (r *GormProductChoiceRepository) ListByProduct(productID uint, onlyActive bool) ([]models.ProductChoice, error) {
	var choices []models.ProductChoice
	query := r.db.Where("product_id = ?", productID)
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("sort_order DESC, id ASC").Find(&choices).Error; err != nil {
		return nil, err
	}
	return choices, nil
}

// GetByChoiceID 根据子选项标识获取
func (r *GormProductChoiceRepository) GetByChoiceID(productID uint, choiceID string) (*models.ProductChoice, error) {
	var choice models.ProductChoice
	err := r.db.Where("product_id = ? AND choice_id = ?", productID, choiceID).First(&choice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &choice, nil
}

// Create 创建子选项
func (r *GormProductChoiceRepository) Create(choice *models.ProductChoice) error {
	return r.db.Create(choice).Error
}

// Update 更新子选项
func (r *GormProductChoiceRepository) Update(choice *models.ProductChoice) error {
	return r.db.Save(choice).Error
}
