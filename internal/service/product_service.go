package service

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/tourdesk-next/internal/cache"
	"github.com/tourdesk-next/internal/logger"
	"github.com/tourdesk-next/internal/models"
	"github.com/tourdesk-next/internal/repository"
)

var (
	slugPattern     = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	choiceIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)
)

// ProductService 商品与子选项目录服务
type ProductService struct {
	productRepo repository.ProductRepository
	choiceRepo  repository.ProductChoiceRepository
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, choiceRepo repository.ProductChoiceRepository) *ProductService {
	return &ProductService{productRepo: productRepo, choiceRepo: choiceRepo}
}

// CreateProductInput 创建商品输入
type CreateProductInput struct {
	Slug      string
	TitleJSON map[string]interface{}
	IsActive  *bool
	SortOrder int
}

// ChoiceInput 创建/更新子选项输入
type ChoiceInput struct {
	ChoiceID  string
	NameJSON  map[string]interface{}
	IsActive  *bool
	SortOrder int
}

// List 商品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// Get 获取商品详情（含子选项目录）
func (s *ProductService) Get(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetWithChoices(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *ProductService) requireProduct(id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return nil
}

// Create 创建商品
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	slug := strings.ToLower(strings.TrimSpace(input.Slug))
	if !slugPattern.MatchString(slug) || len(input.TitleJSON) == 0 {
		return nil, ErrProductInvalid
	}
	count, err := s.productRepo.CountBySlug(slug)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}

	product := models.Product{
		Slug:      slug,
		TitleJSON: models.JSON(input.TitleJSON),
		IsActive:  true,
		SortOrder: input.SortOrder,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if err := s.productRepo.Create(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListChoices 商品子选项目录
func (s *ProductService) ListChoices(productID uint, onlyActive bool) ([]models.ProductChoice, error) {
	if err := s.requireProduct(productID); err != nil {
		return nil, err
	}
	return s.choiceRepo.ListByProduct(productID, onlyActive)
}

// SaveChoice 新增或更新子选项（按 choice_id 判断）
//
// 日历缓存带有子选项名称，保存后清除该商品的日历缓存。
func (s *ProductService) SaveChoice(ctx context.Context, productID uint, input ChoiceInput) (*models.ProductChoice, error) {
	if err := s.requireProduct(productID); err != nil {
		return nil, err
	}
	choiceID := strings.TrimSpace(input.ChoiceID)
	if !choiceIDPattern.MatchString(choiceID) {
		return nil, ErrChoiceInvalid
	}

	choice, err := s.choiceRepo.GetByChoiceID(productID, choiceID)
	if err != nil {
		return nil, err
	}
	if choice == nil {
		choice = &models.ProductChoice{
			ProductID: productID,
			ChoiceID:  choiceID,
			NameJSON:  models.JSON(input.NameJSON),
			IsActive:  true,
			SortOrder: input.SortOrder,
		}
		if input.IsActive != nil {
			choice.IsActive = *input.IsActive
		}
		if err := s.choiceRepo.Create(choice); err != nil {
			return nil, err
		}
		invalidateChoiceNames(ctx, productID)
		return choice, nil
	}

	if input.NameJSON != nil {
		choice.NameJSON = models.JSON(input.NameJSON)
	}
	choice.SortOrder = input.SortOrder
	if input.IsActive != nil {
		choice.IsActive = *input.IsActive
	}
	if err := s.choiceRepo.Update(choice); err != nil {
		return nil, err
	}
	invalidateChoiceNames(ctx, productID)
	return choice, nil
}

func invalidateChoiceNames(ctx context.Context, productID uint) {
	if _, err := cache.InvalidateCalendar(ctx, productID); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warnw("pricing_calendar_invalidate_failed", "product_id", productID, "error", err)
	}
}
