package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/tourdesk-next/internal/http/handlers/shared"
	"github.com/tourdesk-next/internal/http/response"
	"github.com/tourdesk-next/internal/repository"
	"github.com/tourdesk-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminProducts 获取商品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, pageSize := handlershared.PaginationFromQuery(c)
	onlyActive, _ := strconv.ParseBool(c.DefaultQuery("only_active", "false"))

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     strings.TrimSpace(c.Query("search")),
		OnlyActive: onlyActive,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	response.SuccessWithPage(c, products, handlershared.BuildPagination(page, pageSize, total))
}

// GetAdminProduct 获取商品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.Get(id)
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, "error.product_fetch_failed")
		return
	}
	response.Success(c, product)
}

// CreateProductRequest 创建商品请求
type CreateProductRequest struct {
	Slug      string                 `json:"slug" binding:"required"`
	TitleJSON map[string]interface{} `json:"title" binding:"required"`
	IsActive  *bool                  `json:"is_active"`
	SortOrder int                    `json:"sort_order"`
}

// CreateAdminProduct 创建商品
func (h *Handler) CreateAdminProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Create(service.CreateProductInput{
		Slug:      req.Slug,
		TitleJSON: req.TitleJSON,
		IsActive:  req.IsActive,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, "error.product_create_failed")
		return
	}
	response.Success(c, product)
}

// GetProductChoices 获取商品子选项目录
func (h *Handler) GetProductChoices(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	onlyActive, _ := strconv.ParseBool(c.DefaultQuery("only_active", "false"))
	choices, err := h.ProductService.ListChoices(productID, onlyActive)
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, "error.product_fetch_failed")
		return
	}
	response.Success(c, choices)
}

// SaveProductChoiceRequest 保存子选项请求
type SaveProductChoiceRequest struct {
	ChoiceID  string                 `json:"choice_id" binding:"required"`
	NameJSON  map[string]interface{} `json:"name"`
	IsActive  *bool                  `json:"is_active"`
	SortOrder int                    `json:"sort_order"`
}

// SaveProductChoice 新增或更新子选项
func (h *Handler) SaveProductChoice(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SaveProductChoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	choice, err := h.ProductService.SaveChoice(c.Request.Context(), productID, service.ChoiceInput{
		ChoiceID:  req.ChoiceID,
		NameJSON:  req.NameJSON,
		IsActive:  req.IsActive,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondWithMappedError(c, err, productErrorRules, "error.choice_save_failed")
		return
	}
	response.Success(c, choice)
}
