package repository

import (
	"errors"
	"time"

	"github.com/tourdesk-next/internal/constants"
	"github.com/tourdesk-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BatchSaveJobRepository 批量保存任务数据访问接口
type BatchSaveJobRepository interface {
	Create(job *models.BatchSaveJob) error
	GetByID(id uint) (*models.BatchSaveJob, error)
	GetByIDWithItems(id uint) (*models.BatchSaveJob, error)
	LockByID(id uint) (*models.BatchSaveJob, error)
	ListPendingItems(jobID uint) ([]models.BatchSaveItem, error)
	MarkItemSaved(itemID uint, ruleID uint) error
	MarkItemFailed(itemID uint, reason string) error
	UpdateStatus(jobID uint, status string, fields map[string]interface{}) error
	IncrementCounters(jobID uint, saved, failed int) error
	ListStalled(before time.Time, limit int) ([]models.BatchSaveJob, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) BatchSaveJobRepository
}

// GormBatchSaveJobRepository GORM 实现
type GormBatchSaveJobRepository struct {
	db *gorm.DB
}

// NewBatchSaveJobRepository 创建批量任务仓库
func NewBatchSaveJobRepository(db *gorm.DB) *GormBatchSaveJobRepository {
	return &GormBatchSaveJobRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBatchSaveJobRepository) WithTx(tx *gorm.DB) BatchSaveJobRepository {
	if tx == nil {
		return r
	}
	return &GormBatchSaveJobRepository{db: tx}
}

// Transaction 执行事务
func (r *GormBatchSaveJobRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// Create 创建任务（连同明细）
func (r *GormBatchSaveJobRepository) Create(job *models.BatchSaveJob) error {
	return r.db.Create(job).Error
}

// GetByID 获取任务
func (r *GormBatchSaveJobRepository) GetByID(id uint) (*models.BatchSaveJob, error) {
	var job models.BatchSaveJob
	if err := r.db.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// GetByIDWithItems 获取任务及明细
func (r *GormBatchSaveJobRepository) GetByIDWithItems(id uint) (*models.BatchSaveJob, error) {
	var job models.BatchSaveJob
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).First(&job, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ListPendingItems 获取待处理明细
func (r *GormBatchSaveJobRepository) ListPendingItems(jobID uint) ([]models.BatchSaveItem, error) {
	var items []models.BatchSaveItem
	if err := r.db.Where("job_id = ? AND status = ?", jobID, constants.BatchItemStatusPending).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// MarkItemSaved 标记明细保存成功
func (r *GormBatchSaveJobRepository) MarkItemSaved(itemID uint, ruleID uint) error {
	return r.db.Model(&models.BatchSaveItem{}).Where("id = ?", itemID).Updates(map[string]interface{}{
		"status":     constants.BatchItemStatusSaved,
		"rule_id":    ruleID,
		"updated_at": time.Now(),
	}).Error
}

// MarkItemFailed 标记明细失败
func (r *GormBatchSaveJobRepository) MarkItemFailed(itemID uint, reason string) error {
	return r.db.Model(&models.BatchSaveItem{}).Where("id = ?", itemID).Updates(map[string]interface{}{
		"status":        constants.BatchItemStatusFailed,
		"error_message": reason,
		"updated_at":    time.Now(),
	}).Error
}

// UpdateStatus 更新任务状态及附加字段
func (r *GormBatchSaveJobRepository) UpdateStatus(jobID uint, status string, fields map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	for key, value := range fields {
		updates[key] = value
	}
	return r.db.Model(&models.BatchSaveJob{}).Where("id = ?", jobID).Updates(updates).Error
}

// IncrementCounters 原子累加任务计数
func (r *GormBatchSaveJobRepository) IncrementCounters(jobID uint, saved, failed int) error {
	if saved == 0 && failed == 0 {
		return nil
	}
	return r.db.Model(&models.BatchSaveJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"saved_count":  gorm.Expr("saved_count + ?", saved),
		"failed_count": gorm.Expr("failed_count + ?", failed),
		"updated_at":   time.Now(),
	}).Error
}

// LockByID 行锁读取任务（sqlite 下忽略锁子句）
func (r *GormBatchSaveJobRepository) LockByID(id uint) (*models.BatchSaveJob, error) {
	var job models.BatchSaveJob
	query := r.db
	if dialectOf(r.db) != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// ListStalled 列出 before 之前就停止更新、仍未结束的任务
func (r *GormBatchSaveJobRepository) ListStalled(before time.Time, limit int) ([]models.BatchSaveJob, error) {
	if limit <= 0 {
		limit = 20
	}
	var jobs []models.BatchSaveJob
	err := r.db.Model(&models.BatchSaveJob{}).
		Where("status IN ?", []string{constants.BatchSaveStatusPending, constants.BatchSaveStatusProcessing}).
		Where("updated_at < ?", before).
		Order("id ASC").
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
