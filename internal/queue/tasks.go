package queue

import (
	"encoding/json"
	"fmt"

	"github.com/tourdesk-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPricingBatchSave 批量保存价格规则任务
	TaskPricingBatchSave = constants.TaskPricingBatchSave
)

// PricingBatchSavePayload 批量保存任务载荷
type PricingBatchSavePayload struct {
	JobID uint   `json:"job_id"`
	JobNo string `json:"job_no"`
}

// NewPricingBatchSaveTask 创建批量保存任务
func NewPricingBatchSaveTask(payload PricingBatchSavePayload) (*asynq.Task, error) {
	if payload.JobID == 0 {
		return nil, fmt.Errorf("batch save task requires job id")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPricingBatchSave, body), nil
}

// ParsePricingBatchSavePayload 解析批量保存任务载荷
func ParsePricingBatchSavePayload(task *asynq.Task) (PricingBatchSavePayload, error) {
	var payload PricingBatchSavePayload
	if task == nil {
		return payload, fmt.Errorf("nil task")
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, err
	}
	if payload.JobID == 0 {
		return payload, fmt.Errorf("batch save payload missing job id")
	}
	return payload, nil
}
