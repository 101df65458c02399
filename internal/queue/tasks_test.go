package queue

import (
	"context"
	"testing"
	"time"

	"github.com/tourdesk-next/internal/config"

	"github.com/hibiken/asynq"
)

func TestPricingBatchSaveTaskPayload(t *testing.T) {
	task, err := NewPricingBatchSaveTask(PricingBatchSavePayload{JobID: 12, JobNo: "job-12"})
	if err != nil {
		t.Fatalf("create task failed: %v", err)
	}
	if task.Type() != TaskPricingBatchSave {
		t.Fatalf("task type want %s got %s", TaskPricingBatchSave, task.Type())
	}
	payload, err := ParsePricingBatchSavePayload(task)
	if err != nil {
		t.Fatalf("parse payload failed: %v", err)
	}
	if payload.JobID != 12 || payload.JobNo != "job-12" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestPricingBatchSaveTaskRequiresJobID(t *testing.T) {
	if _, err := NewPricingBatchSaveTask(PricingBatchSavePayload{}); err == nil {
		t.Fatalf("expected error for empty job id")
	}
	if _, err := ParsePricingBatchSavePayload(asynq.NewTask(TaskPricingBatchSave, []byte(`{}`))); err == nil {
		t.Fatalf("expected error for payload without job id")
	}
}

func TestDisabledClientRejectsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("create client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	if err := client.EnqueuePricingBatchSave(context.Background(), PricingBatchSavePayload{JobID: 1}); err != ErrQueueDisabled {
		t.Fatalf("disabled client want ErrQueueDisabled got %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("redis addr want 127.0.0.1:6379 got %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 || cfg.ErrorHandler == nil {
		t.Fatalf("unexpected server config %+v", cfg)
	}

	opt, _ = BuildServerConfig(&config.QueueConfig{Host: " redis.internal ", Port: 6380, DB: 2})
	if opt.Addr != "redis.internal:6380" || opt.DB != 2 {
		t.Fatalf("redis opt want redis.internal:6380/2 got %s/%d", opt.Addr, opt.DB)
	}
}

func TestNewClientAppliesTaskOptions(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: true, MaxRetry: 7, TaskTimeoutSeconds: 30})
	if err != nil {
		t.Fatalf("create client failed: %v", err)
	}
	defer client.Close()
	if !client.Enabled() || client.maxRetry != 7 || client.taskTimeout != 30*time.Second {
		t.Fatalf("unexpected client options retry=%d timeout=%s", client.maxRetry, client.taskTimeout)
	}
}
