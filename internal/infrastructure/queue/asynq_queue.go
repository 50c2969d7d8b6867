package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	commissionapp "github.com/selimmarslann-cyber/hizmetgo-sub000/internal/application/commission"
	"go.uber.org/zap"
)

// Enqueuer is the part of asynq.Client the queue uses
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector is the part of asynq.Inspector used to settle task ID
// conflicts
type TaskInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
	DeleteTask(queue, id string) error
}

// AsynqQueue enqueues commission tasks on Redis through asynq
type AsynqQueue struct {
	client    Enqueuer
	inspector TaskInspector
	logger    *zap.Logger
}

// NewAsynqQueue creates an AsynqQueue
func NewAsynqQueue(client Enqueuer, logger *zap.Logger) *AsynqQueue {
	return &AsynqQueue{client: client, logger: logger}
}

// SetInspector lets the queue replace a finished task that still holds its
// task ID. Without one, every ID conflict counts as already queued.
func (q *AsynqQueue) SetInspector(inspector TaskInspector) {
	q.inspector = inspector
}

// EnqueueAccountingSubmission queues a submission. An invoice whose task is
// still waiting or running is not enqueued again.
func (q *AsynqQueue) EnqueueAccountingSubmission(ctx context.Context, invoiceID uuid.UUID) error {
	task, err := NewAccountingSubmitTask(invoiceID)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task, QueueDefault, AccountingTaskID(invoiceID), zap.String("invoice_id", invoiceID.String()))
}

// EnqueuePDFRender queues a render job
func (q *AsynqQueue) EnqueuePDFRender(ctx context.Context, renderTask commissionapp.PDFRenderTask) error {
	task, err := NewPDFRenderTask(renderTask)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task, QueuePDF, PDFTaskID(renderTask.Request.InvoiceID),
		zap.String("invoice_id", renderTask.Request.InvoiceID.String()))
}

// EnqueueOrderCompleted queues an order-completed notification
func (q *AsynqQueue) EnqueueOrderCompleted(ctx context.Context, cmd commissionapp.OrderCompletedCommand) error {
	task, err := NewOrderCompletedTask(cmd)
	if err != nil {
		return err
	}
	return q.enqueue(ctx, task, QueueCritical, OrderTaskID(cmd.OrderID), zap.String("order_id", cmd.OrderID.String()))
}

func (q *AsynqQueue) enqueue(ctx context.Context, task *asynq.Task, queueName, taskID string, field zap.Field) error {
	info, err := q.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		replaced, rerr := q.releaseFinished(queueName, taskID)
		if rerr != nil {
			return fmt.Errorf("failed to enqueue %s: %w", task.Type(), rerr)
		}
		if !replaced {
			q.logger.Debug("Task already queued", zap.String("task_type", task.Type()), field)
			return nil
		}
		info, err = q.client.EnqueueContext(ctx, task)
	}
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		q.logger.Debug("Task already queued", zap.String("task_type", task.Type()), field)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	q.logger.Debug("Task enqueued",
		zap.String("task_type", task.Type()),
		zap.String("task_id", info.ID),
		zap.String("queue", info.Queue),
		field,
	)
	return nil
}

// releaseFinished deletes the task holding taskID when it has completed or
// been archived, and reports whether the ID is free again. Waiting and
// running tasks keep their ID.
func (q *AsynqQueue) releaseFinished(queueName, taskID string) (bool, error) {
	if q.inspector == nil {
		return false, nil
	}
	info, err := q.inspector.GetTaskInfo(queueName, taskID)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to inspect task %s: %w", taskID, err)
	}
	switch info.State {
	case asynq.TaskStateCompleted, asynq.TaskStateArchived:
	default:
		return false, nil
	}
	if err := q.inspector.DeleteTask(queueName, taskID); err != nil && !errors.Is(err, asynq.ErrTaskNotFound) {
		return false, fmt.Errorf("failed to delete finished task %s: %w", taskID, err)
	}
	q.logger.Debug("Released finished task",
		zap.String("task_id", taskID),
		zap.String("state", info.State.String()),
	)
	return true, nil
}

var _ commissionapp.TaskQueue = (*AsynqQueue)(nil)
