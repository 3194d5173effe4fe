package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/librarium/internal/audit"
	"github.com/mrlokans/librarium/internal/entities"
	"github.com/mrlokans/librarium/internal/scheduler"
	"github.com/mrlokans/librarium/internal/tasks"
)

// TaskQueue enqueues background tasks and reports their status.
type TaskQueue interface {
	Enqueue(task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// SchedulerInfo exposes the periodic job schedule.
type SchedulerInfo interface {
	IsRunning() bool
	NextRuns() []scheduler.NextRun
}

// TasksController handles task queue management endpoints.
type TasksController struct {
	queue              TaskQueue
	scheduler          SchedulerInfo
	auditor            Auditor
	auditRetentionDays int
}

// NewTasksController creates a new TasksController. sched may be nil.
func NewTasksController(queue TaskQueue, sched SchedulerInfo, auditor Auditor, auditRetentionDays int) *TasksController {
	return &TasksController{
		queue:              queue,
		scheduler:          sched,
		auditor:            auditor,
		auditRetentionDays: auditRetentionDays,
	}
}

// RunTaskRequest is the request body for running a task.
type RunTaskRequest struct {
	OrderID       string `json:"order_id,omitempty"`       // required for sync_payment_status
	RetentionDays int    `json:"retention_days,omitempty"` // overrides the configured audit retention
}

// ListTaskTypes handles GET /api/owner/tasks/types
// Returns the list of available task types that can be triggered.
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"task_types": tasks.Types(),
	})
}

// GetTaskStatus handles GET /api/owner/tasks/:id
// Returns the status of a specific task.
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.queue.Status(ctx, taskID)
	if err != nil {
		respondInternalError(c, err, "task status")
		return
	}
	if status == backlite.TaskStatusNotFound {
		respondNotFound(c, "task")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     taskID,
		"status": taskStatusToString(status),
	})
}

// taskFor builds the task of the given type from the request.
func (tc *TasksController) taskFor(taskType string, req RunTaskRequest) (backlite.Task, error) {
	switch taskType {
	case tasks.QueueMarkOverdueLoans:
		return tasks.MarkOverdueLoansTask{}, nil
	case tasks.QueueExpirePendingPayments:
		return tasks.ExpirePendingPaymentsTask{}, nil
	case tasks.QueueCleanupAuditEvents:
		days := req.RetentionDays
		if days <= 0 {
			days = tc.auditRetentionDays
		}
		return tasks.CleanupAuditEventsTask{RetentionDays: days}, nil
	case tasks.QueueSyncPaymentStatus:
		orderID := strings.TrimSpace(req.OrderID)
		if orderID == "" {
			return nil, fmt.Errorf("order_id is required for %s task", taskType)
		}
		return tasks.SyncPaymentStatusTask{OrderID: orderID}, nil
	}
	return nil, fmt.Errorf("unknown task type: %s", taskType)
}

// RunTask handles POST /api/owner/tasks/:type/run
// Manually triggers a task of the specified type.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var req RunTaskRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	task, err := tc.taskFor(taskType, req)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	id, err := tc.queue.Enqueue(task)
	recordAudit(tc.auditor, c, audit.Entry{
		Type:        entities.AuditEventSetup,
		Action:      "task_run",
		Description: "Enqueued " + taskType,
		Err:         err,
	})
	if err != nil {
		respondInternalError(c, err, "enqueue task")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task_id": id,
		"type":    taskType,
		"message": "task enqueued",
	})
}

// Schedule handles GET /api/owner/scheduler
// Reports whether the scheduler runs and when each job fires next.
func (tc *TasksController) Schedule(c *gin.Context) {
	if tc.scheduler == nil {
		c.JSON(http.StatusOK, gin.H{"running": false, "jobs": []scheduler.NextRun{}})
		return
	}
	runs := tc.scheduler.NextRuns()
	if runs == nil {
		runs = []scheduler.NextRun{}
	}
	c.JSON(http.StatusOK, gin.H{
		"running": tc.scheduler.IsRunning(),
		"jobs":    runs,
	})
}

func taskStatusToString(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
