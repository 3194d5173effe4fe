package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/tasks"
)

type fakeQueue struct {
	enqueued []backlite.Task
	statuses map[string]backlite.TaskStatus
	err      error
}

func (q *fakeQueue) Enqueue(task backlite.Task) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.enqueued = append(q.enqueued, task)
	return "task-1", nil
}

func (q *fakeQueue) Status(_ context.Context, taskID string) (backlite.TaskStatus, error) {
	status, ok := q.statuses[taskID]
	if !ok {
		return backlite.TaskStatusNotFound, nil
	}
	return status, nil
}

func tasksRouter(queue *fakeQueue) *gin.Engine {
	tc := NewTasksController(queue, nil, nil, 45)
	router := gin.New()
	router.GET("/api/owner/tasks/types", tc.ListTaskTypes)
	router.GET("/api/owner/tasks/:id", tc.GetTaskStatus)
	router.POST("/api/owner/tasks/:type/run", tc.RunTask)
	router.GET("/api/owner/scheduler", tc.Schedule)
	return router
}

func runTask(router *gin.Engine, taskType string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/owner/tasks/"+taskType+"/run", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTasksController_RunTask(t *testing.T) {
	t.Run("enqueues cleanup with configured retention", func(t *testing.T) {
		queue := &fakeQueue{}
		w := runTask(tasksRouter(queue), tasks.QueueCleanupAuditEvents, nil)

		assert.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, queue.enqueued, 1)
		assert.Equal(t, tasks.CleanupAuditEventsTask{RetentionDays: 45}, queue.enqueued[0])
	})

	t.Run("retention override", func(t *testing.T) {
		queue := &fakeQueue{}
		w := runTask(tasksRouter(queue), tasks.QueueCleanupAuditEvents, RunTaskRequest{RetentionDays: 7})

		assert.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, queue.enqueued, 1)
		assert.Equal(t, tasks.CleanupAuditEventsTask{RetentionDays: 7}, queue.enqueued[0])
	})

	t.Run("sync requires order id", func(t *testing.T) {
		queue := &fakeQueue{}
		router := tasksRouter(queue)

		w := runTask(router, tasks.QueueSyncPaymentStatus, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, queue.enqueued)

		w = runTask(router, tasks.QueueSyncPaymentStatus, RunTaskRequest{OrderID: "EVT-9"})
		assert.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, queue.enqueued, 1)
		assert.Equal(t, tasks.SyncPaymentStatusTask{OrderID: "EVT-9"}, queue.enqueued[0])
	})

	t.Run("unknown type", func(t *testing.T) {
		w := runTask(tasksRouter(&fakeQueue{}), "reindex_everything", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("queue failure", func(t *testing.T) {
		queue := &fakeQueue{err: errors.New("queue closed")}
		w := runTask(tasksRouter(queue), tasks.QueueMarkOverdueLoans, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestTasksController_GetTaskStatus(t *testing.T) {
	queue := &fakeQueue{statuses: map[string]backlite.TaskStatus{"abc": backlite.TaskStatusSuccess}}
	router := tasksRouter(queue)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/owner/tasks/abc", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success"`)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/owner/tasks/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTasksController_ListTaskTypes(t *testing.T) {
	w := httptest.NewRecorder()
	tasksRouter(&fakeQueue{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/owner/tasks/types", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		TaskTypes []tasks.TaskType `json:"task_types"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.TaskTypes, 4)
}

func TestTasksController_ScheduleWithoutScheduler(t *testing.T) {
	w := httptest.NewRecorder()
	tasksRouter(&fakeQueue{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/owner/scheduler", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"running": false, "jobs": []}`, w.Body.String())
}
