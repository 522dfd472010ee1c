package leave_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-elms/internal/leave"
	leaveerrors "go-elms/internal/leave/errors"
	"go-elms/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeLeaveService struct {
	applyFn      func(ctx context.Context, actorID string, req leave.ApplyLeaveRequest) (leave.LeaveResponse, error)
	adjudicateFn func(actorID, requestID string, req leave.AdjudicateLeaveRequest) (leave.LeaveResponse, error)
	cancelFn     func(actorID, requestID string) error
	listFn       func(actorID string, req leave.ListLeavesRequest, page, pageSize int) ([]leave.LeaveResponse, int64, error)
}

func (f *fakeLeaveService) Apply(ctx context.Context, actorID string, req leave.ApplyLeaveRequest) (leave.LeaveResponse, error) {
	if f.applyFn != nil {
		return f.applyFn(ctx, actorID, req)
	}
	return leave.LeaveResponse{}, nil
}

func (f *fakeLeaveService) Edit(ctx context.Context, actorID, requestID string, req leave.EditLeaveRequest) (leave.LeaveResponse, error) {
	return leave.LeaveResponse{}, nil
}

func (f *fakeLeaveService) Cancel(ctx context.Context, actorID, requestID string) error {
	if f.cancelFn != nil {
		return f.cancelFn(actorID, requestID)
	}
	return nil
}

func (f *fakeLeaveService) Adjudicate(ctx context.Context, actorID, requestID string, req leave.AdjudicateLeaveRequest) (leave.LeaveResponse, error) {
	if f.adjudicateFn != nil {
		return f.adjudicateFn(actorID, requestID, req)
	}
	return leave.LeaveResponse{}, nil
}

func (f *fakeLeaveService) Get(ctx context.Context, actorID, requestID string) (leave.LeaveResponse, error) {
	return leave.LeaveResponse{}, nil
}

func (f *fakeLeaveService) List(ctx context.Context, actorID string, req leave.ListLeavesRequest, page, pageSize int) ([]leave.LeaveResponse, int64, error) {
	if f.listFn != nil {
		return f.listFn(actorID, req, page, pageSize)
	}
	return nil, 0, nil
}

func setupLeaveRouter(svc leave.Service, actorID string) (*gin.Engine, *leave.Handler) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", actorID)
		c.Next()
	})
	handler := leave.NewHandler(svc)
	return router, handler
}

func TestLeaveHandler_Apply(t *testing.T) {
	actorID := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		svc := &fakeLeaveService{}
		svc.applyFn = func(ctx context.Context, gotActor string, req leave.ApplyLeaveRequest) (leave.LeaveResponse, error) {
			assert.Equal(t, actorID, gotActor)
			assert.Equal(t, "vacation", req.LeaveType)
			return leave.LeaveResponse{
				ID:        uuid.NewString(),
				LeaveType: req.LeaveType,
				Status:    "pending",
				Duration:  3,
			}, nil
		}

		router, handler := setupLeaveRouter(svc, actorID)
		router.POST("/leaves", handler.Apply)

		body, _ := json.Marshal(leave.ApplyLeaveRequest{
			LeaveType: "vacation",
			StartDate: "2027-03-10",
			EndDate:   "2027-03-12",
			Reason:    "family event",
		})
		req := httptest.NewRequest(http.MethodPost, "/leaves", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var res map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, true, res["ok"])
		data := res["data"].(map[string]interface{})
		assert.Equal(t, "pending", data["status"])
		assert.Equal(t, float64(3), data["duration"])
	})

	t.Run("negative unknown leave type rejected at binding", func(t *testing.T) {
		router, handler := setupLeaveRouter(&fakeLeaveService{}, actorID)
		router.POST("/leaves", handler.Apply)

		body, _ := json.Marshal(leave.ApplyLeaveRequest{
			LeaveType: "sabbatical",
			StartDate: "2027-03-10",
			EndDate:   "2027-03-12",
			Reason:    "x",
		})
		req := httptest.NewRequest(http.MethodPost, "/leaves", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative missing reason rejected at binding", func(t *testing.T) {
		router, handler := setupLeaveRouter(&fakeLeaveService{}, actorID)
		router.POST("/leaves", handler.Apply)

		req := httptest.NewRequest(http.MethodPost, "/leaves",
			bytes.NewBufferString(`{"leave_type":"sick","start_date":"2027-03-10","end_date":"2027-03-11"}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLeaveHandler_Adjudicate(t *testing.T) {
	actorID := uuid.NewString()
	requestID := uuid.NewString()

	t.Run("negative forbidden maps to 403", func(t *testing.T) {
		svc := &fakeLeaveService{}
		svc.adjudicateFn = func(gotActor, gotRequest string, req leave.AdjudicateLeaveRequest) (leave.LeaveResponse, error) {
			return leave.LeaveResponse{}, apperror.ErrForbidden
		}

		router, handler := setupLeaveRouter(svc, actorID)
		router.POST("/leaves/:id/adjudicate", handler.Adjudicate)

		body, _ := json.Marshal(leave.AdjudicateLeaveRequest{Decision: "approve"})
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+requestID+"/adjudicate", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)

		var res map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		assert.Equal(t, false, res["ok"])
		errObj := res["error"].(map[string]interface{})
		assert.Equal(t, "FORBIDDEN", errObj["code"])
	})

	t.Run("negative invalid decision rejected at binding", func(t *testing.T) {
		router, handler := setupLeaveRouter(&fakeLeaveService{}, actorID)
		router.POST("/leaves/:id/adjudicate", handler.Adjudicate)

		body, _ := json.Marshal(leave.AdjudicateLeaveRequest{Decision: "maybe"})
		req := httptest.NewRequest(http.MethodPost, "/leaves/"+requestID+"/adjudicate", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLeaveHandler_Cancel(t *testing.T) {
	actorID := uuid.NewString()
	requestID := uuid.NewString()

	t.Run("negative locked maps to 409", func(t *testing.T) {
		svc := &fakeLeaveService{}
		svc.cancelFn = func(gotActor, gotRequest string) error {
			return leaveerrors.ErrRequestLocked
		}

		router, handler := setupLeaveRouter(svc, actorID)
		router.POST("/leaves/:id/cancel", handler.Cancel)

		req := httptest.NewRequest(http.MethodPost, "/leaves/"+requestID+"/cancel", nil)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)

		var res map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		errObj := res["error"].(map[string]interface{})
		assert.Equal(t, "LOCKED", errObj["code"])
	})
}
