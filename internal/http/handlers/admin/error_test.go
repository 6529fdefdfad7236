package admin

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/merchantflow/internal/http/response"
	"github.com/merchantflow/internal/service"

	"github.com/gin-gonic/gin"
)

func serviceErrorCode(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	respondServiceError(c, err)
	var resp response.Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return resp.StatusCode
}

func TestRespondServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"order not found", service.ErrOrderNotFound, response.CodeNotFound},
		{"invalid quantity", service.ErrAllocationInvalidQuantity, response.CodeBadRequest},
		{"invalid decision", service.ErrWithdrawInvalidDecision, response.CodeBadRequest},
		// 业务状态冲突统一走 409
		{"invalid transition", service.ErrInvalidTransition, response.CodeConflict},
		{"typed transition error", &service.StateTransitionError{Entity: "order", From: "created", To: "completed"}, response.CodeConflict},
		{"milestone out of order", &service.MilestoneOrderError{Current: "delivered", Target: "assigned"}, response.CodeConflict},
		{"insufficient balance", service.ErrWithdrawInsufficientBalance, response.CodeConflict},
		{"already audited", service.ErrWithdrawAlreadyAudited, response.CodeConflict},
		{"already settled", service.ErrSettlementAlreadySettled, response.CodeConflict},
		{"concurrent modification", service.ErrConcurrentModification, response.CodeConflict},
		{"reconciliation mismatch", service.ErrReconciliationMismatch, response.CodeConflict},
		{"unknown error", errors.New("boom"), response.CodeInternal},
	}
	for _, tc := range cases {
		if got := serviceErrorCode(t, tc.err); got != tc.want {
			t.Fatalf("%s: expected code %d, got %d", tc.name, tc.want, got)
		}
	}
}
