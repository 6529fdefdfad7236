package admin

import (
	"strings"
	"time"

	"github.com/merchantflow/internal/http/response"
	"github.com/merchantflow/internal/repository"
	"github.com/merchantflow/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateWorkOrderRequest 创建作业单请求
type CreateWorkOrderRequest struct {
	OrderIDs         []uint     `json:"order_ids" binding:"required"`
	WorkType         string     `json:"work_type" binding:"required"`
	Priority         int        `json:"priority"`
	Worker           string     `json:"worker"`
	PlannedStartTime *time.Time `json:"planned_start_time"`
	PlannedEndTime   *time.Time `json:"planned_end_time"`
}

// AssignWorkOrderRequest 指派作业员请求
type AssignWorkOrderRequest struct {
	Worker string `json:"worker" binding:"required"`
}

// CreateWorkOrder 创建作业单
func (h *Handler) CreateWorkOrder(c *gin.Context) {
	var req CreateWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	work, err := h.WorkService.CreateWorkOrder(service.CreateWorkOrderInput{
		OrderIDs:         req.OrderIDs,
		WorkType:         strings.TrimSpace(req.WorkType),
		Priority:         req.Priority,
		Worker:           strings.TrimSpace(req.Worker),
		PlannedStartTime: req.PlannedStartTime,
		PlannedEndTime:   req.PlannedEndTime,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, work)
}

// GetWorkOrder 作业单详情
func (h *Handler) GetWorkOrder(c *gin.Context) {
	workID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "work order id invalid", nil)
		return
	}
	work, err := h.WorkService.GetWorkOrder(workID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, work)
}

// ListWorkOrders 分页查询作业单
func (h *Handler) ListWorkOrders(c *gin.Context) {
	page, pageSize := pageParams(c)
	filter := repository.WorkOrderListFilter{
		Page:     page,
		PageSize: pageSize,
		WorkType: strings.TrimSpace(c.Query("work_type")),
		Status:   strings.TrimSpace(c.Query("status")),
		Worker:   strings.TrimSpace(c.Query("worker")),
	}
	works, total, err := h.WorkService.ListWorkOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "work order list failed", err)
		return
	}
	response.SuccessWithPage(c, works, response.NewPagination(page, pageSize, total))
}

// AssignWorkOrder 指派作业员
func (h *Handler) AssignWorkOrder(c *gin.Context) {
	workID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "work order id invalid", nil)
		return
	}
	var req AssignWorkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	work, err := h.WorkService.Assign(workID, req.Worker)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, work)
}

// StartWorkOrder 开始作业
func (h *Handler) StartWorkOrder(c *gin.Context) {
	workID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "work order id invalid", nil)
		return
	}
	work, err := h.WorkService.Start(workID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, work)
}

// CompleteWorkOrder 完成作业
func (h *Handler) CompleteWorkOrder(c *gin.Context) {
	workID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "work order id invalid", nil)
		return
	}
	work, err := h.WorkService.Complete(workID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, work)
}

// CancelWorkOrder 取消作业单
func (h *Handler) CancelWorkOrder(c *gin.Context) {
	workID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "work order id invalid", nil)
		return
	}
	work, err := h.WorkService.Cancel(workID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, work)
}
