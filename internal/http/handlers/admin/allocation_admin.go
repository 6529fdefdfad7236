package admin

import (
	"strconv"
	"strings"

	"github.com/merchantflow/internal/http/response"
	"github.com/merchantflow/internal/repository"
	"github.com/merchantflow/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateAllocationRequest 创建配货单请求
type CreateAllocationRequest struct {
	OrderID         uint   `json:"order_id" binding:"required"`
	PlannedQuantity int    `json:"planned_quantity" binding:"required"`
	Priority        int    `json:"priority"`
	Operator        string `json:"operator"`
}

// CommitAllocationRequest 提交配货数量请求
type CommitAllocationRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// CreateAllocation 创建配货单
func (h *Handler) CreateAllocation(c *gin.Context) {
	var req CreateAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	allocation, err := h.AllocationService.Allocate(service.AllocateInput{
		OrderID:         req.OrderID,
		PlannedQuantity: req.PlannedQuantity,
		Priority:        req.Priority,
		Operator:        strings.TrimSpace(req.Operator),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, allocation)
}

// GetAllocation 配货单详情
func (h *Handler) GetAllocation(c *gin.Context) {
	allocationID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "allocation id invalid", nil)
		return
	}
	allocation, err := h.AllocationService.GetAllocation(allocationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, allocation)
}

// ListAllocations 分页查询配货单
func (h *Handler) ListAllocations(c *gin.Context) {
	page, pageSize := pageParams(c)
	priority, _ := strconv.Atoi(c.DefaultQuery("priority", "0"))
	filter := repository.AllocationListFilter{
		Page:        page,
		PageSize:    pageSize,
		OrderID:     parseQueryUint(c, "order_id"),
		Status:      strings.TrimSpace(c.Query("status")),
		Priority:    priority,
		Operator:    strings.TrimSpace(c.Query("operator")),
		CreatedFrom: parseQueryTime(c, "created_from"),
		CreatedTo:   parseQueryTime(c, "created_to"),
	}
	allocations, total, err := h.AllocationService.ListAllocations(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "allocation list failed", err)
		return
	}
	response.SuccessWithPage(c, allocations, response.NewPagination(page, pageSize, total))
}

// CommitAllocation 提交配货数量
func (h *Handler) CommitAllocation(c *gin.Context) {
	allocationID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "allocation id invalid", nil)
		return
	}
	var req CommitAllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	allocation, err := h.AllocationService.CommitAllocation(allocationID, req.Quantity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, allocation)
}

// CloseAllocation 关闭配货单（足额 allocated，不足 shortage）
func (h *Handler) CloseAllocation(c *gin.Context) {
	allocationID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "allocation id invalid", nil)
		return
	}
	allocation, err := h.AllocationService.Close(allocationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, allocation)
}

// ReopenAllocation 缺货单重新打开补提
func (h *Handler) ReopenAllocation(c *gin.Context) {
	allocationID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "allocation id invalid", nil)
		return
	}
	allocation, err := h.AllocationService.Reopen(allocationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, allocation)
}

// CancelAllocation 取消配货单
func (h *Handler) CancelAllocation(c *gin.Context) {
	allocationID, ok := parsePathUint(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, "allocation id invalid", nil)
		return
	}
	allocation, err := h.AllocationService.Cancel(allocationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, allocation)
}

// NextPendingAllocations 按优先级取待处理配货单
func (h *Handler) NextPendingAllocations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	allocations, err := h.AllocationService.NextPending(limit)
	if err != nil {
		respondError(c, response.CodeInternal, "allocation list failed", err)
		return
	}
	response.Success(c, allocations)
}
