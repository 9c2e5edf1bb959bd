package handlers

import (
	"net/http"
	"strconv"

	"loyalty-service/internal/services"

	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	voidService  *services.VoidService
	adminService *services.CouponAdminService
}

func NewCouponHandler(voidService *services.VoidService, adminService *services.CouponAdminService) *CouponHandler {
	return &CouponHandler{
		voidService:  voidService,
		adminService: adminService,
	}
}

func (h *CouponHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/coupons")
	group.POST("/void/:couponId", h.Void)
	group.POST("/manual-add", h.ManualAdd)
	group.POST("/bulk-add", h.BulkAdd)
	group.POST("/merge", h.Merge)
}

func (h *CouponHandler) Void(c *gin.Context) {
	couponID, err := strconv.Atoi(c.Param("couponId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, CreateErrorResponse("Bad Request", "coupon id must be numeric"))
		return
	}

	result, err := h.voidService.Void(c.Request.Context(), couponID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(result))
}

type manualAddRequest struct {
	CardNo    string `json:"card_no" binding:"required"`
	Count     int    `json:"count" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
	HandledBy string `json:"handled_by" binding:"required"`
}

func (h *CouponHandler) ManualAdd(c *gin.Context) {
	var request manualAddRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, CreateErrorResponse("Bad Request", err.Error()))
		return
	}

	if err := h.adminService.ManualAdd(c.Request.Context(), request.CardNo, request.Count, request.Reason, request.HandledBy); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(gin.H{
		"card_no": request.CardNo,
		"granted": request.Count,
	}))
}

type bulkAddRequest struct {
	CardNos      []string `json:"card_nos"`
	AllCustomers bool     `json:"all_customers"`
	Count        int      `json:"count" binding:"required"`
	Reason       string   `json:"reason" binding:"required"`
	HandledBy    string   `json:"handled_by" binding:"required"`
}

func (h *CouponHandler) BulkAdd(c *gin.Context) {
	var request bulkAddRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, CreateErrorResponse("Bad Request", err.Error()))
		return
	}
	if !request.AllCustomers && len(request.CardNos) == 0 {
		c.JSON(http.StatusBadRequest, CreateErrorResponse("Bad Request", "either card_nos or all_customers is required"))
		return
	}

	var granted int
	var err error
	if request.AllCustomers {
		granted, err = h.adminService.BulkAddAll(c.Request.Context(), request.Count, request.Reason, request.HandledBy)
	} else {
		granted, err = h.adminService.BulkAdd(c.Request.Context(), request.CardNos, request.Count, request.Reason, request.HandledBy)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(gin.H{"granted": granted}))
}

type mergeRequest struct {
	SourceCardNo string `json:"source_card_no" binding:"required"`
	TargetCardNo string `json:"target_card_no" binding:"required"`
	HandledBy    string `json:"handled_by" binding:"required"`
}

func (h *CouponHandler) Merge(c *gin.Context) {
	var request mergeRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, CreateErrorResponse("Bad Request", err.Error()))
		return
	}

	moved, err := h.adminService.Merge(c.Request.Context(), request.SourceCardNo, request.TargetCardNo, request.HandledBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(gin.H{
		"source_card_no": request.SourceCardNo,
		"target_card_no": request.TargetCardNo,
		"coupons_moved":  moved,
	}))
}
