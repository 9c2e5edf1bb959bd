package handlers

import (
	"net/http"

	"loyalty-service/internal/models"
	"loyalty-service/internal/repository"
	"loyalty-service/internal/services"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	customerRepo      *repository.CustomerRepository
	couponRepo        *repository.CouponRepository
	tierService       *services.TierService
	settingsService   *services.SettingsService
	redemptionService *services.RedemptionService
}

func NewCustomerHandler(
	customerRepo *repository.CustomerRepository,
	couponRepo *repository.CouponRepository,
	tierService *services.TierService,
	settingsService *services.SettingsService,
	redemptionService *services.RedemptionService,
) *CustomerHandler {
	return &CustomerHandler{
		customerRepo:      customerRepo,
		couponRepo:        couponRepo,
		tierService:       tierService,
		settingsService:   settingsService,
		redemptionService: redemptionService,
	}
}

func (h *CustomerHandler) RegisterRoutes(router *gin.Engine) {
	group := router.Group("/api/customers")
	group.GET("/:cardNo", h.GetCustomer)
	group.POST("/:cardNo/redeem", h.Redeem)
}

// GetCustomer returns the loyalty profile for one card: the mirrored
// customer row, current tier, and the pending coupon pool.
func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	cardNo := c.Param("cardNo")

	customer, err := h.customerRepo.GetByCard(c.Request.Context(), cardNo)
	if err != nil {
		respondError(c, err)
		return
	}
	if customer == nil {
		respondError(c, services.ErrCustomerNotFound)
		return
	}

	settings := h.settingsService.GetTierSettings(c.Request.Context())
	tier, err := h.tierService.GetTier(c.Request.Context(), cardNo, settings)
	if err != nil {
		respondError(c, err)
		return
	}
	pending, err := h.couponRepo.PendingByCard(c.Request.Context(), cardNo)
	if err != nil {
		respondError(c, err)
		return
	}
	redeemed, err := h.couponRepo.CountRedeemed(c.Request.Context(), cardNo)
	if err != nil {
		respondError(c, err)
		return
	}
	history, err := h.couponRepo.HistoryByCard(c.Request.Context(), cardNo, 50)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateSuccessResponse(gin.H{
		"customer":       customer,
		"tier":           tier,
		"pendingCoupons": pending,
		"redeemedCount":  redeemed,
		"couponHistory":  history,
	}))
}

func (h *CustomerHandler) Redeem(c *gin.Context) {
	cardNo := c.Param("cardNo")

	var request models.RedeemRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, CreateErrorResponse("Bad Request", err.Error()))
		return
	}

	receipt, err := h.redemptionService.Redeem(c.Request.Context(), cardNo, request)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, CreateSuccessResponse(receipt))
}
