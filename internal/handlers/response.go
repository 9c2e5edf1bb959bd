package handlers

import (
	"errors"
	"net/http"

	"loyalty-service/internal/services"

	"github.com/gin-gonic/gin"
)

type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func CreateSuccessResponse(data any) SuccessResponse {
	return SuccessResponse{Success: true, Data: data}
}

func CreateErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Success: false,
		Error:   APIError{Code: code, Message: message},
	}
}

// respondError maps service errors to HTTP statuses.
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var insufficientErr *services.InsufficientCouponsError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, CreateErrorResponse("Bad Request", validationErr.Error()))
	case errors.As(err, &insufficientErr):
		c.JSON(http.StatusBadRequest, CreateErrorResponse("Insufficient Coupons", insufficientErr.Error()))
	case errors.Is(err, services.ErrBlacklisted):
		c.JSON(http.StatusForbidden, CreateErrorResponse("Forbidden", "This customer is blacklisted"))
	case errors.Is(err, services.ErrCouponNotRedeemed):
		c.JSON(http.StatusNotFound, CreateErrorResponse("Not Found", "No redeemed coupon with that id"))
	case errors.Is(err, services.ErrCustomerNotFound):
		c.JSON(http.StatusNotFound, CreateErrorResponse("Not Found", "Customer not found"))
	default:
		c.JSON(http.StatusInternalServerError, CreateErrorResponse("Internal server error", err.Error()))
	}
}
