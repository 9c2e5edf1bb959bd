package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"loyalty-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func statusFor(t *testing.T, err error) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(recorder)
	respondError(ctx, err)
	return recorder.Code
}

func TestRespondError_StatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(t, &services.ValidationError{Message: "bad input"}))
	assert.Equal(t, http.StatusBadRequest, statusFor(t, &services.InsufficientCouponsError{Requested: 5, Available: 3}))
	assert.Equal(t, http.StatusForbidden, statusFor(t, services.ErrBlacklisted))
	assert.Equal(t, http.StatusNotFound, statusFor(t, services.ErrCouponNotRedeemed))
	assert.Equal(t, http.StatusNotFound, statusFor(t, services.ErrCustomerNotFound))
	assert.Equal(t, http.StatusInternalServerError, statusFor(t, errors.New("connection refused")))
}

func TestRespondError_WrappedSentinel(t *testing.T) {
	wrapped := errors.Join(errors.New("while redeeming"), services.ErrBlacklisted)
	assert.Equal(t, http.StatusForbidden, statusFor(t, wrapped))
}
