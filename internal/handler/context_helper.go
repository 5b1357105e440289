package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/barbershop-api/internal/middleware"
	"github.com/noah-isme/barbershop-api/internal/models"
	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}

// ensureBookingAccess keeps barbers on their own chair. Owners and admins see everything.
func ensureBookingAccess(claims *models.JWTClaims, booking *models.Booking) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	switch claims.Role {
	case models.RoleOwner, models.RoleAdmin:
		return nil
	case models.RoleBarber:
		if claims.StaffID != "" && booking != nil && booking.StaffID == claims.StaffID {
			return nil
		}
	}
	return appErrors.ErrForbidden
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
