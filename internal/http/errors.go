package http

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarium/internal/availability"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/database/loans"
	"github.com/mrlokans/librarium/internal/payments"
)

// badRequestErrors are domain failures caused by the request itself.
var badRequestErrors = []error{
	database.ErrDuplicateName,
	database.ErrInvalidReference,
	database.ErrCategoryInUse,
	database.ErrGenreInUse,
	database.ErrInvalidTransition,
	database.ErrEventNotOpen,
	loans.ErrNoBooks,
	loans.ErrDuplicateBooks,
	loans.ErrDueBeforeLoan,
	loans.ErrTooManyBooks,
	payments.ErrNothingToPay,
	payments.ErrUnknownPurpose,
	payments.ErrAmountMismatch,
}

// conflictErrors are failures caused by the current state of other records.
var conflictErrors = []error{
	database.ErrDuplicateISBN,
	database.ErrBookOnLoan,
	database.ErrReferenced,
	database.ErrAlreadyBooked,
	database.ErrSlotUnavailable,
	database.ErrApplicationExists,
	database.ErrAlreadyMember,
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// respondDomainError maps repository and service errors onto HTTP statuses.
// resource names the entity for 404 messages; context labels 500 log lines.
func respondDomainError(c *gin.Context, err error, resource, context string) {
	var unavailable *availability.UnavailableError
	var gatewayErr *payments.GatewayError

	switch {
	case errors.Is(err, database.ErrNotFound):
		respondNotFound(c, resource)
	case errors.As(err, &unavailable):
		respondConflict(c, unavailable.Result.Message, unavailable.Result)
	case matchesAny(err, conflictErrors):
		respondConflict(c, err.Error(), nil)
	case matchesAny(err, badRequestErrors):
		respondBadRequest(c, err.Error())
	case errors.Is(err, payments.ErrInvalidSignature):
		respondUnauthorized(c, err.Error())
	case errors.Is(err, payments.ErrNotOwner):
		respondForbidden(c, err.Error())
	case errors.Is(err, payments.ErrNotConfigured):
		respondError(c, http.StatusServiceUnavailable, CodeUnavailable, err.Error())
	case errors.As(err, &gatewayErr):
		log.Printf("Payment gateway error (%s): %v", context, err)
		respondError(c, http.StatusBadGateway, CodeGateway, "payment gateway error")
	default:
		respondInternalError(c, err, context)
	}
}
