package payments

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	"github.com/mrlokans/librarium/internal/entities"
)

// Gateway transaction statuses.
const (
	gatewayCapture       = "capture"
	gatewaySettlement    = "settlement"
	gatewayPending       = "pending"
	gatewayDeny          = "deny"
	gatewayFailure       = "failure"
	gatewayCancel        = "cancel"
	gatewayExpire        = "expire"
	gatewayRefund        = "refund"
	gatewayPartialRefund = "partial_refund"

	fraudAccept    = "accept"
	fraudChallenge = "challenge"
)

// MapStatus converts a gateway transaction status and fraud status into the
// local transaction status. Unknown statuses stay pending.
func MapStatus(transactionStatus, fraudStatus string) entities.TransactionStatus {
	switch transactionStatus {
	case gatewayCapture:
		switch fraudStatus {
		case fraudChallenge:
			return entities.TransactionStatusPending
		case fraudAccept, "":
			return entities.TransactionStatusPaid
		default:
			return entities.TransactionStatusFailed
		}
	case gatewaySettlement:
		return entities.TransactionStatusPaid
	case gatewayPending:
		return entities.TransactionStatusPending
	case gatewayDeny, gatewayFailure:
		return entities.TransactionStatusFailed
	case gatewayCancel:
		return entities.TransactionStatusCanceled
	case gatewayExpire:
		return entities.TransactionStatusExpired
	case gatewayRefund, gatewayPartialRefund:
		return entities.TransactionStatusRefunded
	default:
		return entities.TransactionStatusPending
	}
}

// Signature is the hex SHA-512 of orderID, statusCode, grossAmount and serverKey concatenated.
func Signature(orderID, statusCode, grossAmount, serverKey string) string {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// VerifySignature checks a notification signature in constant time.
func VerifySignature(orderID, statusCode, grossAmount, serverKey, signature string) bool {
	expected := Signature(orderID, statusCode, grossAmount, serverKey)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}
