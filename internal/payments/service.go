package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/librarium/internal/availability"
	"github.com/mrlokans/librarium/internal/database"
	txstore "github.com/mrlokans/librarium/internal/database/payments"
	"github.com/mrlokans/librarium/internal/entities"
)

// Gateway is the subset of the gateway client the service needs.
type Gateway interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*CreateTransactionResponse, error)
	GetStatus(ctx context.Context, orderID string) (*StatusResponse, error)
}

// TransactionStore persists transactions.
type TransactionStore interface {
	Create(tx *entities.Transaction) error
	GetByOrderID(orderID string) (*entities.Transaction, error)
	FindPending(purpose entities.PaymentPurpose, referenceID uint) (*entities.Transaction, error)
	SetCheckout(id uint, token, redirectURL string) error
	ApplyStatus(orderID string, upd txstore.StatusUpdate) (bool, error)
	ListStalePending(before time.Time) ([]entities.Transaction, error)
}

// MembershipStore reads applications and records paid fees.
type MembershipStore interface {
	GetByID(id uint) (*entities.MembershipApplication, error)
	MarkFeePaid(id uint) error
}

// EventBookingStore reads bookings and settles their payment state.
type EventBookingStore interface {
	GetBooking(id uint) (*entities.EventBooking, error)
	AttachTransaction(bookingID, transactionID uint) error
	ConfirmPayment(id uint) error
	ReleaseUnpaid(id uint) error
	ListStaleUnpaid(before time.Time) ([]entities.EventBooking, error)
}

// VisitorStore reads the paying visitor.
type VisitorStore interface {
	GetVisitorByID(id uint) (*entities.Visitor, error)
}

// Options configures a Service.
type Options struct {
	ServerKey     string
	MembershipFee int64
	Expiry        time.Duration
}

// Service ties local transactions to the gateway and applies their outcome.
type Service struct {
	gateway     Gateway
	txs         TransactionStore
	memberships MembershipStore
	bookings    EventBookingStore
	visitors    VisitorStore
	opts        Options
	now         func() time.Time
}

func NewService(gateway Gateway, txs TransactionStore, memberships MembershipStore,
	bookings EventBookingStore, visitors VisitorStore, opts Options) *Service {
	return &Service{
		gateway:     gateway,
		txs:         txs,
		memberships: memberships,
		bookings:    bookings,
		visitors:    visitors,
		opts:        opts,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// charge is what a checkout bills for.
type charge struct {
	amount int64
	item   ItemDetail
}

func (s *Service) priceMembership(visitorID, applicationID uint) (charge, error) {
	app, err := s.memberships.GetByID(applicationID)
	if err != nil {
		return charge{}, err
	}
	if app.VisitorID != visitorID {
		return charge{}, ErrNotOwner
	}
	if app.FeePaid || app.Status == entities.MembershipStatusRejected || s.opts.MembershipFee <= 0 {
		return charge{}, ErrNothingToPay
	}
	return charge{
		amount: s.opts.MembershipFee,
		item: ItemDetail{
			ID:       fmt.Sprintf("membership-%d", app.ID),
			Price:    s.opts.MembershipFee,
			Quantity: 1,
			Name:     "Membership fee",
		},
	}, nil
}

func (s *Service) priceEventBooking(visitorID, bookingID uint) (charge, error) {
	booking, err := s.bookings.GetBooking(bookingID)
	if err != nil {
		return charge{}, err
	}
	if booking.VisitorID != visitorID {
		return charge{}, ErrNotOwner
	}
	if booking.Status != entities.BookingStatusPendingPayment || booking.Event == nil || booking.Event.Price <= 0 {
		return charge{}, ErrNothingToPay
	}
	places := availability.Slots(booking)
	return charge{
		amount: booking.Event.Price * int64(places),
		item: ItemDetail{
			ID:       fmt.Sprintf("event-%d", booking.EventID),
			Price:    booking.Event.Price,
			Quantity: places,
			Name:     truncate(booking.Event.Title, 50),
		},
	}, nil
}

// Checkout starts a payment for a membership application or event booking
// owned by visitorID. The amount is always computed here, never taken from
// the caller. A pending checkout for the same reference is returned as is.
func (s *Service) Checkout(ctx context.Context, visitorID uint, purpose entities.PaymentPurpose, referenceID uint) (*entities.Transaction, error) {
	var c charge
	var err error
	switch purpose {
	case entities.PaymentPurposeMembership:
		c, err = s.priceMembership(visitorID, referenceID)
	case entities.PaymentPurposeEventBooking:
		c, err = s.priceEventBooking(visitorID, referenceID)
	default:
		return nil, ErrUnknownPurpose
	}
	if err != nil {
		return nil, err
	}

	existing, err := s.txs.FindPending(purpose, referenceID)
	if err == nil && existing.SnapToken != "" && existing.Amount == c.amount {
		return existing, nil
	}
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}

	tx := &entities.Transaction{
		OrderID:     uuid.NewString(),
		VisitorID:   visitorID,
		Purpose:     purpose,
		ReferenceID: referenceID,
		Amount:      c.amount,
		Status:      entities.TransactionStatusPending,
	}
	if err := s.txs.Create(tx); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	req := CreateTransactionRequest{
		TransactionDetails: TransactionDetails{OrderID: tx.OrderID, GrossAmount: c.amount},
		ItemDetails:        []ItemDetail{c.item},
	}
	if s.opts.Expiry > 0 {
		req.Expiry = &Expiry{Unit: "minute", Duration: int(s.opts.Expiry.Minutes())}
	}
	if visitor, err := s.visitors.GetVisitorByID(visitorID); err == nil {
		req.CustomerDetails = &CustomerDetails{
			FirstName: visitor.FullName,
			Email:     visitor.User.Email,
			Phone:     visitor.Phone,
		}
	}

	resp, err := s.gateway.CreateTransaction(ctx, req)
	if err != nil {
		if _, markErr := s.txs.ApplyStatus(tx.OrderID, txstore.StatusUpdate{
			Status:        entities.TransactionStatusFailed,
			GatewayStatus: "create_failed",
		}); markErr != nil {
			log.Printf("Payments: failed to mark order %s as failed: %v", tx.OrderID, markErr)
		}
		return nil, fmt.Errorf("failed to create gateway transaction: %w", err)
	}

	if err := s.txs.SetCheckout(tx.ID, resp.Token, resp.RedirectURL); err != nil {
		return nil, fmt.Errorf("failed to store checkout: %w", err)
	}
	tx.SnapToken = resp.Token
	tx.RedirectURL = resp.RedirectURL

	if purpose == entities.PaymentPurposeEventBooking {
		if err := s.bookings.AttachTransaction(referenceID, tx.ID); err != nil {
			return nil, fmt.Errorf("failed to link booking: %w", err)
		}
	}
	return tx, nil
}

// HandleNotification verifies and applies a gateway notification. Without a
// server key every signature would be computable by anyone, so nothing is
// accepted until one is configured.
func (s *Service) HandleNotification(ctx context.Context, n *StatusResponse) (*entities.Transaction, error) {
	if s.opts.ServerKey == "" {
		return nil, ErrNotConfigured
	}
	if !VerifySignature(n.OrderID, n.StatusCode, n.GrossAmount, s.opts.ServerKey, n.SignatureKey) {
		return nil, ErrInvalidSignature
	}

	tx, err := s.txs.GetByOrderID(n.OrderID)
	if err != nil {
		return nil, err
	}
	if amount, ok := parseAmount(n.GrossAmount); !ok || amount != tx.Amount {
		return nil, ErrAmountMismatch
	}

	return s.apply(tx, n)
}

// Sync pulls the current status of an order from the gateway and applies it.
func (s *Service) Sync(ctx context.Context, orderID string) (*entities.Transaction, error) {
	tx, err := s.txs.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	status, err := s.gateway.GetStatus(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.apply(tx, status)
}

func (s *Service) apply(tx *entities.Transaction, n *StatusResponse) (*entities.Transaction, error) {
	status := MapStatus(n.TransactionStatus, n.FraudStatus)
	changed, err := s.txs.ApplyStatus(tx.OrderID, txstore.StatusUpdate{
		Status:        status,
		GatewayStatus: n.TransactionStatus,
		PaymentType:   n.PaymentType,
		At:            s.now(),
	})
	if err != nil {
		return nil, err
	}
	if changed {
		log.Printf("Payments: order %s is now %s (gateway: %s)", tx.OrderID, status, n.TransactionStatus)
		if err := s.settle(tx, status); err != nil {
			return nil, err
		}
	}
	return s.txs.GetByOrderID(tx.OrderID)
}

// settle applies the side effects of a transaction reaching status.
func (s *Service) settle(tx *entities.Transaction, status entities.TransactionStatus) error {
	switch status {
	case entities.TransactionStatusPaid:
		switch tx.Purpose {
		case entities.PaymentPurposeMembership:
			return s.memberships.MarkFeePaid(tx.ReferenceID)
		case entities.PaymentPurposeEventBooking:
			return ignoreTransition(s.bookings.ConfirmPayment(tx.ReferenceID))
		}
	case entities.TransactionStatusFailed, entities.TransactionStatusCanceled, entities.TransactionStatusExpired:
		if tx.Purpose == entities.PaymentPurposeEventBooking {
			return ignoreTransition(s.bookings.ReleaseUnpaid(tx.ReferenceID))
		}
	}
	return nil
}

// ExpireStale expires pending transactions created before the cutoff and
// releases the bookings they were holding. Pending Payment bookings made
// before the cutoff that were never paid for are released too. Returns the
// number of transactions expired plus bookings released.
func (s *Service) ExpireStale(ctx context.Context, before time.Time) (int, error) {
	stale, err := s.txs.ListStalePending(before)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		tx := &stale[i]
		changed, err := s.txs.ApplyStatus(tx.OrderID, txstore.StatusUpdate{
			Status:        entities.TransactionStatusExpired,
			GatewayStatus: gatewayExpire,
			At:            s.now(),
		})
		if err != nil {
			return expired, err
		}
		if !changed {
			continue
		}
		expired++
		if err := s.settle(tx, entities.TransactionStatusExpired); err != nil {
			return expired, err
		}
	}

	unpaid, err := s.bookings.ListStaleUnpaid(before)
	if err != nil {
		return expired, err
	}
	for _, booking := range unpaid {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		err := s.bookings.ReleaseUnpaid(booking.ID)
		if errors.Is(err, database.ErrInvalidTransition) {
			continue
		}
		if err != nil {
			return expired, err
		}
		log.Printf("Payments: released unpaid booking %d of event %d", booking.ID, booking.EventID)
		expired++
	}
	return expired, nil
}

func ignoreTransition(err error) error {
	if errors.Is(err, database.ErrInvalidTransition) {
		return nil
	}
	return err
}

// parseAmount reads gateway amounts such as "50000.00".
func parseAmount(s string) (int64, bool) {
	whole, frac, _ := strings.Cut(s, ".")
	if strings.Trim(frac, "0") != "" {
		return 0, false
	}
	v, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
