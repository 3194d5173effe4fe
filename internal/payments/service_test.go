package payments

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/database/events"
	"github.com/mrlokans/librarium/internal/database/memberships"
	txstore "github.com/mrlokans/librarium/internal/database/payments"
	"github.com/mrlokans/librarium/internal/database/users"
	"github.com/mrlokans/librarium/internal/entities"
)

const testServerKey = "server-key"

type fakeGateway struct {
	created   []CreateTransactionRequest
	createErr error
	status    *StatusResponse
}

func (f *fakeGateway) CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*CreateTransactionResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &CreateTransactionResponse{
		Token:       "token-" + req.TransactionDetails.OrderID,
		RedirectURL: "https://pay.example/" + req.TransactionDetails.OrderID,
	}, nil
}

func (f *fakeGateway) GetStatus(ctx context.Context, orderID string) (*StatusResponse, error) {
	if f.status == nil {
		return nil, &GatewayError{StatusCode: 404}
	}
	return f.status, nil
}

type fixture struct {
	service     *Service
	gateway     *fakeGateway
	txs         *txstore.Repository
	memberships *memberships.Repository
	events      *events.Repository
	visitor     *entities.Visitor
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "payments.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	accounts := users.NewRepository(db.DB)
	visitor := &entities.Visitor{FullName: "Vera", Phone: "0811"}
	require.NoError(t, accounts.CreateAccount(&entities.User{Username: "vera", Email: "vera@example.com"}, visitor))

	f := &fixture{
		gateway:     &fakeGateway{},
		txs:         txstore.NewRepository(db.DB),
		memberships: memberships.NewRepository(db.DB),
		events:      events.NewRepository(db.DB),
		visitor:     visitor,
	}
	f.service = NewService(f.gateway, f.txs, f.memberships, f.events, accounts, Options{
		ServerKey:     testServerKey,
		MembershipFee: 50000,
		Expiry:        24 * time.Hour,
	})
	return f
}

func (f *fixture) apply(t *testing.T) *entities.MembershipApplication {
	t.Helper()
	app := &entities.MembershipApplication{VisitorID: f.visitor.ID, FullName: "Vera", IDNumber: "1", Phone: "0811"}
	require.NoError(t, f.memberships.Apply(app))
	return app
}

func (f *fixture) bookPaidEvent(t *testing.T, price int64, members ...string) *entities.EventBooking {
	t.Helper()
	event := &entities.Event{Title: "Workshop", Date: "2030-01-01", ShiftID: 1, MaxCapacity: 10, Price: price}
	require.NoError(t, f.events.Create(event))
	booking := &entities.EventBooking{
		EventID:    event.ID,
		VisitorID:  f.visitor.ID,
		GroupSlots: entities.NewGroupSlots(len(members) > 0, members),
	}
	_, err := f.events.Book(booking)
	require.NoError(t, err)
	return booking
}

func notification(tx *entities.Transaction, transactionStatus, grossAmount string) *StatusResponse {
	return &StatusResponse{
		StatusCode:        "200",
		OrderID:           tx.OrderID,
		GrossAmount:       grossAmount,
		TransactionStatus: transactionStatus,
		PaymentType:       "bank_transfer",
		SignatureKey:      Signature(tx.OrderID, "200", grossAmount, testServerKey),
	}
}

func TestService_Checkout_Membership(t *testing.T) {
	f := setup(t)
	app := f.apply(t)

	tx, err := f.service.Checkout(context.Background(), f.visitor.ID, entities.PaymentPurposeMembership, app.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50000), tx.Amount)
	assert.Len(t, tx.OrderID, 36)
	assert.Equal(t, "token-"+tx.OrderID, tx.SnapToken)
	assert.Equal(t, entities.TransactionStatusPending, tx.Status)

	require.Len(t, f.gateway.created, 1)
	req := f.gateway.created[0]
	assert.Equal(t, "vera@example.com", req.CustomerDetails.Email)
	assert.Equal(t, 1440, req.Expiry.Duration)

	// a second checkout reuses the pending transaction
	again, err := f.service.Checkout(context.Background(), f.visitor.ID, entities.PaymentPurposeMembership, app.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.OrderID, again.OrderID)
	assert.Len(t, f.gateway.created, 1)
}

func TestService_Checkout_Rejections(t *testing.T) {
	f := setup(t)
	app := f.apply(t)

	_, err := f.service.Checkout(context.Background(), f.visitor.ID+1, entities.PaymentPurposeMembership, app.ID)
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = f.service.Checkout(context.Background(), f.visitor.ID, "donation", 1)
	assert.ErrorIs(t, err, ErrUnknownPurpose)

	_, err = f.service.Checkout(context.Background(), f.visitor.ID, entities.PaymentPurposeMembership, 999)
	assert.ErrorIs(t, err, database.ErrNotFound)

	free := f.bookPaidEvent(t, 0)
	_, err = f.service.Checkout(context.Background(), f.visitor.ID, entities.PaymentPurposeEventBooking, free.ID)
	assert.ErrorIs(t, err, ErrNothingToPay)
}

func TestService_Checkout_GatewayFailureMarksFailed(t *testing.T) {
	f := setup(t)
	app := f.apply(t)
	f.gateway.createErr = &GatewayError{StatusCode: 500}

	_, err := f.service.Checkout(context.Background(), f.visitor.ID, entities.PaymentPurposeMembership, app.ID)
	require.Error(t, err)
	var gwErr *GatewayError
	assert.True(t, errors.As(err, &gwErr))

	failed, total, err := f.txs.List(txstore.Filter{Status: entities.TransactionStatusFailed}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "create_failed", failed[0].GatewayStatus)
}

func TestService_HandleNotification_PaysMembership(t *testing.T) {
	f := setup(t)
	app := f.apply(t)
	tx, err := f.service.Checkout(context.Background(), f.visitor.ID, entities.PaymentPurposeMembership, app.ID)
	require.NoError(t, err)

	paid, err := f.service.HandleNotification(context.Background(), notification(tx, "settlement", "50000.00"))
	require.NoError(t, err)
	assert.Equal(t, entities.TransactionStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	got, err := f.memberships.GetByID(app.ID)
	require.NoError(t, err)
	assert.True(t, got.FeePaid)
	// fee payment does not verify the application
	assert.Equal(t, entities.MembershipStatusPending, got.Status)
}

func TestService_HandleNotification_Rejects(t *testing.T) {
	f := setup(t)
	app := f.apply(t)
	tx, err := f.service.Checkout(context.Background(), f.visitor.ID, entities.PaymentPurposeMembership, app.ID)
	require.NoError(t, err)

	forged := notification(tx, "settlement", "50000.00")
	forged.SignatureKey = "forged"
	_, err = f.service.HandleNotification(context.Background(), forged)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = f.service.HandleNotification(context.Background(), notification(tx, "settlement", "100.00"))
	assert.ErrorIs(t, err, ErrAmountMismatch)

	unknown := &entities.Transaction{OrderID: "nope"}
	_, err = f.service.HandleNotification(context.Background(), notification(unknown, "settlement", "50000.00"))
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestService_EventBooking_ConfirmedOnPayment(t *testing.T) {
	f := setup(t)
	booking := f.bookPaidEvent(t, 20000, "Ann", "Ben", "Cid")
	require.Equal(t, entities.BookingStatusPendingPayment, booking.Status)

	tx, err := f.service.Checkout(context.Background(), f.visitor.ID, entities.PaymentPurposeEventBooking, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), tx.Amount)

	linked, err := f.events.GetBooking(booking.ID)
	require.NoError(t, err)
	require.NotNil(t, linked.TransactionID)
	assert.Equal(t, tx.ID, *linked.TransactionID)

	_, err = f.service.HandleNotification(context.Background(), notification(tx, "capture", "60000.00"))
	require.NoError(t, err)

	confirmed, err := f.events.GetBooking(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusConfirmed, confirmed.Status)
}

func TestService_EventBooking_ReleasedOnExpiry(t *testing.T) {
	f := setup(t)
	booking := f.bookPaidEvent(t, 20000)

	tx, err := f.service.Checkout(context.Background(), f.visitor.ID, entities.PaymentPurposeEventBooking, booking.ID)
	require.NoError(t, err)

	f.gateway.status = &StatusResponse{StatusCode: "407", OrderID: tx.OrderID, TransactionStatus: "expire"}
	synced, err := f.service.Sync(context.Background(), tx.OrderID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransactionStatusExpired, synced.Status)

	released, err := f.events.GetBooking(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCanceled, released.Status)
}

func TestService_ExpireStale(t *testing.T) {
	f := setup(t)
	booking := f.bookPaidEvent(t, 20000)

	_, err := f.service.Checkout(context.Background(), f.visitor.ID, entities.PaymentPurposeEventBooking, booking.ID)
	require.NoError(t, err)

	count, err := f.service.ExpireStale(context.Background(), time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = f.service.ExpireStale(context.Background(), time.Now().UTC().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	released, err := f.events.GetBooking(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCanceled, released.Status)
}

func TestService_HandleNotification_RequiresServerKey(t *testing.T) {
	f := setup(t)
	booking := f.bookPaidEvent(t, 25000)
	tx, err := f.service.Checkout(context.Background(), f.visitor.ID, entities.PaymentPurposeEventBooking, booking.ID)
	require.NoError(t, err)

	f.service.opts.ServerKey = ""
	unsigned := notification(tx, "settlement", "25000.00")
	unsigned.SignatureKey = Signature(tx.OrderID, "200", "25000.00", "")

	_, err = f.service.HandleNotification(context.Background(), unsigned)
	assert.ErrorIs(t, err, ErrNotConfigured)

	stored, err := f.txs.GetByOrderID(tx.OrderID)
	require.NoError(t, err)
	assert.Equal(t, entities.TransactionStatusPending, stored.Status)

	held, err := f.events.GetBooking(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusPendingPayment, held.Status)
}

func TestService_ExpireStale_ReleasesBookingsNeverCheckedOut(t *testing.T) {
	f := setup(t)
	booking := f.bookPaidEvent(t, 25000)

	count, err := f.service.ExpireStale(context.Background(), time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = f.service.ExpireStale(context.Background(), time.Now().UTC().Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	released, err := f.events.GetBooking(booking.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.BookingStatusCanceled, released.Status)

	// nothing left to release
	count, err = f.service.ExpireStale(context.Background(), time.Now().UTC().Add(48*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
}
