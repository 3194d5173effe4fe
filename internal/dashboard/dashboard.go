// Package dashboard computes the read-only summaries shown to staff and owners.
// Queries are built with goqu for the configured dialect and scanned with sqlx
// straight from the application's connection pool.
package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"

	"github.com/mrlokans/librarium/internal/availability"
	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entities"
)

// goqu dialect and sqlx driver name per configured driver
var dialects = map[string]struct{ goqu, sqlx string }{
	config.DriverSQLite:   {"sqlite3", "sqlite3"},
	config.DriverPostgres: {"postgres", "pgx"},
	config.DriverMySQL:    {"mysql", "mysql"},
}

type Options struct {
	SessionCapacity   int
	LowStockThreshold int
}

type Service struct {
	db      *sqlx.DB
	dialect goqu.DialectWrapper
	opts    Options
	now     func() time.Time
}

func NewService(sqlDB *sql.DB, driver string, opts Options) (*Service, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("dashboard: unsupported driver %q", driver)
	}
	return &Service{
		db:      sqlx.NewDb(sqlDB, d.sqlx),
		dialect: goqu.Dialect(d.goqu),
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

type ShiftOccupancy struct {
	ShiftID   uint   `json:"shift_id"`
	Name      string `json:"name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Occupied  int    `json:"occupied"`
	Capacity  int    `json:"capacity"`
	Remaining int    `json:"remaining"`
}

type StaffSummary struct {
	Date               string           `json:"date"`
	LoansOnGoing       int64            `json:"loans_on_going"`
	LoansOverdue       int64            `json:"loans_overdue"`
	Occupancy          []ShiftOccupancy `json:"occupancy"`
	PendingMemberships int64            `json:"pending_memberships"`
	OpenEvents         int64            `json:"open_events"`
	LowStockItems      int64            `json:"low_stock_items"`
}

type OwnerSummary struct {
	Books                int64            `json:"books"`
	Visitors             int64            `json:"visitors"`
	Members              int64            `json:"members"`
	ActiveStaff          int64            `json:"active_staff"`
	Events               int64            `json:"events"`
	Revenue              int64            `json:"revenue"`
	RevenueByPurpose     map[string]int64 `json:"revenue_by_purpose"`
	LoansByStatus        map[string]int64 `json:"loans_by_status"`
	TransactionsByStatus map[string]int64 `json:"transactions_by_status"`
}

func (s *Service) count(ctx context.Context, table string, where ...exp.Expression) (int64, error) {
	query, args, err := s.dialect.From(table).
		Select(goqu.COUNT(goqu.Star())).
		Where(where...).
		Prepared(true).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build %s count: %w", table, err)
	}
	var n int64
	if err := s.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

type groupRow struct {
	Key   string `db:"k"`
	Value int64  `db:"v"`
}

// grouped returns agg per distinct value of col.
func (s *Service) grouped(ctx context.Context, table, col string, agg exp.Expression, where ...exp.Expression) (map[string]int64, error) {
	query, args, err := s.dialect.From(table).
		Select(goqu.C(col).As("k"), goqu.COALESCE(agg, 0).As("v")).
		Where(where...).
		GroupBy(goqu.C(col)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build %s by %s: %w", table, col, err)
	}
	var rows []groupRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("group %s by %s: %w", table, col, err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

type shiftRow struct {
	ID        uint   `db:"id"`
	Name      string `db:"name"`
	StartTime string `db:"start_time"`
	EndTime   string `db:"end_time"`
}

type bookingRow struct {
	ShiftID uint           `db:"shift_id"`
	IsGroup bool           `db:"is_group"`
	Member1 sql.NullString `db:"member_1"`
	Member2 sql.NullString `db:"member_2"`
	Member3 sql.NullString `db:"member_3"`
	Member4 sql.NullString `db:"member_4"`
	Member5 sql.NullString `db:"member_5"`
}

func (b bookingRow) slots() entities.GroupSlots {
	var members []string
	for _, m := range []sql.NullString{b.Member1, b.Member2, b.Member3, b.Member4, b.Member5} {
		if m.Valid {
			members = append(members, m.String)
		}
	}
	return entities.NewGroupSlots(b.IsGroup, members)
}

// occupancy reports how many places each shift has taken on date.
func (s *Service) occupancy(ctx context.Context, date string) ([]ShiftOccupancy, error) {
	query, args, err := s.dialect.From("shifts").
		Select("id", "name", "start_time", "end_time").
		Order(goqu.C("start_time").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}
	var shifts []shiftRow
	if err := s.db.SelectContext(ctx, &shifts, query, args...); err != nil {
		return nil, fmt.Errorf("list shifts: %w", err)
	}

	query, args, err = s.dialect.From("session_bookings").
		Select("shift_id", "is_group", "member_1", "member_2", "member_3", "member_4", "member_5").
		Where(
			goqu.C("date").Eq(date),
			goqu.C("status").Neq(entities.BookingStatusCanceled),
		).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, err
	}
	var bookings []bookingRow
	if err := s.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list session bookings: %w", err)
	}

	perShift := make(map[uint][]entities.SessionBooking)
	for _, b := range bookings {
		perShift[b.ShiftID] = append(perShift[b.ShiftID], entities.SessionBooking{
			ShiftID:    b.ShiftID,
			GroupSlots: b.slots(),
			Status:     entities.BookingStatusBooked,
		})
	}

	out := make([]ShiftOccupancy, 0, len(shifts))
	for _, sh := range shifts {
		occupied := availability.Occupancy(perShift[sh.ID])
		remaining := s.opts.SessionCapacity - occupied
		if remaining < 0 {
			remaining = 0
		}
		out = append(out, ShiftOccupancy{
			ShiftID:   sh.ID,
			Name:      sh.Name,
			StartTime: sh.StartTime,
			EndTime:   sh.EndTime,
			Occupied:  occupied,
			Capacity:  s.opts.SessionCapacity,
			Remaining: remaining,
		})
	}
	return out, nil
}

// Staff returns today's front-desk overview.
func (s *Service) Staff(ctx context.Context) (*StaffSummary, error) {
	today := s.now().Format("2006-01-02")
	summary := &StaffSummary{Date: today}

	loans, err := s.grouped(ctx, "loans", "status", goqu.COUNT(goqu.Star()))
	if err != nil {
		return nil, err
	}
	summary.LoansOnGoing = loans[string(entities.LoanStatusOnGoing)]
	summary.LoansOverdue = loans[string(entities.LoanStatusOverdue)]

	if summary.Occupancy, err = s.occupancy(ctx, today); err != nil {
		return nil, err
	}

	summary.PendingMemberships, err = s.count(ctx, "membership_applications",
		goqu.Ex{"status": entities.MembershipStatusPending})
	if err != nil {
		return nil, err
	}

	summary.OpenEvents, err = s.count(ctx, "events",
		goqu.Ex{"status": entities.EventStatusOpen},
		goqu.C("date").Gte(today))
	if err != nil {
		return nil, err
	}

	summary.LowStockItems, err = s.count(ctx, "inventory_items",
		goqu.C("quantity").Lte(s.opts.LowStockThreshold),
		goqu.C("condition").Neq(entities.ItemConditionLost))
	if err != nil {
		return nil, err
	}

	return summary, nil
}

// Owner returns the all-time totals and revenue.
func (s *Service) Owner(ctx context.Context) (*OwnerSummary, error) {
	summary := &OwnerSummary{}

	counts := []struct {
		dst   *int64
		table string
		where []exp.Expression
	}{
		{&summary.Books, "books", nil},
		{&summary.Visitors, "visitors", nil},
		{&summary.Members, "visitors", []exp.Expression{goqu.Ex{"is_member": true}}},
		{&summary.ActiveStaff, "staff", []exp.Expression{goqu.Ex{"active": true}}},
		{&summary.Events, "events", nil},
	}
	for _, c := range counts {
		n, err := s.count(ctx, c.table, c.where...)
		if err != nil {
			return nil, err
		}
		*c.dst = n
	}

	var err error
	summary.RevenueByPurpose, err = s.grouped(ctx, "transactions", "purpose", goqu.SUM("amount"),
		goqu.Ex{"status": entities.TransactionStatusPaid})
	if err != nil {
		return nil, err
	}
	for _, amount := range summary.RevenueByPurpose {
		summary.Revenue += amount
	}

	if summary.LoansByStatus, err = s.grouped(ctx, "loans", "status", goqu.COUNT(goqu.Star())); err != nil {
		return nil, err
	}
	if summary.TransactionsByStatus, err = s.grouped(ctx, "transactions", "status", goqu.COUNT(goqu.Star())); err != nil {
		return nil, err
	}

	return summary, nil
}
