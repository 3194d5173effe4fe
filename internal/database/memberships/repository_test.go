package memberships

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB) {
	db, err := database.NewDatabase(config.Database{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "memberships.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db.DB), db.DB
}

func seedVisitor(t *testing.T, db *gorm.DB) *entities.Visitor {
	t.Helper()
	user := &entities.User{Username: "vera", Email: "vera@example.com"}
	require.NoError(t, db.Create(user).Error)
	visitor := &entities.Visitor{UserID: user.ID, FullName: "Vera"}
	require.NoError(t, db.Omit("User").Create(visitor).Error)
	return visitor
}

func newApplication(visitorID uint) *entities.MembershipApplication {
	return &entities.MembershipApplication{
		VisitorID: visitorID,
		FullName:  "Vera Visitor",
		IDNumber:  "3201-0001",
		Phone:     "0811",
	}
}

func TestRepository_Apply(t *testing.T) {
	repo, db := setupTestDB(t)
	v := seedVisitor(t, db)

	app := newApplication(v.ID)
	require.NoError(t, repo.Apply(app))
	assert.Equal(t, entities.MembershipStatusPending, app.Status)

	assert.ErrorIs(t, repo.Apply(newApplication(v.ID)), database.ErrApplicationExists)
	assert.ErrorIs(t, repo.Apply(newApplication(999)), database.ErrNotFound)
}

func TestRepository_Verify(t *testing.T) {
	repo, db := setupTestDB(t)
	v := seedVisitor(t, db)

	app := newApplication(v.ID)
	require.NoError(t, repo.Apply(app))

	reviewer := uint(42)
	verified, err := repo.Verify(app.ID, &reviewer, "welcome")
	require.NoError(t, err)
	assert.Equal(t, entities.MembershipStatusVerified, verified.Status)
	require.NotNil(t, verified.ReviewedByID)
	assert.Equal(t, reviewer, *verified.ReviewedByID)
	assert.NotNil(t, verified.ReviewedAt)

	var visitor entities.Visitor
	require.NoError(t, db.First(&visitor, v.ID).Error)
	assert.True(t, visitor.IsMember)
	assert.NotNil(t, visitor.MemberSince)

	// only pending applications can be reviewed
	_, err = repo.Verify(app.ID, &reviewer, "")
	assert.ErrorIs(t, err, database.ErrInvalidTransition)
	_, err = repo.Reject(app.ID, &reviewer, "")
	assert.ErrorIs(t, err, database.ErrInvalidTransition)
	_, err = repo.Verify(999, &reviewer, "")
	assert.ErrorIs(t, err, database.ErrNotFound)

	assert.ErrorIs(t, repo.Apply(newApplication(v.ID)), database.ErrAlreadyMember)
}

func TestRepository_Reject_AllowsReapply(t *testing.T) {
	repo, db := setupTestDB(t)
	v := seedVisitor(t, db)

	app := newApplication(v.ID)
	require.NoError(t, repo.Apply(app))

	rejected, err := repo.Reject(app.ID, nil, "incomplete documents")
	require.NoError(t, err)
	assert.Equal(t, entities.MembershipStatusRejected, rejected.Status)
	assert.Equal(t, "incomplete documents", rejected.ReviewNote)

	var visitor entities.Visitor
	require.NoError(t, db.First(&visitor, v.ID).Error)
	assert.False(t, visitor.IsMember)

	require.NoError(t, repo.Apply(newApplication(v.ID)))

	pending, err := repo.List(Filter{Status: entities.MembershipStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	mine, err := repo.List(Filter{VisitorID: v.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestRepository_MarkFeePaid(t *testing.T) {
	repo, db := setupTestDB(t)
	v := seedVisitor(t, db)

	app := newApplication(v.ID)
	require.NoError(t, repo.Apply(app))
	require.NoError(t, repo.MarkFeePaid(app.ID))

	got, err := repo.GetByID(app.ID)
	require.NoError(t, err)
	assert.True(t, got.FeePaid)
	assert.ErrorIs(t, repo.MarkFeePaid(999), database.ErrNotFound)
}
