// Package users resolves account roles and manages visitor profiles.
//
// A user's role is never stored on the account. It is derived from which
// role table (owners, staff, visitors) holds the user's ID, checked in that
// order so an account present in several tables gets the most privileged role.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	role, profileID, err := repo.ResolveRole(userID)
package users

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarium/internal/database"
	"github.com/mrlokans/librarium/internal/entities"
)

// Repository handles role lookups and visitor profile operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

type roleTable struct {
	role  entities.Role
	model any
}

var roleTables = []roleTable{
	{entities.RoleOwner, &entities.Owner{}},
	{entities.RoleStaff, &entities.Staff{}},
	{entities.RoleVisitor, &entities.Visitor{}},
}

// ResolveRole returns the role of the user and the ID of its row in the role table.
// Returns database.ErrNotFound when the user has no role row. Inactive staff
// accounts resolve to no role.
func (r *Repository) ResolveRole(userID uint) (entities.Role, uint, error) {
	for _, rt := range roleTables {
		var row struct {
			ID uint
		}
		query := r.db.Model(rt.model).Select("id").Where("user_id = ?", userID)
		if rt.role == entities.RoleStaff {
			query = query.Where("active = ?", true)
		}
		result := query.Limit(1).Scan(&row)
		if result.Error != nil {
			return "", 0, result.Error
		}
		if result.RowsAffected > 0 {
			return rt.role, row.ID, nil
		}
	}
	return "", 0, database.ErrNotFound
}

// HasOwner reports whether at least one owner account exists.
func (r *Repository) HasOwner() (bool, error) {
	var count int64
	if err := r.db.Model(&entities.Owner{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetOwnerByUserID retrieves the owner profile of a user.
func (r *Repository) GetOwnerByUserID(userID uint) (*entities.Owner, error) {
	var owner entities.Owner
	err := r.db.Preload("User").Where("user_id = ?", userID).First(&owner).Error
	if err != nil {
		return nil, database.NotFound(err)
	}
	return &owner, nil
}

// GetVisitorByID retrieves a visitor with its account.
func (r *Repository) GetVisitorByID(id uint) (*entities.Visitor, error) {
	var visitor entities.Visitor
	err := r.db.Preload("User").First(&visitor, id).Error
	if err != nil {
		return nil, database.NotFound(err)
	}
	return &visitor, nil
}

// GetVisitorByUserID retrieves the visitor profile of a user.
func (r *Repository) GetVisitorByUserID(userID uint) (*entities.Visitor, error) {
	var visitor entities.Visitor
	err := r.db.Preload("User").Where("user_id = ?", userID).First(&visitor).Error
	if err != nil {
		return nil, database.NotFound(err)
	}
	return &visitor, nil
}

// ListVisitors returns visitors matching q against name or phone.
func (r *Repository) ListVisitors(q string, membersOnly bool, limit, offset int) ([]entities.Visitor, int64, error) {
	var visitors []entities.Visitor
	var total int64

	query := r.db.Model(&entities.Visitor{})
	if q = strings.TrimSpace(q); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR phone LIKE ?", like, like)
	}
	if membersOnly {
		query = query.Where("is_member = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 50
	}
	err := query.Preload("User").Order("full_name ASC").Limit(limit).Offset(offset).Find(&visitors).Error
	return visitors, total, err
}

// VisitorUpdate holds the editable profile fields. Nil fields are left untouched.
type VisitorUpdate struct {
	FullName *string
	Phone    *string
	Address  *string
}

// UpdateVisitor changes a visitor's profile.
func (r *Repository) UpdateVisitor(id uint, upd VisitorUpdate) (*entities.Visitor, error) {
	updates := map[string]any{}
	if upd.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*upd.FullName)
	}
	if upd.Phone != nil {
		updates["phone"] = *upd.Phone
	}
	if upd.Address != nil {
		updates["address"] = *upd.Address
	}
	if len(updates) > 0 {
		updates["updated_at"] = time.Now().UTC()
		result := r.db.Model(&entities.Visitor{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, database.ErrNotFound
		}
	}
	return r.GetVisitorByID(id)
}

// CreateAccount inserts a user and its role row in one transaction.
// profile must be one of *entities.Visitor, *entities.Staff or *entities.Owner;
// its UserID is filled in.
func (r *Repository) CreateAccount(user *entities.User, profile any) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(user).Error; err != nil {
			return err
		}
		switch p := profile.(type) {
		case *entities.Visitor:
			p.UserID = user.ID
		case *entities.Staff:
			p.UserID = user.ID
		case *entities.Owner:
			p.UserID = user.ID
		default:
			return errors.New("unsupported profile type")
		}
		return tx.Omit(clause.Associations).Create(profile).Error
	})
}

// DeleteAccount removes a user and every role row that references it.
func (r *Repository) DeleteAccount(userID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, rt := range roleTables {
			if err := tx.Where("user_id = ?", userID).Delete(rt.model).Error; err != nil {
				return err
			}
		}
		result := tx.Unscoped().Delete(&entities.User{}, userID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}
