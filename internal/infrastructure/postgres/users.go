package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres" // registers the "postgres" dialect
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/task-tracker-api/internal/domain"
)

const uniqueViolation = "23505"

// userRow is the relational shape of a user.
type userRow struct {
	ID           string `gorm:"primary_key;size:26"`
	Name         string `gorm:"not null"`
	Email        string `gorm:"not null;unique_index"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		UserID:       r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Open connects with the given gorm dialect and migrates the users table.
// Connection failures wrap domain.ErrDependencyUnavailable.
func Open(dialect, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", dialect, err, domain.ErrDependencyUnavailable)
	}
	db.LogMode(false)
	if err := db.AutoMigrate(&userRow{}).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate users: %w", err)
	}
	return db, nil
}

// UserRepo stores users in a relational database through gorm.
type UserRepo struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Durable() bool { return true }

func (r *UserRepo) Create(_ context.Context, u *domain.User) error {
	row := userRow{
		ID:           u.UserID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if err := r.db.Create(&row).Error; err != nil {
		return mapDBErr("create user", err)
	}
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, userID string) (*domain.User, error) {
	var row userRow
	if err := r.db.Where("id = ?", userID).First(&row).Error; err != nil {
		return nil, mapDBErr("get user", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var row userRow
	if err := r.db.Where("email = ?", email).First(&row).Error; err != nil {
		return nil, mapDBErr("get user by email", err)
	}
	return row.toDomain(), nil
}

func (r *UserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	var n int
	if err := r.db.Model(&userRow{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, mapDBErr("count users", err)
	}
	return n > 0, nil
}

func (r *UserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	res := r.db.Model(&userRow{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"password_hash": passwordHash, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return mapDBErr("update password", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// mapDBErr translates driver errors into domain errors.
func mapDBErr(op string, err error) error {
	if gorm.IsRecordNotFoundError(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) && liteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
