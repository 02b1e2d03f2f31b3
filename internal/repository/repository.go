package repository

import (
	"context"
	"database/sql"

	"github.com/vinocellar/account-service/internal/dbx"
	"github.com/vinocellar/account-service/internal/models"
)

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetTempPassword(ctx context.Context, id, token string) error
	ResetPassword(ctx context.Context, id, token, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type CollectionStore interface {
	DeleteLineItems(ctx context.Context, kind, userID string) (int64, error)
	DeleteCollections(ctx context.Context, kind, userID string) (int64, error)
	Totals(ctx context.Context, kind, userID string) (models.CollectionTotals, error)
}

// Manager hands out repositories bound either to the connection pool or to a
// single transaction.
type Manager struct {
	db *sql.DB
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

func (m *Manager) Users() UserStore {
	return NewUserWriteRepository(m.db)
}

func (m *Manager) Collections() CollectionStore {
	return NewCollectionRepository(m.db)
}

// WithTx runs fn with repositories that share one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (m *Manager) WithTx(ctx context.Context, fn func(users UserStore, collections CollectionStore) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(NewUserWriteRepository(tx), NewCollectionRepository(tx))
	})
}
