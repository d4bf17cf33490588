package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/foliotrack/foliotrack/internal/common"
	"github.com/foliotrack/foliotrack/internal/interfaces"
	"github.com/foliotrack/foliotrack/internal/models"
)

// UserStore resolves bearer-token subjects to stored user accounts.
type UserStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewUserStore(db *surrealdb.DB, logger *common.Logger) *UserStore {
	return &UserStore{db: db, logger: logger}
}

var _ interfaces.UserStore = (*UserStore)(nil)

func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := surrealdb.Select[models.User](ctx, s.db, surrealmodels.NewRecordID("user", userID))
	if err != nil {
		return nil, fmt.Errorf("failed to select user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	return user, nil
}

func (s *UserStore) SaveUser(ctx context.Context, user *models.User) error {
	return upsert(ctx, s.db, "user", user.UserID, user)
}
