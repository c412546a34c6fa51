package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mathieu-neron/adwatch/internal/model"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// FindProfile returns the viewer profile by auth user ID. Returns pgx.ErrNoRows if it does not exist.
func (r *ProfileRepo) FindProfile(ctx context.Context, userID string) (*model.Profile, error) {
	query := `
		SELECT id::text, COALESCE(role, 'viewer'), COALESCE(cash_wallet, 0)::text
		FROM profiles
		WHERE id = $1::uuid`

	var (
		p      model.Profile
		wallet string
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.Role, &wallet)
	if err != nil {
		return nil, err
	}

	p.CashWallet, err = decimal.NewFromString(wallet)
	if err != nil {
		return nil, fmt.Errorf("parse cash_wallet %q: %w", wallet, err)
	}
	return &p, nil
}
