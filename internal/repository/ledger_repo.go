package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mathieu-neron/adwatch/internal/apperr"
	"github.com/mathieu-neron/adwatch/internal/model"
)

// LedgerRepo calls the reward ledger's database RPCs. The functions own all ledger logic,
// including duplicate-claim detection; an exception raised inside them is a rejection.
type LedgerRepo struct {
	pool *pgxpool.Pool
}

// Both RPCs are wrapped in to_json so json, jsonb and composite return types decode the same way.
const (
	claimRewardSQL       = `SELECT to_json(claim_reward(user_id => $1::uuid, campaign_id => $2::uuid))`
	requestWithdrawalSQL = `SELECT to_json(request_withdrawal(user_id => $1::uuid))`
)

func NewLedgerRepo(pool *pgxpool.Pool) *LedgerRepo {
	return &LedgerRepo{pool: pool}
}

// ClaimReward calls claim_reward(user_id, campaign_id). A NULL reply decodes to nil.
func (r *LedgerRepo) ClaimReward(ctx context.Context, userID, campaignID string) (*model.LedgerClaimReply, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, claimRewardSQL, userID, campaignID).Scan(&raw)
	if err != nil {
		return nil, classifyLedgerError("claim_reward", err)
	}
	return decodeReply[model.LedgerClaimReply]("claim_reward", raw)
}

// RequestWithdrawal calls request_withdrawal(user_id). The reply may be NULL or carry no amount.
func (r *LedgerRepo) RequestWithdrawal(ctx context.Context, userID string) (*model.LedgerWithdrawalReply, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, requestWithdrawalSQL, userID).Scan(&raw)
	if err != nil {
		return nil, classifyLedgerError("request_withdrawal", err)
	}
	return decodeReply[model.LedgerWithdrawalReply]("request_withdrawal", raw)
}

func decodeReply[T any](op string, raw []byte) (*T, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var reply T
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, &apperr.TransportError{Op: op, Err: fmt.Errorf("%w: %v", apperr.ErrMalformedReply, err)}
	}
	return &reply, nil
}

// classifyLedgerError separates explicit rejections from failures with an unknown outcome.
// Connection exceptions (08), resource exhaustion (53), operator intervention such as
// statement timeouts (57) and system errors (58) say nothing about whether the RPC committed.
func classifyLedgerError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && len(pgErr.Code) >= 2 {
		switch pgErr.Code[:2] {
		case "08", "53", "57", "58":
			return &apperr.TransportError{Op: op, Err: err}
		default:
			return &apperr.RemoteRejection{Op: op, Reason: pgErr.Message}
		}
	}
	return &apperr.TransportError{Op: op, Err: err}
}
