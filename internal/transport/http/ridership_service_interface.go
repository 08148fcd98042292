package http

import (
	"context"

	"github.com/szooyang/ai-project01/internal/services"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// RidershipServiceInterface defines the queries served over HTTP.
// *services.RidershipService satisfies it.
type RidershipServiceInterface interface {
	Options(ctx context.Context) (domain.SelectionOptions, error)
	Ranking(ctx context.Context, sess *services.Session, q services.RankingQuery) (domain.LineRanking, error)
	StationReport(ctx context.Context, sess *services.Session, station string) (domain.StationReport, error)
}

// SessionStoreInterface opens and closes sessions explicitly.
// *services.SessionStore satisfies it.
type SessionStoreInterface interface {
	Open(ctx context.Context) *services.Session
	Close(ctx context.Context, id string) bool
}
