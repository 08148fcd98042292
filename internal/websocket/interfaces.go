package websocket

import (
	"context"
	"net"
	"time"

	"github.com/szooyang/ai-project01/internal/services"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// Connection is the subset of *websocket.Conn the client uses.
// Tests substitute an in-memory implementation.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	RemoteAddr() net.Addr
}

// QueryService answers the selections made over the socket.
// *services.RidershipService satisfies it.
type QueryService interface {
	Options(ctx context.Context) (domain.SelectionOptions, error)
	Ranking(ctx context.Context, sess *services.Session, q services.RankingQuery) (domain.LineRanking, error)
	StationReport(ctx context.Context, sess *services.Session, station string) (domain.StationReport, error)
}

// SessionStore opens the session a connection owns and closes it when the
// connection ends. *services.SessionStore satisfies it.
type SessionStore interface {
	Open(ctx context.Context) *services.Session
	Close(ctx context.Context, id string) bool
}
