package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/szooyang/ai-project01/internal/dataprocessing"
	apierrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/internal/infrastructure"
	customMiddleware "github.com/szooyang/ai-project01/internal/middleware"
	"github.com/szooyang/ai-project01/internal/services"
	"github.com/szooyang/ai-project01/pkg/contracts/events"
)

// Dispatcher turns one client request into one reply.
type Dispatcher struct {
	service   QueryService
	validator *customMiddleware.Validator
	timeout   time.Duration
	metrics   *infrastructure.RidershipMetrics
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. timeout bounds each query; zero
// disables it. metrics may be nil.
func NewDispatcher(service QueryService, timeout time.Duration, metrics *infrastructure.RidershipMetrics, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		service:   service,
		validator: customMiddleware.NewValidator(),
		timeout:   timeout,
		metrics:   metrics,
		logger:    infrastructure.WithComponent(logger, "websocket.dispatcher"),
	}
}

// Handle answers raw. It returns nil for heartbeats.
func (d *Dispatcher) Handle(ctx context.Context, sess *services.Session, raw []byte) *events.WebSocketMessage {
	var msg events.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.metrics.RecordWebSocketMessage(ctx, "in", "invalid")
		return newErrorReply(sess, "", events.ErrorMessage{
			Code:    events.ErrCodeInvalidMessage,
			Message: "message is not valid JSON",
		})
	}
	d.metrics.RecordWebSocketMessage(ctx, "in", string(msg.Type))

	switch msg.Type {
	case events.MessageTypeHeartbeat:
		return nil
	case events.MessageTypeSelectDayLine, events.MessageTypeSelectStation, events.MessageTypeGetOptions:
	default:
		return newErrorReply(sess, msg.RequestID, events.ErrorMessage{
			Code:    events.ErrCodeUnsupportedType,
			Message: "unsupported message type " + string(msg.Type),
		})
	}

	if err := d.validator.Struct(msg); err != nil {
		return newErrorReply(sess, msg.RequestID, toErrorMessage(err))
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	replyType, data, err := d.dispatch(ctx, sess, msg)
	if err != nil {
		d.logger.WarnContext(ctx, "websocket request failed",
			slog.String("type", string(msg.Type)),
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()))
		return newErrorReply(sess, msg.RequestID, toErrorMessage(err))
	}
	return newReply(sess, msg.RequestID, replyType, data)
}

func (d *Dispatcher) dispatch(ctx context.Context, sess *services.Session, msg events.ClientMessage) (events.MessageType, interface{}, error) {
	switch msg.Type {
	case events.MessageTypeSelectDayLine:
		var date time.Time
		if msg.Date != "" {
			parsed, err := dataprocessing.ParseDate(msg.Date)
			if err != nil {
				return "", nil, apierrors.ErrValidation("date", err.Error())
			}
			date = parsed
		}
		ranking, err := d.service.Ranking(ctx, sess, services.RankingQuery{
			Date:  date,
			Line:  msg.Line,
			Limit: msg.Limit,
		})
		return events.MessageTypeRanking, ranking, err

	case events.MessageTypeSelectStation:
		report, err := d.service.StationReport(ctx, sess, msg.Station)
		return events.MessageTypeStationReport, report, err

	default:
		opts, err := d.service.Options(ctx)
		return events.MessageTypeOptions, opts, err
	}
}

func newReply(sess *services.Session, requestID string, msgType events.MessageType, data interface{}) *events.WebSocketMessage {
	return &events.WebSocketMessage{
		BaseMessage: events.BaseMessage{
			ID:        uuid.New().String(),
			Type:      msgType,
			Timestamp: time.Now(),
		},
		SessionID: sess.ID,
		RequestID: requestID,
		Data:      data,
	}
}

func newErrorReply(sess *services.Session, requestID string, e events.ErrorMessage) *events.WebSocketMessage {
	return newReply(sess, requestID, events.MessageTypeError, e)
}

// toErrorMessage maps service and validation errors onto websocket error codes.
func toErrorMessage(err error) events.ErrorMessage {
	if errors.Is(err, context.DeadlineExceeded) {
		return events.ErrorMessage{Code: events.ErrCodeTimeout, Message: "request took too long"}
	}

	var apiErr *apierrors.APIError
	if errors.As(err, &apiErr) {
		return events.ErrorMessage{Code: apiErr.ErrorCode, Message: apiErr.Message, Details: apiErr.Details}
	}

	var appErr *apierrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Type {
		case apierrors.ErrTypeValidation:
			msg := appErr.Message
			if appErr.Cause != nil {
				msg += ": " + appErr.Cause.Error()
			}
			return events.ErrorMessage{Code: events.ErrCodeValidation, Message: msg}
		case apierrors.ErrTypeDataUnreadable:
			return events.ErrorMessage{Code: events.ErrCodeDataUnreadable, Message: appErr.Message, Fatal: true}
		case apierrors.ErrTypeSchemaViolation:
			return events.ErrorMessage{Code: events.ErrCodeSchemaViolation, Message: appErr.Error(), Fatal: true}
		}
	}

	return events.ErrorMessage{Code: events.ErrCodeServerError, Message: "internal error"}
}
