// Package events defines the messages exchanged on the ridership websocket.
// Each connection owns one session; the client sends selections and the
// server answers with the recomputed result.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client requests
	MessageTypeSelectDayLine MessageType = "select_day_line"
	MessageTypeSelectStation MessageType = "select_station"
	MessageTypeGetOptions    MessageType = "get_options"
	MessageTypeHeartbeat     MessageType = "heartbeat"

	// Server replies
	MessageTypeConnect       MessageType = "connect"
	MessageTypeOptions       MessageType = "options"
	MessageTypeRanking       MessageType = "ranking"
	MessageTypeStationReport MessageType = "station_report"
	MessageTypeError         MessageType = "error"
)

// ClientMessage is a request sent by the browser. Only the fields of the
// given type are read; the services reject missing ones.
type ClientMessage struct {
	Type      MessageType `json:"type" validate:"required,oneof=select_day_line select_station get_options heartbeat"`
	RequestID string      `json:"request_id,omitempty" validate:"max=64"`

	// select_day_line
	Date  string `json:"date,omitempty" validate:"omitempty,yyyymmdd"`
	Line  string `json:"line,omitempty" validate:"max=64"`
	Limit int    `json:"limit,omitempty" validate:"gte=0,lte=500"`

	// select_station
	Station string `json:"station,omitempty" validate:"max=64"`
}

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage is a server reply. RequestID echoes the request it
// answers.
type WebSocketMessage struct {
	BaseMessage
	SessionID string      `json:"session_id"`
	RequestID string      `json:"request_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// ConnectData is sent once after the upgrade.
type ConnectData struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Fatal   bool        `json:"fatal"`
}

// Error codes carried by ErrorMessage.Code
const (
	ErrCodeInvalidMessage  = "INVALID_MESSAGE"
	ErrCodeValidation      = "VALIDATION_FAILED"
	ErrCodeUnsupportedType = "UNSUPPORTED_TYPE"
	ErrCodeDataUnreadable  = "DATA_UNREADABLE"
	ErrCodeSchemaViolation = "SCHEMA_VIOLATION"
	ErrCodeTimeout         = "TIMEOUT"
	ErrCodeServerError     = "SERVER_ERROR"
)
