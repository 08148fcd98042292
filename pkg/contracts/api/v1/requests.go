// Package api contains the HTTP contract of the ridership analytics service.
// Version v1 represents the current stable API version.
package api

import (
	"time"
)

// Ridership API Requests

// RankingRequest selects one line on one day. Limit 0 ranks every station.
type RankingRequest struct {
	Date  string `json:"date" query:"date" validate:"required,yyyymmdd"`
	Line  string `json:"line" query:"line" validate:"required,max=64"`
	Limit int    `json:"limit,omitempty" query:"limit" validate:"gte=0,lte=500"`
}

// StationReportRequest selects one station by name.
type StationReportRequest struct {
	Station string `json:"station" param:"station" validate:"required,max=64"`
}

// Ridership API Responses

// Response wraps every successful JSON payload.
type Response struct {
	Status    string      `json:"status"`
	SessionID string      `json:"session_id,omitempty"`
	Data      interface{} `json:"data"`
}

// Success builds a success envelope.
func Success(sessionID string, data interface{}) Response {
	return Response{Status: "success", SessionID: sessionID, Data: data}
}

// SessionResponse describes a newly opened session.
type SessionResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}
