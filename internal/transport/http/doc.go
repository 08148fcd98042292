// Package http implements the HTTP handlers of the ridership web service.
// Handlers stay thin: they decode and validate query parameters, call the
// services and render either JSON, a CSV download or a PNG chart.
//
// # Routes
//
//	GET    /api/health
//	GET    /api/health/ready
//	GET    /api/version
//	POST   /api/sessions
//	GET    /api/sessions/current
//	DELETE /api/sessions/{id}
//	GET    /api/ridership/options
//	GET    /api/ridership/ranking?date=YYYYMMDD&line=...&limit=N
//	GET    /api/ridership/ranking.csv
//	GET    /api/ridership/ranking.png
//	GET    /api/ridership/stations/{station}/report
//	GET    /api/ridership/stations/{station}/report.csv
//
// Session-scoped routes expect the X-Session-ID header; without it a new
// session is opened and its id returned in the same header.
//
// # Error Handling
//
// All errors follow RFC 7807 Problem Details:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/ridership/ranking"
//	}
package http
