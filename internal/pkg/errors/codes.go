package errors

import "net/http"

var (
	ErrAreaNotFound = New(
		"AREA_NOT_FOUND",
		"Area not found",
		http.StatusNotFound,
	)

	ErrRouteNotFound = New(
		"ROUTE_NOT_FOUND",
		"Route not found",
		http.StatusNotFound,
	)

	ErrInvalidActivity = New(
		"INVALID_ACTIVITY",
		"Invalid activity type: must be walking, running or cycling",
		http.StatusBadRequest,
	)

	ErrInvalidCoordinates = New(
		"INVALID_COORDINATES",
		"Invalid coordinates provided",
		http.StatusBadRequest,
	)

	ErrInvalidRouteID = New(
		"INVALID_ROUTE_ID",
		"Invalid route ID",
		http.StatusBadRequest,
	)

	ErrDatabaseError = New(
		"DATABASE_ERROR",
		"Database operation failed",
		http.StatusInternalServerError,
	)

	ErrCacheError = New(
		"CACHE_ERROR",
		"Cache operation failed",
		http.StatusInternalServerError,
	)

	ErrDirectionsError = New(
		"DIRECTIONS_ERROR",
		"Directions provider request failed",
		http.StatusBadGateway,
	)

	ErrStreamError = New(
		"STREAM_ERROR",
		"Stream operation failed",
		http.StatusInternalServerError,
	)

	ErrInvalidRequest = New(
		"INVALID_REQUEST",
		"Invalid request parameters",
		http.StatusBadRequest,
	)

	ErrInternalServer = New(
		"INTERNAL_SERVER_ERROR",
		"Internal server error",
		http.StatusInternalServerError,
	)
)
