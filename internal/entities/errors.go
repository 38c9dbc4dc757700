// Package entities contains the fleet records and domain errors.
package entities

import "errors"

var (
	// ErrInvalidArgument signals failed input validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnauthorized signals a missing or rejected session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrCarNotFound is returned when a car does not exist.
	ErrCarNotFound = errors.New("car not found")
	// ErrRouteNotFound is returned when a saved route does not exist.
	ErrRouteNotFound = errors.New("route not found")
	// ErrProfileNotFound is returned when an admin profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrPlanNotFound is returned for unknown or expired route plans.
	ErrPlanNotFound = errors.New("plan not found")
	// ErrWaypointNotFound is returned for unknown waypoint ids.
	ErrWaypointNotFound = errors.New("waypoint not found")
	// ErrJobNotFound is returned for unknown optimisation jobs.
	ErrJobNotFound = errors.New("optimization job not found")
	// ErrQuotaExceeded signals the external call budget is spent.
	ErrQuotaExceeded = errors.New("quota exceeded")
	// ErrNoRoute signals the directions provider found no route.
	ErrNoRoute = errors.New("no route found")
	// ErrGeocodeFailed signals the reverse geocode returned no result.
	ErrGeocodeFailed = errors.New("geocode failed")
	// ErrOptimizeTimeout signals the VRP job did not finish in time.
	ErrOptimizeTimeout = errors.New("optimization timed out")
	// ErrUpstream wraps unexpected failures of an external provider.
	ErrUpstream = errors.New("upstream error")
)
