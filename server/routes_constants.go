package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHealth = "/health"

	// Auth Routes
	RouteAuthLogin  = "/api/auth/login"
	RouteAuthMFA    = "/api/auth/mfa"
	RouteAuthStatus = "/api/auth/status/{session_id}"
	RouteAuthDemo   = "/api/auth/demo"

	// Data Routes
	RouteElectricityData = "/api/electricity-data"
	RouteWeatherData     = "/api/weather-data"
	RoutePredictions     = "/api/predictions"
)
