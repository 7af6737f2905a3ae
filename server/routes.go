package server

func (s *Server) initRoutes() {
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))

	// Method-qualified patterns never match OPTIONS, so preflights need their
	// own route; CorsMiddleware answers them before the handler runs.
	s.RegisterRouteHandler("OPTIONS /", ChainMiddleware(s.PreflightHandler(), s.APIMiddleware()...))

	// LOGIN / MFA
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware(s.RateLimitMiddleware(s.loginLimiter))...))
	s.RegisterRouteHandler("POST "+RouteAuthMFA, ChainMiddleware(s.MFAHandler(), s.APIMiddleware(s.RateLimitMiddleware(s.mfaLimiter))...))
	s.RegisterRouteHandler("GET "+RouteAuthStatus, ChainMiddleware(s.StatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthDemo, ChainMiddleware(s.DemoLoginHandler(), s.APIMiddleware(s.RateLimitMiddleware(s.loginLimiter))...))

	// DATA
	s.RegisterRouteHandler("GET "+RouteElectricityData, ChainMiddleware(s.ElectricityDataHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteWeatherData, ChainMiddleware(s.WeatherDataHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RoutePredictions, ChainMiddleware(s.PredictionsHandler(), s.APIMiddleware()...))
}
