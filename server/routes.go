package server

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// OAuth callback from the identity provider
	s.RegisterRouteFunc("GET "+RouteAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthCallback, ChainMiddleware(s.OAuthCallbackHandler(), s.APIMiddleware()...)) // form_post response mode

	// Session API
	s.RegisterRouteFunc("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.SessionRefreshMiddleware, s.RequireAuth)...))
	s.RegisterRouteFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteAuthTenant, ChainMiddleware(s.TenantSwitchHandler(), s.APIMiddleware()...))
}
