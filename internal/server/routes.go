package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/mem"

	"FitPulse_V0.1/internal/utility"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "X-Platform"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(LoggerMiddleware)

	e.GET("/health", s.healthHandler)

	// Everything owner-scoped sits behind the bearer token.
	protected := e.Group("")
	protected.Use(s.JwtAuthMiddleware)

	// Chat routes
	protected.POST("/chat", s.chatHandler)
	protected.GET("/chat/history", s.chatHistoryHandler)
	protected.DELETE("/chat/history", s.clearChatHandler)

	// Food photo analysis route
	protected.POST("/food/analyze", s.analyzeFoodHandler)

	// Fitness plan routes
	protected.POST("/plans", s.generatePlanHandler)
	protected.GET("/plans", s.listPlansHandler)
	protected.POST("/plans/:plan_id/activate", s.activatePlanHandler)

	// Aggregate dashboard data
	protected.GET("/overview", s.overviewHandler)

	return e
}

func (s *Server) healthHandler(c echo.Context) error {
	health := map[string]any{
		"db": s.db.Health(),
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		health["memory"] = map[string]any{
			"used_percent": fmt.Sprintf("%.1f", vm.UsedPercent),
			"total_mb":     vm.Total / 1024 / 1024,
		}
	}
	return c.JSON(http.StatusOK, health)
}

// LoggerMiddleware attaches a request-scoped logger carrying the request id.
func LoggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Response().Header().Set("X-Request-ID", requestID)

		logger := log.With().
			Str("request_id", requestID).
			Str("ip", utility.GetRealIP(c)).
			Logger()

		c.Set("logger", &logger)

		return next(c)
	}
}

// JwtAuthMiddleware verifies the HMAC bearer token and puts the owner id in
// the request context. Issuing tokens (signup, login) is handled by the
// identity service, not this API.
func (s *Server) JwtAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Missing bearer token"})
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			log.Warn().Err(err).Msg("token validation failed")
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		}

		ownerID, err := token.Claims.GetSubject()
		if err != nil || ownerID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Token has no subject"})
		}

		c.Set("owner_id", ownerID)
		return next(c)
	}
}
