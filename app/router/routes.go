// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"
	_ "net/http/pprof"
	"strings"
	"time"

	"github.com/avolkov/robocontest/app/dto"
	"github.com/avolkov/robocontest/app/handlers"
	"github.com/avolkov/robocontest/app/middleware"
	"github.com/avolkov/robocontest/config"
	_ "github.com/avolkov/robocontest/docs"
	"github.com/avolkov/robocontest/utils"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cache"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app              *fiber.App
	cfg              *config.ProductionConfig
	authMiddleware   *middleware.AuthMiddleware
	adminAuthHandler handlers.AdminAuthHandlerInterface
	teamHandler      handlers.TeamHandlerInterface
	seasonHandler    handlers.SeasonHandlerInterface
	contactHandler   handlers.ContactHandlerInterface
	campaignHandler  handlers.MailingCampaignHandlerInterface
	emailLogHandler  handlers.EmailLogHandlerInterface
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(
	cfg *config.ProductionConfig,
	adminAuthHandler handlers.AdminAuthHandlerInterface,
	teamHandler handlers.TeamHandlerInterface,
	seasonHandler handlers.SeasonHandlerInterface,
	contactHandler handlers.ContactHandlerInterface,
	campaignHandler handlers.MailingCampaignHandlerInterface,
	emailLogHandler handlers.EmailLogHandlerInterface,
	authMiddleware *middleware.AuthMiddleware,
) Router {
	// Configure Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "RoboContest API",
		ServerHeader: "RoboContest",
		ErrorHandler: errorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:              app,
		cfg:              cfg,
		authMiddleware:   authMiddleware,
		adminAuthHandler: adminAuthHandler,
		teamHandler:      teamHandler,
		seasonHandler:    seasonHandler,
		contactHandler:   contactHandler,
		campaignHandler:  campaignHandler,
		emailLogHandler:  emailLogHandler,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	// Global middleware
	r.setupMiddleware()

	// Prometheus scrape endpoint (outside the API group, no rate limiting)
	if r.cfg.Metrics.Enabled {
		path := r.cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	// Profiling endpoints (disabled by default), served off the default mux
	// where net/http/pprof registers itself
	if r.cfg.Metrics.EnablePprof {
		r.app.All("/debug/pprof/*", adaptor.HTTPHandler(http.DefaultServeMux))
	}

	// API routes
	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/healthz", r.healthCheck)

	// API documentation route (development only)
	if r.cfg.Deployment.Environment == "development" || r.cfg.Deployment.Environment == "local" {
		api.Get("/docs", r.getAPIDocumentation)
		api.Get("/swagger.json", r.serveSwaggerJSON)
		// Serve Swagger UI
		r.app.Get("/swagger", r.serveSwaggerUI)
		log.Println("API documentation enabled for development")
	}

	// Apply general rate limiting to all API routes (aligned with nginx)
	api.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.GlobalRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			// Skip rate limiting for health checks
			return c.Path() == "/api/v1/healthz"
		},
	}))

	// Public endpoints
	api.Get("/captcha/rotate", r.adminAuthHandler.InitCaptcha)
	api.Get("/seasons", r.seasonHandler.List)
	api.Get("/seasons/current", r.seasonHandler.Current)
	api.Get("/seasons/:id", r.seasonHandler.Get)
	api.Post("/teams/register", r.teamHandler.Register)
	api.Post("/contacts", r.contactHandler.Submit)

	// Admin auth routes with stricter rate limiting (no Bearer token yet)
	adminAuth := api.Group("/admin/auth")

	// Apply stricter rate limiting to auth endpoints (aligned with nginx)
	adminAuth.Use(limiter.New(limiter.Config{
		Max:        r.cfg.Security.AuthRateLimit,
		Expiration: r.cfg.Security.RateLimitWindow,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP() // Rate limit by IP
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
	}))

	adminAuth.Get("/captcha/init", r.adminAuthHandler.InitCaptcha)
	adminAuth.Post("/login", r.adminAuthHandler.Login)
	adminAuth.Post("/refresh", r.adminAuthHandler.Refresh)

	// Admin endpoints guarded by the Bearer token middleware
	admin := api.Group("/admin", r.authMiddleware.Authenticate())

	// Team management
	admin.Get("/teams", r.teamHandler.List)
	admin.Get("/teams/export", r.teamHandler.Export)
	admin.Get("/teams/:id", r.teamHandler.Get)
	admin.Patch("/teams/:id/status", r.teamHandler.UpdateStatus)

	// Season management
	admin.Post("/seasons", r.seasonHandler.Create)
	admin.Patch("/seasons/:id", r.seasonHandler.Update)
	admin.Delete("/seasons/:id", r.seasonHandler.Delete)

	// Contact messages
	admin.Get("/contacts", r.contactHandler.List)
	admin.Patch("/contacts/:id", r.contactHandler.Update)

	// Mass mailing
	mailing := admin.Group("/mailing")
	mailing.Post("/campaigns", r.campaignHandler.Create)
	mailing.Get("/campaigns", r.campaignHandler.List)
	mailing.Get("/campaigns/:id", r.campaignHandler.Get)
	mailing.Delete("/campaigns/:id", r.campaignHandler.Delete)
	mailing.Post("/campaigns/:id/send", r.campaignHandler.Send)
	mailing.Get("/logs", r.emailLogHandler.List)
	mailing.Get("/logs/stats", r.emailLogHandler.Stats)
	mailing.Post("/logs/:id/resend", r.emailLogHandler.Resend)
	mailing.Get("/recipients/preview", r.emailLogHandler.PreviewRecipients)
	mailing.Get("/teams/emails", r.emailLogHandler.ListTeamEmails)
	mailing.Post("/send-custom", r.emailLogHandler.SendCustom)

	// Not found handler
	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// SetupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000, // 1 year
		HSTSExcludeSubdomains:     false,
		ContentSecurityPolicy:     "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; font-src 'self' https:; connect-src 'self' https:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginEmbedderPolicy: "require-corp",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	// CORS middleware with production settings
	r.app.Use(cors.New(cors.Config{
		AllowOrigins:     r.cfg.Security.AllowedOrigins,
		AllowMethods:     r.cfg.Security.AllowedMethods,
		AllowHeaders:     r.cfg.Security.AllowedHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: r.cfg.Security.AllowCredentials,
		MaxAge:           r.cfg.Security.CORSMaxAge,
	}))

	// Compression middleware for performance
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			// Skip compression for certain content types
			contentType := c.Get("Content-Type")
			return contains(contentType, "image/") ||
				contains(contentType, "video/") ||
				contains(contentType, "audio/")
		},
	}))

	// Cache middleware for static content
	r.app.Use(cache.New(cache.Config{
		Next: func(c fiber.Ctx) bool {
			// Only cache GET requests to specific endpoints
			return c.Method() != "GET" ||
				!contains(c.Path(), "/healthz") &&
					!contains(c.Path(), "/docs")
		},
		Expiration:          30 * time.Minute,
		DisableCacheControl: false,
	}))

	// Advanced logging middleware
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			// Skip logging for health checks in production
			return c.Path() == "/api/v1/healthz"
		},
	}))

	// Prometheus HTTP metrics
	if r.cfg.Metrics.Enabled {
		r.app.Use(middleware.Metrics())
	}

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
			// Log panic with request context
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "ok",
			"timestamp": utils.UTCNow().Unix(),
			"version":   r.cfg.Deployment.Version,
			"service":   "robocontest-api",
		},
	})
}

// API documentation endpoint
func (r *FiberRouter) getAPIDocumentation(c fiber.Ctx) error {
	docs := GetRouteDocumentation()
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "API documentation retrieved successfully",
		Data: fiber.Map{
			"title":       "RoboContest API Documentation",
			"version":     r.cfg.Deployment.Version,
			"description": "Robotics competition management and mass mailing API",
			"endpoints":   docs,
		},
	})
}

// Serve Swagger UI HTML page
func (r *FiberRouter) serveSwaggerUI(c fiber.Ctx) error {
	htmlContent := `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>RoboContest API - Swagger UI</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui.css" />
    <style>
        html {
            box-sizing: border-box;
            overflow: -moz-scrollbars-vertical;
            overflow-y: scroll;
        }
        *, *:before, *:after {
            box-sizing: inherit;
        }
        body {
            margin:0;
            background: #fafafa;
        }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-bundle.js"></script>
    <script src="https://unpkg.com/swagger-ui-dist@5.9.0/swagger-ui-standalone-preset.js"></script>
    <script>
        window.onload = function() {
            const ui = SwaggerUIBundle({
                url: '/api/v1/swagger.json',
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [
                    SwaggerUIBundle.presets.apis,
                    SwaggerUIStandalonePreset
                ],
                plugins: [
                    SwaggerUIBundle.plugins.DownloadUrl
                ],
                layout: "StandaloneLayout",
                validatorUrl: null
            });
        };
    </script>
</body>
</html>`

	c.Set("Content-Type", "text/html")
	return c.SendString(htmlContent)
}

// Serve Swagger JSON specification
func (r *FiberRouter) serveSwaggerJSON(c fiber.Ctx) error {
	// Render the registered swagger document (docs package init)
	swaggerData, err := swag.ReadDoc()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load Swagger documentation",
			Error: dto.ErrorDetail{
				Code: "SWAGGER_LOAD_ERROR",
			},
		})
	}

	c.Set("Content-Type", "application/json")
	return c.SendString(swaggerData)
}

// Not found handler
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// Global error handler
func errorHandler(c fiber.Ctx, err error) error {
	// Default error code
	code := fiber.StatusInternalServerError

	// Retrieve the custom status code if it's a fiber.*Error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Log the error
	log.Printf("Error %d: %v", code, err)

	// Get RequestID for tracing
	requestID := c.Locals("requestid")

	// Return JSON error response
	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// Helper functions

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// contains checks if a string contains a substring
func contains(str, substr string) bool {
	return strings.Contains(str, substr)
}

// GetRouteDocumentation returns API documentation
func GetRouteDocumentation() []map[string]any {
	return []map[string]any{
		{
			"method":      "POST",
			"path":        "/api/v1/teams/register",
			"description": "Register a team for the current season",
			"parameters": map[string]any{
				"name":           "string (required) - Team name, unique per season",
				"league":         "string (required) - junior|senior",
				"city":           "string (optional) - Team home city",
				"institution":    "string (optional) - School or university",
				"captain_name":   "string (required) - Team captain full name",
				"email":          "string (required) - Contact email address",
				"phone":          "string (optional) - Contact phone number",
				"members_count":  "number (required) - Team size, 1-20",
				"comment":        "string (optional) - Free-form note to the organizers",
				"rules_accepted": "boolean (required) - Must be true",
				"challenge_id":   "string (required) - Rotate captcha challenge ID",
				"user_angle":     "number (required) - Rotate captcha answer angle",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/contacts",
			"description": "Submit a contact form message",
			"parameters": map[string]any{
				"name":         "string (required) - Sender name",
				"email":        "string (required) - Sender email address",
				"topic":        "string (required) - general|registration|sponsorship|press",
				"message":      "string (required) - Message body",
				"challenge_id": "string (required) - Rotate captcha challenge ID",
				"user_angle":   "number (required) - Rotate captcha answer angle",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/seasons",
			"description": "List competition seasons, newest year first",
			"parameters": map[string]any{
				"include_archived": "boolean (optional) - Include archived seasons (default: false)",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/admin/auth/login",
			"description": "Authenticate an admin with email, password, and captcha",
			"parameters": map[string]any{
				"email":        "string (required) - Admin email address",
				"password":     "string (required) - Admin password",
				"challenge_id": "string (required) - Rotate captcha challenge ID",
				"user_angle":   "number (required) - Rotate captcha answer angle",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/admin/mailing/campaigns",
			"description": "Create a mailing campaign draft (requires Bearer token)",
			"parameters": map[string]any{
				"name":             "string (required) - Internal campaign name",
				"subject":          "string (required) - Email subject",
				"body":             "string (required) - Plain-text body",
				"html":             "string (optional) - HTML body",
				"target_type":      "string (required) - all_teams|approved_teams|pending_teams|custom_emails",
				"target_season_id": "number (optional) - Restrict team targeting to a season",
				"custom_emails":    "array (required for custom_emails) - Recipient email addresses",
				"recipients_limit": "number (optional) - Cap on resolved recipients",
				"scheduled_at":     "string (optional) - RFC3339 future timestamp for scheduled delivery",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/admin/mailing/campaigns/:id/send",
			"description": "Queue a campaign for asynchronous delivery (requires Bearer token)",
			"parameters": map[string]any{
				"id": "number (required) - Campaign ID in URL path",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/admin/mailing/logs",
			"description": "List delivery log entries with filters (requires Bearer token)",
			"parameters": map[string]any{
				"email_type":  "string (optional) - registration_confirmation|contact_notification|mass_mailing|team_status_update|custom",
				"status":      "string (optional) - pending|sent|failed",
				"campaign_id": "number (optional) - Filter by source campaign",
				"search":      "string (optional) - Match recipient email or subject",
				"page":        "number (optional) - Page number (default: 1)",
				"limit":       "number (optional) - Page size (default: 20)",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/admin/mailing/recipients/preview",
			"description": "Preview the resolved recipient set for a targeting choice (requires Bearer token)",
			"parameters": map[string]any{
				"target_type":      "string (required) - all_teams|approved_teams|pending_teams|custom_emails",
				"target_season_id": "number (optional) - Restrict team targeting to a season",
				"custom_emails":    "string (optional) - Comma-separated list for custom_emails targeting",
				"recipients_limit": "number (optional) - Cap on resolved recipients",
			},
		},
		{
			"method":      "POST",
			"path":        "/api/v1/admin/mailing/send-custom",
			"description": "Send a one-off email to explicit recipients without a campaign (requires Bearer token)",
			"parameters": map[string]any{
				"emails":  "array (required) - Recipient email addresses",
				"subject": "string (required) - Email subject",
				"body":    "string (required) - Plain-text body",
				"html":    "string (optional) - HTML body",
			},
		},
		{
			"method":      "GET",
			"path":        "/api/v1/healthz",
			"description": "Health check endpoint",
			"parameters":  map[string]any{},
		},
	}
}
