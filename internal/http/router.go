// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// authentication, idempotency, rate limiting, CORS, compression and security
// headers.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/foodgram-backend/docs"
	"github.com/tbourn/foodgram-backend/internal/auth"
	"github.com/tbourn/foodgram-backend/internal/config"
	"github.com/tbourn/foodgram-backend/internal/http/handlers"
	"github.com/tbourn/foodgram-backend/internal/http/middleware"
	"github.com/tbourn/foodgram-backend/internal/media"
	"github.com/tbourn/foodgram-backend/internal/repo"
	"github.com/tbourn/foodgram-backend/internal/services"
)

// Deps are the long-lived resources the routes are built on.
type Deps struct {
	DB    *gorm.DB
	Media media.Store
	// Catalog is shared with the caller so it can rebuild the ingredient
	// index; a fresh one is created when nil.
	Catalog *services.CatalogService
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), authentication,
// idempotency and rate limiting, CORS and security headers, health and
// metrics endpoints, and then mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Authentication (optional; identifies the caller for 8 and 9)
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiters (per user/IP, bypass on replay; a tighter one for uploads)
//  10. CORS, security headers and gzip
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) error {
	r.HandleMethodNotAllowed = true
	// TrimTrailingSlash handles "/recipes/" before routing.
	r.RedirectTrailingSlash = false

	db := deps.DB
	base := cfg.APIBasePath
	if base == "/" {
		base = ""
	}

	// Dependency injection: services ← repo/db/media
	links, err := services.NewShortLinkService(db, cfg.ShortLinkCacheSize)
	if err != nil {
		return err
	}
	catalog := deps.Catalog
	if catalog == nil {
		catalog = services.NewCatalogService(db)
	}
	authSvc := &services.AuthService{DB: db, Tokens: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)}

	recipeSvc := services.NewRecipeService(db, deps.Media, links)
	recipeSvc.IdempotencyTTL = cfg.IdempotencyTTL
	userSvc := services.NewUserService(db, deps.Media)
	relSvc := services.NewRelationService(db, deps.Media)
	if cfg.PageSize > 0 {
		recipeSvc.PageSize, userSvc.PageSize, relSvc.PageSize = cfg.PageSize, cfg.PageSize, cfg.PageSize
	}
	if cfg.MaxPageSize > 0 {
		recipeSvc.MaxPageSize, userSvc.MaxPageSize, relSvc.MaxPageSize = cfg.MaxPageSize, cfg.MaxPageSize, cfg.MaxPageSize
	}

	h := handlers.New(handlers.Services{
		Auth:      authSvc,
		Users:     userSvc,
		Recipes:   recipeSvc,
		Relations: relSvc,
		Shopping:  &services.ShoppingListService{DB: db, FontPath: cfg.PDFFontPath},
		Catalog:   catalog,
		Links:     links,
	}, handlers.Options{
		PublicBaseURL: cfg.PublicBaseURL,
		PageSize:      cfg.PageSize,
		MaxPageSize:   cfg.MaxPageSize,
	})

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{middleware.HeaderIdempotencyKey},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (base64 images make bodies large)
	r.Use(limitBody(cfg.MaxBodyBytes))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Caller identity
	r.Use(middleware.Authenticate(authSvc))

	// 8) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
			Scope: func(c *gin.Context) string {
				if c.Request.Method == http.MethodPost && c.FullPath() == base+"/recipes" {
					return services.ScopeCreateRecipe
				}
				return ""
			},
		},
		func(ctx context.Context, userID uint, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return false, nil
				}
				return false, err
			}
			return rec != nil, nil
		},
	))

	// 9) Token-bucket rate limiters per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())
	uploads := middleware.NewRateLimiter(cfg.RateRPS/4, max(1, cfg.RateBurst/4), middleware.KeyByUserOrIP())
	r.Use(uploads.Only(func(c *gin.Context) bool {
		switch c.FullPath() {
		case base + "/recipes", base + "/recipes/:id":
			return c.Request.Method == http.MethodPost || c.Request.Method == http.MethodPatch
		case base + "/users/me/avatar":
			return c.Request.Method == http.MethodPut
		}
		return false
	}))

	// 10) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "Content-Disposition", "ETag", "Idempotency-Replayed"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
		NoStorePrefixes: []string{
			base + "/auth/",
			base + "/users/me",
			base + "/recipes/download_shopping_cart",
		},
	}))

	// PDFs are already compressed.
	r.Use(gzip.Gzip(gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{base + "/recipes/download_shopping_cart", "/metrics"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if cfg.Media.Backend != "s3" && strings.HasPrefix(cfg.Media.URL, "/") {
		r.Static(cfg.Media.URL, cfg.Media.Root)
	}

	// Short links live outside the API base.
	r.GET("/s/:token", h.RedirectShortLink)

	user := middleware.RequireAuth()
	api := groupWithPrefix(r, base)
	{
		// Auth
		api.POST("/auth/token/login", h.Login)
		api.POST("/auth/token/logout", user, h.Logout)

		// Users
		api.GET("/users", h.ListUsers)
		api.POST("/users", h.RegisterUser)
		api.GET("/users/me", user, h.Me)
		api.POST("/users/set_password", user, h.SetPassword)
		api.PUT("/users/me/avatar", user, h.SetAvatar)
		api.DELETE("/users/me/avatar", user, h.DeleteAvatar)
		api.GET("/users/subscriptions", user, h.Subscriptions)
		api.GET("/users/:id", h.GetUser)
		api.POST("/users/:id/subscribe", user, h.Subscribe)
		api.DELETE("/users/:id/subscribe", user, h.Unsubscribe)

		// Catalog
		api.GET("/tags", h.ListTags)
		api.GET("/tags/:id", h.GetTag)
		api.GET("/ingredients", h.ListIngredients)
		api.GET("/ingredients/:id", h.GetIngredient)

		// Recipes
		api.GET("/recipes", h.ListRecipes)
		api.POST("/recipes", user, h.CreateRecipe)
		api.GET("/recipes/download_shopping_cart", user, h.DownloadShoppingCart)
		api.GET("/recipes/:id", h.GetRecipe)
		api.PATCH("/recipes/:id", user, h.UpdateRecipe)
		api.DELETE("/recipes/:id", user, h.DeleteRecipe)
		api.GET("/recipes/:id/get-link", h.GetLink)
		api.POST("/recipes/:id/favorite", user, h.AddFavorite)
		api.DELETE("/recipes/:id/favorite", user, h.RemoveFavorite)
		api.POST("/recipes/:id/shopping_cart", user, h.AddToCart)
		api.DELETE("/recipes/:id/shopping_cart", user, h.RemoveFromCart)
	}
	return nil
}

// TrimTrailingSlash serves "/api/recipes/" exactly like "/api/recipes".
// It wraps the engine because Gin matches routes before any middleware runs.
func TrimTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if p := req.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
			trimmed := strings.TrimRight(p, "/")
			if trimmed == "" {
				trimmed = "/"
			}
			req.URL.Path = trimmed
			req.URL.RawPath = ""
		}
		next.ServeHTTP(w, req)
	})
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
