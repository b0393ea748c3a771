package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"babytrack/backend/internal/config"
	"babytrack/backend/internal/records"
	"babytrack/backend/internal/store"
	"babytrack/backend/internal/summary"
)

type App struct {
	cfg    config.Config
	store  store.Store
	calc   *summary.Calculator
	loc    *time.Location
	logger *zap.Logger
	now    func() time.Time
}

type AuthUser struct {
	ID string
}

func New(cfg config.Config, st store.Store, loc *time.Location, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &App{
		cfg:    cfg,
		store:  st,
		calc:   summary.NewCalculator(st, loc, logger.Named("summary")),
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), zapLoggerMiddleware(a.logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     a.cfg.CORSAllowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", a.health)

	api := router.Group(a.cfg.APIPrefix)
	api.Use(a.authMiddleware())

	api.GET("/babies", a.listBabies)
	api.POST("/babies", a.createBaby)
	api.GET("/babies/:baby_id", a.getBaby)
	api.GET("/babies/:baby_id/feeds", a.listBabyRecords(records.KindFeed))
	api.POST("/babies/:baby_id/feeds", a.createFeed)
	api.GET("/babies/:baby_id/nappies", a.listBabyRecords(records.KindNappy))
	api.POST("/babies/:baby_id/nappies", a.createNappy)
	api.GET("/babies/:baby_id/sleep", a.listBabyRecords(records.KindSleep))
	api.POST("/babies/:baby_id/sleep", a.createSleep)
	api.GET("/babies/:baby_id/sleep/active", a.getActiveSleep)
	api.POST("/babies/:baby_id/sleep/:record_id/end", a.endSleep)
	api.GET("/babies/:baby_id/health", a.listBabyRecords(records.KindHealth))
	api.POST("/babies/:baby_id/health", a.createHealthRecord)
	api.GET("/babies/:baby_id/growth", a.listBabyRecords(records.KindGrowth))
	api.POST("/babies/:baby_id/growth", a.createGrowthRecord)
	api.GET("/babies/:baby_id/summary/:date", a.getDailySummary)
	api.GET("/babies/:baby_id/stats/weekly/:start_date", a.getWeeklyStats)
	api.GET("/babies/:baby_id/export/weekly/:start_date", a.exportWeeklyCSV)

	api.POST("/pregnancies", a.createPregnancy)
	api.GET("/pregnancies/:pregnancy_id", a.getPregnancy)
	api.GET("/pregnancies/:pregnancy_id/contractions", a.listPregnancyRecords(records.KindContraction))
	api.POST("/pregnancies/:pregnancy_id/contractions", a.createContraction)
	api.POST("/pregnancies/:pregnancy_id/contractions/:record_id/end", a.endContraction)
	api.GET("/pregnancies/:pregnancy_id/movements", a.listPregnancyRecords(records.KindMovement))
	api.POST("/pregnancies/:pregnancy_id/movements", a.createMovement)
	api.GET("/pregnancies/:pregnancy_id/health", a.listPregnancyRecords(records.KindMaternalHealth))
	api.POST("/pregnancies/:pregnancy_id/health", a.createMaternalHealth)
	api.GET("/pregnancies/:pregnancy_id/gestational-age", a.getGestationalAge)

	api.GET("/timeline", a.getTimeline)

	return router
}

func (a *App) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "babytrack-api",
	})
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func (a *App) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}
		tokenString := strings.TrimSpace(authHeader[len("Bearer "):])
		if tokenString == "" {
			writeError(c, http.StatusUnauthorized, "Bearer token required")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if token.Method == nil || token.Method.Alg() != a.cfg.JWTAlgorithm {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(a.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			writeError(c, http.StatusUnauthorized, "Invalid bearer token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeError(c, http.StatusUnauthorized, "Invalid token payload")
			return
		}
		if a.cfg.JWTAudience != "" && !claimHasAudience(claims["aud"], a.cfg.JWTAudience) {
			writeError(c, http.StatusUnauthorized, "Invalid token audience")
			return
		}
		if a.cfg.JWTIssuer != "" {
			issuer, _ := claims["iss"].(string)
			if issuer != a.cfg.JWTIssuer {
				writeError(c, http.StatusUnauthorized, "Invalid token issuer")
				return
			}
		}
		sub, _ := claims["sub"].(string)
		sub = strings.TrimSpace(sub)
		if sub == "" {
			writeError(c, http.StatusUnauthorized, "Token subject missing")
			return
		}

		c.Set("authUser", AuthUser{ID: sub})
		c.Next()
	}
}

func claimHasAudience(value any, audience string) bool {
	switch v := value.(type) {
	case string:
		return v == audience
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == audience {
				return true
			}
		}
	case []string:
		for _, item := range v {
			if item == audience {
				return true
			}
		}
	}
	return false
}

func authUserFromContext(c *gin.Context) (AuthUser, bool) {
	raw, ok := c.Get("authUser")
	if !ok {
		return AuthUser{}, false
	}
	user, ok := raw.(AuthUser)
	return user, ok
}

func writeError(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": detail})
}

// writeUnavailable reports a failed aggregation. Callers must never fall back
// to zero values.
func (a *App) writeUnavailable(c *gin.Context, what string, err error) {
	a.logger.Error("aggregation failed",
		zap.String("what", what),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	writeError(c, http.StatusServiceUnavailable, what+" unavailable")
}

func (a *App) writeWriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, records.ErrInvalid):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(c, http.StatusNotFound, "Record not found")
	case errors.Is(err, store.ErrSleepInProgress):
		writeError(c, http.StatusConflict, "A sleep session is already in progress")
	default:
		a.logger.Error("store write failed", zap.String("path", c.FullPath()), zap.Error(err))
		writeError(c, http.StatusInternalServerError, "Failed to save record")
	}
}

func (a *App) getBabyWithAccess(c *gin.Context, userID, babyID string) (records.Baby, int, error) {
	baby, err := a.store.GetBaby(c.Request.Context(), babyID)
	if errors.Is(err, store.ErrNotFound) {
		return records.Baby{}, http.StatusNotFound, errors.New("Baby not found")
	}
	if err != nil {
		return records.Baby{}, http.StatusInternalServerError, err
	}
	if baby.UserID != userID {
		return records.Baby{}, http.StatusForbidden, errors.New("Baby access denied")
	}
	return baby, http.StatusOK, nil
}

func (a *App) getPregnancyWithAccess(c *gin.Context, userID, pregnancyID string) (records.Pregnancy, int, error) {
	pregnancy, err := a.store.GetPregnancy(c.Request.Context(), pregnancyID)
	if errors.Is(err, store.ErrNotFound) {
		return records.Pregnancy{}, http.StatusNotFound, errors.New("Pregnancy not found")
	}
	if err != nil {
		return records.Pregnancy{}, http.StatusInternalServerError, err
	}
	if pregnancy.UserID != userID {
		return records.Pregnancy{}, http.StatusForbidden, errors.New("Pregnancy access denied")
	}
	return pregnancy, http.StatusOK, nil
}

// requireBaby resolves the auth user and the :baby_id path owner, writing the
// error response itself when either check fails.
func (a *App) requireBaby(c *gin.Context) (records.Baby, bool) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Unauthorized")
		return records.Baby{}, false
	}
	baby, statusCode, err := a.getBabyWithAccess(c, user.ID, strings.TrimSpace(c.Param("baby_id")))
	if err != nil {
		writeError(c, statusCode, err.Error())
		return records.Baby{}, false
	}
	return baby, true
}

func (a *App) requirePregnancy(c *gin.Context) (records.Pregnancy, bool) {
	user, ok := authUserFromContext(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "Unauthorized")
		return records.Pregnancy{}, false
	}
	pregnancy, statusCode, err := a.getPregnancyWithAccess(c, user.ID, strings.TrimSpace(c.Param("pregnancy_id")))
	if err != nil {
		writeError(c, statusCode, err.Error())
		return records.Pregnancy{}, false
	}
	return pregnancy, true
}

func mustJSON(c *gin.Context, payload any) bool {
	if err := c.ShouldBindJSON(payload); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// bindOptionalJSON is mustJSON for endpoints whose body may be empty. An
// empty body leaves payload untouched whatever the Content-Length says.
func bindOptionalJSON(c *gin.Context, payload any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	if err := c.ShouldBindJSON(payload); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

// parseDate reads a YYYY-MM-DD value as midnight UTC. Only its calendar date
// is meaningful; day bounds are derived in the reference zone.
func parseDate(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (a *App) timestampOrNow(value *time.Time) time.Time {
	if value == nil || value.IsZero() {
		return a.now().UTC()
	}
	return value.UTC()
}
