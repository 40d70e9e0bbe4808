// Package httpapi — служебный HTTP: health, метрики и JSON для экранов в классе.
// Только чтение; всё изменяющее идёт через бота.
package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Spok95/classroom-league/internal/apperr"
	"github.com/Spok95/classroom-league/internal/ledger"
	"github.com/Spok95/classroom-league/internal/metrics"
	"github.com/Spok95/classroom-league/internal/models"
	"github.com/Spok95/classroom-league/internal/roster"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Store interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error)
	PointLogs(ctx context.Context, id uuid.UUID) ([]models.AuditEntry, error)
	Rewards(ctx context.Context) ([]models.RewardItem, error)
	Rules(ctx context.Context, activeOnly bool) ([]models.Rule, error)
}

// Pinger проверяет доступность базы.
type Pinger func(ctx context.Context) error

type API struct {
	store Store
	ping  Pinger
	log   *zap.Logger
	token string
}

type Option func(*API)

// WithToken закрывает персональные данные общим токеном: заголовок X-API-Token
// или ?token=. Пустой токен ничего не закрывает.
func WithToken(token string) Option {
	return func(a *API) { a.token = token }
}

func New(store Store, ping Pinger, log *zap.Logger, opts ...Option) *API {
	if log == nil {
		log = zap.NewNop()
	}
	a := &API{store: store, ping: ping, log: log.Named("http")}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Router — gin без встроенного логгера; запросы пишутся в zap.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.accessLog())

	r.GET("/healthz", a.healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/leaderboard", a.leaderboard)
	// отчёт ученика — единственный маршрут с личными данными
	api.GET("/users/:id/report", a.requireToken(), a.report)
	api.GET("/tier/:points", a.tier)
	api.GET("/rewards", a.rewards)
	return r
}

func (a *API) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		t0 := time.Now()
		c.Next()
		a.log.Debug("http",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(t0)),
		)
	}
}

func (a *API) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.token == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-API-Token")
		if got == "" {
			got = c.Query("token")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(a.token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func (a *API) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 800*time.Millisecond)
	defer cancel()
	if err := a.ping(ctx); err != nil {
		c.String(http.StatusServiceUnavailable, "db not ok: "+err.Error())
		return
	}
	c.String(http.StatusOK, "ok")
}

type standingJSON struct {
	Place  int    `json:"place"`
	Name   string `json:"name"`
	Class  string `json:"class"`
	Group  int    `json:"group"`
	Points int    `json:"points"`
	Tier   string `json:"tier"`
	Icon   string `json:"icon"`
	Avatar string `json:"avatar,omitempty"`
}

// leaderboard: ?class=6A1, без параметра — вся школа.
func (a *API) leaderboard(c *gin.Context) {
	users, err := a.store.ListUsers(c.Request.Context(), models.UserFilter{
		ClassName:    roster.NormalizeClassName(c.Query("class")),
		ExcludeStaff: true,
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	board := ledger.Leaderboard(users)
	out := make([]standingJSON, 0, len(board))
	for _, st := range board {
		out = append(out, standingJSON{
			Place:  st.Place,
			Name:   st.User.FullName,
			Class:  st.User.ClassName,
			Group:  st.User.GroupNumber,
			Points: st.User.Points,
			Tier:   st.Rank.Title(),
			Icon:   st.Rank.Icon(),
			Avatar: st.User.AvatarCode,
		})
	}
	c.JSON(http.StatusOK, out)
}

type groupJSON struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
	Total  int    `json:"total"`
}

type reportJSON struct {
	Name          string      `json:"name"`
	Points        int         `json:"points"`
	Tier          string      `json:"tier"`
	PositiveCount int         `json:"positive_count"`
	NegativeCount int         `json:"negative_count"`
	PositiveTotal int         `json:"positive_total"`
	NegativeTotal int         `json:"negative_total"`
	Achievements  []groupJSON `json:"achievements"`
	Violations    []groupJSON `json:"violations"`
}

func (a *API) report(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
		return
	}
	ctx := c.Request.Context()
	u, err := a.store.GetUser(ctx, id)
	if err != nil {
		a.fail(c, err)
		return
	}
	entries, err := a.store.PointLogs(ctx, id)
	if err != nil {
		a.fail(c, err)
		return
	}
	rules, err := a.store.Rules(ctx, false)
	if err != nil {
		a.fail(c, err)
		return
	}
	sum := ledger.SummarizeWithRules(entries, rules)
	c.JSON(http.StatusOK, reportJSON{
		Name:          u.FullName,
		Points:        u.Points,
		Tier:          ledger.Tier(u.Points).Title(),
		PositiveCount: sum.PositiveCount,
		NegativeCount: sum.NegativeCount,
		PositiveTotal: sum.PositiveTotal,
		NegativeTotal: sum.NegativeTotal,
		Achievements:  groups(sum.Achievements()),
		Violations:    groups(sum.Violations()),
	})
}

func groups(in []ledger.ReasonGroup) []groupJSON {
	out := make([]groupJSON, 0, len(in))
	for _, g := range in {
		out = append(out, groupJSON{Reason: g.Reason, Count: g.Count, Total: g.Total})
	}
	return out
}

func (a *API) tier(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("points"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "points must be a number"})
		return
	}
	r := ledger.Tier(n)
	c.JSON(http.StatusOK, gin.H{"points": n, "tier": r.Title(), "icon": r.Icon(), "level": int(r)})
}

type rewardJSON struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Cost      int    `json:"cost"`
	Stock     int    `json:"stock"`
	Unlimited bool   `json:"unlimited"`
	Rarity    string `json:"rarity"`
	Category  string `json:"category"`
	Image     string `json:"image"`
}

func (a *API) rewards(c *gin.Context) {
	items, err := a.store.Rewards(c.Request.Context())
	if err != nil {
		a.fail(c, err)
		return
	}
	out := make([]rewardJSON, 0, len(items))
	for _, it := range items {
		out = append(out, rewardJSON{
			ID:        it.ID,
			Name:      it.Name,
			Cost:      it.Cost,
			Stock:     it.Stock,
			Unlimited: it.Unlimited(),
			Rarity:    string(it.Rarity),
			Category:  string(it.Category),
			Image:     it.ImageURL,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (a *API) fail(c *gin.Context, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	metrics.HandlerErrors.Inc()
	a.log.Error("http handler failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
