package controllers

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/services"
)

// newMemoryRouter собирает приложение поверх in-memory хранилища.
func newMemoryRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewConnectionFactory(t.Context(), db.FactoryConfig{StorageType: db.StorageTypeInMemory})
	require.NoError(t, err)

	svc, err := services.Factory(conn, services.FactoryConfig{
		BaseURL: "http://localhost:5050",
		Users: services.UserServiceConfig{
			JWTSecret:  []byte("scenario-secret"),
			TokenTTL:   time.Hour,
			BcryptCost: bcrypt.MinCost,
		},
	}, zap.NewNop())
	require.NoError(t, err)

	return SetupRouter(RouterParams{
		LinkService: svc.LinkService,
		UserService: svc.UserService,
		PingService: svc.PingService,
		Environment: "test",
		StartedAt:   time.Now(),
		Logger:      zap.NewNop(),
	})
}

func signup(t *testing.T, router http.Handler, email string) string {
	t.Helper()
	res := doRequest(t, router, requestFields{
		Method: http.MethodPost,
		URL:    "/api/auth/signup",
		Body:   strings.NewReader(`{"name":"Tester","email":"` + email + `","password":"secret1"}`),
	})
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var auth struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&auth))
	require.NotEmpty(t, auth.Token)
	require.Equal(t, email, auth.User.Email)
	return auth.Token
}

func decodeJSON[T any](t *testing.T, r io.Reader) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(r).Decode(&v))
	return v
}

func TestScenario_AliasRedirectAndHistory(t *testing.T) {
	router := newMemoryRouter(t)
	token := signup(t, router, "owner@example.com")
	today := models.Day(time.Now())

	res := doRequest(t, router, requestFields{
		Method: http.MethodPost,
		URL:    "/api/url",
		Body:   strings.NewReader(`{"longUrl":"https://example.com","alias":"promo"}`),
		Token:  token,
	})
	created := decodeJSON[models.Link](t, res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "promo", created.ShortID)
	require.Equal(t, int64(0), created.Clicks)

	res = doRequest(t, router, requestFields{
		Method: http.MethodPost,
		URL:    "/api/url",
		Body:   strings.NewReader(`{"longUrl":"https://other.example.com","alias":"promo"}`),
		Token:  token,
	})
	msg := decodeJSON[map[string]string](t, res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "Alias already taken", msg["message"])

	for i := int64(1); i <= 2; i++ {
		res = doRequest(t, router, requestFields{Method: http.MethodGet, URL: "/promo"})
		res.Body.Close()
		require.Equal(t, http.StatusFound, res.StatusCode)
		require.Equal(t, "https://example.com", res.Header.Get("Location"))

		res = doRequest(t, router, requestFields{
			Method: http.MethodGet, URL: "/api/url/analytics/" + created.ID, Token: token,
		})
		analytics := decodeJSON[services.LinkAnalytics](t, res.Body)
		res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		require.Equal(t, i, analytics.Clicks)
		require.Len(t, analytics.ClickHistory, 1)
		require.True(t, analytics.ClickHistory[0].Date.Equal(today))
		require.Equal(t, i, analytics.ClickHistory[0].Count)
	}

	res = doRequest(t, router, requestFields{Method: http.MethodGet, URL: "/api/url/me", Token: token})
	links := decodeJSON[[]models.Link](t, res.Body)
	res.Body.Close()
	require.Len(t, links, 1)
}

func TestScenario_StatsAndOwnership(t *testing.T) {
	router := newMemoryRouter(t)
	owner := signup(t, router, "owner@example.com")
	stranger := signup(t, router, "stranger@example.com")

	create := func(alias string) models.Link {
		res := doRequest(t, router, requestFields{
			Method: http.MethodPost,
			URL:    "/api/url",
			Body:   strings.NewReader(`{"longUrl":"https://example.com/` + alias + `","alias":"` + alias + `"}`),
			Token:  owner,
		})
		defer res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
		return decodeJSON[models.Link](t, res.Body)
	}
	three := create("three")
	create("seven")
	visit := func(shortID string, n int) {
		for range n {
			res := doRequest(t, router, requestFields{Method: http.MethodGet, URL: "/" + shortID})
			res.Body.Close()
			require.Equal(t, http.StatusFound, res.StatusCode)
		}
	}
	visit("three", 3)
	visit("seven", 7)

	res := doRequest(t, router, requestFields{Method: http.MethodGet, URL: "/api/url/stats", Token: owner})
	stats := decodeJSON[services.DashboardStats](t, res.Body)
	res.Body.Close()
	require.Equal(t, services.DashboardStats{TotalLinks: 2, TotalClicks: 10, TodayClicks: 10, AvgClickRate: 5.0}, stats)

	res = doRequest(t, router, requestFields{Method: http.MethodDelete, URL: "/api/url/" + three.ID, Token: stranger})
	res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res = doRequest(t, router, requestFields{Method: http.MethodGet, URL: "/api/url/analytics/" + three.ID, Token: stranger})
	res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)

	res = doRequest(t, router, requestFields{Method: http.MethodGet, URL: "/api/url/" + three.ID + "/qr", Token: owner})
	png, _ := io.ReadAll(res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	res = doRequest(t, router, requestFields{Method: http.MethodDelete, URL: "/api/url/" + three.ID, Token: owner})
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	res = doRequest(t, router, requestFields{Method: http.MethodGet, URL: "/three"})
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.Equal(t, "Not found", string(body))
}

func TestScenario_Auth(t *testing.T) {
	router := newMemoryRouter(t)
	signup(t, router, "jane@example.com")

	res := doRequest(t, router, requestFields{
		Method: http.MethodPost,
		URL:    "/api/auth/signup",
		Body:   strings.NewReader(`{"name":"Jane","email":"JANE@example.com","password":"secret1"}`),
	})
	msg := decodeJSON[map[string]string](t, res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "User already exists", msg["message"])

	res = doRequest(t, router, requestFields{
		Method: http.MethodPost,
		URL:    "/api/auth/login",
		Body:   strings.NewReader(`{"email":"jane@example.com","password":"wrong!"}`),
	})
	msg = decodeJSON[map[string]string](t, res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Equal(t, "Invalid credentials", msg["message"])

	res = doRequest(t, router, requestFields{
		Method: http.MethodPost,
		URL:    "/api/auth/login",
		Body:   strings.NewReader(`{"email":"jane@example.com","password":"secret1"}`),
	})
	auth := decodeJSON[services.AuthResult](t, res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NotEmpty(t, auth.Token)

	res = doRequest(t, router, requestFields{Method: http.MethodGet, URL: "/api/url/me", Token: auth.Token})
	links := decodeJSON[[]models.Link](t, res.Body)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Empty(t, links)
}
