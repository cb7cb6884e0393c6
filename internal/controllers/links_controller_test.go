package controllers

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/controllers/mocksctrl"
	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/services"
)

const testToken = "valid-token"

type LinksControllerSuite struct {
	suite.Suite
	links  *mocksctrl.MockLinkStore
	users  *mocksctrl.MockAuthenticator
	ping   *mocksctrl.MockConnectionChecker
	router *gin.Engine
	user   *models.User
}

func TestLinksControllerSuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(LinksControllerSuite))
}

func (s *LinksControllerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.links = mocksctrl.NewMockLinkStore(ctrl)
	s.users = mocksctrl.NewMockAuthenticator(ctrl)
	s.ping = mocksctrl.NewMockConnectionChecker(ctrl)
	s.user = &models.User{ID: "user-1", Email: "jane@example.com"}

	s.users.EXPECT().Authenticate(gomock.Any(), testToken).Return(s.user, nil).AnyTimes()
	s.users.EXPECT().Authenticate(gomock.Any(), gomock.Not(testToken)).
		Return(nil, services.ErrInvalidToken).AnyTimes()

	s.router = SetupRouter(RouterParams{
		LinkService: s.links,
		UserService: s.users,
		PingService: s.ping,
		CORSOrigins: []string{"http://localhost:5173"},
		Environment: "test",
		StartedAt:   time.Now(),
		Logger:      zap.NewNop(),
	})
}

func (s *LinksControllerSuite) TestCreate() {
	link := &models.Link{ID: "id-1", ShortID: "promo", LongURL: "https://example.com", ClickHistory: []models.ClickDay{}}
	s.links.EXPECT().
		Create(gomock.Any(), "user-1", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, p services.CreateLinkParams) (*models.Link, error) {
			s.Equal("https://example.com", p.LongURL)
			s.Require().NotNil(p.Alias)
			s.Equal("promo", *p.Alias)
			return link, nil
		})

	res := s.makeRequest(requestFields{
		Method: http.MethodPost,
		URL:    "/api/url",
		Body:   strings.NewReader(`{"longUrl":"https://example.com","alias":"promo"}`),
		Token:  testToken,
	})
	defer res.Body.Close()

	s.Equal(http.StatusOK, res.StatusCode)
	var got models.Link
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.Equal("promo", got.ShortID)
	s.Equal("https://example.com", got.LongURL)
}

func (s *LinksControllerSuite) TestCreate_Errors() {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{name: "alias taken", err: services.ErrAliasTaken, wantStatus: http.StatusBadRequest, wantMsg: "Alias already taken"},
		{
			name:       "validation",
			err:        &services.ValidationError{Field: "longUrl", Message: "longUrl is required"},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "longUrl is required",
		},
		{name: "internal", err: services.ErrUnknown, wantStatus: http.StatusInternalServerError, wantMsg: "Server error"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.links.EXPECT().Create(gomock.Any(), "user-1", gomock.Any()).Return(nil, tt.err)

			res := s.makeRequest(requestFields{
				Method: http.MethodPost,
				URL:    "/api/url",
				Body:   strings.NewReader(`{"longUrl":"https://example.com","alias":"promo"}`),
				Token:  testToken,
			})
			defer res.Body.Close()

			s.Equal(tt.wantStatus, res.StatusCode)
			s.Equal(tt.wantMsg, s.message(res.Body))
		})
	}
}

func (s *LinksControllerSuite) TestCreate_BadBody() {
	res := s.makeRequest(requestFields{
		Method: http.MethodPost,
		URL:    "/api/url",
		Body:   strings.NewReader(`{"longUrl":`),
		Token:  testToken,
	})
	defer res.Body.Close()
	s.Equal(http.StatusBadRequest, res.StatusCode)
}

func (s *LinksControllerSuite) TestAuth() {
	tests := []struct {
		name    string
		header  string
		wantMsg string
	}{
		{name: "no header", header: "", wantMsg: "Unauthorized"},
		{name: "not bearer", header: "Basic abc", wantMsg: "Unauthorized"},
		{name: "empty bearer", header: "Bearer ", wantMsg: "Unauthorized"},
		{name: "bad token", header: "Bearer nope", wantMsg: "Invalid token"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := httptest.NewRequest(http.MethodGet, "/api/url/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, req)

			s.Equal(http.StatusUnauthorized, w.Code)
			s.Equal(tt.wantMsg, s.message(w.Body))
		})
	}
}

func (s *LinksControllerSuite) TestList() {
	s.links.EXPECT().List(gomock.Any(), "user-1").Return([]models.Link{
		{ID: "b", ShortID: "bbbbbbbb"}, {ID: "a", ShortID: "aaaaaaaa"},
	}, nil)

	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/api/url/me", Token: testToken})
	defer res.Body.Close()

	s.Equal(http.StatusOK, res.StatusCode)
	var got []models.Link
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.Require().Len(got, 2)
	s.Equal("b", got[0].ID)
}

func (s *LinksControllerSuite) TestDelete() {
	s.links.EXPECT().Delete(gomock.Any(), "id-1", "user-1").Return(nil)
	s.links.EXPECT().Delete(gomock.Any(), "id-2", "user-1").Return(services.ErrRecordNotFound)

	res := s.makeRequest(requestFields{Method: http.MethodDelete, URL: "/api/url/id-1", Token: testToken})
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal("URL deleted", s.message(res.Body))

	res2 := s.makeRequest(requestFields{Method: http.MethodDelete, URL: "/api/url/id-2", Token: testToken})
	defer res2.Body.Close()
	s.Equal(http.StatusNotFound, res2.StatusCode)
	s.Equal("URL not found", s.message(res2.Body))
}

func (s *LinksControllerSuite) TestAnalytics() {
	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s.links.EXPECT().Analytics(gomock.Any(), "id-1", "user-1").Return(&services.LinkAnalytics{
		ShortID:      "promo",
		LongURL:      "https://example.com",
		Clicks:       2,
		ClickHistory: []models.ClickDay{{Date: created, Count: 2}},
		CreatedAt:    created,
	}, nil)
	s.links.EXPECT().Analytics(gomock.Any(), "foreign", "user-1").Return(nil, services.ErrRecordNotFound)

	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/api/url/analytics/id-1", Token: testToken})
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)

	var got map[string]any
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.Equal("promo", got["shortId"])
	s.Equal("https://example.com", got["longUrl"])
	s.InDelta(2, got["clicks"], 0)
	s.Contains(got, "alias")
	s.Contains(got, "clickHistory")
	s.Contains(got, "createdAt")

	res2 := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/api/url/analytics/foreign", Token: testToken})
	defer res2.Body.Close()
	s.Equal(http.StatusNotFound, res2.StatusCode)
}

func (s *LinksControllerSuite) TestStats() {
	s.links.EXPECT().Stats(gomock.Any(), "user-1").Return(&services.DashboardStats{
		TotalLinks: 2, TotalClicks: 10, TodayClicks: 4, AvgClickRate: 5,
	}, nil)

	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/api/url/stats", Token: testToken})
	defer res.Body.Close()

	s.Equal(http.StatusOK, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	s.JSONEq(`{"totalLinks":2,"totalClicks":10,"todayClicks":4,"avgClickRate":5}`, string(body))
}

func (s *LinksControllerSuite) TestQRCode() {
	png := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}
	s.links.EXPECT().QRCode(gomock.Any(), "id-1", "user-1", 0).Return(png, nil)
	s.links.EXPECT().QRCode(gomock.Any(), "id-1", "user-1", 300).Return(png, nil)

	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/api/url/id-1/qr", Token: testToken})
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal("image/png", res.Header.Get("Content-Type"))
	body, _ := io.ReadAll(res.Body)
	s.Equal(png, body)

	res2 := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/api/url/id-1/qr?size=300", Token: testToken})
	defer res2.Body.Close()
	s.Equal(http.StatusOK, res2.StatusCode)

	res3 := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/api/url/id-1/qr?size=abc", Token: testToken})
	defer res3.Body.Close()
	s.Equal(http.StatusBadRequest, res3.StatusCode)
}

func (s *LinksControllerSuite) TestRedirect() {
	s.links.EXPECT().Visit(gomock.Any(), "promo").Return("https://example.com", nil)
	s.links.EXPECT().Visit(gomock.Any(), "missing").Return("", services.ErrRecordNotFound)
	s.links.EXPECT().Visit(gomock.Any(), "broken").Return("", errors.New("db is down"))

	tests := []struct {
		name       string
		shortID    string
		wantStatus int
		wantBody   string
	}{
		{name: "found", shortID: "promo", wantStatus: http.StatusFound},
		{name: "not found", shortID: "missing", wantStatus: http.StatusNotFound, wantBody: "Not found"},
		{name: "internal", shortID: "broken", wantStatus: http.StatusInternalServerError, wantBody: "Server error"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/" + tt.shortID})
			defer res.Body.Close()

			s.Equal(tt.wantStatus, res.StatusCode)
			if tt.wantStatus == http.StatusFound {
				s.Equal("https://example.com", res.Header.Get("Location"))
				return
			}
			s.Empty(res.Header.Get("Location"))
			body, _ := io.ReadAll(res.Body)
			s.Equal(tt.wantBody, string(body))
		})
	}
}

func (s *LinksControllerSuite) TestHealth() {
	s.ping.EXPECT().CheckConnection(gomock.Any()).Return(nil)

	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/health"})
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)

	var got map[string]any
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&got))
	s.Equal("OK", got["status"])
	s.Equal("test", got["environment"])
	s.Equal(map[string]any{"status": "connected", "connected": true}, got["database"])
	s.Contains(got, "uptime")
	s.Contains(got, "timestamp")
}

func (s *LinksControllerSuite) TestHealth_Unavailable() {
	s.ping.EXPECT().CheckConnection(gomock.Any()).Return(errors.New("refused")).Times(2)

	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/health"})
	defer res.Body.Close()
	s.Equal(http.StatusServiceUnavailable, res.StatusCode)

	res2 := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/readyz"})
	defer res2.Body.Close()
	s.Equal(http.StatusServiceUnavailable, res2.StatusCode)
	body, _ := io.ReadAll(res2.Body)
	s.JSONEq(`{"status":"not ready"}`, string(body))
}

func (s *LinksControllerSuite) TestProbes() {
	s.ping.EXPECT().CheckConnection(gomock.Any()).Return(nil)

	live := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/livez"})
	defer live.Body.Close()
	body, _ := io.ReadAll(live.Body)
	s.JSONEq(`{"status":"alive"}`, string(body))

	ready := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/readyz"})
	defer ready.Body.Close()
	body, _ = io.ReadAll(ready.Body)
	s.JSONEq(`{"status":"ready"}`, string(body))
}

func (s *LinksControllerSuite) TestNoRoute() {
	res := s.makeRequest(requestFields{Method: http.MethodGet, URL: "/some/unknown/path"})
	defer res.Body.Close()

	s.Equal(http.StatusNotFound, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	s.JSONEq(`{"error":"Route not found","path":"/some/unknown/path"}`, string(body))
}

func (s *LinksControllerSuite) TestCORS() {
	req := httptest.NewRequest(http.MethodOptions, "/api/url", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Equal("http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func (s *LinksControllerSuite) TestGzip() {
	s.links.EXPECT().Create(gomock.Any(), "user-1", gomock.Any()).
		Return(&models.Link{ID: "id-1", ShortID: "abcdefgh", LongURL: "https://example.com"}, nil)

	res := s.makeRequest(requestFields{
		Method:  http.MethodPost,
		URL:     "/api/url",
		Body:    strings.NewReader(`{"longUrl":"https://example.com"}`),
		Token:   testToken,
		Gzipped: true,
	})
	defer res.Body.Close()

	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal("gzip", res.Header.Get("Content-Encoding"))
	body, err := readBody(res.Body, true)
	s.Require().NoError(err)
	s.Contains(string(body), `"shortId":"abcdefgh"`)
}

func (s *LinksControllerSuite) message(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
	}
	s.Require().NoError(json.NewDecoder(r).Decode(&body))
	return body.Message
}

type requestFields struct {
	Method  string
	URL     string
	Body    io.Reader
	Token   string
	Gzipped bool
}

// makeRequest вспомогательная функция создающая тестовый http запрос.
func (s *LinksControllerSuite) makeRequest(fields requestFields) *http.Response {
	return doRequest(s.T(), s.router, fields)
}

func doRequest(t *testing.T, router http.Handler, fields requestFields) *http.Response {
	t.Helper()
	body := fields.Body

	// Добавляем gzip сжатие тела запроса, если надо.
	if fields.Gzipped && fields.Body != nil {
		var gzipBuffer bytes.Buffer
		gzipW, gzErr := gzip.NewWriterLevel(&gzipBuffer, gzip.BestSpeed)
		if gzErr != nil {
			t.Fatalf("failed to create gzip writer: %v", gzErr)
		}
		if _, copyErr := io.Copy(gzipW, fields.Body); copyErr != nil {
			t.Fatalf("failed to copy request body to gzip writer: %v", copyErr)
		}
		if err := gzipW.Close(); err != nil {
			t.Fatalf("failed to close gzip writer: %v", err)
		}
		body = &gzipBuffer
	}

	request := httptest.NewRequest(fields.Method, fields.URL, body)
	if fields.Body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if fields.Token != "" {
		request.Header.Set("Authorization", "Bearer "+fields.Token)
	}
	if fields.Gzipped {
		request.Header.Set("Content-Encoding", "gzip")
		request.Header.Set("Accept-Encoding", "gzip")
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder.Result()
}

// readBody Читает тело ответа, если тело сжатое - расжимает.
func readBody(r io.Reader, compressed bool) ([]byte, error) {
	if !compressed {
		return io.ReadAll(r)
	}
	gzr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer gzr.Close()
	return io.ReadAll(gzr)
}
