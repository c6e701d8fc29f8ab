package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/jub0bs/cors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/techstackph/techstack/internal/config"
	"github.com/techstackph/techstack/internal/logger"
	"github.com/techstackph/techstack/internal/schemas"
	"github.com/techstackph/techstack/internal/store"
	"github.com/techstackph/techstack/internal/types"
)

func testConfig(mode, apiBaseURL string) *config.Config {
	return &config.Config{
		Environment:       "test",
		Host:              "127.0.0.1",
		Port:              8080,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       5 * time.Second,
		APIBaseURL:        apiBaseURL,
		ClientTimeout:     2 * time.Second,
		ClientRetryLimit:  2,
		AllowedOrigins:    []string{"*"},
		MaxAPIRequestSize: 1024,
		SiteTitle:         "TechStackPH",
		ServiceMode:       mode,
	}
}

func testCORS(t *testing.T) *config.CORSConfigs {
	t.Helper()
	public, err := cors.NewMiddleware(cors.Config{Origins: []string{"*"}})
	require.NoError(t, err)
	protected, err := cors.NewMiddleware(cors.Config{Origins: []string{"*"}})
	require.NoError(t, err)
	return &config.CORSConfigs{Public: public, Protected: protected}
}

// startAPI serves the content API with the built-in content
func startAPI(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := store.Default()
	require.NoError(t, err)
	validator, err := schemas.NewValidator()
	require.NoError(t, err)

	api := httptest.NewServer(NewServer(testConfig("api", "http://localhost:8080"), testCORS(t), s, validator, logger.Discard()).Router())
	t.Cleanup(api.Close)
	return api
}

func startSite(t *testing.T, apiURL string) *httptest.Server {
	t.Helper()
	site := httptest.NewServer(NewServer(testConfig("site", apiURL), testCORS(t), nil, nil, logger.Discard()).Router())
	t.Cleanup(site.Close)
	return site
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

func TestContentAPIFeeds(t *testing.T) {
	api := startAPI(t)

	for _, feed := range []string{"events", "blog", "programs"} {
		t.Run(feed, func(t *testing.T) {
			status, body := get(t, api.URL+"/api/"+feed+"/")
			require.Equal(t, http.StatusOK, status)

			var items []types.ContentItem
			require.NoError(t, json.Unmarshal([]byte(body), &items))
			assert.Len(t, items, 3)
		})
	}

	status, body := get(t, api.URL+"/api/events/hackathon-for-social-good")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"location":"Online"`)

	status, body = get(t, api.URL+"/api/events/unknown")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, `"error_code":"resource_not_found"`)
}

func TestContentAPIForms(t *testing.T) {
	api := startAPI(t)

	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "contact",
			method:      http.MethodPost,
			path:        "/api/contact/",
			body:        `{"name":"Jo","email":"jo@example.com","message":"Hello"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "Thank you for your message. We will get back to you shortly.",
		},
		{
			name:        "subscribe",
			method:      http.MethodPost,
			path:        "/api/subscribe/",
			body:        `{"email":"jo@example.com"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "Thank you for subscribing!",
		},
		{
			name:        "volunteer",
			method:      http.MethodPost,
			path:        "/api/volunteer/",
			body:        `{"name":"Jo","email":"jo@example.com","interest":"mentoring"}`,
			wantStatus:  http.StatusOK,
			wantMessage: "Thank you for your application! We will review it and get in touch.",
		},
		{
			name:        "invalid JSON",
			method:      http.MethodPost,
			path:        "/api/contact/",
			body:        `{"name":`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    "malformed_body",
			wantMessage: "Invalid JSON.",
		},
		{
			name:        "wrong method",
			method:      http.MethodGet,
			path:        "/api/subscribe/",
			wantStatus:  http.StatusMethodNotAllowed,
			wantCode:    "method_not_allowed",
			wantMessage: "Invalid request method.",
		},
		{
			name:        "schema violation",
			method:      http.MethodPost,
			path:        "/api/subscribe/",
			body:        `{"email":"not-an-email"}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    "invalid_request",
			wantMessage: "Please fill out all required fields correctly.",
		},
		{
			name:       "oversized body",
			method:     http.MethodPost,
			path:       "/api/contact/",
			body:       `{"message":"` + strings.Repeat("x", 2048) + `"}`,
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   "request_too_large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, api.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")

			res, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, tt.wantStatus, res.StatusCode)

			var reply struct {
				ErrorCode    string `json:"error_code"`
				Message      string `json:"message"`
				SubmissionID string `json:"submission_id"`
			}
			require.NoError(t, json.NewDecoder(res.Body).Decode(&reply))

			assert.Equal(t, tt.wantCode, reply.ErrorCode)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, reply.Message)
			}
			if tt.wantStatus == http.StatusOK {
				assert.NotEmpty(t, reply.SubmissionID)
			}
		})
	}
}

func TestSitePages(t *testing.T) {
	api := startAPI(t)
	site := startSite(t, api.URL)

	t.Run("home page", func(t *testing.T) {
		status, body := get(t, site.URL+"/")
		require.Equal(t, http.StatusOK, status)

		for _, id := range []string{"events-list", "blog-list", "programs-list"} {
			assert.Contains(t, body, `<div id="`+id+`"`)
		}
		for _, form := range []string{"contact", "subscribe", "volunteer"} {
			assert.Contains(t, body, `data-ajax-form="`+form+`"`)
		}
		assert.Contains(t, body, `id="global-loader"`)
	})

	t.Run("feed fragment", func(t *testing.T) {
		status, body := get(t, site.URL+"/ui-api/feeds/blog")
		require.Equal(t, http.StatusOK, status)

		assert.Equal(t, 3, strings.Count(body, `class="card"`))
		assert.Contains(t, body, "By Jane Doe on July 15, 2024")
		assert.NotContains(t, body, "skeleton-loader")
	})

	t.Run("unknown feed", func(t *testing.T) {
		status, _ := get(t, site.URL+"/ui-api/feeds/podcasts")
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("loader is hidden when idle", func(t *testing.T) {
		status, body := get(t, site.URL+"/ui-api/loader")
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "is-hidden")
	})

	t.Run("static assets", func(t *testing.T) {
		status, body := get(t, site.URL+"/static/css/site.css")
		require.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, ".skeleton-loader")
	})
}

func TestSiteForms(t *testing.T) {
	api := startAPI(t)
	site := startSite(t, api.URL)

	tests := []struct {
		name     string
		form     string
		values   url.Values
		contains []string
		excludes []string
	}{
		{
			name:     "successful submission resets the form",
			form:     "subscribe",
			values:   url.Values{"email": {"jo@example.com"}},
			contains: []string{`notification is-success">Thank you for subscribing!`, `value=""`},
			excludes: []string{"jo@example.com"},
		},
		{
			name:     "invalid fields are flagged and kept",
			form:     "contact",
			values:   url.Values{"name": {"Jo"}, "email": {"jo@"}},
			contains: []string{`notification is-danger">Please fill out all required fields correctly.`, `value="Jo"`, `class="input is-invalid" type="email"`, `class="textarea is-invalid"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := http.PostForm(site.URL+"/ui-api/forms/"+tt.form, tt.values)
			require.NoError(t, err)
			defer res.Body.Close()

			body, err := io.ReadAll(res.Body)
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, res.StatusCode)

			for _, want := range tt.contains {
				assert.Contains(t, string(body), want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, string(body), unwanted)
			}
		})
	}
}

func TestSiteWithoutAPI(t *testing.T) {
	api := httptest.NewServer(http.NotFoundHandler())
	apiURL := api.URL
	api.Close()

	site := startSite(t, apiURL)

	status, body := get(t, site.URL+"/ui-api/feeds/programs")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Error loading programs. Please try again later.")

	res, err := http.PostForm(site.URL+"/ui-api/forms/subscribe", url.Values{"email": {"jo@example.com"}})
	require.NoError(t, err)
	defer res.Body.Close()
	formBody, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(formBody), "An unexpected error occurred.")
	assert.Contains(t, string(formBody), `value="jo@example.com"`)
}

func TestHealth(t *testing.T) {
	api := startAPI(t)

	status, body := get(t, api.URL+"/health/live")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)

	status, _ = get(t, api.URL+"/health/ready")
	assert.Equal(t, http.StatusOK, status)

	status, body = get(t, api.URL+"/version")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"version"`)
}

func TestSiteRequestsAreNotRateLimited(t *testing.T) {
	s, err := store.Default()
	require.NoError(t, err)
	validator, err := schemas.NewValidator()
	require.NoError(t, err)

	apiCfg := testConfig("api", "http://localhost:8080")
	apiCfg.RateLimitRPS = 1
	apiCfg.RateLimitBurst = 1
	apiCfg.SiteAPIToken = "site-token"
	api := httptest.NewServer(NewServer(apiCfg, testCORS(t), s, validator, logger.Discard()).Router())
	defer api.Close()

	siteCfg := testConfig("site", api.URL)
	siteCfg.SiteAPIToken = "site-token"
	site := httptest.NewServer(NewServer(siteCfg, testCORS(t), nil, nil, logger.Discard()).Router())
	defer site.Close()

	for i := 0; i < 10; i++ {
		status, body := get(t, site.URL+"/ui-api/feeds/events")
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, 3, strings.Count(body, `class="card"`), "site request %d", i+1)
	}

	// direct callers share the limit
	status, _ := get(t, api.URL+"/api/events/")
	assert.Equal(t, http.StatusOK, status)
	status, body := get(t, api.URL+"/api/events/")
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Contains(t, body, `"error_code":"rate_limit_exceeded"`)
}
