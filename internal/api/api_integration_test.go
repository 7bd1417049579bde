// internal/api/api_integration_test.go
package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	app "referral-tracker/internal"
	"referral-tracker/internal/domain"
)

// testApp is the global application instance for testing.
var testApp *app.Application

// testServer is the httptest server.
var testServer *httptest.Server

// TestMain boots the whole application against a throwaway SQLite file.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "referral-tracker-api-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	os.Setenv("DB_DRIVER", "sqlite")
	os.Setenv("SQLITE_PATH", filepath.Join(dir, "referrals.db"))
	os.Setenv("LOG_LEVEL", "error")
	os.Unsetenv("OTEL_ENDPOINT")

	testApp = app.NewApplication()
	if err := testApp.Initialize(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize test application: %v\n", err)
		os.Exit(1)
	}

	testServer = httptest.NewServer(testApp.HTTPHandler)

	code := m.Run()

	testServer.Close()
	if err := testApp.Shutdown(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to shutdown test application: %v\n", err)
		code = 1
	}
	_ = os.RemoveAll(dir)

	os.Exit(code)
}

// clearDatabase empties the users table so each test starts clean.
func clearDatabase(t *testing.T) {
	_, err := testApp.DB.Exec("DELETE FROM users;")
	require.NoError(t, err, "Failed to clear users table")
}

// makeRequest helper function: sends an HTTP request to the test server.
func makeRequest(t *testing.T, method, path string, body io.Reader) (*http.Response, string) {
	req, err := http.NewRequest(method, testServer.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(respBody)
}

func register(t *testing.T, body string) {
	t.Helper()
	resp, respBody := makeRequest(t, "POST", "/register", strings.NewReader(body))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, respBody)
	assert.JSONEq(t, `{"status":"ok"}`, respBody)
}

type referralsBody struct {
	Count  int64                   `json:"count"`
	Recent []domain.RecentReferral `json:"recent"`
}

func getReferrals(t *testing.T, address string) referralsBody {
	t.Helper()
	resp, body := makeRequest(t, "GET", "/referrals/"+url.PathEscape(address), nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var out referralsBody
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.NotNil(t, out.Recent, "recent must be an array, got %s", body)
	return out
}

// TestRegisterAndLookup walks through registering a referrer and a referral.
func TestRegisterAndLookup(t *testing.T) {
	clearDatabase(t)

	register(t, `{"address":"0xA","first_name":"Alice"}`)
	before := time.Now().UTC()
	register(t, `{"address":"0xB","first_name":"Bob","referrer":"0xA"}`)

	got := getReferrals(t, "0xA")
	assert.Equal(t, int64(1), got.Count)
	require.Len(t, got.Recent, 1)
	assert.Equal(t, "Bob", got.Recent[0].Display)

	when, err := domain.ParseTimestamp(got.Recent[0].When)
	require.NoError(t, err)
	assert.WithinDuration(t, before, when, 5*time.Second)
	assert.True(t, strings.HasSuffix(got.Recent[0].When, "Z"), "timestamps are UTC")
}

// TestUnknownAddress checks that lookups never 404.
func TestUnknownAddress(t *testing.T) {
	clearDatabase(t)

	resp, body := makeRequest(t, "GET", "/referrals/0xNEVERSEEN", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"count":0,"recent":[]}`, body)
}

// TestDuplicateRegistrationKeepsFirst registers the same address twice with different names.
func TestDuplicateRegistrationKeepsFirst(t *testing.T) {
	clearDatabase(t)

	register(t, `{"address":"0xB","first_name":"Bob","last_name":"Lee","referrer":"0xA"}`)
	first := getReferrals(t, "0xA")
	require.Len(t, first.Recent, 1)

	time.Sleep(10 * time.Millisecond)
	register(t, `{"address":"0xB","first_name":"Robert","username":"rob","referrer":"0xZ"}`)

	after := getReferrals(t, "0xA")
	assert.Equal(t, int64(1), after.Count)
	require.Len(t, after.Recent, 1)
	assert.Equal(t, "Bob Lee", after.Recent[0].Display)
	assert.Equal(t, first.Recent[0].When, after.Recent[0].When, "created_at must not change")

	assert.Equal(t, int64(0), getReferrals(t, "0xZ").Count)

	var rows int
	require.NoError(t, testApp.DB.Get(&rows, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 1, rows)
}

// TestRecentIsCappedAndOrdered registers more referrals than the recent list holds.
func TestRecentIsCappedAndOrdered(t *testing.T) {
	clearDatabase(t)

	total := domain.RecentReferralsLimit + 3
	for i := 0; i < total; i++ {
		register(t, fmt.Sprintf(`{"address":"0xR%02d","first_name":"User","last_name":"%02d","referrer":"0xA"}`, i, i))
		time.Sleep(5 * time.Millisecond)
	}

	got := getReferrals(t, "0xA")
	assert.Equal(t, int64(total), got.Count)
	require.Len(t, got.Recent, domain.RecentReferralsLimit)
	assert.Equal(t, fmt.Sprintf("User %02d", total-1), got.Recent[0].Display)
	for i := 1; i < len(got.Recent); i++ {
		assert.GreaterOrEqual(t, got.Recent[i-1].When, got.Recent[i].When, "newest first")
	}
}

// TestRegisterValidation checks that invalid payloads never reach the store.
func TestRegisterValidation(t *testing.T) {
	clearDatabase(t)

	cases := map[string]string{
		"MissingAddress":   `{"first_name":"Bob","referrer":"0xA"}`,
		"MissingFirstName": `{"address":"0xB","referrer":"0xA"}`,
		"NullFirstName":    `{"address":"0xB","first_name":null,"referrer":"0xA"}`,
		"NotJSON":          `address=0xB`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, respBody := makeRequest(t, "POST", "/register", strings.NewReader(body))
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			assert.Contains(t, respBody, "invalid input provided")
		})
	}

	assert.Equal(t, int64(0), getReferrals(t, "0xA").Count)
}

// TestHealthCheck pings the store through the router.
func TestHealthCheck(t *testing.T) {
	resp, body := makeRequest(t, "GET", "/health", nil)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)
}
