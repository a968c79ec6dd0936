package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"minddrag/config"
	"minddrag/models"
	"minddrag/routes"
)

type testEnv struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB

	// username -> access token
	tokens map[string]string
}

// newEnv wires the real routes against an in-memory sqlite database.
func newEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))

	config.DB = db
	config.AppConfig = config.Config{
		Environment:        "test",
		ServerPort:         "0",
		HostPrefix:         "/api/1.0",
		AuthRealm:          "Minddrag API",
		EncryptionKey:      "test-secret",
		RateLimitMutations: 10000,
	}

	app := fiber.New()
	routes.SetupRoutes(app, db)

	return &testEnv{t: t, app: app, db: db, tokens: map[string]string{}}
}

// register creates a user through the API and remembers its access token.
func (e *testEnv) register(username string) string {
	e.t.Helper()

	resp := e.request(http.MethodPost, "/auth/register", "", fiber.Map{
		"username": username,
		"email":    username + "@example.com",
		"password": "donthackmebro",
	})
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)

	var auth struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(e.t, resp, &auth)
	require.NotEmpty(e.t, auth.AccessToken)

	e.tokens[username] = auth.AccessToken
	return auth.AccessToken
}

// request performs a JSON request against the app. An empty token means an
// anonymous request.
func (e *testEnv) request(method, path, token string, body interface{}) *http.Response {
	e.t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

// decodeMaps decodes a JSON array response into loosely-typed maps, handy for
// asserting which fields were (not) serialized.
func decodeMaps(t *testing.T, resp *http.Response) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	decodeJSON(t, resp, &out)
	return out
}

func decodeMap(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	decodeJSON(t, resp, &out)
	return out
}

// createTeam creates a team as the given user through the API.
func (e *testEnv) createTeam(username, name, description, password string) {
	e.t.Helper()

	resp := e.request(http.MethodPost, "/api/1.0/teams/", e.tokens[username], fiber.Map{
		"name":        name,
		"description": description,
		"password":    password,
	})
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)
}

// joinTeam adds a user to a team through the API.
func (e *testEnv) joinTeam(username, team, password string) {
	e.t.Helper()

	resp := e.request(http.MethodPost, "/api/1.0/teams/"+team+"/join", e.tokens[username], fiber.Map{
		"password": password,
	})
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
}

// createDragable creates a dragable as the given user through the API.
func (e *testEnv) createDragable(username, hash, team, url, xpath string) {
	e.t.Helper()

	resp := e.request(http.MethodPost, "/api/1.0/dragables/", e.tokens[username], fiber.Map{
		"hash":  hash,
		"team":  team,
		"url":   url,
		"xpath": xpath,
	})
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)
}

// teamByName reads a team straight from the store, members preloaded.
func (e *testEnv) teamByName(name string) (*models.Team, error) {
	var team models.Team
	err := e.db.Preload("CreatedBy").Preload("Members").Where("name = ?", name).First(&team).Error
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (e *testEnv) dragableByHash(hash string) (*models.Dragable, error) {
	var dragable models.Dragable
	err := e.db.Preload("Team").Preload("ConnectedTo").Where("hash = ?", hash).First(&dragable).Error
	if err != nil {
		return nil, err
	}
	return &dragable, nil
}
