package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/arnavshah/crew-scheduler-api/pkg/config"
	"github.com/arnavshah/crew-scheduler-api/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	t   *testing.T
	app *server.App
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{Mode: "test"},
		Database: config.DatabaseConfig{Path: filepath.Join(t.TempDir(), "crew.db")},
		Auth: config.AuthConfig{
			JWTSecret:       "jwt-secret",
			APIMasterSecret: "master-secret",
			AdminUsername:   "admin",
			AdminPassword:   "admin-pass",
			BcryptCost:      4,
		},
		Logging: config.LoggingConfig{Level: "error"},
	}
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())

	app, err := server.Build(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return &testAPI{t: t, app: app}
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.app.Router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) decode(w *httptest.ResponseRecorder, v any) {
	a.t.Helper()
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func (a *testAPI) login(username, password string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/auth/login", "", map[string]string{"username": username, "password": password})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	a.decode(w, &resp)
	return resp.AccessToken
}

func (a *testAPI) createMission(token string, headcount int) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/missions", token, map[string]any{
		"title":              "Stage setup",
		"start":              "2024-06-01T09:00:00Z",
		"end":                "2024-06-01T17:00:00Z",
		"required_headcount": headcount,
		"forfeit_amount":     150,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var m struct {
		ID string `json:"id"`
	}
	a.decode(w, &m)
	return m.ID
}

func (a *testAPI) createTechnician(token, name, email string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/v1/technicians", token, map[string]any{
		"name":      name,
		"email":     email,
		"password":  "tech-password",
		"validated": true,
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	var tech struct {
		ID string `json:"id"`
	}
	a.decode(w, &tech)
	return tech.ID
}

func TestPublicRoutes(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", nil).Code)

	w := api.do(http.MethodPost, "/auth/login", "", map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_Roles(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin-pass")
	api.createTechnician(admin, "Ana", "ana@example.com")
	tech := api.login("ana@example.com", "tech-password")

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/missions", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/missions", "garbage", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/missions", tech, nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/me/assignments", admin, nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/v1/me/assignments", tech, nil).Code)
}

func TestMissionValidationErrors(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin-pass")

	w := api.do(http.MethodPost, "/api/v1/missions", admin, map[string]any{
		"title":              "",
		"start":              "2024-06-01T17:00:00Z",
		"end":                "2024-06-01T09:00:00Z",
		"required_headcount": 0,
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	api.decode(w, &resp)
	assert.Contains(t, resp.Fields, "title")
	assert.Contains(t, resp.Fields, "required_headcount")

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/missions/missing", admin, nil).Code)
}

func TestStaffingWorkflow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin-pass")
	missionID := api.createMission(admin, 1)
	techID := api.createTechnician(admin, "Ana", "ana@example.com")

	w := api.do(http.MethodGet, "/api/v1/missions/"+missionID+"/candidates", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cands struct {
		Candidates []struct {
			TechnicianID string `json:"technician_id"`
			Label        string `json:"label"`
			Selectable   bool   `json:"selectable"`
		} `json:"candidates"`
	}
	api.decode(w, &cands)
	require.Len(t, cands.Candidates, 1)
	assert.Equal(t, "no_availability", cands.Candidates[0].Label)
	assert.True(t, cands.Candidates[0].Selectable)

	w = api.do(http.MethodPost, "/api/v1/missions/"+missionID+"/proposals", admin, map[string]any{"technician_ids": []string{techID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	tech := api.login("ana@example.com", "tech-password")
	w = api.do(http.MethodGet, "/api/v1/me/assignments", tech, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Assignments []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"assignments"`
	}
	api.decode(w, &mine)
	require.Len(t, mine.Assignments, 1)
	assert.Equal(t, "proposed", mine.Assignments[0].Status)
	assignmentID := mine.Assignments[0].ID

	w = api.do(http.MethodPost, "/api/v1/me/assignments/"+assignmentID+"/accept", tech, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/me/assignments/"+assignmentID+"/reject", tech, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "accepted assignments are final")

	w = api.do(http.MethodGet, "/api/v1/missions/"+missionID+"/completion", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var comp struct {
		Accepted int  `json:"accepted"`
		Complete bool `json:"complete"`
	}
	api.decode(w, &comp)
	assert.Equal(t, 1, comp.Accepted)
	assert.True(t, comp.Complete)

	w = api.do(http.MethodGet, "/api/v1/billing?status=pending", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var bills struct {
		Billings []struct {
			ID     string  `json:"id"`
			Amount float64 `json:"amount"`
		} `json:"billings"`
	}
	api.decode(w, &bills)
	require.Len(t, bills.Billings, 1)
	assert.Equal(t, 150.0, bills.Billings[0].Amount)

	w = api.do(http.MethodPut, "/api/v1/billing/"+bills.Billings[0].ID+"/paid", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var paid struct {
		Status string `json:"status"`
	}
	api.decode(w, &paid)
	assert.Equal(t, "paid", paid.Status)
	w = api.do(http.MethodPut, "/api/v1/billing/missing/paid", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = api.do(http.MethodGet, "/api/v1/billing/export", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")

	w = api.do(http.MethodGet, "/api/v1/reports/workload?from=2024-06-01T00:00:00Z&to=2024-06-02T00:00:00Z", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var load struct {
		Technicians []struct {
			Hours float64 `json:"hours"`
		} `json:"technicians"`
	}
	api.decode(w, &load)
	require.Len(t, load.Technicians, 1)
	assert.Equal(t, 8.0, load.Technicians[0].Hours)
}

func TestProposals_IneligibleAndCancel(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin-pass")
	missionID := api.createMission(admin, 2)
	busyID := api.createTechnician(admin, "Xavier", "xavier@example.com")
	freeID := api.createTechnician(admin, "Zoe", "zoe@example.com")

	busy := api.login("xavier@example.com", "tech-password")
	w := api.do(http.MethodPost, "/api/v1/me/unavailabilities", busy, map[string]string{
		"start":  "2024-06-01T08:00:00Z",
		"end":    "2024-06-01T12:00:00Z",
		"reason": "dentist",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = api.do(http.MethodPost, "/api/v1/missions/"+missionID+"/proposals", admin, map[string]any{"technician_ids": []string{busyID, freeID}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	var inel struct {
		Ineligible map[string]string `json:"ineligible"`
	}
	api.decode(w, &inel)
	assert.Equal(t, "unavailable", inel.Ineligible[busyID])
	assert.NotContains(t, inel.Ineligible, freeID)

	w = api.do(http.MethodGet, "/api/v1/missions/"+missionID+"/candidates?format=csv", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "technician_id,name,validated,label"))

	w = api.do(http.MethodPost, "/api/v1/missions/"+missionID+"/proposals", admin, map[string]any{"technician_ids": []string{freeID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.do(http.MethodDelete, "/api/v1/missions/"+missionID+"/proposals", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	free := api.login("zoe@example.com", "tech-password")
	w = api.do(http.MethodGet, "/api/v1/me/assignments", free, nil)
	var mine struct {
		Assignments []any `json:"assignments"`
	}
	api.decode(w, &mine)
	assert.Empty(t, mine.Assignments)
}

func TestIntegrationKeys_ResolveAndUsage(t *testing.T) {
	api := newTestAPI(t)
	admin := api.login("admin", "admin-pass")

	w := api.do(http.MethodPost, "/api/v1/keys", admin, map[string]any{"name": "partner"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var created struct {
		ID  uint   `json:"id"`
		Key string `json:"key"`
	}
	api.decode(w, &created)
	require.NotEmpty(t, created.Key)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/api/v1/resolve", "partner.bad", map[string]any{}).Code)

	payload := map[string]any{
		"mission": map[string]any{"id": "m1", "start": "2024-06-01T09:00:00Z", "end": "2024-06-01T17:00:00Z", "required_headcount": 1},
		"candidates": []map[string]any{
			{"technician": map[string]any{"id": "x", "name": "Xavier"}, "unavailabilities": []map[string]any{{"start": "2024-06-01T08:00:00Z", "end": "2024-06-01T12:00:00Z"}}},
			{"technician": map[string]any{"id": "w", "name": "Walt"}},
		},
	}

	w = api.do(http.MethodPost, "/api/v1/validate", created.Key, payload)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)

	w = api.do(http.MethodPost, "/api/v1/resolve", created.Key, payload)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resolved struct {
		Reports []struct {
			TechnicianID string `json:"technician_id"`
			Label        string `json:"label"`
		} `json:"reports"`
	}
	api.decode(w, &resolved)
	require.Len(t, resolved.Reports, 2)
	assert.Equal(t, "unavailable", resolved.Reports[0].Label)
	assert.Equal(t, "no_availability", resolved.Reports[1].Label)

	w = api.do(http.MethodGet, "/api/v1/usage", created.Key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var usage struct {
		Remaining int `json:"remaining_today"`
		Days      []struct {
			Requests             int     `json:"requests"`
			CandidatesPerRequest float64 `json:"candidates_per_request"`
		} `json:"days"`
		Totals struct {
			Requests   int `json:"requests"`
			Missions   int `json:"missions"`
			Candidates int `json:"candidates"`
		} `json:"totals"`
	}
	api.decode(w, &usage)
	assert.Equal(t, 1, usage.Totals.Requests)
	assert.Equal(t, 1, usage.Totals.Missions)
	assert.Equal(t, 2, usage.Totals.Candidates)
	require.Len(t, usage.Days, 1)
	assert.Equal(t, 2.0, usage.Days[0].CandidatesPerRequest)
	assert.Equal(t, 10000-1, usage.Remaining)

	w = api.do(http.MethodGet, fmt.Sprintf("/api/v1/usage/%d?days=7", created.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var keyUsage struct {
		KeyName string `json:"key_name"`
		Totals  struct {
			Requests int `json:"requests"`
		} `json:"totals"`
	}
	api.decode(w, &keyUsage)
	assert.Equal(t, "partner", keyUsage.KeyName)
	assert.Equal(t, 1, keyUsage.Totals.Requests)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/usage/999", admin, nil).Code)

	w = api.do(http.MethodGet, "/api/v1/keys", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), created.Key, "listings only show the preview")
}
