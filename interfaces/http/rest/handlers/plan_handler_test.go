package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailflow/application/commands"
	"mailflow/application/commands/bus"
	commandhandlers "mailflow/application/commands/handlers"
	"mailflow/application/queries"
	querybus "mailflow/application/queries/bus"
	queryhandlers "mailflow/application/queries/handlers"
	"mailflow/application/services"
	domainconfig "mailflow/domain/config"
	"mailflow/domain/flow"
	"mailflow/infrastructure/config"
	"mailflow/infrastructure/mail"
	"mailflow/infrastructure/persistence/memory"
	"mailflow/interfaces/http/rest"
	"mailflow/interfaces/http/rest/handlers"
	"mailflow/pkg/auth"
	apperrors "mailflow/pkg/errors"
	"mailflow/pkg/observability"
)

const (
	testSecret   = "test-secret"
	testPassword = "swordfish"
)

type testEnv struct {
	handler http.Handler
	token   string
	plans   *memory.PlanRepository
	logs    *memory.EmailLogRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	plans := memory.NewPlanRepository()
	logs := memory.NewEmailLogRepository()
	eventBus := memory.NewEventBus()
	metrics := observability.NewNoopMetrics()
	domainCfg := domainconfig.DefaultDomainConfig()

	runner := services.NewFlowRunner(
		plans, logs, mail.NewLogSender(logger), eventBus,
		metrics, nil, logger, domainCfg, false,
	)

	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))
	require.NoError(t, commandBus.Register(commands.SavePlanCommand{},
		commandhandlers.NewSavePlanHandler(plans, eventBus, metrics, logger, domainCfg)))
	require.NoError(t, commandBus.Register(commands.PatchPlanCommand{},
		commandhandlers.NewPatchPlanHandler(plans, eventBus, logger)))
	require.NoError(t, commandBus.Register(commands.DeletePlanCommand{},
		commandhandlers.NewDeletePlanHandler(plans, eventBus, logger)))

	queryBus := querybus.NewQueryBus()
	require.NoError(t, queryBus.Register(queries.GetPlanQuery{}, queryhandlers.NewGetPlanHandler(plans)))
	require.NoError(t, queryBus.Register(queries.ListPlansQuery{}, queryhandlers.NewListPlansHandler(plans)))
	require.NoError(t, queryBus.Register(queries.ListEmailLogsQuery{}, queryhandlers.NewListEmailLogsHandler(plans, logs)))

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "mailflow",
	})
	require.NoError(t, err)

	generator, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SecretKey: testSecret,
		Issuer:    "mailflow",
	})
	require.NoError(t, err)

	cfg := &config.Config{
		Environment:  "test",
		AuthUserID:   "user-1",
		AuthEmail:    "admin@example.com",
		AuthUsername: "admin",
		AuthPassword: testPassword,
	}

	errHandler := apperrors.NewErrorHandler(logger, false)
	planHandler := handlers.NewPlanHandler(commandBus, queryBus, runner, errHandler, logger)
	authHandler := handlers.NewAuthHandler(generator, cfg, errHandler, logger)
	router := rest.NewRouter(planHandler, authHandler, validator, cfg, domainCfg, logger)

	token, err := generator.GenerateToken("user-1", "admin@example.com")
	require.NoError(t, err)

	return &testEnv{
		handler: router.Handler(),
		token:   token,
		plans:   plans,
		logs:    logs,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func samplePayload() map[string]interface{} {
	return map[string]interface{}{
		"name":            "Welcome series",
		"subject":         "Hi {{first_name}}",
		"content":         "Hello {{first_name}}, welcome aboard.",
		"trigger_type":    "button_click",
		"recipient_email": "fallback@example.com",
		"flow": map[string]interface{}{
			"nodes": []map[string]interface{}{
				{
					"id":       "trigger-1",
					"type":     "trigger",
					"position": map[string]float64{"x": 100, "y": 120},
					"data":     map[string]interface{}{"trigger_type": "button_click"},
				},
				{
					"id":       "email-1",
					"type":     "email",
					"position": map[string]float64{"x": 420, "y": 120},
					"data": map[string]interface{}{
						"recipient_email": "jo@example.com",
						"subject":         "Hi {{first_name}}",
						"body":            "Hello {{first_name}}, welcome aboard.",
					},
				},
			},
			"edges": []map[string]interface{}{
				{"id": "e-trigger-1-email-1", "source": "trigger-1", "target": "email-1"},
			},
		},
	}
}

func TestTokenEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/token/", "", map[string]string{
		"email":    "admin@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/token/", "", map[string]string{
		"username": "admin",
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "user-1", resp.UserID)

	// The issued token opens the protected surface.
	rec = env.do(t, http.MethodGet, "/api/mailplans/", resp.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPlanEndpointsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/mailplans/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/mailplans/", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPlanCRUD(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/mailplans/", env.token, samplePayload())
	require.Equal(t, http.StatusCreated, rec.Code)

	var created flow.Plan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Welcome series", created.Name)
	assert.Equal(t, flow.PlanStatusActive, created.Status)
	// The read representation projects the recipient out of the flow.
	assert.Equal(t, "jo@example.com", created.RecipientEmail)

	rec = env.do(t, http.MethodGet, "/api/mailplans/", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []flow.Plan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	updated := samplePayload()
	updated["name"] = "Welcome series v2"
	rec = env.do(t, http.MethodPut, "/api/mailplans/"+created.ID+"/", env.token, updated)
	require.Equal(t, http.StatusOK, rec.Code)
	var afterPut flow.Plan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&afterPut))
	assert.Equal(t, "Welcome series v2", afterPut.Name)
	assert.Equal(t, created.CreatedAt.Unix(), afterPut.CreatedAt.Unix())

	rec = env.do(t, http.MethodPatch, "/api/mailplans/"+created.ID+"/", env.token, map[string]string{
		"name": "Renamed",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var afterPatch flow.Plan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&afterPatch))
	assert.Equal(t, "Renamed", afterPatch.Name)
	assert.Equal(t, "Hi {{first_name}}", afterPatch.Subject)

	rec = env.do(t, http.MethodDelete, "/api/mailplans/"+created.ID+"/", env.token, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/mailplans/"+created.ID+"/", env.token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	env := newTestEnv(t)

	payload := samplePayload()
	delete(payload, "name")
	rec := env.do(t, http.MethodPost, "/api/mailplans/", env.token, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	payload = samplePayload()
	payload["recipient_email"] = "not-an-email"
	rec = env.do(t, http.MethodPost, "/api/mailplans/", env.token, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriggerAndLogs(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/mailplans/", env.token, samplePayload())
	require.Equal(t, http.StatusCreated, rec.Code)
	var created flow.Plan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	rec = env.do(t, http.MethodPost, "/api/mailplans/"+created.ID+"/trigger/", env.token, map[string]bool{
		"confirm": false,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/mailplans/"+created.ID+"/trigger/", env.token, map[string]bool{
		"confirm": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var trig handlers.TriggerResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&trig))
	assert.Equal(t, "sent", trig.Status)
	assert.Equal(t, "Flow executed synchronously", trig.Message)

	rec = env.do(t, http.MethodGet, "/api/mailplans/"+created.ID+"/logs/", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []flow.EmailLog
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "jo@example.com", entries[0].Recipient)
	assert.Equal(t, flow.EmailLogSent, entries[0].Status)

	rec = env.do(t, http.MethodGet, "/api/mailplans/"+created.ID+"/", env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after flow.Plan
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&after))
	assert.Equal(t, flow.PlanStatusSent, after.Status)

	rec = env.do(t, http.MethodPost, "/api/mailplans/missing/trigger/", env.token, map[string]bool{
		"confirm": true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
