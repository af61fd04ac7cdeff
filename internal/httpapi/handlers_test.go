package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/welleazyhts/p360-callcenter/internal/audit"
	"github.com/welleazyhts/p360-callcenter/internal/auth"
	"github.com/welleazyhts/p360-callcenter/internal/billing"
	"github.com/welleazyhts/p360-callcenter/internal/callrecord"
	"github.com/welleazyhts/p360-callcenter/internal/dialer"
	"github.com/welleazyhts/p360-callcenter/internal/directory"
	"github.com/welleazyhts/p360-callcenter/internal/followup"
	"github.com/welleazyhts/p360-callcenter/internal/session"
	"github.com/welleazyhts/p360-callcenter/internal/tagging"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newHandlers(t *testing.T) Handlers {
	t.Helper()

	sessions := session.NewManager()
	records := callrecord.NewStore(
		callrecord.NewMemoryRepo(),
		followup.NewScheduler(followup.NewMemoryStore()),
		nil,
		callrecord.WithDurationSource(sessions.DurationSoFar),
	)
	dir := directory.NewService(directory.NewMemoryRepo(directory.SeedPeople()), nil)
	auditSvc := audit.NewService(audit.NewMemoryRepo())

	return Handlers{
		Workflow:  tagging.NewWorkflow(sessions, dir, records, auditSvc, nil, tagging.Config{}),
		Records:   records,
		Dialer:    dialer.New(nil, dialer.WithMockDelays(time.Millisecond, 2*time.Millisecond)),
		Reminders: followup.NewMemoryStore(),
		Billing:   billing.NewService(billing.NewMemoryRepo()),
		Audit:     auditSvc,
	}
}

func doJSON(t *testing.T, handler gin.HandlerFunc, method, target string, body any, identity ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if len(identity) == 3 {
		req = req.WithContext(auth.WithIdentity(req.Context(), identity[0], identity[1], identity[2]))
	}

	w := httptest.NewRecorder()
	r := gin.New()
	r.Handle(method, "/calls/:call_id/status", handler)
	r.Handle(method, "/accounts/:account_id/charges", handler)
	r.NoRoute(func(c *gin.Context) { handler(c) })
	r.ServeHTTP(w, req)
	return w
}

func TestOpenAndSubmitWorkflow(t *testing.T) {
	h := newHandlers(t)

	w := doJSON(t, h.OpenWorkflow, http.MethodPost, "/workflow/open", openWorkflowRequest{CallerNumber: "+91 98765 43210"})
	require.Equal(t, http.StatusOK, w.Code)

	var st tagging.State
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	require.True(t, st.Lookup.Found)
	assert.Equal(t, "Rajesh Kumar", st.Lookup.Person.Name)

	// A second open while one is in progress conflicts.
	w = doJSON(t, h.OpenWorkflow, http.MethodPost, "/workflow/open", openWorkflowRequest{CallerNumber: "+91 98765 43210"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, h.SubmitWorkflow, http.MethodPost, "/workflow/submit", tagging.Form{Reason: "Policy Inquiry"})
	require.Equal(t, http.StatusOK, w.Code)

	var res tagging.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Saved)
	assert.Equal(t, "Policy Inquiry", res.Record.Reason)
}

func TestSubmitWithoutOpenConflicts(t *testing.T) {
	h := newHandlers(t)
	w := doJSON(t, h.SubmitWorkflow, http.MethodPost, "/workflow/submit", tagging.Form{Reason: "x"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListCallsServesSyntheticPage(t *testing.T) {
	h := newHandlers(t)

	w := doJSON(t, h.ListCalls, http.MethodGet, "/calls?page=2&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page callrecord.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Records, 5)
	assert.Equal(t, 137, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Page)
}

func TestInitiateCallValidation(t *testing.T) {
	h := newHandlers(t)

	w := doJSON(t, h.InitiateCall, http.MethodPost, "/calls/initiate",
		dialer.InitiateRequest{}, "agent-1", "collections", "agent")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, h.InitiateCall, http.MethodPost, "/calls/initiate",
		dialer.InitiateRequest{To: "9876543210"}, "agent-1", "collections", "agent")
	require.Equal(t, http.StatusOK, w.Code)

	var res dialer.InitiateResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, dialer.StatusQueued, res.Status)
	assert.NotEmpty(t, res.CallID)
}

func TestInitiateOverrideNeedsPrivilegedRole(t *testing.T) {
	h := newHandlers(t)

	w := doJSON(t, h.InitiateCall, http.MethodPost, "/calls/initiate?overridePolicy=true",
		dialer.InitiateRequest{To: "9876543210"}, "agent-1", "collections", "agent")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, h.InitiateCall, http.MethodPost, "/calls/initiate?overridePolicy=true",
		dialer.InitiateRequest{To: "9876543210"}, "sup-1", "collections", "supervisor")
	assert.Equal(t, http.StatusOK, w.Code)

	// The override leaves a trail.
	events, err := h.Audit.Events(context.Background())
	require.NoError(t, err)
	var overridden bool
	for _, e := range events {
		if e.Type == audit.EventTypePolicyOverridden {
			overridden = true
		}
	}
	assert.True(t, overridden)
}

func TestCallStatusToleratesUnknownID(t *testing.T) {
	h := newHandlers(t)

	w := doJSON(t, h.CallStatus, http.MethodGet, "/calls/nonexistent/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var st dialer.CallStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, dialer.StatusUnknown, st.Status)
}

func TestBillingChargeAndOverpayment(t *testing.T) {
	h := newHandlers(t)

	a, err := h.Billing.OpenAccount(context.Background(), "CUST-1001", "INR")
	require.NoError(t, err)

	due := time.Now().AddDate(0, 0, 30)
	w := doJSON(t, h.PostCharge, http.MethodPost, "/accounts/"+a.ID+"/charges", postingRequest{
		AmountMinor: 50_000, Currency: "INR", IdempotencyKey: "inv-1", DueDate: &due,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h.PostPayment, http.MethodPost, "/accounts/"+a.ID+"/charges", postingRequest{
		AmountMinor: 90_000, Currency: "INR", IdempotencyKey: "pay-1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}
