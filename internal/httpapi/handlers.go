// Package httpapi groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/welleazyhts/p360-callcenter/internal/audit"
	"github.com/welleazyhts/p360-callcenter/internal/auth"
	"github.com/welleazyhts/p360-callcenter/internal/billing"
	"github.com/welleazyhts/p360-callcenter/internal/callrecord"
	"github.com/welleazyhts/p360-callcenter/internal/dialer"
	"github.com/welleazyhts/p360-callcenter/internal/directory"
	"github.com/welleazyhts/p360-callcenter/internal/followup"
	"github.com/welleazyhts/p360-callcenter/internal/rbac"
	"github.com/welleazyhts/p360-callcenter/internal/reporting"
	"github.com/welleazyhts/p360-callcenter/internal/tagging"
	"github.com/welleazyhts/p360-callcenter/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Auth      *auth.Manager
	Workflow  *tagging.Workflow
	Records   *callrecord.Store
	Dialer    *dialer.Dialer
	Reminders followup.Store
	Billing   *billing.Service
	Reports   *reporting.Service
	Directory *directory.MemoryRepo
	Audit     *audit.Service

	// Redis enables the per-agent dial cap when DialCapPerMinute > 0.
	Redis            *redis.Client
	DialCapPerMinute int
}

// --- Auth ---

type loginRequest struct {
	AgentID string `json:"agent_id"`
	TeamID  string `json:"team_id"`
	Role    string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: credential validation happens upstream in the identity provider;
// this endpoint trusts the gateway.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.AgentID == "" || req.TeamID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "agent_id, team_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.AgentID, req.TeamID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Tagging workflow ---

type openWorkflowRequest struct {
	CallerNumber string `json:"callerNumber,omitempty"`
}

// OpenWorkflow captures an incoming call and resolves the caller. Without a
// caller number the session comes from the simulation pool.
func (h Handlers) OpenWorkflow(c *gin.Context) {
	var req openWorkflowRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
	}

	var st tagging.State
	var err error
	if req.CallerNumber != "" {
		st, err = h.Workflow.OpenFrom(c.Request.Context(), req.CallerNumber)
	} else {
		st, err = h.Workflow.Open(c.Request.Context())
	}
	if err != nil {
		if errors.Is(err, tagging.ErrAlreadyOpen) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h Handlers) CurrentWorkflow(c *gin.Context) {
	st, ok := h.Workflow.Current()
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no workflow in progress"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h Handlers) SubmitWorkflow(c *gin.Context) {
	var form tagging.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	res, err := h.Workflow.Submit(c.Request.Context(), form)
	if err != nil {
		switch {
		case errors.Is(err, tagging.ErrNotOpen):
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, followup.ErrBadSchedule):
			// The record was appended; tell the caller what did happen.
			c.JSON(http.StatusMultiStatus, gin.H{"result": res, "error": err.Error()})
		default:
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) AbandonWorkflow(c *gin.Context) {
	if err := h.Workflow.Abandon(c.Request.Context()); err != nil {
		if errors.Is(err, tagging.ErrNotOpen) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Call history ---

// ListCalls serves the paged call-history dashboard.
func (h Handlers) ListCalls(c *gin.Context) {
	q := callrecord.ListQuery{
		Page:      intQuery(c, "page", 1),
		Limit:     intQuery(c, "limit", 20),
		Status:    c.Query("status"),
		AgentID:   c.Query("agentId"),
		Direction: c.Query("direction"),
		Search:    c.Query("search"),
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.From = t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.To = t
		}
	}

	page, err := h.Records.ListPaged(c.Request.Context(), q)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}

// CallHistory returns the local append-only log in insertion order.
func (h Handlers) CallHistory(c *gin.Context) {
	recs, err := h.Records.History(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calls": recs})
}

// --- Dialer ---

// InitiateCall places an outbound call. Supervisors and admins may set
// overridePolicy to dial past a policy block; that override is audited.
func (h Handlers) InitiateCall(c *gin.Context) {
	var req dialer.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	agentID, _ := auth.AgentID(c.Request.Context())
	role, _ := auth.Role(c.Request.Context())
	if req.AgentID == "" {
		req.AgentID = agentID
	}

	if c.Query("overridePolicy") == "true" {
		if !rbac.CanOverrideDialPolicy(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role may not override dial policy"})
			return
		}
		req.OverridePolicy = true
	}

	if h.Redis != nil && h.DialCapPerMinute > 0 {
		ok, err := utils.AllowDialAttempt(c.Request.Context(), h.Redis, agentID, h.DialCapPerMinute, time.Minute)
		if err == nil && !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "dial cap reached"})
			return
		}
		// Redis trouble never blocks dialing; the cap is advisory.
	}

	res, err := h.Dialer.Initiate(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, dialer.ErrInvalidRequest):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, dialer.ErrPolicyBlocked):
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	h.auditEvent(c, audit.EventTypeCallInitiated, agentID, res.CallID)
	if req.OverridePolicy {
		h.auditEvent(c, audit.EventTypePolicyOverridden, agentID, res.CallID)
	}
	c.JSON(http.StatusOK, res)
}

func (h Handlers) CallStatus(c *gin.Context) {
	st, err := h.Dialer.Status(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h Handlers) HangupCall(c *gin.Context) {
	st, err := h.Dialer.Hangup(c.Request.Context(), c.Param("call_id"))
	if err != nil {
		if errors.Is(err, dialer.ErrCallNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

type transferRequest struct {
	Target string `json:"target"`
}

func (h Handlers) TransferCall(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Target == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "target required"})
		return
	}
	st, err := h.Dialer.Transfer(c.Request.Context(), c.Param("call_id"), req.Target)
	if err != nil {
		if errors.Is(err, dialer.ErrCallNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

// --- Reminders ---

func (h Handlers) ListReminders(c *gin.Context) {
	if h.Reminders == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reminder store not configured"})
		return
	}
	rems, err := h.Reminders.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reminders": rems})
}

// --- Billing ---

type openAccountRequest struct {
	CustomerID string `json:"customer_id"`
	Currency   string `json:"currency"`
}

func (h Handlers) OpenAccount(c *gin.Context) {
	var req openAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	a, err := h.Billing.OpenAccount(c.Request.Context(), req.CustomerID, req.Currency)
	if err != nil {
		h.billingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

type postingRequest struct {
	AmountMinor    int64      `json:"amount_minor"`
	Currency       string     `json:"currency"`
	ExternalRef    string     `json:"external_ref,omitempty"`
	IdempotencyKey string     `json:"idempotency_key"`
	DueDate        *time.Time `json:"due_date,omitempty"`
}

func (h Handlers) PostCharge(c *gin.Context)  { h.post(c, h.Billing.Charge) }
func (h Handlers) PostPayment(c *gin.Context) { h.post(c, h.Billing.Payment) }

func (h Handlers) post(c *gin.Context, op func(ctx context.Context, accountID string, req billing.PostRequest) (billing.LedgerEntry, billing.Balance, error)) {
	var req postingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	entry, bal, err := op(c.Request.Context(), c.Param("account_id"), billing.PostRequest{
		AmountMinor:    req.AmountMinor,
		Currency:       req.Currency,
		ExternalRef:    req.ExternalRef,
		IdempotencyKey: req.IdempotencyKey,
		DueDate:        req.DueDate,
	})
	if err != nil {
		h.billingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry, "balance": bal})
}

func (h Handlers) AccountBalance(c *gin.Context) {
	bal, err := h.Billing.Outstanding(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		h.billingError(c, err)
		return
	}
	dpd, err := h.Billing.DaysPastDue(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		h.billingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": bal, "days_past_due": dpd})
}

type promiseRequest struct {
	CallID      string    `json:"call_id,omitempty"`
	AmountMinor int64     `json:"amount_minor"`
	PromisedFor time.Time `json:"promised_for"`
}

func (h Handlers) RecordPromise(c *gin.Context) {
	var req promiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := h.Billing.RecordPromise(c.Request.Context(), c.Param("account_id"), req.CallID, req.AmountMinor, req.PromisedFor)
	if err != nil {
		h.billingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h Handlers) QuoteLateFee(c *gin.Context) {
	fee, err := h.Billing.QuoteLateFee(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		h.billingError(c, err)
		return
	}
	c.JSON(http.StatusOK, fee)
}

type accrueLateFeeRequest struct {
	IdempotencyKey string `json:"idempotency_key"`
}

func (h Handlers) AccrueLateFee(c *gin.Context) {
	var req accrueLateFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IdempotencyKey == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "idempotency_key required"})
		return
	}
	fee, err := h.Billing.AccrueLateFee(c.Request.Context(), c.Param("account_id"), req.IdempotencyKey)
	if err != nil {
		h.billingError(c, err)
		return
	}
	c.JSON(http.StatusOK, fee)
}

func (h Handlers) ReviewPromises(c *gin.Context) {
	promises, err := h.Billing.ReviewPromises(c.Request.Context(), c.Param("account_id"))
	if err != nil {
		h.billingError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"promises": promises})
}

func (h Handlers) billingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, billing.ErrNotFound), errors.Is(err, billing.ErrNoFeeSchedule):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, billing.ErrOverpayment), errors.Is(err, billing.ErrAccountFrozen):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// --- Reporting ---

func (h Handlers) TaggingSummary(c *gin.Context) {
	rng, ok := parseRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.TaggingSummary(c.Request.Context(), reporting.TaggingSummaryRequest{
		Range:   rng,
		AgentID: c.Query("agentId"),
	})
	if err != nil {
		h.reportingError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) WorkflowQuality(c *gin.Context) {
	rng, ok := parseRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.WorkflowQuality(c.Request.Context(), reporting.WorkflowQualityRequest{
		Range:   rng,
		AgentID: c.Query("agentId"),
	})
	if err != nil {
		h.reportingError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) CollectionsSummary(c *gin.Context) {
	rng, ok := parseRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.CollectionsSummary(c.Request.Context(), reporting.CollectionsSummaryRequest{
		Range:     rng,
		AccountID: c.Query("accountId"),
	})
	if err != nil {
		h.reportingError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) reportingError(c *gin.Context, err error) {
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// --- Customer import ---

// BulkUploadCustomers parses an uploaded spreadsheet and loads the rows into
// the lookup directory.
func (h Handlers) BulkUploadCustomers(c *gin.Context) {
	if h.Directory == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "directory not configured"})
		return
	}
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	defer file.Close()

	customers, err := directory.ParseCustomerWorkbook(file)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	for _, cust := range customers {
		h.Directory.Add(directory.Person{
			ID:     cust.ID,
			Kind:   directory.KindCustomer,
			Name:   cust.Name,
			Email:  cust.Email,
			Phone:  cust.Phone,
			Status: cust.Status,
		})
	}
	c.JSON(http.StatusOK, gin.H{"imported": len(customers)})
}

// --- Audit trail ---

func (h Handlers) ListAuditEvents(c *gin.Context) {
	if h.Audit == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "audit not configured"})
		return
	}
	events, err := h.Audit.Events(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

// --- helpers ---

func (h Handlers) auditEvent(c *gin.Context, typ audit.EventType, agentID, callID string) {
	if h.Audit == nil {
		return
	}
	_ = h.Audit.Append(c.Request.Context(), audit.Event{
		Type:    typ,
		AgentID: agentID,
		CallID:  callID,
	})
}

func parseRange(c *gin.Context) (reporting.TimeRange, bool) {
	from, err1 := time.Parse(time.RFC3339, c.Query("from"))
	to, err2 := time.Parse(time.RFC3339, c.Query("to"))
	if err1 != nil || err2 != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from and to must be RFC3339 timestamps"})
		return reporting.TimeRange{}, false
	}
	return reporting.TimeRange{From: from, To: to}, true
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
