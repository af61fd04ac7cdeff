package main

import (
	"errors"
	"net/http"

	"github.com/welleazyhts/p360-callcenter/internal/auth"
	"github.com/welleazyhts/p360-callcenter/internal/httpapi"
	"github.com/welleazyhts/p360-callcenter/internal/rbac"
	"github.com/welleazyhts/p360-callcenter/internal/tagging"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/login", h.Login)

	// Telephony middleware webhook (public).
	// NOTE: protect with provider signature validation in production.
	r.POST("/webhooks/inbound-call", func(c *gin.Context) {
		var req struct {
			CallerNumber string `json:"callerNumber"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.CallerNumber == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "callerNumber required"})
			return
		}
		st, err := h.Workflow.OpenFrom(c.Request.Context(), req.CallerNumber)
		if err != nil {
			if errors.Is(err, tagging.ErrAlreadyOpen) {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, st)
	})

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", func(c *gin.Context) {
			agentID, _ := auth.AgentID(c.Request.Context())
			teamID, _ := auth.TeamID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"agent_id": agentID, "team_id": teamID, "role": role})
		})

		// WORKFLOW routes: every call-handling role.
		workflow := v1.Group("/workflow")
		workflow.Use(rbac.RequireTeam())
		workflow.Use(rbac.RequireAnyRole(rbac.RoleAgent, rbac.RoleCollector, rbac.RoleSupervisor))
		{
			workflow.POST("/open", h.OpenWorkflow)
			workflow.GET("/current", h.CurrentWorkflow)
			workflow.POST("/submit", h.SubmitWorkflow)
			workflow.POST("/abandon", h.AbandonWorkflow)
		}

		// CALLS routes
		calls := v1.Group("/calls")
		calls.Use(rbac.RequireTeam())
		calls.Use(rbac.RequireAnyRole(rbac.RoleAgent, rbac.RoleCollector, rbac.RoleQAReviewer, rbac.RoleSupervisor))
		{
			calls.GET("", h.ListCalls)
			calls.GET("/history", h.CallHistory)
			calls.POST("/initiate", h.InitiateCall)
			calls.GET("/:call_id/status", h.CallStatus)
			calls.POST("/:call_id/hangup", h.HangupCall)
			calls.POST("/:call_id/transfer", h.TransferCall)
		}

		// REMINDERS
		reminders := v1.Group("/reminders")
		reminders.Use(rbac.RequireTeam())
		{
			reminders.GET("", h.ListReminders)
		}

		// BILLING routes: collectors work accounts, money postings need a
		// supervisor.
		accounts := v1.Group("/accounts")
		accounts.Use(rbac.RequireTeam())
		{
			accounts.POST("", rbac.RequireAnyRole(rbac.RoleSupervisor), h.OpenAccount)
			accounts.GET("/:account_id/balance", rbac.RequireAnyRole(rbac.RoleCollector, rbac.RoleSupervisor), h.AccountBalance)
			accounts.POST("/:account_id/charges", rbac.RequireAnyRole(rbac.RoleSupervisor), h.PostCharge)
			accounts.POST("/:account_id/payments", rbac.RequireAnyRole(rbac.RoleCollector, rbac.RoleSupervisor), h.PostPayment)
			accounts.GET("/:account_id/latefee", rbac.RequireAnyRole(rbac.RoleCollector, rbac.RoleSupervisor), h.QuoteLateFee)
			accounts.POST("/:account_id/latefee", rbac.RequireAnyRole(rbac.RoleSupervisor), h.AccrueLateFee)
			accounts.POST("/:account_id/promises", rbac.RequireAnyRole(rbac.RoleCollector, rbac.RoleSupervisor), h.RecordPromise)
			accounts.POST("/:account_id/promises/review", rbac.RequireAnyRole(rbac.RoleCollector, rbac.RoleSupervisor), h.ReviewPromises)
		}

		// REPORTING routes
		reports := v1.Group("/reports")
		reports.Use(rbac.RequireTeam())
		reports.Use(rbac.RequireAnyRole(rbac.RoleQAReviewer, rbac.RoleSupervisor))
		{
			reports.GET("/tagging", h.TaggingSummary)
			reports.GET("/quality", h.WorkflowQuality)
			reports.GET("/collections", h.CollectionsSummary)
		}

		// CUSTOMER DATABASE routes
		customers := v1.Group("/customers")
		customers.Use(rbac.RequireTeam())
		{
			customers.POST("/bulkupload", rbac.RequireAnyRole(rbac.RoleSupervisor), h.BulkUploadCustomers)
		}

		// AUDIT trail, QA review surface.
		auditGroup := v1.Group("/audit")
		auditGroup.Use(rbac.RequireTeam())
		auditGroup.Use(rbac.RequireAnyRole(rbac.RoleQAReviewer, rbac.RoleSupervisor))
		{
			auditGroup.GET("/events", h.ListAuditEvents)
		}
	}
}
