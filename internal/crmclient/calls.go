package crmclient

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/welleazyhts/p360-callcenter/internal/callrecord"
	"github.com/welleazyhts/p360-callcenter/internal/dialer"
)

// ListCalls satisfies callrecord.RemoteLister.
func (c *Client) ListCalls(ctx context.Context, q callrecord.ListQuery) (callrecord.Page, error) {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	if !q.From.IsZero() {
		v.Set("from", q.From.Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.Format(time.RFC3339))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.AgentID != "" {
		v.Set("agentId", q.AgentID)
	}
	if q.Direction != "" {
		v.Set("direction", q.Direction)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}

	var page callrecord.Page
	if err := c.getJSON(ctx, "/calls?"+v.Encode(), &page); err != nil {
		return callrecord.Page{}, fmt.Errorf("list calls: %w", err)
	}
	return page, nil
}

// AppendCall posts a tagged call record to the backend log.
func (c *Client) AppendCall(ctx context.Context, rec callrecord.CallRecord) error {
	if err := c.writeJSON(ctx, "POST", "/calls", rec, nil); err != nil {
		return fmt.Errorf("append call: %w", err)
	}
	return nil
}

// Initiate satisfies dialer.Provider.
func (c *Client) Initiate(ctx context.Context, req dialer.InitiateRequest) (dialer.InitiateResult, error) {
	var res dialer.InitiateResult
	if err := c.writeJSON(ctx, "POST", "/calls/initiate", req, &res); err != nil {
		return dialer.InitiateResult{}, fmt.Errorf("initiate call: %w", err)
	}
	if res.Provider == "" {
		res.Provider = "crm"
	}
	return res, nil
}

// Status satisfies dialer.Provider. Unknown ids come back as ErrNotFound;
// the dialer decides whether that is tolerable.
func (c *Client) Status(ctx context.Context, callID string) (dialer.CallStatus, error) {
	var st dialer.CallStatus
	path := "/calls/" + url.PathEscape(callID) + "/status"
	if err := c.getJSON(ctx, path, &st); err != nil {
		return dialer.CallStatus{}, fmt.Errorf("call status: %w", err)
	}
	if st.CallID == "" {
		st.CallID = callID
	}
	return st, nil
}

// Hangup satisfies dialer.Provider.
func (c *Client) Hangup(ctx context.Context, callID string) error {
	path := "/calls/" + url.PathEscape(callID) + "/hangup"
	if err := c.writeJSON(ctx, "POST", path, nil, nil); err != nil {
		return fmt.Errorf("hangup call: %w", err)
	}
	return nil
}

// Transfer satisfies dialer.Provider.
func (c *Client) Transfer(ctx context.Context, callID, target string) error {
	path := "/calls/" + url.PathEscape(callID) + "/transfer"
	body := map[string]string{"target": target}
	if err := c.writeJSON(ctx, "POST", path, body, nil); err != nil {
		return fmt.Errorf("transfer call: %w", err)
	}
	return nil
}
