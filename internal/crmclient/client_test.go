package crmclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/welleazyhts/p360-callcenter/internal/callrecord"
	"github.com/welleazyhts/p360-callcenter/internal/dialer"
	"github.com/welleazyhts/p360-callcenter/internal/directory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(srv.URL, nil, WithRetryMaxElapsed(500*time.Millisecond))
	c.retryInitial = 5 * time.Millisecond
	return c
}

func TestListCallsEncodesQuery(t *testing.T) {
	var gotQuery string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		require.Equal(t, "/calls", r.URL.Path)
		json.NewEncoder(w).Encode(callrecord.Page{
			Records:    []callrecord.CallRecord{{ID: "c-1", CallerNumber: "9876543210"}},
			Pagination: callrecord.Pagination{Page: 2, Limit: 5, Total: 137},
		})
	}))

	page, err := c.ListCalls(context.Background(), callrecord.ListQuery{Page: 2, Limit: 5, Status: "completed"})
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Equal(t, 137, page.Pagination.Total)
	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "limit=5")
	assert.Contains(t, gotQuery, "status=completed")
}

func TestGetRetriesOnServerError(t *testing.T) {
	var hits atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(callrecord.Page{})
	}))

	_, err := c.ListCalls(context.Background(), callrecord.ListQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, hits.Load(), int32(3))
}

func TestGetDoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"error":"bad filter"}`, http.StatusBadRequest)
	}))

	_, err := c.ListCalls(context.Background(), callrecord.ListQuery{Page: 1, Limit: 10})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestWritesGoOutExactlyOnce(t *testing.T) {
	var hits atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.Initiate(context.Background(), dialer.InitiateRequest{To: "9876543210", AgentID: "A-1"})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load(), "initiate must not be retried")
}

func TestInitiateDecodesResult(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/calls/initiate", r.URL.Path)
		var req dialer.InitiateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "9876543210", req.To)
		json.NewEncoder(w).Encode(dialer.InitiateResult{CallID: "call-9", Status: dialer.StatusQueued})
	}))

	res, err := c.Initiate(context.Background(), dialer.InitiateRequest{To: "9876543210", From: "1002"})
	require.NoError(t, err)
	assert.Equal(t, "call-9", res.CallID)
	assert.Equal(t, dialer.StatusQueued, res.Status)
	assert.Equal(t, "crm", res.Provider, "provider defaults when the backend omits it")
}

func TestStatusUnknownIDIsNotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := c.Status(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransferSendsTarget(t *testing.T) {
	var body map[string]string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/calls/call-3/transfer", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	}))

	require.NoError(t, c.Transfer(context.Background(), "call-3", "supervisor-desk"))
	assert.Equal(t, "supervisor-desk", body["target"])
}

func TestCustomerRoundTripUsesWireShape(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/customer_database/create/":
			var rec directory.CustomerRecord
			require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
			assert.Equal(t, "health", rec.ProductType, "UI enum must be translated on the way out")
			rec.ID = "CUST-9"
			json.NewEncoder(w).Encode(rec)
		case r.Method == http.MethodGet && r.URL.Path == "/customer_database/customers_list/":
			json.NewEncoder(w).Encode([]directory.CustomerRecord{
				{ID: "CUST-9", Name: "Asha", ProductType: "motor", Status: "active"},
			})
		default:
			http.NotFound(w, r)
		}
	}))

	created, err := c.CreateCustomer(context.Background(), directory.Customer{
		Name:        "Asha",
		ProductType: "Health Insurance",
	})
	require.NoError(t, err)
	assert.Equal(t, "CUST-9", created.ID)
	assert.Equal(t, "Health Insurance", created.ProductType, "wire enum translated back for the UI")

	listed, err := c.ListCustomers(context.Background())
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Motor Insurance", listed[0].ProductType)
	assert.Equal(t, "Active", listed[0].Status)
}

func TestBulkUploadPostsMultipart(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/customer_database/bulkupload/", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "customers.xlsx", hdr.Filename)
		json.NewEncoder(w).Encode(map[string]int{"imported": 42})
	}))

	n, err := c.BulkUpload(context.Background(), "customers.xlsx", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestRemoteDirectoryMapsCustomers(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]directory.CustomerRecord{
			{ID: "CUST-1", Name: "Rajesh Kumar", Phone: "+91 98765 43210", Status: "active"},
		})
	}))

	people, err := c.Directory().All(context.Background())
	require.NoError(t, err)
	require.Len(t, people, 1)
	assert.Equal(t, directory.KindCustomer, people[0].Kind)
	assert.Equal(t, "Rajesh Kumar", people[0].Name)
}
