package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extract/internal/common"
	"github.com/joseph-ayodele/invoice-extract/internal/entity"
)

var payload = entity.UploadPayload{
	FileName:    "invoice.pdf",
	MimeType:    "application/pdf",
	EncodedBody: "MDEyMzQ1Njc4OQ==",
}

func newTestClient(t *testing.T, handler http.HandlerFunc, lenient bool) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL, Timeout: 5 * time.Second, Lenient: lenient}, nil)
	require.NoError(t, err)
	return c
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func TestExtractSendsContract(t *testing.T) {
	var got map[string]string
	var method, path, contentType string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method, path, contentType = r.Method, r.URL.Path, r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		respond(http.StatusOK, `{"customers":[],"invoices":[],"products":[]}`)(w, r)
	}, true)

	out, err := c.Extract(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, "/api/v1/data", path)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, map[string]string{
		"fileName": "invoice.pdf",
		"fileData": "MDEyMzQ1Njc4OQ==",
		"mimeType": "application/pdf",
	}, got)
	assert.Empty(t, out.Customers)
	assert.Empty(t, out.Invoices)
	assert.Empty(t, out.Products)
}

func TestExtractDecodesRecords(t *testing.T) {
	body := `{
		"customers": [{"customerName":"Acme","phoneNumber":"555","totalPurchaseAmount":100}],
		"invoices": [{"serialNumber":"INV-1","customerName":"Acme","productName":"Laptop","quantity":2,"totalAmount":2000,"date":"2024-02-21"}],
		"products": [{"name":"Laptop","quantity":2,"unitPrice":900,"tax":10,"priceWithTax":990,"discount":"NA"}]
	}`
	c := newTestClient(t, respond(http.StatusOK, body), false)

	out, err := c.Extract(context.Background(), payload)
	require.NoError(t, err)

	require.Len(t, out.Customers, 1)
	assert.Equal(t, entity.Customer{CustomerName: "Acme", PhoneNumber: "555", TotalPurchaseAmount: 100}, out.Customers[0])
	require.Len(t, out.Invoices, 1)
	assert.Equal(t, 2000.0, out.Invoices[0].TotalAmount)
	require.Len(t, out.Products, 1)
	assert.False(t, out.Products[0].HasDiscount())
}

func TestExtractLenientCoercion(t *testing.T) {
	body := `{
		"customers": [{"customerName":"John Doe","phoneNumber":1234567890,"totalPurchaseAmount":"$2,000"}],
		"invoices": [{"serialNumber":123456,"quantity":"2","totalAmount":"$2000","date":"2024-02-21"}],
		"products": [{"name":"Laptop","quantity":"NA","unitPrice":"$900","tax":"10%","priceWithTax":"$990.50","discount":"NA"}]
	}`

	t.Run("lenient", func(t *testing.T) {
		c := newTestClient(t, respond(http.StatusOK, body), true)
		out, err := c.Extract(context.Background(), payload)
		require.NoError(t, err)

		assert.Equal(t, "1234567890", out.Customers[0].PhoneNumber)
		assert.Equal(t, 2000.0, out.Customers[0].TotalPurchaseAmount)
		assert.Equal(t, "123456", out.Invoices[0].SerialNumber)
		assert.Equal(t, 2.0, out.Invoices[0].Quantity)
		assert.Equal(t, 0.0, out.Products[0].Quantity, "NA drops to zero")
		assert.Equal(t, 10.0, out.Products[0].Tax)
		assert.Equal(t, 990.5, out.Products[0].PriceWithTax)
	})

	t.Run("strict", func(t *testing.T) {
		c := newTestClient(t, respond(http.StatusOK, body), false)
		_, err := c.Extract(context.Background(), payload)
		require.Error(t, err)
		var mErr *MalformedResponseError
		assert.ErrorAs(t, err, &mErr)
	})
}

func TestExtractMissingCollections(t *testing.T) {
	c := newTestClient(t, respond(http.StatusOK, `{"customers":null}`), true)
	out, err := c.Extract(context.Background(), payload)
	require.NoError(t, err)
	assert.Nil(t, out.Customers)
	assert.Nil(t, out.Invoices)
	assert.Nil(t, out.Products)
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name         string
		handler      http.HandlerFunc
		wantSentinel error
		wantMessage  string
		wantStatus   int
	}{
		{
			name:         "server error with message",
			handler:      respond(http.StatusInternalServerError, `{"message":"bad format"}`),
			wantSentinel: common.ErrServer,
			wantMessage:  "bad format",
			wantStatus:   http.StatusInternalServerError,
		},
		{
			name:         "server error with message and detail",
			handler:      respond(http.StatusInternalServerError, `{"message":"Error processing file","error":"quota exceeded"}`),
			wantSentinel: common.ErrServer,
			wantMessage:  "Error processing file: quota exceeded",
			wantStatus:   http.StatusInternalServerError,
		},
		{
			name:         "bad request plain text",
			handler:      respond(http.StatusBadRequest, "Unsupported file type\n"),
			wantSentinel: common.ErrServer,
			wantMessage:  "Unsupported file type",
			wantStatus:   http.StatusBadRequest,
		},
		{
			name:         "server error without body",
			handler:      respond(http.StatusBadGateway, ""),
			wantSentinel: common.ErrServer,
			wantStatus:   http.StatusBadGateway,
		},
		{
			name:         "invalid json",
			handler:      respond(http.StatusOK, `{"customers":[`),
			wantSentinel: common.ErrMalformedResponse,
		},
		{
			name:         "not an object",
			handler:      respond(http.StatusOK, `["customers"]`),
			wantSentinel: common.ErrMalformedResponse,
		},
		{
			name:         "collection of wrong type",
			handler:      respond(http.StatusOK, `{"customers":"none"}`),
			wantSentinel: common.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler, true)
			_, err := c.Extract(context.Background(), payload)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantSentinel)

			var sErr *ServerError
			if errors.As(err, &sErr) {
				assert.Equal(t, tt.wantStatus, sErr.StatusCode)
				assert.Equal(t, tt.wantMessage, sErr.Message)
			}
		})
	}
}

func TestExtractTransportError(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusOK, `{}`))
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: url, Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = c.Extract(context.Background(), payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransport)
	var tErr *TransportError
	assert.ErrorAs(t, err, &tErr)
}

func TestExtractTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	c, err := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	_, err = c.Extract(context.Background(), payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrTransport)
}

func TestServerMessageKeepsRunesWhole(t *testing.T) {
	msg := serverMessage([]byte(strings.Repeat("é", 250)))
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, 200, utf8.RuneCountInString(msg))
	assert.True(t, strings.HasSuffix(msg, "…"))

	assert.Equal(t, "ééé", truncate("ééé", 3))
	assert.Equal(t, "é", truncate("ééé", 1))
}

func TestSchemaErrorsUseFixedID(t *testing.T) {
	c := newTestClient(t, respond(http.StatusOK, `{"customers":"none"}`), false)
	_, err := c.Extract(context.Background(), payload)
	require.Error(t, err)
	assert.Contains(t, err.Error(), schemaURL)
	assert.NotContains(t, err.Error(), "file://")
}

func TestSendJSONLogsSubmission(t *testing.T) {
	srv := httptest.NewServer(respond(http.StatusOK, `{}`))
	t.Cleanup(srv.Close)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	ctx := common.WithSubmissionID(context.Background(), "sub-1")
	ctx = common.WithFileName(ctx, "march.pdf")

	_, status, err := SendJSON(ctx, nil, srv.URL, map[string]string{"a": "b"}, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, logs.String(), "submission_id=sub-1")
	assert.Contains(t, logs.String(), "file=march.pdf")
}

func TestEndpoint(t *testing.T) {
	c, err := NewClient(Config{BaseURL: "http://localhost:5000/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api/v1/data", c.Endpoint())
}

func TestParseNumeric(t *testing.T) {
	tests := map[string]struct {
		want float64
		ok   bool
	}{
		"2":      {2, true},
		" 7.08 ": {7.08, true},
		"$2,000": {2000, true},
		"10%":    {10, true},
		"-5":     {-5, true},
		"1 200":  {1200, true},
		"NA":     {0, false},
		"n/a":    {0, false},
		"":       {0, false},
		"two":    {0, false},
	}
	for in, tt := range tests {
		t.Run(in, func(t *testing.T) {
			got, ok := parseNumeric(in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
