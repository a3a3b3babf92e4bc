// Package extraction is the HTTP client for the remote document extraction service.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/invoice-extract/internal/entity"
)

// DefaultPath is the extraction endpoint path.
const DefaultPath = "/api/v1/data"

// Config for the extraction client.
type Config struct {
	BaseURL string        // e.g. http://localhost:5000
	Path    string        // default DefaultPath
	Timeout time.Duration // http client timeout
	Lenient bool          // coerce stringly-typed numbers before validation
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	schema     *jsonschema.Schema
	log        *slog.Logger
}

// uploadRequest is the wire body of a submission.
type uploadRequest struct {
	FileName string `json:"fileName"`
	FileData string `json:"fileData"`
	MimeType string `json:"mimeType"`
}

func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	schema, err := compileSchema(BuildExtractionJSONSchema())
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		schema:     schema,
		log:        logger,
	}, nil
}

// Endpoint returns the URL submissions are posted to.
func (c *Client) Endpoint() string {
	return strings.TrimRight(c.cfg.BaseURL, "/") + c.cfg.Path
}

// Extract sends one payload and decodes the extraction result.
func (c *Client) Extract(ctx context.Context, p entity.UploadPayload) (entity.Extraction, error) {
	start := time.Now()
	body := uploadRequest{
		FileName: p.FileName,
		FileData: p.EncodedBody,
		MimeType: p.MimeType,
	}

	raw, status, err := SendJSON(ctx, c.httpClient, c.Endpoint(), body, nil, c.log)
	if err != nil {
		c.log.Error("extraction.extract.failed",
			"file", p.FileName,
			"status", status,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Extraction{}, err
	}

	out, err := c.decode(raw)
	if err != nil {
		c.log.Error("extraction.extract.malformed",
			"file", p.FileName,
			"error", err,
			"raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return entity.Extraction{}, &MalformedResponseError{Body: raw, Err: err}
	}

	c.log.Info("extraction.extract.ok",
		"file", p.FileName,
		"customers", len(out.Customers),
		"invoices", len(out.Invoices),
		"products", len(out.Products),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *Client) decode(raw []byte) (entity.Extraction, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return entity.Extraction{}, fmt.Errorf("decode body: %w", err)
	}

	if err := validateDocument(c.schema, doc); err != nil {
		if !c.cfg.Lenient {
			return entity.Extraction{}, err
		}
		NormalizeDocument(doc, c.log)
		if vErr := validateDocument(c.schema, doc); vErr != nil {
			return entity.Extraction{}, vErr
		}
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return entity.Extraction{}, fmt.Errorf("re-encode body: %w", err)
	}
	var out entity.Extraction
	if err := json.Unmarshal(b, &out); err != nil {
		return entity.Extraction{}, fmt.Errorf("unmarshal extraction: %w", err)
	}
	return out, nil
}
