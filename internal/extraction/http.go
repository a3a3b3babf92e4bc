package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extract/internal/common"
)

// SendJSON posts body as JSON to url and returns the raw response body and status.
// Failures before a complete response are *TransportError; non-2xx statuses are *ServerError.
func SendJSON(ctx context.Context, client *http.Client, url string, body any, headers map[string]string, logger *slog.Logger) ([]byte, int, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}

	reqID := uuid.New().String()
	subID := common.SubmissionIDFromContext(ctx)
	fileName := common.FileNameFromContext(ctx)
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		logger.Error("extraction.http.encode_error", "req_id", reqID, "submission_id", subID, "error", err)
		return nil, 0, &TransportError{Err: fmt.Errorf("encode json: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		logger.Error("extraction.http.build_request_error", "req_id", reqID, "submission_id", subID, "error", err)
		return nil, 0, &TransportError{Err: fmt.Errorf("build request: %w", err)}
	}

	// Default headers; allow caller overrides.
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	logger.Info("extraction.http.request",
		"req_id", reqID,
		"submission_id", subID,
		"file", fileName,
		"url", url,
		"content_length", len(bs),
	)

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("extraction.http.send_error", "req_id", reqID, "submission_id", subID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, 0, &TransportError{Err: err}
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			logger.Warn("extraction.http.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("extraction.http.read_error", "req_id", reqID, "submission_id", subID, "status", resp.StatusCode, "error", err)
		return nil, resp.StatusCode, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	logger.Info("extraction.http.response",
		"req_id", reqID,
		"submission_id", subID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return raw, resp.StatusCode, &ServerError{
			StatusCode: resp.StatusCode,
			Message:    serverMessage(raw),
			Body:       raw,
		}
	}
	return raw, resp.StatusCode, nil
}
