package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatrelay/domain"
	"chatrelay/utils/log"
)

const (
	headerSignature = "X-Signature"
	headerTimestamp = "X-Timestamp"
	headerJobID     = "X-Job-Id"
)

// Client dispatches finalized job requests to the external worker. One
// POST per request, no retries: the synchronous response only means the
// job was accepted, the real result arrives later through the callback
// endpoint.
type Client struct {
	url     string
	signer  domain.Signer
	httpc   *http.Client
	nowFunc func() time.Time
}

type ackBody struct {
	Message string `json:"message"`
}

func NewClient(url string, signer domain.Signer, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		url:     url,
		signer:  signer,
		httpc:   &http.Client{Timeout: timeout},
		nowFunc: time.Now,
	}
}

// Dispatch serializes req, signs the payload bound to a fresh timestamp,
// and performs the single delivery attempt. The signature and timestamp
// travel as headers, outside the signed bytes themselves.
func (c *Client) Dispatch(ctx context.Context, req domain.JobRequest) domain.DispatchOutcome {
	payload, err := json.Marshal(req)
	if err != nil {
		return domain.DispatchOutcome{
			Status: domain.DispatchTransportFailure,
			Cause:  fmt.Errorf("marshaling job request: %w", err),
		}
	}

	timestamp := strconv.FormatInt(c.nowFunc().Unix(), 10)
	signature := c.signer.Sign(timestamp, payload)
	jobID := uuid.NewString()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return domain.DispatchOutcome{
			Status: domain.DispatchTransportFailure,
			Cause:  fmt.Errorf("building request: %w", err),
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(headerSignature, signature)
	httpReq.Header.Set(headerTimestamp, timestamp)
	httpReq.Header.Set(headerJobID, jobID)

	log.WithCtx(ctx).Info("dispatching job",
		zap.String("chat_id", req.ChatID),
		zap.String("style", req.Style),
		zap.String("job_id", jobID))

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return domain.DispatchOutcome{
			Status: domain.DispatchTransportFailure,
			Cause:  fmt.Errorf("posting job to worker: %w", err),
		}
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := fmt.Sprintf("worker responded %d", resp.StatusCode)
		if len(body) > 0 {
			reason = fmt.Sprintf("worker responded %d: %s", resp.StatusCode, body)
		}
		return domain.DispatchOutcome{Status: domain.DispatchRejected, Reason: reason}
	}

	var ack ackBody
	if err := json.Unmarshal(body, &ack); err != nil {
		// A 2xx with an unparseable body is still an acceptance.
		log.WithCtx(ctx).Debug("unparseable worker ack", zap.String("job_id", jobID), zap.Error(err))
	}
	return domain.DispatchOutcome{Status: domain.DispatchAccepted, Ack: ack.Message}
}
