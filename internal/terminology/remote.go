package terminology

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// RemoteResolver resolves codes against an external terminology service
// over HTTP. It is the production replacement for the baseline echo
// resolver; the core mapper stays I/O free and only calls out through
// this extension point.
type RemoteResolver struct {
	baseURL      string
	targetSystem string
	httpClient   *http.Client
	log          *zap.Logger
}

// RemoteConfig holds remote resolver configuration
type RemoteConfig struct {
	BaseURL      string
	TargetSystem string
	Timeout      time.Duration
}

// NewRemoteResolver creates a resolver backed by a terminology service
func NewRemoteResolver(cfg *RemoteConfig, log *zap.Logger) *RemoteResolver {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &RemoteResolver{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		targetSystem: cfg.TargetSystem,
		httpClient:   &http.Client{Timeout: timeout},
		log:          log,
	}
}

type translateRequest struct {
	Code         string `json:"code"`
	SourceSystem string `json:"source_system"`
	TargetSystem string `json:"target_system"`
}

// Resolve asks the remote service for a translation. Failures are
// returned to the mapper, which degrades them to a warning and an
// absent translation rather than failing the record.
func (r *RemoteResolver) Resolve(code, sourceSystem string) (*Translation, error) {
	body, err := json.Marshal(translateRequest{
		Code:         code,
		SourceSystem: sourceSystem,
		TargetSystem: r.targetSystem,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal translate request: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		// The service knows the system but not the code
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("terminology service returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result Translation
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode translation: %w", err)
	}
	if result.System == "" {
		result.System = r.targetSystem
	}

	r.log.Debug("remote translation",
		zap.String("code", code),
		zap.String("source_system", sourceSystem),
		zap.String("target_system", r.targetSystem),
		zap.String("mapped_code", result.Code))

	return &result, nil
}
