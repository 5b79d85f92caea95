// Package edcb reads recorded-program listings from an EDCB recorder's HTTP
// bridge.
package edcb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"mytvlog/internal/config"
)

// RecInfo is one recorded program as reported by the recorder.
type RecInfo struct {
	EventID      int64     `json:"eid"`
	ServiceID    int64     `json:"sid"`
	Title        string    `json:"title"`
	StartTimeEPG time.Time `json:"start_time_epg"`
	DurationSec  int64     `json:"duration_sec"`
	RecFilePath  string    `json:"rec_file_path"`
}

// Service lists the recorder's completed recordings.
type Service interface {
	EnumRecInfoBasic(ctx context.Context) ([]RecInfo, error)
}

// HTTPDoer describes the HTTP client used by the recorder service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type httpService struct {
	baseURL string
	client  HTTPDoer
	timeout time.Duration
}

// NewConfiguredService returns a recorder service when the feed is enabled,
// nil otherwise.
func NewConfiguredService(cfg *config.Config) Service {
	if cfg == nil || !cfg.EDCB.Enabled {
		return nil
	}
	url := strings.TrimRight(strings.TrimSpace(cfg.EDCB.URL), "/")
	if url == "" {
		return nil
	}
	return &httpService{
		baseURL: url,
		client:  http.DefaultClient,
		timeout: time.Duration(cfg.EDCB.TimeoutSeconds) * time.Second,
	}
}

// NewHTTPService constructs an HTTP-backed recorder service.
func NewHTTPService(baseURL string, client HTTPDoer) Service {
	return &httpService{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  client,
	}
}

func (s *httpService) EnumRecInfoBasic(ctx context.Context) ([]RecInfo, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/api/EnumRecInfoBasic", nil)
	if err != nil {
		return nil, fmt.Errorf("build recorder request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list recorder recordings: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("recorder returned %d", resp.StatusCode)
	}

	var infos []RecInfo
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		return nil, fmt.Errorf("decode recorder response: %w", err)
	}
	return infos, nil
}
