package edcb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"mytvlog/internal/config"
)

func TestEnumRecInfoBasic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/EnumRecInfoBasic" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"eid": 11, "sid": 101, "title": "ニュース",
				"start_time_epg": "2025-05-12T12:00:00+09:00",
				"duration_sec": 1800,
				"rec_file_path": "/recorded/news.ts"
			}
		]`))
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.EDCB.Enabled = true
	cfg.EDCB.URL = server.URL

	svc := NewConfiguredService(&cfg)
	if svc == nil {
		t.Fatal("expected a configured service")
	}

	infos, err := svc.EnumRecInfoBasic(context.Background())
	if err != nil {
		t.Fatalf("EnumRecInfoBasic: %v", err)
	}
	if len(infos) != 1 {
		t.Fatalf("infos = %d, want 1", len(infos))
	}
	if infos[0].EventID != 11 || infos[0].RecFilePath != "/recorded/news.ts" {
		t.Fatalf("unexpected info: %+v", infos[0])
	}
}

func TestEnumRecInfoBasicErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewHTTPService(server.URL, http.DefaultClient)
	if _, err := svc.EnumRecInfoBasic(context.Background()); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestNewConfiguredServiceDisabled(t *testing.T) {
	cfg := config.Default()
	if svc := NewConfiguredService(&cfg); svc != nil {
		t.Fatalf("disabled feed must yield nil service, got %T", svc)
	}
}
