package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
)

func TestAPIClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/all", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("part") != "concert" {
			http.Error(w, `{"error":"bad part"}`, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"count":1,"cycle_id":"c1","timestamp":"2026-10-17 12:00:00","served":"fresh",
			"data":[{"name":"아이유 콘서트","part":"concert","region":"서울","dday":3,"ticket_open":"2026.10.20 (추정)",
			"available_sites":[{"name":"KOPIS"},{"name":"인터파크"}]}]}`))
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok-1"}`))
	})
	mux.HandleFunc("/admin/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"mode":"` + r.URL.Query().Get("mode") + `"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	api := &apiClient{base: srv.URL + "/", http: srv.Client()}

	var list listResponse
	if err := api.get(ctx, "/api/all", url.Values{"part": {"concert"}}, "", &list); err != nil {
		t.Fatalf("get: %v", err)
	}
	if list.Count != 1 || len(list.Data) != 1 || *list.Data[0].DDay != 3 {
		t.Fatalf("list = %+v", list)
	}
	if to := list.Data[0].TicketOpen; to == nil || !to.Estimated {
		t.Errorf("ticket open = %v", to)
	}

	var out bytes.Buffer
	printList(&out, list)
	if !strings.Contains(out.String(), "D-3") || !strings.Contains(out.String(), "KOPIS,인터파크") {
		t.Errorf("table = %q", out.String())
	}

	if err := api.get(ctx, "/api/all", nil, "", &list); err == nil || !strings.Contains(err.Error(), "bad part") {
		t.Errorf("expected upstream error, got %v", err)
	}

	token, err := api.login(ctx, "admin", "pw")
	if err != nil || token != "tok-1" {
		t.Fatalf("login = %q, %v", token, err)
	}

	var resp map[string]any
	if err := api.post(ctx, "/admin/refresh", url.Values{"mode": {"full"}}, token, nil, &resp); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if resp["mode"] != "full" {
		t.Errorf("resp = %v", resp)
	}
	if err := api.post(ctx, "/admin/refresh", nil, "", nil, nil); err == nil {
		t.Error("refresh without token succeeded")
	}
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	if err := saveToken(path, ""); err == nil {
		t.Error("empty token saved")
	}
	if err := saveToken(path, "abc"); err != nil {
		t.Fatalf("saveToken: %v", err)
	}
	if tok, err := readToken(path); err != nil || tok != "abc" {
		t.Fatalf("readToken = %q, %v", tok, err)
	}
	if err := clearToken(path); err != nil {
		t.Fatalf("clearToken: %v", err)
	}
	if err := clearToken(path); err != nil {
		t.Errorf("second clear: %v", err)
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := []struct{ base, want string }{
		{"http://localhost:8080", "ws://localhost:8080/ws"},
		{"https://stagehub.example", "wss://stagehub.example/ws"},
	}
	for _, tt := range tests {
		got, err := websocketURL(tt.base, "/ws")
		if err != nil || got != tt.want {
			t.Errorf("websocketURL(%q) = %q, %v", tt.base, got, err)
		}
	}
}
