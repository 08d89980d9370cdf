package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"stagehub/pkg/models"
)

type apiClient struct {
	base string
	http *http.Client
}

type tokenData struct {
	Token string `json:"token"`
}

type listResponse struct {
	Success   bool                        `json:"success"`
	Data      []models.UnifiedPerformance `json:"data"`
	Count     int                         `json:"count"`
	Timestamp string                      `json:"timestamp"`
	Stats     map[string]int              `json:"stats"`
	CycleID   string                      `json:"cycle_id"`
	Served    string                      `json:"served"`
}

func (a *apiClient) get(ctx context.Context, path string, q url.Values, token string, out any) error {
	return a.do(ctx, http.MethodGet, path, q, token, nil, out)
}

func (a *apiClient) post(ctx context.Context, path string, q url.Values, token string, payload, out any) error {
	return a.do(ctx, http.MethodPost, path, q, token, payload, out)
}

func (a *apiClient) login(ctx context.Context, username, password string) (string, error) {
	var resp tokenData
	payload := map[string]string{"username": username, "password": password}
	if err := a.post(ctx, "/auth/login", nil, "", payload, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (a *apiClient) do(ctx context.Context, method, path string, q url.Values, token string, payload, out any) error {
	endpoint := strings.TrimRight(a.base, "/") + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, path, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printList(w io.Writer, resp listResponse) {
	fmt.Fprintf(w, "%d performances (cycle %s, %s, %s)\n", resp.Count, resp.CycleID, resp.Timestamp, resp.Served)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "D-DAY\tTICKET OPEN\tPART\tREGION\tNAME\tSITES")
	for _, p := range resp.Data {
		dday, ticket := "-", "-"
		if p.DDay != nil {
			dday = fmt.Sprintf("D-%d", *p.DDay)
		}
		if p.TicketOpen != nil {
			ticket = p.TicketOpen.String()
		}
		sites := make([]string, 0, len(p.AvailableSites))
		for _, s := range p.AvailableSites {
			sites = append(sites, s.Name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", dday, ticket, p.Part, p.Region, p.Name, strings.Join(sites, ","))
	}
	_ = tw.Flush()
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("json: %v", err)
	}
	fmt.Println(string(b))
}

func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./.stagehub-token.json"
	}
	return filepath.Join(home, ".stagehub", "token.json")
}

func saveToken(path, token string) error {
	if token == "" {
		return errors.New("empty token")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tokenData{Token: token}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func readToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var td tokenData
	if err := json.Unmarshal(data, &td); err != nil {
		return "", err
	}
	return strings.TrimSpace(td.Token), nil
}

func mustToken(path string) string {
	token, err := readToken(path)
	if err != nil {
		log.Fatalf("token not found, please login: %v", err)
	}
	if token == "" {
		log.Fatal("token empty, please login")
	}
	return token
}

func clearToken(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
