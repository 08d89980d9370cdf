package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"stagehub/internal/auth"
	"stagehub/internal/grpcserver"
)

const defaultBaseURL = "http://localhost:8080"

func main() {
	global := flag.NewFlagSet("stagehub", flag.ExitOnError)
	baseURL := global.String("api", defaultBaseURL, "API base URL")
	tokenPath := global.String("token", defaultTokenPath(), "token file path")
	if err := global.Parse(os.Args[1:]); err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	args := global.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	cmd := args[0]
	sub := ""
	rest := []string{}
	if len(args) > 1 {
		sub = args[1]
		rest = args[2:]
	}

	// A forced full cycle can take as long as the slowest crawler.
	api := &apiClient{base: *baseURL, http: &http.Client{Timeout: 5 * time.Minute}}

	switch cmd {
	case "auth":
		handleAuth(ctx, api, *tokenPath, sub, rest)
	case "shows":
		handleShows(ctx, api, sub, rest)
	case "admin":
		handleAdmin(ctx, api, *tokenPath, sub, rest)
	case "grpc":
		handleGRPC(ctx, sub, rest)
	case "notify":
		handleNotify(*baseURL, sub, rest)
	default:
		printUsage()
		os.Exit(1)
	}
}

func handleAuth(ctx context.Context, api *apiClient, tokenPath, sub string, args []string) {
	switch sub {
	case "login":
		fs := flag.NewFlagSet("auth login", flag.ExitOnError)
		username := fs.String("username", "admin", "admin username")
		password := fs.String("password", "", "password")
		_ = fs.Parse(args)
		if *password == "" {
			log.Fatal("password is required")
		}

		token, err := api.login(ctx, *username, *password)
		if err != nil {
			log.Fatalf("login failed: %v", err)
		}
		if err := saveToken(tokenPath, token); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("logged in")
	case "logout":
		if err := clearToken(tokenPath); err != nil {
			log.Fatalf("logout failed: %v", err)
		}
		fmt.Println("logged out")
	default:
		log.Fatal("usage: stagehub auth <login|logout>")
	}
}

func handleShows(ctx context.Context, api *apiClient, sub string, args []string) {
	switch sub {
	case "list":
		fs := flag.NewFlagSet("shows list", flag.ExitOnError)
		fast := fs.Bool("fast", true, "serve the cached list when fresh")
		part := fs.String("part", "", "concert or theater")
		region := fs.String("region", "", "region name, e.g. 서울")
		asJSON := fs.Bool("json", false, "print raw JSON")
		_ = fs.Parse(args)

		q := url.Values{}
		if *fast {
			q.Set("fast", "true")
		}
		if *part != "" {
			q.Set("part", *part)
		}
		if *region != "" {
			q.Set("region", *region)
		}
		var resp listResponse
		if err := api.get(ctx, "/api/all", q, "", &resp); err != nil {
			log.Fatalf("list failed: %v", err)
		}
		if *asJSON {
			printJSON(resp)
			return
		}
		printList(os.Stdout, resp)
	case "status":
		var resp map[string]any
		if err := api.get(ctx, "/api/cache/status", nil, "", &resp); err != nil {
			log.Fatalf("status failed: %v", err)
		}
		printJSON(resp)
	case "search":
		fs := flag.NewFlagSet("shows search", flag.ExitOnError)
		keyword := fs.String("q", "", "keyword")
		_ = fs.Parse(args)
		if *keyword == "" {
			log.Fatal("keyword is required")
		}
		var resp map[string]any
		if err := api.get(ctx, "/api/search", url.Values{"keyword": {*keyword}}, "", &resp); err != nil {
			log.Fatalf("search failed: %v", err)
		}
		printJSON(resp)
	case "show":
		fs := flag.NewFlagSet("shows show", flag.ExitOnError)
		id := fs.String("id", "", "KOPIS performance id")
		_ = fs.Parse(args)
		if *id == "" {
			log.Fatal("id is required")
		}
		var resp map[string]any
		if err := api.get(ctx, "/api/kopis/performance/"+url.PathEscape(*id), nil, "", &resp); err != nil {
			log.Fatalf("show failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: stagehub shows <list|status|search|show>")
	}
}

func handleAdmin(ctx context.Context, api *apiClient, tokenPath, sub string, args []string) {
	switch sub {
	case "refresh":
		fs := flag.NewFlagSet("admin refresh", flag.ExitOnError)
		mode := fs.String("mode", "full", "full or scheduled")
		_ = fs.Parse(args)

		var resp map[string]any
		if err := api.post(ctx, "/admin/refresh", url.Values{"mode": {*mode}}, mustToken(tokenPath), nil, &resp); err != nil {
			log.Fatalf("refresh failed: %v", err)
		}
		printJSON(resp)
	case "hash-password":
		fs := flag.NewFlagSet("admin hash-password", flag.ExitOnError)
		password := fs.String("password", "", "password to hash")
		_ = fs.Parse(args)

		hash, err := auth.HashPassword(*password)
		if err != nil {
			log.Fatalf("hash failed: %v", err)
		}
		fmt.Println(hash)
	default:
		log.Fatal("usage: stagehub admin <refresh|hash-password>")
	}
}

func handleGRPC(ctx context.Context, sub string, args []string) {
	fs := flag.NewFlagSet("grpc "+sub, flag.ExitOnError)
	addr := fs.String("addr", "127.0.0.1:9090", "gRPC server address")
	fast := fs.Bool("fast", true, "serve the cached list when fresh")
	part := fs.String("part", "", "concert or theater")
	region := fs.String("region", "", "region name")
	_ = fs.Parse(args)

	cc, err := grpc.NewClient(*addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatalf("grpc dial: %v", err)
	}
	defer cc.Close()
	client := grpcserver.NewClient(cc)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	switch sub {
	case "list":
		resp, err := client.ListPerformances(ctx, &grpcserver.ListRequest{Fast: *fast, Part: *part, Region: *region})
		if err != nil {
			log.Fatalf("list failed: %v", err)
		}
		printJSON(resp)
	case "status":
		resp, err := client.GetCacheStatus(ctx)
		if err != nil {
			log.Fatalf("status failed: %v", err)
		}
		printJSON(resp)
	default:
		log.Fatal("usage: stagehub grpc <list|status>")
	}
}

func handleNotify(baseURL, sub string, args []string) {
	switch sub {
	case "subscribe":
		fs := flag.NewFlagSet("notify subscribe", flag.ExitOnError)
		wsURL := fs.String("ws", "", "WebSocket URL (defaults to /ws on API host)")
		_ = fs.Parse(args)

		endpoint := *wsURL
		if endpoint == "" {
			var err error
			endpoint, err = websocketURL(baseURL, "/ws")
			if err != nil {
				log.Fatalf("ws url: %v", err)
			}
		}
		if err := runWebSocket(endpoint); err != nil {
			log.Fatalf("subscribe failed: %v", err)
		}
	default:
		log.Fatal("usage: stagehub notify subscribe")
	}
}

func runWebSocket(wsURL string) error {
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Printf("[notify] connected to %s", wsURL)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		fmt.Println(string(msg))
	}
}

func websocketURL(baseURL, path string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return (&url.URL{
		Scheme: scheme,
		Host:   u.Host,
		Path:   path,
	}).String(), nil
}

func printUsage() {
	fmt.Println("stagehub <command> [subcommand] [flags]")
	fmt.Println("commands:")
	fmt.Println("  auth login|logout")
	fmt.Println("  shows list|status|search|show")
	fmt.Println("  admin refresh|hash-password")
	fmt.Println("  grpc list|status")
	fmt.Println("  notify subscribe")
}
