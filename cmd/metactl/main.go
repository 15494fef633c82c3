// metactl is a CLI tool for operating the metadata proxy.
// Each command performs a single operation, making it composable for scripts.
//
// Commands:
//
//	metactl fields   -proxy URL -token TOK
//	metactl get      -proxy URL -token TOK
//	metactl set      -proxy URL -token TOK -secret SEC -file settings.json
//	metactl clear    -proxy URL -token TOK -secret SEC
//	metactl preview  -proxy URL -token TOK -order ID
//	metactl sync     -proxy URL -token TOK -secret SEC -order ID -intent pi_xxx
//
// Examples:
//
//	metactl fields -proxy http://localhost:8080 -token $TOK | jq .cart_fields
//	metactl set -proxy http://localhost:8080 -token $TOK -secret $SEC -file settings.json
//	metactl preview -proxy http://localhost:8080 -token $TOK -order 1042
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"stripemeta-proxy/internal/auth"
)

var client = &http.Client{Timeout: 30 * time.Second}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "fields":
		runFields(args)
	case "get":
		runGet(args)
	case "set":
		runSet(args)
	case "clear":
		runClear(args)
	case "preview":
		runPreview(args)
	case "sync":
		runSync(args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `metactl - metadata proxy operations tool

Usage:
  metactl <command> [options]

Commands:
  fields    List selectable metadata fields per category
  get       Get the current metadata configuration
  set       Replace the configuration from a JSON file
  clear     Clear the stored configuration
  preview   Assemble the metadata an order would produce
  sync      Push an order's metadata to a payment intent

Examples:
  metactl fields -proxy http://localhost:8080 -token $TOK
  metactl set -proxy http://localhost:8080 -token $TOK -secret $SEC -file settings.json
  metactl preview -proxy http://localhost:8080 -token $TOK -order 1042
  metactl sync -proxy http://localhost:8080 -token $TOK -secret $SEC -order 1042 -intent pi_123
`)
}

// commonFlags holds flags every command takes.
type commonFlags struct {
	proxy  string
	token  string
	secret string
}

func registerCommon(fs *flag.FlagSet) *commonFlags {
	c := &commonFlags{}
	fs.StringVar(&c.proxy, "proxy", "http://localhost:8080", "proxy base URL")
	fs.StringVar(&c.token, "token", os.Getenv("METACTL_TOKEN"), "admin bearer token")
	fs.StringVar(&c.secret, "secret", os.Getenv("METACTL_SECRET"), "nonce signing secret (mutations only)")
	return c
}

func runFields(args []string) {
	fs := flag.NewFlagSet("fields", flag.ExitOnError)
	c := registerCommon(fs)
	fs.Parse(args)

	request(c, http.MethodGet, "/fields", nil)
}

func runGet(args []string) {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	c := registerCommon(fs)
	fs.Parse(args)

	request(c, http.MethodGet, "/settings", nil)
}

func runSet(args []string) {
	fs := flag.NewFlagSet("set", flag.ExitOnError)
	c := registerCommon(fs)
	file := fs.String("file", "", "path to settings JSON")
	fs.Parse(args)

	if *file == "" {
		fatal("set requires -file")
	}
	body, err := os.ReadFile(*file)
	if err != nil {
		fatal("reading %s: %v", *file, err)
	}
	// Fail locally on malformed JSON before bothering the proxy.
	if !json.Valid(body) {
		fatal("%s is not valid JSON", *file)
	}

	request(c, http.MethodPut, "/settings", body)
}

func runClear(args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	c := registerCommon(fs)
	fs.Parse(args)

	request(c, http.MethodDelete, "/settings", nil)
}

func runPreview(args []string) {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	c := registerCommon(fs)
	order := fs.Int("order", 0, "order ID")
	fs.Parse(args)

	if *order <= 0 {
		fatal("preview requires -order")
	}
	request(c, http.MethodPost, fmt.Sprintf("/orders/%d/intent-metadata", *order), []byte(`{}`))
}

func runSync(args []string) {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)
	c := registerCommon(fs)
	order := fs.Int("order", 0, "order ID")
	intent := fs.String("intent", "", "payment intent ID")
	fs.Parse(args)

	if *order <= 0 || *intent == "" {
		fatal("sync requires -order and -intent")
	}
	body, _ := json.Marshal(map[string]int{"order_id": *order})
	request(c, http.MethodPost, "/payment-intents/"+*intent+"/sync", body)
}

// request performs an authenticated call and pretty-prints the JSON
// response. Mutations get a signed nonce when -secret is set.
func request(c *commonFlags, method, path string, body []byte) {
	req, err := http.NewRequest(method, c.proxy+path, bytes.NewReader(body))
	if err != nil {
		fatal("building request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if method != http.MethodGet && c.secret != "" {
		verifier := auth.NewVerifier(c.token, []byte(c.secret), 0)
		req.Header.Set(auth.NonceHeader, verifier.Nonce(method, path))
	}

	resp, err := client.Do(req)
	if err != nil {
		fatal("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		fatal("reading response: %v", err)
	}

	if len(respBody) > 0 {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, respBody, "", "  "); err == nil {
			respBody = pretty.Bytes()
		}
		fmt.Println(string(respBody))
	}

	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
