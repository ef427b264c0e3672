package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label)
	s, _ := r.ReadString('\n')
	return strings.TrimSpace(s)
}

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	reader := bufio.NewReader(os.Stdin)
	pageID, err := strconv.ParseInt(prompt(reader, "Status page ID: "), 10, 64)
	if err != nil || pageID <= 0 {
		fmt.Println("Invalid page ID.")
		return
	}
	name := prompt(reader, "Endpoint name: ")
	if name == "" {
		fmt.Println("Name is required.")
		return
	}
	raw := prompt(reader, "URL to monitor (e.g., https://example.com): ")
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		fmt.Println("Invalid URL.")
		return
	}
	method := strings.ToUpper(prompt(reader, "HTTP method [GET]: "))
	if method == "" {
		method = http.MethodGet
	}

	body, _ := json.Marshal(map[string]any{
		"page_id": pageID,
		"name":    name,
		"url":     raw,
		"method":  method,
	})
	req, _ := http.NewRequest(http.MethodPost, api+"/api/endpoints", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key := os.Getenv("ADMIN_API_KEY"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var ep struct {
			ID int64 `json:"id"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&ep)
		fmt.Printf("Added endpoint %d. History: GET %s/api/endpoints/%d/history\n", ep.ID, api, ep.ID)
	} else {
		fmt.Println("API returned status:", resp.Status)
	}
}
