package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type LoadConfig struct {
	BaseURL         string
	ConcurrentUsers int
	DurationSeconds int
	ProductCount    int
}

type Result struct {
	TotalRequests      int64
	SuccessfulRequests int64
	FailedRequests     int64
	ResponseTimes      []time.Duration
	mutex              sync.Mutex
}

type sessionResponse struct {
	Data struct {
		SessionID string `json:"session_id"`
	} `json:"data"`
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8080", "Cart service base URL")
	users := flag.Int("users", 50, "Concurrent simulated shoppers")
	duration := flag.Int("duration", 60, "Test duration in seconds")
	products := flag.Int("products", 200, "Distinct product IDs to shop from")
	flag.Parse()

	cfg := &LoadConfig{
		BaseURL:         *baseURL,
		ConcurrentUsers: *users,
		DurationSeconds: *duration,
		ProductCount:    *products,
	}

	result := &Result{}
	client := &http.Client{Timeout: 10 * time.Second}
	deadline := time.Now().Add(time.Duration(cfg.DurationSeconds) * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < cfg.ConcurrentUsers; i++ {
		wg.Add(1)
		go func(shopper int) {
			defer wg.Done()
			runShopper(client, cfg, result, deadline, shopper)
		}(i)
	}
	wg.Wait()

	report(result, cfg)
}

func runShopper(client *http.Client, cfg *LoadConfig, result *Result, deadline time.Time, shopper int) {
	sessionID, err := createSession(client, cfg, result)
	if err != nil {
		fmt.Printf("shopper %d: no session: %v\n", shopper, err)
		return
	}

	for time.Now().Before(deadline) {
		productID := fmt.Sprintf("book-%04d", rand.Intn(cfg.ProductCount))
		switch rand.Intn(10) {
		case 0, 1, 2, 3:
			body, _ := json.Marshal(map[string]interface{}{
				"product_id": productID,
				"size":       "",
				"quantity":   1 + rand.Intn(3),
			})
			timed(client, result, sessionID, http.MethodPost, cfg.BaseURL+"/cart/items", body)
		case 4, 5:
			timed(client, result, sessionID, http.MethodPost,
				cfg.BaseURL+"/cart/items/increment?product_id="+productID, nil)
		case 6:
			timed(client, result, sessionID, http.MethodPost,
				cfg.BaseURL+"/cart/items/remove?product_id="+productID, nil)
		default:
			timed(client, result, sessionID, http.MethodGet, cfg.BaseURL+"/cart", nil)
		}

		time.Sleep(time.Duration(50+rand.Intn(200)) * time.Millisecond)
	}
}

func createSession(client *http.Client, cfg *LoadConfig, result *Result) (string, error) {
	resp, err := client.Post(cfg.BaseURL+"/session", "application/json", nil)
	if err != nil {
		atomic.AddInt64(&result.FailedRequests, 1)
		return "", err
	}
	defer resp.Body.Close()

	var parsed sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	atomic.AddInt64(&result.SuccessfulRequests, 1)
	atomic.AddInt64(&result.TotalRequests, 1)
	return parsed.Data.SessionID, nil
}

func timed(client *http.Client, result *Result, sessionID, method, url string, body []byte) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return
	}
	req.Header.Set("X-Session-ID", sessionID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	elapsed := time.Since(start)

	atomic.AddInt64(&result.TotalRequests, 1)
	if err != nil || resp.StatusCode >= 500 {
		atomic.AddInt64(&result.FailedRequests, 1)
	} else {
		atomic.AddInt64(&result.SuccessfulRequests, 1)
	}
	if resp != nil {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	result.mutex.Lock()
	result.ResponseTimes = append(result.ResponseTimes, elapsed)
	result.mutex.Unlock()
}

func report(result *Result, cfg *LoadConfig) {
	result.mutex.Lock()
	times := result.ResponseTimes
	result.mutex.Unlock()

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	percentile := func(p float64) time.Duration {
		if len(times) == 0 {
			return 0
		}
		idx := int(float64(len(times)) * p)
		if idx >= len(times) {
			idx = len(times) - 1
		}
		return times[idx]
	}

	fmt.Println("=== Cart Service Load Test ===")
	fmt.Printf("Concurrent shoppers: %d, duration: %ds\n", cfg.ConcurrentUsers, cfg.DurationSeconds)
	fmt.Printf("Total requests:      %d\n", result.TotalRequests)
	fmt.Printf("Successful:          %d\n", result.SuccessfulRequests)
	fmt.Printf("Failed:              %d\n", result.FailedRequests)
	fmt.Printf("P50 response time:   %s\n", percentile(0.50))
	fmt.Printf("P95 response time:   %s\n", percentile(0.95))
	fmt.Printf("P99 response time:   %s\n", percentile(0.99))
}
