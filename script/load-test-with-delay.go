package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// UsageReport is the gateway's usage payload
type UsageReport struct {
	UserID           uint64 `json:"userId"`
	ToolSlug         string `json:"toolSlug"`
	ModelID          string `json:"modelId"`
	PromptTokens     int64  `json:"promptTokens"`
	CompletionTokens int64  `json:"completionTokens"`
	GatewayRequestID string `json:"gatewayRequestId"`
}

// UsageResponse carries the fields of interest from both the success and the rejection body
type UsageResponse struct {
	Status string `json:"status"`
	Event  struct {
		Status       string `json:"status"`
		RejectReason string `json:"rejectReason"`
	} `json:"event"`
}

// TestResult contains metrics for a single request
type TestResult struct {
	Success      bool
	Replay       bool
	Outcome      string
	ResponseTime time.Duration
	StatusCode   int
	Error        error
}

// TestStats contains aggregated test statistics
type TestStats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	Replays            int
	TotalTime          time.Duration
	MinResponseTime    time.Duration
	MaxResponseTime    time.Duration
	TotalResponseTime  time.Duration
	ResponseTimes      []time.Duration
	ErrorCounts        map[string]int
	OutcomeStats       map[string]int // funding status or rejection reason
	ScenarioStats      map[string]int
	Lock               sync.Mutex
}

// UsageScenario is one kind of tool call
type UsageScenario struct {
	Name             string
	ToolSlug         string
	ModelID          string
	PromptTokens     int64
	CompletionTokens int64
}

func main() {
	concurrency := flag.Int("c", 5, "Number of concurrent goroutines")
	totalRequests := flag.Int("n", 100, "Total number of requests to make")
	userIDsStr := flag.String("u", "1,2,3", "Comma-separated list of user IDs to distribute load across")
	baseURL := flag.String("url", "http://localhost:8080", "Base URL for the API")
	token := flag.String("token", "dev-service-token", "X-Service-Token value")
	replayPct := flag.Int("replay", 10, "Percentage of requests that resend an earlier gatewayRequestId")
	delayMs := flag.Int("delay", 100, "Delay between requests in milliseconds")
	flag.Parse()

	var userIDs []uint64
	for _, idStr := range strings.Split(*userIDsStr, ",") {
		var id uint64
		if _, err := fmt.Sscanf(strings.TrimSpace(idStr), "%d", &id); err == nil && id > 0 {
			userIDs = append(userIDs, id)
		}
	}
	if len(userIDs) == 0 {
		userIDs = []uint64{1}
	}

	scenarios := []UsageScenario{
		{"Chat Short", "chat", "gpt-4o-mini", 400, 150},
		{"Chat Long", "chat", "gpt-4o", 6_000, 1_200},
		{"Code Review", "code-review", "claude-sonnet-4", 12_000, 2_500},
		{"Summarize", "summarize", "gpt-4o-mini", 20_000, 500},
		{"Unknown Model", "chat", "retired-model", 100, 100},
	}

	fmt.Printf("Load testing usage metering across %d users: %v\n", len(userIDs), userIDs)
	fmt.Printf("Usage scenarios: %d\n", len(scenarios))
	fmt.Printf("Concurrency: %d goroutines\n", *concurrency)
	fmt.Printf("Total requests: %d (%d%% replays)\n", *totalRequests, *replayPct)
	fmt.Printf("Delay between requests: %d ms\n", *delayMs)

	stats := &TestStats{
		TotalRequests:   *totalRequests,
		MinResponseTime: time.Hour,
		ErrorCounts:     make(map[string]int),
		ResponseTimes:   make([]time.Duration, 0, *totalRequests),
		OutcomeStats:    make(map[string]int),
		ScenarioStats:   make(map[string]int),
	}

	results := make(chan TestResult, *totalRequests)
	jobs := make(chan int, *totalRequests)
	sent := &sentReports{}

	var wg sync.WaitGroup
	fmt.Println("Starting worker goroutines...")
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(*baseURL, *token, *delayMs, *replayPct, userIDs, scenarios, sent, jobs, results, stats)
		}()
	}

	go func() {
		for i := 0; i < *totalRequests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for result := range results {
			stats.Lock.Lock()
			if result.Replay {
				stats.Replays++
			}
			if result.Success {
				stats.SuccessfulRequests++
				stats.OutcomeStats[result.Outcome]++
			} else {
				stats.FailedRequests++
				errMsg := "unknown"
				if result.Error != nil {
					errMsg = result.Error.Error()
				}
				stats.ErrorCounts[errMsg]++
			}

			stats.ResponseTimes = append(stats.ResponseTimes, result.ResponseTime)
			stats.TotalResponseTime += result.ResponseTime
			stats.MinResponseTime = min(stats.MinResponseTime, result.ResponseTime)
			stats.MaxResponseTime = max(stats.MaxResponseTime, result.ResponseTime)
			stats.Lock.Unlock()
		}
	}()

	startTime := time.Now()
	fmt.Println("Test running...")

	ticker := time.NewTicker(1 * time.Second)
	go func() {
		for range ticker.C {
			stats.Lock.Lock()
			completed := stats.SuccessfulRequests + stats.FailedRequests
			if completed > 0 {
				fmt.Printf("Progress: %d/%d requests completed (%.1f%%)\n",
					completed, stats.TotalRequests, float64(completed)/float64(stats.TotalRequests)*100)
			}
			stats.Lock.Unlock()
		}
	}()

	wg.Wait()
	close(results)
	<-collected
	ticker.Stop()

	stats.TotalTime = time.Since(startTime)
	printResults(stats)
}

// sentReports remembers delivered reports so some can be resent verbatim
type sentReports struct {
	mu      sync.Mutex
	reports []UsageReport
}

func (s *sentReports) add(r UsageReport) {
	s.mu.Lock()
	s.reports = append(s.reports, r)
	s.mu.Unlock()
}

func (s *sentReports) pick() (UsageReport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.reports) == 0 {
		return UsageReport{}, false
	}
	return s.reports[rand.Intn(len(s.reports))], true
}

func worker(baseURL, token string, delayMs, replayPct int, userIDs []uint64, scenarios []UsageScenario,
	sent *sentReports, jobs <-chan int, results chan<- TestResult, stats *TestStats) {

	client := &http.Client{
		Timeout: 10 * time.Second,
	}
	apiURL := baseURL + "/v1/usage"

	for range jobs {
		if delayMs > 0 {
			time.Sleep(time.Duration(delayMs) * time.Millisecond)
		}

		report, replay := UsageReport{}, false
		if rand.Intn(100) < replayPct {
			report, replay = sent.pick()
		}
		if !replay {
			scenario := scenarios[rand.Intn(len(scenarios))]
			report = UsageReport{
				UserID:           userIDs[rand.Intn(len(userIDs))],
				ToolSlug:         scenario.ToolSlug,
				ModelID:          scenario.ModelID,
				PromptTokens:     scenario.PromptTokens + rand.Int63n(100),
				CompletionTokens: scenario.CompletionTokens + rand.Int63n(100),
				GatewayRequestID: "load-" + uuid.NewString(),
			}
			stats.Lock.Lock()
			stats.ScenarioStats[scenario.Name]++
			stats.Lock.Unlock()
		}

		result := send(client, apiURL, token, report)
		result.Replay = replay
		if result.Success && !replay {
			sent.add(report)
		}
		results <- result
	}
}

func send(client *http.Client, apiURL, token string, report UsageReport) TestResult {
	jsonData, err := json.Marshal(report)
	if err != nil {
		return TestResult{Error: err}
	}

	req, err := http.NewRequest(http.MethodPost, apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return TestResult{Error: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Service-Token", token)
	req.Header.Set("X-Request-ID", report.GatewayRequestID)

	startTime := time.Now()
	resp, err := client.Do(req)
	result := TestResult{ResponseTime: time.Since(startTime)}
	if err != nil {
		result.Error = err
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	var body UsageResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch resp.StatusCode {
	case http.StatusOK:
		result.Success = true
		result.Outcome = body.Status
	case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		// Rejections are recorded events, a valid outcome under load
		result.Success = true
		result.Outcome = "rejected:" + body.Event.RejectReason
	default:
		result.Error = fmt.Errorf("HTTP status code %d", resp.StatusCode)
	}
	return result
}

func printResults(stats *TestStats) {
	tps := float64(stats.SuccessfulRequests) / stats.TotalTime.Seconds()

	var avgResponseTime time.Duration
	if len(stats.ResponseTimes) > 0 {
		avgResponseTime = stats.TotalResponseTime / time.Duration(len(stats.ResponseTimes))
	}

	var p50, p90, p95, p99 time.Duration
	if len(stats.ResponseTimes) > 0 {
		sortedTimes := make([]time.Duration, len(stats.ResponseTimes))
		copy(sortedTimes, stats.ResponseTimes)
		sort.Slice(sortedTimes, func(i, j int) bool { return sortedTimes[i] < sortedTimes[j] })

		p50 = sortedTimes[len(sortedTimes)*50/100]
		p90 = sortedTimes[len(sortedTimes)*90/100]
		p95 = sortedTimes[len(sortedTimes)*95/100]
		p99 = sortedTimes[len(sortedTimes)*99/100]
	}

	fmt.Println("\n================= TEST RESULTS =================")
	fmt.Printf("Total Requests:      %d\n", stats.TotalRequests)
	fmt.Printf("Successful Requests: %d (%.1f%%)\n", stats.SuccessfulRequests,
		float64(stats.SuccessfulRequests)/float64(stats.TotalRequests)*100)
	fmt.Printf("Failed Requests:     %d (%.1f%%)\n", stats.FailedRequests,
		float64(stats.FailedRequests)/float64(stats.TotalRequests)*100)
	fmt.Printf("Replayed Reports:    %d\n", stats.Replays)
	fmt.Printf("Total Test Time:     %.2f seconds\n", stats.TotalTime.Seconds())
	fmt.Printf("Throughput:          %.2f reports/s\n", tps)

	fmt.Println("\n----------------- RESPONSE TIMES -----------------")
	fmt.Printf("Average Response:    %v\n", avgResponseTime)
	fmt.Printf("Minimum Response:    %v\n", stats.MinResponseTime)
	fmt.Printf("Maximum Response:    %v\n", stats.MaxResponseTime)
	fmt.Printf("P50 Response:        %v\n", p50)
	fmt.Printf("P90 Response:        %v\n", p90)
	fmt.Printf("P95 Response:        %v\n", p95)
	fmt.Printf("P99 Response:        %v\n", p99)

	fmt.Println("\n----------------- OUTCOMES -----------------")
	for outcome, count := range stats.OutcomeStats {
		fmt.Printf("%-32s: %d\n", outcome, count)
	}

	fmt.Println("\n----------------- SCENARIO DISTRIBUTION -----------------")
	for scenario, count := range stats.ScenarioStats {
		fmt.Printf("%-15s: %d requests\n", scenario, count)
	}

	if stats.FailedRequests > 0 {
		fmt.Println("\n----------------- ERROR DISTRIBUTION -----------------")
		for errMsg, count := range stats.ErrorCounts {
			fmt.Printf("%-40s: %d (%.1f%%)\n", errMsg, count,
				float64(count)/float64(stats.TotalRequests)*100)
		}
	}
	fmt.Println("================================================")
}
