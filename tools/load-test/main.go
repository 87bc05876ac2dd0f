package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

type employeeResponse struct {
	ID string `json:"id"`
}

func main() {
	// Configuration
	baseURL := flag.String("url", "http://localhost:8080/api/v1", "API base URL")
	numEmployees := flag.Int("employees", 500, "number of employees to enroll")
	shiftsPerEmployee := flag.Int("shifts", 4, "clocking events submitted per employee")
	concurrency := flag.Int("concurrency", 50, "concurrent requests, kept low to avoid local port exhaustion")
	flag.Parse()

	const contentType = "application/json"
	client := &http.Client{Timeout: 30 * time.Second}
	totalRequests := *numEmployees * *shiftsPerEmployee

	fmt.Printf("Starting load test: %d employees (%d shifts each) to %s with concurrency %d\n", *numEmployees, *shiftsPerEmployee, *baseURL, *concurrency)

	var wg sync.WaitGroup
	sem := make(chan struct{}, *concurrency) // Semaphore to limit concurrency

	var successCount, failCount, anomalyCount int64

	startTime := time.Now()
	day := time.Now().UTC().Truncate(24 * time.Hour)

	for i := 0; i < *numEmployees; i++ {
		wg.Add(1)
		sem <- struct{}{} // Acquire token

		go func(n int) {
			defer wg.Done()
			defer func() { <-sem }() // Release token

			employeeID, err := enroll(client, *baseURL, n)
			if err != nil {
				atomic.AddInt64(&failCount, int64(*shiftsPerEmployee))
				return
			}

			for j := 0; j < *shiftsPerEmployee; j++ {
				// Alternate between normal and short shifts so both classifier paths are hit.
				in := day.AddDate(0, 0, -j).Add(9 * time.Hour)
				out := in.Add(8 * time.Hour)
				if (n+j)%3 == 0 {
					out = in.Add(4 * time.Hour)
				}

				payload, _ := json.Marshal(map[string]string{
					"employeeId":   employeeID,
					"clockInTime":  in.Format(time.RFC3339),
					"clockOutTime": out.Format(time.RFC3339),
				})

				resp, err := client.Post(*baseURL+"/clocking-logs", contentType, bytes.NewReader(payload))
				if err != nil {
					atomic.AddInt64(&failCount, 1)
					continue
				}

				if resp.StatusCode == http.StatusCreated {
					atomic.AddInt64(&successCount, 1)
					var body struct {
						Anomaly *json.RawMessage `json:"anomaly"`
					}
					if json.NewDecoder(resp.Body).Decode(&body) == nil && body.Anomaly != nil {
						atomic.AddInt64(&anomalyCount, 1)
					}
				} else {
					atomic.AddInt64(&failCount, 1)
				}
				resp.Body.Close()
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(startTime)

	fmt.Println("\n--- Load Test Results ---")
	fmt.Printf("Total Duration: %v\n", duration)
	fmt.Printf("Total Requests: %d\n", totalRequests)
	fmt.Printf("Successful:     %d\n", successCount)
	fmt.Printf("Anomalies:      %d\n", anomalyCount)
	fmt.Printf("Failed:         %d\n", failCount)
	fmt.Printf("Requests/Sec:   %.2f\n", float64(totalRequests)/duration.Seconds())
}

// enroll creates an active employee with a synthetic fingerprint.
func enroll(client *http.Client, baseURL string, n int) (string, error) {
	payload, _ := json.Marshal(map[string]string{
		"name":          fmt.Sprintf("Load Test %d", n),
		"fingerprintId": fmt.Sprintf("load-test-fp-%d-%d", n, time.Now().UnixNano()),
	})

	resp, err := client.Post(baseURL+"/employees", "application/json", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var e employeeResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		return "", err
	}
	return e.ID, nil
}
