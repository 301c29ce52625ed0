package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"
)

type knapsackItem struct {
	ID     int `json:"id"`
	Weight int `json:"weight"`
	Value  int `json:"value"`
}

type knapsackPayload struct {
	Capacity int            `json:"capacity"`
	Items    []knapsackItem `json:"items"`
}

type sample struct {
	latency time.Duration
	status  int
	err     error
}

type report struct {
	samples []sample
	elapsed time.Duration
	ok      int
	non2xx  int
	errs    int
	sorted  []time.Duration
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "server base URL")
	variant := flag.String("variant", "dp", "knapsack variant")
	rps := flag.Int("rps", 50, "target requests per second")
	duration := flag.Duration("duration", 60*time.Second, "test duration")
	workers := flag.Int("workers", 50, "number of concurrent workers")
	timeout := flag.Duration("timeout", 5*time.Second, "HTTP client timeout")
	distinct := flag.Int("distinct", 1, "number of distinct capacities to rotate through; 1 measures the cached path")
	maxP90 := flag.Duration("max-p90", 30*time.Millisecond, "P90 latency budget")
	flag.Parse()

	if *rps <= 0 || *duration <= 0 || *workers <= 0 || *distinct <= 0 {
		fmt.Fprintln(os.Stderr, "rps, duration, workers and distinct must be > 0")
		os.Exit(2)
	}

	bodies, err := knapsackBodies(*distinct)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build payloads: %v\n", err)
		os.Exit(1)
	}
	url := *baseURL + "/solve/knapsack/" + *variant

	rep := run(url, bodies, *rps, *duration, *workers, &http.Client{Timeout: *timeout})
	if len(rep.samples) == 0 {
		fmt.Fprintln(os.Stderr, "no requests executed")
		os.Exit(1)
	}
	rep.print(os.Stdout, *rps)

	p90 := rep.percentile(90)
	if rep.achievedRPS() >= float64(*rps)*0.98 && p90 < *maxP90 && rep.errs == 0 && rep.non2xx == 0 {
		fmt.Printf("PASS: meets %d RPS and P90 < %s\n", *rps, *maxP90)
		return
	}
	fmt.Println("FAIL: does not meet target (or has request errors)")
	os.Exit(1)
}

// knapsackBodies returns n textbook payloads that differ only in capacity,
// so each one is a separate trace cache entry.
func knapsackBodies(n int) ([][]byte, error) {
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		b, err := json.Marshal(knapsackPayload{
			Capacity: 50 + i,
			Items: []knapsackItem{
				{ID: 1, Weight: 10, Value: 60},
				{ID: 2, Weight: 20, Value: 100},
				{ID: 3, Weight: 30, Value: 120},
			},
		})
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// run paces requests with a ticker and lets a fixed worker pool send them.
func run(url string, bodies [][]byte, rps int, duration time.Duration, workers int, client *http.Client) *report {
	jobs := make(chan []byte, workers)
	results := make(chan sample, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for body := range jobs {
				results <- post(client, url, body)
			}
		}()
	}

	rep := &report{}
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for s := range results {
			rep.add(s)
		}
	}()

	started := time.Now()
	ticker := time.NewTicker(time.Second / time.Duration(rps))
	defer ticker.Stop()
	deadline := started.Add(duration)
	for n := 0; ; n++ {
		now := <-ticker.C
		if now.After(deadline) {
			break
		}
		jobs <- bodies[n%len(bodies)]
	}
	close(jobs)
	wg.Wait()
	close(results)
	<-collected

	rep.elapsed = duration
	rep.sorted = make([]time.Duration, len(rep.samples))
	for i, s := range rep.samples {
		rep.sorted[i] = s.latency
	}
	slices.Sort(rep.sorted)
	return rep
}

func post(client *http.Client, url string, body []byte) sample {
	start := time.Now()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return sample{latency: time.Since(start), err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return sample{latency: time.Since(start), err: err}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return sample{latency: time.Since(start), status: resp.StatusCode}
}

func (r *report) add(s sample) {
	r.samples = append(r.samples, s)
	switch {
	case s.err != nil:
		r.errs++
	case s.status >= 200 && s.status < 300:
		r.ok++
	default:
		r.non2xx++
	}
}

func (r *report) achievedRPS() float64 {
	return float64(len(r.samples)) / r.elapsed.Seconds()
}

func (r *report) percentile(p int) time.Duration {
	if len(r.sorted) == 0 {
		return 0
	}
	return r.sorted[(len(r.sorted)-1)*p/100]
}

func (r *report) mean() time.Duration {
	if len(r.sorted) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range r.sorted {
		total += d
	}
	return total / time.Duration(len(r.sorted))
}

func (r *report) print(w io.Writer, target int) {
	fmt.Fprintf(w, "Load test finished\n")
	fmt.Fprintf(w, "- target_rps: %d\n", target)
	fmt.Fprintf(w, "- achieved_rps: %.2f\n", r.achievedRPS())
	fmt.Fprintf(w, "- duration: %s\n", r.elapsed)
	fmt.Fprintf(w, "- requests: %d\n", len(r.samples))
	fmt.Fprintf(w, "- 2xx: %d\n", r.ok)
	fmt.Fprintf(w, "- non_2xx: %d\n", r.non2xx)
	fmt.Fprintf(w, "- errors: %d\n", r.errs)
	fmt.Fprintf(w, "- avg_ms: %.3f\n", ms(r.mean()))
	for _, p := range []int{50, 90, 99} {
		fmt.Fprintf(w, "- p%d_ms: %.3f\n", p, ms(r.percentile(p)))
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
