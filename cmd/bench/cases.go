// README: Bench cases for the fare API: liveness, model metadata, predictions, rejections and load.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	statusPass = "PASS"
	statusFail = "FAIL"
	statusSkip = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	redis *redis.Client
}

type Result struct {
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name string
	Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
		defer r.redis.Close()
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))
	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-5s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}
	return results
}

// trip builds a /predict payload; the fields every case shares are fixed.
func trip(hour, day string, km float64, depart, destination string) map[string]any {
	return map[string]any{
		"pluie":           "0",
		"etat_route":      "bon",
		"heure":           hour,
		"jour_semaine":    day,
		"jour_ferie":      "non",
		"bagages":         "non",
		"routes_larges":   "oui",
		"routes_travaux":  "non",
		"accident":        "non",
		"depart_osm":      depart,
		"destination_osm": destination,
		"distance_km":     km,
	}
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	return []TestCase{
		{
			Name: "Env: Redis connect",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name: "API: root banner",
			Run: func(ctx context.Context, r *Runner) Result {
				return expectJSON(ctx, r, http.MethodGet, base+"/", nil, http.StatusOK, func(body map[string]any) string {
					if body["docs"] != "/docs" {
						return "missing docs link"
					}
					return ""
				})
			},
		},
		{
			Name: "API: health",
			Run: func(ctx context.Context, r *Runner) Result {
				return expectJSON(ctx, r, http.MethodGet, base+"/health", nil, http.StatusOK, func(body map[string]any) string {
					if body["status"] != "OK" || body["model"] != "loaded" {
						return fmt.Sprintf("unexpected body %v", body)
					}
					return ""
				})
			},
		},
		{
			Name: "API: model info",
			Run: func(ctx context.Context, r *Runner) Result {
				return expectJSON(ctx, r, http.MethodGet, base+"/model-info", nil, http.StatusOK, func(body map[string]any) string {
					features, _ := body["features"].([]any)
					if body["model_loaded"] != true || len(features) != 12 {
						return fmt.Sprintf("model_loaded=%v features=%d", body["model_loaded"], len(features))
					}
					return ""
				})
			},
		},

		predictCase("Predict: short trip", base, trip("8", "0", 2.5, "Mvan", "Centre-ville"), 500, 50000),
		predictCase("Predict: medium trip", base, trip("14:30", "mercredi", 8.0, "Bastos", "Mokolo"), 500, 50000),
		predictCase("Predict: long trip, evening", base, trip("19", "5", 20.0, "Nsimalen", "Bastos"), 500, 50000),
		{
			Name: "Predict: unknown place advisory",
			Run: func(ctx context.Context, r *Runner) Result {
				return expectJSON(ctx, r, http.MethodPost, base+"/predict", trip("8", "1", 4, "unknown_place", "Bastos"), http.StatusOK, func(body map[string]any) string {
					if msg, _ := body["lieuxConnus"].(string); !strings.Contains(msg, "inconnus") {
						return fmt.Sprintf("lieuxConnus=%q", msg)
					}
					return ""
				})
			},
		},

		statusCase("Reject: negative distance -> 400", base+"/predict", trip("10", "1", -5, "Mvan", "Bastos"), http.StatusBadRequest),
		statusCase("Reject: missing fields -> 400", base+"/predict", map[string]any{"distance_km": 5}, http.StatusBadRequest),
		statusCase("Reject: unparseable hour -> 422", base+"/predict", trip("abc", "1", 5, "Mvan", "Bastos"), http.StatusUnprocessableEntity),

		{
			Name: "Concurrency: identical trips agree",
			Run: func(ctx context.Context, r *Runner) Result {
				return concurrentAgree(ctx, r, base+"/predict", trip("7", "0", 5.2, "Centre-ville", "Bastos"))
			},
		},
		{
			Name: "Perf: predict throughput",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/predict", trip("7", "0", 5.2, "Centre-ville", "Bastos"))
			},
		},
	}
}

func do(ctx context.Context, r *Runner, method, url string, body any) (int, []byte, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = strings.NewReader(string(b))
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	return resp.StatusCode, data, time.Since(start), err
}

// expectJSON checks the status and hands the decoded body to check, which
// returns a failure note or "".
func expectJSON(ctx context.Context, r *Runner, method, url string, body any, want int, check func(map[string]any) string) Result {
	code, data, latency, err := do(ctx, r, method, url, body)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if code != want {
		return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d body=%s", code, data)}
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return Result{Status: statusFail, Latency: latency, Note: "invalid json: " + err.Error()}
	}
	if note := check(decoded); note != "" {
		return Result{Status: statusFail, Latency: latency, Note: note}
	}
	return Result{Status: statusPass, Latency: latency}
}

func predictCase(name, base string, payload map[string]any, minPrice, maxPrice float64) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			var price float64
			res := expectJSON(ctx, r, http.MethodPost, base+"/predict", payload, http.StatusOK, func(body map[string]any) string {
				price, _ = body["prixEstimeFcfa"].(float64)
				if price < minPrice || price > maxPrice {
					return fmt.Sprintf("price %.0f FCFA outside [%.0f, %.0f]", price, minPrice, maxPrice)
				}
				if rng, _ := body["prixEstimeRange"].(string); !strings.HasSuffix(rng, " FCFA") {
					return fmt.Sprintf("malformed range %q", rng)
				}
				return ""
			})
			if res.Status == statusPass {
				res.Note = fmt.Sprintf("price=%.0f FCFA", price)
			}
			return res
		},
	}
}

func statusCase(name, url string, body any, want int) TestCase {
	return TestCase{
		Name: name,
		Run: func(ctx context.Context, r *Runner) Result {
			code, _, latency, err := do(ctx, r, http.MethodPost, url, body)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			if code != want {
				return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d", code)}
			}
			return Result{Status: statusPass, Latency: latency, Note: fmt.Sprintf("status=%d", code)}
		},
	}
}

// concurrentAgree fires the same trip in parallel; the model is
// deterministic so every answer must match.
func concurrentAgree(ctx context.Context, r *Runner, url string, payload any) Result {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		prices = map[string]int{}
		errs   int
	)
	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, data, _, err := do(ctx, r, http.MethodPost, url, payload)
			mu.Lock()
			defer mu.Unlock()
			if err != nil || code != http.StatusOK {
				errs++
				return
			}
			var body struct {
				Range string `json:"prixEstimeRange"`
			}
			_ = json.Unmarshal(data, &body)
			prices[body.Range]++
		}()
	}
	wg.Wait()

	if errs > 0 {
		return Result{Status: statusFail, Note: fmt.Sprintf("errors=%d", errs)}
	}
	if len(prices) != 1 {
		return Result{Status: statusFail, Note: fmt.Sprintf("divergent answers %v", prices)}
	}
	return Result{Status: statusPass, Note: fmt.Sprintf("requests=%d", r.cfg.Concurrency)}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var (
		count, errCount, limited int64
		mu                       sync.Mutex
		wg                       sync.WaitGroup
	)

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				mu.Lock()
				switch {
				case err != nil:
					errCount++
				case resp.StatusCode == http.StatusTooManyRequests:
					limited++
				case resp.StatusCode != http.StatusOK:
					errCount++
				default:
					count++
				}
				mu.Unlock()
				if err == nil {
					_, _ = io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: fmt.Sprintf("no request succeeded (errors=%d limited=%d)", errCount, limited)}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d limited=%d", rps, errCount, limited)}
}
