// README: Bench cases for the skybook API; includes HTTP, DB, Redis, concurrency and performance checks.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	statusPass    = "PASS"
	statusFail    = "FAIL"
	statusPending = "PENDING"
	statusSkip    = "SKIP"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client

	// reference of the booking walked through the lifecycle cases.
	reference string
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		res.Name = tc.Name
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	flightURL := base + "/api/flights/" + r.cfg.FlightID
	search := map[string]any{
		"departureAirportCode": r.cfg.Origin,
		"arrivalAirportCode":   r.cfg.Destination,
		"departureDate":        r.cfg.DepartureDate,
		"passengers":           1,
	}

	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "DB reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "Redis reachable",
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
			Name:  "Migration: apply (optional)",
			Focus: "apply migration SQL",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: statusSkip, Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: statusFail, Note: "db not configured"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				for _, s := range splitSQL(string(sql)) {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
				}
				return Result{Status: statusPass}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "every CREATE TABLE in the migration exists",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: statusFail, Note: err.Error()}
					}
					if !exists {
						return Result{Status: statusFail, Note: "missing table: " + t}
					}
				}
				return Result{Status: statusPass, Note: fmt.Sprintf("tables=%d", len(tables))}
			},
		},

		httpCaseMethod("API: health", http.MethodGet, base+"/health", nil, []int{200}, []int{503}),
		httpCaseMethod("API: airports", http.MethodGet, base+"/api/airports", nil, []int{200}, nil),

		// Search
		httpCase("Search: route and date", base+"/api/flights/search", search, []int{200}, nil),
		httpCase("Search: missing route -> 400", base+"/api/flights/search", map[string]any{
			"departureDate": r.cfg.DepartureDate,
		}, []int{400}, nil),
		httpCase("Search: bad date -> 400", base+"/api/flights/search", map[string]any{
			"departureAirportCode": r.cfg.Origin,
			"arrivalAirportCode":   r.cfg.Destination,
			"departureDate":        "20-11-2026",
		}, []int{400}, nil),
		{
			Name:  "Search: route cache hit on repeat",
			Focus: "second identical search served from Redis",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: statusSkip, Note: "redis not configured"}
				}
				var first, second struct {
					Metadata struct {
						CacheHit bool `json:"cacheHit"`
					} `json:"metadata"`
				}
				if _, _, err := r.doJSON(ctx, http.MethodPost, base+"/api/flights/search", search, &first); err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				code, latency, err := r.doJSON(ctx, http.MethodPost, base+"/api/flights/search", search, &second)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if code != http.StatusOK || !second.Metadata.CacheHit {
					return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d cacheHit=%t", code, second.Metadata.CacheHit)}
				}
				return Result{Status: statusPass, Latency: latency}
			},
		},

		// Flight detail and pricing
		httpCaseMethod("Flight: detail", http.MethodGet, flightURL, nil, []int{200}, nil),
		httpCaseMethod("Flight: unknown id -> 404", http.MethodGet, base+"/api/flights/no-such-flight", nil, []int{404}, nil),
		httpCaseMethod("Pricing: economy quote", http.MethodGet, flightURL+"/quote", nil, []int{200}, []int{422}),
		httpCaseMethod("Pricing: business quote", http.MethodGet, flightURL+"/quote?seatClass=BUSINESS", nil, []int{200}, []int{422}),
		httpCaseMethod("Pricing: unknown class -> 400", http.MethodGet, flightURL+"/quote?seatClass=PREMIUM", nil, []int{400}, nil),
		httpCaseMethod("Flight: seat map", http.MethodGet, flightURL+"/seats", nil, []int{200}, nil),

		// Booking lifecycle
		{
			Name:  "Booking: create (valid)",
			Focus: "201 with a six character reference",
			Run: func(ctx context.Context, r *Runner) Result {
				ref, latency, code, err := r.createBooking(ctx)
				if err != nil {
					return Result{Status: statusFail, Latency: latency, Note: err.Error()}
				}
				if code != http.StatusCreated {
					return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d", code)}
				}
				r.reference = ref
				return Result{Status: statusPass, Latency: latency, Note: "reference=" + ref}
			},
		},
		httpCase("Booking: invalid passenger -> 400", base+"/api/bookings", map[string]any{
			"flightId":  r.cfg.FlightID,
			"seatClass": "ECONOMY",
			"passengerDetails": map[string]any{
				"firstName":      "A",
				"lastName":       "",
				"email":          "not-an-email",
				"phoneNumber":    "123",
				"passportNumber": "X",
				"dateOfBirth":    "2020-01-01",
			},
		}, []int{400}, nil),
		refCase("Booking: get", http.MethodGet, "", []int{200}),
		refCase("Booking: confirm", http.MethodPut, "/confirm", []int{200}),
		refCase("Booking: confirm twice -> 409", http.MethodPut, "/confirm", []int{409}),
		refCase("Booking: cancel", http.MethodDelete, "?reason=bench", []int{204}),
		refCase("Booking: cancel twice -> 409", http.MethodDelete, "", []int{409}),
		{
			Name:  "Booking: status history",
			Focus: "NONE->PENDING->CONFIRMED->CANCELLED recorded",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.reference == "" {
					return Result{Status: statusSkip, Note: "no booking created"}
				}
				var body struct {
					Events []struct {
						From string `json:"from"`
						To   string `json:"to"`
					} `json:"events"`
				}
				code, latency, err := r.doJSON(ctx, http.MethodGet, base+"/api/bookings/"+r.reference+"/events", nil, &body)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if code != http.StatusOK || len(body.Events) != 3 {
					return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("status=%d events=%d", code, len(body.Events))}
				}
				if last := body.Events[2]; last.From != "CONFIRMED" || last.To != "CANCELLED" {
					return Result{Status: statusFail, Latency: latency, Note: fmt.Sprintf("last event %s->%s", last.From, last.To)}
				}
				return Result{Status: statusPass, Latency: latency}
			},
		},
		httpCaseMethod("Booking: unknown reference -> 404", http.MethodGet, base+"/api/bookings/ZZZZZZ", nil, []int{404}, nil),
		httpCaseMethod("Booking: malformed reference -> 400", http.MethodGet, base+"/api/bookings/abc", nil, []int{400}, nil),

		// Data consistency
		{
			Name:  "Consistency: status_version matches events",
			Focus: "one event per transition plus the creation event",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: statusSkip, Note: "db not configured"}
				}
				if r.reference == "" {
					return Result{Status: statusSkip, Note: "no booking created"}
				}
				var version, events int
				err := r.db.QueryRow(ctx, `
SELECT b.status_version, COUNT(e.id)
FROM bookings b
LEFT JOIN booking_events e ON e.booking_id = b.id
WHERE b.reference = $1
GROUP BY b.status_version`, r.reference).Scan(&version, &events)
				if err != nil {
					return Result{Status: statusFail, Note: err.Error()}
				}
				if events != version+1 {
					return Result{Status: statusFail, Note: fmt.Sprintf("status_version=%d events=%d", version, events)}
				}
				return Result{Status: statusPass, Note: fmt.Sprintf("status_version=%d", version)}
			},
		},

		// Concurrency
		{
			Name:  "Concurrency: confirm same booking",
			Focus: "exactly one confirm wins, the rest get 409",
			Run: func(ctx context.Context, r *Runner) Result {
				return concurrentConfirm(ctx, r)
			},
		},

		// Performance
		{
			Name:  "Perf: quote throughput",
			Focus: "GET quote under load",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodGet, flightURL+"/quote", nil)
			},
		},
		{
			Name:  "Perf: search throughput",
			Focus: "POST search under load",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, http.MethodPost, base+"/api/flights/search", search)
			},
		},
	}
}

func httpCase(name, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return httpCaseMethod(name, http.MethodPost, url, body, okStatuses, pendingStatuses)
}

func httpCaseMethod(name, method, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			code, latency, err := r.doJSON(ctx, method, url, body, nil)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return statusResult(code, latency, okStatuses, pendingStatuses)
		},
	}
}

// refCase targets the booking created by the lifecycle cases.
func refCase(name, method, suffix string, okStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "Booking lifecycle",
		Run: func(ctx context.Context, r *Runner) Result {
			if r.reference == "" {
				return Result{Status: statusSkip, Note: "no booking created"}
			}
			code, latency, err := r.doJSON(ctx, method, r.cfg.BaseURL+"/api/bookings/"+r.reference+suffix, nil, nil)
			if err != nil {
				return Result{Status: statusFail, Note: err.Error()}
			}
			return statusResult(code, latency, okStatuses, nil)
		},
	}
}

func statusResult(code int, latency time.Duration, okStatuses, pendingStatuses []int) Result {
	note := fmt.Sprintf("status=%d", code)
	if contains(okStatuses, code) {
		return Result{Status: statusPass, Latency: latency, Note: note}
	}
	if contains(pendingStatuses, code) {
		return Result{Status: statusPending, Latency: latency, Note: note}
	}
	return Result{Status: statusFail, Latency: latency, Note: note}
}

// doJSON sends body as JSON and decodes the response into out when out is non-nil.
func (r *Runner) doJSON(ctx context.Context, method, url string, body, out any) (int, time.Duration, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, 0, err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	start := time.Now()
	resp, err := r.httpc.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()
	latency := time.Since(start)
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, latency, fmt.Errorf("decode response: %w", err)
		}
		return resp.StatusCode, latency, nil
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, latency, nil
}

func (r *Runner) createBooking(ctx context.Context) (string, time.Duration, int, error) {
	payload := map[string]any{
		"flightId":  r.cfg.FlightID,
		"seatClass": "ECONOMY",
		"passengerDetails": map[string]any{
			"firstName":      "Anna",
			"lastName":       "Kovács",
			"email":          "anna.kovacs@example.com",
			"phoneNumber":    "+36 30 123 4567",
			"passportNumber": "AB1234567",
			"dateOfBirth":    "1990-05-12",
		},
	}
	var body struct {
		Reference string `json:"bookingReference"`
	}
	code, latency, err := r.doJSON(ctx, http.MethodPost, r.cfg.BaseURL+"/api/bookings", payload, &body)
	if err != nil {
		return "", latency, code, err
	}
	if code == http.StatusCreated && len(body.Reference) != 6 {
		return "", latency, code, fmt.Errorf("unexpected reference %q", body.Reference)
	}
	return body.Reference, latency, code, nil
}

func concurrentConfirm(ctx context.Context, r *Runner) Result {
	ref, _, code, err := r.createBooking(ctx)
	if err != nil {
		return Result{Status: statusFail, Note: err.Error()}
	}
	if code != http.StatusCreated {
		return Result{Status: statusFail, Note: fmt.Sprintf("create status=%d", code)}
	}
	url := r.cfg.BaseURL + "/api/bookings/" + ref + "/confirm"

	wg := sync.WaitGroup{}
	succ, conflicts, other := 0, 0, 0
	mu := sync.Mutex{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, _, err := r.doJSON(ctx, http.MethodPut, url, nil, nil)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				other++
			case code == http.StatusOK:
				succ++
			case code == http.StatusConflict:
				conflicts++
			default:
				other++
			}
		}()
	}
	wg.Wait()

	note := fmt.Sprintf("success=%d conflict=%d other=%d", succ, conflicts, other)
	if succ == 1 && other == 0 {
		return Result{Status: statusPass, Note: note}
	}
	return Result{Status: statusFail, Note: note}
}

func perfLoad(ctx context.Context, r *Runner, method, url string, payload any) Result {
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) && ctx.Err() == nil {
				code, _, err := r.doJSON(ctx, method, url, payload, nil)
				mu.Lock()
				if err != nil || code >= 500 {
					errCount++
				} else {
					count++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: statusFail, Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: statusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	parts := strings.Split(strings.Join(filtered, "\n"), ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
