// Command-line smoke and load test that simulates concurrent users creating,
// updating and deleting posts against a running API and produces CSV + HTML
// reports.
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"blogapi/config"
)

var baseURL = "http://127.0.0.1:8080/api"

var client = &http.Client{Timeout: 10 * time.Second}

// flowResult records one user's pass through the post lifecycle.
type flowResult struct {
	User       string
	Stage      string // last stage reached
	StatusCode int
	ErrMessage string
	Elapsed    time.Duration
	Timestamp  time.Time
}

// ======================= HTTP helpers =======================

func doJSON(method, url string, body any, token string) (int, []byte, error) {
	var buf []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = b
	}
	req, _ := http.NewRequest(method, url, bytes.NewBuffer(buf))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, data, nil
}

func registerUser(email, username, password string) (int, []byte, error) {
	body := map[string]string{
		"username":    username,
		"email":       email,
		"password":    password,
		"dateOfBirth": "1990-01-01",
		"gender":      "Other",
		"phoneNumber": "1234567890",
	}
	return doJSON("POST", baseURL+"/auth/register", body, "")
}

func loginUser(email, password string) (string, error) {
	status, data, err := doJSON("POST", baseURL+"/auth/login", map[string]string{
		"email": email, "password": password,
	}, "")
	if err != nil {
		return "", err
	}
	if status != 200 {
		return "", fmt.Errorf("login status %d body=%s", status, string(data))
	}
	var res map[string]json.RawMessage
	if err := json.Unmarshal(data, &res); err != nil {
		return "", err
	}
	var token string
	_ = json.Unmarshal(res["token"], &token)
	return token, nil
}

func createPost(token, title, content string) (uint64, int, error) {
	status, data, err := doJSON("POST", baseURL+"/posts", map[string]string{
		"title": title, "content": content,
	}, token)
	if err != nil || status != 201 {
		return 0, status, err
	}
	var post struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(data, &post); err != nil {
		return 0, status, err
	}
	return post.ID, status, nil
}

// ======================= Smoke tests =======================

// endpointSmokeTests exercises the auth and post endpoints with positive and
// negative cases before any load is applied.
func endpointSmokeTests() error {
	suffix := time.Now().UnixNano() % 1000000
	email := fmt.Sprintf("smoke-%d@example.com", suffix)
	otherEmail := fmt.Sprintf("smoke-other-%d@example.com", suffix)
	password := "SmokePwd123!"

	// Fresh registration should succeed.
	if status, data, err := registerUser(email, "smokeuser", password); err != nil || status != http.StatusCreated {
		return fmt.Errorf("register (new) failed: status=%d err=%v body=%s", status, err, string(data))
	}
	// Duplicate registration should be rejected (400).
	if status, _, err := registerUser(email, "smokeuser2", password); err != nil || status != http.StatusBadRequest {
		return fmt.Errorf("register (duplicate) expected 400, got %d err=%v", status, err)
	}
	if status, _, err := registerUser(otherEmail, "smokeother", password); err != nil || status != http.StatusCreated {
		return fmt.Errorf("register (other) failed: status=%d err=%v", status, err)
	}

	token, err := loginUser(email, password)
	if err != nil {
		return fmt.Errorf("login (valid) failed: %w", err)
	}
	// Wrong password should be a 400 with the generic credentials message.
	if status, _, err := doJSON("POST", baseURL+"/auth/login", map[string]string{
		"email": email, "password": "wrong-password",
	}, ""); err != nil || status != http.StatusBadRequest {
		return fmt.Errorf("login (invalid creds) expected 400, got %d err=%v", status, err)
	}

	postID, status, err := createPost(token, "Smoke post", "smoke test post content")
	if err != nil || status != http.StatusCreated {
		return fmt.Errorf("create post failed: status=%d err=%v", status, err)
	}
	postURL := fmt.Sprintf("%s/posts/%d", baseURL, postID)

	// Anonymous mutation should be rejected.
	if status, _, err := doJSON("PUT", postURL, map[string]string{"title": "anon edit"}, ""); err != nil || status != http.StatusUnauthorized {
		return fmt.Errorf("update (anonymous) expected 401, got %d err=%v", status, err)
	}
	// A different user should be forbidden.
	otherToken, err := loginUser(otherEmail, password)
	if err != nil {
		return fmt.Errorf("login (other) failed: %w", err)
	}
	if status, _, err := doJSON("PUT", postURL, map[string]string{"title": "stolen"}, otherToken); err != nil || status != http.StatusForbidden {
		return fmt.Errorf("update (non-owner) expected 403, got %d err=%v", status, err)
	}
	// The owner may update and delete.
	if status, _, err := doJSON("PUT", postURL, map[string]string{"title": "Smoke post v2"}, token); err != nil || status != http.StatusOK {
		return fmt.Errorf("update (owner) expected 200, got %d err=%v", status, err)
	}
	if status, _, err := doJSON("DELETE", postURL, nil, token); err != nil || status != http.StatusOK {
		return fmt.Errorf("delete (owner) expected 200, got %d err=%v", status, err)
	}
	if status, _, err := doJSON("GET", postURL, nil, ""); err != nil || status != http.StatusNotFound {
		return fmt.Errorf("get (deleted) expected 404, got %d err=%v", status, err)
	}

	log.Println("endpoint smoke tests passed: auth + post CRUD scenarios verified")
	return nil
}

// ======================= Concurrent flow =======================

// runUserFlow registers a user and walks the full post lifecycle, reporting
// the last stage reached.
func runUserFlow(user string) flowResult {
	start := time.Now()
	res := flowResult{User: user, Timestamp: start}
	email := user + "@example.com"
	password := "LoadPwd123!"

	fail := func(stage string, status int, err error) flowResult {
		res.Stage = stage
		res.StatusCode = status
		if err != nil {
			res.ErrMessage = err.Error()
		}
		res.Elapsed = time.Since(start)
		return res
	}

	if status, _, err := registerUser(email, user, password); err != nil || status != 201 {
		return fail("register", status, err)
	}
	token, err := loginUser(email, password)
	if err != nil {
		return fail("login", 0, err)
	}
	postID, status, err := createPost(token, "Load post by "+user, "load test post content")
	if err != nil || status != 201 {
		return fail("create", status, err)
	}
	postURL := fmt.Sprintf("%s/posts/%d", baseURL, postID)
	if status, _, err := doJSON("GET", postURL, nil, ""); err != nil || status != 200 {
		return fail("get", status, err)
	}
	if status, _, err := doJSON("PUT", postURL, map[string]string{"title": "Updated by " + user}, token); err != nil || status != 200 {
		return fail("update", status, err)
	}
	if status, _, err := doJSON("DELETE", postURL, nil, token); err != nil || status != 200 {
		return fail("delete", status, err)
	}

	res.Stage = "done"
	res.StatusCode = 200
	res.Elapsed = time.Since(start)
	return res
}

// concurrentFlowTest fans runUserFlow out over a worker pool and writes the
// reports.
func concurrentFlowTest(userCount, maxConcurrent int, outCSV, outHTML string) error {
	jobs := make(chan string, userCount)
	results := make(chan flowResult, userCount)

	var wg sync.WaitGroup
	workers := maxConcurrent
	if workers < 1 {
		workers = 10
	}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for u := range jobs {
				results <- runUserFlow(u)
			}
		}()
	}
	suffix := time.Now().UnixNano() % 1000000
	for i := 0; i < userCount; i++ {
		jobs <- fmt.Sprintf("load-%d-%d", suffix, i)
	}
	close(jobs)
	wg.Wait()
	close(results)

	csvFile, err := os.Create(outCSV)
	if err != nil {
		return err
	}
	defer csvFile.Close()
	csvWriter := csv.NewWriter(csvFile)
	defer csvWriter.Flush()
	_ = csvWriter.Write([]string{"User", "Stage", "StatusCode", "ErrMessage", "Elapsed", "Timestamp"})

	var allResults []flowResult
	failures := 0
	for r := range results {
		_ = csvWriter.Write([]string{
			r.User, r.Stage, fmt.Sprintf("%d", r.StatusCode),
			r.ErrMessage, r.Elapsed.String(), r.Timestamp.Format(time.RFC3339),
		})
		if r.Stage != "done" {
			failures++
		}
		allResults = append(allResults, r)
	}
	csvWriter.Flush()

	if err := writeHTMLReport(outHTML, allResults); err != nil {
		log.Printf("write HTML report error: %v", err)
	}
	if failures > 0 {
		return fmt.Errorf("%d/%d flows failed", failures, userCount)
	}
	return nil
}

// writeHTMLReport renders a basic table so failures are easy to eyeball.
func writeHTMLReport(path string, results []flowResult) error {
	const tpl = `
<!doctype html>
<html>
<head><meta charset="utf-8"><title>Post Flow Test Report</title>
<style>
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ddd; padding: 8px; text-align:left }
th { background: #f4f4f4; }
</style>
</head>
<body>
<h2>Post Flow Test Report ({{ .GeneratedAt }})</h2>
<table>
<thead><tr><th>User</th><th>Stage</th><th>StatusCode</th><th>Error</th><th>Elapsed</th><th>Timestamp</th></tr></thead>
<tbody>
{{ range .Rows }}
<tr>
<td>{{ .User }}</td>
<td>{{ .Stage }}</td>
<td>{{ .StatusCode }}</td>
<td>{{ .ErrMessage }}</td>
<td>{{ .Elapsed }}</td>
<td>{{ .Timestamp }}</td>
</tr>
{{ end }}
</tbody>
</table>
</body>
</html>`

	data := struct {
		GeneratedAt string
		Rows        []flowResult
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Rows:        results,
	}

	t, err := template.New("report").Parse(tpl)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return t.Execute(f, data)
}

// ======================= main =======================

func main() {
	if v := os.Getenv("TEST_BASE_URL"); v != "" {
		baseURL = v
	}
	userCount := 20
	maxConcurrent := 5
	outCSV := "post_flow_report.csv"
	outHTML := "post_flow_report.html"

	if err := endpointSmokeTests(); err != nil {
		log.Fatalf("endpoint smoke tests failed: %v", err)
	}

	start := time.Now()
	if err := concurrentFlowTest(userCount, maxConcurrent, outCSV, outHTML); err != nil {
		log.Fatalf("concurrent test failed: %v", err)
	}
	log.Printf("concurrent test finished in %s, CSV=%s HTML=%s\n", time.Since(start).String(), outCSV, outHTML)

	// Show what the post cache left behind.
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "../../"
	}
	if cfg, err := config.Load(configPath); err == nil {
		if rdb, err := config.NewRedisClient(cfg.Redis); err == nil {
			keys, _ := rdb.Keys(rdb.Context(), "blog:*").Result()
			log.Printf("Redis cache keys after test: %v\n", keys)
		}
	}
	fmt.Println("All post flow tests completed successfully!")
}
