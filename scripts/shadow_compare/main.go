// Command shadow_compare replays analytics requests against the legacy PHP
// service and this API, and reports response drift. It runs in CI during the
// migration window; a critical mismatch fails the build.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

type probe struct {
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

// defaultProbes covers every read endpoint the dashboards call. The login and
// export-download flows are excluded because their bodies are never identical
// across deployments.
var defaultProbes = []probe{
	{Path: "/api/v1/admin/analytics/overview", Critical: true},
	{Path: "/api/v1/admin/analytics/professors", Critical: true},
	{Path: "/api/v1/admin/analytics/classrooms", Critical: true},
	{Path: "/api/v1/admin/analytics/subjects", Critical: true},
	{Path: "/api/v1/admin/analytics/engagement", Critical: false},
	{Path: "/api/v1/admin/analytics/trends?days=30", Critical: true},
	{Path: "/api/v1/admin/analytics/moderation", Critical: false},
	{Path: "/api/v1/admin/analytics/ai-insights", Critical: false},
}

// volatileMetaKeys differ per request and are stripped before comparing.
var volatileMetaKeys = []string{"processing_time_ms", "cache_hit", "generated_at", "report_id"}

type result struct {
	probe        probe
	newStatus    int
	legacyStatus int
	statusMatch  bool
	bodyMatch    bool
	err          error
}

func main() {
	var (
		newBase    string
		legacyBase string
		probesPath string
		token      string
		timeout    time.Duration
	)

	flag.StringVar(&newBase, "new-base", "http://localhost:8080", "base URL of this API")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:8000", "base URL of the legacy service")
	flag.StringVar(&probesPath, "probes", "", "optional JSON file overriding the built-in probe list")
	flag.StringVar(&token, "token", os.Getenv("SHADOW_COMPARE_TOKEN"), "admin bearer token sent to both services")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "per-request timeout")
	flag.Parse()

	probes := defaultProbes
	if probesPath != "" {
		loaded, err := loadProbes(probesPath)
		if err != nil {
			log.Fatalf("load probes: %v", err)
		}
		probes = loaded
	}

	client := &http.Client{Timeout: timeout}
	breaking := 0
	for _, p := range probes {
		res := compare(client, newBase, legacyBase, token, p)
		printResult(res)
		if p.Critical && (res.err != nil || !res.statusMatch || !res.bodyMatch) {
			breaking++
		}
	}

	fmt.Printf("\nbreaking drifts: %d\n", breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadProbes(path string) ([]probe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var probes []probe
	if err := json.Unmarshal(data, &probes); err != nil {
		return nil, err
	}
	if len(probes) == 0 {
		return nil, fmt.Errorf("no probes defined in %s", path)
	}
	return probes, nil
}

func compare(client *http.Client, newBase, legacyBase, token string, p probe) result {
	res := result{probe: p}

	newStatus, newBody, err := fetch(client, newBase, token, p.Path)
	if err != nil {
		res.err = fmt.Errorf("new api: %w", err)
		return res
	}
	legacyStatus, legacyBody, err := fetch(client, legacyBase, token, p.Path)
	if err != nil {
		res.err = fmt.Errorf("legacy api: %w", err)
		return res
	}

	res.newStatus = newStatus
	res.legacyStatus = legacyStatus
	res.statusMatch = newStatus == legacyStatus
	res.bodyMatch = payloadsEqual(newBody, legacyBody)
	return res
}

func fetch(client *http.Client, base, token, path string) (int, []byte, error) {
	req, err := http.NewRequest(http.MethodGet, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return 0, nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// payloadsEqual compares response bodies as JSON with volatile fields removed,
// so timing metadata and freshly minted identifiers do not register as drift.
func payloadsEqual(a, b []byte) bool {
	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	scrub(&aj)
	scrub(&bj)
	return reflect.DeepEqual(aj, bj)
}

func scrub(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for _, key := range volatileMetaKeys {
			delete(val, key)
		}
		for k, child := range val {
			scrub(&child)
			val[k] = child
		}
	case []interface{}:
		for i, child := range val {
			scrub(&child)
			val[i] = child
		}
	case float64:
		// Legacy serializes whole floats as integers.
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printResult(res result) {
	status := "ok"
	switch {
	case res.err != nil:
		status = "error"
	case !res.statusMatch || !res.bodyMatch:
		status = "drift"
	}
	fmt.Printf("[%-5s] GET %s\n", status, res.probe.Path)
	if res.err != nil {
		fmt.Printf("        %v\n", res.err)
		return
	}
	fmt.Printf("        status %d/%d  body match: %t  critical: %t\n",
		res.newStatus, res.legacyStatus, res.bodyMatch, res.probe.Critical)
}
