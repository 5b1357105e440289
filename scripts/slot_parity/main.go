package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type target struct {
	StaffID  string `json:"staff_id"`
	Date     string `json:"date"`
	Duration int    `json:"duration"`
}

type config struct {
	Targets []target `json:"targets"`
}

type slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

type verdict struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

type mismatch struct {
	Time  string
	Code  string
	Error string
}

type comparison struct {
	Target     target
	Offered    int
	Mismatches []mismatch
	Error      error
	Duration   time.Duration
}

func main() {
	var (
		base        string
		prefix      string
		targetsPath string
		timeout     time.Duration
		strict      bool
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "API route prefix")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "slot_parity", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.BoolVar(&strict, "strict", false, "Exit with status 1 when any mismatch is found")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	api := strings.TrimRight(base, "/") + "/" + strings.Trim(prefix, "/")

	var (
		comparisons []comparison
		mismatches  int
		failures    int
	)
	for _, t := range targets {
		comp := compareTarget(client, api, t)
		if comp.Error != nil {
			failures++
		}
		mismatches += len(comp.Mismatches)
		comparisons = append(comparisons, comp)
	}

	printReport(os.Stdout, comparisons)

	fmt.Printf("Mismatched ticks: %d, Failed targets: %d\n", mismatches, failures)
	if strict && (mismatches > 0 || failures > 0) {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

// compareTarget fetches the grid of t and re-checks every offered tick.
func compareTarget(client *http.Client, api string, t target) (comp comparison) {
	comp.Target = t
	start := time.Now()
	defer func() { comp.Duration = time.Since(start) }()

	slots, err := fetchGrid(client, api, t)
	if err != nil {
		comp.Error = fmt.Errorf("fetch grid: %w", err)
		return comp
	}

	for _, s := range slots {
		if !s.Available {
			continue
		}
		comp.Offered++
		v, err := checkSlot(client, api, t, s.Time)
		if err != nil {
			comp.Error = fmt.Errorf("check %s: %w", s.Time, err)
			return comp
		}
		if !v.Valid {
			comp.Mismatches = append(comp.Mismatches, mismatch{Time: s.Time, Code: v.Code, Error: v.Error})
		}
	}
	return comp
}

func fetchGrid(client *http.Client, api string, t target) ([]slot, error) {
	query := url.Values{}
	query.Set("date", t.Date)
	if t.Duration > 0 {
		query.Set("duration", fmt.Sprintf("%d", t.Duration))
	}
	endpoint := fmt.Sprintf("%s/staff/%s/slots?%s", api, url.PathEscape(t.StaffID), query.Encode())

	var envelope struct {
		Data struct {
			Slots []slot `json:"slots"`
		} `json:"data"`
	}
	if err := doJSON(client, http.MethodGet, endpoint, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data.Slots, nil
}

func checkSlot(client *http.Client, api string, t target, startTime string) (verdict, error) {
	payload := map[string]interface{}{
		"staff_id":   t.StaffID,
		"date":       t.Date,
		"start_time": startTime,
	}
	if t.Duration > 0 {
		payload["duration_minutes"] = t.Duration
	}

	var envelope struct {
		Data verdict `json:"data"`
	}
	if err := doJSON(client, http.MethodPost, api+"/availability/check", payload, &envelope); err != nil {
		return verdict{}, err
	}
	return envelope.Data, nil
}

func doJSON(client *http.Client, method, endpoint string, body interface{}, dest interface{}) error {
	if client == nil {
		return errors.New("nil client")
	}
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: status %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return json.Unmarshal(data, dest)
}

func printReport(w io.Writer, results []comparison) {
	fmt.Fprintln(w, "Slot Parity Report")
	fmt.Fprintln(w, "==================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if len(res.Mismatches) > 0 {
			status = "DIFF"
		}
		fmt.Fprintf(w, "[%s] staff=%s date=%s duration=%d (%s)\n", status, res.Target.StaffID, res.Target.Date, res.Target.Duration, res.Duration)
		if res.Error != nil {
			fmt.Fprintf(w, "  Error: %v\n", res.Error)
			continue
		}
		fmt.Fprintf(w, "  Offered ticks: %d | Rejected by check: %d\n", res.Offered, len(res.Mismatches))
		for _, m := range res.Mismatches {
			fmt.Fprintf(w, "  %s %s: %s\n", m.Time, m.Code, m.Error)
		}
	}
}
