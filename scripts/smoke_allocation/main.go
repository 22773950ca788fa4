// Command smoke_allocation drives a running API instance through the full
// allocation lifecycle: generate a proposal, save it, validate the stored
// timetable and fetch its CSV export. Exits non-zero on the first failure.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type previewPayload struct {
	Mode     string `json:"mode"`
	Proposal struct {
		ProposalID string `json:"proposalId"`
		Warnings   []string `json:"warnings"`
		Metrics    struct {
			TotalAllocations      int `json:"total_allocations"`
			SuccessfulAllocations int `json:"successful_allocations"`
		} `json:"metrics"`
	} `json:"proposal"`
}

type savePayload struct {
	TimetableID string `json:"timetableId"`
}

type validatePayload struct {
	Result struct {
		IsValid bool `json:"is_valid"`
	} `json:"result"`
}

func main() {
	var (
		base       string
		department string
		term       string
		seed       int64
		timeout    time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "API base URL including prefix")
	flag.StringVar(&department, "department", "CS", "Department code to allocate")
	flag.StringVar(&term, "term", "2026-ODD", "Term label")
	flag.Int64Var(&seed, "seed", 42, "Shuffle seed for a reproducible run")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}
	base = strings.TrimRight(base, "/")

	generateBody := fmt.Sprintf(`{"department":%q,"term":%q,"shuffleSeed":%d}`, department, term, seed)
	var preview previewPayload
	if err := call(client, http.MethodPost, base+"/timetables/generate", generateBody, &preview); err != nil {
		log.Fatalf("generate failed: %v", err)
	}
	if preview.Proposal.ProposalID == "" {
		log.Fatal("generate returned no proposal id")
	}
	fmt.Printf("proposal %s: %d/%d sessions placed, %d warnings\n",
		preview.Proposal.ProposalID,
		preview.Proposal.Metrics.SuccessfulAllocations,
		preview.Proposal.Metrics.TotalAllocations,
		len(preview.Proposal.Warnings))

	saveBody := fmt.Sprintf(`{"proposalId":%q}`, preview.Proposal.ProposalID)
	var saved savePayload
	if err := call(client, http.MethodPost, base+"/timetables/save", saveBody, &saved); err != nil {
		log.Fatalf("save failed: %v", err)
	}
	fmt.Printf("saved timetable %s\n", saved.TimetableID)

	var verdict validatePayload
	if err := call(client, http.MethodGet, base+"/timetables/"+saved.TimetableID+"/validate", "", &verdict); err != nil {
		log.Fatalf("validate failed: %v", err)
	}
	fmt.Printf("validation verdict: valid=%v\n", verdict.Result.IsValid)

	size, err := fetchExport(client, base+"/timetables/"+saved.TimetableID+"/export?format=csv")
	if err != nil {
		log.Fatalf("export failed: %v", err)
	}
	fmt.Printf("csv export: %d bytes\n", size)

	if !verdict.Result.IsValid {
		os.Exit(1)
	}
}

func call(client *http.Client, method, url, body string, out interface{}) error {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("status %d: malformed response: %w", resp.StatusCode, err)
	}
	if env.Error != nil {
		return fmt.Errorf("status %d: %s (%s)", resp.StatusCode, env.Error.Message, env.Error.Code)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func fetchExport(client *http.Client, url string) (int, error) {
	resp, err := client.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}
