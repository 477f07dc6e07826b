package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	vegeta "github.com/tsenart/vegeta/v12/lib"
)

const (
	mockPort = 9091
	appPort  = 8081
	benchKey = "bench-key-12345"
)

var chatResp = []byte(`{
	"id": "bench-123",
	"object": "chat.completion",
	"model": "meta-llama/Llama-3.3-70B-Instruct-Turbo",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hello"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 5, "completion_tokens": 1, "total_tokens": 6}
}`)

// bodies are per task. Speech has no upstream in the benchmark, so it
// measures the demo fallback path.
var bodies = map[string]struct {
	path string
	body string
}{
	"chat":   {"/v1/chat", `{"messages": [{"role": "user", "content": "Hello"}]}`},
	"speech": {"/v1/speech", `{"text": "Hello from the benchmark"}`},
}

func main() {
	duration := flag.Duration("duration", 10*time.Second, "Duration of the test")
	rate := flag.Int("rate", 50, "Requests per second")
	task := flag.String("task", "chat", "Endpoint to attack: chat or speech")
	chaos := flag.Bool("chaos", false, "Simulate random client disconnections")
	flag.Parse()

	target, ok := bodies[*task]
	if !ok {
		log.Fatalf("unknown task %q", *task)
	}

	go startMockServer()

	fmt.Println("Building application...")
	bin, err := filepath.Abs("bin/server")
	if err != nil {
		log.Fatal(err)
	}
	buildCmd := exec.Command("go", "build", "-o", bin, "./cmd/server")
	buildCmd.Stdout = os.Stdout
	buildCmd.Stderr = os.Stderr
	if err := buildCmd.Run(); err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}

	// the server reads config.yaml from its working directory
	workDir, err := os.MkdirTemp("", "oneai-bench")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(workDir)
	if err := os.WriteFile(filepath.Join(workDir, "config.yaml"), []byte(benchConfig), 0o644); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}

	fmt.Println("Starting application...")
	cmd := exec.Command(bin)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"TOGETHER_API_KEY=mock-key",
		"NO_COLOR=1",
	)

	logFile, _ := os.Create("bench_server.log")
	defer logFile.Close()
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		log.Fatalf("Failed to start app: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}()

	waitForApp(fmt.Sprintf("http://localhost:%d/health", appPort))

	done := make(chan struct{})
	go monitorCPU(cmd.Process.Pid, done)

	url := fmt.Sprintf("http://localhost:%d%s", appPort, target.path)
	fmt.Printf("Running %s benchmark: %s duration, %d req/s\n", *task, *duration, *rate)

	targeter := func(t *vegeta.Target) error {
		t.Method = http.MethodPost
		t.URL = url
		t.Body = []byte(target.body)
		t.Header = http.Header{
			"Content-Type":      []string{"application/json"},
			"Authorization":     []string{"Bearer " + benchKey},
			"X-App-Name":        []string{"benchmark"},
			"X-Benchmark-Start": []string{strconv.FormatInt(time.Now().UnixNano(), 10)},
		}
		return nil
	}

	if *chaos {
		fmt.Println("CHAOS MODE ENABLED: Starting Chaos Monkey sidecar...")
		concurrency := *rate / 10
		if concurrency < 5 {
			concurrency = 5
		}
		if concurrency > 50 {
			concurrency = 50
		}
		go startChaosMonkey(url, target.body, concurrency, done)
	}

	attacker := vegeta.NewAttacker(vegeta.KeepAlive(true))
	var metrics vegeta.Metrics
	degraded := 0

	for res := range attacker.Attack(targeter, vegeta.Rate{Freq: *rate, Per: time.Second}, *duration, "Benchmark") {
		metrics.Add(res)
		var env struct {
			Degraded bool `json:"degraded"`
		}
		if json.Unmarshal(res.Body, &env) == nil && env.Degraded {
			degraded++
		}
	}
	metrics.Close()
	close(done)

	fmt.Println("--------------------------------------------------")
	fmt.Println("99th percentile: ", metrics.Latencies.P99)
	fmt.Println("Mean:            ", metrics.Latencies.Mean)
	fmt.Println("Max:             ", metrics.Latencies.Max)
	fmt.Printf("Success:         %.2f%%\n", metrics.Success*100)
	fmt.Printf("Degraded:        %d\n", degraded)
	fmt.Printf("Throughput:      %.2f req/s\n", metrics.Throughput)
	fmt.Println("--------------------------------------------------")

	if len(metrics.Errors) > 0 {
		fmt.Println("Error Set (first 5 unique):")
		seen := make(map[string]bool)
		for _, msg := range metrics.Errors {
			if len(seen) == 5 {
				break
			}
			if !seen[msg] {
				fmt.Println(msg)
				seen[msg] = true
			}
		}
	}
}

func startChaosMonkey(url, payload string, concurrency int, done chan struct{}) {
	fmt.Printf("Starting Chaos Monkey with %d concurrent disrupters (random disconnects 1-200ms)\n", concurrency)
	var wg sync.WaitGroup
	wg.Add(concurrency)

	for i := 0; i < concurrency; i++ {
		go func() {
			defer wg.Done()
			client := &http.Client{}

			for {
				select {
				case <-done:
					return
				default:
					timeout := time.Duration(rand.Intn(200)+1) * time.Millisecond

					ctx, cancel := context.WithTimeout(context.Background(), timeout)
					req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(payload))
					req.Header.Set("Content-Type", "application/json")
					req.Header.Set("Authorization", "Bearer "+benchKey)

					resp, err := client.Do(req)
					if err == nil {
						_ = resp.Body.Close()
					}
					cancel()

					time.Sleep(time.Duration(rand.Intn(50)) * time.Millisecond)
				}
			}
		}()
	}
	wg.Wait()
}

// startMockServer stands in for Together's OpenAI compatible API.
func startMockServer() {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if startStr := r.Header.Get("X-Benchmark-Start"); startStr != "" && rand.Intn(100) == 0 {
			start, _ := strconv.ParseInt(startStr, 10, 64)
			fmt.Printf("DEBUG: Gateway Overhead: %v\n", time.Duration(time.Now().UnixNano()-start))
		}

		time.Sleep(10 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(chatResp)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	_ = http.ListenAndServe(fmt.Sprintf(":%d", mockPort), mux)
}

func monitorCPU(pid int, done chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	fmt.Printf("% -10s % -10s\n", "Time", "CPU(%)")
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			out, err := exec.Command("ps", "-p", strconv.Itoa(pid), "-o", "%cpu").Output()
			if err != nil {
				continue
			}
			lines := strings.Split(strings.TrimSpace(string(out)), "\n")
			if len(lines) < 2 {
				continue
			}
			cpu, _ := strconv.ParseFloat(strings.TrimSpace(lines[1]), 64)
			fmt.Printf("% -10s % -10.2f\n", time.Now().Format("15:04:05"), cpu)
		}
	}
}

func waitForApp(url string) {
	for i := 0; i < 20; i++ {
		resp, err := http.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	log.Fatal("App timed out")
}

var benchConfig = fmt.Sprintf(`
server:
  port: "%d"
  env: development
  api_keys: ["%s"]
rate_limit:
  requests_per_second: 100000
  burst: 100000
log:
  level: error
  format: json
database:
  dsn: bench.db
gateway:
  base_urls:
    together: "http://localhost:%d/v1"
`, appPort, benchKey, mockPort)
