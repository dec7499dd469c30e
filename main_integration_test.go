package main_test

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAppBinary     = "./po_test_app" // Name for the test binary
	testAppPort       = "8089"          // Port for the test server
	testServicePort   = "8091"          // Port for the Service API
	testAppURL        = "http://127.0.0.1:" + testAppPort
	testServiceApiURL = "http://127.0.0.1:" + testServicePort + "/api"
	startupTimeout    = 15 * time.Second
	pingEndpoint      = testAppURL + "/v1/ping"
)

// TestMain builds the binary once; each test starts its own server process.
func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Println("Integration tests skipped in short mode.")
		os.Exit(m.Run())
	}

	log.Println("Integration Test Setup: Building application...")
	buildCmd := exec.Command("go", "build", "-o", testAppBinary, ".")
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		log.Printf("Failed to build application: %v\nOutput:\n%s", err, string(buildOutput))
		os.Exit(1)
	}

	exitCode := m.Run()
	_ = os.Remove(testAppBinary)
	os.Exit(exitCode)
}

// startApp runs "po serve" over the file backend at storeFile and waits for /v1/ping.
func startApp(t *testing.T, storeFile string) *exec.Cmd {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test")
	}

	cmd := exec.Command(testAppBinary, "--backend", "file", "--storage-file", storeFile, "serve")
	cmd.Env = append(os.Environ(),
		"API_PORT="+testAppPort,
		"SERVICE_API_PORT="+testServicePort,
		"MOCK_SERVICES=false",
		"LOG_LEVEL=warn",
		"DEFAULT_PAYMENT_TERMS=Cash",
		"DEFAULT_DELIVERY_TERMS=Your location",
		"RATE_LIMIT_BUCKET_SIZE=100",
		"RATE_LIMIT_REFILL_RATE=100",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	require.NoError(t, cmd.Start())

	t.Cleanup(func() {
		if cmd.ProcessState != nil {
			return
		}
		if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
	})

	deadline := time.Now().Add(startupTimeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(pingEndpoint)
		if err == nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK && string(body) == "pong" {
				return cmd
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	t.Fatalf("Application failed to start within %v", startupTimeout)
	return nil
}

func stopApp(t *testing.T, cmd *exec.Cmd) {
	t.Helper()
	require.NoError(t, cmd.Process.Signal(syscall.SIGTERM))
	require.NoError(t, cmd.Wait())
}

func doJSON(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, testAppURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func callServiceAPI(t *testing.T, method string) map[string]any {
	t.Helper()
	raw, _ := json.Marshal(map[string]any{"method": method, "arguments": map[string]any{}})
	resp, err := http.Post(testServiceApiURL, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestIntegration_SaveAndRestart(t *testing.T) {
	storeFile := filepath.Join(t.TempDir(), "po-store.json")
	app := startApp(t, storeFile)

	status, _ := doJSON(t, http.MethodPost, "/v1/po/new", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, http.MethodPatch, "/v1/po", map[string]any{"supplier": "Acme"})
	require.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, http.MethodPut, "/v1/po/items/0", map[string]any{
		"description": "Widget", "quantity": 2, "price": 50, "unit": "EA",
	})
	require.Equal(t, http.StatusOK, status)

	status, body := doJSON(t, http.MethodPost, "/v1/po/save", nil)
	require.Equal(t, http.StatusCreated, status)
	poNumber := body["poNumber"].(string)
	assert.Regexp(t, `^PO # 00001-\d{4}$`, poNumber)

	// The store file holds the single JSON array slot.
	raw, err := os.ReadFile(storeFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "savedPurchaseOrders")

	stopApp(t, app)
	startApp(t, storeFile)

	status, body = doJSON(t, http.MethodGet, "/v1/orders", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 1)

	status, body = doJSON(t, http.MethodGet, "/v1/po", nil)
	require.Equal(t, http.StatusOK, status)
	working := body["data"].(map[string]any)
	assert.EqualValues(t, 2, working["poNumberCounter"], "counter resumes after the highest saved order")

	status, _ = doJSON(t, http.MethodPost, "/v1/orders/"+url.PathEscape(poNumber)+"/load", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestIntegration_ServiceAPI(t *testing.T) {
	app := startApp(t, filepath.Join(t.TempDir(), "po-store.json"))

	doJSON(t, http.MethodPost, "/v1/po/save", nil)

	out := callServiceAPI(t, "getNotifications")
	assert.Equal(t, true, out["success"])
	data, ok := out["data"].([]any)
	require.True(t, ok)
	found := false
	for _, d := range data {
		entry := d.(map[string]any)
		if entry["kind"] == "notification" && fmt.Sprint(entry["message"]) != "" {
			found = true
		}
	}
	assert.True(t, found, "save notification should be recorded")

	out = callServiceAPI(t, "shutdown")
	assert.Equal(t, true, out["success"])

	done := make(chan error, 1)
	go func() { done <- app.Wait() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(startupTimeout):
		t.Fatal("application did not stop after service shutdown")
	}
}
