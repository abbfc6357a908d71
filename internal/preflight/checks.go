package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"medley/internal/audit"
	"medley/internal/policy"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckPolicy verifies that the policy document compiles.
func CheckPolicy(path string) Result {
	const name = "Policy"

	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "policy path not configured"}
	}
	pol, err := policy.NewCache().Get(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true,
		Detail: fmt.Sprintf("%s (%d rules)", pol.VersionLabel(), len(pol.Rules))}
}

// CheckAuditStore verifies the audit database can be opened and queried.
func CheckAuditStore(ctx context.Context, path string) Result {
	const name = "Audit store"

	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "audit database path not configured"}
	}
	store, err := audit.Open(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()

	if _, err := store.RecentPlans(ctx, 1); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", path)}
}

// CheckPlugin verifies a Radarr or Sonarr instance is reachable and the api
// key is valid.
func CheckPlugin(ctx context.Context, name, baseURL, apiKey string) Result {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/api/v3/system/status", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("status check failed (%v)", err)}
	}
	req.Header.Set("X-Api-Key", strings.TrimSpace(apiKey))

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("status check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("status check failed (%d)", resp.StatusCode)}
	}
}
