package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"tubecast/internal/config"
	"tubecast/internal/fileutil"
	"tubecast/internal/services/llm"
	"tubecast/internal/services/youtube"
)

// CheckCredentials verifies the OAuth client secret parses and a token has
// been stored by `tubecast setup`.
func CheckCredentials(cfg *config.Config) []Result {
	secret := Result{Name: "OAuth client secret"}
	if _, err := youtube.LoadOAuthConfig(cfg.Paths.ClientSecretPath); err != nil {
		secret.Detail = fmt.Sprintf("%s (error: %v)", cfg.Paths.ClientSecretPath, err)
	} else {
		secret.Passed = true
		secret.Detail = cfg.Paths.ClientSecretPath
	}

	token := Result{Name: "OAuth token"}
	stored, err := youtube.NewFileTokenStore(cfg.Paths.TokenPath).Load()
	switch {
	case err != nil:
		token.Detail = fmt.Sprintf("%s (error: %v)", cfg.Paths.TokenPath, err)
	case stored == nil:
		token.Detail = "not authorized (run `tubecast setup`)"
	case stored.RefreshToken == "":
		token.Detail = "token has no refresh token (run `tubecast setup` again)"
	default:
		token.Passed = true
		token.Detail = cfg.Paths.TokenPath
	}
	return []Result{secret, token}
}

// CheckVideoFile verifies path is a readable, non-empty regular file with an
// extension YouTube accepts.
func CheckVideoFile(path string) Result {
	const name = "Video file"
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	if !fileutil.SupportedVideo(path) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: unsupported extension; expected one of %v)", path, fileutil.VideoExtensions())}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	if info.Size() == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: file is empty)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, humanize.IBytes(uint64(info.Size())))}
}

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

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, name string, cfg llm.Config) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(cfg, llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (%s)", client.Model())}
}

// summarizeLLMError produces a human-readable summary for LLM health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (LLM API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (LLM API unreachable)"
	}
	return err.Error()
}
