package preflight

import (
	"context"

	"tubecast/internal/config"
	"tubecast/internal/services/llm"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// RunAll executes the checks applicable to cfg. The LLM is only probed when
// an API key is configured, since metadata generation is optional.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	}
	results = append(results, CheckCredentials(cfg)...)

	if cfg.LLM.APIKey != "" {
		results = append(results, CheckLLM(ctx, "Metadata LLM", llm.ConfigFrom(cfg)))
	}
	return results
}
