package preflight

import (
	"context"

	"yt2text/internal/config"
	"yt2text/internal/services/llm"
)

// Result reports the outcome of a single preflight check. A Warning result
// still passes.
type Result struct {
	Name    string
	Passed  bool
	Warning bool
	Detail  string
}

// Options toggles the slower checks.
type Options struct {
	// SkipLLM avoids the network round trip to the LLM endpoint.
	SkipLLM bool
}

// RunAll executes the directory checks and, unless skipped, the LLM check.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Audio directory", cfg.Paths.AudioDir),
		CheckDirectoryAccess("Work directory", cfg.Paths.WorkDir),
	}
	if !opts.SkipLLM {
		results = append(results, CheckLLM(ctx, llm.Config{
			APIKey:  cfg.LLM.APIKey,
			BaseURL: cfg.LLM.BaseURL,
			Model:   cfg.LLM.Model,
			Referer: cfg.LLM.Referer,
			Title:   cfg.LLM.Title,
		}))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
