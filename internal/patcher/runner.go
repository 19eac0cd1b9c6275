package patcher

import (
	"fmt"
	"io"

	"jsxpatch/internal/config"
	"jsxpatch/internal/logger"
)

// Runner executes configured recipes in order.
type Runner struct {
	log    *logger.Logger
	out    io.Writer
	dryRun bool
}

// NewRunner creates a runner. Success messages are written to out.
func NewRunner(log *logger.Logger, out io.Writer, dryRun bool) *Runner {
	return &Runner{
		log:    log,
		out:    out,
		dryRun: dryRun,
	}
}

type compiledRecipe struct {
	recipe config.RecipeConfig
	rule   *Rule
}

// Run compiles every recipe before touching any file, then applies them in
// order. It stops at the first error and returns the results gathered so far.
func (r *Runner) Run(recipes []config.RecipeConfig) ([]*FileResult, error) {
	compiled := make([]compiledRecipe, 0, len(recipes))

	for _, recipe := range recipes {
		rule, err := RuleFromRecipe(recipe)
		if err != nil {
			return nil, err
		}

		compiled = append(compiled, compiledRecipe{recipe: recipe, rule: rule})
	}

	results := make([]*FileResult, 0, len(compiled))

	for _, c := range compiled {
		log := r.log.With("recipe", c.recipe.Name, "target", c.recipe.Target)
		log.Debug("applying recipe", "pattern", c.rule.Pattern.String(), "mode", c.rule.Mode)

		res, err := PatchFile(c.recipe.Target, c.rule, FileOptions{
			OnNoMatch:    c.recipe.OnNoMatch,
			ExpectSHA256: c.recipe.ExpectSHA256,
			Backup:       c.recipe.Backup,
			DryRun:       r.dryRun,
		})
		if res != nil {
			results = append(results, res)
		}

		if err != nil {
			log.Error("recipe failed", "error", err)

			return results, fmt.Errorf("recipe %s: %w", c.recipe.Name, err)
		}

		r.report(log, c.recipe, res)
	}

	return results, nil
}

func (r *Runner) report(log *logger.Logger, recipe config.RecipeConfig, res *FileResult) {
	switch res.Status() {
	case StatusSkipped:
		log.Info("already patched, skipping", "sentinel", recipe.SkipIfContains)
	case StatusNoMatch:
		if recipe.OnNoMatch == config.OnNoMatchWarn {
			log.Warn("pattern not found, file left unchanged")
		} else {
			log.Debug("pattern not found, file left unchanged")
		}
	case StatusWouldPatch:
		log.Info("dry run, not writing", "matches", res.Matches, "after_sha256", res.AfterHash)
	default:
		log.Info("file patched", "matches", res.Matches, "backup", res.BackupPath,
			"before_sha256", res.BeforeHash, "after_sha256", res.AfterHash)
	}

	// The ignore policy keeps the unconditional completion notice.
	announce := res.Status() == StatusPatched ||
		(res.Status() == StatusNoMatch && recipe.OnNoMatch == config.OnNoMatchIgnore)
	if announce && recipe.SuccessMessage != "" {
		fmt.Fprintln(r.out, recipe.SuccessMessage)
	}
}
