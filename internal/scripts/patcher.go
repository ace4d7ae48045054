package scripts

import (
	"bytes"
	"context"
	"os"

	"github.com/vk/testgridgo/internal/ctxlog"
)

// replacement is one literal substitution of the compatibility patch.
type replacement struct {
	from string
	to   string
}

// headlessTable covers the flag spellings script authors are known to use.
// Each flipped-to form no longer matches its flip-from form, which is what
// makes the patch idempotent. Scripts that toggle interactivity through any
// other mechanism bypass this patch entirely; that limitation is accepted,
// and the declared contract is the TESTGRID_HEADLESS environment variable
// the executor exports to every subprocess.
var headlessTable = []replacement{
	{"headless=False", "headless=True"},
	{"headless = False", "headless = True"},
	{"headless=false", "headless=true"},
	{"headless = false", "headless = true"},
	{`"headless": false`, `"headless": true`},
	{`"headless": False`, `"headless": True`},
	{`'headless': False`, `'headless': True`},
}

// Patcher rewrites hard-coded interactive-mode flags in a script's source so
// legacy scripts run headless. It exists for compatibility only and is
// best-effort: a script it cannot read or write runs in its original form.
type Patcher struct{}

// NewPatcher returns a compatibility patcher with the standard substitution
// table.
func NewPatcher() *Patcher {
	return &Patcher{}
}

// EnsureNonInteractive applies the substitution table to the file at path,
// rewriting it in place only when the content actually changed. It reports
// whether a rewrite happened. Applying it again after a rewrite is a no-op.
func (p *Patcher) EnsureNonInteractive(ctx context.Context, path string) (bool, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	original, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	patched := original
	for _, r := range headlessTable {
		patched = bytes.ReplaceAll(patched, []byte(r.from), []byte(r.to))
	}

	if bytes.Equal(patched, original) {
		return false, nil
	}
	if err := os.WriteFile(path, patched, info.Mode().Perm()); err != nil {
		return false, err
	}

	logger.Debug("Patched script for headless execution.", "path", path)
	return true, nil
}
