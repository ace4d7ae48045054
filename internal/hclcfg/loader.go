// Package hclcfg loads the optional HCL configuration file and applies it on
// top of the built-in defaults. Expressions in the file may reference the
// process environment through the `env` object, e.g.
//
//	live_log {
//	  backend_url = env.BACKEND_URL
//	  run_id      = env.TEST_RUN_ID
//	}
package hclcfg

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/testgridgo/internal/config"
)

// DefaultFilename is picked up automatically from the working directory when
// no explicit -config flag is given.
const DefaultFilename = "testgrid.hcl"

// fileSchema mirrors the block structure of the configuration file. Optional
// attributes are pointers so an absent attribute leaves the lower layer
// untouched.
type fileSchema struct {
	Runner          *runnerBlock    `hcl:"runner,block"`
	Artifacts       *artifactsBlock `hcl:"artifacts,block"`
	Patch           *patchBlock     `hcl:"patch,block"`
	LiveLog         *liveLogBlock   `hcl:"live_log,block"`
	HealthcheckPort *int            `hcl:"healthcheck_port,optional"`
	LogFormat       *string         `hcl:"log_format,optional"`
	LogLevel        *string         `hcl:"log_level,optional"`
}

type runnerBlock struct {
	ScriptsDir      *string  `hcl:"scripts_dir,optional"`
	Extension       *string  `hcl:"extension,optional"`
	EntryFile       *string  `hcl:"entry_file,optional"`
	ReservedPrefix  *string  `hcl:"reserved_prefix,optional"`
	Exclude         []string `hcl:"exclude,optional"`
	Interpreter     *string  `hcl:"interpreter,optional"`
	Workers         *int     `hcl:"workers,optional"`
	ScriptTimeout   *string  `hcl:"script_timeout,optional"`
	WorkDir         *string  `hcl:"work_dir,optional"`
	InstallBrowsers *bool    `hcl:"install_browsers,optional"`
	BrowsersPath    *string  `hcl:"browsers_path,optional"`
}

type artifactsBlock struct {
	ScreenshotsDir *string `hcl:"screenshots_dir,optional"`
	ResultsPath    *string `hcl:"results_path,optional"`
	Fresh          *bool   `hcl:"fresh,optional"`
	Placeholder    *bool   `hcl:"placeholder,optional"`
}

type patchBlock struct {
	Enabled *bool `hcl:"enabled,optional"`
}

type liveLogBlock struct {
	BackendURL *string `hcl:"backend_url,optional"`
	RunID      *string `hcl:"run_id,optional"`
	Transport  *string `hcl:"transport,optional"`
	Timeout    *string `hcl:"timeout,optional"`
}

// Load parses the file at path and overlays its settings onto opts.
func Load(path string, opts *config.Options) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	var schema fileSchema
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &schema); diags.HasErrors() {
		return fmt.Errorf("failed to decode %s: %w", path, diags)
	}

	return schema.apply(opts)
}

// evalContext exposes the process environment as the `env` object.
// Referencing a variable that is not set in the environment is a decode
// error, which surfaces the typo instead of silently reading "".
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, entry := range os.Environ() {
		if name, value, ok := strings.Cut(entry, "="); ok && name != "" {
			vars[name] = cty.StringVal(value)
		}
	}
	var env cty.Value
	if len(vars) > 0 {
		env = cty.ObjectVal(vars)
	} else {
		env = cty.EmptyObjectVal
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": env},
	}
}

func (s *fileSchema) apply(opts *config.Options) error {
	if b := s.Runner; b != nil {
		setString(&opts.ScriptsDir, b.ScriptsDir)
		setString(&opts.ScriptExtension, b.Extension)
		setString(&opts.EntryFile, b.EntryFile)
		setString(&opts.ReservedPrefix, b.ReservedPrefix)
		setString(&opts.Interpreter, b.Interpreter)
		setString(&opts.WorkDir, b.WorkDir)
		setString(&opts.BrowsersPath, b.BrowsersPath)
		if len(b.Exclude) > 0 {
			opts.ExcludeGlobs = append(opts.ExcludeGlobs, b.Exclude...)
		}
		if b.Workers != nil {
			opts.Workers = *b.Workers
		}
		if b.InstallBrowsers != nil {
			opts.InstallBrowsers = *b.InstallBrowsers
		}
		if err := setDuration(&opts.ScriptTimeout, b.ScriptTimeout, "runner.script_timeout"); err != nil {
			return err
		}
	}
	if b := s.Artifacts; b != nil {
		setString(&opts.ScreenshotsDir, b.ScreenshotsDir)
		setString(&opts.ResultsPath, b.ResultsPath)
		if b.Fresh != nil {
			opts.FreshResults = *b.Fresh
		}
		if b.Placeholder != nil {
			opts.PlaceholderEnabled = *b.Placeholder
		}
	}
	if b := s.Patch; b != nil && b.Enabled != nil {
		opts.PatchEnabled = *b.Enabled
	}
	if b := s.LiveLog; b != nil {
		setString(&opts.BackendURL, b.BackendURL)
		setString(&opts.RunID, b.RunID)
		setString(&opts.Transport, b.Transport)
		if err := setDuration(&opts.EmitTimeout, b.Timeout, "live_log.timeout"); err != nil {
			return err
		}
	}
	if s.HealthcheckPort != nil {
		opts.HealthcheckPort = *s.HealthcheckPort
	}
	setString(&opts.LogFormat, s.LogFormat)
	setString(&opts.LogLevel, s.LogLevel)
	return nil
}

func setString(dst *string, src *string) {
	if src != nil && *src != "" {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string, attr string) error {
	if src == nil || *src == "" {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", attr, err)
	}
	*dst = d
	return nil
}
