// ABOUTME: Hook engine that edge-triggers commands when screen patterns newly appear
// ABOUTME: Pre-compiles regex patterns; enforces per-hook cooldown with a rate limiter

package hooks

import (
	"fmt"
	"regexp"
	"time"

	"golang.org/x/time/rate"

	"github.com/mauromedda/screenhook/internal/config"
	"github.com/mauromedda/screenhook/internal/log"
)

// ConfigError reports a hook definition that cannot be used.
type ConfigError struct {
	Hook    string
	Pattern string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Pattern != "" {
		return fmt.Sprintf("invalid hook pattern %q for hook %q: %v", e.Pattern, e.Hook, e.Err)
	}
	return fmt.Sprintf("invalid hook %q: %v", e.Hook, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// compiledHook pairs a hook definition with its matcher and runtime state.
type compiledHook struct {
	def       config.HookDef
	regex     *regexp.Regexp
	limiter   *rate.Limiter // nil means no cooldown
	lastFired time.Time
}

// Engine evaluates hooks against consecutive screen snapshots.
// It is not safe for concurrent use; the session loop owns it.
type Engine struct {
	hooks []compiledHook
	now   func() time.Time
}

// NewEngine compiles every hook pattern. Any invalid pattern fails the
// whole engine so a broken config is caught before the child starts.
func NewEngine(defs []config.HookDef) (*Engine, error) {
	return newEngineWithClock(defs, time.Now)
}

func newEngineWithClock(defs []config.HookDef, now func() time.Time) (*Engine, error) {
	compiled := make([]compiledHook, 0, len(defs))

	for _, def := range defs {
		re, err := regexp.Compile(def.Regex)
		if err != nil {
			return nil, &ConfigError{Hook: def.Name, Pattern: def.Regex, Err: err}
		}
		if def.CooldownMS != nil && *def.CooldownMS < 0 {
			return nil, &ConfigError{Hook: def.Name, Err: fmt.Errorf("negative cooldown_ms %d", *def.CooldownMS)}
		}

		ch := compiledHook{def: def, regex: re}
		if cd := def.Cooldown(); cd > 0 {
			ch.limiter = rate.NewLimiter(rate.Every(cd), 1)
		}
		compiled = append(compiled, ch)
	}

	return &Engine{hooks: compiled, now: now}, nil
}

// Len returns the number of compiled hooks.
func (e *Engine) Len() int {
	return len(e.hooks)
}

// Hooks returns the hook definitions in declaration order.
func (e *Engine) Hooks() []config.HookDef {
	defs := make([]config.HookDef, len(e.hooks))
	for i, h := range e.hooks {
		defs[i] = h.def
	}
	return defs
}

// Evaluate returns the commands of hooks whose pattern matches current but
// not previous, in declaration order. Both sides are matched on every call,
// so the result depends only on the two snapshots passed in (plus cooldown).
// A hook inside its cooldown is skipped; the cooldown starts when the
// command is returned, not when it finishes.
func (e *Engine) Evaluate(previous, current string) []string {
	var triggered []string
	now := e.now()

	for i := range e.hooks {
		h := &e.hooks[i]

		if !h.regex.MatchString(current) || h.regex.MatchString(previous) {
			continue
		}

		if h.limiter != nil && !h.limiter.AllowN(now, 1) {
			log.Info("skipping hook %q due to cooldown (last fired %s ago)", h.def.Name, now.Sub(h.lastFired).Round(time.Millisecond))
			continue
		}

		h.lastFired = now
		triggered = append(triggered, h.def.Command)
		log.Info("triggered hook %q", h.def.Name)
	}

	return triggered
}
