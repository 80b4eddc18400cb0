// Package orchestrator runs scans end to end: it resolves scanner
// config paths, reads each file once, fans the bytes out to every
// scanner that claimed the path, re-scores candidates against the
// provider registry and aggregates everything into one ScanResult.
// Per-file failures are recorded, never fatal.
package orchestrator

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yairfalse/keyscout/audit"
	"github.com/yairfalse/keyscout/parser"
	"github.com/yairfalse/keyscout/providers"
	"github.com/yairfalse/keyscout/scanners"
	"github.com/yairfalse/keyscout/telemetry"
	"github.com/yairfalse/keyscout/types"
)

// Orchestrator coordinates one or more scan runs over a fixed pair of
// registries. It is safe for concurrent Scans.
type Orchestrator struct {
	scanners  *scanners.Registry
	providers *providers.Registry
	fs        FS
	logger    *telemetry.Logger
	audit     *audit.Log
}

// Config wires optional collaborators into an Orchestrator. Zero
// values get sensible defaults; Audit stays off unless provided.
type Config struct {
	FS     FS
	Logger *telemetry.Logger
	Audit  *audit.Log
}

// New creates an orchestrator over the given registries.
func New(scanReg *scanners.Registry, provReg *providers.Registry, cfg Config) *Orchestrator {
	fsImpl := cfg.FS
	if fsImpl == nil {
		fsImpl = OSFileSystem{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.NewLogger("orchestrator")
	}
	return &Orchestrator{
		scanners:  scanReg,
		providers: provReg,
		fs:        fsImpl,
		logger:    logger,
		audit:     cfg.Audit,
	}
}

// fileTask is one unique resolved path and the scanners that want it.
type fileTask struct {
	path     string
	scanners []scanners.Plugin
}

// taggedFragment pairs a scanner fragment with file-level facts only
// the orchestrator knows.
type taggedFragment struct {
	frag   scanners.ScanFragment
	binary bool
}

// Scan runs one scan. On external cancellation it returns the partial
// result collected so far together with the context error.
func (o *Orchestrator) Scan(ctx context.Context, opts Options) (*types.ScanResult, error) {
	opts = opts.withDefaults()
	if err := opts.validate(o.scanners, o.providers); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &types.ScanResult{StartedAt: start.UTC()}

	home, err := o.resolveHome(opts.HomeDir)
	if err != nil {
		return nil, err
	}

	active := opts.selectScanners(o.scanners)
	result.Stats.ScannersRun = len(active)

	o.logger.LogScanStart(ctx, len(active), home)
	o.auditAppend(audit.EventScanStarted, "", home, map[string]int{"scanners": len(active)})

	plan := o.buildPlan(ctx, home, active, opts, result)

	if opts.DryRun {
		o.assembleDryRun(result, plan)
		o.finish(ctx, result, start)
		return result, nil
	}

	fragments, cancelled := o.runPlan(ctx, plan, opts, result)
	o.assemble(result, fragments, opts)
	o.finish(ctx, result, start)

	if cancelled != nil {
		result.Partial = true
		return result, cancelled
	}
	return result, nil
}

// resolveHome resolves and checks the scan root.
func (o *Orchestrator) resolveHome(homeDir string) (string, error) {
	home, err := o.fs.Resolve(homeDir)
	if err != nil {
		return "", &ConfigurationError{Field: "HomeDir", Reason: "cannot resolve: " + err.Error()}
	}
	info, err := o.fs.Stat(home)
	if err != nil {
		return "", &ConfigurationError{Field: "HomeDir", Reason: "cannot stat: " + err.Error()}
	}
	if !info.IsDir() {
		return "", &ConfigurationError{Field: "HomeDir", Reason: "not a directory"}
	}
	return home, nil
}

// buildPlan turns scanner config paths into unique file tasks. Paths
// that are missing, oversized, unresolvable or escaping the scan root
// never reach a scanner. Each surviving file is dispatched to every
// active scanner that claims it via CanHandle, not only the scanner
// whose convention paths found it.
func (o *Orchestrator) buildPlan(ctx context.Context, home string, active []scanners.Plugin, opts Options, result *types.ScanResult) []*fileTask {
	byPath := make(map[string]*fileTask)
	enumerator := make(map[string]scanners.Plugin)
	var order []*fileTask

	for _, s := range active {
		for _, rel := range scanPaths(s, home) {
			if filepath.IsAbs(rel) || hasDotDot(rel) {
				result.Errors = append(result.Errors, types.ScanError{
					Scanner: s.Name(),
					Path:    rel,
					Message: "config path rejected: outside scan root",
					At:      time.Now().UTC(),
				})
				continue
			}

			full := filepath.Join(home, rel)
			info, err := o.fs.Stat(full)
			if err != nil {
				// absent config is the normal case, not an error
				result.Stats.FilesSkipped++
				continue
			}
			if info.IsDir() {
				result.Stats.FilesSkipped++
				continue
			}
			if info.Size() > opts.MaxFileSize {
				result.Stats.FilesSkipped++
				o.logger.LogFileSkipped(ctx, full, "exceeds max file size")
				o.auditAppend(audit.EventFileSkipped, s.Name(), full, map[string]int64{"size": info.Size()})
				continue
			}

			resolved, err := o.fs.Resolve(full)
			if err != nil {
				result.Stats.FilesSkipped++
				o.logger.LogFileSkipped(ctx, full, "cannot resolve")
				continue
			}
			if !within(home, resolved) {
				result.Stats.FilesSkipped++
				result.Errors = append(result.Errors, types.ScanError{
					Scanner: s.Name(),
					Path:    full,
					Message: "symlink escapes scan root",
					At:      time.Now().UTC(),
				})
				continue
			}

			if _, ok := byPath[resolved]; !ok {
				task := &fileTask{path: resolved}
				byPath[resolved] = task
				enumerator[resolved] = s
				order = append(order, task)
			}
		}
	}

	for _, task := range order {
		for _, s := range active {
			if s.CanHandle(task.path) {
				task.scanners = append(task.scanners, s)
			}
		}
		if len(task.scanners) == 0 {
			// a scanner that enumerates a path always gets it, even
			// when its CanHandle is narrower than its ConfigPaths
			task.scanners = append(task.scanners, enumerator[task.path])
		}
	}
	return order
}

// scanPaths unions a scanner's convention paths with the extra paths
// its optional extensions contribute. All are relative to home.
func scanPaths(s scanners.Plugin, home string) []string {
	rels := s.ConfigPaths()
	if ps, ok := s.(scanners.ProviderScanner); ok {
		rels = append(rels, ps.ScanProviderConfigs(home)...)
	}
	if is, ok := s.(scanners.InstanceScanner); ok {
		rels = append(rels, is.ScanInstances(home)...)
	}
	return rels
}

// runPlan reads each planned file once and dispatches the content to
// every scanner that claimed it, bounded by the worker limit.
func (o *Orchestrator) runPlan(ctx context.Context, plan []*fileTask, opts Options, result *types.ScanResult) ([]taggedFragment, error) {
	var mu sync.Mutex
	var fragments []taggedFragment

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, task := range plan {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			content, err := o.fs.ReadFile(task.path)
			if err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, types.ScanError{
					Path:    task.path,
					Message: "read failed: " + err.Error(),
					At:      time.Now().UTC(),
				})
				mu.Unlock()
				return nil
			}

			mu.Lock()
			result.Stats.FilesScanned++
			mu.Unlock()
			if telemetry.FilesScanned != nil {
				telemetry.FilesScanned.Add(gctx, 1)
			}

			binary := parser.IsBinary(content)
			format := parser.DetectFormat(task.path, content)
			if !binary && !parser.IsValid(content, format) {
				// corrupt structured file: scan the canonical empty
				// document instead of failing every scanner on it
				o.logger.WithContext(gctx).Debug().
					Str("path", task.path).
					Str("format", string(format)).
					Msg("invalid document replaced with default")
				content = parser.DefaultFor(format)
			}
			file := scanners.File{Path: task.path, Content: content}

			for _, s := range task.scanners {
				frags, err := o.scanWith(gctx, s, file, opts)
				if err != nil {
					o.logger.LogScannerError(gctx, s.Name(), task.path, err)
					o.auditAppendError(audit.EventScannerFailed, s.Name(), task.path, err)
					mu.Lock()
					result.Errors = append(result.Errors, types.ScanError{
						Scanner: s.Name(),
						Path:    task.path,
						Message: err.Error(),
						At:      time.Now().UTC(),
					})
					mu.Unlock()
					continue
				}
				mu.Lock()
				for _, f := range frags {
					fragments = append(fragments, taggedFragment{frag: f, binary: binary})
				}
				mu.Unlock()
			}
			return nil
		})
	}

	return fragments, g.Wait()
}

// scanWith routes through the provider-restricted entry point when
// the scanner supports it and a provider filter is set.
func (o *Orchestrator) scanWith(ctx context.Context, s scanners.Plugin, file scanners.File, opts Options) ([]scanners.ScanFragment, error) {
	if ps, ok := s.(scanners.ProviderScanner); ok && len(opts.OnlyProviders) > 0 {
		return ps.ScanProviders(ctx, file, opts.OnlyProviders)
	}
	return s.Scan(ctx, file)
}

// assemble turns fragments into the deduplicated keys and instances
// of the final result. Keys dedup by identity keeping the best score;
// instances dedup by instance ID.
func (o *Orchestrator) assemble(result *types.ScanResult, fragments []taggedFragment, opts Options) {
	instances := make(map[string]*types.ConfigInstance)
	var instanceOrder []string

	keys := make(map[string]types.DiscoveredKey)
	var keyOrder []string

	for _, tf := range fragments {
		inst, ok := instances[tf.frag.Instance.InstanceID]
		if !ok {
			copied := tf.frag.Instance
			copied.KeyCount = 0
			instances[copied.InstanceID] = &copied
			instanceOrder = append(instanceOrder, copied.InstanceID)
			inst = instances[copied.InstanceID]
		}

		for _, c := range tf.frag.Candidates {
			provider, score := o.scoreCandidate(c)
			if !opts.providerAllowed(provider) {
				continue
			}

			key := types.DiscoveredKey{
				Provider:   provider,
				Source:     inst.Path,
				ValueType:  c.ValueType,
				Confidence: types.ConfidenceFromScore(score),
				Score:      score,
				Hash:       types.HashValue(c.Value),
				Redacted:   types.Redact(c.Value),
				Line:       c.Line,
				Column:     c.Column,
				Locked:     tf.binary,
				Metadata:   c.Metadata,
				FoundAt:    time.Now().UTC(),
			}
			if opts.IncludeFullValues {
				key.FullValue = c.Value
			}

			id := key.Identity()
			existing, seen := keys[id]
			if !seen {
				keys[id] = key
				keyOrder = append(keyOrder, id)
				inst.KeyCount++
				continue
			}
			// same value in two places: keep the stronger sighting
			if key.Score > existing.Score {
				keys[id] = key
			}
		}
	}

	for _, id := range keyOrder {
		result.Keys = append(result.Keys, keys[id])
	}
	for _, id := range instanceOrder {
		result.Instances = append(result.Instances, *instances[id])
	}
}

// assembleDryRun lists the instances a real run would visit without
// reading anything.
func (o *Orchestrator) assembleDryRun(result *types.ScanResult, plan []*fileTask) {
	for _, task := range plan {
		for _, s := range task.scanners {
			result.Instances = append(result.Instances, types.ConfigInstance{
				InstanceID: s.Name() + ":" + task.path,
				Scanner:    s.Name(),
				Path:       task.path,
				ScannedAt:  time.Now().UTC(),
			})
		}
	}
}

// scoreCandidate settles attribution and score for one candidate. The
// generic structural scorer is always consulted and the final score is
// the maximum across it and the eligible provider plugins, so a
// high-entropy value attributed by context is never dragged down by a
// plugin that merely failed to recognize its prefix. Placeholders stay
// Low no matter what their structure scores.
func (o *Orchestrator) scoreCandidate(c scanners.Candidate) (string, float64) {
	generic := providers.GenericScore(c.Value)
	if providers.LooksLikePlaceholder(c.Value) {
		generic = 0.1
	}

	if c.Provider != "" {
		score := generic
		if p, ok := o.providers.Get(c.Provider); ok {
			if s := p.Score(c.Value); s > score {
				score = s
			}
		}
		return c.Provider, score
	}

	best := ""
	bestScore := 0.0
	for _, p := range o.providers.All() {
		if !p.Match(c.Value) {
			continue
		}
		if s := p.Score(c.Value); s > bestScore {
			best, bestScore = p.Name(), s
		}
	}
	if best == "" {
		return "unknown", generic
	}
	if generic > bestScore {
		bestScore = generic
	}
	return best, bestScore
}

// finish stamps stats, reports metrics and writes the closing log and
// audit entries.
func (o *Orchestrator) finish(ctx context.Context, result *types.ScanResult, start time.Time) {
	result.Stats.Duration = time.Since(start)

	if telemetry.KeysDiscovered != nil {
		telemetry.KeysDiscovered.Add(ctx, int64(len(result.Keys)))
	}
	if telemetry.ScanErrors != nil {
		telemetry.ScanErrors.Add(ctx, int64(len(result.Errors)))
	}
	if telemetry.ScanDuration != nil {
		telemetry.ScanDuration.Record(ctx, result.Stats.Duration.Seconds())
	}
	if telemetry.KnownKeys != nil {
		telemetry.KnownKeys.Record(ctx, int64(len(result.Keys)))
	}

	// one audit line per discovered key, hash only, never the value
	for _, key := range result.Keys {
		o.auditAppend(audit.EventKeyFound, "", key.Source, map[string]string{
			"provider":   key.Provider,
			"hash":       key.Hash,
			"confidence": string(key.Confidence),
		})
	}

	o.logger.LogScanComplete(ctx, len(result.Keys), len(result.Instances), len(result.Errors),
		float64(result.Stats.Duration.Milliseconds()))
	o.auditAppend(audit.EventScanCompleted, "", "", result.Stats)
}

func (o *Orchestrator) auditAppend(t audit.EventType, scanner, path string, data any) {
	if o.audit == nil {
		return
	}
	_ = o.audit.Append(t, scanner, path, data)
}

func (o *Orchestrator) auditAppendError(t audit.EventType, scanner, path string, err error) {
	if o.audit == nil {
		return
	}
	_ = o.audit.AppendError(t, scanner, path, nil, err)
}

func hasDotDot(rel string) bool {
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

func within(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
