// Package batch ingests many player snapshots concurrently.
//
// Snapshots are parsed and located up front, grouped by external id, and the
// groups are fed to a fixed worker pool. A group is handled start to finish by
// one worker, so two snapshots of the same player never race.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/gemscout-data/internal/provider"
	"github.com/albapepper/gemscout-data/internal/provider/fotmob"
	"github.com/albapepper/gemscout-data/internal/seed"
	"github.com/albapepper/gemscout-data/internal/snapshot"
	"github.com/albapepper/gemscout-data/internal/store"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Source is one snapshot to ingest. Label names it in logs and errors
// (usually a file path or URL).
type Source struct {
	Label string
	Data  []byte
}

// Options tunes a Run.
type Options struct {
	Workers       int
	ContainerPath string
	// AfterCommit, when set, runs once after all groups finish and at least
	// one player was written.
	AfterCommit func(ctx context.Context) error
}

// Item is the outcome of one source.
type Item struct {
	Label      string
	ExternalID int64
	Status     string
	Error      string
	Duration   time.Duration
}

// Result tracks a full batch run.
type Result struct {
	RunID    string
	Sources  int
	Groups   int
	Duration time.Duration
	Items    []Item
	seed.SeedResult
}

// Summary returns a human-readable summary.
func (r *Result) Summary() string {
	return fmt.Sprintf("run=%s sources=%d groups=%d %s dur=%s",
		r.RunID, r.Sources, r.Groups, r.SeedResult.Summary(), r.Duration.Round(time.Millisecond))
}

type job struct {
	label   string
	profile provider.PlayerProfile
}

// --------------------------------------------------------------------------
// Run
// --------------------------------------------------------------------------

// Run ingests every source and never stops on a single failure. Sources that
// fail to parse, or carry no player, are recorded without touching the store.
func Run(ctx context.Context, st store.Store, sources []Source, opts Options, logger *slog.Logger) Result {
	start := time.Now()
	result := Result{RunID: uuid.NewString(), Sources: len(sources)}
	logger = logger.With("run_id", result.RunID)

	// Group by external id, keeping source order within a group.
	groups := make(map[int64][]job)
	var order []int64
	for _, src := range sources {
		doc, err := snapshot.Load(src.Data)
		if err != nil {
			result.record(Item{Label: src.Label}, seed.Outcome{}, err)
			continue
		}
		p, err := fotmob.ExtractPlayer(doc, opts.ContainerPath)
		if err != nil {
			result.record(Item{Label: src.Label}, seed.Outcome{}, err)
			continue
		}
		if _, seen := groups[p.ExternalID]; !seen {
			order = append(order, p.ExternalID)
		}
		groups[p.ExternalID] = append(groups[p.ExternalID], job{label: src.Label, profile: p})
	}

	result.Groups = len(groups)
	if len(groups) == 0 {
		logger.Info("No players to ingest", "sources", len(sources))
		result.Duration = time.Since(start)
		return result
	}
	logger.Info("Ingesting players", "sources", len(sources), "players", len(groups))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(groups) {
		workers = len(groups)
	}

	ch := make(chan []job, len(groups))
	for _, id := range order {
		ch <- groups[id]
	}
	close(ch)

	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for jobs := range ch {
				for _, j := range jobs {
					jobStart := time.Now()
					out, err := seed.UpsertPlayer(ctx, st, j.profile)
					item := Item{
						Label:      j.label,
						ExternalID: j.profile.ExternalID,
						Duration:   time.Since(jobStart),
					}

					mu.Lock()
					result.record(item, out, err)
					mu.Unlock()

					if err != nil {
						logger.Warn("Player ingest failed", "fotmob_id", j.profile.ExternalID, "source", j.label, "error", err)
					} else {
						logger.Debug("Player ingested", "fotmob_id", out.ExternalID, "created", out.Created)
					}
				}
			}
		}()
	}
	wg.Wait()

	if opts.AfterCommit != nil && result.PlayersCreated+result.PlayersUpdated > 0 {
		if err := opts.AfterCommit(ctx); err != nil {
			result.AddErrorf("after commit: %v", err)
			logger.Warn("Post-ingest hook failed", "error", err)
		}
	}

	result.Duration = time.Since(start)
	logger.Info("Batch complete", "summary", result.Summary())
	return result
}

func (r *Result) record(item Item, out seed.Outcome, err error) {
	item.Status = seed.Classify(out, err)
	if err != nil {
		item.Error = err.Error()
	}
	r.Items = append(r.Items, item)
	r.SeedResult.Record(item.Label, out, err)
}
