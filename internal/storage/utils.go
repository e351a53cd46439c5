package storage

import (
	"context"
	"sync"

	"github.com/frasertheking/toy-snowmodel/internal/log"
)

// RunChannelSize is the buffer of each engine's input channel
const RunChannelSize = 10

// StartEngine starts the standard processing goroutine for an engine and
// returns its input channel
func StartEngine(ctx context.Context, wg *sync.WaitGroup, storer RunStorer, name string) chan<- Run {
	log.Infof("starting %s storage engine...", name)
	runChan := make(chan Run, RunChannelSize)
	wg.Add(1)
	go ProcessRuns(ctx, wg, runChan, storer, name)
	return runChan
}

// ProcessRuns stores runs from runChan until it is closed or ctx is cancelled.
// A failed store is logged and does not stop the loop.
func ProcessRuns(ctx context.Context, wg *sync.WaitGroup, runChan <-chan Run, storer RunStorer, name string) {
	defer wg.Done()

	for {
		select {
		case r, ok := <-runChan:
			if !ok {
				log.Infof("%s run channel closed, stopping processor", name)
				return
			}
			if err := storer.StoreRun(ctx, r); err != nil {
				log.Errorw("could not store run", "engine", name, "run_id", r.ID.String(), "scenario", r.Scenario, "error", err)
				continue
			}
			log.Debugw("stored run", "engine", name, "run_id", r.ID.String(), "points", len(r.Points))
		case <-ctx.Done():
			log.Infof("cancellation request received. Cancelling %s run processor", name)
			return
		}
	}
}
