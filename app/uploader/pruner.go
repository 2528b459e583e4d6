package uploader

import (
	"context"
	"fmt"
	"log"

	"call-flow-processor/repository"
)

// PrunerWorkerID keys the marker pruner's lease.
const PrunerWorkerID = "finished-call-pruner"

// MarkerPruner removes finished-call markers that every producer has
// already uploaded. Without it the marker set only grows; each producer
// cycle rescans it in full, so pruning keeps fan-out cheap on large
// installs. Disabled by default because keeping markers makes replays
// trivial.
type MarkerPruner struct {
	status      repository.CDRUploadStatusRepository
	producerIDs []string
	logger      *log.Logger
}

func NewMarkerPruner(status repository.CDRUploadStatusRepository, producerIDs []string, logger *log.Logger) *MarkerPruner {
	if logger == nil {
		logger = log.Default()
	}
	return &MarkerPruner{status: status, producerIDs: producerIDs, logger: logger}
}

func (p *MarkerPruner) ID() string { return PrunerWorkerID }

func (p *MarkerPruner) RunCycle(ctx context.Context) error {
	pruned, err := p.status.PruneFinishedCalls(ctx, p.producerIDs)
	if err != nil {
		return fmt.Errorf("%s: %w", PrunerWorkerID, err)
	}
	if pruned > 0 {
		p.logger.Printf("%s: pruned %d fully uploaded markers", PrunerWorkerID, pruned)
	}
	return nil
}
