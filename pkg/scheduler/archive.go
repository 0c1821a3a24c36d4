package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/fadedpez/inkwell/pkg/archive"
)

// ArchiveMaintenanceScheduler keeps the Elasticsearch archive healthy:
// monthly index rotation and pruning of indices past retention.
type ArchiveMaintenanceScheduler struct {
	scheduler *Scheduler
	archive   *archive.Archive
}

// NewArchiveMaintenanceScheduler creates a scheduler for archive maintenance
func NewArchiveMaintenanceScheduler(a *archive.Archive) *ArchiveMaintenanceScheduler {
	return &ArchiveMaintenanceScheduler{
		scheduler: NewScheduler(),
		archive:   a,
	}
}

// Start registers and starts the maintenance tasks
func (s *ArchiveMaintenanceScheduler) Start(ctx context.Context) {
	s.scheduler.AddTask("index_rotation", 24*time.Hour, s.rotateIndices)
	s.scheduler.AddTask("index_pruning", 7*24*time.Hour, s.pruneOldIndices)

	s.scheduler.Start(ctx)
	log.Println("Archive maintenance scheduler started")
}

// Stop stops the maintenance scheduler
func (s *ArchiveMaintenanceScheduler) Stop() {
	s.scheduler.Stop()
	log.Println("Archive maintenance scheduler stopped")
}

func (s *ArchiveMaintenanceScheduler) rotateIndices(ctx context.Context) error {
	return s.archive.RotateIndices(ctx)
}

func (s *ArchiveMaintenanceScheduler) pruneOldIndices(ctx context.Context) error {
	return s.archive.PruneOldIndices(ctx)
}
