package storage

import "mp-watch/models"

// SummaryWriter is the interface any summary-table backend must satisfy.
// The table is rebuilt from scratch on every run.
type SummaryWriter interface {
	WriteSummary(ds *models.Dataset) error
	Close() error
}
