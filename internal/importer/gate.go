// Package importer materializes external catalog datasets into local tables,
// deduplicating imports through a persistent ledger.
package importer

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Meesho/BharatMLStack/trainflow/internal/repositories/sql/importledger"
	"github.com/Meesho/BharatMLStack/trainflow/internal/trainer"
	"github.com/Meesho/BharatMLStack/trainflow/pkg/metric"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Importer is the external collaborator that downloads a catalog dataset into
// the local row store under the given table name.
type Importer interface {
	ImportToLocalStore(externalID string, targetTable string) (bool, error)
}

// Gate checks the import ledger before triggering a download, so the same
// external dataset is materialized at most once. The check-claim-import
// sequence for one external id runs under a per-id mutex, and the IMPORTING
// ledger row doubles as a cross-process claim.
type Gate struct {
	ledger   importledger.Repository
	importer Importer

	mu    sync.Mutex
	byRef map[string]*sync.Mutex
}

func NewGate(ledger importledger.Repository, imp Importer) *Gate {
	return &Gate{
		ledger:   ledger,
		importer: imp,
		byRef:    make(map[string]*sync.Mutex),
	}
}

// ResolveSource returns the local table holding the external dataset,
// importing it first if it was never materialized.
func (g *Gate) ResolveSource(ref trainer.DatasetRef) (string, error) {
	lock := g.refLock(ref.ExternalID)
	lock.Lock()
	defer lock.Unlock()

	entry, err := g.ledger.GetByExternalID(ref.ExternalID)
	if err == nil {
		switch entry.Status {
		case importledger.StatusReady:
			metric.Incr(metric.ImportDedupHitCount, nil)
			log.Info().Str("external_id", ref.ExternalID).Str("table", entry.TableName).
				Msg("External dataset already imported, skipping download")
			return entry.TableName, nil
		case importledger.StatusImporting:
			return "", fmt.Errorf("import of %q already in progress", ref.ExternalID)
		default:
			return "", fmt.Errorf("import ledger entry for %q has unknown status %q", ref.ExternalID, entry.Status)
		}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("querying import ledger for %q: %w", ref.ExternalID, err)
	}

	table := TableNameFor(ref)
	if _, err := g.ledger.Create(&importledger.Table{
		ExternalID: ref.ExternalID,
		TableName:  table,
		Status:     importledger.StatusImporting,
	}); err != nil {
		return "", fmt.Errorf("claiming import of %q: %w", ref.ExternalID, err)
	}

	metric.Incr(metric.ImportTriggeredCount, nil)
	ok, err := g.importer.ImportToLocalStore(ref.ExternalID, table)
	if err != nil || !ok {
		if err == nil {
			err = fmt.Errorf("import collaborator reported failure")
		}
		if delErr := g.ledger.Delete(ref.ExternalID); delErr != nil {
			log.Warn().Err(delErr).Str("external_id", ref.ExternalID).Msg("Failed to release import claim")
		}
		return "", fmt.Errorf("importing %q: %w", ref.ExternalID, err)
	}

	if err := g.ledger.UpdateStatus(ref.ExternalID, importledger.StatusReady); err != nil {
		return "", fmt.Errorf("recording import of %q: %w", ref.ExternalID, err)
	}

	log.Info().Str("external_id", ref.ExternalID).Str("table", table).Msg("External dataset imported")
	return table, nil
}

func (g *Gate) refLock(externalID string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	lock, ok := g.byRef[externalID]
	if !ok {
		lock = &sync.Mutex{}
		g.byRef[externalID] = lock
	}
	return lock
}

// TableNameFor derives the local table name for an external dataset by
// flattening its id into a SQL identifier.
func TableNameFor(ref trainer.DatasetRef) string {
	if ref.DatasetName != "" {
		return sanitizeIdentifier(ref.DatasetName)
	}
	return "imported_" + sanitizeIdentifier(ref.ExternalID)
}

func sanitizeIdentifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
