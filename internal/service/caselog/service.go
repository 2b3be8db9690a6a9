// Package caselog is the single entry point for folding a draft into
// the three collections. Every mutation is a read-merge-write against
// an immutable snapshot value, so the collections always advance
// together or not at all.
package caselog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/medintern-api/internal/aggregate"
	"github.com/jwalitptl/medintern-api/internal/model"
	"github.com/jwalitptl/medintern-api/internal/normalize"
	"github.com/jwalitptl/medintern-api/internal/repository"
	apperrors "github.com/jwalitptl/medintern-api/pkg/errors"
	"github.com/jwalitptl/medintern-api/pkg/logger"
	"github.com/jwalitptl/medintern-api/pkg/metrics"
)

const topDiagnosesKey = "top_diagnoses"

type Service struct {
	store   repository.SnapshotStore
	metrics *metrics.Metrics
	logger  *logger.Logger

	mu       sync.RWMutex
	snapshot *model.Snapshot

	insights *cache.Cache
}

func NewService(store repository.SnapshotStore, m *metrics.Metrics, log *logger.Logger, insightsTTL time.Duration) *Service {
	return &Service{
		store:    store,
		metrics:  m,
		logger:   log,
		snapshot: model.NewSnapshot(),
		insights: cache.New(insightsTTL, 2*insightsTTL),
	}
}

// Load hydrates the in-memory snapshot from the store. It also
// reconciles any drift left by a failed save in a previous session.
func (s *Service) Load(ctx context.Context) error {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	s.insights.Delete(topDiagnosesKey)

	s.logger.Info("snapshot loaded", "cases", len(snap.Cases), "medications", len(snap.Medications), "pathologies", len(snap.Pathologies))
	return nil
}

// Ingest normalizes the draft and folds it into all three collections.
// A malformed draft aborts before any state change. A persistence
// failure keeps the newly computed state in memory and surfaces the
// error; the store is reconciled on the next Load.
func (s *Service) Ingest(ctx context.Context, draft *model.CaseDraft) (*model.CaseRecord, error) {
	rec, err := normalize.Normalize(draft)
	if err != nil {
		s.metrics.IngestionsFailed.Inc()
		return nil, apperrors.BadRequest("malformed case draft", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	next := &model.Snapshot{
		Cases:       append([]model.CaseRecord{*rec}, s.snapshot.Cases...),
		Medications: aggregate.MergeFormulary(s.snapshot.Medications, rec, now),
		Pathologies: aggregate.MergePathologies(s.snapshot.Pathologies, rec),
	}

	s.observeMerge(s.snapshot, next, rec)
	saveErr := s.save(ctx, next)

	s.snapshot = next
	s.insights.Delete(topDiagnosesKey)
	s.metrics.CasesIngested.Inc()

	if saveErr != nil {
		s.logger.Error(saveErr, "snapshot save failed, in-memory state kept", "case_id", rec.ID)
		return rec, apperrors.Internal(saveErr)
	}

	s.logger.Info("case ingested", "case_id", rec.ID, "diagnoses", len(rec.Diagnosis), "medications", len(rec.Medications))
	return rec, nil
}

// ListCases returns the cases most-recent-first. The ordering is a
// query contract, not an accident of storage.
func (s *Service) ListCases(ctx context.Context) []model.CaseRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CaseRecord{}, s.snapshot.Cases...)
}

func (s *Service) ListMedications(ctx context.Context) []model.MedicationEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MedicationEntry, 0, len(s.snapshot.Medications))
	for _, med := range s.snapshot.Medications {
		out = append(out, med.Clone())
	}
	return out
}

// ListPathologies returns the index sorted by frequency, most common
// first.
func (s *Service) ListPathologies(ctx context.Context) []model.PathologyEntry {
	s.mu.RLock()
	out := append([]model.PathologyEntry{}, s.snapshot.Pathologies...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Frequency > out[j].Frequency
	})
	return out
}

// UpdateMedication merges the non-empty patch fields into the named
// entry and persists. This is the manual-annotation path; ingestion
// itself never touches Mechanism.
func (s *Service) UpdateMedication(ctx context.Context, name string, patch *model.MedicationPatch) (*model.MedicationEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot.Clone()
	var updated *model.MedicationEntry
	for i := range next.Medications {
		if strings.EqualFold(next.Medications[i].Name, name) {
			if patch.Family != "" {
				next.Medications[i].Family = patch.Family
			}
			if patch.Subfamily != "" {
				next.Medications[i].Subfamily = patch.Subfamily
			}
			if patch.Mechanism != "" {
				next.Medications[i].Mechanism = patch.Mechanism
			}
			updated = &next.Medications[i]
			break
		}
	}
	if updated == nil {
		return nil, apperrors.NotFound("medication", nil)
	}

	if err := s.save(ctx, next); err != nil {
		s.snapshot = next
		return updated, apperrors.Internal(err)
	}
	s.snapshot = next
	return updated, nil
}

// UpdatePathology merges the non-empty patch fields into the named
// entry and persists.
func (s *Service) UpdatePathology(ctx context.Context, name string, patch *model.PathologyPatch) (*model.PathologyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot.Clone()
	var updated *model.PathologyEntry
	for i := range next.Pathologies {
		if strings.EqualFold(next.Pathologies[i].Name, name) {
			if patch.Description != "" {
				next.Pathologies[i].Description = patch.Description
			}
			if patch.Treatment != "" {
				next.Pathologies[i].Treatment = patch.Treatment
			}
			updated = &next.Pathologies[i]
			break
		}
	}
	if updated == nil {
		return nil, apperrors.NotFound("pathology", nil)
	}

	if err := s.save(ctx, next); err != nil {
		s.snapshot = next
		return updated, apperrors.Internal(err)
	}
	s.snapshot = next
	return updated, nil
}

// TopDiagnoses ranks diagnosis labels across all cases, most frequent
// first, capped at n. Results are cached until the next ingestion.
func (s *Service) TopDiagnoses(ctx context.Context, n int) []model.DiagnosisCount {
	if cached, ok := s.insights.Get(topDiagnosesKey); ok {
		return capCounts(cached.([]model.DiagnosisCount), n)
	}

	s.mu.RLock()
	counts := make(map[string]int)
	names := make(map[string]string)
	for _, rec := range s.snapshot.Cases {
		for _, label := range rec.Diagnosis {
			key := strings.ToLower(label)
			counts[key]++
			if _, ok := names[key]; !ok {
				names[key] = label
			}
		}
	}
	s.mu.RUnlock()

	ranked := make([]model.DiagnosisCount, 0, len(counts))
	for key, count := range counts {
		ranked = append(ranked, model.DiagnosisCount{Name: names[key], Count: count})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})

	s.insights.SetDefault(topDiagnosesKey, ranked)
	return capCounts(ranked, n)
}

// Export bundles the three collections into a backup document named
// with the current date.
func (s *Service) Export(ctx context.Context) (*model.Backup, string, error) {
	s.mu.RLock()
	snap := s.snapshot.Clone()
	s.mu.RUnlock()

	backup := &model.Backup{
		Cases:       snap.Cases,
		Medications: snap.Medications,
		Pathologies: snap.Pathologies,
	}
	filename := fmt.Sprintf("medintern_backup_%s.json", time.Now().Format("2006-01-02"))
	return backup, filename, nil
}

// Import replaces all three collections with the backup's contents and
// persists immediately.
func (s *Service) Import(ctx context.Context, backup *model.Backup) error {
	if backup == nil {
		return apperrors.BadRequest("malformed backup document", nil)
	}

	next := &model.Snapshot{
		Cases:       orEmptyCases(backup.Cases),
		Medications: orEmptyMedications(backup.Medications),
		Pathologies: orEmptyPathologies(backup.Pathologies),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	saveErr := s.save(ctx, next)
	s.snapshot = next
	s.insights.Delete(topDiagnosesKey)

	if saveErr != nil {
		return apperrors.Internal(saveErr)
	}
	s.logger.Info("backup imported", "cases", len(next.Cases), "medications", len(next.Medications), "pathologies", len(next.Pathologies))
	return nil
}

func (s *Service) save(ctx context.Context, snap *model.Snapshot) error {
	start := time.Now()
	err := s.store.Save(ctx, snap)
	s.metrics.SnapshotSaveLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.SnapshotSaves.WithLabelValues("failure").Inc()
		return err
	}
	s.metrics.SnapshotSaves.WithLabelValues("success").Inc()
	return nil
}

func (s *Service) observeMerge(prev, next *model.Snapshot, rec *model.CaseRecord) {
	for _, mention := range rec.Medications {
		if mention.Name == "" {
			s.metrics.MentionsSkipped.Inc()
			s.logger.Debug("medication mention without name skipped", "case_id", rec.ID)
		}
	}

	prevAdult, prevPediatric := variationCounts(prev.Medications)
	nextAdult, nextPediatric := variationCounts(next.Medications)
	if d := nextAdult - prevAdult; d > 0 {
		s.metrics.VariationsRecorded.WithLabelValues("adult").Add(float64(d))
	}
	if d := nextPediatric - prevPediatric; d > 0 {
		s.metrics.VariationsRecorded.WithLabelValues("pediatric").Add(float64(d))
	}
}

func variationCounts(meds []model.MedicationEntry) (adult, pediatric int) {
	for _, med := range meds {
		adult += len(med.AdultVariations)
		pediatric += len(med.PediatricVariations)
	}
	return adult, pediatric
}

func capCounts(ranked []model.DiagnosisCount, n int) []model.DiagnosisCount {
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return append([]model.DiagnosisCount{}, ranked...)
}

func orEmptyCases(in []model.CaseRecord) []model.CaseRecord {
	if in == nil {
		return []model.CaseRecord{}
	}
	return in
}

func orEmptyMedications(in []model.MedicationEntry) []model.MedicationEntry {
	if in == nil {
		return []model.MedicationEntry{}
	}
	return in
}

func orEmptyPathologies(in []model.PathologyEntry) []model.PathologyEntry {
	if in == nil {
		return []model.PathologyEntry{}
	}
	return in
}
