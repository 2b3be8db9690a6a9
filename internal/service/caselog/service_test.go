package caselog

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medintern-api/internal/model"
	"github.com/jwalitptl/medintern-api/pkg/logger"
	"github.com/jwalitptl/medintern-api/pkg/metrics"
)

// Prometheus collectors register globally, so all tests share one set.
var testMetrics = metrics.NewMetrics("medintern_test")

type fakeStore struct {
	mu       sync.Mutex
	saved    *model.Snapshot
	failSave bool
	saves    int
}

func (f *fakeStore) Load(ctx context.Context) (*model.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saved == nil {
		return model.NewSnapshot(), nil
	}
	return f.saved.Clone(), nil
}

func (f *fakeStore) Save(ctx context.Context, snap *model.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.failSave {
		return fmt.Errorf("disk full")
	}
	f.saved = snap.Clone()
	return nil
}

func (f *fakeStore) Close() error { return nil }

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	svc := NewService(store, testMetrics, logger.NewLogger(nil), time.Minute)
	require.NoError(t, svc.Load(context.Background()))
	return svc, store
}

func TestIngestFoldsCaseIntoAllThreeCollections(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	rec, err := svc.Ingest(ctx, &model.CaseDraft{
		PatientName: "Juan",
		Diagnosis:   model.DiagnosisList{"Asma"},
		Medications: []model.MedicationMention{{Name: "Salbutamol", Dose: "100mcg", Presentation: "inhalador"}},
		Age:         model.FlexibleAge{Years: 8, Valid: true},
	})
	require.NoError(t, err)
	require.NotNil(t, rec)

	cases := svc.ListCases(ctx)
	require.Len(t, cases, 1)
	assert.Equal(t, "Juan", cases[0].PatientName)

	meds := svc.ListMedications(ctx)
	require.Len(t, meds, 1)
	assert.Equal(t, "Salbutamol", meds[0].Name)
	assert.Empty(t, meds[0].AdultVariations)
	require.Len(t, meds[0].PediatricVariations, 1)
	assert.Equal(t, "100mcg", meds[0].PediatricVariations[0].Dosage)
	assert.Equal(t, "inhalador", meds[0].PediatricVariations[0].Presentation)
	assert.Equal(t, 8, meds[0].PediatricVariations[0].PatientAge)

	paths := svc.ListPathologies(ctx)
	require.Len(t, paths, 1)
	assert.Equal(t, model.PathologyEntry{Name: "Asma", Frequency: 1}, paths[0])

	// Everything was persisted as one snapshot.
	require.NotNil(t, store.saved)
	assert.Len(t, store.saved.Cases, 1)
	assert.Len(t, store.saved.Medications, 1)
	assert.Len(t, store.saved.Pathologies, 1)
}

func TestIngestPrependsMostRecentCase(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, &model.CaseDraft{PatientName: "Primero"})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, &model.CaseDraft{PatientName: "Segundo"})
	require.NoError(t, err)

	cases := svc.ListCases(ctx)
	require.Len(t, cases, 2)
	assert.Equal(t, "Segundo", cases[0].PatientName)
	assert.Equal(t, "Primero", cases[1].PatientName)
}

func TestIngestMalformedDraftLeavesStateUntouched(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, &model.CaseDraft{PatientName: "Juan", Diagnosis: model.DiagnosisList{"Asma"}})
	require.NoError(t, err)
	savesBefore := store.saves

	rec, err := svc.Ingest(ctx, nil)
	assert.Error(t, err)
	assert.Nil(t, rec)

	assert.Len(t, svc.ListCases(ctx), 1)
	assert.Len(t, svc.ListPathologies(ctx), 1)
	assert.Equal(t, savesBefore, store.saves, "no save attempted for an aborted ingestion")
}

func TestIngestKeepsComputedStateWhenSaveFails(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	store.failSave = true
	rec, err := svc.Ingest(ctx, &model.CaseDraft{PatientName: "Juan", Diagnosis: model.DiagnosisList{"Asma"}})
	assert.Error(t, err)
	require.NotNil(t, rec)

	// The session's aggregation survives the failed write.
	assert.Len(t, svc.ListCases(ctx), 1)
	assert.Len(t, svc.ListPathologies(ctx), 1)
	assert.Nil(t, store.saved)
}

func TestIngestDeduplicatesVariationAcrossCalls(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	draft := func() *model.CaseDraft {
		return &model.CaseDraft{
			Medications: []model.MedicationMention{{Name: "Salbutamol", Dose: "100mcg", Presentation: "inhalador"}},
			Age:         model.FlexibleAge{Years: 8, Valid: true},
		}
	}
	_, err := svc.Ingest(ctx, draft())
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, draft())
	require.NoError(t, err)

	meds := svc.ListMedications(ctx)
	require.Len(t, meds, 1)
	assert.Len(t, meds[0].PediatricVariations, 1)
}

func TestUpdateMedicationAnnotatesAndPersists(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, &model.CaseDraft{
		Medications: []model.MedicationMention{{Name: "Salbutamol"}},
		Age:         model.FlexibleAge{Years: 30, Valid: true},
	})
	require.NoError(t, err)

	entry, err := svc.UpdateMedication(ctx, "salbutamol", &model.MedicationPatch{Mechanism: "agonista beta-2"})
	require.NoError(t, err)
	assert.Equal(t, "agonista beta-2", entry.Mechanism)
	assert.Equal(t, "agonista beta-2", store.saved.Medications[0].Mechanism)

	_, err = svc.UpdateMedication(ctx, "inexistente", &model.MedicationPatch{Mechanism: "x"})
	assert.Error(t, err)
}

func TestUpdatePathologyAnnotatesAndPersists(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, &model.CaseDraft{Diagnosis: model.DiagnosisList{"Asma"}})
	require.NoError(t, err)

	entry, err := svc.UpdatePathology(ctx, "ASMA", &model.PathologyPatch{Treatment: "SABA a demanda"})
	require.NoError(t, err)
	assert.Equal(t, "SABA a demanda", entry.Treatment)
	assert.Equal(t, "SABA a demanda", store.saved.Pathologies[0].Treatment)
}

func TestListPathologiesSortsByFrequency(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Ingest(ctx, &model.CaseDraft{Diagnosis: model.DiagnosisList{"Asma"}})
		require.NoError(t, err)
	}
	_, err := svc.Ingest(ctx, &model.CaseDraft{Diagnosis: model.DiagnosisList{"Rinitis"}})
	require.NoError(t, err)

	paths := svc.ListPathologies(ctx)
	require.Len(t, paths, 2)
	assert.Equal(t, "Asma", paths[0].Name)
	assert.Equal(t, 2, paths[0].Frequency)
}

func TestTopDiagnosesRanksAndRefreshesAfterIngestion(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Ingest(ctx, &model.CaseDraft{Diagnosis: model.DiagnosisList{"Hipertensión"}})
		require.NoError(t, err)
	}
	_, err := svc.Ingest(ctx, &model.CaseDraft{Diagnosis: model.DiagnosisList{"Asma"}})
	require.NoError(t, err)

	top := svc.TopDiagnoses(ctx, 5)
	require.Len(t, top, 2)
	assert.Equal(t, model.DiagnosisCount{Name: "Hipertensión", Count: 3}, top[0])

	// The cached ranking is dropped when a new case arrives.
	_, err = svc.Ingest(ctx, &model.CaseDraft{Diagnosis: model.DiagnosisList{"Asma"}})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, &model.CaseDraft{Diagnosis: model.DiagnosisList{"Asma"}})
	require.NoError(t, err)
	_, err = svc.Ingest(ctx, &model.CaseDraft{Diagnosis: model.DiagnosisList{"Asma"}})
	require.NoError(t, err)

	top = svc.TopDiagnoses(ctx, 1)
	require.Len(t, top, 1)
	assert.Equal(t, model.DiagnosisCount{Name: "Asma", Count: 4}, top[0])
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, &model.CaseDraft{
		PatientName: "Juan",
		Diagnosis:   model.DiagnosisList{"Asma"},
		Medications: []model.MedicationMention{{Name: "Salbutamol", Dose: "100mcg"}},
		Age:         model.FlexibleAge{Years: 8, Valid: true},
	})
	require.NoError(t, err)

	backup, filename, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("medintern_backup_%s.json", time.Now().Format("2006-01-02")), filename)

	// A fresh service restored from the export holds the same state.
	restored, _ := newTestService(t)
	require.NoError(t, restored.Import(ctx, backup))

	assert.Equal(t, svc.ListCases(ctx), restored.ListCases(ctx))
	assert.Equal(t, svc.ListMedications(ctx), restored.ListMedications(ctx))
	assert.Equal(t, svc.ListPathologies(ctx), restored.ListPathologies(ctx))
}

func TestImportNilBackupFails(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Error(t, svc.Import(context.Background(), nil))
}

func TestImportReplacesExistingState(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, &model.CaseDraft{Diagnosis: model.DiagnosisList{"Rinitis"}})
	require.NoError(t, err)

	require.NoError(t, svc.Import(ctx, &model.Backup{
		Pathologies: []model.PathologyEntry{{Name: "Asma", Frequency: 7}},
	}))

	assert.Empty(t, svc.ListCases(ctx))
	paths := svc.ListPathologies(ctx)
	require.Len(t, paths, 1)
	assert.Equal(t, 7, paths[0].Frequency)
	assert.Len(t, store.saved.Pathologies, 1)
}
