package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SandeshGitHub2077/LegalClaimGPT/models"
	"github.com/SandeshGitHub2077/LegalClaimGPT/storage"
)

// memCaseStore is an in-memory CaseStore.
type memCaseStore struct {
	mu    sync.Mutex
	cases map[int64]*models.CaseRecord
}

func newMemCaseStore() *memCaseStore {
	return &memCaseStore{cases: make(map[int64]*models.CaseRecord)}
}

func (s *memCaseStore) Upsert(_ context.Context, c *models.CaseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *c
	s.cases[c.CaseID] = &clone
	return nil
}

func (s *memCaseStore) SaveLabels(_ context.Context, c *models.CaseRecord) error {
	return s.Upsert(context.Background(), c)
}

func (s *memCaseStore) SaveSummary(_ context.Context, caseID int64, summary string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[caseID]
	if !ok {
		return fmt.Errorf("case %d not found", caseID)
	}
	c.Summary = summary
	return nil
}

func (s *memCaseStore) List(_ context.Context) ([]*models.CaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.CaseRecord
	for _, c := range s.cases {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CaseID < out[j].CaseID })
	return out, nil
}

func (s *memCaseStore) ListLabeled(ctx context.Context) ([]*models.CaseRecord, error) {
	all, _ := s.List(ctx)
	var out []*models.CaseRecord
	for _, c := range all {
		if c.Labeled() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *memCaseStore) ListUnlabeled(ctx context.Context) ([]*models.CaseRecord, error) {
	all, _ := s.List(ctx)
	var out []*models.CaseRecord
	for _, c := range all {
		if !c.Labeled() {
			out = append(out, c)
		}
	}
	return out, nil
}

// memRunStore is an in-memory RunStore.
type memRunStore struct {
	runs []*models.TrainingRun
}

func (s *memRunStore) Create(_ context.Context, run *models.TrainingRun) error {
	s.runs = append(s.runs, run)
	return nil
}

func (s *memRunStore) Latest(_ context.Context) (*models.TrainingRun, error) {
	if len(s.runs) == 0 {
		return nil, errors.New("no training run recorded")
	}
	return s.runs[len(s.runs)-1], nil
}

// fakeFetcher returns canned opinions.
type fakeFetcher struct {
	cases []*models.CaseRecord
}

func (f *fakeFetcher) FetchOpinions(_ context.Context, _ string, limit int) ([]*models.CaseRecord, error) {
	if limit > len(f.cases) {
		limit = len(f.cases)
	}
	return f.cases[:limit], nil
}

// fakeLM is a scriptable LanguageModel.
type fakeLM struct {
	labels     map[int]models.CaseLabels // keyed by call order
	labelErr   error
	labelCalls int
}

func (f *fakeLM) Label(_ context.Context, _ string) (models.CaseLabels, error) {
	call := f.labelCalls
	f.labelCalls++
	if f.labelErr != nil {
		return models.CaseLabels{}, f.labelErr
	}
	return f.labels[call], nil
}

func (f *fakeLM) Summarize(_ context.Context, _ string) (string, error) {
	return "A short summary of the case.", nil
}

func (f *fakeLM) EmbedDocument(_ context.Context, text string) ([]float64, error) {
	return []float64{float64(len(text)), 1, 0}, nil
}

func relevantText(id int) string {
	return fmt.Sprintf("Opinion %d: the plaintiff suffered an injury in the accident and seeks damages for negligence and hospital treatment costs. %s",
		id, longFiller())
}

func longFiller() string {
	out := ""
	for i := 0; i < 10; i++ {
		out += "The record describes the course of treatment in detail. "
	}
	return out
}

func testPipeline(t *testing.T, caseStore *memCaseStore, runStore *memRunStore, lm *fakeLM, fetch Fetcher) *Pipeline {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewPipeline(
		WithCaseRepository(caseStore),
		WithTrainingRunRepository(runStore),
		WithStorage(store),
		WithFetcher(fetch),
		WithLanguageModel(lm),
		WithLabelPace(0),
	)
}

func TestIngestFiltersByScrapePolicy(t *testing.T) {
	fetch := &fakeFetcher{cases: []*models.CaseRecord{
		{CaseID: 1, CaseName: "Doe v. Acme", FullText: relevantText(1)},
		{CaseID: 2, CaseName: "State v. Roe", FullText: "a criminal appeal about sentencing"},
		{CaseID: 3, CaseName: "Poe v. Mall (slip and fall)", FullText: "procedural order"},
	}}
	caseStore := newMemCaseStore()
	p := testPipeline(t, caseStore, &memRunStore{}, &fakeLM{}, fetch)

	stats, err := p.Ingest(context.Background(), "ca9", 10)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Fetched)
	assert.Equal(t, 2, stats.Kept, "text rule keeps case 1, name rule keeps case 3")
	_, hasCriminal := caseStore.cases[2]
	assert.False(t, hasCriminal)
}

func TestLabelCasesSkipsAndCountsFailures(t *testing.T) {
	amount := models.Amount(125000)
	caseStore := newMemCaseStore()
	seed := []*models.CaseRecord{
		{CaseID: 1, FullText: relevantText(1)},
		{CaseID: 2, FullText: "too short"},
		{CaseID: 3, FullText: "A lengthy opinion about a purely procedural matter with no relevant vocabulary at all. " + longFiller()},
	}
	for _, c := range seed {
		require.NoError(t, caseStore.Upsert(context.Background(), c))
	}

	lm := &fakeLM{labels: map[int]models.CaseLabels{
		0: {Injuries: models.InjuryList{"fracture"}, SettlementAmount: &amount, Gender: "Female"},
	}}
	p := testPipeline(t, caseStore, &memRunStore{}, lm, &fakeFetcher{})

	stats, err := p.LabelCases(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Candidates)
	assert.Equal(t, 1, stats.Labeled)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 0, stats.Failures)

	labeled, _ := caseStore.ListLabeled(context.Background())
	require.Len(t, labeled, 1)
	assert.Equal(t, models.GenderFemale, labeled[0].Gender)
}

func TestLabelCasesAggregatesLLMFailures(t *testing.T) {
	caseStore := newMemCaseStore()
	require.NoError(t, caseStore.Upsert(context.Background(), &models.CaseRecord{CaseID: 1, FullText: relevantText(1)}))
	require.NoError(t, caseStore.Upsert(context.Background(), &models.CaseRecord{CaseID: 2, FullText: relevantText(2)}))

	lm := &fakeLM{labelErr: errors.New("rate limited")}
	p := testPipeline(t, caseStore, &memRunStore{}, lm, &fakeFetcher{})

	stats, err := p.LabelCases(context.Background())
	require.NoError(t, err, "per-item failures never abort the batch")
	assert.Equal(t, 2, stats.Failures)
	assert.Equal(t, 0, stats.Labeled)
}

func TestBuildAndLoadIndexRoundTrip(t *testing.T) {
	caseStore := newMemCaseStore()
	require.NoError(t, caseStore.Upsert(context.Background(), &models.CaseRecord{CaseID: 1, CaseName: "A", FullText: "short text"}))
	require.NoError(t, caseStore.Upsert(context.Background(), &models.CaseRecord{CaseID: 2, CaseName: "B", FullText: "a somewhat longer text"}))
	require.NoError(t, caseStore.Upsert(context.Background(), &models.CaseRecord{CaseID: 3, CaseName: "C", FullText: ""}))

	p := testPipeline(t, caseStore, &memRunStore{}, &fakeLM{}, &fakeFetcher{})

	res, err := p.BuildIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Index.Len(), "empty-text case excluded")
	assert.Equal(t, 1, res.EmptySkips)

	loaded, err := p.LoadIndex(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
}

func TestLoadIndexMissingArtifact(t *testing.T) {
	p := testPipeline(t, newMemCaseStore(), &memRunStore{}, &fakeLM{}, &fakeFetcher{})

	_, err := p.LoadIndex(context.Background())
	assert.ErrorIs(t, err, storage.ErrArtifactNotFound)
}

func seedLabeledCorpus(t *testing.T, caseStore *memCaseStore, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		amount := models.Amount(20000 + 2500*float64(i%10))
		c := &models.CaseRecord{
			CaseID:           int64(i + 1),
			FullText:         relevantText(i),
			Injuries:         models.InjuryList{"fracture"},
			MedicalBills:     models.Amount(10000 * float64(i%10)),
			LostWages:        models.Amount(3000 * float64(i%7)),
			Age:              models.Years(25 + i%40),
			Gender:           models.GenderFemale,
			SettlementAmount: &amount,
		}
		if i%2 == 0 {
			c.Injuries = models.InjuryList{"spinal cord injury", "fracture"}
		}
		require.NoError(t, caseStore.Upsert(context.Background(), c))
	}
}

func TestTrainModelPersistsArtifactAndRun(t *testing.T) {
	caseStore := newMemCaseStore()
	seedLabeledCorpus(t, caseStore, 40)
	runStore := &memRunStore{}
	p := testPipeline(t, caseStore, runStore, &fakeLM{}, &fakeFetcher{})

	run, model, background, err := p.TrainModel(context.Background())
	require.NoError(t, err)
	require.NotNil(t, model)
	assert.Len(t, background, 40)
	assert.Equal(t, 32, run.TrainRows)
	assert.Equal(t, 8, run.HoldoutRows)
	assert.Contains(t, run.ModelPath, "models/")

	// The persisted artifact must load back as an equivalent model.
	loaded, loadedBG, err := p.LoadModel(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Schema, loaded.Schema)
	assert.Len(t, loadedBG, 40)
}

func TestTrainModelWithoutLabeledCases(t *testing.T) {
	p := testPipeline(t, newMemCaseStore(), &memRunStore{}, &fakeLM{}, &fakeFetcher{})

	_, _, _, err := p.TrainModel(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no labeled cases")
}
