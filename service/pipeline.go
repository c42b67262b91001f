package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/SandeshGitHub2077/LegalClaimGPT/classifier"
	"github.com/SandeshGitHub2077/LegalClaimGPT/features"
	"github.com/SandeshGitHub2077/LegalClaimGPT/ml"
	"github.com/SandeshGitHub2077/LegalClaimGPT/models"
	"github.com/SandeshGitHub2077/LegalClaimGPT/similarity"
	"github.com/SandeshGitHub2077/LegalClaimGPT/storage"
)

const (
	// minLabelTextLen is the shortest case text worth sending to the LLM;
	// anything shorter is boilerplate or a docket stub.
	minLabelTextLen = 100

	indexVectorsKey  = "index/vectors.bin"
	indexMetadataKey = "index/metadata.json"
)

// CaseStore is the persistence surface the pipeline needs for case records,
// implemented by repository.CaseRepository.
type CaseStore interface {
	Upsert(ctx context.Context, c *models.CaseRecord) error
	SaveLabels(ctx context.Context, c *models.CaseRecord) error
	SaveSummary(ctx context.Context, caseID int64, summary string) error
	List(ctx context.Context) ([]*models.CaseRecord, error)
	ListLabeled(ctx context.Context) ([]*models.CaseRecord, error)
	ListUnlabeled(ctx context.Context) ([]*models.CaseRecord, error)
}

// RunStore records training runs, implemented by
// repository.TrainingRunRepository.
type RunStore interface {
	Create(ctx context.Context, run *models.TrainingRun) error
	Latest(ctx context.Context) (*models.TrainingRun, error)
}

// Fetcher supplies raw opinions from the legal-data provider.
type Fetcher interface {
	FetchOpinions(ctx context.Context, court string, limit int) ([]*models.CaseRecord, error)
}

// LanguageModel is the LLM collaborator surface the pipeline needs.
type LanguageModel interface {
	Label(ctx context.Context, text string) (models.CaseLabels, error)
	Summarize(ctx context.Context, text string) (string, error)
	EmbedDocument(ctx context.Context, text string) ([]float64, error)
}

// Pipeline orchestrates the case intelligence flow: fetch, filter, label,
// summarize, index, train. Each stage isolates per-item failures — one bad
// case is logged and skipped, never aborting the batch — and reports them as
// aggregate counts.
type Pipeline struct {
	caseRepo     CaseStore
	runRepo      RunStore
	store        storage.Storage
	fetcher      Fetcher
	lm           LanguageModel
	scrapePolicy classifier.Policy
	labelPolicy  classifier.Policy
	trainConfig  ml.Config
	labelPace    time.Duration
}

// PipelineOption is a functional option for Pipeline
type PipelineOption func(*Pipeline)

// WithCaseRepository sets the case store
func WithCaseRepository(repo CaseStore) PipelineOption {
	return func(p *Pipeline) {
		p.caseRepo = repo
	}
}

// WithTrainingRunRepository sets the training run store
func WithTrainingRunRepository(repo RunStore) PipelineOption {
	return func(p *Pipeline) {
		p.runRepo = repo
	}
}

// WithStorage sets the artifact storage backend
func WithStorage(store storage.Storage) PipelineOption {
	return func(p *Pipeline) {
		p.store = store
	}
}

// WithFetcher sets the opinion fetcher
func WithFetcher(f Fetcher) PipelineOption {
	return func(p *Pipeline) {
		p.fetcher = f
	}
}

// WithLanguageModel sets the LLM collaborator
func WithLanguageModel(lm LanguageModel) PipelineOption {
	return func(p *Pipeline) {
		p.lm = lm
	}
}

// WithScrapePolicy overrides the scrape-time relevance policy
func WithScrapePolicy(pol classifier.Policy) PipelineOption {
	return func(p *Pipeline) {
		p.scrapePolicy = pol
	}
}

// WithLabelPolicy overrides the label-time relevance policy
func WithLabelPolicy(pol classifier.Policy) PipelineOption {
	return func(p *Pipeline) {
		p.labelPolicy = pol
	}
}

// WithTrainConfig overrides the boosting configuration
func WithTrainConfig(cfg ml.Config) PipelineOption {
	return func(p *Pipeline) {
		p.trainConfig = cfg
	}
}

// WithLabelPace sets the delay between labeling calls (rate limiting)
func WithLabelPace(d time.Duration) PipelineOption {
	return func(p *Pipeline) {
		p.labelPace = d
	}
}

// NewPipeline creates a new pipeline service
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		scrapePolicy: classifier.ScrapePolicy(),
		labelPolicy:  classifier.LabelPolicy(),
		trainConfig:  ml.DefaultConfig(),
		labelPace:    time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IngestStats reports one ingestion run.
type IngestStats struct {
	Fetched int
	Kept    int
}

// Ingest fetches opinions, keeps the ones the scrape-time policy accepts
// (text rule OR name rule) and upserts them.
func (p *Pipeline) Ingest(ctx context.Context, court string, limit int) (IngestStats, error) {
	var stats IngestStats

	cases, err := p.fetcher.FetchOpinions(ctx, court, limit)
	if err != nil {
		return stats, fmt.Errorf("failed to fetch opinions: %w", err)
	}
	stats.Fetched = len(cases)

	for _, c := range cases {
		if !p.scrapePolicy.Relevant(c.FullText, c.CaseName) {
			continue
		}
		if err := p.caseRepo.Upsert(ctx, c); err != nil {
			return stats, err
		}
		stats.Kept++
	}
	return stats, nil
}

// LabelStats reports one labeling run. Failures counts LLM calls that
// errored or returned unparseable output; those cases stay unlabeled and are
// retried on the next run.
type LabelStats struct {
	Candidates int
	Labeled    int
	Skipped    int
	Failures   int
}

// LabelCases runs the label-time filter over unlabeled cases and enriches
// the survivors through the LLM.
func (p *Pipeline) LabelCases(ctx context.Context) (LabelStats, error) {
	var stats LabelStats

	cases, err := p.caseRepo.ListUnlabeled(ctx)
	if err != nil {
		return stats, err
	}
	stats.Candidates = len(cases)

	for i, c := range cases {
		text := strings.TrimSpace(c.FullText)
		if len(text) < minLabelTextLen {
			log.Printf("Case %d text too short (%d chars), skipping", c.CaseID, len(text))
			stats.Skipped++
			continue
		}
		if !p.labelPolicy.TextRelevant(text) {
			log.Printf("Case %d not relevant for labeling, skipping", c.CaseID)
			stats.Skipped++
			continue
		}

		labels, err := p.lm.Label(ctx, text)
		if err != nil {
			log.Printf("Labeling failed for case %d: %v", c.CaseID, err)
			stats.Failures++
			continue
		}

		c.ApplyLabels(labels)
		if err := p.caseRepo.SaveLabels(ctx, c); err != nil {
			return stats, err
		}
		stats.Labeled++

		if p.labelPace > 0 && i < len(cases)-1 {
			time.Sleep(p.labelPace)
		}
	}
	return stats, nil
}

// SummarizeStats reports one summarization run.
type SummarizeStats struct {
	Summarized int
	Failures   int
}

// SummarizeCases generates plain-language summaries for cases that have none.
func (p *Pipeline) SummarizeCases(ctx context.Context) (SummarizeStats, error) {
	var stats SummarizeStats

	cases, err := p.caseRepo.List(ctx)
	if err != nil {
		return stats, err
	}

	for _, c := range cases {
		if c.Summary != "" || c.FullText == "" {
			continue
		}
		summary, err := p.lm.Summarize(ctx, c.FullText)
		if err != nil {
			log.Printf("Summarization failed for case %d: %v", c.CaseID, err)
			stats.Failures++
			continue
		}
		if err := p.caseRepo.SaveSummary(ctx, c.CaseID, summary); err != nil {
			return stats, err
		}
		stats.Summarized++
	}
	return stats, nil
}

// BuildIndex embeds every stored case and persists the resulting flat index
// as two artifacts: the binary vector blob and the parallel JSON metadata.
func (p *Pipeline) BuildIndex(ctx context.Context) (*similarity.BuildResult, error) {
	cases, err := p.caseRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	res, err := similarity.Build(ctx, cases, p.lm.EmbedDocument)
	if err != nil {
		return nil, err
	}

	vecs, err := res.Index.EncodeVectors()
	if err != nil {
		return nil, err
	}
	meta, err := res.Index.EncodeMetadata()
	if err != nil {
		return nil, err
	}
	if err := p.store.Put(ctx, indexVectorsKey, bytes.NewReader(vecs)); err != nil {
		return nil, err
	}
	if err := p.store.Put(ctx, indexMetadataKey, bytes.NewReader(meta)); err != nil {
		return nil, err
	}
	return res, nil
}

// LoadIndex restores the persisted similarity index. A missing artifact is
// surfaced as storage.ErrArtifactNotFound.
func (p *Pipeline) LoadIndex(ctx context.Context) (*similarity.Index, error) {
	vecs, err := storage.GetBytes(ctx, p.store, indexVectorsKey)
	if err != nil {
		return nil, err
	}
	meta, err := storage.GetBytes(ctx, p.store, indexMetadataKey)
	if err != nil {
		return nil, err
	}
	return similarity.Decode(vecs, meta)
}

// TrainModel extracts features from the labeled cases, trains and evaluates
// the estimator, persists the artifact and records the run. The returned
// background matrix is the full training matrix, used as the attribution
// baseline.
func (p *Pipeline) TrainModel(ctx context.Context) (*models.TrainingRun, *ml.Model, [][]float64, error) {
	cases, err := p.caseRepo.ListLabeled(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	X, y := features.ExtractTraining(cases)
	if len(X) == 0 {
		return nil, nil, nil, fmt.Errorf("no labeled cases to train on")
	}

	model, eval, err := ml.TrainEvaluate(X, y, features.Schema, p.trainConfig)
	if err != nil {
		return nil, nil, nil, err
	}

	data, err := model.Encode()
	if err != nil {
		return nil, nil, nil, err
	}

	runID := uuid.New()
	run := &models.TrainingRun{
		ID:           runID,
		TrainRows:    eval.TrainRows,
		HoldoutRows:  eval.HoldoutRows,
		MAE:          eval.MAE,
		R2:           eval.R2,
		Rounds:       p.trainConfig.Rounds,
		LearningRate: p.trainConfig.LearningRate,
		MaxDepth:     p.trainConfig.MaxDepth,
		ModelPath:    fmt.Sprintf("models/%s.gob", runID),
	}
	if err := p.store.Put(ctx, run.ModelPath, bytes.NewReader(data)); err != nil {
		return nil, nil, nil, err
	}
	if err := p.runRepo.Create(ctx, run); err != nil {
		return nil, nil, nil, err
	}

	log.Printf("Model trained: %d train rows, %d holdout rows, MAE %.2f, R2 %.4f",
		eval.TrainRows, eval.HoldoutRows, eval.MAE, eval.R2)
	return run, model, X, nil
}

// LoadModel restores the estimator from the latest recorded training run,
// along with the background matrix recomputed from the labeled corpus.
func (p *Pipeline) LoadModel(ctx context.Context) (*ml.Model, [][]float64, error) {
	run, err := p.runRepo.Latest(ctx)
	if err != nil {
		return nil, nil, err
	}

	data, err := storage.GetBytes(ctx, p.store, run.ModelPath)
	if err != nil {
		return nil, nil, err
	}
	model, err := ml.DecodeModel(data)
	if err != nil {
		return nil, nil, err
	}
	if err := model.ValidateSchema(features.Schema); err != nil {
		return nil, nil, err
	}

	cases, err := p.caseRepo.ListLabeled(ctx)
	if err != nil {
		return nil, nil, err
	}
	X, _ := features.ExtractTraining(cases)
	return model, X, nil
}

// Refresh runs the full pipeline end to end and publishes the new artifacts
// on the predictor. Used by the scheduled corpus refresh.
func (p *Pipeline) Refresh(ctx context.Context, court string, limit int, pred *Predictor) error {
	ingest, err := p.Ingest(ctx, court, limit)
	if err != nil {
		return err
	}
	log.Printf("Refresh: fetched %d opinions, kept %d", ingest.Fetched, ingest.Kept)

	labels, err := p.LabelCases(ctx)
	if err != nil {
		return err
	}
	log.Printf("Refresh: labeled %d of %d candidates (%d skipped, %d failures)",
		labels.Labeled, labels.Candidates, labels.Skipped, labels.Failures)

	idx, err := p.BuildIndex(ctx)
	if err != nil {
		return err
	}
	log.Printf("Refresh: index rebuilt with %d entries (%d empty, %d failed)",
		idx.Index.Len(), idx.EmptySkips, idx.FailedCases)

	_, model, background, err := p.TrainModel(ctx)
	if err != nil {
		return err
	}

	pred.PublishIndex(idx.Index)
	pred.PublishModel(model, background)
	return nil
}
