package harvest

import (
	"context"
	"fmt"
	"testing"

	"github.com/RecoveryAshes/ModelHarvest/internal/models"
	"github.com/RecoveryAshes/ModelHarvest/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRunDate = "20240315"

func newTestCollector(store storage.Store, fetcher DetailFetcher) *ResumableCollector {
	c := NewResumableCollector(store, fetcher, CollectorOptions{RunDate: testRunDate})
	c.SetClock(fixedClock())
	return c
}

func loadDaily(t *testing.T, store storage.Store) models.CatalogDocument {
	t.Helper()
	var doc models.CatalogDocument
	found, err := store.Load(storage.DailyKey(testRunDate), &doc)
	require.NoError(t, err)
	require.True(t, found)
	return doc
}

// llama2成功、mistral提取失败: 只写入一次检查点,mistral留给下次运行
func TestCollector_SkipsFailedModel(t *testing.T) {
	store := storage.NewMemoryStore()
	fetcher := &fakeFetcher{
		facts: map[string]*models.DetailFacts{"llama2": sampleFacts("7b", "3.8GB")},
		errs:  map[string]error{"mistral": fmt.Errorf("%w: timeout", models.ErrDetailExtraction)},
	}

	collector := newTestCollector(store, fetcher)
	doc, err := collector.Run(context.Background(), summaries("llama2", "mistral"))
	require.NoError(t, err)

	require.Len(t, doc.Models, 1)
	assert.Equal(t, "llama2", doc.Models[0].Name)
	assert.Equal(t, "ollama run llama2", doc.Models[0].RunCommand)
	assert.Equal(t, []string{"7b"}, doc.Models[0].Tags)
	assert.Equal(t, 1, store.SaveCount(storage.DailyKey(testRunDate)))

	stats := collector.Stats()
	assert.Equal(t, 1, stats.Fetched)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Checkpoints)
	assert.Equal(t, []string{"mistral"}, stats.FailedNames)

	persisted := loadDaily(t, store)
	assert.Equal(t, "2024-03-15T10:30:00.000000", persisted.LastUpdated)
	assert.False(t, persisted.Names()["mistral"])

	// 第二次运行只会重试mistral
	fetcher.errs = nil
	fetcher.facts["mistral"] = sampleFacts("7b", "4.1GB")
	fetcher.calls = nil

	doc, err = collector.Run(context.Background(), summaries("llama2", "mistral"))
	require.NoError(t, err)
	assert.Equal(t, []string{"mistral"}, fetcher.calls)
	assert.Len(t, doc.Models, 2)
	assert.Equal(t, 1, collector.Stats().Resumed)
}

func TestCollector_IdempotentResume(t *testing.T) {
	store := storage.NewMemoryStore()
	fetcher := &fakeFetcher{facts: map[string]*models.DetailFacts{
		"llama2":  sampleFacts("7b", "3.8GB"),
		"mistral": sampleFacts("7b", "4.1GB"),
	}}

	first, err := newTestCollector(store, fetcher).Run(context.Background(), summaries("llama2", "mistral"))
	require.NoError(t, err)
	savesAfterFirst := store.SaveCount(storage.DailyKey(testRunDate))
	assert.Equal(t, 2, savesAfterFirst)

	fetcher.calls = nil
	second, err := newTestCollector(store, fetcher).Run(context.Background(), summaries("llama2", "mistral"))
	require.NoError(t, err)

	assert.Empty(t, fetcher.calls)
	assert.Equal(t, savesAfterFirst, store.SaveCount(storage.DailyKey(testRunDate)))
	assert.Equal(t, first.Models, second.Models)
}

func TestCollector_AbortsOnBrowsingSession(t *testing.T) {
	store := storage.NewMemoryStore()
	fetcher := &fakeFetcher{
		facts: map[string]*models.DetailFacts{
			"llama2": sampleFacts("7b", "3.8GB"),
			"gemma":  sampleFacts("2b", "1.7GB"),
		},
		errs: map[string]error{"mistral": fmt.Errorf("%w: chrome crashed", models.ErrBrowsingSession)},
	}

	doc, err := newTestCollector(store, fetcher).Run(context.Background(), summaries("llama2", "mistral", "gemma"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBrowsingSession)

	assert.Equal(t, []string{"llama2", "mistral"}, fetcher.calls)
	require.Len(t, doc.Models, 1)

	persisted := loadDaily(t, store)
	require.Len(t, persisted.Models, 1)
	assert.Equal(t, "llama2", persisted.Models[0].Name)
}

// 读取页面文本时会话失效,经由DetailHarvester也必须中止运行
func TestCollector_AbortsWhenTextReadLosesSession(t *testing.T) {
	store := storage.NewMemoryStore()
	page := newFakePage()
	page.contents[models.DetailURL(testBaseURL, "llama2")] = &fakeContent{
		textErr: fmt.Errorf("%w: target closed", models.ErrBrowsingSession),
	}
	page.contents[models.DetailURL(testBaseURL, "mistral")] = &fakeContent{text: "mistral\nThe 7B model"}

	harvester := NewDetailHarvester(page, NewExtractor(WithStrategies(TextScanStrategy{})), testBaseURL, 0)
	collector := newTestCollector(store, harvester)

	_, err := collector.Run(context.Background(), summaries("llama2", "mistral"))
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrBrowsingSession)

	assert.Equal(t, []string{models.DetailURL(testBaseURL, "llama2")}, page.navigated)
	assert.Empty(t, collector.Stats().FailedNames)
	assert.Equal(t, 0, store.SaveCount(storage.DailyKey(testRunDate)))
}

func TestCollector_CorruptSnapshotAborts(t *testing.T) {
	store := storage.NewMemoryStore()
	key := storage.DailyKey(testRunDate)
	store.Put(key, []byte("{not json"))
	fetcher := &fakeFetcher{}

	_, err := newTestCollector(store, fetcher).Run(context.Background(), summaries("llama2"))
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Empty(t, fetcher.calls)

	raw, _ := store.Raw(key)
	assert.Equal(t, "{not json", string(raw))
}

func TestCollector_CheckpointFailureAborts(t *testing.T) {
	store := storage.NewMemoryStore()
	store.FailSave(storage.DailyKey(testRunDate), errFake)
	fetcher := &fakeFetcher{facts: map[string]*models.DetailFacts{
		"llama2":  sampleFacts("7b", "3.8GB"),
		"mistral": sampleFacts("7b", "4.1GB"),
	}}

	_, err := newTestCollector(store, fetcher).Run(context.Background(), summaries("llama2", "mistral"))
	assert.ErrorIs(t, err, models.ErrPersistence)
	assert.Equal(t, []string{"llama2"}, fetcher.calls)
}

func TestCollector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := storage.NewMemoryStore()
	fetcher := &fakeFetcher{errs: map[string]error{"llama2": context.Canceled}}

	_, err := newTestCollector(store, fetcher).Run(ctx, summaries("llama2", "mistral"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"llama2"}, fetcher.calls)
}

func TestCollector_DuplicateSummaries(t *testing.T) {
	store := storage.NewMemoryStore()
	fetcher := &fakeFetcher{facts: map[string]*models.DetailFacts{"llama2": sampleFacts("7b", "3.8GB")}}

	doc, err := newTestCollector(store, fetcher).Run(context.Background(), summaries("llama2", "llama2"))
	require.NoError(t, err)
	assert.Len(t, doc.Models, 1)
	assert.Equal(t, []string{"llama2"}, fetcher.calls)
}
