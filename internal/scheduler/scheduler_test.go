package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/tradeadvisor/internal/domain"
	"github.com/aristath/tradeadvisor/internal/modules/advisor"
	"github.com/aristath/tradeadvisor/internal/modules/features"
	"github.com/aristath/tradeadvisor/internal/modules/journal"
	"github.com/aristath/tradeadvisor/internal/modules/scoring"
	testingpkg "github.com/aristath/tradeadvisor/internal/testing"
)

type countingJob struct {
	runs int
	err  error
}

func (j *countingJob) Run(ctx context.Context) error {
	j.runs++
	return j.err
}

func (j *countingJob) Name() string { return "counting" }

// blockingJob runs until its context is cancelled
type blockingJob struct {
	started chan struct{}
	done    chan error
}

func (j *blockingJob) Run(ctx context.Context) error {
	close(j.started)
	<-ctx.Done()
	j.done <- ctx.Err()
	return ctx.Err()
}

func (j *blockingJob) Name() string { return "blocking" }

func TestScheduler_AddJob(t *testing.T) {
	s := New(zerolog.Nop())

	require.NoError(t, s.AddJob("0 0 * * * *", &countingJob{}))
	err := s.AddJob("every tuesday", &countingJob{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "counting")
	assert.Equal(t, 1, s.Entries())
}

func TestScheduler_RunNowRecordsOutcome(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{err: errors.New("boom")}

	_, ok := s.Record("counting")
	assert.False(t, ok)

	assert.Error(t, s.RunNow(context.Background(), job))
	assert.Equal(t, 1, job.runs)
	rec, ok := s.Record("counting")
	require.True(t, ok)
	assert.Equal(t, 1, rec.Runs)
	assert.Equal(t, "boom", rec.LastError)
	assert.False(t, rec.LastFinish.Before(rec.LastStart))

	job.err = nil
	require.NoError(t, s.RunNow(context.Background(), job))
	rec, _ = s.Record("counting")
	assert.Equal(t, 2, rec.Runs)
	assert.Empty(t, rec.LastError)
}

func TestScheduler_RegisterAdvisory(t *testing.T) {
	_, svc, repo := newScanFixture(t)
	db := testingpkg.NewTestDB(t, "journal")
	scan := NewAdvisoryScanJob(svc, repo, []domain.AssetClass{domain.Equity}, zerolog.Nop())

	s := New(zerolog.Nop())
	assert.Error(t, s.RegisterAdvisory(Advisory{}))

	require.NoError(t, s.RegisterAdvisory(Advisory{Scan: scan, ScanCron: "0 */30 * * * *"}))
	assert.Equal(t, 1, s.Entries())

	s = New(zerolog.Nop())
	require.NoError(t, s.RegisterAdvisory(Advisory{
		Scan:      scan,
		ScanCron:  "0 */30 * * * *",
		Check:     NewCheckJournalJob(db, zerolog.Nop()),
		CheckCron: "0 0 3 * * *",
	}))
	assert.Equal(t, 2, s.Entries())

	s = New(zerolog.Nop())
	assert.Error(t, s.RegisterAdvisory(Advisory{Scan: scan, ScanCron: "soon"}))
}

func TestScheduler_StopCancelsRunningJob(t *testing.T) {
	s := New(zerolog.Nop())
	job := &blockingJob{started: make(chan struct{}), done: make(chan error, 1)}
	require.NoError(t, s.AddJob("@every 1s", job))

	s.Start()
	select {
	case <-job.started:
	case <-time.After(5 * time.Second):
		t.Fatal("job was not started")
	}
	s.Stop()

	assert.ErrorIs(t, <-job.done, context.Canceled)
	rec, ok := s.Record("blocking")
	require.True(t, ok)
	assert.Equal(t, context.Canceled.Error(), rec.LastError)
}

func newScanFixture(t *testing.T) (*testingpkg.MockBrokerGateway, *advisor.Service, *journal.Repository) {
	t.Helper()
	gw := new(testingpkg.MockBrokerGateway)
	svc := advisor.NewService(
		gw,
		features.NewExtractor(features.DefaultConfig()),
		scoring.NewScorer(scoring.DefaultThreshold),
		domain.DefaultHistoryWindow,
		zerolog.Nop(),
	)
	db := testingpkg.NewTestDB(t, "journal")
	return gw, svc, journal.NewRepository(db.Conn(), zerolog.Nop())
}

func TestAdvisoryScanJob_JournalsSignals(t *testing.T) {
	gw, svc, repo := newScanFixture(t)
	gw.On("GetPositions", mock.Anything, domain.Equity).Return([]domain.Position{
		testingpkg.NewPositionFixture("TSLA", "Tesla", domain.Equity, "2", "200"),
		testingpkg.NewPositionFixture("AAPL", "Apple", domain.Equity, "1", "180"),
	}, nil)
	gw.On("GetHistory", mock.Anything, "TSLA", domain.Equity, mock.Anything).
		Return(testingpkg.NewFallingBars(60, 250), nil)
	gw.On("GetHistory", mock.Anything, "AAPL", domain.Equity, mock.Anything).
		Return(nil, errors.New("rate limited"))

	job := NewAdvisoryScanJob(svc, repo, []domain.AssetClass{domain.Equity}, zerolog.Nop())
	require.NoError(t, job.Run(context.Background()))

	ctx := context.Background()
	runs, err := repo.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, journal.RunScan, runs[0].Kind)
	assert.NotNil(t, runs[0].FinishedAt)

	signals, err := repo.ListSignals(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, "TSLA", signals[0].Ticker)
	assert.True(t, signals[0].ExpectedFall)
}

func TestAdvisoryScanJob_ContinuesAfterClassFailure(t *testing.T) {
	gw, svc, repo := newScanFixture(t)
	gw.On("GetPositions", mock.Anything, domain.Equity).Return(nil, errors.New("unauthorized"))
	gw.On("GetPositions", mock.Anything, domain.Crypto).Return([]domain.Position{}, nil)

	job := NewAdvisoryScanJob(svc, repo, []domain.AssetClass{domain.Equity, domain.Crypto}, zerolog.Nop())
	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")

	runs, err := repo.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	gw.AssertNumberOfCalls(t, "GetPositions", 2)
}

func TestAdvisoryScanJob_WithoutJournal(t *testing.T) {
	gw, svc, _ := newScanFixture(t)
	gw.On("GetPositions", mock.Anything, domain.Crypto).Return([]domain.Position{}, nil)

	job := NewAdvisoryScanJob(svc, nil, []domain.AssetClass{domain.Crypto}, zerolog.Nop())
	assert.NoError(t, job.Run(context.Background()))
}

func TestCheckJournalJob(t *testing.T) {
	db := testingpkg.NewTestDB(t, "journal")
	job := NewCheckJournalJob(db, zerolog.Nop())
	assert.Equal(t, "check_journal", job.Name())
	assert.NoError(t, job.Run(context.Background()))
}
