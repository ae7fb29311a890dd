package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aggsnap/internal/model"
	"aggsnap/internal/provider"
	"aggsnap/internal/saver"
	"aggsnap/internal/schema"
	"aggsnap/internal/snapshot"
	"aggsnap/internal/transform"
)

type fakeProvider struct {
	bars  map[string][]model.RawBar
	errs  map[string]error
	calls []string
}

func (f *fakeProvider) GetName() string { return "Fake" }
func (f *fakeProvider) Close() error    { return nil }

func (f *fakeProvider) ListAggs(ctx context.Context, req provider.AggsRequest) ([]model.RawBar, error) {
	f.calls = append(f.calls, req.Ticker)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.errs[req.Ticker]; err != nil {
		return nil, err
	}
	return f.bars[req.Ticker], nil
}

var (
	runStart = time.Date(2025, 4, 1, 6, 0, 0, 0, time.UTC)
	window   = Job{
		Multiplier: 1,
		Timespan:   "day",
		From:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		To:         time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
)

func testBars(volumes ...float64) []model.RawBar {
	out := make([]model.RawBar, len(volumes))
	for i, v := range volumes {
		out[i] = model.RawBar{
			Open: null.FloatFrom(10), High: null.FloatFrom(12), Low: null.FloatFrom(9), Close: null.FloatFrom(11),
			Volume: null.FloatFrom(v), VWAP: null.FloatFrom(10.5),
			Timestamp:    null.IntFrom(time.Date(2025, 1, 2+i, 0, 0, 0, 0, time.UTC).UnixMilli()),
			Transactions: null.IntFrom(int64(i + 1)),
		}
	}
	return out
}

func newRunner(t *testing.T, fp *fakeProvider) (*Runner, string) {
	t.Helper()
	root := t.TempDir()
	tr, err := transform.New(nil)
	require.NoError(t, err)
	w := snapshot.NewWriter(nil)
	w.Now = func() time.Time { return runStart.Add(2 * time.Second) }
	return &Runner{
		Provider:    fp,
		Transformer: tr,
		Writer:      w,
		Layout:      snapshot.Layout{Root: root},
		ReportDir:   root,
	}, root
}

func withTickers(tickers ...string) Job {
	j := window
	j.Tickers = tickers
	return j
}

func TestRunWritesSnapshotPerTicker(t *testing.T) {
	fp := &fakeProvider{bars: map[string][]model.RawBar{
		"TEST": {
			{Open: null.FloatFrom(10), High: null.FloatFrom(12), Low: null.FloatFrom(9), Close: null.FloatFrom(12), Volume: null.FloatFrom(100),
				VWAP: null.FloatFrom(11), Timestamp: null.IntFrom(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli()), Transactions: null.IntFrom(1)},
			{Open: null.FloatFrom(12), High: null.FloatFrom(12), Low: null.FloatFrom(10), Close: null.FloatFrom(11), Volume: null.FloatFrom(50),
				VWAP: null.FloatFrom(11), Timestamp: null.IntFrom(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC).UnixMilli()), Transactions: null.IntFrom(2)},
			{Open: null.FloatFrom(11), High: null.FloatFrom(14), Low: null.FloatFrom(11), Close: null.FloatFrom(13), Volume: null.FloatFrom(200),
				VWAP: null.FloatFrom(12), Timestamp: null.IntFrom(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC).UnixMilli()), Transactions: null.IntFrom(3)},
		},
		"MSFT": testBars(1, 2),
	}}
	r, root := newRunner(t, fp)

	sum, err := r.Run(context.Background(), withTickers("TEST", "MSFT"), runStart)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Success)
	assert.Equal(t, 0, sum.Failed)
	assert.Equal(t, []string{"TEST", "MSFT"}, fp.calls)

	path := filepath.Join(root, "TEST", "asofdate=2025-03-31", "market_data_1.json")
	assert.Equal(t, path, sum.Results[0].Path)
	res, err := snapshot.Read(path)
	require.NoError(t, err)
	assert.Equal(t, 3, res.RecordsProcessed)
	assert.Equal(t, "Success", res.Status)
	assert.InDelta(t, 2.0, res.ExecutionTime, 1e-9)

	bars, err := res.Bars()
	require.NoError(t, err)
	phases := make([]model.Phase, len(bars))
	for i, b := range bars {
		phases[i] = b.MarketPhase
	}
	assert.Equal(t, []model.Phase{model.PhaseNeutral, model.PhaseNeutral, model.PhaseBull}, phases)
}

func TestRunIncrementsAttempt(t *testing.T) {
	fp := &fakeProvider{bars: map[string][]model.RawBar{"AAPL": testBars(1, 2, 3)}}
	r, root := newRunner(t, fp)

	for i := 0; i < 3; i++ {
		_, err := r.Run(context.Background(), withTickers("AAPL"), runStart)
		require.NoError(t, err)
	}
	dir := filepath.Join(root, "AAPL", "asofdate=2025-03-31")
	for n := 1; n <= 3; n++ {
		assert.FileExists(t, filepath.Join(dir, fmt.Sprintf("market_data_%d.json", n)))
	}
}

func TestRunIsolatesFailures(t *testing.T) {
	bad := testBars(1, 2)
	bad[1].Close = null.Float{}
	fp := &fakeProvider{
		bars: map[string][]model.RawBar{"BAD": bad, "GOOD": testBars(1, 2)},
		errs: map[string]error{"DOWN": errors.New("connection refused")},
	}
	r, root := newRunner(t, fp)

	sum, err := r.Run(context.Background(), withTickers("DOWN", "BAD", "EMPTY", "GOOD"), runStart)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Success)
	assert.Equal(t, 3, sum.Failed)
	assert.Equal(t, []string{"DOWN", "BAD", "EMPTY", "GOOD"}, fp.calls)

	assert.Equal(t, KindFetch, sum.Results[0].Kind)
	assert.Equal(t, KindSchema, sum.Results[1].Kind)
	var v *schema.Violation
	require.True(t, errors.As(sum.Results[1].Err, &v))
	assert.Equal(t, model.ColClose, v.Column())
	assert.ErrorIs(t, sum.Results[2].Err, provider.ErrNoData)
	assert.True(t, sum.Results[3].Ok())

	assert.NoDirExists(t, filepath.Join(root, "BAD"))

	var failed []failedEntry
	data, err := os.ReadFile(filepath.Join(root, ".lastrun.failed.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &failed))
	require.Len(t, failed, 3)
	assert.Equal(t, "DOWN", failed[0].Ticker)
	assert.Equal(t, "2025-01-01..2025-03-31", failed[0].DateRange)
	assert.Equal(t, KindSchema, failed[1].Kind)

	var success []string
	data, err = os.ReadFile(filepath.Join(root, ".lastrun.success.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &success))
	assert.Equal(t, []string{"GOOD"}, success)
}

func TestRunFailFast(t *testing.T) {
	fp := &fakeProvider{
		bars: map[string][]model.RawBar{"A": testBars(1), "C": testBars(1)},
		errs: map[string]error{"B": errors.New("boom")},
	}
	r, root := newRunner(t, fp)
	r.FailFast = true

	sum, err := r.Run(context.Background(), withTickers("A", "B", "C"), runStart)
	var fe *provider.FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "B", fe.Ticker)
	assert.Equal(t, []string{"A", "B"}, fp.calls)
	assert.Equal(t, 1, sum.Success)
	assert.FileExists(t, filepath.Join(root, "A", "asofdate=2025-03-31", "market_data_1.json"))
}

func TestRunStopsWhenCanceled(t *testing.T) {
	fp := &fakeProvider{bars: map[string][]model.RawBar{"A": testBars(1)}}
	r, _ := newRunner(t, fp)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := r.Run(ctx, withTickers("A", "B"), runStart)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fp.calls)
	assert.Empty(t, sum.Results)
}

func TestRunArchivesRawPackets(t *testing.T) {
	fp := &fakeProvider{bars: map[string][]model.RawBar{"AAPL": testBars(1, 2)}}
	r, root := newRunner(t, fp)
	archive, err := saver.NewPacketSaver("csv")
	require.NoError(t, err)
	r.Archive = archive
	r.ArchiveDir = filepath.Join(root, "raw")

	_, err = r.Run(context.Background(), withTickers("AAPL"), runStart)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "raw", "AAPL", "AAPL_2025-01-01_to_2025-03-31.csv"))
}

func TestRunRejectsPathTickers(t *testing.T) {
	fp := &fakeProvider{bars: map[string][]model.RawBar{"../ESC": testBars(1), "AAPL": testBars(1)}}
	r, root := newRunner(t, fp)
	r.Layout.Root = filepath.Join(root, "data")

	sum, err := r.Run(context.Background(), withTickers("../ESC", "AAPL"), runStart)
	require.NoError(t, err)
	assert.Equal(t, KindFetch, sum.Results[0].Kind)
	assert.ErrorIs(t, sum.Results[0].Err, provider.ErrInvalidRequest)
	assert.Equal(t, []string{"AAPL"}, fp.calls)
	assert.NoDirExists(t, filepath.Join(root, "ESC"))
}

func TestRunReportUsesRunnerLogger(t *testing.T) {
	fp := &fakeProvider{bars: map[string][]model.RawBar{"AAPL": testBars(1)}}
	r, _ := newRunner(t, fp)
	var buf bytes.Buffer
	r.Logger = slog.New(slog.NewTextHandler(&buf, nil))

	_, err := r.Run(context.Background(), withTickers("AAPL"), runStart)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "run report saved")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindFetch, Classify(&provider.FetchError{Err: errors.New("x")}))
	assert.Equal(t, KindCanceled, Classify(&provider.FetchError{Err: context.Canceled}))
	assert.Equal(t, KindSchema, Classify(&schema.Violation{}))
	assert.Equal(t, KindWrite, Classify(&snapshot.WriteError{Err: os.ErrExist}))
	assert.Equal(t, KindInternal, Classify(errors.New("?")))
}
