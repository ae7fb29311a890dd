package app

import (
	"context"
	"errors"
	"io"
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
	"aggsnap/internal/snapshot"
	"aggsnap/internal/tickers"
	"aggsnap/internal/transform"
)

var envKeys = []string{
	"PROVIDER", "POLYGON_API_KEY", "POLYGON_BASE_URL", "POLYGON_TICKERS", "TICKERS_FILE",
	"FROM_DATE", "TO_DATE", "TIMESPAN", "DATA_DIR", "RAW_FORMAT", "LOG_FILE", "LOG_LEVEL",
	"SCHEDULE", "MULTIPLIER", "MAX_RETRIES", "RUN_HOUR", "RUN_MINUTE", "FAIL_FAST", "TICKER_TIMEOUT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NO_DOTENV", "1")
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, "2025-01-01", cfg.From)
	assert.Equal(t, "2025-03-31", cfg.To)
	assert.Equal(t, filepath.Join("tmp", "logging.log"), cfg.LogFile)
}

func TestLoadConfigLayering(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "aggsnap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: http
api_key: from-yaml
tickers: [ibm]
data_dir: /srv/yaml
ticker_timeout: 45s
raw_format: parquet
`), 0o644))
	t.Setenv("POLYGON_API_KEY", "from-env")
	t.Setenv("DATA_DIR", "/srv/env")
	t.Setenv("FAIL_FAST", "true")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderHTTP, cfg.Provider)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, []string{"ibm"}, cfg.Tickers)
	assert.Equal(t, "/srv/env", cfg.DataDir)
	assert.Equal(t, 45*time.Second, cfg.TickerTimeout)
	assert.True(t, cfg.FailFast)

	off := false
	require.NoError(t, cfg.ApplyOverrides(Overrides{Tickers: `["aapl","msft"]`, DataDir: "/srv/flag", FailFast: &off}))
	require.NoError(t, cfg.Resolve())
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Tickers)
	assert.Equal(t, "/srv/flag", cfg.DataDir)
	assert.False(t, cfg.FailFast)
}

func TestLoadConfigTickersEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLYGON_API_KEY", "k")
	t.Setenv("POLYGON_TICKERS", `["aapl"]`)
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	require.NoError(t, cfg.Resolve())
	assert.Equal(t, []string{"AAPL"}, cfg.Tickers)

	t.Setenv("POLYGON_TICKERS", `AAPL`)
	cfg, err = LoadConfig("")
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.Resolve(), "POLYGON_TICKERS")
}

func TestTickersFlagOverridesMalformedEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("POLYGON_API_KEY", "k")
	t.Setenv("POLYGON_TICKERS", `AAPL`)
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.NoError(t, cfg.ApplyOverrides(Overrides{Tickers: `["msft"]`}))
	require.NoError(t, cfg.Resolve())
	assert.Equal(t, []string{"MSFT"}, cfg.Tickers)
}

func TestValidateRejectsPathTickers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "k"
	cfg.Tickers = []string{"AAPL", "../X", `A\B`, "BRK.B"}

	err := cfg.Validate()
	require.ErrorIs(t, err, tickers.ErrUnsafeSymbol)
	assert.ErrorContains(t, err, `"../X"`)
	assert.NotContains(t, err.Error(), "BRK.B")
}

func TestLoadConfigBadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("RUN_HOUR", "seven")
	t.Setenv("TICKER_TIMEOUT", "soon")
	_, err := LoadConfig("")
	require.Error(t, err)
	assert.ErrorContains(t, err, "RUN_HOUR")
	assert.ErrorContains(t, err, "TICKER_TIMEOUT")
}

func TestResolveTickersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tickers.txt")
	require.NoError(t, os.WriteFile(path, []byte("spy\n# comment\nqqq\n"), 0o644))

	cfg := DefaultConfig()
	cfg.APIKey = "k"
	cfg.TickersFile = path
	require.NoError(t, cfg.Resolve())
	assert.Equal(t, []string{"SPY", "QQQ"}, cfg.Tickers)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.From, cfg.To = "2025-04-01", "2025-03-31"
	cfg.Provider = "tiingo"
	cfg.RawFormat = "xml"
	cfg.RunHour = 24

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"api key", "no tickers", "tiingo", "after to", "xml", "run time"} {
		assert.ErrorContains(t, err, want)
	}
}

func TestNextRunTime(t *testing.T) {
	before := time.Date(2025, 4, 1, 0, 10, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 30, 0, 0, time.UTC), nextRunTime(before, 0, 30))

	after := time.Date(2025, 4, 1, 0, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 4, 2, 0, 30, 0, 0, time.UTC), nextRunTime(after, 0, 30))
}

type stubProvider struct{ bars map[string][]model.RawBar }

func (s stubProvider) GetName() string { return "Stub" }
func (s stubProvider) Close() error    { return nil }
func (s stubProvider) ListAggs(ctx context.Context, req provider.AggsRequest) ([]model.RawBar, error) {
	return s.bars[req.Ticker], nil
}

func TestRunFlowOnce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.APIKey = "k"
	cfg.DataDir = t.TempDir()
	cfg.Tickers = []string{"AAPL", "NONE"}
	cfg.RawFormat = "json"
	require.NoError(t, cfg.Validate())

	ts := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli()
	dp := stubProvider{bars: map[string][]model.RawBar{"AAPL": {{
		Open: null.FloatFrom(1), High: null.FloatFrom(2), Low: null.FloatFrom(1), Close: null.FloatFrom(2),
		Volume: null.FloatFrom(10), VWAP: null.FloatFrom(1.5), Timestamp: null.IntFrom(ts), Transactions: null.IntFrom(3),
	}}}}
	tr, err := transform.New(nil)
	require.NoError(t, err)
	ps, err := ProvidePacketSaver(cfg)
	require.NoError(t, err)
	runner := ProvideRunner(cfg, dp, tr, snapshot.NewWriter(nil), ps, nil)

	err = RunFlow(context.Background(), cfg, runner, nil, time.Now())
	var failed *ErrTickersFailed
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, 1, failed.Failed)
	assert.Equal(t, 2, failed.Total)

	assert.FileExists(t, filepath.Join(cfg.DataDir, "AAPL", "asofdate=2025-03-31", "market_data_1.json"))
	assert.FileExists(t, filepath.Join(cfg.DataDir, "raw", "AAPL", "AAPL_2025-01-01_to_2025-03-31.json"))
	assert.FileExists(t, filepath.Join(cfg.DataDir, ".lastrun.failed.json"))
}

func TestProvidePacketSaverDisabled(t *testing.T) {
	ps, err := ProvidePacketSaver(DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, ps)
}

func TestCreateProvider(t *testing.T) {
	cfg := DefaultConfig()
	_, err := CreateProvider(cfg, slogDiscard())
	require.Error(t, err)

	cfg.APIKey = "k"
	dp, err := CreateProvider(cfg, slogDiscard())
	require.NoError(t, err)
	assert.Equal(t, "Massive", dp.GetName())

	cfg.Provider = ProviderHTTP
	dp, err = CreateProvider(cfg, slogDiscard())
	require.NoError(t, err)
	assert.Equal(t, "Polygon", dp.GetName())
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
