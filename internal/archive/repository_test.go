package archive

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmarks/debasement/internal/contracts"
	"github.com/dmarks/debasement/pkg/config"
	"github.com/dmarks/debasement/pkg/database"
	"github.com/dmarks/debasement/pkg/logger"
)

// testRepository connects to the database named by DATABASE_URL.
// These are integration tests; run without -short and with a database.
func testRepository(t *testing.T) *Repository {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping archive integration test in short mode")
	}

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}

	cfg := &config.Config{Env: "development", LogLevel: "error"}
	cfg.Database.URL = url
	cfg.Database.MaxConns = 2
	cfg.Database.MinConns = 1
	cfg.Database.MaxConnLifetime = time.Hour
	cfg.Database.MaxConnIdleTime = time.Minute

	db, err := database.New(cfg)
	require.NoError(t, err, "database connection failed")
	t.Cleanup(db.Close)

	repo := NewRepository(db, logger.New(cfg))
	require.NoError(t, repo.Init(context.Background()), "init failed")
	return repo
}

func TestReturnsRoundTrip(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	in := contracts.ReturnsResult{
		Symbol:             "TEST-GLD",
		InflationMeasure:   "CPI",
		StartDate:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Days:               124,
		Years:              124.0 / 252,
		TotalNominalPct:    12.5,
		TotalRealPct:       9.1,
		AnnualizedReal:     0.19,
		RealSharpe:         1.1,
		NominalReturns:     []float64{0, 0.01, -0.002},
		RealReturns:        []float64{0, 0.009, -0.0021},
		InflationReturns:   []float64{0, 0.001, 0.0001},
		CumulativeNominal:  []float64{1, 1.01, 1.00798},
		CumulativeReal:     []float64{1, 1.009, 1.0068811},
		SyntheticInflation: true,
	}

	require.NoError(t, repo.SaveReturns(ctx, in))

	out, err := repo.GetReturns(ctx, in.Symbol, in.StartDate, in.EndDate)
	require.NoError(t, err)

	assert.Equal(t, in.TotalRealPct, out.TotalRealPct)
	assert.Equal(t, in.Days, out.Days)
	assert.Equal(t, in.InflationMeasure, out.InflationMeasure)
	assert.Equal(t, in.RealReturns, out.RealReturns)
	assert.Equal(t, in.CumulativeNominal, out.CumulativeNominal)
	assert.True(t, out.SyntheticInflation, "synthetic flag lost")

	// Upsert: saving again must not error or duplicate.
	in.TotalRealPct = 9.2
	require.NoError(t, repo.SaveReturns(ctx, in), "upsert failed")

	out, err = repo.GetReturns(ctx, in.Symbol, in.StartDate, in.EndDate)
	require.NoError(t, err)
	assert.Equal(t, 9.2, out.TotalRealPct, "upsert should update")
}

func TestGetReturnsNotFound(t *testing.T) {
	repo := testRepository(t)

	_, err := repo.GetReturns(context.Background(), "NO-SUCH",
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, ErrNotFound), "err = %v, want ErrNotFound", err)
}

func TestCompositeLatest(t *testing.T) {
	repo := testRepository(t)
	ctx := context.Background()

	signal := contracts.CompositeSignal{
		Score:       -2.5,
		Strength:    2.5,
		Direction:   contracts.DirectionBearish,
		Level:       contracts.LevelMedium,
		GeneratedAt: time.Now().UTC().Truncate(time.Millisecond),
		Signals: []contracts.Signal{
			{Type: "inflation_divergence", Direction: contracts.DirectionBearish,
				Severity: contracts.SeverityHigh, Strength: 1.25},
		},
	}

	require.NoError(t, repo.SaveComposite(ctx, signal))

	latest, err := repo.LatestComposite(ctx)
	require.NoError(t, err)

	assert.Equal(t, signal.Score, latest.Score)
	assert.Equal(t, signal.Level, latest.Level)
	assert.Len(t, latest.Signals, 1)
}
