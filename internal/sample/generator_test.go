package sample

import (
	"strings"
	"testing"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/erp/bulkship/internal/infrastructure/intake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		ok     bool
	}{
		{name: "defaults", modify: func(*Config) {}, ok: true},
		{name: "zero count", modify: func(c *Config) { c.Count = 0 }},
		{name: "negative ratio", modify: func(c *Config) { c.InternationalRatio = -0.1 }},
		{name: "ratio above one", modify: func(c *Config) { c.InternationalRatio = 1.5 }},
		{name: "unknown format", modify: func(c *Config) { c.Format = "csv" }},
		{name: "no regions", modify: func(c *Config) { c.Regions = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			_, err := New(cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestGenerator_SameSeedSameBatch(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seed = 42

	a, err := New(cfg)
	require.NoError(t, err)
	b, err := New(cfg)
	require.NoError(t, err)

	assert.Equal(t, a.Batch(), b.Batch())
}

func TestGenerator_TabularRecordsParse(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 40
	cfg.Seed = 7
	cfg.InternationalRatio = 0
	gen, err := New(cfg)
	require.NoError(t, err)

	records, err := intake.NewReader().Split(gen.Batch())
	require.NoError(t, err)
	require.Len(t, records, cfg.Count)

	parser := intake.NewParser()
	for _, rec := range records {
		assert.Equal(t, intake.KindTabular, rec.Kind)

		d, err := parser.ParseRecord(rec)
		require.NoError(t, err, rec.Text)
		assert.Contains(t, cfg.Regions, d.OriginRegion)

		v := shipment.Validate(rec.Line, d, nil)
		assert.True(t, v.Valid, "line %d: %v", rec.Line, v.Messages())
		assert.Equal(t, "US", v.Country)
		assert.Positive(t, v.WeightOz)
	}
}

func TestGenerator_InternationalRecords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 10
	cfg.Seed = 3
	cfg.InternationalRatio = 1
	gen, err := New(cfg)
	require.NoError(t, err)

	records, err := intake.NewReader().Split(gen.Batch())
	require.NoError(t, err)

	parser := intake.NewParser()
	for _, rec := range records {
		d, err := parser.ParseRecord(rec)
		require.NoError(t, err, rec.Text)

		v := shipment.Validate(rec.Line, d, nil)
		assert.True(t, v.Valid, "line %d: %v", rec.Line, v.Messages())
		assert.NotEqual(t, "US", v.Country)
	}
}

func TestGenerator_FreeTextBlocks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Count = 5
	cfg.Seed = 11
	cfg.Format = FormatFreeText
	gen, err := New(cfg)
	require.NoError(t, err)

	batch := gen.Batch()
	assert.NotContains(t, batch, "\t")

	records, err := intake.NewReader().Split(batch)
	require.NoError(t, err)
	require.Len(t, records, cfg.Count)

	for _, rec := range records {
		assert.Equal(t, intake.KindFreeText, rec.Kind)

		cols, err := intake.FreeTextToColumns(rec.Text)
		require.NoError(t, err, rec.Text)
		require.GreaterOrEqual(t, len(cols), intake.PositionalColumns)
		assert.True(t, strings.Contains(rec.Text, "Weight: "+cols[14]), rec.Text)
		assert.Contains(t, cols[5], "@")
	}
}
