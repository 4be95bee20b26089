package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/couchcryptid/dengue-rainfall-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	opts := options{states: []string{"RS", "SC"}, year: 2014, seed: 7}

	var inc1, rain1, inc2, rain2 bytes.Buffer
	_, err := generate(&inc1, &rain1, opts)
	require.NoError(t, err)
	_, err = generate(&inc2, &rain2, opts)
	require.NoError(t, err)

	assert.Equal(t, inc1.String(), inc2.String())
	assert.Equal(t, rain1.String(), rain2.String())
}

func TestGenerate_RowsParse(t *testing.T) {
	var inc, rain bytes.Buffer
	stats, err := generate(&inc, &rain, options{states: []string{"PR"}, year: 2016, seed: 3})
	require.NoError(t, err)

	incLines := strings.Split(strings.TrimSuffix(inc.String(), "\n"), "\n")
	rainLines := strings.Split(strings.TrimSuffix(rain.String(), "\n"), "\n")
	require.Len(t, incLines, stats.incidence+1)
	require.Len(t, rainLines, stats.rainfall+1)
	assert.Equal(t, 366, stats.rainfall)

	for _, line := range incLines[1:] {
		rec, err := domain.ParseIncidence(line)
		require.NoError(t, err, line)
		_, err = rec.Key()
		require.NoError(t, err, line)
		_, err = rec.CaseCount()
		require.NoError(t, err, line)
	}
	for _, line := range rainLines[1:] {
		rec, err := domain.ParseRainfall(line)
		require.NoError(t, err, line)
		_, err = rec.Key()
		require.NoError(t, err, line)
		_, err = rec.Amount()
		require.NoError(t, err, line)
	}
}
