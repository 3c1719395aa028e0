// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FarbodDadkhah/investment-analyst-tool/pkg/types"
)

func testBatch() types.ResearchBatch {
	links := make([]string, 20)
	for i := range links {
		links[i] = fmt.Sprintf("https://example.com/report-%d", i)
	}
	return types.ResearchBatch{
		CompanyName:      "Harvey AI",
		GeneralObjective: "Market & Competition",
		ResearchResults: []types.ResearchResult{
			{GeneralObjective: "Market & Competition", SubObjective: "TAM sizing", Links: links},
			{GeneralObjective: "Market & Competition", SubObjective: "Market maturity", Links: links},
		},
		Failures: []types.Failure{
			{SubObjective: "Growth drivers", Error: "generating links: retries exhausted"},
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.StoreConfig{ArchiveDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, testBatch(), time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	got, err := s.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, "Harvey AI", got.CompanyName)
	assert.Equal(t, "Market & Competition", got.GeneralObjective)
	require.Len(t, got.ResearchResults, 2)
	assert.Equal(t, "TAM sizing", got.ResearchResults[0].SubObjective)
	assert.Equal(t, "Market maturity", got.ResearchResults[1].SubObjective)
	assert.Len(t, got.ResearchResults[0].Links, 20)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, "Growth drivers", got.Failures[0].SubObjective)
}

func TestGetMissingBatch(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	_, err := s.Save(ctx, testBatch(), now)
	require.NoError(t, err)

	other := testBatch()
	other.CompanyName = "EvenUp"
	_, err = s.Save(ctx, other, now.Add(time.Minute))
	require.NoError(t, err)

	rows, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Newest first.
	assert.Equal(t, "EvenUp", rows[0].CompanyName)
	assert.Equal(t, "Harvey AI", rows[1].CompanyName)
	assert.Equal(t, 2, rows[0].Succeeded)
	assert.Equal(t, 1, rows[0].Failed)

	filtered, err := s.List(ctx, "Harvey AI")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "Harvey AI", filtered[0].CompanyName)
}

func TestListRespectsMaxResults(t *testing.T) {
	s, err := NewStore(types.StoreConfig{ArchiveDir: t.TempDir(), MaxResults: 2})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Save(ctx, testBatch(), time.Now())
		require.NoError(t, err)
	}

	rows, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestBatchFilename(t *testing.T) {
	now := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)

	assert.Equal(t, "Harvey_AI_layer1_20260830_140509.json",
		BatchFilename("Harvey AI", now, FormatJSON))
	assert.Equal(t, "Harvey_AI_layer1_20260830_140509.yaml",
		BatchFilename("Harvey AI", now, FormatYAML))
}

func TestWriteBatchFileJSON(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)

	path, err := WriteBatchFile(dir, testBatch(), now, FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Harvey_AI_layer1_20260830_140509.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// The persisted shape is the stable downstream contract.
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Harvey AI", decoded["company_name"])
	assert.Equal(t, "Market & Competition", decoded["general_objective"])

	results, ok := decoded["research_results"].([]any)
	require.True(t, ok)
	assert.Len(t, results, 2)
	first := results[0].(map[string]any)
	assert.Equal(t, "TAM sizing", first["sub_objective"])
	assert.Len(t, first["links"].([]any), 20)

	failures, ok := decoded["failures"].([]any)
	require.True(t, ok)
	require.Len(t, failures, 1)
	assert.Equal(t, "Growth drivers", failures[0].(map[string]any)["sub_objective"])
}

func TestWriteBatchFileYAML(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteBatchFile(dir, testBatch(), time.Now(), FormatYAML)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "company_name: Harvey AI")
}

func TestWriteBatchFileUnknownFormat(t *testing.T) {
	_, err := WriteBatchFile(t.TempDir(), testBatch(), time.Now(), Format("xml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestEncodeDecodeLinks(t *testing.T) {
	links := []string{"https://a", "https://b"}
	assert.Equal(t, links, decodeLinks(encodeLinks(links)))
	assert.Nil(t, decodeLinks("not json"))
}
