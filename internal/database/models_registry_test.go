package database

import (
	"testing"

	modelspkg "github.com/tungtase04539/TFT-Finder/internal/models"

	"github.com/stretchr/testify/require"
)

func TestPersistentModels_IncludesMatchResult(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.MatchResult); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include MatchResult")
}

func TestPersistentModels_IncludesBannedRiotID(t *testing.T) {
	found := false
	for _, model := range PersistentModels() {
		if _, ok := model.(*modelspkg.BannedRiotID); ok {
			found = true
			break
		}
	}
	require.True(t, found, "PersistentModels should include BannedRiotID")
}
