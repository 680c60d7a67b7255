package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "MONGODB_URI", "REDIS_URL", "JWT_SECRET",
		"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "ANALYSIS_QUEUE_SIZE", "SUPERADMIN_USER_IDS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("Expected default port 3001, got %s", cfg.Port)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Errorf("Expected default access TTL 15m, got %v", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 7*24*time.Hour {
		t.Errorf("Expected default refresh TTL 168h, got %v", cfg.RefreshTTL)
	}
	if cfg.AnalysisQueueSize != 256 {
		t.Errorf("Expected default queue size 256, got %d", cfg.AnalysisQueueSize)
	}
	if len(cfg.SuperadminUserIDs) != 0 {
		t.Errorf("Expected no superadmins by default, got %v", cfg.SuperadminUserIDs)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/planboard")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("ANALYSIS_QUEUE_SIZE", "64")
	t.Setenv("SUPERADMIN_USER_IDS", "alice, bob ,carol")

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Port)
	}
	if cfg.MongoURI != "mongodb://localhost:27017/planboard" {
		t.Errorf("Unexpected Mongo URI: %s", cfg.MongoURI)
	}
	if cfg.AccessTTL != 30*time.Minute {
		t.Errorf("Expected 30m access TTL, got %v", cfg.AccessTTL)
	}
	if cfg.AnalysisQueueSize != 64 {
		t.Errorf("Expected queue size 64, got %d", cfg.AnalysisQueueSize)
	}
	if len(cfg.SuperadminUserIDs) != 3 || cfg.SuperadminUserIDs[1] != "bob" {
		t.Errorf("Expected trimmed superadmin list, got %v", cfg.SuperadminUserIDs)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "not-a-duration")
	t.Setenv("ANALYSIS_QUEUE_SIZE", "not-a-number")

	cfg := Load()

	if cfg.AccessTTL != 15*time.Minute {
		t.Errorf("Invalid duration should fall back to default, got %v", cfg.AccessTTL)
	}
	if cfg.AnalysisQueueSize != 256 {
		t.Errorf("Invalid int should fall back to default, got %d", cfg.AnalysisQueueSize)
	}
}
