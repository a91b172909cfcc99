// ABOUTME: Tests for environment-based configuration loading
// ABOUTME: Verifies defaults, overrides, and validation rejections

package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ChatModel != "gpt-4o-mini" {
		t.Errorf("ChatModel = %q, want gpt-4o-mini", cfg.ChatModel)
	}
	if cfg.VectorDimension != 1536 {
		t.Errorf("VectorDimension = %d, want 1536", cfg.VectorDimension)
	}
	if cfg.RemoteTimeout != 5*time.Second {
		t.Errorf("RemoteTimeout = %v, want 5s", cfg.RemoteTimeout)
	}
	if cfg.FactPoolCap <= cfg.NotePoolCap {
		t.Errorf("fact cap (%d) should exceed note cap (%d)", cfg.FactPoolCap, cfg.NotePoolCap)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DECAY_RATE", "0.1")
	t.Setenv("MEMORY_OPENAI_MODEL", "gpt-4o")
	t.Setenv("REMOTE_MEMORY_TIMEOUT", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DecayRate != 0.1 {
		t.Errorf("DecayRate = %v, want 0.1", cfg.DecayRate)
	}
	if cfg.ChatModel != "gpt-4o" {
		t.Errorf("ChatModel = %q, want gpt-4o", cfg.ChatModel)
	}
	if cfg.RemoteTimeout != 2*time.Second {
		t.Errorf("RemoteTimeout = %v, want 2s", cfg.RemoteTimeout)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		key  string
		val  string
		frag string
	}{
		{"DECAY_RATE", "1.5", "DECAY_RATE"},
		{"OPENAI_MAX_RETRIES", "99", "OPENAI_MAX_RETRIES"},
		{"VECTOR_DIMENSION", "-1", "VECTOR_DIMENSION"},
		{"RANK_WEIGHT_SIMILARITY", "2", "RANK_WEIGHT_SIMILARITY"},
	}

	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			if err == nil {
				t.Fatalf("Load() accepted %s=%s", tc.key, tc.val)
			}
			if !strings.Contains(err.Error(), tc.frag) {
				t.Errorf("error %q should mention %s", err, tc.frag)
			}
		})
	}
}

func TestLoad_UnparsableFallsBackToDefault(t *testing.T) {
	t.Setenv("DECAY_BATCH_SIZE", "lots")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DecayBatchSize != 200 {
		t.Errorf("DecayBatchSize = %d, want default 200", cfg.DecayBatchSize)
	}
}
