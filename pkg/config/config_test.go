package config

import (
	"strings"
	"testing"
)

func TestEnsureDSNKeepsExplicitDSN(t *testing.T) {
	cfg := DBConfig{DSN: "postgres://u:p@localhost:5432/campusfind"}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DSN != "postgres://u:p@localhost:5432/campusfind" {
		t.Fatalf("DSN should be untouched, got %s", cfg.DSN)
	}
}

func TestEnsureDSNBuildsFromLegacyParts(t *testing.T) {
	cfg := DBConfig{
		LegacyHost:     "db.internal",
		LegacyPort:     5433,
		LegacyUser:     "campusfind",
		LegacyPassword: "s3cret",
		LegacyName:     "campusfind",
		LegacySSLMode:  "require",
	}
	if err := cfg.ensureDSN(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"postgres://", "campusfind:s3cret@", "db.internal:5433", "sslmode=require"} {
		if !strings.Contains(cfg.DSN, want) {
			t.Fatalf("DSN %q missing %q", cfg.DSN, want)
		}
	}
}

func TestEnsureDSNReportsMissingLegacyVars(t *testing.T) {
	cfg := DBConfig{LegacyHost: "db.internal"}
	err := cfg.ensureDSN()
	if err == nil {
		t.Fatalf("expected error for missing legacy vars")
	}
	if !strings.Contains(err.Error(), EnvDBUser) || !strings.Contains(err.Error(), EnvDBName) {
		t.Fatalf("error should name missing vars, got %v", err)
	}
}
