package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
map:
  pbfPath: /data/denver.osm.pbf
matcher:
  distanceEpsilon: 75
  similarityCutoff: 0.85
  cuttingThreshold: 12
  randomCuts: 2
  distanceThreshold: 8000
logLevel: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Map.PBFPath != "/data/denver.osm.pbf" {
		t.Errorf("pbfPath = %q", cfg.Map.PBFPath)
	}
	if cfg.Matcher.DistanceEpsilon != 75 || cfg.Matcher.RandomCuts != 2 {
		t.Errorf("matcher config = %+v", cfg.Matcher)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("logLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestLoadFillsDefaults(t *testing.T) {
	path := writeConfig(t, `
map:
  pbfPath: /data/denver.osm.pbf
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg.Server.Port != want.Server.Port {
		t.Errorf("port = %d, want default %d", cfg.Server.Port, want.Server.Port)
	}
	if cfg.Matcher != want.Matcher {
		t.Errorf("matcher = %+v, want defaults %+v", cfg.Matcher, want.Matcher)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("logLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := map[string]string{
		"missing pbf path": `
server:
  port: 8080
`,
		"bad port": `
server:
  port: -1
map:
  pbfPath: /data/map.pbf
`,
		"cutoff out of range": `
map:
  pbfPath: /data/map.pbf
matcher:
  distanceEpsilon: 50
  similarityCutoff: 1.5
  cuttingThreshold: 10
  distanceThreshold: 10000
`,
		"unknown log level": `
map:
  pbfPath: /data/map.pbf
logLevel: chatty
`,
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, content)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not: a: mapping")); err == nil {
		t.Fatal("expected a parse error")
	}
}
