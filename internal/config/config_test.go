package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	d := Default()
	if c.Seed != d.Seed || c.HTTP.Port != d.HTTP.Port {
		t.Fatalf("defaults not returned: %+v", c)
	}
	if len(c.Dictionary) == 0 {
		t.Fatalf("default dictionary empty")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
seed: 99
run_until: 42
layout:
  bucketbots: 2
economy:
  clearing_interval: 0.25
dictionary: [zip, zap]
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Seed != 99 || c.RunUntil != 42 {
		t.Fatalf("top-level overrides lost: %+v", c)
	}
	if c.Layout.Bucketbots != 2 {
		t.Fatalf("bucketbots = %d, want 2", c.Layout.Bucketbots)
	}
	// Untouched fields keep their defaults.
	if c.Layout.Width != Default().Layout.Width {
		t.Fatalf("width = %v, want default", c.Layout.Width)
	}
	if c.Economy.ClearingInterval != 0.25 {
		t.Fatalf("clearing interval = %v", c.Economy.ClearingInterval)
	}
	if len(c.Dictionary) != 2 || c.Dictionary[0] != "zip" {
		t.Fatalf("dictionary = %v", c.Dictionary)
	}
}

func TestLoadDictionaryFile(t *testing.T) {
	dir := t.TempDir()
	dict := filepath.Join(dir, "words.txt")
	if err := os.WriteFile(dict, []byte("Cat\n\n dog \n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("dictionary_file: "+dict+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Dictionary) != 2 || c.Dictionary[0] != "cat" || c.Dictionary[1] != "dog" {
		t.Fatalf("dictionary = %v", c.Dictionary)
	}
}

func TestOptionsMapping(t *testing.T) {
	c := Default()
	c.Seed = 7
	c.Agents.BundleSize = 3
	c.Economy.AllocatorTrials = 50

	o := c.Options()
	if o.Seed != 7 || o.Layout.Seed != 7 {
		t.Fatalf("seed not threaded: %+v", o)
	}
	if o.Params.BundleSize != 3 {
		t.Fatalf("bundle size = %d", o.Params.BundleSize)
	}
	if o.Economy.AllocatorTrials != 50 {
		t.Fatalf("allocator trials = %d", o.Economy.AllocatorTrials)
	}
	// Fields without config knobs keep their defaults.
	if o.Params.PickupSetdownTime != Default().Options().Params.PickupSetdownTime {
		t.Fatalf("setdown time changed unexpectedly")
	}
}
