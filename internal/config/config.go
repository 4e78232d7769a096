// Package config loads the facility configuration from YAML, falling back
// to the stock setup when no file is given.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/soupworks/lettermarket/internal/agents"
	"github.com/soupworks/lettermarket/internal/economy"
	"github.com/soupworks/lettermarket/internal/sim"
	"github.com/soupworks/lettermarket/internal/world"
)

// Config is the full runtime configuration.
type Config struct {
	Seed     int64   `yaml:"seed"`
	RunUntil float64 `yaml:"run_until"`

	Layout struct {
		Width          float64 `yaml:"width"`
		Height         float64 `yaml:"height"`
		WordStations   int     `yaml:"word_stations"`
		LetterStations int     `yaml:"letter_stations"`
		StorageRows    int     `yaml:"storage_rows"`
		StorageCols    int     `yaml:"storage_cols"`
		AisleThreshold float64 `yaml:"aisle_threshold"`
		Bucketbots     int     `yaml:"bucketbots"`
	} `yaml:"layout"`

	Economy struct {
		WordBaseRevenue       float64 `yaml:"word_base_revenue"`
		LetterMarginalRevenue float64 `yaml:"letter_marginal_revenue"`
		ClearingInterval      float64 `yaml:"clearing_interval"`
		AllocatorTrials       int     `yaml:"allocator_trials"`
		AllocatorCostWeight   float64 `yaml:"allocator_cost_weight"`
	} `yaml:"economy"`

	Agents struct {
		BidInterval      float64 `yaml:"bid_interval"`
		BucketCapacity   int     `yaml:"bucket_capacity"`
		BundleSize       int     `yaml:"bundle_size"`
		BotSpeed         float64 `yaml:"bot_speed"`
		LetterBundleCost float64 `yaml:"letter_bundle_cost"`
	} `yaml:"agents"`

	Dictionary     []string `yaml:"dictionary"`
	DictionaryFile string   `yaml:"dictionary_file"`
	OpenWords      int      `yaml:"open_words"`

	HTTP struct {
		Port int `yaml:"port"`
	} `yaml:"http"`

	DB struct {
		Path string `yaml:"path"`
	} `yaml:"db"`
}

// Default returns the stock configuration.
func Default() Config {
	var c Config
	o := sim.DefaultOptions()

	c.Seed = o.Seed
	c.RunUntil = 500

	c.Layout.Width = o.Layout.Width
	c.Layout.Height = o.Layout.Height
	c.Layout.WordStations = o.Layout.WordStations
	c.Layout.LetterStations = o.Layout.LetterStations
	c.Layout.StorageRows = o.Layout.StorageRows
	c.Layout.StorageCols = o.Layout.StorageCols
	c.Layout.AisleThreshold = o.Layout.AisleThreshold
	c.Layout.Bucketbots = o.Layout.Bucketbots

	c.Economy.WordBaseRevenue = o.Economy.WordBaseRevenue
	c.Economy.LetterMarginalRevenue = o.Economy.LetterMarginalRevenue
	c.Economy.ClearingInterval = o.Economy.ClearingInterval
	c.Economy.AllocatorTrials = o.Economy.AllocatorTrials
	c.Economy.AllocatorCostWeight = o.Economy.AllocatorCostWeight

	c.Agents.BidInterval = o.Params.BidInterval
	c.Agents.BucketCapacity = o.Params.BucketCapacity
	c.Agents.BundleSize = o.Params.BundleSize
	c.Agents.BotSpeed = o.Params.BotSpeed
	c.Agents.LetterBundleCost = o.Params.LetterBundleCost

	c.Dictionary = o.Dictionary
	c.OpenWords = o.OpenWords

	c.HTTP.Port = 8080
	c.DB.Path = "data/lettermarket.db"

	return c
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults untouched.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}

	if c.DictionaryFile != "" {
		words, err := loadDictionary(c.DictionaryFile)
		if err != nil {
			return c, err
		}
		c.Dictionary = words
	}
	if len(c.Dictionary) == 0 {
		return c, fmt.Errorf("config: no dictionary words")
	}
	return c, nil
}

func loadDictionary(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	var words []string
	for _, line := range strings.Split(string(data), "\n") {
		w := strings.ToLower(strings.TrimSpace(line))
		if w != "" {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("dictionary %s: no words", path)
	}
	return words, nil
}

// Options converts the configuration into simulation options.
func (c Config) Options() sim.Options {
	o := sim.DefaultOptions()
	o.Seed = c.Seed

	l := world.DefaultLayoutConfig()
	l.Width = c.Layout.Width
	l.Height = c.Layout.Height
	l.WordStations = c.Layout.WordStations
	l.LetterStations = c.Layout.LetterStations
	l.StorageRows = c.Layout.StorageRows
	l.StorageCols = c.Layout.StorageCols
	l.AisleThreshold = c.Layout.AisleThreshold
	l.Bucketbots = c.Layout.Bucketbots
	l.Seed = c.Seed
	o.Layout = l

	o.Economy = economy.Config{
		WordBaseRevenue:       c.Economy.WordBaseRevenue,
		LetterMarginalRevenue: c.Economy.LetterMarginalRevenue,
		ClearingInterval:      c.Economy.ClearingInterval,
		AllocatorTrials:       c.Economy.AllocatorTrials,
		AllocatorCostWeight:   c.Economy.AllocatorCostWeight,
	}

	p := agents.DefaultParams()
	p.BidInterval = c.Agents.BidInterval
	p.BucketCapacity = c.Agents.BucketCapacity
	p.BundleSize = c.Agents.BundleSize
	p.BotSpeed = c.Agents.BotSpeed
	p.LetterBundleCost = c.Agents.LetterBundleCost
	o.Params = p

	o.Dictionary = c.Dictionary
	o.OpenWords = c.OpenWords
	return o
}
