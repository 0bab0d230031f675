package cli

import "github.com/spf13/pflag"

// Flags holds every command line value of the bulkship commands
type Flags struct {
	ConfigFile string

	File     string
	DryRun   bool
	Purchase bool

	QuoteIDs []string
	RateIDs  []string

	Count              int
	Seed               uint64
	Format             string
	InternationalRatio float64
}

type FlagSet[T any] struct {
	Name      string
	Shorthand string
	Usage     string
	Value     T
}

type FlagMap struct {
	ConfigFile FlagSet[string]
	File       FlagSet[string]
	DryRun     FlagSet[bool]
	Purchase   FlagSet[bool]
	QuoteIDs   FlagSet[[]string]
	RateIDs    FlagSet[[]string]

	Count              FlagSet[int]
	Seed               FlagSet[uint64]
	Format             FlagSet[string]
	InternationalRatio FlagSet[float64]
}

var flagMap = FlagMap{
	ConfigFile: FlagSet[string]{
		Name:  "config",
		Usage: "Path to the config file (default: ./config.toml when present).",
	},
	File: FlagSet[string]{
		Name:      "file",
		Shorthand: "f",
		Usage:     "Batch input file with one record per line or free-text blocks. Use - for stdin.",
	},
	DryRun: FlagSet[bool]{
		Name:  "dry-run",
		Usage: "Parse, resolve and preview every record without calling the carrier API.",
	},
	Purchase: FlagSet[bool]{
		Name:  "purchase",
		Usage: "Buy the selected rate of every successful quote.",
	},
	QuoteIDs: FlagSet[[]string]{
		Name:  "quote-ids",
		Usage: "Comma separated quote ids to buy labels for.",
	},
	RateIDs: FlagSet[[]string]{
		Name:  "rate-ids",
		Usage: "Comma separated rate ids, one per quote id in the same order.",
	},
	Count: FlagSet[int]{
		Name:      "count",
		Shorthand: "n",
		Usage:     "Number of records to generate.",
		Value:     10,
	},
	Seed: FlagSet[uint64]{
		Name:  "seed",
		Usage: "Random seed. Zero picks a random one.",
	},
	Format: FlagSet[string]{
		Name:  "format",
		Usage: "Record layout: tabular or freetext.",
		Value: "tabular",
	},
	InternationalRatio: FlagSet[float64]{
		Name:  "international-ratio",
		Usage: "Share of tabular records shipped outside the US.",
		Value: 0.2,
	},
}

func addPersistentFlags(fs *pflag.FlagSet, flgs *Flags) {
	fs.StringVar(&flgs.ConfigFile, flagMap.ConfigFile.Name, flagMap.ConfigFile.Value, flagMap.ConfigFile.Usage)
}

func addQuoteFlags(fs *pflag.FlagSet, flgs *Flags) {
	fs.StringVarP(&flgs.File, flagMap.File.Name, flagMap.File.Shorthand, flagMap.File.Value, flagMap.File.Usage)
	fs.BoolVar(&flgs.DryRun, flagMap.DryRun.Name, flagMap.DryRun.Value, flagMap.DryRun.Usage)
	fs.BoolVar(&flgs.Purchase, flagMap.Purchase.Name, flagMap.Purchase.Value, flagMap.Purchase.Usage)
}

func addPurchaseFlags(fs *pflag.FlagSet, flgs *Flags) {
	fs.StringSliceVar(&flgs.QuoteIDs, flagMap.QuoteIDs.Name, flagMap.QuoteIDs.Value, flagMap.QuoteIDs.Usage)
	fs.StringSliceVar(&flgs.RateIDs, flagMap.RateIDs.Name, flagMap.RateIDs.Value, flagMap.RateIDs.Usage)
}

func addSampleFlags(fs *pflag.FlagSet, flgs *Flags) {
	fs.IntVarP(&flgs.Count, flagMap.Count.Name, flagMap.Count.Shorthand, flagMap.Count.Value, flagMap.Count.Usage)
	fs.Uint64Var(&flgs.Seed, flagMap.Seed.Name, flagMap.Seed.Value, flagMap.Seed.Usage)
	fs.StringVar(&flgs.Format, flagMap.Format.Name, flagMap.Format.Value, flagMap.Format.Usage)
	fs.Float64Var(&flgs.InternationalRatio, flagMap.InternationalRatio.Name, flagMap.InternationalRatio.Value, flagMap.InternationalRatio.Usage)
}
