package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/freeeve/chessreview/internal/store"
)

func main() {
	var (
		cachePath  = flag.String("cache", "evals.csv.zst", "eval cache file (.csv, .csv.gz or .csv.zst)")
		importList = flag.String("import", "", "comma-separated CSV files to merge into the cache")
		outputPath = flag.String("output", "", "write the merged cache here (default: -cache)")
	)
	flag.Parse()

	cache := store.NewEvalCache()
	n, err := cache.LoadFromFile(*cachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load cache: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d evaluations from %s\n", n, *cachePath)

	imported := 0
	for _, path := range strings.Split(*importList, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		n, err := cache.LoadFromFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "import %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("Imported %d evaluations from %s\n", n, path)
		imported += n
	}

	stats := cache.Stats()
	fmt.Printf("Cache: %d positions (%d cp, %d mate)\n", stats.Total, stats.CP, stats.Mate)

	out := *outputPath
	if out == "" {
		if imported == 0 {
			return
		}
		out = *cachePath
	}
	if err := cache.SaveToFile(out); err != nil {
		fmt.Fprintf(os.Stderr, "write %s: %v\n", out, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %d evaluations to %s\n", cache.Len(), out)
}
