package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"mock-exam/internal/cli"
)

func main() {
	csvPath := flag.String("csv", "", "question bank CSV (defaults to the built-in samples)")
	category := flag.String("category", "", "practice a single category")
	count := flag.Int("count", 10, "questions to draw when -category is set")
	seed := flag.Int64("seed", 0, "shuffle seed (0 picks one from the clock)")
	extra := flag.String("extra-categories", os.Getenv("EXTRA_CATEGORIES"), "comma-separated categories added to the catalog")
	flag.Parse()

	var extraCategories []string
	if *extra != "" {
		extraCategories = strings.Split(*extra, ",")
	}

	err := cli.Run(context.Background(), os.Stdin, os.Stdout, cli.Config{
		CSVPath:         *csvPath,
		Category:        *category,
		Count:           *count,
		Seed:            *seed,
		ExtraCategories: extraCategories,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
