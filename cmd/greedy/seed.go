package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/deppfellow/greedy/internal/database"
	"github.com/deppfellow/greedy/internal/lib/utils"
	"github.com/deppfellow/greedy/internal/model/desire"
	"github.com/deppfellow/greedy/internal/repository"
	"github.com/deppfellow/greedy/internal/service"
	"github.com/spf13/cobra"
)

func newSeedCmd() *cobra.Command {
	var (
		file   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import desires from a JSON file",
		Long: `Import desires from a JSON array in the API's shape.

Items with an "id" that already exists are skipped, so seeding the same
file twice is harmless. Items without an "id" are always inserted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := readSeedFile(file)
			if err != nil {
				return err
			}

			if dryRun {
				return utils.PrintJSON(summarizeSeed(items))
			}

			cfg, log, loggerService, err := bootstrap()
			if err != nil {
				return err
			}
			defer loggerService.Shutdown()

			db, err := database.New(cfg, log, loggerService)
			if err != nil {
				return err
			}
			defer db.Close()

			desires := service.NewDesireService(repository.NewDesireRepository(db))
			inserted, err := desires.Import(cmd.Context(), items)
			if err != nil {
				return fmt.Errorf("seeding %s: %w", file, err)
			}

			log.Info().
				Str("file", file).
				Int("items", len(items)).
				Int("inserted", inserted).
				Int("skipped", len(items)-inserted).
				Msg("seed complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file holding an array of desires")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate and print the parsed desires without writing")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readSeedFile(path string) ([]desire.ImportDesire, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening seed file: %w", err)
	}
	defer f.Close()

	return decodeSeed(f)
}

func decodeSeed(r io.Reader) ([]desire.ImportDesire, error) {
	var items []desire.ImportDesire
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("seed file holds no desires")
	}

	for i := range items {
		if err := service.CheckImport(items[i]); err != nil {
			return nil, fmt.Errorf("desire %d (%q): %w", i, items[i].Name, err)
		}
	}
	return items, nil
}

type seedEntry struct {
	Name       string          `json:"name"`
	Importance desire.Level    `json:"importance"`
	Urgency    desire.Level    `json:"urgency"`
	Quadrant   desire.Quadrant `json:"quadrant"`
	Label      string          `json:"label"`
}

// seedSummary is what --dry-run prints.
type seedSummary struct {
	Total      int                     `json:"total"`
	ByQuadrant map[desire.Quadrant]int `json:"byQuadrant"`
	Desires    []seedEntry             `json:"desires"`
}

func summarizeSeed(items []desire.ImportDesire) seedSummary {
	summary := seedSummary{
		Total:      len(items),
		ByQuadrant: make(map[desire.Quadrant]int),
		Desires:    make([]seedEntry, 0, len(items)),
	}

	for _, item := range items {
		q := desire.QuadrantOf(item.Importance, item.Urgency)
		summary.ByQuadrant[q]++
		summary.Desires = append(summary.Desires, seedEntry{
			Name:       item.Name,
			Importance: item.Importance,
			Urgency:    item.Urgency,
			Quadrant:   q,
			Label:      q.Label(),
		})
	}
	return summary
}
