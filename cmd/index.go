package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/verdevoid/geo-boundary-automation/internal/boundary"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Boundary name index maintenance",
	Long:  "Build and inspect the persisted place-name index over the local boundary dataset.",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Scan the dataset folders and rebuild the index",
	RunE: func(cmd *cobra.Command, _ []string) error {
		idx, err := boundary.BuildIndex(indexOptions())
		if err != nil {
			return eris.Wrap(err, "index build")
		}
		fmt.Printf("indexed %d place names -> %s\n", len(idx), cfg.Index.Path)
		return nil
	},
}

var indexStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the persisted index state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info, err := os.Stat(cfg.Index.Path)
		if err != nil {
			fmt.Println("no persisted index; run `boundarygen index build`")
			return nil
		}

		idx, err := boundary.LoadIndex(indexOptions(), false)
		if err != nil {
			return eris.Wrap(err, "index status")
		}

		fmt.Printf("%s: %d entries, written %s\n",
			cfg.Index.Path, len(idx), info.ModTime().Format("2006-01-02 15:04"))
		return nil
	},
}

func indexOptions() boundary.IndexOptions {
	return boundary.IndexOptions{
		Roots:       cfg.Index.Roots,
		DataRoot:    cfg.Index.DataRoot,
		Path:        cfg.Index.Path,
		Extensions:  cfg.Index.Extensions,
		LevelFields: cfg.Index.LevelFields,
	}
}

func init() {
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexStatusCmd)
	rootCmd.AddCommand(indexCmd)
}
