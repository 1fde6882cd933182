package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jrhoades1/claude-tracking/pkg/store"
)

func newImportCmd(configPath *string) *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a legacy sessions.csv log into the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if from == "" {
				from = a.cfg.Store.CSVPath
			}
			if a.cfg.Store.Driver == "csv" && from == a.cfg.Store.CSVPath {
				return fmt.Errorf("import: %s is already the configured store", from)
			}

			n, err := store.Copy(cmd.Context(), a.store, store.NewCSVStore(from), store.Filter{})
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{"path": from, "records": n}).Info("import complete")
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sessions from %s\n", n, from)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "CSV log to import (default store.csv_path)")
	return cmd
}
