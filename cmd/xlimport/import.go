package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/JonMunkholm/xlimport/internal/core"
	"github.com/JonMunkholm/xlimport/internal/store"
	"github.com/JonMunkholm/xlimport/internal/workbook"
	"github.com/spf13/cobra"
)

type importOptions struct {
	recordType string
	startRow   int
	baseDir    string
	persist    bool
}

func newImportCmd(root *rootOptions) *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import a workbook and write its error file",
		Long: "Import reads the first sheet of FILE, prints a JSON report and writes the\n" +
			"annotated copy to <base-dir>/error/<stamp>/<name>_error<ext>.\n" +
			"The command exits non-zero when the import as a whole fails.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, root, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.recordType, "type", "t", "", "Record type key (see \"xlimport types\")")
	cmd.Flags().IntVarP(&opts.startRow, "start-row", "r", 0, "1-based first data row (default from IMPORT_START_ROW)")
	cmd.Flags().StringVarP(&opts.baseDir, "base-dir", "d", "", "Import root directory (default from IMPORT_BASE_DIR)")
	cmd.Flags().BoolVar(&opts.persist, "persist", false, "Save the run and copy records to DATABASE_URL")
	cmd.MarkFlagRequired("type")
	return cmd
}

func runImport(cmd *cobra.Command, root *rootOptions, opts *importOptions, path string) error {
	if opts.startRow < 0 {
		return fmt.Errorf("invalid start row %d: must be a positive integer", opts.startRow)
	}

	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if opts.baseDir != "" {
		cfg.Import.BaseDir = opts.baseDir
	}
	log := root.logger(cmd, cfg)

	svcOpts := []core.Option{core.WithRegistry(root.registry), core.WithLogger(log)}

	ctx := cmd.Context()
	if opts.persist {
		if !cfg.Database.Enabled() {
			return errors.New("--persist requires DATABASE_URL")
		}
		pool, err := store.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()

		st := store.New(pool)
		rt, err := root.recordType(opts.recordType)
		if err != nil {
			return err
		}
		if err := st.EnsureSchema(ctx, rt.CopyDDL()); err != nil {
			return err
		}
		svcOpts = append(svcOpts, core.WithStore(st))
	}

	svc := core.NewService(cfg.Import, workbook.OpenWorkbook, svcOpts...)
	report, err := svc.Import(ctx, opts.recordType, path, opts.startRow)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	if !report.Succeeded {
		return fmt.Errorf("import failed: %s", report.Error)
	}
	return nil
}
