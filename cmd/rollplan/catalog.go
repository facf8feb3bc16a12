package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/megastock/rollplan/internal/model"
	"github.com/megastock/rollplan/internal/project"
)

var (
	catalogForce bool
	catalogMerge string
	configForce  bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the roll and flute catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rolls and flutes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ROLL\tCODE\tSUPPLIER\tSTOCK KG\tMIN KG\tCOST/KG\t")
		for _, r := range cat.Rolls {
			flag := ""
			if r.BelowMinimum() {
				flag = "LOW"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%.0f\t%s\t%s\n",
				r.Name(), r.Code, r.Supplier, r.StockOnHand, r.MinimumStock, r.CostPerKg.StringFixed(2), flag)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, "FLUTE\tNAME\tLENGTH\tWIDTH\tHEIGHT\t")
		for _, f := range cat.Flutes {
			fmt.Fprintf(w, "%s\t%s\t%+.0f\t%+.0f\t%+.0f\t\n", f.Code, f.Name, f.LengthOffset, f.WidthOffset, f.HeightOffset)
		}
		return w.Flush()
	},
}

var catalogInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default catalog, optionally merging another catalog file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := catalogPath()
		if _, err := os.Stat(path); err == nil && !catalogForce && catalogMerge == "" {
			return errors.Errorf("catalog %s already exists (use --force to overwrite)", path)
		}

		cat := model.DefaultCatalog()
		if !catalogForce {
			existing, err := project.LoadCatalog(path)
			if err != nil {
				return err
			}
			cat = existing
		}
		if catalogMerge != "" {
			merged, err := project.ImportCatalog(catalogMerge, cat)
			if err != nil {
				return err
			}
			cat = merged
		}
		if err := project.SaveCatalog(path, cat); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Catalog written to %s (%d rolls, %d flutes)\n", path, len(cat.Rolls), len(cat.Flutes))
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the application config",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = project.DefaultConfigPath()
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return errors.Errorf("config %s already exists (use --force to overwrite)", path)
		}
		if err := project.SaveAppConfig(path, model.DefaultAppConfig()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", path)
		return nil
	},
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Export or restore config, catalog and order book",
}

var backupExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write a backup of every application file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := loadCatalog()
		if err != nil {
			return err
		}
		book, err := project.LoadOrderBook(ordersPath())
		if err != nil {
			return err
		}
		if err := project.ExportAllData(args[0], cfg, cat, book); err != nil {
			return err
		}
		log.WithField("file", args[0]).Info("backup written")
		return nil
	},
}

var backupImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Restore config, catalog and order book from a backup",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backup, err := project.ImportAllData(args[0])
		if err != nil {
			return err
		}
		path := cfgFile
		if path == "" {
			path = project.DefaultConfigPath()
		}
		if err := project.SaveAppConfig(path, backup.Config); err != nil {
			return err
		}
		cfg = backup.Config
		if err := project.SaveCatalog(catalogPath(), backup.Catalog); err != nil {
			return err
		}
		if err := project.SaveOrderBook(ordersPath(), backup.OrderBook); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Restored backup from %s (%s)\n", args[0], backup.CreatedAt)
		return nil
	},
}

func init() {
	catalogInitCmd.Flags().BoolVar(&catalogForce, "force", false, "overwrite an existing catalog")
	catalogInitCmd.Flags().StringVar(&catalogMerge, "merge", "", "merge rolls and flutes from this catalog file")
	catalogCmd.AddCommand(catalogListCmd, catalogInitCmd)

	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config")
	configCmd.AddCommand(configInitCmd)

	backupCmd.AddCommand(backupExportCmd, backupImportCmd)

	rootCmd.AddCommand(catalogCmd, configCmd, backupCmd)
}
