package main

import (
	"fmt"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/megastock/rollplan/internal/importer"
	"github.com/megastock/rollplan/internal/project"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import production orders from CSV or Excel into the order book",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}

	res := importer.ImportFile(args[0], &cat)
	for _, w := range res.Warnings {
		log.WithField("file", args[0]).Warn(w)
	}
	for _, e := range res.Errors {
		log.WithField("file", args[0]).Error(e)
	}
	if len(res.Orders) == 0 {
		return errors.Errorf("no orders imported from %s", args[0])
	}

	path := ordersPath()
	book, err := project.LoadOrderBook(path)
	if err != nil {
		return err
	}
	before := project.MakeSnapshot(book, "import "+filepath.Base(args[0]))
	added, replaced := book.Merge(res.Orders)
	if err := project.SaveOrderBook(path, book); err != nil {
		return err
	}
	remember(before)

	log.WithFields(logrus.Fields{
		"added":    added,
		"replaced": replaced,
		"errors":   len(res.Errors),
		"book":     path,
	}).Info("orders imported")
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d orders (%d new, %d updated) into %s\n",
		len(res.Orders), added, replaced, path)
	return nil
}
