package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/megastock/rollplan/internal/project"
)

// remember pushes the state from before a change onto the undo history.
// A failure only costs the undo step, so it is logged.
func remember(before project.Snapshot) {
	path := project.HistoryPath(ordersPath())
	h, err := project.LoadHistory(path)
	if err != nil {
		log.WithError(err).Warn("history not updated")
		return
	}
	h.Push(before)
	if err := project.SaveHistory(path, h); err != nil {
		log.WithError(err).Warn("history not updated")
	}
}

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Restore the order book from before the last import, plan or work order change",
	RunE: func(cmd *cobra.Command, args []string) error {
		return step(cmd, true)
	},
}

var redoCmd = &cobra.Command{
	Use:   "redo",
	Short: "Reapply the change reverted by undo",
	RunE: func(cmd *cobra.Command, args []string) error {
		return step(cmd, false)
	},
}

func init() {
	rootCmd.AddCommand(undoCmd, redoCmd)
}

func step(cmd *cobra.Command, undo bool) error {
	path := ordersPath()
	hpath := project.HistoryPath(path)
	h, err := project.LoadHistory(hpath)
	if err != nil {
		return err
	}
	book, err := project.LoadOrderBook(path)
	if err != nil {
		return err
	}

	current := project.MakeSnapshot(book, "current")
	var snap project.Snapshot
	var ok bool
	if undo {
		snap, ok = h.Undo(current)
	} else {
		snap, ok = h.Redo(current)
	}
	if !ok {
		return errors.New("nothing to restore")
	}
	snap.Restore(&book)
	if err := project.SaveOrderBook(path, book); err != nil {
		return err
	}
	if err := project.SaveHistory(hpath, h); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Restored order book from %s (%s)\n",
		snap.TakenAt.Local().Format("2006-01-02 15:04"), snap.Label)
	return nil
}
