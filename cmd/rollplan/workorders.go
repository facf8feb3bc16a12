package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/megastock/rollplan/internal/export"
	"github.com/megastock/rollplan/internal/project"
	"github.com/megastock/rollplan/internal/workorder"
)

var (
	labelsPath   string
	woXlsxPath   string
	listAllFlags bool
)

var workordersCmd = &cobra.Command{
	Use:   "workorders",
	Short: "Create work orders for the planned groups",
	RunE:  runWorkOrders,
}

var workorderStatusCmd = &cobra.Command{
	Use:   "status <number> <status>",
	Short: "Move a work order to a new status",
	Long: `Move a work order through its lifecycle:
draft -> scheduled -> in_progress -> paused/completed, or cancelled.`,
	Args: cobra.ExactArgs(2),
	RunE: runWorkOrderStatus,
}

func init() {
	workordersCmd.Flags().StringVar(&labelsPath, "labels", "", "write QR labels for the new work orders to this PDF")
	workordersCmd.Flags().StringVar(&woXlsxPath, "xlsx", "", "write the plan and every work order to this workbook")
	workordersCmd.Flags().BoolVar(&listAllFlags, "all", false, "list every work order, not only the new ones")
	workordersCmd.AddCommand(workorderStatusCmd)
	rootCmd.AddCommand(workordersCmd)
}

func runWorkOrders(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog()
	if err != nil {
		return err
	}
	path := ordersPath()
	book, err := project.LoadOrderBook(path)
	if err != nil {
		return err
	}

	before := project.MakeSnapshot(book, "workorders")
	gen := workorder.NewGenerator(cfg, &cat, book.Sequence())
	gen.Log = log
	created := gen.Generate(book.Orders)
	book.WorkOrders = append(book.WorkOrders, created...)
	if err := project.SaveOrderBook(path, book); err != nil {
		return err
	}
	if len(created) > 0 {
		remember(before)
	}

	listed := created
	if listAllFlags {
		listed = book.WorkOrders
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NUMBER\tGROUP\tTYPE\tROLL\tORDERS\tMETERS\tHOURS\tPAPER KG\tSTATUS")
	for _, wo := range listed {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\t%s\t%.1f\t%.2f\t%s\t%s\n",
			wo.Number, wo.Group, wo.Type, wo.RollWidth, strings.Join(wo.OrderIDs, ","),
			wo.LinearMeters, wo.EstimatedHours, wo.Material.Total().StringFixed(1), wo.Status)
	}
	w.Flush()
	fmt.Fprintf(cmd.OutOrStdout(), "%d work orders created\n", len(created))

	if labelsPath != "" && len(created) > 0 {
		if err := export.ExportLabels(labelsPath, created); err != nil {
			return err
		}
		log.WithField("file", labelsPath).Info("labels written")
	}
	if woXlsxPath != "" {
		rep := export.Report{Orders: book.Orders, WorkOrders: book.WorkOrders}
		if book.LastRun != nil {
			rep.Result = *book.LastRun
		}
		if err := export.ExportExcel(woXlsxPath, rep); err != nil {
			return err
		}
	}
	return nil
}

func runWorkOrderStatus(cmd *cobra.Command, args []string) error {
	path := ordersPath()
	book, err := project.LoadOrderBook(path)
	if err != nil {
		return err
	}

	for i := range book.WorkOrders {
		wo := &book.WorkOrders[i]
		if wo.Number != args[0] {
			continue
		}
		before := project.MakeSnapshot(book, "status "+wo.Number)
		if err := wo.Transition(workorder.Status(args[1]), time.Now()); err != nil {
			return err
		}
		if err := project.SaveOrderBook(path, book); err != nil {
			return err
		}
		remember(before)
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", wo.Number, wo.Status)
		if wo.Status == workorder.StatusCompleted {
			fmt.Fprintf(cmd.OutOrStdout(), "ran %.2f h (estimated %.2f h)\n", wo.ActualHours(), wo.EstimatedHours)
		}
		return nil
	}
	return errors.Errorf("work order %s not found", args[0])
}
