package main

import (
	"fmt"
	"text/tabwriter"

	"wisefido-directory/internal/domain"

	"github.com/spf13/cobra"
)

func newSearchCommand(a *app) *cobra.Command {
	var (
		query    string
		building string
		floor    string
		tagList  []string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "search [files...]",
		Short: "Import files and print rooms matching a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadOffline(cmd, args)
			if err != nil {
				return err
			}
			store.SetFilters(domain.Filters{Building: building, Floor: floor, Tags: tagList})
			store.SetSearchQuery(query)

			rooms := store.FilteredData()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ROOM\tFLOOR\tBUILDING\tTYPE\tDEPARTMENT")
			for i, r := range rooms {
				if limit > 0 && i >= limit {
					break
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.RmNbr, r.Floor, r.Building, r.TypeFull, r.Dept)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d rooms matched\n", len(rooms), store.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "Search query; every term must match")
	cmd.Flags().StringVar(&building, "building", "", "Exact building filter")
	cmd.Flags().StringVar(&floor, "floor", "", "Exact floor filter")
	cmd.Flags().StringSliceVar(&tagList, "tag", nil, "Tag filter (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum rows to print, 0 for all")
	return cmd
}

func newUnmappedCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unmapped [files...]",
		Short: "Import files and list abbreviation codes with no mapping",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.loadOffline(cmd, args)
			if err != nil {
				return err
			}
			codes := store.UnmappedCodes()
			out := cmd.OutOrStdout()
			for _, c := range codes {
				fmt.Fprintf(out, "%-12s %d\n", c.Code, c.Count)
			}
			if len(codes) == 0 {
				fmt.Fprintln(cmd.ErrOrStderr(), "all codes mapped")
			}
			return nil
		},
	}
}
