package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/p-arndt/benchtab/procstat"
)

func newMemCmd() *cobra.Command {
	var (
		pid     int
		keys    []string
		jsonOut bool
	)
	cmd := &cobra.Command{
		Use:   "mem",
		Short: "Print the memory counters a benchmark would sample",
		RunE: func(cmd *cobra.Command, args []string) error {
			r := procstat.NewReader(keys...)
			if pid > 0 {
				r.Path = procstat.StatusPath(pid)
			}
			snap, err := r.Read()
			if err != nil {
				return err
			}

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "FIELD\tMiB")
			for _, k := range r.Keys {
				fmt.Fprintf(w, "%s\t%.2f\n", k, snap[k])
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&pid, "pid", os.Getpid(), "process to inspect")
	cmd.Flags().StringSliceVar(&keys, "keys", nil, "status fields (default VmRSS,VmData,VmSize)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print JSON")
	return cmd
}
