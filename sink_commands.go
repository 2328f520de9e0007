package main

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"imageconverter/credentials"
	writerbackends "imageconverter/writerBackends"

	"github.com/spf13/cobra"
)

// secretFields are masked by `sink show`.
var secretFields = map[string]bool{
	"secretKey":       true,
	"password":        true,
	"privateKey":      true,
	"credentialsJSON": true,
}

func newSinkCommand(ctx *commandContext) *cobra.Command {
	sinkCmd := &cobra.Command{
		Use:   "sink",
		Short: "Manage access info for remote download sinks",
	}

	var typeFlag string
	var setFlags []string
	setCmd := &cobra.Command{
		Use:   "set <key>",
		Short: "Store access info for an s3, gcs or sftp sink",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			info, err := parseAssignments(setFlags)
			if err != nil {
				return err
			}
			if err := writerbackends.CheckAccessInfo(typeFlag, info); err != nil {
				return err
			}
			info["type"] = typeFlag

			store, err := ctx.credentialsStore()
			if err != nil {
				return err
			}
			if err := store.Put(credentials.SinkPrefix+args[0], info); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s sink %q; select it with download.sink = %q and download.credentials_key = %q\n",
				typeFlag, args[0], typeFlag, args[0])
			return nil
		},
	}
	setCmd.Flags().StringVarP(&typeFlag, "type", "t", "", "Sink type: s3, gcs or sftp")
	setCmd.Flags().StringArrayVar(&setFlags, "set", nil, "Access info as key=value (repeatable)")
	_ = setCmd.MarkFlagRequired("type")

	showCmd := &cobra.Command{
		Use:   "show [key]",
		Short: "List stored sinks, or show one with secrets masked",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			store, err := ctx.credentialsStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				keys, err := store.Keys(credentials.SinkPrefix)
				if err != nil {
					return err
				}
				if len(keys) == 0 {
					fmt.Fprintln(out, "No sinks stored")
					return nil
				}
				rows := make([][]string, 0, len(keys))
				for _, k := range keys {
					info, err := store.Get(k)
					if err != nil {
						return err
					}
					rows = append(rows, []string{strings.TrimPrefix(k, credentials.SinkPrefix), info["type"]})
				}
				fmt.Fprintln(out, renderTable([]string{"Key", "Type"}, rows, nil))
				return nil
			}

			info, err := store.Get(credentials.SinkPrefix + args[0])
			if errors.Is(err, credentials.ErrNotFound) {
				return fmt.Errorf("no sink stored under %q", args[0])
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, maskedRows(info), nil))
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <key>",
		Short: "Remove a stored sink",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defer ctx.close()
			store, err := ctx.credentialsStore()
			if err != nil {
				return err
			}
			if err := store.Delete(credentials.SinkPrefix + args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted sink %q\n", args[0])
			return nil
		},
	}

	sinkCmd.AddCommand(setCmd, showCmd, deleteCmd)
	return sinkCmd
}

func parseAssignments(pairs []string) (map[string]string, error) {
	info := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q; want key=value", p)
		}
		info[k] = v
	}
	return info, nil
}

func maskedRows(info map[string]string) [][]string {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		v := info[k]
		if secretFields[k] && v != "" {
			v = "********"
		}
		rows = append(rows, []string{k, v})
	}
	return rows
}
