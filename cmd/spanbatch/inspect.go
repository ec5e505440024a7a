package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Faultbox/spanbatch/internal/config"
	"github.com/Faultbox/spanbatch/internal/pipeline"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [scene.yaml]",
	Short: "Show the drawable groups a scene exports to",
	Long:  "Export the scene without writing output and print its pages, objects and drawable groups.",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	path := args[0]
	run := *cfg
	run.Output.Format = config.FormatNone

	res, err := pipeline.Run(&run, path, nil)
	if res == nil {
		return err
	}

	out := cmd.OutOrStdout()
	sc := res.Scene
	fmt.Fprintln(out, "Scene Information")
	fmt.Fprintln(out, "=================")
	fmt.Fprintf(out, "File: %s\n", path)
	fmt.Fprintf(out, "Age: %s\n\n", sc.Age)

	fmt.Fprintln(out, "Pages:")
	for _, p := range sc.Pages.Pages() {
		marker := ""
		if p == sc.Pages.Default() {
			marker = " (default)"
		}
		fmt.Fprintf(out, "  %-24s seq %d%s\n", p, p.Seq, marker)
	}

	kinds := make(map[string]int)
	for _, obj := range sc.Objects {
		kinds[obj.Kind.String()]++
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Fprintf(out, "\nObjects: %d\n", len(sc.Objects))
	for _, k := range names {
		fmt.Fprintf(out, "  %-8s %d\n", k, kinds[k])
	}

	fmt.Fprintln(out, "\nDrawable Groups:")
	for _, g := range pipeline.Summarize(res.Session) {
		fmt.Fprintf(out, "  %s  level %s  spans %d  draw lists %d\n",
			g.ID, g.Level, len(g.Spans), len(g.DIIndices))
	}

	report := res.Session.Report()
	if ws := report.Warnings(); len(ws) > 0 {
		fmt.Fprintln(out, "\nWarnings:")
		for _, w := range ws {
			fmt.Fprintf(out, "  %s\n", w)
		}
	}
	if errs := report.Errors(); len(errs) > 0 {
		fmt.Fprintln(out, "\nErrors:")
		for _, e := range errs {
			fmt.Fprintf(out, "  %v\n", e)
		}
	}

	if cfg.Output.Dump {
		fmt.Fprintln(out)
		pipeline.Dump(out, res)
	}
	return err
}
