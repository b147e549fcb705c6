package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codeforge-ai/codeforge/internal/dna"
	"github.com/codeforge-ai/codeforge/internal/router"
	"github.com/codeforge-ai/codeforge/internal/usage"
)

var version = "dev"

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	dim      = color.New(color.FgHiBlack).SprintFunc()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failMark("error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var baseURL string
	root := &cobra.Command{
		Use:           "codeforgectl",
		Short:         "CLI for the CodeForge AI gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "url", "", "server URL (default $CODEFORGE_URL or "+defaultURL+")")
	c := func() *client { return newClient(baseURL) }

	root.AddCommand(
		healthCmd(c),
		generateCmd(c),
		routeCmd(c),
		modelsCmd(c),
		usageCmd(c),
		projectCmd(c),
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "codeforgectl %s\n", version)
			},
		},
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func healthCmd(c func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show server status and configured providers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				Status     string   `json:"status"`
				Configured []string `json:"configured_providers"`
			}
			if err := c().do("GET", "/healthz", nil, &out); err != nil {
				return err
			}
			mark := okMark(out.Status)
			if out.Status != "ok" {
				mark = failMark(out.Status)
			}
			providers := strings.Join(out.Configured, ", ")
			if providers == "" {
				providers = "none"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "status: %s\nproviders: %s\n", mark, providers)
			return nil
		},
	}
}

func taskFlags(cmd *cobra.Command, t *router.Task) {
	cmd.Flags().StringVar((*string)(&t.Type), "task-type", "", "task type (default code_generation)")
	cmd.Flags().StringVar((*string)(&t.Quality), "quality", "", "quality tier: low, standard, high, premium")
}

func generateCmd(c func() *client) *cobra.Command {
	var (
		task    router.Task
		dnaFile string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "generate <prompt>",
		Short: "Generate code for a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"prompt":        strings.Join(args, " "),
				"task_type":     task.Type,
				"quality_level": task.Quality,
			}
			if dnaFile != "" {
				raw, err := os.ReadFile(dnaFile)
				if err != nil {
					return err
				}
				d, err := dna.Decompress(string(raw))
				if err != nil {
					return err
				}
				body["project_dna"] = d
			}
			var out struct {
				Code  string `json:"code"`
				Usage struct {
					InputTokens  int     `json:"input_tokens"`
					OutputTokens int     `json:"output_tokens"`
					TotalCost    float64 `json:"total_cost"`
				} `json:"usage"`
				Model    string `json:"model"`
				Provider string `json:"provider"`
			}
			if err := c().do("POST", "/v1/generate", body, &out); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				return printJSON(w, out)
			}
			fmt.Fprintln(w, out.Code)
			fmt.Fprintln(cmd.ErrOrStderr(), dim(fmt.Sprintf("%s/%s  %d in / %d out  $%.6f",
				out.Provider, out.Model, out.Usage.InputTokens, out.Usage.OutputTokens, out.Usage.TotalCost)))
			return nil
		},
	}
	taskFlags(cmd, &task)
	cmd.Flags().StringVar(&dnaFile, "dna", "", "project DNA JSON file to condition on")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw response")
	return cmd
}

func routeCmd(c func() *client) *cobra.Command {
	var task router.Task
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Show the routing decision for a task without calling a model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var d router.Decision
			if err := c().do("POST", "/v1/route", task, &d); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "provider\t%s\n", d.ProviderID)
			fmt.Fprintf(w, "model\t%s\n", d.ModelID)
			fmt.Fprintf(w, "estimated cost\t$%.6f\n", d.EstimatedCostUSD)
			fmt.Fprintf(w, "estimated latency\t%dms\n", d.EstimatedLatencyMs)
			fmt.Fprintf(w, "confidence\t%.2f\n", d.Confidence)
			fmt.Fprintf(w, "reason\t%s\n", d.Reason)
			return w.Flush()
		},
	}
	taskFlags(cmd, &task)
	cmd.Flags().StringVar(&task.PreferredProvider, "provider", "", "preferred provider")
	cmd.Flags().StringVar(&task.PreferredModel, "model", "", "preferred model (requires --provider)")
	cmd.Flags().Float64Var(&task.MaxCostUSD, "max-cost", 0, "maximum estimated cost in USD")
	cmd.Flags().IntVar(&task.MaxLatencyMs, "max-latency", 0, "maximum expected latency in ms")
	return cmd
}

func modelsCmd(c func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models of configured providers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				Models []router.Model `json:"models"`
			}
			if err := c().do("GET", "/v1/models", nil, &out); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROVIDER\tMODEL\tIN/1K\tOUT/1K\tCONTEXT")
			for _, m := range out.Models {
				fmt.Fprintf(w, "%s\t%s\t$%.5f\t$%.5f\t%d\n", m.ProviderID, m.ID, m.InputPer1K, m.OutputPer1K, m.MaxContextTokens)
			}
			return w.Flush()
		},
	}
}

func usageCmd(c func() *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show the usage summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var s usage.Summary
			if err := c().do("GET", "/v1/usage", nil, &s); err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), s)
			return nil
		},
	}

	var from, to string
	records := &cobra.Command{
		Use:   "records",
		Short: "List usage records, optionally within an RFC3339 range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := "/v1/usage/records"
			q := url.Values{}
			if from != "" {
				q.Set("from", from)
			}
			if to != "" {
				q.Set("to", to)
			}
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			var out struct {
				Records []usage.Record `json:"records"`
			}
			if err := c().do("GET", path, nil, &out); err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tPROVIDER\tMODEL\tTASK\tTOKENS\tCOST\tOK")
			for _, r := range out.Records {
				ok := okMark("yes")
				if !r.Success {
					ok = failMark("no")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t$%.6f\t%s\n",
					r.Timestamp.Format("2006-01-02 15:04:05"), r.ProviderID, r.ModelID, r.TaskType,
					r.InputTokens, r.OutputTokens, r.CostUSD, ok)
			}
			return w.Flush()
		},
	}
	records.Flags().StringVar(&from, "from", "", "start time (RFC3339, inclusive)")
	records.Flags().StringVar(&to, "to", "", "end time (RFC3339, inclusive)")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all usage records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c().do("DELETE", "/v1/usage", nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), okMark("usage cleared"))
			return nil
		},
	}
	cmd.AddCommand(records, clearCmd)
	return cmd
}

func printSummary(out io.Writer, s usage.Summary) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "calls\t%d (%d ok, %d failed)\n", s.TotalCalls, s.SuccessfulCalls, s.FailedCalls)
	fmt.Fprintf(w, "tokens\t%d in / %d out\n", s.InputTokens, s.OutputTokens)
	fmt.Fprintf(w, "cost\t$%.6f\n", s.TotalCostUSD)
	fmt.Fprintf(w, "savings\t$%.6f (baseline $%.2f/call)\n", s.SavingsUSD, s.BaselinePerCallUSD)
	for _, k := range sortedKeys(s.CostByModel) {
		fmt.Fprintf(w, "  %s\t$%.6f\n", k, s.CostByModel[k])
	}
	_ = w.Flush()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func projectCmd(c func() *client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create and inspect projects",
	}

	var form dna.SetupForm
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Generate project DNA for a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form.Name = args[0]
			if form.Features == nil {
				form.Features = []string{}
			}
			var out struct {
				Project dna.Project `json:"project"`
			}
			if err := c().do("POST", "/v1/projects", form, &out); err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), okMark("created"), out.Project.ID)
			return printJSON(cmd.OutOrStdout(), out.Project.DNA)
		},
	}
	create.Flags().StringVar(&form.Description, "description", "", "project description")
	create.Flags().StringVar(&form.Type, "type", "fullstack", "project type")
	create.Flags().StringVar(&form.Framework, "framework", "", "UI framework")
	create.Flags().StringVar(&form.Styling, "styling", "", "styling approach")
	create.Flags().StringVar(&form.Database, "database", "", "primary database")
	create.Flags().StringSliceVar(&form.Features, "features", nil, "comma-separated feature list")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a project's DNA",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p dna.Project
			if err := c().do("GET", "/v1/projects/"+args[0], nil, &p); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
	cmd.AddCommand(create, get)
	return cmd
}
