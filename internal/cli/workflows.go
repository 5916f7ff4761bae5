package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/resource"
)

func groupCmd(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
}

func newHooksCmd(g *globalFlags) *cobra.Command {
	cmd := groupCmd("hooks", "Workflow bindings and notifications")

	get := &cobra.Command{
		Use:   "get",
		Short: "Show flow role bindings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			b, err := res.Hooks.Get(cmd.Context())
			if err != nil {
				return describeErr(err, "Loading workflow bindings failed")
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), b)
			}
			printBindings(cmd, b)
			return nil
		},
	}

	set := &cobra.Command{
		Use:   "set <flow>=<url>...",
		Short: "Save flow role bindings (empty url unsets)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := domain.WorkflowBindings{}
			for _, a := range args {
				flow, url, ok := strings.Cut(a, "=")
				if !ok {
					return fmt.Errorf("bad binding %q, want flow=url", a)
				}
				if err := resource.Required("flow", flow); err != nil {
					return err
				}
				b[strings.TrimSpace(flow)] = strings.TrimSpace(url)
			}
			res, err := g.resources()
			if err != nil {
				return err
			}
			saved, err := res.Hooks.Save(cmd.Context(), b)
			if err != nil {
				return describeErr(err, "Saving workflow bindings failed")
			}
			return g.printResult(cmd.OutOrStdout(), saved, domain.NoticeSuccess, "Workflow bindings saved")
		},
	}

	var in resource.NotifyInput
	var data string
	notify := &cobra.Command{
		Use:   "notify",
		Short: "Send a test notification through a bound flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(data) != "" {
				raw, err := resource.ParsePayload(data)
				if err != nil {
					return err
				}
				in.Data = map[string]any{}
				if err := json.Unmarshal(raw, &in.Data); err != nil {
					return domain.ErrInvalidJSON
				}
			}
			res, err := g.resources()
			if err != nil {
				return err
			}
			out, err := res.Hooks.Notify(cmd.Context(), in)
			if err != nil {
				return describeErr(err, "Notification failed")
			}
			if out.DryRun {
				return g.printResult(cmd.OutOrStdout(), out, domain.NoticeInfo, fmt.Sprintf("Dry-run: %s not delivered", in.Flow))
			}
			return g.printResult(cmd.OutOrStdout(), out, domain.NoticeSuccess, fmt.Sprintf("%s notified", in.Flow))
		},
	}
	notify.Flags().StringVar(&in.Flow, "flow", "", "flow role (required)")
	notify.Flags().StringVar(&in.Event, "event", "", "event name (required)")
	notify.Flags().StringVar(&data, "data", "", "JSON object with event data")

	cmd.AddCommand(get, set, notify)
	return cmd
}

func newN8nCmd(g *globalFlags) *cobra.Command {
	cmd := groupCmd("n8n", "Trigger and diagnose n8n flows")
	var payload string

	trigger := &cobra.Command{
		Use:   "trigger <flow>",
		Short: "Trigger a flow by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			out, err := res.N8n.TriggerFlow(cmd.Context(), args[0], payload)
			if err != nil {
				return describeErr(err, "Trigger failed")
			}
			return g.printTriggered(cmd, args[0], out)
		},
	}

	triggerURL := &cobra.Command{
		Use:   "trigger-url <url>",
		Short: "Trigger an arbitrary webhook URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			out, err := res.N8n.TriggerURL(cmd.Context(), args[0], payload)
			if err != nil {
				return describeErr(err, "Trigger failed")
			}
			return g.printTriggered(cmd, args[0], out)
		},
	}

	diagnose := &cobra.Command{
		Use:   "diagnose <url>",
		Short: "Probe a webhook and explain the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			d, err := res.N8n.Diagnose(cmd.Context(), args[0], payload)
			if err != nil {
				return describeErr(err, "Diagnostics failed")
			}
			w := cmd.OutOrStdout()
			if g.asJSON {
				return printJSON(w, d)
			}
			level := domain.NoticeSuccess
			if !d.OK() {
				level = domain.NoticeError
			}
			printNotice(w, level, fmt.Sprintf("%s: %s (%d, %dms)", args[0], d.Status, d.HTTPCode, d.LatencyMs))
			if d.Hint != "" {
				fmt.Fprintf(w, "  hint: %s\n", d.Hint)
			}
			if d.Details != "" {
				dimColor.Fprintf(w, "  %s\n", d.Details)
			}
			return nil
		},
	}

	for _, c := range []*cobra.Command{trigger, triggerURL, diagnose} {
		c.Flags().StringVar(&payload, "payload", "", "JSON payload, empty means {}")
	}
	cmd.AddCommand(trigger, triggerURL, diagnose, newFlowsCmd(g))
	return cmd
}

func newFlowsCmd(g *globalFlags) *cobra.Command {
	cmd := groupCmd("flows", "Named n8n flows")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved flows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			flows, err := res.Flows.List(cmd.Context())
			if err != nil {
				return describeErr(err, "Loading flows failed")
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), flows)
			}
			for _, f := range flows {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", f.Flow, f.URL)
			}
			return nil
		},
	}

	upsert := &cobra.Command{
		Use:   "upsert <flow> <url>",
		Short: "Create or update a named flow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			if err := res.Flows.Upsert(cmd.Context(), args[0], args[1]); err != nil {
				return describeErr(err, "Saving flow failed")
			}
			return g.printResult(cmd.OutOrStdout(), domain.FlowBinding{Flow: args[0], URL: args[1]},
				domain.NoticeSuccess, fmt.Sprintf("%s saved", args[0]))
		},
	}

	var payload string
	trigger := &cobra.Command{
		Use:   "trigger <flow>",
		Short: "Trigger a saved flow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			out, err := res.Flows.Trigger(cmd.Context(), args[0], payload)
			if err != nil {
				return describeErr(err, "Flow trigger failed")
			}
			return g.printTriggered(cmd, args[0], out)
		},
	}
	trigger.Flags().StringVar(&payload, "payload", "", "JSON payload, empty means {}")

	cmd.AddCommand(list, upsert, trigger)
	return cmd
}

func newBuilderCmd(g *globalFlags) *cobra.Command {
	cmd := groupCmd("builder", "Agent builder")

	list := &cobra.Command{
		Use:   "list",
		Short: "List builder agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			agents, err := res.Builder.List(cmd.Context())
			if err != nil {
				return describeErr(err, "Loading builder agents failed")
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), agents)
			}
			for _, a := range agents {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", a.ID, a.Name, a.Role)
			}
			return nil
		},
	}

	var in domain.BuilderAgent
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a builder agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			agent, err := res.Builder.Create(cmd.Context(), in)
			if err != nil {
				return describeErr(err, "Creating builder agent failed")
			}
			return g.printResult(cmd.OutOrStdout(), agent, domain.NoticeSuccess, fmt.Sprintf("%s created (%s)", agent.Name, agent.ID))
		},
	}
	create.Flags().StringVar(&in.Name, "name", "", "agent name (required)")
	create.Flags().StringVar(&in.Role, "role", "", "role")
	create.Flags().StringVar(&in.Personality, "personality", "", "personality")
	create.Flags().StringVar(&in.Mission, "mission", "", "mission")

	ask := &cobra.Command{
		Use:   "ask <agent-id> <prompt>",
		Short: "Ask a builder agent",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			prompt := strings.Join(args[1:], " ")
			answer, err := res.Builder.Ask(cmd.Context(), args[0], prompt)
			if err != nil {
				return describeErr(err, "Ask failed")
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), domain.AskResponse{Response: answer})
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}

	cmd.AddCommand(list, create, ask)
	return cmd
}

func (g *globalFlags) printTriggered(cmd *cobra.Command, target string, out domain.TriggerResult) error {
	if dry, _ := out["dry_run"].(bool); dry {
		return g.printResult(cmd.OutOrStdout(), out, domain.NoticeInfo, fmt.Sprintf("Dry-run: %s not called", target))
	}
	return g.printResult(cmd.OutOrStdout(), out, domain.NoticeSuccess, fmt.Sprintf("%s triggered", target))
}

func printBindings(cmd *cobra.Command, b domain.WorkflowBindings) {
	flows := make([]string, 0, len(b))
	for f := range b {
		flows = append(flows, f)
	}
	sort.Strings(flows)
	for _, f := range flows {
		url := b[f]
		if !b.Bound(f) {
			url = dimColor.Sprint("(not set)")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s\n", f, url)
	}
}
