package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/xela07ax/blaxing-console/internal/domain"
	"github.com/xela07ax/blaxing-console/internal/resource"
)

func newConfigCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show backend configuration (key presence, dry-run, bases)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			cfg, err := res.System.Config(cmd.Context())
			if err != nil {
				return describeErr(err, "Loading backend config failed")
			}
			w := cmd.OutOrStdout()
			if g.asJSON {
				return printJSON(w, cfg)
			}
			fmt.Fprintf(w, "API key:        %s\n", yesNo(cfg.HasKey))
			fmt.Fprintf(w, "Dry-run:        %s\n", yesNo(cfg.DryRun))
			fmt.Fprintf(w, "Agent manager:  %s\n", cfg.AgentManagerBase)
			fmt.Fprintf(w, "n8n webhooks:   %s\n", cfg.N8nWebhookBase)
			return nil
		},
	}
}

func newAuditCmd(g *globalFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the newest audit entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			items, err := res.System.Audit(cmd.Context(), limit)
			if err != nil {
				return describeErr(err, "Failed to load audit")
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), items)
			}
			printAudit(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of entries")
	return cmd
}

func newAgentsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "Agent lifecycle operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List agents with state and uptime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			agents, err := res.Agents.List(cmd.Context())
			if err != nil {
				return describeErr(err, "Failed to load agents")
			}
			if g.asJSON {
				return printJSON(cmd.OutOrStdout(), agents)
			}
			printAgents(cmd.OutOrStdout(), agents)
			return nil
		},
	}

	cmd.AddCommand(
		list,
		agentCmd(g, "activate", "Activate an agent", "Activation failed", "%s activated",
			func(ctx context.Context, r *resource.Resources, id string) (*domain.Agent, error) {
				return r.Agents.Activate(ctx, id)
			}),
		agentCmd(g, "deactivate", "Deactivate an agent", "Deactivation failed", "%s deactivated",
			func(ctx context.Context, r *resource.Resources, id string) (*domain.Agent, error) {
				return r.Agents.Deactivate(ctx, id)
			}),
		agentCmd(g, "status", "Fetch the live status of an agent", "Status check failed", "",
			func(ctx context.Context, r *resource.Resources, id string) (*domain.Agent, error) {
				return r.Agents.Status(ctx, id)
			}),
		bulkCmd(g, "activate-all", true),
		bulkCmd(g, "deactivate-all", false),
		newRegisterCmd(g),
	)
	return cmd
}

type agentCall func(ctx context.Context, r *resource.Resources, id string) (*domain.Agent, error)

// agentCmd команда над одним агентом. Пустой format печатает состояние и uptime.
func agentCmd(g *globalFlags, use, short, generic, format string, call agentCall) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <agent-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			agent, err := call(cmd.Context(), res, args[0])
			if err != nil {
				return describeErr(err, generic)
			}
			msg := fmt.Sprintf("%s is %s (uptime %ds)", agent.ID, agent.State, agent.Uptime)
			if format != "" {
				msg = fmt.Sprintf(format, agent.ID)
			}
			return g.printResult(cmd.OutOrStdout(), agent, domain.NoticeSuccess, msg)
		},
	}
}

func bulkCmd(g *globalFlags, use string, activate bool) *cobra.Command {
	short, generic, done := "Deactivate every agent", "Deactivate all failed", "All agents deactivated"
	if activate {
		short, generic, done = "Activate every agent", "Activate all failed", "All agents activated"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := g.resources()
			if err != nil {
				return err
			}
			call := res.Agents.DeactivateAll
			if activate {
				call = res.Agents.ActivateAll
			}
			out, err := call(cmd.Context())
			if err != nil {
				return describeErr(err, generic)
			}
			if out.DryRun {
				return g.printResult(cmd.OutOrStdout(), out, domain.NoticeInfo, "Dry-run: no agents were changed")
			}
			return g.printResult(cmd.OutOrStdout(), out, domain.NoticeSuccess, done)
		},
	}
}

func newRegisterCmd(g *globalFlags) *cobra.Command {
	var in resource.RegisterInput
	var env []string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new agent with the agent manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseEnv(env)
			if err != nil {
				return err
			}
			in.Env = parsed

			res, err := g.resources()
			if err != nil {
				return err
			}
			agent, err := res.Agents.Register(cmd.Context(), in)
			if err != nil {
				return describeErr(err, "Registration failed")
			}
			id := agent.ID
			if id == "" {
				id = in.AgentID
			}
			return g.printResult(cmd.OutOrStdout(), agent, domain.NoticeSuccess, fmt.Sprintf("%s registered", id))
		},
	}
	cmd.Flags().StringVar(&in.AgentID, "id", "", "agent id (required)")
	cmd.Flags().StringVar(&in.Image, "image", "", "container image (required)")
	cmd.Flags().StringVar(&in.Name, "name", "", "display name")
	cmd.Flags().StringArrayVar(&env, "env", nil, "environment variable KEY=VALUE, repeatable")
	return cmd
}

func parseEnv(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("bad --env %q, want KEY=VALUE", p)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}

func yesNo(b bool) string {
	if b {
		return okColor.Sprint("yes")
	}
	return dimColor.Sprint("no")
}
