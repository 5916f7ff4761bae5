// Package cli содержит команды blaxctl: разовые вызовы к бэкенду Blaxing без сессии дашборда.
package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/xela07ax/blaxing-console/internal/apiclient"
	"github.com/xela07ax/blaxing-console/internal/dashboard"
	"github.com/xela07ax/blaxing-console/internal/infra"
	"github.com/xela07ax/blaxing-console/internal/resource"
	"go.uber.org/zap"
)

// version переопределяется при сборке через -ldflags "-X .../internal/cli.version=..."
var version = "0.4.0"

type globalFlags struct {
	configPath   string
	baseURL      string
	mode         string
	apiKey       string
	baseOverride string
	timeout      time.Duration
	asJSON       bool
	verbose      bool
}

// Execute запускает корневую команду.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd собирает дерево команд. Каждый вызов дает независимый набор флагов.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "blaxctl",
		Short:         "Blaxing operations console CLI",
		Long:          color.CyanString("blaxctl") + ": управление агентами и n8n флоу через REST API Blaxing.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default ./config.yaml or ./configs/config.yaml)")
	pf.StringVar(&g.baseURL, "base", "", "backend base URL, overrides backend.base_url")
	pf.StringVar(&g.mode, "mode", "", "source mode: mock, prod, staging")
	pf.StringVar(&g.apiKey, "api-key", "", "value for X-API-KEY")
	pf.StringVar(&g.baseOverride, "base-override", "", "agent manager base for staging mode")
	pf.DurationVar(&g.timeout, "timeout", 0, "request timeout ceiling (default 20s)")
	pf.BoolVar(&g.asJSON, "json", false, "print raw JSON")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		newVersionCmd(),
		newConfigCmd(g),
		newAuditCmd(g),
		newAgentsCmd(g),
		newHooksCmd(g),
		newN8nCmd(g),
		newBuilderCmd(g),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "blaxctl %s\n", version)
		},
	}
}

// resources собирает клиент: конфиг и ENV дают основу, флаги ее перекрывают.
func (g *globalFlags) resources() (*resource.Resources, error) {
	cfg, err := infra.LoadConfigFrom(g.configPath)
	if err != nil {
		return nil, err
	}
	backend := cfg.Backend
	if g.baseURL != "" {
		backend.BaseURL = g.baseURL
	}
	if g.mode != "" {
		backend.Mode = g.mode
	}
	if g.apiKey != "" {
		backend.APIKey = g.apiKey
	}
	if g.baseOverride != "" {
		backend.BaseOverride = g.baseOverride
	}
	if g.timeout > 0 {
		backend.Timeout = g.timeout
	}

	headers := backend.Headers()
	if err := headers.Validate(); err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if g.verbose {
		if logger, err = infra.NewLogger(infra.LoggerConfig{Level: "debug", Format: "console"}); err != nil {
			return nil, err
		}
	}
	c := apiclient.New(strings.TrimRight(backend.BaseURL, "/"), headers, logger, apiclient.WithTimeout(backend.Timeout))
	return resource.New(c), nil
}

// describeErr дает то же сообщение, что увидел бы пользователь дашборда.
func describeErr(err error, generic string) error {
	if dashboard.IsValidation(err) {
		return err
	}
	return errors.New(dashboard.Describe(err, generic))
}
