package main

import (
	"context"

	zbximport "github.com/adam-huganir/zbx-template-import/pkg"
	"github.com/adam-huganir/zbx-template-import/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newRootCommand(settings *types.Arguments, logger *zerolog.Logger) *cobra.Command {
	rootCommand := &cobra.Command{
		Use:   "zbx-template-import [flags] <path>",
		Short: "Import Zabbix templates through the API",
		Long: `zbx-template-import uploads Zabbix templates in YAML format to a Zabbix server,
either a single file or every *.yaml file in a directory (optionally recursive).

If the api url or token is not given, they are read from ZBX_API_URL and
ZBX_API_TOKEN in the ".env" file.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if settings.Verbose && logger.GetLevel() > zerolog.DebugLevel {
				*logger = logger.Level(zerolog.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd.Context(), settings, logger, cmd, args)
		},
	}
	return rootCommand
}

func initRoot(rootCommand *cobra.Command, settings *types.Arguments) {
	flags := rootCommand.Flags()
	flags.SortFlags = false
	addAPIFlags(flags, settings)
	addRuleFlags(flags, settings)

	flags.BoolVarP(&settings.DryRun, "dry-run", "T", false, "Display only the list of templates to be imported")
	flags.BoolVarP(&settings.DisableSSL, "disable-ssl", "k", false, "Disable TLS certificate verification")
	flags.BoolVarP(&settings.Recursive, "recursive", "r", false, "Search directories recursively")
	rootCommand.PersistentFlags().BoolVarP(&settings.Verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVar(&settings.Version, "version", false, "Print the version and exit")

	rootCommand.MarkFlagsMutuallyExclusive("api-token", "username")
	rootCommand.MarkFlagsMutuallyExclusive("api-token", "password")
	_ = rootCommand.MarkFlagFilename("rules-file", "yaml", "yml", "json", "toml")
	_ = rootCommand.MarkFlagFilename("env-file")
}

func addAPIFlags(flags *pflag.FlagSet, settings *types.Arguments) {
	flags.StringVarP(&settings.APIURL, "api", "a", "", `Zabbix frontend URL (if unset, read from ZBX_API_URL in the env file)`)
	flags.StringVarP(&settings.APIToken, "api-token", "A", "", "Zabbix API token")
	flags.StringVarP(&settings.Username, "username", "u", "", "Zabbix API username")
	flags.StringVarP(&settings.Password, "password", "p", "", "Zabbix API password")
	flags.StringVar(&settings.EnvFile, "env-file", settings.EnvFile, "Environment file with ZBX_API_URL and ZBX_API_TOKEN fallbacks")
	flags.DurationVar(&settings.Timeout, "timeout", 0, "Per-request timeout for API calls, 0 waits forever")
}

// addRuleFlags binds the switches that shape the configuration.import rules.
func addRuleFlags(flags *pflag.FlagSet, settings *types.Arguments) {
	flags.BoolVarP(&settings.DeleteMissing, "delete-missing", "D", false, "Delete any values not present in imported templates")
	flags.BoolVarP(&settings.NoUpdateExisting, "no-update-existing", "E", false, "Do not update already existing values")
	flags.BoolVarP(&settings.NoCreateMissing, "no-create-missing", "M", false, "Do not add any values not present in the current configuration")
	flags.StringVarP(&settings.RulesFile, "rules-file", "R", "", "Overwrite import rules with rules found in a YAML, JSON or TOML file")
	flags.BoolVar(&settings.DisplayRules, "display-rules", false, "Print the import rules and exit")
}

func runRoot(ctx context.Context, settings *types.Arguments, logger *zerolog.Logger, cmd *cobra.Command, args []string) error {
	app := zbximport.NewApp(settings, logger)
	app.Out = cmd.OutOrStdout()
	return app.Run(ctx, args)
}
