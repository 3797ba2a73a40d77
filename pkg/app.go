// Package zbximport provides the core application logic for importing Zabbix templates.
package zbximport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/adam-huganir/zbx-template-import/pkg/config"
	"github.com/adam-huganir/zbx-template-import/pkg/loader"
	"github.com/adam-huganir/zbx-template-import/pkg/rules"
	"github.com/adam-huganir/zbx-template-import/pkg/types"
	"github.com/adam-huganir/zbx-template-import/pkg/zabbix"
	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/isbm/textwrap"
	"github.com/rs/zerolog"
)

const summaryWidth = 120

// Importer submits one template source with the given rules.
type Importer interface {
	Import(ctx context.Context, source string, rs rules.RuleSet) (json.RawMessage, error)
}

// App holds the application state and dependencies for an import run.
type App struct {
	Settings *types.Arguments
	Logger   *zerolog.Logger
	Out      io.Writer

	// Importer is connected from Settings on Run when left nil.
	Importer Importer
	Rules    rules.RuleSet
	Errors   types.ImportErrors

	logout func(context.Context) error
}

// NewApp creates a new App writing its report to stdout.
func NewApp(settings *types.Arguments, logger *zerolog.Logger) *App {
	return &App{
		Settings: settings,
		Logger:   logger,
		Out:      os.Stdout,
	}
}

// Run imports every template found at the configured path.
// Per-file failures do not stop the run and are not returned, they are printed at the end.
func (app *App) Run(ctx context.Context, args []string) (err error) {
	if len(args) > 0 {
		app.Settings.Path = args[0]
	}
	if app.Logger.GetLevel() <= zerolog.TraceLevel {
		app.LogSettings()
	}

	if app.Settings.Version {
		_, err = fmt.Fprintln(app.Out, GetVersion())
		return err
	}

	if err = config.ValidateArguments(app.Settings, app.Logger); err != nil {
		return &types.ExitError{Code: types.ExitCodeUsage, Err: err}
	}

	app.Rules, err = config.LoadRules(app.Settings, app.Logger)
	if err != nil {
		return &types.ExitError{Code: types.ExitCodeUsage, Err: err}
	}

	if app.Settings.DisplayRules {
		rendered, err := rules.Render(app.Rules)
		if err != nil {
			return &types.ExitError{Code: types.ExitCodeFailure, Err: err}
		}
		_, err = fmt.Fprintln(app.Out, string(rendered))
		return err
	}

	var conn *config.Connection
	if !app.Settings.DryRun && app.Importer == nil {
		env, err := config.LoadEnvFile(app.Settings.EnvFile)
		if err != nil {
			return &types.ExitError{Code: types.ExitCodeUsage, Err: fmt.Errorf("unable to read %s: %w", app.Settings.EnvFile, err)}
		}
		conn, err = config.ResolveConnection(app.Settings, env)
		if err != nil {
			return &types.ExitError{Code: types.ExitCodeUsage, Err: err}
		}
	}

	files, err := loader.ListTemplates(app.Settings.Path, app.Settings.Recursive, app.Logger)
	if err != nil {
		if errors.Is(err, loader.ErrNotFileOrDir) {
			_, _ = fmt.Fprintln(app.Out, "I need a yaml file or directory.")
		}
		return &types.ExitError{Code: types.ExitCodeFailure, Err: err}
	}

	if conn != nil {
		if err = app.connect(ctx, conn); err != nil {
			return &types.ExitError{Code: types.ExitCodeFailure, Err: err}
		}
	}
	defer app.disconnect(ctx)

	for _, file := range files {
		_, _ = fmt.Fprintln(app.Out, file)
		if app.Settings.DryRun {
			continue
		}
		app.importFile(ctx, file)
		_, _ = fmt.Fprintln(app.Out)
	}

	app.PrintErrors()
	return nil
}

func (app *App) connect(ctx context.Context, conn *config.Connection) error {
	if !conn.VerifyTLS {
		app.Logger.Warn().Msg("TLS certificate verification is disabled")
	}
	client := zabbix.New(conn.Endpoint,
		zabbix.WithInsecureSkipVerify(!conn.VerifyTLS),
		zabbix.WithTimeout(app.Settings.Timeout),
		zabbix.WithLogger(app.Logger),
	)
	if conn.Credentials.UsesToken() {
		app.Logger.Debug().Msg("authenticating with api token")
		client.LoginWithToken(conn.Credentials.Token)
	} else if err := client.Login(ctx, conn.Credentials.Username, conn.Credentials.Password); err != nil {
		return err
	}
	app.Importer = client
	app.logout = client.Logout
	return nil
}

func (app *App) disconnect(ctx context.Context) {
	if app.logout == nil {
		return
	}
	if err := app.logout(ctx); err != nil {
		app.Logger.Warn().Err(err).Msg("unable to close api session")
	}
	app.logout = nil
}

// importFile submits one file, recording any failure instead of returning it.
func (app *App) importFile(ctx context.Context, path string) {
	source, err := loader.ReadTemplate(path)
	if err != nil {
		app.Errors.Add(path, err)
		return
	}
	result, err := app.Importer.Import(ctx, source, app.Rules)
	if err != nil {
		app.Logger.Debug().Err(err).Str("file", path).Msg("import failed")
		app.Errors.Add(path, err)
		return
	}
	_, _ = fmt.Fprintln(app.Out, "result = "+string(result))
}

// PrintErrors writes every recorded failure, so they don't get lost in the per-file output.
func (app *App) PrintErrors() {
	if len(app.Errors) == 0 {
		return
	}
	wrapper := textwrap.NewTextWrap()
	wrapper.SetWidth(summaryWidth)
	for _, e := range app.Errors {
		lines := wrapper.Wrap(e.Error())
		if len(lines) == 0 {
			continue
		}
		_, _ = fmt.Fprintln(app.Out, strings.Join(lines, "\n    "))
	}
}

// LogSettings logs the current application settings as YAML at TRACE level, secrets masked.
func (app *App) LogSettings() {
	app.Logger.Trace().Msg("Settings:")
	yamlSettings, err := yaml.Marshal(app.Settings.Redacted())
	if err != nil {
		app.Logger.Error().Err(err).Msg("unable to render settings")
		return
	}
	for _, line := range bytes.Split(yamlSettings, []byte("\n")) {
		app.Logger.Trace().Msg("  " + string(line))
	}
}
