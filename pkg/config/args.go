// Package config handles CLI argument validation and connection resolution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/adam-huganir/zbx-template-import/pkg/loader"
	"github.com/adam-huganir/zbx-template-import/pkg/rules"
	"github.com/adam-huganir/zbx-template-import/pkg/types"
	"github.com/rs/zerolog"
)

// EndpointPath is the JSON-RPC endpoint below the Zabbix frontend URL.
const EndpointPath = "/api_jsonrpc.php"

// Credentials hold either a token or a username/password pair, never both.
type Credentials struct {
	Token    string
	Username string
	Password string
}

// UsesToken reports whether the credentials authenticate with an API token.
func (c Credentials) UsesToken() bool {
	return c.Token != ""
}

// Connection is everything needed to talk to the Zabbix API.
type Connection struct {
	Endpoint    string
	Credentials Credentials
	VerifyTLS   bool
}

// ValidateArguments checks the arguments for the CLI and returns a ValidationError if any issues are found
func ValidateArguments(arguments *types.Arguments, logger *zerolog.Logger) error {
	var err error
	var errs []error

	// cobra already handles the positional argument count and the token/username flags,
	// these are repeated here so the rules hold for anyone building Arguments by hand
	errs = validatePath(arguments, errs)
	errs = verifyMutuallyExclusives(arguments, errs)
	errs = verifyRulesFile(arguments, errs)

	if len(errs) > 0 {
		logger.Debug().Msg(fmt.Sprintf("Errors found: %d", len(errs)))
		for _, err = range errs {
			logger.Error().Err(err).Msg("argument validation error")
		}
		return &types.ValidationError{Errors: errs}
	}
	return nil
}

func validatePath(args *types.Arguments, errs []error) []error {
	if strings.TrimSpace(args.Path) == "" && !args.DisplayRules {
		errs = append(errs, errors.New("a template file or directory is required"))
	}
	return errs
}

// verifyMutuallyExclusives rejects a token combined with a username or password
func verifyMutuallyExclusives(args *types.Arguments, errs []error) []error {
	if args.APIToken != "" && (args.Username != "" || args.Password != "") {
		errs = append(errs, errors.New("--api-token cannot be supplied with --username or --password"))
	}
	if (args.Username == "") != (args.Password == "") {
		errs = append(errs, errors.New("--username and --password must be supplied together"))
	}
	return errs
}

func verifyRulesFile(args *types.Arguments, errs []error) []error {
	if args.RulesFile == "" {
		return errs
	}
	exists, err := loader.Exists(args.RulesFile)
	if err != nil {
		return append(errs, err)
	}
	if !exists {
		errs = append(errs, errors.New("rules file "+args.RulesFile+" does not exist"))
	}
	return errs
}

// ResolveConnection picks the API URL and credentials from the arguments,
// falling back to env (the parsed environment file) for whatever is missing.
func ResolveConnection(args *types.Arguments, env map[string]string) (*Connection, error) {
	var errs []error

	creds := Credentials{Token: args.APIToken, Username: args.Username, Password: args.Password}
	if creds.Token != "" && (creds.Username != "" || creds.Password != "") {
		errs = append(errs, errors.New("--api-token cannot be supplied with --username or --password"))
	}
	if creds.Token == "" && creds.Username == "" && creds.Password == "" {
		creds.Token = env[EnvAPIToken]
	}
	if creds.Token == "" && (creds.Username == "" || creds.Password == "") {
		errs = append(errs, fmt.Errorf("please supply an api token (--api-token or %s in the env file) or --username and --password", EnvAPIToken))
	}

	rawURL := args.APIURL
	if rawURL == "" {
		rawURL = env[EnvAPIURL]
	}
	var endpoint string
	if rawURL == "" {
		errs = append(errs, fmt.Errorf("please supply the api url (--api or %s in the env file)", EnvAPIURL))
	} else {
		var err error
		endpoint, err = NormalizeEndpoint(rawURL)
		if err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, &types.ValidationError{Errors: errs}
	}
	return &Connection{
		Endpoint:    endpoint,
		Credentials: creds,
		VerifyTLS:   !args.DisableSSL,
	}, nil
}

// NormalizeEndpoint turns a frontend URL into the JSON-RPC endpoint URL.
func NormalizeEndpoint(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid api url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid api url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	if !strings.HasSuffix(u.Path, EndpointPath) {
		u.Path += EndpointPath
	}
	return u.String(), nil
}

// RuleFlags converts the CLI switches into rule builder flags.
func RuleFlags(args *types.Arguments) rules.Flags {
	return rules.Flags{
		CreateMissing:  !args.NoCreateMissing,
		UpdateExisting: !args.NoUpdateExisting,
		DeleteMissing:  args.DeleteMissing,
	}
}

// LoadRules builds the rule set for args, applying the rules file when one is given.
func LoadRules(args *types.Arguments, logger *zerolog.Logger) (rules.RuleSet, error) {
	rs := rules.Build(RuleFlags(args))
	if args.RulesFile == "" {
		return rs, nil
	}
	overrides, err := rules.LoadFile(args.RulesFile)
	if err != nil {
		return nil, &types.ValidationError{Errors: []error{err}}
	}
	logger.Debug().Msgf("applying %d rule override(s) from %s", len(overrides), args.RulesFile)
	return rules.Merge(rs, overrides)
}
