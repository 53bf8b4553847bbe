/*
Copyright 2025 eatmoreapple

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Command gosql compiles a single mapper statement against a bound
// argument document and prints the resulting (query, args) pair,
// without touching a real database. It exists for template authors to
// iterate on a statement's control flow before wiring it to an engine.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"golang.org/x/term"
	"gopkg.in/yaml.v2"

	juice "github.com/dynsql/dynsql"
	"github.com/dynsql/dynsql/driver"
	"github.com/dynsql/dynsql/expr"
	"github.com/dynsql/dynsql/sql"
	"github.com/dynsql/dynsql/value"
)

type options struct {
	Config  string `short:"c" long:"config" description:"mapper/environment XML configuration file; when set, -id selects the statement to compile" value-name:"file"`
	ID      string `long:"id" description:"statement id, required with -config" value-name:"namespace.id"`
	Raw     string `long:"raw" description:"compile a single raw SQL template file instead of loading -config" value-name:"file"`
	Driver  string `long:"driver" description:"driver name for -raw mode (mysql, postgres, sqlite, sqlserver)" value-name:"name" default:"mysql"`
	Env     string `long:"env" description:"environment id to use from -config; defaults to the configuration's default" value-name:"id"`
	Params  string `short:"p" long:"params" description:"JSON or YAML file of bind parameters; '-' or omitted reads stdin" value-name:"file"`
	Action  string `long:"action" description:"statement action for -raw mode: select, insert, update, delete" value-name:"action" default:"select"`
	Explain bool   `long:"explain" description:"pretty-print the resolved driver and arguments alongside the query"`
	Version bool   `long:"version" description:"print gosql's version and exit"`
}

var version = "dev"

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[options]"
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if opts.Version {
		fmt.Println(version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "gosql:", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	root, err := loadParams(opts.Params)
	if err != nil {
		return fmt.Errorf("loading params: %w", err)
	}
	scope := expr.NewScope(value.FromAny(root))

	var (
		query string
		args  []any
		drv   driver.Driver
	)

	switch {
	case opts.Config != "":
		query, args, drv, err = buildFromConfig(opts, scope)
	case opts.Raw != "":
		query, args, drv, err = buildFromRaw(opts, scope)
	default:
		err = fmt.Errorf("one of -config or -raw is required")
	}
	if err != nil {
		return err
	}

	fmt.Println(query)
	if opts.Explain {
		explain(drv, args)
	} else if len(args) > 0 {
		fmt.Println(formatArgs(args))
	}
	return nil
}

func buildFromConfig(opts options, scope *expr.Scope) (string, []any, driver.Driver, error) {
	if opts.ID == "" {
		return "", nil, nil, fmt.Errorf("-id is required with -config")
	}
	cfg, err := juice.NewXMLConfiguration(opts.Config)
	if err != nil {
		return "", nil, nil, err
	}
	statement, err := cfg.GetStatement(opts.ID)
	if err != nil {
		return "", nil, nil, err
	}
	envID := opts.Env
	if envID == "" {
		envID = cfg.Environments().Attribute("default")
	}
	env, err := cfg.Environments().Use(envID)
	if err != nil {
		return "", nil, nil, err
	}
	drv, err := driver.Get(env.Driver)
	if err != nil {
		return "", nil, nil, err
	}
	query, args, err := statement.Build(drv, scope)
	return query, args, drv, err
}

func buildFromRaw(opts options, scope *expr.Scope) (string, []any, driver.Driver, error) {
	drv, err := driver.Get(opts.Driver)
	if err != nil {
		return "", nil, nil, err
	}
	action, err := parseAction(opts.Action)
	if err != nil {
		return "", nil, nil, err
	}
	raw, err := os.ReadFile(opts.Raw)
	if err != nil {
		return "", nil, nil, err
	}
	statement := juice.NewRawSQLStatement(string(raw), action)
	query, args, err := statement.Build(drv, scope)
	return query, args, drv, err
}

func parseAction(s string) (sql.Action, error) {
	switch strings.ToLower(s) {
	case "select":
		return sql.Select, nil
	case "insert":
		return sql.Insert, nil
	case "update":
		return sql.Update, nil
	case "delete":
		return sql.Delete, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

// loadParams reads a JSON or YAML document from path (or stdin when
// path is empty or "-") into a generic map. gopkg.in/yaml.v2 accepts
// plain JSON object syntax too, so one decoder covers both a -params
// foo.json and a -params foo.yaml.
func loadParams(path string) (map[string]any, error) {
	var r io.Reader
	switch path {
	case "", "-":
		r = os.Stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, nil
	}

	result := make(map[string]any)
	err = yaml.Unmarshal(data, &result)
	return result, err
}

func formatArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// explain pretty-prints the resolved driver name and bound arguments
// using pp/v3, with color disabled when stdout isn't a terminal.
func explain(drv driver.Driver, args []any) {
	printer := pp.New()
	printer.SetColoringEnabled(term.IsTerminal(int(os.Stdout.Fd())))
	_, _ = printer.Println(struct {
		Driver string
		Args   []any
	}{
		Driver: drv.Name(),
		Args:   args,
	})
}
