package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/opmodel/extplugin/internal/archive"
	"github.com/opmodel/extplugin/internal/core"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/output"
)

var loadRequestPath string

// NewLoadCmd creates the load command.
func NewLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load <package.zip>",
		Short: "Dry-run loading a package into an empty gateway",
		Long: `Load a package the way 'extplugin serve' would, against the built-in host
units only, and report which units become published components.

With --request, the resulting plugin chain handles one GET request and the
response is printed.

Examples:
  extplugin load ./ext-lib/waf-1.0.0.zip
  extplugin load ./ext-lib/waf-1.0.0.zip --request /api/users`,
		Args: cobra.ExactArgs(1),
		RunE: runLoad,
	}

	cmd.Flags().StringVar(&loadRequestPath, "request", "", "Send a GET request with this path through the loaded plugins")

	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return withExitCode(oerrors.NewNotFoundError("package file not found", path, ""))
	}

	ctx := cmd.Context()
	pkg, err := archive.ParseFile(ctx, path)
	if err != nil {
		return withExitCode(err)
	}
	if pkg.IsEmpty() {
		return withExitCode(oerrors.NewValidationError("package has no "+archive.MetadataFile, path,
			"Rebuild the package with 'extplugin pack'"))
	}

	gw, err := newGateway()
	if err != nil {
		return withExitCode(err)
	}

	inst := gw.registry.Install(pkg)
	defer inst.Loader.Close()

	var components []core.Component
	err = output.RunWithSpinner(ctx, "Loading "+pkg.Key(), func() error {
		components = inst.Loader.LoadPublishable(gw.promoter)
		return nil
	})
	if err != nil {
		return withExitCode(err)
	}

	promoted := make(map[string]core.Component, len(components))
	var plugins []core.Plugin
	for _, c := range components {
		promoted[c.Name] = c
		if p, ok := c.Plugin(); ok {
			plugins = append(plugins, p)
		}
	}
	for _, name := range pkg.UnitNames() {
		if c, ok := promoted[name]; ok {
			output.Println(output.FormatUnitLine(string(c.Kind), name, output.StatusLoaded))
		} else {
			output.Println(output.FormatUnitLine("unit", name, output.StatusSkipped))
		}
	}
	output.Println(output.StyleSummary.Render(
		fmt.Sprintf("%s %s: %d of %d units published", pkg.Key(), pkg.Version, len(components), len(pkg.Units))))

	if loadRequestPath == "" {
		return nil
	}

	gw.dispatcher.PutExtPlugins(plugins)
	ex := core.NewExchange(http.MethodGet, loadRequestPath, nil)
	if err := gw.dispatcher.Execute(ctx, ex); err != nil {
		return withExitCode(err)
	}
	if !ex.Response.Written {
		output.Println("no plugin handled " + loadRequestPath)
		return nil
	}
	output.Println(fmt.Sprintf("%d %s", ex.Response.Status, http.StatusText(ex.Response.Status)))
	output.Println(string(ex.Response.Body))
	return nil
}
