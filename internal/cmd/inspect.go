package cmd

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/opmodel/extplugin/internal/archive"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/output"
	"github.com/opmodel/extplugin/internal/unit"
)

var inspectTree bool

// NewInspectCmd creates the inspect command.
func NewInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <package.zip>",
		Short: "Show the metadata and units of a package",
		Long: `Read a package archive and show its identity and every unit it carries,
with the capability each unit declares.

Examples:
  extplugin inspect ./ext-lib/waf-1.0.0.zip
  extplugin inspect ./ext-lib/waf-1.0.0.zip --tree
  extplugin inspect ./ext-lib/waf-1.0.0.zip -o yaml`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}

	cmd.Flags().BoolVar(&inspectTree, "tree", false, "Show units as a namespace tree")

	return cmd
}

type unitView struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Eligible bool     `json:"eligible"`
	Requires []string `json:"requires,omitempty"`
	Error    string   `json:"error,omitempty"`
}

type packageView struct {
	Source     string     `json:"source"`
	GroupID    string     `json:"groupId"`
	ArtifactID string     `json:"artifactId"`
	Version    string     `json:"version"`
	Units      []unitView `json:"units"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	view, err := inspectPackage(cmd, args[0])
	if err != nil {
		return withExitCode(err)
	}

	switch GetOutputFormat() {
	case output.FormatJSON:
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		output.Println(string(data))
	case output.FormatYAML:
		data, err := yaml.Marshal(view)
		if err != nil {
			return err
		}
		output.Println(string(data))
	default:
		if inspectTree {
			units := make(map[string]string, len(view.Units))
			for _, u := range view.Units {
				units[u.Name] = u.Kind
				if u.Error != "" {
					units[u.Name] = "invalid"
				}
			}
			output.Println(output.RenderUnitTree(view.GroupID+":"+view.ArtifactID+" "+view.Version, units))
			return nil
		}
		output.Println(output.StyleNoun.Render(view.GroupID+":"+view.ArtifactID) + " " + view.Version)
		t := output.NewTable("UNIT", "KIND", "ELIGIBLE", "REQUIRES")
		for _, u := range view.Units {
			eligible := "no"
			if u.Eligible {
				eligible = "yes"
			}
			kind := u.Kind
			if u.Error != "" {
				kind = output.StatusStyle(output.StatusFailed).Render("invalid")
			}
			t.Row(u.Name, kind, eligible, strings.Join(u.Requires, ","))
		}
		output.Println(t.String())
	}
	return nil
}

func inspectPackage(cmd *cobra.Command, path string) (*packageView, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, oerrors.NewNotFoundError("package file not found", path, "")
	}

	pkg, err := archive.ParseFile(cmd.Context(), path)
	if err != nil {
		return nil, err
	}
	if pkg.IsEmpty() {
		return nil, oerrors.NewValidationError("package has no "+archive.MetadataFile, path,
			"Rebuild the package with 'extplugin pack'")
	}

	definer, err := unit.NewCUEDefiner()
	if err != nil {
		return nil, err
	}

	view := &packageView{
		Source:     path,
		GroupID:    pkg.GroupID,
		ArtifactID: pkg.ArtifactID,
		Version:    pkg.Version,
		Units:      make([]unitView, 0, len(pkg.Units)),
	}
	for _, name := range pkg.UnitNames() {
		u := unitView{Name: name}
		t, err := definer.Define(name, pkg.Key(), pkg.Units[name])
		if err != nil {
			u.Error = err.Error()
		} else {
			u.Kind = string(t.Kind)
			u.Eligible = t.Eligible()
			u.Requires = t.Requires
		}
		view.Units = append(view.Units, u)
	}
	return view, nil
}
