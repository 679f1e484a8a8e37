package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/opmodel/extplugin/internal/archive"
	"github.com/opmodel/extplugin/internal/config"
	oerrors "github.com/opmodel/extplugin/internal/errors"
	"github.com/opmodel/extplugin/internal/kubernetes"
	"github.com/opmodel/extplugin/internal/output"
	"github.com/opmodel/extplugin/internal/unit"
)

var (
	packGroupID    string
	packArtifactID string
	packVersion    string
	packOut        string
	packPublish    bool
)

// NewPackCmd creates the pack command.
func NewPackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <dir>",
		Short: "Build a package from a directory of unit documents",
		Long: `Build a package archive from the *.cue unit documents under a directory.
Unit names are the relative paths in dotted form, e.g. com/acme/Waf.cue
becomes com.acme.Waf. Every unit is validated before the archive is written.

With --publish the archive is also stored in a labelled ConfigMap that
'extplugin serve --source kubernetes' picks up.

Examples:
  extplugin pack ./units --group com.acme --artifact waf --version 1.0.0
  extplugin pack ./units --group com.acme --artifact waf --version 1.0.1 --publish -n gateway`,
		Args: cobra.ExactArgs(1),
		RunE: runPack,
	}

	cmd.Flags().StringVar(&packGroupID, "group", "", "Package group id")
	cmd.Flags().StringVar(&packArtifactID, "artifact", "", "Package artifact id")
	cmd.Flags().StringVar(&packVersion, "version", "", "Package version")
	cmd.Flags().StringVar(&packOut, "out", "", "Output file (default <artifact>-<version>.zip)")
	cmd.Flags().BoolVar(&packPublish, "publish", false, "Store the package in a ConfigMap")
	cmd.Flags().String("kubeconfig", "", "Path to kubeconfig file (env: EXTPLUGIN_KUBECONFIG)")
	cmd.Flags().String("context", "", "Kubernetes context to use (env: EXTPLUGIN_CONTEXT)")
	cmd.Flags().StringP("namespace", "n", "", "Namespace for the package ConfigMap (env: EXTPLUGIN_NAMESPACE)")

	for _, f := range []string{"group", "artifact", "version"} {
		_ = cmd.MarkFlagRequired(f)
	}

	return cmd
}

func runPack(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return withExitCode(oerrors.NewNotFoundError("unit directory not found", dir, ""))
	}

	pkg, err := archive.FromDir(dir, packGroupID, packArtifactID, packVersion)
	if err != nil {
		return withExitCode(oerrors.NewValidationError(err.Error(), dir, "Add at least one .cue unit document"))
	}
	if err := validateUnits(pkg); err != nil {
		return withExitCode(err)
	}

	data, err := archive.Build(pkg)
	if err != nil {
		return withExitCode(err)
	}

	out := packOut
	if out == "" {
		out = fmt.Sprintf("%s-%s%s", packArtifactID, packVersion, archive.Extension)
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return withExitCode(err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return withExitCode(err)
	}
	output.Println(output.FormatCheckmark(fmt.Sprintf("Packed %d units into %s", len(pkg.Units), out)))

	if !packPublish {
		return nil
	}
	return withExitCode(publishPackage(cmd, pkg, data))
}

// validateUnits defines every unit of pkg and reports all failures at once.
func validateUnits(pkg *archive.Package) error {
	definer, err := unit.NewCUEDefiner()
	if err != nil {
		return err
	}

	failures := map[string]string{}
	for _, name := range pkg.UnitNames() {
		if _, err := definer.Define(name, pkg.Key(), pkg.Units[name]); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &oerrors.DetailError{
		Type:    "validation failed",
		Message: fmt.Sprintf("%d of %d units are invalid", len(failures), len(pkg.Units)),
		Context: failures,
		Hint:    "Fix the unit documents, then run 'extplugin pack' again",
		Cause:   oerrors.ErrUnitInvalid,
	}
}

func publishPackage(cmd *cobra.Command, pkg *archive.Package, data []byte) error {
	k := GetConfig().Source.Kubernetes
	kubeconfig, err := config.ExpandPath(k.Kubeconfig)
	if err != nil {
		return err
	}
	client, err := kubernetes.NewClient(kubernetes.ClientOptions{
		Kubeconfig: kubeconfig,
		Context:    k.Context,
		Namespace:  k.Namespace,
	})
	if err != nil {
		return err
	}

	name, err := kubernetes.WritePackage(cmd.Context(), client.Clientset, client.Namespace, kubernetes.PackageMeta{
		GroupID:    pkg.GroupID,
		ArtifactID: pkg.ArtifactID,
		Version:    pkg.Version,
	}, data)
	if err != nil {
		return err
	}
	output.Println(output.FormatCheckmark(fmt.Sprintf("Published %s to configmap %s/%s", pkg.Key(), client.Namespace, name)))
	return nil
}
