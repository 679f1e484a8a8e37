package kubernetes

// Labels and annotations on package ConfigMaps.
const (
	LabelManagedBy      = "app.kubernetes.io/managed-by"
	labelManagedByValue = "extplugin"

	// LabelPackage marks a ConfigMap as carrying a plugin package.
	LabelPackage = "extplugin.opmodel.dev/package"

	AnnotationGroupID    = "extplugin.opmodel.dev/group-id"
	AnnotationArtifactID = "extplugin.opmodel.dev/artifact-id"
	AnnotationVersion    = "extplugin.opmodel.dev/version"
)

// DefaultLabelSelector selects every package ConfigMap.
const DefaultLabelSelector = LabelPackage + "=true"
