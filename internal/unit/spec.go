package unit

// PluginSpec is the decoded document of a plugin unit.
type PluginSpec struct {
	Requires        []string          `json:"requires,omitempty"`
	Name            string            `json:"name,omitempty"`
	Order           int               `json:"order"`
	Skip            []string          `json:"skip,omitempty"`
	RequestHeaders  map[string]string `json:"requestHeaders,omitempty"`
	ResponseHeaders map[string]string `json:"responseHeaders,omitempty"`
	Respond         *RespondSpec      `json:"respond,omitempty"`
}

// RespondSpec is a terminal response written by a plugin.
type RespondSpec struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"contentType"`
}

// DataHandlerSpec is the decoded document of a data handler unit.
type DataHandlerSpec struct {
	Requires []string `json:"requires,omitempty"`
	Plugin   string   `json:"plugin"`
}

// MetaDataHandlerSpec is the decoded document of a metadata handler unit.
type MetaDataHandlerSpec struct {
	Requires []string `json:"requires,omitempty"`
	RPCType  string   `json:"rpcType"`
}

// ContextDecoratorSpec is the decoded document of a context decorator unit.
type ContextDecoratorSpec struct {
	Requires   []string          `json:"requires,omitempty"`
	RPCType    string            `json:"rpcType"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// PropertiesSpec is the decoded document of a component or support unit.
type PropertiesSpec struct {
	Requires   []string          `json:"requires,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}
