package core

// PluginData is the admin-side configuration of one plugin.
type PluginData struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Config  string `json:"config,omitempty"`
	Sort    int    `json:"sort,omitempty"`
}

// MetaData describes one upstream service method.
type MetaData struct {
	ID          string `json:"id"`
	AppName     string `json:"appName"`
	Path        string `json:"path"`
	RPCType     string `json:"rpcType"`
	ServiceName string `json:"serviceName,omitempty"`
	MethodName  string `json:"methodName,omitempty"`
	Enabled     bool   `json:"enabled"`
}
