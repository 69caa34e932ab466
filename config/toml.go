package config

import (
	"path/filepath"
	"text/template"

	"github.com/creachadair/atomicfile"

	tmos "github.com/lightrelay/lightrelay/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("configFileTemplate")
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

/****** these are for production settings ***********/

// EnsureRoot creates the root, config, and data directories if they don't
// exist.
func EnsureRoot(rootDir string) error {
	for _, dir := range []string{
		rootDir,
		filepath.Join(rootDir, defaultConfigDir),
		filepath.Join(rootDir, defaultDataDir),
	} {
		if err := tmos.EnsureDir(dir, defaultDirPerm); err != nil {
			return err
		}
	}
	return nil
}

// ConfigFile returns the path of the config file under rootDir.
func ConfigFile(rootDir string) string {
	return filepath.Join(rootDir, defaultConfigFilePath)
}

// WriteConfigFile renders config using the template and writes it to
// the config file under rootDir.
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(ConfigFile(rootDir))
}

// WriteToTemplate writes the config to the exact file specified by
// the path, in the default toml template and does not mangle the path
// or filename at all. A failed render leaves any existing file untouched.
func (cfg *Config) WriteToTemplate(path string) error {
	f, err := atomicfile.New(path, 0644)
	if err != nil {
		return err
	}
	if err := configTemplate.Execute(f, cfg); err != nil {
		f.Cancel()
		return err
	}
	return f.Close()
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/lightrelay/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.lightrelay" by default, but could be changed via $LR_HOME env
# variable or --home cmd flag.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# Path to the JSON file containing the trusted genesis committee
genesis-file = "{{ js .BaseConfig.Genesis }}"

# Where the checkpoint list and verified summaries are kept: db | files
# * db    - a tm-db database under db-dir
# * files - checkpoints.yaml plus one <seq>.sum file per summary under
#           checkpoints-dir
store-backend = "{{ .BaseConfig.StoreBackend }}"

# Database backend: goleveldb | memdb
db-backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db-dir = "{{ js .BaseConfig.DBPath }}"

# Directory of the files store backend
checkpoints-dir = "{{ js .BaseConfig.CheckpointsPath }}"

# Output level for logging: debug | info | error
log-level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log-format = "{{ .BaseConfig.LogFormat }}"

#######################################################################
###                 Advanced Configuration Options                  ###
#######################################################################

#######################################################
###          Source Chain Configuration Options     ###
#######################################################
[source]

# JSON-RPC endpoint of a full node of the followed chain
rpc-address = "{{ .Source.RPCAddress }}"

# GraphQL endpoint used to find the last checkpoint of an epoch
graphql-address = "{{ .Source.GraphQLAddress }}"

# Object store holding full checkpoints, one "<seq>.chk" object each.
# Supported schemes: https://, http://, gs://, s3://, file://
object-store-url = "{{ .Source.ObjectStoreURL }}"

# Timeout of a single request
request-timeout = "{{ .Source.RequestTimeout }}"

#######################################################
###          Fetch Retry Configuration Options      ###
#######################################################
[fetch]

# Delay before the first retry of a failed fetch
initial-interval = "{{ .Fetch.InitialInterval }}"

# Growth factor of the delay between retries; 1.0 retries at a constant
# interval
multiplier = {{ .Fetch.Multiplier }}

# Upper bound of the delay between retries
max-interval = "{{ .Fetch.MaxInterval }}"

# A fetch that has not succeeded within this budget fails with a timeout
max-elapsed-time = "{{ .Fetch.MaxElapsedTime }}"

#######################################################
###          Bridge Configuration Options           ###
#######################################################
[bridge]

# Relay committee rotations to the target chain
enabled = {{ .Bridge.Enabled }}

# JSON-RPC endpoint of a full node of the target chain
rpc-address = "{{ .Bridge.RPCAddress }}"

# Package and module emitting committee registration events
package-id = "{{ .Bridge.PackageID }}"
module = "{{ .Bridge.Module }}"

# Registry object whose committee registrations are tracked
registry-id = "{{ .Bridge.RegistryID }}"

# Events requested per page when scanning the registry
page-size = {{ .Bridge.PageSize }}

# Committee objects cached in memory
cache-size = {{ .Bridge.CacheSize }}

# How relay payloads are handed over for signing: jsonrpc | file
submitter = "{{ .Bridge.Submitter }}"

# jsonrpc submitter endpoint, method and bearer token
submitter-address = "{{ .Bridge.SubmitterAddress }}"
submitter-method = "{{ .Bridge.SubmitterMethod }}"
submitter-token = "{{ .Bridge.SubmitterToken }}"

# file submitter output directory
submitter-dir = "{{ js .Bridge.SubmitterDir }}"

# How long to wait for a relayed committee to be registered, and how often
# to check
confirm-timeout = "{{ .Bridge.ConfirmTimeout }}"
confirm-interval = "{{ .Bridge.ConfirmInterval }}"

#######################################################
###       Instrumentation Configuration Options     ###
#######################################################
[instrumentation]

# When true, Prometheus metrics are served under /metrics on
# PrometheusListenAddr.
prometheus = {{ .Instrumentation.Prometheus }}

# Address to listen for Prometheus collector(s) connections
prometheus-listen-addr = "{{ .Instrumentation.PrometheusListenAddr }}"

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`
