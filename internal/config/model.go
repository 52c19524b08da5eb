package config

// File is the decoded configuration file.
//
//	log_level    = "debug"
//	log_format   = "json"
//	workers      = 4
//	metrics_port = 9090
//	shared_space = false
//	scripts      = ["examples"]
//	aliases = {
//	  py  = "go"
//	  scm = "go"
//	}
type File struct {
	LogLevel    *string           `hcl:"log_level,optional"`
	LogFormat   *string           `hcl:"log_format,optional"`
	Workers     *int              `hcl:"workers,optional"`
	MetricsPort *int              `hcl:"metrics_port,optional"`
	SharedSpace *bool             `hcl:"shared_space,optional"`
	Scripts     []string          `hcl:"scripts,optional"`
	Aliases     map[string]string `hcl:"aliases,optional"`
}
