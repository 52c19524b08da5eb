// Package config defines the on-disk configuration file of atomgrid and
// loads it with HCL. Every setting is optional; unset fields are nil so
// callers can tell "absent" from a zero value when merging with flags.
package config
