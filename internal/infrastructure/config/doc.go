// Package config handles loading and validating the service configuration.
//
// Configuration is loaded from a YAML file, overridden by ADMINAUTH_*
// environment variables, and validated before the service starts. Sensitive
// values (the RSA key pair, the Redis password) should come from the
// environment rather than the file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
