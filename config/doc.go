// Package config loads taskrunner configuration with viper.
//
// The file is read from the --conf path or, when none is given, from
// config.{yaml,json,toml} in /etc/taskrunner, $HOME/.taskrunner, the working
// directory and the executable's directory. Every key can be overridden by an
// environment variable with the TASKRUNNER_ prefix, dots replaced by
// underscores:
//
//	TASKRUNNER_STORAGE_PROVIDER=aws
//	TASKRUNNER_RUNNER_MAX_CONCURRENT=4
//
// Without a config file the defaults and environment alone are used, which is
// how the Lambda entry point is deployed.
package config
