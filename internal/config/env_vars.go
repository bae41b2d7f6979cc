package config

import "os"

const configPathEnvVar = EnvPrefix + "_CONFIG"

// GetConfigPath returns the config file named by MEDIUMROAST_CONFIG, or "" to search defaults
func GetConfigPath() string {
	return GetEnv(configPathEnvVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
