// Package config provides centralized configuration management for the sales KPI system.
// It loads configuration from multiple sources, validates it, and exposes a typed API
// consumed by the pipeline, the publisher and the HTTP read side.
//
// # Configuration Sources
//
// Configuration is layered in the following order (later wins):
//
//	1. Default values (Default)
//	2. YAML file (SALES_CONFIG_FILE, config.yaml or configs/config.yaml)
//	3. Environment variables
//
// # Environment Variables
//
// Environment variables follow the pattern SALES_<SECTION>_<FIELD>:
//
//	SALES_SERVER_PORT=8080
//	SALES_PATHS_INPUT_FILE=Dataset/Amazon Sale Report.csv
//	SALES_PATHS_OUTPUT_FILE=aggregated_sales.json
//	SALES_PIPELINE_RECENT_WINDOW_DAYS=30
//
// The remote store address is also read from the unprefixed AZURE_STORAGE_ACCOUNT_URL,
// and FUNCTIONS_CUSTOMHANDLER_PORT overrides the server port when present.
//
// # Path Management
//
// Relative paths resolve against Paths.BaseDir through Config.ResolvePaths.
package config
