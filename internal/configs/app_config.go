package configs

type Configs struct {
	// App configuration
	AppName               string  `mapstructure:"app_name"`
	AppEnv                string  `mapstructure:"app_env"`
	AppLogLevel           string  `mapstructure:"app_log_level"`
	AppMetricSamplingRate float64 `mapstructure:"app_metric_sampling_rate"`

	// MySQL configuration
	MysqlDbName         string `mapstructure:"mysql_db_name"`
	MysqlMasterHost     string `mapstructure:"mysql_master_host"`
	MysqlMasterPassword string `mapstructure:"mysql_master_password"`
	MysqlMasterPort     int    `mapstructure:"mysql_master_port"`
	MysqlMasterUsername string `mapstructure:"mysql_master_username"`
	MysqlSlaveHost      string `mapstructure:"mysql_slave_host"`
	MysqlSlavePassword  string `mapstructure:"mysql_slave_password"`
	MysqlSlavePort      int    `mapstructure:"mysql_slave_port"`
	MysqlSlaveUsername  string `mapstructure:"mysql_slave_username"`

	// Dataset catalog configuration
	CatalogBaseUrl         string `mapstructure:"catalog_base_url"`
	CatalogApiKey          string `mapstructure:"catalog_api_key"`
	CatalogCacheTtlMinutes int    `mapstructure:"catalog_cache_ttl_minutes"`

	// Trainer configuration
	TrainerRowFetchLimit     int    `mapstructure:"trainer_row_fetch_limit"`
	TrainerJobTtlMinutes     int    `mapstructure:"trainer_job_ttl_minutes"`
	TrainerEvictionCron      string `mapstructure:"trainer_eviction_cron"`
	TrainerExportDir         string `mapstructure:"trainer_export_dir"`
	TrainerMockRowsEnabled   bool   `mapstructure:"trainer_mock_rows_enabled"`
	TrainerStatusPersistence bool   `mapstructure:"trainer_status_persistence"`
}
