package conf

import "github.com/spf13/viper"

// setDefaultConfig registers default values for every setting.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("database.driver", DriverSQLite)
	viper.SetDefault("database.sqlite.path", "db/io.db")
	viper.SetDefault("database.mysql.host", "localhost")
	viper.SetDefault("database.mysql.port", "3306")
	viper.SetDefault("database.mysql.username", "")
	viper.SetDefault("database.mysql.password", "")
	viper.SetDefault("database.mysql.database", "gridforge")

	viper.SetDefault("scenarios.directory", "scenarios")

	viper.SetDefault("csv.location", "csvs")

	viper.SetDefault("build.subproblem", 1)
	viper.SetDefault("build.stage", 1)
	viper.SetDefault("build.assert_disjoint_sets", true)
	viper.SetDefault("build.fail_on", "none")

	viper.SetDefault("rebuild.strategy", StrategyNullify)
	viper.SetDefault("rebuild.assume_yes", false)

	viper.SetDefault("logging.default_level", "info")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.console.level", "info")
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/gridforge.log")
	viper.SetDefault("logging.file_output.level", "debug")

	viper.SetDefault("metrics.textfile", "")
}
