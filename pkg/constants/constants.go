package constants

const (
	AppName = "teleclinic"

	// viper config file lookup
	ConfigName   = "config"
	ConfigFormat = "yaml"

	// EnvPrefix prefixes env overrides, e.g. TELECLINIC_DATABASE_HOST.
	EnvPrefix = "TELECLINIC"

	// SubjectPrefix is the root token of every event bus subject.
	SubjectPrefix = "teleclinic"
)
