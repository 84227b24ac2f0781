package shared

type ServerConfig struct {
	Sqlite     SqliteConfig     `mapstructure:"sqlite" validate:"required"`
	Leadbase   LeadbaseConfig   `mapstructure:"leadbase" validate:"required"`
	Twilio     TwilioConfig     `mapstructure:"twilio"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Google     GoogleConfig     `mapstructure:"google"`
}

type SqliteConfig struct {
	PassPhrase string `mapstructure:"passPhrase" validate:"required"`
}

type LeadbaseConfig struct {
	PrivateKeyPem string          `mapstructure:"privateKeyPem" validate:"required"`
	AppURL        string          `mapstructure:"appUrl"`
	Cron          CronConfig      `mapstructure:"cron" validate:"required"`
	Listener      ListenerConfig  `mapstructure:"listener" validate:"required"`
	Messaging     MessagingConfig `mapstructure:"messaging"`
}

type CronConfig struct {
	TimeZone string `mapstructure:"timeZone" validate:"required"`
}

type ListenerConfig struct {
	Port int `mapstructure:"port" validate:"required"`
}

// MessagingConfig holds the workspace-wide defaults applied to a user's
// message settings when none have been saved yet.
type MessagingConfig struct {
	WindowStart string `mapstructure:"windowStart"`
	WindowEnd   string `mapstructure:"windowEnd"`
	DailyLimit  int    `mapstructure:"dailyLimit" validate:"omitempty,min=1"`
}

type TwilioConfig struct {
	AccountSid          string `mapstructure:"accountSid"`
	AuthToken           string `mapstructure:"authToken"`
	MessagingServiceSid string `mapstructure:"messagingServiceSid"`
}

type ClassifierConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"apiKey"`
}

type GoogleConfig struct {
	ApplicationCredentials string        `mapstructure:"applicationCredentials"`
	Storage                StorageConfig `mapstructure:"storage"`
}

type StorageConfig struct {
	Bucket                    string      `mapstructure:"bucket" validate:"required_with=EnableSqliteBackupAndSync"`
	Prefix                    string      `mapstructure:"prefix" validate:"required_with=EnableSqliteBackupAndSync"`
	SqliteBackupSchedule      string      `mapstructure:"sqliteBackupSchedule" validate:"required_with=EnableSqliteBackupAndSync"`
	EnableSqliteBackupAndSync interface{} `mapstructure:"enableSqliteBackupAndSync" validate:"omitempty,bool"`
}
