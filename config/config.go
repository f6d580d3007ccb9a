package config

import "time"

// Config contains all application settings
type Config struct {
	BindPort      int    `mapstructure:"PORT" yaml:"port"`
	BindHost      string `mapstructure:"HOST" yaml:"host"`
	DatabaseURL   string `mapstructure:"DATABASE_URL" yaml:"database_url"`
	RedisURL      string `mapstructure:"REDIS_URL" yaml:"redis_url"`
	NATSServerURL string `mapstructure:"NATS_URL" yaml:"nats_url"`

	// MQTT broker ingress
	MQTTBrokerURL string `mapstructure:"MQTT_BROKER_URL" yaml:"mqtt_broker_url"`
	MQTTUsername  string `mapstructure:"MQTT_USERNAME" yaml:"mqtt_username"`
	MQTTPassword  string `mapstructure:"MQTT_PASSWORD" yaml:"mqtt_password"`
	MQTTClientID  string `mapstructure:"MQTT_CLIENT_ID" yaml:"mqtt_client_id"`

	// Telemetry pipeline
	QueueKey         string        `mapstructure:"TELEMETRY_QUEUE_KEY" yaml:"telemetry_queue_key"`
	BatchSize        int           `mapstructure:"TELEMETRY_BATCH_SIZE" yaml:"telemetry_batch_size"`
	ProcessRetries   int           `mapstructure:"TELEMETRY_MAX_RETRIES" yaml:"telemetry_max_retries"`
	ActivityWindow   time.Duration `mapstructure:"ACTIVITY_WINDOW" yaml:"activity_window"`
	LocalTimezone    string        `mapstructure:"LOCAL_TIMEZONE" yaml:"local_timezone"`
	ProcessIdleDelay time.Duration `mapstructure:"TELEMETRY_IDLE_DELAY" yaml:"telemetry_idle_delay"`

	// Version
	BuildVersion string `yaml:"-"`
	BuildHash    string `yaml:"-"`
	BuildTime    string `yaml:"-"`
}
