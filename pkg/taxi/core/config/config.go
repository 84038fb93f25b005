// Package config holds the configuration tree of the taxi pipeline and the loader
// that assembles it from defaults, an embedded YAML document, a .env file and
// environment variables.
package config

// EmbeddedConfig holds the raw YAML configuration compiled into a binary.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds process-wide settings.
type SystemConfig struct {
	// Timezone is used when rendering timestamps in logs and run history (e.g., "UTC").
	Timezone string        `yaml:"timezone"`
	Logging  LoggingConfig `yaml:"logging"`
}

// ObjectStoreConfig configures the S3-compatible endpoint behind s3:// locations.
type ObjectStoreConfig struct {
	EndpointURL string `yaml:"endpoint_url"` // e.g. http://localhost:9000; the scheme selects TLS.
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	Region      string `yaml:"region"`
}

// GCSConfig configures the client behind gs:// locations.
type GCSConfig struct {
	CredentialsFile string `yaml:"credentials_file"` // Service account key. Empty uses application default credentials.
	Endpoint        string `yaml:"endpoint"`         // Custom endpoint (emulators). Disables authentication.
}

// StorageConfig groups the remote storage settings.
type StorageConfig struct {
	ObjectStore ObjectStoreConfig `yaml:"object_store"`
	GCS         GCSConfig         `yaml:"gcs"`
	// LocalBaseDir bounds local reads and writes. Empty means the working directory.
	LocalBaseDir string `yaml:"local_base_dir"`
}

// PathsConfig holds artifact and output locations.
type PathsConfig struct {
	ArtifactsDir    string `yaml:"artifacts_dir"`
	ModelFile       string `yaml:"model_file"`
	MetricsFile     string `yaml:"metrics_file"`
	PredictionsFile string `yaml:"predictions_file"`
	// CompressionType is the parquet codec for prediction outputs ("SNAPPY", "GZIP", "NONE").
	CompressionType string `yaml:"compression_type"`
}

// TrainingConfig holds the training driver settings.
type TrainingConfig struct {
	// Inputs are the default input locations used when no --input flag is given.
	Inputs   []string `yaml:"inputs"`
	TestSize float64  `yaml:"test_size"`
	// MaxRows caps the concatenated batch by seeded sampling. 0 disables the cap.
	MaxRows int   `yaml:"max_rows"`
	Seed    int64 `yaml:"seed"`
}

// PredictionConfig holds the prediction driver settings.
type PredictionConfig struct {
	Inputs []string `yaml:"inputs"`
}

// ModelConfig holds the boosting hyperparameters.
type ModelConfig struct {
	MaxDepth           int     `yaml:"max_depth"`
	LearningRate       float64 `yaml:"learning_rate"`
	MaxIter            int     `yaml:"max_iter"`
	MaxLeafNodes       int     `yaml:"max_leaf_nodes"`
	MinSamplesLeaf     int     `yaml:"min_samples_leaf"`
	MaxBins            int     `yaml:"max_bins"`
	L2Regularization   float64 `yaml:"l2_regularization"`
	EarlyStopping      string  `yaml:"early_stopping"` // "auto", "on" or "off".
	ValidationFraction float64 `yaml:"validation_fraction"`
	NIterNoChange      int     `yaml:"n_iter_no_change"`
	Tol                float64 `yaml:"tol"`
	RandomState        int64   `yaml:"random_state"`
}

// InfrastructureConfig names the connections used by infrastructure components.
type InfrastructureConfig struct {
	// RunRepositoryDBRef is the database connection holding run history. Empty keeps history in memory.
	RunRepositoryDBRef string `yaml:"run_repository_db_ref"`
}

// MetricsConfig selects the metric backend.
type MetricsConfig struct {
	Backend        string `yaml:"backend"` // "prometheus", "otel" or "none".
	PushgatewayURL string `yaml:"pushgateway_url"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPProtocol   string `yaml:"otlp_protocol"` // "grpc" or "http".
}

// TracingConfig configures the OpenTelemetry tracer.
type TracingConfig struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPProtocol string `yaml:"otlp_protocol"`
	ServiceName  string `yaml:"service_name"`
}

// ScheduleConfig configures recurring training runs.
type ScheduleConfig struct {
	// Cron is a standard five-field cron expression. Empty runs once and exits.
	Cron string `yaml:"cron"`
}

// DashboardConfig configures the analytics API.
type DashboardConfig struct {
	ListenAddr      string `yaml:"listen_addr"`
	WarehouseDSN    string `yaml:"warehouse_dsn"`
	RedisURL        string `yaml:"redis_url"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
}

// TaxiConfig holds everything under the "taxi" top-level key.
type TaxiConfig struct {
	System         SystemConfig         `yaml:"system"`
	Storage        StorageConfig        `yaml:"storage"`
	Paths          PathsConfig          `yaml:"paths"`
	Training       TrainingConfig       `yaml:"training"`
	Prediction     PredictionConfig     `yaml:"prediction"`
	Model          ModelConfig          `yaml:"model"`
	Infrastructure InfrastructureConfig `yaml:"infrastructure"`
	Metrics        MetricsConfig        `yaml:"metrics"`
	Tracing        TracingConfig        `yaml:"tracing"`
	Schedule       ScheduleConfig       `yaml:"schedule"`
	Dashboard      DashboardConfig      `yaml:"dashboard"`
	// Database holds named connection settings, decoded by the database adapters.
	Database map[string]interface{} `yaml:"database"`
}

// Config is the root of the configuration tree.
type Config struct {
	Taxi           TaxiConfig     `yaml:"taxi"`
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Taxi: TaxiConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Storage: StorageConfig{
				ObjectStore: ObjectStoreConfig{
					EndpointURL: "http://localhost:9000",
					AccessKey:   "minio",
					SecretKey:   "minio123",
					Region:      "us-east-1",
				},
			},
			Paths: PathsConfig{
				ArtifactsDir:    "artifacts",
				ModelFile:       "model.gob",
				MetricsFile:     "metrics.json",
				PredictionsFile: "artifacts/predictions.csv",
				CompressionType: "SNAPPY",
			},
			Training: TrainingConfig{
				TestSize: 0.2,
				Seed:     42,
			},
			Model: ModelConfig{
				MaxDepth:           8,
				LearningRate:       0.05,
				MaxIter:            400,
				MaxLeafNodes:       31,
				MinSamplesLeaf:     20,
				MaxBins:            255,
				EarlyStopping:      "auto",
				ValidationFraction: 0.1,
				NIterNoChange:      10,
				Tol:                1e-7,
				RandomState:        42,
			},
			Metrics: MetricsConfig{
				Backend:      "none",
				OTLPProtocol: "grpc",
			},
			Tracing: TracingConfig{
				OTLPProtocol: "grpc",
				ServiceName:  "taxi-pipeline",
			},
			Dashboard: DashboardConfig{
				ListenAddr:      ":8501",
				CacheTTLSeconds: 300,
			},
			Database: map[string]interface{}{},
		},
	}
}
