package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"go.uber.org/fx"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/logger"
)

const moduleName = "config"

// envAliases maps the short variable names used by the container setup onto config fields.
var envAliases = map[string]func(cfg *Config, v string){
	"MINIO_ENDPOINT":   func(cfg *Config, v string) { cfg.Taxi.Storage.ObjectStore.EndpointURL = v },
	"MINIO_ACCESS_KEY": func(cfg *Config, v string) { cfg.Taxi.Storage.ObjectStore.AccessKey = v },
	"MINIO_SECRET_KEY": func(cfg *Config, v string) { cfg.Taxi.Storage.ObjectStore.SecretKey = v },
	"LOG_LEVEL":        func(cfg *Config, v string) { cfg.Taxi.System.Logging.Level = v },
}

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig
	EnvFilePath    string              `name:"envFilePath" optional:"true"`
	Expander       EnvironmentExpander `optional:"true"`
}

// LoadConfig builds the configuration in four layers, each overriding the previous one:
//  1. defaults from NewConfig
//  2. the embedded YAML document, after ${VAR} expansion
//  3. TAXI_* environment variables named after the yaml path (TAXI_TRAINING_TEST_SIZE)
//  4. the short aliases MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY and LOG_LEVEL
//
// A .env file is loaded into the process environment first when present.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, embeddedConfig, NewOsEnvironmentExpander())
}

func loadConfig(envFilePath string, embeddedConfig EmbeddedConfig, expander EnvironmentExpander) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Debugf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	}

	cfg := NewConfig()
	cfg.EmbeddedConfig = embeddedConfig

	if len(embeddedConfig) > 0 {
		expanded, err := expander.Expand(embeddedConfig)
		if err != nil {
			return nil, exception.New(exception.KindConfig, moduleName, "failed to expand environment placeholders", err)
		}
		var yamlConfig Config
		if err := yaml.Unmarshal(expanded, &yamlConfig); err != nil {
			return nil, exception.New(exception.KindConfig, moduleName, "failed to unmarshal embedded config", err)
		}
		mergeConfig(cfg, &yamlConfig)
	}

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.New(exception.KindConfig, moduleName, "failed to load config from environment variables", err)
	}
	for name, apply := range envAliases {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			apply(cfg, v)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewConfigProvider is an Fx provider that loads *Config.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	expander := params.Expander
	if expander == nil {
		expander = NewOsEnvironmentExpander()
	}
	return loadConfig(params.EnvFilePath, params.EmbeddedConfig, expander)
}

// Validate checks value ranges. All violations are reported together.
func (c *Config) Validate() error {
	var errs *multierror.Error
	bad := func(format string, a ...interface{}) {
		errs = multierror.Append(errs, exception.Newf(exception.KindConfig, moduleName, format, a...))
	}

	t := c.Taxi.Training
	if !(t.TestSize > 0 && t.TestSize < 1) {
		bad("training.test_size must be in (0, 1), got %v", t.TestSize)
	}
	if t.MaxRows < 0 {
		bad("training.max_rows must be >= 0, got %d", t.MaxRows)
	}

	m := c.Taxi.Model
	if m.MaxDepth <= 0 {
		bad("model.max_depth must be > 0, got %d", m.MaxDepth)
	}
	if m.LearningRate <= 0 {
		bad("model.learning_rate must be > 0, got %v", m.LearningRate)
	}
	if m.MaxIter <= 0 {
		bad("model.max_iter must be > 0, got %d", m.MaxIter)
	}
	if m.MaxLeafNodes < 2 {
		bad("model.max_leaf_nodes must be >= 2, got %d", m.MaxLeafNodes)
	}
	if m.MinSamplesLeaf < 1 {
		bad("model.min_samples_leaf must be >= 1, got %d", m.MinSamplesLeaf)
	}
	if m.MaxBins < 2 || m.MaxBins > 255 {
		bad("model.max_bins must be in [2, 255], got %d", m.MaxBins)
	}
	switch strings.ToLower(m.EarlyStopping) {
	case "auto", "on", "off", "true", "false":
	default:
		bad("model.early_stopping must be auto, on or off, got %q", m.EarlyStopping)
	}
	if !(m.ValidationFraction > 0 && m.ValidationFraction < 1) {
		bad("model.validation_fraction must be in (0, 1), got %v", m.ValidationFraction)
	}

	switch strings.ToLower(c.Taxi.Metrics.Backend) {
	case "", "none", "prometheus", "otel":
	default:
		bad("metrics.backend must be prometheus, otel or none, got %q", c.Taxi.Metrics.Backend)
	}
	for key, proto := range map[string]string{
		"metrics.otlp_protocol": c.Taxi.Metrics.OTLPProtocol,
		"tracing.otlp_protocol": c.Taxi.Tracing.OTLPProtocol,
	} {
		switch strings.ToLower(proto) {
		case "", "grpc", "http":
		default:
			bad("%s must be grpc or http, got %q", key, proto)
		}
	}
	return errs.ErrorOrNil()
}

// mergeConfig copies every non-zero value of source onto dest.
func mergeConfig(dest, source *Config) {
	mergeValue(reflect.ValueOf(dest).Elem(), reflect.ValueOf(source).Elem())
}

// mergeValue recurses through structs and maps. Scalars overwrite only when non-zero,
// slices only when non-nil, maps key by key.
func mergeValue(dest, source reflect.Value) {
	switch source.Kind() {
	case reflect.Struct:
		for i := 0; i < source.NumField(); i++ {
			if !dest.Field(i).CanSet() {
				continue
			}
			mergeValue(dest.Field(i), source.Field(i))
		}
	case reflect.Map:
		if source.IsNil() {
			return
		}
		if dest.IsNil() {
			dest.Set(reflect.MakeMap(source.Type()))
		}
		iter := source.MapRange()
		for iter.Next() {
			dest.SetMapIndex(iter.Key(), iter.Value())
		}
	case reflect.Slice:
		if !source.IsNil() {
			dest.Set(source)
		}
	default:
		if !source.IsZero() {
			dest.Set(source)
		}
	}
}

// loadStructFromEnv walks val and overrides fields from environment variables named
// after the upper-cased yaml path, e.g. TAXI_MODEL_MAX_ITER.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		switch {
		case field.Kind() == reflect.Struct:
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		case field.Kind() == reflect.Map && field.Type().Key().Kind() == reflect.String:
			if err := loadMapFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// loadMapFromEnv fills a map[string]interface{} of named sections:
// TAXI_DATABASE_METADATA_HOST=db sets cfg.Taxi.Database["metadata"]["host"] = "db".
func loadMapFromEnv(mapField reflect.Value, prefix string) error {
	if mapField.Type().Elem().Kind() != reflect.Interface {
		return nil
	}
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, prefix) {
			continue
		}
		parts := strings.SplitN(strings.TrimPrefix(env, prefix), "=", 2)
		if len(parts) != 2 {
			continue
		}
		keyParts := strings.Split(parts[0], "_")
		if len(keyParts) < 2 {
			continue
		}
		name := strings.ToLower(keyParts[0])
		fieldKey := strings.ToLower(strings.Join(keyParts[1:], "_"))

		if mapField.IsNil() {
			mapField.Set(reflect.MakeMap(mapField.Type()))
		}
		section := map[string]interface{}{}
		if existing := mapField.MapIndex(reflect.ValueOf(name)); existing.IsValid() {
			if m, ok := existing.Interface().(map[string]interface{}); ok {
				for k, v := range m {
					section[k] = v
				}
			}
		}
		section[fieldKey] = parts[1]
		mapField.SetMapIndex(reflect.ValueOf(name), reflect.ValueOf(section))
	}
	return nil
}

// setField converts value to the kind of field. Slices of strings take a comma-separated list.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return nil
		}
		var items []string
		for _, s := range strings.Split(value, ",") {
			if s = strings.TrimSpace(s); s != "" {
				items = append(items, s)
			}
		}
		field.Set(reflect.ValueOf(items))
	}
	return nil
}
