package app

import (
	"flag"
	"os"
	"strconv"
	"strings"

	config "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/config"
	model "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/core/domain/model"
	exception "github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"

	"github.com/aware37/projet-big-data-cytech-25-taxi/internal/step/tasklet"
)

// listFlag collects repeated values; each value may itself be a comma list.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	l.add(v)
	return nil
}

// add appends the non-empty entries of the comma list v.
func (l *listFlag) add(v string) {
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			*l = append(*l, p)
		}
	}
}

// Flags are the command-line options shared by the binaries.
type Flags struct {
	Inputs        listFlag
	Output        string
	TestSize      float64
	MaxRows       int
	MinioEndpoint string
	MinioAccess   string
	MinioSecret   string
	ConfigFile    string
	EnvFile       string

	fs *flag.FlagSet
}

// NewFlags registers the options on fs. batch adds the job options; the
// dashboard only takes the configuration options.
func NewFlags(fs *flag.FlagSet, batch bool) *Flags {
	f := &Flags{fs: fs}
	fs.StringVar(&f.ConfigFile, "config", "", "YAML configuration file replacing the compiled-in application.yaml")
	fs.StringVar(&f.EnvFile, "env-file", envOr("ENV_FILE_PATH", ".env"), "dotenv file loaded before environment overrides")
	if !batch {
		return f
	}
	fs.Var(&f.Inputs, "input", "input partition (file, directory or s3:// / gs:// prefix); repeatable or comma separated")
	fs.StringVar(&f.Output, "output", "", "prediction output path (taxi-predict) or artifacts directory (taxi-train)")
	fs.Float64Var(&f.TestSize, "test-size", 0, "held-out fraction in (0, 1)")
	fs.IntVar(&f.MaxRows, "max-rows", 0, "cap the batch to this many sampled rows; 0 keeps every row")
	fs.StringVar(&f.MinioEndpoint, "minio-endpoint", "", "S3-compatible endpoint URL")
	fs.StringVar(&f.MinioAccess, "minio-access", "", "S3 access key")
	fs.StringVar(&f.MinioSecret, "minio-secret", "", "S3 secret key")
	return f
}

// Parse parses args. Positional arguments are taken as further inputs.
func (f *Flags) Parse(args []string) error {
	if err := f.fs.Parse(args); err != nil {
		return err
	}
	for _, a := range f.fs.Args() {
		f.Inputs.add(a)
	}
	return nil
}

// set reports whether name was given on the command line.
func (f *Flags) set(name string) bool {
	found := false
	f.fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			found = true
		}
	})
	return found
}

// Settings turns the parsed flags into container settings for jobName.
// outputIsArtifacts makes --output select the artifacts directory instead of
// the prediction file.
func (f *Flags) Settings(jobName string, outputIsArtifacts bool) (Settings, error) {
	s := Settings{
		JobName:        jobName,
		EnvFilePath:    f.EnvFile,
		EmbeddedConfig: EmbeddedConfig(),
		Params:         model.RunParameters{},
	}
	if f.ConfigFile != "" {
		doc, err := os.ReadFile(f.ConfigFile)
		if err != nil {
			return s, exception.NewIOError(moduleName, f.ConfigFile, err)
		}
		s.EmbeddedConfig = config.EmbeddedConfig(doc)
	}

	if len(f.Inputs) > 0 {
		s.Params[tasklet.ParamInput] = strings.Join(f.Inputs, ",")
	}
	if f.set("test-size") {
		s.Params[tasklet.ParamTestSize] = strconv.FormatFloat(f.TestSize, 'g', -1, 64)
	}
	if f.set("max-rows") {
		if f.MaxRows < 0 {
			return s, exception.Newf(exception.KindConfig, moduleName, "--max-rows must be >= 0, got %d", f.MaxRows)
		}
		s.Params[tasklet.ParamMaxRows] = strconv.Itoa(f.MaxRows)
	}
	if f.Output != "" {
		if outputIsArtifacts {
			out := f.Output
			s.Overrides = append(s.Overrides, func(cfg *config.Config) { cfg.Taxi.Paths.ArtifactsDir = out })
		} else {
			s.Params[tasklet.ParamOutput] = f.Output
		}
	}

	endpoint, access, secret := f.MinioEndpoint, f.MinioAccess, f.MinioSecret
	if endpoint != "" || access != "" || secret != "" {
		s.Overrides = append(s.Overrides, func(cfg *config.Config) {
			store := &cfg.Taxi.Storage.ObjectStore
			if endpoint != "" {
				store.EndpointURL = endpoint
			}
			if access != "" {
				store.AccessKey = access
			}
			if secret != "" {
				store.SecretKey = secret
			}
		})
	}
	return s, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
