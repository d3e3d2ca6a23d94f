package pointpca

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/pointpca/pointcloud"
)

// Pooling names the reducer that turns a per-point predictor column into one value.
type Pooling string

// The supported pooling reducers.
const (
	PoolingMean   Pooling = "mean"
	PoolingMax    Pooling = "max"
	PoolingMin    Pooling = "min"
	PoolingMedian Pooling = "median"
	PoolingStd    Pooling = "std"
)

// ParsePooling returns the Pooling named by name. An empty name selects mean pooling.
func ParsePooling(name string) (Pooling, error) {
	switch p := Pooling(name); p {
	case "":
		return PoolingMean, nil
	case PoolingMean, PoolingMax, PoolingMin, PoolingMedian, PoolingStd:
		return p, nil
	default:
		return "", errors.Errorf("unknown pooling %q", name)
	}
}

// Config controls a predictor computation. The zero value is usable and means every default.
type Config struct {
	// SearchSize is the number of nearest neighbors, center included, per neighborhood.
	SearchSize int                   `json:"search_size,omitempty"`
	ColorSpace pointcloud.ColorSpace `json:"color_space,omitempty"`
	Pooling    Pooling               `json:"pooling,omitempty"`
	// Symmetric also matches every test point back to the reference cloud.
	Symmetric bool `json:"symmetric,omitempty"`
	// Verbose logs stage progress at info instead of debug.
	Verbose bool `json:"verbose,omitempty"`
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

func (conf Config) withDefaults() Config {
	if conf.SearchSize == 0 {
		conf.SearchSize = pointcloud.DefaultSearchSize
	}
	if conf.ColorSpace == "" {
		conf.ColorSpace = pointcloud.ColorSpaceYCbCr
	}
	if conf.Pooling == "" {
		conf.Pooling = PoolingMean
	}
	return conf
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.SearchSize < 0 {
		return utils.NewConfigValidationError(path,
			errors.Errorf("search_size must be at least 1, got %d", conf.SearchSize))
	}
	if _, err := pointcloud.ParseColorSpace(string(conf.ColorSpace)); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	if _, err := ParsePooling(string(conf.Pooling)); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// ReadConfig reads a JSON config from path and validates it. Missing fields take their
// defaults.
func ReadConfig(path string) (Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "cannot read config file")
	}
	var conf Config
	if err := json.Unmarshal(data, &conf); err != nil {
		return Config{}, errors.Wrapf(err, "cannot parse config file %q", path)
	}
	if err := conf.Validate(path); err != nil {
		return Config{}, err
	}
	return conf.withDefaults(), nil
}
