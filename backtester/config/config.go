package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/thrasher-corp/gfobtester/backtester/funding"
	"github.com/thrasher-corp/gfobtester/backtester/indicators"
	gctcommon "github.com/thrasher-corp/gfobtester/common"
	"github.com/thrasher-corp/gfobtester/common/convert"
	"github.com/thrasher-corp/gfobtester/log"
)

var supportedFormats = []string{"yaml", "yml", "json", "toml"}

// ReadConfigFromFile loads a config file, applies environment overrides and
// validates the result. The format is taken from the file extension and
// relative data and definition paths are resolved against the file's directory
func ReadConfigFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if !slices.Contains(supportedFormats, format) {
		return nil, fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	c, err := decode(v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.resolvePaths(filepath.Dir(path))
	return c, nil
}

// LoadConfig parses config bytes in the given format, eg yaml or json
func LoadConfig(data []byte, format string) (*Config, error) {
	if !slices.Contains(supportedFormats, format) {
		return nil, fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
	v := newViper()
	v.SetConfigType(format)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	bindEnv(v, reflect.TypeOf(Config{}), "")
	// zero and false are valid here so these cannot be struct tag defaults
	v.SetDefault("execution.price-precision", 8)
	v.SetDefault("execution.quantity-precision", 8)
	v.SetDefault("logging.enabled", true)
	var ind map[string]any
	if err := mapstructure.Decode(indicators.DefaultSettings(), &ind); err == nil {
		v.SetDefault("indicators", ind)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var c Config
	err := v.Unmarshal(&c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		decimalHook,
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, err
	}
	if err := defaults.Set(&c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

var (
	decimalType = reflect.TypeOf(decimal.Decimal{})
	timeType    = reflect.TypeOf(time.Time{})
)

// bindEnv registers every scalar key so environment variables apply even when
// the config file omits the key
func bindEnv(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		key := f.Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		switch {
		case ft == decimalType || ft == timeType:
			_ = v.BindEnv(key)
		case ft.Kind() == reflect.Struct:
			bindEnv(v, ft, key)
		case ft.Kind() == reflect.Slice || ft.Kind() == reflect.Map:
		default:
			_ = v.BindEnv(key)
		}
	}
}

func decimalHook(_, t reflect.Type, data any) (any, error) {
	if t != decimalType {
		return data, nil
	}
	return convert.DecimalFromInterface(data)
}

// Validate checks struct tags and then the settings which span fields
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w config", gctcommon.ErrNilPointer)
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
		if d, ok := v.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	if err := validate.Struct(c); err != nil {
		return err
	}

	var errs error
	if c.Funding.Mode == string(funding.Shared) && c.Funding.MaxPositions <= 0 {
		errs = gctcommon.AppendError(errs, errSharedRequiresMaxPositions)
	}
	seen := make(map[string]bool, len(c.Symbols))
	for i := range c.Symbols {
		s := strings.ToUpper(c.Symbols[i].Symbol)
		if seen[s] {
			errs = gctcommon.AppendError(errs, fmt.Errorf("%w %s", errDuplicateSymbol, s))
		}
		seen[s] = true
		if c.Data.Source == "csv" && c.Symbols[i].CSVPath == "" {
			errs = gctcommon.AppendError(errs, fmt.Errorf("%w: %s", errMissingCSVPath, s))
		}
	}
	if c.Data.Source == "database" {
		if c.Data.Database == nil {
			errs = gctcommon.AppendError(errs, errMissingDatabase)
		}
		errs = gctcommon.AppendError(errs, c.validateDate())
	}
	if err := c.Indicators.Validate(); err != nil {
		errs = gctcommon.AppendError(errs, err)
	}
	return errs
}

func (c *Config) validateDate() error {
	if c.Data.StartDate.IsZero() || c.Data.EndDate.IsZero() {
		return nil
	}
	if !c.Data.StartDate.Before(c.Data.EndDate) {
		return fmt.Errorf("%w: start %v end %v", errBadDate, c.Data.StartDate, c.Data.EndDate)
	}
	return nil
}

// PrintSetting prints relevant settings to the console for easy reading
func (c *Config) PrintSetting() {
	log.Info(log.ConfigMgr, "-------------------------------------------------------------")
	log.Infof(log.ConfigMgr, "Backtester settings for %s", c.Nickname)
	log.Info(log.ConfigMgr, "-------------------------------------------------------------")
	for i := range c.Strategies {
		if c.Strategies[i].DefinitionFile != "" {
			log.Infof(log.ConfigMgr, "Strategy file: %s", c.Strategies[i].DefinitionFile)
			continue
		}
		log.Infof(log.ConfigMgr, "Strategy: %s", c.Strategies[i].Name)
		for k, v := range c.Strategies[i].CustomSettings {
			log.Infof(log.ConfigMgr, "  %s: %v", k, v)
		}
	}
	for i := range c.Symbols {
		log.Infof(log.ConfigMgr, "Symbol: %s", c.Symbols[i].Symbol)
	}
	log.Infof(log.ConfigMgr, "Funding mode: %s", c.Funding.Mode)
	log.Infof(log.ConfigMgr, "Initial capital: %s", convert.DecimalToHumanFriendlyString(c.Funding.InitialCapital, 2))
	if c.Funding.MaxPositions > 0 {
		log.Infof(log.ConfigMgr, "Max positions: %d", c.Funding.MaxPositions)
	}
	log.Infof(log.ConfigMgr, "Fee rate: %s", c.Execution.FeeRate)
	log.Infof(log.ConfigMgr, "Price/quantity precision: %d/%d", c.Execution.PricePrecision, c.Execution.QuantityPrecision)
	log.Infof(log.ConfigMgr, "Data source: %s", c.Data.Source)
	if !c.Data.StartDate.IsZero() {
		log.Infof(log.ConfigMgr, "Start date: %v", c.Data.StartDate.Format(time.DateTime))
	}
	if !c.Data.EndDate.IsZero() {
		log.Infof(log.ConfigMgr, "End date: %v", c.Data.EndDate.Format(time.DateTime))
	}
}
