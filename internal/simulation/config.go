package simulation

import (
	"errors"
	"fmt"
	"math"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/emiliopalmerini/abeval/internal/domain"
)

// Config holds the parameters of the outcome model.
type Config struct {
	PControl      float64 `yaml:"p_control" validate:"finite,gte=0,lte=1"`
	PTreatment    float64 `yaml:"p_treatment" validate:"finite,gte=0,lte=1"`
	RevenueMean   float64 `yaml:"revenue_mean" validate:"finite,gt=0"`
	RevenueStdDev float64 `yaml:"revenue_stddev" validate:"finite,gte=0"`
	Seed          int64   `yaml:"seed"`
}

// DefaultConfig returns the parameters of the reference retention-offer run:
// 18% baseline retention, 24% with the offer, revenue ~ N(180, 60).
func DefaultConfig() Config {
	return Config{
		PControl:      0.18,
		PTreatment:    0.24,
		RevenueMean:   180.0,
		RevenueStdDev: 60.0,
		Seed:          42,
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	return v
}

// Validate checks probability and distribution bounds. The first violation
// is returned as a *domain.ConfigurationError.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate simulation config: %w", err)
	}

	fe := verrs[0]
	return &domain.ConfigurationError{Field: fe.Field(), Reason: describeRule(fe.Tag(), fe.Param())}
}

func describeRule(tag, param string) string {
	switch tag {
	case "finite":
		return "must be a finite number"
	case "gte":
		return "must be >= " + param
	case "lte":
		return "must be <= " + param
	case "gt":
		return "must be > " + param
	default:
		return "failed " + tag
	}
}

// LoadConfig reads a YAML config file over the defaults. Keys missing from the
// file keep their default values. The result is not validated.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open simulation config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode simulation config %s: %w", path, err)
	}
	return cfg, nil
}
