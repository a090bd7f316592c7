package surveydashboard

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port int `yaml:"port" validate:"omitempty,gt=0"`
}

type InputsConfig struct {
	Trips          string `yaml:"trips" validate:"omitempty"`
	TripsSheet     string `yaml:"tripsSheet" validate:"omitempty"`
	Boundaries     string `yaml:"boundaries" validate:"omitempty"`
	POICoordinates string `yaml:"poiCoordinates" validate:"omitempty"`
}

type OutputConfig struct {
	Dir string `yaml:"dir" validate:"omitempty"`
}

// BoundariesConfig names the attribute fields carrying the zone ID and
// city identity in the boundary source.
type BoundariesConfig struct {
	IDField       string `yaml:"idField"`
	CityField     string `yaml:"cityField"`
	CityCodeField string `yaml:"cityCodeField"`
}

type MatchingConfig struct {
	CityScoreCutoff int `yaml:"cityScoreCutoff" validate:"gte=0,lte=100"`
}

type TemporalConfig struct {
	BucketMinutes     int     `yaml:"bucketMinutes" validate:"omitempty,oneof=30 60"`
	MidnightWarnShare float64 `yaml:"midnightWarnShare" validate:"gte=0,lte=1"`
	MidnightSkipShare float64 `yaml:"midnightSkipShare" validate:"gte=0,lte=1"`
}

type AnalysisConfig struct {
	FocusPOIs []string `yaml:"focusPOIs"`
	TopCities int      `yaml:"topCities" validate:"gte=0"`
}

type AppConfig struct {
	Server     ServerConfig        `yaml:"server" validate:"required"`
	Inputs     InputsConfig        `yaml:"inputs"`
	Output     OutputConfig        `yaml:"output"`
	Boundaries BoundariesConfig    `yaml:"boundaries"`
	Matching   MatchingConfig      `yaml:"matching"`
	Temporal   TemporalConfig      `yaml:"temporal"`
	Analysis   AnalysisConfig      `yaml:"analysis"`
	Modes      map[string][]string `yaml:"modes"`
}

var Config AppConfig

func LoadAppConfig() error {
	paths := []string{"config.yml", "./config/config.yml"}
	if p := os.Getenv("SURVEY_CONFIG"); p != "" {
		paths = append([]string{p}, paths...)
	}
	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}
	v := validator.New()
	if err := v.Struct(cfg.Server); err != nil {
		return err
	}
	if err := v.Struct(cfg.Matching); err != nil {
		return err
	}
	if err := v.Struct(cfg.Temporal); err != nil {
		return err
	}
	Config = cfg
	if Config.Server.Port == 0 {
		Config.Server.Port = 8050
	}
	if Config.Inputs.TripsSheet == "" {
		Config.Inputs.TripsSheet = "StageB1"
	}
	if Config.Output.Dir == "" {
		Config.Output.Dir = "output"
	}
	if Config.Boundaries.IDField == "" {
		Config.Boundaries.IDField = "YISHUV_STAT11"
	}
	if Config.Boundaries.CityField == "" {
		Config.Boundaries.CityField = "SHEM_YISHUV_ENGLISH"
	}
	if Config.Boundaries.CityCodeField == "" {
		Config.Boundaries.CityCodeField = "SEMEL_YISHUV"
	}
	if Config.Matching.CityScoreCutoff == 0 {
		Config.Matching.CityScoreCutoff = 80
	}
	if Config.Temporal.BucketMinutes == 0 {
		Config.Temporal.BucketMinutes = 60
	}
	if Config.Temporal.MidnightWarnShare == 0 {
		Config.Temporal.MidnightWarnShare = 0.05
	}
	if Config.Temporal.MidnightSkipShare == 0 {
		Config.Temporal.MidnightSkipShare = 0.20
	}
	if Config.Analysis.TopCities == 0 {
		Config.Analysis.TopCities = 15
	}
	if len(Config.Modes) == 0 {
		Config.Modes = DefaultModeMapping()
	}
	return nil
}

// DefaultModeMapping groups the raw survey mode values under their
// canonical names.
func DefaultModeMapping() map[string][]string {
	return map[string][]string{
		"car":            {"car"},
		"pedestrian":     {"ped"},
		"public_transit": {"bus", "train", "link"},
		"bike":           {"bike"},
	}
}

// FocusPOIs returns the configured headline POIs; fallback to the
// built-in trio when none are configured.
func FocusPOIs() []string {
	if len(Config.Analysis.FocusPOIs) > 0 {
		return Config.Analysis.FocusPOIs
	}
	return []string{"Ben-Gurion-University", "Soroka-Medical-Center", "Gav-Yam-High-Tech-Park"}
}
