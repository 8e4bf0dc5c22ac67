package config

const (
	DeviceJARTv1b = "jart_v1b"
	DeviceIdeal   = "ideal"

	DefaultRepeatTimes = 1
	DefaultSlope       = 0.5
	DefaultMaxPulses   = 31
)

// Config is the immutable result of loading a training document.
type Config struct {
	Run    RunConfig
	Device DeviceConfig

	raw map[string]any
}

// RunConfig holds the scalar run-control values of a training document.
type RunConfig struct {
	ProjectName  string
	CUDAEnabled  bool
	UseTracking  bool
	RepeatTimes  int
	LearningRate float64
	Epochs       int

	Slope  float64
	Seed   uint64
	Device string
}

// DeviceConfig is passed to the device model as-is; the loader does no range checks.
type DeviceConfig struct {
	Pulse PulseConfig `yaml:"pulse_related"`
	Noise NoiseConfig `yaml:"noise"`
}

type PulseConfig struct {
	ReadVoltage       float64 `yaml:"read_voltage"`
	PulseVoltageSET   float64 `yaml:"pulse_voltage_SET"`
	PulseVoltageRESET float64 `yaml:"pulse_voltage_RESET"`
	PulseLength       float64 `yaml:"pulse_length"`
	BaseTimeStep      float64 `yaml:"base_time_step"`
	MaxPulses         int     `yaml:"max_pulses"`
	DwMin             float64 `yaml:"dw_min"`
}

type NoiseConfig struct {
	WMax     Variability `yaml:"w_max"`
	WMin     Variability `yaml:"w_min"`
	Ndiscmax Variability `yaml:"Ndiscmax"`
	Ndiscmin Variability `yaml:"Ndiscmin"`
	Ldet     Variability `yaml:"ldet"`
	Rdet     Variability `yaml:"rdet"`
}

// Variability describes the spread of one physical quantity across devices
// (device_to_device) and across update pulses (cycle_to_cycle_*), and the
// range its sampled values are clamped to.
type Variability struct {
	DeviceToDevice     float64 `yaml:"device_to_device"`
	CycleToCycleDirect float64 `yaml:"cycle_to_cycle_direct"`
	CycleToCycleSlope  float64 `yaml:"cycle_to_cycle_slope"`
	UpperBound         float64 `yaml:"upper_bound"`
	LowerBound         float64 `yaml:"lower_bound"`
}

type document struct {
	ProjectName  string      `yaml:"project_name"`
	CUDAEnabled  bool        `yaml:"CUDA_Enabled"`
	UseWandb     bool        `yaml:"USE_wandb"`
	RepeatTimes  *int        `yaml:"Repeat_Times"`
	LearningRate float64     `yaml:"learning_rate"`
	Epochs       int         `yaml:"epochs"`
	Slope        *float64    `yaml:"slope"`
	Seed         uint64      `yaml:"seed"`
	Device       string      `yaml:"device"`
	Pulse        PulseConfig `yaml:"pulse_related"`
	Noise        NoiseConfig `yaml:"noise"`
}

// run-control keys that are not part of the loggable view
var controlKeys = []string{"project_name", "CUDA_Enabled", "USE_wandb", "Repeat_Times"}

var requiredKeys = []string{
	"project_name",
	"CUDA_Enabled",
	"USE_wandb",
	"learning_rate",
	"epochs",
	"pulse_related.read_voltage",
	"pulse_related.pulse_voltage_SET",
	"pulse_related.pulse_voltage_RESET",
	"pulse_related.pulse_length",
	"pulse_related.base_time_step",
	"noise.w_max.device_to_device",
	"noise.w_min.device_to_device",
	"noise.Ndiscmax.device_to_device",
	"noise.Ndiscmax.cycle_to_cycle_direct",
	"noise.Ndiscmax.upper_bound",
	"noise.Ndiscmax.lower_bound",
	"noise.Ndiscmin.device_to_device",
	"noise.Ndiscmin.cycle_to_cycle_direct",
	"noise.Ndiscmin.upper_bound",
	"noise.Ndiscmin.lower_bound",
	"noise.ldet.device_to_device",
	"noise.ldet.cycle_to_cycle_direct",
	"noise.ldet.cycle_to_cycle_slope",
	"noise.ldet.upper_bound",
	"noise.ldet.lower_bound",
	"noise.rdet.device_to_device",
	"noise.rdet.cycle_to_cycle_direct",
	"noise.rdet.cycle_to_cycle_slope",
	"noise.rdet.upper_bound",
	"noise.rdet.lower_bound",
}
