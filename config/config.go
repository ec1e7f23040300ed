package config

import (
	"io"
	"os"
	"path"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/barnybug/homepanel/util"
)

// ErrMissingConfig is a required setting or collaborator that is absent.
var ErrMissingConfig = errors.New("missing configuration")

type Duration struct {
	Duration time.Duration
}

func (self *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	d, err := util.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "duration %q", s)
	}
	self.Duration = d
	return nil
}

func (self Duration) MarshalYAML() (interface{}, error) {
	return self.Duration.String(), nil
}

type PolicyConf struct {
	Pin_Length    int
	Tries         int
	Admin_Timeout int
	Guest_Timeout int
	Tick          Duration
	Lockout_Wait  Duration
	Preview_Delay Duration
	Message_Delay Duration
}

type LinkConf struct {
	Device string
	Baud   int
	Settle Duration
}

type MasterConf struct {
	Keypad  string
	Display string
	Storage string
	Link    LinkConf
}

type SensorConf struct {
	Address  string
	Slave_Id byte
	Register uint16
	Baud     int
	Static   *uint16
}

type ScaleConf struct {
	Millivolts_Per_Step   float64
	Millivolts_Per_Degree float64
}

type SlaveConf struct {
	Link         LinkConf
	Sensor       SensorConf
	Scale        ScaleConf
	Sample_Ticks int
	Setpoint     int
	Devices      map[string]string
}

type EndpointsConf struct {
	Mqtt struct {
		Broker string
	}
	Api string
}

type GraphiteConf struct {
	Host   string
	Prefix string
}

// Config structure
type Config struct {
	Log_Level string
	Policy    PolicyConf
	Master    MasterConf
	Slave     SlaveConf
	Endpoints EndpointsConf
	Graphite  GraphiteConf
}

// Env holds the settings that can be overridden from the environment.
type Env struct {
	Config   string `env:"PANEL_CONFIG"`
	Mqtt     string `env:"PANEL_MQTT"`
	LogLevel string `env:"PANEL_LOG_LEVEL"`
	Api      string `env:"PANEL_API"`
}

// Open configuration from disk, at $PANEL_CONFIG or the default path.
func Open() (*Config, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return nil, err
	}
	p := e.Config
	if p == "" {
		p = ConfigPath("panel.yml")
	}
	file, err := os.Open(util.ExpandUser(p))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrMissingConfig, "%s not found, see 'panel config'", p)
		}
		return nil, err
	}
	defer file.Close()
	conf, err := OpenReader(file)
	if err != nil {
		return nil, err
	}
	conf.Override(e)
	return conf, nil
}

// Open configuration from a reader.
func OpenReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return OpenRaw(data)
}

// Open configuration from []byte.
func OpenRaw(data []byte) (*Config, error) {
	self := &Config{}
	err := yaml.Unmarshal(data, self)
	if err != nil {
		return nil, err
	}
	self.defaults()
	return self, nil
}

func (self *Config) Override(e Env) {
	if e.Mqtt != "" {
		self.Endpoints.Mqtt.Broker = e.Mqtt
	}
	if e.LogLevel != "" {
		self.Log_Level = e.LogLevel
	}
	if e.Api != "" {
		self.Endpoints.Api = e.Api
	}
}

func setDuration(d *Duration, def time.Duration) {
	if d.Duration == 0 {
		d.Duration = def
	}
}

func setInt(i *int, def int) {
	if *i == 0 {
		*i = def
	}
}

func (self *Config) defaults() {
	if self.Log_Level == "" {
		self.Log_Level = "info"
	}
	p := &self.Policy
	setInt(&p.Pin_Length, 4)
	setInt(&p.Tries, 3)
	setInt(&p.Admin_Timeout, 6000)
	setInt(&p.Guest_Timeout, 3000)
	setDuration(&p.Tick, 10*time.Millisecond)
	setDuration(&p.Lockout_Wait, 20*time.Second)
	setDuration(&p.Preview_Delay, 500*time.Millisecond)
	setDuration(&p.Message_Delay, time.Second)

	setInt(&self.Master.Link.Baud, 9600)
	setDuration(&self.Master.Link.Settle, time.Millisecond)
	if self.Master.Keypad == "" {
		self.Master.Keypad = "terminal"
	}
	if self.Master.Display == "" {
		self.Master.Display = "console"
	}
	if self.Master.Storage == "" {
		self.Master.Storage = ConfigPath("eeprom.bin")
	}

	setInt(&self.Slave.Link.Baud, 9600)
	setInt(&self.Slave.Sample_Ticks, 10)
	setInt(&self.Slave.Setpoint, 24)
	if self.Slave.Scale.Millivolts_Per_Step == 0 {
		self.Slave.Scale.Millivolts_Per_Step = 4.88
	}
	if self.Slave.Scale.Millivolts_Per_Degree == 0 {
		self.Slave.Scale.Millivolts_Per_Degree = 10
	}
	if self.Graphite.Prefix == "" {
		self.Graphite.Prefix = "homepanel"
	}
}

// ValidateMaster checks the settings a master node cannot run without.
func (self *Config) ValidateMaster() error {
	if self.Master.Link.Device == "" {
		return errors.Wrap(ErrMissingConfig, "master.link.device")
	}
	return nil
}

// ValidateSlave checks the settings a slave node cannot run without.
func (self *Config) ValidateSlave() error {
	if self.Slave.Link.Device == "" {
		return errors.Wrap(ErrMissingConfig, "slave.link.device")
	}
	if self.Slave.Sensor.Address == "" && self.Slave.Sensor.Static == nil {
		return errors.Wrap(ErrMissingConfig, "slave.sensor")
	}
	return nil
}

// helpers

// Resolve a configuration file under .config/homepanel
func ConfigPath(p string) string {
	config := os.Getenv("XDG_CONFIG_HOME")
	if config == "" {
		config = path.Join(os.Getenv("HOME"), ".config")
	}
	return path.Join(config, "homepanel", p)
}
