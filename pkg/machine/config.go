/*
   H89Emu - Heathkit H89/H88 emulator
   Copyright (c) 2022, Alexander Vollschwitz

   This file is part of H89Emu.

   H89Emu is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   H89Emu is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with H89Emu. If not, see <http://www.gnu.org/licenses/>.
*/

package machine

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/xelalexv/h89emu/pkg/bus"
	"github.com/xelalexv/h89emu/pkg/controller/h17"
	"github.com/xelalexv/h89emu/pkg/controller/z37"
	"github.com/xelalexv/h89emu/pkg/controller/z47"
	"github.com/xelalexv/h89emu/pkg/memory"
	"github.com/xelalexv/h89emu/pkg/serial"
)

// DefaultClockRate is the H89's stock CPU clock
const DefaultClockRate = 2048000

// attachments of a serial port
const (
	AttachNone     = ""
	AttachTerminal = "terminal"
)

// card names
const (
	CardH17 = "h17"
	CardZ37 = "z37"
	CardZ47 = "z47"
)

//
type Config struct {
	ClockRate uint32         `mapstructure:"clock"`
	Throttle  bool           `mapstructure:"throttle"`
	Memory    MemoryConfig   `mapstructure:"memory"`
	SW501     int            `mapstructure:"sw501"`
	H17       CardConfig     `mapstructure:"h17"`
	Z37       CardConfig     `mapstructure:"z37"`
	Z47       CardConfig     `mapstructure:"z47"`
	Serial    []SerialConfig `mapstructure:"serial"`
}

// MemoryConfig selects decoder variant, RAM size in K, and ROM images.
type MemoryConfig struct {
	Variant string `mapstructure:"variant"`
	RAM     int    `mapstructure:"ram"`
	Monitor string `mapstructure:"monitor"`
	H17ROM  string `mapstructure:"h17rom"`
}

// CardConfig enables a disk controller card at a port address. Level is
// only used by cards with a choice of interrupt level. Drives lists the
// images to insert, an empty entry leaves the drive empty.
type CardConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Base    int      `mapstructure:"base"`
	Level   int      `mapstructure:"level"`
	Drives  []string `mapstructure:"drives"`
}

// SerialConfig places a UART. Attach is either terminal, a host serial port
// as device[:baud], or empty. A negative level disables interrupts.
type SerialConfig struct {
	Name   string `mapstructure:"name"`
	Base   int    `mapstructure:"base"`
	Level  int    `mapstructure:"level"`
	Attach string `mapstructure:"attach"`
}

// DefaultConfig is a 64K H89 with H-17 and Z-89-37, and the console on the
// host terminal.
func DefaultConfig() *Config {
	return &Config{
		ClockRate: DefaultClockRate,
		Throttle:  true,
		Memory: MemoryConfig{
			Variant: string(memory.VariantH89),
			RAM:     64,
		},
		H17: CardConfig{Enabled: true, Base: h17.DefaultBase},
		Z37: CardConfig{Enabled: true, Base: z37.DefaultBase},
		Z47: CardConfig{Base: z47.DefaultBase, Level: bus.LevelDisk},
		Serial: []SerialConfig{
			{Name: "console", Base: serial.ConsoleBase,
				Level: serial.ConsoleLevel, Attach: AttachTerminal},
			{Name: "lp", Base: serial.LinePrinter, Level: -1},
			{Name: "modem", Base: serial.ModemBase, Level: -1},
			{Name: "aux", Base: serial.AuxBase, Level: -1},
		},
	}
}

// LoadConfig reads a machine configuration file on top of the defaults.
// Settings can be overridden with H89_ prefixed environment variables,
// e.g. H89_MEMORY_VARIANT.
func LoadConfig(file string) (*Config, error) {

	v := viper.New()
	v.SetEnvPrefix("h89")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("clock", def.ClockRate)
	v.SetDefault("throttle", def.Throttle)
	v.SetDefault("memory.variant", def.Memory.Variant)
	v.SetDefault("memory.ram", def.Memory.RAM)
	v.SetDefault("memory.monitor", "")
	v.SetDefault("memory.h17rom", "")
	v.SetDefault("sw501", def.SW501)
	for name, card := range map[string]CardConfig{
		CardH17: def.H17, CardZ37: def.Z37, CardZ47: def.Z47} {
		v.SetDefault(name+".enabled", card.Enabled)
		v.SetDefault(name+".base", card.Base)
		v.SetDefault(name+".level", card.Level)
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("cannot read config %s: %v", file, err)
		}
		log.WithField("file", v.ConfigFileUsed()).Info("using configuration")
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %v", err)
	}
	if !v.IsSet("serial") {
		cfg.Serial = def.Serial
	}

	return cfg, cfg.Validate()
}

// Validate checks the settings that can be checked without building the
// machine.
func (c *Config) Validate() error {

	if c.ClockRate == 0 {
		return fmt.Errorf("clock rate must not be 0")
	}
	if _, err := memory.ParseVariant(c.Memory.Variant); err != nil {
		return err
	}
	if c.SW501 < 0 || c.SW501 > 0xff {
		return fmt.Errorf("invalid SW501 setting: %d", c.SW501)
	}

	cards := map[string]CardConfig{CardH17: c.H17, CardZ37: c.Z37, CardZ47: c.Z47}
	for name, card := range cards {
		if !card.Enabled {
			continue
		}
		if card.Base < 0 || card.Base > 0xff {
			return fmt.Errorf("invalid port address for %s: %d", name, card.Base)
		}
		if card.Level < 0 || card.Level > bus.MaxLevel {
			return fmt.Errorf("invalid interrupt level for %s: %d", name, card.Level)
		}
	}

	for _, s := range c.Serial {
		if s.Base < 0 || s.Base > 0xff {
			return fmt.Errorf("invalid port address for %s: %d", s.Name, s.Base)
		}
		if s.Level > bus.MaxLevel {
			return fmt.Errorf("invalid interrupt level for %s: %d", s.Name, s.Level)
		}
	}

	return nil
}
