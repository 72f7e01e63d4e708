// Package config loads the settings of the armdis command from YAML.
package config

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/apparentlymart/arm-meta/decode"
	"github.com/apparentlymart/arm-meta/dispatch"
	"github.com/apparentlymart/arm-meta/isa"
	"github.com/apparentlymart/arm-meta/render"
)

type Config struct {
	ISA        string   `yaml:"isa"`
	Version    string   `yaml:"version"`
	Extensions []string `yaml:"extensions"`
	Endian     string   `yaml:"endian"`

	Syntax    string    `yaml:"syntax"`
	Registers Registers `yaml:"registers"`

	Dispatch Dispatch `yaml:"dispatch"`

	Workers   int `yaml:"workers"`
	ChunkSize int `yaml:"chunk_size"`

	// Symbols maps addresses, written in any base strconv accepts, to
	// names.
	Symbols map[string]string `yaml:"symbols"`
}

type Registers struct {
	AV bool   `yaml:"av"`
	R9 string `yaml:"r9"`
	SL bool   `yaml:"sl"`
	FP bool   `yaml:"fp"`
	IP bool   `yaml:"ip"`
}

type Dispatch struct {
	Strategy        string `yaml:"strategy"`
	Selector        uint32 `yaml:"selector"`
	MaxSelectorBits int    `yaml:"max_selector_bits"`
	LeafSize        int    `yaml:"leaf_size"`
}

// Default decodes A32 for ARMv7 with every extension.
func Default() *Config {
	return &Config{
		ISA:        "a32",
		Version:    isa.V7.String(),
		Extensions: []string{"dsp", "jazelle", "idiv"},
		Endian:     "little",
		Syntax:     "ual",
	}
}

// Load reads a configuration file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse reads a configuration document over the defaults and checks it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every setting that has a fixed vocabulary.
func (c *Config) Validate() error {
	if _, err := c.DecodeConfig(); err != nil {
		return err
	}
	if _, err := c.RenderOptions(); err != nil {
		return err
	}
	if _, err := c.DispatchOptions(); err != nil {
		return err
	}
	if _, err := c.ByteOrder(); err != nil {
		return err
	}
	if _, err := c.SymbolMap(); err != nil {
		return err
	}
	return nil
}

func (c *Config) DecodeConfig() (decode.Config, error) {
	v, err := isa.ParseVersion(c.Version)
	if err != nil {
		return decode.Config{}, err
	}
	ret := decode.Config{Version: v}
	for _, name := range c.Extensions {
		ext, err := isa.ParseExtension(name)
		if err != nil {
			return decode.Config{}, err
		}
		ret.Extensions = ret.Extensions.Union(isa.Extensions(ext))
	}
	return ret, nil
}

func (c *Config) RenderOptions() (render.Options, error) {
	dialect, err := render.ParseDialect(c.Syntax)
	if err != nil {
		return render.Options{}, err
	}
	r9, err := render.ParseR9Name(c.Registers.R9)
	if err != nil {
		return render.Options{}, err
	}
	return render.Options{
		Dialect: dialect,
		Regs: render.RegNames{
			AV: c.Registers.AV,
			R9: r9,
			SL: c.Registers.SL,
			FP: c.Registers.FP,
			IP: c.Registers.IP,
		},
	}, nil
}

func (c *Config) DispatchOptions() (dispatch.Options, error) {
	ret := dispatch.Options{
		Selector:        c.Dispatch.Selector,
		MaxSelectorBits: c.Dispatch.MaxSelectorBits,
		LeafSize:        c.Dispatch.LeafSize,
	}
	if c.Dispatch.Strategy != "" {
		s, err := dispatch.ParseStrategy(c.Dispatch.Strategy)
		if err != nil {
			return dispatch.Options{}, err
		}
		ret.Strategy = s
	}
	return ret, nil
}

func (c *Config) ByteOrder() (binary.ByteOrder, error) {
	switch strings.ToLower(c.Endian) {
	case "", "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	}
	return nil, fmt.Errorf("unknown byte order %q", c.Endian)
}

func (c *Config) SymbolMap() (render.SymbolMap, error) {
	if len(c.Symbols) == 0 {
		return nil, nil
	}
	ret := make(render.SymbolMap, len(c.Symbols))
	for addr, name := range c.Symbols {
		v, err := strconv.ParseUint(addr, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("symbol %s: invalid address %q", name, addr)
		}
		ret[uint32(v)] = name
	}
	return ret, nil
}
