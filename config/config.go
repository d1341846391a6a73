// Package config holds the settings of a simulation run.
package config

import (
	"encoding/json"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sarchlab/pagesim/mem/vm"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "PAGESIM_"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the configuration of a simulation.
type Config struct {
	PageSize        uint64   `json:"page_size"`
	VMSize          uint64   `json:"vm_size"`
	RAMSize         uint64   `json:"ram_size"`
	SwapSizes       []uint64 `json:"swap_sizes"`
	SymbolTableSize int      `json:"symbol_table_size"`
	QueueSize       int      `json:"queue_size"`
	TimeSlice       int      `json:"time_slice"`
	LogLevel        string   `json:"log_level"`
	Debug           bool     `json:"debug"`
	RecordPath      string   `json:"record_path"`
	MonitorPort     int      `json:"monitor_port"`
}

// Default returns the default configuration: 256-byte pages, a 22-bit
// virtual address space, 1 MiB of RAM, and one 16 MiB swap device.
func Default() Config {
	return Config{
		PageSize:        256,
		VMSize:          1 << 22,
		RAMSize:         1 << 20,
		SwapSizes:       []uint64{1 << 24},
		SymbolTableSize: 30,
		QueueSize:       10,
		TimeSlice:       2,
		LogLevel:        "info",
	}
}

// Load reads a JSON file over the defaults. Unknown keys are rejected.
func Load(path string) (Config, error) {
	c := Default()

	f, err := os.Open(path)
	if err != nil {
		return c, errors.Wrap(err, "loading config")
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err = dec.Decode(&c); err != nil {
		return c, errors.Wrapf(err, "parsing %s", path)
	}

	return c, nil
}

// LoadEnv loads the given .env files into the environment, then applies
// PAGESIM_* variables to c. Without files, ".env" is loaded if it exists.
func LoadEnv(c *Config, files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err == nil {
			files = []string{".env"}
		}
	}

	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return errors.Wrap(err, "loading env files")
		}
	}

	return ApplyEnv(c)
}

// ApplyEnv overrides fields of c with PAGESIM_* environment variables. The
// variable name is the upper-cased JSON key, e.g. PAGESIM_RAM_SIZE.
// PAGESIM_SWAP_SIZES is a comma-separated list.
func ApplyEnv(c *Config) error {
	uints := map[string]*uint64{
		"PAGE_SIZE": &c.PageSize,
		"VM_SIZE":   &c.VMSize,
		"RAM_SIZE":  &c.RAMSize,
	}
	for key, field := range uints {
		if v, ok := lookup(key); ok {
			n, err := strconv.ParseUint(v, 0, 64)
			if err != nil {
				return errors.Wrapf(err, "%s%s", EnvPrefix, key)
			}
			*field = n
		}
	}

	ints := map[string]*int{
		"SYMBOL_TABLE_SIZE": &c.SymbolTableSize,
		"QUEUE_SIZE":        &c.QueueSize,
		"TIME_SLICE":        &c.TimeSlice,
		"MONITOR_PORT":      &c.MonitorPort,
	}
	for key, field := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return errors.Wrapf(err, "%s%s", EnvPrefix, key)
			}
			*field = n
		}
	}

	if v, ok := lookup("SWAP_SIZES"); ok {
		sizes, err := parseSizes(v)
		if err != nil {
			return errors.Wrapf(err, "%sSWAP_SIZES", EnvPrefix)
		}
		c.SwapSizes = sizes
	}

	if v, ok := lookup("DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "%sDEBUG", EnvPrefix)
		}
		c.Debug = b
	}

	if v, ok := lookup("LOG_LEVEL"); ok {
		c.LogLevel = v
	}

	if v, ok := lookup("RECORD_PATH"); ok {
		c.RecordPath = v
	}

	return nil
}

func lookup(key string) (string, bool) {
	return os.LookupEnv(EnvPrefix + key)
}

func parseSizes(s string) ([]uint64, error) {
	var sizes []uint64

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		n, err := strconv.ParseUint(part, 0, 64)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, n)
	}

	return sizes, nil
}

// Validate checks that the sizes can be simulated.
func (c Config) Validate() error {
	if c.PageSize == 0 || c.PageSize&(c.PageSize-1) != 0 {
		return errors.Wrapf(ErrInvalidConfig,
			"page size %d is not a power of two", c.PageSize)
	}

	if err := c.sizeMustBePages("vm_size", c.VMSize); err != nil {
		return err
	}

	if err := c.sizeMustBePages("ram_size", c.RAMSize); err != nil {
		return err
	}

	if frames := c.RAMSize / c.PageSize; frames > vm.MaxFrames {
		return errors.Wrapf(ErrInvalidConfig,
			"%d RAM frames, a page table entry holds at most %d",
			frames, vm.MaxFrames)
	}

	if len(c.SwapSizes) > vm.MaxSwapDevices {
		return errors.Wrapf(ErrInvalidConfig,
			"%d swap devices, at most %d", len(c.SwapSizes), vm.MaxSwapDevices)
	}

	for i, size := range c.SwapSizes {
		if err := c.sizeMustBePages("swap_sizes["+strconv.Itoa(i)+"]",
			size); err != nil {
			return err
		}

		if frames := size / c.PageSize; frames > vm.MaxSwapFrames {
			return errors.Wrapf(ErrInvalidConfig,
				"swap %d has %d frames, a page table entry holds at most %d",
				i, frames, vm.MaxSwapFrames)
		}
	}

	if c.SymbolTableSize <= 0 || c.QueueSize <= 0 || c.TimeSlice <= 0 {
		return errors.Wrapf(ErrInvalidConfig,
			"symbol_table_size, queue_size and time_slice must be positive")
	}

	if _, err := c.Level(); err != nil {
		return err
	}

	return nil
}

func (c Config) sizeMustBePages(name string, size uint64) error {
	if size == 0 || size%c.PageSize != 0 {
		return errors.Wrapf(ErrInvalidConfig,
			"%s %d is not a positive multiple of page size %d",
			name, size, c.PageSize)
	}

	return nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(c.LogLevel))
	if err != nil {
		return slog.LevelInfo, errors.Wrapf(ErrInvalidConfig,
			"log level %q", c.LogLevel)
	}

	return level, nil
}
