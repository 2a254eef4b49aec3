package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/todo/internal/core/theme"
	"github.com/colonyops/todo/internal/core/todo"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// Validate checks that the configuration is structurally valid.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", errors.New("data directory cannot be empty"))
	}

	if !slices.Contains(Backends(), c.Storage.Backend) {
		errs = errs.Append("storage.backend",
			fmt.Errorf("unknown backend %q: must be one of %s", c.Storage.Backend, strings.Join(Backends(), ", ")))
	}

	if c.Storage.Backend == BackendRedis && c.Storage.Redis.Addr == "" {
		errs = errs.Append("storage.redis.addr", errors.New("required for the redis backend"))
	}
	if c.Storage.Redis.DB < 0 {
		errs = errs.Append("storage.redis.db", errors.New("must not be negative"))
	}

	db := c.Storage.Database
	if db.MaxOpenConns < 1 {
		errs = errs.Append("storage.database.max_open_conns", errors.New("must be at least 1"))
	}
	if db.MaxIdleConns < 0 {
		errs = errs.Append("storage.database.max_idle_conns", errors.New("must not be negative"))
	}
	if db.BusyTimeout < 0 {
		errs = errs.Append("storage.database.busy_timeout", errors.New("must not be negative"))
	}

	if c.Form.SubmitDelay < 0 {
		errs = errs.Append("form.submit_delay", errors.New("must not be negative"))
	}
	if c.Form.ResetDelay < 0 {
		errs = errs.Append("form.reset_delay", errors.New("must not be negative"))
	}

	if c.Theme != "" {
		if _, err := theme.Parse(c.Theme); err != nil {
			errs = errs.Append("theme", err)
		}
	}

	if _, err := todo.ParseSortKey(c.List.DefaultSort); err != nil {
		errs = errs.Append("list.default_sort", err)
	}

	return errs.ToError()
}

// ValidateDeep performs Validate plus checks that touch the filesystem. The
// configPath argument specifies the config file location to validate
// (empty string skips the config file check).
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Storage.Backend != BackendRedis && c.Storage.Redis.Password != "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Storage",
			Item:     "storage.redis",
			Message:  fmt.Sprintf("redis credentials are set but the %s backend is selected", c.Storage.Backend),
		})
	}

	if c.Storage.Backend == BackendMemory {
		warnings = append(warnings, ValidationWarning{
			Category: "Storage",
			Item:     "storage.backend",
			Message:  "the memory backend keeps nothing between runs",
		})
	}

	if c.Storage.Database.MaxIdleConns > c.Storage.Database.MaxOpenConns {
		warnings = append(warnings, ValidationWarning{
			Category: "Storage",
			Item:     "storage.database.max_idle_conns",
			Message:  "exceeds max_open_conns and will be capped",
		})
	}

	return warnings
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
