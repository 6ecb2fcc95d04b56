package config

import (
	"errors"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/dist/internal/foundation/errors"
)

// Init writes an example configuration file to configPath.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return ferrors.AlreadyExistsError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ferrors.FileSystemError("failed to stat config file").WithCause(err).WithContext("path", configPath).Build()
	}

	example := Defaults()
	example.Dist.BaseURL = "/site"
	example.Watch.Debounce = defaultDebounce.String()
	example.History.Path = ".dist/history.db"

	data, err := yaml.Marshal(&example)
	if err != nil {
		return ferrors.InternalError("failed to marshal config").WithCause(err).Build()
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return ferrors.FileSystemError("failed to write config file").WithCause(err).WithContext("path", configPath).Build()
	}
	return nil
}
