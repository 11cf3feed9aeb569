package updater

import (
	"context"

	"github.com/waldirborbajr/versiongate/config"
)

// CheckForUpdate runs CheckForUpdateWithContext without cancellation and with
// a store built from cfg
func CheckForUpdate(cfg config.Config) (Result, error) {
	return CheckForUpdateWithContext(context.Background(), cfg, nil)
}
