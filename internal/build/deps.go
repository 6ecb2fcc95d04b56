package build

import (
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/dist/internal/history"
	"git.home.luguber.info/inful/dist/internal/metrics"
	"git.home.luguber.info/inful/dist/internal/notify"
)

// Deps are the collaborators of a build. The zero value is usable: metrics
// and notifications are no-ops and no history or manifest is written.
type Deps struct {
	Recorder metrics.Recorder
	History  history.Store
	Notifier notify.Publisher

	// ManifestPath, when set, receives the build manifest as JSON after Run.
	ManifestPath string

	// Now and NewRunID are replaceable for tests.
	Now      func() time.Time
	NewRunID func() string
}

func (d Deps) withDefaults() Deps {
	if d.Recorder == nil {
		d.Recorder = metrics.NoopRecorder{}
	}
	if d.Notifier == nil {
		d.Notifier = notify.Noop{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.NewRunID == nil {
		d.NewRunID = uuid.NewString
	}
	return d
}
