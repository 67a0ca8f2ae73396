// Package assets downloads and decodes the bitmap resources referenced by
// descriptors and controls. Every fetch runs on its own worker goroutine;
// the decoded result is posted back to the model loop and installed only
// after the target's identity, captured at dispatch time, still checks out.
// Anything that fails that gate is a stale callback and is discarded.
package assets

import (
	"context"

	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/gear"
	"github.com/rackworks/gearrack/internal/netfetch"
	"github.com/rackworks/gearrack/internal/notify"
	"github.com/rackworks/gearrack/internal/resolver"
)

// Poster marshals work back onto the single-threaded model context.
type Poster interface {
	Post(func())
}

// SlotLocator answers which slots currently display a descriptor, so
// observers can be told which slot index to refresh.
type SlotLocator interface {
	SlotsDisplaying(d *gear.GearDescriptor) []int
}

// controlIdentity is the immutable identity captured when a control asset
// fetch is dispatched. The completion callback compares it against whatever
// occupies the index by then.
type controlIdentity struct {
	id    string
	label string
}

type Manager struct {
	fetcher  netfetch.BinaryFetcher
	resolver *resolver.Resolver
	loop     Poster
	locator  SlotLocator
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewManager(fetcher netfetch.BinaryFetcher, res *resolver.Resolver, loop Poster, locator SlotLocator, notifier notify.Notifier, logger *zap.Logger) *Manager {
	return &Manager{
		fetcher:  fetcher,
		resolver: res,
		loop:     loop,
		locator:  locator,
		notifier: notifier,
		logger:   logger,
	}
}

// FetchControlAsset downloads and installs the bitmap for one control,
// addressed by index into the descriptor's control list. A control that
// already carries a bitmap is not re-fetched.
//
// Must be called on the model loop; the result comes back to it.
func (m *Manager) FetchControlAsset(d *gear.GearDescriptor, controlIndex int) {
	if controlIndex < 0 || controlIndex >= len(d.Controls) {
		return
	}
	control := d.Controls[controlIndex]
	if control.ImagePath == "" || control.Image != nil {
		return
	}

	captured := controlIdentity{id: control.ID, label: control.Label}
	resourcePath := control.ImagePath
	url := m.resolver.Resolve(resourcePath)

	go func() {
		data, err := m.fetcher.FetchBinary(context.Background(), url)
		var bmp *gear.Bitmap
		if err == nil {
			img, format, decodeErr := decodeImage(data, resourcePath)
			if decodeErr != nil {
				err = decodeErr
			} else {
				bmp = &gear.Bitmap{Image: img, Format: format, SourcePath: resourcePath}
			}
		}

		m.loop.Post(func() {
			if !m.controlStillValid(d, controlIndex, captured) {
				// Expected under normal churn, not an error.
				m.logger.Debug("stale control asset discarded",
					zap.String("unit_id", d.UnitID),
					zap.String("control_id", captured.id))
				return
			}
			if err != nil {
				// The control falls back to non-bitmap rendering.
				m.logger.Warn("control asset fetch failed",
					zap.String("unit_id", d.UnitID),
					zap.String("control_id", captured.id),
					zap.String("url", url),
					zap.Error(err))
				return
			}

			target := d.Controls[controlIndex]
			if target.Image != nil {
				return
			}
			target.Image = bmp
			m.notifyDisplayers(d, controlIndex)
		})
	}()
}

// FetchFaceplate downloads and installs the descriptor's faceplate bitmap.
// On any fetch or decode failure a constant placeholder is installed
// instead, so layout code never sees a missing faceplate.
func (m *Manager) FetchFaceplate(d *gear.GearDescriptor) {
	resourcePath := d.FaceplatePath
	if resourcePath == "" || d.Faceplate != nil {
		return
	}

	url := m.resolver.Resolve(resourcePath)

	go func() {
		data, err := m.fetcher.FetchBinary(context.Background(), url)
		var bmp *gear.Bitmap
		if err == nil {
			img, format, decodeErr := decodeImage(data, resourcePath)
			if decodeErr != nil {
				err = decodeErr
			} else {
				bmp = &gear.Bitmap{Image: img, Format: format, SourcePath: resourcePath}
			}
		}

		m.loop.Post(func() {
			// A re-parse may have swapped the faceplate reference while the
			// download was in flight.
			if d.FaceplatePath != resourcePath {
				m.logger.Debug("stale faceplate discarded",
					zap.String("unit_id", d.UnitID),
					zap.String("path", resourcePath))
				return
			}
			if d.Faceplate != nil {
				return
			}

			if err != nil {
				m.logger.Warn("faceplate fetch failed, installing placeholder",
					zap.String("unit_id", d.UnitID),
					zap.String("url", url),
					zap.Error(err))
				bmp = placeholderBitmap(resourcePath)
			}

			d.Faceplate = bmp
			for _, slot := range m.locator.SlotsDisplaying(d) {
				m.notifier.Publish(notify.GearInstalled(slot))
			}
		})
	}()
}

// controlStillValid is the stale-callback gate: the index must still be in
// bounds and the control there must carry the identity captured at dispatch
// time. A cleared or rebuilt control list fails either check.
func (m *Manager) controlStillValid(d *gear.GearDescriptor, controlIndex int, captured controlIdentity) bool {
	if controlIndex < 0 || controlIndex >= len(d.Controls) {
		return false
	}
	c := d.Controls[controlIndex]
	return c.ID == captured.id && c.Label == captured.label
}

func (m *Manager) notifyDisplayers(d *gear.GearDescriptor, controlIndex int) {
	for _, slot := range m.locator.SlotsDisplaying(d) {
		m.notifier.Publish(notify.ControlChanged(slot, controlIndex))
	}
}
