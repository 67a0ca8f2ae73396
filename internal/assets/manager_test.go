package assets_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rackworks/gearrack/internal/assets"
	"github.com/rackworks/gearrack/internal/gear"
	"github.com/rackworks/gearrack/internal/notify"
	"github.com/rackworks/gearrack/internal/resolver"
)

// manualPoster queues posted tasks and lets the test decide when they run,
// so staleness windows can be forced deterministically.
type manualPoster struct {
	mu     sync.Mutex
	tasks  []func()
	queued chan struct{}
}

func newManualPoster() *manualPoster {
	return &manualPoster{queued: make(chan struct{}, 16)}
}

func (p *manualPoster) Post(f func()) {
	p.mu.Lock()
	p.tasks = append(p.tasks, f)
	p.mu.Unlock()
	p.queued <- struct{}{}
}

func (p *manualPoster) waitQueued(t *testing.T) {
	t.Helper()
	select {
	case <-p.queued:
	case <-time.After(2 * time.Second):
		t.Fatal("no task was posted back")
	}
}

func (p *manualPoster) runAll() {
	p.mu.Lock()
	tasks := p.tasks
	p.tasks = nil
	p.mu.Unlock()
	for _, f := range tasks {
		f()
	}
}

type fakeBinaryFetcher struct {
	mu    sync.Mutex
	data  []byte
	err   error
	calls int
}

func (f *fakeBinaryFetcher) FetchBinary(context.Context, string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.data, f.err
}

func (f *fakeBinaryFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLocator struct {
	slots []int
}

func (l *fakeLocator) SlotsDisplaying(*gear.GearDescriptor) []int {
	return l.slots
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func testDescriptor(imagePath string) *gear.GearDescriptor {
	c := gear.NewControl(gear.ControlKindKnob, "Gain", gear.Rect{})
	c.ImagePath = imagePath
	return &gear.GearDescriptor{
		UnitID:   "la2a",
		Controls: []*gear.ControlDescriptor{c},
	}
}

func newManager(fetcher *fakeBinaryFetcher, poster *manualPoster, locator *fakeLocator, rec *notify.Recorder) *assets.Manager {
	var notifier notify.Notifier = notify.Discard{}
	if rec != nil {
		notifier = rec
	}
	return assets.NewManager(fetcher, resolver.New("https://catalog.test"), poster, locator, notifier, zap.NewNop())
}

func TestFetchControlAssetInstallsAndNotifies(t *testing.T) {
	fetcher := &fakeBinaryFetcher{data: pngBytes(t)}
	poster := newManualPoster()
	rec := &notify.Recorder{}
	m := newManager(fetcher, poster, &fakeLocator{slots: []int{3}}, rec)
	d := testDescriptor("knob.png")

	m.FetchControlAsset(d, 0)
	poster.waitQueued(t)
	poster.runAll()

	if d.Controls[0].Image == nil {
		t.Fatal("expected bitmap installed")
	}
	if d.Controls[0].Image.Format != "png" {
		t.Fatalf("unexpected format %q", d.Controls[0].Image.Format)
	}
	if len(rec.Events) != 1 || rec.Events[0].Type != notify.EventControlChanged {
		t.Fatalf("unexpected events: %v", rec.Types())
	}
	data := rec.Events[0].Data.(notify.ControlData)
	if data.Slot != 3 || data.ControlIndex != 0 {
		t.Fatalf("unexpected event payload: %+v", data)
	}
}

func TestFetchControlAssetStaleIdentityDiscarded(t *testing.T) {
	fetcher := &fakeBinaryFetcher{data: pngBytes(t)}
	poster := newManualPoster()
	rec := &notify.Recorder{}
	m := newManager(fetcher, poster, &fakeLocator{slots: []int{0}}, rec)
	d := testDescriptor("knob.png")

	m.FetchControlAsset(d, 0)
	poster.waitQueued(t)

	// A re-parse rebuilt the control list while the fetch was in flight.
	replacement := gear.NewControl(gear.ControlKindKnob, "Output", gear.Rect{})
	replacement.ImagePath = "other.png"
	d.Controls[0] = replacement

	poster.runAll()

	if replacement.Image != nil {
		t.Fatal("stale result must not be installed on the replacement control")
	}
	if len(rec.Events) != 0 {
		t.Fatalf("stale discard must not notify, got %v", rec.Types())
	}
}

func TestFetchControlAssetIndexOutOfBoundsDiscarded(t *testing.T) {
	fetcher := &fakeBinaryFetcher{data: pngBytes(t)}
	poster := newManualPoster()
	m := newManager(fetcher, poster, &fakeLocator{}, nil)
	d := testDescriptor("knob.png")

	m.FetchControlAsset(d, 0)
	poster.waitQueued(t)

	d.Controls = nil // cleared while in flight
	poster.runAll()  // must not panic, result discarded
}

func TestFetchControlAssetIdempotentNoRefetch(t *testing.T) {
	fetcher := &fakeBinaryFetcher{data: pngBytes(t)}
	poster := newManualPoster()
	m := newManager(fetcher, poster, &fakeLocator{}, nil)
	d := testDescriptor("knob.png")
	d.Controls[0].Image = &gear.Bitmap{}

	m.FetchControlAsset(d, 0)

	if fetcher.callCount() != 0 {
		t.Fatal("a control already carrying a bitmap must not be re-fetched")
	}
}

func TestFetchControlAssetEmptyPathIsNoOp(t *testing.T) {
	fetcher := &fakeBinaryFetcher{data: pngBytes(t)}
	poster := newManualPoster()
	m := newManager(fetcher, poster, &fakeLocator{}, nil)
	d := testDescriptor("")

	m.FetchControlAsset(d, 0)
	m.FetchControlAsset(d, 7) // out of range

	if fetcher.callCount() != 0 {
		t.Fatal("no fetch should be dispatched")
	}
}

func TestFetchControlAssetDecodeFailureLeavesUnset(t *testing.T) {
	fetcher := &fakeBinaryFetcher{data: []byte("not an image")}
	poster := newManualPoster()
	rec := &notify.Recorder{}
	m := newManager(fetcher, poster, &fakeLocator{slots: []int{0}}, rec)
	d := testDescriptor("knob.png")

	m.FetchControlAsset(d, 0)
	poster.waitQueued(t)
	poster.runAll()

	if d.Controls[0].Image != nil {
		t.Fatal("decode failure must leave the control bitmap unset")
	}
	if len(rec.Events) != 0 {
		t.Fatalf("decode failure must not notify, got %v", rec.Types())
	}
}

func TestFetchFaceplateInstalls(t *testing.T) {
	fetcher := &fakeBinaryFetcher{data: pngBytes(t)}
	poster := newManualPoster()
	rec := &notify.Recorder{}
	m := newManager(fetcher, poster, &fakeLocator{slots: []int{1}}, rec)
	d := testDescriptor("")
	d.FaceplatePath = "plate.png"

	m.FetchFaceplate(d)
	poster.waitQueued(t)
	poster.runAll()

	if d.Faceplate == nil || d.Faceplate.Placeholder {
		t.Fatalf("expected real faceplate bitmap, got %+v", d.Faceplate)
	}
	if len(rec.Events) != 1 || rec.Events[0].Type != notify.EventGearInstalled {
		t.Fatalf("unexpected events: %v", rec.Types())
	}
}

func TestFetchFaceplateFailureInstallsPlaceholder(t *testing.T) {
	fetcher := &fakeBinaryFetcher{err: fmt.Errorf("timeout")}
	poster := newManualPoster()
	m := newManager(fetcher, poster, &fakeLocator{}, nil)
	d := testDescriptor("")
	d.FaceplatePath = "plate.png"

	m.FetchFaceplate(d)
	poster.waitQueued(t)
	poster.runAll()

	if d.Faceplate == nil || !d.Faceplate.Placeholder {
		t.Fatalf("expected placeholder, got %+v", d.Faceplate)
	}
	if d.Faceplate.Label != "unavailable" {
		t.Fatalf("unexpected placeholder label %q", d.Faceplate.Label)
	}
}

func TestFetchFaceplateStalePathDiscarded(t *testing.T) {
	fetcher := &fakeBinaryFetcher{data: pngBytes(t)}
	poster := newManualPoster()
	m := newManager(fetcher, poster, &fakeLocator{}, nil)
	d := testDescriptor("")
	d.FaceplatePath = "plate.png"

	m.FetchFaceplate(d)
	poster.waitQueued(t)

	d.FaceplatePath = "replaced.png" // re-parse swapped the reference
	poster.runAll()

	if d.Faceplate != nil {
		t.Fatal("stale faceplate result must be discarded")
	}
}
