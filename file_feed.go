package rill

import (
	"context"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/zoobzio/clockz"
)

// FileFeed is a cache-snapshot Feed backed by a local file holding a list
// of items. The current contents are emitted immediately on subscription
// and re-emitted whenever the file is written, tagged SourceCached.
type FileFeed struct {
	path  string
	codec Codec
	clock clockz.Clock
}

// NewFileFeed creates a FileFeed for the given path. The file is decoded
// with JSONCodec unless overridden.
func NewFileFeed(path string) *FileFeed {
	return &FileFeed{path: path, codec: JSONCodec{}, clock: clockz.RealClock}
}

// Codec sets the codec for decoding the file contents.
func (f *FileFeed) Codec(codec Codec) *FileFeed {
	f.codec = codec
	return f
}

// Clock sets a custom clock used to stamp emitted snapshots.
func (f *FileFeed) Clock(clock clockz.Clock) *FileFeed {
	f.clock = clock
	return f
}

// Snapshots begins watching the file and returns a channel that emits a
// cached snapshot whenever the file is written. Files that fail to read or
// decode are skipped; the previous snapshot stands until a valid write.
func (f *FileFeed) Snapshots(ctx context.Context) (<-chan StreamSnapshot, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(f.path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch file %s: %w", f.path, err)
	}

	out := make(chan StreamSnapshot)

	go func() {
		defer close(out)
		defer watcher.Close()

		// Emit initial contents
		if snap, ok := f.load(); ok {
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Only emit on write or create events
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				snap, ok := f.load()
				if !ok {
					continue
				}

				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Continue watching despite errors
			}
		}
	}()

	return out, nil
}

// load reads and decodes the file into a cached snapshot.
func (f *FileFeed) load() (StreamSnapshot, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return StreamSnapshot{}, false
	}

	var items []StreamItem
	if err := f.codec.Unmarshal(data, &items); err != nil {
		return StreamSnapshot{}, false
	}

	return StreamSnapshot{
		Items:     items,
		Timestamp: f.clock.Now(),
		Source:    SourceCached,
	}, true
}

// Ensure FileFeed implements Feed.
var _ Feed = (*FileFeed)(nil)
