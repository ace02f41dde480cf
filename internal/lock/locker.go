package lock

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrLockTimeout is returned when a lease could not be obtained within the wait timeout.
var ErrLockTimeout = errors.New("lock wait timeout")

// RoomKey names the lease guarding one room on one date.
func RoomKey(room int, date string) string {
	return fmt.Sprintf("room:%d:%s", room, date)
}

// ClientKey names the lease guarding one client on one date.
func ClientKey(userID, date string) string {
	return fmt.Sprintf("client:%s:%s", userID, date)
}

type acquireFunc func(ctx context.Context, key string) (release func(), err error)

// acquireAll takes the keys one by one in sorted order so two callers
// with overlapping key sets cannot deadlock. Already taken keys are
// released if any later key fails.
func acquireAll(ctx context.Context, wait time.Duration, keys []string, acquire acquireFunc) (func(), error) {
	keys = normalizeKeys(keys)

	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	releases := make([]func(), 0, len(keys))
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}

	for _, key := range keys {
		release, err := acquire(ctx, key)
		if err != nil {
			releaseAll()
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%s: %w", key, ErrLockTimeout)
			}
			return nil, err
		}
		releases = append(releases, release)
	}

	return onceFunc(releaseAll), nil
}

func normalizeKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func onceFunc(f func()) func() {
	done := false
	return func() {
		if done {
			return
		}
		done = true
		f()
	}
}
