// uploads.go - In-memory store for images uploaded through the API.

package server

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xob0t/GoPoster/pkg/assets"
	"github.com/xob0t/GoPoster/internal/id"
)

// UploadScheme prefixes descriptor image refs that point at an upload.
const UploadScheme = "upload://"

type upload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Mime string `json:"mime"`
	Size int    `json:"size"`
	data []byte
}

// Uploads keeps uploaded images for the life of the process.
type Uploads struct {
	mu    sync.RWMutex
	items map[string]*upload
}

func NewUploads() *Uploads {
	return &Uploads{items: make(map[string]*upload)}
}

func (u *Uploads) add(name, mime string, data []byte) (*upload, error) {
	uid, err := id.New()
	if err != nil {
		return nil, err
	}
	up := &upload{ID: uid, Name: name, Mime: mime, Size: len(data), data: data}
	u.mu.Lock()
	u.items[uid] = up
	u.mu.Unlock()
	return up, nil
}

func (u *Uploads) get(id string) (*upload, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	up, ok := u.items[id]
	return up, ok
}

func (u *Uploads) list() []*upload {
	u.mu.RLock()
	defer u.mu.RUnlock()
	out := make([]*upload, 0, len(u.items))
	for _, up := range u.items {
		out = append(out, up)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (u *Uploads) remove(id string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.items[id]; !ok {
		return false
	}
	delete(u.items, id)
	return true
}

// fetcher serves upload:// refs from the store and hands everything else to next.
func (u *Uploads) fetcher(next assets.Fetcher) assets.Fetcher {
	return assets.FetcherFunc(func(ctx context.Context, ref string) ([]byte, error) {
		id, ok := strings.CutPrefix(ref, UploadScheme)
		if !ok {
			return next.Fetch(ctx, ref)
		}
		up, found := u.get(id)
		if !found {
			return nil, fmt.Errorf("upload %q not found", id)
		}
		return up.data, nil
	})
}
