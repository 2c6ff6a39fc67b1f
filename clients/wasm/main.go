//go:build js && wasm

// gopostr WASM - client-side poster renderer.
// Compiled with: GOOS=js GOARCH=wasm go build -o gopostr.wasm ./clients/wasm/
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"syscall/js"

	"github.com/xob0t/GoPoster/pkg/assets"
	"github.com/xob0t/GoPoster/pkg/exporter"
	"github.com/xob0t/GoPoster/pkg/layout"
	"github.com/xob0t/GoPoster/pkg/poster"
)

// In-memory image store, filled from JS with goRegisterAsset.
var (
	assetsMu   sync.RWMutex
	registered = make(map[string][]byte)
)

var (
	renderer = poster.NewRenderer(poster.WithCache(assets.New(assets.WithFetcher(assets.FetcherFunc(fetch)))))
	live     = newPreview(renderer)
)

func main() {
	fmt.Println("gopostr WASM loaded")

	js.Global().Set("goRenderPoster", js.FuncOf(renderPoster))
	js.Global().Set("goValidatePoster", js.FuncOf(validatePoster))
	js.Global().Set("goPosterLayouts", js.FuncOf(posterLayouts))
	js.Global().Set("goRegisterAsset", js.FuncOf(registerAsset))
	js.Global().Set("goRemoveAsset", js.FuncOf(removeAsset))

	js.Global().Set("goPreviewUpdate", js.FuncOf(previewUpdate))
	js.Global().Set("goPreviewFrame", js.FuncOf(previewFrame))
	js.Global().Set("goPreviewStatus", js.FuncOf(previewStatus))
	js.Global().Set("goPreviewSnapshot", js.FuncOf(previewSnapshot))
	js.Global().Set("goPreviewClose", js.FuncOf(previewClose))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

// fetch serves registered assets and data URLs. The browser build has no
// synchronous network access, so remote URLs must be registered first.
func fetch(ctx context.Context, ref string) ([]byte, error) {
	assetsMu.RLock()
	data, ok := registered[ref]
	assetsMu.RUnlock()
	if ok {
		return data, nil
	}
	if strings.HasPrefix(ref, "data:") {
		return assets.DataURLFetcher{}.Fetch(ctx, ref)
	}
	return nil, fmt.Errorf("asset %q is not registered", ref)
}

func stringArgs(args []js.Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		switch a.Type() {
		case js.TypeString:
			out[i] = a.String()
		case js.TypeNumber:
			out[i] = strconv.Itoa(a.Int())
		}
	}
	return out
}

// goRenderPoster(descriptorJSON, format, quality) returns base64 image data
// or "error: ...". When the typeface is unavailable the placeholder frame is
// returned.
func renderPoster(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need descriptorJSON")
	}
	opts, err := parseOptions(stringArgs(args[1:])...)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}

	desc, err := poster.ParseDescriptor([]byte(args[0].String()), "json")
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}

	img, err := renderer.Render(context.Background(), desc)
	if img == nil {
		return js.ValueOf("error: " + err.Error())
	}
	if err != nil {
		fmt.Println("gopostr:", err)
	}

	enc, err := exporter.Encode(img, opts)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf(enc.Base64())
}

// goPreviewUpdate(descriptorJSON) replaces the live preview's descriptor.
// The frame is redrawn as each registered image is decoded.
func previewUpdate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need descriptorJSON")
	}
	if err := live.update(args[0].String()); err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf("ok")
}

// goPreviewFrame(format, quality) returns the latest preview frame as base64.
func previewFrame(this js.Value, args []js.Value) interface{} {
	opts, err := parseOptions(stringArgs(args)...)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	data, err := live.frame(opts)
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	return js.ValueOf(data)
}

// goPreviewStatus() returns {"settled": bool, "exporting": bool, "error": string}.
func previewStatus(this js.Value, args []js.Value) interface{} {
	status := map[string]interface{}{
		"settled":   live.settled(),
		"exporting": live.exporting(),
		"error":     "",
	}
	if err := live.err(); err != nil {
		status["error"] = err.Error()
	}
	out, _ := json.Marshal(status)
	return js.ValueOf(string(out))
}

// goPreviewSnapshot(format, quality) returns a Promise that resolves with
// base64 image data once every image of the current descriptor has landed.
func previewSnapshot(this js.Value, args []js.Value) interface{} {
	opts, err := parseOptions(stringArgs(args)...)
	handler := js.FuncOf(func(this js.Value, p []js.Value) interface{} {
		resolve, reject := p[0], p[1]
		go func() {
			if err != nil {
				reject.Invoke(js.ValueOf(err.Error()))
				return
			}
			data, err := live.snapshot(context.Background(), opts)
			if err != nil {
				reject.Invoke(js.ValueOf(err.Error()))
				return
			}
			resolve.Invoke(js.ValueOf(data))
		}()
		return nil
	})
	defer handler.Release()
	return js.Global().Get("Promise").New(handler)
}

// goPreviewClose() drops in-flight loads of the live preview.
func previewClose(this js.Value, args []js.Value) interface{} {
	live.close()
	return js.ValueOf("ok")
}

// goValidatePoster(descriptorJSON) returns a JSON array of warnings.
func validatePoster(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need descriptorJSON")
	}
	desc, err := poster.ParseDescriptor([]byte(args[0].String()), "json")
	if err != nil {
		return js.ValueOf("error: " + err.Error())
	}
	warnings := poster.Validate(desc)
	if warnings == nil {
		warnings = []string{}
	}
	out, _ := json.Marshal(warnings)
	return js.ValueOf(string(out))
}

// goPosterLayouts() returns the layout names as a JSON array.
func posterLayouts(this js.Value, args []js.Value) interface{} {
	names := make([]string, 0, len(layout.Variants()))
	for _, v := range layout.Variants() {
		names = append(names, v.String())
	}
	out, _ := json.Marshal(names)
	return js.ValueOf(string(out))
}

// goRegisterAsset(ref, base64Data) stores image bytes under ref, which
// descriptors can then use as an image URL.
func registerAsset(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need ref, base64Data")
	}
	ref := args[0].String()
	data, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}

	assetsMu.Lock()
	registered[ref] = data
	assetsMu.Unlock()
	return js.ValueOf("ok")
}

// goRemoveAsset(ref) forgets a registered asset. Posters already rendered
// from it keep their cached copy.
func removeAsset(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need ref")
	}
	assetsMu.Lock()
	delete(registered, args[0].String())
	assetsMu.Unlock()
	return js.ValueOf("ok")
}
