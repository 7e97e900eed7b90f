//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/voxelsplace/voxelize/api"
	"github.com/voxelsplace/voxelize/vox"
	"github.com/voxelsplace/voxelize/voxel"
)

func bytesFromJS(v js.Value) []byte {
	buf := make([]byte, v.Get("length").Int())
	js.CopyBytesToGo(buf, v)
	return buf
}

func bytesToJS(b []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(b))
	js.CopyBytesToJS(arr, b)
	return arr
}

// options reads {dim, mode, solid, sparse, fillColor, maxColors} from a JS
// object. Missing fields keep their defaults.
func options(v js.Value) (voxel.Options, error) {
	opts := voxel.DefaultOptions()
	if v.Type() != js.TypeObject {
		return opts, nil
	}
	if d := v.Get("dim"); d.Type() == js.TypeNumber {
		opts.Dim = d.Int()
	}
	if s := v.Get("sparse"); s.Type() == js.TypeBoolean {
		opts.Sparse = s.Bool()
	}
	if s := v.Get("solid"); s.Type() == js.TypeBoolean {
		opts.Solid = s.Bool()
	}
	if m := v.Get("maxColors"); m.Type() == js.TypeNumber {
		opts.MaxColors = m.Int()
	}
	if m := v.Get("mode"); m.Type() == js.TypeString {
		mode, err := voxel.ParseMode(m.String())
		if err != nil {
			return opts, err
		}
		opts.Mode = mode
	}
	if c := v.Get("fillColor"); c.Type() == js.TypeString && c.String() != "" {
		col, err := voxel.ParseHexColor(c.String())
		if err != nil {
			return opts, err
		}
		opts.FillColor = &col
	}
	return opts, opts.Validate()
}

func glb2vox(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing glb bytes")
	}
	var optsArg js.Value
	if len(args) > 1 {
		optsArg = args[1]
	}
	opts, err := options(optsArg)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	out, _, err := api.GLBToVox(bytesFromJS(args[0]), opts, vox.NoCompression)
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func vox2glb(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf("missing vox bytes")
	}
	out, err := api.VoxToGLB(bytesFromJS(args[0]))
	if err != nil {
		return js.ValueOf(err.Error())
	}
	return bytesToJS(out)
}

func main() {
	js.Global().Set("glb2vox", js.FuncOf(glb2vox))
	js.Global().Set("vox2glb", js.FuncOf(vox2glb))
	select {}
}
