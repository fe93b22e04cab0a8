package blockwalk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"reflect"

	"github.com/cogentcore/webgpu/wgpu"
)

func parseFormat(name string) wgpu.VertexFormat {
	switch name {
	case "float":
		return wgpu.VertexFormatFloat32
	case "float2":
		return wgpu.VertexFormatFloat32x2
	case "float3":
		return wgpu.VertexFormatFloat32x3
	case "float4":
		return wgpu.VertexFormatFloat32x4
	case "uint":
		return wgpu.VertexFormatUint32
	default:
		panic("unsupported vertex layout format: " + name)
	}
}

func wgpuWrapMode(mode string) wgpu.AddressMode {
	switch mode {
	case "wrap":
		return wgpu.AddressModeRepeat
	case "mirror":
		return wgpu.AddressModeMirrorRepeat
	case "clamp":
		return wgpu.AddressModeClampToEdge
	default:
		panic(fmt.Sprintf("Unknown wrap mode: %s", mode))
	}
}

func wgpuFilterMode(mode string) wgpu.FilterMode {
	switch mode {
	case "nearest":
		return wgpu.FilterModeNearest
	case "linear":
		return wgpu.FilterModeLinear
	default:
		panic(fmt.Sprintf("Unknown filter mode: %s", mode))
	}
}

// readUniformsBytes serializes fixed-size values little-endian in field order.
// Layout padding is the caller's job: uniform structs spell out their own padding fields.
func readUniformsBytes(field reflect.Value, buf *bytes.Buffer) {
	switch field.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < field.Len(); i++ {
			elem := field.Index(i)
			if elem.Kind() == reflect.Ptr {
				elem = elem.Elem()
			}
			readUniformsBytes(elem, buf)
		}

	case reflect.Struct:
		for i := 0; i < field.NumField(); i++ {
			readUniformsBytes(field.Field(i), buf)
		}

	case reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Int8, reflect.Int16, reflect.Int32,
		reflect.Float32:
		if err := binary.Write(buf, binary.LittleEndian, field.Interface()); err != nil {
			panic(fmt.Errorf("failed to write scalar field: %w", err))
		}

	default:
		panic(fmt.Errorf("unsupported uniform type: %v", field.Type()))
	}
}

func wgpuBytesPerPixel(format wgpu.TextureFormat) uint {
	switch format {
	case wgpu.TextureFormatR8Unorm, wgpu.TextureFormatR8Snorm, wgpu.TextureFormatR8Uint, wgpu.TextureFormatR8Sint:
		return 1
	case wgpu.TextureFormatR16Uint, wgpu.TextureFormatR16Sint, wgpu.TextureFormatR16Float,
		wgpu.TextureFormatRG8Unorm, wgpu.TextureFormatRG8Snorm, wgpu.TextureFormatRG8Uint, wgpu.TextureFormatRG8Sint:
		return 2
	case wgpu.TextureFormatR32Float, wgpu.TextureFormatR32Uint, wgpu.TextureFormatR32Sint,
		wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb, wgpu.TextureFormatRGBA8Snorm,
		wgpu.TextureFormatRGBA8Uint, wgpu.TextureFormatRGBA8Sint,
		wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb:
		return 4
	case wgpu.TextureFormatRG32Float, wgpu.TextureFormatRGBA16Float:
		return 8
	case wgpu.TextureFormatRGBA32Float:
		return 16
	}
	panic(fmt.Sprintf("no texel size for texture format %v", format))
}
