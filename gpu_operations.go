package blockwalk

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

type GpuState struct {
	surface       *wgpu.Surface
	adapter       *wgpu.Adapter
	device        *wgpu.Device
	queue         *wgpu.Queue
	surfaceConfig *wgpu.SurfaceConfiguration

	depthTexture *wgpu.Texture
	depthView    *wgpu.TextureView
}

func createGpuState(win *Window) (*GpuState, error) {
	if !win.IsOpen() {
		return nil, errors.New("window is not open")
	}
	instance := wgpu.CreateInstance(nil)
	defer instance.Release()
	// wraps GLFW window into a wgpu surface.
	surface := instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(win.Handle()))
	// finds a suitable GPU (discrete GPU preferred)
	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		surface.Release()
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		adapter.Release()
		surface.Release()
		return nil, fmt.Errorf("request device: %w", err)
	}

	caps := surface.GetCapabilities(adapter)
	if len(caps.Formats) == 0 || len(caps.AlphaModes) == 0 {
		device.Release()
		adapter.Release()
		surface.Release()
		return nil, errors.New("surface reports no usable formats")
	}

	width, height := win.FramebufferSize()
	// defines how the swapchain behaves (size, format, vsync)
	surfaceConfig := wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo, // vsync
		AlphaMode:   caps.AlphaModes[0],
	}

	gs := &GpuState{
		surface:       surface,
		adapter:       adapter,
		device:        device,
		queue:         device.GetQueue(),
		surfaceConfig: &surfaceConfig,
	}
	if err := gs.resize(width, height); err != nil {
		gs.release()
		return nil, err
	}
	return gs, nil
}

// resize reconfigures the swapchain and recreates the depth buffer to match.
// A zero-sized (minimized) window is ignored.
func (gs *GpuState) resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	gs.surfaceConfig.Width = uint32(width)
	gs.surfaceConfig.Height = uint32(height)
	gs.surface.Configure(gs.adapter, gs.device, gs.surfaceConfig)

	gs.releaseDepth()
	texture, err := gs.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Texture",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return fmt.Errorf("create depth view: %w", err)
	}
	gs.depthTexture = texture
	gs.depthView = view
	return nil
}

func (gs *GpuState) size() (int, int) {
	return int(gs.surfaceConfig.Width), int(gs.surfaceConfig.Height)
}

func (gs *GpuState) releaseDepth() {
	if gs.depthView != nil {
		gs.depthView.Release()
		gs.depthView = nil
	}
	if gs.depthTexture != nil {
		gs.depthTexture.Release()
		gs.depthTexture = nil
	}
}

func (gs *GpuState) release() {
	gs.releaseDepth()
	if gs.device != nil {
		gs.device.Release()
	}
	if gs.adapter != nil {
		gs.adapter.Release()
	}
	if gs.surface != nil {
		gs.surface.Release()
	}
}

func createRenderPipeline(name string, shaderCode string, buffers []wgpu.VertexBufferLayout, gpuState *GpuState) (*wgpu.RenderPipeline, error) {
	shader, err := gpuState.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          name,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaderCode},
	})
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", name, err)
	}
	defer shader.Release()

	pipeline, err := gpuState.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: name,
		Vertex: wgpu.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{
				{
					Format:    gpuState.surfaceConfig.Format,
					Blend:     nil,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeBack,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            depthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", name, err)
	}
	return pipeline, nil
}

func createBuffer(name string, contents []byte, gpuState *GpuState, usage wgpu.BufferUsage) (*wgpu.Buffer, error) {
	buffer, err := gpuState.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
		Label:    name,
		Contents: contents,
		Usage:    usage,
	})
	if err != nil {
		return nil, fmt.Errorf("buffer %s: %w", name, err)
	}
	return buffer, nil
}

// createTextureArray uploads layers of size x size RGBA8 texels as one 2D array texture.
func createTextureArray(bt *BlockTextures, gpuState *GpuState) (*wgpu.Texture, *wgpu.TextureView, error) {
	textureExtent := wgpu.Extent3D{
		Width:              uint32(bt.LayerSize),
		Height:             uint32(bt.LayerSize),
		DepthOrArrayLayers: uint32(bt.Layers),
	}
	texture, err := gpuState.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Block Textures",
		Size:          textureExtent,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatRGBA8UnormSrgb,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create block texture array: %w", err)
	}

	err = gpuState.queue.WriteTexture(
		texture.AsImageCopy(),
		bt.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  uint32(bt.LayerSize) * uint32(wgpuBytesPerPixel(wgpu.TextureFormatRGBA8UnormSrgb)),
			RowsPerImage: uint32(bt.LayerSize),
		},
		&textureExtent,
	)
	if err != nil {
		texture.Release()
		return nil, nil, fmt.Errorf("upload block textures: %w", err)
	}

	view, err := texture.CreateView(&wgpu.TextureViewDescriptor{
		Label:           "Block Textures View",
		Format:          wgpu.TextureFormatRGBA8UnormSrgb,
		Dimension:       wgpu.TextureViewDimension2DArray,
		BaseMipLevel:    0,
		MipLevelCount:   1,
		BaseArrayLayer:  0,
		ArrayLayerCount: uint32(bt.Layers),
	})
	if err != nil {
		texture.Release()
		return nil, nil, fmt.Errorf("block texture view: %w", err)
	}
	return texture, view, nil
}

func createSampler(gpuState *GpuState, filter string, wrap string) (*wgpu.Sampler, error) {
	return gpuState.device.CreateSampler(&wgpu.SamplerDescriptor{
		AddressModeU:  wgpuWrapMode(wrap),
		AddressModeV:  wgpuWrapMode(wrap),
		AddressModeW:  wgpuWrapMode(wrap),
		MagFilter:     wgpuFilterMode(filter),
		MinFilter:     wgpuFilterMode(filter),
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		Compare:       wgpu.CompareFunctionUndefined,
		MaxAnisotropy: 1,
	})
}

func toBufferBytes(data any) []byte {
	val := reflect.ValueOf(data)
	buf := new(bytes.Buffer)
	readUniformsBytes(val, buf)
	return buf.Bytes()
}

// createVertexBufferLayout derives attributes from struct tags:
//
//	Position [3]float32 `blockwalk:"layout" location:"0" format:"float3"`
func createVertexBufferLayout(vertexType any, stepMode wgpu.VertexStepMode) wgpu.VertexBufferLayout {
	t := reflect.TypeOf(vertexType)
	if t.Kind() != reflect.Struct {
		panic("Vertex must be a struct")
	}

	var attributes []wgpu.VertexAttribute
	var offset uint64 = 0

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if "layout" == field.Tag.Get("blockwalk") {
			format := parseFormat(field.Tag.Get("format"))
			location, err := strconv.Atoi(field.Tag.Get("location"))
			if nil != err {
				panic(err)
			}

			attributes = append(attributes, wgpu.VertexAttribute{
				ShaderLocation: uint32(location),
				Offset:         offset,
				Format:         format,
			})
		}

		// Add size of field to offset
		offset += uint64(field.Type.Size())
	}

	return wgpu.VertexBufferLayout{
		ArrayStride: offset,
		StepMode:    stepMode,
		Attributes:  attributes,
	}
}
